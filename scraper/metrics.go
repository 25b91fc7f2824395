package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the wishlist scraper.
type Metrics struct {
	Registry           *prometheus.Registry
	FetchAttemptsTotal *prometheus.CounterVec
	ScrapeDuration     prometheus.Histogram
	ItemsScrapedTotal  prometheus.Counter
	CacheHitsTotal     prometheus.Counter
	ErrorsTotal        *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	fetchAttempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishlist_fetch_attempts_total",
			Help: "Candidate URL fetch attempts by outcome.",
		},
		[]string{"outcome"},
	)
	scrapeDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wishlist_scrape_duration_seconds",
			Help:    "End-to-end wishlist scrape latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	itemsScraped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wishlist_items_scraped_total",
			Help: "Total normalized items emitted by extraction passes.",
		},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wishlist_cache_hits_total",
			Help: "Scrape requests served from the result cache.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishlist_errors_total",
			Help: "Total scraper errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(fetchAttempts, scrapeDuration, itemsScraped, cacheHits, errorsTotal)

	return &Metrics{
		Registry:           registry,
		FetchAttemptsTotal: fetchAttempts,
		ScrapeDuration:     scrapeDuration,
		ItemsScrapedTotal:  itemsScraped,
		CacheHitsTotal:     cacheHits,
		ErrorsTotal:        errorsTotal,
	}
}

// IncFetchAttempt increments the fetch attempts counter.
func (m *Metrics) IncFetchAttempt(outcome string) {
	if m == nil {
		return
	}
	m.FetchAttemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveScrape records an end-to-end scrape duration.
func (m *Metrics) ObserveScrape(d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapeDuration.Observe(d.Seconds())
}

// AddItems increments the items scraped counter.
func (m *Metrics) AddItems(n int) {
	if m == nil {
		return
	}
	m.ItemsScrapedTotal.Add(float64(n))
}

// IncCacheHit increments the cache hit counter.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
