// Package scraper implements the wishlist-import pipeline: candidate URL
// resolution, sequential fetching, cascaded structural and field
// extraction, and normalization into registry-ready items.
package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nestlist/wishlist-scraper/config"
	"github.com/nestlist/wishlist-scraper/models"
)

// Scraper runs the full scrape pipeline for one wishlist URL at a time.
// Safe for concurrent use; each invocation's document and item list are
// invocation-local.
type Scraper struct {
	cfg       *config.Config
	fetcher   *Fetcher
	extractor *Extractor
	cache     *expirable.LRU[string, *models.ScrapeResult]
	Metrics   *Metrics
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	metrics := NewMetrics()
	fetcher, err := NewFetcher(cfg, metrics)
	if err != nil {
		return nil, err
	}

	var cache *expirable.LRU[string, *models.ScrapeResult]
	if cfg.CacheSize > 0 {
		cache = expirable.NewLRU[string, *models.ScrapeResult](cfg.CacheSize, nil, cfg.CacheTTL)
	}

	return &Scraper{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: NewExtractor(cfg, metrics),
		cache:     cache,
		Metrics:   metrics,
	}, nil
}

// Scrape resolves, fetches, extracts, and normalizes one wishlist. The
// call is synchronous; it returns once the pipeline reaches a terminal
// success or failure. Recently scraped wishlists are served from the
// result cache to avoid re-hammering the upstream site.
func (s *Scraper) Scrape(ctx context.Context, wishlistURL string) (*models.ScrapeResult, error) {
	wishlistID, err := ExtractWishlistID(wishlistURL)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(wishlistID); ok {
			s.Metrics.IncCacheHit()
			slog.Debug("scrape served from cache", slog.String("wishlist_id", wishlistID))
			return cached, nil
		}
	}

	start := time.Now()
	candidates := CandidateURLs(s.cfg.UpstreamOrigin, wishlistID)

	body, chosen, attempts, err := s.fetcher.Fetch(ctx, candidates)
	if err != nil {
		return nil, err
	}

	result, err := s.extractor.Extract(body)
	if err != nil {
		return nil, err
	}
	result.SourceURL = chosen
	result.FetchAttempts = attempts
	result.Duration = time.Since(start)

	s.Metrics.ObserveScrape(result.Duration)

	if len(result.Items) == 0 {
		// Zero items with zero structural matches anywhere is suspicious;
		// keep a snapshot of the document head for selector archaeology.
		if result.Selector == "" {
			snapshot := body
			if len(snapshot) > 1000 {
				snapshot = snapshot[:1000]
			}
			slog.Debug("no items and no structural matches",
				slog.String("url", chosen),
				slog.String("body_head", string(snapshot)),
			)
		}
		slog.Info("scrape produced no items",
			slog.String("wishlist_id", wishlistID),
			slog.Bool("used_fallback", result.UsedFallback),
		)
	} else {
		slog.Info("scrape complete",
			slog.String("wishlist_id", wishlistID),
			slog.Int("items", len(result.Items)),
			slog.String("selector", result.Selector),
			slog.Int("fetch_attempts", attempts),
			slog.Bool("has_more_pages", result.HasMorePages),
			slog.Duration("duration", result.Duration),
		)
	}

	if s.cache != nil {
		s.cache.Add(wishlistID, result)
	}
	return result, nil
}
