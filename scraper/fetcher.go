package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/nestlist/wishlist-scraper/config"
)

// Fetcher wraps a colly collector configured for the upstream site. It
// tries candidate URLs strictly in order and keeps the first body that
// arrives without a transport or HTTP error.
type Fetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	metrics   *Metrics
}

// NewFetcher builds a fetcher instance configured from cfg.
func NewFetcher(cfg *config.Config, metrics *Metrics) (*Fetcher, error) {
	parsed, err := url.Parse(cfg.UpstreamOrigin)
	if err != nil {
		return nil, fmt.Errorf("parse upstream origin: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("upstream origin must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
	)
	collector.AllowURLRevisit = true
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(cfg.FetchTimeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.FetchTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Fetcher{
		cfg:       cfg,
		collector: collector,
		metrics:   metrics,
	}, nil
}

// Fetch attempts each candidate URL in order and returns the first body
// fetched without error, together with the URL that produced it. One
// attempt per URL, no retries. When every candidate fails the per-attempt
// errors are aggregated into ErrAllSourcesUnreachable.
func (f *Fetcher) Fetch(ctx context.Context, candidates []string) (body []byte, chosen string, attempts int, err error) {
	if len(candidates) == 0 {
		return nil, "", 0, fmt.Errorf("no candidate URLs")
	}

	var failures []AttemptError
	for _, candidate := range candidates {
		if ctx != nil && ctx.Err() != nil {
			return nil, "", attempts, ctx.Err()
		}
		attempts++

		fetched, statusCode, fetchErr := f.fetchOne(candidate)
		if fetchErr == nil {
			f.metrics.IncFetchAttempt("success")
			slog.Debug("fetched wishlist", slog.String("url", candidate), slog.Int("bytes", len(fetched)))
			return fetched, candidate, attempts, nil
		}

		classified := classifyError(fetchErr, statusCode)
		f.metrics.IncFetchAttempt("failure")
		f.metrics.IncError(errorTypeLabel(classified))
		slog.Debug("candidate fetch failed",
			slog.String("url", candidate),
			slog.String("category", errorTypeLabel(classified)),
			slog.Any("error", fetchErr),
		)
		failures = append(failures, AttemptError{URL: candidate, Err: classified})
	}

	return nil, "", attempts, ErrAllSourcesUnreachable{Attempts: failures}
}

// fetchOne issues a single GET through a cloned collector. Clones share
// the base collector's backend (and any injected transport) but need
// their own callbacks.
func (f *Fetcher) fetchOne(target string) ([]byte, int, error) {
	var (
		body       []byte
		statusCode int
	)

	collector := f.collector.Clone()
	headers := f.cfg.Headers()
	collector.OnRequest(func(r *colly.Request) {
		for key, value := range headers {
			r.Headers.Set(key, value)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	if err := collector.Visit(target); err != nil {
		return nil, statusCode, err
	}
	collector.Wait()
	if len(body) == 0 {
		return nil, statusCode, fmt.Errorf("empty response body")
	}
	return body, statusCode, nil
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
	}

	if err == nil {
		return nil
	}
	return err
}
