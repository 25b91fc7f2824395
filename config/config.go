package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds wishlist scraper configuration.
type Config struct {
	// UpstreamOrigin is the scheme+host used to absolutize relative links
	// and to build candidate fetch URLs.
	UpstreamOrigin string
	// Retailer labels every item extracted from the upstream source.
	Retailer string

	UserAgent    string
	FetchTimeout time.Duration

	// CoverageThreshold is the item count below which the document is
	// probed for pagination markup.
	CoverageThreshold int

	// CacheSize and CacheTTL bound the per-wishlist result cache. A size
	// of zero disables caching.
	CacheSize int
	CacheTTL  time.Duration

	// RegistryURL and RegistryKey locate the external registry store's
	// batch-insert endpoint.
	RegistryURL string
	RegistryKey string

	ListenAddr  string
	MetricsAddr string

	// Pipeline settings for the export path.
	Parallelism        int
	PipelineBufferSize int
	BatchSize          int
	OutputFile         string
	OutputFormat       string // csv, json, or dual

	Verbose bool
}

// DefaultConfig returns conservative defaults for the upstream target.
func DefaultConfig() *Config {
	return &Config{
		UpstreamOrigin:     "https://www.amazon.com",
		Retailer:           "Amazon",
		UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		FetchTimeout:       15 * time.Second,
		CoverageThreshold:  20,
		CacheSize:          64,
		CacheTTL:           5 * time.Minute,
		ListenAddr:         ":3001",
		MetricsAddr:        "",
		Parallelism:        2,
		PipelineBufferSize: 256,
		BatchSize:          32,
		OutputFile:         "output/items.csv",
		OutputFormat:       "csv",
		Verbose:            false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.UpstreamOrigin == "" {
		return fmt.Errorf("upstream origin cannot be empty")
	}
	parsed, err := url.Parse(c.UpstreamOrigin)
	if err != nil {
		return fmt.Errorf("invalid upstream origin: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("upstream origin must include scheme and host")
	}
	if c.Retailer == "" {
		return fmt.Errorf("retailer label cannot be empty")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.CoverageThreshold < 0 {
		return fmt.Errorf("coverage threshold cannot be negative")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size cannot be negative")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache ttl cannot be negative")
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	return nil
}

// Headers returns the browser-like request header set sent with every
// upstream fetch. Kept as data so markup-drift adaptations never touch
// control flow.
func (c *Config) Headers() map[string]string {
	return map[string]string{
		"User-Agent":                c.UserAgent,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.5",
		"Accept-Encoding":           "gzip, deflate, br",
		"DNT":                       "1",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
	}
}
