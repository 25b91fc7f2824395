// Command scraper runs a one-off wishlist scrape and exports the items to
// CSV/JSON files or straight into the registry store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nestlist/wishlist-scraper/config"
	"github.com/nestlist/wishlist-scraper/models"
	"github.com/nestlist/wishlist-scraper/pipeline"
	"github.com/nestlist/wishlist-scraper/registry"
	"github.com/nestlist/wishlist-scraper/scraper"
)

func main() {
	_ = godotenv.Load()

	defaultCfg := config.DefaultConfig()
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		outputDefault = value
	}
	registryURLDefault, _ := config.EnvString("REGISTRY_URL")
	registryKeyDefault, _ := config.EnvString("REGISTRY_KEY")

	wishlistURL := flag.String("url", "", "Wishlist URL to scrape (required)")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, dual, or registry")
	upstreamOrigin := flag.String("upstream", defaultCfg.UpstreamOrigin, "Upstream wishlist site origin")
	fetchTimeout := flag.Duration("fetch-timeout", defaultCfg.FetchTimeout, "Upstream fetch timeout")
	registryURL := flag.String("registry-url", registryURLDefault, "Registry store batch-insert endpoint")
	registryKey := flag.String("registry-key", registryKeyDefault, "Registry store service key")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if *wishlistURL == "" {
		fmt.Fprintln(os.Stderr, "usage: scraper -url <wishlist url> [-format csv|json|dual|registry]")
		os.Exit(2)
	}

	cfg := defaultCfg
	cfg.UpstreamOrigin = *upstreamOrigin
	cfg.FetchTimeout = *fetchTimeout
	cfg.OutputFile = *outputFile
	cfg.RegistryURL = *registryURL
	cfg.RegistryKey = *registryKey
	cfg.Verbose = *verbose
	cfg.CacheSize = 0 // one-shot run, nothing to cache
	format := strings.ToLower(*outputFormat)
	if format != "registry" {
		cfg.OutputFormat = format
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer, err := createWriter(ctx, format, cfg)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	start := time.Now()
	result, err := s.Scrape(ctx, *wishlistURL)
	if err != nil {
		slog.Error("scraping failed", slog.Any("error", err))
		os.Exit(1)
	}

	p := pipeline.NewPipeline(writer, cfg.PipelineBufferSize, cfg.BatchSize)
	p.Start(cfg.Parallelism)
	if err := p.Process(result.Items); err != nil {
		slog.Error("pipeline process failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	if len(result.Items) > 0 {
		if err := writer.Validate(); err != nil {
			slog.Error("output validation failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	printSummary(result, time.Since(start), format, cfg.OutputFile, p.GetMetrics())
}

func createWriter(ctx context.Context, format string, cfg *config.Config) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(cfg.OutputFile)
	case "csv":
		return pipeline.NewCSVWriter(cfg.OutputFile)
	case "dual":
		jsonFilename := strings.TrimSuffix(cfg.OutputFile, ".csv") + ".json"
		return pipeline.NewDualWriter(cfg.OutputFile, jsonFilename)
	case "registry":
		if cfg.RegistryURL == "" {
			return nil, fmt.Errorf("registry format requires -registry-url")
		}
		return pipeline.NewRegistryWriter(ctx, registry.NewClient(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.ScrapeResult, duration time.Duration, format, outputFile string, metrics map[string]interface{}) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Wishlist scrape complete")

	processed := int64(0)
	if value, ok := metrics["processed_items"].(int64); ok {
		processed = value
	}

	fmt.Printf("  Items found:    %d\n", len(result.Items))
	fmt.Printf("  Items exported: %d\n", processed)
	fmt.Printf("  Source URL:     %s\n", result.SourceURL)
	fmt.Printf("  Selector:       %s\n", selectorLabel(result))
	fmt.Printf("  Fetch attempts: %d\n", result.FetchAttempts)
	if result.HasMorePages {
		fmt.Println("  Note: the wishlist may have more items on additional pages")
	}
	if rejections, ok := metrics["rejections"].(map[string]int); ok && len(rejections) > 0 {
		fmt.Printf("  Rejections:     %v\n", rejections)
	}
	fmt.Printf("  Duration:       %v\n", duration)
	if format != "registry" {
		fmt.Printf("  Output file:    %s\n", outputFile)
	}
	fmt.Println(separator)
}

func selectorLabel(result *models.ScrapeResult) string {
	if result.UsedFallback {
		return "fallback"
	}
	if result.Selector == "" {
		return "none"
	}
	return result.Selector
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
