package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nestlist/wishlist-scraper/config"
	"github.com/nestlist/wishlist-scraper/registry"
	"github.com/nestlist/wishlist-scraper/scraper"
	"github.com/nestlist/wishlist-scraper/server"
)

func main() {
	_ = godotenv.Load()

	defaultCfg := config.DefaultConfig()
	listenDefault := defaultCfg.ListenAddr
	if value, ok := config.EnvString("SCRAPER_LISTEN_ADDR"); ok {
		listenDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	registryURLDefault, _ := config.EnvString("REGISTRY_URL")
	registryKeyDefault, _ := config.EnvString("REGISTRY_KEY")

	listenAddr := flag.String("listen", listenDefault, "API listen address")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	upstreamOrigin := flag.String("upstream", defaultCfg.UpstreamOrigin, "Upstream wishlist site origin")
	fetchTimeout := flag.Duration("fetch-timeout", defaultCfg.FetchTimeout, "Upstream fetch timeout")
	cacheSize := flag.Int("cache-size", defaultCfg.CacheSize, "Result cache size (0 disables)")
	cacheTTL := flag.Duration("cache-ttl", defaultCfg.CacheTTL, "Result cache entry lifetime")
	registryURL := flag.String("registry-url", registryURLDefault, "Registry store batch-insert endpoint")
	registryKey := flag.String("registry-key", registryKeyDefault, "Registry store service key")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.ListenAddr = *listenAddr
	cfg.MetricsAddr = *metricsAddr
	cfg.UpstreamOrigin = *upstreamOrigin
	cfg.FetchTimeout = *fetchTimeout
	cfg.CacheSize = *cacheSize
	cfg.CacheTTL = *cacheTTL
	cfg.RegistryURL = *registryURL
	cfg.RegistryKey = *registryKey
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	var store registry.Store
	if cfg.RegistryURL != "" {
		store = registry.NewClient(cfg)
	} else {
		slog.Warn("registry store not configured, import endpoint disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	apiServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.New(s, store).Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.FetchTimeout + 10*time.Second,
	}

	go func() {
		slog.Info("api server listening", slog.String("addr", cfg.ListenAddr))
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received, draining in-flight requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("api server shutdown failed", slog.Any("error", err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
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
