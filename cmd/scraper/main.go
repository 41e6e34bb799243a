package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aluiziolira/go-scrape-shop/api"
	"github.com/aluiziolira/go-scrape-shop/cache"
	"github.com/aluiziolira/go-scrape-shop/config"
	"github.com/aluiziolira/go-scrape-shop/models"
	"github.com/aluiziolira/go-scrape-shop/notify"
	"github.com/aluiziolira/go-scrape-shop/scraper"
	"github.com/aluiziolira/go-scrape-shop/storage"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "scraper: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("scraper", flag.ContinueOnError)
	configFile := fs.String("config", os.Getenv("CONFIG_FILE"), "Optional config file (yaml, json, toml, or env)")
	once := fs.Bool("once", false, "Run a single scrape and exit instead of serving the API")
	pages := fs.Int("pages", -1, "Page limit for -once (0 = until an empty page; default DEFAULT_PAGE_LIMIT)")
	proxy := fs.String("proxy", "", "Proxy URL for page requests in -once mode")
	verbose := fs.Bool("v", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(*verbose, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	validate := cfg.ValidateServer
	if *once {
		validate = cfg.Validate
	}
	if err := validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("close storage", zap.Error(err))
		}
	}()

	priceCache, err := cache.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer priceCache.Close()

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	recorder := &notify.Recorder{}
	if *once {
		notifier = notify.Multi{notifier, recorder}
	}

	s, err := scraper.NewScraper(cfg, store, priceCache, notifier, logger)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	if !*once {
		return serve(ctx, cfg, s, logger)
	}

	limit := cfg.DefaultPageLimit
	if *pages >= 0 {
		limit = *pages
	}
	logger.Info("starting scrape",
		zap.String("page_url_template", cfg.PageURLTemplate),
		zap.Int("page_limit", limit),
		zap.Strings("storage", cfg.Backends()),
		zap.String("cache", cfg.CacheBackend),
	)
	result, err := s.Run(ctx, limit, *proxy)
	if err != nil {
		return fmt.Errorf("scraping failed: %w", err)
	}
	printSummary(result, cfg, len(recorder.Messages()))
	return nil
}

func serve(ctx context.Context, cfg *config.Config, s *scraper.Scraper, logger *zap.Logger) error {
	server := api.NewServer(cfg, s, s.Metrics.Registry, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("server started", zap.String("port", cfg.ServerPort))

	select {
	case err := <-errCh:
		return fmt.Errorf("could not start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exiting")
	return nil
}

func printSummary(result *models.ScraperResult, cfg *config.Config, notifications int) {
	separator := "--------------------------------------------------"
	duration := result.EndTime.Sub(result.StartTime)

	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")
	fmt.Printf("  Pages:         %d\n", result.Pages)
	fmt.Printf("  Updated:       %d\n", result.Processed)
	fmt.Printf("  Unchanged:     %d\n", result.Skipped)
	fmt.Printf("  Failed:        %d\n", result.Failed)
	fmt.Printf("  Notifications: %d\n", notifications)
	fmt.Printf("  Duration:      %v\n", duration.Round(time.Millisecond))
	fmt.Printf("  Storage:       %v\n", cfg.Backends())
	fmt.Printf("  Images:        %s\n", cfg.ImageDir)
	fmt.Println(separator)
}

func newLogger(verbose bool, level string) (*zap.Logger, error) {
	if verbose || level == "debug" {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zcfg.Build()
}
