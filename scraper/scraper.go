package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aluiziolira/go-scrape-shop/cache"
	"github.com/aluiziolira/go-scrape-shop/config"
	"github.com/aluiziolira/go-scrape-shop/models"
	"github.com/aluiziolira/go-scrape-shop/notify"
	"github.com/aluiziolira/go-scrape-shop/parser"
	"github.com/aluiziolira/go-scrape-shop/storage"
)

// Scraper walks the catalog page by page and processes every product whose
// price changed since the last run.
type Scraper struct {
	cfg      *config.Config
	fetcher  *Fetcher
	storage  storage.Storage
	cache    cache.Cache
	notifier notify.Notifier
	logger   *zap.Logger
	Metrics  *Metrics

	roundTripper http.RoundTripper
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config, store storage.Storage, c cache.Cache, notifier notify.Notifier, logger *zap.Logger) (*Scraper, error) {
	parsed, err := url.Parse(cfg.PageURL(1))
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("page url must include a host")
	}
	if store == nil || c == nil || notifier == nil {
		return nil, fmt.Errorf("storage, cache, and notifier are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics := NewMetrics()
	return &Scraper{
		cfg:      cfg,
		fetcher:  NewFetcher(cfg, metrics, logger),
		storage:  store,
		cache:    c,
		notifier: notifier,
		logger:   logger,
		Metrics:  metrics,
	}, nil
}

// Run scrapes pages 1..pageLimit, or until an empty page when pageLimit <= 0.
// A page that cannot be fetched or has no shop content aborts the run; per
// product failures are only reported.
func (s *Scraper) Run(ctx context.Context, pageLimit int, proxy string) (*models.ScraperResult, error) {
	if err := os.MkdirAll(s.cfg.ImageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	sess := s.openSession()
	defer sess.Close()

	result := &models.ScraperResult{StartTime: time.Now()}
	opts := parser.Options{CurrencySymbols: []string{s.cfg.CurrencySymbol}}

	for page := 1; pageLimit <= 0 || page <= pageLimit; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageURL := s.cfg.PageURL(page)
		s.logger.Info("scraping page", zap.Int("page", page), zap.String("url", pageURL))

		body, err := s.fetcher.Fetch(ctx, pageURL, proxy)
		if err != nil {
			s.Metrics.IncError(errorTypeLabel(err))
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		products, warnings, err := parser.ExtractProducts(body, opts)
		if err != nil {
			s.Metrics.IncError("parse")
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		result.Pages++
		s.Metrics.IncPages()

		for _, warning := range warnings {
			s.notifier.Notify(ctx, warning)
		}

		processed, failed, skipped := s.processPage(ctx, sess, pageURL, products)
		result.Processed += processed
		result.Failed += failed
		result.Skipped += skipped

		s.logger.Debug("page done",
			zap.Int("page", page),
			zap.Int("found", len(products)),
			zap.Int("processed", processed),
			zap.Int("failed", failed),
			zap.Int("skipped", skipped),
		)

		if len(products) == 0 {
			break
		}
	}

	result.EndTime = time.Now()
	s.notifier.Notify(ctx, fmt.Sprintf("Scraped and updated %d products", result.Processed))
	return result, nil
}

// processPage runs every changed product concurrently and waits for all of them.
func (s *Scraper) processPage(ctx context.Context, sess *session, pageURL string, products []models.Product) (processed, failed, skipped int) {
	var g errgroup.Group
	if s.cfg.Parallelism > 0 {
		g.SetLimit(s.cfg.Parallelism)
	}

	var ok, bad atomic.Int64
	for _, product := range products {
		product.ImageURL = parser.ResolveURL(pageURL, product.ImageURL)

		changed, err := ShouldProcess(ctx, s.cache, product)
		if err != nil {
			s.logger.Warn("cache lookup failed, processing anyway", zap.Error(err))
		}
		if !changed {
			skipped++
			s.Metrics.IncSkipped()
			continue
		}

		product := product
		g.Go(func() error {
			if sess.process(ctx, product) {
				ok.Add(1)
				s.Metrics.IncProcessed()
			} else {
				bad.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(ok.Load()), int(bad.Load()), skipped
}
