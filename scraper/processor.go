package scraper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/aluiziolira/go-scrape-shop/models"
	"github.com/aluiziolira/go-scrape-shop/parser"
	"github.com/aluiziolira/go-scrape-shop/storage"
)

// process downloads, stores, and caches one product. Failures are reported
// through the notifier and never escape.
func (ss *session) process(ctx context.Context, product models.Product) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ss.fail(ctx, product, fmt.Errorf("panic: %v", r))
			ok = false
		}
	}()

	if err := ss.store(ctx, product); err != nil {
		ss.fail(ctx, product, err)
		return false
	}
	return true
}

func (ss *session) store(ctx context.Context, product models.Product) error {
	s := ss.scraper

	name, err := parser.ImageFilename(product.ImageURL)
	if err != nil {
		return err
	}
	dest := filepath.Join(s.cfg.ImageDir, name)
	if err := ss.download(ctx, product.ImageURL, dest); err != nil {
		return err
	}
	absPath, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("resolve image path: %w", err)
	}

	record := models.StoredProduct{
		Title:     product.Title,
		Price:     product.Price,
		ImagePath: absPath,
	}
	if err := s.storage.Save(ctx, record); err != nil {
		var partial *storage.PartialSaveError
		if !errors.As(err, &partial) {
			return ErrStorage{Err: err}
		}
		// Persisted somewhere, so it is cached like any other save.
		s.Metrics.IncError("storage")
		s.logger.Warn("some storage backends failed",
			zap.String("title", product.Title),
			zap.Int("saved", partial.Saved),
			zap.Error(err),
		)
		s.notifier.Notify(ctx, fmt.Sprintf("Error saving product %s to some storage backends: %v", product.Title, err))
	}

	// Already persisted; a failed cache write does not undo the save.
	if err := s.cache.Set(ctx, product.Title, record); err != nil {
		s.logger.Warn("cache update failed", zap.String("title", product.Title), zap.Error(err))
		s.notifier.Notify(ctx, fmt.Sprintf("Error caching product %s: %v", product.Title, err))
	}
	return nil
}

func (ss *session) fail(ctx context.Context, product models.Product, err error) {
	s := ss.scraper
	s.Metrics.IncError(errorTypeLabel(err))
	s.logger.Error("product processing failed",
		zap.String("title", product.Title),
		zap.String("image_url", product.ImageURL),
		zap.Error(err),
	)
	s.notifier.Notify(ctx, fmt.Sprintf("Error processing product %s: %v", product.Title, err))
}
