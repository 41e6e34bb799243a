package scraper

import (
	"context"
	"fmt"

	"github.com/aluiziolira/go-scrape-shop/cache"
	"github.com/aluiziolira/go-scrape-shop/models"
)

// ShouldProcess reports whether product is new or its price moved since it was
// last stored. On a cache error it still answers true alongside the error.
func ShouldProcess(ctx context.Context, c cache.Cache, product models.Product) (bool, error) {
	stored, ok, err := c.Get(ctx, product.Title)
	if err != nil {
		return true, fmt.Errorf("cache lookup %q: %w", product.Title, err)
	}
	if !ok {
		return true, nil
	}
	return PriceChanged(stored.Price, product.Price), nil
}

// PriceChanged compares two optional prices. An absent price equals only another
// absent price.
func PriceChanged(cached, candidate *float64) bool {
	if cached == nil || candidate == nil {
		return (cached == nil) != (candidate == nil)
	}
	return *cached != *candidate
}
