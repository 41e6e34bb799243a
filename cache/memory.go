package cache

import (
	"context"
	"sync"

	"github.com/aluiziolira/go-scrape-shop/models"
)

// MemoryCache is an unbounded map guarded by a RWMutex. Entries never expire.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]models.StoredProduct
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]models.StoredProduct)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (models.StoredProduct, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value models.StoredProduct) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

// Len returns the number of cached titles.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *MemoryCache) Close() error {
	return nil
}
