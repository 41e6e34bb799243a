package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-scrape-shop/models"
)

// LRUCache bounds memory by evicting the least recently seen titles. An evicted
// title is simply processed again on its next appearance.
type LRUCache struct {
	items *lru.Cache[string, models.StoredProduct]
}

func NewLRUCache(size int) (*LRUCache, error) {
	items, err := lru.New[string, models.StoredProduct](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRUCache{items: items}, nil
}

func (c *LRUCache) Get(_ context.Context, key string) (models.StoredProduct, bool, error) {
	v, ok := c.items.Get(key)
	return v, ok, nil
}

func (c *LRUCache) Set(_ context.Context, key string, value models.StoredProduct) error {
	c.items.Add(key, value)
	return nil
}

func (c *LRUCache) Len() int {
	return c.items.Len()
}

func (c *LRUCache) Close() error {
	return nil
}
