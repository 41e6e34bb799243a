// Package cache remembers the last stored record per product title.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aluiziolira/go-scrape-shop/config"
	"github.com/aluiziolira/go-scrape-shop/models"
)

// Cache is safe for concurrent use by the goroutines of one page.
type Cache interface {
	Get(ctx context.Context, key string) (models.StoredProduct, bool, error)
	Set(ctx context.Context, key string, value models.StoredProduct) error
	Close() error
}

// Open builds the backend selected by CACHE_BACKEND.
func Open(ctx context.Context, cfg *config.Config) (Cache, error) {
	switch cfg.CacheBackend {
	case "", "memory":
		return NewMemoryCache(), nil
	case "lru":
		return NewLRUCache(cfg.CacheSize)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisCache(client, cfg.RedisKeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
