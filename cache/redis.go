package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aluiziolira/go-scrape-shop/models"
)

// RedisCache shares the price cache between processes. Values are stored as
// JSON under prefix+title without expiry.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) key(title string) string {
	return c.prefix + title
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.StoredProduct, bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.StoredProduct{}, false, nil
	}
	if err != nil {
		return models.StoredProduct{}, false, fmt.Errorf("redis get: %w", err)
	}

	var v models.StoredProduct
	if err := json.Unmarshal(raw, &v); err != nil {
		return models.StoredProduct{}, false, fmt.Errorf("decode cached product: %w", err)
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value models.StoredProduct) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached product: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
