package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	config "github.com/opencatalog/bulkops/pkg/bulkops/core/config"
)

// RedisCache is a Redis-backed Cache implementation, suitable for
// multi-instance deployments where reference lookups should be shared.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a RedisCache from the cache configuration.
func NewRedisCache(cfg *config.CacheConfig) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return &RedisCache{client: client}
}

// Get returns the cached value or ErrMiss when absent.
func (c *RedisCache) Get(ctx context.Context, key, tenantID string) (string, error) {
	value, err := c.client.Get(ctx, entryKey(key, tenantID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return value, nil
}

// Set stores the value with the given TTL.
func (c *RedisCache) Set(ctx context.Context, key, tenantID, value string, ttl time.Duration) error {
	return c.client.Set(ctx, entryKey(key, tenantID), value, ttl).Err()
}

// Invalidate removes the entry if present.
func (c *RedisCache) Invalidate(ctx context.Context, key, tenantID string) error {
	return c.client.Del(ctx, entryKey(key, tenantID)).Err()
}

// Close releases the underlying Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
