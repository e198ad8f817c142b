package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventquote_backend/internal/quotations/pricing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "pricing:config:"

// Cache keeps resolved pricing configurations between requests.
type Cache interface {
	Get(ctx context.Context, orgID uuid.UUID) (pricing.Configuration, bool, error)
	Set(ctx context.Context, orgID uuid.UUID, cfg pricing.Configuration) error
	Invalidate(ctx context.Context, orgID uuid.UUID) error
}

// RedisCache stores configurations as JSON with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed configuration cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) key(orgID uuid.UUID) string {
	return cacheKeyPrefix + orgID.String()
}

// Get returns the cached configuration, if any.
func (c *RedisCache) Get(ctx context.Context, orgID uuid.UUID) (pricing.Configuration, bool, error) {
	raw, err := c.client.Get(ctx, c.key(orgID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return pricing.Configuration{}, false, nil
		}
		return pricing.Configuration{}, false, fmt.Errorf("get cached pricing configuration: %w", err)
	}

	var cfg pricing.Configuration
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return pricing.Configuration{}, false, fmt.Errorf("decode cached pricing configuration: %w", err)
	}
	return cfg, true, nil
}

// Set stores the configuration under the organization key.
func (c *RedisCache) Set(ctx context.Context, orgID uuid.UUID, cfg pricing.Configuration) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode pricing configuration: %w", err)
	}
	if err := c.client.Set(ctx, c.key(orgID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache pricing configuration: %w", err)
	}
	return nil
}

// Invalidate drops the cached configuration.
func (c *RedisCache) Invalidate(ctx context.Context, orgID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(orgID)).Err(); err != nil {
		return fmt.Errorf("invalidate pricing configuration: %w", err)
	}
	return nil
}

var _ Cache = (*RedisCache)(nil)
