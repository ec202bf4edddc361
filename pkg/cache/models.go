// Package cache provides a Redis-backed cache for the LM endpoint's
// model list, so the discovery endpoint is not hit on every request.
// Without a configured Redis host the cache degrades to pass-through.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/config"
)

const modelsKey = "interview:available_models"

// ModelCache caches the discovered model list
type ModelCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewModelCache creates the cache. An empty host disables caching and
// every lookup goes straight to the loader.
func NewModelCache(cfg config.RedisCacheConfig, logger *slog.Logger) *ModelCache {
	c := &ModelCache{ttl: cfg.TTL, logger: logger}
	if cfg.Host != "" {
		c.client = redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		})
	}
	return c
}

// Models returns the model list, from cache when fresh, otherwise from
// the loader. Cache failures are logged and treated as misses; a
// broken Redis never breaks model discovery.
func (c *ModelCache) Models(ctx context.Context, loader func(context.Context) ([]string, error)) ([]string, error) {
	if cached, ok := c.get(ctx); ok {
		return cached, nil
	}

	models, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, models)
	return models, nil
}

// Invalidate drops the cached model list
func (c *ModelCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, modelsKey).Err(); err != nil {
		c.logger.Warn("model cache invalidation failed", "error", err)
	}
}

// Close releases the Redis connection
func (c *ModelCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *ModelCache) get(ctx context.Context) ([]string, bool) {
	if c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, modelsKey).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("model cache read failed", "error", err)
		}
		return nil, false
	}
	var models []string
	if err := json.Unmarshal([]byte(data), &models); err != nil {
		c.logger.Warn("model cache entry corrupted", "error", err)
		return nil, false
	}
	return models, true
}

func (c *ModelCache) set(ctx context.Context, models []string) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(models)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, modelsKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("model cache write failed", "error", err)
	}
}
