package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "exit-valuation:run:"

// Cache is a string key/value cache with expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// RedisCache is a Cache backed by a redis server.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the redis server at addr.
func NewRedisCache(addr string) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{client: rdb}
}

// Get returns the cached value. Misses and errors both report false.
func (r *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores value under key for ttl. A zero ttl never expires.
func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the client.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Cached is a read-through cache in front of another Store. Cache failures
// are logged and never fail the call.
type Cached struct {
	next   Store
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached wraps next with cache.
func NewCached(next Store, cache Cache, ttl time.Duration, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Save writes through to the wrapped store, then caches the run.
func (c *Cached) Save(ctx context.Context, run Run) error {
	if err := c.next.Save(ctx, run); err != nil {
		return err
	}
	c.put(ctx, run)
	return nil
}

// Get serves from cache when possible and fills it on a miss.
func (c *Cached) Get(ctx context.Context, id string) (Run, error) {
	if raw, ok := c.cache.Get(ctx, cacheKeyPrefix+id); ok {
		var run Run
		if err := json.Unmarshal([]byte(raw), &run); err == nil {
			return run, nil
		}
		c.logger.Warn("discarding unreadable cached run",
			zap.String("op", "store.Cached.Get"),
			zap.String("id", id),
		)
	}
	run, err := c.next.Get(ctx, id)
	if err != nil {
		return Run{}, err
	}
	c.put(ctx, run)
	return run, nil
}

// List always reads the wrapped store.
func (c *Cached) List(ctx context.Context, limit int) ([]Summary, error) {
	return c.next.List(ctx, limit)
}

// Close closes the cache and the wrapped store.
func (c *Cached) Close() {
	if err := c.cache.Close(); err != nil {
		c.logger.Warn("failed to close cache", zap.String("op", "store.Cached.Close"), zap.Error(err))
	}
	c.next.Close()
}

func (c *Cached) put(ctx context.Context, run Run) {
	data, err := json.Marshal(run)
	if err != nil {
		c.logger.Warn("failed to encode run for cache",
			zap.String("op", "store.Cached.put"),
			zap.String("id", run.ID),
			zap.Error(err),
		)
		return
	}
	if err := c.cache.Set(ctx, cacheKeyPrefix+run.ID, string(data), c.ttl); err != nil {
		c.logger.Warn("failed to cache run",
			zap.String("op", "store.Cached.put"),
			zap.String("id", run.ID),
			zap.Error(err),
		)
	}
}
