// Package cache memoizes upstream responses by key with a per-kind TTL.
package cache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"pokevault/internal/pokeapi/metrics"
)

// FetchFunc loads the value on a miss.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Cache fronts a Store. Concurrent misses for one key share a single fetch,
// and store failures degrade to fetching rather than failing the call.
type Cache struct {
	store   Store
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Cache)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

func New(store Store, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{store: store, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Remember returns the cached value for key or calls fetch, stores the result
// for ttl and returns it. Fetch errors are never cached.
func (c *Cache) Remember(ctx context.Context, kind, key string, ttl time.Duration, fetch FetchFunc) ([]byte, error) {
	if val, ok := c.lookup(ctx, key); ok {
		if c.metrics != nil {
			c.metrics.CacheHit(kind)
		}
		return val, nil
	}
	if c.metrics != nil {
		c.metrics.CacheMiss(kind)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// a waiter may have lost the race with a just-finished fetch
		if val, ok := c.lookup(ctx, key); ok {
			return val, nil
		}
		val, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(ctx, key, val, ttl); err != nil {
			c.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
			if c.metrics != nil {
				c.metrics.CacheError("set")
			}
		}
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) lookup(ctx context.Context, key string) ([]byte, bool) {
	val, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		if c.metrics != nil {
			c.metrics.CacheError("get")
		}
		return nil, false
	}
	return val, ok
}
