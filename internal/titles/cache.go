package titles

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "titles:"

// Store is the key-value backend of the cache. *pkgredis.Client satisfies it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Counter receives one increment per cache hit or miss.
type Counter interface {
	Inc()
}

// Cache serves titles from Store and falls back to the wrapped Source on a
// miss. The category directory is checked on every call, hit or miss, so a
// removed directory is reported as soon as it disappears. Entries are keyed
// by the resolved directory path and lookup failures are never cached.
type Cache struct {
	store  Store
	source Source
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64

	hitCounter  Counter
	missCounter Counter
}

// NewCache wraps source with a cache in store.
func NewCache(store Store, source Source, ttl time.Duration) *Cache {
	return &Cache{
		store:  store,
		source: source,
		ttl:    ttl,
		logger: slog.Default().With("component", "title-cache"),
	}
}

// WithCounters reports hits and misses to the given counters.
func (c *Cache) WithCounters(hits, misses Counter) *Cache {
	c.hitCounter = hits
	c.missCounter = misses
	return c
}

func (c *Cache) Titles(ctx context.Context, category string) ([]string, error) {
	dir, err := c.source.Dir(category)
	if err != nil {
		return nil, err
	}
	key := keyPrefix + dir
	if titles, ok := c.get(ctx, key); ok {
		return titles, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		titles, err := c.source.Titles(ctx, category)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, titles)
		return titles, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]string), nil
}

// Invalidate removes every cached title listing.
func (c *Cache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating title cache: %w", err)
	}
	c.logger.Info("title cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the hit and miss counts since the cache was created.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) get(ctx context.Context, key string) ([]string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var titles []string
	if err := json.Unmarshal([]byte(data), &titles); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.hitCounter != nil {
		c.hitCounter.Inc()
	}
	c.logger.Debug("cache hit", "key", key)
	return titles, true
}

func (c *Cache) set(ctx context.Context, key string, titles []string) {
	if titles == nil {
		titles = []string{}
	}
	data, err := json.Marshal(titles)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *Cache) miss() {
	c.misses.Add(1)
	if c.missCounter != nil {
		c.missCounter.Inc()
	}
}
