package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/LavishGent/datastore/internal/types"
)

// Cache is the object cache backend. Every call addresses one group.
type Cache struct {
	Facade
	cache types.ObjectCache
	group string
	instrument
	sf singleflight.Group
}

// NewCache reads the stored generation of prefix and starts a new one when
// there is none.
func NewCache(ctx context.Context, oc types.ObjectCache, prefix, group string, opts ...Option) *Cache {
	s := applySettings(opts)
	c := &Cache{
		cache:      oc,
		group:      group,
		instrument: newInstrument(types.BackendObjectCache, s),
	}
	c.setup(prefix, s.clock)

	stored, found, err := oc.Get(ctx, c.incrementorKey(), group)
	if err != nil {
		c.fail("get", c.incrementorKey(), err)
	}
	if !found || !c.adopt(stored) {
		c.Invalidate(ctx)
	}
	return c
}

// Group returns the object cache group of the backend.
func (c *Cache) Group() string {
	return c.group
}

func (c *Cache) incrementorKey() string {
	return c.prefix + types.CacheIncrementorSuffix
}

// Invalidate starts a new generation and persists it without expiry. The
// new generation is in effect even when persisting it fails.
func (c *Cache) Invalidate(ctx context.Context) bool {
	gen := c.advance()
	if err := c.cache.Set(ctx, c.incrementorKey(), c.group, gen, 0); err != nil {
		c.fail("invalidate", c.incrementorKey(), err)
		return false
	}
	c.invalidated(c.prefix, gen, 0)
	return true
}

// Lookup reports whether key is stored, which Get cannot tell apart from a
// stored default.
func (c *Cache) Lookup(ctx context.Context, key string) (any, bool) {
	if !c.validate("get", key) {
		return nil, false
	}
	start := time.Now()
	k := c.Key(key)

	v, found, err := c.cache.Get(ctx, k, c.group)
	if err != nil {
		c.fail("get", k, err)
		return nil, false
	}
	if !found {
		c.miss(k, start)
		return nil, false
	}
	c.hit(k, start)
	return v, true
}

// Get returns the stored value or def.
func (c *Cache) Get(ctx context.Context, key string, def any) any {
	if v, ok := c.Lookup(ctx, key); ok {
		return v
	}
	return def
}

// Set stores value. A zero ttl never expires.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if !c.validate("set", key) {
		return false
	}
	if ttl < 0 {
		ttl = 0
	}
	start := time.Now()
	k := c.Key(key)

	if err := c.cache.Set(ctx, k, c.group, value, ttl); err != nil {
		c.fail("set", k, err)
		return false
	}
	c.set(k, start)
	return true
}

// Delete removes key from the current generation.
func (c *Cache) Delete(ctx context.Context, key string) bool {
	if !c.validate("delete", key) {
		return false
	}
	start := time.Now()
	k := c.Key(key)

	deleted, err := c.cache.Delete(ctx, k, c.group)
	if err != nil {
		c.fail("delete", k, err)
		return false
	}
	if deleted {
		c.deleted(k, start)
	}
	return deleted
}

// Exists reports whether key is stored in the current generation.
func (c *Cache) Exists(ctx context.Context, key string) bool {
	if !c.validate("exists", key) {
		return false
	}
	k := c.Key(key)
	ok, err := c.cache.Exists(ctx, k, c.group)
	if err != nil {
		c.fail("exists", k, err)
		return false
	}
	return ok
}

// GetOrCreate returns the stored value or stores what fn produces.
// Concurrent misses of the same key share one fn call. An fn error is
// returned and nothing is stored.
func (c *Cache) GetOrCreate(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) (any, error)) (any, error) {
	if v, ok := c.Lookup(ctx, key); ok {
		return v, nil
	}

	v, err, _ := c.sf.Do(c.Key(key), func() (any, error) {
		if v, ok := c.Lookup(ctx, key); ok {
			return v, nil
		}
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if !c.Set(ctx, key, v, ttl) {
			c.logger.Debug("failed to store created value", "key", key)
		}
		return v, nil
	})
	return v, err
}
