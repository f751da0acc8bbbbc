package objectcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/LavishGent/datastore/internal/codec"
	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/types"
)

// BigCache is an in-process object cache. bigcache only knows one global
// life window, so each entry carries its own deadline and is dropped on read
// once that deadline has passed.
type BigCache struct {
	cache  *bigcache.BigCache
	config config.BigCacheConfig
	codec  types.Codec
	clock  types.Clock
	logger *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64

	closed atomic.Bool
}

// NewBigCache returns an in-process object cache backed by bigcache.
func NewBigCache(ctx context.Context, cfg config.BigCacheConfig, c types.Codec, clock types.Clock, logger *slog.Logger) (*BigCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = types.SystemClock
	}

	bc := &BigCache{
		config: cfg,
		codec:  c,
		clock:  clock,
		logger: logger.With("component", "bigcache"),
	}

	bcConfig := bigcache.Config{
		Shards:             cfg.Shards,
		LifeWindow:         cfg.LifeWindow,
		CleanWindow:        cfg.CleanupInterval,
		MaxEntriesInWindow: 1000 * 10 * 60,
		MaxEntrySize:       cfg.MaxEntrySize,
		HardMaxCacheSize:   cfg.MaxSizeMB,
		Verbose:            false,
		Logger:             &bigcacheLogger{logger: bc.logger},
		OnRemoveWithReason: func(key string, entry []byte, reason bigcache.RemoveReason) {
			if reason == bigcache.NoSpace || reason == bigcache.Expired {
				bc.evictions.Add(1)
			}
		},
	}

	cache, err := bigcache.New(ctx, bcConfig)
	if err != nil {
		return nil, err
	}
	bc.cache = cache
	return bc, nil
}

func (c *BigCache) Name() string { return config.ObjectCacheBigCache }

// External is false: entries live in this process only.
func (c *BigCache) External() bool { return false }

func (c *BigCache) load(key string) (*types.CacheEntry, bool, error) {
	data, err := c.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	entry, err := codec.DecodeEntry(c.codec, data)
	if err != nil {
		// unreadable entries are dropped rather than reported on every read
		c.logger.Debug("dropping undecodable entry", "key", key, "error", err)
		_ = c.cache.Delete(key)
		return nil, false, nil
	}
	if entry.IsExpired(c.clock.Now()) {
		_ = c.cache.Delete(key)
		return nil, false, nil
	}
	return entry, true, nil
}

func (c *BigCache) Get(ctx context.Context, key, group string) (any, bool, error) {
	if c.closed.Load() {
		return nil, false, types.ErrClosed
	}

	k := entryKey(group, key)
	entry, ok, err := c.load(k)
	if err != nil {
		return nil, false, types.NewStoreError("get", k, c.Name(), err)
	}
	if !ok {
		c.misses.Add(1)
		return nil, false, nil
	}

	c.hits.Add(1)
	return entry.Value, true, nil
}

func (c *BigCache) Set(ctx context.Context, key, group string, value any, ttl time.Duration) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.clock.Now().Add(ttl)
	}

	k := entryKey(group, key)
	data, err := codec.EncodeEntry(c.codec, value, expiresAt)
	if err != nil {
		return types.NewStoreError("set", k, c.Name(), err)
	}
	if err := c.cache.Set(k, data); err != nil {
		return types.NewStoreError("set", k, c.Name(), err)
	}

	c.sets.Add(1)
	return nil
}

func (c *BigCache) Delete(ctx context.Context, key, group string) (bool, error) {
	if c.closed.Load() {
		return false, types.ErrClosed
	}

	k := entryKey(group, key)
	_, existed, err := c.load(k)
	if err != nil {
		return false, types.NewStoreError("delete", k, c.Name(), err)
	}
	if !existed {
		return false, nil
	}

	if err := c.cache.Delete(k); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return false, types.NewStoreError("delete", k, c.Name(), err)
	}
	c.deletes.Add(1)
	return true, nil
}

func (c *BigCache) Exists(ctx context.Context, key, group string) (bool, error) {
	if c.closed.Load() {
		return false, types.ErrClosed
	}

	_, ok, err := c.load(entryKey(group, key))
	return ok, err
}

// FlushGroup drops every entry of group.
func (c *BigCache) FlushGroup(ctx context.Context, group string) (int, error) {
	if c.closed.Load() {
		return 0, types.ErrClosed
	}

	prefix := entryKey(group, "")
	var keys []string

	iter := c.cache.Iterator()
	for iter.SetNext() {
		entry, err := iter.Value()
		if err != nil {
			continue
		}
		if strings.HasPrefix(entry.Key(), prefix) {
			keys = append(keys, entry.Key())
		}
	}

	for _, key := range keys {
		_ = c.cache.Delete(key)
	}

	c.logger.Debug("flushed group", "group", group, "deleted", len(keys))
	return len(keys), nil
}

func (c *BigCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.cache.Close()
}

// Stats returns the hit and miss counters of bigcache.
func (c *BigCache) Stats() types.ObjectCacheStats {
	return types.ObjectCacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Deletes:   c.deletes.Load(),
		Evictions: c.evictions.Load(),
		Entries:   int64(c.cache.Len()),
		SizeBytes: int64(c.cache.Capacity()),
	}
}

type bigcacheLogger struct {
	logger *slog.Logger
}

func (l *bigcacheLogger) Printf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf("bigcache: "+format, args...))
}

var (
	_ types.ObjectCache = (*BigCache)(nil)
	_ StatsProvider     = (*BigCache)(nil)
	_ GroupFlusher      = (*BigCache)(nil)
)
