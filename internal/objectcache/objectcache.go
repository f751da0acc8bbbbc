// Package objectcache implements types.ObjectCache on bigcache, ristretto
// and Redis, plus a disabled cache that stores nothing.
package objectcache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavishGent/datastore/internal/codec"
	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/resilience"
	"github.com/LavishGent/datastore/internal/types"
)

// DefaultGroup is used when a caller passes an empty group.
const DefaultGroup = "default"

// StatsProvider is implemented by caches that keep counters.
type StatsProvider interface {
	Stats() types.ObjectCacheStats
}

// GroupFlusher is implemented by caches that can drop a whole group.
type GroupFlusher interface {
	FlushGroup(ctx context.Context, group string) (int, error)
}

func entryKey(group, key string) string {
	if group == "" {
		group = DefaultGroup
	}
	return group + ":" + key
}

// New builds the object cache selected by cfg.ObjectCache.Driver.
func New(ctx context.Context, cfg *config.Config, clock types.Clock, logger *slog.Logger) (types.ObjectCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	valueCodec := codec.NewMsgpack()

	switch cfg.ObjectCache.Driver {
	case config.ObjectCacheBigCache:
		return NewBigCache(ctx, cfg.ObjectCache.BigCache, valueCodec, clock, logger)
	case config.ObjectCacheRistretto:
		return NewRistretto(cfg.ObjectCache.Ristretto, valueCodec, logger)
	case config.ObjectCacheRedis:
		policy := resilience.NewPolicy("redis", cfg, clock, logger)
		return NewRedis(ctx, cfg.Redis, valueCodec, policy, logger)
	case config.ObjectCacheNone:
		return NewDisabled(), nil
	default:
		return nil, fmt.Errorf("unknown object cache driver %q", cfg.ObjectCache.Driver)
	}
}
