package objectcache

import (
	"context"
	"time"

	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/types"
)

// Disabled accepts writes and forgets them. With it, generational backends
// see no stored incrementor and start a fresh generation on every
// construction.
type Disabled struct{}

// NewDisabled returns an object cache that stores nothing.
func NewDisabled() *Disabled {
	return &Disabled{}
}

func (Disabled) Name() string { return config.ObjectCacheNone }

func (Disabled) External() bool { return false }

// Get always misses.
func (Disabled) Get(ctx context.Context, key, group string) (any, bool, error) {
	return nil, false, nil
}

// Set drops the value.
func (Disabled) Set(ctx context.Context, key, group string, value any, ttl time.Duration) error {
	return nil
}

// Delete reports that nothing was removed.
func (Disabled) Delete(ctx context.Context, key, group string) (bool, error) {
	return false, nil
}

// Exists always reports false.
func (Disabled) Exists(ctx context.Context, key, group string) (bool, error) {
	return false, nil
}

func (Disabled) Close() error { return nil }

var _ types.ObjectCache = (*Disabled)(nil)
