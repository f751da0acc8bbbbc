package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavishGent/datastore/pkg/datastore"
)

var errNotGenerational = errors.New("backend has no generation to invalidate")

// backend is the surface the commands drive, over any of the five backends.
type backend interface {
	Get(ctx context.Context, key string, raw bool) (any, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration, opts ...datastore.Option) bool
	Delete(ctx context.Context, key string, raw bool) bool
	Invalidate(ctx context.Context) (int64, error)
	Keys(ctx context.Context) ([]string, error)
}

func (a *app) openBackend(ctx context.Context) (backend, error) {
	kind, ok := datastore.ParseBackendKind(a.backend)
	if !ok {
		return nil, fmt.Errorf("unknown backend %q", a.backend)
	}
	if a.prefix == "" {
		return nil, errors.New("--prefix is required")
	}
	host, err := a.open(ctx)
	if err != nil {
		return nil, err
	}

	switch kind {
	case datastore.BackendObjectCache:
		c, err := host.Cache(ctx, a.prefix, a.group)
		if err != nil {
			return nil, err
		}
		return &cacheBackend{c: c, host: host}, nil
	case datastore.BackendOptions:
		o, err := host.Options(a.prefix)
		if err != nil {
			return nil, err
		}
		return optionBackend{table: o}, nil
	case datastore.BackendNetworkOptions:
		o, err := host.NetworkOptions(a.prefix, a.networkID)
		if err != nil {
			return nil, err
		}
		return optionBackend{table: o}, nil
	case datastore.BackendTransients:
		t, err := host.Transients(ctx, a.prefix)
		if err != nil {
			return nil, err
		}
		return transientBackend{table: t}, nil
	default:
		t, err := host.SiteTransients(ctx, a.prefix)
		if err != nil {
			return nil, err
		}
		return transientBackend{table: t}, nil
	}
}

type cacheBackend struct {
	c    *datastore.Cache
	host *datastore.Host
}

func (b *cacheBackend) Get(ctx context.Context, key string, raw bool) (any, bool) {
	if raw {
		v, found, err := b.host.ObjectCache().Get(ctx, key, b.c.Group())
		return v, found && err == nil
	}
	return b.c.Lookup(ctx, key)
}

func (b *cacheBackend) Set(ctx context.Context, key string, value any, ttl time.Duration, opts ...datastore.Option) bool {
	if datastore.ApplyOptions(opts...).Raw {
		return b.host.ObjectCache().Set(ctx, key, b.c.Group(), value, ttl) == nil
	}
	return b.c.Set(ctx, key, value, ttl)
}

func (b *cacheBackend) Delete(ctx context.Context, key string, raw bool) bool {
	if raw {
		deleted, err := b.host.ObjectCache().Delete(ctx, key, b.c.Group())
		return deleted && err == nil
	}
	return b.c.Delete(ctx, key)
}

func (b *cacheBackend) Invalidate(ctx context.Context) (int64, error) {
	if !b.c.Invalidate(ctx) {
		return b.c.Generation(), errors.New("the new generation could not be stored")
	}
	return b.c.Generation(), nil
}

func (b *cacheBackend) Keys(context.Context) ([]string, error) {
	return nil, errors.New("the object cache cannot enumerate keys")
}

type optionTable interface {
	Get(ctx context.Context, key string, def any, opts ...datastore.Option) any
	Set(ctx context.Context, key string, value any, opts ...datastore.Option) bool
	Delete(ctx context.Context, key string, opts ...datastore.Option) bool
}

type optionBackend struct {
	table optionTable
}

type missing struct{}

var miss = &missing{}

func rawOpts(raw bool) []datastore.Option {
	if raw {
		return []datastore.Option{datastore.Raw()}
	}
	return nil
}

func (b optionBackend) Get(ctx context.Context, key string, raw bool) (any, bool) {
	v := b.table.Get(ctx, key, miss, rawOpts(raw)...)
	if m, ok := v.(*missing); ok && m == miss {
		return nil, false
	}
	return v, true
}

func (b optionBackend) Set(ctx context.Context, key string, value any, _ time.Duration, opts ...datastore.Option) bool {
	return b.table.Set(ctx, key, value, opts...)
}

func (b optionBackend) Delete(ctx context.Context, key string, raw bool) bool {
	return b.table.Delete(ctx, key, rawOpts(raw)...)
}

func (b optionBackend) Invalidate(context.Context) (int64, error) {
	return 0, errNotGenerational
}

func (b optionBackend) Keys(context.Context) ([]string, error) {
	return nil, errors.New("option backends cannot enumerate keys")
}

type transientTable interface {
	Generation() int64
	Get(ctx context.Context, key string, opts ...datastore.Option) (any, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration, opts ...datastore.Option) bool
	Delete(ctx context.Context, key string, opts ...datastore.Option) bool
	Invalidate(ctx context.Context) bool
	KeysFromDatabase(ctx context.Context) []string
}

type transientBackend struct {
	table transientTable
}

func (b transientBackend) Get(ctx context.Context, key string, raw bool) (any, bool) {
	return b.table.Get(ctx, key, rawOpts(raw)...)
}

func (b transientBackend) Set(ctx context.Context, key string, value any, ttl time.Duration, opts ...datastore.Option) bool {
	return b.table.Set(ctx, key, value, ttl, opts...)
}

func (b transientBackend) Delete(ctx context.Context, key string, raw bool) bool {
	return b.table.Delete(ctx, key, rawOpts(raw)...)
}

func (b transientBackend) Invalidate(ctx context.Context) (int64, error) {
	if !b.table.Invalidate(ctx) {
		return b.table.Generation(), errors.New("the new generation could not be stored")
	}
	return b.table.Generation(), nil
}

func (b transientBackend) Keys(ctx context.Context) ([]string, error) {
	return b.table.KeysFromDatabase(ctx), nil
}
