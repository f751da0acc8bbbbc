package datastore

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/LavishGent/datastore/internal/cache"
	"github.com/LavishGent/datastore/internal/platform"
	"github.com/LavishGent/datastore/internal/types"
)

type (
	// Option is a per-call switch of the backends.
	Option = types.Option
	// AccessOptions holds the result of applying Options.
	AccessOptions = types.AccessOptions
	// HostOption customizes a host at open time.
	HostOption = platform.Option
)

// ApplyOptions folds opts over the default access options.
func ApplyOptions(opts ...Option) *AccessOptions {
	return types.ApplyOptions(opts...)
}

// Raw addresses the exact stored name, skipping the prefix and generation.
func Raw() Option {
	return types.Raw()
}

// WithAutoload sets the autoload flag of stored options.
func WithAutoload(autoload bool) Option {
	return types.WithAutoload(autoload)
}

// WithoutAutoload marks an option write as not loaded eagerly.
func WithoutAutoload() Option {
	return types.WithoutAutoload()
}

// WithLogger routes host and backend logs to logger.
func WithLogger(logger Logger) HostOption {
	return platform.WithLogger(platform.NewSlogLogger(logger))
}

// WithSlogLogger logs through logger.
func WithSlogLogger(logger *slog.Logger) HostOption {
	return platform.WithLogger(logger)
}

// WithClock overrides the wall clock.
func WithClock(clock Clock) HostOption {
	return platform.WithClock(clock)
}

// WithMetrics records backend metrics to recorder as well as the built-in tracker.
func WithMetrics(recorder MetricsRecorder) HostOption {
	return platform.WithMetrics(recorder)
}

// WithRegisterer sets where the prometheus metrics driver registers its collectors.
func WithRegisterer(reg prometheus.Registerer) HostOption {
	return platform.WithRegisterer(reg)
}

// WithObjectCache replaces the configured object cache.
func WithObjectCache(oc ObjectCache) HostOption {
	return platform.WithObjectCache(oc)
}

// WithOptionStore replaces the configured option store.
func WithOptionStore(store OptionStore) HostOption {
	return platform.WithOptionStore(store)
}

// GetLargeObjectAs reads a large object written with SetLargeObject and
// returns it only when it holds a T.
func GetLargeObjectAs[T any](ctx context.Context, r LargeObjectReader, key string) (*T, bool) {
	return cache.GetLargeObjectAs[T](ctx, r, key)
}
