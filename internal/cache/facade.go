// Package cache implements the generational key/value backends: the object
// cache, site and network options, and site and network transients.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/LavishGent/datastore/internal/codec"
	"github.com/LavishGent/datastore/internal/types"
)

// Facade versions keys with a prefix and a generation. Bumping the
// generation orphans every key written under the previous one.
type Facade struct {
	prefix     string
	generation atomic.Int64
	clock      types.Clock
}

func (f *Facade) setup(prefix string, clock types.Clock) {
	f.prefix = prefix
	f.clock = clock
}

// Prefix returns the key prefix of the backend.
func (f *Facade) Prefix() string {
	return f.prefix
}

// Key returns prefix + generation + "_" + key.
func (f *Facade) Key(key string) string {
	return types.VersionedKey(f.prefix, f.generation.Load(), key)
}

// Generation returns the current generation.
func (f *Facade) Generation() int64 {
	return f.generation.Load()
}

// adopt takes over a stored generation. It reports false when the stored
// value is not a generation.
func (f *Facade) adopt(stored any) bool {
	gen, ok := types.ParseGeneration(stored)
	if !ok {
		return false
	}
	f.generation.Store(gen)
	return true
}

// advance moves to the current unix time, or one past the current
// generation when the clock has not moved on.
func (f *Facade) advance() int64 {
	now := f.clock.Now().Unix()
	for {
		cur := f.generation.Load()
		next := max(now, cur+1)
		if f.generation.CompareAndSwap(cur, next) {
			return next
		}
	}
}

// Option configures a backend.
type Option func(*settings)

type settings struct {
	clock          types.Clock
	logger         *slog.Logger
	metrics        types.MetricsRecorder
	validator      *types.KeyValidator
	maxLargeObject int64
}

// WithClock sets the clock used for generations. A nil clock is ignored.
func WithClock(clock types.Clock) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger of the backend. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records hits, misses and invalidations on metrics.
func WithMetrics(metrics types.MetricsRecorder) Option {
	return func(s *settings) {
		s.metrics = metrics
	}
}

// WithKeyValidator rejects keys the validator refuses before they reach a
// primitive.
func WithKeyValidator(v *types.KeyValidator) Option {
	return func(s *settings) {
		s.validator = v
	}
}

// WithMaxLargeObjectSize bounds the decompressed size of large objects read
// by the transient backends. A value <= 0 disables the limit.
func WithMaxLargeObjectSize(n int64) Option {
	return func(s *settings) {
		s.maxLargeObject = n
	}
}

func applySettings(opts []Option) settings {
	s := settings{
		clock:          types.SystemClock,
		logger:         slog.Default(),
		maxLargeObject: codec.DefaultMaxDecodedSize,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// instrument logs and counts the outcome of backend calls.
type instrument struct {
	backend   string
	logger    *slog.Logger
	metrics   types.MetricsRecorder
	validator *types.KeyValidator
}

func newInstrument(kind types.BackendKind, s settings) instrument {
	return instrument{
		backend:   kind.String(),
		logger:    s.logger.With("component", "cache", "backend", kind.String()),
		metrics:   s.metrics,
		validator: s.validator,
	}
}

func (in *instrument) validate(op, key string) bool {
	if in.validator == nil {
		return true
	}
	if err := in.validator.Validate(key); err != nil {
		in.fail(op, key, err)
		return false
	}
	return true
}

func (in *instrument) hit(key string, start time.Time) {
	if in.metrics != nil {
		in.metrics.RecordHit(in.backend, key, time.Since(start))
	}
}

func (in *instrument) miss(key string, start time.Time) {
	if in.metrics != nil {
		in.metrics.RecordMiss(in.backend, key, time.Since(start))
	}
}

func (in *instrument) set(key string, start time.Time) {
	if in.metrics != nil {
		in.metrics.RecordSet(in.backend, key, time.Since(start))
	}
}

func (in *instrument) deleted(key string, start time.Time) {
	if in.metrics != nil {
		in.metrics.RecordDelete(in.backend, key, time.Since(start))
	}
}

func (in *instrument) invalidated(prefix string, generation int64, deleted int) {
	in.logger.Debug("generation bumped", "prefix", prefix, "generation", generation, "deleted", deleted)
	if in.metrics != nil {
		in.metrics.RecordInvalidation(in.backend, prefix, generation, deleted)
	}
}

// fail records a primitive error. The caller collapses it to a miss or false.
func (in *instrument) fail(op, key string, err error) {
	var storeErr *types.StoreError
	if !errors.As(err, &storeErr) {
		err = types.NewStoreError(op, key, in.backend, err)
	}
	if errors.Is(err, context.Canceled) {
		in.logger.Debug("backend call canceled", "op", op, "key", key)
	} else {
		in.logger.Warn("backend call failed", "op", op, "key", key, "error", err)
	}
	if in.metrics != nil {
		in.metrics.RecordError(in.backend, op, err)
	}
}
