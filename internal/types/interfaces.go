package types

import (
	"context"
	"time"
)

// ObjectCache is the grouped key/value primitive behind the object cache
// backend. A zero TTL means the entry does not expire.
type ObjectCache interface {
	Name() string
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key, group string) (any, bool, error)
	Set(ctx context.Context, key, group string, value any, ttl time.Duration) error
	// Delete reports whether an entry was removed.
	Delete(ctx context.Context, key, group string) (bool, error)
	Exists(ctx context.Context, key, group string) (bool, error)
	// External reports whether the cache is shared between processes and
	// survives them, as opposed to living in this process only.
	External() bool
	Close() error
}

// OptionStore is the durable named-value primitive. Names lists the stored
// names starting with prefix within one scope, in storage (insertion) order.
type OptionStore interface {
	Name() string
	Get(ctx context.Context, scope Scope, name string) (any, bool, error)
	Set(ctx context.Context, scope Scope, name string, value any, autoload bool) error
	Delete(ctx context.Context, scope Scope, name string) (bool, error)
	Names(ctx context.Context, scope Scope, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// TransientStore is the expiring-value primitive.
type TransientStore interface {
	Get(ctx context.Context, scope Scope, name string) (any, bool, error)
	Set(ctx context.Context, scope Scope, name string, value any, ttl time.Duration) error
	Delete(ctx context.Context, scope Scope, name string) (bool, error)
}

// Environment exposes the runtime facts the backends branch on.
type Environment interface {
	UsingExternalObjectCache() bool
	IsMultisite() bool
	CurrentNetworkID() int64
}

type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Codec turns stored values into bytes for primitives that only hold bytes.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

type MetricsRecorder interface {
	RecordHit(backend string, key string, latency time.Duration)
	RecordMiss(backend string, key string, latency time.Duration)
	RecordSet(backend string, key string, latency time.Duration)
	RecordDelete(backend string, key string, latency time.Duration)
	RecordError(backend string, operation string, err error)
	RecordInvalidation(backend string, prefix string, generation int64, deleted int)
}

type Publisher interface {
	Gauge(name string, value float64, tags ...string)
	Incr(name string, tags ...string)
	Count(name string, value int64, tags ...string)
	Timing(name string, duration time.Duration, tags ...string)
	Event(title, text string, alertType string, tags ...string)
	PublishSnapshot(snapshot *MetricsSnapshot)
	Close() error
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
