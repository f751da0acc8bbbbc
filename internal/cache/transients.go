package cache

import (
	"context"
	"reflect"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/LavishGent/datastore/internal/codec"
	"github.com/LavishGent/datastore/internal/types"
)

// transientTable is shared by the two transient backends. The network
// variant addresses the current network of the environment.
type transientTable struct {
	Facade
	store   types.TransientStore
	names   types.OptionStore
	env     types.Environment
	network bool
	decoder codec.LargeObjectDecoder
	instrument
	sf singleflight.Group
}

// open wires the table, then adopts the stored generation or starts a new
// one.
func (t *transientTable) open(ctx context.Context, store types.TransientStore, names types.OptionStore, env types.Environment, prefix string, network bool, opts []Option) {
	s := applySettings(opts)
	kind := types.BackendTransients
	if network {
		kind = types.BackendSiteTransients
	}
	t.setup(prefix, s.clock)
	t.store = store
	t.names = names
	t.env = env
	t.network = network
	t.decoder = codec.LargeObjectDecoder{MaxDecoded: s.maxLargeObject}
	t.instrument = newInstrument(kind, s)

	stored, found := t.Get(ctx, t.incrementorKey(), types.Raw())
	if !found || !t.adopt(stored) {
		t.Invalidate(ctx)
	}
}

func (t *transientTable) scope() types.Scope {
	if t.network {
		return types.NetworkScope(t.env.CurrentNetworkID())
	}
	return types.SiteScope()
}

func (t *transientTable) incrementorKey() string {
	return t.prefix + types.TransientIncrementorSuffix
}

func (t *transientTable) storedName(key string, opts []types.Option) string {
	if types.ApplyOptions(opts...).Raw {
		return key
	}
	return t.Key(key)
}

// Get returns the value of key in the current generation.
func (t *transientTable) Get(ctx context.Context, key string, opts ...types.Option) (any, bool) {
	if !t.validate("get", key) {
		return nil, false
	}
	start := time.Now()
	name := t.storedName(key, opts)

	v, found, err := t.store.Get(ctx, t.scope(), name)
	if err != nil {
		t.fail("get", name, err)
		return nil, false
	}
	if !found {
		t.miss(name, start)
		return nil, false
	}
	t.hit(name, start)
	return v, true
}

// Set stores value. A zero ttl never expires.
func (t *transientTable) Set(ctx context.Context, key string, value any, ttl time.Duration, opts ...types.Option) bool {
	if !t.validate("set", key) {
		return false
	}
	if ttl < 0 {
		ttl = 0
	}
	start := time.Now()
	name := t.storedName(key, opts)

	if err := t.store.Set(ctx, t.scope(), name, value, ttl); err != nil {
		t.fail("set", name, err)
		return false
	}
	t.set(name, start)
	return true
}

// Delete removes key from the current generation.
func (t *transientTable) Delete(ctx context.Context, key string, opts ...types.Option) bool {
	if !t.validate("delete", key) {
		return false
	}
	start := time.Now()
	name := t.storedName(key, opts)

	deleted, err := t.store.Delete(ctx, t.scope(), name)
	if err != nil {
		t.fail("delete", name, err)
		return false
	}
	if deleted {
		t.deleted(name, start)
	}
	return deleted
}

// KeysFromDatabase lists the stored transient names under the prefix with
// the system prefix stripped, in storage order. Network transients of a
// single-site install are listed from the site table.
func (t *transientTable) KeysFromDatabase(ctx context.Context) []string {
	scope := t.scope()
	systemPrefix, _ := types.TransientPrefixes(scope)

	names, err := t.names.Names(ctx, scope.Table(t.env.IsMultisite()), systemPrefix+t.prefix)
	if err != nil {
		t.fail("names", systemPrefix+t.prefix, err)
		return []string{}
	}

	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, strings.TrimPrefix(name, systemPrefix))
	}
	return keys
}

// Invalidate starts a new generation. Without a shared object cache the
// transients live in the option table and would never be evicted, so the
// ones under the prefix are deleted first.
func (t *transientTable) Invalidate(ctx context.Context) bool {
	deleted := 0
	if !t.env.UsingExternalObjectCache() {
		for _, name := range t.KeysFromDatabase(ctx) {
			if t.Delete(ctx, name, types.Raw()) {
				deleted++
			}
		}
	}

	gen := t.advance()
	if !t.Set(ctx, t.incrementorKey(), gen, 0, types.Raw()) {
		return false
	}
	t.invalidated(t.prefix, gen, deleted)
	return true
}

// GetLargeObject reads a value written by SetLargeObject. It reports false
// when the payload is absent or cannot be decoded into one of allowed.
func (t *transientTable) GetLargeObject(ctx context.Context, key string, allowed ...reflect.Type) (any, bool) {
	v, found := t.Get(ctx, key)
	if !found {
		return nil, false
	}
	payload, ok := v.(string)
	if !ok {
		t.logger.Debug("large object payload is not a string", "key", key, "error", codec.ErrCorruptPayload)
		return nil, false
	}
	obj, err := t.decoder.Decode(payload, allowed...)
	if err != nil {
		t.logger.Debug("large object decode failed", "key", key, "error", err)
		return nil, false
	}
	return obj, true
}

// MaxLargeObjectSize is the largest decompressed large object GetLargeObject
// accepts; <= 0 means no limit.
func (t *transientTable) MaxLargeObjectSize() int64 {
	return t.decoder.MaxDecoded
}

// SetLargeObject stores a struct value compressed and base64 encoded.
func (t *transientTable) SetLargeObject(ctx context.Context, key string, value any, ttl time.Duration) bool {
	payload, err := codec.EncodeLargeObject(value)
	if err != nil {
		t.fail("set", key, err)
		return false
	}
	return t.Set(ctx, key, payload, ttl)
}

// Remember returns the stored value or stores what fn produces. Concurrent
// misses of the same key share one fn call. An fn error is returned and
// nothing is stored.
func (t *transientTable) Remember(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) (any, error)) (any, error) {
	if v, ok := t.Get(ctx, key); ok {
		return v, nil
	}

	v, err, _ := t.sf.Do(t.Key(key), func() (any, error) {
		if v, ok := t.Get(ctx, key); ok {
			return v, nil
		}
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if !t.Set(ctx, key, v, ttl) {
			t.logger.Debug("failed to store remembered value", "key", key)
		}
		return v, nil
	})
	return v, err
}

// Transients is the site transient backend.
type Transients struct {
	transientTable
}

// NewTransients reads the stored generation of prefix and starts a new one
// when there is none. names lists the option table for the fallback
// invalidation.
func NewTransients(ctx context.Context, store types.TransientStore, names types.OptionStore, env types.Environment, prefix string, opts ...Option) *Transients {
	t := &Transients{}
	t.open(ctx, store, names, env, prefix, false, opts)
	return t
}

// SiteTransients is the network-wide transient backend.
type SiteTransients struct {
	transientTable
}

// NewSiteTransients returns a generational transient backend on the
// network scope of env.
func NewSiteTransients(ctx context.Context, store types.TransientStore, names types.OptionStore, env types.Environment, prefix string, opts ...Option) *SiteTransients {
	t := &SiteTransients{}
	t.open(ctx, store, names, env, prefix, true, opts)
	return t
}

// LargeObjectReader is implemented by both transient backends.
type LargeObjectReader interface {
	Get(ctx context.Context, key string, opts ...types.Option) (any, bool)
	MaxLargeObjectSize() int64
}

// GetLargeObjectAs is the typed form of GetLargeObject.
func GetLargeObjectAs[T any](ctx context.Context, r LargeObjectReader, key string) (*T, bool) {
	v, found := r.Get(ctx, key)
	if !found {
		return nil, false
	}
	payload, ok := v.(string)
	if !ok {
		return nil, false
	}
	out, err := codec.DecodeLargeObjectWith[T](codec.LargeObjectDecoder{MaxDecoded: r.MaxLargeObjectSize()}, payload)
	if err != nil {
		return nil, false
	}
	return out, true
}
