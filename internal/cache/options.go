package cache

import (
	"context"
	"reflect"
	"time"

	"github.com/LavishGent/datastore/internal/types"
)

// optionTable is shared by the two option backends. Option names carry
// the prefix but no generation, and there is no bulk invalidation.
type optionTable struct {
	prefix string
	store  types.OptionStore
	scope  types.Scope
	instrument
}

// Prefix returns the name prefix of the backend.
func (o *optionTable) Prefix() string {
	return o.prefix
}

// Name returns the stored name of key.
func (o *optionTable) Name(key string) string {
	return o.prefix + key
}

func (o *optionTable) storedName(key string, ao *types.AccessOptions) string {
	if ao.Raw {
		return key
	}
	return o.Name(key)
}

// Get returns the stored value or def. An empty string stored where the
// caller expects a list or map reads as def.
func (o *optionTable) Get(ctx context.Context, key string, def any, opts ...types.Option) any {
	if !o.validate("get", key) {
		return def
	}
	start := time.Now()
	name := o.storedName(key, types.ApplyOptions(opts...))

	v, found, err := o.store.Get(ctx, o.scope, name)
	if err != nil {
		o.fail("get", name, err)
		return def
	}
	if !found {
		o.miss(name, start)
		return def
	}
	o.hit(name, start)

	if s, ok := v.(string); ok && s == "" && isContainer(def) {
		return def
	}
	return v
}

// Set stores value with autoload on unless WithoutAutoload is given.
func (o *optionTable) Set(ctx context.Context, key string, value any, opts ...types.Option) bool {
	if !o.validate("set", key) {
		return false
	}
	start := time.Now()
	ao := types.ApplyOptions(opts...)
	name := o.storedName(key, ao)

	if err := o.store.Set(ctx, o.scope, name, value, ao.Autoload); err != nil {
		o.fail("set", name, err)
		return false
	}
	o.set(name, start)
	return true
}

func (o *optionTable) Delete(ctx context.Context, key string, opts ...types.Option) bool {
	if !o.validate("delete", key) {
		return false
	}
	start := time.Now()
	name := o.storedName(key, types.ApplyOptions(opts...))

	deleted, err := o.store.Delete(ctx, o.scope, name)
	if err != nil {
		o.fail("delete", name, err)
		return false
	}
	if deleted {
		o.deleted(name, start)
	}
	return deleted
}

func isContainer(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

// Options is the site option backend.
type Options struct {
	optionTable
}

// NewOptions returns a prefixed option backend on the site table.
func NewOptions(store types.OptionStore, prefix string, opts ...Option) *Options {
	s := applySettings(opts)
	return &Options{optionTable{
		prefix:     prefix,
		store:      store,
		scope:      types.SiteScope(),
		instrument: newInstrument(types.BackendOptions, s),
	}}
}

// NetworkOptions is the option backend of one network.
type NetworkOptions struct {
	optionTable
	networkID int64
}

// NewNetworkOptions returns a prefixed option backend on the table of
// network networkID.
func NewNetworkOptions(store types.OptionStore, prefix string, networkID int64, opts ...Option) *NetworkOptions {
	s := applySettings(opts)
	return &NetworkOptions{
		optionTable: optionTable{
			prefix:     prefix,
			store:      store,
			scope:      types.NetworkScope(networkID),
			instrument: newInstrument(types.BackendNetworkOptions, s),
		},
		networkID: networkID,
	}
}

// NetworkID returns the network the backend is bound to.
func (n *NetworkOptions) NetworkID() int64 {
	return n.networkID
}
