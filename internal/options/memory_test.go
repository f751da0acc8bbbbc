package options

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LavishGent/datastore/internal/codec"
	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/types"
)

func newTestMemory() *Memory {
	return NewMemory(codec.NewMsgpack(), nil)
}

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	site := types.SiteScope()

	_, ok, err := m.Get(ctx, site, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, site, "answer", int64(42), true))
	v, ok, err := m.Get(ctx, site, "answer")
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 42, v)

	autoload, ok := m.Autoload(ctx, site, "answer")
	assert.True(t, ok)
	assert.True(t, autoload)

	require.NoError(t, m.Set(ctx, site, "answer", "changed", false))
	v, _, _ = m.Get(ctx, site, "answer")
	assert.Equal(t, "changed", v)

	autoload, _ = m.Autoload(ctx, site, "answer")
	assert.False(t, autoload)
}

func TestMemoryStoresEmptyString(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	require.NoError(t, m.Set(ctx, types.SiteScope(), "blank", "", true))
	v, ok, err := m.Get(ctx, types.SiteScope(), "blank")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestMemoryScopesAreSeparate(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	require.NoError(t, m.Set(ctx, types.SiteScope(), "name", "site", true))
	require.NoError(t, m.Set(ctx, types.NetworkScope(1), "name", "net-1", true))
	require.NoError(t, m.Set(ctx, types.NetworkScope(2), "name", "net-2", true))

	for scope, want := range map[types.Scope]string{
		types.SiteScope():     "site",
		types.NetworkScope(1): "net-1",
		types.NetworkScope(2): "net-2",
	} {
		v, ok, err := m.Get(ctx, scope, "name")
		require.NoError(t, err)
		require.True(t, ok, scope.String())
		assert.Equal(t, want, v, scope.String())
	}
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	site := types.SiteScope()

	require.NoError(t, m.Set(ctx, site, "k", 1, true))

	deleted, err := m.Delete(ctx, site, "k")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = m.Delete(ctx, site, "k")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = m.Delete(ctx, types.NetworkScope(9), "k")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMemoryNamesInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	site := types.SiteScope()

	for _, name := range []string{"_transient_zeta", "_transient_alpha", "other", "_transient_mid"} {
		require.NoError(t, m.Set(ctx, site, name, 1, true))
	}
	// updating keeps the original position
	require.NoError(t, m.Set(ctx, site, "_transient_zeta", 2, true))

	names, err := m.Names(ctx, site, "_transient_")
	require.NoError(t, err)
	assert.Equal(t, []string{"_transient_zeta", "_transient_alpha", "_transient_mid"}, names)

	_, err = m.Delete(ctx, site, "_transient_alpha")
	require.NoError(t, err)
	require.NoError(t, m.Set(ctx, site, "_transient_alpha", 3, true))

	names, err = m.Names(ctx, site, "_transient_")
	require.NoError(t, err)
	assert.Equal(t, []string{"_transient_zeta", "_transient_mid", "_transient_alpha"}, names)

	names, err = m.Names(ctx, types.NetworkScope(1), "_transient_")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	value := []any{"a", "b"}
	require.NoError(t, m.Set(ctx, types.SiteScope(), "list", value, true))
	value[0] = "mutated"

	v, _, err := m.Get(ctx, types.SiteScope(), "list")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)
}

func TestMemoryClosed(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	require.NoError(t, m.Close())

	_, _, err := m.Get(ctx, types.SiteScope(), "k")
	assert.ErrorIs(t, err, types.ErrClosed)
	assert.ErrorIs(t, m.Set(ctx, types.SiteScope(), "k", 1, true), types.ErrClosed)
	assert.ErrorIs(t, m.Ping(ctx), types.ErrClosed)
	_, err = m.Names(ctx, types.SiteScope(), "")
	assert.ErrorIs(t, err, types.ErrClosed)
}

func TestMemoryAutoloadAfterClose(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	require.NoError(t, m.Set(ctx, types.SiteScope(), "k", 1, true))

	autoload, ok := m.Autoload(ctx, types.SiteScope(), "k")
	require.True(t, ok)
	assert.True(t, autoload)

	require.NoError(t, m.Close())
	autoload, ok = m.Autoload(ctx, types.SiteScope(), "k")
	assert.False(t, ok)
	assert.False(t, autoload)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	cfg := config.ForTesting()
	cfg.Options.Driver = config.OptionsMemory
	store, err := New(ctx, cfg, types.SystemClock, nil)
	require.NoError(t, err)
	assert.Equal(t, config.OptionsMemory, store.Name())
	require.NoError(t, store.Close())

	cfg.Options.Driver = "etcd"
	_, err = New(ctx, cfg, types.SystemClock, nil)
	assert.Error(t, err)
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"_transient_", `\_transient\_`},
		{"100%", `100\%`},
		{`a\b`, `a\\b`},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeLike(tt.in), tt.in)
	}
}
