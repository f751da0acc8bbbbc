package options

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LavishGent/datastore/internal/codec"
	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/types"
)

func newTestPostgres(t *testing.T) *Postgres {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	cfg := config.ForTestingWithPostgres(dsn)
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	cfg.Postgres.OptionsTable = "options_test_" + suffix
	cfg.Postgres.SitemetaTable = "sitemeta_test_" + suffix

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := NewPostgres(ctx, cfg.Postgres, codec.NewMsgpack(), nil, nil)
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = p.pool.Exec(ctx, "DROP TABLE IF EXISTS "+p.options)
		_, _ = p.pool.Exec(ctx, "DROP TABLE IF EXISTS "+p.sitemeta)
		_ = p.Close()
	})
	return p
}

func TestPostgresIntegration(t *testing.T) {
	p := newTestPostgres(t)
	ctx := context.Background()

	t.Run("get set delete", func(t *testing.T) {
		site := types.SiteScope()

		_, ok, err := p.Get(ctx, site, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, p.Set(ctx, site, "answer", int64(42), true))
		v, ok, err := p.Get(ctx, site, "answer")
		require.NoError(t, err)
		require.True(t, ok)
		assert.EqualValues(t, 42, v)

		deleted, err := p.Delete(ctx, site, "answer")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = p.Delete(ctx, site, "answer")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("network scope", func(t *testing.T) {
		require.NoError(t, p.Set(ctx, types.NetworkScope(1), "shared", "one", true))
		require.NoError(t, p.Set(ctx, types.NetworkScope(2), "shared", "two", true))

		v, ok, err := p.Get(ctx, types.NetworkScope(1), "shared")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "one", v)

		_, ok, err = p.Get(ctx, types.SiteScope(), "shared")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("names match the prefix literally", func(t *testing.T) {
		site := types.SiteScope()
		for _, name := range []string{"_transient_b", "_transient_a", "xtransientxc"} {
			require.NoError(t, p.Set(ctx, site, name, 1, false))
		}

		names, err := p.Names(ctx, site, "_transient_")
		require.NoError(t, err)
		assert.Equal(t, []string{"_transient_b", "_transient_a"}, names)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, p.Ping(ctx))
	})
}
