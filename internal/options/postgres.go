package options

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/resilience"
	"github.com/LavishGent/datastore/internal/types"
)

// Postgres keeps site options in one table and network options in a
// site-meta table keyed by network id. Rows keep their serial id across
// updates, which gives Names its storage order.
type Postgres struct {
	pool   *pgxpool.Pool
	config config.PostgresConfig
	codec  types.Codec
	policy resilience.Executor
	logger *slog.Logger

	options  string
	sitemeta string

	closed atomic.Bool
}

// NewPostgres opens a pool on cfg.DSN and creates the tables when
// cfg.EnsureSchema is set.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, c types.Codec, policy resilience.Executor, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = resilience.DisabledPolicy{}
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN.Value())
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	p := &Postgres{
		pool:     pool,
		config:   cfg,
		codec:    c,
		policy:   policy,
		logger:   logger.With("component", "postgres-options"),
		options:  pgx.Identifier{cfg.OptionsTable}.Sanitize(),
		sitemeta: pgx.Identifier{cfg.SitemetaTable}.Sanitize(),
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if cfg.EnsureSchema {
		if err := p.ensureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}

	p.logger.Info("Postgres connected", "options_table", cfg.OptionsTable, "sitemeta_table", cfg.SitemetaTable)
	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			option_id BIGSERIAL PRIMARY KEY,
			option_name TEXT NOT NULL UNIQUE,
			option_value BYTEA NOT NULL,
			autoload BOOLEAN NOT NULL DEFAULT TRUE
		)`, p.options),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			meta_id BIGSERIAL PRIMARY KEY,
			site_id BIGINT NOT NULL,
			meta_key TEXT NOT NULL,
			meta_value BYTEA NOT NULL,
			UNIQUE (site_id, meta_key)
		)`, p.sitemeta),
	}

	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (p *Postgres) Name() string { return config.OptionsPostgres }

// run applies the query timeout and the resilience policy to one statement.
func (p *Postgres) run(ctx context.Context, fn func(context.Context) error) error {
	if p.closed.Load() {
		return types.ErrClosed
	}
	return p.policy.Execute(ctx, func(ctx context.Context) error {
		if p.config.QueryTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.config.QueryTimeout)
			defer cancel()
		}
		return fn(ctx)
	})
}

func (p *Postgres) Get(ctx context.Context, scope types.Scope, name string) (any, bool, error) {
	var data []byte
	err := p.run(ctx, func(ctx context.Context) error {
		var row pgx.Row
		if scope.Network {
			row = p.pool.QueryRow(ctx,
				fmt.Sprintf(`SELECT meta_value FROM %s WHERE site_id = $1 AND meta_key = $2`, p.sitemeta),
				scope.NetworkID, name)
		} else {
			row = p.pool.QueryRow(ctx,
				fmt.Sprintf(`SELECT option_value FROM %s WHERE option_name = $1`, p.options),
				name)
		}
		err := row.Scan(&data)
		if errors.Is(err, pgx.ErrNoRows) {
			return types.ErrNotFound
		}
		return err
	})
	if err != nil {
		if types.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, types.NewStoreError("get", name, p.Name(), err)
	}

	value, err := p.codec.Unmarshal(data)
	if err != nil {
		return nil, false, types.NewStoreError("get", name, p.Name(), err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, scope types.Scope, name string, value any, autoload bool) error {
	data, err := p.codec.Marshal(value)
	if err != nil {
		return types.NewStoreError("set", name, p.Name(), err)
	}

	err = p.run(ctx, func(ctx context.Context) error {
		if scope.Network {
			_, err := p.pool.Exec(ctx, fmt.Sprintf(`
				INSERT INTO %s (site_id, meta_key, meta_value)
				VALUES ($1, $2, $3)
				ON CONFLICT (site_id, meta_key) DO UPDATE SET
					meta_value = EXCLUDED.meta_value
			`, p.sitemeta), scope.NetworkID, name, data)
			return err
		}
		_, err := p.pool.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (option_name, option_value, autoload)
			VALUES ($1, $2, $3)
			ON CONFLICT (option_name) DO UPDATE SET
				option_value = EXCLUDED.option_value,
				autoload = EXCLUDED.autoload
		`, p.options), name, data, autoload)
		return err
	})
	if err != nil {
		return types.NewStoreError("set", name, p.Name(), err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, scope types.Scope, name string) (bool, error) {
	var affected int64
	err := p.run(ctx, func(ctx context.Context) error {
		var query string
		var args []any
		if scope.Network {
			query = fmt.Sprintf(`DELETE FROM %s WHERE site_id = $1 AND meta_key = $2`, p.sitemeta)
			args = []any{scope.NetworkID, name}
		} else {
			query = fmt.Sprintf(`DELETE FROM %s WHERE option_name = $1`, p.options)
			args = []any{name}
		}
		tag, err := p.pool.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return false, types.NewStoreError("delete", name, p.Name(), err)
	}
	return affected > 0, nil
}

// Names lists the stored names of scope starting with prefix in insertion
// order.
func (p *Postgres) Names(ctx context.Context, scope types.Scope, prefix string) ([]string, error) {
	pattern := escapeLike(prefix) + "%"

	var names []string
	err := p.run(ctx, func(ctx context.Context) error {
		names = names[:0]

		var rows pgx.Rows
		var err error
		if scope.Network {
			rows, err = p.pool.Query(ctx,
				fmt.Sprintf(`SELECT meta_key FROM %s WHERE site_id = $1 AND meta_key LIKE $2 ESCAPE '\' ORDER BY meta_id`, p.sitemeta),
				scope.NetworkID, pattern)
		} else {
			rows, err = p.pool.Query(ctx,
				fmt.Sprintf(`SELECT option_name FROM %s WHERE option_name LIKE $1 ESCAPE '\' ORDER BY option_id`, p.options),
				pattern)
		}
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			names = append(names, name)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, types.NewStoreError("names", prefix, p.Name(), err)
	}
	return names, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.run(ctx, p.pool.Ping)
}

// CircuitState returns the state of the circuit breaker.
func (p *Postgres) CircuitState() string {
	return p.policy.CircuitState().String()
}

func (p *Postgres) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.pool.Close()
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes prefix match literally inside a LIKE pattern.
func escapeLike(prefix string) string {
	return likeEscaper.Replace(prefix)
}

var _ types.OptionStore = (*Postgres)(nil)
