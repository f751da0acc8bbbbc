package objectcache

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/resilience"
	"github.com/LavishGent/datastore/internal/types"
)

const disconnectErrorThreshold = 5

// Redis is the shared object cache. It outlives the process and is visible
// to every host using the same key prefix, so External reports true.
type Redis struct {
	client *redis.Client
	config config.RedisConfig
	codec  types.Codec
	policy resilience.Executor
	logger *slog.Logger

	mu            sync.RWMutex
	connected     atomic.Bool
	lastError     error
	lastErrorTime time.Time
	errorCount    atomic.Int64

	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
}

// NewRedis connects to redis and returns a shared object cache.
func NewRedis(ctx context.Context, cfg config.RedisConfig, c types.Codec, policy resilience.Executor, logger *slog.Logger) (*Redis, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = resilience.DisabledPolicy{}
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password.Value(),
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	}

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify, //nolint:gosec // opt-in for local development
		}
		if cfg.TLSSkipVerify {
			logger.Warn("TLS certificate verification is disabled - this is insecure for production use")
		}
	}

	r := &Redis{
		client: redis.NewClient(opts),
		config: cfg,
		codec:  c,
		policy: policy,
		logger: logger.With("component", "redis"),
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := r.client.Ping(pingCtx).Err(); err != nil {
		// keep going: calls fail until Redis answers again
		r.logger.Warn("Redis initial connection failed", "error", err)
		r.setError(err)
	} else {
		r.connected.Store(true)
		r.logger.Info("Redis connected", "address", cfg.Address)
	}

	return r, nil
}

func (r *Redis) Name() string { return config.ObjectCacheRedis }

func (r *Redis) External() bool { return true }

// IsAvailable reports whether the circuit breaker lets requests through.
func (r *Redis) IsAvailable() bool {
	return r.connected.Load()
}

func (r *Redis) redisKey(key, group string) string {
	return r.config.KeyPrefix + entryKey(group, key)
}

func (r *Redis) Get(ctx context.Context, key, group string) (any, bool, error) {
	k := r.redisKey(key, group)

	var data []byte
	err := r.policy.Execute(ctx, func(ctx context.Context) error {
		var err error
		data, err = r.client.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return types.ErrNotFound
		}
		return err
	})
	if err != nil {
		if types.IsNotFound(err) {
			r.misses.Add(1)
			r.clearError()
			return nil, false, nil
		}
		r.handleError(err)
		return nil, false, types.NewStoreError("get", k, r.Name(), err)
	}
	r.clearError()

	value, err := r.codec.Unmarshal(data)
	if err != nil {
		return nil, false, types.NewStoreError("get", k, r.Name(), err)
	}
	r.hits.Add(1)
	return value, true, nil
}

// Set stores value; a zero ttl stores it without expiration.
func (r *Redis) Set(ctx context.Context, key, group string, value any, ttl time.Duration) error {
	k := r.redisKey(key, group)

	data, err := r.codec.Marshal(value)
	if err != nil {
		return types.NewStoreError("set", k, r.Name(), err)
	}

	err = r.policy.Execute(ctx, func(ctx context.Context) error {
		return r.client.Set(ctx, k, data, ttl).Err()
	})
	if err != nil {
		r.handleError(err)
		return types.NewStoreError("set", k, r.Name(), err)
	}

	r.sets.Add(1)
	r.clearError()
	return nil
}

func (r *Redis) Delete(ctx context.Context, key, group string) (bool, error) {
	k := r.redisKey(key, group)

	var removed int64
	err := r.policy.Execute(ctx, func(ctx context.Context) error {
		var err error
		removed, err = r.client.Del(ctx, k).Result()
		return err
	})
	if err != nil {
		r.handleError(err)
		return false, types.NewStoreError("delete", k, r.Name(), err)
	}

	r.clearError()
	if removed == 0 {
		return false, nil
	}
	r.deletes.Add(1)
	return true, nil
}

func (r *Redis) Exists(ctx context.Context, key, group string) (bool, error) {
	k := r.redisKey(key, group)

	var n int64
	err := r.policy.Execute(ctx, func(ctx context.Context) error {
		var err error
		n, err = r.client.Exists(ctx, k).Result()
		return err
	})
	if err != nil {
		r.handleError(err)
		return false, types.NewStoreError("exists", k, r.Name(), err)
	}

	r.clearError()
	return n > 0, nil
}

// FlushGroup deletes every key of group with SCAN, so it does not block
// Redis the way KEYS would.
func (r *Redis) FlushGroup(ctx context.Context, group string) (int, error) {
	pattern := r.redisKey("*", group)

	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			r.handleError(err)
			return deleted, types.NewStoreError("flush", pattern, r.Name(), err)
		}

		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				r.handleError(err)
				return deleted, types.NewStoreError("flush", pattern, r.Name(), err)
			}
			deleted += int(n)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	r.logger.Debug("flushed group", "group", group, "deleted", deleted)
	r.clearError()
	return deleted, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.handleError(err)
		return err
	}
	if r.connected.CompareAndSwap(false, true) {
		r.errorCount.Store(0)
		r.logger.Info("Redis connection restored")
	}
	return nil
}

func (r *Redis) CircuitState() string {
	return r.policy.CircuitState().String()
}

func (r *Redis) Close() error {
	r.connected.Store(false)
	return r.client.Close()
}

func (r *Redis) Stats() types.ObjectCacheStats {
	return types.ObjectCacheStats{
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
		Sets:    r.sets.Load(),
		Deletes: r.deletes.Load(),
	}
}

func (r *Redis) handleError(err error) {
	if types.IsCircuitOpen(err) || errors.Is(err, context.Canceled) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastError = err
	r.lastErrorTime = time.Now()
	count := r.errorCount.Add(1)

	if count >= disconnectErrorThreshold {
		if r.connected.CompareAndSwap(true, false) {
			r.logger.Warn("Redis marked as disconnected after errors",
				"error_count", count,
				"last_error", err,
			)
		}
	}
}

func (r *Redis) clearError() {
	if r.errorCount.Swap(0) > 0 || !r.connected.Load() {
		if r.connected.CompareAndSwap(false, true) {
			r.logger.Info("Redis connection restored")
		}
	}
}

func (r *Redis) setError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastError = err
	r.lastErrorTime = time.Now()
	r.connected.Store(false)
}

// LastError returns the last redis error and when it happened.
func (r *Redis) LastError() (error, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastError, r.lastErrorTime
}

var (
	_ types.ObjectCache = (*Redis)(nil)
	_ StatsProvider     = (*Redis)(nil)
	_ GroupFlusher      = (*Redis)(nil)
)
