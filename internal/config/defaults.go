package config

import "time"

// DefaultConfig returns a configuration with sensible defaults: an
// in-process bigcache object cache and an in-memory option store.
func DefaultConfig() *Config {
	return &Config{
		ObjectCache: ObjectCacheConfig{
			Driver: ObjectCacheBigCache,
			BigCache: BigCacheConfig{
				LifeWindow:      24 * time.Hour,
				CleanupInterval: time.Minute,
				MaxSizeMB:       256,
				Shards:          1024,
				MaxEntrySize:    4 * 1024,
			},
			Ristretto: RistrettoConfig{
				NumCounters: 1e7,
				MaxCost:     1 << 28, // 256MB
				BufferItems: 64,
				Metrics:     true,
			},
		},
		Redis: RedisConfig{
			Address:      "localhost:6379",
			Password:     SecretString{},
			DB:           0,
			KeyPrefix:    "datastore:",
			PoolSize:     100,
			MinIdleConns: 10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolTimeout:  4 * time.Second,
		},
		Options: OptionsConfig{
			Driver: OptionsMemory,
		},
		Postgres: PostgresConfig{
			MaxConns:       10,
			ConnectTimeout: 5 * time.Second,
			QueryTimeout:   3 * time.Second,
			EnsureSchema:   true,
			OptionsTable:   "options",
			SitemetaTable:  "sitemeta",
		},
		Network: NetworkConfig{
			Multisite: false,
			NetworkID: 1,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:             true,
			FailureThreshold:    5,
			SuccessThreshold:    2,
			OpenDuration:        30 * time.Second,
			HalfOpenMaxRequests: 3,
		},
		Retry: RetryConfig{
			Enabled:        true,
			MaxAttempts:    3,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Multiplier:     2.0,
			Jitter:         true,
		},
		Metrics: MetricsConfig{
			Driver:          MetricsNone,
			PublishInterval: 10 * time.Second,
			DataDog: DataDogConfig{
				AgentHost: "127.0.0.1",
				Port:      8125,
				Prefix:    "datastore",
				Tags:      []string{},
			},
			Prometheus: PrometheusConfig{
				Namespace: "datastore",
			},
		},
		KeyValidation: KeyValidationConfig{
			Enabled:           true,
			MaxKeyLength:      167,
			AllowEmpty:        false,
			AllowControlChars: false,
			AllowWhitespace:   true,
		},
		LargeObjects: LargeObjectsConfig{
			MaxDecodedSize: 64 << 20,
		},
	}
}

// ForTesting returns a minimal configuration suitable for unit tests.
func ForTesting() *Config {
	cfg := DefaultConfig()
	cfg.ObjectCache.BigCache = BigCacheConfig{
		LifeWindow:      time.Hour,
		CleanupInterval: time.Second,
		MaxSizeMB:       16,
		Shards:          64,
		MaxEntrySize:    1024,
	}
	cfg.ObjectCache.Ristretto = RistrettoConfig{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
		Metrics:     true,
	}
	cfg.Redis.KeyPrefix = "test:"
	cfg.Redis.PoolSize = 10
	cfg.Redis.MinIdleConns = 1
	cfg.Redis.DialTimeout = time.Second
	cfg.Redis.ReadTimeout = time.Second
	cfg.Redis.WriteTimeout = time.Second
	cfg.Redis.PoolTimeout = time.Second
	cfg.CircuitBreaker = CircuitBreakerConfig{
		Enabled:             false,
		FailureThreshold:    3,
		SuccessThreshold:    1,
		OpenDuration:        time.Second,
		HalfOpenMaxRequests: 1,
	}
	cfg.Retry = RetryConfig{
		Enabled:        false,
		MaxAttempts:    1,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
	}
	cfg.Metrics.PublishInterval = time.Second
	return cfg
}

// ForTestingWithRedis returns a test config using Redis as the object cache.
func ForTestingWithRedis(addr string) *Config {
	cfg := ForTesting()
	cfg.ObjectCache.Driver = ObjectCacheRedis
	cfg.Redis.Address = addr
	return cfg
}

// ForTestingWithPostgres returns a test config storing options in Postgres.
func ForTestingWithPostgres(dsn string) *Config {
	cfg := ForTesting()
	cfg.Options.Driver = OptionsPostgres
	cfg.Postgres.DSN = NewSecretString(dsn)
	return cfg
}
