package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("object cache defaults", func(t *testing.T) {
		if cfg.ObjectCache.Driver != ObjectCacheBigCache {
			t.Errorf("ObjectCache.Driver = %s, want bigcache", cfg.ObjectCache.Driver)
		}
		if cfg.ObjectCache.BigCache.MaxSizeMB != 256 {
			t.Errorf("BigCache.MaxSizeMB = %d, want 256", cfg.ObjectCache.BigCache.MaxSizeMB)
		}
		if cfg.ObjectCache.BigCache.Shards != 1024 {
			t.Errorf("BigCache.Shards = %d, want 1024", cfg.ObjectCache.BigCache.Shards)
		}
	})

	t.Run("large object defaults", func(t *testing.T) {
		if cfg.LargeObjects.MaxDecodedSize != 64<<20 {
			t.Errorf("LargeObjects.MaxDecodedSize = %d, want %d", cfg.LargeObjects.MaxDecodedSize, 64<<20)
		}
	})

	t.Run("redis defaults", func(t *testing.T) {
		if cfg.Redis.Address != "localhost:6379" {
			t.Errorf("Redis.Address = %s, want localhost:6379", cfg.Redis.Address)
		}
		if cfg.Redis.KeyPrefix != "datastore:" {
			t.Errorf("Redis.KeyPrefix = %s, want datastore:", cfg.Redis.KeyPrefix)
		}
	})

	t.Run("options defaults", func(t *testing.T) {
		if cfg.Options.Driver != OptionsMemory {
			t.Errorf("Options.Driver = %s, want memory", cfg.Options.Driver)
		}
		if cfg.Postgres.OptionsTable != "options" || cfg.Postgres.SitemetaTable != "sitemeta" {
			t.Errorf("postgres tables = %s, %s", cfg.Postgres.OptionsTable, cfg.Postgres.SitemetaTable)
		}
	})

	t.Run("network defaults", func(t *testing.T) {
		if cfg.Network.Multisite {
			t.Error("Network.Multisite = true, want false")
		}
		if cfg.Network.NetworkID != 1 {
			t.Errorf("Network.NetworkID = %d, want 1", cfg.Network.NetworkID)
		}
	})

	t.Run("resilience defaults", func(t *testing.T) {
		if !cfg.CircuitBreaker.Enabled || cfg.CircuitBreaker.FailureThreshold != 5 {
			t.Errorf("CircuitBreaker = %+v", cfg.CircuitBreaker)
		}
		if !cfg.Retry.Enabled || cfg.Retry.MaxAttempts != 3 {
			t.Errorf("Retry = %+v", cfg.Retry)
		}
	})

	t.Run("metrics defaults", func(t *testing.T) {
		if cfg.Metrics.Driver != MetricsNone {
			t.Errorf("Metrics.Driver = %s, want none", cfg.Metrics.Driver)
		}
		if cfg.Metrics.PublishInterval != 10*time.Second {
			t.Errorf("Metrics.PublishInterval = %v, want 10s", cfg.Metrics.PublishInterval)
		}
	})

	t.Run("defaults are valid", func(t *testing.T) {
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})
}

func TestForTesting(t *testing.T) {
	cfg := ForTesting()

	if cfg.ObjectCache.BigCache.MaxSizeMB != 16 {
		t.Errorf("BigCache.MaxSizeMB = %d, want 16", cfg.ObjectCache.BigCache.MaxSizeMB)
	}
	if cfg.CircuitBreaker.Enabled || cfg.Retry.Enabled {
		t.Error("resilience should be disabled for tests")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	redisCfg := ForTestingWithRedis("localhost:6380")
	if redisCfg.ObjectCache.Driver != ObjectCacheRedis || redisCfg.Redis.Address != "localhost:6380" {
		t.Errorf("ForTestingWithRedis = %+v", redisCfg.ObjectCache)
	}

	pgCfg := ForTestingWithPostgres("postgres://localhost/test")
	if pgCfg.Options.Driver != OptionsPostgres || pgCfg.Postgres.DSN.Value() != "postgres://localhost/test" {
		t.Errorf("ForTestingWithPostgres options = %+v", pgCfg.Options)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown object cache driver",
			mutate:  func(c *Config) { c.ObjectCache.Driver = "memcached" },
			wantErr: "objectCache.driver",
		},
		{
			name:    "bigcache shards not a power of two",
			mutate:  func(c *Config) { c.ObjectCache.BigCache.Shards = 100 },
			wantErr: "power of 2",
		},
		{
			name: "ristretto without cost",
			mutate: func(c *Config) {
				c.ObjectCache.Driver = ObjectCacheRistretto
				c.ObjectCache.Ristretto.MaxCost = 0
			},
			wantErr: "ristretto",
		},
		{
			name:    "negative large object limit",
			mutate:  func(c *Config) { c.LargeObjects.MaxDecodedSize = -1 },
			wantErr: "largeObjects.maxDecodedSize",
		},
		{
			name: "redis without address",
			mutate: func(c *Config) {
				c.ObjectCache.Driver = ObjectCacheRedis
				c.Redis.Address = ""
			},
			wantErr: "redis.address",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Options.Driver = OptionsPostgres },
			wantErr: "postgres.dsn",
		},
		{
			name:    "unknown options driver",
			mutate:  func(c *Config) { c.Options.Driver = "mysql" },
			wantErr: "options.driver",
		},
		{
			name: "multisite without network id",
			mutate: func(c *Config) {
				c.Network.Multisite = true
				c.Network.NetworkID = 0
			},
			wantErr: "network.networkId",
		},
		{
			name:    "circuit breaker threshold",
			mutate:  func(c *Config) { c.CircuitBreaker.FailureThreshold = 0 },
			wantErr: "failureThreshold",
		},
		{
			name:    "retry attempts",
			mutate:  func(c *Config) { c.Retry.MaxAttempts = 0 },
			wantErr: "retry.maxAttempts",
		},
		{
			name:    "unknown metrics driver",
			mutate:  func(c *Config) { c.Metrics.Driver = "statsite" },
			wantErr: "metrics.driver",
		},
		{
			name: "datadog without port",
			mutate: func(c *Config) {
				c.Metrics.Driver = MetricsDataDog
				c.Metrics.DataDog.Port = 0
			},
			wantErr: "metrics.datadog",
		},
		{
			name: "publisher without interval",
			mutate: func(c *Config) {
				c.Metrics.Driver = MetricsLogging
				c.Metrics.PublishInterval = 0
			},
			wantErr: "publishInterval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}

	t.Run("disabled sections are not checked", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CircuitBreaker.Enabled = false
		cfg.CircuitBreaker.FailureThreshold = 0
		cfg.ObjectCache.Driver = ObjectCacheNone
		cfg.ObjectCache.BigCache.Shards = 3
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.ObjectCache.Driver != ObjectCacheBigCache {
			t.Errorf("Driver = %s, want bigcache", cfg.ObjectCache.Driver)
		}
	})

	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Options.Driver != OptionsMemory {
			t.Errorf("Options.Driver = %s, want memory", cfg.Options.Driver)
		}
	})

	t.Run("json file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "datastore.json")
		raw := map[string]any{
			"objectCache": map[string]any{"driver": "ristretto"},
			"network":     map[string]any{"multisite": true, "networkId": 4},
			"redis":       map[string]any{"password": "s3cret"},
		}
		data, err := json.Marshal(raw)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.ObjectCache.Driver != ObjectCacheRistretto {
			t.Errorf("Driver = %s, want ristretto", cfg.ObjectCache.Driver)
		}
		if !cfg.Network.Multisite || cfg.Network.NetworkID != 4 {
			t.Errorf("Network = %+v", cfg.Network)
		}
		if cfg.Redis.Password.Value() != "s3cret" {
			t.Error("password not loaded")
		}
		if cfg.ObjectCache.Ristretto.BufferItems != 64 {
			t.Error("unset fields should keep their defaults")
		}
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "datastore.yaml")
		doc := `
objectCache:
  driver: redis
redis:
  address: cache.internal:6379
  password: hunter2
  readTimeout: 750ms
options:
  driver: postgres
postgres:
  dsn: postgres://app@db/app
metrics:
  driver: prometheus
  publishInterval: 30s
`
		if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.ObjectCache.Driver != ObjectCacheRedis || cfg.Redis.Address != "cache.internal:6379" {
			t.Errorf("redis = %+v", cfg.Redis)
		}
		if cfg.Redis.ReadTimeout != 750*time.Millisecond {
			t.Errorf("ReadTimeout = %v, want 750ms", cfg.Redis.ReadTimeout)
		}
		if cfg.Redis.Password.Value() != "hunter2" {
			t.Error("password not loaded")
		}
		if cfg.Postgres.DSN.Value() != "postgres://app@db/app" {
			t.Error("dsn not loaded")
		}
		if cfg.Metrics.Driver != MetricsPrometheus || cfg.Metrics.PublishInterval != 30*time.Second {
			t.Errorf("metrics = %+v", cfg.Metrics)
		}
	})

	t.Run("invalid file content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("Load() = nil error, want parse failure")
		}
	})

	t.Run("invalid configuration", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "invalid.yml")
		if err := os.WriteFile(path, []byte("options:\n  driver: mysql\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("Load() = nil error, want validation failure")
		}
	})
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("DATASTORE_OBJECT_CACHE_DRIVER", "Redis")
	t.Setenv("DATASTORE_REDIS_ADDRESS", "redis.test:6379")
	t.Setenv("DATASTORE_REDIS_PASSWORD", "pw")
	t.Setenv("DATASTORE_MULTISITE", "yes")
	t.Setenv("DATASTORE_NETWORK_ID", "9")
	t.Setenv("DATASTORE_RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("DATASTORE_CIRCUIT_BREAKER_OPEN_DURATION", "45")
	t.Setenv("DD_AGENT_HOST", "dd.local")
	t.Setenv("DD_ENV", "staging")
	t.Setenv("DATASTORE_LARGE_OBJECT_MAX_DECODED_SIZE", "1048576")

	cfg, err := LoadWithEnv("")
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}

	if cfg.ObjectCache.Driver != ObjectCacheRedis {
		t.Errorf("Driver = %s, want redis", cfg.ObjectCache.Driver)
	}
	if cfg.Redis.Address != "redis.test:6379" || cfg.Redis.Password.Value() != "pw" {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if !cfg.Network.Multisite || cfg.Network.NetworkID != 9 {
		t.Errorf("network = %+v", cfg.Network)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("Retry.MaxAttempts = %d, want 5", cfg.Retry.MaxAttempts)
	}
	if cfg.CircuitBreaker.OpenDuration != 45*time.Second {
		t.Errorf("OpenDuration = %v, want 45s", cfg.CircuitBreaker.OpenDuration)
	}
	if cfg.Metrics.Driver != MetricsDataDog || cfg.Metrics.DataDog.AgentHost != "dd.local" {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
	if len(cfg.Metrics.DataDog.Tags) != 1 || cfg.Metrics.DataDog.Tags[0] != "env:staging" {
		t.Errorf("Tags = %v", cfg.Metrics.DataDog.Tags)
	}
	if cfg.LargeObjects.MaxDecodedSize != 1<<20 {
		t.Errorf("LargeObjects.MaxDecodedSize = %d, want %d", cfg.LargeObjects.MaxDecodedSize, 1<<20)
	}
}

func TestParseHelpers(t *testing.T) {
	for _, s := range []string{"true", "1", "YES", " on "} {
		if !parseBool(s) {
			t.Errorf("parseBool(%q) = false", s)
		}
	}
	if parseBool("nope") {
		t.Error("parseBool(nope) = true")
	}
	if parseInt("x", 7) != 7 || parseInt(" 12 ", 7) != 12 {
		t.Error("parseInt fallback broken")
	}
	if parseInt64("x", 3) != 3 || parseInt64("42", 3) != 42 {
		t.Error("parseInt64 fallback broken")
	}
	if parseDuration("2m", 0) != 2*time.Minute || parseDuration("10", 0) != 10*time.Second || parseDuration("bad", time.Second) != time.Second {
		t.Error("parseDuration broken")
	}
}

func TestSecretsRedactedInJSON(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Redis.Password = NewSecretString("hunter2")
	cfg.Postgres.DSN = NewSecretString("postgres://user:pw@db/app")

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "hunter2") || strings.Contains(string(data), "user:pw") {
		t.Errorf("secrets leaked: %s", data)
	}
}
