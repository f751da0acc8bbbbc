package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a JSON or YAML file, chosen by extension.
// If the file doesn't exist, returns default configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

// LoadWithEnv loads configuration from a file and applies DATASTORE_*
// environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

//nolint:gocyclo // Environment variable parsing requires many conditional checks
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATASTORE_OBJECT_CACHE_DRIVER"); v != "" {
		cfg.ObjectCache.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("DATASTORE_BIGCACHE_MAX_SIZE_MB"); v != "" {
		cfg.ObjectCache.BigCache.MaxSizeMB = parseInt(v, cfg.ObjectCache.BigCache.MaxSizeMB)
	}
	if v := os.Getenv("DATASTORE_BIGCACHE_LIFE_WINDOW"); v != "" {
		cfg.ObjectCache.BigCache.LifeWindow = parseDuration(v, cfg.ObjectCache.BigCache.LifeWindow)
	}
	if v := os.Getenv("DATASTORE_RISTRETTO_MAX_COST"); v != "" {
		cfg.ObjectCache.Ristretto.MaxCost = int64(parseInt(v, int(cfg.ObjectCache.Ristretto.MaxCost)))
	}

	if v := os.Getenv("DATASTORE_REDIS_ADDRESS"); v != "" {
		cfg.Redis.Address = v
	}
	if v := os.Getenv("DATASTORE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = NewSecretString(v)
	}
	if v := os.Getenv("DATASTORE_REDIS_DB"); v != "" {
		cfg.Redis.DB = parseInt(v, cfg.Redis.DB)
	}
	if v := os.Getenv("DATASTORE_REDIS_KEY_PREFIX"); v != "" {
		cfg.Redis.KeyPrefix = v
	}
	if v := os.Getenv("DATASTORE_REDIS_POOL_SIZE"); v != "" {
		cfg.Redis.PoolSize = parseInt(v, cfg.Redis.PoolSize)
	}
	if v := os.Getenv("DATASTORE_REDIS_ENABLE_TLS"); v != "" {
		cfg.Redis.EnableTLS = parseBool(v)
	}
	if v := os.Getenv("DATASTORE_REDIS_TLS_SKIP_VERIFY"); v != "" {
		cfg.Redis.TLSSkipVerify = parseBool(v)
	}

	if v := os.Getenv("DATASTORE_OPTIONS_DRIVER"); v != "" {
		cfg.Options.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("DATASTORE_POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = NewSecretString(v)
	}
	if v := os.Getenv("DATASTORE_POSTGRES_MAX_CONNS"); v != "" {
		cfg.Postgres.MaxConns = int32(parseInt(v, int(cfg.Postgres.MaxConns)))
	}
	if v := os.Getenv("DATASTORE_POSTGRES_ENSURE_SCHEMA"); v != "" {
		cfg.Postgres.EnsureSchema = parseBool(v)
	}

	if v := os.Getenv("DATASTORE_MULTISITE"); v != "" {
		cfg.Network.Multisite = parseBool(v)
	}
	if v := os.Getenv("DATASTORE_NETWORK_ID"); v != "" {
		cfg.Network.NetworkID = parseInt64(v, cfg.Network.NetworkID)
	}

	if v := os.Getenv("DATASTORE_CIRCUIT_BREAKER_ENABLED"); v != "" {
		cfg.CircuitBreaker.Enabled = parseBool(v)
	}
	if v := os.Getenv("DATASTORE_CIRCUIT_BREAKER_FAILURE_THRESHOLD"); v != "" {
		cfg.CircuitBreaker.FailureThreshold = parseInt(v, cfg.CircuitBreaker.FailureThreshold)
	}
	if v := os.Getenv("DATASTORE_CIRCUIT_BREAKER_OPEN_DURATION"); v != "" {
		cfg.CircuitBreaker.OpenDuration = parseDuration(v, cfg.CircuitBreaker.OpenDuration)
	}

	if v := os.Getenv("DATASTORE_RETRY_ENABLED"); v != "" {
		cfg.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("DATASTORE_RETRY_MAX_ATTEMPTS"); v != "" {
		cfg.Retry.MaxAttempts = parseInt(v, cfg.Retry.MaxAttempts)
	}

	if v := os.Getenv("DATASTORE_LARGE_OBJECT_MAX_DECODED_SIZE"); v != "" {
		cfg.LargeObjects.MaxDecodedSize = parseInt64(v, cfg.LargeObjects.MaxDecodedSize)
	}

	if v := os.Getenv("DATASTORE_METRICS_DRIVER"); v != "" {
		cfg.Metrics.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("DATASTORE_METRICS_PUBLISH_INTERVAL"); v != "" {
		cfg.Metrics.PublishInterval = parseDuration(v, cfg.Metrics.PublishInterval)
	}

	if v := os.Getenv("DD_AGENT_HOST"); v != "" {
		cfg.Metrics.DataDog.AgentHost = v
		cfg.Metrics.Driver = MetricsDataDog
	}
	if v := os.Getenv("DD_DOGSTATSD_PORT"); v != "" {
		cfg.Metrics.DataDog.Port = parseInt(v, cfg.Metrics.DataDog.Port)
	}
	if v := os.Getenv("DD_SERVICE"); v != "" {
		cfg.Metrics.DataDog.Prefix = v
	}
	if v := os.Getenv("DD_ENV"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "env:"+v)
	}
	if v := os.Getenv("DD_VERSION"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "version:"+v)
	}
}

// Validate checks if the configuration is valid.
//
//nolint:gocyclo // one branch per setting
func (c *Config) Validate() error {
	switch c.ObjectCache.Driver {
	case ObjectCacheBigCache:
		bc := c.ObjectCache.BigCache
		if bc.MaxSizeMB <= 0 {
			return fmt.Errorf("objectCache.bigcache.maxSizeMB must be positive")
		}
		if bc.Shards <= 0 || (bc.Shards&(bc.Shards-1)) != 0 {
			return fmt.Errorf("objectCache.bigcache.shards must be a positive power of 2")
		}
		if bc.LifeWindow <= 0 {
			return fmt.Errorf("objectCache.bigcache.lifeWindow must be positive")
		}
	case ObjectCacheRistretto:
		rc := c.ObjectCache.Ristretto
		if rc.NumCounters <= 0 || rc.MaxCost <= 0 || rc.BufferItems <= 0 {
			return fmt.Errorf("objectCache.ristretto numCounters, maxCost and bufferItems must be positive")
		}
	case ObjectCacheRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address is required when the object cache driver is redis")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.poolSize must be positive")
		}
	case ObjectCacheNone:
	default:
		return fmt.Errorf("objectCache.driver %q is not supported", c.ObjectCache.Driver)
	}

	switch c.Options.Driver {
	case OptionsMemory:
	case OptionsPostgres:
		if c.Postgres.DSN.IsEmpty() {
			return fmt.Errorf("postgres.dsn is required when the options driver is postgres")
		}
		if c.Postgres.OptionsTable == "" || c.Postgres.SitemetaTable == "" {
			return fmt.Errorf("postgres table names must not be empty")
		}
	default:
		return fmt.Errorf("options.driver %q is not supported", c.Options.Driver)
	}

	if c.Network.Multisite && c.Network.NetworkID <= 0 {
		return fmt.Errorf("network.networkId must be positive when multisite is enabled")
	}

	if c.CircuitBreaker.Enabled {
		if c.CircuitBreaker.FailureThreshold <= 0 {
			return fmt.Errorf("circuitBreaker.failureThreshold must be positive")
		}
		if c.CircuitBreaker.OpenDuration <= 0 {
			return fmt.Errorf("circuitBreaker.openDuration must be positive")
		}
	}

	if c.Retry.Enabled && c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.maxAttempts must be positive")
	}

	if c.LargeObjects.MaxDecodedSize < 0 {
		return fmt.Errorf("largeObjects.maxDecodedSize must not be negative")
	}

	switch c.Metrics.Driver {
	case MetricsNone, MetricsLogging, MetricsPrometheus:
	case MetricsDataDog:
		if c.Metrics.DataDog.AgentHost == "" || c.Metrics.DataDog.Port <= 0 {
			return fmt.Errorf("metrics.datadog agentHost and port are required")
		}
	default:
		return fmt.Errorf("metrics.driver %q is not supported", c.Metrics.Driver)
	}
	if c.Metrics.Driver != MetricsNone && c.Metrics.PublishInterval <= 0 {
		return fmt.Errorf("metrics.publishInterval must be positive")
	}

	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func parseInt(s string, defaultVal int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return v
}

func parseInt64(s string, defaultVal int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultVal
}
