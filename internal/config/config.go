// Package config provides configuration management for datastore.
package config

import (
	"time"

	"github.com/LavishGent/datastore/internal/types"
)

type SecretString = types.SecretString

func NewSecretString(value string) SecretString {
	return types.NewSecretString(value)
}

// Object cache drivers.
const (
	ObjectCacheBigCache  = "bigcache"
	ObjectCacheRistretto = "ristretto"
	ObjectCacheRedis     = "redis"
	ObjectCacheNone      = "none"
)

// Option store drivers.
const (
	OptionsMemory   = "memory"
	OptionsPostgres = "postgres"
)

// Metrics drivers.
const (
	MetricsNone       = "none"
	MetricsLogging    = "logging"
	MetricsDataDog    = "datadog"
	MetricsPrometheus = "prometheus"
)

// Config contains all configuration of a datastore host.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type Config struct {
	ObjectCache    ObjectCacheConfig    `json:"objectCache" yaml:"objectCache"`
	Redis          RedisConfig          `json:"redis" yaml:"redis"`
	Options        OptionsConfig        `json:"options" yaml:"options"`
	Postgres       PostgresConfig       `json:"postgres" yaml:"postgres"`
	Network        NetworkConfig        `json:"network" yaml:"network"`
	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker" yaml:"circuitBreaker"`
	Retry          RetryConfig          `json:"retry" yaml:"retry"`
	Metrics        MetricsConfig        `json:"metrics" yaml:"metrics"`
	KeyValidation  KeyValidationConfig  `json:"keyValidation" yaml:"keyValidation"`
	LargeObjects   LargeObjectsConfig   `json:"largeObjects" yaml:"largeObjects"`
}

// ObjectCacheConfig selects and sizes the object cache primitive.
type ObjectCacheConfig struct {
	Driver    string          `json:"driver" yaml:"driver"`
	BigCache  BigCacheConfig  `json:"bigcache" yaml:"bigcache"`
	Ristretto RistrettoConfig `json:"ristretto" yaml:"ristretto"`
}

// BigCacheConfig sizes the bigcache object cache. MaxSizeMB is a hard cap;
// MaxEntrySize is the expected entry size used for the initial allocation.
type BigCacheConfig struct {
	LifeWindow      time.Duration `json:"lifeWindow" yaml:"lifeWindow"`
	CleanupInterval time.Duration `json:"cleanupInterval" yaml:"cleanupInterval"`
	MaxSizeMB       int           `json:"maxSizeMB" yaml:"maxSizeMB"`
	Shards          int           `json:"shards" yaml:"shards"`
	MaxEntrySize    int           `json:"maxEntrySize" yaml:"maxEntrySize"`
}

type RistrettoConfig struct {
	NumCounters int64 `json:"numCounters" yaml:"numCounters"`
	MaxCost     int64 `json:"maxCost" yaml:"maxCost"`
	BufferItems int64 `json:"bufferItems" yaml:"bufferItems"`
	Metrics     bool  `json:"metrics" yaml:"metrics"`
}

// RedisConfig configures the shared object cache.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type RedisConfig struct {
	DialTimeout  time.Duration `json:"dialTimeout" yaml:"dialTimeout"`
	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	PoolTimeout  time.Duration `json:"poolTimeout" yaml:"poolTimeout"`
	Password     SecretString  `json:"password" yaml:"password"`
	Address      string        `json:"address" yaml:"address"`
	KeyPrefix    string        `json:"keyPrefix" yaml:"keyPrefix"`
	DB           int           `json:"db" yaml:"db"`
	PoolSize     int           `json:"poolSize" yaml:"poolSize"`
	MinIdleConns int           `json:"minIdleConns" yaml:"minIdleConns"`
	EnableTLS    bool          `json:"enableTLS" yaml:"enableTLS"`
	// TLSSkipVerify disables certificate checks. Only for local development.
	TLSSkipVerify bool `json:"tlsSkipVerify" yaml:"tlsSkipVerify"`
}

type OptionsConfig struct {
	Driver string `json:"driver" yaml:"driver"`
}

// PostgresConfig configures the durable option store.
type PostgresConfig struct {
	DSN            SecretString  `json:"dsn" yaml:"dsn"`
	MaxConns       int32         `json:"maxConns" yaml:"maxConns"`
	ConnectTimeout time.Duration `json:"connectTimeout" yaml:"connectTimeout"`
	QueryTimeout   time.Duration `json:"queryTimeout" yaml:"queryTimeout"`
	EnsureSchema   bool          `json:"ensureSchema" yaml:"ensureSchema"`
	OptionsTable   string        `json:"optionsTable" yaml:"optionsTable"`
	SitemetaTable  string        `json:"sitemetaTable" yaml:"sitemetaTable"`
}

// NetworkConfig describes the multisite environment of the host.
type NetworkConfig struct {
	Multisite bool  `json:"multisite" yaml:"multisite"`
	NetworkID int64 `json:"networkId" yaml:"networkId"`
}

type CircuitBreakerConfig struct {
	Enabled             bool          `json:"enabled" yaml:"enabled"`
	FailureThreshold    int           `json:"failureThreshold" yaml:"failureThreshold"`
	SuccessThreshold    int           `json:"successThreshold" yaml:"successThreshold"`
	OpenDuration        time.Duration `json:"openDuration" yaml:"openDuration"`
	HalfOpenMaxRequests int           `json:"halfOpenMaxRequests" yaml:"halfOpenMaxRequests"`
}

type RetryConfig struct {
	InitialBackoff time.Duration `json:"initialBackoff" yaml:"initialBackoff"`
	MaxBackoff     time.Duration `json:"maxBackoff" yaml:"maxBackoff"`
	Multiplier     float64       `json:"multiplier" yaml:"multiplier"`
	MaxAttempts    int           `json:"maxAttempts" yaml:"maxAttempts"`
	Enabled        bool          `json:"enabled" yaml:"enabled"`
	Jitter         bool          `json:"jitter" yaml:"jitter"`
}

// MetricsConfig selects the metrics sink.
//
//nolint:govet // Small config struct - minimal alignment benefit
type MetricsConfig struct {
	Driver          string           `json:"driver" yaml:"driver"`
	PublishInterval time.Duration    `json:"publishInterval" yaml:"publishInterval"`
	DataDog         DataDogConfig    `json:"datadog" yaml:"datadog"`
	Prometheus      PrometheusConfig `json:"prometheus" yaml:"prometheus"`
}

//nolint:govet // Small config struct - minimal alignment benefit
type DataDogConfig struct {
	Tags      []string `json:"tags" yaml:"tags"`
	AgentHost string   `json:"agentHost" yaml:"agentHost"`
	Prefix    string   `json:"prefix" yaml:"prefix"`
	Port      int      `json:"port" yaml:"port"`
}

type PrometheusConfig struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	Subsystem string `json:"subsystem" yaml:"subsystem"`
}

type KeyValidationConfig struct {
	ReservedPatterns  []string `json:"reservedPatterns" yaml:"reservedPatterns"`
	MaxKeyLength      int      `json:"maxKeyLength" yaml:"maxKeyLength"`
	Enabled           bool     `json:"enabled" yaml:"enabled"`
	AllowEmpty        bool     `json:"allowEmpty" yaml:"allowEmpty"`
	AllowControlChars bool     `json:"allowControlChars" yaml:"allowControlChars"`
	AllowWhitespace   bool     `json:"allowWhitespace" yaml:"allowWhitespace"`
}

// LargeObjectsConfig bounds compressed large object transients.
// MaxDecodedSize caps the decompressed payload in bytes; zero disables the cap.
type LargeObjectsConfig struct {
	MaxDecodedSize int64 `json:"maxDecodedSize" yaml:"maxDecodedSize"`
}

// ToTypesConfig converts this config to a types.KeyValidationConfig.
func (c KeyValidationConfig) ToTypesConfig() types.KeyValidationConfig {
	return types.KeyValidationConfig{
		MaxKeyLength:      c.MaxKeyLength,
		AllowEmpty:        c.AllowEmpty,
		AllowControlChars: c.AllowControlChars,
		AllowWhitespace:   c.AllowWhitespace,
		ReservedPatterns:  c.ReservedPatterns,
	}
}
