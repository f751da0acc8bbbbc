package datastore

import (
	"context"

	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/platform"
)

// New opens a host with the default configuration.
func New(ctx context.Context, opts ...HostOption) (*Host, error) {
	return NewFromConfig(ctx, config.DefaultConfig(), opts...)
}

// NewFromConfig opens a host from configuration.
func NewFromConfig(ctx context.Context, cfg *ConfigOptions, opts ...HostOption) (*Host, error) {
	return platform.New(ctx, cfg, opts...)
}

// NewFromFile opens a host from a JSON or YAML config file. DATASTORE_*
// environment variables override the file.
func NewFromFile(ctx context.Context, path string, opts ...HostOption) (*Host, error) {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(ctx, cfg, opts...)
}

// NewMemoryOnly opens a host that keeps everything in process.
func NewMemoryOnly(ctx context.Context, opts ...HostOption) (*Host, error) {
	cfg := config.DefaultConfig()
	cfg.ObjectCache.Driver = config.ObjectCacheBigCache
	cfg.Options.Driver = config.OptionsMemory
	return NewFromConfig(ctx, cfg, opts...)
}

// Config returns a default configuration that can be modified before opening a host.
func Config() *ConfigOptions {
	return config.DefaultConfig()
}

// TestConfig returns a configuration suitable for unit tests.
func TestConfig() *ConfigOptions {
	return config.ForTesting()
}
