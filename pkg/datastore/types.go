package datastore

import (
	"github.com/LavishGent/datastore/internal/cache"
	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/platform"
	"github.com/LavishGent/datastore/internal/types"
)

type (
	// Host owns the storage primitives and builds backends on them.
	Host = platform.Host
	// ConfigOptions is the host configuration.
	ConfigOptions = config.Config

	// Cache is the object cache backend.
	Cache = cache.Cache
	// Options is the site option backend.
	Options = cache.Options
	// NetworkOptions is the network-wide option backend.
	NetworkOptions = cache.NetworkOptions
	// Transients is the site transient backend.
	Transients = cache.Transients
	// SiteTransients is the network-wide transient backend.
	SiteTransients = cache.SiteTransients
	// LargeObjectReader is implemented by both transient backends.
	LargeObjectReader = cache.LargeObjectReader

	// Scope selects the site table or the table of one network.
	Scope = types.Scope
	// BackendKind names one of the five backends.
	BackendKind = types.BackendKind

	ObjectCache     = types.ObjectCache
	OptionStore     = types.OptionStore
	TransientStore  = types.TransientStore
	Environment     = types.Environment
	Clock           = types.Clock
	MetricsRecorder = types.MetricsRecorder
	Logger          = types.Logger
)

const (
	BackendObjectCache    = types.BackendObjectCache
	BackendOptions        = types.BackendOptions
	BackendNetworkOptions = types.BackendNetworkOptions
	BackendTransients     = types.BackendTransients
	BackendSiteTransients = types.BackendSiteTransients
)

// SiteScope addresses the site-local table.
func SiteScope() Scope {
	return types.SiteScope()
}

// NetworkScope addresses the network-wide table of networkID.
func NetworkScope(networkID int64) Scope {
	return types.NetworkScope(networkID)
}

// VersionedKey is the stored name of key under prefix and generation.
func VersionedKey(prefix string, generation int64, key string) string {
	return types.VersionedKey(prefix, generation, key)
}

// ParseBackendKind maps a backend name ("cache", "option", "network-option",
// "transient", "site-transient") to its kind.
func ParseBackendKind(s string) (BackendKind, bool) {
	return types.ParseBackendKind(s)
}
