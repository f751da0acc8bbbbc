// Package types holds the shared types of the datastore module.
// It breaks import cycles between pkg/datastore and the internal packages.
package types

import "time"

// BackendKind identifies one of the generational key/value backends.
type BackendKind int

const (
	BackendObjectCache BackendKind = iota + 1
	BackendOptions
	BackendNetworkOptions
	BackendTransients
	BackendSiteTransients
)

func (k BackendKind) String() string {
	switch k {
	case BackendObjectCache:
		return "cache"
	case BackendOptions:
		return "option"
	case BackendNetworkOptions:
		return "network-option"
	case BackendTransients:
		return "transient"
	case BackendSiteTransients:
		return "site-transient"
	default:
		return "unknown"
	}
}

// ParseBackendKind is the inverse of BackendKind.String.
func ParseBackendKind(s string) (BackendKind, bool) {
	for k := BackendObjectCache; k <= BackendSiteTransients; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Generational reports whether keys of this backend carry a generation.
func (k BackendKind) Generational() bool {
	return k == BackendObjectCache || k == BackendTransients || k == BackendSiteTransients
}

// Names under which the host platform stores its own bookkeeping.
const (
	TransientPrefix            = "_transient_"
	TransientTimeoutPrefix     = "_transient_timeout_"
	SiteTransientPrefix        = "_site_transient_"
	SiteTransientTimeoutPrefix = "_site_transient_timeout_"

	TransientGroup     = "transient"
	SiteTransientGroup = "site-transient"

	CacheIncrementorSuffix     = "cache_incrementor"
	TransientIncrementorSuffix = "transients_incrementor"
)

// TransientPrefixes returns the value and timeout prefixes for the scope.
func TransientPrefixes(scope Scope) (value, timeout string) {
	if scope.Network {
		return SiteTransientPrefix, SiteTransientTimeoutPrefix
	}
	return TransientPrefix, TransientTimeoutPrefix
}

// TransientGroupFor returns the object cache group transients of the scope use.
func TransientGroupFor(scope Scope) string {
	if scope.Network {
		return SiteTransientGroup
	}
	return TransientGroup
}

// CacheEntry is a stored object cache value with its absolute deadline.
type CacheEntry struct {
	Value     any
	ExpiresAt time.Time
}

// IsExpired reports whether the entry has expired at now.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(e.ExpiresAt)
}

// ObjectCacheStats are the counters of an in-process object cache.
type ObjectCacheStats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Deletes   int64
	Evictions int64
	Entries   int64
	SizeBytes int64
}
