package datastore

import (
	"github.com/LavishGent/datastore/internal/types"
)

// Re-export health types from internal/types.
type (
	// HealthStatus represents the overall health state.
	HealthStatus = types.HealthStatus

	// HealthReport is the result of Host.Health.
	HealthReport = types.HealthReport

	// ComponentHealth describes one primitive of a host.
	ComponentHealth = types.ComponentHealth

	// ObjectCacheStats contains object cache statistics, when the driver has them.
	ObjectCacheStats = types.ObjectCacheStats

	// MetricsSnapshot contains a point-in-time view of backend metrics.
	MetricsSnapshot = types.MetricsSnapshot

	// BackendCounters holds the counters of one backend.
	BackendCounters = types.BackendCounters
)

const (
	HealthStatusHealthy   = types.HealthStatusHealthy
	HealthStatusDegraded  = types.HealthStatusDegraded
	HealthStatusUnhealthy = types.HealthStatusUnhealthy
)
