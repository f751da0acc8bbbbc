package types

import "time"

// HealthStatus is the overall state of a host or one of its primitives.
type HealthStatus int

const (
	HealthStatusHealthy HealthStatus = iota + 1
	// HealthStatusDegraded means a primitive answers but its circuit is not closed.
	HealthStatusDegraded
	HealthStatusUnhealthy
)

func (s HealthStatus) String() string {
	switch s {
	case HealthStatusHealthy:
		return "healthy"
	case HealthStatusDegraded:
		return "degraded"
	case HealthStatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// MarshalText lets the status print as a word in JSON output.
func (s HealthStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// HealthReport is the result of Host.Health.
type HealthReport struct {
	Timestamp   time.Time       `json:"timestamp"`
	Status      HealthStatus    `json:"status"`
	ObjectCache ComponentHealth `json:"objectCache"`
	OptionStore ComponentHealth `json:"optionStore"`
	Multisite   bool            `json:"multisite"`
	NetworkID   int64           `json:"networkId"`
}

// ComponentHealth describes one primitive.
//
//nolint:govet // grouped for readability
type ComponentHealth struct {
	Driver              string            `json:"driver"`
	Status              HealthStatus      `json:"status"`
	External            bool              `json:"external"`
	Latency             time.Duration     `json:"latency"`
	CircuitBreakerState string            `json:"circuitBreakerState,omitempty"`
	LastError           string            `json:"lastError,omitempty"`
	Stats               *ObjectCacheStats `json:"stats,omitempty"`
}

// Combine returns the worst of the given states.
func Combine(states ...HealthStatus) HealthStatus {
	worst := HealthStatusHealthy
	for _, s := range states {
		if s > worst {
			worst = s
		}
	}
	return worst
}

// BackendCounters are the per-backend counters of a MetricsSnapshot.
type BackendCounters struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Sets          int64 `json:"sets"`
	Deletes       int64 `json:"deletes"`
	Errors        int64 `json:"errors"`
	Invalidations int64 `json:"invalidations"`
	// InvalidatedKeys counts keys removed by enumeration during invalidation.
	InvalidatedKeys int64 `json:"invalidatedKeys"`
}

// HitRatio returns hits over lookups, or 0 without lookups.
func (c BackendCounters) HitRatio() float64 {
	total := c.Hits + c.Misses
	if total == 0 {
		return 0
	}
	return float64(c.Hits) / float64(total)
}

// MetricsSnapshot is a point-in-time view of the tracked metrics.
type MetricsSnapshot struct {
	Timestamp time.Time                  `json:"timestamp"`
	Backends  map[string]BackendCounters `json:"backends"`

	AvgLatencyMs float64 `json:"avgLatencyMs"`
	P50LatencyMs float64 `json:"p50LatencyMs"`
	P95LatencyMs float64 `json:"p95LatencyMs"`
	P99LatencyMs float64 `json:"p99LatencyMs"`

	LastGenerations map[string]int64 `json:"lastGenerations"`
}

// Total sums the counters over all backends.
func (s *MetricsSnapshot) Total() BackendCounters {
	var total BackendCounters
	for _, c := range s.Backends {
		total.Hits += c.Hits
		total.Misses += c.Misses
		total.Sets += c.Sets
		total.Deletes += c.Deletes
		total.Errors += c.Errors
		total.Invalidations += c.Invalidations
		total.InvalidatedKeys += c.InvalidatedKeys
	}
	return total
}

// TotalHitRatio calculates the hit ratio over all backends.
func (s *MetricsSnapshot) TotalHitRatio() float64 {
	return s.Total().HitRatio()
}
