package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/types"
)

// Latency buckets in seconds, from in-process hits to slow network calls.
var defaultBuckets = []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1}

// Prometheus records backend operations as Prometheus collectors.
type Prometheus struct {
	operations      *prometheus.CounterVec
	errors          *prometheus.CounterVec
	invalidations   *prometheus.CounterVec
	invalidatedKeys *prometheus.CounterVec
	generation      *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// NewPrometheus registers the collectors on reg. A nil reg uses the default
// registerer.
func NewPrometheus(cfg config.PrometheusConfig, reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &Prometheus{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "operations_total",
				Help:      "Backend operations by outcome",
			},
			[]string{"backend", "operation", "result"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "errors_total",
				Help:      "Failed calls into storage primitives",
			},
			[]string{"backend", "operation"},
		),
		invalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "invalidations_total",
				Help:      "Generation bumps",
			},
			[]string{"backend"},
		),
		invalidatedKeys: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "invalidated_keys_total",
				Help:      "Keys deleted by enumeration during invalidation",
			},
			[]string{"backend"},
		),
		generation: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "generation",
				Help:      "Current generation per backend and prefix",
			},
			[]string{"backend", "prefix"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "operation_duration_seconds",
				Help:      "Duration of backend operations",
				Buckets:   defaultBuckets,
			},
			[]string{"backend", "operation"},
		),
	}

	for _, c := range []prometheus.Collector{p.operations, p.errors, p.invalidations, p.invalidatedKeys, p.generation, p.latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) observe(backend, operation, result string, latency time.Duration) {
	p.operations.WithLabelValues(backend, operation, result).Inc()
	p.latency.WithLabelValues(backend, operation).Observe(latency.Seconds())
}

func (p *Prometheus) RecordHit(backend string, key string, latency time.Duration) {
	p.observe(backend, "get", "hit", latency)
}

func (p *Prometheus) RecordMiss(backend string, key string, latency time.Duration) {
	p.observe(backend, "get", "miss", latency)
}

func (p *Prometheus) RecordSet(backend string, key string, latency time.Duration) {
	p.observe(backend, "set", "ok", latency)
}

func (p *Prometheus) RecordDelete(backend string, key string, latency time.Duration) {
	p.observe(backend, "delete", "ok", latency)
}

func (p *Prometheus) RecordError(backend string, operation string, err error) {
	p.errors.WithLabelValues(backend, operation).Inc()
}

func (p *Prometheus) RecordInvalidation(backend string, prefix string, generation int64, deleted int) {
	p.invalidations.WithLabelValues(backend).Inc()
	p.invalidatedKeys.WithLabelValues(backend).Add(float64(deleted))
	p.generation.WithLabelValues(backend, prefix).Set(float64(generation))
}

var _ types.MetricsRecorder = (*Prometheus)(nil)
