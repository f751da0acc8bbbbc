package metrics

import (
	"log/slog"
	"sort"
	"time"

	"github.com/LavishGent/datastore/internal/types"
)

// LoggingPublisher writes metrics to slog.
type LoggingPublisher struct {
	logger   *slog.Logger
	baseTags []string
}

// NewLoggingPublisher returns a publisher that writes metrics as debug logs.
func NewLoggingPublisher(logger *slog.Logger, baseTags ...string) *LoggingPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingPublisher{
		logger:   logger.With("component", "metrics"),
		baseTags: baseTags,
	}
}

func (p *LoggingPublisher) Gauge(name string, value float64, tags ...string) {
	p.logger.Debug("gauge", "name", name, "value", value, "tags", MergeTags(p.baseTags, tags))
}

func (p *LoggingPublisher) Incr(name string, tags ...string) {
	p.logger.Debug("incr", "name", name, "tags", MergeTags(p.baseTags, tags))
}

func (p *LoggingPublisher) Count(name string, value int64, tags ...string) {
	p.logger.Debug("count", "name", name, "value", value, "tags", MergeTags(p.baseTags, tags))
}

func (p *LoggingPublisher) Timing(name string, duration time.Duration, tags ...string) {
	p.logger.Debug("timing",
		"name", name,
		"duration_ms", duration.Milliseconds(),
		"tags", MergeTags(p.baseTags, tags),
	)
}

func (p *LoggingPublisher) Event(title, text, alertType string, tags ...string) {
	p.logger.Info("event",
		"title", title,
		"text", text,
		"alert_type", alertType,
		"tags", MergeTags(p.baseTags, tags),
	)
}

// PublishSnapshot logs one line per backend, in name order.
func (p *LoggingPublisher) PublishSnapshot(s *types.MetricsSnapshot) {
	if s == nil {
		return
	}

	names := make([]string, 0, len(s.Backends))
	for name := range s.Backends {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := s.Backends[name]
		p.logger.Info("backend_metrics",
			"backend", name,
			"hits", c.Hits,
			"misses", c.Misses,
			"sets", c.Sets,
			"deletes", c.Deletes,
			"errors", c.Errors,
			"invalidations", c.Invalidations,
			"hit_ratio", c.HitRatio(),
		)
	}

	p.logger.Info("latency_metrics",
		"avg_ms", s.AvgLatencyMs,
		"p50_ms", s.P50LatencyMs,
		"p95_ms", s.P95LatencyMs,
		"p99_ms", s.P99LatencyMs,
	)
}

func (p *LoggingPublisher) Close() error {
	return nil
}

var _ types.Publisher = (*LoggingPublisher)(nil)
