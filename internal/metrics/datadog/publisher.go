// Package datadog publishes metrics to a DataDog agent over StatsD.
package datadog

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/metrics"
	"github.com/LavishGent/datastore/internal/types"
)

// Publisher implements types.Publisher on the StatsD client.
type Publisher struct {
	baseTags []string
	client   statsd.ClientInterface
	logger   *slog.Logger
}

// NewPublisher returns a DogStatsD publisher for the agent in cfg.
func NewPublisher(cfg config.DataDogConfig, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	addr := fmt.Sprintf("%s:%d", cfg.AgentHost, cfg.Port)
	client, err := statsd.New(addr,
		statsd.WithNamespace(cfg.Prefix+"."),
		statsd.WithTags(cfg.Tags),
	)
	if err != nil {
		return nil, fmt.Errorf("create statsd client: %w", err)
	}

	logger.Info("DataDog publisher initialized",
		"address", addr,
		"prefix", cfg.Prefix,
		"tags", cfg.Tags,
	)

	return newPublisher(client, cfg.Tags, logger), nil
}

func newPublisher(client statsd.ClientInterface, baseTags []string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client:   client,
		baseTags: baseTags,
		logger:   logger.With("component", "datadog"),
	}
}

func (p *Publisher) Gauge(name string, value float64, tags ...string) {
	if err := p.client.Gauge(name, value, metrics.MergeTags(p.baseTags, tags), 1); err != nil {
		p.logger.Debug("failed to send gauge metric", "name", name, "error", err)
	}
}

func (p *Publisher) Incr(name string, tags ...string) {
	if err := p.client.Incr(name, metrics.MergeTags(p.baseTags, tags), 1); err != nil {
		p.logger.Debug("failed to send incr metric", "name", name, "error", err)
	}
}

func (p *Publisher) Count(name string, value int64, tags ...string) {
	if err := p.client.Count(name, value, metrics.MergeTags(p.baseTags, tags), 1); err != nil {
		p.logger.Debug("failed to send count metric", "name", name, "error", err)
	}
}

func (p *Publisher) Timing(name string, duration time.Duration, tags ...string) {
	if err := p.client.Timing(name, duration, metrics.MergeTags(p.baseTags, tags), 1); err != nil {
		p.logger.Debug("failed to send timing metric", "name", name, "error", err)
	}
}

func (p *Publisher) Event(title, text, alertType string, tags ...string) {
	event := &statsd.Event{
		Title:     title,
		Text:      text,
		AlertType: statsd.EventAlertType(alertType),
		Tags:      metrics.MergeTags(p.baseTags, tags),
	}
	if err := p.client.Event(event); err != nil {
		p.logger.Debug("failed to send event", "title", title, "error", err)
	}
}

// PublishSnapshot sends per-backend gauges tagged with the backend name,
// then the latency gauges.
func (p *Publisher) PublishSnapshot(s *types.MetricsSnapshot) {
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
		tag := metrics.BackendTag(name)
		p.Gauge("backend.hits", float64(c.Hits), tag)
		p.Gauge("backend.misses", float64(c.Misses), tag)
		p.Gauge("backend.sets", float64(c.Sets), tag)
		p.Gauge("backend.deletes", float64(c.Deletes), tag)
		p.Gauge("backend.errors", float64(c.Errors), tag)
		p.Gauge("backend.invalidations", float64(c.Invalidations), tag)
		p.Gauge("backend.hit_ratio", clamp(c.HitRatio(), 0, 1), tag)
	}

	p.Gauge("performance.hit_ratio", clamp(s.TotalHitRatio(), 0, 1))
	p.Gauge("performance.average_latency_ms", max(0, s.AvgLatencyMs))
	p.Gauge("performance.p95_latency_ms", max(0, s.P95LatencyMs))
	p.Gauge("performance.p99_latency_ms", max(0, s.P99LatencyMs))
}

func (p *Publisher) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func clamp(val, minVal, maxVal float64) float64 {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

var _ types.Publisher = (*Publisher)(nil)
