package metrics

import (
	"time"

	"github.com/LavishGent/datastore/internal/types"
)

// NoOpTracker records nothing.
type NoOpTracker struct{}

func NewNoOpTracker() *NoOpTracker {
	return &NoOpTracker{}
}

func (t *NoOpTracker) RecordHit(backend string, key string, latency time.Duration) {}
func (t *NoOpTracker) RecordMiss(backend string, key string, latency time.Duration) {}
func (t *NoOpTracker) RecordSet(backend string, key string, latency time.Duration) {}
func (t *NoOpTracker) RecordDelete(backend string, key string, latency time.Duration) {}
func (t *NoOpTracker) RecordError(backend string, operation string, err error) {}

func (t *NoOpTracker) RecordInvalidation(backend string, prefix string, generation int64, deleted int) {
}

// NoOpPublisher publishes nothing. It is used when the metrics driver is none.
type NoOpPublisher struct{}

func NewNoOpPublisher() *NoOpPublisher {
	return &NoOpPublisher{}
}

func (p *NoOpPublisher) Gauge(name string, value float64, tags ...string) {}
func (p *NoOpPublisher) Incr(name string, tags ...string) {}
func (p *NoOpPublisher) Count(name string, value int64, tags ...string) {}
func (p *NoOpPublisher) Timing(name string, duration time.Duration, tags ...string) {}
func (p *NoOpPublisher) Event(title, text, alertType string, tags ...string) {}
func (p *NoOpPublisher) PublishSnapshot(snapshot *types.MetricsSnapshot) {}
func (p *NoOpPublisher) Close() error { return nil }

var (
	_ types.MetricsRecorder = (*NoOpTracker)(nil)
	_ types.Publisher       = (*NoOpPublisher)(nil)
)
