// Package metrics records backend operations and publishes snapshots of them.
package metrics

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/datastore/internal/types"
)

const (
	defaultLatencyBufferSize = 10000
)

type backendCounters struct {
	hits            atomic.Int64
	misses          atomic.Int64
	sets            atomic.Int64
	deletes         atomic.Int64
	errors          atomic.Int64
	invalidations   atomic.Int64
	invalidatedKeys atomic.Int64
}

// Tracker keeps in-process counters per backend and a ring of recent
// latencies for percentiles.
type Tracker struct {
	backends sync.Map // backend name -> *backendCounters

	latencyMu     sync.RWMutex
	latencyBuffer []time.Duration
	latencyIndex  int
	latencyCount  int

	generationsMu   sync.Mutex
	lastGenerations map[string]int64
}

// NewTracker returns a tracker with zeroed counters.
func NewTracker() *Tracker {
	return &Tracker{
		latencyBuffer:   make([]time.Duration, defaultLatencyBufferSize),
		lastGenerations: make(map[string]int64),
	}
}

func (t *Tracker) counters(backend string) *backendCounters {
	if c, ok := t.backends.Load(backend); ok {
		return c.(*backendCounters)
	}
	c, _ := t.backends.LoadOrStore(backend, &backendCounters{})
	return c.(*backendCounters)
}

func (t *Tracker) RecordHit(backend string, key string, latency time.Duration) {
	t.counters(backend).hits.Add(1)
	t.recordLatency(latency)
}

func (t *Tracker) RecordMiss(backend string, key string, latency time.Duration) {
	t.counters(backend).misses.Add(1)
	t.recordLatency(latency)
}

func (t *Tracker) RecordSet(backend string, key string, latency time.Duration) {
	t.counters(backend).sets.Add(1)
	t.recordLatency(latency)
}

func (t *Tracker) RecordDelete(backend string, key string, latency time.Duration) {
	t.counters(backend).deletes.Add(1)
	t.recordLatency(latency)
}

func (t *Tracker) RecordError(backend string, operation string, err error) {
	t.counters(backend).errors.Add(1)
}

// RecordInvalidation counts a generation bump and remembers the generation
// per backend and prefix.
func (t *Tracker) RecordInvalidation(backend string, prefix string, generation int64, deleted int) {
	c := t.counters(backend)
	c.invalidations.Add(1)
	c.invalidatedKeys.Add(int64(deleted))

	t.generationsMu.Lock()
	t.lastGenerations[backend+":"+prefix] = generation
	t.generationsMu.Unlock()
}

// recordLatency writes into the ring without allocating.
func (t *Tracker) recordLatency(latency time.Duration) {
	t.latencyMu.Lock()
	t.latencyBuffer[t.latencyIndex] = latency
	t.latencyIndex = (t.latencyIndex + 1) % len(t.latencyBuffer)
	if t.latencyCount < len(t.latencyBuffer) {
		t.latencyCount++
	}
	t.latencyMu.Unlock()
}

func (t *Tracker) latencies() []time.Duration {
	t.latencyMu.RLock()
	defer t.latencyMu.RUnlock()

	out := make([]time.Duration, t.latencyCount)
	if t.latencyCount < len(t.latencyBuffer) {
		copy(out, t.latencyBuffer[:t.latencyCount])
		return out
	}
	n := copy(out, t.latencyBuffer[t.latencyIndex:])
	copy(out[n:], t.latencyBuffer[:t.latencyIndex])
	return out
}

// Snapshot copies the current counters.
func (t *Tracker) Snapshot() *types.MetricsSnapshot {
	snapshot := &types.MetricsSnapshot{
		Timestamp:       time.Now(),
		Backends:        make(map[string]types.BackendCounters),
		LastGenerations: make(map[string]int64),
	}

	t.backends.Range(func(k, v any) bool {
		c := v.(*backendCounters)
		snapshot.Backends[k.(string)] = types.BackendCounters{
			Hits:            c.hits.Load(),
			Misses:          c.misses.Load(),
			Sets:            c.sets.Load(),
			Deletes:         c.deletes.Load(),
			Errors:          c.errors.Load(),
			Invalidations:   c.invalidations.Load(),
			InvalidatedKeys: c.invalidatedKeys.Load(),
		}
		return true
	})

	t.generationsMu.Lock()
	for k, v := range t.lastGenerations {
		snapshot.LastGenerations[k] = v
	}
	t.generationsMu.Unlock()

	if lat := t.latencies(); len(lat) > 0 {
		slices.Sort(lat)
		snapshot.AvgLatencyMs = toMillis(avgDuration(lat))
		snapshot.P50LatencyMs = toMillis(percentile(lat, 50))
		snapshot.P95LatencyMs = toMillis(percentile(lat, 95))
		snapshot.P99LatencyMs = toMillis(percentile(lat, 99))
	}

	return snapshot
}

// Reset zeroes all counters.
func (t *Tracker) Reset() {
	t.backends.Range(func(k, _ any) bool {
		t.backends.Delete(k)
		return true
	})

	t.generationsMu.Lock()
	clear(t.lastGenerations)
	t.generationsMu.Unlock()

	t.latencyMu.Lock()
	t.latencyIndex = 0
	t.latencyCount = 0
	t.latencyMu.Unlock()
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func avgDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}

var _ types.MetricsRecorder = (*Tracker)(nil)
