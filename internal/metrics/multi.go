package metrics

import (
	"time"

	"github.com/LavishGent/datastore/internal/types"
)

// Multi fans every event out to several recorders.
type Multi []types.MetricsRecorder

// NewMulti drops nil recorders.
func NewMulti(recorders ...types.MetricsRecorder) Multi {
	m := make(Multi, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m Multi) RecordHit(backend string, key string, latency time.Duration) {
	for _, r := range m {
		r.RecordHit(backend, key, latency)
	}
}

func (m Multi) RecordMiss(backend string, key string, latency time.Duration) {
	for _, r := range m {
		r.RecordMiss(backend, key, latency)
	}
}

func (m Multi) RecordSet(backend string, key string, latency time.Duration) {
	for _, r := range m {
		r.RecordSet(backend, key, latency)
	}
}

func (m Multi) RecordDelete(backend string, key string, latency time.Duration) {
	for _, r := range m {
		r.RecordDelete(backend, key, latency)
	}
}

func (m Multi) RecordError(backend string, operation string, err error) {
	for _, r := range m {
		r.RecordError(backend, operation, err)
	}
}

func (m Multi) RecordInvalidation(backend string, prefix string, generation int64, deleted int) {
	for _, r := range m {
		r.RecordInvalidation(backend, prefix, generation, deleted)
	}
}

var _ types.MetricsRecorder = Multi(nil)
