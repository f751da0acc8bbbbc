package metrics

import (
	"time"

	"github.com/LavishGent/datastore/internal/types"
)

// Timer measures one operation and reports it to a publisher.
type Timer struct {
	publisher types.Publisher
	name      string
	tags      []string
	start     time.Time
}

// NewTimer starts a timer that reports to publisher under name.
func NewTimer(publisher types.Publisher, name string, tags ...string) *Timer {
	return &Timer{
		publisher: publisher,
		name:      name,
		tags:      tags,
		start:     time.Now(),
	}
}

// Stop publishes the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	if t.publisher != nil {
		t.publisher.Timing(t.name, d, t.tags...)
	}
	return d
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
