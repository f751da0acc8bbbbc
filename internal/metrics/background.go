package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LavishGent/datastore/internal/types"
)

// BackgroundPublisher pushes snapshots to a publisher at a fixed interval.
type BackgroundPublisher struct {
	publisher types.Publisher
	snapshot  func() *types.MetricsSnapshot
	logger    *slog.Logger
	interval  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBackgroundPublisher returns a publisher that pushes tracker snapshots
// every interval once started.
func NewBackgroundPublisher(
	publisher types.Publisher,
	interval time.Duration,
	snapshotFn func() *types.MetricsSnapshot,
	logger *slog.Logger,
) *BackgroundPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackgroundPublisher{
		publisher: publisher,
		snapshot:  snapshotFn,
		interval:  interval,
		logger:    logger.With("component", "metrics-background"),
	}
}

// Start runs the loop until ctx is done or Stop is called. A second Start
// is ignored.
func (b *BackgroundPublisher) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		return
	}

	ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go b.run(ctx)
	b.logger.Info("background metrics publisher started", "interval", b.interval)
}

// Stop publishes a last snapshot and waits for the loop to exit.
func (b *BackgroundPublisher) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	b.wg.Wait()
	b.logger.Info("background metrics publisher stopped")
}

func (b *BackgroundPublisher) run(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.publish()
			return
		case <-ticker.C:
			b.publish()
		}
	}
}

func (b *BackgroundPublisher) publish() {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("recovered from panic in metrics publisher", "panic", r)
		}
	}()

	if b.snapshot == nil {
		return
	}
	if s := b.snapshot(); s != nil {
		b.publisher.PublishSnapshot(s)
	}
}

// PublishNow publishes a snapshot immediately.
func (b *BackgroundPublisher) PublishNow() {
	b.publish()
}
