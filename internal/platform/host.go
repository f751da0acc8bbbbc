// Package platform assembles the storage primitives from configuration and
// builds the cache backends on top of them.
package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/LavishGent/datastore/internal/cache"
	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/metrics"
	"github.com/LavishGent/datastore/internal/metrics/datadog"
	"github.com/LavishGent/datastore/internal/objectcache"
	"github.com/LavishGent/datastore/internal/options"
	"github.com/LavishGent/datastore/internal/transients"
	"github.com/LavishGent/datastore/internal/types"
)

// DefaultShutdownTimeout bounds the final metrics publish in Close.
const DefaultShutdownTimeout = 30 * time.Second

// Host owns the primitives and hands out backends bound to them.
type Host struct {
	config      *config.Config
	objectCache types.ObjectCache
	options     types.OptionStore
	transients  *transients.Store
	env         *Environment
	clock       types.Clock
	logger      *slog.Logger
	validator   *types.KeyValidator

	tracker    *metrics.Tracker
	recorder   types.MetricsRecorder
	publisher  types.Publisher
	background *metrics.BackgroundPublisher

	closed atomic.Bool
}

// Option customizes New.
type Option func(*hostOptions)

type hostOptions struct {
	logger      *slog.Logger
	clock       types.Clock
	metrics     types.MetricsRecorder
	registerer  prometheus.Registerer
	objectCache types.ObjectCache
	optionStore types.OptionStore
}

// WithLogger sets the logger of the host and its stores.
func WithLogger(logger *slog.Logger) Option {
	return func(o *hostOptions) { o.logger = logger }
}

// WithClock sets the clock used by the host and its backends.
func WithClock(clock types.Clock) Option {
	return func(o *hostOptions) { o.clock = clock }
}

// WithMetrics adds a recorder next to the built-in tracker.
func WithMetrics(recorder types.MetricsRecorder) Option {
	return func(o *hostOptions) { o.metrics = recorder }
}

// WithRegisterer is where the prometheus driver registers its collectors.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *hostOptions) { o.registerer = reg }
}

// WithObjectCache replaces the configured object cache.
func WithObjectCache(oc types.ObjectCache) Option {
	return func(o *hostOptions) { o.objectCache = oc }
}

// WithOptionStore replaces the configured option store.
func WithOptionStore(store types.OptionStore) Option {
	return func(o *hostOptions) { o.optionStore = store }
}

// New validates cfg and opens the object cache and option store it names.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Host, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := &hostOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.clock == nil {
		o.clock = types.SystemClock
	}
	logger := o.logger

	h := &Host{
		config:  cfg,
		clock:   o.clock,
		logger:  logger.With("component", "host"),
		tracker: metrics.NewTracker(),
	}

	if cfg.KeyValidation.Enabled {
		h.validator = types.NewKeyValidator(cfg.KeyValidation.ToTypesConfig())
	} else {
		h.validator = types.NewKeyValidator(types.KeyValidationConfig{AllowWhitespace: true, AllowControlChars: true})
	}

	var err error
	h.objectCache = o.objectCache
	if h.objectCache == nil {
		if h.objectCache, err = objectcache.New(ctx, cfg, o.clock, logger); err != nil {
			return nil, fmt.Errorf("object cache: %w", err)
		}
	}

	h.options = o.optionStore
	if h.options == nil {
		if h.options, err = options.New(ctx, cfg, o.clock, logger); err != nil {
			_ = h.objectCache.Close()
			return nil, fmt.Errorf("option store: %w", err)
		}
	}

	h.env = NewEnvironment(h.objectCache.External(), cfg.Network.Multisite, cfg.Network.NetworkID)
	h.transients = transients.New(h.objectCache, h.options, h.env, o.clock, logger)

	if err := h.setupMetrics(ctx, o); err != nil {
		_ = h.options.Close()
		_ = h.objectCache.Close()
		return nil, err
	}

	h.logger.Info("host ready",
		"object_cache", h.objectCache.Name(),
		"external", h.env.UsingExternalObjectCache(),
		"options", h.options.Name(),
		"multisite", cfg.Network.Multisite,
		"network_id", cfg.Network.NetworkID,
	)
	return h, nil
}

func (h *Host) setupMetrics(ctx context.Context, o *hostOptions) error {
	recorders := []types.MetricsRecorder{h.tracker, o.metrics}

	switch h.config.Metrics.Driver {
	case config.MetricsNone:
		h.publisher = metrics.NewNoOpPublisher()
	case config.MetricsLogging:
		h.publisher = metrics.NewLoggingPublisher(o.logger)
	case config.MetricsDataDog:
		p, err := datadog.NewPublisher(h.config.Metrics.DataDog, o.logger)
		if err != nil {
			return fmt.Errorf("datadog publisher: %w", err)
		}
		h.publisher = p
	case config.MetricsPrometheus:
		p, err := metrics.NewPrometheus(h.config.Metrics.Prometheus, o.registerer)
		if err != nil {
			return fmt.Errorf("prometheus metrics: %w", err)
		}
		recorders = append(recorders, p)
		h.publisher = metrics.NewNoOpPublisher()
	}

	h.recorder = metrics.NewMulti(recorders...)

	switch h.config.Metrics.Driver {
	case config.MetricsLogging, config.MetricsDataDog:
		h.background = metrics.NewBackgroundPublisher(h.publisher, h.config.Metrics.PublishInterval, h.tracker.Snapshot, o.logger)
		h.background.Start(context.WithoutCancel(ctx))
	}
	return nil
}

func (h *Host) Config() *config.Config { return h.config }

func (h *Host) Environment() types.Environment { return h.env }

func (h *Host) ObjectCache() types.ObjectCache { return h.objectCache }

func (h *Host) OptionStore() types.OptionStore { return h.options }

func (h *Host) TransientStore() types.TransientStore { return h.transients }

func (h *Host) backendOptions() []cache.Option {
	opts := []cache.Option{
		cache.WithClock(h.clock),
		cache.WithLogger(h.logger),
		cache.WithMetrics(h.recorder),
		cache.WithMaxLargeObjectSize(h.config.LargeObjects.MaxDecodedSize),
	}
	if h.config.KeyValidation.Enabled {
		opts = append(opts, cache.WithKeyValidator(h.validator))
	}
	return opts
}

func (h *Host) checkPrefix(prefix string) error {
	if h.closed.Load() {
		return types.ErrClosed
	}
	return h.validator.ValidatePrefix(prefix)
}

// Cache builds an object cache backend on group. An empty group uses the
// default group.
func (h *Host) Cache(ctx context.Context, prefix, group string) (*cache.Cache, error) {
	if err := h.checkPrefix(prefix); err != nil {
		return nil, err
	}
	if group == "" {
		group = objectcache.DefaultGroup
	}
	return cache.NewCache(ctx, h.objectCache, prefix, group, h.backendOptions()...), nil
}

// Options builds an option backend on the site table.
func (h *Host) Options(prefix string) (*cache.Options, error) {
	if err := h.checkPrefix(prefix); err != nil {
		return nil, err
	}
	return cache.NewOptions(h.options, prefix, h.backendOptions()...), nil
}

// NetworkOptions builds a network option backend. A zero networkID means
// the configured network.
func (h *Host) NetworkOptions(prefix string, networkID int64) (*cache.NetworkOptions, error) {
	if err := h.checkPrefix(prefix); err != nil {
		return nil, err
	}
	if networkID == 0 {
		networkID = h.env.CurrentNetworkID()
	}
	return cache.NewNetworkOptions(h.options, prefix, networkID, h.backendOptions()...), nil
}

// Transients builds a transient backend on the site scope.
func (h *Host) Transients(ctx context.Context, prefix string) (*cache.Transients, error) {
	if err := h.checkPrefix(prefix); err != nil {
		return nil, err
	}
	return cache.NewTransients(ctx, h.transients, h.options, h.env, prefix, h.backendOptions()...), nil
}

// SiteTransients builds a transient backend on the network scope.
func (h *Host) SiteTransients(ctx context.Context, prefix string) (*cache.SiteTransients, error) {
	if err := h.checkPrefix(prefix); err != nil {
		return nil, err
	}
	return cache.NewSiteTransients(ctx, h.transients, h.options, h.env, prefix, h.backendOptions()...), nil
}

// FlushGroup drops every entry of an object cache group, for caches that
// support it.
func (h *Host) FlushGroup(ctx context.Context, group string) (int, error) {
	if h.closed.Load() {
		return 0, types.ErrClosed
	}
	flusher, ok := h.objectCache.(objectcache.GroupFlusher)
	if !ok {
		return 0, fmt.Errorf("%w: %s cannot flush groups", types.ErrUnavailable, h.objectCache.Name())
	}
	n, err := flusher.FlushGroup(ctx, group)
	if err != nil {
		h.recorder.RecordError(types.BackendObjectCache.String(), "flush", err)
		return n, err
	}
	h.logger.Info("object cache group flushed", "group", group, "entries", n)
	return n, nil
}

// Metrics returns the tracked counters.
func (h *Host) Metrics() *types.MetricsSnapshot {
	return h.tracker.Snapshot()
}

type pinger interface {
	Ping(ctx context.Context) error
}

type circuitReporter interface {
	CircuitState() string
}

type lastErrorReporter interface {
	LastError() (error, time.Time)
}

// Health pings the primitives. The host is degraded when only the object
// cache is failing and unhealthy when the option store is.
func (h *Host) Health(ctx context.Context) *types.HealthReport {
	report := &types.HealthReport{
		Timestamp: time.Now(),
		Multisite: h.env.IsMultisite(),
		NetworkID: h.env.CurrentNetworkID(),
	}

	report.ObjectCache = h.componentHealth(ctx, h.objectCache.Name(), h.objectCache)
	report.ObjectCache.External = h.objectCache.External()
	if sp, ok := h.objectCache.(objectcache.StatsProvider); ok {
		stats := sp.Stats()
		report.ObjectCache.Stats = &stats
	}

	report.OptionStore = h.componentHealth(ctx, h.options.Name(), h.options)

	report.Status = report.OptionStore.Status
	if report.ObjectCache.Status != types.HealthStatusHealthy {
		report.Status = types.Combine(report.Status, types.HealthStatusDegraded)
	}
	if h.closed.Load() {
		report.Status = types.HealthStatusUnhealthy
	}
	return report
}

func (h *Host) componentHealth(ctx context.Context, driver string, component any) types.ComponentHealth {
	health := types.ComponentHealth{
		Driver: driver,
		Status: types.HealthStatusHealthy,
	}

	if p, ok := component.(pinger); ok {
		timer := metrics.NewTimer(h.publisher, "health.ping", metrics.DriverTag(driver))
		err := p.Ping(ctx)
		health.Latency = timer.Stop()
		if err != nil {
			health.Status = types.HealthStatusUnhealthy
			health.LastError = err.Error()
		}
	}

	if cr, ok := component.(circuitReporter); ok {
		health.CircuitBreakerState = cr.CircuitState()
		if health.Status == types.HealthStatusHealthy && health.CircuitBreakerState != "closed" {
			health.Status = types.HealthStatusDegraded
		}
	}

	h.publisher.Incr("health.check", metrics.DriverTag(driver), metrics.StatusTag(health.Status.String()))

	if health.LastError == "" {
		if ler, ok := component.(lastErrorReporter); ok {
			if err, _ := ler.LastError(); err != nil {
				health.LastError = err.Error()
			}
		}
	}
	return health
}

// Close publishes the final metrics and releases the primitives.
func (h *Host) Close() error {
	if h.closed.Swap(true) {
		return nil
	}

	if h.background != nil {
		done := make(chan struct{})
		go func() {
			h.background.Stop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(DefaultShutdownTimeout):
			h.logger.Warn("metrics publisher did not stop in time")
		}
	}

	var errs []error
	if err := h.publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := h.options.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := h.objectCache.Close(); err != nil {
		errs = append(errs, err)
	}

	h.logger.Info("host closed")
	return errors.Join(errs...)
}
