package resilience

import (
	"context"
	"log/slog"

	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/types"
)

// Executor runs a primitive call under a resilience policy.
type Executor interface {
	Execute(ctx context.Context, fn func(context.Context) error) error
	CircuitState() State
}

// Policy combines retry and circuit breaker. Every retry attempt passes the
// breaker on its own, so a flapping backend opens the circuit quickly.
type Policy struct {
	circuitBreaker *CircuitBreaker
	retry          *RetryPolicy
}

// NewPolicy builds the policy for the named primitive. Disabled patterns
// are left out; with both disabled a DisabledPolicy is returned.
func NewPolicy(name string, cfg *config.Config, clock types.Clock, logger *slog.Logger) Executor {
	if !cfg.CircuitBreaker.Enabled && !cfg.Retry.Enabled {
		return DisabledPolicy{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Policy{}
	if cfg.CircuitBreaker.Enabled {
		p.circuitBreaker = NewCircuitBreaker(name, cfg.CircuitBreaker, clock)
		p.circuitBreaker.SetOnStateChange(func(name string, from, to State) {
			logger.Warn("circuit breaker state changed",
				"component", "resilience",
				"backend", name,
				"from", from.String(),
				"to", to.String())
		})
	}
	if cfg.Retry.Enabled {
		p.retry = NewRetryPolicy(cfg.Retry)
	}
	return p
}

// Execute runs fn through the circuit breaker, retrying on retryable errors.
func (p *Policy) Execute(ctx context.Context, fn func(context.Context) error) error {
	guarded := fn
	if p.circuitBreaker != nil {
		guarded = func(ctx context.Context) error {
			return p.circuitBreaker.Execute(ctx, fn)
		}
	}
	if p.retry != nil {
		return p.retry.Execute(ctx, guarded)
	}
	return guarded(ctx)
}

// CircuitState returns the breaker state, closed when there is no breaker.
func (p *Policy) CircuitState() State {
	if p.circuitBreaker == nil {
		return StateClosed
	}
	return p.circuitBreaker.State()
}

// CircuitBreaker returns nil when the breaker is disabled.
func (p *Policy) CircuitBreaker() *CircuitBreaker {
	return p.circuitBreaker
}

// DisabledPolicy calls straight through.
type DisabledPolicy struct{}

// Execute runs fn once.
func (DisabledPolicy) Execute(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (DisabledPolicy) CircuitState() State { return StateClosed }
