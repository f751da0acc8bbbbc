package resilience

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/types"
)

func policyConfig() *config.Config {
	cfg := config.ForTesting()
	cfg.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		SuccessThreshold: 1,
		OpenDuration:     time.Minute,
	}
	cfg.Retry = config.RetryConfig{
		Enabled:        true,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		Multiplier:     1,
	}
	return cfg
}

func TestNewPolicy(t *testing.T) {
	t.Run("everything disabled", func(t *testing.T) {
		p := NewPolicy("redis", config.ForTesting(), nil, nil)
		if _, ok := p.(DisabledPolicy); !ok {
			t.Errorf("NewPolicy() = %T, want DisabledPolicy", p)
		}
		if p.CircuitState() != StateClosed {
			t.Errorf("CircuitState() = %v", p.CircuitState())
		}
	})

	t.Run("retry only", func(t *testing.T) {
		cfg := policyConfig()
		cfg.CircuitBreaker.Enabled = false

		p, ok := NewPolicy("redis", cfg, nil, nil).(*Policy)
		if !ok {
			t.Fatal("NewPolicy() did not return *Policy")
		}
		if p.CircuitBreaker() != nil {
			t.Error("breaker should be nil when disabled")
		}
		if p.CircuitState() != StateClosed {
			t.Errorf("CircuitState() = %v", p.CircuitState())
		}
	})
}

func TestPolicyExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("retries through the breaker", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		p := NewPolicy("postgres", policyConfig(), newFakeClock(), logger)

		attempts := 0
		err := p.Execute(ctx, func(context.Context) error {
			attempts++
			return errBoom
		})

		// the second failure opens the circuit, the third attempt is refused
		if !errors.Is(err, types.ErrCircuitOpen) {
			t.Errorf("Execute() = %v, want ErrCircuitOpen", err)
		}
		if attempts != 2 {
			t.Errorf("attempts = %d, want 2", attempts)
		}
		if p.CircuitState() != StateOpen {
			t.Errorf("CircuitState() = %v, want open", p.CircuitState())
		}
		if !strings.Contains(buf.String(), "circuit breaker state changed") || !strings.Contains(buf.String(), "backend=postgres") {
			t.Errorf("state change not logged: %s", buf.String())
		}
	})

	t.Run("success passes through", func(t *testing.T) {
		p := NewPolicy("redis", policyConfig(), nil, nil)

		if err := p.Execute(ctx, func(context.Context) error { return nil }); err != nil {
			t.Errorf("Execute() = %v", err)
		}
	})

	t.Run("disabled policy calls straight through", func(t *testing.T) {
		calls := 0
		err := DisabledPolicy{}.Execute(ctx, func(context.Context) error {
			calls++
			return errBoom
		})
		if !errors.Is(err, errBoom) || calls != 1 {
			t.Errorf("Execute() = %v after %d calls", err, calls)
		}
	})
}
