package resilience

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"

	"github.com/LavishGent/datastore/internal/types"
)

// IsRetryable reports whether a primitive error is worth another attempt.
func IsRetryable(err error) bool {
	if !types.IsRetryable(err) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	// Other network errors only when they timed out.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return true
}
