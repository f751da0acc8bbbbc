package types

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("datastore: key not found")
	ErrClosed      = errors.New("datastore: store closed")
	ErrInvalidKey  = errors.New("datastore: invalid key")
	ErrCircuitOpen = errors.New("datastore: circuit breaker open")
	ErrRejected    = errors.New("datastore: write rejected by store")
	ErrUnavailable = errors.New("datastore: store unavailable")
)

// StoreError describes a failed call into a storage primitive.
type StoreError struct {
	Op    string
	Key   string
	Layer string
	Err   error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("datastore %s on %s [%s]: %v", e.Op, e.Layer, e.Key, e.Err)
	}
	return fmt.Sprintf("datastore %s on %s: %v", e.Op, e.Layer, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err with the operation, key and layer it failed in.
func NewStoreError(op, key, layer string, err error) *StoreError {
	return &StoreError{
		Op:    op,
		Key:   key,
		Layer: layer,
		Err:   err,
	}
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCircuitOpen reports whether err is ErrCircuitOpen.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case IsNotFound(err),
		IsCircuitOpen(err),
		errors.Is(err, ErrClosed),
		errors.Is(err, ErrInvalidKey),
		errors.Is(err, ErrRejected),
		errors.Is(err, context.Canceled):
		return false
	}

	return true
}
