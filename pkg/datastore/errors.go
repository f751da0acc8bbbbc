package datastore

import (
	"github.com/LavishGent/datastore/internal/codec"
	"github.com/LavishGent/datastore/internal/types"
)

// StoreError represents a failed call into a storage primitive.
type StoreError = types.StoreError

var (
	// ErrNotFound indicates that a primitive holds no entry for a name.
	ErrNotFound = types.ErrNotFound
	// ErrClosed indicates that the host or a primitive has been closed.
	ErrClosed = types.ErrClosed
	// ErrInvalidKey indicates that a key or prefix failed validation.
	ErrInvalidKey = types.ErrInvalidKey
	// ErrCircuitOpen indicates that the circuit breaker is open.
	ErrCircuitOpen = types.ErrCircuitOpen
	// ErrRejected indicates that a primitive refused a write.
	ErrRejected = types.ErrRejected
	// ErrUnavailable indicates that a primitive cannot be reached or does
	// not support the call.
	ErrUnavailable = types.ErrUnavailable

	ErrCorruptPayload = codec.ErrCorruptPayload
	ErrDecompress     = codec.ErrDecompress
	ErrIncompleteType = codec.ErrIncompleteType
	ErrNotObject      = codec.ErrNotObject
)

// NewStoreError creates a store error with operation, key, layer, and underlying error.
func NewStoreError(op, key, layer string, err error) *StoreError {
	return types.NewStoreError(op, key, layer, err)
}

// IsNotFound returns true if the error is a missing entry.
func IsNotFound(err error) bool {
	return types.IsNotFound(err)
}

// IsCircuitOpen returns true if the error indicates the circuit breaker is open.
func IsCircuitOpen(err error) bool {
	return types.IsCircuitOpen(err)
}

// IsInvalidKey returns true if the error is a key validation failure.
func IsInvalidKey(err error) bool {
	return types.IsInvalidKey(err)
}

// IsRetryable returns true if the error can be retried.
func IsRetryable(err error) bool {
	return types.IsRetryable(err)
}
