// Package codec holds the byte encodings of stored values: the msgpack value
// codec used by byte-backed primitives and the large-object envelope.
package codec

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/LavishGent/datastore/internal/types"
)

// Msgpack implements types.Codec. Integer kinds survive a round trip, which
// the incrementor checks rely on. Structs come back as maps.
// The zero value is ready to use.
type Msgpack struct{}

// NewMsgpack returns the msgpack value codec.
func NewMsgpack() *Msgpack {
	return &Msgpack{}
}

func (m *Msgpack) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (m *Msgpack) Unmarshal(data []byte) (any, error) {
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

var _ types.Codec = (*Msgpack)(nil)

type storedEntry struct {
	Value     msgpack.RawMessage `msgpack:"v"`
	ExpiresAt int64              `msgpack:"e,omitempty"`
}

// EncodeEntry encodes a value with its deadline for caches that have no
// per-entry expiry of their own. A zero deadline never expires.
func EncodeEntry(c types.Codec, value any, expiresAt time.Time) ([]byte, error) {
	raw, err := c.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	e := storedEntry{Value: raw}
	if !expiresAt.IsZero() {
		e.ExpiresAt = expiresAt.UnixNano()
	}
	return msgpack.Marshal(&e)
}

// DecodeEntry is the inverse of EncodeEntry.
func DecodeEntry(c types.Codec, data []byte) (*types.CacheEntry, error) {
	var e storedEntry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}
	value, err := c.Unmarshal(e.Value)
	if err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	entry := &types.CacheEntry{Value: value}
	if e.ExpiresAt != 0 {
		entry.ExpiresAt = time.Unix(0, e.ExpiresAt)
	}
	return entry, nil
}
