package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Decode failures of a large-object payload. Callers of the transient
// backends only ever see a miss; these exist for logging and tests.
var (
	ErrCorruptPayload = errors.New("codec: corrupt large-object payload")
	ErrDecompress     = errors.New("codec: large-object payload is not gzip")
	// ErrIncompleteType is returned when the payload names a type that is
	// not in the allowed set, so it cannot be rebuilt.
	ErrIncompleteType = errors.New("codec: large-object type not allowed")
	ErrNotObject      = errors.New("codec: large-object payload is not a struct")
)

type envelope struct {
	Type string          `cbor:"1,keyasint"`
	Kind uint            `cbor:"2,keyasint"`
	Data cbor.RawMessage `cbor:"3,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	eo := cbor.PreferredUnsortedEncOptions()
	eo.Time = cbor.TimeRFC3339Nano

	var err error
	if encMode, err = eo.EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(err)
	}
}

// TypeName is the name a type is recorded under in the envelope.
func TypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// EncodeLargeObject serializes v, compresses it and returns base64 text.
func EncodeLargeObject(v any) (string, error) {
	if v == nil {
		return "", fmt.Errorf("%w: nil value", ErrNotObject)
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", fmt.Errorf("%w: nil pointer", ErrNotObject)
		}
		rv = rv.Elem()
	}

	data, err := encMode.Marshal(rv.Interface())
	if err != nil {
		return "", fmt.Errorf("serialize %s: %w", rv.Type(), err)
	}
	env, err := encMode.Marshal(envelope{
		Type: TypeName(rv.Type()),
		Kind: uint(rv.Kind()),
		Data: data,
	})
	if err != nil {
		return "", fmt.Errorf("serialize envelope: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(env); err != nil {
		return "", fmt.Errorf("compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DefaultMaxDecodedSize bounds the decompressed size of a large-object
// payload unless a decoder says otherwise.
const DefaultMaxDecodedSize int64 = 64 << 20

// LargeObjectDecoder decodes large-object payloads. MaxDecoded is the
// largest decompressed size accepted; if MaxDecoded <= 0, size limiting is
// disabled.
type LargeObjectDecoder struct {
	MaxDecoded int64
}

// DefaultDecoder applies DefaultMaxDecodedSize.
var DefaultDecoder = LargeObjectDecoder{MaxDecoded: DefaultMaxDecodedSize}

// DecodeLargeObject reverses EncodeLargeObject with DefaultDecoder.
func DecodeLargeObject(payload string, allowed ...reflect.Type) (any, error) {
	return DefaultDecoder.Decode(payload, allowed...)
}

// Decode reverses EncodeLargeObject. The payload's type must be one of
// allowed; the result is a pointer to a new value of that type. A payload
// that inflates past MaxDecoded is corrupt.
func (d LargeObjectDecoder) Decode(payload string, allowed ...reflect.Type) (any, error) {
	compressed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	var r io.Reader = zr
	if d.MaxDecoded > 0 {
		r = io.LimitReader(zr, d.MaxDecoded+1)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	if d.MaxDecoded > 0 && int64(len(raw)) > d.MaxDecoded {
		return nil, fmt.Errorf("%w: decompressed payload exceeds %d bytes", ErrCorruptPayload, d.MaxDecoded)
	}

	var env envelope
	if err := decMode.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	if reflect.Kind(env.Kind) != reflect.Struct {
		return nil, fmt.Errorf("%w: got %s", ErrNotObject, reflect.Kind(env.Kind))
	}

	var target reflect.Type
	for _, t := range allowed {
		for t != nil && t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t != nil && TypeName(t) == env.Type {
			target = t
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteType, env.Type)
	}

	out := reflect.New(target)
	if err := decMode.Unmarshal(env.Data, out.Interface()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	return out.Interface(), nil
}

// DecodeLargeObjectAs decodes a payload that must hold a T with
// DefaultDecoder. T is a struct type, not a pointer to one.
func DecodeLargeObjectAs[T any](payload string) (*T, error) {
	return DecodeLargeObjectWith[T](DefaultDecoder, payload)
}

// DecodeLargeObjectWith is DecodeLargeObjectAs with an explicit decoder.
func DecodeLargeObjectWith[T any](d LargeObjectDecoder, payload string) (*T, error) {
	v, err := d.Decode(payload, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	out, ok := v.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrIncompleteType, v)
	}
	return out, nil
}
