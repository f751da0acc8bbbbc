package types

import (
	"math"
	"strconv"
)

// ParseGeneration interprets a stored incrementor value. Only strictly
// positive integers are generations; every other value counts as absent.
func ParseGeneration(v any) (int64, bool) {
	var gen int64
	switch n := v.(type) {
	case int:
		gen = int64(n)
	case int8:
		gen = int64(n)
	case int16:
		gen = int64(n)
	case int32:
		gen = int64(n)
	case int64:
		gen = n
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		gen = int64(n)
	case uint8:
		gen = int64(n)
	case uint16:
		gen = int64(n)
	case uint32:
		gen = int64(n)
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		gen = int64(n)
	default:
		return 0, false
	}
	if gen <= 0 {
		return 0, false
	}
	return gen, true
}

// VersionedKey joins prefix, generation and key.
func VersionedKey(prefix string, generation int64, key string) string {
	return prefix + strconv.FormatInt(generation, 10) + "_" + key
}
