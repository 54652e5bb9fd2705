package abi

import (
	"math"
	"math/big"
)

// IntBits converts a Go numeric value to its 64-bit two's-complement bit
// pattern. Signed values are sign-extended, floats truncate toward zero.
// Returns false when the value is not numeric or when no 64-bit pattern
// can represent it at all (oversized big.Ints, floats beyond 64 bits,
// NaN, infinities).
func IntBits(value any) (uint64, bool) {
	switch v := value.(type) {
	case int:
		return uint64(int64(v)), true
	case int8:
		return uint64(int64(v)), true
	case int16:
		return uint64(int64(v)), true
	case int32:
		return uint64(int64(v)), true
	case int64:
		return uint64(v), true
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	case uintptr:
		return uint64(v), true
	case float32:
		return floatBits(float64(v))
	case float64:
		return floatBits(v)
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case *big.Int:
		if v == nil {
			return 0, false
		}
		if v.IsInt64() {
			return uint64(v.Int64()), true
		}
		if v.IsUint64() {
			return v.Uint64(), true
		}
		// No native width can hold it.
		return 0, false
	}
	return 0, false
}

// maxUint64Float is 2^64 as a float64; truncated values at or beyond it
// (and below -2^63) fit no 64-bit pattern, and converting them would be
// implementation-dependent.
const (
	maxUint64Float = 1 << 64
	minInt64Float  = -1 << 63
)

func floatBits(f float64) (uint64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	t := math.Trunc(f)
	switch {
	case t >= 0 && t < maxUint64Float:
		return uint64(t), true
	case t >= minInt64Float && t < 0:
		return uint64(int64(t)), true
	}
	return 0, false
}

// FloatValue converts a Go numeric value to float64 for marshalling into
// a float descriptor. Returns false for non-numeric values.
func FloatValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case *big.Int:
		if v == nil {
			return 0, false
		}
		f, _ := new(big.Float).SetInt(v).Float64()
		return f, true
	}
	return 0, false
}
