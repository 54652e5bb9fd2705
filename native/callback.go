//go:build darwin || freebsd || linux

package native

import (
	"github.com/ebitengine/purego"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
)

// CallbackFactory turns word-level trampolines into C function
// pointers via the purego callback machinery.
//
// purego callbacks are permanent: the pointer stays valid for the
// process lifetime and the slot is never reclaimed, so factories should
// be used for long-lived callbacks, not per-call closures.
type CallbackFactory struct{}

var _ ffiruntime.CallbackFactory = CallbackFactory{}

const maxCallbackArity = 8

// NewCallback wraps fn in a concrete C-compatible signature of the
// given arity.
func (CallbackFactory) NewCallback(arity int, fn func(words []uint64) uint64) (uint64, error) {
	var cb uintptr
	switch arity {
	case 0:
		cb = purego.NewCallback(func() uintptr {
			return uintptr(fn(nil))
		})
	case 1:
		cb = purego.NewCallback(func(a uintptr) uintptr {
			return uintptr(fn([]uint64{uint64(a)}))
		})
	case 2:
		cb = purego.NewCallback(func(a, b uintptr) uintptr {
			return uintptr(fn([]uint64{uint64(a), uint64(b)}))
		})
	case 3:
		cb = purego.NewCallback(func(a, b, c uintptr) uintptr {
			return uintptr(fn([]uint64{uint64(a), uint64(b), uint64(c)}))
		})
	case 4:
		cb = purego.NewCallback(func(a, b, c, d uintptr) uintptr {
			return uintptr(fn([]uint64{uint64(a), uint64(b), uint64(c), uint64(d)}))
		})
	case 5:
		cb = purego.NewCallback(func(a, b, c, d, e uintptr) uintptr {
			return uintptr(fn([]uint64{uint64(a), uint64(b), uint64(c), uint64(d), uint64(e)}))
		})
	case 6:
		cb = purego.NewCallback(func(a, b, c, d, e, f uintptr) uintptr {
			return uintptr(fn([]uint64{uint64(a), uint64(b), uint64(c), uint64(d), uint64(e), uint64(f)}))
		})
	case 7:
		cb = purego.NewCallback(func(a, b, c, d, e, f, g uintptr) uintptr {
			return uintptr(fn([]uint64{uint64(a), uint64(b), uint64(c), uint64(d), uint64(e), uint64(f), uint64(g)}))
		})
	case 8:
		cb = purego.NewCallback(func(a, b, c, d, e, f, g, h uintptr) uintptr {
			return uintptr(fn([]uint64{uint64(a), uint64(b), uint64(c), uint64(d), uint64(e), uint64(f), uint64(g), uint64(h)}))
		})
	default:
		return 0, errors.InvalidInput(errors.PhaseCallback,
			"callback arity exceeds the native factory limit")
	}
	return uint64(cb), nil
}
