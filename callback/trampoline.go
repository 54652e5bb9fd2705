package callback

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/bind"
	"github.com/wippyai/ffi-runtime/errors"
	"github.com/wippyai/ffi-runtime/handle"
	"github.com/wippyai/ffi-runtime/marshal"
	"github.com/wippyai/ffi-runtime/types"
)

// Fn is the Go side of a callback. Arguments arrive already unmarshalled
// per the declared parameter descriptors; the returned value marshals
// per the declared return descriptor.
type Fn func(args []any) (any, error)

// pinned keeps every live registration reachable by function pointer.
// Native code holds raw addresses the Go collector cannot see, so the
// registration (and the closure it captures) must stay pinned until an
// explicit Release.
var pinned = struct {
	mu sync.Mutex
	m  map[uint64]*Registration
}{m: make(map[uint64]*Registration)}

// Registration is a Go function exposed to native code as a function
// pointer. The pointer stays valid until Release.
type Registration struct {
	sig    *bind.Signature
	fn     Fn
	m      *marshal.Marshaller
	fnptr  uint64
	inside atomic.Bool

	mu      sync.Mutex
	lastErr error
	onError func(error)
}

var _ ffiruntime.ExternalObject = (*Registration)(nil)

// Make exposes fn to native code under the declared signature. The
// signature's symbol field names the callback for diagnostics; literal
// parameters make no sense on an inbound call and are rejected.
func Make(factory ffiruntime.CallbackFactory, m *marshal.Marshaller, sig *bind.Signature, fn Fn) (*Registration, error) {
	for _, p := range sig.Params {
		if p.IsLit {
			return nil, errors.InvalidInput(errors.PhaseCallback,
				sig.Symbol+": literal parameters are not allowed on callbacks")
		}
	}

	r := &Registration{sig: sig, fn: fn, m: m}
	fnptr, err := factory.NewCallback(len(sig.Params), r.invoke)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCallback, errors.KindInvalidInput, err, sig.Symbol)
	}
	r.fnptr = fnptr

	pinned.mu.Lock()
	pinned.m[fnptr] = r
	pinned.mu.Unlock()

	ffiruntime.Logger().Debug("registered callback",
		zap.String("name", sig.Symbol),
		zap.Uint64("fnptr", fnptr))
	return r, nil
}

// MakeDecl parses a declaration and registers the callback in one step.
func MakeDecl(factory ffiruntime.CallbackFactory, m *marshal.Marshaller, reg *types.Registry, decl string, fn Fn) (*Registration, error) {
	sig, err := bind.ParseSignature(reg, decl)
	if err != nil {
		return nil, err
	}
	return Make(factory, m, sig, fn)
}

// invoke is the word-level trampoline the native side lands on.
//
// Native code cannot receive a Go error, so failures surface as a zero
// return word plus the error hook; the native caller sees the same thing
// a C function returning 0/NULL would produce. Re-entering a trampoline
// that is still on the native stack is refused the same way, because
// the Go stack frames below it are not reusable.
func (r *Registration) invoke(words []uint64) uint64 {
	if !r.inside.CompareAndSwap(false, true) {
		r.fail(errors.NestedCallback(r.sig.Symbol))
		return 0
	}
	defer r.inside.Store(false)

	if len(words) < len(r.sig.Params) {
		r.fail(errors.InvalidInput(errors.PhaseCallback,
			r.sig.Symbol+": native frame shorter than declared parameters"))
		return 0
	}

	args := make([]any, len(r.sig.Params))
	for i, p := range r.sig.Params {
		v, err := r.unmarshalArg(words[i], p.Type)
		if err != nil {
			r.fail(err)
			return 0
		}
		args[i] = v
	}

	out, err := r.fn(args)
	if err != nil {
		r.fail(err)
		return 0
	}

	if r.sig.Return.Kind == types.KindVoid {
		return 0
	}
	// No call scope on the way out: a string result would need a buffer
	// nobody frees, so callbacks return scalars, addresses, or handles.
	word, err := r.m.ToNative(out, r.sig.Return, nil)
	if err != nil {
		r.fail(err)
		return 0
	}
	return word
}

func (r *Registration) unmarshalArg(word uint64, d *types.Descriptor) (any, error) {
	if d.Kind == types.KindPointer {
		return handle.WrapBorrowed(word), nil
	}
	return r.m.FromNative(word, d)
}

func (r *Registration) fail(err error) {
	r.mu.Lock()
	r.lastErr = err
	hook := r.onError
	r.mu.Unlock()

	if hook != nil {
		hook(err)
		return
	}
	ffiruntime.Logger().Error("callback failed",
		zap.String("name", r.sig.Symbol),
		zap.Error(err))
}

// OnError installs a hook that observes trampoline failures, replacing
// the default log line.
func (r *Registration) OnError(hook func(error)) {
	r.mu.Lock()
	r.onError = hook
	r.mu.Unlock()
}

// Err returns the most recent trampoline failure, or nil.
func (r *Registration) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Name returns the callback's declared name.
func (r *Registration) Name() string {
	return r.sig.Symbol
}

// Address returns the native function pointer.
func (r *Registration) Address() uint64 {
	return r.fnptr
}

// NativeAddress implements ffiruntime.ExternalObject, so a registration
// can pass as a pointer argument directly.
func (r *Registration) NativeAddress() uint64 {
	return r.fnptr
}

// Finalize implements ffiruntime.ExternalObject.
func (r *Registration) Finalize() {
	r.Release()
}

// Release unpins the registration. The function pointer must not reach
// native code again afterwards.
func (r *Registration) Release() {
	pinned.mu.Lock()
	delete(pinned.m, r.fnptr)
	pinned.mu.Unlock()
}

// Lookup finds the live registration behind a function pointer.
func Lookup(fnptr uint64) (*Registration, bool) {
	pinned.mu.Lock()
	defer pinned.mu.Unlock()
	r, ok := pinned.m[fnptr]
	return r, ok
}

// PinnedCount reports how many registrations are currently pinned.
func PinnedCount() int {
	pinned.mu.Lock()
	defer pinned.mu.Unlock()
	return len(pinned.m)
}
