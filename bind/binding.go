package bind

import (
	"context"

	"go.uber.org/zap"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
	"github.com/wippyai/ffi-runtime/handle"
	"github.com/wippyai/ffi-runtime/marshal"
	"github.com/wippyai/ffi-runtime/types"
)

// Binder resolves declarations against one module and produces reusable
// bindings. Parsing, symbol lookup, and arity checking all happen at
// bind time; a Binding that exists is ready to invoke.
type Binder struct {
	mod ffiruntime.Module
	reg *types.Registry
	m   *marshal.Marshaller
}

// NewBinder creates a binder over a module and the backend it runs
// against.
func NewBinder(mod ffiruntime.Module, reg *types.Registry, mem ffiruntime.Memory, alloc ffiruntime.Allocator) *Binder {
	return &Binder{mod: mod, reg: reg, m: marshal.New(mem, alloc)}
}

// Registry returns the type registry bindings resolve against.
func (b *Binder) Registry() *types.Registry {
	return b.reg
}

// Marshaller returns the marshaller bindings convert through.
func (b *Binder) Marshaller() *marshal.Marshaller {
	return b.m
}

// BindDecl parses a declaration and binds it in one step.
func (b *Binder) BindDecl(decl string) (*Binding, error) {
	sig, err := ParseSignature(b.reg, decl)
	if err != nil {
		return nil, err
	}
	return b.Bind(sig)
}

// Bind resolves the signature's symbol in the module. Missing symbols
// fail with symbol_not_found; when the backend knows the symbol's real
// parameter count, a disagreeing declaration fails with
// signature_mismatch.
func (b *Binder) Bind(sig *Signature) (*Binding, error) {
	sym, err := b.mod.Symbol(sig.Symbol)
	if err != nil {
		return nil, err
	}
	if actual, ok := sym.Arity(); ok && actual != len(sig.Params) {
		return nil, errors.SignatureMismatch(sig.Symbol, len(sig.Params), actual)
	}

	ffiruntime.Logger().Debug("bound symbol",
		zap.String("signature", sig.String()),
		zap.Int("params", len(sig.Params)))

	return &Binding{sig: sig, sym: sym, m: b.m}, nil
}

// Binding is a resolved, invocable function. It is immutable and safe
// for concurrent use; each invocation owns its own argument frame and
// transient buffers.
type Binding struct {
	sig *Signature
	sym ffiruntime.Symbol
	m   *marshal.Marshaller
}

// Signature returns the parsed declaration the binding was built from.
func (b *Binding) Signature() *Signature {
	return b.sig
}

// Invoke calls the bound function. Arguments map positionally onto the
// declared parameters, skipping literals; the count must match exactly.
//
// The return value follows the declared return descriptor: numeric
// kinds come back as int64/uint64/float values, strings as Go strings,
// and pointer kinds as a borrowed *handle.Handle so the caller decides
// ownership. A null pointer result is a handle at address 0, not nil.
func (b *Binding) Invoke(ctx context.Context, args ...any) (any, error) {
	return b.InvokeWithEnv(ctx, nil, args...)
}

// InvokeWithEnv is Invoke with an environment of named values. A
// parameter whose name appears in env takes its value from there; the
// remaining named parameters consume args in declaration order.
func (b *Binding) InvokeWithEnv(ctx context.Context, env map[string]any, args ...any) (any, error) {
	scope := marshal.NewArena()
	defer scope.FreeAndRelease(b.m.Allocator())

	words := make([]uint64, 0, len(b.sig.Params))
	next := 0
	for _, p := range b.sig.Params {
		var value any
		switch {
		case p.IsLit:
			value = p.Literal
		case env != nil && hasKey(env, p.Name):
			value = env[p.Name]
		default:
			if next >= len(args) {
				return nil, errors.InvalidInput(errors.PhaseCall,
					b.sig.Symbol+": not enough arguments for parameter "+p.Name)
			}
			value = args[next]
			next++
		}

		word, err := b.m.ToNative(value, p.Type, scope)
		if err != nil {
			return nil, err
		}
		words = append(words, word)
	}
	if next != len(args) {
		return nil, errors.InvalidInput(errors.PhaseCall, b.sig.Symbol+": too many arguments")
	}

	ret, err := b.sym.Invoke(ctx, words)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCall, errors.KindInvalidInput, err, b.sig.Symbol)
	}

	return b.unmarshalReturn(ret)
}

// unmarshalReturn reinterprets the raw return word under the declared
// descriptor. Pointer kinds come back wrapped so callers can attach
// ownership or finalization without touching raw addresses.
func (b *Binding) unmarshalReturn(word uint64) (any, error) {
	d := b.sig.Return
	if d.Kind == types.KindPointer {
		return handle.WrapBorrowed(word), nil
	}
	return b.m.FromNative(word, d)
}

func hasKey(env map[string]any, name string) bool {
	_, ok := env[name]
	return ok
}
