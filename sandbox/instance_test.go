package sandbox_test

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/ffi-runtime/bind"
	"github.com/wippyai/ffi-runtime/errors"
	"github.com/wippyai/ffi-runtime/sandbox"
	"github.com/wippyai/ffi-runtime/types"
)

// Host modules give us real wazero functions with typed signatures
// without shipping a guest binary; they export no linear memory, so the
// memory and allocator paths are covered by the shared backend tests
// against the fake.
func newGuest(t *testing.T) *sandbox.Instance {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	mod, err := rt.NewHostModuleBuilder("guest").
		NewFunctionBuilder().
		WithFunc(func(a, b int32) int32 { return a + b }).
		Export("add").
		NewFunctionBuilder().
		WithFunc(func(v int64) int64 { return -v }).
		Export("neg64").
		Instantiate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return sandbox.Wrap(mod)
}

func TestSymbolArity(t *testing.T) {
	inst := newGuest(t)

	sym, err := inst.Symbol("add")
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := sym.Arity(); !ok || n != 2 {
		t.Errorf("arity: got %d/%v", n, ok)
	}

	_, err = inst.Symbol("missing")
	if !errors.IsKind(err, errors.KindSymbolNotFound) {
		t.Errorf("got %v", err)
	}
}

func TestInvokeGuestFunction(t *testing.T) {
	inst := newGuest(t)

	sym, err := inst.Symbol("add")
	if err != nil {
		t.Fatal(err)
	}
	got, err := sym.Invoke(context.Background(), []uint64{40, 2})
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Errorf("got %d", got)
	}
}

func TestBindAgainstGuest(t *testing.T) {
	inst := newGuest(t)
	reg := types.NewRegistry(types.Platform32)
	binder := bind.NewBinder(inst, reg, nil, nil)

	b, err := binder.BindDecl("int add(int a, int b)")
	if err != nil {
		t.Fatal(err)
	}
	v, err := b.Invoke(context.Background(), 19, 23)
	if err != nil {
		t.Fatal(err)
	}
	if v.(int64) != 42 {
		t.Errorf("got %v", v)
	}

	b, err = binder.BindDecl("long long neg64(long long v)")
	if err != nil {
		t.Fatal(err)
	}
	v, err = b.Invoke(context.Background(), -7)
	if err != nil {
		t.Fatal(err)
	}
	if v.(int64) != 7 {
		t.Errorf("neg64: got %v", v)
	}
}

// The guest's type section makes arity declarative errors impossible to
// miss at bind time, unlike the native loader.
func TestBindArityChecked(t *testing.T) {
	inst := newGuest(t)
	binder := bind.NewBinder(inst, types.NewRegistry(types.Platform32), nil, nil)

	_, err := binder.BindDecl("int add(int a)")
	if !errors.IsKind(err, errors.KindSignatureMismatch) {
		t.Errorf("got %v", err)
	}
}

func TestHostModuleHasNoMemory(t *testing.T) {
	inst := newGuest(t)
	if inst.Memory() != nil {
		t.Error("host module should expose no linear memory")
	}
	if inst.Allocator() != nil {
		t.Error("host module should expose no allocator")
	}
}
