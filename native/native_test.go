//go:build linux

package native_test

import (
	"context"
	"testing"

	"github.com/wippyai/ffi-runtime/bind"
	"github.com/wippyai/ffi-runtime/errors"
	"github.com/wippyai/ffi-runtime/native"
	"github.com/wippyai/ffi-runtime/types"
)

func openLibc(t *testing.T) *native.Library {
	t.Helper()
	lib, err := native.Open("libc.so.6")
	if err != nil {
		t.Skipf("no loadable libc: %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func TestLibcStrlen(t *testing.T) {
	lib := openLibc(t)

	reg := types.NewRegistry(types.HostPlatform())
	binder := bind.NewBinder(lib, reg, native.Memory{}, native.Allocator{})

	b, err := binder.BindDecl("size_t strlen(char * s)")
	if err != nil {
		t.Fatal(err)
	}
	v, err := b.Invoke(context.Background(), "hello, world")
	if err != nil {
		t.Fatal(err)
	}
	if v.(uint64) != 12 {
		t.Errorf("strlen: got %v", v)
	}
}

func TestLibcAbs(t *testing.T) {
	lib := openLibc(t)

	reg := types.NewRegistry(types.HostPlatform())
	binder := bind.NewBinder(lib, reg, native.Memory{}, native.Allocator{})

	b, err := binder.BindDecl("int abs(int v)")
	if err != nil {
		t.Fatal(err)
	}
	v, err := b.Invoke(context.Background(), -42)
	if err != nil {
		t.Fatal(err)
	}
	if v.(int64) != 42 {
		t.Errorf("abs: got %v", v)
	}
}

func TestSymbolNotFound(t *testing.T) {
	lib := openLibc(t)

	_, err := lib.Symbol("definitely_not_a_libc_symbol")
	if !errors.IsKind(err, errors.KindSymbolNotFound) {
		t.Errorf("got %v", err)
	}
}

func TestAllocatorRoundTrip(t *testing.T) {
	var alloc native.Allocator
	var mem native.Memory

	addr, err := alloc.Alloc(64, 8)
	if err != nil {
		t.Skipf("no loadable C runtime: %v", err)
	}
	defer alloc.Free(addr, 64, 8)

	if err := mem.WriteU64(addr, 0x1122334455667788); err != nil {
		t.Fatal(err)
	}
	v, err := mem.ReadU64(addr)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x1122334455667788 {
		t.Errorf("round trip: got %#x", v)
	}
}
