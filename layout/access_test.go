package layout

import (
	"testing"

	"github.com/wippyai/ffi-runtime/errors"
	"github.com/wippyai/ffi-runtime/ffitest"
	"github.com/wippyai/ffi-runtime/handle"
	"github.com/wippyai/ffi-runtime/marshal"
	"github.com/wippyai/ffi-runtime/types"
)

func newTestAccessor(t *testing.T) (*Accessor, *ffitest.Backend, *types.Registry) {
	t.Helper()
	backend := ffitest.NewBackend(4096)
	return NewAccessor(marshal.New(backend, backend)), backend, types.NewRegistry(types.Platform64)
}

func TestFieldGetSet(t *testing.T) {
	a, backend, reg := newTestAccessor(t)

	s, err := ComputeLayout("mixed", []FieldSpec{
		{Name: "a", Type: resolve(t, reg, "int8")},
		{Name: "b", Type: resolve(t, reg, "void *")},
		{Name: "c", Type: resolve(t, reg, "int32")},
	})
	if err != nil {
		t.Fatal(err)
	}

	h, err := handle.AllocateAligned(backend, s.Size(), s.Align())
	if err != nil {
		t.Fatal(err)
	}

	if err := a.SetField(h, s, "a", -5); err != nil {
		t.Fatal(err)
	}
	if err := a.SetField(h, s, "b", uint64(0xCAFE)); err != nil {
		t.Fatal(err)
	}
	if err := a.SetField(h, s, "c", 1<<20); err != nil {
		t.Fatal(err)
	}

	v, err := a.GetField(h, s, "a")
	if err != nil {
		t.Fatal(err)
	}
	if v.(int64) != -5 {
		t.Errorf("field a: got %v", v)
	}
	v, _ = a.GetField(h, s, "b")
	if v.(uint64) != 0xCAFE {
		t.Errorf("field b: got %v", v)
	}
	v, _ = a.GetField(h, s, "c")
	if v.(int64) != 1<<20 {
		t.Errorf("field c: got %v", v)
	}
}

func TestFieldUnknown(t *testing.T) {
	a, backend, reg := newTestAccessor(t)

	s, _ := ComputeLayout("p", []FieldSpec{{Name: "x", Type: resolve(t, reg, "int32")}})
	h, _ := handle.Allocate(backend, s.Size())

	_, err := a.GetField(h, s, "nope")
	if !errors.IsKind(err, errors.KindFieldUnknown) {
		t.Errorf("get: %v", err)
	}
	err = a.SetField(h, s, "nope", 1)
	if !errors.IsKind(err, errors.KindFieldUnknown) {
		t.Errorf("set: %v", err)
	}
}

func TestArrayIndexBounds(t *testing.T) {
	a, backend, reg := newTestAccessor(t)

	arr := types.Array(resolve(t, reg, "double"), 100)
	if arr.Size != 800 {
		t.Fatalf("array size: %d", arr.Size)
	}
	h, err := handle.AllocateAligned(backend, arr.Size, arr.Align)
	if err != nil {
		t.Fatal(err)
	}

	// Index 99 is the last valid element.
	if err := a.SetIndex(h, arr, 99, 4.25); err != nil {
		t.Fatalf("index 99: %v", err)
	}
	v, err := a.Index(h, arr, 99)
	if err != nil {
		t.Fatal(err)
	}
	if v.(float64) != 4.25 {
		t.Errorf("index 99: got %v", v)
	}

	// Index 100 is out of range, as is -1.
	if _, err := a.Index(h, arr, 100); !errors.IsKind(err, errors.KindIndexOutOfRange) {
		t.Errorf("index 100: %v", err)
	}
	if err := a.SetIndex(h, arr, 100, 1.0); !errors.IsKind(err, errors.KindIndexOutOfRange) {
		t.Errorf("set index 100: %v", err)
	}
	if _, err := a.Index(h, arr, -1); !errors.IsKind(err, errors.KindIndexOutOfRange) {
		t.Errorf("index -1: %v", err)
	}
}

func TestIndexOnNonArray(t *testing.T) {
	a, backend, reg := newTestAccessor(t)

	h, _ := handle.Allocate(backend, 8)
	_, err := a.Index(h, resolve(t, reg, "int64"), 0)
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("got %v", err)
	}
}

func TestCompositeFieldReturnsBorrowedHandle(t *testing.T) {
	a, backend, reg := newTestAccessor(t)

	inner, err := Compute(reg, "vec2", []FieldDef{
		{Type: "float", Name: "x"},
		{Type: "float", Name: "y"},
	})
	if err != nil {
		t.Fatal(err)
	}
	outer, err := ComputeLayout("sprite", []FieldSpec{
		{Name: "id", Type: resolve(t, reg, "int32")},
		{Name: "pos", Type: inner.Descriptor()},
	})
	if err != nil {
		t.Fatal(err)
	}

	h, _ := handle.AllocateAligned(backend, outer.Size(), outer.Align())

	v, err := a.GetField(h, outer, "pos")
	if err != nil {
		t.Fatal(err)
	}
	sub, ok := v.(*handle.Handle)
	if !ok {
		t.Fatalf("composite field: got %T", v)
	}
	posField, _ := outer.Field("pos")
	if sub.Address() != h.Address()+uint64(posField.Offset) {
		t.Error("sub-handle address mismatch")
	}
	if sub.Owned() {
		t.Error("sub-handle must be borrowed")
	}

	// The sub-handle reaches the nested fields.
	if err := a.SetField(sub, inner, "y", 2.5); err != nil {
		t.Fatal(err)
	}
	y, err := a.GetField(sub, inner, "y")
	if err != nil {
		t.Fatal(err)
	}
	if y.(float32) != 2.5 {
		t.Errorf("nested y: got %v", y)
	}
}

func TestRawOffsetAccess(t *testing.T) {
	a, backend, reg := newTestAccessor(t)

	h, _ := handle.Allocate(backend, 16)
	u16 := resolve(t, reg, "uint16")

	if err := a.Write(h, 6, u16, 0xBEEF); err != nil {
		t.Fatal(err)
	}
	v, err := a.Read(h, 6, u16)
	if err != nil {
		t.Fatal(err)
	}
	if v.(uint64) != 0xBEEF {
		t.Errorf("raw read: got %#x", v)
	}
}
