package layout

import (
	"testing"

	"github.com/wippyai/ffi-runtime/errors"
	"github.com/wippyai/ffi-runtime/types"
)

func resolve(t *testing.T, reg *types.Registry, token string) *types.Descriptor {
	t.Helper()
	d, err := reg.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve(%q): %v", token, err)
	}
	return d
}

func TestComputeLayoutPadding(t *testing.T) {
	reg := types.NewRegistry(types.Platform64)

	s, err := ComputeLayout("mixed", []FieldSpec{
		{Name: "a", Type: resolve(t, reg, "int8")},
		{Name: "b", Type: resolve(t, reg, "void *")},
		{Name: "c", Type: resolve(t, reg, "int32")},
	})
	if err != nil {
		t.Fatal(err)
	}

	wantOffsets := map[string]uint32{"a": 0, "b": 8, "c": 16}
	for name, want := range wantOffsets {
		f, ok := s.Field(name)
		if !ok {
			t.Fatalf("missing field %q", name)
		}
		if f.Offset != want {
			t.Errorf("field %s offset: got %d, want %d", name, f.Offset, want)
		}
	}
	if s.Size() != 24 {
		t.Errorf("size: got %d, want 24", s.Size())
	}
	if s.Align() != 8 {
		t.Errorf("align: got %d, want 8", s.Align())
	}
}

func TestComputeLayout32BitPointers(t *testing.T) {
	reg := types.NewRegistry(types.Platform32)

	s, err := ComputeLayout("mixed", []FieldSpec{
		{Name: "a", Type: resolve(t, reg, "int8")},
		{Name: "b", Type: resolve(t, reg, "void *")},
		{Name: "c", Type: resolve(t, reg, "int32")},
	})
	if err != nil {
		t.Fatal(err)
	}

	// The same declaration lays out differently under a 4-byte word.
	b, _ := s.Field("b")
	if b.Offset != 4 {
		t.Errorf("field b offset on 32-bit: got %d, want 4", b.Offset)
	}
	if s.Size() != 12 {
		t.Errorf("size on 32-bit: got %d, want 12", s.Size())
	}
}

func TestComputeLayoutTightPacking(t *testing.T) {
	reg := types.NewRegistry(types.Platform64)

	s, err := ComputeLayout("bytes", []FieldSpec{
		{Name: "x", Type: resolve(t, reg, "uint8")},
		{Name: "y", Type: resolve(t, reg, "uint8")},
		{Name: "z", Type: resolve(t, reg, "uint8")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.Size() != 3 || s.Align() != 1 {
		t.Errorf("got size %d align %d, want 3/1", s.Size(), s.Align())
	}
}

func TestComputeLayoutTrailingPadding(t *testing.T) {
	reg := types.NewRegistry(types.Platform64)

	s, err := ComputeLayout("padded", []FieldSpec{
		{Name: "a", Type: resolve(t, reg, "double")},
		{Name: "b", Type: resolve(t, reg, "int8")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.Size() != 16 {
		t.Errorf("size: got %d, want 16 (tail padded to align 8)", s.Size())
	}
}

func TestComputeLayoutErrors(t *testing.T) {
	reg := types.NewRegistry(types.Platform64)
	i32 := resolve(t, reg, "int32")

	if _, err := ComputeLayout("empty", nil); err == nil {
		t.Error("empty struct should be rejected")
	}

	_, err := ComputeLayout("dup", []FieldSpec{
		{Name: "x", Type: i32},
		{Name: "x", Type: i32},
	})
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("duplicate field: got %v", err)
	}

	void := resolve(t, reg, "void")
	_, err = ComputeLayout("bad", []FieldSpec{{Name: "v", Type: void}})
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("incomplete field type: got %v", err)
	}
}

func TestComputeRegistersDescriptor(t *testing.T) {
	reg := types.NewRegistry(types.Platform64)

	s, err := Compute(reg, "point", []FieldDef{
		{Type: "double", Name: "x"},
		{Type: "double", Name: "y"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.Size() != 16 {
		t.Errorf("size: got %d, want 16", s.Size())
	}

	d, err := reg.Resolve("point")
	if err != nil {
		t.Fatalf("struct not registered: %v", err)
	}
	if d != s.Descriptor() || d.Kind != types.KindStruct {
		t.Error("registered descriptor mismatch")
	}

	// Pointers to the struct derive like any other type.
	p, err := reg.Resolve("point *")
	if err != nil {
		t.Fatal(err)
	}
	if p.Kind != types.KindPointer || p.Elem != d {
		t.Error("point * should point at the struct descriptor")
	}

	// Redeclaring collides.
	_, err = Compute(reg, "point", []FieldDef{{Type: "int", Name: "x"}})
	if !errors.IsKind(err, errors.KindDuplicateType) {
		t.Errorf("redeclare: got %v", err)
	}
}

func TestComputeUnknownFieldType(t *testing.T) {
	reg := types.NewRegistry(types.Platform64)

	_, err := Compute(reg, "bad", []FieldDef{{Type: "quaternion", Name: "q"}})
	if !errors.IsKind(err, errors.KindUnknownType) {
		t.Errorf("got %v", err)
	}
}

func TestNestedStructField(t *testing.T) {
	reg := types.NewRegistry(types.Platform64)

	inner, err := Compute(reg, "inner", []FieldDef{
		{Type: "int32", Name: "v"},
	})
	if err != nil {
		t.Fatal(err)
	}

	outer, err := ComputeLayout("outer", []FieldSpec{
		{Name: "tag", Type: resolve(t, reg, "int8")},
		{Name: "in", Type: inner.Descriptor()},
	})
	if err != nil {
		t.Fatal(err)
	}
	f, _ := outer.Field("in")
	if f.Offset != 4 {
		t.Errorf("nested struct offset: got %d, want 4", f.Offset)
	}
	if outer.Size() != 8 {
		t.Errorf("outer size: got %d, want 8", outer.Size())
	}
}
