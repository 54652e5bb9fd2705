package types

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindVoid, "void"},
		{KindInt, "int"},
		{KindUint, "uint"},
		{KindFloat, "float"},
		{KindPointer, "pointer"},
		{KindString, "string"},
		{KindStruct, "struct"},
		{KindOpaque, "opaque"},
		{KindArray, "array"},
		{Kind(200), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKindPredicates(t *testing.T) {
	if !KindInt.IsNumeric() || !KindFloat.IsNumeric() {
		t.Error("int/float should be numeric")
	}
	if KindPointer.IsNumeric() {
		t.Error("pointer should not be numeric")
	}
	if !KindPointer.IsScalar() || !KindString.IsScalar() {
		t.Error("pointer/string should be scalar")
	}
	for _, k := range []Kind{KindVoid, KindStruct, KindOpaque, KindArray} {
		if k.IsScalar() {
			t.Errorf("%s should not be scalar", k)
		}
	}
}
