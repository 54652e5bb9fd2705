package types

// Kind categorizes a type descriptor.
type Kind uint8

const (
	KindVoid Kind = iota
	KindInt
	KindUint
	KindFloat
	KindPointer
	KindString
	KindStruct
	KindOpaque
	KindArray
)

var kindNames = [...]string{
	KindVoid:    "void",
	KindInt:     "int",
	KindUint:    "uint",
	KindFloat:   "float",
	KindPointer: "pointer",
	KindString:  "string",
	KindStruct:  "struct",
	KindOpaque:  "opaque",
	KindArray:   "array",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsNumeric reports whether the kind marshals as a number.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindUint || k == KindFloat
}

// IsScalar reports whether a value of this kind fits a single call-frame
// word. Composite kinds (struct, array) and incomplete opaque types are
// manipulated through memory, never passed by value.
func (k Kind) IsScalar() bool {
	return k.IsNumeric() || k == KindPointer || k == KindString
}
