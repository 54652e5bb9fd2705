// Package layout computes C struct and fixed-size array layouts and
// provides typed accessors over external memory.
//
// # Offset Algorithm
//
// Starting at zero, each field's offset is the running offset rounded up
// to the field's alignment; the running offset then advances by the
// field's size. The final size is rounded up to the maximum alignment
// among all fields. This matches what a C compiler does without packing
// pragmas:
//
//	struct { int8 a; void *b; int32 c; }
//	→ a at 0, b at 8, c at 16, size 24 (on 8-byte pointers)
//
// # Arrays
//
// A fixed-size array descriptor has size elemSize×count and the element
// alignment. Element access is bounds-checked against the declared
// count; struct field and raw offset access is not, because the library
// has no idea how much memory a handle really spans.
package layout
