package types

import "unsafe"

// Platform carries the single width-dependent configuration value: the
// native word (pointer) size in bytes. All pointer-width rules derive
// from it; nothing else in the library hard-codes a word size.
type Platform struct {
	PointerSize uint32
}

var (
	// Platform64 describes an LP64 target (8-byte pointers and longs).
	Platform64 = Platform{PointerSize: 8}
	// Platform32 describes an ILP32 target (4-byte pointers and longs).
	Platform32 = Platform{PointerSize: 4}
)

// HostPlatform returns the platform of the running process.
func HostPlatform() Platform {
	return Platform{PointerSize: uint32(unsafe.Sizeof(uintptr(0)))}
}

// Descriptor describes the native layout of one type: its byte size,
// alignment, and category. Descriptors are immutable once registered.
type Descriptor struct {
	Name  string
	Kind  Kind
	Size  uint32
	Align uint32

	// Elem is the element type for arrays and the pointee for derived
	// pointer types (nil for void *).
	Elem *Descriptor
	// Count is the element count for arrays.
	Count uint32
}

// Width returns the integer width in bytes for numeric descriptors.
func (d *Descriptor) Width() uint32 {
	return d.Size
}

// Signed reports whether the descriptor is a signed integer.
func (d *Descriptor) IsSigned() bool {
	return d.Kind == KindInt
}

func (d *Descriptor) String() string {
	return d.Name
}

// Array derives a fixed-size array descriptor: size is elem size times
// count, alignment is the element alignment. Indexed access through the
// layout package checks count; that is the only bounds checking the
// library does.
func Array(elem *Descriptor, count uint32) *Descriptor {
	return &Descriptor{
		Name:  elem.Name + arraySuffix(count),
		Kind:  KindArray,
		Size:  elem.Size * count,
		Align: elem.Align,
		Elem:  elem,
		Count: count,
	}
}
