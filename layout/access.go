package layout

import (
	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
	"github.com/wippyai/ffi-runtime/handle"
	"github.com/wippyai/ffi-runtime/marshal"
	"github.com/wippyai/ffi-runtime/types"
)

// Accessor reads and writes typed values through external objects. Field
// and element access routes through the marshaller with the descriptor's
// width; composite members come back as borrowed handles into the parent.
//
// Struct and raw offset access is a straight passthrough to native
// memory: the accessor does not track how much memory the object
// actually spans. Array element access is the one checked case, because
// the element count is statically known.
type Accessor struct {
	m *marshal.Marshaller
}

// NewAccessor creates an accessor over the marshaller's memory.
func NewAccessor(m *marshal.Marshaller) *Accessor {
	return &Accessor{m: m}
}

// GetField reads the named field of a struct at obj.
func (a *Accessor) GetField(obj ffiruntime.ExternalObject, s *Struct, name string) (any, error) {
	f, ok := s.Field(name)
	if !ok {
		return nil, errors.FieldUnknown(s.Name(), name)
	}
	return a.Read(obj, uint64(f.Offset), f.Type)
}

// SetField writes the named field of a struct at obj.
func (a *Accessor) SetField(obj ffiruntime.ExternalObject, s *Struct, name string, value any) error {
	f, ok := s.Field(name)
	if !ok {
		return errors.FieldUnknown(s.Name(), name)
	}
	return a.Write(obj, uint64(f.Offset), f.Type, value)
}

// Index reads element i of a fixed-size array at obj. Unlike struct
// access, the index is checked against the declared count.
func (a *Accessor) Index(obj ffiruntime.ExternalObject, arr *types.Descriptor, i int) (any, error) {
	if err := checkIndex(arr, i); err != nil {
		return nil, err
	}
	return a.Read(obj, uint64(i)*uint64(arr.Elem.Size), arr.Elem)
}

// SetIndex writes element i of a fixed-size array at obj.
func (a *Accessor) SetIndex(obj ffiruntime.ExternalObject, arr *types.Descriptor, i int, value any) error {
	if err := checkIndex(arr, i); err != nil {
		return err
	}
	return a.Write(obj, uint64(i)*uint64(arr.Elem.Size), arr.Elem, value)
}

func checkIndex(arr *types.Descriptor, i int) error {
	if arr.Kind != types.KindArray {
		return errors.New(errors.PhaseMemory, errors.KindInvalidInput).
			NativeType(arr.Name).
			Detail("indexed access requires an array type").
			Build()
	}
	if i < 0 || i >= int(arr.Count) {
		return errors.IndexOutOfRange([]string{arr.Name}, i, int(arr.Count))
	}
	return nil
}

// Read reads a value of the given descriptor at an explicit byte offset
// from obj. Composite descriptors return a borrowed handle at the
// member's address instead of a value.
func (a *Accessor) Read(obj ffiruntime.ExternalObject, offset uint64, desc *types.Descriptor) (any, error) {
	addr := obj.NativeAddress() + offset
	if !desc.Kind.IsScalar() {
		return handle.WrapBorrowed(addr), nil
	}
	word, err := readWord(a.m.Memory(), addr, desc.Size)
	if err != nil {
		return nil, err
	}
	return a.m.FromNative(word, desc)
}

// Write writes a scalar value of the given descriptor at an explicit
// byte offset from obj.
func (a *Accessor) Write(obj ffiruntime.ExternalObject, offset uint64, desc *types.Descriptor, value any) error {
	if !desc.Kind.IsScalar() {
		return errors.New(errors.PhaseMemory, errors.KindInvalidInput).
			NativeType(desc.Name).
			Detail("%s members are written through their own handle", desc.Kind).
			Build()
	}
	// No scope: storing a Go string would leak a buffer the struct
	// outlives, so string fields take addresses or handles only.
	word, err := a.m.ToNative(value, desc, nil)
	if err != nil {
		return err
	}
	return writeWord(a.m.Memory(), obj.NativeAddress()+offset, desc.Size, word)
}

func readWord(mem ffiruntime.Memory, addr uint64, size uint32) (uint64, error) {
	switch size {
	case 1:
		v, err := mem.ReadU8(addr)
		return uint64(v), err
	case 2:
		v, err := mem.ReadU16(addr)
		return uint64(v), err
	case 4:
		v, err := mem.ReadU32(addr)
		return uint64(v), err
	case 8:
		return mem.ReadU64(addr)
	}
	return 0, errors.InvalidInput(errors.PhaseMemory, "unsupported scalar width")
}

func writeWord(mem ffiruntime.Memory, addr uint64, size uint32, word uint64) error {
	switch size {
	case 1:
		return mem.WriteU8(addr, uint8(word))
	case 2:
		return mem.WriteU16(addr, uint16(word))
	case 4:
		return mem.WriteU32(addr, uint32(word))
	case 8:
		return mem.WriteU64(addr, word)
	}
	return errors.InvalidInput(errors.PhaseMemory, "unsupported scalar width")
}
