package marshal

import (
	"fmt"
	"math"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
	"github.com/wippyai/ffi-runtime/internal/abi"
	"github.com/wippyai/ffi-runtime/types"
)

// Marshaller converts Go values to native call-frame words and back,
// per type descriptor. The same instance serves both directions; the
// direction never influences the rules, only the descriptor does.
type Marshaller struct {
	mem   ffiruntime.Memory
	alloc ffiruntime.Allocator
}

// New creates a marshaller over a backend's memory and allocator.
func New(mem ffiruntime.Memory, alloc ffiruntime.Allocator) *Marshaller {
	return &Marshaller{mem: mem, alloc: alloc}
}

// Memory returns the backing memory, for accessors built on top.
func (m *Marshaller) Memory() ffiruntime.Memory {
	return m.mem
}

// Allocator returns the backing allocator.
func (m *Marshaller) Allocator() ffiruntime.Allocator {
	return m.alloc
}

// ToNative converts value to its native word per desc. Transient buffers
// (string copies) are recorded in scope and live until the call returns.
//
// Integer conversions truncate with two's-complement wraparound, exactly
// as a C assignment would; only a value that fits no native width at all
// is a coercion error.
func (m *Marshaller) ToNative(value any, desc *types.Descriptor, scope *Arena) (uint64, error) {
	switch desc.Kind {
	case types.KindInt, types.KindUint:
		bits, ok := abi.IntBits(value)
		if !ok {
			return 0, errors.Coercion(nil, value, goTypeName(value), desc.Name)
		}
		return abi.Truncate(bits, desc.Size), nil

	case types.KindFloat:
		f, ok := abi.FloatValue(value)
		if !ok {
			return 0, errors.Coercion(nil, value, goTypeName(value), desc.Name)
		}
		if desc.Size == 4 {
			return uint64(math.Float32bits(float32(f))), nil
		}
		return math.Float64bits(f), nil

	case types.KindPointer:
		return m.pointerToNative(value, desc)

	case types.KindString:
		return m.stringToNative(value, desc, scope)

	case types.KindVoid:
		return 0, errors.InvalidInput(errors.PhaseMarshal, "void is not a value type")

	default:
		return 0, errors.New(errors.PhaseMarshal, errors.KindInvalidInput).
			NativeType(desc.Name).
			Detail("%s values do not pass by value; pass a pointer", desc.Kind).
			Build()
	}
}

func (m *Marshaller) pointerToNative(value any, desc *types.Descriptor) (uint64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case ffiruntime.ExternalObject:
		return v.NativeAddress(), nil
	case uint64:
		return v, nil
	case uintptr:
		return uint64(v), nil
	case uint:
		return uint64(v), nil
	// Signed forms show up as parsed declaration literals and untyped Go
	// constants; the bit pattern is the address.
	case int64:
		return uint64(v), nil
	case int:
		return uint64(int64(v)), nil
	}
	return 0, errors.Coercion(nil, value, goTypeName(value), desc.Name)
}

func (m *Marshaller) stringToNative(value any, desc *types.Descriptor, scope *Arena) (uint64, error) {
	var data []byte
	switch v := value.(type) {
	case nil:
		return 0, nil
	case ffiruntime.ExternalObject:
		return v.NativeAddress(), nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return 0, errors.Coercion(nil, value, goTypeName(value), desc.Name)
	}

	if scope == nil {
		return 0, errors.InvalidInput(errors.PhaseMarshal, "string argument requires a call scope")
	}

	size := uint32(len(data)) + 1
	addr, err := m.alloc.Alloc(size, 1)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseMarshal, errors.KindAllocation, err, "transient string buffer")
	}
	scope.Add(addr, size, 1)

	if err := m.mem.Write(addr, data); err != nil {
		return 0, err
	}
	if err := m.mem.WriteU8(addr+uint64(len(data)), 0); err != nil {
		return 0, err
	}
	return addr, nil
}

// FromNative converts a native word back to a Go value. Only the declared
// descriptor matters: a mismatched declaration reinterprets the raw bits,
// it does not fail.
func (m *Marshaller) FromNative(word uint64, desc *types.Descriptor) (any, error) {
	switch desc.Kind {
	case types.KindVoid:
		return nil, nil

	case types.KindInt:
		return abi.SignExtend(word, desc.Size), nil

	case types.KindUint:
		return abi.Truncate(word, desc.Size), nil

	case types.KindFloat:
		if desc.Size == 4 {
			return math.Float32frombits(uint32(word)), nil
		}
		return math.Float64frombits(word), nil

	case types.KindPointer:
		return word, nil

	case types.KindString:
		if word == 0 {
			return nil, nil
		}
		return m.readCString(word)

	default:
		return nil, errors.New(errors.PhaseMarshal, errors.KindInvalidInput).
			NativeType(desc.Name).
			Detail("%s values do not return by value", desc.Kind).
			Build()
	}
}

// readCString copies the NUL-terminated bytes at addr.
func (m *Marshaller) readCString(addr uint64) (string, error) {
	var out []byte
	for {
		b, err := m.mem.ReadU8(addr + uint64(len(out)))
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(out), nil
		}
		out = append(out, b)
	}
}

func goTypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}
