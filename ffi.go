package ffiruntime

import "context"

// Memory provides access to native memory at absolute addresses.
// Implementations do no bounds tracking beyond what the backing store
// itself enforces; out-of-bounds access against real native memory is
// undefined behavior.
type Memory interface {
	Read(addr uint64, length uint32) ([]byte, error)
	Write(addr uint64, data []byte) error
	ReadU8(addr uint64) (uint8, error)
	ReadU16(addr uint64) (uint16, error)
	ReadU32(addr uint64) (uint32, error)
	ReadU64(addr uint64) (uint64, error)
	WriteU8(addr uint64, value uint8) error
	WriteU16(addr uint64, value uint16) error
	WriteU32(addr uint64, value uint32) error
	WriteU64(addr uint64, value uint64) error
}

// Allocator allocates native memory.
type Allocator interface {
	Alloc(size, align uint32) (uint64, error)
	Free(addr uint64, size, align uint32)
}

// Module resolves exported symbols from a native library or a sandboxed
// guest. It is the external collaborator a Binder resolves against.
type Module interface {
	Symbol(name string) (Symbol, error)
}

// Symbol is a callable native entry point.
type Symbol interface {
	// Invoke performs the call with a fully assembled argument frame.
	// Each word carries one argument in its native bit representation.
	// The call is synchronous; the calling goroutine blocks until the
	// native function returns.
	Invoke(ctx context.Context, words []uint64) (uint64, error)

	// Arity returns the symbol's parameter count when the backend can
	// introspect it. Raw native symbols report (0, false).
	Arity() (int, bool)
}

// CallbackFactory produces a native-callable function pointer that
// forwards invocation into a word-level Go trampoline.
type CallbackFactory interface {
	NewCallback(arity int, fn func(words []uint64) uint64) (uint64, error)
}

// ExternalObject is the capability set shared by everything that can
// cross the boundary as a native address. Raw memory handles and typed
// external objects both implement it; the variant is chosen when the
// object is created, never by runtime type inspection.
type ExternalObject interface {
	// NativeAddress returns the address passed to native code.
	// Address 0 is the canonical null sentinel.
	NativeAddress() uint64

	// Finalize releases the underlying native resource. Called at most
	// once by the finalization coordinator.
	Finalize()
}
