package sandbox

import (
	"context"
	"math"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
)

// Instance adapts an instantiated WASM module to the runtime's backend
// interfaces. Unlike the native backend, everything here is checked:
// symbols carry real arities, memory is bounds-enforced by the guest's
// linear memory, and a crash is a trap, not a fault.
type Instance struct {
	mod        api.Module
	mallocName string
	freeName   string
}

var _ ffiruntime.Module = (*Instance)(nil)

// Option adjusts how the instance maps onto the guest's exports.
type Option func(*Instance)

// WithAllocatorExports overrides the export names the allocator calls.
// Guests built with custom allocators often export e.g. "canonical_abi_alloc".
func WithAllocatorExports(malloc, free string) Option {
	return func(i *Instance) {
		i.mallocName = malloc
		i.freeName = free
	}
}

// Wrap adapts an already instantiated module.
func Wrap(mod api.Module, opts ...Option) *Instance {
	i := &Instance{mod: mod, mallocName: "malloc", freeName: "free"}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Symbol resolves an exported guest function. The guest's type section
// knows the real parameter count, so declarations against this backend
// are arity-checked at bind time.
func (i *Instance) Symbol(name string) (ffiruntime.Symbol, error) {
	fn := i.mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.SymbolNotFound(name, nil)
	}
	return &symbol{name: name, fn: fn}, nil
}

// Memory returns the guest's linear memory as runtime memory, or nil
// when the module exports none.
func (i *Instance) Memory() ffiruntime.Memory {
	mem := i.mod.Memory()
	if mem == nil {
		return nil
	}
	return &guestMemory{mem: mem}
}

// Allocator returns an allocator backed by the guest's exported
// malloc/free pair, or nil when the guest exports none.
func (i *Instance) Allocator() ffiruntime.Allocator {
	malloc := i.mod.ExportedFunction(i.mallocName)
	free := i.mod.ExportedFunction(i.freeName)
	if malloc == nil {
		return nil
	}
	return &guestAllocator{malloc: malloc, free: free}
}

// Close tears the guest instance down.
func (i *Instance) Close(ctx context.Context) error {
	return i.mod.Close(ctx)
}

type symbol struct {
	name string
	fn   api.Function
}

var _ ffiruntime.Symbol = (*symbol)(nil)

func (s *symbol) Invoke(ctx context.Context, words []uint64) (uint64, error) {
	results, err := s.fn.Call(ctx, words...)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseCall, errors.KindInvalidInput, err, s.name)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0], nil
}

func (s *symbol) Arity() (int, bool) {
	return len(s.fn.Definition().ParamTypes()), true
}

// guestMemory views the guest's 32-bit linear memory through 64-bit
// runtime addresses. Address 0 stays the null sentinel; the guest's own
// bounds make every access checked.
type guestMemory struct {
	mem api.Memory
}

var _ ffiruntime.Memory = (*guestMemory)(nil)

func (g *guestMemory) offset(addr uint64, length uint32) (uint32, error) {
	if addr == 0 || addr+uint64(length) > math.MaxUint32 {
		return 0, errors.OutOfBounds(addr, length)
	}
	return uint32(addr), nil
}

func (g *guestMemory) Read(addr uint64, length uint32) ([]byte, error) {
	off, err := g.offset(addr, length)
	if err != nil {
		return nil, err
	}
	view, ok := g.mem.Read(off, length)
	if !ok {
		return nil, errors.OutOfBounds(addr, length)
	}
	out := make([]byte, length)
	copy(out, view)
	return out, nil
}

func (g *guestMemory) Write(addr uint64, data []byte) error {
	off, err := g.offset(addr, uint32(len(data)))
	if err != nil {
		return err
	}
	if !g.mem.Write(off, data) {
		return errors.OutOfBounds(addr, uint32(len(data)))
	}
	return nil
}

func (g *guestMemory) ReadU8(addr uint64) (uint8, error) {
	off, err := g.offset(addr, 1)
	if err != nil {
		return 0, err
	}
	v, ok := g.mem.ReadByte(off)
	if !ok {
		return 0, errors.OutOfBounds(addr, 1)
	}
	return v, nil
}

func (g *guestMemory) ReadU16(addr uint64) (uint16, error) {
	off, err := g.offset(addr, 2)
	if err != nil {
		return 0, err
	}
	v, ok := g.mem.ReadUint16Le(off)
	if !ok {
		return 0, errors.OutOfBounds(addr, 2)
	}
	return v, nil
}

func (g *guestMemory) ReadU32(addr uint64) (uint32, error) {
	off, err := g.offset(addr, 4)
	if err != nil {
		return 0, err
	}
	v, ok := g.mem.ReadUint32Le(off)
	if !ok {
		return 0, errors.OutOfBounds(addr, 4)
	}
	return v, nil
}

func (g *guestMemory) ReadU64(addr uint64) (uint64, error) {
	off, err := g.offset(addr, 8)
	if err != nil {
		return 0, err
	}
	v, ok := g.mem.ReadUint64Le(off)
	if !ok {
		return 0, errors.OutOfBounds(addr, 8)
	}
	return v, nil
}

func (g *guestMemory) WriteU8(addr uint64, value uint8) error {
	off, err := g.offset(addr, 1)
	if err != nil {
		return err
	}
	if !g.mem.WriteByte(off, value) {
		return errors.OutOfBounds(addr, 1)
	}
	return nil
}

func (g *guestMemory) WriteU16(addr uint64, value uint16) error {
	off, err := g.offset(addr, 2)
	if err != nil {
		return err
	}
	if !g.mem.WriteUint16Le(off, value) {
		return errors.OutOfBounds(addr, 2)
	}
	return nil
}

func (g *guestMemory) WriteU32(addr uint64, value uint32) error {
	off, err := g.offset(addr, 4)
	if err != nil {
		return err
	}
	if !g.mem.WriteUint32Le(off, value) {
		return errors.OutOfBounds(addr, 4)
	}
	return nil
}

func (g *guestMemory) WriteU64(addr uint64, value uint64) error {
	off, err := g.offset(addr, 8)
	if err != nil {
		return err
	}
	if !g.mem.WriteUint64Le(off, value) {
		return errors.OutOfBounds(addr, 8)
	}
	return nil
}

// guestAllocator calls the guest's own malloc/free exports, so guest
// code can free what the host allocated and vice versa.
type guestAllocator struct {
	malloc api.Function
	free   api.Function
}

var _ ffiruntime.Allocator = (*guestAllocator)(nil)

func (a *guestAllocator) Alloc(size, align uint32) (uint64, error) {
	results, err := a.malloc.Call(context.Background(), uint64(size))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseMemory, errors.KindAllocation, err, "guest malloc")
	}
	if len(results) == 0 || results[0] == 0 {
		return 0, errors.AllocationFailed(size, align)
	}
	addr := results[0]
	if align > 1 && addr%uint64(align) != 0 {
		ffiruntime.Logger().Warn("guest malloc ignored alignment",
			zap.Uint64("addr", addr),
			zap.Uint32("align", align))
	}
	return addr, nil
}

func (a *guestAllocator) Free(addr uint64, size, align uint32) {
	if addr == 0 || a.free == nil {
		return
	}
	_, _ = a.free.Call(context.Background(), addr)
}
