package ffitest

import (
	"context"
	"encoding/binary"
	"sync"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
)

// BaseAddr is the address of the first byte of a Backend's store. It is
// nonzero so address 0 keeps its null-sentinel meaning in tests.
const BaseAddr uint64 = 0x1000

// Backend implements Memory and Allocator over a Go byte slice with a
// bump allocator. It records frees so tests can assert release behavior.
type Backend struct {
	mu    sync.Mutex
	buf   []byte
	next  uint64
	Frees []uint64

	// FailAlloc makes every subsequent Alloc fail.
	FailAlloc bool
}

var _ ffiruntime.Memory = (*Backend)(nil)
var _ ffiruntime.Allocator = (*Backend)(nil)

// NewBackend creates a fake backing store of the given size.
func NewBackend(size uint32) *Backend {
	return &Backend{
		buf:  make([]byte, size),
		next: BaseAddr,
	}
}

// Alloc carves size bytes out of the store, aligned to align.
func (b *Backend) Alloc(size, align uint32) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailAlloc {
		return 0, errors.AllocationFailed(size, align)
	}
	addr := b.next
	if align > 1 {
		a := uint64(align)
		addr = (addr + a - 1) &^ (a - 1)
	}
	if addr+uint64(size) > BaseAddr+uint64(len(b.buf)) {
		return 0, errors.AllocationFailed(size, align)
	}
	b.next = addr + uint64(size)
	return addr, nil
}

// Free records the release. The bump allocator never reuses memory.
func (b *Backend) Free(addr uint64, size, align uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Frees = append(b.Frees, addr)
}

func (b *Backend) slice(addr uint64, length uint32) ([]byte, error) {
	if addr < BaseAddr || addr+uint64(length) > BaseAddr+uint64(len(b.buf)) {
		return nil, errors.OutOfBounds(addr, length)
	}
	off := addr - BaseAddr
	return b.buf[off : off+uint64(length)], nil
}

func (b *Backend) Read(addr uint64, length uint32) ([]byte, error) {
	s, err := b.slice(addr, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, s)
	return out, nil
}

func (b *Backend) Write(addr uint64, data []byte) error {
	s, err := b.slice(addr, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(s, data)
	return nil
}

func (b *Backend) ReadU8(addr uint64) (uint8, error) {
	s, err := b.slice(addr, 1)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

func (b *Backend) ReadU16(addr uint64) (uint16, error) {
	s, err := b.slice(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s), nil
}

func (b *Backend) ReadU32(addr uint64) (uint32, error) {
	s, err := b.slice(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s), nil
}

func (b *Backend) ReadU64(addr uint64) (uint64, error) {
	s, err := b.slice(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(s), nil
}

func (b *Backend) WriteU8(addr uint64, value uint8) error {
	s, err := b.slice(addr, 1)
	if err != nil {
		return err
	}
	s[0] = value
	return nil
}

func (b *Backend) WriteU16(addr uint64, value uint16) error {
	s, err := b.slice(addr, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(s, value)
	return nil
}

func (b *Backend) WriteU32(addr uint64, value uint32) error {
	s, err := b.slice(addr, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(s, value)
	return nil
}

func (b *Backend) WriteU64(addr uint64, value uint64) error {
	s, err := b.slice(addr, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(s, value)
	return nil
}

// Symbol is a fake native entry point backed by a Go closure.
type Symbol struct {
	Fn     func(words []uint64) uint64
	NArgs  int
	Sized  bool // whether Arity is known
	Calls  int
	Frames [][]uint64
}

var _ ffiruntime.Symbol = (*Symbol)(nil)

func (s *Symbol) Invoke(ctx context.Context, words []uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.Calls++
	frame := make([]uint64, len(words))
	copy(frame, words)
	s.Frames = append(s.Frames, frame)
	return s.Fn(words), nil
}

func (s *Symbol) Arity() (int, bool) {
	return s.NArgs, s.Sized
}

// Module is a fake library exporting closure-backed symbols.
type Module struct {
	Symbols map[string]*Symbol
}

var _ ffiruntime.Module = (*Module)(nil)

func NewModule() *Module {
	return &Module{Symbols: make(map[string]*Symbol)}
}

// Export registers a closure as a symbol with known arity.
func (m *Module) Export(name string, arity int, fn func(words []uint64) uint64) *Symbol {
	s := &Symbol{Fn: fn, NArgs: arity, Sized: true}
	m.Symbols[name] = s
	return s
}

// ExportOpaque registers a closure whose arity the module cannot report,
// like a raw dlsym'd address.
func (m *Module) ExportOpaque(name string, fn func(words []uint64) uint64) *Symbol {
	s := &Symbol{Fn: fn}
	m.Symbols[name] = s
	return s
}

func (m *Module) Symbol(name string) (ffiruntime.Symbol, error) {
	s, ok := m.Symbols[name]
	if !ok {
		return nil, errors.SymbolNotFound(name, nil)
	}
	return s, nil
}

// CallbackFactory records trampolines and lets tests drive them as if
// native code were calling in.
type CallbackFactory struct {
	fns []func(words []uint64) uint64
}

var _ ffiruntime.CallbackFactory = (*CallbackFactory)(nil)

// callbackBase tags fake function pointers so stray addresses are caught.
const callbackBase uint64 = 0xCB000000

func (f *CallbackFactory) NewCallback(arity int, fn func(words []uint64) uint64) (uint64, error) {
	f.fns = append(f.fns, fn)
	return callbackBase + uint64(len(f.fns)-1), nil
}

// Call invokes a previously created trampoline from the "native" side.
func (f *CallbackFactory) Call(fnptr uint64, words []uint64) (uint64, error) {
	idx := fnptr - callbackBase
	if idx >= uint64(len(f.fns)) {
		return 0, errors.InvalidInput(errors.PhaseCallback, "unknown fake function pointer")
	}
	return f.fns[idx](words), nil
}

// Collector is a manually triggered stand-in for the host GC's
// finalization mechanism.
type Collector struct {
	mu         sync.Mutex
	finalizers []finalizer
}

type finalizer struct {
	owner any
	fn    func(owner any)
}

func (c *Collector) RegisterFinalizer(owner any, fn func(owner any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finalizers = append(c.finalizers, finalizer{owner: owner, fn: fn})
}

// Collect runs every registered finalizer once, simulating the owners
// becoming unreachable. Like the runtime, it hands the owner back to
// the finalizer.
func (c *Collector) Collect() {
	c.mu.Lock()
	fns := c.finalizers
	c.finalizers = nil
	c.mu.Unlock()
	for _, f := range fns {
		f.fn(f.owner)
	}
}

// Pending returns the number of finalizers not yet run.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.finalizers)
}
