package handle

import (
	"sync/atomic"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
)

// Policy determines what Release does with the underlying memory.
type Policy uint8

const (
	// ReleaseNone leaves the memory alone; the handle only borrows it.
	ReleaseNone Policy = iota
	// ReleaseFree returns the memory to the allocator that produced it.
	ReleaseFree
	// ReleaseCustom runs a resource-specific release function.
	ReleaseCustom
)

// Handle wraps a native address with explicit ownership. Address 0 is
// the canonical null sentinel and is never dereferenced.
//
// A handle is not thread-safe: concurrent Release from two goroutines is
// a caller bug that this type reduces to a double_free error at best.
type Handle struct {
	addr     uint64
	size     uint32
	align    uint32
	policy   Policy
	alloc    ffiruntime.Allocator
	custom   func(addr uint64)
	released atomic.Bool
}

var _ ffiruntime.ExternalObject = (*Handle)(nil)

// Allocate obtains size bytes of native memory and returns an owned
// handle that frees it on release.
func Allocate(alloc ffiruntime.Allocator, size uint32) (*Handle, error) {
	return AllocateAligned(alloc, size, 1)
}

// AllocateAligned is Allocate with an explicit alignment, for composite
// types with stricter requirements.
func AllocateAligned(alloc ffiruntime.Allocator, size, align uint32) (*Handle, error) {
	addr, err := alloc.Alloc(size, align)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseMemory, errors.KindAllocation, err, "allocate handle")
	}
	return &Handle{
		addr:   addr,
		size:   size,
		align:  align,
		policy: ReleaseFree,
		alloc:  alloc,
	}, nil
}

// WrapBorrowed wraps an address the caller does not own. Release is a
// no-op, including for the null address.
func WrapBorrowed(addr uint64) *Handle {
	return &Handle{addr: addr, policy: ReleaseNone}
}

// AdoptOwned wraps an address whose ownership transfers to the handle,
// released through a resource-specific function rather than a raw free.
func AdoptOwned(addr uint64, release func(addr uint64)) *Handle {
	return &Handle{addr: addr, policy: ReleaseCustom, custom: release}
}

// Address returns the wrapped native address.
func (h *Handle) Address() uint64 {
	return h.addr
}

// NativeAddress implements ffiruntime.ExternalObject.
func (h *Handle) NativeAddress() uint64 {
	return h.addr
}

// IsNull reports whether the handle wraps the zero address sentinel.
func (h *Handle) IsNull() bool {
	return h.addr == 0
}

// Owned reports whether releasing the handle releases native memory.
func (h *Handle) Owned() bool {
	return h.policy != ReleaseNone
}

// Released reports whether the handle has been released.
func (h *Handle) Released() bool {
	return h.released.Load()
}

// Release releases the underlying memory per the handle's policy. The
// native allocator does not tolerate repeated frees, so a second release
// of an owned handle fails with a double_free error instead of reaching
// the allocator. Releasing a borrowed handle is always a no-op.
func (h *Handle) Release() error {
	if h.policy == ReleaseNone {
		return nil
	}
	if !h.released.CompareAndSwap(false, true) {
		return errors.DoubleFree(h.addr)
	}
	switch h.policy {
	case ReleaseFree:
		if h.addr != 0 {
			h.alloc.Free(h.addr, h.size, h.align)
		}
	case ReleaseCustom:
		if h.custom != nil {
			h.custom(h.addr)
		}
	}
	return nil
}

// Finalize implements ffiruntime.ExternalObject for the finalization
// coordinator. The coordinator deduplicates scheduling, so a double_free
// here means an explicit Release already ran; that is not an error on
// the reclaim path.
func (h *Handle) Finalize() {
	_ = h.Release()
}
