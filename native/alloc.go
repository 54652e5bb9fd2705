//go:build darwin || freebsd || linux

package native

import (
	"sync"

	"github.com/ebitengine/purego"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
)

var libc struct {
	once sync.Once
	err  error

	malloc       func(size uint64) uintptr
	free         func(ptr uintptr)
	alignedAlloc func(align, size uint64) uintptr
}

func loadLibc() error {
	libc.once.Do(func() {
		h, err := purego.Dlopen(libcPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			libc.err = errors.Wrap(errors.PhaseMemory, errors.KindAllocation, err, "load C runtime")
			return
		}
		purego.RegisterLibFunc(&libc.malloc, h, "malloc")
		purego.RegisterLibFunc(&libc.free, h, "free")
		purego.RegisterLibFunc(&libc.alignedAlloc, h, "aligned_alloc")
	})
	return libc.err
}

// Allocator allocates native memory through the C runtime's malloc and
// free, so buffers produced here can be freed by native code and vice
// versa.
type Allocator struct{}

var _ ffiruntime.Allocator = Allocator{}

// mallocAlign is the alignment malloc already guarantees.
const mallocAlign = 16

func (Allocator) Alloc(size, align uint32) (uint64, error) {
	if err := loadLibc(); err != nil {
		return 0, err
	}
	if size == 0 {
		size = 1
	}

	var ptr uintptr
	if align > mallocAlign {
		// aligned_alloc requires the size to be a multiple of the
		// alignment.
		sz := (uint64(size) + uint64(align) - 1) &^ (uint64(align) - 1)
		ptr = libc.alignedAlloc(uint64(align), sz)
	} else {
		ptr = libc.malloc(uint64(size))
	}
	if ptr == 0 {
		return 0, errors.AllocationFailed(size, align)
	}
	return uint64(ptr), nil
}

func (Allocator) Free(addr uint64, size, align uint32) {
	if addr == 0 || loadLibc() != nil {
		return
	}
	libc.free(uintptr(addr))
}
