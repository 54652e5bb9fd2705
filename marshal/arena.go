package marshal

import (
	"sync"

	ffiruntime "github.com/wippyai/ffi-runtime"
)

type allocation struct {
	addr  uint64
	size  uint32
	align uint32
}

// Arena tracks the transient native buffers one call owns, such as
// NUL-terminated string copies. Buffers are released together when the
// call returns.
type Arena struct {
	allocations []allocation
}

var arenaPool = sync.Pool{
	New: func() any {
		return &Arena{allocations: make([]allocation, 0, 8)}
	},
}

// NewArena fetches a pooled arena.
func NewArena() *Arena {
	return arenaPool.Get().(*Arena)
}

const maxPooledArenaCapacity = 128

// Release returns to pool. Must call after Free; arena invalid after Release.
func (a *Arena) Release() {
	// Only pool small arenas to prevent memory bloat
	if cap(a.allocations) > maxPooledArenaCapacity {
		return
	}
	a.Reset()
	arenaPool.Put(a)
}

// FreeAndRelease frees every tracked buffer and returns the arena to the
// pool.
func (a *Arena) FreeAndRelease(alloc ffiruntime.Allocator) {
	a.Free(alloc)
	a.Release()
}

func (a *Arena) Add(addr uint64, size, align uint32) {
	a.allocations = append(a.allocations, allocation{
		addr:  addr,
		size:  size,
		align: align,
	})
}

func (a *Arena) Free(alloc ffiruntime.Allocator) {
	if alloc == nil {
		return
	}
	for _, al := range a.allocations {
		if al.addr != 0 {
			alloc.Free(al.addr, al.size, al.align)
		}
	}
	a.allocations = a.allocations[:0]
}

func (a *Arena) Reset() {
	a.allocations = a.allocations[:0]
}

func (a *Arena) Count() int {
	return len(a.allocations)
}
