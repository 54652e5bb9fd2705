package finalize

import (
	"runtime"
	"sync"

	"go.uber.org/zap"

	ffiruntime "github.com/wippyai/ffi-runtime"
)

// Collector abstracts the host garbage collector's finalization hook.
// Production code uses RuntimeCollector; tests trigger collection by
// hand.
type Collector interface {
	// RegisterFinalizer arranges for fn to run once owner becomes
	// unreachable. The owner is passed back into fn rather than captured:
	// a finalizer closure that references its own owner keeps the owner
	// reachable forever.
	RegisterFinalizer(owner any, fn func(owner any))
}

// RuntimeCollector registers finalizers with the Go runtime.
type RuntimeCollector struct{}

func (RuntimeCollector) RegisterFinalizer(owner any, fn func(any)) {
	runtime.SetFinalizer(owner, fn)
}

// Coordinator reclaims external resources whose Go owners were
// collected. Finalizers never release native memory directly; they
// enqueue the object, and a single reclaim goroutine performs the
// release off the collector's critical path.
//
// Explicit release always wins: an object released by hand before its
// owner dies simply produces a no-op reclaim later, because Finalize on
// an already-released handle does nothing.
type Coordinator struct {
	col Collector

	mu        sync.Mutex
	scheduled map[uint64]struct{}
	closed    bool

	events chan ffiruntime.ExternalObject
	done   chan struct{}
}

// NewCoordinator starts a coordinator over the given collector.
func NewCoordinator(col Collector) *Coordinator {
	c := &Coordinator{
		col:       col,
		scheduled: make(map[uint64]struct{}),
		events:    make(chan ffiruntime.ExternalObject, 64),
		done:      make(chan struct{}),
	}
	go c.reclaim()
	return c
}

// AutoRelease ties obj's lifetime to owner: when owner becomes
// unreachable, obj is finalized. Scheduling an address twice is a
// no-op, so wrapping constructors can call it unconditionally.
//
// An object may own itself (AutoRelease(h, h)). The coordinator holds
// no reference to a self-owned object: the dedup set keys by native
// address and the registered finalizer receives the owner instead of
// closing over it, so the only thing keeping the object alive is the
// caller.
func (c *Coordinator) AutoRelease(owner any, obj ffiruntime.ExternalObject) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	addr := obj.NativeAddress()
	if _, ok := c.scheduled[addr]; ok {
		c.mu.Unlock()
		return
	}
	c.scheduled[addr] = struct{}{}
	c.mu.Unlock()

	if owner == any(obj) {
		c.col.RegisterFinalizer(owner, func(o any) {
			c.enqueue(o.(ffiruntime.ExternalObject))
		})
		return
	}
	c.col.RegisterFinalizer(owner, func(any) { c.enqueue(obj) })
}

// enqueue hands the object to the reclaim goroutine. After Close the
// queue is gone, so the release runs inline on the finalizer goroutine
// rather than leaking the resource.
func (c *Coordinator) enqueue(obj ffiruntime.ExternalObject) {
	select {
	case <-c.done:
		c.finalizeOne(obj)
	case c.events <- obj:
	}
}

func (c *Coordinator) reclaim() {
	for {
		select {
		case obj := <-c.events:
			c.finalizeOne(obj)
		case <-c.done:
			// Drain whatever was queued before shutdown.
			for {
				select {
				case obj := <-c.events:
					c.finalizeOne(obj)
				default:
					return
				}
			}
		}
	}
}

func (c *Coordinator) finalizeOne(obj ffiruntime.ExternalObject) {
	addr := obj.NativeAddress()
	ffiruntime.Logger().Debug("reclaiming external object",
		zap.Uint64("addr", addr))
	obj.Finalize()

	// Unschedule after the release, so Pending only drops once the
	// resource is actually gone.
	c.mu.Lock()
	delete(c.scheduled, addr)
	c.mu.Unlock()
}

// Pending reports how many objects are scheduled and not yet reclaimed.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.scheduled)
}

// Close stops accepting new registrations and shuts down the reclaim
// goroutine. Finalizers that fire later release their objects inline.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	close(c.done)
}
