package finalize

import (
	"runtime"
	"testing"
	"time"

	"github.com/wippyai/ffi-runtime/ffitest"
	"github.com/wippyai/ffi-runtime/handle"
)

func waitReclaimed(t *testing.T, c *Coordinator) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for c.Pending() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("reclaim did not finish, %d pending", c.Pending())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestReclaimReleasesHandle(t *testing.T) {
	backend := ffitest.NewBackend(1024)
	col := &ffitest.Collector{}
	c := NewCoordinator(col)
	defer c.Close()

	h, err := handle.Allocate(backend, 32)
	if err != nil {
		t.Fatal(err)
	}
	owner := new(int)
	c.AutoRelease(owner, h)

	if c.Pending() != 1 {
		t.Fatalf("pending: got %d", c.Pending())
	}

	col.Collect()
	waitReclaimed(t, c)

	if !h.Released() {
		t.Error("handle not released by reclaim")
	}
	if len(backend.Frees) != 1 {
		t.Errorf("native frees: got %d, want 1", len(backend.Frees))
	}
}

// A handle may be its own owner. The coordinator must hold no reference
// to it, or it stays reachable forever and the collector never fires.
func TestSelfOwnedHandleReclaimed(t *testing.T) {
	backend := ffitest.NewBackend(1024)
	c := NewCoordinator(RuntimeCollector{})
	defer c.Close()

	addr := func() uint64 {
		h, err := handle.Allocate(backend, 32)
		if err != nil {
			t.Fatal(err)
		}
		c.AutoRelease(h, h)
		return h.Address()
	}()

	deadline := time.Now().Add(5 * time.Second)
	for c.Pending() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("self-owned handle never reclaimed, %d pending", c.Pending())
		}
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}
	if len(backend.Frees) != 1 || backend.Frees[0] != addr {
		t.Errorf("frees: %#v, want [%#x]", backend.Frees, addr)
	}
}

func TestSelfOwnedHandleWithManualCollector(t *testing.T) {
	backend := ffitest.NewBackend(1024)
	col := &ffitest.Collector{}
	c := NewCoordinator(col)
	defer c.Close()

	h, err := handle.Allocate(backend, 32)
	if err != nil {
		t.Fatal(err)
	}
	c.AutoRelease(h, h)

	col.Collect()
	waitReclaimed(t, c)
	if !h.Released() {
		t.Error("self-owned handle not released")
	}
}

func TestExplicitReleaseWinsOverReclaim(t *testing.T) {
	backend := ffitest.NewBackend(1024)
	col := &ffitest.Collector{}
	c := NewCoordinator(col)
	defer c.Close()

	h, _ := handle.Allocate(backend, 32)
	c.AutoRelease(new(int), h)

	if err := h.Release(); err != nil {
		t.Fatal(err)
	}

	// The later reclaim must not free a second time.
	col.Collect()
	waitReclaimed(t, c)
	if len(backend.Frees) != 1 {
		t.Errorf("native frees: got %d, want 1", len(backend.Frees))
	}
}

func TestAutoReleaseDeduplicates(t *testing.T) {
	backend := ffitest.NewBackend(1024)
	col := &ffitest.Collector{}
	c := NewCoordinator(col)
	defer c.Close()

	h, _ := handle.Allocate(backend, 32)
	owner := new(int)
	c.AutoRelease(owner, h)
	c.AutoRelease(owner, h)
	c.AutoRelease(owner, h)

	if c.Pending() != 1 {
		t.Errorf("pending after duplicate scheduling: got %d", c.Pending())
	}
	// Only one finalizer reached the collector.
	if col.Pending() != 1 {
		t.Errorf("collector finalizers: got %d", col.Pending())
	}
}

func TestObjectCleanupRunsBeforeRelease(t *testing.T) {
	backend := ffitest.NewBackend(1024)
	col := &ffitest.Collector{}
	c := NewCoordinator(col)
	defer c.Close()

	h, _ := handle.Allocate(backend, 32)
	var cleaned bool
	obj := NewObject(h, func() {
		if h.Released() {
			t.Error("cleanup must run before the handle is released")
		}
		cleaned = true
	})
	c.AutoRelease(new(int), obj)

	col.Collect()
	waitReclaimed(t, c)

	if !cleaned {
		t.Error("cleanup did not run")
	}
	if !h.Released() {
		t.Error("handle not released")
	}
}

func TestObjectCleanupSkippedAfterExplicitRelease(t *testing.T) {
	backend := ffitest.NewBackend(1024)

	h, _ := handle.Allocate(backend, 32)
	var cleaned int
	obj := NewObject(h, func() { cleaned++ })

	obj.Finalize()
	obj.Finalize()
	if cleaned != 1 {
		t.Errorf("cleanup ran %d times", cleaned)
	}
	if len(backend.Frees) != 1 {
		t.Errorf("native frees: got %d", len(backend.Frees))
	}
}

func TestCloseDrainsQueue(t *testing.T) {
	backend := ffitest.NewBackend(1024)
	col := &ffitest.Collector{}
	c := NewCoordinator(col)

	h, _ := handle.Allocate(backend, 32)
	c.AutoRelease(new(int), h)
	col.Collect()

	c.Close()
	waitReclaimed(t, c)
	if !h.Released() {
		t.Error("queued object lost across Close")
	}

	// Registrations after Close are refused.
	h2, _ := handle.Allocate(backend, 32)
	c.AutoRelease(new(int), h2)
	if c.Pending() != 0 {
		t.Error("AutoRelease accepted after Close")
	}
}
