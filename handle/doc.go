// Package handle represents native memory addresses and opaque resources
// with explicit ownership.
//
// Three ownership shapes exist, chosen at creation time:
//
//	Allocate(alloc, size)        owned, freed on release
//	WrapBorrowed(addr)           borrowed, release is a no-op
//	AdoptOwned(addr, release)    owned, released by a custom function
//
// A released flag guards against repeated release: the native allocator
// makes no idempotency promise, so the second release of an owned handle
// fails with a double_free error rather than invoking native free twice.
//
// Reading and writing through a handle goes through layout.Accessor with
// an explicit offset and type descriptor. The library does no bounds
// tracking for those accesses; out-of-bounds handle access is undefined
// at the native level, exactly as it is in C.
package handle
