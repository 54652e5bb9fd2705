// Package ffitest provides in-process fakes of the backend interfaces:
// a byte-slice backed Memory with a bump allocator, a Module whose
// symbols are Go closures, a CallbackFactory that records trampolines,
// and a manually triggered Collector. Tests across the library run
// against these fakes so no real native library or WASM guest is needed.
package ffitest
