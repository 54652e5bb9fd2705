// Package sandbox backs the runtime with a WASM guest instead of the
// process's own address space.
//
// An instantiated wazero module wraps into the same Module, Memory, and
// Allocator interfaces the native backend implements, so bindings and
// accessors work identically; the difference is that a bad pointer
// traps the guest instead of faulting the process. Guest pointers are
// 32-bit, so registries for this backend should use types.Platform32.
//
//	inst := sandbox.Wrap(mod)
//	binder := bind.NewBinder(inst, types.NewRegistry(types.Platform32),
//		inst.Memory(), inst.Allocator())
package sandbox
