// Package ffiruntime provides a foreign-function interface core for Go:
// signature-driven native calls, bidirectional value marshalling, C struct
// layout, external memory handles, callbacks, and finalization.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	ffiruntime/          Root package with backend interfaces (Memory, Allocator,
//	                     Module, Symbol, CallbackFactory, ExternalObject)
//	├── types/           Type descriptor registry and C-like token parsing
//	├── marshal/         Value marshalling between Go values and native words
//	├── bind/            Signature declarations and callable bindings
//	├── layout/          C struct/array layout and field accessors
//	├── handle/          External memory handles with ownership tracking
//	├── callback/        Native-callable trampolines into Go functions
//	├── finalize/        GC-driven release of external resources
//	├── native/          purego backend (dlopen/dlsym, real native calls)
//	├── sandbox/         wazero backend (WASM guest as the "native" side)
//	├── manifest/        YAML binding manifests
//	├── errors/          Structured error types for debugging
//	└── ffitest/         In-process backend fakes for tests
//
// # Quick Start
//
// Open a library, declare a signature, call it:
//
//	lib, err := native.Open("libc.so.6")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reg := types.NewRegistry(types.HostPlatform())
//	binder := bind.NewBinder(lib, reg, native.Memory{}, native.Allocator{})
//	strlen, err := binder.BindDecl("size_t strlen(char * s)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := strlen.Invoke(ctx, "hello")
//	fmt.Println(result) // 5
//
// # Marshalling Rules
//
// Values cross the boundary by declared descriptor, matching C semantics:
//
//   - Integers truncate or sign-extend to the declared width using
//     two's-complement wraparound. Truncation is not an error.
//   - Arbitrary-precision integers that fit no native width at all fail
//     with a coercion error.
//   - Floats passed to integer descriptors truncate toward zero.
//   - Strings copy into a NUL-terminated transient buffer owned by the call.
//   - nil maps to the zero address for pointer descriptors.
//   - Return values are reinterpreted per the declared return descriptor
//     alone; a mismatched declaration yields whatever the raw bits imply.
//
// # Backends
//
// The core never talks to the ABI directly. The native package implements
// the backend interfaces with purego (dlopen/dlsym/SyscallN); the sandbox
// package implements them over a wazero module, treating guest exports and
// linear memory as the foreign side. Tests run against the ffitest fakes.
//
// # Concurrency
//
// Native calls are synchronous and blocking. Argument marshalling completes
// before the call begins; the call completes before return marshalling
// begins. Handles are not thread-safe; callers must serialize access to a
// given handle. In-flight native calls cannot be cancelled.
package ffiruntime
