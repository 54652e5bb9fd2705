// Package errors provides structured error types for the ffi-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: field path, Go/native type
// names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMarshal, errors.KindCoercion).
//		Path("args", "size").
//		GoType("string").
//		NativeType("uint32").
//		Detail("cannot convert string to integer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownType(errors.PhaseParse, "quaternion")
//	err := errors.IndexOutOfRange(path, 100, 100)
//
// Binding-time kinds (unknown_type, symbol_not_found, signature_mismatch)
// surface at Bind, before any native call executes. Per-call kinds (coercion,
// index_out_of_range, double_free, nested_callback) surface at the offending
// invocation. Nothing is retried or swallowed internally.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
