// Package callback exposes Go functions to native code as function
// pointers.
//
// A registration pairs a declared signature with a Go closure:
//
//	r, err := callback.MakeDecl(factory, m, reg,
//		"int compare(void * a, void * b)",
//		func(args []any) (any, error) { ... })
//	qsort.Invoke(ctx, base, n, size, r)
//
// The trampoline unmarshals the incoming words per the declared
// parameter types, runs the closure, and marshals the result back.
// Failures cannot propagate into native code, so they surface as a zero
// return word plus the registration's error hook.
//
// Registrations are pinned in a package-level table until released;
// native code holds the function pointer as a raw integer the Go
// collector cannot trace.
package callback
