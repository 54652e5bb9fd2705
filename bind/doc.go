// Package bind turns C-like declarations into invocable bindings.
//
// A declaration is parsed once into a Signature, resolved against a
// module at bind time, and the resulting Binding is invoked any number
// of times:
//
//	binder := bind.NewBinder(mod, reg, mem, alloc)
//	b, err := binder.BindDecl("void * malloc(size_t size)")
//	ptr, err := b.Invoke(ctx, 128)
//
// Symbol lookup and arity validation happen at Bind, so invocation
// never discovers a missing or mismatched function. Marshalling errors
// remain per-call, because they depend on the argument values.
//
// Parameters carry either a name or a numeric literal. Literals are
// baked into the binding and never consume a call argument; named
// parameters take call arguments positionally, or by name through
// InvokeWithEnv.
package bind
