// Package types provides the type descriptor registry: the mapping from
// C-like type tokens (`int`, `double`, `void *`, `size_t`, struct and
// opaque names, `T[N]` arrays) to native layout (size, alignment,
// signedness).
//
// A Registry is created for a Platform, which fixes the native word size.
// Primitive types are pre-populated; struct types register through the
// layout package and opaque types through RegisterOpaque. Resolving an
// unregistered token fails with an unknown_type error, registering a
// taken name with duplicate_type.
//
// Width-dependent types (long, size_t, pointers) are sized by the
// Platform value alone, so the same declarations produce 32-bit or 64-bit
// layouts depending on configuration rather than on the build target.
package types
