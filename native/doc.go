// Package native backs the runtime with the process's own dynamic
// loader and C runtime, without cgo.
//
// Library loads shared objects through dlopen and resolves raw symbol
// addresses; Memory touches absolute process addresses; Allocator
// routes through libc malloc/free so ownership can cross the boundary
// in either direction; CallbackFactory mints C function pointers for Go
// trampolines.
//
// Two caveats come with the raw dispatch path. The loader exposes no
// arity information, so declarations against this backend are taken on
// faith. And floating-point arguments do not travel through SyscallN's
// integer registers on every port; bind float-taking functions only
// where the platform ABI passes them in integer registers, or keep them
// behind the sandbox backend.
//
// All supported targets are little-endian; Memory's fixed-width
// accessors assume as much.
package native
