//go:build darwin || freebsd || linux

package native

import (
	"context"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
)

// Library is a dynamically loaded native library. It implements
// ffiruntime.Module over the platform dynamic loader.
type Library struct {
	path   string
	handle uintptr
}

var _ ffiruntime.Module = (*Library)(nil)

// Open loads the library at path. Symbols stay local; libraries that
// need their exports visible to later loads should be opened by the
// process, not through here.
func Open(path string) (*Library, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseBind, errors.KindInvalidInput, err, "open library "+path)
	}
	ffiruntime.Logger().Debug("opened native library", zap.String("path", path))
	return &Library{path: path, handle: h}, nil
}

// Path returns the path the library was opened from.
func (l *Library) Path() string {
	return l.path
}

// Symbol resolves an exported function. The dynamic loader exposes no
// parameter counts, so the returned symbol reports unknown arity and
// declarations go unchecked.
func (l *Library) Symbol(name string) (ffiruntime.Symbol, error) {
	addr, err := purego.Dlsym(l.handle, name)
	if err != nil || addr == 0 {
		return nil, errors.SymbolNotFound(name, err)
	}
	return &symbol{name: name, addr: addr}, nil
}

// Close unloads the library. Existing symbols and function pointers
// into it become invalid.
func (l *Library) Close() error {
	if l.handle == 0 {
		return nil
	}
	err := purego.Dlclose(l.handle)
	l.handle = 0
	if err != nil {
		return errors.Wrap(errors.PhaseBind, errors.KindInvalidInput, err, "close library "+l.path)
	}
	return nil
}

type symbol struct {
	name string
	addr uintptr
}

var _ ffiruntime.Symbol = (*symbol)(nil)

// Invoke dispatches through the C calling convention. Integer and
// pointer words pass through registers as-is; float arguments are not
// supported on this path because SyscallN does not place them in
// floating-point registers on all ports.
func (s *symbol) Invoke(ctx context.Context, words []uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(words) > maxSyscallArgs {
		return 0, errors.InvalidInput(errors.PhaseCall,
			s.name+": too many arguments for the native dispatcher")
	}
	args := make([]uintptr, len(words))
	for i, w := range words {
		args[i] = uintptr(w)
	}
	r1, _, _ := purego.SyscallN(s.addr, args...)
	return uint64(r1), nil
}

const maxSyscallArgs = 15

func (s *symbol) Arity() (int, bool) {
	return 0, false
}
