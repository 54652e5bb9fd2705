package finalize

import (
	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/handle"
)

// Object pairs a memory handle with a resource-specific cleanup step,
// for external resources that need more than a free, like a FILE* that
// must be fclosed.
type Object struct {
	h       *handle.Handle
	cleanup func()
}

var _ ffiruntime.ExternalObject = (*Object)(nil)

// NewObject wraps a handle. cleanup, if non-nil, runs before the handle
// is released.
func NewObject(h *handle.Handle, cleanup func()) *Object {
	return &Object{h: h, cleanup: cleanup}
}

// Handle returns the underlying memory handle.
func (o *Object) Handle() *handle.Handle {
	return o.h
}

// NativeAddress implements ffiruntime.ExternalObject.
func (o *Object) NativeAddress() uint64 {
	return o.h.NativeAddress()
}

// Finalize implements ffiruntime.ExternalObject.
func (o *Object) Finalize() {
	if o.cleanup != nil && !o.h.Released() {
		o.cleanup()
	}
	o.h.Finalize()
}
