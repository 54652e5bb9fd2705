package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse    Phase = "parse"    // signature/declaration parsing
	PhaseBind     Phase = "bind"     // symbol resolution and binding
	PhaseMarshal  Phase = "marshal"  // value conversion across the boundary
	PhaseCall     Phase = "call"     // native invocation
	PhaseLayout   Phase = "layout"   // struct/array layout computation
	PhaseMemory   Phase = "memory"   // external memory access and lifetime
	PhaseCallback Phase = "callback" // trampoline entry/exit
	PhaseFinalize Phase = "finalize" // coordinator reclaim pass
)

// Kind categorizes the error
type Kind string

const (
	KindUnknownType       Kind = "unknown_type"
	KindDuplicateType     Kind = "duplicate_type"
	KindSymbolNotFound    Kind = "symbol_not_found"
	KindSignatureMismatch Kind = "signature_mismatch"
	KindCoercion          Kind = "coercion"
	KindIndexOutOfRange   Kind = "index_out_of_range"
	KindDoubleFree        Kind = "double_free"
	KindNestedCallback    Kind = "nested_callback"
	KindAllocation        Kind = "allocation"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindInvalidInput      Kind = "invalid_input"
	KindFieldUnknown      Kind = "field_unknown"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	GoType     string
	NativeType string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.NativeType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.NativeType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", native type ")
			b.WriteString(e.NativeType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("native type ")
			b.WriteString(e.NativeType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.NativeType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether err or anything in its chain is an *Error of the
// given kind, regardless of phase.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// NativeType sets the native type name
func (b *Builder) NativeType(t string) *Builder {
	b.err.NativeType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnknownType creates an unregistered type token error
func UnknownType(phase Phase, token string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindUnknownType,
		NativeType: token,
		Detail:     fmt.Sprintf("type %q is not registered", token),
	}
}

// DuplicateType creates a type registration collision error
func DuplicateType(name string) *Error {
	return &Error{
		Phase:      PhaseParse,
		Kind:       KindDuplicateType,
		NativeType: name,
		Detail:     fmt.Sprintf("type %q is already registered", name),
	}
}

// SymbolNotFound creates an unresolved symbol error
func SymbolNotFound(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseBind,
		Kind:   KindSymbolNotFound,
		Detail: fmt.Sprintf("symbol %q not exported by module", name),
		Cause:  cause,
	}
}

// SignatureMismatch creates a declared/actual arity disagreement error
func SignatureMismatch(symbol string, declared, actual int) *Error {
	return &Error{
		Phase:  PhaseBind,
		Kind:   KindSignatureMismatch,
		Detail: fmt.Sprintf("symbol %q takes %d parameter(s), signature declares %d", symbol, actual, declared),
	}
}

// Coercion creates an unrepresentable value error
func Coercion(path []string, value any, goType, nativeType string) *Error {
	return &Error{
		Phase:      PhaseMarshal,
		Kind:       KindCoercion,
		Path:       path,
		GoType:     goType,
		NativeType: nativeType,
		Detail:     fmt.Sprintf("value %v cannot be represented", value),
		Value:      value,
	}
}

// IndexOutOfRange creates an array index error
func IndexOutOfRange(path []string, index, count int) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindIndexOutOfRange,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of range (count %d)", index, count),
		Value:  index,
	}
}

// DoubleFree creates a repeated release error
func DoubleFree(addr uint64) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindDoubleFree,
		Detail: fmt.Sprintf("handle 0x%x already released", addr),
	}
}

// NestedCallback creates a trampoline re-entrancy error
func NestedCallback(name string) *Error {
	return &Error{
		Phase:  PhaseCallback,
		Kind:   KindNestedCallback,
		Detail: fmt.Sprintf("callback %q re-entered while still on the native stack", name),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(size, align uint32) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// OutOfBounds creates a memory range error
func OutOfBounds(addr uint64, length uint32) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("access of %d byte(s) at 0x%x outside backing store", length, addr),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// FieldUnknown creates an unknown struct field error
func FieldUnknown(structName, fieldName string) *Error {
	return &Error{
		Phase:      PhaseLayout,
		Kind:       KindFieldUnknown,
		NativeType: structName,
		Detail:     fmt.Sprintf("unknown field %q", fieldName),
	}
}

// ParseFailed creates a declaration parsing error
func ParseFailed(decl, detail string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidInput,
		Detail: fmt.Sprintf("parse %q: %s", decl, detail),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
