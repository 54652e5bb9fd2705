package types

import (
	"sync"

	"github.com/wippyai/ffi-runtime/errors"
)

// Registry maps type tokens to descriptors. Platform primitives are
// pre-populated; struct and opaque types register dynamically as user
// composites are declared.
type Registry struct {
	platform Platform
	mu       sync.RWMutex
	byName   map[string]*Descriptor
	derived  map[string]*Descriptor
}

// NewRegistry creates a registry pre-populated with the platform's
// primitive types.
func NewRegistry(p Platform) *Registry {
	r := &Registry{
		platform: p,
		byName:   make(map[string]*Descriptor),
		derived:  make(map[string]*Descriptor),
	}
	r.populatePrimitives()
	return r
}

// Platform returns the registry's word-size configuration.
func (r *Registry) Platform() Platform {
	return r.platform
}

// Register adds a named descriptor. It fails with a duplicate_type error
// when the name is already taken, including by a primitive.
func (r *Registry) Register(d *Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[d.Name]; ok {
		return errors.DuplicateType(d.Name)
	}
	r.byName[d.Name] = d
	return nil
}

// RegisterOpaque registers a named opaque type. Opaque types have hidden
// layout; they are incomplete (size 0) and only usable behind a pointer.
func (r *Registry) RegisterOpaque(name string) (*Descriptor, error) {
	d := &Descriptor{Name: name, Kind: KindOpaque, Size: 0, Align: 1}
	if err := r.Register(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Resolve maps a C-like type token to its descriptor. Pointer suffixes
// (`T *`) and fixed-array suffixes (`T[N]`) derive from the base type;
// `char *` resolves to the text-pointer descriptor. Unregistered tokens
// fail with an unknown_type error.
func (r *Registry) Resolve(token string) (*Descriptor, error) {
	norm := normalizeToken(token)
	if norm == "" {
		return nil, errors.UnknownType(errors.PhaseParse, token)
	}

	r.mu.RLock()
	if d, ok := r.byName[norm]; ok {
		r.mu.RUnlock()
		return d, nil
	}
	if d, ok := r.derived[norm]; ok {
		r.mu.RUnlock()
		return d, nil
	}
	r.mu.RUnlock()

	d, err := r.deriveLocked(norm, token)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.derived[norm] = d
	r.mu.Unlock()
	return d, nil
}

func (r *Registry) deriveLocked(norm, original string) (*Descriptor, error) {
	if elemTok, count, ok, err := splitArraySuffix(norm, original); err != nil {
		return nil, err
	} else if ok {
		elem, err := r.Resolve(elemTok)
		if err != nil {
			return nil, err
		}
		return Array(elem, count), nil
	}

	base, stars := splitPointerSuffix(norm)
	if stars == 0 {
		return nil, errors.UnknownType(errors.PhaseParse, original)
	}

	if base == "char" && stars == 1 {
		return r.mustResolvePrimitive("char *"), nil
	}

	elem, err := r.Resolve(base + pointerSuffix(stars-1))
	if err != nil {
		return nil, err
	}
	return &Descriptor{
		Name:  norm,
		Kind:  KindPointer,
		Size:  r.platform.PointerSize,
		Align: r.platform.PointerSize,
		Elem:  elem,
	}, nil
}

func (r *Registry) mustResolvePrimitive(name string) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

func (r *Registry) populatePrimitives() {
	ptr := r.platform.PointerSize

	add := func(name string, kind Kind, size uint32) *Descriptor {
		align := size
		if align == 0 {
			align = 1
		}
		d := &Descriptor{Name: name, Kind: kind, Size: size, Align: align}
		r.byName[name] = d
		return d
	}
	alias := func(name string, d *Descriptor) {
		r.byName[name] = d
	}

	add("void", KindVoid, 0)
	add("bool", KindUint, 1)

	i8 := add("int8", KindInt, 1)
	i16 := add("int16", KindInt, 2)
	i32 := add("int32", KindInt, 4)
	i64 := add("int64", KindInt, 8)
	u8 := add("uint8", KindUint, 1)
	u16 := add("uint16", KindUint, 2)
	u32 := add("uint32", KindUint, 4)
	u64 := add("uint64", KindUint, 8)

	alias("char", i8)
	alias("signed char", i8)
	alias("unsigned char", u8)
	alias("short", i16)
	alias("signed short", i16)
	alias("unsigned short", u16)
	alias("int", i32)
	alias("signed int", i32)
	alias("unsigned int", u32)
	alias("uint", u32)
	alias("long long", i64)
	alias("unsigned long long", u64)

	// LP64: long and size_t follow the platform word size.
	sizedInt := i64
	sizedUint := u64
	if ptr == 4 {
		sizedInt = i32
		sizedUint = u32
	}
	alias("long", sizedInt)
	alias("unsigned long", sizedUint)
	alias("ulong", sizedUint)
	alias("size_t", sizedUint)
	alias("ssize_t", sizedInt)
	alias("intptr_t", sizedInt)
	alias("uintptr_t", sizedUint)

	add("float", KindFloat, 4)
	add("double", KindFloat, 8)

	voidPtr := &Descriptor{Name: "void *", Kind: KindPointer, Size: ptr, Align: ptr}
	r.byName["void *"] = voidPtr
	alias("pointer", voidPtr)

	charPtr := &Descriptor{Name: "char *", Kind: KindString, Size: ptr, Align: ptr}
	r.byName["char *"] = charPtr
	alias("string", charPtr)
}
