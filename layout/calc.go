package layout

import (
	"github.com/wippyai/ffi-runtime/errors"
	"github.com/wippyai/ffi-runtime/internal/abi"
	"github.com/wippyai/ffi-runtime/types"
)

// Field is one named member of a computed struct layout.
type Field struct {
	Name   string
	Type   *types.Descriptor
	Offset uint32
}

// Struct is a computed composite layout: ordered fields with offsets
// that respect each field's alignment, total size rounded up to the
// largest field alignment. This reproduces standard C struct layout;
// there is no packing support.
type Struct struct {
	name   string
	fields []Field
	byName map[string]int
	size   uint32
	align  uint32
	desc   *types.Descriptor
}

// FieldSpec declares one field for layout computation.
type FieldSpec struct {
	Name string
	Type *types.Descriptor
}

// FieldDef declares one field by type token, as read from an external
// struct description.
type FieldDef struct {
	Type string
	Name string
}

// ComputeLayout lays out the fields in declaration order: each offset is
// the running offset rounded up to the field's alignment; the total size
// is the final offset rounded up to the maximum field alignment.
func ComputeLayout(name string, specs []FieldSpec) (*Struct, error) {
	if len(specs) == 0 {
		return nil, errors.InvalidInput(errors.PhaseLayout, "struct has no fields")
	}

	s := &Struct{
		name:   name,
		fields: make([]Field, 0, len(specs)),
		byName: make(map[string]int, len(specs)),
		align:  1,
	}

	offset := uint32(0)
	for _, spec := range specs {
		if _, dup := s.byName[spec.Name]; dup {
			return nil, errors.New(errors.PhaseLayout, errors.KindInvalidInput).
				NativeType(name).
				Detail("duplicate field %q", spec.Name).
				Build()
		}
		if spec.Type.Size == 0 {
			return nil, errors.New(errors.PhaseLayout, errors.KindInvalidInput).
				NativeType(name).
				Detail("field %q has incomplete type %s", spec.Name, spec.Type.Name).
				Build()
		}

		offset = abi.AlignTo(offset, spec.Type.Align)
		s.byName[spec.Name] = len(s.fields)
		s.fields = append(s.fields, Field{
			Name:   spec.Name,
			Type:   spec.Type,
			Offset: offset,
		})

		if spec.Type.Align > s.align {
			s.align = spec.Type.Align
		}
		offset += spec.Type.Size
	}

	s.size = abi.AlignTo(offset, s.align)
	s.desc = &types.Descriptor{
		Name:  name,
		Kind:  types.KindStruct,
		Size:  s.size,
		Align: s.align,
	}
	return s, nil
}

// Compute resolves field type tokens against the registry, computes the
// layout, and registers the struct descriptor under its name.
func Compute(reg *types.Registry, name string, defs []FieldDef) (*Struct, error) {
	specs := make([]FieldSpec, 0, len(defs))
	for _, def := range defs {
		d, err := reg.Resolve(def.Type)
		if err != nil {
			return nil, err
		}
		specs = append(specs, FieldSpec{Name: def.Name, Type: d})
	}
	s, err := ComputeLayout(name, specs)
	if err != nil {
		return nil, err
	}
	if err := reg.Register(s.desc); err != nil {
		return nil, err
	}
	return s, nil
}

// Name returns the struct's type name.
func (s *Struct) Name() string {
	return s.name
}

// Size returns the total struct size, padding included.
func (s *Struct) Size() uint32 {
	return s.size
}

// Align returns the struct's alignment.
func (s *Struct) Align() uint32 {
	return s.align
}

// Fields returns the fields in declaration order.
func (s *Struct) Fields() []Field {
	return s.fields
}

// Field looks up a field by name.
func (s *Struct) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Descriptor returns the struct's type descriptor.
func (s *Struct) Descriptor() *types.Descriptor {
	return s.desc
}
