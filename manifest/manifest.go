package manifest

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/ffi-runtime/bind"
	"github.com/wippyai/ffi-runtime/errors"
	"github.com/wippyai/ffi-runtime/layout"
	"github.com/wippyai/ffi-runtime/types"
)

// Manifest declares a library's FFI surface in one document: the
// library to load, opaque types, struct layouts, and the function
// declarations to bind.
type Manifest struct {
	Library   string       `yaml:"library"`
	Opaque    []string     `yaml:"opaque,omitempty"`
	Structs   []StructDecl `yaml:"structs,omitempty"`
	Functions []string     `yaml:"functions,omitempty"`
}

// StructDecl declares one struct layout as ordered (type, name) fields.
type StructDecl struct {
	Name   string      `yaml:"name"`
	Fields []FieldDecl `yaml:"fields"`
}

type FieldDecl struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidInput, err, "read manifest "+path)
	}
	return Parse(data)
}

// Parse parses manifest YAML.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidInput, err, "parse manifest")
	}
	if m.Library == "" {
		return nil, errors.InvalidInput(errors.PhaseParse, "manifest declares no library")
	}
	return &m, nil
}

// Apply registers the manifest's opaque and struct types. Structs
// register in declaration order, so later structs can embed earlier
// ones.
func (m *Manifest) Apply(reg *types.Registry) error {
	for _, name := range m.Opaque {
		if _, err := reg.RegisterOpaque(name); err != nil {
			return err
		}
	}
	for _, s := range m.Structs {
		defs := make([]layout.FieldDef, len(s.Fields))
		for i, f := range s.Fields {
			defs[i] = layout.FieldDef{Type: f.Type, Name: f.Name}
		}
		if _, err := layout.Compute(reg, s.Name, defs); err != nil {
			return err
		}
	}
	return nil
}

// Bind applies the manifest's types to the binder's registry and binds
// every declared function, keyed by symbol name.
func (m *Manifest) Bind(binder *bind.Binder) (map[string]*bind.Binding, error) {
	if err := m.Apply(binder.Registry()); err != nil {
		return nil, err
	}
	out := make(map[string]*bind.Binding, len(m.Functions))
	for _, decl := range m.Functions {
		b, err := binder.BindDecl(decl)
		if err != nil {
			return nil, err
		}
		out[b.Signature().Symbol] = b
	}
	return out, nil
}
