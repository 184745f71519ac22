package schema

import (
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/refset/internal/value"
)

// PrimaryKey is the name of the identifier attribute.
const PrimaryKey = "id"

// ReservedField is the only field name that may not be declared.
const ReservedField = "attributes"

// ReservedFieldError is returned when declaring the reserved field name.
type ReservedFieldError struct {
	Field string
}

func (e *ReservedFieldError) Error() string {
	return fmt.Sprintf("%s is a reserved field, please use another name", e.Field)
}

// Accessor is a set of hand-written bindings for one field.
// Nil members fall back to the generated binding.
type Accessor struct {
	Get     func(attrs map[string]any) any
	Set     func(attrs map[string]any, v any)
	Present func(attrs map[string]any) bool
}

// Field is one entry of the descriptor table.
type Field struct {
	Name       string
	Default    any
	HasDefault bool

	get     func(attrs map[string]any) any
	set     func(attrs map[string]any, v any)
	present func(attrs map[string]any) bool
}

// Get reads the field from attrs, falling back to the default when the
// attribute is missing or nil.
func (f *Field) Get(attrs map[string]any) any {
	return f.get(attrs)
}

// Set assigns v into attrs.
func (f *Field) Set(attrs map[string]any, v any) {
	f.set(attrs, v)
}

// Present is the interrogator: presence of Get's result.
func (f *Field) Present(attrs map[string]any) bool {
	return f.present(attrs)
}

// FieldOption configures a declaration.
type FieldOption func(*fieldConfig)

type fieldConfig struct {
	def    any
	hasDef bool
}

// WithDefault sets the value returned by the getter when the attribute is
// absent. A nil default is a real default (the getter then returns nil).
func WithDefault(v any) FieldOption {
	return func(c *fieldConfig) {
		c.def = value.Normalize(v)
		c.hasDef = true
	}
}

// Schema is the per-type field registry.
type Schema struct {
	order     []string
	fields    map[string]*Field
	overrides map[string]Accessor
}

// New returns an empty schema.
func New() *Schema {
	return &Schema{
		fields:    make(map[string]*Field),
		overrides: make(map[string]Accessor),
	}
}

// Declare registers name as a field.
//
// Redeclaring an existing field does not duplicate it in the field order
// and does not regenerate its bindings. A default passed on redeclaration
// replaces the previous default.
func (s *Schema) Declare(name string, opts ...FieldOption) error {
	if name == ReservedField {
		return &ReservedFieldError{Field: name}
	}
	if name == "" {
		return fmt.Errorf("field name must not be empty")
	}

	var cfg fieldConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if f, ok := s.fields[name]; ok {
		if cfg.hasDef {
			f.Default = cfg.def
			f.HasDefault = true
		}
		return nil
	}

	f := &Field{
		Name:       name,
		Default:    cfg.def,
		HasDefault: cfg.hasDef,
	}
	s.bind(f)
	s.fields[name] = f
	s.order = append(s.order, name)
	return nil
}

// DeclareFields is the bulk form of Declare; options apply to every name.
// Declaration stops at the first error.
func (s *Schema) DeclareFields(names []string, opts ...FieldOption) error {
	for _, name := range names {
		if err := s.Declare(name, opts...); err != nil {
			return err
		}
	}
	return nil
}

// AutoDetect declares every key found in rows except the primary key,
// in first-seen order, with no default. Already declared fields are left
// untouched.
func (s *Schema) AutoDetect(rows []map[string]any) error {
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			if k != PrimaryKey {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s.Has(k) {
				continue
			}
			if err := s.Declare(k); err != nil {
				return err
			}
		}
	}
	return nil
}

// Override registers hand-written bindings for name. If the field is
// already declared its bindings are replaced immediately; otherwise the
// override is applied when the field is declared.
func (s *Schema) Override(name string, acc Accessor) error {
	if name == ReservedField {
		return &ReservedFieldError{Field: name}
	}
	s.overrides[name] = acc
	if f, ok := s.fields[name]; ok {
		s.bind(f)
	}
	return nil
}

// bind wires generated bindings for f, then overlays any hand-written ones.
func (s *Schema) bind(f *Field) {
	name := f.Name
	f.get = func(attrs map[string]any) any {
		if v, ok := attrs[name]; ok && v != nil {
			return v
		}
		return f.Default
	}
	f.set = func(attrs map[string]any, v any) {
		attrs[name] = value.Normalize(v)
	}
	f.present = func(attrs map[string]any) bool {
		return value.Present(f.get(attrs))
	}

	acc, ok := s.overrides[name]
	if !ok {
		return
	}
	if acc.Get != nil {
		f.get = acc.Get
	}
	if acc.Set != nil {
		f.set = acc.Set
	}
	if acc.Present != nil {
		f.present = acc.Present
	}
}

// Has reports whether name is a declared field.
func (s *Schema) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Field returns the descriptor for name.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns declared field names in declaration order.
func (s *Schema) Fields() []string {
	return slices.Clone(s.order)
}

// ColumnNames returns the primary key followed by every declared field.
func (s *Schema) ColumnNames() []string {
	cols := make([]string, 0, len(s.order)+1)
	cols = append(cols, PrimaryKey)
	for _, name := range s.order {
		if name != PrimaryKey {
			cols = append(cols, name)
		}
	}
	return cols
}

// Defaults returns a copy of the declared defaults.
func (s *Schema) Defaults() map[string]any {
	out := make(map[string]any)
	for _, name := range s.order {
		f := s.fields[name]
		if f.HasDefault {
			out[name] = f.Default
		}
	}
	return out
}
