// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package declare

import (
	"fmt"
	"slices"
	"strings"
)

// PostInitFunc runs after a record has been constructed. omitted holds the
// values supplied for fields declared with [NoInit], keyed by internal
// name. Returning an error fails construction.
type PostInitFunc func(r *Record, omitted map[string]any) error

// TypeOption configures a [Type] under construction.
type TypeOption func(*typeConfig)

type typeConfig struct {
	bases    []*Type
	fields   []*Field
	xmlTag   string
	postInit PostInitFunc
	registry *Registry
}

// Extends lists base types. Their fields come first, in the order the
// bases are given; on a name collision the first base wins.
func Extends(bases ...*Type) TypeOption {
	return func(c *typeConfig) {
		c.bases = append(c.bases, bases...)
	}
}

// Fields appends own field declarations in declaration order.
func Fields(fields ...*Field) TypeOption {
	return func(c *typeConfig) {
		c.fields = append(c.fields, fields...)
	}
}

// XMLTag sets the XML element name of the type. Without it the
// lower-cased type name is used.
func XMLTag(tag string) TypeOption {
	return func(c *typeConfig) {
		c.xmlTag = tag
	}
}

// PostInit sets the hook run after construction. Types without their own
// hook inherit the hook of their first base that has one.
func PostInit(fn PostInitFunc) TypeOption {
	return func(c *typeConfig) {
		c.postInit = fn
	}
}

// WithTypeRegistry binds a codec registry to the type. Conversions of the
// type use it unless a call passes [WithRegistry].
func WithTypeRegistry(r *Registry) TypeOption {
	return func(c *typeConfig) {
		c.registry = r
	}
}

// Type is a declared record type: a name, an ordered list of fields merged
// from its bases and its own declarations, and format metadata.
// A Type is immutable and safe for concurrent use.
type Type struct {
	name     string
	xmlTag   string
	bases    []*Type
	fields   []*Field
	index    map[string]int
	external map[string]int
	postInit PostInitFunc
	registry *Registry
	nested   bool
}

// NewType declares a record type.
//
// Base fields are collected first: for each base in order, every field
// name not seen yet is appended. Own fields follow in declaration order;
// a field whose name came from a base replaces that descriptor but keeps
// its position.
//
// Example:
//
//	base := declare.MustNewType("Base", declare.Fields(
//	    declare.Var("a", declare.Int),
//	    declare.Var("b", declare.Int),
//	))
//	derived := declare.MustNewType("Derived",
//	    declare.Extends(base),
//	    declare.Fields(
//	        declare.Var("b", declare.String), // replaces b, stays second
//	        declare.Var("c", declare.Int),
//	    ),
//	)
//	// derived fields: a, b, c
//
// Errors:
//   - every invalid field declaration, as a [*FieldError] with Op [OpDeclare]
//   - [ErrDuplicateField] when the same name is declared twice on one type
//   - [ErrInvalidType] for an empty name or a nil base
//
// Several problems are reported together in a [*MultiError].
func NewType(name string, opts ...TypeOption) (*Type, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("declare: %w: empty type name", ErrInvalidType)
	}

	cfg := &typeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	t := &Type{
		name:     name,
		xmlTag:   cfg.xmlTag,
		bases:    slices.Clone(cfg.bases),
		index:    make(map[string]int),
		postInit: cfg.postInit,
		registry: cfg.registry,
	}

	errs := &MultiError{}

	for i, base := range cfg.bases {
		if base == nil {
			errs.Add(fmt.Errorf("declare: %s: %w: base %d is nil", name, ErrInvalidType, i))
			continue
		}
		for _, f := range base.fields {
			if _, seen := t.index[f.name]; seen {
				continue
			}
			t.index[f.name] = len(t.fields)
			t.fields = append(t.fields, f)
		}
		if t.postInit == nil {
			t.postInit = base.postInit
		}
		if t.registry == nil {
			t.registry = base.registry
		}
	}

	own := make(map[string]struct{}, len(cfg.fields))
	for _, f := range cfg.fields {
		if f == nil {
			errs.Add(fmt.Errorf("declare: %s: %w: nil field", name, ErrInvalidType))
			continue
		}
		if f.err != nil {
			errs.Add(newFieldError(t, f.name, OpDeclare, f.err))
			continue
		}
		if _, dup := own[f.name]; dup {
			errs.Add(newFieldError(t, f.name, OpDeclare, ErrDuplicateField))
			continue
		}
		own[f.name] = struct{}{}

		if pos, inherited := t.index[f.name]; inherited {
			t.fields[pos] = f
			continue
		}
		t.index[f.name] = len(t.fields)
		t.fields = append(t.fields, f)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	t.external = make(map[string]int, len(t.fields))
	for i, f := range t.fields {
		if _, taken := t.external[f.ExternalName()]; !taken {
			t.external[f.ExternalName()] = i
		}
		if f.nested() {
			t.nested = true
		}
	}

	return t, nil
}

// MustNewType is like [NewType] but panics on error.
// Use it for package-level type declarations.
func MustNewType(name string, opts ...TypeOption) *Type {
	t, err := NewType(name, opts...)
	if err != nil {
		panic(err)
	}

	return t
}

// Name returns the type name.
func (t *Type) Name() string { return t.name }

// XMLTagName returns the XML element name: the explicit tag if one was
// declared, else the lower-cased type name.
func (t *Type) XMLTagName() string {
	if t.xmlTag != "" {
		return t.xmlTag
	}

	return strings.ToLower(t.name)
}

// HasXMLTag reports whether an explicit XML tag was declared.
func (t *Type) HasXMLTag() bool { return t.xmlTag != "" }

// Fields returns the resolved fields in order. The slice is a copy.
func (t *Type) Fields() []*Field { return slices.Clone(t.fields) }

// NumField returns the number of resolved fields.
func (t *Type) NumField() int { return len(t.fields) }

// Field returns the field with the given internal name.
func (t *Type) Field(name string) (*Field, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}

	return t.fields[i], true
}

// Bases returns the declared base types.
func (t *Type) Bases() []*Type { return slices.Clone(t.bases) }

// HasNested reports whether any field holds a record, directly or inside
// a list or map.
func (t *Type) HasNested() bool { return t.nested }

// Registry returns the registry bound with [WithTypeRegistry], or nil.
func (t *Type) Registry() *Registry { return t.registry }

// Is reports whether t is other or extends it, directly or transitively.
func (t *Type) Is(other *Type) bool {
	if t == other {
		return true
	}
	for _, b := range t.bases {
		if b.Is(other) {
			return true
		}
	}

	return false
}

// String returns the type name.
func (t *Type) String() string { return t.name }

// abstract reports whether the type cannot be instantiated.
func (t *Type) abstract() error {
	if len(t.fields) == 0 {
		return fmt.Errorf("declare: %s: %w", t.name, ErrAbstractType)
	}

	return nil
}
