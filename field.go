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
	"reflect"
	"sync/atomic"
	"time"
)

// Common scalar types accepted by [Var].
var (
	String   = reflect.TypeFor[string]()
	Int      = reflect.TypeFor[int]()
	Int64    = reflect.TypeFor[int64]()
	Uint     = reflect.TypeFor[uint]()
	Float64  = reflect.TypeFor[float64]()
	Bool     = reflect.TypeFor[bool]()
	Bytes    = reflect.TypeFor[[]byte]()
	Time     = reflect.TypeFor[time.Time]()
	Duration = reflect.TypeFor[time.Duration]()
	Any      = reflect.TypeFor[any]()
)

// FieldOption configures a [Field].
type FieldOption func(*Field)

// Field describes one declared field of a record type.
//
// A Field is immutable once built, except for the external name which is
// derived lazily and cached. Fields are shared between a base type and
// every type that extends it.
type Field struct {
	name     string
	explicit string
	naming   NamingStyle
	external atomic.Pointer[string]

	kind   Kind
	scalar reflect.Type
	record *Type
	list   *ListType
	mapOf  *MapType

	required        bool
	defaultValue    any
	hasDefault      bool
	defaultFunc     func() any
	ignoreSerialize bool
	init            bool
	role            XMLRole
	codec           Codec

	err error
}

// Var declares a field named name of the given type.
//
// typ selects the field kind:
//   - [reflect.Type]: a scalar such as [String] or [Int]
//   - *[Type]: a nested record
//   - *[ListType]: a typed list built with [ListOf]
//   - *[MapType]: a string-keyed map built with [MapOf]
//
// Declaration problems (an unsupported typ, conflicting options) do not
// panic here; they are reported by [NewType] when the field is attached.
//
// Example:
//
//	person := declare.MustNewType("Person", declare.Fields(
//	    declare.Var("name", declare.String),
//	    declare.Var("age", declare.Int, declare.Optional()),
//	    declare.Var("tags", declare.ListOf(declare.String), declare.DefaultFunc(emptyTags)),
//	))
func Var(name string, typ any, opts ...FieldOption) *Field {
	f := &Field{
		name:     name,
		naming:   SnakeCase,
		required: true,
		init:     true,
	}

	switch t := typ.(type) {
	case reflect.Type:
		f.kind = KindScalar
		f.scalar = t
	case *Type:
		if t == nil {
			f.err = ErrInvalidType
			break
		}
		f.kind = KindRecord
		f.record = t
	case *ListType:
		if t == nil {
			f.err = ErrInvalidType
			break
		}
		f.kind = KindList
		f.list = t
		f.err = t.elem.err
	case *MapType:
		if t == nil {
			f.err = ErrInvalidType
			break
		}
		f.kind = KindMap
		f.mapOf = t
		f.err = t.value.err
	default:
		f.err = fmt.Errorf("%w: %T", ErrInvalidType, typ)
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.err == nil {
		f.err = f.validate()
	}

	return f
}

func (f *Field) validate() error {
	if f.name == "" {
		return fmt.Errorf("%w: empty field name", ErrInvalidType)
	}
	if f.hasDefault && f.defaultFunc != nil {
		return ErrConflictingDefaults
	}
	if f.role != RoleElement && f.kind != KindScalar {
		return fmt.Errorf("%w: xml %s role needs a scalar field, got %s", ErrInvalidType, f.role, f.kind)
	}

	return nil
}

// WithName sets the external name explicitly, bypassing the naming style.
func WithName(external string) FieldOption {
	return func(f *Field) {
		f.explicit = external
	}
}

// WithNamingStyle sets the style used to derive the external name.
// The default is [SnakeCase].
func WithNamingStyle(style NamingStyle) FieldOption {
	return func(f *Field) {
		if style != nil {
			f.naming = style
		}
	}
}

// Optional marks the field as not required.
func Optional() FieldOption {
	return func(f *Field) {
		f.required = false
	}
}

// Default sets a constant default value. A nil default is a real default
// that resolves to nil.
func Default(v any) FieldOption {
	return func(f *Field) {
		f.defaultValue = v
		f.hasDefault = true
	}
}

// DefaultFunc sets a factory called each time a default is needed.
func DefaultFunc(fn func() any) FieldOption {
	return func(f *Field) {
		f.defaultFunc = fn
	}
}

// IgnoreSerialize omits the field from every output format.
func IgnoreSerialize() FieldOption {
	return func(f *Field) {
		f.ignoreSerialize = true
	}
}

// NoInit excludes the field from ordinary construction. A value supplied
// for it is handed to the type's [PostInit] hook instead. A required NoInit
// field must be assigned with [Record.Set] before serialization.
func NoInit() FieldOption {
	return func(f *Field) {
		f.init = false
	}
}

// AsXMLAttr places the field in an attribute of the record element.
func AsXMLAttr() FieldOption {
	return func(f *Field) {
		if f.role == RoleText {
			f.err = ErrConflictingRoles
			return
		}
		f.role = RoleAttribute
	}
}

// AsXMLText places the field in the record element's own text.
func AsXMLText() FieldOption {
	return func(f *Field) {
		if f.role == RoleAttribute {
			f.err = ErrConflictingRoles
			return
		}
		f.role = RoleText
	}
}

// WithCodec overrides the registry codec for this field.
func WithCodec(c Codec) FieldOption {
	return func(f *Field) {
		f.codec = c
	}
}

// Name returns the internal field name.
func (f *Field) Name() string { return f.name }

// ExternalName returns the name used as JSON key, XML tag or attribute,
// and form key. It is computed once and cached.
func (f *Field) ExternalName() string {
	if p := f.external.Load(); p != nil {
		return *p
	}

	name := f.explicit
	if name == "" {
		name = f.naming(f.name)
	}
	// Concurrent first calls compute the same value; last store wins.
	f.external.Store(&name)

	return name
}

// Kind returns the nesting kind of the field.
func (f *Field) Kind() Kind { return f.kind }

// ScalarType returns the declared scalar type, or nil for other kinds.
func (f *Field) ScalarType() reflect.Type { return f.scalar }

// RecordType returns the nested record type, or nil for other kinds.
func (f *Field) RecordType() *Type { return f.record }

// ListType returns the list descriptor, or nil for other kinds.
func (f *Field) ListType() *ListType { return f.list }

// MapType returns the map descriptor, or nil for other kinds.
func (f *Field) MapType() *MapType { return f.mapOf }

// Required reports whether the field must hold a value.
func (f *Field) Required() bool { return f.required }

// Init reports whether the field participates in ordinary construction.
func (f *Field) Init() bool { return f.init }

// IgnoresSerialize reports whether the field is left out of outputs.
func (f *Field) IgnoresSerialize() bool { return f.ignoreSerialize }

// XMLRole returns where the field is placed in XML.
func (f *Field) XMLRole() XMLRole { return f.role }

// Codec returns the per-field codec override, if any.
func (f *Field) Codec() Codec { return f.codec }

// HasDefault reports whether a constant or factory default is declared.
func (f *Field) HasDefault() bool { return f.hasDefault || f.defaultFunc != nil }

// makeDefault resolves the default. The constant wins over the factory.
func (f *Field) makeDefault() any {
	switch {
	case f.hasDefault:
		return f.defaultValue
	case f.defaultFunc != nil:
		return f.defaultFunc()
	default:
		return Missing
	}
}

// TypeName returns a readable name of the declared type.
func (f *Field) TypeName() string {
	switch f.kind {
	case KindRecord:
		return f.record.name
	case KindList:
		return f.list.String()
	case KindMap:
		return f.mapOf.String()
	default:
		if f.scalar == nil {
			return "invalid"
		}
		return f.scalar.String()
	}
}

// nested reports whether the field holds a record directly or inside a
// list or map.
func (f *Field) nested() bool {
	switch f.kind {
	case KindRecord:
		return true
	case KindList:
		return f.list.elem.nested()
	case KindMap:
		return f.mapOf.value.nested()
	default:
		return false
	}
}

// satisfies reports whether v already matches the declared type.
// nil is an in-domain value and always satisfies.
func (f *Field) satisfies(v any) bool {
	if v == nil {
		return true
	}

	switch f.kind {
	case KindRecord:
		r, ok := v.(*Record)
		return ok && r.typ.Is(f.record)
	case KindList:
		l, ok := v.(*List)
		return ok && l.typ.sameElem(f.list)
	case KindMap:
		m, ok := v.(map[string]any)
		if !ok {
			return false
		}
		for _, item := range m {
			if !f.mapOf.value.satisfies(item) {
				return false
			}
		}
		return true
	default:
		return reflect.TypeOf(v).AssignableTo(f.scalar)
	}
}
