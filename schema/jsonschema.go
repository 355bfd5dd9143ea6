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

package schema

import (
	"fmt"
	"reflect"

	"github.com/goccy/go-json"

	"rivaas.dev/declare"
)

const dialect = "https://json-schema.org/draft/2020-12/schema"

// JSONSchema describes the JSON form of records of type t as a draft
// 2020-12 JSON Schema. Every record type reachable from t is emitted once
// under $defs and referenced from each of its uses.
//
// Optional fields accept null. Required fields without a default are
// listed in "required". Fields excluded from serialization are left out.
func JSONSchema(t *declare.Type) ([]byte, error) {
	return generate(t, nil)
}

// JSONSchema is like the package-level [JSONSchema] for the named type and
// also lists the values of fields declared with an enum.
func (c *Catalog) JSONSchema(name string) ([]byte, error) {
	t, ok := c.types[name]
	if !ok {
		return nil, fmt.Errorf("schema: %w: %q", ErrUnknownType, name)
	}

	return generate(t, c.enumValues)
}

type generator struct {
	defs  *declare.Mapping
	enums func(t *declare.Type, field string) []string
}

func generate(t *declare.Type, enums func(*declare.Type, string) []string) ([]byte, error) {
	g := &generator{defs: declare.NewMapping(), enums: enums}
	ref := g.record(t)

	root := declare.NewMapping()
	root.Set("$schema", dialect)
	for k, v := range ref.All() {
		root.Set(k, v)
	}
	root.Set("$defs", g.defs)

	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: %s: %w", t.Name(), err)
	}

	return data, nil
}

func (g *generator) record(t *declare.Type) *declare.Mapping {
	ref := object("$ref", "#/$defs/"+t.Name())
	if _, seen := g.defs.Get(t.Name()); seen {
		return ref
	}
	// Reserve the slot so the definitions keep first-use order.
	g.defs.Set(t.Name(), nil)

	reg := t.Registry()
	if reg == nil {
		reg = declare.DefaultRegistry
	}

	props := declare.NewMapping()
	var required []string
	for _, f := range t.Fields() {
		if f.IgnoresSerialize() {
			continue
		}

		s := g.field(t, f, reg)
		if !f.Required() {
			s = nullable(s)
		}
		props.Set(f.ExternalName(), s)

		if f.Required() && f.Init() && !f.HasDefault() {
			required = append(required, f.ExternalName())
		}
	}

	s := object("type", "object")
	s.Set("title", t.Name())
	s.Set("properties", props)
	if len(required) > 0 {
		s.Set("required", required)
	}
	g.defs.Set(t.Name(), s)

	return ref
}

// field describes one value. owner is nil for list elements and map values.
func (g *generator) field(owner *declare.Type, f *declare.Field, reg *declare.Registry) *declare.Mapping {
	switch f.Kind() {
	case declare.KindRecord:
		return g.record(f.RecordType())
	case declare.KindList:
		s := object("type", "array")
		s.Set("items", g.field(nil, f.ListType().Elem(), reg))
		return s
	case declare.KindMap:
		s := object("type", "object")
		s.Set("additionalProperties", g.field(nil, f.MapType().Value(), reg))
		return s
	}

	if owner != nil && g.enums != nil {
		if values := g.enums(owner, f.Name()); len(values) > 0 {
			s := object("type", "string")
			s.Set("enum", values)
			return s
		}
	}

	return scalar(f, reg)
}

func scalar(f *declare.Field, reg *declare.Registry) *declare.Mapping {
	typ := f.ScalarType()
	if f.Codec() != nil {
		return object("type", "string")
	}
	if _, err := reg.Lookup(typ); err == nil {
		s := object("type", "string")
		if typ == declare.Time && reg == declare.DefaultRegistry {
			s.Set("format", "date-time")
		}
		return s
	}

	switch typ.Kind() {
	case reflect.String:
		return object("type", "string")
	case reflect.Bool:
		return object("type", "boolean")
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return object("type", "integer")
	case reflect.Float32, reflect.Float64:
		return object("type", "number")
	case reflect.Slice:
		if typ.Elem().Kind() == reflect.Uint8 {
			s := object("type", "string")
			s.Set("contentEncoding", "base64")
			return s
		}
	}

	return declare.NewMapping()
}

// nullable widens s to accept null.
func nullable(s *declare.Mapping) *declare.Mapping {
	if s.Len() == 0 {
		return s
	}
	if typ, ok := s.Get("type"); ok {
		if name, isString := typ.(string); isString {
			s.Set("type", []string{name, "null"})
			if values, hasEnum := s.Get("enum"); hasEnum {
				s.Set("enum", append(toAny(values.([]string)), nil))
			}
			return s
		}
	}

	return object("anyOf", []any{s, object("type", "null")})
}

func object(key string, v any) *declare.Mapping {
	m := declare.NewMapping()
	m.Set(key, v)
	return m
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
