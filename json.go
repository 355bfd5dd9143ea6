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
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ToJSON encodes the record as a JSON object whose keys follow field
// order. Scalars with a field or registry codec are written in encoded
// form; other values are handed to the JSON writer.
//
// Example:
//
//	data, err := tom.ToJSON()
//	// {"name":"Tom","age":18}
func (r *Record) ToJSON(opts ...Option) ([]byte, error) {
	o := applyOptions(r.typ, opts)
	o.encode = true

	m, err := r.toMapping(o)
	if err != nil {
		return nil, err
	}

	return marshalJSON(m, o)
}

// FromJSON decodes a JSON object into a record of type t. Malformed input
// is reported as-is by the JSON parser.
func (t *Type) FromJSON(data []byte, opts ...Option) (*Record, error) {
	v, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("declare: %s: %w: JSON input is %s, want object", t.name, ErrTypeMismatch, jsonKind(v))
	}

	return t.FromMap(m, opts...)
}

// ToJSON encodes the list as a JSON array.
func (l *List) ToJSON(opts ...Option) ([]byte, error) {
	o := applyOptions(nil, opts)
	o.encode = true

	items, err := l.export(o)
	if err != nil {
		return nil, err
	}

	return marshalJSON(items, o)
}

// FromJSON decodes a JSON array into a list of type lt.
func (lt *ListType) FromJSON(data []byte, opts ...Option) (*List, error) {
	v, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}

	return lt.FromSlice(v, opts...)
}

// FromSlice builds a list from decoded data such as a JSON array. Numbers
// are converted to the element type when no precision is lost; no other
// conversion happens.
func (lt *ListType) FromSlice(v any, opts ...Option) (*List, error) {
	items, ok := toSlice(v)
	if !ok {
		return nil, fmt.Errorf("declare: %s: %w: input is %T, want array", lt, ErrTypeMismatch, v)
	}

	l, err := coerceList(lt, items, applyOptions(nil, opts))
	if err != nil {
		return nil, err
	}

	return l.(*List), nil
}

// marshalJSON writes v, which must already be in encoded mapping form.
func marshalJSON(v any, o *Options) ([]byte, error) {
	if o.Indent > 0 {
		return json.MarshalIndent(v, "", strings.Repeat(" ", o.Indent))
	}

	return json.Marshal(v)
}

// DecodeJSON parses JSON text into plain Go values. Integers become
// int64 and other numbers float64, so integer fields keep full precision.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		for k, item := range x {
			x[k] = normalizeNumbers(item)
		}
		return x
	case []any:
		for i, item := range x {
			x[i] = normalizeNumbers(item)
		}
		return x
	default:
		return v
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int64, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
