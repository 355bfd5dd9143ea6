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
	"iter"
	"reflect"
	"slices"

	"github.com/goccy/go-json"
)

// Mapping is an insertion-ordered string-keyed map. Records convert to a
// Mapping keyed by external field name, in field order.
type Mapping struct {
	keys   []string
	values map[string]any
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]any)}
}

// Set stores v under key. A new key is appended; an existing key keeps its
// position.
func (m *Mapping) Set(key string, v any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in order.
func (m *Mapping) Keys() []string { return slices.Clone(m.keys) }

// Len returns the number of entries.
func (m *Mapping) Len() int { return len(m.keys) }

// All iterates over the entries in order.
func (m *Mapping) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Map returns a plain map copy. Nested mappings become map[string]any,
// recursively, including inside slices.
func (m *Mapping) Map() map[string]any {
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = plain(m.values[k])
	}

	return out
}

func plain(v any) any {
	switch x := v.(type) {
	case *Mapping:
		return x.Map()
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = plain(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = plain(item)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON writes the entries as a JSON object in key order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// encodeScalars rewrites every value whose type has a registry codec into
// its encoded form. Containers are rewritten element by element; values
// without a codec are kept for the format writer.
func encodeScalars(v any, reg *Registry) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *Mapping:
		out := NewMapping()
		for _, k := range x.keys {
			e, err := encodeScalars(x.values[k], reg)
			if err != nil {
				return nil, err
			}
			out.Set(k, e)
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			e, err := encodeScalars(item, reg)
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			e, err := encodeScalars(item, reg)
			if err != nil {
				return nil, err
			}
			out[k] = e
		}
		return out, nil
	}

	c, err := reg.Lookup(reflect.TypeOf(v))
	if err != nil {
		return v, nil
	}

	return c.Encode(v)
}
