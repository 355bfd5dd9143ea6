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
	"context"
	"fmt"
	"log/slog"
)

// ToMap converts the record to an ordered mapping keyed by external field
// name. Nested records become nested mappings, lists become []any and maps
// become map[string]any. Scalars are left in their native form; use
// [Record.ToExternalMap] for codec-encoded scalars.
//
// Per field, in order:
//   - [IgnoreSerialize] fields are left out
//   - a missing value falls back to the default
//   - still missing and required fails with [ErrMissingRequired]
//   - still missing and optional is written as nil, or left out with
//     [WithSkipMissing]
//   - a nil value is written as nil, or left out with [WithSkipMissing]
func (r *Record) ToMap(opts ...Option) (*Mapping, error) {
	return r.toMapping(applyOptions(r.typ, opts))
}

// ToExternalMap is like [Record.ToMap] but also encodes every scalar that
// has a field or registry codec, the way the JSON writer does.
func (r *Record) ToExternalMap(opts ...Option) (*Mapping, error) {
	o := applyOptions(r.typ, opts)
	o.encode = true

	return r.toMapping(o)
}

func (r *Record) toMapping(o *Options) (*Mapping, error) {
	o = o.forType(r.typ)
	m := NewMapping()
	for i, f := range r.typ.fields {
		if f.ignoreSerialize {
			continue
		}

		v, present, err := r.resolve(i, o)
		if err != nil {
			return nil, err
		}
		if (!present || v == nil) && o.SkipMissing {
			continue
		}

		out, err := exportValue(f, v, o)
		if err != nil {
			return nil, err
		}
		m.Set(f.ExternalName(), out)
	}

	return m, nil
}

// resolve returns the value to serialize for field i, falling back to the
// default. present is false when the field is still missing; a missing
// required field is an error.
func (r *Record) resolve(i int, o *Options) (v any, present bool, err error) {
	f := r.typ.fields[i]
	v = r.values[i]

	if IsMissing(v) {
		v = f.makeDefault()
		if !IsMissing(v) && !f.satisfies(v) {
			if v, err = coerce(r.typ, f, OpEncode, v, o); err != nil {
				return nil, false, err
			}
		}
	}

	if IsMissing(v) {
		if f.required {
			return nil, false, newFieldError(r.typ, f.name, OpEncode, ErrMissingRequired)
		}
		return nil, false, nil
	}

	return v, true, nil
}

// exportValue expands containers into their mapping form.
func exportValue(f *Field, v any, o *Options) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch f.kind {
	case KindRecord:
		return v.(*Record).toMapping(o)
	case KindList:
		return v.(*List).export(o)
	case KindMap:
		src := v.(map[string]any)
		out := make(map[string]any, len(src))
		for k, item := range src {
			e, err := exportValue(f.mapOf.value, item, o)
			if err != nil {
				return nil, fmt.Errorf("map key %q: %w", k, err)
			}
			out[k] = e
		}
		return out, nil
	default:
		if !o.encode {
			return v, nil
		}
		if f.codec != nil {
			return f.codec.Encode(v)
		}
		return encodeScalars(v, o.Registry)
	}
}

// FromMap builds a record from a mapping keyed by external field name.
//
// Absent keys fall back to the field default. A required field with no
// key and no default is left unset rather than failing; serializing the
// record later reports it. Nested records and lists are built recursively
// and every value passes through the cast contract of [Type.New].
// Unknown keys are ignored.
func (t *Type) FromMap(m map[string]any, opts ...Option) (*Record, error) {
	return t.fromMap(m, applyOptions(t, opts))
}

// FromMapping is like [Type.FromMap] for an ordered [Mapping].
func (t *Type) FromMapping(m *Mapping, opts ...Option) (*Record, error) {
	return t.fromMap(m.Map(), applyOptions(t, opts))
}

func (t *Type) fromMap(m map[string]any, o *Options) (*Record, error) {
	if err := t.abstract(); err != nil {
		return nil, err
	}
	o = o.forType(t)

	named := make(map[string]any, len(t.fields))
	for k, v := range m {
		if i, ok := t.external[k]; ok {
			named[t.fields[i].name] = v
		}
	}

	if o.Logger.Enabled(context.Background(), slog.LevelDebug) && len(m) > len(named) {
		for k := range m {
			if _, ok := t.external[k]; !ok {
				o.Logger.Debug("ignoring unknown key", "type", t.name, "key", k)
			}
		}
	}

	return t.populate(named, OpDecode, false, o)
}

// UnknownKeys returns the keys of m that name no field of t, in no
// particular order.
func (t *Type) UnknownKeys(m map[string]any) []string {
	var unknown []string
	for k := range m {
		if _, ok := t.external[k]; !ok {
			unknown = append(unknown, k)
		}
	}

	return unknown
}
