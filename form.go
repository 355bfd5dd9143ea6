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
	"net/url"
	"strings"
)

// ToForm encodes the record as form data: "key=value" pairs joined by "&"
// in field order, with values written unescaped. List fields repeat their
// key once per item.
//
// Example:
//
//	data, err := r.ToForm()
//	// crcat=test&crint=1&crfloat=1.2
//
// Errors:
//   - [ErrUnsupportedNesting] when the type holds records or maps
//   - [*FieldError] wrapping [ErrMissingRequired]
func (r *Record) ToForm(opts ...Option) (string, error) {
	return r.encodePairs(func(s string) string { return s }, applyOptions(r.typ, opts))
}

// ToQuery is like [Record.ToForm] but percent-encodes keys and values,
// with spaces written as "+".
func (r *Record) ToQuery(opts ...Option) (string, error) {
	return r.encodePairs(url.QueryEscape, applyOptions(r.typ, opts))
}

func (r *Record) encodePairs(escape func(string) string, o *Options) (string, error) {
	if err := r.typ.checkFlat(); err != nil {
		return "", err
	}

	var b strings.Builder
	write := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(key))
		b.WriteByte('=')
		b.WriteString(escape(value))
	}

	for i, f := range r.typ.fields {
		if f.ignoreSerialize {
			continue
		}

		v, present, err := r.resolve(i, o)
		if err != nil {
			return "", err
		}
		if (!present || v == nil) && o.SkipMissing {
			continue
		}
		key := f.ExternalName()

		if l, ok := v.(*List); ok {
			for _, item := range l.items {
				s, err := formatScalar(l.typ.elem.codec, item, o)
				if err != nil {
					return "", mismatch(r.typ, f, OpEncode, item, err)
				}
				write(key, s)
			}
			continue
		}

		s, err := r.formatField(f, v, o)
		if err != nil {
			return "", err
		}
		write(key, s)
	}

	return b.String(), nil
}

// FromForm decodes form data into a record of type t. Keys and values are
// unescaped. When a key repeats, the last value wins except for list
// fields, which take every value.
func (t *Type) FromForm(data string, opts ...Option) (*Record, error) {
	return t.decodePairs(data, applyOptions(t, opts))
}

// FromQuery decodes a query string into a record of type t. A leading "?"
// is ignored.
func (t *Type) FromQuery(query string, opts ...Option) (*Record, error) {
	return t.decodePairs(strings.TrimPrefix(query, "?"), applyOptions(t, opts))
}

func (t *Type) decodePairs(data string, o *Options) (*Record, error) {
	if err := t.checkFlat(); err != nil {
		return nil, err
	}

	values, err := url.ParseQuery(data)
	if err != nil {
		return nil, err
	}

	return t.fromValues(values, o)
}

// FromValues builds a record from already parsed values, such as
// [net/http.Request.Form].
func (t *Type) FromValues(values url.Values, opts ...Option) (*Record, error) {
	if err := t.checkFlat(); err != nil {
		return nil, err
	}

	return t.fromValues(values, applyOptions(t, opts))
}

func (t *Type) fromValues(values url.Values, o *Options) (*Record, error) {
	if err := t.abstract(); err != nil {
		return nil, err
	}

	named := make(map[string]any, len(t.fields))
	for _, f := range t.fields {
		vs, ok := values[f.ExternalName()]
		if !ok || len(vs) == 0 {
			continue
		}

		if f.kind == KindList {
			l, err := f.list.fromStrings(vs, o)
			if err != nil {
				return nil, err
			}
			named[f.name] = l
			continue
		}
		named[f.name] = vs[len(vs)-1]
	}

	return t.populate(named, OpDecode, false, o)
}

// fromStrings casts each text item to the element type before the strict
// list check. Form data carries no types of its own.
func (lt *ListType) fromStrings(vs []string, o *Options) (*List, error) {
	items := make([]any, len(vs))
	for i, s := range vs {
		v, err := coerce(nil, lt.elem, OpDecode, s, o)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", lt, i, err)
		}
		items[i] = v
	}

	return lt.build(items, o)
}

// checkFlat rejects types that form data cannot express. It looks only at
// declarations, so it fails before any value is read.
func (t *Type) checkFlat() error {
	if t.nested {
		return fmt.Errorf("declare: %s: %w: type contains nested records", t.name, ErrUnsupportedNesting)
	}

	for _, f := range t.fields {
		switch {
		case f.kind == KindMap:
			return fmt.Errorf("declare: %s.%s: %w: map fields cannot be form encoded", t.name, f.name, ErrUnsupportedNesting)
		case f.kind == KindList && f.list.elem.kind != KindScalar:
			return fmt.Errorf("declare: %s.%s: %w: %s cannot be form encoded", t.name, f.name, ErrUnsupportedNesting, f.list)
		}
	}

	return nil
}
