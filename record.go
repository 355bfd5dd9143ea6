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
	"encoding/binary"
	"fmt"
	"reflect"
	"strings"

	"github.com/cespare/xxhash/v2"
)

type missingValue struct{}

func (missingValue) String() string { return "missing" }

// Missing marks a field that holds no value. It is distinct from nil,
// which is an ordinary in-domain value.
var Missing = missingValue{}

// IsMissing reports whether v is the [Missing] sentinel.
func IsMissing(v any) bool {
	_, ok := v.(missingValue)
	return ok
}

// Named carries named constructor arguments. Pass it as the last argument
// of [Type.New].
type Named map[string]any

// Record is an instance of a [Type]. It holds one value per field.
//
// A Record is not safe for concurrent mutation; callers must serialize
// writes to the same instance.
type Record struct {
	typ    *Type
	values []any
	empty  bool
}

// New constructs a record. Positional arguments are matched to the field
// order; a trailing [Named] supplies arguments by internal field name.
//
// For each field in order: a [NoInit] field never takes a value here (a
// supplied one is passed to the [PostInit] hook); otherwise the supplied
// value is used, else the default. A required field without either fails
// with [ErrMissingRequired]. A value that does not match the declared type
// is cast.
//
// Example:
//
//	tom, err := person.New("Tom", declare.Named{"age": 18})
//
// Errors:
//   - [ErrAbstractType] when the type declares no fields
//   - [ErrTooManyArguments], [ErrDuplicateArgument], [ErrUnknownField]
//   - [*FieldError] wrapping [ErrMissingRequired] or [ErrTypeMismatch]
//   - any error returned by the PostInit hook
func (t *Type) New(args ...any) (*Record, error) {
	var named Named
	if n := len(args); n > 0 {
		if last, ok := args[n-1].(Named); ok {
			named = last
			args = args[:n-1]
		}
	}

	return t.construct(args, named, applyOptions(t, nil))
}

// MustNew is like [Type.New] but panics on error.
func (t *Type) MustNew(args ...any) *Record {
	r, err := t.New(args...)
	if err != nil {
		panic(err)
	}

	return r
}

func (t *Type) construct(positional []any, named map[string]any, o *Options) (*Record, error) {
	if err := t.abstract(); err != nil {
		return nil, err
	}
	if len(positional) > len(t.fields) {
		return nil, fmt.Errorf("declare: %s: %w: got %d, type has %d fields",
			t.name, ErrTooManyArguments, len(positional), len(t.fields))
	}

	inputs := make(map[string]any, len(positional)+len(named))
	for i, v := range positional {
		inputs[t.fields[i].name] = v
	}
	for name, v := range named {
		if _, ok := t.index[name]; !ok {
			return nil, newFieldError(t, name, OpConstruct, ErrUnknownField)
		}
		if _, dup := inputs[name]; dup {
			return nil, newFieldError(t, name, OpConstruct, ErrDuplicateArgument)
		}
		inputs[name] = v
	}

	return t.populate(inputs, OpConstruct, true, o)
}

// populate resolves every field from inputs, keyed by internal name, then
// runs the PostInit hook. With requireAll false a required field without
// value or default is left unset instead of failing; decoders rely on
// that so serialization reports the gap.
func (t *Type) populate(inputs map[string]any, op Op, requireAll bool, o *Options) (*Record, error) {
	o = o.forType(t)
	r := &Record{typ: t, values: make([]any, len(t.fields))}
	omitted := make(map[string]any)

	for i, f := range t.fields {
		v, supplied := inputs[f.name]

		if !f.init {
			if supplied {
				omitted[f.name] = v
			}
			r.values[i] = Missing
			continue
		}

		// Decoded nulls collapse into absence when a default exists.
		if !supplied || IsMissing(v) || (v == nil && !requireAll && f.HasDefault()) {
			v = f.makeDefault()
		}
		if IsMissing(v) {
			if f.required && requireAll {
				fe := newFieldError(t, f.name, op, ErrMissingRequired)
				fe.Reason = "no value and no default; declare it Optional or NoInit to construct without it"
				return nil, fe
			}
			r.values[i] = Missing
			continue
		}

		if !f.satisfies(v) {
			c, err := coerce(t, f, op, v, o)
			if err != nil {
				return nil, err
			}
			v = c
		}
		r.values[i] = v
	}

	if t.postInit != nil {
		if err := t.postInit(r, omitted); err != nil {
			return nil, fmt.Errorf("declare: %s: post init: %w", t.name, err)
		}
	}

	return r, nil
}

// Empty returns the placeholder instance: every field holds [Missing] and
// [Record.IsEmpty] reports true. It bypasses construction rules.
func (t *Type) Empty() *Record {
	r := &Record{typ: t, values: make([]any, len(t.fields)), empty: true}
	for i := range r.values {
		r.values[i] = Missing
	}

	return r
}

// Type returns the record's type.
func (r *Record) Type() *Type { return r.typ }

// IsEmpty reports whether r was created by [Type.Empty].
func (r *Record) IsEmpty() bool { return r.empty }

// Get returns the value of a field by internal name. An unset field
// yields [Missing].
func (r *Record) Get(name string) (any, error) {
	i, ok := r.typ.index[name]
	if !ok {
		return nil, newFieldError(r.typ, name, OpGet, ErrUnknownField)
	}

	return r.values[i], nil
}

// MustGet is like [Record.Get] but panics on an unknown field.
func (r *Record) MustGet(name string) any {
	v, err := r.Get(name)
	if err != nil {
		panic(err)
	}

	return v
}

// IsMissing reports whether the named field is unset. Unknown names
// report true.
func (r *Record) IsMissing(name string) bool {
	i, ok := r.typ.index[name]
	return !ok || IsMissing(r.values[i])
}

// Set assigns a field by internal name. A value that does not match the
// declared type is cast first; on failure the record is left unchanged.
// Assigning [Missing] unsets the field.
func (r *Record) Set(name string, v any) error {
	i, ok := r.typ.index[name]
	if !ok {
		return newFieldError(r.typ, name, OpSet, ErrUnknownField)
	}

	f := r.typ.fields[i]
	if !IsMissing(v) && !f.satisfies(v) {
		c, err := coerce(r.typ, f, OpSet, v, applyOptions(r.typ, nil))
		if err != nil {
			return err
		}
		v = c
	}
	r.values[i] = v

	return nil
}

// Value returns a field's value as T.
//
// Example:
//
//	age, err := declare.Value[int](tom, "age")
func Value[T any](r *Record, name string) (T, error) {
	var zero T

	v, err := r.Get(name)
	if err != nil {
		return zero, err
	}
	if IsMissing(v) {
		return zero, newFieldError(r.typ, name, OpGet, ErrMissingRequired)
	}
	if v == nil {
		return zero, nil
	}

	typed, ok := v.(T)
	if !ok {
		fe := newFieldError(r.typ, name, OpGet, ErrTypeMismatch)
		fe.Value = v
		fe.Reason = fmt.Sprintf("holds %T, not %s", v, reflect.TypeFor[T]())
		return zero, fe
	}

	return typed, nil
}

// Equal reports whether other has the same type and field-wise equal
// values.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.typ != other.typ {
		return false
	}
	for i := range r.values {
		if !valuesEqual(r.values[i], other.values[i]) {
			return false
		}
	}

	return true
}

func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case *Record:
		y, ok := b.(*Record)
		return ok && x.Equal(y)
	case *List:
		y, ok := b.(*List)
		return ok && x.Equal(y)
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, ok := y[k]
			if !ok || !valuesEqual(v, w) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// Hash returns a 64-bit hash of the type name and the string form of
// every field value. Equal records hash equally.
func (r *Record) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(r.typ.name)
	for i, f := range r.typ.fields {
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(f.name)
		_, _ = d.WriteString("=")
		hashValue(d, r.values[i])
	}

	return d.Sum64()
}

func hashValue(d *xxhash.Digest, v any) {
	var buf [8]byte
	switch x := v.(type) {
	case *Record:
		binary.LittleEndian.PutUint64(buf[:], x.Hash())
		_, _ = d.Write(buf[:])
	case *List:
		binary.LittleEndian.PutUint64(buf[:], x.Hash())
		_, _ = d.Write(buf[:])
	default:
		// fmt prints map keys in sorted order
		_, _ = fmt.Fprintf(d, "%T:%v", v, v)
	}
}

// String returns the record as "Name(field=value,...)".
func (r *Record) String() string {
	var b strings.Builder
	b.WriteString(r.typ.name)
	b.WriteByte('(')
	for i, f := range r.typ.fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.name)
		b.WriteByte('=')
		if r.values[i] == nil {
			b.WriteString("nil")
		} else {
			fmt.Fprint(&b, r.values[i])
		}
	}
	b.WriteByte(')')

	return b.String()
}
