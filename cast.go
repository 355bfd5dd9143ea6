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
	"errors"
	"fmt"
	"reflect"

	"github.com/spf13/cast"
)

var (
	timeType     = Time
	durationType = Duration
	bytesType    = Bytes
)

// coerce converts v to the declared type of f. Callers only reach it when
// f.satisfies(v) is false.
func coerce(owner *Type, f *Field, op Op, v any, o *Options) (any, error) {
	var (
		out any
		err error
	)

	switch f.kind {
	case KindRecord:
		out, err = coerceRecord(f.record, v, o)
	case KindList:
		out, err = coerceList(f.list, v, o)
	case KindMap:
		out, err = coerceMap(f.mapOf, v, o)
	default:
		out, err = coerceScalar(f.scalar, f.codec, v, o)
	}

	if err != nil {
		var fe *FieldError
		if errors.As(err, &fe) {
			// Nested failures already name their own field.
			return nil, err
		}
		return nil, mismatch(owner, f, op, v, err)
	}

	return out, nil
}

func coerceRecord(t *Type, v any, o *Options) (any, error) {
	switch x := v.(type) {
	case *Mapping:
		return t.fromMap(x.Map(), o)
	case map[string]any:
		return t.fromMap(x, o)
	case *Record:
		return nil, fmt.Errorf("%w: record of type %s is not a %s", ErrTypeMismatch, x.typ.name, t.name)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return t.fromMap(m, o)
	}

	return nil, ErrTypeMismatch
}

func coerceList(lt *ListType, v any, o *Options) (any, error) {
	if l, ok := v.(*List); ok {
		return nil, fmt.Errorf("%w: %s is not a %s", ErrTypeMismatch, l.typ, lt)
	}

	items, ok := toSlice(v)
	if !ok {
		return nil, ErrTypeMismatch
	}

	// Numbers decoded from external formats arrive as int64 or float64.
	// Widen or narrow them losslessly; everything else must already match.
	if lt.elem.kind == KindScalar {
		for i, item := range items {
			if n, ok := adaptNumber(lt.elem.scalar, item); ok {
				items[i] = n
			}
		}
	}

	return lt.build(items, o)
}

func coerceMap(mt *MapType, v any, o *Options) (any, error) {
	var src map[string]any
	switch x := v.(type) {
	case *Mapping:
		src = x.Map()
	case map[string]any:
		src = x
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil, ErrTypeMismatch
		}
		src = make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			src[iter.Key().String()] = iter.Value().Interface()
		}
	}

	out := make(map[string]any, len(src))
	for k, item := range src {
		if mt.value.satisfies(item) {
			out[k] = item
			continue
		}
		c, err := coerce(nil, mt.value, OpConstruct, item, o)
		if err != nil {
			return nil, fmt.Errorf("map key %q: %w", k, err)
		}
		out[k] = c
	}

	return out, nil
}

// coerceScalar applies the cast contract for scalar types: the field codec
// first, then native conversion, then the registry codec for typ.
func coerceScalar(typ reflect.Type, fieldCodec Codec, v any, o *Options) (any, error) {
	if fieldCodec != nil {
		out, err := fieldCodec.Decode(v)
		if err != nil {
			return nil, err
		}
		if out == nil || reflect.TypeOf(out).AssignableTo(typ) {
			return out, nil
		}
		return nil, fmt.Errorf("%w: field codec returned %T", ErrTypeMismatch, out)
	}

	out, nativeErr := nativeCast(typ, v)
	if nativeErr == nil {
		return out, nil
	}

	c, err := o.Registry.Lookup(typ)
	if err != nil {
		o.Logger.Debug("native cast failed and no codec registered",
			"type", typ.String(), "value_type", fmt.Sprintf("%T", v), "error", nativeErr)
		return nil, nativeErr
	}

	out, err = c.Decode(v)
	if err != nil {
		return nil, err
	}
	if out != nil && !reflect.TypeOf(out).AssignableTo(typ) {
		return nil, fmt.Errorf("%w: codec for %s returned %T", ErrTypeMismatch, typ, out)
	}
	o.Logger.Debug("value decoded by registry codec", "type", typ.String())

	return out, nil
}

// nativeCast converts v to typ using spf13/cast for the basic kinds and
// reflect conversion for named types.
func nativeCast(typ reflect.Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch typ {
	case timeType:
		return cast.ToTimeE(v)
	case durationType:
		return cast.ToDurationE(v)
	case bytesType:
		switch x := v.(type) {
		case string:
			return []byte(x), nil
		case []byte:
			return x, nil
		}
	}

	var (
		out any
		err error
	)

	switch typ.Kind() {
	case reflect.String:
		out, err = cast.ToStringE(v)
	case reflect.Bool:
		out, err = cast.ToBoolE(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		n, err = cast.ToInt64E(v)
		if err == nil && reflect.Zero(typ).OverflowInt(n) {
			err = fmt.Errorf("%d overflows %s", n, typ)
		}
		out = n
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		var n uint64
		n, err = cast.ToUint64E(v)
		if err == nil && reflect.Zero(typ).OverflowUint(n) {
			err = fmt.Errorf("%d overflows %s", n, typ)
		}
		out = n
	case reflect.Float32, reflect.Float64:
		out, err = cast.ToFloat64E(v)
	case reflect.Slice:
		return castSlice(typ, v)
	case reflect.Interface:
		if reflect.TypeOf(v).Implements(typ) {
			return v, nil
		}
		return nil, ErrTypeMismatch
	default:
		rv := reflect.ValueOf(v)
		if rv.Type().ConvertibleTo(typ) {
			return rv.Convert(typ).Interface(), nil
		}
		return nil, ErrTypeMismatch
	}

	if err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(out)
	if rv.Type() != typ {
		rv = rv.Convert(typ)
	}

	return rv.Interface(), nil
}

func castSlice(typ reflect.Type, v any) (any, error) {
	items, ok := toSlice(v)
	if !ok {
		return nil, ErrTypeMismatch
	}

	out := reflect.MakeSlice(typ, len(items), len(items))
	elem := typ.Elem()
	for i, item := range items {
		if item != nil && reflect.TypeOf(item).AssignableTo(elem) {
			out.Index(i).Set(reflect.ValueOf(item))
			continue
		}
		c, err := nativeCast(elem, item)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		if c != nil {
			out.Index(i).Set(reflect.ValueOf(c))
		}
	}

	return out.Interface(), nil
}

// toSlice copies any slice or array into []any. Strings are not slices.
func toSlice(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return append([]any(nil), items...), true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}

	return items, true
}

// adaptNumber converts between numeric kinds when no precision is lost.
func adaptNumber(typ reflect.Type, v any) (any, bool) {
	if v == nil {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Type() == typ || !isNumericKind(rv.Kind()) || !isNumericKind(typ.Kind()) {
		return nil, false
	}

	out := rv.Convert(typ)
	if !out.Convert(rv.Type()).Equal(rv) {
		return nil, false
	}

	return out.Interface(), true
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
