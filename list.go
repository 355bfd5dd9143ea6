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
	"iter"
	"reflect"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ListOption configures a [ListType].
type ListOption func(*ListType)

// ListTag sets the XML element name used for the list container.
func ListTag(tag string) ListOption {
	return func(lt *ListType) {
		lt.tag = tag
	}
}

// ListType describes a homogeneous list. Build it with [ListOf].
type ListType struct {
	elem *Field
	tag  string
}

// ListOf declares a list whose elements are of type elem: a scalar
// [reflect.Type], a record *[Type], or a nested *[ListType] or *[MapType].
//
// Lists never cast their elements: every element must already match elem.
// Record elements may also be given as map[string]any and are built with
// [Type.FromMap].
func ListOf(elem any, opts ...ListOption) *ListType {
	lt := &ListType{elem: Var("item", elem)}
	for _, opt := range opts {
		opt(lt)
	}

	return lt
}

// Elem returns the element descriptor.
func (lt *ListType) Elem() *Field { return lt.elem }

// Tag returns the XML tag declared with [ListTag].
func (lt *ListType) Tag() string { return lt.tag }

// String returns a readable name such as "List[int]".
func (lt *ListType) String() string {
	return "List[" + lt.elem.TypeName() + "]"
}

func (lt *ListType) sameElem(other *ListType) bool {
	return lt == other || sameKind(lt.elem, other.elem)
}

// sameKind reports whether two descriptors declare the same value type.
func sameKind(a, b *Field) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindRecord:
		return a.record == b.record
	case KindList:
		return a.list.sameElem(b.list)
	case KindMap:
		return sameKind(a.mapOf.value, b.mapOf.value)
	default:
		return a.scalar == b.scalar
	}
}

// matches is the strict element check. nil only fits interface elements.
func (lt *ListType) matches(v any) bool {
	if v == nil {
		return lt.elem.kind == KindScalar && lt.elem.scalar.Kind() == reflect.Interface
	}

	return lt.elem.satisfies(v)
}

// New builds a list from items.
//
// Example:
//
//	ints := declare.ListOf(declare.Int)
//	ok, _ := ints.New(1, 2, 3)
//	_, err := ints.New(1, "2", 3) // ErrTypeMismatch: lists never cast
func (lt *ListType) New(items ...any) (*List, error) {
	return lt.build(slices.Clone(items), applyOptions(nil, nil))
}

// MustNew is like [ListType.New] but panics on error.
func (lt *ListType) MustNew(items ...any) *List {
	l, err := lt.New(items...)
	if err != nil {
		panic(err)
	}

	return l
}

func (lt *ListType) build(items []any, o *Options) (*List, error) {
	if lt.elem.err != nil {
		return nil, fmt.Errorf("declare: %s: %w", lt, lt.elem.err)
	}

	for i, item := range items {
		// Containers arrive as plain maps and slices from decoded input.
		// Rebuild them as their declared type; scalars stay strict.
		if item != nil && !lt.elem.satisfies(item) {
			var (
				built any
				err   error
			)
			switch lt.elem.kind {
			case KindRecord:
				switch m := item.(type) {
				case map[string]any:
					built, err = lt.elem.record.fromMap(m, o)
				case *Mapping:
					built, err = lt.elem.record.fromMap(m.Map(), o)
				}
			case KindList:
				if _, isList := item.(*List); !isList {
					if _, ok := toSlice(item); ok {
						built, err = coerceList(lt.elem.list, item, o)
					}
				}
			case KindMap:
				switch item.(type) {
				case map[string]any, *Mapping:
					built, err = coerceMap(lt.elem.mapOf, item, o)
				}
			}
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", lt, i, err)
			}
			if built != nil {
				items[i] = built
				continue
			}
		}

		if !lt.matches(item) {
			fe := newFieldError(nil, fmt.Sprintf("[%d]", i), OpConstruct, ErrTypeMismatch)
			fe.Type = lt.String()
			fe.Value = item
			fe.Reason = fmt.Sprintf("element is %T, not %s", item, lt.elem.TypeName())
			return nil, fe
		}
	}

	return &List{typ: lt, items: items, tag: lt.tag}, nil
}

// List is an instance of a [ListType].
type List struct {
	typ   *ListType
	items []any
	tag   string
}

// Type returns the list's type.
func (l *List) Type() *ListType { return l.typ }

// Len returns the number of elements.
func (l *List) Len() int { return len(l.items) }

// At returns the element at index i.
func (l *List) At(i int) any { return l.items[i] }

// Items returns a copy of the elements.
func (l *List) Items() []any { return slices.Clone(l.items) }

// All iterates over the elements in order.
func (l *List) All() iter.Seq2[int, any] {
	return slices.All(l.items)
}

// Append adds elements, applying the same strict check as [ListType.New].
// On error the list is unchanged.
func (l *List) Append(items ...any) error {
	extra, err := l.typ.build(slices.Clone(items), applyOptions(nil, nil))
	if err != nil {
		return err
	}
	l.items = append(l.items, extra.items...)

	return nil
}

// Tag returns the XML tag of the list: the tag it was decoded from, else
// the tag declared on its type.
func (l *List) Tag() string { return l.tag }

// SetTag overrides the XML tag of this list.
func (l *List) SetTag(tag string) { l.tag = tag }

// Equal reports whether other has the same element type and equal
// elements in the same order.
func (l *List) Equal(other *List) bool {
	if l == nil || other == nil {
		return l == other
	}
	if !l.typ.sameElem(other.typ) || len(l.items) != len(other.items) {
		return false
	}
	for i := range l.items {
		if !valuesEqual(l.items[i], other.items[i]) {
			return false
		}
	}

	return true
}

// Hash returns a 64-bit hash of the elements.
func (l *List) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(l.typ.String())
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(l.items)))
	_, _ = d.Write(buf[:])
	for _, item := range l.items {
		hashValue(d, item)
	}

	return d.Sum64()
}

// String returns the list as "List[T](a, b, c)".
func (l *List) String() string {
	parts := make([]string, len(l.items))
	for i, item := range l.items {
		parts[i] = fmt.Sprint(item)
	}

	return l.typ.String() + "(" + strings.Join(parts, ", ") + ")"
}

// ToExternalSlice converts the list to plain values the way the JSON writer
// sees them: records become mappings and scalars with a codec are encoded.
func (l *List) ToExternalSlice(opts ...Option) ([]any, error) {
	o := applyOptions(nil, opts)
	o.encode = true

	return l.export(o)
}

// export converts the elements to their mapping form.
func (l *List) export(o *Options) ([]any, error) {
	out := make([]any, len(l.items))
	for i, item := range l.items {
		e, err := exportValue(l.typ.elem, item, o)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", l.typ, i, err)
		}
		out[i] = e
	}

	return out, nil
}

// MapType describes a string-keyed map. Build it with [MapOf].
type MapType struct {
	value *Field
}

// MapOf declares a map with string keys and values of type value. Unlike
// lists, map values are cast leniently when they do not match.
func MapOf(value any) *MapType {
	return &MapType{value: Var("value", value)}
}

// Value returns the value descriptor.
func (mt *MapType) Value() *Field { return mt.value }

// String returns a readable name such as "Map[string]int".
func (mt *MapType) String() string {
	return "Map[string]" + mt.value.TypeName()
}
