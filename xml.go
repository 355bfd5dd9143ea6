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
	"regexp"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"github.com/spf13/cast"
)

// defaultListTag names a top-level list element when no tag is known.
const defaultListTag = "list"

// defaultItemTag names scalar items of a top-level list.
const defaultItemTag = "item"

var cdataPattern = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)

var errNoXMLRoot = errors.New("XML document has no root element")

// TextFormatter writes text into an element that has no text yet. It
// decides how the text is escaped.
type TextFormatter func(el *etree.Element, text string)

// DefaultTextFormatter escapes text normally, except that every
// "<![CDATA[...]]>" run inside it is written as a raw CDATA section.
func DefaultTextFormatter(el *etree.Element, text string) {
	if text == "" {
		return
	}

	locs := cdataPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		el.SetText(text)
		return
	}

	pos, idx := 0, 0
	for _, loc := range locs {
		if loc[0] > pos {
			el.InsertChildAt(idx, etree.NewText(text[pos:loc[0]]))
			idx++
		}
		el.InsertChildAt(idx, etree.NewCData(text[loc[2]:loc[3]]))
		idx++
		pos = loc[1]
	}
	if pos < len(text) {
		el.InsertChildAt(idx, etree.NewText(text[pos:]))
	}
}

// EscapingTextFormatter always escapes text, CDATA markers included.
func EscapingTextFormatter(el *etree.Element, text string) {
	if text != "" {
		el.SetText(text)
	}
}

// ToXML encodes the record as an XML element named by its type's tag.
//
// Fields are placed by role: attribute fields become attributes, the text
// field becomes the element text, list fields append one child per item
// directly under the element, record fields append one child, and other
// fields become a child element named by the external name.
//
// A missing attribute is omitted and a nil one is written as "" unless
// [WithSkipMissing] is given. Missing or nil scalar elements are written
// empty unless skipping. Nil records are omitted.
func (r *Record) ToXML(opts ...Option) ([]byte, error) {
	o := applyOptions(r.typ, opts)

	el, err := r.toElement(o)
	if err != nil {
		return nil, err
	}

	return writeXML(el, o)
}

// ToXMLElement is like [Record.ToXML] but returns the element tree.
func (r *Record) ToXMLElement(opts ...Option) (*etree.Element, error) {
	return r.toElement(applyOptions(r.typ, opts))
}

func (r *Record) toElement(o *Options) (*etree.Element, error) {
	o = o.forType(r.typ)
	el := etree.NewElement(r.typ.XMLTagName())

	for i, f := range r.typ.fields {
		if f.ignoreSerialize {
			continue
		}

		v, present, err := r.resolve(i, o)
		if err != nil {
			return nil, err
		}
		ext := f.ExternalName()

		switch {
		case f.role == RoleAttribute:
			if !present || (v == nil && o.SkipMissing) {
				continue
			}
			s, err := r.formatField(f, v, o)
			if err != nil {
				return nil, err
			}
			el.CreateAttr(ext, s)

		case f.role == RoleText:
			if v == nil {
				continue
			}
			s, err := r.formatField(f, v, o)
			if err != nil {
				return nil, err
			}
			o.TextFormatter(el, s)

		case f.kind == KindRecord:
			if v == nil {
				continue
			}
			child, err := v.(*Record).toElement(o)
			if err != nil {
				return nil, err
			}
			el.AddChild(child)

		case f.kind == KindList:
			if v == nil {
				continue
			}
			if err := v.(*List).appendItems(el, ext, o); err != nil {
				return nil, err
			}

		case f.kind == KindMap:
			if v == nil {
				if !o.SkipMissing {
					el.CreateElement(ext)
				}
				continue
			}
			child := el.CreateElement(ext)
			if err := appendMap(child, f.mapOf, v.(map[string]any), o); err != nil {
				return nil, err
			}

		default:
			if v == nil {
				if !o.SkipMissing {
					el.CreateElement(ext)
				}
				continue
			}
			s, err := r.formatField(f, v, o)
			if err != nil {
				return nil, err
			}
			o.TextFormatter(el.CreateElement(ext), s)
		}
	}

	return el, nil
}

func (r *Record) formatField(f *Field, v any, o *Options) (string, error) {
	s, err := formatScalar(f.codec, v, o)
	if err != nil {
		fe := newFieldError(r.typ, f.name, OpEncode, err)
		fe.Value = v
		return "", fe
	}

	return s, nil
}

// formatScalar renders v as text: through the field codec, else the
// registry codec, else a generic string conversion.
func formatScalar(fieldCodec Codec, v any, o *Options) (string, error) {
	if v == nil {
		return "", nil
	}

	c := fieldCodec
	if c == nil {
		var err error
		if c, err = o.Registry.Lookup(reflect.TypeOf(v)); err != nil {
			return genericString(v), nil
		}
	}

	out, err := c.Encode(v)
	if err != nil {
		return "", err
	}

	return genericString(out), nil
}

func genericString(v any) string {
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}

	return fmt.Sprint(v)
}

// appendItems adds one child per element to parent. Record items use
// their own tag; scalar items are named tag.
func (l *List) appendItems(parent *etree.Element, tag string, o *Options) error {
	for i, item := range l.items {
		child, err := itemElement(l.typ.elem, item, tag, o)
		if err != nil {
			return fmt.Errorf("%s[%d]: %w", l.typ, i, err)
		}
		if child != nil {
			parent.AddChild(child)
		}
	}

	return nil
}

func itemElement(elem *Field, item any, tag string, o *Options) (*etree.Element, error) {
	switch x := item.(type) {
	case nil:
		if o.SkipMissing {
			return nil, nil
		}
		return etree.NewElement(tag), nil
	case *Record:
		return x.toElement(o)
	case *List:
		return x.toElement(o)
	case map[string]any:
		el := etree.NewElement(tag)
		if elem.kind == KindMap {
			if err := appendMap(el, elem.mapOf, x, o); err != nil {
				return nil, err
			}
		}
		return el, nil
	}

	s, err := formatScalar(elem.codec, item, o)
	if err != nil {
		return nil, err
	}
	el := etree.NewElement(tag)
	o.TextFormatter(el, s)

	return el, nil
}

// appendMap writes one child per key, in sorted key order.
func appendMap(parent *etree.Element, mt *MapType, m map[string]any, o *Options) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		child, err := itemElement(mt.value, m[k], k, o)
		if err != nil {
			return fmt.Errorf("map key %q: %w", k, err)
		}
		if child == nil {
			continue
		}
		// The key names the element even for record and list values.
		child.Tag = k
		parent.AddChild(child)
	}

	return nil
}

// ToXML encodes the list as one element whose children are the items.
// The element is named by the list's tag, else "list".
func (l *List) ToXML(opts ...Option) ([]byte, error) {
	o := applyOptions(nil, opts)

	el, err := l.toElement(o)
	if err != nil {
		return nil, err
	}

	return writeXML(el, o)
}

func (l *List) toElement(o *Options) (*etree.Element, error) {
	tag := l.tag
	if tag == "" {
		tag = defaultListTag
	}

	el := etree.NewElement(tag)
	if err := l.appendItems(el, defaultItemTag, o); err != nil {
		return nil, err
	}

	return el, nil
}

func writeXML(el *etree.Element, o *Options) ([]byte, error) {
	doc := etree.NewDocument()
	doc.SetRoot(el)
	if o.Indent > 0 {
		indentXML(doc, o.Indent)
	}

	return doc.WriteToBytes()
}

// indentXML indents doc but leaves the children of every element that
// carries character data untouched, so the inserted whitespace never
// becomes part of a text value.
func indentXML(doc *etree.Document, spaces int) {
	kept := make(map[*etree.Element][]etree.Token)
	var collect func(*etree.Element)
	collect = func(e *etree.Element) {
		for _, tok := range e.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				if _, ok := kept[e]; !ok {
					kept[e] = slices.Clone(e.Child)
				}
			case *etree.Element:
				collect(t)
			}
		}
	}
	collect(doc.Root())

	s := etree.NewIndentSettings()
	s.Spaces = spaces
	s.PreserveLeafWhitespace = true
	doc.IndentWithSettings(s)

	for e, children := range kept {
		for len(e.Child) > 0 {
			e.RemoveChildAt(len(e.Child) - 1)
		}
		for _, tok := range children {
			e.AddChild(tok)
		}
	}
}

func readXML(data []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}

	root := doc.Root()
	if root == nil {
		return nil, errNoXMLRoot
	}

	return root, nil
}

// FromXML decodes an XML document into a record of type t. The root
// element's tag is not checked. Malformed input is reported as-is by the
// XML parser.
func (t *Type) FromXML(data []byte, opts ...Option) (*Record, error) {
	root, err := readXML(data)
	if err != nil {
		return nil, err
	}

	return t.fromElement(root, applyOptions(t, opts))
}

// FromXMLElement decodes a record from an element of a larger tree.
func (t *Type) FromXMLElement(el *etree.Element, opts ...Option) (*Record, error) {
	return t.fromElement(el, applyOptions(t, opts))
}

func (t *Type) fromElement(el *etree.Element, o *Options) (*Record, error) {
	if err := t.abstract(); err != nil {
		return nil, err
	}
	o = o.forType(t)

	named := make(map[string]any, len(t.fields))
	for _, f := range t.fields {
		ext := f.ExternalName()

		switch {
		case f.role == RoleAttribute:
			a := el.SelectAttr(ext)
			if a == nil {
				continue
			}
			named[f.name] = scalarText(f, a.Value, true)

		case f.role == RoleText:
			s, ok := textOf(el)
			named[f.name] = scalarText(f, s, ok)

		case f.kind == KindList:
			children := el.SelectElements(ext)
			if len(children) == 0 && f.list.elem.kind == KindRecord {
				children = el.SelectElements(f.list.elem.record.XMLTagName())
			}
			l, err := f.list.fromElements(children, o)
			if err != nil {
				return nil, err
			}
			l.tag = ext
			named[f.name] = l

		case f.kind == KindRecord:
			child := findRecordChild(el, f)
			if child == nil {
				continue
			}
			r, err := f.record.fromElement(child, o)
			if err != nil {
				return nil, err
			}
			named[f.name] = r

		case f.kind == KindMap:
			child := el.SelectElement(ext)
			if child == nil {
				continue
			}
			m, err := mapFromElement(f.mapOf, child, o)
			if err != nil {
				return nil, err
			}
			named[f.name] = m

		default:
			child := el.SelectElement(ext)
			if child == nil {
				continue
			}
			s, ok := textOf(child)
			named[f.name] = scalarText(f, s, ok)
		}
	}

	return t.populate(named, OpDecode, false, o)
}

// findRecordChild looks up a nested record by the record type's explicit
// tag, else the field's external name, else the lower-cased type name.
func findRecordChild(el *etree.Element, f *Field) *etree.Element {
	if f.record.HasXMLTag() {
		return el.SelectElement(f.record.xmlTag)
	}
	if child := el.SelectElement(f.ExternalName()); child != nil {
		return child
	}

	return el.SelectElement(f.record.XMLTagName())
}

// FromXML decodes a list from an XML document. Every child element of the
// root is one item; the root tag becomes the list's tag.
func (lt *ListType) FromXML(data []byte, opts ...Option) (*List, error) {
	root, err := readXML(data)
	if err != nil {
		return nil, err
	}

	return lt.FromXMLElement(root, opts...)
}

// FromXMLElement is like [ListType.FromXML] for an element of a larger
// tree.
func (lt *ListType) FromXMLElement(el *etree.Element, opts ...Option) (*List, error) {
	l, err := lt.fromElements(el.ChildElements(), applyOptions(nil, opts))
	if err != nil {
		return nil, err
	}
	l.tag = el.Tag

	return l, nil
}

// fromElements decodes one item per element. XML carries no scalar types,
// so scalar item text is cast to the element type before the strict list
// check.
func (lt *ListType) fromElements(children []*etree.Element, o *Options) (*List, error) {
	items := make([]any, 0, len(children))
	for i, child := range children {
		item, err := lt.itemFromElement(child, o)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", lt, i, err)
		}
		items = append(items, item)
	}

	return lt.build(items, o)
}

func (lt *ListType) itemFromElement(el *etree.Element, o *Options) (any, error) {
	return valueFromElement(lt.elem, el, o)
}

// valueFromElement decodes one element according to descriptor d.
func valueFromElement(d *Field, el *etree.Element, o *Options) (any, error) {
	switch d.kind {
	case KindRecord:
		return d.record.fromElement(el, o)
	case KindList:
		l, err := d.list.fromElements(el.ChildElements(), o)
		if err != nil {
			return nil, err
		}
		l.tag = el.Tag
		return l, nil
	case KindMap:
		return mapFromElement(d.mapOf, el, o)
	}

	s, ok := textOf(el)
	v := scalarText(d, s, ok)
	if v == nil || d.satisfies(v) {
		return v, nil
	}

	return coerce(nil, d, OpDecode, v, o)
}

func mapFromElement(mt *MapType, el *etree.Element, o *Options) (map[string]any, error) {
	children := el.ChildElements()
	m := make(map[string]any, len(children))
	for _, child := range children {
		v, err := valueFromElement(mt.value, child, o)
		if err != nil {
			return nil, fmt.Errorf("map key %q: %w", child.Tag, err)
		}
		m[child.Tag] = v
	}

	return m, nil
}

// textOf returns the character data before the first child element.
// CDATA sections come back wrapped in their markers so they are written
// raw again on output. ok is false when there is no character data.
func textOf(el *etree.Element) (text string, ok bool) {
	var b strings.Builder
	for _, tok := range el.Child {
		cd, isChar := tok.(*etree.CharData)
		if !isChar {
			if _, isElem := tok.(*etree.Element); isElem {
				break
			}
			continue
		}
		ok = true
		if cd.IsCData() {
			b.WriteString("<![CDATA[")
			b.WriteString(cd.Data)
			b.WriteString("]]>")
			continue
		}
		b.WriteString(cd.Data)
	}

	return b.String(), ok
}

// scalarText maps XML text to a decoded value. Absent text and empty text
// for a non-string field decode as nil.
func scalarText(f *Field, s string, ok bool) any {
	if !ok {
		return nil
	}
	if s == "" && (f.kind != KindScalar || f.scalar.Kind() != reflect.String) {
		return nil
	}

	return s
}
