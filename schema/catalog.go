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

// Package schema loads record type declarations from catalog documents.
//
// A catalog lists types and their fields in YAML, JSON, JSON with
// comments, or TOML:
//
//	types:
//	  - name: Person
//	    xml_tag: person
//	    fields:
//	      - {name: name, type: string, xml: attr}
//	      - {name: age, type: int, default: 18}
//	      - {name: tags, type: list, elem: string, required: false}
//
// Documents are checked against an embedded JSON Schema (see [Schema])
// before any type is built. Types may reference each other in any order;
// they are built so that every base and field type exists first.
package schema

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"rivaas.dev/declare"
)

var (
	// ErrInvalidDocument indicates a document that does not match the
	// catalog schema.
	ErrInvalidDocument = errors.New("invalid catalog document")

	// ErrUnsupportedFormat indicates an unknown document format.
	ErrUnsupportedFormat = errors.New("unsupported catalog format")

	// ErrUnknownType indicates a reference to a type that is neither
	// declared in the document nor predeclared with [WithTypes].
	ErrUnknownType = errors.New("unknown type")

	// ErrCycle indicates types that depend on each other.
	ErrCycle = errors.New("type dependency cycle")

	// ErrDuplicateType indicates a type name declared twice.
	ErrDuplicateType = errors.New("duplicate type")
)

var scalars = map[string]reflect.Type{
	"string":   declare.String,
	"int":      declare.Int,
	"int64":    declare.Int64,
	"uint":     declare.Uint,
	"float":    declare.Float64,
	"float64":  declare.Float64,
	"bool":     declare.Bool,
	"bytes":    declare.Bytes,
	"time":     declare.Time,
	"duration": declare.Duration,
	"any":      declare.Any,
}

var namingStyles = map[string]declare.NamingStyle{
	"snake":    declare.SnakeCase,
	"camel":    declare.CamelCase,
	"pascal":   declare.PascalCase,
	"identity": declare.Identity,
}

// Option configures catalog loading.
type Option func(*config)

type config struct {
	registry *declare.Registry
	logger   *slog.Logger
	types    []*declare.Type
}

// WithRegistry attaches a codec registry to every loaded type.
func WithRegistry(r *declare.Registry) Option {
	return func(c *config) {
		c.registry = r
	}
}

// WithLogger sets the logger used to report each built type at debug
// level.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithTypes makes types declared in Go available to the document by
// name, for use as bases or field types.
func WithTypes(types ...*declare.Type) Option {
	return func(c *config) {
		c.types = append(c.types, types...)
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Catalog is a set of record types loaded from a document.
type Catalog struct {
	types map[string]*declare.Type
	order []string
	enums map[string]map[string][]string
}

// enumValues finds the enum of field on t, looking through the bases when
// t does not declare the field itself.
func (c *Catalog) enumValues(t *declare.Type, field string) []string {
	if fields, ok := c.enums[t.Name()]; ok {
		if values, declared := fields[field]; declared {
			return values
		}
	}
	for _, base := range t.Bases() {
		if values := c.enumValues(base, field); values != nil {
			return values
		}
	}

	return nil
}

// Type returns the type named name.
func (c *Catalog) Type(name string) (*declare.Type, bool) {
	t, ok := c.types[name]
	return t, ok
}

// MustType is like [Catalog.Type] but panics if name is unknown.
func (c *Catalog) MustType(name string) *declare.Type {
	t, ok := c.types[name]
	if !ok {
		panic(fmt.Sprintf("schema: %v: %q", ErrUnknownType, name))
	}

	return t
}

// Names returns the declared type names in document order.
func (c *Catalog) Names() []string { return slices.Clone(c.order) }

// Types returns the declared types in document order.
func (c *Catalog) Types() []*declare.Type {
	out := make([]*declare.Type, len(c.order))
	for i, name := range c.order {
		out[i] = c.types[name]
	}

	return out
}

// Len returns the number of declared types.
func (c *Catalog) Len() int { return len(c.order) }

// Load builds a catalog from a document in the given format.
func Load(data []byte, format Format, opts ...Option) (*Catalog, error) {
	raw, err := decodeDocument(data, format)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	doc, err := toDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	return Build(doc, opts...)
}

// LoadReader is like [Load] but reads the document from r.
func LoadReader(r io.Reader, format Format, opts ...Option) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	return Load(data, format, opts...)
}

// LoadFile loads the catalog at path, choosing the format from its
// extension.
func LoadFile(path string, opts ...Option) (*Catalog, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	return Load(data, format, opts...)
}

// Build creates the types of doc. Documents from [Load] are already
// validated; a hand-built [Document] is checked only as far as type
// construction requires.
func Build(doc *Document, opts ...Option) (*Catalog, error) {
	cfg := applyOptions(opts)

	specs := make(map[string]*TypeSpec, len(doc.Types))
	order := make([]string, 0, len(doc.Types))
	for i := range doc.Types {
		ts := &doc.Types[i]
		if _, dup := specs[ts.Name]; dup {
			return nil, fmt.Errorf("schema: %w: %q", ErrDuplicateType, ts.Name)
		}
		specs[ts.Name] = ts
		order = append(order, ts.Name)
	}

	known := make(map[string]*declare.Type, len(cfg.types)+len(specs))
	for _, t := range cfg.types {
		if _, clash := specs[t.Name()]; clash {
			return nil, fmt.Errorf("schema: %w: %q is predeclared", ErrDuplicateType, t.Name())
		}
		known[t.Name()] = t
	}

	sorted, err := resolveOrder(order, specs, known)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	for _, name := range sorted {
		t, err := buildType(specs[name], known, cfg)
		if err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		known[name] = t
		cfg.logger.Debug("built type", "type", name, "fields", t.NumField())
	}

	cat := &Catalog{
		types: make(map[string]*declare.Type, len(order)),
		order: order,
		enums: make(map[string]map[string][]string, len(order)),
	}
	for _, name := range order {
		cat.types[name] = known[name]
		fields := make(map[string][]string, len(specs[name].Fields))
		for _, fs := range specs[name].Fields {
			fields[fs.Name] = fs.Enum
		}
		cat.enums[name] = fields
	}

	return cat, nil
}

// dependencies returns the type names ts refers to, excluding scalars.
func dependencies(ts *TypeSpec) []string {
	deps := slices.Clone(ts.Extends)
	for _, f := range ts.Fields {
		for _, ref := range []string{f.Type, f.Elem, f.Value} {
			if ref == "" || ref == "list" || ref == "map" {
				continue
			}
			if _, scalar := scalars[ref]; scalar {
				continue
			}
			deps = append(deps, ref)
		}
	}

	return deps
}

// resolveOrder sorts the declared names so that dependencies come first,
// keeping document order among independent types.
func resolveOrder(order []string, specs map[string]*TypeSpec, known map[string]*declare.Type) ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(order))
	sorted := make([]string, 0, len(order))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(append(path, name), " -> "))
		}
		state[name] = visiting

		for _, dep := range dependencies(specs[name]) {
			if _, pre := known[dep]; pre {
				continue
			}
			if _, declared := specs[dep]; !declared {
				return fmt.Errorf("%s: %w: %q", name, ErrUnknownType, dep)
			}
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}

		state[name] = done
		sorted = append(sorted, name)
		return nil
	}

	for _, name := range order {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}

	return sorted, nil
}

func buildType(ts *TypeSpec, known map[string]*declare.Type, cfg *config) (*declare.Type, error) {
	var opts []declare.TypeOption

	if len(ts.Extends) > 0 {
		bases := make([]*declare.Type, len(ts.Extends))
		for i, name := range ts.Extends {
			bases[i] = known[name]
		}
		opts = append(opts, declare.Extends(bases...))
	}
	if ts.XMLTag != "" {
		opts = append(opts, declare.XMLTag(ts.XMLTag))
	}
	if cfg.registry != nil {
		opts = append(opts, declare.WithTypeRegistry(cfg.registry))
	}

	fields := make([]*declare.Field, 0, len(ts.Fields))
	for _, fs := range ts.Fields {
		f, err := buildField(fs, known)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", ts.Name, fs.Name, err)
		}
		fields = append(fields, f)
	}
	opts = append(opts, declare.Fields(fields...))

	return declare.NewType(ts.Name, opts...)
}

// typeRef resolves a scalar or record type name.
func typeRef(name string, known map[string]*declare.Type) (any, error) {
	if s, ok := scalars[name]; ok {
		return s, nil
	}
	if t, ok := known[name]; ok {
		return t, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

func buildField(fs FieldSpec, known map[string]*declare.Type) (*declare.Field, error) {
	var (
		typ any
		err error
	)
	switch fs.Type {
	case "list":
		var elem any
		if elem, err = typeRef(fs.Elem, known); err != nil {
			return nil, err
		}
		typ = declare.ListOf(elem)
	case "map":
		var value any
		if value, err = typeRef(fs.Value, known); err != nil {
			return nil, err
		}
		typ = declare.MapOf(value)
	default:
		if typ, err = typeRef(fs.Type, known); err != nil {
			return nil, err
		}
	}

	var opts []declare.FieldOption
	if fs.External != "" {
		opts = append(opts, declare.WithName(fs.External))
	}
	if fs.Naming != "" {
		style, ok := namingStyles[fs.Naming]
		if !ok {
			return nil, fmt.Errorf("unknown naming style %q", fs.Naming)
		}
		opts = append(opts, declare.WithNamingStyle(style))
	}
	if fs.Required != nil && !*fs.Required {
		opts = append(opts, declare.Optional())
	}
	if fs.HasDefault() || fs.Default != nil {
		opts = append(opts, declare.Default(fs.Default))
	}
	if fs.IgnoreSerialize {
		opts = append(opts, declare.IgnoreSerialize())
	}
	if fs.Init != nil && !*fs.Init {
		opts = append(opts, declare.NoInit())
	}
	switch fs.XML {
	case "attr":
		opts = append(opts, declare.AsXMLAttr())
	case "text":
		opts = append(opts, declare.AsXMLText())
	}

	switch {
	case len(fs.Enum) > 0:
		if typ != declare.String {
			return nil, fmt.Errorf("enum requires a string field, not %s", fs.Type)
		}
		opts = append(opts, declare.WithCodec(declare.EnumCodec(fs.Enum...)))
	case len(fs.Layouts) > 0:
		if typ != declare.Time {
			return nil, fmt.Errorf("layouts require a time field, not %s", fs.Type)
		}
		opts = append(opts, declare.WithCodec(declare.TimeCodec(fs.Layouts...)))
	}

	return declare.Var(fs.Name, typ, opts...), nil
}
