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

// Package yaml converts declared records to and from YAML.
//
// Output keeps the declaration order of fields by building a [yaml.Node]
// tree instead of marshaling a Go map.
//
// Example:
//
//	data, err := yaml.Marshal(person)
//	r, err := yaml.Unmarshal(personType, data, yaml.WithStrict())
package yaml

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"rivaas.dev/declare"
)

// Option configures YAML conversion.
type Option func(*config)

// config holds YAML conversion configuration.
type config struct {
	indent      int
	strict      bool
	skipMissing bool
	declareOpts []declare.Option
}

// WithIndent sets the number of spaces used for nesting. Default is 2.
func WithIndent(n int) Option {
	return func(c *config) {
		c.indent = n
	}
}

// WithStrict rejects documents with keys that name no field.
func WithStrict() Option {
	return func(c *config) {
		c.strict = true
	}
}

// WithSkipMissing leaves out fields that are missing or nil.
func WithSkipMissing() Option {
	return func(c *config) {
		c.skipMissing = true
	}
}

// WithOptions passes conversion options, such as a registry or logger, to
// the underlying record conversion.
func WithOptions(opts ...declare.Option) Option {
	return func(c *config) {
		c.declareOpts = append(c.declareOpts, opts...)
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{indent: 2}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

func (c *config) options() []declare.Option {
	out := slices.Clone(c.declareOpts)
	if c.skipMissing {
		out = append(out, declare.WithSkipMissing())
	}

	return out
}

// Marshal encodes r as a YAML mapping in field order.
func Marshal(r *declare.Record, opts ...Option) ([]byte, error) {
	cfg := applyOptions(opts)

	m, err := r.ToExternalMap(cfg.options()...)
	if err != nil {
		return nil, err
	}

	node, err := toNode(m)
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	return encode(node, cfg)
}

// MarshalList encodes l as a YAML sequence.
func MarshalList(l *declare.List, opts ...Option) ([]byte, error) {
	cfg := applyOptions(opts)

	items, err := l.ToExternalSlice(cfg.options()...)
	if err != nil {
		return nil, err
	}

	node, err := toNode(items)
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	return encode(node, cfg)
}

// Node returns the YAML node tree for r, for embedding in a larger document.
func Node(r *declare.Record, opts ...Option) (*yaml.Node, error) {
	m, err := r.ToExternalMap(applyOptions(opts).options()...)
	if err != nil {
		return nil, err
	}

	return toNode(m)
}

// Unmarshal decodes a YAML mapping into a record of type t.
func Unmarshal(t *declare.Type, data []byte, opts ...Option) (*declare.Record, error) {
	cfg := applyOptions(opts)

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	return fromDocument(t, doc, cfg)
}

// UnmarshalReader is like [Unmarshal] but reads the document from r.
func UnmarshalReader(t *declare.Type, r io.Reader, opts ...Option) (*declare.Record, error) {
	cfg := applyOptions(opts)

	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	return fromDocument(t, doc, cfg)
}

// UnmarshalList decodes a YAML sequence into a list of type lt.
func UnmarshalList(lt *declare.ListType, data []byte, opts ...Option) (*declare.List, error) {
	cfg := applyOptions(opts)

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	seq, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("yaml: %w: expected a sequence, got %T", declare.ErrTypeMismatch, doc)
	}

	return lt.FromSlice(seq, cfg.options()...)
}

func fromDocument(t *declare.Type, doc any, cfg *config) (*declare.Record, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("yaml: %w: expected a mapping, got %T", declare.ErrTypeMismatch, doc)
	}

	if cfg.strict {
		if unknown := t.UnknownKeys(m); len(unknown) > 0 {
			sort.Strings(unknown)
			return nil, fmt.Errorf("yaml: %s: %w: %v", t.Name(), declare.ErrUnknownField, unknown)
		}
	}

	return t.FromMap(m, cfg.options()...)
}

func encode(node *yaml.Node, cfg *config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(cfg.indent)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	return buf.Bytes(), nil
}

// toNode builds a node tree. Mappings keep their key order; plain maps
// are written with sorted keys.
func toNode(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case *declare.Mapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for k, item := range x.All() {
			child, err := toNode(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			n.Content = append(n.Content, keyNode(k), child)
		}
		return n, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range keys {
			child, err := toNode(x[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			n.Content = append(n.Content, keyNode(k), child)
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range x {
			child, err := toNode(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	default:
		n := &yaml.Node{}
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return n, nil
	}
}

func keyNode(k string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
}
