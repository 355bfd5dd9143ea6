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

// Package toml converts declared records to and from TOML documents.
//
// TOML has no null, so fields that are missing or nil are left out of the
// output. Keys are written in the encoder's order: plain keys first, then
// tables, each group sorted.
package toml

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"github.com/BurntSushi/toml"

	"rivaas.dev/declare"
)

// Option configures TOML conversion.
type Option func(*config)

type config struct {
	indent      string
	strict      bool
	declareOpts []declare.Option
}

// WithIndent sets the indentation of nested tables. Default is two spaces.
func WithIndent(indent string) Option {
	return func(c *config) {
		c.indent = indent
	}
}

// WithStrict rejects documents with keys that were not decoded into a
// field.
func WithStrict() Option {
	return func(c *config) {
		c.strict = true
	}
}

// WithOptions passes conversion options through to the record layer.
func WithOptions(opts ...declare.Option) Option {
	return func(c *config) {
		c.declareOpts = append(c.declareOpts, opts...)
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{indent: "  "}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Metadata is the TOML metadata returned by [UnmarshalWithMetadata].
type Metadata = toml.MetaData

// Marshal encodes r as a TOML document.
func Marshal(r *declare.Record, opts ...Option) ([]byte, error) {
	cfg := applyOptions(opts)

	m, err := r.ToExternalMap(append(slices.Clone(cfg.declareOpts), declare.WithSkipMissing())...)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = cfg.indent
	if err := enc.Encode(stripNil(m.Map())); err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes a TOML document into a record of type t.
func Unmarshal(t *declare.Type, data []byte, opts ...Option) (*declare.Record, error) {
	r, _, err := UnmarshalWithMetadata(t, data, opts...)
	return r, err
}

// UnmarshalReader is like [Unmarshal] but reads the document from r.
func UnmarshalReader(t *declare.Type, r io.Reader, opts ...Option) (*declare.Record, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}

	return Unmarshal(t, buf.Bytes(), opts...)
}

// UnmarshalWithMetadata is like [Unmarshal] and also returns the document
// metadata, which records the keys in document order and their TOML types.
//
// Example:
//
//	r, meta, err := toml.UnmarshalWithMetadata(serverType, body)
//	if meta.IsDefined("tls", "cert") {
//	    // ...
//	}
func UnmarshalWithMetadata(t *declare.Type, data []byte, opts ...Option) (*declare.Record, Metadata, error) {
	cfg := applyOptions(opts)

	var doc map[string]any
	meta, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, meta, fmt.Errorf("toml: %w", err)
	}

	if cfg.strict {
		if unknown := t.UnknownKeys(doc); len(unknown) > 0 {
			slices.Sort(unknown)
			return nil, meta, fmt.Errorf("toml: %s: %w: %v", t.Name(), declare.ErrUnknownField, unknown)
		}
	}

	r, err := t.FromMap(normalize(doc).(map[string]any), cfg.declareOpts...)

	return r, meta, err
}

// stripNil removes nil entries from maps, recursively.
func stripNil(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			if item == nil {
				continue
			}
			out[k] = stripNil(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = stripNil(item)
		}
		return out
	default:
		return v
	}
}

// normalize turns arrays of tables into []any.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, item := range x {
			x[k] = normalize(item)
		}
		return x
	case []map[string]any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	case []any:
		for i, item := range x {
			x[i] = normalize(item)
		}
		return x
	default:
		return v
	}
}
