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

// Package msgpack converts declared records to and from MessagePack,
// using github.com/vmihailenco/msgpack/v5.
//
// Records are written as maps whose entries follow the field order, so
// equal records always produce equal bytes.
//
// Example:
//
//	data, err := msgpack.Marshal(event)
//	if err != nil {
//	    // handle error
//	}
//	back, err := msgpack.Unmarshal(eventType, data)
package msgpack

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"rivaas.dev/declare"
)

// Option configures MessagePack conversion.
type Option func(*config)

// config holds MessagePack-specific configuration.
type config struct {
	skipMissing     bool
	disallowUnknown bool
	compactInts     bool
	declareOpts     []declare.Option
}

// WithSkipMissing leaves out fields that are missing or nil.
func WithSkipMissing() Option {
	return func(c *config) {
		c.skipMissing = true
	}
}

// WithDisallowUnknown rejects maps with keys that name no field.
func WithDisallowUnknown() Option {
	return func(c *config) {
		c.disallowUnknown = true
	}
}

// WithCompactInts writes integers in the smallest encoding that fits.
func WithCompactInts() Option {
	return func(c *config) {
		c.compactInts = true
	}
}

// WithOptions passes conversion options through to the record layer.
func WithOptions(opts ...declare.Option) Option {
	return func(c *config) {
		c.declareOpts = append(c.declareOpts, opts...)
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{}
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

// Marshal encodes r as a MessagePack map.
//
// Example:
//
//	data, err := msgpack.Marshal(r, msgpack.WithCompactInts())
func Marshal(r *declare.Record, opts ...Option) ([]byte, error) {
	cfg := applyOptions(opts)

	m, err := r.ToExternalMap(cfg.options()...)
	if err != nil {
		return nil, err
	}

	return encode(m, cfg)
}

// MarshalList encodes l as a MessagePack array.
func MarshalList(l *declare.List, opts ...Option) ([]byte, error) {
	cfg := applyOptions(opts)

	items, err := l.ToExternalSlice(cfg.options()...)
	if err != nil {
		return nil, err
	}

	return encode(items, cfg)
}

// Unmarshal decodes a MessagePack map into a record of type t.
func Unmarshal(t *declare.Type, data []byte, opts ...Option) (*declare.Record, error) {
	return UnmarshalReader(t, bytes.NewReader(data), opts...)
}

// UnmarshalReader is like [Unmarshal] but reads from r.
func UnmarshalReader(t *declare.Type, r io.Reader, opts ...Option) (*declare.Record, error) {
	cfg := applyOptions(opts)

	v, err := decode(r)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("msgpack: %w: expected a map, got %T", declare.ErrTypeMismatch, v)
	}

	if cfg.disallowUnknown {
		if unknown := t.UnknownKeys(m); len(unknown) > 0 {
			sort.Strings(unknown)
			return nil, fmt.Errorf("msgpack: %s: %w: %v", t.Name(), declare.ErrUnknownField, unknown)
		}
	}

	return t.FromMap(m, cfg.options()...)
}

// UnmarshalList decodes a MessagePack array into a list of type lt.
func UnmarshalList(lt *declare.ListType, data []byte, opts ...Option) (*declare.List, error) {
	cfg := applyOptions(opts)

	v, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("msgpack: %w: expected an array, got %T", declare.ErrTypeMismatch, v)
	}

	return lt.FromSlice(items, cfg.options()...)
}

func decode(r io.Reader) (any, error) {
	dec := msgpack.NewDecoder(r)
	dec.UseLooseInterfaceDecoding(true)

	v, err := dec.DecodeInterface()
	if err != nil {
		return nil, fmt.Errorf("msgpack: %w", err)
	}

	return v, nil
}

func encode(v any, cfg *config) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(cfg.compactInts)
	enc.SetSortMapKeys(true)

	if err := encodeValue(enc, v); err != nil {
		return nil, fmt.Errorf("msgpack: %w", err)
	}

	return buf.Bytes(), nil
}

func encodeValue(enc *msgpack.Encoder, v any) error {
	switch x := v.(type) {
	case *declare.Mapping:
		if err := enc.EncodeMapLen(x.Len()); err != nil {
			return err
		}
		for k, item := range x.All() {
			if err := enc.EncodeString(k); err != nil {
				return err
			}
			if err := encodeValue(enc, item); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
		return nil
	case []any:
		if err := enc.EncodeArrayLen(len(x)); err != nil {
			return err
		}
		for i, item := range x {
			if err := encodeValue(enc, item); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if err := enc.EncodeMapLen(len(keys)); err != nil {
			return err
		}
		for _, k := range keys {
			if err := enc.EncodeString(k); err != nil {
				return err
			}
			if err := encodeValue(enc, x[k]); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
		return nil
	default:
		return enc.Encode(v)
	}
}
