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

// Package cbor converts declared records to and from CBOR (RFC 8949).
//
// Output uses Core Deterministic Encoding: map keys are sorted and
// integers take their shortest form, so equal records always encode to
// identical bytes. Field order is therefore not preserved on the wire.
package cbor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"

	"github.com/fxamacker/cbor/v2"

	"rivaas.dev/declare"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cbor: encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		IntDec:         cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		panic("cbor: decoder initialization failed: " + err.Error())
	}
}

// Option configures CBOR conversion.
type Option func(*config)

type config struct {
	skipMissing     bool
	disallowUnknown bool
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

// Marshal encodes r as a CBOR map.
func Marshal(r *declare.Record, opts ...Option) ([]byte, error) {
	cfg := applyOptions(opts)

	m, err := r.ToExternalMap(cfg.options()...)
	if err != nil {
		return nil, err
	}

	data, err := encMode.Marshal(m.Map())
	if err != nil {
		return nil, fmt.Errorf("cbor: %w", err)
	}

	return data, nil
}

// MarshalList encodes l as a CBOR array.
func MarshalList(l *declare.List, opts ...Option) ([]byte, error) {
	cfg := applyOptions(opts)

	items, err := l.ToExternalSlice(cfg.options()...)
	if err != nil {
		return nil, err
	}

	data, err := encMode.Marshal(plain(items))
	if err != nil {
		return nil, fmt.Errorf("cbor: %w", err)
	}

	return data, nil
}

// Unmarshal decodes a CBOR map into a record of type t.
func Unmarshal(t *declare.Type, data []byte, opts ...Option) (*declare.Record, error) {
	cfg := applyOptions(opts)

	var m map[string]any
	if err := decMode.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("cbor: %w", err)
	}

	return fromMap(t, m, cfg)
}

// UnmarshalReader decodes the first CBOR item read from r into a record
// of type t.
func UnmarshalReader(t *declare.Type, r io.Reader, opts ...Option) (*declare.Record, error) {
	cfg := applyOptions(opts)

	var m map[string]any
	if err := decMode.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("cbor: %w", err)
	}

	return fromMap(t, m, cfg)
}

// UnmarshalList decodes a CBOR array into a list of type lt.
func UnmarshalList(lt *declare.ListType, data []byte, opts ...Option) (*declare.List, error) {
	cfg := applyOptions(opts)

	var items []any
	if err := decMode.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("cbor: %w", err)
	}

	return lt.FromSlice(items, cfg.options()...)
}

// UnmarshalSequence reads a CBOR sequence from r until EOF, decoding each
// item into a record of type t.
func UnmarshalSequence(t *declare.Type, r io.Reader, opts ...Option) ([]*declare.Record, error) {
	cfg := applyOptions(opts)
	dec := decMode.NewDecoder(r)

	var out []*declare.Record
	for {
		var m map[string]any
		err := dec.Decode(&m)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("cbor: item %d: %w", len(out), err)
		}

		rec, err := fromMap(t, m, cfg)
		if err != nil {
			return nil, fmt.Errorf("cbor: item %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
}

// Diagnose returns the diagnostic notation (RFC 8949 section 8) of data.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}

func fromMap(t *declare.Type, m map[string]any, cfg *config) (*declare.Record, error) {
	if cfg.disallowUnknown {
		if unknown := t.UnknownKeys(m); len(unknown) > 0 {
			slices.Sort(unknown)
			return nil, fmt.Errorf("cbor: %s: %w: %v", t.Name(), declare.ErrUnknownField, unknown)
		}
	}

	return t.FromMap(m, cfg.options()...)
}

// MarshalSequence writes records to w as a CBOR sequence (RFC 8742), one
// item per record. Read it back with [UnmarshalSequence].
func MarshalSequence(w io.Writer, records []*declare.Record, opts ...Option) error {
	var buf bytes.Buffer
	for _, r := range records {
		data, err := Marshal(r, opts...)
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	_, err := w.Write(buf.Bytes())

	return err
}

// plain replaces mappings inside slices with plain maps.
func plain(items []any) []any {
	out := make([]any, len(items))
	for i, item := range items {
		switch x := item.(type) {
		case *declare.Mapping:
			out[i] = x.Map()
		case []any:
			out[i] = plain(x)
		default:
			out[i] = item
		}
	}

	return out
}
