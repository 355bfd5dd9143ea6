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

// Package proto bridges declared records and Protocol Buffers through the
// well-known google.protobuf.Struct message.
//
// A record maps to a Struct and a list to a ListValue, so any service
// that accepts Struct can carry records without generated code. Numbers
// travel as doubles and are cast back to the declared field types on
// decode.
//
// Example:
//
//	s, err := proto.ToStruct(user)
//	data, err := proto.Marshal(user)
//	back, err := proto.Unmarshal(userType, data)
package proto

import (
	"fmt"
	"io"
	"slices"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"rivaas.dev/declare"
)

// Option configures Protocol Buffers conversion.
type Option func(*config)

type config struct {
	skipMissing    bool
	discardUnknown bool
	recursionLimit int
	declareOpts    []declare.Option
}

// WithSkipMissing leaves out fields that are missing or nil instead of
// writing them as NullValue.
func WithSkipMissing() Option {
	return func(c *config) {
		c.skipMissing = true
	}
}

// WithDiscardUnknown drops unknown wire fields while unmarshaling.
func WithDiscardUnknown() Option {
	return func(c *config) {
		c.discardUnknown = true
	}
}

// WithRecursionLimit sets the maximum nesting depth accepted while
// unmarshaling.
func WithRecursionLimit(limit int) Option {
	return func(c *config) {
		c.recursionLimit = limit
	}
}

// WithOptions passes conversion options through to the record layer.
func WithOptions(opts ...declare.Option) Option {
	return func(c *config) {
		c.declareOpts = append(c.declareOpts, opts...)
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{recursionLimit: 10000}
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

func (c *config) unmarshalOptions() proto.UnmarshalOptions {
	return proto.UnmarshalOptions{
		DiscardUnknown: c.discardUnknown,
		RecursionLimit: c.recursionLimit,
	}
}

var marshalOptions = proto.MarshalOptions{Deterministic: true}

// ToStruct converts r to a Struct.
func ToStruct(r *declare.Record, opts ...Option) (*structpb.Struct, error) {
	cfg := applyOptions(opts)

	m, err := r.ToExternalMap(cfg.options()...)
	if err != nil {
		return nil, err
	}

	s, err := structpb.NewStruct(m.Map())
	if err != nil {
		return nil, fmt.Errorf("proto: %s: %w", r.Type().Name(), err)
	}

	return s, nil
}

// FromStruct builds a record of type t from s.
func FromStruct(t *declare.Type, s *structpb.Struct, opts ...Option) (*declare.Record, error) {
	return t.FromMap(s.AsMap(), applyOptions(opts).options()...)
}

// ToListValue converts l to a ListValue.
func ToListValue(l *declare.List, opts ...Option) (*structpb.ListValue, error) {
	cfg := applyOptions(opts)

	items, err := l.ToExternalSlice(cfg.options()...)
	if err != nil {
		return nil, err
	}

	plain := make([]any, len(items))
	for i, item := range items {
		plain[i] = flatten(item)
	}

	lv, err := structpb.NewList(plain)
	if err != nil {
		return nil, fmt.Errorf("proto: %s: %w", l.Type(), err)
	}

	return lv, nil
}

// FromListValue builds a list of type lt from lv.
func FromListValue(lt *declare.ListType, lv *structpb.ListValue, opts ...Option) (*declare.List, error) {
	return lt.FromSlice(lv.AsSlice(), applyOptions(opts).options()...)
}

// Marshal encodes r as a serialized Struct message. Output is
// deterministic for equal records.
func Marshal(r *declare.Record, opts ...Option) ([]byte, error) {
	s, err := ToStruct(r, opts...)
	if err != nil {
		return nil, err
	}

	data, err := marshalOptions.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("proto: %w", err)
	}

	return data, nil
}

// Unmarshal decodes a serialized Struct message into a record of type t.
func Unmarshal(t *declare.Type, data []byte, opts ...Option) (*declare.Record, error) {
	cfg := applyOptions(opts)

	s := &structpb.Struct{}
	if err := cfg.unmarshalOptions().Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("proto: %w", err)
	}

	return t.FromMap(s.AsMap(), cfg.options()...)
}

// UnmarshalReader is like [Unmarshal] but reads the message from r.
func UnmarshalReader(t *declare.Type, r io.Reader, opts ...Option) (*declare.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("proto: %w", err)
	}

	return Unmarshal(t, data, opts...)
}

// MarshalList encodes l as a serialized ListValue message.
func MarshalList(l *declare.List, opts ...Option) ([]byte, error) {
	lv, err := ToListValue(l, opts...)
	if err != nil {
		return nil, err
	}

	data, err := marshalOptions.Marshal(lv)
	if err != nil {
		return nil, fmt.Errorf("proto: %w", err)
	}

	return data, nil
}

// UnmarshalList decodes a serialized ListValue message into a list of
// type lt.
func UnmarshalList(lt *declare.ListType, data []byte, opts ...Option) (*declare.List, error) {
	cfg := applyOptions(opts)

	lv := &structpb.ListValue{}
	if err := cfg.unmarshalOptions().Unmarshal(data, lv); err != nil {
		return nil, fmt.Errorf("proto: %w", err)
	}

	return lt.FromSlice(lv.AsSlice(), cfg.options()...)
}

// flatten replaces mappings with plain maps, recursively.
func flatten(v any) any {
	switch x := v.(type) {
	case *declare.Mapping:
		return x.Map()
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = flatten(item)
		}
		return out
	default:
		return v
	}
}
