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

package main

import (
	"fmt"
	"slices"
	"strings"

	"rivaas.dev/declare"
	"rivaas.dev/declare/cbor"
	"rivaas.dev/declare/msgpack"
	"rivaas.dev/declare/proto"
	"rivaas.dev/declare/toml"
	"rivaas.dev/declare/yaml"
)

// settings are the conversion settings every format sees.
type settings struct {
	skipMissing bool
	indent      int
	strict      bool
	opts        []declare.Option
}

func (s settings) declareOptions() []declare.Option {
	opts := slices.Clone(s.opts)
	if s.skipMissing {
		opts = append(opts, declare.WithSkipMissing())
	}
	if s.indent > 0 {
		opts = append(opts, declare.WithIndent(s.indent))
	}

	return opts
}

type format struct {
	decode     func(t *declare.Type, data []byte, s settings) (*declare.Record, error)
	encode     func(r *declare.Record, s settings) ([]byte, error)
	decodeList func(lt *declare.ListType, data []byte, s settings) (*declare.List, error)
	encodeList func(l *declare.List, s settings) ([]byte, error)
}

var formats = map[string]format{
	"json": {
		decode: func(t *declare.Type, data []byte, s settings) (*declare.Record, error) {
			if s.strict {
				if err := checkUnknownJSON(t, data); err != nil {
					return nil, err
				}
			}
			return t.FromJSON(data, s.declareOptions()...)
		},
		encode: func(r *declare.Record, s settings) ([]byte, error) {
			return r.ToJSON(s.declareOptions()...)
		},
		decodeList: func(lt *declare.ListType, data []byte, s settings) (*declare.List, error) {
			return lt.FromJSON(data, s.declareOptions()...)
		},
		encodeList: func(l *declare.List, s settings) ([]byte, error) {
			return l.ToJSON(s.declareOptions()...)
		},
	},
	"xml": {
		decode: func(t *declare.Type, data []byte, s settings) (*declare.Record, error) {
			return t.FromXML(data, s.declareOptions()...)
		},
		encode: func(r *declare.Record, s settings) ([]byte, error) {
			return r.ToXML(s.declareOptions()...)
		},
		decodeList: func(lt *declare.ListType, data []byte, s settings) (*declare.List, error) {
			return lt.FromXML(data, s.declareOptions()...)
		},
		encodeList: func(l *declare.List, s settings) ([]byte, error) {
			return l.ToXML(s.declareOptions()...)
		},
	},
	"form": {
		decode: func(t *declare.Type, data []byte, s settings) (*declare.Record, error) {
			return t.FromForm(strings.TrimSpace(string(data)), s.declareOptions()...)
		},
		encode: func(r *declare.Record, s settings) ([]byte, error) {
			out, err := r.ToForm(s.declareOptions()...)
			return []byte(out), err
		},
	},
	"query": {
		decode: func(t *declare.Type, data []byte, s settings) (*declare.Record, error) {
			return t.FromQuery(strings.TrimSpace(string(data)), s.declareOptions()...)
		},
		encode: func(r *declare.Record, s settings) ([]byte, error) {
			out, err := r.ToQuery(s.declareOptions()...)
			return []byte(out), err
		},
	},
	"yaml": {
		decode: func(t *declare.Type, data []byte, s settings) (*declare.Record, error) {
			return yaml.Unmarshal(t, data, yamlOptions(s)...)
		},
		encode: func(r *declare.Record, s settings) ([]byte, error) {
			return yaml.Marshal(r, yamlOptions(s)...)
		},
		decodeList: func(lt *declare.ListType, data []byte, s settings) (*declare.List, error) {
			return yaml.UnmarshalList(lt, data, yamlOptions(s)...)
		},
		encodeList: func(l *declare.List, s settings) ([]byte, error) {
			return yaml.MarshalList(l, yamlOptions(s)...)
		},
	},
	"toml": {
		decode: func(t *declare.Type, data []byte, s settings) (*declare.Record, error) {
			opts := []toml.Option{toml.WithOptions(s.opts...)}
			if s.strict {
				opts = append(opts, toml.WithStrict())
			}
			return toml.Unmarshal(t, data, opts...)
		},
		encode: func(r *declare.Record, s settings) ([]byte, error) {
			opts := []toml.Option{toml.WithOptions(s.opts...)}
			if s.indent > 0 {
				opts = append(opts, toml.WithIndent(strings.Repeat(" ", s.indent)))
			}
			return toml.Marshal(r, opts...)
		},
	},
	"msgpack": {
		decode: func(t *declare.Type, data []byte, s settings) (*declare.Record, error) {
			return msgpack.Unmarshal(t, data, msgpackOptions(s)...)
		},
		encode: func(r *declare.Record, s settings) ([]byte, error) {
			return msgpack.Marshal(r, msgpackOptions(s)...)
		},
		decodeList: func(lt *declare.ListType, data []byte, s settings) (*declare.List, error) {
			return msgpack.UnmarshalList(lt, data, msgpackOptions(s)...)
		},
		encodeList: func(l *declare.List, s settings) ([]byte, error) {
			return msgpack.MarshalList(l, msgpackOptions(s)...)
		},
	},
	"cbor": {
		decode: func(t *declare.Type, data []byte, s settings) (*declare.Record, error) {
			return cbor.Unmarshal(t, data, cborOptions(s)...)
		},
		encode: func(r *declare.Record, s settings) ([]byte, error) {
			return cbor.Marshal(r, cborOptions(s)...)
		},
		decodeList: func(lt *declare.ListType, data []byte, s settings) (*declare.List, error) {
			return cbor.UnmarshalList(lt, data, cborOptions(s)...)
		},
		encodeList: func(l *declare.List, s settings) ([]byte, error) {
			return cbor.MarshalList(l, cborOptions(s)...)
		},
	},
	"proto": {
		decode: func(t *declare.Type, data []byte, s settings) (*declare.Record, error) {
			return proto.Unmarshal(t, data, protoOptions(s)...)
		},
		encode: func(r *declare.Record, s settings) ([]byte, error) {
			return proto.Marshal(r, protoOptions(s)...)
		},
		decodeList: func(lt *declare.ListType, data []byte, s settings) (*declare.List, error) {
			return proto.UnmarshalList(lt, data, protoOptions(s)...)
		},
		encodeList: func(l *declare.List, s settings) ([]byte, error) {
			return proto.MarshalList(l, protoOptions(s)...)
		},
	},
}

func lookupFormat(name string) (format, error) {
	f, ok := formats[strings.ToLower(name)]
	if !ok {
		return format{}, usageError("unknown format %q (want one of %s)", name, formatNames())
	}

	return f, nil
}

func formatNames() string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	slices.Sort(names)

	return strings.Join(names, ", ")
}

func checkUnknownJSON(t *declare.Type, data []byte) error {
	v, err := declare.DecodeJSON(data)
	if err != nil {
		return err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	if unknown := t.UnknownKeys(m); len(unknown) > 0 {
		slices.Sort(unknown)
		return fmt.Errorf("%s: %w: %v", t.Name(), declare.ErrUnknownField, unknown)
	}

	return nil
}

func yamlOptions(s settings) []yaml.Option {
	opts := []yaml.Option{yaml.WithOptions(s.opts...)}
	if s.skipMissing {
		opts = append(opts, yaml.WithSkipMissing())
	}
	if s.strict {
		opts = append(opts, yaml.WithStrict())
	}
	if s.indent > 0 {
		opts = append(opts, yaml.WithIndent(s.indent))
	}

	return opts
}

func msgpackOptions(s settings) []msgpack.Option {
	opts := []msgpack.Option{msgpack.WithOptions(s.opts...), msgpack.WithCompactInts()}
	if s.skipMissing {
		opts = append(opts, msgpack.WithSkipMissing())
	}
	if s.strict {
		opts = append(opts, msgpack.WithDisallowUnknown())
	}

	return opts
}

func cborOptions(s settings) []cbor.Option {
	opts := []cbor.Option{cbor.WithOptions(s.opts...)}
	if s.skipMissing {
		opts = append(opts, cbor.WithSkipMissing())
	}
	if s.strict {
		opts = append(opts, cbor.WithDisallowUnknown())
	}

	return opts
}

func protoOptions(s settings) []proto.Option {
	opts := []proto.Option{proto.WithOptions(s.opts...)}
	if s.skipMissing {
		opts = append(opts, proto.WithSkipMissing())
	}

	return opts
}
