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
	"log/slog"
)

// Options configures a conversion call.
//
// Options are applied per call via functional options. Option functions
// are safe to reuse across goroutines; applyOptions builds a fresh Options
// value on every call.
type Options struct {
	SkipMissing   bool          // Omit nil and missing optional values on output
	Indent        int           // Indentation width for JSON and XML output (0 = compact)
	Registry      *Registry     // Codec registry (default: the type's registry, then DefaultRegistry)
	TextFormatter TextFormatter // XML text writer (default: DefaultTextFormatter)
	Logger        *slog.Logger  // Debug logging of cast and codec fallbacks (default: discard)

	// encode applies field and registry codecs while building the mapping
	// form.
	encode bool
	// registrySet pins Registry for nested types too.
	registrySet bool
}

// Option configures conversion behavior.
type Option func(*Options)

// WithSkipMissing omits fields whose value is nil or missing instead of
// writing null, empty text or empty elements.
func WithSkipMissing() Option {
	return func(o *Options) {
		o.SkipMissing = true
	}
}

// WithIndent pretty-prints JSON and XML output with n spaces per level.
func WithIndent(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.Indent = n
		}
	}
}

// WithRegistry sets the codec registry used for the call, overriding the
// registry bound to the record type and to every nested record type.
func WithRegistry(r *Registry) Option {
	return func(o *Options) {
		o.Registry = r
		o.registrySet = r != nil
	}
}

// WithTextFormatter replaces the XML text writer.
func WithTextFormatter(f TextFormatter) Option {
	return func(o *Options) {
		o.TextFormatter = f
	}
}

// WithLogger routes debug logging of cast and codec fallbacks to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

var discardLogger = slog.New(slog.DiscardHandler)

// applyOptions resolves opts against the defaults of t. t may be nil.
func applyOptions(t *Type, opts []Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.Registry == nil {
		if t != nil && t.registry != nil {
			o.Registry = t.registry
		} else {
			o.Registry = DefaultRegistry
		}
	}
	if o.TextFormatter == nil {
		o.TextFormatter = DefaultTextFormatter
	}
	if o.Logger == nil {
		o.Logger = discardLogger
	}

	return o
}

// forType switches to the registry bound to t unless the call pinned one
// with [WithRegistry]. Types without a registry keep the current one.
func (o *Options) forType(t *Type) *Options {
	if o.registrySet || t == nil || t.registry == nil || t.registry == o.Registry {
		return o
	}

	n := *o
	n.Registry = t.registry

	return &n
}
