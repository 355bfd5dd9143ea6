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
	"fmt"
	"maps"
	"reflect"
	"sync"
	"sync/atomic"
)

// Codec converts one scalar type to and from its external form.
//
// Encode receives a value of the registered type and returns an external
// scalar (normally a string). Decode receives an external scalar and
// returns a value of the registered type.
type Codec interface {
	Encode(v any) (any, error)
	Decode(v any) (any, error)
}

// Registry maps scalar types to codecs.
//
// Lookups are lock-free. Registration copies the map and swaps it
// atomically, so a registration is visible to every conversion that starts
// after it returns. The zero value is not usable; call [NewRegistry].
type Registry struct {
	// RCU pattern: atomic pointer to immutable map
	codecs atomic.Pointer[map[reflect.Type]Codec]

	// Write-side lock (only for updates)
	mu sync.Mutex
}

// DefaultRegistry is used by types that were not given a registry with
// [WithTypeRegistry] and by calls without [WithRegistry]. It comes with
// codecs for [time.Time] (RFC 3339) and [time.Duration].
var DefaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Time, TimeCodec())
	r.Register(Duration, DurationCodec())

	return r
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	m := make(map[reflect.Type]Codec)
	r.codecs.Store(&m)

	return r
}

// Register installs c for typ, replacing any previous codec.
func (r *Registry) Register(typ reflect.Type, c Codec) {
	if typ == nil {
		panic("declare: Register called with nil type")
	}
	if c == nil {
		panic(fmt.Sprintf("declare: Register called with nil codec for %s", typ))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.codecs.Load()

	// Copy-on-write: create new map with added entry
	newMap := make(map[reflect.Type]Codec, len(*m)+1)
	maps.Copy(newMap, *m)
	newMap[typ] = c

	r.codecs.Store(&newMap)
}

// Unregister removes the codec for typ, if any.
func (r *Registry) Unregister(typ reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.codecs.Load()
	if _, ok := (*m)[typ]; !ok {
		return
	}

	newMap := maps.Clone(*m)
	delete(newMap, typ)
	r.codecs.Store(&newMap)
}

// Lookup returns the codec for typ. It returns an error wrapping
// [ErrNoCodec] when none is registered.
func (r *Registry) Lookup(typ reflect.Type) (Codec, error) {
	if typ != nil {
		if c, ok := (*r.codecs.Load())[typ]; ok {
			return c, nil
		}
	}

	return nil, fmt.Errorf("%w for %v", ErrNoCodec, typ)
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	c := &Registry{}
	m := maps.Clone(*r.codecs.Load())
	c.codecs.Store(&m)

	return c
}

// Len returns the number of registered codecs.
func (r *Registry) Len() int {
	return len(*r.codecs.Load())
}

// Register installs c for T in r.
//
// Example:
//
//	declare.Register[time.Time](declare.DefaultRegistry, declare.TimeCodec("2006-01-02 15:04:05"))
func Register[T any](r *Registry, c Codec) {
	r.Register(reflect.TypeFor[T](), c)
}

// RegisterFunc installs a codec built from typed encode and decode
// functions for T in r.
func RegisterFunc[T any](r *Registry, encode func(T) (string, error), decode func(string) (T, error)) {
	r.Register(reflect.TypeFor[T](), NewCodec(encode, decode))
}
