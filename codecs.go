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
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var errEmptyValue = errors.New("empty value")

// funcCodec adapts a pair of typed functions to [Codec].
type funcCodec[T any] struct {
	encode func(T) (string, error)
	decode func(string) (T, error)
}

// NewCodec builds a [Codec] for T from typed encode and decode functions.
// Decode accepts a T as-is, strings and byte slices directly, and any other
// scalar after string conversion.
func NewCodec[T any](encode func(T) (string, error), decode func(string) (T, error)) Codec {
	return funcCodec[T]{encode: encode, decode: decode}
}

// Encode implements [Codec].
func (c funcCodec[T]) Encode(v any) (any, error) {
	t, ok := v.(T)
	if !ok {
		return nil, fmt.Errorf("%w: codec for %s got %T", ErrTypeMismatch, reflect.TypeFor[T](), v)
	}

	return c.encode(t)
}

// Decode implements [Codec].
func (c funcCodec[T]) Decode(v any) (any, error) {
	switch x := v.(type) {
	case T:
		return x, nil
	case string:
		return c.decode(x)
	case []byte:
		return c.decode(string(x))
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTypeMismatch, err)
	}

	return c.decode(s)
}

// TimeCodec returns a codec for [time.Time]. Values are encoded with the
// first layout; decoding tries each layout in order until one succeeds.
// Without layouts it uses [time.RFC3339Nano].
//
// Example:
//
//	declare.Register[time.Time](reg, declare.TimeCodec(
//	    "2006-01-02 15:04:05", // encoded form
//	    time.RFC3339,          // also accepted on input
//	))
func TimeCodec(layouts ...string) Codec {
	if len(layouts) == 0 {
		layouts = []string{time.RFC3339Nano}
	}

	return NewCodec(
		func(t time.Time) (string, error) {
			return t.Format(layouts[0]), nil
		},
		func(s string) (time.Time, error) {
			s = strings.TrimSpace(s)
			if s == "" {
				return time.Time{}, errEmptyValue
			}

			var lastErr error
			for _, layout := range layouts {
				t, err := time.Parse(layout, s)
				if err == nil {
					return t, nil
				}
				lastErr = err
			}

			return time.Time{}, fmt.Errorf("unable to parse time %q (tried %d layouts): %w",
				s, len(layouts), lastErr)
		},
	)
}

// DurationCodec returns a codec that encodes [time.Duration] values with
// [time.Duration.String] and decodes duration strings like "1h30m".
func DurationCodec() Codec {
	return NewCodec(
		func(d time.Duration) (string, error) {
			return d.String(), nil
		},
		func(s string) (time.Duration, error) {
			s = strings.TrimSpace(s)
			if s == "" {
				return 0, errEmptyValue
			}

			return cast.ToDurationE(s)
		},
	)
}

// EnumCodec returns a codec for a string-based type that only accepts the
// listed values.
//
// Example:
//
//	type Status string
//
//	declare.Register[Status](reg, declare.EnumCodec[Status]("active", "disabled"))
func EnumCodec[T ~string](allowed ...T) Codec {
	check := func(v T) error {
		if slices.Contains(allowed, v) {
			return nil
		}
		names := make([]string, len(allowed))
		for i, a := range allowed {
			names[i] = string(a)
		}

		return fmt.Errorf("%w: %q is not one of [%s]", ErrTypeMismatch, string(v), strings.Join(names, ", "))
	}

	return NewCodec(
		func(v T) (string, error) {
			if err := check(v); err != nil {
				return "", err
			}
			return string(v), nil
		},
		func(s string) (T, error) {
			v := T(strings.TrimSpace(s))
			if err := check(v); err != nil {
				return "", err
			}
			return v, nil
		},
	)
}
