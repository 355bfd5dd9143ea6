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
	"testing"

	"github.com/stretchr/testify/require"
)

// TestType declares a record type and fails the test if the declaration
// is invalid.
//
// Example:
//
//	person := declare.TestType(t, "Person", declare.Fields(
//	    declare.Var("name", declare.String),
//	))
func TestType(t *testing.T, name string, opts ...TypeOption) *Type {
	t.Helper()

	typ, err := NewType(name, opts...)
	if err != nil {
		t.Fatalf("TestType: declaring %q failed: %v", name, err)
	}
	return typ
}

// MustNew constructs a record and fails the test if construction fails.
//
// Example:
//
//	tom := declare.MustNew(t, person, "Tom", declare.Named{"age": 18})
func MustNew(t *testing.T, typ *Type, args ...any) *Record {
	t.Helper()

	r, err := typ.New(args...)
	if err != nil {
		var fe *FieldError
		if errors.As(err, &fe) {
			t.Fatalf("MustNew(%s): field %q (%s): %v", typ.Name(), fe.Field, fe.Op, err)
		}
		t.Fatalf("MustNew(%s): %v", typ.Name(), err)
	}
	return r
}

// AssertFieldError checks that err is a [*FieldError] for the expected
// field wrapping target. It returns the FieldError.
//
// Example:
//
//	_, err := person.New(declare.Named{"age": 18})
//	fe := declare.AssertFieldError(t, err, "name", declare.ErrMissingRequired)
//	assert.Equal(t, declare.OpConstruct, fe.Op)
func AssertFieldError(t *testing.T, err error, expectedField string, target error) *FieldError {
	t.Helper()

	if err == nil {
		t.Fatalf("AssertFieldError: expected FieldError for field %q, got nil", expectedField)
	}

	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("AssertFieldError: expected *FieldError, got %T: %v", err, err)
	}
	if fe.Field != expectedField {
		t.Fatalf("AssertFieldError: expected field %q, got %q", expectedField, fe.Field)
	}
	if target != nil && !errors.Is(err, target) {
		t.Fatalf("AssertFieldError: expected %v, got %v", target, err)
	}

	return fe
}

// RequireJSONEqual encodes r as JSON and requires it to equal expected,
// ignoring insignificant whitespace and key order.
//
// Example:
//
//	declare.RequireJSONEqual(t, `{"name":"Tom","age":18}`, tom)
func RequireJSONEqual(t *testing.T, expected string, r *Record, opts ...Option) {
	t.Helper()

	data, err := r.ToJSON(opts...)
	require.NoError(t, err, "RequireJSONEqual: encoding %s", r.Type().Name())
	require.JSONEq(t, expected, string(data))
}

// RequireRoundTrip encodes r with encode, decodes the result with decode
// and requires the decoded record to equal r.
//
// Example:
//
//	declare.RequireRoundTrip(t, tom, (*declare.Record).ToJSON, person.FromJSON)
func RequireRoundTrip[D any](t *testing.T, r *Record,
	encode func(*Record, ...Option) (D, error),
	decode func(D, ...Option) (*Record, error),
) {
	t.Helper()

	data, err := encode(r)
	require.NoError(t, err, "RequireRoundTrip: encode")

	got, err := decode(data)
	require.NoError(t, err, "RequireRoundTrip: decode of %v", data)

	if !r.Equal(got) {
		t.Fatalf("RequireRoundTrip: got %s, want %s", got, r)
	}
}
