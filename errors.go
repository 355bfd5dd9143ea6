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
	"strings"
)

// Op names the stage at which a field-level error happened.
type Op string

const (
	OpDeclare   Op = "declare"
	OpConstruct Op = "construct"
	OpGet       Op = "get"
	OpSet       Op = "set"
	OpEncode    Op = "encode"
	OpDecode    Op = "decode"
)

// Static errors for declaration and conversion.
var (
	ErrMissingRequired     = errors.New("missing required field")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrNoCodec             = errors.New("no codec registered")
	ErrUnsupportedNesting  = errors.New("nested records are not supported by this format")
	ErrUnknownField        = errors.New("unknown field")
	ErrAbstractType        = errors.New("record type declares no fields")
	ErrConflictingDefaults = errors.New("default value and default factory are both set")
	ErrConflictingRoles    = errors.New("field cannot be both an xml attribute and xml text")
	ErrDuplicateField      = errors.New("field declared more than once")
	ErrDuplicateArgument   = errors.New("argument given both positionally and by name")
	ErrTooManyArguments    = errors.New("too many positional arguments")
	ErrInvalidType         = errors.New("invalid declared type")
)

// FieldError reports a failure tied to one field of one record type.
//
// Use [errors.As] to inspect it:
//
//	var fe *declare.FieldError
//	if errors.As(err, &fe) {
//	    fmt.Println(fe.Type, fe.Field, fe.Op)
//	}
//
// The wrapped sentinel is reachable through [errors.Is]:
//
//	errors.Is(err, declare.ErrMissingRequired)
type FieldError struct {
	Type   string // Record type name
	Field  string // Internal field name
	Op     Op     // Stage that failed
	Value  any    // Offending value, if any
	Reason string // Human-readable detail
	Err    error  // Underlying error
}

// Error returns a formatted error message.
func (e *FieldError) Error() string {
	var b strings.Builder
	b.WriteString("declare: ")
	if e.Type != "" {
		b.WriteString(e.Type)
		b.WriteString(".")
	}
	b.WriteString(e.Field)
	if e.Op != "" {
		b.WriteString(" (")
		b.WriteString(string(e.Op))
		b.WriteString(")")
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Code returns a stable machine-readable code for the failure.
func (e *FieldError) Code() string {
	switch {
	case errors.Is(e.Err, ErrMissingRequired):
		return "missing_required"
	case errors.Is(e.Err, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(e.Err, ErrNoCodec):
		return "no_codec"
	case errors.Is(e.Err, ErrUnsupportedNesting):
		return "unsupported_nesting"
	case errors.Is(e.Err, ErrUnknownField):
		return "unknown_field"
	default:
		return "field_error"
	}
}

func newFieldError(t *Type, field string, op Op, err error) *FieldError {
	fe := &FieldError{Field: field, Op: op, Err: err}
	if t != nil {
		fe.Type = t.name
	}

	return fe
}

// mismatch builds the error returned when a value cannot be coerced.
func mismatch(t *Type, f *Field, op Op, v any, cause error) *FieldError {
	fe := newFieldError(t, f.name, op, ErrTypeMismatch)
	fe.Value = v
	fe.Reason = fmt.Sprintf("cannot use %T as %s", v, f.TypeName())
	if cause != nil && !errors.Is(cause, ErrTypeMismatch) {
		fe.Reason += ": " + cause.Error()
	}

	return fe
}

// MultiError aggregates the declaration errors collected by [NewType].
//
// Use [errors.As] to check for MultiError:
//
//	var multi *declare.MultiError
//	if errors.As(err, &multi) {
//	    for _, e := range multi.Errors {
//	        // Handle each error
//	    }
//	}
type MultiError struct {
	Errors []error
}

// Error returns a formatted error message.
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	msgs := make([]string, len(m.Errors))
	for i, err := range m.Errors {
		msgs[i] = err.Error()
	}

	return fmt.Sprintf("%d declaration errors occurred: %s", len(m.Errors), strings.Join(msgs, "; "))
}

// Unwrap returns all errors for errors.Is/As compatibility.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add appends an error to the MultiError.
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ErrorOrNil returns nil if there are no errors, otherwise returns the MultiError.
func (m *MultiError) ErrorOrNil() error {
	if !m.HasErrors() {
		return nil
	}

	return m
}
