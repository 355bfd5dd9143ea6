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

package schema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema.json
var catalogSchema []byte

const catalogSchemaURL = "declare-catalog.json"

var printer = message.NewPrinter(language.English)

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(catalogSchema))
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(catalogSchemaURL, doc); err != nil {
		return nil, err
	}

	return compiler.Compile(catalogSchemaURL)
})

// Schema returns the JSON Schema that catalog documents are checked
// against.
func Schema() []byte {
	return bytes.Clone(catalogSchema)
}

// validate checks the generic document against the catalog schema.
// Values are passed through JSON first so that every format presents the
// same instance types.
func validate(doc map[string]any) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling catalog schema: %w", err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if err := sch.Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &ValidationError{causes: flatten(ve)}
		}
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidationError lists the schema violations of a document.
type ValidationError struct {
	causes []string
}

// Causes returns one "location: message" entry per violation.
func (e *ValidationError) Causes() []string { return append([]string(nil), e.causes...) }

func (e *ValidationError) Error() string {
	var b bytes.Buffer
	b.WriteString(ErrInvalidDocument.Error())
	for i, c := range e.causes {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(c)
	}

	return b.String()
}

// Unwrap returns [ErrInvalidDocument].
func (e *ValidationError) Unwrap() error { return ErrInvalidDocument }

// flatten collects the leaf errors of a validation tree.
func flatten(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		loc := "/" + joinLocation(ve.InstanceLocation)
		return []string{loc + ": " + ve.ErrorKind.LocalizedString(printer)}
	}

	var out []string
	for _, c := range ve.Causes {
		out = append(out, flatten(c)...)
	}

	return out
}

func joinLocation(parts []string) string {
	var b bytes.Buffer
	for i, p := range parts {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(p)
	}

	return b.String()
}
