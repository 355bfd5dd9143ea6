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
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Document is the decoded form of a catalog file.
type Document struct {
	Types []TypeSpec `mapstructure:"types"`
}

// TypeSpec declares one record type.
type TypeSpec struct {
	Name    string      `mapstructure:"name"`
	XMLTag  string      `mapstructure:"xml_tag"`
	Extends []string    `mapstructure:"extends"`
	Fields  []FieldSpec `mapstructure:"fields"`
}

// FieldSpec declares one field of a [TypeSpec].
//
// Type is a scalar name (string, int, int64, uint, float64, bool, bytes,
// time, duration, any), "list" with Elem, "map" with Value, or the name
// of another record type.
type FieldSpec struct {
	Name            string   `mapstructure:"name"`
	Type            string   `mapstructure:"type"`
	External        string   `mapstructure:"external"`
	Required        *bool    `mapstructure:"required"`
	Default         any      `mapstructure:"default"`
	IgnoreSerialize bool     `mapstructure:"ignore_serialize"`
	Init            *bool    `mapstructure:"init"`
	XML             string   `mapstructure:"xml"`
	Naming          string   `mapstructure:"naming"`
	Elem            string   `mapstructure:"elem"`
	Value           string   `mapstructure:"value"`
	Layouts         []string `mapstructure:"layouts"`
	Enum            []string `mapstructure:"enum"`

	hasDefault bool
}

// HasDefault reports whether the document gave the field a default,
// including an explicit null.
func (f FieldSpec) HasDefault() bool { return f.hasDefault }

// toDocument turns a validated generic document into a [Document].
func toDocument(raw map[string]any) (*Document, error) {
	var doc Document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	// mapstructure cannot tell an absent default from a null one.
	for i, t := range asList(raw["types"]) {
		tm, _ := t.(map[string]any)
		fields := asList(tm["fields"])
		for j, f := range fields {
			fm, _ := f.(map[string]any)
			if _, ok := fm["default"]; ok && i < len(doc.Types) && j < len(doc.Types[i].Fields) {
				doc.Types[i].Fields[j].hasDefault = true
			}
		}
	}

	return &doc, nil
}

func asList(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []map[string]any:
		out := make([]any, len(x))
		for i, m := range x {
			out[i] = m
		}
		return out
	default:
		return nil
	}
}
