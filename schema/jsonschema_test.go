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
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/declare"
)

func compile(t *testing.T, data []byte) *jsonschema.Schema {
	t.Helper()

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	require.NoError(t, err)

	c := jsonschema.NewCompiler()
	require.NoError(t, c.AddResource("generated.json", doc))
	sch, err := c.Compile("generated.json")
	require.NoError(t, err)

	return sch
}

func instance(t *testing.T, data string) any {
	t.Helper()

	v, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(data)))
	require.NoError(t, err)

	return v
}

func TestJSONSchema_Catalog(t *testing.T) {
	t.Parallel()

	c, err := LoadFile(filepath.Join("testdata", "catalog.yaml"))
	require.NoError(t, err)

	data, err := c.JSONSchema("Person")
	require.NoError(t, err)

	var got struct {
		Schema string                     `json:"$schema"`
		Ref    string                     `json:"$ref"`
		Defs   map[string]json.RawMessage `json:"$defs"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, dialect, got.Schema)
	assert.Equal(t, "#/$defs/Person", got.Ref)
	assert.Len(t, got.Defs, 2)

	var person struct {
		Required   []string                   `json:"required"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(got.Defs["Person"], &person))
	assert.Equal(t, []string{"name"}, person.Required)
	assert.JSONEq(t, `{"type":["integer","null"]}`, string(person.Properties["id"]))
	assert.JSONEq(t, `{"type":"integer"}`, string(person.Properties["age"]))
	assert.JSONEq(t, `{"anyOf":[{"$ref":"#/$defs/Address"},{"type":"null"}]}`, string(person.Properties["address"]))
	assert.JSONEq(t, `{"type":["array","null"],"items":{"type":"string"}}`, string(person.Properties["tags"]))

	var address struct {
		Required []string `json:"required"`
	}
	require.NoError(t, json.Unmarshal(got.Defs["Address"], &address))
	assert.Equal(t, []string{"street", "zip"}, address.Required)

	_, err = c.JSONSchema("Nope")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestJSONSchema_ValidatesRecordOutput(t *testing.T) {
	t.Parallel()

	c, err := LoadFile(filepath.Join("testdata", "catalog.yaml"))
	require.NoError(t, err)
	person := c.MustType("Person")

	data, err := c.JSONSchema("Person")
	require.NoError(t, err)
	sch := compile(t, data)

	r, err := person.New(declare.Named{
		"name":    "Tom",
		"address": map[string]any{"street": "Main", "zip": "0150"},
		"tags":    []any{"a"},
	})
	require.NoError(t, err)
	out, err := r.ToJSON()
	require.NoError(t, err)
	require.NoError(t, sch.Validate(instance(t, string(out))))

	assert.Error(t, sch.Validate(instance(t, `{"age":3}`)), "name is required")
	assert.Error(t, sch.Validate(instance(t, `{"name":5}`)))
	assert.Error(t, sch.Validate(instance(t, `{"name":"x","address":{"street":"Main"}}`)))
}

func TestJSONSchema_Scalars(t *testing.T) {
	t.Parallel()

	typ := declare.MustNewType("Sample", declare.Fields(
		declare.Var("at", declare.Time),
		declare.Var("every", declare.Duration),
		declare.Var("blob", declare.Bytes),
		declare.Var("ratio", declare.Float64),
		declare.Var("ok", declare.Bool),
		declare.Var("extra", declare.Any),
		declare.Var("counts", declare.MapOf(declare.Int)),
		declare.Var("stamp", declare.Time, declare.WithCodec(declare.TimeCodec("2006-01-02"))),
		declare.Var("secret", declare.String, declare.IgnoreSerialize()),
	))

	data, err := JSONSchema(typ)
	require.NoError(t, err)

	var got struct {
		Defs map[string]struct {
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"$defs"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	props := got.Defs["Sample"].Properties

	want := map[string]string{
		"at":     `{"type":"string","format":"date-time"}`,
		"every":  `{"type":"string"}`,
		"blob":   `{"type":"string","contentEncoding":"base64"}`,
		"ratio":  `{"type":"number"}`,
		"ok":     `{"type":"boolean"}`,
		"extra":  `{}`,
		"counts": `{"type":"object","additionalProperties":{"type":"integer"}}`,
		"stamp":  `{"type":"string"}`,
	}
	assert.Len(t, props, len(want))
	for name, schema := range want {
		assert.JSONEq(t, schema, string(props[name]), name)
	}
}

func TestJSONSchema_Enums(t *testing.T) {
	t.Parallel()

	doc := []byte(`
types:
  - name: Paint
    fields:
      - {name: color, type: string, enum: [red, green]}
      - {name: finish, type: string, enum: [matte, gloss], required: false}
  - name: Primer
    extends: [Paint]
    fields:
      - {name: coats, type: int}
`)
	c, err := Load(doc, FormatYAML)
	require.NoError(t, err)

	data, err := c.JSONSchema("Primer")
	require.NoError(t, err)
	sch := compile(t, data)

	require.NoError(t, sch.Validate(instance(t, `{"color":"red","finish":null,"coats":2}`)))
	assert.Error(t, sch.Validate(instance(t, `{"color":"blue","coats":2}`)))
	assert.Error(t, sch.Validate(instance(t, `{"color":"red","finish":"satin","coats":2}`)))
}
