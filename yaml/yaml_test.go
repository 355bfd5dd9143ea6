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

package yaml

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"rivaas.dev/declare"
)

var (
	addressType = declare.MustNewType("Address", declare.Fields(
		declare.Var("city", declare.String),
		declare.Var("zipCode", declare.String, declare.Optional()),
	))
	userType = declare.MustNewType("User", declare.Fields(
		declare.Var("name", declare.String),
		declare.Var("age", declare.Int, declare.Optional()),
		declare.Var("tags", declare.ListOf(declare.String), declare.Optional()),
		declare.Var("home", addressType, declare.Optional()),
		declare.Var("timeout", declare.Duration, declare.Optional()),
	))
)

func TestMarshal_FieldOrder(t *testing.T) {
	t.Parallel()

	r := declare.MustNewType("Point", declare.Fields(
		declare.Var("lon", declare.Int),
		declare.Var("lat", declare.Int),
	)).MustNew(2, 1)

	data, err := Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, "lon: 2\nlat: 1\n", string(data), "fields keep declaration order")
}

func TestMarshal_Nested(t *testing.T) {
	t.Parallel()

	r := userType.MustNew("Ann", 30,
		declare.ListOf(declare.String).MustNew("a", "b"),
		map[string]any{"city": "Oslo"},
		90*time.Second,
	)

	data, err := Marshal(r, WithSkipMissing())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{
		"name":    "Ann",
		"age":     30,
		"tags":    []any{"a", "b"},
		"home":    map[string]any{"city": "Oslo"},
		"timeout": "1m30s",
	}, got)
}

func TestMarshal_MissingAsNull(t *testing.T) {
	t.Parallel()

	r := userType.MustNew("Ann")

	data, err := Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), "age: null")

	data, err = Marshal(r, WithSkipMissing())
	require.NoError(t, err)
	assert.Equal(t, "name: Ann\n", string(data))
}

func TestMarshal_MissingRequired(t *testing.T) {
	t.Parallel()

	r, err := userType.FromMap(map[string]any{})
	require.NoError(t, err)

	_, err = Marshal(r)
	assert.ErrorIs(t, err, declare.ErrMissingRequired)
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	body := []byte(`
name: Ann
age: "30"
tags: [a, b]
home:
  city: Oslo
  zip_code: "0150"
timeout: 2m
`)

	r, err := Unmarshal(userType, body)
	require.NoError(t, err)
	assert.Equal(t, "Ann", r.MustGet("name"))
	assert.Equal(t, 30, r.MustGet("age"), "scalars go through the cast contract")
	assert.Equal(t, 2*time.Minute, r.MustGet("timeout"))
	assert.Equal(t, 2, r.MustGet("tags").(*declare.List).Len())

	home := r.MustGet("home").(*declare.Record)
	assert.Equal(t, "0150", home.MustGet("zipCode"))
}

func TestUnmarshal_Reader(t *testing.T) {
	t.Parallel()

	r, err := UnmarshalReader(userType, strings.NewReader("name: Bo\n"))
	require.NoError(t, err)
	assert.Equal(t, "Bo", r.MustGet("name"))
	assert.True(t, r.IsMissing("age"))
}

func TestUnmarshal_Strict(t *testing.T) {
	t.Parallel()

	body := []byte("name: Ann\nnickname: A\n")

	_, err := Unmarshal(userType, body)
	require.NoError(t, err)

	_, err = Unmarshal(userType, body, WithStrict())
	require.ErrorIs(t, err, declare.ErrUnknownField)
	assert.Contains(t, err.Error(), "nickname")
}

func TestUnmarshal_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want error
	}{
		{name: "sequence", body: "- a\n- b\n", want: declare.ErrTypeMismatch},
		{name: "scalar", body: "hello", want: declare.ErrTypeMismatch},
		{name: "bad cast", body: "name: Ann\nage: old\n", want: declare.ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Unmarshal(userType, []byte(tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := Unmarshal(userType, []byte("name: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yaml:")
}

func TestList_RoundTrip(t *testing.T) {
	t.Parallel()

	lt := declare.ListOf(addressType)
	l := lt.MustNew(
		addressType.MustNew("Oslo", "0150"),
		addressType.MustNew("Rome", nil),
	)

	data, err := MarshalList(l)
	require.NoError(t, err)

	back, err := UnmarshalList(lt, data)
	require.NoError(t, err)
	assert.True(t, l.Equal(back))

	_, err = UnmarshalList(lt, []byte("city: Oslo\n"))
	assert.ErrorIs(t, err, declare.ErrTypeMismatch)
}

func TestNode(t *testing.T) {
	t.Parallel()

	n, err := Node(addressType.MustNew("Oslo"), WithSkipMissing())
	require.NoError(t, err)
	require.Equal(t, yaml.MappingNode, n.Kind)
	require.Len(t, n.Content, 2)
	assert.Equal(t, "city", n.Content[0].Value)
	assert.Equal(t, "Oslo", n.Content[1].Value)
}
