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

package toml

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/declare"
)

var (
	tlsType = declare.MustNewType("TLS", declare.Fields(
		declare.Var("cert", declare.String),
		declare.Var("key", declare.String, declare.Optional()),
	))
	serverType = declare.MustNewType("Server", declare.Fields(
		declare.Var("host", declare.String),
		declare.Var("port", declare.Int, declare.Default(8080)),
		declare.Var("readTimeout", declare.Duration, declare.Optional()),
		declare.Var("tls", tlsType, declare.Optional()),
		declare.Var("upstreams", declare.ListOf(tlsType), declare.Optional()),
	))
)

func TestMarshal(t *testing.T) {
	t.Parallel()

	r := serverType.MustNew("localhost", 9000, 5*time.Second, map[string]any{"cert": "a.pem"})

	data, err := Marshal(r)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `host = "localhost"`)
	assert.Contains(t, out, `port = 9000`)
	assert.Contains(t, out, `read_timeout = "5s"`)
	assert.Contains(t, out, "[tls]\n")
	assert.Contains(t, out, `cert = "a.pem"`)
	assert.NotContains(t, out, "key", "nil fields are left out")
	assert.Less(t, strings.Index(out, "host"), strings.Index(out, "[tls]"))
}

func TestMarshal_MissingRequired(t *testing.T) {
	t.Parallel()

	r, err := serverType.FromMap(map[string]any{"port": 1})
	require.NoError(t, err)

	_, err = Marshal(r)
	assert.ErrorIs(t, err, declare.ErrMissingRequired)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	r := serverType.MustNew("localhost", 9000, time.Minute,
		map[string]any{"cert": "a.pem", "key": "a.key"},
		[]any{map[string]any{"cert": "b.pem"}, map[string]any{"cert": "c.pem"}},
	)

	data, err := Marshal(r)
	require.NoError(t, err)

	back, err := Unmarshal(serverType, data)
	require.NoError(t, err)
	assert.Equal(t, 9000, back.MustGet("port"))
	assert.Equal(t, time.Minute, back.MustGet("readTimeout"))
	assert.True(t, r.MustGet("tls").(*declare.Record).Equal(back.MustGet("tls").(*declare.Record)))

	ups := back.MustGet("upstreams").(*declare.List)
	require.Equal(t, 2, ups.Len())
	assert.Equal(t, "c.pem", ups.At(1).(*declare.Record).MustGet("cert"))
}

func TestUnmarshal_Defaults(t *testing.T) {
	t.Parallel()

	r, err := UnmarshalReader(serverType, strings.NewReader(`host = "example.org"`))
	require.NoError(t, err)
	assert.Equal(t, 8080, r.MustGet("port"))
	assert.Equal(t, "example.org", r.MustGet("host"))
}

func TestUnmarshalWithMetadata(t *testing.T) {
	t.Parallel()

	body := []byte(`
host = "example.org"

[tls]
cert = "x.pem"
`)

	r, meta, err := UnmarshalWithMetadata(serverType, body)
	require.NoError(t, err)
	assert.True(t, meta.IsDefined("tls", "cert"))
	assert.False(t, meta.IsDefined("tls", "key"))
	assert.Equal(t, "x.pem", r.MustGet("tls").(*declare.Record).MustGet("cert"))
}

func TestUnmarshal_Strict(t *testing.T) {
	t.Parallel()

	body := []byte("host = \"a\"\nlisten = \":80\"\n")

	_, err := Unmarshal(serverType, body)
	require.NoError(t, err)

	_, err = Unmarshal(serverType, body, WithStrict())
	require.ErrorIs(t, err, declare.ErrUnknownField)
	assert.Contains(t, err.Error(), "listen")
}

func TestUnmarshal_Errors(t *testing.T) {
	t.Parallel()

	_, err := Unmarshal(serverType, []byte("host = "))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toml:")

	_, err = Unmarshal(serverType, []byte("host = \"a\"\nport = \"http\"\n"))
	declare.AssertFieldError(t, err, "port", declare.ErrTypeMismatch)
}
