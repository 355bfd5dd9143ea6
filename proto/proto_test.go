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

package proto

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"rivaas.dev/declare"
)

var (
	roleType = declare.MustNewType("Role", declare.Fields(
		declare.Var("name", declare.String),
	))
	accountType = declare.MustNewType("Account", declare.Fields(
		declare.Var("login", declare.String),
		declare.Var("uid", declare.Int),
		declare.Var("active", declare.Bool, declare.Default(true)),
		declare.Var("ttl", declare.Duration, declare.Optional()),
		declare.Var("roles", declare.ListOf(roleType), declare.Optional()),
	))
)

func TestToStruct(t *testing.T) {
	t.Parallel()

	r := accountType.MustNew("ann", 1001, false, time.Hour)

	s, err := ToStruct(r)
	require.NoError(t, err)

	fields := s.GetFields()
	assert.Equal(t, "ann", fields["login"].GetStringValue())
	assert.InDelta(t, 1001, fields["uid"].GetNumberValue(), 0)
	assert.False(t, fields["active"].GetBoolValue())
	assert.Equal(t, "1h0m0s", fields["ttl"].GetStringValue())

	_, isNull := fields["roles"].GetKind().(*structpb.Value_NullValue)
	assert.True(t, isNull)

	s, err = ToStruct(r, WithSkipMissing())
	require.NoError(t, err)
	assert.NotContains(t, s.GetFields(), "roles")
}

func TestFromStruct(t *testing.T) {
	t.Parallel()

	s, err := structpb.NewStruct(map[string]any{
		"login": "bo",
		"uid":   7,
		"roles": []any{map[string]any{"name": "admin"}},
	})
	require.NoError(t, err)

	r, err := FromStruct(accountType, s)
	require.NoError(t, err)
	assert.Equal(t, 7, r.MustGet("uid"), "doubles are cast back to int")
	assert.Equal(t, true, r.MustGet("active"))

	roles := r.MustGet("roles").(*declare.List)
	assert.Equal(t, "admin", roles.At(0).(*declare.Record).MustGet("name"))
}

func TestMarshal_RoundTrip(t *testing.T) {
	t.Parallel()

	roles := declare.ListOf(roleType).MustNew(roleType.MustNew("dev"), roleType.MustNew("ops"))
	r := accountType.MustNew("ann", 1001, true, 5*time.Minute, roles)

	data, err := Marshal(r)
	require.NoError(t, err)

	again, err := Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, data, again, "deterministic output")

	back, err := Unmarshal(accountType, data)
	require.NoError(t, err)
	assert.True(t, r.Equal(back), "got %s", back)

	back, err = UnmarshalReader(accountType, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, back.MustGet("ttl"))
}

func TestUnmarshal_Errors(t *testing.T) {
	t.Parallel()

	_, err := Unmarshal(accountType, []byte{0xff, 0xff})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "proto:")

	s, err := structpb.NewStruct(map[string]any{"login": "a", "uid": "x"})
	require.NoError(t, err)
	data, err := marshalOptions.Marshal(s)
	require.NoError(t, err)

	_, err = Unmarshal(accountType, data)
	declare.AssertFieldError(t, err, "uid", declare.ErrTypeMismatch)
}

func TestList_RoundTrip(t *testing.T) {
	t.Parallel()

	lt := declare.ListOf(roleType)
	l := lt.MustNew(roleType.MustNew("a"), roleType.MustNew("b"))

	data, err := MarshalList(l)
	require.NoError(t, err)

	back, err := UnmarshalList(lt, data)
	require.NoError(t, err)
	assert.True(t, l.Equal(back))

	lv, err := ToListValue(declare.ListOf(declare.Int).MustNew(1, 2))
	require.NoError(t, err)
	_, err = FromListValue(declare.ListOf(declare.Int), lv)
	require.NoError(t, err, "lossless doubles adapt to int elements")
}
