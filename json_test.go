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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_Person(t *testing.T) {
	t.Parallel()

	tom, err := personType.FromJSON([]byte(`{"name": "Tom", "age": 18}`))
	require.NoError(t, err)

	data, err := tom.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Tom","age":18}`, string(data))
}

func TestJSON_KeyOrderFollowsFields(t *testing.T) {
	t.Parallel()

	typ := TestType(t, "Ordered", Fields(
		Var("zeta", Int),
		Var("alpha", Int),
		Var("mid", Int),
	))

	data, err := MustNew(t, typ, 1, 2, 3).ToJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":2,"mid":3}`, string(data))
}

func TestJSON_SkipMissing(t *testing.T) {
	t.Parallel()

	klass := TestType(t, "Klass", Fields(Var("a", Int, Optional())))
	r := MustNew(t, klass, nil)

	data, err := r.ToJSON(WithSkipMissing())
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	data, err = r.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"a":null}`, string(data))

	unset := MustNew(t, klass)
	data, err = unset.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"a":null}`, string(data))
}

func TestJSON_NullCollapsesIntoDefault(t *testing.T) {
	t.Parallel()

	typ := TestType(t, "Conf", Fields(
		Var("level", String, Default("info")),
		Var("note", String, Optional()),
	))

	r, err := typ.FromJSON([]byte(`{"level":null,"note":null}`))
	require.NoError(t, err)
	assert.Equal(t, "info", r.MustGet("level"))
	assert.Nil(t, r.MustGet("note"))
}

func TestJSON_DecodeLeavesRequiredUnset(t *testing.T) {
	t.Parallel()

	r, err := personType.FromJSON([]byte(`{"name":"Tom"}`))
	require.NoError(t, err)
	assert.True(t, r.IsMissing("age"))

	_, err = r.ToJSON()
	AssertFieldError(t, err, "age", ErrMissingRequired)
}

func TestJSON_ExternalNames(t *testing.T) {
	t.Parallel()

	typ := TestType(t, "Event", Fields(
		Var("eventName", String),
		Var("created_at", Time, WithNamingStyle(CamelCase)),
		Var("ID", Int, WithName("id")),
	))

	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	r := MustNew(t, typ, "login", at, 7)
	data, err := r.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"event_name":"login","createdAt":"2024-05-01T12:30:00Z","id":7}`, string(data))

	back, err := typ.FromJSON(data)
	require.NoError(t, err)
	assert.True(t, r.Equal(back))
}

func TestJSON_IgnoreSerialize(t *testing.T) {
	t.Parallel()

	typ := TestType(t, "Session", Fields(
		Var("user", String),
		Var("token", String, IgnoreSerialize()),
	))

	RequireJSONEqual(t, `{"user":"ann"}`, MustNew(t, typ, "ann", "t0k3n"))
}

func TestJSON_NestedRoundTrip(t *testing.T) {
	t.Parallel()

	address := TestType(t, "Address", Fields(
		Var("city", String),
		Var("zip", String, Optional()),
	))
	user := TestType(t, "User", Fields(
		Var("name", String),
		Var("address", address),
		Var("scores", ListOf(Int)),
		Var("friends", ListOf(personType)),
		Var("meta", MapOf(Float64)),
	))

	in := `{"name":"Ann","address":{"city":"Oslo","zip":null},"scores":[1,2,3],` +
		`"friends":[{"name":"Tom","age":18}],"meta":{"height":1.8}}`

	r, err := user.FromJSON([]byte(in))
	require.NoError(t, err)

	scores := r.MustGet("scores").(*List)
	assert.Equal(t, []any{1, 2, 3}, scores.Items(), "decoded numbers are adapted to int")

	out, err := r.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))

	RequireRoundTrip(t, r, (*Record).ToJSON, user.FromJSON)
}

func TestJSON_ListRejectsLossyNumbers(t *testing.T) {
	t.Parallel()

	_, err := ListOf(Int).FromJSON([]byte(`[1, 2.5]`))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = ListOf(Int).FromJSON([]byte(`[1, "2"]`))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	l, err := ListOf(Float64).FromJSON([]byte(`[1, 2.5]`))
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.5}, l.Items())
}

func TestJSON_ListOfRecords(t *testing.T) {
	t.Parallel()

	people := ListOf(personType)
	l, err := people.FromJSON([]byte(`[{"name":"Tom","age":18},{"name":"Ann","age":30}]`))
	require.NoError(t, err)
	require.Equal(t, 2, l.Len())

	data, err := l.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"Tom","age":18},{"name":"Ann","age":30}]`, string(data))
}

func TestJSON_Indent(t *testing.T) {
	t.Parallel()

	data, err := MustNew(t, personType, "Tom", 18).ToJSON(WithIndent(2))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"Tom\",\n  \"age\": 18\n}", string(data))
}

func TestJSON_InputErrors(t *testing.T) {
	t.Parallel()

	_, err := personType.FromJSON([]byte(`{"name":`))
	require.Error(t, err)

	_, err = personType.FromJSON([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = ListOf(Int).FromJSON([]byte(`{"a":1}`))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestJSON_IdempotentReencode(t *testing.T) {
	t.Parallel()

	typ := TestType(t, "Doc", Fields(
		Var("title", String),
		Var("pages", Int, Default(1)),
		Var("draft", Bool, Optional()),
		Var("took", Duration, Optional()),
	))

	first, err := MustNew(t, typ, "Go", Named{"took": 90 * time.Second}).ToJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Go","pages":1,"draft":null,"took":"1m30s"}`, string(first))

	r, err := typ.FromJSON(first)
	require.NoError(t, err)
	second, err := r.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestDecodeJSON_Numbers(t *testing.T) {
	t.Parallel()

	v, err := DecodeJSON([]byte(`{"i":9007199254740993,"f":1.5,"l":[1]}`))
	require.NoError(t, err)

	m := v.(map[string]any)
	assert.Equal(t, int64(9007199254740993), m["i"])
	assert.Equal(t, 1.5, m["f"])
	assert.Equal(t, []any{int64(1)}, m["l"])
}
