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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_StrictElements(t *testing.T) {
	t.Parallel()

	ints := ListOf(Int)

	l, err := ints.New(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []any{1, 2, 3}, l.Items())

	_, err = ints.New(1, "2", 3)
	fe := AssertFieldError(t, err, "[1]", ErrTypeMismatch)
	assert.Equal(t, "List[int]", fe.Type)

	// The same value on a record field is cast.
	holder := TestType(t, "Holder", Fields(Var("n", Int)))
	r := MustNew(t, holder, "2")
	assert.Equal(t, 2, r.MustGet("n"))
}

func TestList_NilElements(t *testing.T) {
	t.Parallel()

	_, err := ListOf(Int).New(1, nil)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	l, err := ListOf(Any).New(1, nil, "x")
	require.NoError(t, err)
	assert.Equal(t, 3, l.Len())
}

func TestList_RecordElementsFromMaps(t *testing.T) {
	t.Parallel()

	people := ListOf(personType)
	l, err := people.New(
		map[string]any{"name": "Tom", "age": 18},
		MustNew(t, personType, "Ann", 30),
	)
	require.NoError(t, err)

	first, ok := l.At(0).(*Record)
	require.True(t, ok)
	assert.Equal(t, "Tom", first.MustGet("name"))

	_, err = people.New("Tom")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestList_Append(t *testing.T) {
	t.Parallel()

	l := ListOf(String).MustNew("a")
	require.NoError(t, l.Append("b", "c"))
	assert.Equal(t, []any{"a", "b", "c"}, l.Items())

	require.Error(t, l.Append("d", 5))
	assert.Equal(t, 3, l.Len(), "failed append leaves the list unchanged")
}

func TestList_Iteration(t *testing.T) {
	t.Parallel()

	l := ListOf(Int).MustNew(10, 20)
	var sum, idx int
	for i, v := range l.All() {
		idx += i
		sum += v.(int)
	}
	assert.Equal(t, 30, sum)
	assert.Equal(t, 1, idx)

	items := l.Items()
	items[0] = 99
	assert.Equal(t, 10, l.At(0), "Items returns a copy")
}

func TestList_EqualHashString(t *testing.T) {
	t.Parallel()

	a := ListOf(Int).MustNew(1, 2)
	b := ListOf(Int).MustNew(1, 2)
	c := ListOf(Int).MustNew(2, 1)
	s := ListOf(String).MustNew("1", "2")

	assert.True(t, a.Equal(b), "separately declared list types with the same element are equal")
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(s))
	assert.Equal(t, "List[int](1, 2)", a.String())
}

func TestList_NestedLists(t *testing.T) {
	t.Parallel()

	inner := ListOf(Int)
	grid := ListOf(inner)

	l, err := grid.New(inner.MustNew(1, 2), inner.MustNew(3))
	require.NoError(t, err)
	assert.Equal(t, "List[List[int]]", grid.String())

	_, err = grid.New(ListOf(String).MustNew("x"))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	data, err := l.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[[1,2],[3]]`, string(data))

	back, err := grid.FromJSON(data)
	require.NoError(t, err)
	assert.True(t, l.Equal(back))
}

func TestList_Tag(t *testing.T) {
	t.Parallel()

	lt := ListOf(String, ListTag("names"))
	l := lt.MustNew("a")
	assert.Equal(t, "names", lt.Tag())
	assert.Equal(t, "names", l.Tag())

	l.SetTag("other")
	assert.Equal(t, "other", l.Tag())
}

func TestList_MustNewPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { ListOf(Int).MustNew("x") })
}

func TestMapOf_LenientValues(t *testing.T) {
	t.Parallel()

	typ := TestType(t, "Limits", Fields(Var("limits", MapOf(Int))))
	assert.Equal(t, "Map[string]int", MapOf(Int).String())

	r := MustNew(t, typ, map[string]any{"cpu": "2", "mem": 512})
	assert.Equal(t, map[string]any{"cpu": 2, "mem": 512}, r.MustGet("limits"))

	r = MustNew(t, typ, map[string]string{"cpu": "4"})
	assert.Equal(t, map[string]any{"cpu": 4}, r.MustGet("limits"))

	_, err := typ.New(map[string]any{"cpu": "lots"})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = typ.New([]any{1})
	AssertFieldError(t, err, "limits", ErrTypeMismatch)
}
