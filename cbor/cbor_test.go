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

package cbor

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/declare"
)

var sampleType = declare.MustNewType("Sample", declare.Fields(
	declare.Var("sensor", declare.String),
	declare.Var("value", declare.Float64),
	declare.Var("at", declare.Time, declare.Optional()),
	declare.Var("tags", declare.ListOf(declare.String), declare.Optional()),
))

func TestMarshal_Deterministic(t *testing.T) {
	t.Parallel()

	r := sampleType.MustNew("t1", 21.5, nil, declare.ListOf(declare.String).MustNew("a", "b"))

	first, err := Marshal(r)
	require.NoError(t, err)
	for range 10 {
		again, err := Marshal(r)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	diag, err := Diagnose(first)
	require.NoError(t, err)
	// Core deterministic encoding sorts shorter keys first.
	order := []string{`"at"`, `"tags"`, `"value"`, `"sensor"`}
	for i := 1; i < len(order); i++ {
		assert.Less(t, strings.Index(diag, order[i-1]), strings.Index(diag, order[i]), diag)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	r := sampleType.MustNew("t1", 3, at)

	data, err := Marshal(r, WithSkipMissing())
	require.NoError(t, err)

	back, err := Unmarshal(sampleType, data)
	require.NoError(t, err)
	assert.Equal(t, 3.0, back.MustGet("value"))
	assert.True(t, at.Equal(back.MustGet("at").(time.Time)))
	assert.True(t, back.IsMissing("tags"))
}

func TestUnmarshal_Integers(t *testing.T) {
	t.Parallel()

	counter := declare.MustNewType("Counter", declare.Fields(
		declare.Var("n", declare.Int),
		declare.Var("delta", declare.Int),
	))

	data, err := cbor.Marshal(map[string]any{"n": uint64(5), "delta": -3})
	require.NoError(t, err)

	r, err := Unmarshal(counter, data)
	require.NoError(t, err)
	assert.Equal(t, 5, r.MustGet("n"))
	assert.Equal(t, -3, r.MustGet("delta"))
}

func TestUnmarshal_Errors(t *testing.T) {
	t.Parallel()

	data, err := cbor.Marshal(map[string]any{"sensor": "a", "value": 1, "extra": 1})
	require.NoError(t, err)

	_, err = Unmarshal(sampleType, data)
	require.NoError(t, err)
	_, err = Unmarshal(sampleType, data, WithDisallowUnknown())
	require.ErrorIs(t, err, declare.ErrUnknownField)

	_, err = Unmarshal(sampleType, []byte{0xff})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cbor:")

	arr, err := cbor.Marshal([]any{1})
	require.NoError(t, err)
	_, err = Unmarshal(sampleType, arr)
	assert.Error(t, err)
}

func TestSequence(t *testing.T) {
	t.Parallel()

	records := []*declare.Record{
		sampleType.MustNew("a", 1),
		sampleType.MustNew("b", 2),
	}

	var buf bytes.Buffer
	require.NoError(t, MarshalSequence(&buf, records, WithSkipMissing()))

	got, err := UnmarshalSequence(sampleType, &buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i, want := range records {
		assert.True(t, want.Equal(got[i]), "got %s", got[i])
	}

	single, err := UnmarshalReader(sampleType, bytes.NewReader(mustMarshal(t, records[1])))
	require.NoError(t, err)
	assert.Equal(t, "b", single.MustGet("sensor"))
}

func TestList_RoundTrip(t *testing.T) {
	t.Parallel()

	lt := declare.ListOf(declare.ListOf(sampleType))
	inner := declare.ListOf(sampleType).MustNew(sampleType.MustNew("a", 1.5))
	l := lt.MustNew(inner)

	data, err := MarshalList(l, WithSkipMissing())
	require.NoError(t, err)

	back, err := UnmarshalList(lt, data)
	require.NoError(t, err)
	require.Equal(t, 1, back.Len())
	got := back.At(0).(*declare.List).At(0).(*declare.Record)
	assert.Equal(t, "a", got.MustGet("sensor"))
}

func mustMarshal(t *testing.T, r *declare.Record) []byte {
	t.Helper()

	data, err := Marshal(r)
	require.NoError(t, err)

	return data
}
