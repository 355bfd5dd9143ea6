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

func TestTimeCodec_Layouts(t *testing.T) {
	t.Parallel()

	c := TimeCodec("2006-01-02 15:04:05", time.RFC3339)
	at := time.Date(2023, 7, 9, 8, 7, 6, 0, time.UTC)

	enc, err := c.Encode(at)
	require.NoError(t, err)
	assert.Equal(t, "2023-07-09 08:07:06", enc)

	dec, err := c.Decode("2023-07-09 08:07:06")
	require.NoError(t, err)
	assert.True(t, at.Equal(dec.(time.Time)))

	dec, err = c.Decode("2023-07-09T08:07:06Z")
	require.NoError(t, err)
	assert.True(t, at.Equal(dec.(time.Time)), "later layouts are accepted on input")

	_, err = c.Decode("yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tried 2 layouts")

	_, err = c.Decode("  ")
	require.Error(t, err)

	_, err = c.Encode("not a time")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestTimeCodec_DatetimeField(t *testing.T) {
	t.Parallel()

	typ := TestType(t, "Entry", Fields(
		Var("at", Time, WithCodec(TimeCodec("2006-01-02 15:04:05"))),
	))

	r, err := typ.FromJSON([]byte(`{"at":"2020-02-03 04:05:06"}`))
	require.NoError(t, err)
	at := r.MustGet("at").(time.Time)
	assert.Equal(t, 2020, at.Year())
	assert.Equal(t, 6, at.Second())

	data, err := r.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"at":"2020-02-03 04:05:06"}`, string(data))

	xml, err := r.ToXML()
	require.NoError(t, err)
	assert.Equal(t, `<entry><at>2020-02-03 04:05:06</at></entry>`, string(xml))

	form, err := r.ToForm()
	require.NoError(t, err)
	assert.Equal(t, "at=2020-02-03 04:05:06", form)
}

func TestDurationCodec(t *testing.T) {
	t.Parallel()

	c := DurationCodec()

	enc, err := c.Encode(90 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "1h30m0s", enc)

	dec, err := c.Decode("1h30m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, dec)

	dec, err = c.Decode(90 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, dec)

	_, err = c.Decode("")
	require.Error(t, err)
}

func TestEnumCodec(t *testing.T) {
	t.Parallel()

	type color string
	c := EnumCodec[color]("red", "green")

	dec, err := c.Decode(" red ")
	require.NoError(t, err)
	assert.Equal(t, color("red"), dec)

	_, err = c.Decode("blue")
	require.ErrorIs(t, err, ErrTypeMismatch)
	assert.Contains(t, err.Error(), "[red, green]")

	_, err = c.Encode(color("blue"))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestNewCodec_DecodeInputs(t *testing.T) {
	t.Parallel()

	c := NewCodec(
		func(n int) (string, error) { return "", nil },
		func(s string) (int, error) { return len(s), nil },
	)

	v, err := c.Decode(7)
	require.NoError(t, err)
	assert.Equal(t, 7, v, "a value of the codec type is returned as-is")

	v, err = c.Decode([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = c.Decode(12.5)
	require.NoError(t, err)
	assert.Equal(t, 4, v, "other scalars are converted to string first")

	_, err = c.Decode(struct{}{})
	assert.ErrorIs(t, err, ErrTypeMismatch)
}
