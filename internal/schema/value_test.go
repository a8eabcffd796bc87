package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeValue(t *testing.T, raw string) Value {
	t.Helper()
	var v Value
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestValueUnmarshal(t *testing.T) {
	t.Run("number stays numeric", func(t *testing.T) {
		v := decodeValue(t, `1000000`)
		d, ok := v.Number()
		require.True(t, ok)
		assert.True(t, d.Equal(mustDecimal(t, "1000000")))
	})

	t.Run("stringified amount is renormalized", func(t *testing.T) {
		v := decodeValue(t, `"$1,000,000"`)
		d, ok := v.Number()
		require.True(t, ok)
		assert.True(t, d.Equal(mustDecimal(t, "1000000")))
	})

	t.Run("stringified percent is renormalized", func(t *testing.T) {
		v := decodeValue(t, `"15.5%"`)
		d, ok := v.Number()
		require.True(t, ok)
		assert.True(t, d.Equal(mustDecimal(t, "15.5")))
	})

	t.Run("parenthesized negative percent is renormalized", func(t *testing.T) {
		v := decodeValue(t, `"(2.5%)"`)
		d, ok := v.Number()
		require.True(t, ok)
		assert.True(t, d.Equal(mustDecimal(t, "-2.5")))
	})

	t.Run("non numeric text passes through", func(t *testing.T) {
		v := decodeValue(t, `"Preferred Equity"`)
		s, ok := v.Text()
		require.True(t, ok)
		assert.Equal(t, "Preferred Equity", s)
	})

	t.Run("null is null", func(t *testing.T) {
		assert.True(t, decodeValue(t, `null`).IsNull())
	})

	t.Run("empty string is null", func(t *testing.T) {
		assert.True(t, decodeValue(t, `""`).IsNull())
	})

	t.Run("composite collapses to null", func(t *testing.T) {
		assert.True(t, decodeValue(t, `{"unexpected":1}`).IsNull())
		assert.True(t, decodeValue(t, `[1,2,3]`).IsNull())
	})

	t.Run("zero is a value, not absence", func(t *testing.T) {
		v := decodeValue(t, `0`)
		d, ok := v.Number()
		require.True(t, ok)
		assert.True(t, d.IsZero())
		assert.False(t, v.IsNull())
	})
}

func TestValueMarshalRoundTrip(t *testing.T) {
	cases := map[string]string{
		`1234.56`:  `1234.56`,
		`"$1,000"`: `1000`,
		`"text"`:   `"text"`,
		`null`:     `null`,
	}
	for in, want := range cases {
		v := decodeValue(t, in)
		out, err := json.Marshal(v)
		require.NoError(t, err)
		assert.JSONEq(t, want, string(out), "input %s", in)
	}
}

func TestPeriodTripletUnmarshal(t *testing.T) {
	t.Run("canonical object", func(t *testing.T) {
		var tr PeriodTriplet
		require.NoError(t, json.Unmarshal([]byte(
			`{"current_period": 10, "prior_period": null, "year_to_date": "1,000"}`), &tr))
		p := tr.Periods()
		d, ok := p[0].Number()
		require.True(t, ok)
		assert.True(t, d.Equal(mustDecimal(t, "10")))
		assert.True(t, p[1].IsNull())
		d, ok = p[2].Number()
		require.True(t, ok)
		assert.True(t, d.Equal(mustDecimal(t, "1000")))
	})

	t.Run("null collapses to all null", func(t *testing.T) {
		var tr PeriodTriplet
		require.NoError(t, json.Unmarshal([]byte(`null`), &tr))
		for _, p := range tr.Periods() {
			assert.True(t, p.IsNull())
		}
	})

	t.Run("stray scalar collapses to all null", func(t *testing.T) {
		var tr PeriodTriplet
		require.NoError(t, json.Unmarshal([]byte(`42`), &tr))
		for _, p := range tr.Periods() {
			assert.True(t, p.IsNull())
		}
	})
}

func TestReferenceMapUnmarshal(t *testing.T) {
	var m ReferenceMap
	require.NoError(t, json.Unmarshal([]byte(`{
		"currencies": ["USD", "EUR"],
		"scalar_category": "USD",
		"dropped": null
	}`), &m))

	assert.Len(t, m["currencies"], 2)
	require.Len(t, m["scalar_category"], 1)
	s, ok := m["scalar_category"][0].Text()
	require.True(t, ok)
	assert.Equal(t, "USD", s)
	_, present := m["dropped"]
	assert.False(t, present)
}
