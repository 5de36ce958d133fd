package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in    string
		want  Money
		valid bool
	}{
		{"0.00", 0, true},
		{"0.01", 1, true},
		{"-0.01", -1, true},
		{"100.50", 10050, true},
		{"9999999.99", 999999999, true},
		{"0.001", 0, false},
		{"1", 0, false},
		{"1.5", 0, false},
		{"1.", 0, false},
		{".50", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"1,000.00", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.valid {
			require.NoError(t, err, "input %q", tc.in)
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		} else {
			require.Error(t, err, "input %q", tc.in)
			assert.Equal(t, CodeValidation, CodeOf(err), "input %q", tc.in)
		}
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "0.00", Money(0).String())
	assert.Equal(t, "0.01", Money(1).String())
	assert.Equal(t, "100.50", Money(10050).String())
	assert.Equal(t, "-0.01", Money(-1).String())
	assert.Equal(t, "5000.00", Money(500000).String())
}

func TestMoneyRoundTrip(t *testing.T) {
	for _, s := range []string{"0.00", "0.01", "123456.78", "-99.99"} {
		m, err := ParseMoney(s)
		require.NoError(t, err)
		assert.Equal(t, s, m.String())
	}
}

func TestMoneyAddOverflow(t *testing.T) {
	sum, ok := Money(100).Add(Money(50))
	require.True(t, ok)
	assert.Equal(t, Money(150), sum)

	_, ok = MaxMoney.Add(1)
	assert.False(t, ok)

	sum, ok = MaxMoney.Add(0)
	require.True(t, ok)
	assert.Equal(t, MaxMoney, sum)
}

func TestMoneySub(t *testing.T) {
	diff, ok := Money(100).Sub(Money(100))
	require.True(t, ok)
	assert.Equal(t, Money(0), diff)
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(Money(10050))
	require.NoError(t, err)
	assert.Equal(t, `"100.50"`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"42.07"`), &m))
	assert.Equal(t, Money(4207), m)

	// Bare numbers and loose scales are rejected on the wire.
	assert.Error(t, json.Unmarshal([]byte(`42.07`), &m))
	assert.Error(t, json.Unmarshal([]byte(`"42.070"`), &m))
	assert.Error(t, json.Unmarshal([]byte(`"42"`), &m))
}
