package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseLevelRejectsInvalidInput covers arity and numeric failures
func TestParseLevelRejectsInvalidInput(t *testing.T) {
	cases := map[string][]string{
		"nil":              nil,
		"empty":            {},
		"three elements":   {"0.00915100", "0.14800000", "0.14800000"},
		"not a number":     {"A", "0.14800000"},
		"empty strings":    {"", ""},
		"missing quantity": {"0.14800000", ""},
		"overflow":         {"1e400", "1"},
		"huge exponent":    {"1e10000000", "1"},
		"max exponent":     {"1", "1e2147483647"},
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := ParseLevel(raw)
			assert.False(t, ok)
		})
	}
}

// TestParseLevelAcceptsValidInput checks exchange-style decimal text
func TestParseLevelAcceptsValidInput(t *testing.T) {
	cases := []struct {
		raw      []string
		price    float64
		quantity float64
	}{
		{[]string{"0.00915100", "0.14800000"}, 0.009151, 0.148},
		{[]string{"0.00915101", "0.14800001"}, 0.00915101, 0.14800001},
		{[]string{"1234567891234567890.00915101", "0.14800001"}, 1234567891234567890.00915101, 0.14800001},
		{[]string{"-0.00915101", "-0.14800001"}, -0.00915101, -0.14800001},
		{[]string{"5", "1000"}, 5, 1000},
		{[]string{"1", "1e-10000000"}, 1, 0},
		{[]string{"0e10000000", "1e-400"}, 0, 0},
		{[]string{"1.5e300", "2e-300"}, 1.5e300, 2e-300},
	}

	for _, c := range cases {
		l, ok := ParseLevel(c.raw)
		require.True(t, ok, "raw %v", c.raw)
		assert.Equal(t, c.price, l.Price)
		assert.Equal(t, c.quantity, l.Quantity)
	}
}

// TestParseDecimalExtremeExponents huge exponents resolve without a slow conversion
func TestParseDecimalExtremeExponents(t *testing.T) {
	cases := map[string]bool{
		"1e10000000":     false,
		"-1e10000000":    false,
		"1e-10000000":    true,
		"-1e-10000000":   true,
		"9e2147483647":   false,
		"1234.5e-999999": true,
	}

	for in, wantOK := range cases {
		start := time.Now()
		f, ok := ParseDecimal(in)
		elapsed := time.Since(start)

		assert.Equal(t, wantOK, ok, in)
		assert.Zero(t, f, in)
		assert.Less(t, elapsed, 50*time.Millisecond, in)
	}

	levels, dropped := ToPriceLevels([][]string{
		{"1e10000000", "1"},
		{"0.0024", "1e-10000000"},
	})
	assert.Equal(t, 1, dropped)
	assert.Equal(t, []PriceLevel{{Price: 0.0024, Quantity: 0}}, levels)
}

// TestToPriceLevelsSkipsBadEntries keeps order and reports what was dropped
func TestToPriceLevelsSkipsBadEntries(t *testing.T) {
	raw := [][]string{
		{"0.0024", "14.7"},
		{"x", "1"},
		{"0.0022"},
		{"0.0020", "9.7"},
	}

	levels, dropped := ToPriceLevels(raw)

	assert.Equal(t, 2, dropped)
	assert.Equal(t, []PriceLevel{{0.0024, 14.7}, {0.0020, 9.7}}, levels)

	levels, dropped = ToPriceLevels(nil)
	assert.Nil(t, levels)
	assert.Zero(t, dropped)
}

// TestFormatLevel uses 4 price digits and 8 quantity digits
func TestFormatLevel(t *testing.T) {
	assert.Equal(t, []string{"0.0024", "14.70000000"}, FormatLevel(PriceLevel{0.0024, 14.7}))
	assert.Equal(t, []string{"0.0020", "1.00000000"}, FormatLevel(PriceLevel{0.002, 1}))
	assert.Equal(t, []string{"5.0000", "0.00000001"}, FormatLevel(PriceLevel{5, 0.00000001}))
	assert.Equal(t, []string{"0.0000", "0.00000000"}, FormatLevel(PriceLevel{}))
}

func TestFormatThenParse(t *testing.T) {
	in := PriceLevel{Price: 0.0026, Quantity: 3.6}

	out, ok := ParseLevel(FormatLevel(in))

	require.True(t, ok)
	assert.Equal(t, in, out)
}
