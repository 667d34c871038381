package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonetaryAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "two decimals", input: "45.90", expected: "45.90"},
		{name: "integer", input: "100", expected: "100.00"},
		{name: "zero", input: "0", expected: "0.00"},
		{name: "sub-cent precision rendered to cents", input: "19.999", expected: "20.00"},
		{name: "negative rejected", input: "-1.00", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := ParseMonetaryAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, amount.String())
		})
	}
}

func TestNewMonetaryAmount_RejectsNegative(t *testing.T) {
	_, err := NewMonetaryAmount(decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

// Binary floating point cannot represent 0.10 or 45.90 exactly. The sums
// below go wrong with float64; the decimal representation must keep them
// exact.
func TestMonetaryAmount_ExactArithmetic(t *testing.T) {
	tenCents, err := ParseMonetaryAmount("0.10")
	require.NoError(t, err)

	sum := ZeroAmount
	for i := 0; i < 3; i++ {
		sum = sum.Add(tenCents)
	}
	expected, err := ParseMonetaryAmount("0.30")
	require.NoError(t, err)
	assert.True(t, sum.Equal(expected), "got %s", sum)

	price, err := ParseMonetaryAmount("45.90")
	require.NoError(t, err)
	total := price.MulInt(2)
	assert.Equal(t, "91.80", total.String())
}

func TestMonetaryAmount_String_RoundTrips(t *testing.T) {
	amount, err := ParseMonetaryAmount("1234.56")
	require.NoError(t, err)

	parsed, err := ParseMonetaryAmount(amount.String())
	require.NoError(t, err)
	assert.True(t, amount.Equal(parsed))
}

func TestMonetaryAmount_IsZero(t *testing.T) {
	assert.True(t, ZeroAmount.IsZero())

	amount, err := ParseMonetaryAmount("0.00")
	require.NoError(t, err)
	assert.True(t, amount.IsZero())

	amount, err = ParseMonetaryAmount("0.01")
	require.NoError(t, err)
	assert.False(t, amount.IsZero())
}
