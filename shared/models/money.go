package models

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var ErrNegativeAmount = errors.New("monetary amount cannot be negative")

// MonetaryAmount is a non-negative exact decimal amount. It crosses
// service boundaries as a plain decimal string, never as a float.
type MonetaryAmount struct {
	value decimal.Decimal
}

// ZeroAmount is the zero monetary amount.
var ZeroAmount = MonetaryAmount{value: decimal.Zero}

// NewMonetaryAmount wraps a decimal, rejecting negative values.
func NewMonetaryAmount(value decimal.Decimal) (MonetaryAmount, error) {
	if value.IsNegative() {
		return MonetaryAmount{}, ErrNegativeAmount
	}
	return MonetaryAmount{value: value}, nil
}

// ParseMonetaryAmount parses a decimal string such as "45.90".
func ParseMonetaryAmount(s string) (MonetaryAmount, error) {
	value, err := decimal.NewFromString(s)
	if err != nil {
		return MonetaryAmount{}, errors.Wrap(err, "invalid monetary amount")
	}
	return NewMonetaryAmount(value)
}

// Add returns the sum of two amounts.
func (m MonetaryAmount) Add(other MonetaryAmount) MonetaryAmount {
	return MonetaryAmount{value: m.value.Add(other.value)}
}

// MulInt multiplies the amount by an integer quantity.
func (m MonetaryAmount) MulInt(quantity int) MonetaryAmount {
	return MonetaryAmount{value: m.value.Mul(decimal.NewFromInt(int64(quantity)))}
}

// Equal reports whether two amounts are numerically equal.
func (m MonetaryAmount) Equal(other MonetaryAmount) bool {
	return m.value.Equal(other.value)
}

// IsZero reports whether the amount is zero.
func (m MonetaryAmount) IsZero() bool {
	return m.value.IsZero()
}

// Decimal returns the underlying decimal value.
func (m MonetaryAmount) Decimal() decimal.Decimal {
	return m.value
}

// String renders the amount with two decimal places.
func (m MonetaryAmount) String() string {
	return m.value.StringFixed(2)
}
