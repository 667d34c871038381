package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderItem(t *testing.T) {
	productID, err := NewProductID("PROD-001")
	require.NoError(t, err)
	unitPrice, err := ParseMonetaryAmount("12.50")
	require.NoError(t, err)

	item, err := NewOrderItem(productID, "Margherita", 2, unitPrice)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "25.00", item.TotalPrice().String())

	_, err = NewOrderItem(productID, "Margherita", 0, unitPrice)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewOrderItem(productID, "Margherita", -1, unitPrice)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestNewProductID_RejectsBlank(t *testing.T) {
	_, err := NewProductID("")
	assert.ErrorIs(t, err, ErrBlankProductID)
}

func TestNewAddress_RejectsBlank(t *testing.T) {
	_, err := NewAddress("")
	assert.ErrorIs(t, err, ErrBlankAddress)

	_, err = NewAddress("   \t\n")
	assert.ErrorIs(t, err, ErrBlankAddress, "whitespace is not an address")

	address, err := NewAddress("Rua Augusta 123")
	require.NoError(t, err)
	assert.Equal(t, "Rua Augusta 123", address.String())
}

func TestNewTransactionID_RejectsBlank(t *testing.T) {
	_, err := NewTransactionID("")
	assert.ErrorIs(t, err, ErrBlankTransactionID)
}
