package models

import "github.com/pkg/errors"

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// OrderItem is a single ordered line item. It travels unchanged from the
// order service to the kitchen, so it lives in the shared model.
type OrderItem struct {
	ProductID   ProductID
	ProductName string
	Quantity    int
	UnitPrice   MonetaryAmount
}

// NewOrderItem validates and builds a line item.
func NewOrderItem(productID ProductID, productName string, quantity int, unitPrice MonetaryAmount) (OrderItem, error) {
	if quantity < 1 {
		return OrderItem{}, ErrInvalidQuantity
	}
	return OrderItem{
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	}, nil
}

// TotalPrice is unit price times quantity.
func (i OrderItem) TotalPrice() MonetaryAmount {
	return i.UnitPrice.MulInt(i.Quantity)
}
