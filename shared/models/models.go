package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrBlankTransactionID = errors.New("transaction ID cannot be blank")
	ErrBlankProductID     = errors.New("product ID cannot be blank")
	ErrBlankAddress       = errors.New("address cannot be blank")
)

// OrderID identifies an order aggregate and every message of its saga.
type OrderID string

// NewOrderID generates a new random order ID.
func NewOrderID() OrderID {
	return OrderID(uuid.New().String())
}

// ParseOrderID validates and wraps an order ID string.
func ParseOrderID(s string) (OrderID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", errors.Wrap(err, "invalid order ID")
	}
	return OrderID(s), nil
}

func (id OrderID) String() string {
	return string(id)
}

// CustomerID identifies the customer who placed an order.
type CustomerID string

func NewCustomerID() CustomerID {
	return CustomerID(uuid.New().String())
}

func ParseCustomerID(s string) (CustomerID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", errors.Wrap(err, "invalid customer ID")
	}
	return CustomerID(s), nil
}

func (id CustomerID) String() string {
	return string(id)
}

// TicketID identifies a kitchen ticket correlated with an order.
type TicketID string

func NewTicketID() TicketID {
	return TicketID(uuid.New().String())
}

func ParseTicketID(s string) (TicketID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", errors.Wrap(err, "invalid ticket ID")
	}
	return TicketID(s), nil
}

func (id TicketID) String() string {
	return string(id)
}

// DeliveryID identifies a delivery record correlated with an order.
type DeliveryID string

func NewDeliveryID() DeliveryID {
	return DeliveryID(uuid.New().String())
}

func ParseDeliveryID(s string) (DeliveryID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", errors.Wrap(err, "invalid delivery ID")
	}
	return DeliveryID(s), nil
}

func (id DeliveryID) String() string {
	return string(id)
}

// TransactionID is the payment gateway transaction reference.
// It is opaque to the order service, only required to be non-blank.
type TransactionID string

func NewTransactionID(s string) (TransactionID, error) {
	if s == "" {
		return "", ErrBlankTransactionID
	}
	return TransactionID(s), nil
}

func (id TransactionID) String() string {
	return string(id)
}

// ProductID identifies a product on the menu.
type ProductID string

func NewProductID(s string) (ProductID, error) {
	if s == "" {
		return "", ErrBlankProductID
	}
	return ProductID(s), nil
}

func (id ProductID) String() string {
	return string(id)
}

// Address is a non-blank delivery address.
type Address string

func NewAddress(s string) (Address, error) {
	if strings.TrimSpace(s) == "" {
		return "", ErrBlankAddress
	}
	return Address(s), nil
}

func (a Address) String() string {
	return string(a)
}

// Timestamps represents creation and update times
type Timestamps struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTimestamps creates new timestamps
func NewTimestamps() Timestamps {
	now := time.Now()
	return Timestamps{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Update updates the UpdatedAt timestamp
func (t Timestamps) Update() Timestamps {
	t.UpdatedAt = time.Now()
	return t
}

// Version represents entity version for optimistic locking
type Version struct {
	Value int
}

// NewVersion creates new version
func NewVersion() Version {
	return Version{Value: 1}
}

// Update increments version
func (v Version) Update() Version {
	v.Value++
	return v
}
