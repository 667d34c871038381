package models

import "github.com/pkg/errors"

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentMethodPix        PaymentMethod = "PIX"
	PaymentMethodWallet     PaymentMethod = "WALLET"
)

// NewPaymentMethod parses a payment method string.
func NewPaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPix, PaymentMethodWallet:
		return PaymentMethod(s), nil
	}
	return "", errors.Errorf("unknown payment method: %q", s)
}

// PaymentStatus is the outcome of a payment authorization.
type PaymentStatus string

const (
	PaymentStatusAuthorized PaymentStatus = "AUTHORIZED"
	PaymentStatusRejected   PaymentStatus = "REJECTED"
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
)

// TicketStatus tracks a kitchen ticket through preparation.
type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "PENDING"
	TicketStatusAccepted  TicketStatus = "ACCEPTED"
	TicketStatusPreparing TicketStatus = "PREPARING"
	TicketStatusReady     TicketStatus = "READY"
	TicketStatusRejected  TicketStatus = "REJECTED"
)

// DeliveryStatus tracks a delivery from assignment to hand-off.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDING"
	DeliveryStatusAssigned  DeliveryStatus = "ASSIGNED"
	DeliveryStatusPickedUp  DeliveryStatus = "PICKED_UP"
	DeliveryStatusInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusFailed    DeliveryStatus = "FAILED"
)
