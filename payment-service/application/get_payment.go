package application

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/payment-service/domain"
	"github.com/fooddelivery/order-system/shared/models"
)

// ErrPaymentNotFound is returned when an order has no payment record.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentResponse is the read model returned over HTTP.
type PaymentResponse struct {
	PaymentID     string  `json:"payment_id"`
	OrderID       string  `json:"order_id"`
	Amount        string  `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	Status        string  `json:"status"`
	TransactionID *string `json:"transaction_id,omitempty"`
	ErrorMessage  *string `json:"error_message,omitempty"`
	ProcessedAt   *string `json:"processed_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// GetPayment use case
type GetPayment struct {
	paymentRepository domain.PaymentRepository
}

// NewGetPayment creates a new GetPayment use case
func NewGetPayment(paymentRepository domain.PaymentRepository) *GetPayment {
	return &GetPayment{paymentRepository: paymentRepository}
}

// Execute loads the payment for one order.
func (uc *GetPayment) Execute(ctx context.Context, rawOrderID string) (*PaymentResponse, error) {
	orderID, err := models.ParseOrderID(rawOrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	payment, err := uc.paymentRepository.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find payment")
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	response := &PaymentResponse{
		PaymentID:     payment.ID,
		OrderID:       payment.OrderID.String(),
		Amount:        payment.Amount.String(),
		PaymentMethod: string(payment.Method),
		Status:        string(payment.Status),
		ErrorMessage:  payment.ErrorMessage,
		CreatedAt:     payment.Timestamps.CreatedAt.Format(time.RFC3339),
	}
	if payment.TransactionID != nil {
		transactionID := payment.TransactionID.String()
		response.TransactionID = &transactionID
	}
	if payment.ProcessedAt != nil {
		processed := payment.ProcessedAt.Format(time.RFC3339)
		response.ProcessedAt = &processed
	}

	return response, nil
}
