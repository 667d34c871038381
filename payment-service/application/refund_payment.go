package application

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/payment-service/domain"
	"github.com/fooddelivery/order-system/shared/models"
	"github.com/fooddelivery/order-system/shared/telemetry"
)

// ErrTransactionNotFound is returned when a refund names an unknown
// transaction.
var ErrTransactionNotFound = errors.New("transaction not found")

// RefundPaymentCommand represents a refund request
type RefundPaymentCommand struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

// RefundPaymentResponse is the refund outcome.
type RefundPaymentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RefundPayment use case
type RefundPayment struct {
	paymentRepository domain.PaymentRepository
}

// NewRefundPayment creates a new RefundPayment use case
func NewRefundPayment(paymentRepository domain.PaymentRepository) *RefundPayment {
	return &RefundPayment{paymentRepository: paymentRepository}
}

// Execute refunds an authorized payment. Refunding anything else fails
// without side effects, so replayed refund requests stay harmless.
func (uc *RefundPayment) Execute(ctx context.Context, cmd *RefundPaymentCommand) (*RefundPaymentResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "RefundPayment.Execute")
	defer span.End()

	transactionID, err := models.NewTransactionID(cmd.TransactionID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid transaction ID")
	}

	payment, err := uc.paymentRepository.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up payment")
	}
	if payment == nil {
		return nil, ErrTransactionNotFound
	}

	if !payment.Refund(cmd.Reason) {
		slog.WarnContext(ctx, "refund refused",
			"orderId", cmd.OrderID, "transactionId", transactionID, "status", payment.Status)
		return &RefundPaymentResponse{
			Success: false,
			Message: "Refund failed: invalid payment status",
		}, nil
	}

	if err := uc.paymentRepository.Save(ctx, payment); err != nil {
		return nil, errors.Wrap(err, "failed to save payment")
	}

	slog.InfoContext(ctx, "refund processed",
		"orderId", cmd.OrderID, "transactionId", transactionID, "reason", cmd.Reason)
	telemetry.RecordCounter(ctx, "payments_refunded_total", "Refunds processed", 1)

	return &RefundPaymentResponse{
		Success: true,
		Message: "Refund processed",
	}, nil
}
