package application

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/payment-service/domain"
	"github.com/fooddelivery/order-system/shared/models"
	"github.com/fooddelivery/order-system/shared/telemetry"
)

// GatewayDecider decides whether the payment gateway approves a charge.
// Real deployments call an acquirer; tests force either branch.
type GatewayDecider interface {
	Approve(ctx context.Context, orderID models.OrderID, amount models.MonetaryAmount, method models.PaymentMethod) bool
}

// AuthorizePaymentCommand represents a payment authorization request
type AuthorizePaymentCommand struct {
	OrderID       string `json:"order_id"`
	Amount        string `json:"amount"`
	PaymentMethod string `json:"payment_method"`
}

// AuthorizePaymentResponse is the authorization outcome returned to the
// order service.
type AuthorizePaymentResponse struct {
	TransactionID *string `json:"transaction_id,omitempty"`
	Status        string  `json:"status"`
	Message       string  `json:"message,omitempty"`
}

// AuthorizePayment use case
type AuthorizePayment struct {
	paymentRepository domain.PaymentRepository
	gateway           GatewayDecider
}

// NewAuthorizePayment creates a new AuthorizePayment use case
func NewAuthorizePayment(paymentRepository domain.PaymentRepository, gateway GatewayDecider) *AuthorizePayment {
	return &AuthorizePayment{
		paymentRepository: paymentRepository,
		gateway:           gateway,
	}
}

// Execute authorizes a payment. A repeated request for an order that is
// already authorized returns the original transaction instead of charging
// twice.
func (uc *AuthorizePayment) Execute(ctx context.Context, cmd *AuthorizePaymentCommand) (*AuthorizePaymentResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "AuthorizePayment.Execute")
	defer span.End()

	orderID, err := models.ParseOrderID(cmd.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	amount, err := models.ParseMonetaryAmount(cmd.Amount)
	if err != nil {
		return nil, errors.Wrap(err, "invalid amount")
	}

	method, err := models.NewPaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return nil, errors.Wrap(err, "invalid payment method")
	}

	existing, err := uc.paymentRepository.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up payment")
	}
	if existing != nil && existing.Status == models.PaymentStatusAuthorized {
		slog.WarnContext(ctx, "payment already authorized", "orderId", orderID)
		transactionID := existing.TransactionID.String()
		return &AuthorizePaymentResponse{
			TransactionID: &transactionID,
			Status:        string(models.PaymentStatusAuthorized),
			Message:       "Payment already authorized",
		}, nil
	}

	payment := domain.NewPayment(orderID, amount, method)
	payment.Authorize(uc.gateway.Approve(ctx, orderID, amount, method))

	if err := uc.paymentRepository.Save(ctx, payment); err != nil {
		return nil, errors.Wrap(err, "failed to save payment")
	}

	slog.InfoContext(ctx, "payment processed",
		"orderId", orderID, "status", payment.Status, "amount", amount)
	telemetry.RecordCounter(ctx, "payments_processed_total", "Payment authorization attempts", 1)

	response := &AuthorizePaymentResponse{Status: string(payment.Status)}
	if payment.TransactionID != nil {
		transactionID := payment.TransactionID.String()
		response.TransactionID = &transactionID
	}
	if payment.ErrorMessage != nil {
		response.Message = *payment.ErrorMessage
	}

	return response, nil
}
