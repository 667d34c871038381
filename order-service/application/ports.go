package application

import (
	"context"

	"github.com/fooddelivery/order-system/shared/models"
)

// AuthorizationResult is the outcome of a synchronous payment authorization.
// TransactionID is set only when Status is AUTHORIZED.
type AuthorizationResult struct {
	TransactionID *models.TransactionID
	Status        models.PaymentStatus
	Message       string
}

// Authorized reports whether the payment went through.
func (r *AuthorizationResult) Authorized() bool {
	return r.Status == models.PaymentStatusAuthorized && r.TransactionID != nil
}

// RefundResult is the outcome of a refund request.
type RefundResult struct {
	Success bool
	Message string
}

// PaymentClient is the synchronous boundary to the payment collaborator.
// Implementations must apply an explicit timeout; the caller treats a
// transport error the same as a rejected payment.
type PaymentClient interface {
	Authorize(ctx context.Context, orderID models.OrderID, amount models.MonetaryAmount, method models.PaymentMethod) (*AuthorizationResult, error)
	Refund(ctx context.Context, orderID models.OrderID, transactionID models.TransactionID, reason string) (*RefundResult, error)
}
