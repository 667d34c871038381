package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/shared/models"
)

var ErrVersionConflict = errors.New("payment was modified concurrently")

const declinedMessage = "Payment declined by issuer"

// Payment records one authorization attempt for an order.
type Payment struct {
	ID            string
	OrderID       models.OrderID
	Amount        models.MonetaryAmount
	Method        models.PaymentMethod
	Status        models.PaymentStatus
	TransactionID *models.TransactionID
	ErrorMessage  *string
	ProcessedAt   *time.Time
	Timestamps    models.Timestamps
	Version       models.Version
}

// NewPayment opens a pending payment.
func NewPayment(orderID models.OrderID, amount models.MonetaryAmount, method models.PaymentMethod) *Payment {
	return &Payment{
		ID:         uuid.New().String(),
		OrderID:    orderID,
		Amount:     amount,
		Method:     method,
		Status:     models.PaymentStatusPending,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}
}

// Authorize settles the authorization with the gateway's verdict. An
// approved payment gets a transaction id; a declined one never does.
func (p *Payment) Authorize(approved bool) {
	now := time.Now()
	if approved {
		transactionID := models.TransactionID(newTransactionRef())
		p.TransactionID = &transactionID
		p.Status = models.PaymentStatusAuthorized
	} else {
		message := declinedMessage
		p.Status = models.PaymentStatusRejected
		p.ErrorMessage = &message
	}
	p.ProcessedAt = &now
	p.touch()
}

// Refund reverses an authorized payment. Any other status, including an
// already refunded payment, is refused, which makes a duplicate refund
// request harmless.
func (p *Payment) Refund(reason string) bool {
	if p.Status != models.PaymentStatusAuthorized {
		return false
	}

	now := time.Now()
	p.Status = models.PaymentStatusRefunded
	p.ErrorMessage = &reason
	p.ProcessedAt = &now
	p.touch()
	return true
}

func (p *Payment) touch() {
	p.Timestamps = p.Timestamps.Update()
	p.Version = p.Version.Update()
}

func newTransactionRef() string {
	return "TXN-" + strings.ToUpper(uuid.New().String()[:8])
}

// PaymentRepository stores payment snapshots. Both finders return
// (nil, nil) when nothing matches.
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	FindByOrderID(ctx context.Context, orderID models.OrderID) (*Payment, error)
	FindByTransactionID(ctx context.Context, transactionID models.TransactionID) (*Payment, error)
}
