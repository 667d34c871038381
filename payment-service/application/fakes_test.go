package application

import (
	"context"

	"github.com/fooddelivery/order-system/payment-service/domain"
	"github.com/fooddelivery/order-system/shared/models"
)

type fakePaymentRepository struct {
	payments map[models.OrderID]*domain.Payment
	saveErr  error
	saves    int
}

func newFakePaymentRepository() *fakePaymentRepository {
	return &fakePaymentRepository{payments: map[models.OrderID]*domain.Payment{}}
}

func (r *fakePaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	snapshot := *payment
	r.payments[payment.OrderID] = &snapshot
	return nil
}

func (r *fakePaymentRepository) FindByOrderID(ctx context.Context, orderID models.OrderID) (*domain.Payment, error) {
	payment, ok := r.payments[orderID]
	if !ok {
		return nil, nil
	}
	snapshot := *payment
	return &snapshot, nil
}

func (r *fakePaymentRepository) FindByTransactionID(ctx context.Context, transactionID models.TransactionID) (*domain.Payment, error) {
	for _, payment := range r.payments {
		if payment.TransactionID != nil && *payment.TransactionID == transactionID {
			snapshot := *payment
			return &snapshot, nil
		}
	}
	return nil, nil
}

type staticGateway struct {
	approve bool
}

func (g staticGateway) Approve(ctx context.Context, orderID models.OrderID, amount models.MonetaryAmount, method models.PaymentMethod) bool {
	return g.approve
}
