package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrder(t *testing.T) {
	order := orderInDeliveryPending(t, "TXN-1")
	repo := newFakeOrderRepository()
	repo.seed(order)

	uc := NewGetOrder(repo)
	response, err := uc.Execute(context.Background(), order.ID.String())
	require.NoError(t, err)

	assert.Equal(t, order.ID.String(), response.OrderID)
	assert.Equal(t, "DELIVERY_PENDING", response.Status)
	assert.Equal(t, "91.80", response.TotalAmount)
	require.NotNil(t, response.TransactionID)
	assert.Equal(t, "TXN-1", *response.TransactionID)
	assert.NotNil(t, response.TicketID)
	require.Len(t, response.Items, 1)
	assert.Equal(t, "45.90", response.Items[0].UnitPrice)
	assert.Equal(t, "91.80", response.Items[0].TotalPrice)
	assert.Nil(t, response.CompletedAt)
}

func TestGetOrder_NotFound(t *testing.T) {
	uc := NewGetOrder(newFakeOrderRepository())

	response, err := uc.Execute(context.Background(), "550e8400-e29b-41d4-a716-446655440000")
	assert.Nil(t, response)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetOrder_InvalidID(t *testing.T) {
	uc := NewGetOrder(newFakeOrderRepository())

	response, err := uc.Execute(context.Background(), "not-a-uuid")
	assert.Nil(t, response)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrOrderNotFound)
}
