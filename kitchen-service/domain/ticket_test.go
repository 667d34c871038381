package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fooddelivery/order-system/shared/models"
)

func testItems(t *testing.T, count int) []models.OrderItem {
	t.Helper()
	price, err := models.ParseMonetaryAmount("10.00")
	require.NoError(t, err)

	items := make([]models.OrderItem, 0, count)
	for i := 0; i < count; i++ {
		productID, err := models.NewProductID("PROD-001")
		require.NoError(t, err)
		item, err := models.NewOrderItem(productID, "Margherita", 1, price)
		require.NoError(t, err)
		items = append(items, item)
	}
	return items
}

func TestEstimatePrepTime(t *testing.T) {
	tests := []struct {
		items    int
		expected int
	}{
		{items: 1, expected: 15},
		{items: 2, expected: 20},
		{items: 5, expected: 35},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, EstimatePrepTime(tt.items), "%d items", tt.items)
	}
}

func TestNewTicket(t *testing.T) {
	orderID := models.NewOrderID()
	ticket, err := NewTicket(orderID, testItems(t, 2))
	require.NoError(t, err)

	assert.Equal(t, orderID, ticket.OrderID)
	assert.Equal(t, models.TicketStatusPending, ticket.Status)
	assert.False(t, ticket.IsClosed())
	assert.Equal(t, 1, ticket.Version.Value)

	_, err = NewTicket(orderID, nil)
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestTicket_AcceptThenReady(t *testing.T) {
	ticket, err := NewTicket(models.NewOrderID(), testItems(t, 2))
	require.NoError(t, err)

	ticket.Accept(20)
	assert.Equal(t, models.TicketStatusAccepted, ticket.Status)
	assert.Equal(t, 20, ticket.EstimatedPrepTimeMinutes)
	assert.NotNil(t, ticket.AcceptedAt)
	assert.False(t, ticket.IsClosed())

	ticket.StartPreparing()
	assert.Equal(t, models.TicketStatusPreparing, ticket.Status)

	ticket.MarkReady()
	assert.Equal(t, models.TicketStatusReady, ticket.Status)
	assert.NotNil(t, ticket.ReadyAt)
	assert.True(t, ticket.IsClosed())
}

func TestTicket_Reject(t *testing.T) {
	ticket, err := NewTicket(models.NewOrderID(), testItems(t, 1))
	require.NoError(t, err)

	ticket.Reject("Kitchen at full capacity")
	assert.Equal(t, models.TicketStatusRejected, ticket.Status)
	require.NotNil(t, ticket.RejectionReason)
	assert.Equal(t, "Kitchen at full capacity", *ticket.RejectionReason)
	assert.True(t, ticket.IsClosed())
}
