package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fooddelivery/order-system/shared/contract"
	"github.com/fooddelivery/order-system/shared/models"
	"github.com/fooddelivery/order-system/shared/saga"
)

func newTestItems(t *testing.T) []models.OrderItem {
	t.Helper()
	productID, err := models.NewProductID("PROD-001")
	require.NoError(t, err)
	price, err := models.ParseMonetaryAmount("45.90")
	require.NoError(t, err)
	item, err := models.NewOrderItem(productID, "Margherita", 2, price)
	require.NoError(t, err)
	return []models.OrderItem{item}
}

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	address, err := models.NewAddress("Rua Augusta 123")
	require.NoError(t, err)
	order, err := CreateOrder(models.NewCustomerID(), address, newTestItems(t))
	require.NoError(t, err)
	return order
}

func TestCreateOrder(t *testing.T) {
	order := newTestOrder(t)

	assert.Equal(t, saga.StateCreated, order.State)
	assert.Equal(t, "91.80", order.TotalAmount.String())
	assert.Nil(t, order.TransactionID)
	assert.Nil(t, order.TicketID)
	assert.Equal(t, 1, order.Version.Value)

	events := order.Events()
	require.Len(t, events, 1)
	created, ok := events[0].(contract.OrderCreated)
	require.True(t, ok)
	assert.Equal(t, order.ID, created.OrderID)
	assert.True(t, created.TotalAmount.Equal(order.TotalAmount))
}

func TestCreateOrder_RejectsEmptyItems(t *testing.T) {
	address, err := models.NewAddress("Rua Augusta 123")
	require.NoError(t, err)

	_, err = CreateOrder(models.NewCustomerID(), address, nil)
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestOrder_HappyPath(t *testing.T) {
	order := newTestOrder(t)
	order.ClearEvents()

	require.NoError(t, order.StartPayment())
	assert.Equal(t, saga.StatePaymentPending, order.State)

	transactionID, err := models.NewTransactionID("TXN-ABCD1234")
	require.NoError(t, err)
	require.NoError(t, order.MarkPaid(transactionID))
	assert.Equal(t, saga.StatePaid, order.State)
	require.NotNil(t, order.TransactionID)
	assert.Equal(t, transactionID, *order.TransactionID)

	require.NoError(t, order.SendToKitchen())
	assert.Equal(t, saga.StateKitchenPending, order.State)

	ticketID := models.NewTicketID()
	require.NoError(t, order.AcceptTicket(ticketID))
	assert.Equal(t, saga.StateDeliveryPending, order.State)
	require.NotNil(t, order.TicketID)
	assert.Equal(t, ticketID, *order.TicketID)

	deliveryID := models.NewDeliveryID()
	order.RecordDelivery(deliveryID)
	assert.Equal(t, saga.StateDeliveryPending, order.State, "recording the delivery id is not a transition")
	require.NotNil(t, order.DeliveryID)

	require.NoError(t, order.Complete())
	assert.Equal(t, saga.StateCompleted, order.State)
	assert.NotNil(t, order.CompletedAt)
	assert.True(t, order.IsTerminal())

	events := order.Events()
	require.Len(t, events, 1)
	_, ok := events[0].(contract.OrderCompleted)
	assert.True(t, ok)
}

func TestOrder_CancelRecordsReasonAndEvent(t *testing.T) {
	order := newTestOrder(t)
	order.ClearEvents()
	require.NoError(t, order.StartPayment())

	require.NoError(t, order.Cancel("Payment rejected"))
	assert.Equal(t, saga.StateCancelled, order.State)
	require.NotNil(t, order.CancellationReason)
	assert.Equal(t, "Payment rejected", *order.CancellationReason)
	assert.True(t, order.IsTerminal())

	events := order.Events()
	require.Len(t, events, 1)
	cancelled, ok := events[0].(contract.OrderCancelled)
	require.True(t, ok)
	assert.Equal(t, "Payment rejected", cancelled.Reason)
}

func TestOrder_FailFromDeliveryPending(t *testing.T) {
	order := newTestOrder(t)
	order.ClearEvents()
	require.NoError(t, order.StartPayment())
	transactionID, err := models.NewTransactionID("TXN-1")
	require.NoError(t, err)
	require.NoError(t, order.MarkPaid(transactionID))
	require.NoError(t, order.SendToKitchen())
	require.NoError(t, order.AcceptTicket(models.NewTicketID()))

	require.NoError(t, order.Fail("Delivery failed: No drivers available in the area"))
	assert.Equal(t, saga.StateFailed, order.State)
	assert.True(t, order.IsTerminal())
}

func TestOrder_IllegalTransitionsRefused(t *testing.T) {
	order := newTestOrder(t)

	// Created order cannot skip ahead.
	err := order.SendToKitchen()
	assert.ErrorIs(t, err, saga.ErrIllegalTransition)
	assert.Equal(t, saga.StateCreated, order.State, "state unchanged after refused transition")

	err = order.Complete()
	assert.ErrorIs(t, err, saga.ErrIllegalTransition)

	transactionID, _ := models.NewTransactionID("TXN-1")
	err = order.MarkPaid(transactionID)
	assert.ErrorIs(t, err, saga.ErrIllegalTransition)
	assert.Nil(t, order.TransactionID, "no partial mutation on refused transition")
}

func TestOrder_TerminalStateRejectsEverything(t *testing.T) {
	order := newTestOrder(t)
	require.NoError(t, order.StartPayment())
	require.NoError(t, order.Cancel("Payment rejected"))
	version := order.Version.Value

	assert.ErrorIs(t, order.StartPayment(), saga.ErrIllegalTransition)
	assert.ErrorIs(t, order.SendToKitchen(), saga.ErrIllegalTransition)
	assert.ErrorIs(t, order.Complete(), saga.ErrIllegalTransition)
	assert.ErrorIs(t, order.Fail("again"), saga.ErrIllegalTransition)
	assert.ErrorIs(t, order.Cancel("again"), saga.ErrIllegalTransition)

	assert.Equal(t, saga.StateCancelled, order.State)
	assert.Equal(t, version, order.Version.Value, "refused transitions do not bump the version")
}

func TestOrder_VersionGrowsWithEveryMutation(t *testing.T) {
	order := newTestOrder(t)
	assert.Equal(t, 1, order.Version.Value)

	require.NoError(t, order.StartPayment())
	assert.Equal(t, 2, order.Version.Value)

	transactionID, err := models.NewTransactionID("TXN-1")
	require.NoError(t, err)
	require.NoError(t, order.MarkPaid(transactionID))
	assert.Equal(t, 3, order.Version.Value)
}

func TestOrder_ClearEvents(t *testing.T) {
	order := newTestOrder(t)
	require.Len(t, order.Events(), 1)

	order.ClearEvents()
	assert.Empty(t, order.Events())
}
