package application

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fooddelivery/order-system/order-service/domain"
	"github.com/fooddelivery/order-system/shared/contract"
	"github.com/fooddelivery/order-system/shared/models"
	"github.com/fooddelivery/order-system/shared/saga"
)

func ticketAccepted(order *domain.Order, ticketID models.TicketID) contract.TicketAccepted {
	return contract.TicketAccepted{
		EventID:                  contract.NewEventID(),
		OrderID:                  order.ID,
		Timestamp:                time.Now(),
		TicketID:                 ticketID,
		EstimatedPrepTimeMinutes: 20,
	}
}

func TestHandleKitchenEvent_TicketAccepted(t *testing.T) {
	order := orderInKitchenPending(t, "TXN-1")
	repo := newFakeOrderRepository()
	repo.seed(order)
	publisher := &fakePublisher{}
	payments := &fakePaymentClient{}

	ticketID := models.NewTicketID()
	uc := NewHandleKitchenEvent(repo, payments, publisher)
	err := uc.Execute(context.Background(), ticketAccepted(order, ticketID))
	require.NoError(t, err)

	stored, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, saga.StateDeliveryPending, stored.State)
	require.NotNil(t, stored.TicketID)
	assert.Equal(t, ticketID, *stored.TicketID)

	schedules := publisher.scheduleDeliveries()
	require.Len(t, schedules, 1)
	assert.Equal(t, order.ID, schedules[0].OrderID)
	assert.Equal(t, order.DeliveryAddress, schedules[0].DeliveryAddress)
	assert.True(t, schedules[0].EstimatedPickupTime.After(time.Now()),
		"pickup estimate derives from the prep time")
	assert.Zero(t, payments.refundCalls)
}

func TestHandleKitchenEvent_TicketAcceptedRedelivered(t *testing.T) {
	order := orderInKitchenPending(t, "TXN-1")
	repo := newFakeOrderRepository()
	repo.seed(order)
	publisher := &fakePublisher{}
	payments := &fakePaymentClient{}

	uc := NewHandleKitchenEvent(repo, payments, publisher)
	event := ticketAccepted(order, models.NewTicketID())
	require.NoError(t, uc.Execute(context.Background(), event))
	require.NoError(t, uc.Execute(context.Background(), event), "redelivery is not an error")

	// The command goes out again on redelivery; the delivery service
	// dedupes schedules per order, the orchestrator must not lose them.
	schedules := publisher.scheduleDeliveries()
	require.Len(t, schedules, 2)
	assert.Equal(t, order.ID, schedules[1].OrderID)
	assert.Equal(t, 1, repo.saves, "the redelivery publishes without another write")

	stored, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, saga.StateDeliveryPending, stored.State)
}

func TestHandleKitchenEvent_TicketAccepted_RecoversLostScheduleCommand(t *testing.T) {
	order := orderInKitchenPending(t, "TXN-1")
	repo := newFakeOrderRepository()
	repo.seed(order)
	publisher := &fakePublisher{errs: []error{errors.New("sns unavailable")}}
	payments := &fakePaymentClient{}

	uc := NewHandleKitchenEvent(repo, payments, publisher)
	event := ticketAccepted(order, models.NewTicketID())

	// First delivery persists the ticket but the publish fails, so the
	// handler errors and the transport will redeliver.
	require.Error(t, uc.Execute(context.Background(), event))
	assert.Equal(t, 1, repo.saves)
	assert.Empty(t, publisher.scheduleDeliveries())

	require.NoError(t, uc.Execute(context.Background(), event))
	schedules := publisher.scheduleDeliveries()
	require.Len(t, schedules, 1, "the redelivery emits the command the first attempt lost")
	assert.Equal(t, order.ID, schedules[0].OrderID)
	assert.Equal(t, order.DeliveryAddress, schedules[0].DeliveryAddress)
	assert.Equal(t, 1, repo.saves, "the snapshot was already saved")
}

func TestHandleKitchenEvent_TicketRejected(t *testing.T) {
	order := orderInKitchenPending(t, "TXN-1")
	repo := newFakeOrderRepository()
	repo.seed(order)
	publisher := &fakePublisher{}
	payments := &fakePaymentClient{}

	uc := NewHandleKitchenEvent(repo, payments, publisher)
	err := uc.Execute(context.Background(), contract.TicketRejected{
		EventID:   contract.NewEventID(),
		OrderID:   order.ID,
		Timestamp: time.Now(),
		Reason:    "Kitchen at full capacity",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, payments.refundCalls, "compensation refunds the authorized payment exactly once")
	assert.Equal(t, "TXN-1", payments.lastRefundTxn.String())
	assert.Equal(t, "Kitchen rejected: Kitchen at full capacity", payments.lastRefundReason)

	stored, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, saga.StateCancelled, stored.State)
	require.NotNil(t, stored.CancellationReason)
	assert.Equal(t, "Kitchen rejected: Kitchen at full capacity", *stored.CancellationReason)

	cancellations := publisher.orderCancellations()
	require.Len(t, cancellations, 1)
	assert.Equal(t, "Kitchen rejected: Kitchen at full capacity", cancellations[0].Reason)
}

func TestHandleKitchenEvent_TicketRejected_DuplicateIgnored(t *testing.T) {
	order := orderInKitchenPending(t, "TXN-1")
	repo := newFakeOrderRepository()
	repo.seed(order)
	publisher := &fakePublisher{}
	payments := &fakePaymentClient{}

	uc := NewHandleKitchenEvent(repo, payments, publisher)
	event := contract.TicketRejected{
		EventID:   contract.NewEventID(),
		OrderID:   order.ID,
		Timestamp: time.Now(),
		Reason:    "Kitchen at full capacity",
	}
	require.NoError(t, uc.Execute(context.Background(), event))
	require.NoError(t, uc.Execute(context.Background(), event))

	assert.Equal(t, 1, payments.refundCalls, "terminal order ignores the redelivered rejection")
	assert.Len(t, publisher.orderCancellations(), 1)
}

func TestHandleKitchenEvent_TicketRejected_RefundsOnceAcrossConflictRetry(t *testing.T) {
	order := orderInKitchenPending(t, "TXN-1")
	repo := newFakeOrderRepository()
	repo.seed(order)
	repo.saveErrs = []error{domain.ErrVersionConflict, nil}
	publisher := &fakePublisher{}
	payments := &fakePaymentClient{}

	uc := NewHandleKitchenEvent(repo, payments, publisher)
	err := uc.Execute(context.Background(), contract.TicketRejected{
		EventID:   contract.NewEventID(),
		OrderID:   order.ID,
		Timestamp: time.Now(),
		Reason:    "Kitchen at full capacity",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, repo.saves, "the conflicting write is retried")
	assert.Equal(t, 1, payments.refundCalls, "the retry must not refund a second time")
	assert.Len(t, publisher.orderCancellations(), 1)
}

func TestHandleKitchenEvent_TicketRejected_NoPaymentToRefund(t *testing.T) {
	// An order can only be in KitchenPending with an authorized payment,
	// but the refund guard must still tolerate a missing transaction.
	order := orderInKitchenPending(t, "TXN-1")
	order.TransactionID = nil
	repo := newFakeOrderRepository()
	repo.seed(order)
	publisher := &fakePublisher{}
	payments := &fakePaymentClient{}

	uc := NewHandleKitchenEvent(repo, payments, publisher)
	err := uc.Execute(context.Background(), contract.TicketRejected{
		EventID:   contract.NewEventID(),
		OrderID:   order.ID,
		Timestamp: time.Now(),
		Reason:    "Kitchen at full capacity",
	})
	require.NoError(t, err)
	assert.Zero(t, payments.refundCalls)
}

func TestHandleKitchenEvent_UnknownOrderIgnored(t *testing.T) {
	repo := newFakeOrderRepository()
	publisher := &fakePublisher{}
	payments := &fakePaymentClient{}

	uc := NewHandleKitchenEvent(repo, payments, publisher)
	err := uc.Execute(context.Background(), contract.TicketRejected{
		EventID:   contract.NewEventID(),
		OrderID:   models.NewOrderID(),
		Timestamp: time.Now(),
		Reason:    "Kitchen at full capacity",
	})
	assert.NoError(t, err, "an event for an unknown order is dropped, not retried")
	assert.Empty(t, publisher.published)
}

func TestHandleKitchenEvent_TicketReadyIsInformational(t *testing.T) {
	order := orderInDeliveryPending(t, "TXN-1")
	repo := newFakeOrderRepository()
	repo.seed(order)
	publisher := &fakePublisher{}
	payments := &fakePaymentClient{}

	uc := NewHandleKitchenEvent(repo, payments, publisher)
	err := uc.Execute(context.Background(), contract.TicketReady{
		EventID:   contract.NewEventID(),
		OrderID:   order.ID,
		Timestamp: time.Now(),
		TicketID:  models.NewTicketID(),
	})
	require.NoError(t, err)
	assert.Empty(t, publisher.published)
	assert.Zero(t, repo.saves)
}

func TestHandleKitchenEvent_RetriesOnVersionConflict(t *testing.T) {
	order := orderInKitchenPending(t, "TXN-1")
	repo := newFakeOrderRepository()
	repo.seed(order)
	repo.saveErrs = []error{domain.ErrVersionConflict, nil}
	publisher := &fakePublisher{}
	payments := &fakePaymentClient{}

	uc := NewHandleKitchenEvent(repo, payments, publisher)
	err := uc.Execute(context.Background(), ticketAccepted(order, models.NewTicketID()))
	require.NoError(t, err)

	assert.Equal(t, 2, repo.saves)
	assert.Len(t, publisher.scheduleDeliveries(), 1)
}

func TestHandleKitchenEvent_GivesUpAfterRepeatedConflicts(t *testing.T) {
	order := orderInKitchenPending(t, "TXN-1")
	repo := newFakeOrderRepository()
	repo.seed(order)
	repo.saveErrs = []error{
		domain.ErrVersionConflict,
		domain.ErrVersionConflict,
		domain.ErrVersionConflict,
		domain.ErrVersionConflict,
	}
	publisher := &fakePublisher{}
	payments := &fakePaymentClient{}

	uc := NewHandleKitchenEvent(repo, payments, publisher)
	err := uc.Execute(context.Background(), ticketAccepted(order, models.NewTicketID()))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.Empty(t, publisher.published, "nothing published for a write that never landed")
}

func TestHandleKitchenEvent_UnexpectedMessage(t *testing.T) {
	repo := newFakeOrderRepository()
	uc := NewHandleKitchenEvent(repo, &fakePaymentClient{}, &fakePublisher{})

	err := uc.Execute(context.Background(), contract.DeliveryPickedUp{
		EventID:    contract.NewEventID(),
		OrderID:    models.NewOrderID(),
		Timestamp:  time.Now(),
		DeliveryID: models.NewDeliveryID(),
	})
	assert.Error(t, err)
}
