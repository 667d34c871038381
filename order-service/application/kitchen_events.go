package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/order-service/domain"
	"github.com/fooddelivery/order-system/shared/contract"
	"github.com/fooddelivery/order-system/shared/messaging"
	"github.com/fooddelivery/order-system/shared/telemetry"
)

// HandleKitchenEvent advances or compensates the saga on events from the
// kitchen service.
type HandleKitchenEvent struct {
	orderRepository domain.OrderRepository
	paymentClient   PaymentClient
	publisher       messaging.Publisher
}

// NewHandleKitchenEvent creates a new HandleKitchenEvent use case
func NewHandleKitchenEvent(
	orderRepository domain.OrderRepository,
	paymentClient PaymentClient,
	publisher messaging.Publisher,
) *HandleKitchenEvent {
	return &HandleKitchenEvent{
		orderRepository: orderRepository,
		paymentClient:   paymentClient,
		publisher:       publisher,
	}
}

// Execute routes one kitchen event to its handler.
func (uc *HandleKitchenEvent) Execute(ctx context.Context, msg contract.Message) error {
	ctx, span := telemetry.StartSpan(ctx, "HandleKitchenEvent.Execute")
	defer span.End()

	switch event := msg.(type) {
	case contract.TicketAccepted:
		return uc.onTicketAccepted(ctx, event)
	case contract.TicketRejected:
		return uc.onTicketRejected(ctx, event)
	case contract.TicketReady:
		// Informational only: terminal state is driven by delivery events.
		slog.InfoContext(ctx, "ticket ready",
			"orderId", event.OrderID, "ticketId", event.TicketID)
		return nil
	default:
		return errors.Errorf("unexpected kitchen event %T", msg)
	}
}

// onTicketAccepted records the ticket and hands the order to the delivery
// service with a pickup estimate derived from the kitchen's prep time.
func (uc *HandleKitchenEvent) onTicketAccepted(ctx context.Context, event contract.TicketAccepted) error {
	return applyToActiveOrder(ctx, uc.orderRepository, uc.publisher, event.OrderID,
		func(order *domain.Order) ([]contract.Message, error) {
			if order.TicketID != nil {
				// Redelivered acceptance. The snapshot may have been saved
				// while the first publish failed, so the command is emitted
				// again; the delivery service drops duplicate schedules.
				slog.InfoContext(ctx, "ticket acceptance redelivered, re-emitting schedule",
					"orderId", order.ID, "ticketId", event.TicketID)
				return []contract.Message{scheduleDeliveryFor(order, event)}, nil
			}

			if err := order.AcceptTicket(event.TicketID); err != nil {
				return nil, errors.Wrap(err, "failed to accept ticket")
			}
			return []contract.Message{scheduleDeliveryFor(order, event)}, nil
		})
}

func scheduleDeliveryFor(order *domain.Order, event contract.TicketAccepted) contract.ScheduleDelivery {
	return contract.ScheduleDelivery{
		OrderID:             order.ID,
		DeliveryAddress:     order.DeliveryAddress,
		EstimatedPickupTime: time.Now().Add(time.Duration(event.EstimatedPrepTimeMinutes) * time.Minute),
		Timestamp:           time.Now(),
	}
}

// onTicketRejected compensates: the payment is refunded (if one was
// authorized) and the order is cancelled.
func (uc *HandleKitchenEvent) onTicketRejected(ctx context.Context, event contract.TicketRejected) error {
	// The guard keeps the refund to a single call even when a version
	// conflict re-runs the mutation.
	refunded := false
	return applyToActiveOrder(ctx, uc.orderRepository, uc.publisher, event.OrderID,
		func(order *domain.Order) ([]contract.Message, error) {
			reason := "Kitchen rejected: " + event.Reason
			if !refunded {
				refund(ctx, uc.paymentClient, order, reason)
				refunded = true
			}

			if err := order.Cancel(reason); err != nil {
				return nil, errors.Wrap(err, "failed to cancel order")
			}

			telemetry.RecordCounter(ctx, "orders_cancelled_total", "Orders cancelled by compensation", 1)
			return nil, nil
		})
}
