package application

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/order-service/domain"
	"github.com/fooddelivery/order-system/shared/contract"
	"github.com/fooddelivery/order-system/shared/messaging"
	"github.com/fooddelivery/order-system/shared/telemetry"
)

// HandleDeliveryEvent finalizes the saga on events from the delivery
// service.
type HandleDeliveryEvent struct {
	orderRepository domain.OrderRepository
	paymentClient   PaymentClient
	publisher       messaging.Publisher
}

// NewHandleDeliveryEvent creates a new HandleDeliveryEvent use case
func NewHandleDeliveryEvent(
	orderRepository domain.OrderRepository,
	paymentClient PaymentClient,
	publisher messaging.Publisher,
) *HandleDeliveryEvent {
	return &HandleDeliveryEvent{
		orderRepository: orderRepository,
		paymentClient:   paymentClient,
		publisher:       publisher,
	}
}

// Execute routes one delivery event to its handler.
func (uc *HandleDeliveryEvent) Execute(ctx context.Context, msg contract.Message) error {
	ctx, span := telemetry.StartSpan(ctx, "HandleDeliveryEvent.Execute")
	defer span.End()

	switch event := msg.(type) {
	case contract.DeliveryScheduled:
		return uc.onDeliveryScheduled(ctx, event)
	case contract.DeliveryPickedUp:
		slog.InfoContext(ctx, "delivery picked up",
			"orderId", event.OrderID, "deliveryId", event.DeliveryID)
		return nil
	case contract.DeliveryCompleted:
		return uc.onDeliveryCompleted(ctx, event)
	case contract.DeliveryFailed:
		return uc.onDeliveryFailed(ctx, event)
	default:
		return errors.Errorf("unexpected delivery event %T", msg)
	}
}

// onDeliveryScheduled records the delivery id. The order stays in
// DeliveryPending; this is bookkeeping, not a transition.
func (uc *HandleDeliveryEvent) onDeliveryScheduled(ctx context.Context, event contract.DeliveryScheduled) error {
	return applyToActiveOrder(ctx, uc.orderRepository, uc.publisher, event.OrderID,
		func(order *domain.Order) ([]contract.Message, error) {
			order.RecordDelivery(event.DeliveryID)
			return nil, nil
		})
}

func (uc *HandleDeliveryEvent) onDeliveryCompleted(ctx context.Context, event contract.DeliveryCompleted) error {
	return applyToActiveOrder(ctx, uc.orderRepository, uc.publisher, event.OrderID,
		func(order *domain.Order) ([]contract.Message, error) {
			if err := order.Complete(); err != nil {
				return nil, errors.Wrap(err, "failed to complete order")
			}

			telemetry.RecordCounter(ctx, "orders_completed_total", "Orders delivered to the customer", 1)
			return nil, nil
		})
}

// onDeliveryFailed compensates exactly like a kitchen rejection, but the
// order ends Failed instead of Cancelled: the kitchen did its part.
func (uc *HandleDeliveryEvent) onDeliveryFailed(ctx context.Context, event contract.DeliveryFailed) error {
	// Single refund call even when a version conflict re-runs the mutation.
	refunded := false
	return applyToActiveOrder(ctx, uc.orderRepository, uc.publisher, event.OrderID,
		func(order *domain.Order) ([]contract.Message, error) {
			reason := "Delivery failed: " + event.Reason
			if !refunded {
				refund(ctx, uc.paymentClient, order, reason)
				refunded = true
			}

			if err := order.Fail(reason); err != nil {
				return nil, errors.Wrap(err, "failed to mark order failed")
			}

			telemetry.RecordCounter(ctx, "orders_failed_total", "Orders failed in delivery", 1)
			return nil, nil
		})
}
