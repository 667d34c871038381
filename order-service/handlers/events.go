package handlers

import (
	"context"
	"log/slog"

	"github.com/fooddelivery/order-system/order-service/application"
	"github.com/fooddelivery/order-system/shared/contract"
)

// SagaEventHandlers routes inbound kitchen and delivery events to the
// orchestrating use cases. Order events on the same bus are our own
// notifications and are ignored here.
type SagaEventHandlers struct {
	handleKitchenEvent  *application.HandleKitchenEvent
	handleDeliveryEvent *application.HandleDeliveryEvent
}

// NewSagaEventHandlers creates new saga event handlers
func NewSagaEventHandlers(
	handleKitchenEvent *application.HandleKitchenEvent,
	handleDeliveryEvent *application.HandleDeliveryEvent,
) *SagaEventHandlers {
	return &SagaEventHandlers{
		handleKitchenEvent:  handleKitchenEvent,
		handleDeliveryEvent: handleDeliveryEvent,
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *SagaEventHandlers) HandlerID() string {
	return "order-service-saga-handler"
}

// Handle implements the messaging.Handler interface
func (h *SagaEventHandlers) Handle(ctx context.Context, msg contract.Message) error {
	switch msg.Family() {
	case contract.FamilyKitchenEvents:
		return h.handleKitchenEvent.Execute(ctx, msg)
	case contract.FamilyDeliveryEvents:
		return h.handleDeliveryEvent.Execute(ctx, msg)
	default:
		slog.DebugContext(ctx, "message family ignored",
			"family", msg.Family(), "orderId", msg.Key())
		return nil
	}
}
