package handlers

import (
	"context"
	"log/slog"

	"github.com/fooddelivery/order-system/delivery-service/application"
	"github.com/fooddelivery/order-system/shared/contract"
)

// DeliveryCommandHandlers routes inbound delivery commands to the use case.
type DeliveryCommandHandlers struct {
	handleCommand *application.HandleDeliveryCommand
}

// NewDeliveryCommandHandlers creates new delivery command handlers
func NewDeliveryCommandHandlers(handleCommand *application.HandleDeliveryCommand) *DeliveryCommandHandlers {
	return &DeliveryCommandHandlers{handleCommand: handleCommand}
}

// HandlerID returns the unique identifier for this event handler
func (h *DeliveryCommandHandlers) HandlerID() string {
	return "delivery-service-command-handler"
}

// Handle implements the messaging.Handler interface
func (h *DeliveryCommandHandlers) Handle(ctx context.Context, msg contract.Message) error {
	if msg.Family() != contract.FamilyDeliveryCommands {
		slog.DebugContext(ctx, "message family ignored",
			"family", msg.Family(), "orderId", msg.Key())
		return nil
	}
	return h.handleCommand.Execute(ctx, msg)
}
