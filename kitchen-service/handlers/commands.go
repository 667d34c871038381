package handlers

import (
	"context"
	"log/slog"

	"github.com/fooddelivery/order-system/kitchen-service/application"
	"github.com/fooddelivery/order-system/shared/contract"
)

// KitchenCommandHandlers routes inbound kitchen commands to the use case.
type KitchenCommandHandlers struct {
	handleCommand *application.HandleKitchenCommand
}

// NewKitchenCommandHandlers creates new kitchen command handlers
func NewKitchenCommandHandlers(handleCommand *application.HandleKitchenCommand) *KitchenCommandHandlers {
	return &KitchenCommandHandlers{handleCommand: handleCommand}
}

// HandlerID returns the unique identifier for this event handler
func (h *KitchenCommandHandlers) HandlerID() string {
	return "kitchen-service-command-handler"
}

// Handle implements the messaging.Handler interface
func (h *KitchenCommandHandlers) Handle(ctx context.Context, msg contract.Message) error {
	if msg.Family() != contract.FamilyKitchenCommands {
		slog.DebugContext(ctx, "message family ignored",
			"family", msg.Family(), "orderId", msg.Key())
		return nil
	}
	return h.handleCommand.Execute(ctx, msg)
}
