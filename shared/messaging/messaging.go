package messaging

import (
	"context"

	"github.com/fooddelivery/order-system/shared/contract"
)

// Publisher publishes contract messages to the message bus. Delivery is
// at-least-once; consumers must tolerate duplicates.
type Publisher interface {
	Publish(ctx context.Context, msgs ...contract.Message) error
}

// Handler consumes inbound contract messages.
type Handler interface {
	HandlerID() string
	Handle(ctx context.Context, msg contract.Message) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc struct {
	id string
	fn func(ctx context.Context, msg contract.Message) error
}

func NewHandlerFunc(id string, fn func(ctx context.Context, msg contract.Message) error) *HandlerFunc {
	return &HandlerFunc{id: id, fn: fn}
}

func (h *HandlerFunc) HandlerID() string {
	return h.id
}

func (h *HandlerFunc) Handle(ctx context.Context, msg contract.Message) error {
	return h.fn(ctx, msg)
}
