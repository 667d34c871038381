package application

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/order-service/domain"
	"github.com/fooddelivery/order-system/shared/contract"
	"github.com/fooddelivery/order-system/shared/messaging"
	"github.com/fooddelivery/order-system/shared/models"
)

// maxConflictRetries bounds reload-and-retry on an optimistic lock
// conflict. The transport already serializes handlers per order id, so a
// conflict is a rare race, not the normal path.
const maxConflictRetries = 3

// applyToActiveOrder loads the order, applies a mutation and persists it,
// then publishes the order's recorded events plus any commands the
// mutation returned. Missing or terminal orders are a logged no-op: under
// at-least-once delivery a duplicate or stale event is expected, not an
// error. A version conflict on save reloads and retries.
//
// A publish failure after the save surfaces as an error so the transport
// redelivers the event. The mutation may return commands without touching
// the order; those are published without a save, which is how a redelivery
// re-emits a command whose first publish never went out.
func applyToActiveOrder(
	ctx context.Context,
	repo domain.OrderRepository,
	publisher messaging.Publisher,
	orderID models.OrderID,
	apply func(order *domain.Order) ([]contract.Message, error),
) error {
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return errors.Wrap(err, "failed to load order")
		}
		if order == nil {
			slog.InfoContext(ctx, "event for unknown order ignored", "orderId", orderID)
			return nil
		}
		if order.IsTerminal() {
			slog.InfoContext(ctx, "event for terminal order ignored",
				"orderId", orderID, "state", order.State)
			return nil
		}

		versionBefore := order.Version.Value
		commands, err := apply(order)
		if err != nil {
			return err
		}

		// Saving an untouched order would trip the optimistic lock for
		// no reason; commands may still need to go out.
		if order.Version.Value != versionBefore {
			if err := repo.Save(ctx, order); err != nil {
				if errors.Is(err, domain.ErrVersionConflict) {
					slog.WarnContext(ctx, "stale write refused, retrying",
						"orderId", orderID, "attempt", attempt+1)
					continue
				}
				return errors.Wrap(err, "failed to save order")
			}
		}

		msgs := append(order.Events(), commands...)
		if len(msgs) == 0 {
			return nil
		}
		if err := publisher.Publish(ctx, msgs...); err != nil {
			return errors.Wrap(err, "failed to publish messages")
		}
		order.ClearEvents()
		return nil
	}

	return errors.Wrapf(domain.ErrVersionConflict, "order %s", orderID)
}

// refund compensates an authorized payment. It is best effort: a failed
// refund is logged and the saga still reaches its terminal state; retrying
// the refund is the payment service's job.
func refund(ctx context.Context, payments PaymentClient, order *domain.Order, reason string) {
	if order.TransactionID == nil {
		return
	}

	result, err := payments.Refund(ctx, order.ID, *order.TransactionID, reason)
	if err != nil {
		slog.ErrorContext(ctx, "refund request failed",
			"orderId", order.ID, "transactionId", *order.TransactionID, "error", err)
		return
	}
	if !result.Success {
		slog.ErrorContext(ctx, "refund rejected",
			"orderId", order.ID, "transactionId", *order.TransactionID, "message", result.Message)
		return
	}

	slog.InfoContext(ctx, "payment refunded",
		"orderId", order.ID, "transactionId", *order.TransactionID, "reason", reason)
}
