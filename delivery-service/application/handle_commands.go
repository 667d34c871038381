package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/delivery-service/domain"
	"github.com/fooddelivery/order-system/shared/contract"
	"github.com/fooddelivery/order-system/shared/messaging"
	"github.com/fooddelivery/order-system/shared/models"
	"github.com/fooddelivery/order-system/shared/telemetry"
)

const failureReason = "No drivers available in the area"

// DriverDecider decides whether a driver can take an order. Real
// deployments back this with fleet data; tests force either branch.
type DriverDecider interface {
	DriverAvailable(ctx context.Context, orderID models.OrderID, address models.Address) bool
}

// HandleDeliveryCommand processes ScheduleDelivery and CancelDelivery
// commands from the order service.
type HandleDeliveryCommand struct {
	deliveryRepository domain.DeliveryRepository
	drivers            DriverDecider
	publisher          messaging.Publisher
}

// NewHandleDeliveryCommand creates a new HandleDeliveryCommand use case
func NewHandleDeliveryCommand(
	deliveryRepository domain.DeliveryRepository,
	drivers DriverDecider,
	publisher messaging.Publisher,
) *HandleDeliveryCommand {
	return &HandleDeliveryCommand{
		deliveryRepository: deliveryRepository,
		drivers:            drivers,
		publisher:          publisher,
	}
}

// Execute routes one delivery command to its handler.
func (uc *HandleDeliveryCommand) Execute(ctx context.Context, msg contract.Message) error {
	ctx, span := telemetry.StartSpan(ctx, "HandleDeliveryCommand.Execute")
	defer span.End()

	switch cmd := msg.(type) {
	case contract.ScheduleDelivery:
		return uc.onScheduleDelivery(ctx, cmd)
	case contract.CancelDelivery:
		return uc.onCancelDelivery(ctx, cmd)
	default:
		return errors.Errorf("unexpected delivery command %T", msg)
	}
}

func (uc *HandleDeliveryCommand) onScheduleDelivery(ctx context.Context, cmd contract.ScheduleDelivery) error {
	// A redelivered command must not schedule a second delivery.
	existing, err := uc.deliveryRepository.FindByOrderID(ctx, cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "failed to look up delivery")
	}
	if existing != nil {
		slog.InfoContext(ctx, "duplicate schedule command ignored",
			"orderId", cmd.OrderID, "deliveryId", existing.ID)
		return nil
	}

	delivery := domain.NewDelivery(cmd.OrderID, cmd.DeliveryAddress, cmd.EstimatedPickupTime)

	if !uc.drivers.DriverAvailable(ctx, cmd.OrderID, cmd.DeliveryAddress) {
		delivery.Fail(failureReason)
		if err := uc.deliveryRepository.Save(ctx, delivery); err != nil {
			return errors.Wrap(err, "failed to save delivery")
		}

		slog.WarnContext(ctx, "delivery failed", "orderId", cmd.OrderID, "reason", failureReason)
		return uc.publisher.Publish(ctx, contract.DeliveryFailed{
			EventID:    contract.NewEventID(),
			OrderID:    cmd.OrderID,
			Timestamp:  time.Now(),
			DeliveryID: delivery.ID,
			Reason:     failureReason,
		})
	}

	estimatedDelivery := domain.EstimateDeliveryTime(cmd.EstimatedPickupTime)
	delivery.Schedule(estimatedDelivery)
	if err := uc.deliveryRepository.Save(ctx, delivery); err != nil {
		return errors.Wrap(err, "failed to save delivery")
	}

	slog.InfoContext(ctx, "delivery scheduled",
		"orderId", cmd.OrderID, "deliveryId", delivery.ID,
		"driver", delivery.DriverName, "eta", estimatedDelivery)
	telemetry.RecordCounter(ctx, "deliveries_scheduled_total", "Deliveries assigned to a driver", 1)

	if err := uc.publisher.Publish(ctx, contract.DeliveryScheduled{
		EventID:               contract.NewEventID(),
		OrderID:               cmd.OrderID,
		Timestamp:             time.Now(),
		DeliveryID:            delivery.ID,
		EstimatedDeliveryTime: estimatedDelivery,
	}); err != nil {
		return errors.Wrap(err, "failed to publish delivery scheduled")
	}

	// The courier trip is simulated synchronously. A real fleet would
	// report pickup and hand-off from driver devices.
	return uc.runDelivery(ctx, delivery)
}

func (uc *HandleDeliveryCommand) runDelivery(ctx context.Context, delivery *domain.Delivery) error {
	delivery.Pickup()
	if err := uc.publisher.Publish(ctx, contract.DeliveryPickedUp{
		EventID:    contract.NewEventID(),
		OrderID:    delivery.OrderID,
		Timestamp:  time.Now(),
		DeliveryID: delivery.ID,
	}); err != nil {
		return errors.Wrap(err, "failed to publish delivery picked up")
	}

	delivery.StartTransit()
	delivery.Complete()
	if err := uc.deliveryRepository.Save(ctx, delivery); err != nil {
		return errors.Wrap(err, "failed to save delivery")
	}

	slog.InfoContext(ctx, "delivery completed",
		"orderId", delivery.OrderID, "deliveryId", delivery.ID)
	return uc.publisher.Publish(ctx, contract.DeliveryCompleted{
		EventID:     contract.NewEventID(),
		OrderID:     delivery.OrderID,
		Timestamp:   time.Now(),
		DeliveryID:  delivery.ID,
		CompletedAt: *delivery.DeliveredAt,
	})
}

func (uc *HandleDeliveryCommand) onCancelDelivery(ctx context.Context, cmd contract.CancelDelivery) error {
	delivery, err := uc.deliveryRepository.FindByOrderID(ctx, cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "failed to look up delivery")
	}
	if delivery == nil {
		slog.InfoContext(ctx, "cancel for unknown delivery ignored", "orderId", cmd.OrderID)
		return nil
	}
	if delivery.IsClosed() {
		slog.InfoContext(ctx, "cancel for closed delivery ignored",
			"orderId", cmd.OrderID, "status", delivery.Status)
		return nil
	}

	delivery.Fail("Cancelled: " + cmd.Reason)
	if err := uc.deliveryRepository.Save(ctx, delivery); err != nil {
		return errors.Wrap(err, "failed to save delivery")
	}

	slog.InfoContext(ctx, "delivery cancelled", "orderId", cmd.OrderID, "reason", cmd.Reason)
	return nil
}
