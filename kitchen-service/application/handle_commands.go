package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/kitchen-service/domain"
	"github.com/fooddelivery/order-system/shared/contract"
	"github.com/fooddelivery/order-system/shared/messaging"
	"github.com/fooddelivery/order-system/shared/models"
	"github.com/fooddelivery/order-system/shared/telemetry"
)

const rejectionReason = "Kitchen at full capacity"

// AvailabilityDecider decides whether the kitchen takes an order. Real
// deployments back this with capacity data; tests force either branch.
type AvailabilityDecider interface {
	CanAccept(ctx context.Context, orderID models.OrderID, items []models.OrderItem) bool
}

// HandleKitchenCommand processes PrepareOrder and CancelTicket commands
// from the order service.
type HandleKitchenCommand struct {
	ticketRepository domain.TicketRepository
	availability     AvailabilityDecider
	publisher        messaging.Publisher
}

// NewHandleKitchenCommand creates a new HandleKitchenCommand use case
func NewHandleKitchenCommand(
	ticketRepository domain.TicketRepository,
	availability AvailabilityDecider,
	publisher messaging.Publisher,
) *HandleKitchenCommand {
	return &HandleKitchenCommand{
		ticketRepository: ticketRepository,
		availability:     availability,
		publisher:        publisher,
	}
}

// Execute routes one kitchen command to its handler.
func (uc *HandleKitchenCommand) Execute(ctx context.Context, msg contract.Message) error {
	ctx, span := telemetry.StartSpan(ctx, "HandleKitchenCommand.Execute")
	defer span.End()

	switch cmd := msg.(type) {
	case contract.PrepareOrder:
		return uc.onPrepareOrder(ctx, cmd)
	case contract.CancelTicket:
		return uc.onCancelTicket(ctx, cmd)
	default:
		return errors.Errorf("unexpected kitchen command %T", msg)
	}
}

func (uc *HandleKitchenCommand) onPrepareOrder(ctx context.Context, cmd contract.PrepareOrder) error {
	// A redelivered command must not open a second ticket.
	existing, err := uc.ticketRepository.FindByOrderID(ctx, cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "failed to look up ticket")
	}
	if existing != nil {
		slog.InfoContext(ctx, "duplicate prepare command ignored",
			"orderId", cmd.OrderID, "ticketId", existing.ID)
		return nil
	}

	ticket, err := domain.NewTicket(cmd.OrderID, cmd.Items)
	if err != nil {
		return errors.Wrap(err, "failed to open ticket")
	}

	if !uc.availability.CanAccept(ctx, cmd.OrderID, cmd.Items) {
		ticket.Reject(rejectionReason)
		if err := uc.ticketRepository.Save(ctx, ticket); err != nil {
			return errors.Wrap(err, "failed to save ticket")
		}

		slog.WarnContext(ctx, "ticket rejected", "orderId", cmd.OrderID, "reason", rejectionReason)
		return uc.publisher.Publish(ctx, contract.TicketRejected{
			EventID:   contract.NewEventID(),
			OrderID:   cmd.OrderID,
			Timestamp: time.Now(),
			Reason:    rejectionReason,
		})
	}

	estimatedMinutes := domain.EstimatePrepTime(len(cmd.Items))
	ticket.Accept(estimatedMinutes)
	if err := uc.ticketRepository.Save(ctx, ticket); err != nil {
		return errors.Wrap(err, "failed to save ticket")
	}

	slog.InfoContext(ctx, "ticket accepted",
		"orderId", cmd.OrderID, "ticketId", ticket.ID, "estimatedMinutes", estimatedMinutes)
	telemetry.RecordCounter(ctx, "tickets_accepted_total", "Tickets taken by the kitchen", 1)

	if err := uc.publisher.Publish(ctx, contract.TicketAccepted{
		EventID:                  contract.NewEventID(),
		OrderID:                  cmd.OrderID,
		Timestamp:                time.Now(),
		TicketID:                 ticket.ID,
		EstimatedPrepTimeMinutes: estimatedMinutes,
	}); err != nil {
		return errors.Wrap(err, "failed to publish ticket accepted")
	}

	// Preparation is simulated synchronously. A real kitchen would report
	// readiness from its own workflow.
	return uc.finishPreparation(ctx, ticket)
}

func (uc *HandleKitchenCommand) finishPreparation(ctx context.Context, ticket *domain.Ticket) error {
	ticket.MarkReady()
	if err := uc.ticketRepository.Save(ctx, ticket); err != nil {
		return errors.Wrap(err, "failed to save ticket")
	}

	slog.InfoContext(ctx, "ticket ready", "orderId", ticket.OrderID, "ticketId", ticket.ID)
	return uc.publisher.Publish(ctx, contract.TicketReady{
		EventID:   contract.NewEventID(),
		OrderID:   ticket.OrderID,
		Timestamp: time.Now(),
		TicketID:  ticket.ID,
	})
}

func (uc *HandleKitchenCommand) onCancelTicket(ctx context.Context, cmd contract.CancelTicket) error {
	ticket, err := uc.ticketRepository.FindByOrderID(ctx, cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "failed to look up ticket")
	}
	if ticket == nil {
		slog.InfoContext(ctx, "cancel for unknown ticket ignored", "orderId", cmd.OrderID)
		return nil
	}
	if ticket.IsClosed() {
		slog.InfoContext(ctx, "cancel for closed ticket ignored",
			"orderId", cmd.OrderID, "status", ticket.Status)
		return nil
	}

	ticket.Reject("Cancelled: " + cmd.Reason)
	if err := uc.ticketRepository.Save(ctx, ticket); err != nil {
		return errors.Wrap(err, "failed to save ticket")
	}

	slog.InfoContext(ctx, "ticket cancelled", "orderId", cmd.OrderID, "reason", cmd.Reason)
	return nil
}
