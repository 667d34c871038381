package application

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/kitchen-service/domain"
	"github.com/fooddelivery/order-system/shared/models"
)

// ErrTicketNotFound is returned when an order has no kitchen ticket.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketResponse is the read model returned over HTTP.
type TicketResponse struct {
	TicketID                 string  `json:"ticket_id"`
	OrderID                  string  `json:"order_id"`
	Status                   string  `json:"status"`
	EstimatedPrepTimeMinutes int     `json:"estimated_prep_time_minutes"`
	RejectionReason          *string `json:"rejection_reason,omitempty"`
	AcceptedAt               *string `json:"accepted_at,omitempty"`
	ReadyAt                  *string `json:"ready_at,omitempty"`
	CreatedAt                string  `json:"created_at"`
}

// GetTicket use case
type GetTicket struct {
	ticketRepository domain.TicketRepository
}

// NewGetTicket creates a new GetTicket use case
func NewGetTicket(ticketRepository domain.TicketRepository) *GetTicket {
	return &GetTicket{ticketRepository: ticketRepository}
}

// Execute loads the ticket for one order.
func (uc *GetTicket) Execute(ctx context.Context, rawOrderID string) (*TicketResponse, error) {
	orderID, err := models.ParseOrderID(rawOrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	ticket, err := uc.ticketRepository.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find ticket")
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}

	response := &TicketResponse{
		TicketID:                 ticket.ID.String(),
		OrderID:                  ticket.OrderID.String(),
		Status:                   string(ticket.Status),
		EstimatedPrepTimeMinutes: ticket.EstimatedPrepTimeMinutes,
		RejectionReason:          ticket.RejectionReason,
		CreatedAt:                ticket.Timestamps.CreatedAt.Format(time.RFC3339),
	}
	if ticket.AcceptedAt != nil {
		accepted := ticket.AcceptedAt.Format(time.RFC3339)
		response.AcceptedAt = &accepted
	}
	if ticket.ReadyAt != nil {
		ready := ticket.ReadyAt.Format(time.RFC3339)
		response.ReadyAt = &ready
	}

	return response, nil
}
