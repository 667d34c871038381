package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/shared/models"
)

var (
	ErrNoItems = errors.New("ticket must contain at least one item")

	ErrVersionConflict = errors.New("ticket was modified concurrently")
)

// prep time is a base plus a fixed amount per line item
const (
	basePrepMinutes    = 10
	perItemPrepMinutes = 5
)

// EstimatePrepTime returns the preparation estimate for an item count.
func EstimatePrepTime(itemCount int) int {
	return basePrepMinutes + itemCount*perItemPrepMinutes
}

// Ticket tracks one order through the kitchen.
type Ticket struct {
	ID                       models.TicketID
	OrderID                  models.OrderID
	Items                    []models.OrderItem
	Status                   models.TicketStatus
	EstimatedPrepTimeMinutes int
	RejectionReason          *string
	AcceptedAt               *time.Time
	ReadyAt                  *time.Time
	Timestamps               models.Timestamps
	Version                  models.Version
}

// NewTicket opens a pending ticket for an order.
func NewTicket(orderID models.OrderID, items []models.OrderItem) (*Ticket, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	return &Ticket{
		ID:         models.NewTicketID(),
		OrderID:    orderID,
		Items:      items,
		Status:     models.TicketStatusPending,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}, nil
}

// Accept commits the kitchen to the ticket with a prep estimate.
func (t *Ticket) Accept(estimatedMinutes int) {
	now := time.Now()
	t.Status = models.TicketStatusAccepted
	t.EstimatedPrepTimeMinutes = estimatedMinutes
	t.AcceptedAt = &now
	t.touch()
}

// Reject closes the ticket with a reason.
func (t *Ticket) Reject(reason string) {
	t.Status = models.TicketStatusRejected
	t.RejectionReason = &reason
	t.touch()
}

// StartPreparing marks the ticket in progress.
func (t *Ticket) StartPreparing() {
	t.Status = models.TicketStatusPreparing
	t.touch()
}

// MarkReady marks preparation finished.
func (t *Ticket) MarkReady() {
	now := time.Now()
	t.Status = models.TicketStatusReady
	t.ReadyAt = &now
	t.touch()
}

// IsClosed reports whether the ticket can no longer change.
func (t *Ticket) IsClosed() bool {
	return t.Status == models.TicketStatusReady || t.Status == models.TicketStatusRejected
}

func (t *Ticket) touch() {
	t.Timestamps = t.Timestamps.Update()
	t.Version = t.Version.Update()
}

// TicketRepository stores ticket snapshots, at most one per order.
// FindByOrderID returns (nil, nil) when the order has no ticket.
type TicketRepository interface {
	Save(ctx context.Context, ticket *Ticket) error
	FindByOrderID(ctx context.Context, orderID models.OrderID) (*Ticket, error)
}
