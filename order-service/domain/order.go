package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/shared/contract"
	"github.com/fooddelivery/order-system/shared/models"
	"github.com/fooddelivery/order-system/shared/saga"
)

var (
	ErrNoItems = errors.New("order must contain at least one item")

	// ErrVersionConflict is returned by a repository when a save races a
	// concurrent write. The caller reloads and retries instead of
	// overwriting the newer state.
	ErrVersionConflict = errors.New("order was modified concurrently")
)

// Order is the aggregate root of one saga instance. It is mutated only by
// the orchestrator, and every state change goes through transitionTo so an
// event that contradicts the current state can never be committed.
type Order struct {
	ID                 models.OrderID
	CustomerID         models.CustomerID
	DeliveryAddress    models.Address
	Items              []models.OrderItem
	TotalAmount        models.MonetaryAmount
	State              saga.State
	TransactionID      *models.TransactionID
	TicketID           *models.TicketID
	DeliveryID         *models.DeliveryID
	CancellationReason *string
	CompletedAt        *time.Time
	Timestamps         models.Timestamps
	Version            models.Version

	events []contract.Message
}

// CreateOrder builds a new order in state Created. The total amount is
// derived from the items here and never mutated independently.
func CreateOrder(customerID models.CustomerID, deliveryAddress models.Address, items []models.OrderItem) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	total := models.ZeroAmount
	for _, item := range items {
		total = total.Add(item.TotalPrice())
	}

	order := &Order{
		ID:              models.NewOrderID(),
		CustomerID:      customerID,
		DeliveryAddress: deliveryAddress,
		Items:           items,
		TotalAmount:     total,
		State:           saga.StateCreated,
		Timestamps:      models.NewTimestamps(),
		Version:         models.NewVersion(),
	}

	order.recordEvent(contract.OrderCreated{
		EventID:     contract.NewEventID(),
		OrderID:     order.ID,
		Timestamp:   time.Now(),
		CustomerID:  order.CustomerID,
		TotalAmount: order.TotalAmount,
	})

	return order, nil
}

func (o *Order) transitionTo(to saga.State) error {
	if !saga.IsValidTransition(o.State, to) {
		return errors.Wrapf(saga.ErrIllegalTransition, "order %s: %s -> %s", o.ID, o.State, to)
	}
	o.State = to
	o.touch()
	return nil
}

func (o *Order) touch() {
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()
}

// StartPayment moves the order into PaymentPending.
func (o *Order) StartPayment() error {
	return o.transitionTo(saga.StatePaymentPending)
}

// MarkPaid records the authorized transaction and moves to Paid.
// The transaction id is present if and only if payment was authorized.
func (o *Order) MarkPaid(transactionID models.TransactionID) error {
	if err := o.transitionTo(saga.StatePaid); err != nil {
		return err
	}
	o.TransactionID = &transactionID
	return nil
}

// SendToKitchen moves the order into KitchenPending.
func (o *Order) SendToKitchen() error {
	return o.transitionTo(saga.StateKitchenPending)
}

// AcceptTicket records the kitchen ticket and moves to DeliveryPending.
func (o *Order) AcceptTicket(ticketID models.TicketID) error {
	if err := o.transitionTo(saga.StateDeliveryPending); err != nil {
		return err
	}
	o.TicketID = &ticketID
	return nil
}

// RecordDelivery stores the delivery id. This is bookkeeping, not a
// transition: the order is already in DeliveryPending.
func (o *Order) RecordDelivery(deliveryID models.DeliveryID) {
	o.DeliveryID = &deliveryID
	o.touch()
}

// Complete finishes the saga and stamps the completion time.
func (o *Order) Complete() error {
	if err := o.transitionTo(saga.StateCompleted); err != nil {
		return err
	}
	now := time.Now()
	o.CompletedAt = &now

	o.recordEvent(contract.OrderCompleted{
		EventID:     contract.NewEventID(),
		OrderID:     o.ID,
		Timestamp:   now,
		CompletedAt: now,
	})
	return nil
}

// Cancel moves the order to Cancelled, recording the reason.
func (o *Order) Cancel(reason string) error {
	if err := o.transitionTo(saga.StateCancelled); err != nil {
		return err
	}
	o.CancellationReason = &reason
	o.recordCancelled(reason)
	return nil
}

// Fail moves the order to Failed, recording the reason.
func (o *Order) Fail(reason string) error {
	if err := o.transitionTo(saga.StateFailed); err != nil {
		return err
	}
	o.CancellationReason = &reason
	o.recordCancelled(reason)
	return nil
}

func (o *Order) recordCancelled(reason string) {
	o.recordEvent(contract.OrderCancelled{
		EventID:   contract.NewEventID(),
		OrderID:   o.ID,
		Timestamp: time.Now(),
		Reason:    reason,
	})
}

// IsTerminal reports whether the saga reached a final state. A terminal
// order ignores every further event.
func (o *Order) IsTerminal() bool {
	return o.State.IsTerminal()
}

func (o *Order) recordEvent(event contract.Message) {
	o.events = append(o.events, event)
}

// Events returns the notifications recorded since the last ClearEvents.
func (o *Order) Events() []contract.Message {
	return o.events
}

// ClearEvents clears recorded events after they have been published.
func (o *Order) ClearEvents() {
	o.events = nil
}

// OrderRepository loads and stores order snapshots. FindByID returns
// (nil, nil) for an unknown id; Save returns ErrVersionConflict when the
// stored version no longer matches.
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id models.OrderID) (*Order, error)
}
