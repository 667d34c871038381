package contract

import (
	"time"

	"github.com/google/uuid"

	"github.com/fooddelivery/order-system/shared/models"
)

// Family groups messages by the topic they travel on. The order id is the
// partition key for every family, so all messages of one saga are
// delivered in order relative to each other.
type Family string

const (
	FamilyKitchenCommands  Family = "kitchen.commands"
	FamilyKitchenEvents    Family = "kitchen.events"
	FamilyDeliveryCommands Family = "delivery.commands"
	FamilyDeliveryEvents   Family = "delivery.events"
	FamilyOrderEvents      Family = "order.events"
)

// Message is the sealed set of commands and events exchanged between the
// order, kitchen, delivery and payment collaborators. Commands flow
// orchestrator -> collaborator; events flow collaborator -> orchestrator.
type Message interface {
	isMessage()
	// Key is the partition key: always the subject order id.
	Key() string
	Family() Family
}

// NewEventID generates a unique id for one event emission. Consumers use
// it for idempotence and dedup under at-least-once delivery.
func NewEventID() string {
	return uuid.New().String()
}

// ---------------------------------------------------------------
// Kitchen commands
// ---------------------------------------------------------------

// PrepareOrder asks the kitchen to start preparing an order.
type PrepareOrder struct {
	OrderID   models.OrderID
	Items     []models.OrderItem
	Priority  int
	Timestamp time.Time
}

// CancelTicket asks the kitchen to abandon a ticket.
type CancelTicket struct {
	OrderID   models.OrderID
	Reason    string
	Timestamp time.Time
}

// ---------------------------------------------------------------
// Kitchen events
// ---------------------------------------------------------------

// TicketAccepted reports the kitchen took the order.
type TicketAccepted struct {
	EventID                  string
	OrderID                  models.OrderID
	Timestamp                time.Time
	TicketID                 models.TicketID
	EstimatedPrepTimeMinutes int
}

// TicketRejected reports the kitchen turned the order down.
type TicketRejected struct {
	EventID   string
	OrderID   models.OrderID
	Timestamp time.Time
	Reason    string
}

// TicketReady reports preparation finished. It is informational: terminal
// order state is driven by delivery events.
type TicketReady struct {
	EventID   string
	OrderID   models.OrderID
	Timestamp time.Time
	TicketID  models.TicketID
}

// ---------------------------------------------------------------
// Delivery commands
// ---------------------------------------------------------------

// ScheduleDelivery asks the delivery service to assign a driver.
type ScheduleDelivery struct {
	OrderID             models.OrderID
	DeliveryAddress     models.Address
	EstimatedPickupTime time.Time
	Timestamp           time.Time
}

// CancelDelivery asks the delivery service to drop a scheduled delivery.
type CancelDelivery struct {
	OrderID   models.OrderID
	Reason    string
	Timestamp time.Time
}

// ---------------------------------------------------------------
// Delivery events
// ---------------------------------------------------------------

// DeliveryScheduled reports a driver was assigned.
type DeliveryScheduled struct {
	EventID               string
	OrderID               models.OrderID
	Timestamp             time.Time
	DeliveryID            models.DeliveryID
	EstimatedDeliveryTime time.Time
}

// DeliveryPickedUp reports the driver collected the order.
type DeliveryPickedUp struct {
	EventID    string
	OrderID    models.OrderID
	Timestamp  time.Time
	DeliveryID models.DeliveryID
}

// DeliveryCompleted reports the order reached the customer.
type DeliveryCompleted struct {
	EventID     string
	OrderID     models.OrderID
	Timestamp   time.Time
	DeliveryID  models.DeliveryID
	CompletedAt time.Time
}

// DeliveryFailed reports the delivery could not be made.
type DeliveryFailed struct {
	EventID    string
	OrderID    models.OrderID
	Timestamp  time.Time
	DeliveryID models.DeliveryID
	Reason     string
}

// ---------------------------------------------------------------
// Order events (external notifications)
// ---------------------------------------------------------------

// OrderCreated announces a new order entered the saga.
type OrderCreated struct {
	EventID     string
	OrderID     models.OrderID
	Timestamp   time.Time
	CustomerID  models.CustomerID
	TotalAmount models.MonetaryAmount
}

// OrderCompleted announces the saga finished successfully.
type OrderCompleted struct {
	EventID     string
	OrderID     models.OrderID
	Timestamp   time.Time
	CompletedAt time.Time
}

// OrderCancelled announces the saga ended in cancellation or failure.
type OrderCancelled struct {
	EventID   string
	OrderID   models.OrderID
	Timestamp time.Time
	Reason    string
}

func (PrepareOrder) isMessage()      {}
func (CancelTicket) isMessage()      {}
func (TicketAccepted) isMessage()    {}
func (TicketRejected) isMessage()    {}
func (TicketReady) isMessage()       {}
func (ScheduleDelivery) isMessage()  {}
func (CancelDelivery) isMessage()    {}
func (DeliveryScheduled) isMessage() {}
func (DeliveryPickedUp) isMessage()  {}
func (DeliveryCompleted) isMessage() {}
func (DeliveryFailed) isMessage()    {}
func (OrderCreated) isMessage()      {}
func (OrderCompleted) isMessage()    {}
func (OrderCancelled) isMessage()    {}

func (m PrepareOrder) Key() string      { return m.OrderID.String() }
func (m CancelTicket) Key() string      { return m.OrderID.String() }
func (m TicketAccepted) Key() string    { return m.OrderID.String() }
func (m TicketRejected) Key() string    { return m.OrderID.String() }
func (m TicketReady) Key() string       { return m.OrderID.String() }
func (m ScheduleDelivery) Key() string  { return m.OrderID.String() }
func (m CancelDelivery) Key() string    { return m.OrderID.String() }
func (m DeliveryScheduled) Key() string { return m.OrderID.String() }
func (m DeliveryPickedUp) Key() string  { return m.OrderID.String() }
func (m DeliveryCompleted) Key() string { return m.OrderID.String() }
func (m DeliveryFailed) Key() string    { return m.OrderID.String() }
func (m OrderCreated) Key() string      { return m.OrderID.String() }
func (m OrderCompleted) Key() string    { return m.OrderID.String() }
func (m OrderCancelled) Key() string    { return m.OrderID.String() }

func (PrepareOrder) Family() Family      { return FamilyKitchenCommands }
func (CancelTicket) Family() Family      { return FamilyKitchenCommands }
func (TicketAccepted) Family() Family    { return FamilyKitchenEvents }
func (TicketRejected) Family() Family    { return FamilyKitchenEvents }
func (TicketReady) Family() Family       { return FamilyKitchenEvents }
func (ScheduleDelivery) Family() Family  { return FamilyDeliveryCommands }
func (CancelDelivery) Family() Family    { return FamilyDeliveryCommands }
func (DeliveryScheduled) Family() Family { return FamilyDeliveryEvents }
func (DeliveryPickedUp) Family() Family  { return FamilyDeliveryEvents }
func (DeliveryCompleted) Family() Family { return FamilyDeliveryEvents }
func (DeliveryFailed) Family() Family    { return FamilyDeliveryEvents }
func (OrderCreated) Family() Family      { return FamilyOrderEvents }
func (OrderCompleted) Family() Family    { return FamilyOrderEvents }
func (OrderCancelled) Family() Family    { return FamilyOrderEvents }
