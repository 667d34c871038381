package contract

import (
	"fmt"
	"time"

	"github.com/hamba/avro/v2"

	"github.com/fooddelivery/order-system/shared/models"
)

// DecodeError reports a payload that could not be turned into a contract
// message: unknown discriminator, truncated frame, malformed body. The
// message must not be applied; callers decide between alerting and retry.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode: %s: %v", e.Reason, e.Err)
	}
	return "decode: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErrf(err error, format string, args ...interface{}) error {
	return &DecodeError{Reason: fmt.Sprintf(format, args...), Err: err}
}

type orderItemRecord struct {
	ProductID   string `avro:"productId"`
	ProductName string `avro:"productName"`
	Quantity    int    `avro:"quantity"`
	UnitPrice   string `avro:"unitPrice"`
}

type prepareOrderPayload struct {
	Items    []orderItemRecord `avro:"items"`
	Priority int               `avro:"priority"`
}

type cancelTicketPayload struct {
	Reason string `avro:"reason"`
}

type kitchenCommandEnvelope struct {
	CommandType  string               `avro:"commandType"`
	OrderID      string               `avro:"orderId"`
	Timestamp    int64                `avro:"timestamp"`
	PrepareOrder *prepareOrderPayload `avro:"prepareOrder"`
	CancelTicket *cancelTicketPayload `avro:"cancelTicket"`
}

type ticketAcceptedPayload struct {
	TicketID                 string `avro:"ticketId"`
	EstimatedPrepTimeMinutes int    `avro:"estimatedPrepTimeMinutes"`
}

type ticketRejectedPayload struct {
	Reason string `avro:"reason"`
}

type ticketReadyPayload struct {
	TicketID string `avro:"ticketId"`
}

type kitchenEventEnvelope struct {
	EventType      string                 `avro:"eventType"`
	EventID        string                 `avro:"eventId"`
	OrderID        string                 `avro:"orderId"`
	Timestamp      int64                  `avro:"timestamp"`
	TicketAccepted *ticketAcceptedPayload `avro:"ticketAccepted"`
	TicketRejected *ticketRejectedPayload `avro:"ticketRejected"`
	TicketReady    *ticketReadyPayload    `avro:"ticketReady"`
}

type scheduleDeliveryPayload struct {
	DeliveryAddress     string `avro:"deliveryAddress"`
	EstimatedPickupTime int64  `avro:"estimatedPickupTime"`
}

type cancelDeliveryPayload struct {
	Reason string `avro:"reason"`
}

type deliveryCommandEnvelope struct {
	CommandType      string                   `avro:"commandType"`
	OrderID          string                   `avro:"orderId"`
	Timestamp        int64                    `avro:"timestamp"`
	ScheduleDelivery *scheduleDeliveryPayload `avro:"scheduleDelivery"`
	CancelDelivery   *cancelDeliveryPayload   `avro:"cancelDelivery"`
}

type deliveryScheduledPayload struct {
	DeliveryID            string `avro:"deliveryId"`
	EstimatedDeliveryTime int64  `avro:"estimatedDeliveryTime"`
}

type deliveryPickedUpPayload struct {
	DeliveryID string `avro:"deliveryId"`
}

type deliveryCompletedPayload struct {
	DeliveryID  string `avro:"deliveryId"`
	CompletedAt int64  `avro:"completedAt"`
}

type deliveryFailedPayload struct {
	DeliveryID string `avro:"deliveryId"`
	Reason     string `avro:"reason"`
}

type deliveryEventEnvelope struct {
	EventType         string                    `avro:"eventType"`
	EventID           string                    `avro:"eventId"`
	OrderID           string                    `avro:"orderId"`
	Timestamp         int64                     `avro:"timestamp"`
	DeliveryScheduled *deliveryScheduledPayload `avro:"deliveryScheduled"`
	DeliveryPickedUp  *deliveryPickedUpPayload  `avro:"deliveryPickedUp"`
	DeliveryCompleted *deliveryCompletedPayload `avro:"deliveryCompleted"`
	DeliveryFailed    *deliveryFailedPayload    `avro:"deliveryFailed"`
}

type orderCreatedPayload struct {
	CustomerID  string `avro:"customerId"`
	TotalAmount string `avro:"totalAmount"`
}

type orderCompletedPayload struct {
	CompletedAt int64 `avro:"completedAt"`
}

type orderCancelledPayload struct {
	Reason string `avro:"reason"`
}

type orderEventEnvelope struct {
	EventType      string                  `avro:"eventType"`
	EventID        string                  `avro:"eventId"`
	OrderID        string                  `avro:"orderId"`
	Timestamp      int64                   `avro:"timestamp"`
	OrderCreated   *orderCreatedPayload    `avro:"orderCreated"`
	OrderCompleted *orderCompletedPayload  `avro:"orderCompleted"`
	OrderCancelled *orderCancelledPayload  `avro:"orderCancelled"`
}

// Encode renders a contract message to its schema-tagged binary form.
func Encode(msg Message) ([]byte, error) {
	var (
		schemaID byte
		schema   avro.Schema
		envelope interface{}
	)

	switch m := msg.(type) {
	case PrepareOrder:
		items := make([]orderItemRecord, len(m.Items))
		for i, item := range m.Items {
			items[i] = orderItemRecord{
				ProductID:   item.ProductID.String(),
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice.String(),
			}
		}
		schemaID, schema = schemaKitchenCommands, kitchenCommandsAvro
		envelope = kitchenCommandEnvelope{
			CommandType:  "PREPARE_ORDER",
			OrderID:      m.OrderID.String(),
			Timestamp:    m.Timestamp.UnixMilli(),
			PrepareOrder: &prepareOrderPayload{Items: items, Priority: m.Priority},
		}
	case CancelTicket:
		schemaID, schema = schemaKitchenCommands, kitchenCommandsAvro
		envelope = kitchenCommandEnvelope{
			CommandType:  "CANCEL_TICKET",
			OrderID:      m.OrderID.String(),
			Timestamp:    m.Timestamp.UnixMilli(),
			CancelTicket: &cancelTicketPayload{Reason: m.Reason},
		}
	case TicketAccepted:
		schemaID, schema = schemaKitchenEvents, kitchenEventsAvro
		envelope = kitchenEventEnvelope{
			EventType: "TICKET_ACCEPTED",
			EventID:   m.EventID,
			OrderID:   m.OrderID.String(),
			Timestamp: m.Timestamp.UnixMilli(),
			TicketAccepted: &ticketAcceptedPayload{
				TicketID:                 m.TicketID.String(),
				EstimatedPrepTimeMinutes: m.EstimatedPrepTimeMinutes,
			},
		}
	case TicketRejected:
		schemaID, schema = schemaKitchenEvents, kitchenEventsAvro
		envelope = kitchenEventEnvelope{
			EventType:      "TICKET_REJECTED",
			EventID:        m.EventID,
			OrderID:        m.OrderID.String(),
			Timestamp:      m.Timestamp.UnixMilli(),
			TicketRejected: &ticketRejectedPayload{Reason: m.Reason},
		}
	case TicketReady:
		schemaID, schema = schemaKitchenEvents, kitchenEventsAvro
		envelope = kitchenEventEnvelope{
			EventType:   "TICKET_READY",
			EventID:     m.EventID,
			OrderID:     m.OrderID.String(),
			Timestamp:   m.Timestamp.UnixMilli(),
			TicketReady: &ticketReadyPayload{TicketID: m.TicketID.String()},
		}
	case ScheduleDelivery:
		schemaID, schema = schemaDeliveryCommands, deliveryCommandsAvro
		envelope = deliveryCommandEnvelope{
			CommandType: "SCHEDULE_DELIVERY",
			OrderID:     m.OrderID.String(),
			Timestamp:   m.Timestamp.UnixMilli(),
			ScheduleDelivery: &scheduleDeliveryPayload{
				DeliveryAddress:     m.DeliveryAddress.String(),
				EstimatedPickupTime: m.EstimatedPickupTime.UnixMilli(),
			},
		}
	case CancelDelivery:
		schemaID, schema = schemaDeliveryCommands, deliveryCommandsAvro
		envelope = deliveryCommandEnvelope{
			CommandType:    "CANCEL_DELIVERY",
			OrderID:        m.OrderID.String(),
			Timestamp:      m.Timestamp.UnixMilli(),
			CancelDelivery: &cancelDeliveryPayload{Reason: m.Reason},
		}
	case DeliveryScheduled:
		schemaID, schema = schemaDeliveryEvents, deliveryEventsAvro
		envelope = deliveryEventEnvelope{
			EventType: "DELIVERY_SCHEDULED",
			EventID:   m.EventID,
			OrderID:   m.OrderID.String(),
			Timestamp: m.Timestamp.UnixMilli(),
			DeliveryScheduled: &deliveryScheduledPayload{
				DeliveryID:            m.DeliveryID.String(),
				EstimatedDeliveryTime: m.EstimatedDeliveryTime.UnixMilli(),
			},
		}
	case DeliveryPickedUp:
		schemaID, schema = schemaDeliveryEvents, deliveryEventsAvro
		envelope = deliveryEventEnvelope{
			EventType:        "DELIVERY_PICKED_UP",
			EventID:          m.EventID,
			OrderID:          m.OrderID.String(),
			Timestamp:        m.Timestamp.UnixMilli(),
			DeliveryPickedUp: &deliveryPickedUpPayload{DeliveryID: m.DeliveryID.String()},
		}
	case DeliveryCompleted:
		schemaID, schema = schemaDeliveryEvents, deliveryEventsAvro
		envelope = deliveryEventEnvelope{
			EventType: "DELIVERY_COMPLETED",
			EventID:   m.EventID,
			OrderID:   m.OrderID.String(),
			Timestamp: m.Timestamp.UnixMilli(),
			DeliveryCompleted: &deliveryCompletedPayload{
				DeliveryID:  m.DeliveryID.String(),
				CompletedAt: m.CompletedAt.UnixMilli(),
			},
		}
	case DeliveryFailed:
		schemaID, schema = schemaDeliveryEvents, deliveryEventsAvro
		envelope = deliveryEventEnvelope{
			EventType: "DELIVERY_FAILED",
			EventID:   m.EventID,
			OrderID:   m.OrderID.String(),
			Timestamp: m.Timestamp.UnixMilli(),
			DeliveryFailed: &deliveryFailedPayload{
				DeliveryID: m.DeliveryID.String(),
				Reason:     m.Reason,
			},
		}
	case OrderCreated:
		schemaID, schema = schemaOrderEvents, orderEventsAvro
		envelope = orderEventEnvelope{
			EventType: "ORDER_CREATED",
			EventID:   m.EventID,
			OrderID:   m.OrderID.String(),
			Timestamp: m.Timestamp.UnixMilli(),
			OrderCreated: &orderCreatedPayload{
				CustomerID:  m.CustomerID.String(),
				TotalAmount: m.TotalAmount.String(),
			},
		}
	case OrderCompleted:
		schemaID, schema = schemaOrderEvents, orderEventsAvro
		envelope = orderEventEnvelope{
			EventType:      "ORDER_COMPLETED",
			EventID:        m.EventID,
			OrderID:        m.OrderID.String(),
			Timestamp:      m.Timestamp.UnixMilli(),
			OrderCompleted: &orderCompletedPayload{CompletedAt: m.CompletedAt.UnixMilli()},
		}
	case OrderCancelled:
		schemaID, schema = schemaOrderEvents, orderEventsAvro
		envelope = orderEventEnvelope{
			EventType:      "ORDER_CANCELLED",
			EventID:        m.EventID,
			OrderID:        m.OrderID.String(),
			Timestamp:      m.Timestamp.UnixMilli(),
			OrderCancelled: &orderCancelledPayload{Reason: m.Reason},
		}
	default:
		return nil, fmt.Errorf("unsupported message type %T", msg)
	}

	body, err := avro.Marshal(schema, envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}

	framed := make([]byte, 0, len(body)+2)
	framed = append(framed, wireMagic, schemaID)
	return append(framed, body...), nil
}

// Decode parses a schema-tagged binary payload back into the contract
// message it was encoded from. All failures are reported as *DecodeError.
func Decode(data []byte) (Message, error) {
	if len(data) < 2 {
		return nil, &DecodeError{Reason: "payload shorter than wire header"}
	}
	if data[0] != wireMagic {
		return nil, decodeErrf(nil, "bad magic byte 0x%x", data[0])
	}

	body := data[2:]
	switch data[1] {
	case schemaKitchenCommands:
		return decodeKitchenCommand(body)
	case schemaKitchenEvents:
		return decodeKitchenEvent(body)
	case schemaDeliveryCommands:
		return decodeDeliveryCommand(body)
	case schemaDeliveryEvents:
		return decodeDeliveryEvent(body)
	case schemaOrderEvents:
		return decodeOrderEvent(body)
	}
	return nil, decodeErrf(nil, "unknown schema id 0x%x", data[1])
}

func decodeKitchenCommand(body []byte) (Message, error) {
	var env kitchenCommandEnvelope
	if err := avro.Unmarshal(kitchenCommandsAvro, body, &env); err != nil {
		return nil, decodeErrf(err, "malformed kitchen command")
	}
	orderID, err := models.ParseOrderID(env.OrderID)
	if err != nil {
		return nil, decodeErrf(err, "kitchen command order id")
	}
	timestamp := time.UnixMilli(env.Timestamp)

	switch env.CommandType {
	case "PREPARE_ORDER":
		if env.PrepareOrder == nil {
			return nil, &DecodeError{Reason: "PREPARE_ORDER without payload"}
		}
		items := make([]models.OrderItem, len(env.PrepareOrder.Items))
		for i, rec := range env.PrepareOrder.Items {
			productID, err := models.NewProductID(rec.ProductID)
			if err != nil {
				return nil, decodeErrf(err, "item %d product id", i)
			}
			unitPrice, err := models.ParseMonetaryAmount(rec.UnitPrice)
			if err != nil {
				return nil, decodeErrf(err, "item %d unit price", i)
			}
			item, err := models.NewOrderItem(productID, rec.ProductName, rec.Quantity, unitPrice)
			if err != nil {
				return nil, decodeErrf(err, "item %d", i)
			}
			items[i] = item
		}
		return PrepareOrder{
			OrderID:   orderID,
			Items:     items,
			Priority:  env.PrepareOrder.Priority,
			Timestamp: timestamp,
		}, nil
	case "CANCEL_TICKET":
		if env.CancelTicket == nil {
			return nil, &DecodeError{Reason: "CANCEL_TICKET without payload"}
		}
		return CancelTicket{
			OrderID:   orderID,
			Reason:    env.CancelTicket.Reason,
			Timestamp: timestamp,
		}, nil
	}
	return nil, decodeErrf(nil, "unknown kitchen command type %q", env.CommandType)
}

func decodeKitchenEvent(body []byte) (Message, error) {
	var env kitchenEventEnvelope
	if err := avro.Unmarshal(kitchenEventsAvro, body, &env); err != nil {
		return nil, decodeErrf(err, "malformed kitchen event")
	}
	orderID, err := models.ParseOrderID(env.OrderID)
	if err != nil {
		return nil, decodeErrf(err, "kitchen event order id")
	}
	timestamp := time.UnixMilli(env.Timestamp)

	switch env.EventType {
	case "TICKET_ACCEPTED":
		if env.TicketAccepted == nil {
			return nil, &DecodeError{Reason: "TICKET_ACCEPTED without payload"}
		}
		ticketID, err := models.ParseTicketID(env.TicketAccepted.TicketID)
		if err != nil {
			return nil, decodeErrf(err, "ticket id")
		}
		return TicketAccepted{
			EventID:                  env.EventID,
			OrderID:                  orderID,
			Timestamp:                timestamp,
			TicketID:                 ticketID,
			EstimatedPrepTimeMinutes: env.TicketAccepted.EstimatedPrepTimeMinutes,
		}, nil
	case "TICKET_REJECTED":
		if env.TicketRejected == nil {
			return nil, &DecodeError{Reason: "TICKET_REJECTED without payload"}
		}
		return TicketRejected{
			EventID:   env.EventID,
			OrderID:   orderID,
			Timestamp: timestamp,
			Reason:    env.TicketRejected.Reason,
		}, nil
	case "TICKET_READY":
		if env.TicketReady == nil {
			return nil, &DecodeError{Reason: "TICKET_READY without payload"}
		}
		ticketID, err := models.ParseTicketID(env.TicketReady.TicketID)
		if err != nil {
			return nil, decodeErrf(err, "ticket id")
		}
		return TicketReady{
			EventID:   env.EventID,
			OrderID:   orderID,
			Timestamp: timestamp,
			TicketID:  ticketID,
		}, nil
	}
	return nil, decodeErrf(nil, "unknown kitchen event type %q", env.EventType)
}

func decodeDeliveryCommand(body []byte) (Message, error) {
	var env deliveryCommandEnvelope
	if err := avro.Unmarshal(deliveryCommandsAvro, body, &env); err != nil {
		return nil, decodeErrf(err, "malformed delivery command")
	}
	orderID, err := models.ParseOrderID(env.OrderID)
	if err != nil {
		return nil, decodeErrf(err, "delivery command order id")
	}
	timestamp := time.UnixMilli(env.Timestamp)

	switch env.CommandType {
	case "SCHEDULE_DELIVERY":
		if env.ScheduleDelivery == nil {
			return nil, &DecodeError{Reason: "SCHEDULE_DELIVERY without payload"}
		}
		address, err := models.NewAddress(env.ScheduleDelivery.DeliveryAddress)
		if err != nil {
			return nil, decodeErrf(err, "delivery address")
		}
		return ScheduleDelivery{
			OrderID:             orderID,
			DeliveryAddress:     address,
			EstimatedPickupTime: time.UnixMilli(env.ScheduleDelivery.EstimatedPickupTime),
			Timestamp:           timestamp,
		}, nil
	case "CANCEL_DELIVERY":
		if env.CancelDelivery == nil {
			return nil, &DecodeError{Reason: "CANCEL_DELIVERY without payload"}
		}
		return CancelDelivery{
			OrderID:   orderID,
			Reason:    env.CancelDelivery.Reason,
			Timestamp: timestamp,
		}, nil
	}
	return nil, decodeErrf(nil, "unknown delivery command type %q", env.CommandType)
}

func decodeDeliveryEvent(body []byte) (Message, error) {
	var env deliveryEventEnvelope
	if err := avro.Unmarshal(deliveryEventsAvro, body, &env); err != nil {
		return nil, decodeErrf(err, "malformed delivery event")
	}
	orderID, err := models.ParseOrderID(env.OrderID)
	if err != nil {
		return nil, decodeErrf(err, "delivery event order id")
	}
	timestamp := time.UnixMilli(env.Timestamp)

	parseDeliveryID := func(s string) (models.DeliveryID, error) {
		id, err := models.ParseDeliveryID(s)
		if err != nil {
			return "", decodeErrf(err, "delivery id")
		}
		return id, nil
	}

	switch env.EventType {
	case "DELIVERY_SCHEDULED":
		if env.DeliveryScheduled == nil {
			return nil, &DecodeError{Reason: "DELIVERY_SCHEDULED without payload"}
		}
		deliveryID, err := parseDeliveryID(env.DeliveryScheduled.DeliveryID)
		if err != nil {
			return nil, err
		}
		return DeliveryScheduled{
			EventID:               env.EventID,
			OrderID:               orderID,
			Timestamp:             timestamp,
			DeliveryID:            deliveryID,
			EstimatedDeliveryTime: time.UnixMilli(env.DeliveryScheduled.EstimatedDeliveryTime),
		}, nil
	case "DELIVERY_PICKED_UP":
		if env.DeliveryPickedUp == nil {
			return nil, &DecodeError{Reason: "DELIVERY_PICKED_UP without payload"}
		}
		deliveryID, err := parseDeliveryID(env.DeliveryPickedUp.DeliveryID)
		if err != nil {
			return nil, err
		}
		return DeliveryPickedUp{
			EventID:    env.EventID,
			OrderID:    orderID,
			Timestamp:  timestamp,
			DeliveryID: deliveryID,
		}, nil
	case "DELIVERY_COMPLETED":
		if env.DeliveryCompleted == nil {
			return nil, &DecodeError{Reason: "DELIVERY_COMPLETED without payload"}
		}
		deliveryID, err := parseDeliveryID(env.DeliveryCompleted.DeliveryID)
		if err != nil {
			return nil, err
		}
		return DeliveryCompleted{
			EventID:     env.EventID,
			OrderID:     orderID,
			Timestamp:   timestamp,
			DeliveryID:  deliveryID,
			CompletedAt: time.UnixMilli(env.DeliveryCompleted.CompletedAt),
		}, nil
	case "DELIVERY_FAILED":
		if env.DeliveryFailed == nil {
			return nil, &DecodeError{Reason: "DELIVERY_FAILED without payload"}
		}
		deliveryID, err := parseDeliveryID(env.DeliveryFailed.DeliveryID)
		if err != nil {
			return nil, err
		}
		return DeliveryFailed{
			EventID:    env.EventID,
			OrderID:    orderID,
			Timestamp:  timestamp,
			DeliveryID: deliveryID,
			Reason:     env.DeliveryFailed.Reason,
		}, nil
	}
	return nil, decodeErrf(nil, "unknown delivery event type %q", env.EventType)
}

func decodeOrderEvent(body []byte) (Message, error) {
	var env orderEventEnvelope
	if err := avro.Unmarshal(orderEventsAvro, body, &env); err != nil {
		return nil, decodeErrf(err, "malformed order event")
	}
	orderID, err := models.ParseOrderID(env.OrderID)
	if err != nil {
		return nil, decodeErrf(err, "order event order id")
	}
	timestamp := time.UnixMilli(env.Timestamp)

	switch env.EventType {
	case "ORDER_CREATED":
		if env.OrderCreated == nil {
			return nil, &DecodeError{Reason: "ORDER_CREATED without payload"}
		}
		customerID, err := models.ParseCustomerID(env.OrderCreated.CustomerID)
		if err != nil {
			return nil, decodeErrf(err, "customer id")
		}
		totalAmount, err := models.ParseMonetaryAmount(env.OrderCreated.TotalAmount)
		if err != nil {
			return nil, decodeErrf(err, "total amount")
		}
		return OrderCreated{
			EventID:     env.EventID,
			OrderID:     orderID,
			Timestamp:   timestamp,
			CustomerID:  customerID,
			TotalAmount: totalAmount,
		}, nil
	case "ORDER_COMPLETED":
		if env.OrderCompleted == nil {
			return nil, &DecodeError{Reason: "ORDER_COMPLETED without payload"}
		}
		return OrderCompleted{
			EventID:     env.EventID,
			OrderID:     orderID,
			Timestamp:   timestamp,
			CompletedAt: time.UnixMilli(env.OrderCompleted.CompletedAt),
		}, nil
	case "ORDER_CANCELLED":
		if env.OrderCancelled == nil {
			return nil, &DecodeError{Reason: "ORDER_CANCELLED without payload"}
		}
		return OrderCancelled{
			EventID:   env.EventID,
			OrderID:   orderID,
			Timestamp: timestamp,
			Reason:    env.OrderCancelled.Reason,
		}, nil
	}
	return nil, decodeErrf(nil, "unknown order event type %q", env.EventType)
}
