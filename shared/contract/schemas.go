package contract

import "github.com/hamba/avro/v2"

// Wire format: one magic byte, one schema id byte, then the Avro binary
// body. The schema id selects the message family, so a payload is
// decodable without out-of-band context.
const wireMagic byte = 0x0

const (
	schemaKitchenCommands byte = iota + 1
	schemaKitchenEvents
	schemaDeliveryCommands
	schemaDeliveryEvents
	schemaOrderEvents
)

const kitchenCommandsSchema = `{
  "type": "record",
  "name": "KitchenCommandEnvelope",
  "namespace": "fooddelivery.kitchen",
  "fields": [
    {"name": "commandType", "type": {"type": "enum", "name": "KitchenCommandType", "symbols": ["PREPARE_ORDER", "CANCEL_TICKET"]}},
    {"name": "orderId", "type": "string"},
    {"name": "timestamp", "type": "long"},
    {"name": "prepareOrder", "type": ["null", {"type": "record", "name": "PrepareOrderPayload", "fields": [
      {"name": "items", "type": {"type": "array", "items": {"type": "record", "name": "OrderItemRecord", "fields": [
        {"name": "productId", "type": "string"},
        {"name": "productName", "type": "string"},
        {"name": "quantity", "type": "int"},
        {"name": "unitPrice", "type": "string"}
      ]}}},
      {"name": "priority", "type": "int"}
    ]}], "default": null},
    {"name": "cancelTicket", "type": ["null", {"type": "record", "name": "CancelTicketPayload", "fields": [
      {"name": "reason", "type": "string"}
    ]}], "default": null}
  ]
}`

const kitchenEventsSchema = `{
  "type": "record",
  "name": "KitchenEventEnvelope",
  "namespace": "fooddelivery.kitchen",
  "fields": [
    {"name": "eventType", "type": {"type": "enum", "name": "KitchenEventType", "symbols": ["TICKET_ACCEPTED", "TICKET_REJECTED", "TICKET_READY"]}},
    {"name": "eventId", "type": "string"},
    {"name": "orderId", "type": "string"},
    {"name": "timestamp", "type": "long"},
    {"name": "ticketAccepted", "type": ["null", {"type": "record", "name": "TicketAcceptedPayload", "fields": [
      {"name": "ticketId", "type": "string"},
      {"name": "estimatedPrepTimeMinutes", "type": "int"}
    ]}], "default": null},
    {"name": "ticketRejected", "type": ["null", {"type": "record", "name": "TicketRejectedPayload", "fields": [
      {"name": "reason", "type": "string"}
    ]}], "default": null},
    {"name": "ticketReady", "type": ["null", {"type": "record", "name": "TicketReadyPayload", "fields": [
      {"name": "ticketId", "type": "string"}
    ]}], "default": null}
  ]
}`

const deliveryCommandsSchema = `{
  "type": "record",
  "name": "DeliveryCommandEnvelope",
  "namespace": "fooddelivery.delivery",
  "fields": [
    {"name": "commandType", "type": {"type": "enum", "name": "DeliveryCommandType", "symbols": ["SCHEDULE_DELIVERY", "CANCEL_DELIVERY"]}},
    {"name": "orderId", "type": "string"},
    {"name": "timestamp", "type": "long"},
    {"name": "scheduleDelivery", "type": ["null", {"type": "record", "name": "ScheduleDeliveryPayload", "fields": [
      {"name": "deliveryAddress", "type": "string"},
      {"name": "estimatedPickupTime", "type": "long"}
    ]}], "default": null},
    {"name": "cancelDelivery", "type": ["null", {"type": "record", "name": "CancelDeliveryPayload", "fields": [
      {"name": "reason", "type": "string"}
    ]}], "default": null}
  ]
}`

const deliveryEventsSchema = `{
  "type": "record",
  "name": "DeliveryEventEnvelope",
  "namespace": "fooddelivery.delivery",
  "fields": [
    {"name": "eventType", "type": {"type": "enum", "name": "DeliveryEventType", "symbols": ["DELIVERY_SCHEDULED", "DELIVERY_PICKED_UP", "DELIVERY_COMPLETED", "DELIVERY_FAILED"]}},
    {"name": "eventId", "type": "string"},
    {"name": "orderId", "type": "string"},
    {"name": "timestamp", "type": "long"},
    {"name": "deliveryScheduled", "type": ["null", {"type": "record", "name": "DeliveryScheduledPayload", "fields": [
      {"name": "deliveryId", "type": "string"},
      {"name": "estimatedDeliveryTime", "type": "long"}
    ]}], "default": null},
    {"name": "deliveryPickedUp", "type": ["null", {"type": "record", "name": "DeliveryPickedUpPayload", "fields": [
      {"name": "deliveryId", "type": "string"}
    ]}], "default": null},
    {"name": "deliveryCompleted", "type": ["null", {"type": "record", "name": "DeliveryCompletedPayload", "fields": [
      {"name": "deliveryId", "type": "string"},
      {"name": "completedAt", "type": "long"}
    ]}], "default": null},
    {"name": "deliveryFailed", "type": ["null", {"type": "record", "name": "DeliveryFailedPayload", "fields": [
      {"name": "deliveryId", "type": "string"},
      {"name": "reason", "type": "string"}
    ]}], "default": null}
  ]
}`

const orderEventsSchema = `{
  "type": "record",
  "name": "OrderEventEnvelope",
  "namespace": "fooddelivery.order",
  "fields": [
    {"name": "eventType", "type": {"type": "enum", "name": "OrderEventType", "symbols": ["ORDER_CREATED", "ORDER_COMPLETED", "ORDER_CANCELLED"]}},
    {"name": "eventId", "type": "string"},
    {"name": "orderId", "type": "string"},
    {"name": "timestamp", "type": "long"},
    {"name": "orderCreated", "type": ["null", {"type": "record", "name": "OrderCreatedPayload", "fields": [
      {"name": "customerId", "type": "string"},
      {"name": "totalAmount", "type": "string"}
    ]}], "default": null},
    {"name": "orderCompleted", "type": ["null", {"type": "record", "name": "OrderCompletedPayload", "fields": [
      {"name": "completedAt", "type": "long"}
    ]}], "default": null},
    {"name": "orderCancelled", "type": ["null", {"type": "record", "name": "OrderCancelledPayload", "fields": [
      {"name": "reason", "type": "string"}
    ]}], "default": null}
  ]
}`

var (
	kitchenCommandsAvro  = avro.MustParse(kitchenCommandsSchema)
	kitchenEventsAvro    = avro.MustParse(kitchenEventsSchema)
	deliveryCommandsAvro = avro.MustParse(deliveryCommandsSchema)
	deliveryEventsAvro   = avro.MustParse(deliveryEventsSchema)
	orderEventsAvro      = avro.MustParse(orderEventsSchema)
)
