package contract

import (
	"testing"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fooddelivery/order-system/shared/models"
)

// encodeRawKitchenEvent frames an envelope directly, bypassing Encode, so
// tests can craft payloads Encode would never produce.
func encodeRawKitchenEvent(env kitchenEventEnvelope) ([]byte, error) {
	body, err := avro.Marshal(kitchenEventsAvro, env)
	if err != nil {
		return nil, err
	}
	return append([]byte{wireMagic, schemaKitchenEvents}, body...), nil
}

// Millisecond-resolution instants: the wire format carries epoch millis,
// so anything finer would not survive a round trip.
var (
	testTimestamp = time.UnixMilli(1735689600000)
	testPickup    = time.UnixMilli(1735689600000 + 25*60*1000)
	testCompleted = time.UnixMilli(1735689600000 + 55*60*1000)
)

func testOrderID(t *testing.T) models.OrderID {
	t.Helper()
	id, err := models.ParseOrderID("550e8400-e29b-41d4-a716-446655440000")
	require.NoError(t, err)
	return id
}

func testItems(t *testing.T) []models.OrderItem {
	t.Helper()
	productID, err := models.NewProductID("PROD-001")
	require.NoError(t, err)
	price, err := models.ParseMonetaryAmount("45.90")
	require.NoError(t, err)
	item, err := models.NewOrderItem(productID, "Margherita", 2, price)
	require.NoError(t, err)
	return []models.OrderItem{item}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	orderID := testOrderID(t)
	customerID, err := models.ParseCustomerID("550e8400-e29b-41d4-a716-446655440001")
	require.NoError(t, err)
	ticketID, err := models.ParseTicketID("550e8400-e29b-41d4-a716-446655440002")
	require.NoError(t, err)
	deliveryID, err := models.ParseDeliveryID("550e8400-e29b-41d4-a716-446655440003")
	require.NoError(t, err)
	address, err := models.NewAddress("Rua Augusta 123, Sao Paulo")
	require.NoError(t, err)
	total, err := models.ParseMonetaryAmount("91.80")
	require.NoError(t, err)

	messages := []Message{
		PrepareOrder{
			OrderID:   orderID,
			Items:     testItems(t),
			Priority:  1,
			Timestamp: testTimestamp,
		},
		CancelTicket{OrderID: orderID, Reason: "Cancelled: customer request", Timestamp: testTimestamp},
		TicketAccepted{
			EventID:                  NewEventID(),
			OrderID:                  orderID,
			Timestamp:                testTimestamp,
			TicketID:                 ticketID,
			EstimatedPrepTimeMinutes: 15,
		},
		TicketRejected{EventID: NewEventID(), OrderID: orderID, Timestamp: testTimestamp, Reason: "Kitchen at full capacity"},
		TicketReady{EventID: NewEventID(), OrderID: orderID, Timestamp: testTimestamp, TicketID: ticketID},
		ScheduleDelivery{
			OrderID:             orderID,
			DeliveryAddress:     address,
			EstimatedPickupTime: testPickup,
			Timestamp:           testTimestamp,
		},
		CancelDelivery{OrderID: orderID, Reason: "Cancelled: kitchen rejected", Timestamp: testTimestamp},
		DeliveryScheduled{
			EventID:               NewEventID(),
			OrderID:               orderID,
			Timestamp:             testTimestamp,
			DeliveryID:            deliveryID,
			EstimatedDeliveryTime: testCompleted,
		},
		DeliveryPickedUp{EventID: NewEventID(), OrderID: orderID, Timestamp: testTimestamp, DeliveryID: deliveryID},
		DeliveryCompleted{
			EventID:     NewEventID(),
			OrderID:     orderID,
			Timestamp:   testTimestamp,
			DeliveryID:  deliveryID,
			CompletedAt: testCompleted,
		},
		DeliveryFailed{
			EventID:    NewEventID(),
			OrderID:    orderID,
			Timestamp:  testTimestamp,
			DeliveryID: deliveryID,
			Reason:     "No drivers available in the area",
		},
		OrderCreated{
			EventID:     NewEventID(),
			OrderID:     orderID,
			Timestamp:   testTimestamp,
			CustomerID:  customerID,
			TotalAmount: total,
		},
		OrderCompleted{EventID: NewEventID(), OrderID: orderID, Timestamp: testTimestamp, CompletedAt: testCompleted},
		OrderCancelled{EventID: NewEventID(), OrderID: orderID, Timestamp: testTimestamp, Reason: "Payment rejected"},
	}

	for _, msg := range messages {
		t.Run(string(msg.Family()), func(t *testing.T) {
			encoded, err := Encode(msg)
			require.NoError(t, err)

			decoded, err := Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, msg, decoded)
			assert.Equal(t, msg.Key(), decoded.Key())
			assert.Equal(t, msg.Family(), decoded.Family())
		})
	}
}

func TestDecode_RejectsMalformedPayloads(t *testing.T) {
	orderID := testOrderID(t)
	valid, err := Encode(TicketReady{
		EventID:   NewEventID(),
		OrderID:   orderID,
		Timestamp: testTimestamp,
		TicketID:  models.TicketID("550e8400-e29b-41d4-a716-446655440002"),
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "single byte", data: []byte{wireMagic}},
		{name: "bad magic", data: append([]byte{0xFF}, valid[1:]...)},
		{name: "unknown schema id", data: []byte{wireMagic, 0x7F, 0x01, 0x02}},
		{name: "truncated body", data: valid[:4]},
		{name: "garbage body", data: []byte{wireMagic, schemaKitchenEvents, 0xDE, 0xAD, 0xBE, 0xEF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode(tt.data)
			assert.Nil(t, msg)
			require.Error(t, err)

			var decodeErr *DecodeError
			assert.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestDecode_RejectsEnvelopeWithMissingPayload(t *testing.T) {
	// A TICKET_READY envelope whose ticketReady branch is null is
	// schema-valid but contract-invalid.
	body, err := encodeRawKitchenEvent(kitchenEventEnvelope{
		EventType: "TICKET_READY",
		EventID:   NewEventID(),
		OrderID:   testOrderID(t).String(),
		Timestamp: testTimestamp.UnixMilli(),
	})
	require.NoError(t, err)

	msg, err := Decode(body)
	assert.Nil(t, msg)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Contains(t, decodeErr.Reason, "without payload")
}

func TestDecode_RejectsInvalidOrderID(t *testing.T) {
	body, err := encodeRawKitchenEvent(kitchenEventEnvelope{
		EventType:      "TICKET_REJECTED",
		EventID:        NewEventID(),
		OrderID:        "not-a-uuid",
		Timestamp:      testTimestamp.UnixMilli(),
		TicketRejected: &ticketRejectedPayload{Reason: "Kitchen at full capacity"},
	})
	require.NoError(t, err)

	msg, err := Decode(body)
	assert.Nil(t, msg)

	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestEncode_RejectsUnknownMessage(t *testing.T) {
	_, err := Encode(nil)
	assert.Error(t, err)
}
