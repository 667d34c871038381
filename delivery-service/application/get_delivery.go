package application

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/delivery-service/domain"
	"github.com/fooddelivery/order-system/shared/models"
)

// ErrDeliveryNotFound is returned when an order has no delivery record.
var ErrDeliveryNotFound = errors.New("delivery not found")

// DeliveryResponse is the read model returned over HTTP.
type DeliveryResponse struct {
	DeliveryID            string  `json:"delivery_id"`
	OrderID               string  `json:"order_id"`
	DeliveryAddress       string  `json:"delivery_address"`
	Status                string  `json:"status"`
	DriverID              *string `json:"driver_id,omitempty"`
	DriverName            *string `json:"driver_name,omitempty"`
	FailureReason         *string `json:"failure_reason,omitempty"`
	EstimatedPickupTime   string  `json:"estimated_pickup_time"`
	EstimatedDeliveryTime *string `json:"estimated_delivery_time,omitempty"`
	PickedUpAt            *string `json:"picked_up_at,omitempty"`
	DeliveredAt           *string `json:"delivered_at,omitempty"`
	CreatedAt             string  `json:"created_at"`
}

// GetDelivery use case
type GetDelivery struct {
	deliveryRepository domain.DeliveryRepository
}

// NewGetDelivery creates a new GetDelivery use case
func NewGetDelivery(deliveryRepository domain.DeliveryRepository) *GetDelivery {
	return &GetDelivery{deliveryRepository: deliveryRepository}
}

// Execute loads the delivery for one order.
func (uc *GetDelivery) Execute(ctx context.Context, rawOrderID string) (*DeliveryResponse, error) {
	orderID, err := models.ParseOrderID(rawOrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	delivery, err := uc.deliveryRepository.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find delivery")
	}
	if delivery == nil {
		return nil, ErrDeliveryNotFound
	}

	response := &DeliveryResponse{
		DeliveryID:          delivery.ID.String(),
		OrderID:             delivery.OrderID.String(),
		DeliveryAddress:     delivery.DeliveryAddress.String(),
		Status:              string(delivery.Status),
		DriverID:            delivery.DriverID,
		DriverName:          delivery.DriverName,
		FailureReason:       delivery.FailureReason,
		EstimatedPickupTime: delivery.EstimatedPickupTime.Format(time.RFC3339),
		CreatedAt:           delivery.Timestamps.CreatedAt.Format(time.RFC3339),
	}
	if delivery.EstimatedDeliveryTime != nil {
		eta := delivery.EstimatedDeliveryTime.Format(time.RFC3339)
		response.EstimatedDeliveryTime = &eta
	}
	if delivery.PickedUpAt != nil {
		picked := delivery.PickedUpAt.Format(time.RFC3339)
		response.PickedUpAt = &picked
	}
	if delivery.DeliveredAt != nil {
		delivered := delivery.DeliveredAt.Format(time.RFC3339)
		response.DeliveredAt = &delivered
	}

	return response, nil
}
