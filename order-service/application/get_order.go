package application

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/order-service/domain"
	"github.com/fooddelivery/order-system/shared/models"
)

// ErrOrderNotFound is returned when a queried order does not exist.
var ErrOrderNotFound = errors.New("order not found")

// OrderResponse is the read model returned over HTTP.
type OrderResponse struct {
	OrderID            string              `json:"order_id"`
	CustomerID         string              `json:"customer_id"`
	DeliveryAddress    string              `json:"delivery_address"`
	TotalAmount        string              `json:"total_amount"`
	Status             string              `json:"status"`
	TransactionID      *string             `json:"transaction_id,omitempty"`
	TicketID           *string             `json:"ticket_id,omitempty"`
	DeliveryID         *string             `json:"delivery_id,omitempty"`
	CancellationReason *string             `json:"cancellation_reason,omitempty"`
	Items              []OrderItemResponse `json:"items"`
	CreatedAt          string              `json:"created_at"`
	UpdatedAt          string              `json:"updated_at"`
	CompletedAt        *string             `json:"completed_at,omitempty"`
}

// OrderItemResponse is one line item of the read model.
type OrderItemResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TotalPrice  string `json:"total_price"`
}

// GetOrder use case
type GetOrder struct {
	orderRepository domain.OrderRepository
}

// NewGetOrder creates a new GetOrder use case
func NewGetOrder(orderRepository domain.OrderRepository) *GetOrder {
	return &GetOrder{orderRepository: orderRepository}
}

// Execute loads one order by id.
func (uc *GetOrder) Execute(ctx context.Context, rawID string) (*OrderResponse, error) {
	orderID, err := models.ParseOrderID(rawID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	order, err := uc.orderRepository.FindByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	return NewOrderResponse(order), nil
}

// NewOrderResponse maps the aggregate to its read model.
func NewOrderResponse(order *domain.Order) *OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
			TotalPrice:  item.TotalPrice().String(),
		})
	}

	response := &OrderResponse{
		OrderID:            order.ID.String(),
		CustomerID:         order.CustomerID.String(),
		DeliveryAddress:    order.DeliveryAddress.String(),
		TotalAmount:        order.TotalAmount.String(),
		Status:             string(order.State),
		CancellationReason: order.CancellationReason,
		Items:              items,
		CreatedAt:          order.Timestamps.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          order.Timestamps.UpdatedAt.Format(time.RFC3339),
	}

	if order.TransactionID != nil {
		id := order.TransactionID.String()
		response.TransactionID = &id
	}
	if order.TicketID != nil {
		id := order.TicketID.String()
		response.TicketID = &id
	}
	if order.DeliveryID != nil {
		id := order.DeliveryID.String()
		response.DeliveryID = &id
	}
	if order.CompletedAt != nil {
		completed := order.CompletedAt.Format(time.RFC3339)
		response.CompletedAt = &completed
	}

	return response
}
