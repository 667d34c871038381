package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/order-service/domain"
	"github.com/fooddelivery/order-system/shared/contract"
	"github.com/fooddelivery/order-system/shared/messaging"
	"github.com/fooddelivery/order-system/shared/models"
	"github.com/fooddelivery/order-system/shared/telemetry"
)

// InitiateOrderCommand represents the request to start an order saga
type InitiateOrderCommand struct {
	CustomerID      string             `json:"customer_id"`
	DeliveryAddress string             `json:"delivery_address"`
	PaymentMethod   string             `json:"payment_method"`
	Items           []OrderItemRequest `json:"items"`
}

// OrderItemRequest is one requested line item
type OrderItemRequest struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// InitiateOrderSaga creates the order aggregate and drives the saga through
// its synchronous leg: payment authorization. On success the order is
// dispatched to the kitchen and the saga continues on inbound events; on
// rejection the order is cancelled before returning.
type InitiateOrderSaga struct {
	orderRepository domain.OrderRepository
	paymentClient   PaymentClient
	publisher       messaging.Publisher
}

// NewInitiateOrderSaga creates a new InitiateOrderSaga use case
func NewInitiateOrderSaga(
	orderRepository domain.OrderRepository,
	paymentClient PaymentClient,
	publisher messaging.Publisher,
) *InitiateOrderSaga {
	return &InitiateOrderSaga{
		orderRepository: orderRepository,
		paymentClient:   paymentClient,
		publisher:       publisher,
	}
}

// Execute validates the command and runs the saga up to the payment
// outcome. It never returns an order stuck in PaymentPending: any
// authorization failure, including transport errors, cancels the order.
func (uc *InitiateOrderSaga) Execute(ctx context.Context, cmd *InitiateOrderCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "InitiateOrderSaga.Execute")
	defer span.End()

	customerID, address, method, items, err := uc.parseCommand(cmd)
	if err != nil {
		return nil, errors.Wrap(err, "invalid command")
	}

	order, err := domain.CreateOrder(customerID, address, items)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create order")
	}

	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}
	uc.publish(ctx, order)

	if err := order.StartPayment(); err != nil {
		return nil, errors.Wrap(err, "failed to start payment")
	}
	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}

	result, err := uc.paymentClient.Authorize(ctx, order.ID, order.TotalAmount, method)
	if err != nil {
		// A timeout or transport failure is indistinguishable from a
		// rejection here: the saga must not sit in PaymentPending.
		slog.ErrorContext(ctx, "payment authorization failed", "orderId", order.ID, "error", err)
		return uc.cancelUnpaid(ctx, order)
	}
	if !result.Authorized() {
		slog.InfoContext(ctx, "payment not authorized",
			"orderId", order.ID, "status", result.Status, "message", result.Message)
		return uc.cancelUnpaid(ctx, order)
	}

	if err := order.MarkPaid(*result.TransactionID); err != nil {
		return nil, errors.Wrap(err, "failed to mark order paid")
	}
	if err := order.SendToKitchen(); err != nil {
		return nil, errors.Wrap(err, "failed to dispatch order to kitchen")
	}
	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}

	dispatch := contract.PrepareOrder{
		OrderID:   order.ID,
		Items:     order.Items,
		Priority:  0,
		Timestamp: time.Now(),
	}
	if err := uc.publisher.Publish(ctx, append(order.Events(), dispatch)...); err != nil {
		// The kitchen never hears about the order and no redelivery will
		// retry this publish, so the saga must not stay in KitchenPending.
		slog.ErrorContext(ctx, "kitchen dispatch failed", "orderId", order.ID, "error", err)
		return uc.cancelPaid(ctx, order)
	}
	order.ClearEvents()

	telemetry.RecordCounter(ctx, "orders_initiated_total", "Orders that entered the saga", 1)
	return order, nil
}

// cancelPaid compensates the synchronous leg after the payment was
// authorized: the charge is refunded and the order cancelled.
func (uc *InitiateOrderSaga) cancelPaid(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	refund(ctx, uc.paymentClient, order, "Kitchen dispatch failed")
	if err := order.Cancel("Kitchen dispatch failed"); err != nil {
		return nil, errors.Wrap(err, "failed to cancel order")
	}
	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}
	uc.publish(ctx, order)
	return order, nil
}

// cancelUnpaid closes the saga before anything was reserved downstream,
// so no compensation is needed.
func (uc *InitiateOrderSaga) cancelUnpaid(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := order.Cancel("Payment rejected"); err != nil {
		return nil, errors.Wrap(err, "failed to cancel order")
	}
	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}
	uc.publish(ctx, order)
	return order, nil
}

func (uc *InitiateOrderSaga) publish(ctx context.Context, order *domain.Order, commands ...contract.Message) {
	msgs := append(order.Events(), commands...)
	if len(msgs) == 0 {
		return
	}
	if err := uc.publisher.Publish(ctx, msgs...); err != nil {
		slog.ErrorContext(ctx, "failed to publish messages", "orderId", order.ID, "error", err)
		return
	}
	order.ClearEvents()
}

func (uc *InitiateOrderSaga) parseCommand(cmd *InitiateOrderCommand) (models.CustomerID, models.Address, models.PaymentMethod, []models.OrderItem, error) {
	customerID, err := models.ParseCustomerID(cmd.CustomerID)
	if err != nil {
		return "", "", "", nil, err
	}

	address, err := models.NewAddress(cmd.DeliveryAddress)
	if err != nil {
		return "", "", "", nil, err
	}

	method, err := models.NewPaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return "", "", "", nil, err
	}

	if len(cmd.Items) == 0 {
		return "", "", "", nil, domain.ErrNoItems
	}

	items := make([]models.OrderItem, 0, len(cmd.Items))
	for _, req := range cmd.Items {
		productID, err := models.NewProductID(req.ProductID)
		if err != nil {
			return "", "", "", nil, err
		}
		unitPrice, err := models.ParseMonetaryAmount(req.UnitPrice)
		if err != nil {
			return "", "", "", nil, errors.Wrapf(err, "item %s", req.ProductID)
		}
		item, err := models.NewOrderItem(productID, req.ProductName, req.Quantity, unitPrice)
		if err != nil {
			return "", "", "", nil, errors.Wrapf(err, "item %s", req.ProductID)
		}
		items = append(items, item)
	}

	return customerID, address, method, items, nil
}
