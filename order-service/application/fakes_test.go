package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fooddelivery/order-system/order-service/domain"
	"github.com/fooddelivery/order-system/shared/contract"
	"github.com/fooddelivery/order-system/shared/models"
)

// fakeOrderRepository is an in-memory OrderRepository. FindByID hands out
// copies so a retry observes the persisted snapshot, not a half-mutated
// aggregate. saveErrs is popped one per Save call to script failures.
type fakeOrderRepository struct {
	orders   map[models.OrderID]*domain.Order
	saveErrs []error
	saves    int
}

func newFakeOrderRepository() *fakeOrderRepository {
	return &fakeOrderRepository{orders: map[models.OrderID]*domain.Order{}}
}

func (r *fakeOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	r.saves++
	if len(r.saveErrs) > 0 {
		err := r.saveErrs[0]
		r.saveErrs = r.saveErrs[1:]
		if err != nil {
			return err
		}
	}
	snapshot := *order
	r.orders[order.ID] = &snapshot
	return nil
}

func (r *fakeOrderRepository) FindByID(ctx context.Context, id models.OrderID) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	snapshot := *order
	return &snapshot, nil
}

func (r *fakeOrderRepository) seed(order *domain.Order) {
	snapshot := *order
	r.orders[order.ID] = &snapshot
}

// fakePublisher records published messages. errs is popped one per Publish
// call to script transient broker failures; err fails every call.
type fakePublisher struct {
	published []contract.Message
	errs      []error
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, msgs ...contract.Message) error {
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return err
		}
	} else if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msgs...)
	return nil
}

func (p *fakePublisher) prepareOrders() []contract.PrepareOrder {
	var out []contract.PrepareOrder
	for _, msg := range p.published {
		if cmd, ok := msg.(contract.PrepareOrder); ok {
			out = append(out, cmd)
		}
	}
	return out
}

func (p *fakePublisher) scheduleDeliveries() []contract.ScheduleDelivery {
	var out []contract.ScheduleDelivery
	for _, msg := range p.published {
		if cmd, ok := msg.(contract.ScheduleDelivery); ok {
			out = append(out, cmd)
		}
	}
	return out
}

func (p *fakePublisher) orderCancellations() []contract.OrderCancelled {
	var out []contract.OrderCancelled
	for _, msg := range p.published {
		if evt, ok := msg.(contract.OrderCancelled); ok {
			out = append(out, evt)
		}
	}
	return out
}

func (p *fakePublisher) orderCompletions() []contract.OrderCompleted {
	var out []contract.OrderCompleted
	for _, msg := range p.published {
		if evt, ok := msg.(contract.OrderCompleted); ok {
			out = append(out, evt)
		}
	}
	return out
}

type fakePaymentClient struct {
	authorizeResult *AuthorizationResult
	authorizeErr    error
	authorizeCalls  int

	refundResult     *RefundResult
	refundErr        error
	refundCalls      int
	lastRefundTxn    models.TransactionID
	lastRefundReason string
}

func (c *fakePaymentClient) Authorize(ctx context.Context, orderID models.OrderID, amount models.MonetaryAmount, method models.PaymentMethod) (*AuthorizationResult, error) {
	c.authorizeCalls++
	if c.authorizeErr != nil {
		return nil, c.authorizeErr
	}
	return c.authorizeResult, nil
}

func (c *fakePaymentClient) Refund(ctx context.Context, orderID models.OrderID, transactionID models.TransactionID, reason string) (*RefundResult, error) {
	c.refundCalls++
	c.lastRefundTxn = transactionID
	c.lastRefundReason = reason
	if c.refundErr != nil {
		return nil, c.refundErr
	}
	if c.refundResult != nil {
		return c.refundResult, nil
	}
	return &RefundResult{Success: true, Message: "Refund processed"}, nil
}

func authorizedResult(t *testing.T, ref string) *AuthorizationResult {
	t.Helper()
	transactionID, err := models.NewTransactionID(ref)
	require.NoError(t, err)
	return &AuthorizationResult{
		TransactionID: &transactionID,
		Status:        models.PaymentStatusAuthorized,
	}
}

func rejectedResult() *AuthorizationResult {
	return &AuthorizationResult{
		Status:  models.PaymentStatusRejected,
		Message: "Payment declined by issuer",
	}
}

// orderInKitchenPending builds an order that already passed payment and was
// dispatched to the kitchen, with recorded events cleared as they would be
// after publishing.
func orderInKitchenPending(t *testing.T, transactionRef string) *domain.Order {
	t.Helper()
	address, err := models.NewAddress("Rua Augusta 123")
	require.NoError(t, err)
	productID, err := models.NewProductID("PROD-001")
	require.NoError(t, err)
	price, err := models.ParseMonetaryAmount("45.90")
	require.NoError(t, err)
	item, err := models.NewOrderItem(productID, "Margherita", 2, price)
	require.NoError(t, err)

	order, err := domain.CreateOrder(models.NewCustomerID(), address, []models.OrderItem{item})
	require.NoError(t, err)
	order.ClearEvents()

	require.NoError(t, order.StartPayment())
	transactionID, err := models.NewTransactionID(transactionRef)
	require.NoError(t, err)
	require.NoError(t, order.MarkPaid(transactionID))
	require.NoError(t, order.SendToKitchen())
	return order
}

// orderInDeliveryPending continues from kitchen dispatch through ticket
// acceptance.
func orderInDeliveryPending(t *testing.T, transactionRef string) *domain.Order {
	t.Helper()
	order := orderInKitchenPending(t, transactionRef)
	require.NoError(t, order.AcceptTicket(models.NewTicketID()))
	return order
}
