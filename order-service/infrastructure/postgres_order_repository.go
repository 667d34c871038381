package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/order-service/domain"
	"github.com/fooddelivery/order-system/shared/models"
	"github.com/fooddelivery/order-system/shared/saga"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db *sqlx.DB
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// postgresOrder represents an order row. Monetary columns are NUMERIC and
// scanned as strings so no float ever touches an amount.
type postgresOrder struct {
	ID                 string     `db:"id"`
	CustomerID         string     `db:"customer_id"`
	DeliveryAddress    string     `db:"delivery_address"`
	TotalAmount        string     `db:"total_amount"`
	Status             string     `db:"status"`
	TransactionID      *string    `db:"transaction_id"`
	TicketID           *string    `db:"ticket_id"`
	DeliveryID         *string    `db:"delivery_id"`
	CancellationReason *string    `db:"cancellation_reason"`
	CompletedAt        *time.Time `db:"completed_at"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
	Version            int        `db:"version"`
}

type postgresOrderItem struct {
	OrderID     string `db:"order_id"`
	ProductID   string `db:"product_id"`
	ProductName string `db:"product_name"`
	Quantity    int    `db:"quantity"`
	UnitPrice   string `db:"unit_price"`
}

// Save persists the order snapshot. A fresh aggregate (version 1) is
// inserted together with its items; anything else is an optimistic-lock
// update that refuses stale writes with ErrVersionConflict.
func (r *PostgresOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	if order.Version.Value == 1 {
		return r.insertOrder(ctx, order)
	}
	return r.updateOrder(ctx, order)
}

func (r *PostgresOrderRepository) insertOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (
			id, customer_id, delivery_address, total_amount, status,
			transaction_id, ticket_id, delivery_id, cancellation_reason,
			completed_at, created_at, updated_at, version
		) VALUES (
			:id, :customer_id, :delivery_address, :total_amount, :status,
			:transaction_id, :ticket_id, :delivery_id, :cancellation_reason,
			:completed_at, :created_at, :updated_at, :version
		)`

	if _, err := tx.NamedExecContext(ctx, query, r.toPostgres(order)); err != nil {
		return errors.Wrap(err, "failed to insert order")
	}

	// Items never change after creation, so they are written once here.
	itemQuery := `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price)
		VALUES (:order_id, :product_id, :product_name, :quantity, :unit_price)`

	for _, item := range order.Items {
		pgItem := &postgresOrderItem{
			OrderID:     order.ID.String(),
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
		}
		if _, err := tx.NamedExecContext(ctx, itemQuery, pgItem); err != nil {
			return errors.Wrap(err, "failed to insert order item")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit order insert")
}

func (r *PostgresOrderRepository) updateOrder(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = :status, transaction_id = :transaction_id,
			ticket_id = :ticket_id, delivery_id = :delivery_id,
			cancellation_reason = :cancellation_reason,
			completed_at = :completed_at, updated_at = :updated_at,
			version = :version
		WHERE id = :id AND version = :old_version`

	pgOrder := r.toPostgres(order)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                  pgOrder.ID,
		"status":              pgOrder.Status,
		"transaction_id":      pgOrder.TransactionID,
		"ticket_id":           pgOrder.TicketID,
		"delivery_id":         pgOrder.DeliveryID,
		"cancellation_reason": pgOrder.CancellationReason,
		"completed_at":        pgOrder.CompletedAt,
		"updated_at":          pgOrder.UpdatedAt,
		"version":             pgOrder.Version,
		"old_version":         pgOrder.Version - 1, // Optimistic locking
	})
	if err != nil {
		return errors.Wrap(err, "failed to update order")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read update result")
	}
	if affected == 0 {
		return errors.Wrapf(domain.ErrVersionConflict, "order %s version %d", order.ID, order.Version.Value)
	}

	return nil
}

// FindByID finds an order by ID, returning (nil, nil) when it is unknown.
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id models.OrderID) (*domain.Order, error) {
	query := `
		SELECT id, customer_id, delivery_address, total_amount, status,
			   transaction_id, ticket_id, delivery_id, cancellation_reason,
			   completed_at, created_at, updated_at, version
		FROM orders
		WHERE id = $1`

	var pgOrder postgresOrder
	if err := r.db.GetContext(ctx, &pgOrder, query, id.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	itemQuery := `
		SELECT order_id, product_id, product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id`

	var pgItems []postgresOrderItem
	if err := r.db.SelectContext(ctx, &pgItems, itemQuery, id.String()); err != nil {
		return nil, errors.Wrap(err, "failed to find order items")
	}

	return r.toDomain(&pgOrder, pgItems)
}

func (r *PostgresOrderRepository) toPostgres(order *domain.Order) *postgresOrder {
	pgOrder := &postgresOrder{
		ID:                 order.ID.String(),
		CustomerID:         order.CustomerID.String(),
		DeliveryAddress:    order.DeliveryAddress.String(),
		TotalAmount:        order.TotalAmount.String(),
		Status:             string(order.State),
		CancellationReason: order.CancellationReason,
		CompletedAt:        order.CompletedAt,
		CreatedAt:          order.Timestamps.CreatedAt,
		UpdatedAt:          order.Timestamps.UpdatedAt,
		Version:            order.Version.Value,
	}

	if order.TransactionID != nil {
		id := order.TransactionID.String()
		pgOrder.TransactionID = &id
	}
	if order.TicketID != nil {
		id := order.TicketID.String()
		pgOrder.TicketID = &id
	}
	if order.DeliveryID != nil {
		id := order.DeliveryID.String()
		pgOrder.DeliveryID = &id
	}

	return pgOrder
}

func (r *PostgresOrderRepository) toDomain(pgOrder *postgresOrder, pgItems []postgresOrderItem) (*domain.Order, error) {
	id, err := models.ParseOrderID(pgOrder.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	customerID, err := models.ParseCustomerID(pgOrder.CustomerID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid customer ID")
	}

	address, err := models.NewAddress(pgOrder.DeliveryAddress)
	if err != nil {
		return nil, errors.Wrap(err, "invalid delivery address")
	}

	totalAmount, err := models.ParseMonetaryAmount(pgOrder.TotalAmount)
	if err != nil {
		return nil, errors.Wrap(err, "invalid total amount")
	}

	state, err := saga.ParseState(pgOrder.Status)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order status")
	}

	items := make([]models.OrderItem, 0, len(pgItems))
	for _, pgItem := range pgItems {
		productID, err := models.NewProductID(pgItem.ProductID)
		if err != nil {
			return nil, errors.Wrap(err, "invalid product ID")
		}
		unitPrice, err := models.ParseMonetaryAmount(pgItem.UnitPrice)
		if err != nil {
			return nil, errors.Wrap(err, "invalid unit price")
		}
		item, err := models.NewOrderItem(productID, pgItem.ProductName, pgItem.Quantity, unitPrice)
		if err != nil {
			return nil, errors.Wrap(err, "invalid order item")
		}
		items = append(items, item)
	}

	order := &domain.Order{
		ID:                 id,
		CustomerID:         customerID,
		DeliveryAddress:    address,
		Items:              items,
		TotalAmount:        totalAmount,
		State:              state,
		CancellationReason: pgOrder.CancellationReason,
		CompletedAt:        pgOrder.CompletedAt,
		Timestamps: models.Timestamps{
			CreatedAt: pgOrder.CreatedAt,
			UpdatedAt: pgOrder.UpdatedAt,
		},
		Version: models.Version{Value: pgOrder.Version},
	}

	if pgOrder.TransactionID != nil {
		transactionID, err := models.NewTransactionID(*pgOrder.TransactionID)
		if err != nil {
			return nil, errors.Wrap(err, "invalid transaction ID")
		}
		order.TransactionID = &transactionID
	}
	if pgOrder.TicketID != nil {
		ticketID, err := models.ParseTicketID(*pgOrder.TicketID)
		if err != nil {
			return nil, errors.Wrap(err, "invalid ticket ID")
		}
		order.TicketID = &ticketID
	}
	if pgOrder.DeliveryID != nil {
		deliveryID, err := models.ParseDeliveryID(*pgOrder.DeliveryID)
		if err != nil {
			return nil, errors.Wrap(err, "invalid delivery ID")
		}
		order.DeliveryID = &deliveryID
	}

	return order, nil
}
