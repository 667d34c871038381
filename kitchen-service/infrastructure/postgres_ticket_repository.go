package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/kitchen-service/domain"
	"github.com/fooddelivery/order-system/shared/models"
)

// PostgresTicketRepository implements TicketRepository using PostgreSQL
type PostgresTicketRepository struct {
	db *sqlx.DB
}

// NewPostgresTicketRepository creates a new PostgresTicketRepository
func NewPostgresTicketRepository(db *sqlx.DB) *PostgresTicketRepository {
	return &PostgresTicketRepository{db: db}
}

type postgresTicket struct {
	ID                       string     `db:"id"`
	OrderID                  string     `db:"order_id"`
	Status                   string     `db:"status"`
	EstimatedPrepTimeMinutes int        `db:"estimated_prep_time_minutes"`
	RejectionReason          *string    `db:"rejection_reason"`
	AcceptedAt               *time.Time `db:"accepted_at"`
	ReadyAt                  *time.Time `db:"ready_at"`
	CreatedAt                time.Time  `db:"created_at"`
	UpdatedAt                time.Time  `db:"updated_at"`
	Version                  int        `db:"version"`
}

type postgresTicketItem struct {
	TicketID    string `db:"ticket_id"`
	ProductID   string `db:"product_id"`
	ProductName string `db:"product_name"`
	Quantity    int    `db:"quantity"`
	UnitPrice   string `db:"unit_price"`
}

// Save persists the ticket snapshot.
func (r *PostgresTicketRepository) Save(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.Version.Value == 1 {
		return r.insertTicket(ctx, ticket)
	}
	return r.updateTicket(ctx, ticket)
}

func (r *PostgresTicketRepository) insertTicket(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	query := `
		INSERT INTO tickets (
			id, order_id, status, estimated_prep_time_minutes,
			rejection_reason, accepted_at, ready_at,
			created_at, updated_at, version
		) VALUES (
			:id, :order_id, :status, :estimated_prep_time_minutes,
			:rejection_reason, :accepted_at, :ready_at,
			:created_at, :updated_at, :version
		)`

	if _, err := tx.NamedExecContext(ctx, query, r.toPostgres(ticket)); err != nil {
		return errors.Wrap(err, "failed to insert ticket")
	}

	itemQuery := `
		INSERT INTO ticket_items (ticket_id, product_id, product_name, quantity, unit_price)
		VALUES (:ticket_id, :product_id, :product_name, :quantity, :unit_price)`

	for _, item := range ticket.Items {
		pgItem := &postgresTicketItem{
			TicketID:    ticket.ID.String(),
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
		}
		if _, err := tx.NamedExecContext(ctx, itemQuery, pgItem); err != nil {
			return errors.Wrap(err, "failed to insert ticket item")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit ticket insert")
}

func (r *PostgresTicketRepository) updateTicket(ctx context.Context, ticket *domain.Ticket) error {
	query := `
		UPDATE tickets
		SET status = :status,
			estimated_prep_time_minutes = :estimated_prep_time_minutes,
			rejection_reason = :rejection_reason, accepted_at = :accepted_at,
			ready_at = :ready_at, updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	pgTicket := r.toPostgres(ticket)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                          pgTicket.ID,
		"status":                      pgTicket.Status,
		"estimated_prep_time_minutes": pgTicket.EstimatedPrepTimeMinutes,
		"rejection_reason":            pgTicket.RejectionReason,
		"accepted_at":                 pgTicket.AcceptedAt,
		"ready_at":                    pgTicket.ReadyAt,
		"updated_at":                  pgTicket.UpdatedAt,
		"version":                     pgTicket.Version,
		"old_version":                 pgTicket.Version - 1, // Optimistic locking
	})
	if err != nil {
		return errors.Wrap(err, "failed to update ticket")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read update result")
	}
	if affected == 0 {
		return errors.Wrapf(domain.ErrVersionConflict, "ticket %s version %d", ticket.ID, ticket.Version.Value)
	}

	return nil
}

// FindByOrderID finds the ticket for one order, (nil, nil) when missing.
func (r *PostgresTicketRepository) FindByOrderID(ctx context.Context, orderID models.OrderID) (*domain.Ticket, error) {
	query := `
		SELECT id, order_id, status, estimated_prep_time_minutes,
			   rejection_reason, accepted_at, ready_at,
			   created_at, updated_at, version
		FROM tickets
		WHERE order_id = $1`

	var pgTicket postgresTicket
	if err := r.db.GetContext(ctx, &pgTicket, query, orderID.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find ticket")
	}

	itemQuery := `
		SELECT ticket_id, product_id, product_name, quantity, unit_price
		FROM ticket_items
		WHERE ticket_id = $1
		ORDER BY product_id`

	var pgItems []postgresTicketItem
	if err := r.db.SelectContext(ctx, &pgItems, itemQuery, pgTicket.ID); err != nil {
		return nil, errors.Wrap(err, "failed to find ticket items")
	}

	return r.toDomain(&pgTicket, pgItems)
}

func (r *PostgresTicketRepository) toPostgres(ticket *domain.Ticket) *postgresTicket {
	return &postgresTicket{
		ID:                       ticket.ID.String(),
		OrderID:                  ticket.OrderID.String(),
		Status:                   string(ticket.Status),
		EstimatedPrepTimeMinutes: ticket.EstimatedPrepTimeMinutes,
		RejectionReason:          ticket.RejectionReason,
		AcceptedAt:               ticket.AcceptedAt,
		ReadyAt:                  ticket.ReadyAt,
		CreatedAt:                ticket.Timestamps.CreatedAt,
		UpdatedAt:                ticket.Timestamps.UpdatedAt,
		Version:                  ticket.Version.Value,
	}
}

func (r *PostgresTicketRepository) toDomain(pgTicket *postgresTicket, pgItems []postgresTicketItem) (*domain.Ticket, error) {
	id, err := models.ParseTicketID(pgTicket.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid ticket ID")
	}

	orderID, err := models.ParseOrderID(pgTicket.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
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
			return nil, errors.Wrap(err, "invalid ticket item")
		}
		items = append(items, item)
	}

	return &domain.Ticket{
		ID:                       id,
		OrderID:                  orderID,
		Items:                    items,
		Status:                   models.TicketStatus(pgTicket.Status),
		EstimatedPrepTimeMinutes: pgTicket.EstimatedPrepTimeMinutes,
		RejectionReason:          pgTicket.RejectionReason,
		AcceptedAt:               pgTicket.AcceptedAt,
		ReadyAt:                  pgTicket.ReadyAt,
		Timestamps: models.Timestamps{
			CreatedAt: pgTicket.CreatedAt,
			UpdatedAt: pgTicket.UpdatedAt,
		},
		Version: models.Version{Value: pgTicket.Version},
	}, nil
}
