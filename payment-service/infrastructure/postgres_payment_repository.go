package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/payment-service/domain"
	"github.com/fooddelivery/order-system/shared/models"
)

// PostgresPaymentRepository implements PaymentRepository using PostgreSQL
type PostgresPaymentRepository struct {
	db *sqlx.DB
}

// NewPostgresPaymentRepository creates a new PostgresPaymentRepository
func NewPostgresPaymentRepository(db *sqlx.DB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

type postgresPayment struct {
	ID            string     `db:"id"`
	OrderID       string     `db:"order_id"`
	Amount        string     `db:"amount"`
	PaymentMethod string     `db:"payment_method"`
	Status        string     `db:"status"`
	TransactionID *string    `db:"transaction_id"`
	ErrorMessage  *string    `db:"error_message"`
	ProcessedAt   *time.Time `db:"processed_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	Version       int        `db:"version"`
}

// Save persists the payment snapshot. A payment is authorized before its
// first save, so version 2 marks the insert and anything later an update.
func (r *PostgresPaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	if payment.Version.Value <= 2 {
		return r.insertPayment(ctx, payment)
	}
	return r.updatePayment(ctx, payment)
}

func (r *PostgresPaymentRepository) insertPayment(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, order_id, amount, payment_method, status, transaction_id,
			error_message, processed_at, created_at, updated_at, version
		) VALUES (
			:id, :order_id, :amount, :payment_method, :status, :transaction_id,
			:error_message, :processed_at, :created_at, :updated_at, :version
		)`

	if _, err := r.db.NamedExecContext(ctx, query, r.toPostgres(payment)); err != nil {
		return errors.Wrap(err, "failed to insert payment")
	}
	return nil
}

func (r *PostgresPaymentRepository) updatePayment(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = :status, transaction_id = :transaction_id,
			error_message = :error_message, processed_at = :processed_at,
			updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	pgPayment := r.toPostgres(payment)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":             pgPayment.ID,
		"status":         pgPayment.Status,
		"transaction_id": pgPayment.TransactionID,
		"error_message":  pgPayment.ErrorMessage,
		"processed_at":   pgPayment.ProcessedAt,
		"updated_at":     pgPayment.UpdatedAt,
		"version":        pgPayment.Version,
		"old_version":    pgPayment.Version - 1, // Optimistic locking
	})
	if err != nil {
		return errors.Wrap(err, "failed to update payment")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read update result")
	}
	if affected == 0 {
		return errors.Wrapf(domain.ErrVersionConflict, "payment %s version %d", payment.ID, payment.Version.Value)
	}

	return nil
}

// FindByOrderID finds the latest payment for one order, (nil, nil) when
// missing. A declined attempt may be followed by an authorized one, so the
// newest row is the authoritative record.
func (r *PostgresPaymentRepository) FindByOrderID(ctx context.Context, orderID models.OrderID) (*domain.Payment, error) {
	return r.findOne(ctx, `order_id = $1`, orderID.String())
}

// FindByTransactionID finds a payment by gateway transaction reference.
func (r *PostgresPaymentRepository) FindByTransactionID(ctx context.Context, transactionID models.TransactionID) (*domain.Payment, error) {
	return r.findOne(ctx, `transaction_id = $1`, transactionID.String())
}

func (r *PostgresPaymentRepository) findOne(ctx context.Context, where string, arg interface{}) (*domain.Payment, error) {
	query := `
		SELECT id, order_id, amount, payment_method, status, transaction_id,
			   error_message, processed_at, created_at, updated_at, version
		FROM payments
		WHERE ` + where + `
		ORDER BY created_at DESC
		LIMIT 1`

	var pgPayment postgresPayment
	if err := r.db.GetContext(ctx, &pgPayment, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find payment")
	}

	return r.toDomain(&pgPayment)
}

func (r *PostgresPaymentRepository) toPostgres(payment *domain.Payment) *postgresPayment {
	pgPayment := &postgresPayment{
		ID:            payment.ID,
		OrderID:       payment.OrderID.String(),
		Amount:        payment.Amount.String(),
		PaymentMethod: string(payment.Method),
		Status:        string(payment.Status),
		ErrorMessage:  payment.ErrorMessage,
		ProcessedAt:   payment.ProcessedAt,
		CreatedAt:     payment.Timestamps.CreatedAt,
		UpdatedAt:     payment.Timestamps.UpdatedAt,
		Version:       payment.Version.Value,
	}
	if payment.TransactionID != nil {
		transactionID := payment.TransactionID.String()
		pgPayment.TransactionID = &transactionID
	}
	return pgPayment
}

func (r *PostgresPaymentRepository) toDomain(pgPayment *postgresPayment) (*domain.Payment, error) {
	orderID, err := models.ParseOrderID(pgPayment.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	amount, err := models.ParseMonetaryAmount(pgPayment.Amount)
	if err != nil {
		return nil, errors.Wrap(err, "invalid amount")
	}

	method, err := models.NewPaymentMethod(pgPayment.PaymentMethod)
	if err != nil {
		return nil, errors.Wrap(err, "invalid payment method")
	}

	payment := &domain.Payment{
		ID:           pgPayment.ID,
		OrderID:      orderID,
		Amount:       amount,
		Method:       method,
		Status:       models.PaymentStatus(pgPayment.Status),
		ErrorMessage: pgPayment.ErrorMessage,
		ProcessedAt:  pgPayment.ProcessedAt,
		Timestamps: models.Timestamps{
			CreatedAt: pgPayment.CreatedAt,
			UpdatedAt: pgPayment.UpdatedAt,
		},
		Version: models.Version{Value: pgPayment.Version},
	}

	if pgPayment.TransactionID != nil {
		transactionID, err := models.NewTransactionID(*pgPayment.TransactionID)
		if err != nil {
			return nil, errors.Wrap(err, "invalid transaction ID")
		}
		payment.TransactionID = &transactionID
	}

	return payment, nil
}
