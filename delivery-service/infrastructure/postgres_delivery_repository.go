package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/delivery-service/domain"
	"github.com/fooddelivery/order-system/shared/models"
)

// PostgresDeliveryRepository implements DeliveryRepository using PostgreSQL
type PostgresDeliveryRepository struct {
	db *sqlx.DB
}

// NewPostgresDeliveryRepository creates a new PostgresDeliveryRepository
func NewPostgresDeliveryRepository(db *sqlx.DB) *PostgresDeliveryRepository {
	return &PostgresDeliveryRepository{db: db}
}

type postgresDelivery struct {
	ID                    string     `db:"id"`
	OrderID               string     `db:"order_id"`
	DeliveryAddress       string     `db:"delivery_address"`
	Status                string     `db:"status"`
	DriverID              *string    `db:"driver_id"`
	DriverName            *string    `db:"driver_name"`
	FailureReason         *string    `db:"failure_reason"`
	EstimatedPickupTime   time.Time  `db:"estimated_pickup_time"`
	EstimatedDeliveryTime *time.Time `db:"estimated_delivery_time"`
	PickedUpAt            *time.Time `db:"picked_up_at"`
	DeliveredAt           *time.Time `db:"delivered_at"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
	Version               int        `db:"version"`
}

// Save persists the delivery snapshot.
func (r *PostgresDeliveryRepository) Save(ctx context.Context, delivery *domain.Delivery) error {
	if delivery.Version.Value == 1 {
		return r.insertDelivery(ctx, delivery)
	}
	return r.updateDelivery(ctx, delivery)
}

func (r *PostgresDeliveryRepository) insertDelivery(ctx context.Context, delivery *domain.Delivery) error {
	query := `
		INSERT INTO deliveries (
			id, order_id, delivery_address, status, driver_id, driver_name,
			failure_reason, estimated_pickup_time, estimated_delivery_time,
			picked_up_at, delivered_at, created_at, updated_at, version
		) VALUES (
			:id, :order_id, :delivery_address, :status, :driver_id, :driver_name,
			:failure_reason, :estimated_pickup_time, :estimated_delivery_time,
			:picked_up_at, :delivered_at, :created_at, :updated_at, :version
		)`

	if _, err := r.db.NamedExecContext(ctx, query, r.toPostgres(delivery)); err != nil {
		return errors.Wrap(err, "failed to insert delivery")
	}
	return nil
}

func (r *PostgresDeliveryRepository) updateDelivery(ctx context.Context, delivery *domain.Delivery) error {
	query := `
		UPDATE deliveries
		SET status = :status, driver_id = :driver_id, driver_name = :driver_name,
			failure_reason = :failure_reason,
			estimated_delivery_time = :estimated_delivery_time,
			picked_up_at = :picked_up_at, delivered_at = :delivered_at,
			updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	pgDelivery := r.toPostgres(delivery)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                      pgDelivery.ID,
		"status":                  pgDelivery.Status,
		"driver_id":               pgDelivery.DriverID,
		"driver_name":             pgDelivery.DriverName,
		"failure_reason":          pgDelivery.FailureReason,
		"estimated_delivery_time": pgDelivery.EstimatedDeliveryTime,
		"picked_up_at":            pgDelivery.PickedUpAt,
		"delivered_at":            pgDelivery.DeliveredAt,
		"updated_at":              pgDelivery.UpdatedAt,
		"version":                 pgDelivery.Version,
		"old_version":             pgDelivery.Version - 1, // Optimistic locking
	})
	if err != nil {
		return errors.Wrap(err, "failed to update delivery")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read update result")
	}
	if affected == 0 {
		return errors.Wrapf(domain.ErrVersionConflict, "delivery %s version %d", delivery.ID, delivery.Version.Value)
	}

	return nil
}

// FindByOrderID finds the delivery for one order, (nil, nil) when missing.
func (r *PostgresDeliveryRepository) FindByOrderID(ctx context.Context, orderID models.OrderID) (*domain.Delivery, error) {
	query := `
		SELECT id, order_id, delivery_address, status, driver_id, driver_name,
			   failure_reason, estimated_pickup_time, estimated_delivery_time,
			   picked_up_at, delivered_at, created_at, updated_at, version
		FROM deliveries
		WHERE order_id = $1`

	var pgDelivery postgresDelivery
	if err := r.db.GetContext(ctx, &pgDelivery, query, orderID.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find delivery")
	}

	return r.toDomain(&pgDelivery)
}

func (r *PostgresDeliveryRepository) toPostgres(delivery *domain.Delivery) *postgresDelivery {
	return &postgresDelivery{
		ID:                    delivery.ID.String(),
		OrderID:               delivery.OrderID.String(),
		DeliveryAddress:       delivery.DeliveryAddress.String(),
		Status:                string(delivery.Status),
		DriverID:              delivery.DriverID,
		DriverName:            delivery.DriverName,
		FailureReason:         delivery.FailureReason,
		EstimatedPickupTime:   delivery.EstimatedPickupTime,
		EstimatedDeliveryTime: delivery.EstimatedDeliveryTime,
		PickedUpAt:            delivery.PickedUpAt,
		DeliveredAt:           delivery.DeliveredAt,
		CreatedAt:             delivery.Timestamps.CreatedAt,
		UpdatedAt:             delivery.Timestamps.UpdatedAt,
		Version:               delivery.Version.Value,
	}
}

func (r *PostgresDeliveryRepository) toDomain(pgDelivery *postgresDelivery) (*domain.Delivery, error) {
	id, err := models.ParseDeliveryID(pgDelivery.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid delivery ID")
	}

	orderID, err := models.ParseOrderID(pgDelivery.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	address, err := models.NewAddress(pgDelivery.DeliveryAddress)
	if err != nil {
		return nil, errors.Wrap(err, "invalid delivery address")
	}

	return &domain.Delivery{
		ID:                    id,
		OrderID:               orderID,
		DeliveryAddress:       address,
		Status:                models.DeliveryStatus(pgDelivery.Status),
		DriverID:              pgDelivery.DriverID,
		DriverName:            pgDelivery.DriverName,
		FailureReason:         pgDelivery.FailureReason,
		EstimatedPickupTime:   pgDelivery.EstimatedPickupTime,
		EstimatedDeliveryTime: pgDelivery.EstimatedDeliveryTime,
		PickedUpAt:            pgDelivery.PickedUpAt,
		DeliveredAt:           pgDelivery.DeliveredAt,
		Timestamps: models.Timestamps{
			CreatedAt: pgDelivery.CreatedAt,
			UpdatedAt: pgDelivery.UpdatedAt,
		},
		Version: models.Version{Value: pgDelivery.Version},
	}, nil
}
