package domain

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/shared/models"
)

var ErrVersionConflict = errors.New("delivery was modified concurrently")

// Couriers take between 30 and 45 minutes from pickup to hand-off.
const (
	minDeliveryMinutes = 30
	maxDeliveryMinutes = 45
)

// EstimateDeliveryTime projects the hand-off time from the pickup time.
func EstimateDeliveryTime(pickupTime time.Time) time.Time {
	minutes := minDeliveryMinutes + rand.Intn(maxDeliveryMinutes-minDeliveryMinutes+1)
	return pickupTime.Add(time.Duration(minutes) * time.Minute)
}

// Delivery tracks one order from driver assignment to hand-off.
type Delivery struct {
	ID                    models.DeliveryID
	OrderID               models.OrderID
	DeliveryAddress       models.Address
	Status                models.DeliveryStatus
	DriverID              *string
	DriverName            *string
	FailureReason         *string
	EstimatedPickupTime   time.Time
	EstimatedDeliveryTime *time.Time
	PickedUpAt            *time.Time
	DeliveredAt           *time.Time
	Timestamps            models.Timestamps
	Version               models.Version
}

// NewDelivery opens a pending delivery for an order.
func NewDelivery(orderID models.OrderID, address models.Address, estimatedPickupTime time.Time) *Delivery {
	return &Delivery{
		ID:                  models.NewDeliveryID(),
		OrderID:             orderID,
		DeliveryAddress:     address,
		Status:              models.DeliveryStatusPending,
		EstimatedPickupTime: estimatedPickupTime,
		Timestamps:          models.NewTimestamps(),
		Version:             models.NewVersion(),
	}
}

// Schedule assigns a driver and fixes the hand-off estimate.
func (d *Delivery) Schedule(estimatedDeliveryTime time.Time) {
	driverID := "DRV-" + strings.ToUpper(uuid.New().String()[:4])
	driverName := fmt.Sprintf("Driver %d", rand.Intn(100)+1)

	d.Status = models.DeliveryStatusAssigned
	d.DriverID = &driverID
	d.DriverName = &driverName
	d.EstimatedDeliveryTime = &estimatedDeliveryTime
	d.touch()
}

// Pickup marks the order collected from the kitchen.
func (d *Delivery) Pickup() {
	now := time.Now()
	d.Status = models.DeliveryStatusPickedUp
	d.PickedUpAt = &now
	d.touch()
}

// StartTransit marks the driver en route.
func (d *Delivery) StartTransit() {
	d.Status = models.DeliveryStatusInTransit
	d.touch()
}

// Complete marks the order handed to the customer.
func (d *Delivery) Complete() {
	now := time.Now()
	d.Status = models.DeliveryStatusDelivered
	d.DeliveredAt = &now
	d.touch()
}

// Fail closes the delivery with a reason.
func (d *Delivery) Fail(reason string) {
	d.Status = models.DeliveryStatusFailed
	d.FailureReason = &reason
	d.touch()
}

// IsClosed reports whether the delivery can no longer change.
func (d *Delivery) IsClosed() bool {
	return d.Status == models.DeliveryStatusDelivered || d.Status == models.DeliveryStatusFailed
}

func (d *Delivery) touch() {
	d.Timestamps = d.Timestamps.Update()
	d.Version = d.Version.Update()
}

// DeliveryRepository stores delivery snapshots, at most one per order.
// FindByOrderID returns (nil, nil) when the order has no delivery.
type DeliveryRepository interface {
	Save(ctx context.Context, delivery *Delivery) error
	FindByOrderID(ctx context.Context, orderID models.OrderID) (*Delivery, error)
}
