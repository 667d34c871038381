package infrastructure

import (
	"context"
	"math/rand"

	"github.com/fooddelivery/order-system/shared/models"
)

// RandomDrivers finds a driver with a configured probability. It stands
// in for real fleet data; the decision port keeps the probability out of
// the command handler.
type RandomDrivers struct {
	availabilityPercent int
}

// NewRandomDrivers creates a decider with the given availability rate.
func NewRandomDrivers(availabilityPercent int) *RandomDrivers {
	return &RandomDrivers{availabilityPercent: availabilityPercent}
}

// DriverAvailable implements application.DriverDecider.
func (d *RandomDrivers) DriverAvailable(ctx context.Context, orderID models.OrderID, address models.Address) bool {
	return rand.Intn(100) < d.availabilityPercent
}
