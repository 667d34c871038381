package infrastructure

import (
	"context"
	"math/rand"

	"github.com/fooddelivery/order-system/shared/models"
)

// RandomAvailability accepts orders with a configured probability. It
// stands in for real capacity checks; the decision port keeps the
// probability out of the command handler.
type RandomAvailability struct {
	acceptancePercent int
}

// NewRandomAvailability creates a decider accepting the given percentage
// of orders.
func NewRandomAvailability(acceptancePercent int) *RandomAvailability {
	return &RandomAvailability{acceptancePercent: acceptancePercent}
}

// CanAccept implements application.AvailabilityDecider.
func (a *RandomAvailability) CanAccept(ctx context.Context, orderID models.OrderID, items []models.OrderItem) bool {
	return rand.Intn(100) < a.acceptancePercent
}
