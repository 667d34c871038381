package infrastructure

import (
	"context"
	"math/rand"

	"github.com/fooddelivery/order-system/shared/models"
)

// RandomGateway approves charges with a configured probability, standing
// in for a real acquirer integration.
type RandomGateway struct {
	approvalPercent int
}

// NewRandomGateway creates a gateway approving the given percentage of
// charges.
func NewRandomGateway(approvalPercent int) *RandomGateway {
	return &RandomGateway{approvalPercent: approvalPercent}
}

// Approve implements application.GatewayDecider.
func (g *RandomGateway) Approve(ctx context.Context, orderID models.OrderID, amount models.MonetaryAmount, method models.PaymentMethod) bool {
	return rand.Intn(100) < g.approvalPercent
}
