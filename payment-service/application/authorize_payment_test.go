package application

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fooddelivery/order-system/shared/models"
)

func authorizeCommand() *AuthorizePaymentCommand {
	return &AuthorizePaymentCommand{
		OrderID:       "550e8400-e29b-41d4-a716-446655440000",
		Amount:        "91.80",
		PaymentMethod: "CREDIT_CARD",
	}
}

func TestAuthorizePayment_Approved(t *testing.T) {
	repo := newFakePaymentRepository()
	uc := NewAuthorizePayment(repo, staticGateway{approve: true})

	response, err := uc.Execute(context.Background(), authorizeCommand())
	require.NoError(t, err)

	assert.Equal(t, string(models.PaymentStatusAuthorized), response.Status)
	require.NotNil(t, response.TransactionID)
	assert.True(t, strings.HasPrefix(*response.TransactionID, "TXN-"))
	assert.Empty(t, response.Message)
	assert.Equal(t, 1, repo.saves)
}

func TestAuthorizePayment_Declined(t *testing.T) {
	repo := newFakePaymentRepository()
	uc := NewAuthorizePayment(repo, staticGateway{approve: false})

	response, err := uc.Execute(context.Background(), authorizeCommand())
	require.NoError(t, err, "a declined payment is an outcome, not an error")

	assert.Equal(t, string(models.PaymentStatusRejected), response.Status)
	assert.Nil(t, response.TransactionID)
	assert.Equal(t, "Payment declined by issuer", response.Message)
	assert.Equal(t, 1, repo.saves, "the declined attempt is recorded")
}

func TestAuthorizePayment_IdempotentPerOrder(t *testing.T) {
	repo := newFakePaymentRepository()
	uc := NewAuthorizePayment(repo, staticGateway{approve: true})

	first, err := uc.Execute(context.Background(), authorizeCommand())
	require.NoError(t, err)

	second, err := uc.Execute(context.Background(), authorizeCommand())
	require.NoError(t, err)

	assert.Equal(t, string(models.PaymentStatusAuthorized), second.Status)
	require.NotNil(t, second.TransactionID)
	assert.Equal(t, *first.TransactionID, *second.TransactionID, "no second charge for the same order")
	assert.Equal(t, "Payment already authorized", second.Message)
	assert.Equal(t, 1, repo.saves)
}

func TestAuthorizePayment_DeclinedThenRetried(t *testing.T) {
	repo := newFakePaymentRepository()

	declined, err := NewAuthorizePayment(repo, staticGateway{approve: false}).
		Execute(context.Background(), authorizeCommand())
	require.NoError(t, err)
	assert.Equal(t, string(models.PaymentStatusRejected), declined.Status)

	// Only an AUTHORIZED payment is idempotent; a declined order may retry.
	retried, err := NewAuthorizePayment(repo, staticGateway{approve: true}).
		Execute(context.Background(), authorizeCommand())
	require.NoError(t, err)
	assert.Equal(t, string(models.PaymentStatusAuthorized), retried.Status)
	assert.NotNil(t, retried.TransactionID)
}

func TestAuthorizePayment_InvalidCommands(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cmd *AuthorizePaymentCommand)
	}{
		{name: "bad order id", mutate: func(cmd *AuthorizePaymentCommand) { cmd.OrderID = "not-a-uuid" }},
		{name: "bad amount", mutate: func(cmd *AuthorizePaymentCommand) { cmd.Amount = "ninety" }},
		{name: "negative amount", mutate: func(cmd *AuthorizePaymentCommand) { cmd.Amount = "-5.00" }},
		{name: "unknown method", mutate: func(cmd *AuthorizePaymentCommand) { cmd.PaymentMethod = "CASH" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakePaymentRepository()
			uc := NewAuthorizePayment(repo, staticGateway{approve: true})

			cmd := authorizeCommand()
			tt.mutate(cmd)

			response, err := uc.Execute(context.Background(), cmd)
			assert.Error(t, err)
			assert.Nil(t, response)
			assert.Zero(t, repo.saves)
		})
	}
}
