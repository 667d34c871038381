package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fooddelivery/order-system/shared/models"
)

func newTestPayment(t *testing.T) *Payment {
	t.Helper()
	amount, err := models.ParseMonetaryAmount("91.80")
	require.NoError(t, err)
	return NewPayment(models.NewOrderID(), amount, models.PaymentMethodCreditCard)
}

func TestNewPayment(t *testing.T) {
	payment := newTestPayment(t)

	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Nil(t, payment.TransactionID)
	assert.Nil(t, payment.ProcessedAt)
	assert.Equal(t, 1, payment.Version.Value)
}

func TestPayment_AuthorizeApproved(t *testing.T) {
	payment := newTestPayment(t)

	payment.Authorize(true)
	assert.Equal(t, models.PaymentStatusAuthorized, payment.Status)
	require.NotNil(t, payment.TransactionID)
	ref := payment.TransactionID.String()
	assert.True(t, strings.HasPrefix(ref, "TXN-"), "transaction ref %q", ref)
	assert.Len(t, ref, 12)
	assert.Equal(t, strings.ToUpper(ref), ref)
	assert.Nil(t, payment.ErrorMessage)
	assert.NotNil(t, payment.ProcessedAt)
}

func TestPayment_AuthorizeDeclined(t *testing.T) {
	payment := newTestPayment(t)

	payment.Authorize(false)
	assert.Equal(t, models.PaymentStatusRejected, payment.Status)
	assert.Nil(t, payment.TransactionID, "a declined payment never gets a transaction")
	require.NotNil(t, payment.ErrorMessage)
	assert.Equal(t, "Payment declined by issuer", *payment.ErrorMessage)
}

func TestPayment_Refund(t *testing.T) {
	payment := newTestPayment(t)
	payment.Authorize(true)

	assert.True(t, payment.Refund("Kitchen rejected: Kitchen at full capacity"))
	assert.Equal(t, models.PaymentStatusRefunded, payment.Status)

	assert.False(t, payment.Refund("again"), "a refunded payment cannot be refunded twice")
	assert.Equal(t, models.PaymentStatusRefunded, payment.Status)
}

func TestPayment_RefundRequiresAuthorization(t *testing.T) {
	pending := newTestPayment(t)
	assert.False(t, pending.Refund("reason"))
	assert.Equal(t, models.PaymentStatusPending, pending.Status)

	declined := newTestPayment(t)
	declined.Authorize(false)
	assert.False(t, declined.Refund("reason"))
	assert.Equal(t, models.PaymentStatusRejected, declined.Status)
}
