package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/order-service/application"
	"github.com/fooddelivery/order-system/shared/models"
)

const defaultPaymentTimeout = 5 * time.Second

// HTTPPaymentClient calls the payment service over HTTP. Every request
// carries the client timeout; the saga treats a timeout like a rejection,
// so the timeout bounds how long an order can sit in PaymentPending.
type HTTPPaymentClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPaymentClient creates a payment client with an explicit timeout.
func NewHTTPPaymentClient(baseURL string, timeout time.Duration) *HTTPPaymentClient {
	if timeout <= 0 {
		timeout = defaultPaymentTimeout
	}
	return &HTTPPaymentClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type authorizeRequest struct {
	OrderID       string `json:"order_id"`
	Amount        string `json:"amount"`
	PaymentMethod string `json:"payment_method"`
}

type authorizeResponse struct {
	TransactionID *string `json:"transaction_id,omitempty"`
	Status        string  `json:"status"`
	Message       string  `json:"message,omitempty"`
}

type refundRequest struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

type refundResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Authorize requests a synchronous payment authorization.
func (c *HTTPPaymentClient) Authorize(ctx context.Context, orderID models.OrderID, amount models.MonetaryAmount, method models.PaymentMethod) (*application.AuthorizationResult, error) {
	req := &authorizeRequest{
		OrderID:       orderID.String(),
		Amount:        amount.String(),
		PaymentMethod: string(method),
	}

	var resp authorizeResponse
	if err := c.post(ctx, "/api/v1/payments/authorize", req, &resp); err != nil {
		return nil, errors.Wrap(err, "payment authorization request failed")
	}

	result := &application.AuthorizationResult{
		Status:  models.PaymentStatus(resp.Status),
		Message: resp.Message,
	}
	if resp.TransactionID != nil {
		transactionID, err := models.NewTransactionID(*resp.TransactionID)
		if err != nil {
			return nil, errors.Wrap(err, "invalid transaction ID in payment response")
		}
		result.TransactionID = &transactionID
	}

	return result, nil
}

// Refund requests a refund for a previously authorized payment.
func (c *HTTPPaymentClient) Refund(ctx context.Context, orderID models.OrderID, transactionID models.TransactionID, reason string) (*application.RefundResult, error) {
	req := &refundRequest{
		OrderID:       orderID.String(),
		TransactionID: transactionID.String(),
		Reason:        reason,
	}

	var resp refundResponse
	if err := c.post(ctx, "/api/v1/payments/refund", req, &resp); err != nil {
		return nil, errors.Wrap(err, "refund request failed")
	}

	return &application.RefundResult{
		Success: resp.Success,
		Message: resp.Message,
	}, nil
}

func (c *HTTPPaymentClient) post(ctx context.Context, path string, body, target interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.Errorf("payment service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}

	return nil
}
