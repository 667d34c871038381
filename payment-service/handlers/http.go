package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/payment-service/application"
)

// PaymentHandlers contains payment HTTP handlers
type PaymentHandlers struct {
	authorizePayment *application.AuthorizePayment
	refundPayment    *application.RefundPayment
	getPayment       *application.GetPayment
}

// NewPaymentHandlers creates new payment handlers
func NewPaymentHandlers(
	authorizePayment *application.AuthorizePayment,
	refundPayment *application.RefundPayment,
	getPayment *application.GetPayment,
) *PaymentHandlers {
	return &PaymentHandlers{
		authorizePayment: authorizePayment,
		refundPayment:    refundPayment,
		getPayment:       getPayment,
	}
}

// AuthorizePayment authorizes a payment for an order
func (h *PaymentHandlers) AuthorizePayment(w http.ResponseWriter, r *http.Request) {
	var cmd application.AuthorizePaymentCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.authorizePayment.Execute(r.Context(), &cmd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// RefundPayment refunds an authorized payment
func (h *PaymentHandlers) RefundPayment(w http.ResponseWriter, r *http.Request) {
	var cmd application.RefundPaymentCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.refundPayment.Execute(r.Context(), &cmd)
	if err != nil {
		if errors.Is(err, application.ErrTransactionNotFound) {
			http.Error(w, "Transaction not found", http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// GetPayment returns the payment for an order
func (h *PaymentHandlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	response, err := h.getPayment.Execute(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, application.ErrPaymentNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers payment routes
func (h *PaymentHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/authorize", h.AuthorizePayment)
		r.Post("/refund", h.RefundPayment)
		r.Get("/order/{orderId}", h.GetPayment)
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
