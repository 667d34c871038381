package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/delivery-service/application"
)

// DeliveryHandlers contains delivery HTTP handlers
type DeliveryHandlers struct {
	getDelivery *application.GetDelivery
}

// NewDeliveryHandlers creates new delivery handlers
func NewDeliveryHandlers(getDelivery *application.GetDelivery) *DeliveryHandlers {
	return &DeliveryHandlers{getDelivery: getDelivery}
}

// GetDelivery returns the delivery for an order
func (h *DeliveryHandlers) GetDelivery(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	response, err := h.getDelivery.Execute(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, application.ErrDeliveryNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes registers delivery routes
func (h *DeliveryHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/deliveries", func(r chi.Router) {
		r.Get("/{orderId}", h.GetDelivery)
	})
}
