package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/kitchen-service/application"
)

// TicketHandlers contains ticket HTTP handlers
type TicketHandlers struct {
	getTicket *application.GetTicket
}

// NewTicketHandlers creates new ticket handlers
func NewTicketHandlers(getTicket *application.GetTicket) *TicketHandlers {
	return &TicketHandlers{getTicket: getTicket}
}

// GetTicket returns the ticket for an order
func (h *TicketHandlers) GetTicket(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	response, err := h.getTicket.Execute(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, application.ErrTicketNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes registers ticket routes
func (h *TicketHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/tickets", func(r chi.Router) {
		r.Get("/{orderId}", h.GetTicket)
	})
}
