package handlers

import (
	"context"
	"net/http"

	"elitetransport-backend/internal/models"
)

// BookingFinalizerService defines the booking confirm operation
// BookingHandler needs.
type BookingFinalizerService interface {
	Finalize(ctx context.Context, req *models.BookingRequest) (*models.BookingConfirmation, error)
}

// BookingHandler serves the payment-gated booking confirmation endpoint.
type BookingHandler struct {
	finalizer BookingFinalizerService
}

func NewBookingHandler(finalizer BookingFinalizerService) *BookingHandler {
	return &BookingHandler{finalizer: finalizer}
}

// Confirm handles POST /api/booking/confirm.
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	confirmation, err := h.finalizer.Finalize(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmation)
}
