package handlers

import (
	"context"
	"net/http"

	"elitetransport-backend/internal/apperr"
	"elitetransport-backend/internal/models"
)

// BookingLister defines the per-passenger booking lookup UserHandler needs.
type BookingLister interface {
	ListByPassengerEmail(ctx context.Context, email string) ([]models.Booking, error)
}

// UserHandler serves the signed-in user's own bookings and profile. Every
// route here must be mounted behind RequireAuth.
type UserHandler struct {
	bookings BookingLister
}

func NewUserHandler(bookings BookingLister) *UserHandler {
	return &UserHandler{bookings: bookings}
}

// Bookings handles GET /api/user/bookings.
func (h *UserHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, apperr.New(apperr.AuthRequired, "missing bearer token"))
		return
	}
	bookings, err := h.bookings.ListByPassengerEmail(r.Context(), user.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

// Profile handles GET /api/user/profile.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, apperr.New(apperr.AuthRequired, "missing bearer token"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}
