package handlers

import (
	"context"
	"net/http"
	"strconv"

	"elitetransport-backend/internal/apperr"
	"elitetransport-backend/internal/models"

	"github.com/gorilla/mux"
)

// SeatAvailabilityService defines the availability lookup SeatsHandler needs.
type SeatAvailabilityService interface {
	GetSeats(ctx context.Context, busID int64, tripID *int64, ownerLockID string) (*models.SeatAvailability, error)
}

// SeatLockService defines the lock acquire/release SeatsHandler needs.
type SeatLockService interface {
	Acquire(ctx context.Context, busID int64, rawSeat string, tripID *int64, lockID string) (*models.SeatLockResult, error)
	Release(ctx context.Context, busID int64, rawSeat string, tripID *int64, lockID string) (string, *int64, error)
}

// SeatsHandler serves seat availability reads and lock acquire/release.
type SeatsHandler struct {
	availability SeatAvailabilityService
	locks        SeatLockService
}

func NewSeatsHandler(availability SeatAvailabilityService, locks SeatLockService) *SeatsHandler {
	return &SeatsHandler{availability: availability, locks: locks}
}

type lockSeatRequest struct {
	Seat   string `json:"seat"`
	TripID *int64 `json:"tripId,omitempty"`
	LockID string `json:"lockId,omitempty"`
}

// GetSeats handles GET /api/bus/:busId/seats?tripId&lockId.
func (h *SeatsHandler) GetSeats(w http.ResponseWriter, r *http.Request) {
	busID, err := busIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tripID, err := tripIDFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	lockID := r.URL.Query().Get("lockId")

	result, err := h.availability.GetSeats(r.Context(), busID, tripID, lockID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// LockSeat handles POST /api/bus/:busId/lock-seat.
func (h *SeatsHandler) LockSeat(w http.ResponseWriter, r *http.Request) {
	busID, err := busIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req lockSeatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.locks.Acquire(r.Context(), busID, req.Seat, req.TripID, req.LockID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// UnlockSeat handles POST /api/bus/:busId/unlock-seat.
func (h *SeatsHandler) UnlockSeat(w http.ResponseWriter, r *http.Request) {
	busID, err := busIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req lockSeatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	seat, tripID, err := h.locks.Release(r.Context(), busID, req.Seat, req.TripID, req.LockID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"unlocked": true,
		"trip_id":  tripID,
		"seat":     seat,
	})
}

func busIDFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["busId"], 10, 64)
	if err != nil {
		return 0, apperr.New(apperr.InputInvalid, "invalid bus id")
	}
	return id, nil
}

func tripIDFromQuery(r *http.Request) (*int64, error) {
	raw := r.URL.Query().Get("tripId")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperr.New(apperr.InputInvalid, "invalid tripId")
	}
	return &id, nil
}
