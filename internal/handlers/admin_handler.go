package handlers

import (
	"context"
	"net/http"
	"strconv"

	"elitetransport-backend/internal/apperr"
	"elitetransport-backend/internal/models"

	"github.com/gorilla/mux"
)

// AdminService defines the fleet management, manual booking, and reporting
// operations AdminHandler needs.
type AdminService interface {
	FleetOptions(ctx context.Context) (*models.FleetOptions, error)
	CreateBus(ctx context.Context, req *models.CreateBusRequest) (*models.Bus, error)
	CreateTrip(ctx context.Context, req *models.CreateTripRequest) (*models.TripSchedule, error)
	EndTrip(ctx context.Context, tripID int64) error
	CreateManualBooking(ctx context.Context, req *models.BookingRequest) (*models.BookingConfirmation, error)
	UpcomingBookings(ctx context.Context, filter models.AdminBookingFilter) (*models.AdminBookingsReport, error)
	DashboardBootstrap(ctx context.Context) (*models.DashboardBootstrap, error)
	FleetUtilization(ctx context.Context) ([]models.FleetUtilization, error)
}

// AdminHandler serves fleet administration and reporting. Every route here
// must be mounted behind RequireAuth and RequireAdmin.
type AdminHandler struct {
	admin AdminService
}

func NewAdminHandler(admin AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// FleetOptions handles GET /api/admin/fleet-options.
func (h *AdminHandler) FleetOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.admin.FleetOptions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, options)
}

// CreateBus handles POST /api/admin/buses.
func (h *AdminHandler) CreateBus(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	bus, err := h.admin.CreateBus(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bus)
}

// CreateTrip handles POST /api/admin/trips.
func (h *AdminHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	trip, err := h.admin.CreateTrip(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, trip)
}

// EndTrip handles POST /api/admin/trips/{id}/end.
func (h *AdminHandler) EndTrip(w http.ResponseWriter, r *http.Request) {
	tripID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, apperr.New(apperr.InputInvalid, "invalid trip id"))
		return
	}
	if err := h.admin.EndTrip(r.Context(), tripID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ended": true})
}

// CreateManualBooking handles POST /api/admin/bookings.
func (h *AdminHandler) CreateManualBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	confirmation, err := h.admin.CreateManualBooking(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmation)
}

// UpcomingBookings handles GET /api/admin/bookings.
func (h *AdminHandler) UpcomingBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.AdminBookingFilter{
		DateFrom: query.Get("dateFrom"),
		DateTo:   query.Get("dateTo"),
		Status:   query.Get("status"),
		Limit:    parseIntDefault(query.Get("limit"), 50),
		Offset:   parseIntDefault(query.Get("offset"), 0),
	}
	if raw := query.Get("routeId"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.RouteID = &id
		}
	}

	report, err := h.admin.UpcomingBookings(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Dashboard handles GET /api/admin/dashboard.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	bootstrap, err := h.admin.DashboardBootstrap(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bootstrap)
}

// FleetUtilization handles GET /api/admin/fleet/utilization.
func (h *AdminHandler) FleetUtilization(w http.ResponseWriter, r *http.Request) {
	rows, err := h.admin.FleetUtilization(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"fleet": rows})
}
