package handlers

import (
	"context"
	"net/http"
	"strconv"

	"elitetransport-backend/internal/models"
)

// CatalogService defines the catalog lookup CatalogHandler needs.
type CatalogService interface {
	ListCatalog(ctx context.Context) ([]models.CatalogGroup, error)
}

// PassengerLister defines the paginated passenger listing CatalogHandler
// needs.
type PassengerLister interface {
	List(ctx context.Context, limit, offset int) ([]models.Passenger, error)
}

// CatalogHandler serves the public route/bus catalog and the passenger
// listing.
type CatalogHandler struct {
	catalog    CatalogService
	passengers PassengerLister
}

func NewCatalogHandler(catalog CatalogService, passengers PassengerLister) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, passengers: passengers}
}

// Routes handles GET /api/routes, re-keying the assembled catalog groups
// into the wire's groupKey-to-routes map shape.
func (h *CatalogHandler) Routes(w http.ResponseWriter, r *http.Request) {
	groups, err := h.catalog.ListCatalog(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make(map[string][]models.CatalogRoute, len(groups))
	for _, g := range groups {
		out[g.Key] = g.Routes
	}
	writeJSON(w, http.StatusOK, out)
}

// Passengers handles GET /api/passengers?limit&offset.
func (h *CatalogHandler) Passengers(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

	passengers, err := h.passengers.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"passengers": passengers,
		"limit":      limit,
		"offset":     offset,
	})
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
