package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"elitetransport-backend/internal/models"
)

type stubCatalogService struct {
	groups []models.CatalogGroup
	err    error
}

func (s *stubCatalogService) ListCatalog(ctx context.Context) ([]models.CatalogGroup, error) {
	return s.groups, s.err
}

type stubPassengerLister struct {
	passengers []models.Passenger
	err        error

	gotLimit, gotOffset int
}

func (s *stubPassengerLister) List(ctx context.Context, limit, offset int) ([]models.Passenger, error) {
	s.gotLimit, s.gotOffset = limit, offset
	return s.passengers, s.err
}

func TestCatalogHandler_Routes_ReKeysByGroup(t *testing.T) {
	catalog := &stubCatalogService{groups: []models.CatalogGroup{
		{Key: "accra-kumasi", Name: "Accra to Kumasi", Routes: []models.CatalogRoute{{ID: 1, Name: "Express"}}},
		{Key: "accra-tamale", Name: "Accra to Tamale", Routes: []models.CatalogRoute{{ID: 2, Name: "Direct"}}},
	}}
	handler := NewCatalogHandler(catalog, &stubPassengerLister{})

	req := httptest.NewRequest(http.MethodGet, "/api/routes", nil)
	rr := httptest.NewRecorder()

	handler.Routes(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string][]models.CatalogRoute
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(resp))
	}
	if len(resp["accra-kumasi"]) != 1 || resp["accra-kumasi"][0].Name != "Express" {
		t.Fatalf("unexpected accra-kumasi group: %+v", resp["accra-kumasi"])
	}
}

func TestCatalogHandler_Passengers_DefaultsLimitAndOffset(t *testing.T) {
	lister := &stubPassengerLister{}
	handler := NewCatalogHandler(&stubCatalogService{}, lister)

	req := httptest.NewRequest(http.MethodGet, "/api/passengers", nil)
	rr := httptest.NewRecorder()

	handler.Passengers(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if lister.gotLimit != 50 || lister.gotOffset != 0 {
		t.Fatalf("expected default limit=50 offset=0, got limit=%d offset=%d", lister.gotLimit, lister.gotOffset)
	}
}

func TestCatalogHandler_Passengers_ParsesQueryParams(t *testing.T) {
	lister := &stubPassengerLister{}
	handler := NewCatalogHandler(&stubCatalogService{}, lister)

	req := httptest.NewRequest(http.MethodGet, "/api/passengers?limit=10&offset=20", nil)
	rr := httptest.NewRecorder()

	handler.Passengers(rr, req)

	if lister.gotLimit != 10 || lister.gotOffset != 20 {
		t.Fatalf("expected limit=10 offset=20, got limit=%d offset=%d", lister.gotLimit, lister.gotOffset)
	}
}
