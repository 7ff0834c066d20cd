package services

import (
	"context"
	"testing"

	"elitetransport-backend/internal/models"
)

type stubRouteRepoCatalog struct {
	groups []models.RouteGroup
	routes []models.Route
}

func (s *stubRouteRepoCatalog) ListGroups(ctx context.Context) ([]models.RouteGroup, error) {
	return s.groups, nil
}
func (s *stubRouteRepoCatalog) ListRoutes(ctx context.Context) ([]models.Route, error) {
	return s.routes, nil
}

type stubBusRepoCatalog struct{ buses []models.Bus }

func (s *stubBusRepoCatalog) ListAll(ctx context.Context) ([]models.Bus, error) {
	return s.buses, nil
}

type stubTripRepoCatalog struct{ active []models.TripSchedule }

func (s *stubTripRepoCatalog) ListActive(ctx context.Context) ([]models.TripSchedule, error) {
	return s.active, nil
}

type stubCatalogCache struct {
	cached []models.CatalogGroup
	setN   int
}

func (s *stubCatalogCache) GetCachedGroups(ctx context.Context) ([]models.CatalogGroup, error) {
	return s.cached, nil
}
func (s *stubCatalogCache) SetCachedGroups(ctx context.Context, groups []models.CatalogGroup) error {
	s.setN++
	s.cached = groups
	return nil
}

func TestCatalogService_ListCatalog_BuildsAndOverlaysActiveTrip(t *testing.T) {
	routeRepo := &stubRouteRepoCatalog{
		groups: []models.RouteGroup{{ID: 1, Key: "north", Name: "Northern corridor"}},
		routes: []models.Route{{ID: 10, GroupID: 1, Name: "Accra - Kumasi"}},
	}
	busRepo := &stubBusRepoCatalog{buses: []models.Bus{
		{ID: 100, RouteID: 10, Name: "VIP 1", Capacity: 50, Price: 40},
	}}
	tripRepo := &stubTripRepoCatalog{active: []models.TripSchedule{
		{ID: 500, BusID: 100, Price: 55, DepartureDate: "2026-08-01", DepartureTime: "08:00"},
	}}
	cache := &stubCatalogCache{}
	svc := NewCatalogService(routeRepo, busRepo, tripRepo, cache)

	groups, err := svc.ListCatalog(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(groups) != 1 || len(groups[0].Routes) != 1 || len(groups[0].Routes[0].Buses) != 1 {
		t.Fatalf("unexpected catalog shape: %+v", groups)
	}
	bus := groups[0].Routes[0].Buses[0]
	if bus.Price != 55 || bus.TripID == nil || *bus.TripID != 500 {
		t.Fatalf("expected the active trip's price/id to overlay the bus entry, got %+v", bus)
	}
	if cache.setN != 1 {
		t.Fatalf("expected the freshly built catalog to populate the cache, got %d writes", cache.setN)
	}
}

func TestCatalogService_ListCatalog_ServesFromCache(t *testing.T) {
	cached := []models.CatalogGroup{{Key: "north", Name: "Northern corridor"}}
	cache := &stubCatalogCache{cached: cached}
	svc := NewCatalogService(&stubRouteRepoCatalog{}, &stubBusRepoCatalog{}, &stubTripRepoCatalog{}, cache)

	groups, err := svc.ListCatalog(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(groups) != 1 || groups[0].Key != "north" {
		t.Fatalf("expected the cached catalog to be returned as-is, got %+v", groups)
	}
}
