package services

import (
	"context"
	"log"

	"elitetransport-backend/internal/models"
)

// RouteRepositoryCatalog defines the route lookups CatalogService needs.
type RouteRepositoryCatalog interface {
	ListGroups(ctx context.Context) ([]models.RouteGroup, error)
	ListRoutes(ctx context.Context) ([]models.Route, error)
}

// BusRepositoryCatalog defines the bus lookups CatalogService needs.
type BusRepositoryCatalog interface {
	ListAll(ctx context.Context) ([]models.Bus, error)
}

// TripRepositoryCatalog defines the active-trip lookup CatalogService needs
// to overlay live price/departure/trip id onto each bus entry.
type TripRepositoryCatalog interface {
	ListActive(ctx context.Context) ([]models.TripSchedule, error)
}

// CatalogCache is the read-through cache CatalogService reads from and
// populates. Satisfied by *cache.CatalogCacheService.
type CatalogCache interface {
	GetCachedGroups(ctx context.Context) ([]models.CatalogGroup, error)
	SetCachedGroups(ctx context.Context, groups []models.CatalogGroup) error
}

// CatalogService assembles the public route/bus catalog, read-through
// cached since it changes only on admin fleet mutations.
type CatalogService struct {
	routeRepo RouteRepositoryCatalog
	busRepo   BusRepositoryCatalog
	tripRepo  TripRepositoryCatalog
	cache     CatalogCache
}

func NewCatalogService(routeRepo RouteRepositoryCatalog, busRepo BusRepositoryCatalog, tripRepo TripRepositoryCatalog, cache CatalogCache) *CatalogService {
	return &CatalogService{routeRepo: routeRepo, busRepo: busRepo, tripRepo: tripRepo, cache: cache}
}

// ListCatalog returns the grouped route/bus catalog, serving from cache when
// possible. A cache read or write failure never fails the request; it just
// falls back to (or skips) the cache.
func (s *CatalogService) ListCatalog(ctx context.Context) ([]models.CatalogGroup, error) {
	if cached, err := s.cache.GetCachedGroups(ctx); err != nil {
		log.Printf("catalog: cache read failed, falling back to database: %v", err)
	} else if cached != nil {
		return cached, nil
	}

	groups, err := s.buildCatalog(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetCachedGroups(ctx, groups); err != nil {
		log.Printf("catalog: failed to populate cache: %v", err)
	}
	return groups, nil
}

func (s *CatalogService) buildCatalog(ctx context.Context) ([]models.CatalogGroup, error) {
	routeGroups, err := s.routeRepo.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	routes, err := s.routeRepo.ListRoutes(ctx)
	if err != nil {
		return nil, err
	}
	buses, err := s.busRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	activeTrips, err := s.tripRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	tripByBus := make(map[int64]models.TripSchedule, len(activeTrips))
	for _, t := range activeTrips {
		tripByBus[t.BusID] = t
	}

	busesByRoute := make(map[int64][]models.CatalogBus)
	for _, b := range buses {
		entry := models.CatalogBus{
			ID: b.ID, Name: b.Name, PlateNumber: b.PlateNumber, Capacity: b.Capacity,
			AvailableSeats: b.AvailableSeats, Price: b.Price, RouteText: b.RouteText,
		}
		if trip, ok := tripByBus[b.ID]; ok {
			tripID := trip.ID
			entry.TripID = &tripID
			entry.Price = trip.Price
			entry.DepartureDate = trip.DepartureDate
			entry.DepartureTime = trip.DepartureTime
		}
		busesByRoute[b.RouteID] = append(busesByRoute[b.RouteID], entry)
	}

	routesByGroup := make(map[int64][]models.CatalogRoute)
	for _, r := range routes {
		routesByGroup[r.GroupID] = append(routesByGroup[r.GroupID], models.CatalogRoute{
			ID: r.ID, Name: r.Name, Description: r.Description, Buses: busesByRoute[r.ID],
		})
	}

	groups := make([]models.CatalogGroup, 0, len(routeGroups))
	for _, g := range routeGroups {
		groups = append(groups, models.CatalogGroup{
			Key: g.Key, Name: g.Name, Description: g.Description, Routes: routesByGroup[g.ID],
		})
	}
	return groups, nil
}
