package services

import (
	"context"

	"elitetransport-backend/internal/apperr"
	"elitetransport-backend/internal/models"
)

// TripRepositoryResolver defines the trip lookups TripResolver needs.
type TripRepositoryResolver interface {
	GetByID(ctx context.Context, id int64) (*models.TripSchedule, error)
	GetActiveForBus(ctx context.Context, busID int64) (*models.TripSchedule, error)
}

// TripResolver resolves the trip a seat operation applies to, honoring
// trip-null mode (no trip rows at all) as a legal, backward-compatible
// state.
type TripResolver struct {
	tripRepo TripRepositoryResolver
}

func NewTripResolver(tripRepo TripRepositoryResolver) *TripResolver {
	return &TripResolver{tripRepo: tripRepo}
}

// Resolve returns the trip to operate against for a bus. If tripID is
// supplied, the trip must exist, belong to busID, and be active. Otherwise
// the bus's current active trip is returned, or nil if it has none.
func (r *TripResolver) Resolve(ctx context.Context, busID int64, tripID *int64) (*models.TripSchedule, error) {
	if tripID != nil {
		trip, err := r.tripRepo.GetByID(ctx, *tripID)
		if err != nil {
			return nil, apperr.Wrap(apperr.NotFound, "trip not found", err)
		}
		if trip.BusID != busID {
			return nil, apperr.New(apperr.NotFound, "trip does not belong to this bus")
		}
		if trip.Status != models.TripStatusActive {
			return nil, apperr.New(apperr.InputInvalid, "trip is not active")
		}
		return trip, nil
	}

	trip, err := r.tripRepo.GetActiveForBus(ctx, busID)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to resolve active trip")
	}
	return trip, nil
}
