package services

import (
	"context"
	"sort"
	"strconv"

	"elitetransport-backend/internal/apperr"
	"elitetransport-backend/internal/models"
	"elitetransport-backend/internal/seatkey"
)

// BusRepositoryAvailability defines the bus lookup SeatAvailabilityService
// needs.
type BusRepositoryAvailability interface {
	GetByID(ctx context.Context, id int64) (*models.Bus, error)
}

// BookingRepositoryAvailability defines the booked-seat lookup
// SeatAvailabilityService needs.
type BookingRepositoryAvailability interface {
	ListConfirmedSeats(ctx context.Context, busID int64, tripID *int64) ([]string, error)
}

// SeatLockRepositoryAvailability defines the lock lookups
// SeatAvailabilityService needs.
type SeatLockRepositoryAvailability interface {
	ListUnexpiredForBus(ctx context.Context, busID int64, tripID *int64) ([]models.SeatLock, error)
}

// SeatAvailabilityService computes, for a (bus, trip), the partition of all
// seats into booked / locked-by-others / locked-by-caller / available.
type SeatAvailabilityService struct {
	busRepo     BusRepositoryAvailability
	bookingRepo BookingRepositoryAvailability
	lockRepo    SeatLockRepositoryAvailability
	resolver    *TripResolver
}

func NewSeatAvailabilityService(
	busRepo BusRepositoryAvailability,
	bookingRepo BookingRepositoryAvailability,
	lockRepo SeatLockRepositoryAvailability,
	resolver *TripResolver,
) *SeatAvailabilityService {
	return &SeatAvailabilityService{
		busRepo:     busRepo,
		bookingRepo: bookingRepo,
		lockRepo:    lockRepo,
		resolver:    resolver,
	}
}

// GetSeats returns the full availability breakdown for a bus/trip, as seen
// by the caller identified by ownerLockID (may be empty for an anonymous
// read). Seats held by the caller remain in Available (so the UI can show
// them as selected) and also appear in OwnLocked.
func (s *SeatAvailabilityService) GetSeats(ctx context.Context, busID int64, tripID *int64, ownerLockID string) (*models.SeatAvailability, error) {
	bus, err := s.busRepo.GetByID(ctx, busID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "bus not found", err)
	}

	trip, err := s.resolver.Resolve(ctx, busID, tripID)
	if err != nil {
		return nil, err
	}
	var resolvedTripID *int64
	if trip != nil {
		id := trip.ID
		resolvedTripID = &id
	}

	bookedSeats, err := s.bookingRepo.ListConfirmedSeats(ctx, busID, resolvedTripID)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to list booked seats")
	}
	locks, err := s.lockRepo.ListUnexpiredForBus(ctx, busID, resolvedTripID)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to list seat locks")
	}

	capacity := bus.Capacity
	if capacity <= 0 {
		capacity = models.DefaultCapacity
	}

	// Rows written before the seat normalizer existed may still carry a
	// legacy spelling (e.g. "D8"); normalize every seat read back from the
	// database so a legacy row and its canonical equivalent collapse into
	// the same set instead of appearing as two different seats.
	booked := map[string]bool{}
	for _, seat := range bookedSeats {
		booked[normalizeSeatOrRaw(seat, capacity)] = true
	}
	lockedByOthers := map[string]bool{}
	lockedByCaller := map[string]bool{}
	for _, l := range locks {
		seat := normalizeSeatOrRaw(l.SeatNumber, capacity)
		if ownerLockID != "" && l.LockedBy == ownerLockID {
			lockedByCaller[seat] = true
		} else {
			lockedByOthers[seat] = true
		}
	}

	var available, lockedOut, ownLockedOut []string
	for n := 1; n <= capacity; n++ {
		seat := strconv.Itoa(n)
		switch {
		case booked[seat]:
			// excluded from every other set
		case lockedByOthers[seat]:
			lockedOut = append(lockedOut, seat)
		case lockedByCaller[seat]:
			ownLockedOut = append(ownLockedOut, seat)
			available = append(available, seat)
		default:
			available = append(available, seat)
		}
	}

	bookedList := make([]string, 0, len(booked))
	for seat := range booked {
		bookedList = append(bookedList, seat)
	}
	sort.Strings(bookedList)

	return &models.SeatAvailability{
		TripID:    resolvedTripID,
		Available: available,
		Locked:    lockedOut,
		OwnLocked: ownLockedOut,
		Booked:    bookedList,
	}, nil
}

// normalizeSeatOrRaw canonicalizes a seat value stored in the database,
// falling back to the raw value if it doesn't match any recognized
// format (defensive: treats it as its own distinct seat rather than
// dropping it).
func normalizeSeatOrRaw(raw string, capacity int) string {
	if seat, err := seatkey.Normalize(raw, capacity); err == nil {
		return seat
	}
	return raw
}
