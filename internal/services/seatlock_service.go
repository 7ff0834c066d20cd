package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"elitetransport-backend/internal/apperr"
	"elitetransport-backend/internal/models"
	"elitetransport-backend/internal/seatkey"
	"elitetransport-backend/pkg/metrics"

	"github.com/google/uuid"
)

// SeatLockRepositoryLocking defines the lock persistence operations
// SeatLockService needs.
type SeatLockRepositoryLocking interface {
	DeleteExpired(ctx context.Context, busID int64, tripID *int64, seat string) error
	GetUnexpired(ctx context.Context, busID int64, tripID *int64, seat string) (*models.SeatLock, error)
	TryAcquire(ctx context.Context, busID int64, tripID *int64, seat, lockOwner string, expiresAt time.Time) (bool, error)
	DeleteByOwner(ctx context.Context, busID int64, tripID *int64, seat, lockOwner string) error
}

// BookingRepositoryLocking defines the confirmed-booking check
// SeatLockService needs before granting a lock.
type BookingRepositoryLocking interface {
	ConfirmedExistsSimple(ctx context.Context, busID int64, tripID *int64, canonical, legacy string) (bool, error)
}

// SeatLockService acquires, refreshes, and releases short-lived seat holds.
// "At most one unexpired lock per (bus, trip, seat)" is enforced by the
// database itself: TryAcquire is a single INSERT ... ON CONFLICT statement
// backed by a unique index, so two concurrent Acquire calls for the same
// never-locked seat can't both believe they won — the second one's
// conflict clause evaluates against the first's already-committed (or
// in-flight, serialized by the index) row.
type SeatLockService struct {
	busRepo  BusRepositoryAvailability
	lockRepo SeatLockRepositoryLocking
	bookings BookingRepositoryLocking
	resolver *TripResolver
}

func NewSeatLockService(
	busRepo BusRepositoryAvailability,
	lockRepo SeatLockRepositoryLocking,
	bookings BookingRepositoryLocking,
	resolver *TripResolver,
) *SeatLockService {
	return &SeatLockService{busRepo: busRepo, lockRepo: lockRepo, bookings: bookings, resolver: resolver}
}

// Acquire grants or extends a seat lock for the requesting owner.
func (s *SeatLockService) Acquire(ctx context.Context, busID int64, rawSeat string, tripID *int64, lockID string) (*models.SeatLockResult, error) {
	bus, err := s.busRepo.GetByID(ctx, busID)
	if err != nil {
		metrics.LockAcquisitions.WithLabelValues("error").Inc()
		return nil, apperr.Wrap(apperr.NotFound, "bus not found", err)
	}
	trip, err := s.resolver.Resolve(ctx, busID, tripID)
	if err != nil {
		metrics.LockAcquisitions.WithLabelValues("error").Inc()
		return nil, err
	}
	var resolvedTripID *int64
	if trip != nil {
		id := trip.ID
		resolvedTripID = &id
	}

	capacity := bus.Capacity
	if capacity <= 0 {
		capacity = models.DefaultCapacity
	}
	seat, err := seatkey.Normalize(rawSeat, capacity)
	if err != nil {
		metrics.LockAcquisitions.WithLabelValues("error").Inc()
		return nil, apperr.Wrap(apperr.InputInvalid, "invalid seat", err)
	}
	legacy, err := seatkey.ToLegacy(seat)
	if err != nil {
		metrics.LockAcquisitions.WithLabelValues("error").Inc()
		return nil, apperr.Wrap(apperr.InputInvalid, "invalid seat", err)
	}

	lockOwner := lockID
	if lockOwner == "" {
		lockOwner = newLockOwner()
	}

	if err := s.lockRepo.DeleteExpired(ctx, busID, resolvedTripID, seat); err != nil {
		metrics.LockAcquisitions.WithLabelValues("error").Inc()
		return nil, apperr.Internalf(err, "failed to garbage collect seat locks")
	}

	booked, err := s.bookings.ConfirmedExistsSimple(ctx, busID, resolvedTripID, seat, legacy)
	if err != nil {
		metrics.LockAcquisitions.WithLabelValues("error").Inc()
		return nil, apperr.Internalf(err, "failed to check confirmed booking")
	}
	if booked {
		metrics.LockAcquisitions.WithLabelValues("already_booked").Inc()
		return nil, apperr.New(apperr.SeatAlreadyBooked, "seat is already booked")
	}

	expiresAt := time.Now().Add(models.LockTTL)
	acquired, err := s.lockRepo.TryAcquire(ctx, busID, resolvedTripID, seat, lockOwner, expiresAt)
	if err != nil {
		metrics.LockAcquisitions.WithLabelValues("error").Inc()
		return nil, apperr.Internalf(err, "failed to acquire seat lock")
	}
	if !acquired {
		metrics.LockAcquisitions.WithLabelValues("already_locked").Inc()
		return nil, apperr.New(apperr.SeatAlreadyLocked, "seat is already locked by another session")
	}
	metrics.LockAcquisitions.WithLabelValues("granted").Inc()

	return &models.SeatLockResult{
		LockID:    lockOwner,
		TripID:    resolvedTripID,
		Seat:      seat,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// Release drops a seat lock held by lockID; unlocking an unowned or
// already-gone lock is a silent no-op.
func (s *SeatLockService) Release(ctx context.Context, busID int64, rawSeat string, tripID *int64, lockID string) (string, *int64, error) {
	if lockID == "" {
		return "", nil, apperr.New(apperr.InputInvalid, "lockId is required")
	}

	bus, err := s.busRepo.GetByID(ctx, busID)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.NotFound, "bus not found", err)
	}
	trip, err := s.resolver.Resolve(ctx, busID, tripID)
	if err != nil {
		return "", nil, err
	}
	var resolvedTripID *int64
	if trip != nil {
		id := trip.ID
		resolvedTripID = &id
	}

	capacity := bus.Capacity
	if capacity <= 0 {
		capacity = models.DefaultCapacity
	}
	seat, err := seatkey.Normalize(rawSeat, capacity)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.InputInvalid, "invalid seat", err)
	}

	if err := s.lockRepo.DeleteByOwner(ctx, busID, resolvedTripID, seat, lockID); err != nil {
		return "", nil, apperr.Internalf(err, "failed to release seat lock")
	}
	return seat, resolvedTripID, nil
}

// newLockOwner mints a fresh opaque lock-session id when the caller doesn't
// supply one.
func newLockOwner() string {
	id := uuid.New()
	var extra [8]byte
	_, _ = rand.Read(extra[:])
	return "lock_" + id.String() + "_" + base64.RawURLEncoding.EncodeToString(extra[:])
}
