package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"elitetransport-backend/internal/models"
	"elitetransport-backend/pkg/database"
)

// SeatLockRepository handles seat_locks database operations. Every method
// compares trip ids with COALESCE(trip_id, -1) so a null trip (legacy,
// single-trip mode) is distinct from any numbered trip yet self-consistent
// across lock/unlock/availability calls.
type SeatLockRepository struct {
	db *database.DB
}

func NewSeatLockRepository(db *database.DB) *SeatLockRepository {
	return &SeatLockRepository{db: db}
}

// DeleteExpired removes expired locks for a (bus, seat) pair across any
// trip, and any stray lock whose trip id doesn't match the caller's
// trip-or-null, isolating trip namespaces from each other.
func (r *SeatLockRepository) DeleteExpired(ctx context.Context, busID int64, tripID *int64, seat string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM seat_locks
		WHERE bus_id = $1 AND seat_number = $2
		  AND (expires_at <= now() OR COALESCE(trip_id, -1) != COALESCE($3, -1))`,
		busID, seat, tripID)
	if err != nil {
		return fmt.Errorf("failed to garbage collect seat locks: %w", err)
	}
	return nil
}

// GetUnexpired returns the unexpired lock for (bus, trip, seat), or nil.
func (r *SeatLockRepository) GetUnexpired(ctx context.Context, busID int64, tripID *int64, seat string) (*models.SeatLock, error) {
	var l models.SeatLock
	err := r.db.QueryRowContext(ctx, `
		SELECT id, bus_id, trip_id, seat_number, locked_by, expires_at
		FROM seat_locks
		WHERE bus_id = $1 AND seat_number = $2 AND COALESCE(trip_id, -1) = COALESCE($3, -1)
		  AND expires_at > now()`,
		busID, seat, tripID).Scan(&l.ID, &l.BusID, &l.TripID, &l.SeatNumber, &l.LockedBy, &l.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get seat lock: %w", err)
	}
	return &l, nil
}

// TryAcquire grants or extends a seat lock for lockOwner in a single
// statement: insert a fresh row, or if one already exists for
// (bus, trip-or-null, seat) under idx_seat_locks_unique, overwrite it only
// when it is either already owned by lockOwner (extend) or expired
// (takeover). If a live lock held by someone else blocks the conflict
// clause, the update is skipped and acquired comes back false, so the
// caller never silently clobbers another session's hold.
func (r *SeatLockRepository) TryAcquire(ctx context.Context, busID int64, tripID *int64, seat, lockOwner string, expiresAt time.Time) (acquired bool, err error) {
	var owner string
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO seat_locks (bus_id, trip_id, seat_number, locked_by, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (bus_id, (COALESCE(trip_id, -1)), seat_number)
		DO UPDATE SET locked_by = EXCLUDED.locked_by, expires_at = EXCLUDED.expires_at
		WHERE seat_locks.locked_by = EXCLUDED.locked_by OR seat_locks.expires_at <= now()
		RETURNING locked_by`,
		busID, tripID, seat, lockOwner, expiresAt).Scan(&owner)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire seat lock: %w", err)
	}
	return owner == lockOwner, nil
}

// DeleteByOwner deletes the lock matching (bus, trip, seat, owner). A
// no-match is not an error; unlock is idempotent.
func (r *SeatLockRepository) DeleteByOwner(ctx context.Context, busID int64, tripID *int64, seat, lockOwner string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM seat_locks
		WHERE bus_id = $1 AND seat_number = $2 AND COALESCE(trip_id, -1) = COALESCE($3, -1) AND locked_by = $4`,
		busID, seat, tripID, lockOwner)
	if err != nil {
		return fmt.Errorf("failed to release seat lock: %w", err)
	}
	return nil
}

// DeleteByID deletes specific lock rows by id, used after a booking
// finalizer consumes them.
func (r *SeatLockRepository) DeleteByID(ctx context.Context, exec Executor, ids []int64) error {
	for _, id := range ids {
		if _, err := exec.ExecContext(ctx, `DELETE FROM seat_locks WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete consumed seat lock: %w", err)
		}
	}
	return nil
}

// DeleteAllForTrip wipes every lock for a trip, used by admin end-trip.
func (r *SeatLockRepository) DeleteAllForTrip(ctx context.Context, tripID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM seat_locks WHERE trip_id = $1`, tripID)
	if err != nil {
		return fmt.Errorf("failed to delete trip seat locks: %w", err)
	}
	return nil
}

// ListUnexpiredForBus returns every unexpired lock for a (bus, trip), used
// by the seat availability engine.
func (r *SeatLockRepository) ListUnexpiredForBus(ctx context.Context, busID int64, tripID *int64) ([]models.SeatLock, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, bus_id, trip_id, seat_number, locked_by, expires_at
		FROM seat_locks
		WHERE bus_id = $1 AND COALESCE(trip_id, -1) = COALESCE($2, -1) AND expires_at > now()`,
		busID, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seat locks: %w", err)
	}
	defer rows.Close()

	var out []models.SeatLock
	for rows.Next() {
		var l models.SeatLock
		if err := rows.Scan(&l.ID, &l.BusID, &l.TripID, &l.SeatNumber, &l.LockedBy, &l.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan seat lock: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetUnexpiredByOwner fetches the unexpired lock for (bus, trip, seat) owned
// by lockOwner specifically, used by the booking finalizer's lock-ownership
// proof.
func (r *SeatLockRepository) GetUnexpiredByOwner(ctx context.Context, busID int64, tripID *int64, seat, lockOwner string) (*models.SeatLock, error) {
	var l models.SeatLock
	err := r.db.QueryRowContext(ctx, `
		SELECT id, bus_id, trip_id, seat_number, locked_by, expires_at
		FROM seat_locks
		WHERE bus_id = $1 AND seat_number = $2 AND COALESCE(trip_id, -1) = COALESCE($3, -1)
		  AND locked_by = $4 AND expires_at > now()`,
		busID, seat, tripID, lockOwner).Scan(&l.ID, &l.BusID, &l.TripID, &l.SeatNumber, &l.LockedBy, &l.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get owned seat lock: %w", err)
	}
	return &l, nil
}
