package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"elitetransport-backend/pkg/database"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockSeatLockRepo(t *testing.T) (*SeatLockRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	wrapped := &database.DB{DB: db}
	return NewSeatLockRepository(wrapped), mock, func() { db.Close() }
}

func TestSeatLockRepository_GetUnexpired_NoneFound(t *testing.T) {
	repo, mock, cleanup := newMockSeatLockRepo(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, bus_id, trip_id, seat_number, locked_by, expires_at
		FROM seat_locks
		WHERE bus_id = $1 AND seat_number = $2 AND COALESCE(trip_id, -1) = COALESCE($3, -1)
		  AND expires_at > now()`)).
		WithArgs(int64(1), "38", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "bus_id", "trip_id", "seat_number", "locked_by", "expires_at"}))

	lock, err := repo.GetUnexpired(context.Background(), 1, nil, "38")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if lock != nil {
		t.Fatalf("expected nil lock, got %+v", lock)
	}
}

const tryAcquireQuery = `
		INSERT INTO seat_locks (bus_id, trip_id, seat_number, locked_by, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (bus_id, (COALESCE(trip_id, -1)), seat_number)
		DO UPDATE SET locked_by = EXCLUDED.locked_by, expires_at = EXCLUDED.expires_at
		WHERE seat_locks.locked_by = EXCLUDED.locked_by OR seat_locks.expires_at <= now()
		RETURNING locked_by`

func TestSeatLockRepository_TryAcquire_GrantsFreshLock(t *testing.T) {
	repo, mock, cleanup := newMockSeatLockRepo(t)
	defer cleanup()

	expiresAt := time.Now().Add(5 * time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta(tryAcquireQuery)).
		WithArgs(int64(1), nil, "38", "lock-owner-a", expiresAt).
		WillReturnRows(sqlmock.NewRows([]string{"locked_by"}).AddRow("lock-owner-a"))

	acquired, err := repo.TryAcquire(context.Background(), 1, nil, "38", "lock-owner-a", expiresAt)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !acquired {
		t.Fatalf("expected lock to be acquired")
	}
}

func TestSeatLockRepository_TryAcquire_LosesToLiveLock(t *testing.T) {
	repo, mock, cleanup := newMockSeatLockRepo(t)
	defer cleanup()

	expiresAt := time.Now().Add(5 * time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta(tryAcquireQuery)).
		WithArgs(int64(1), nil, "38", "lock-owner-b", expiresAt).
		WillReturnRows(sqlmock.NewRows([]string{"locked_by"}))

	acquired, err := repo.TryAcquire(context.Background(), 1, nil, "38", "lock-owner-b", expiresAt)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if acquired {
		t.Fatalf("expected the conflicting live lock to win")
	}
}

func TestSeatLockRepository_DeleteByOwner_NoMatchIsNotError(t *testing.T) {
	repo, mock, cleanup := newMockSeatLockRepo(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`
		DELETE FROM seat_locks
		WHERE bus_id = $1 AND seat_number = $2 AND COALESCE(trip_id, -1) = COALESCE($3, -1) AND locked_by = $4`)).
		WithArgs(int64(1), "38", nil, "lock-owner-a").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteByOwner(context.Background(), 1, nil, "38", "lock-owner-a"); err != nil {
		t.Fatalf("expected idempotent no-op, got error %v", err)
	}
}
