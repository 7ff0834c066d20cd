// Package schema bootstraps tables the base installation may be missing,
// once per process.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Manager runs the one-shot bootstrap guarded by a mutex, the same pattern
// main.go uses for the per-IP rate limiter map: a single shared lock
// protecting a small piece of process-wide state, rather than a library.
type Manager struct {
	db *sql.DB

	mu   sync.Mutex
	done bool
}

func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// Ensure runs the bootstrap exactly once per process. Concurrent callers
// block on the same mutex; if the migration fails the latch is rewound so
// the next caller retries instead of wedging the process in a half-migrated
// state forever.
func (m *Manager) Ensure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done {
		return nil
	}
	if err := m.migrate(ctx); err != nil {
		return fmt.Errorf("schema: bootstrap failed: %w", err)
	}
	m.done = true
	return nil
}

func (m *Manager) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trip_schedules (
			id SERIAL PRIMARY KEY,
			route_id INTEGER NOT NULL,
			bus_id INTEGER NOT NULL,
			departure_date TEXT,
			departure_time TEXT,
			price DOUBLE PRECISION NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			ended_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_schedules_status ON trip_schedules(status)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_schedules_route_id ON trip_schedules(route_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_schedules_bus_id ON trip_schedules(bus_id)`,
		`CREATE TABLE IF NOT EXISTS booking_receipts (
			id SERIAL PRIMARY KEY,
			booking_id INTEGER NOT NULL UNIQUE,
			receipt_url TEXT NOT NULL,
			drive_file_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if err := m.addColumnIfMissing(ctx, "bookings", "trip_id", "INTEGER"); err != nil {
		return err
	}
	if err := m.addColumnIfMissing(ctx, "seat_locks", "trip_id", "INTEGER"); err != nil {
		return err
	}
	if _, err := m.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_bookings_trip_id ON bookings(trip_id)`); err != nil {
		return err
	}
	if _, err := m.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_seat_locks_trip_id ON seat_locks(trip_id)`); err != nil {
		return err
	}
	// One seat_locks row per (bus, trip-or-null, seat): the expression index
	// folds a null trip into -1 so the constraint holds in single-trip mode
	// too. Backs the atomic ON CONFLICT upsert in
	// SeatLockRepository.TryAcquire. Must run after trip_id is added above.
	if _, err := m.db.ExecContext(ctx,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_seat_locks_unique
			ON seat_locks (bus_id, (COALESCE(trip_id, -1)), seat_number)`); err != nil {
		return err
	}
	return nil
}

// addColumnIfMissing introspects information_schema and adds the column only
// when absent, so repeated process restarts against an already-migrated
// database are no-ops.
func (m *Manager) addColumnIfMissing(ctx context.Context, table, column, ddlType string) error {
	var exists bool
	err := m.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = $1 AND column_name = $2
		)`, table, column).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = m.db.ExecContext(ctx,
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, ddlType))
	return err
}
