package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"elitetransport-backend/internal/models"
	"elitetransport-backend/pkg/database"
)

// TripRepository handles trip_schedules database operations.
type TripRepository struct {
	db *database.DB
}

func NewTripRepository(db *database.DB) *TripRepository {
	return &TripRepository{db: db}
}

const tripColumns = `id, route_id, bus_id, departure_date, departure_time, price, status, started_at, ended_at`

func scanTrip(row interface{ Scan(...interface{}) error }) (*models.TripSchedule, error) {
	var t models.TripSchedule
	if err := row.Scan(&t.ID, &t.RouteID, &t.BusID, &t.DepartureDate, &t.DepartureTime,
		&t.Price, &t.Status, &t.StartedAt, &t.EndedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID fetches a trip by id.
func (r *TripRepository) GetByID(ctx context.Context, id int64) (*models.TripSchedule, error) {
	query := `SELECT ` + tripColumns + ` FROM trip_schedules WHERE id = $1`
	t, err := scanTrip(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("trip not found")
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return t, nil
}

// GetActiveForBus returns the bus's active trip, or nil if it has none.
func (r *TripRepository) GetActiveForBus(ctx context.Context, busID int64) (*models.TripSchedule, error) {
	query := `SELECT ` + tripColumns + ` FROM trip_schedules
		WHERE bus_id = $1 AND status = 'active'
		ORDER BY started_at DESC LIMIT 1`

	t, err := scanTrip(r.db.QueryRowContext(ctx, query, busID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active trip: %w", err)
	}
	return t, nil
}

// ListActive returns every active trip, with its bus and route joined in by
// the caller via separate lookups (kept simple; the admin fleet view already
// has bus/route maps loaded).
func (r *TripRepository) ListActive(ctx context.Context) ([]models.TripSchedule, error) {
	query := `SELECT ` + tripColumns + ` FROM trip_schedules WHERE status = 'active' ORDER BY started_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active trips: %w", err)
	}
	defer rows.Close()

	var trips []models.TripSchedule
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

// ListRecentNonActive returns the most recent non-active trips, limited to n.
func (r *TripRepository) ListRecentNonActive(ctx context.Context, limit int) ([]models.TripSchedule, error) {
	query := `SELECT ` + tripColumns + ` FROM trip_schedules
		WHERE status != 'active'
		ORDER BY started_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent trips: %w", err)
	}
	defer rows.Close()

	var trips []models.TripSchedule
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

// Create inserts a new active trip.
func (r *TripRepository) Create(ctx context.Context, t *models.TripSchedule) (*models.TripSchedule, error) {
	query := `
		INSERT INTO trip_schedules (route_id, bus_id, departure_date, departure_time, price, status, started_at)
		VALUES ($1, $2, $3, $4, $5, 'active', $6)
		RETURNING id`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query, t.RouteID, t.BusID, t.DepartureDate,
		t.DepartureTime, t.Price, now).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}
	t.Status = models.TripStatusActive
	t.StartedAt = now
	return t, nil
}

// End transitions an active trip to completed, recording ended_at. Returns
// sql.ErrNoRows if the trip was not active.
func (r *TripRepository) End(ctx context.Context, tripID int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE trip_schedules SET status = 'completed', ended_at = $1
		WHERE id = $2 AND status = 'active'`, time.Now(), tripID)
	if err != nil {
		return fmt.Errorf("failed to end trip: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountConfirmedBookings counts confirmed bookings for a trip, used to
// recompute a bus's available_seats hint.
func (r *TripRepository) CountConfirmedBookings(ctx context.Context, tripID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE trip_id = $1 AND status = 'confirmed'`, tripID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count confirmed bookings: %w", err)
	}
	return count, nil
}
