package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"elitetransport-backend/internal/models"
	"elitetransport-backend/pkg/database"
)

// BusRepository handles bus database operations.
type BusRepository struct {
	db *database.DB
}

func NewBusRepository(db *database.DB) *BusRepository {
	return &BusRepository{db: db}
}

const busColumns = `id, route_id, name, plate_number, capacity, available_seats, price, route_text`

func scanBus(row interface{ Scan(...interface{}) error }) (*models.Bus, error) {
	var b models.Bus
	if err := row.Scan(&b.ID, &b.RouteID, &b.Name, &b.PlateNumber, &b.Capacity,
		&b.AvailableSeats, &b.Price, &b.RouteText); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByID fetches a bus by id.
func (r *BusRepository) GetByID(ctx context.Context, id int64) (*models.Bus, error) {
	query := `SELECT ` + busColumns + ` FROM buses WHERE id = $1`
	b, err := scanBus(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("bus not found")
		}
		return nil, fmt.Errorf("failed to get bus: %w", err)
	}
	return b, nil
}

// ListAll returns every bus, ordered by id.
func (r *BusRepository) ListAll(ctx context.Context) ([]models.Bus, error) {
	query := `SELECT ` + busColumns + ` FROM buses ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list buses: %w", err)
	}
	defer rows.Close()

	var buses []models.Bus
	for rows.Next() {
		b, err := scanBus(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bus: %w", err)
		}
		buses = append(buses, *b)
	}
	return buses, rows.Err()
}

// ListByRoute returns every bus assigned to a route.
func (r *BusRepository) ListByRoute(ctx context.Context, routeID int64) ([]models.Bus, error) {
	query := `SELECT ` + busColumns + ` FROM buses WHERE route_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list buses by route: %w", err)
	}
	defer rows.Close()

	var buses []models.Bus
	for rows.Next() {
		b, err := scanBus(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bus: %w", err)
		}
		buses = append(buses, *b)
	}
	return buses, rows.Err()
}

// CountAll returns the total number of buses, for the admin dashboard
// bootstrap.
func (r *BusRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM buses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count buses: %w", err)
	}
	return count, nil
}

// CountConfirmedSeatsByBus returns the number of confirmed bookings against
// each bus's most recent trip (active, or most recently ended if none is
// active), for the fleet utilization report.
func (r *BusRepository) CountConfirmedSeatsByBus(ctx context.Context, busID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings b
		WHERE b.bus_id = $1 AND b.status = 'confirmed'
		  AND b.trip_id = (
			SELECT t.id FROM trip_schedules t WHERE t.bus_id = $1
			ORDER BY (t.status = 'active') DESC, t.started_at DESC LIMIT 1
		  )`, busID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count confirmed seats for bus: %w", err)
	}
	return count, nil
}

// Create inserts a new bus.
func (r *BusRepository) Create(ctx context.Context, b *models.Bus) (*models.Bus, error) {
	query := `
		INSERT INTO buses (route_id, name, plate_number, capacity, available_seats, price, route_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query, b.RouteID, b.Name, b.PlateNumber,
		b.Capacity, b.AvailableSeats, b.Price, b.RouteText).Scan(&b.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create bus: %w", err)
	}
	return b, nil
}

// SetAvailableSeats updates the denormalized seat-count hint.
func (r *BusRepository) SetAvailableSeats(ctx context.Context, busID int64, availableSeats int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE buses SET available_seats = $1 WHERE id = $2`, availableSeats, busID)
	if err != nil {
		return fmt.Errorf("failed to update available seats: %w", err)
	}
	return nil
}

// AssignTrip updates a bus's route and price to match a newly started trip.
func (r *BusRepository) AssignTrip(ctx context.Context, busID, routeID int64, price float64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE buses SET route_id = $1, price = $2 WHERE id = $3`, routeID, price, busID)
	if err != nil {
		return fmt.Errorf("failed to assign trip to bus: %w", err)
	}
	return nil
}
