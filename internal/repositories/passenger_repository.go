package repositories

import (
	"context"
	"fmt"

	"elitetransport-backend/internal/models"
	"elitetransport-backend/pkg/database"
)

// PassengerRepository handles passenger database operations. A row is
// created fresh for every booking; there is no dedup against existing
// passengers.
type PassengerRepository struct {
	db *database.DB
}

func NewPassengerRepository(db *database.DB) *PassengerRepository {
	return &PassengerRepository{db: db}
}

// Create inserts a new passenger row within the given executor, so callers
// can run it inside a transaction alongside booking inserts.
func (r *PassengerRepository) Create(ctx context.Context, exec Executor, p *models.Passenger) (*models.Passenger, error) {
	query := `
		INSERT INTO passengers (first_name, last_name, email, phone, nok_name, nok_phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query, p.FirstName, p.LastName, p.Email, p.Phone, p.NokName, p.NokPhone).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create passenger: %w", err)
	}
	return p, nil
}

// GetByID fetches a passenger by id.
func (r *PassengerRepository) GetByID(ctx context.Context, id int64) (*models.Passenger, error) {
	var p models.Passenger
	err := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, phone, nok_name, nok_phone, created_at
		FROM passengers WHERE id = $1`, id).
		Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.NokName, &p.NokPhone, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get passenger: %w", err)
	}
	return &p, nil
}

// List returns passengers ordered by id descending, for the admin/public passenger
// listing with limit/offset pagination.
func (r *PassengerRepository) List(ctx context.Context, limit, offset int) ([]models.Passenger, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, nok_name, nok_phone, created_at
		FROM passengers
		ORDER BY id DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list passengers: %w", err)
	}
	defer rows.Close()

	var out []models.Passenger
	for rows.Next() {
		var p models.Passenger
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
			&p.NokName, &p.NokPhone, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan passenger: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
