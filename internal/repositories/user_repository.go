package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"elitetransport-backend/internal/models"
	"elitetransport-backend/pkg/database"
)

// UserRepository handles user database operations.
type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, first_name, last_name, phone, password_hash, google_id, picture_url, auth_method, verified`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	var passwordHash, googleID, pictureURL sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone,
		&passwordHash, &googleID, &pictureURL, &u.AuthMethod, &u.Verified); err != nil {
		return nil, err
	}
	u.PasswordHash = passwordHash.String
	u.GoogleID = googleID.String
	u.PictureURL = pictureURL.String
	return &u, nil
}

// GetByEmail fetches a user by email, case-sensitively as stored; callers
// should lower-case the email before calling.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// GetByGoogleID fetches a user by federated provider subject.
func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, googleID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by google id: %w", err)
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// CountAll returns the total number of users, for the admin dashboard
// bootstrap.
func (r *UserRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, first_name, last_name, phone, password_hash, google_id, picture_url, auth_method, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query, u.Email, u.FirstName, u.LastName, u.Phone,
		nullIfEmpty(u.PasswordHash), nullIfEmpty(u.GoogleID), nullIfEmpty(u.PictureURL),
		u.AuthMethod, u.Verified).Scan(&u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// AttachGoogleID links a federated provider subject to an existing
// email-registered account on first federated sign-in.
func (r *UserRepository) AttachGoogleID(ctx context.Context, userID int64, googleID, pictureURL string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET google_id = $1, picture_url = COALESCE(NULLIF($2, ''), picture_url) WHERE id = $3`,
		googleID, pictureURL, userID)
	if err != nil {
		return fmt.Errorf("failed to attach google id: %w", err)
	}
	return nil
}

// UpdatePasswordHash rewrites a user's password hash, used to upgrade a
// legacy hash format after a successful legacy login.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
