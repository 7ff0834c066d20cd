package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"elitetransport-backend/internal/models"
	"elitetransport-backend/pkg/database"
)

// SessionRepository handles auth_sessions database operations.
type SessionRepository struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a freshly issued session token.
func (r *SessionRepository) Create(ctx context.Context, s *models.AuthSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		s.Token, s.UserID, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetValid fetches a session by token, returning nil if it doesn't exist or
// has already expired.
func (r *SessionRepository) GetValid(ctx context.Context, token string) (*models.AuthSession, error) {
	var s models.AuthSession
	err := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at FROM auth_sessions WHERE token = $1`, token).
		Scan(&s.Token, &s.UserID, &s.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if s.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	return &s, nil
}
