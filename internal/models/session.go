package models

import "time"

// AuthSession is an opaque bearer session. Revocation is a row delete;
// there is no refresh endpoint.
type AuthSession struct {
	Token     string    `json:"token" db:"token"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// SessionTTL is the lifetime of a freshly issued session token.
const SessionTTL = 7 * 24 * time.Hour
