package models

import "time"

// SeatLock is a short-lived hold on a single (bus, trip, seat). At most one
// unexpired row may exist per (bus, trip, canonical seat).
type SeatLock struct {
	ID        int64     `json:"id" db:"id"`
	BusID     int64     `json:"bus_id" db:"bus_id"`
	TripID    *int64    `json:"trip_id,omitempty" db:"trip_id"`
	SeatNumber string   `json:"seat" db:"seat_number"`
	LockedBy  string    `json:"-" db:"locked_by"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// LockTTL is how long a fresh or refreshed seat lock stays valid.
const LockTTL = 5 * time.Minute
