package models

import "time"

// TripStatus is the lifecycle state of a TripSchedule.
type TripStatus string

const (
	TripStatusActive    TripStatus = "active"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// TripSchedule is a single scheduled run of a bus on a route. A bus may have
// at most one active trip at a time; while active it is the authoritative
// source of price and departure for its bus.
type TripSchedule struct {
	ID             int64      `json:"id" db:"id"`
	RouteID        int64      `json:"route_id" db:"route_id"`
	BusID          int64      `json:"bus_id" db:"bus_id"`
	DepartureDate  string     `json:"departure_date" db:"departure_date"`
	DepartureTime  string     `json:"departure_time" db:"departure_time"`
	Price          float64    `json:"price" db:"price"`
	Status         TripStatus `json:"status" db:"status"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty" db:"ended_at"`
}
