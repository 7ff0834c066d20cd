package models

// SeatAvailability is the response shape for GET /api/bus/:busId/seats.
type SeatAvailability struct {
	TripID    *int64   `json:"trip_id,omitempty"`
	Available []string `json:"available"`
	Locked    []string `json:"locked"`
	OwnLocked []string `json:"own_locked"`
	Booked    []string `json:"booked"`
}

// SeatLockResult is the response shape for POST /api/bus/:busId/lock-seat.
type SeatLockResult struct {
	LockID    string `json:"lock_id"`
	TripID    *int64 `json:"trip_id,omitempty"`
	Seat      string `json:"seat"`
	ExpiresAt string `json:"expires_at"`
}

// CatalogBus is one bus entry nested under a route in the public catalog.
type CatalogBus struct {
	ID             int64   `json:"id"`
	TripID         *int64  `json:"tripId,omitempty"`
	Name           string  `json:"name"`
	PlateNumber    string  `json:"plate_number"`
	Capacity       int     `json:"capacity"`
	AvailableSeats int     `json:"availableSeats"`
	Price          float64 `json:"price"`
	RouteText      string  `json:"route"`
	DepartureDate  string  `json:"departure_date,omitempty"`
	DepartureTime  string  `json:"departure_time,omitempty"`
}

// CatalogRoute is a route entry nested under a group key in the public
// catalog response.
type CatalogRoute struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Buses       []CatalogBus `json:"buses"`
}

// CatalogGroup is the top-level entry of the public catalog response,
// one per RouteGroup.
type CatalogGroup struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Routes      []CatalogRoute `json:"routes"`
}
