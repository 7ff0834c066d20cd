package models

// Bus is a physical vehicle assigned to a route. AvailableSeats is a
// denormalized hint only; the authoritative seat state is always derived
// from bookings and seat locks (see services.SeatAvailabilityService).
type Bus struct {
	ID             int64   `json:"id" db:"id"`
	RouteID        int64   `json:"route_id" db:"route_id"`
	Name           string  `json:"name" db:"name"`
	PlateNumber    string  `json:"plate_number" db:"plate_number"`
	Capacity       int     `json:"capacity" db:"capacity"`
	AvailableSeats int     `json:"available_seats" db:"available_seats"`
	Price          float64 `json:"price" db:"price"`
	RouteText      string  `json:"route" db:"route_text"`
}

// DefaultCapacity is used by the seat key normalizer when a bus's capacity
// is unknown (e.g. a seat lookup with no bus row loaded yet).
const DefaultCapacity = 50
