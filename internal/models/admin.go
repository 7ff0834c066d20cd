package models

import "time"

// AdminBookingFilter narrows the admin upcoming-bookings report. Zero values
// (nil RouteID, empty strings, zero Limit) mean "no filter" / "default page
// size", applied by the repository layer.
type AdminBookingFilter struct {
	RouteID  *int64
	DateFrom string
	DateTo   string
	Status   string
	Limit    int
	Offset   int
}

// AdminBookingRow is one joined row of the upcoming-bookings report.
type AdminBookingRow struct {
	BookingID     int64     `json:"booking_id"`
	BookingRef    string    `json:"booking_ref"`
	PassengerName string    `json:"passenger_name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	RouteID       int64     `json:"route_id"`
	RouteName     string    `json:"route_name"`
	BusName       string    `json:"bus_name"`
	Seat          string    `json:"seat"`
	Price         float64   `json:"price"`
	Status        string    `json:"status"`
	DepartureDate string    `json:"departure_date,omitempty"`
	DepartureTime string    `json:"departure_time,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// AdminBookingSummary totals the entire filtered result set, not just the
// current page.
type AdminBookingSummary struct {
	TotalBookings int     `json:"total_bookings"`
	TotalRevenue  float64 `json:"total_revenue"`
}

// AdminBookingGroup buckets AdminBookingRow by route for the report
// response.
type AdminBookingGroup struct {
	RouteID   int64             `json:"route_id"`
	RouteName string            `json:"route_name"`
	Bookings  []AdminBookingRow `json:"bookings"`
}

// AdminBookingsReport is the full response for the upcoming-bookings report.
type AdminBookingsReport struct {
	Groups  []AdminBookingGroup  `json:"groups"`
	Summary AdminBookingSummary  `json:"summary"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// FleetTripOption is one active trip entry in the fleet options response,
// carrying the booked-count/seats-left figures the admin UI needs.
type FleetTripOption struct {
	TripSchedule
	BookedCount int `json:"booked_count"`
	SeatsLeft   int `json:"seats_left"`
}

// FleetOptions is the response for the admin fleet-options endpoint.
type FleetOptions struct {
	RouteGroups []RouteGroup      `json:"route_groups"`
	Routes      []Route           `json:"routes"`
	Buses       []Bus             `json:"buses"`
	ActiveTrips []FleetTripOption `json:"active_trips"`
	RecentTrips []TripSchedule    `json:"recent_trips"`
}

// AdminRecentBooking is one row of the dashboard's recent-bookings list.
type AdminRecentBooking struct {
	BookingID     int64     `json:"booking_id"`
	BookingRef    string    `json:"booking_ref"`
	PassengerName string    `json:"passenger_name"`
	Seat          string    `json:"seat"`
	Price         float64   `json:"price"`
	Status        string    `json:"status"`
	ReceiptURL    string    `json:"receipt_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// DashboardBootstrap is the admin dashboard landing payload.
type DashboardBootstrap struct {
	RouteCount       int                  `json:"route_count"`
	BusCount         int                  `json:"bus_count"`
	UserCount        int                  `json:"user_count"`
	BookingCounts    map[string]int       `json:"booking_counts"`
	ConfirmedRevenue float64              `json:"confirmed_revenue"`
	RecentBookings   []AdminRecentBooking `json:"recent_bookings"`
}

// FleetUtilization is one row of the supplemented bus fleet utilization
// report: confirmed-seats / capacity across a bus's current or most recent
// trip.
type FleetUtilization struct {
	BusID          int64   `json:"bus_id"`
	BusName        string  `json:"bus_name"`
	Capacity       int     `json:"capacity"`
	ConfirmedSeats int     `json:"confirmed_seats"`
	Utilization    float64 `json:"utilization"`
}

// CreateBusRequest is the payload for POST /api/admin/buses.
type CreateBusRequest struct {
	RouteID        int64   `json:"route_id"`
	Name           string  `json:"name"`
	PlateNumber    string  `json:"plate_number"`
	Capacity       int     `json:"capacity"`
	AvailableSeats int     `json:"available_seats,omitempty"`
	Price          float64 `json:"price"`
	RouteText      string  `json:"route"`
}

// CreateTripRequest is the payload for POST /api/admin/trips.
type CreateTripRequest struct {
	RouteID       int64   `json:"route_id"`
	BusID         int64   `json:"bus_id"`
	DepartureDate string  `json:"departure_date"`
	DepartureTime string  `json:"departure_time"`
	Price         float64 `json:"price"`
}
