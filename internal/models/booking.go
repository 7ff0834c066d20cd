package models

import "time"

// BookingStatus is the lifecycle state of a Booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking represents one seat sold on one trip. Never mutated except status
// and receipt linkage.
type Booking struct {
	ID          int64         `json:"id" db:"id"`
	PassengerID int64         `json:"passenger_id" db:"passenger_id"`
	BusID       int64         `json:"bus_id" db:"bus_id"`
	TripID      *int64        `json:"trip_id,omitempty" db:"trip_id"`
	SeatNumber  string        `json:"seat" db:"seat_number"`
	PricePaid   float64       `json:"price_paid" db:"price_paid"`
	Status      BookingStatus `json:"status" db:"status"`
	ExternalRef string        `json:"external_ref" db:"external_ref"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// BookingReceipt links a Booking to the artifact generated by the external
// receipt service.
type BookingReceipt struct {
	ID          int64     `json:"id" db:"id"`
	BookingID   int64     `json:"booking_id" db:"booking_id"`
	ReceiptURL  string    `json:"receipt_url" db:"receipt_url"`
	DriveFileID string    `json:"drive_file_id,omitempty" db:"drive_file_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// BookingRequest is the inbound payload for POST /api/booking/confirm and
// the admin manual-booking endpoint (which omits PaystackRef).
type BookingRequest struct {
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	NokName     string   `json:"nokName,omitempty"`
	NokPhone    string   `json:"nokPhone,omitempty"`
	BusID       int64    `json:"busId"`
	TripID      *int64   `json:"tripId,omitempty"`
	Seats       []string `json:"seats"`
	Price       float64  `json:"price"`
	UnitPrice   float64  `json:"unitPrice,omitempty"`
	LockID      string   `json:"lockId"`
	PaystackRef string   `json:"paystackRef"`
}

// IsValid reports whether the request carries the minimum fields needed to
// attempt finalization.
func (br *BookingRequest) IsValid() bool {
	return br.BusID > 0 && len(br.Seats) > 0 && br.Email != "" && br.Phone != ""
}

// BookingConfirmation is the response shape for the booking/confirm endpoint
// and the manual-booking admin endpoint.
type BookingConfirmation struct {
	BookingID     string   `json:"booking_id"`
	BookingIDs    []string `json:"booking_ids"`
	PassengerName string   `json:"passenger_name"`
	RouteName     string   `json:"route_name"`
	BusName       string   `json:"bus_name"`
	Seat          string   `json:"seat"`
	Seats         []string `json:"seats"`
	SeatCount     int      `json:"seat_count"`
	Price         float64  `json:"price"`
	Phone         string   `json:"phone"`
	Email         string   `json:"email"`
	Status        string   `json:"status"`
	ReceiptURL    string   `json:"receipt_url,omitempty"`
	Duplicate     bool     `json:"duplicate,omitempty"`
}
