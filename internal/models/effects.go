package models

import "time"

// ReceiptSMSEvent is published to the effects bus whenever a booking needs
// its best-effort receipt + SMS fan-out. It carries everything the
// consumer needs without a further database round trip.
type ReceiptSMSEvent struct {
	BookingIDs    []int64   `json:"booking_ids"`
	PassengerName string    `json:"passenger_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Seats         []string  `json:"seats"`
	Amount        float64   `json:"amount"`
	SkipIfReceipt bool      `json:"skip_if_receipt"`
	Timestamp     time.Time `json:"timestamp"`
}
