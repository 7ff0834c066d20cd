// Package apperr defines the error taxonomy shared by services and handlers,
// and the HTTP status each kind maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error into one of the statuses handlers
// translate to the client.
type Kind string

const (
	InputInvalid             Kind = "input_invalid"
	SeatAlreadyLocked        Kind = "seat_already_locked"
	SeatAlreadyBooked        Kind = "seat_already_booked"
	LockExpired              Kind = "lock_expired"
	PaymentVerificationFailed Kind = "payment_verification_failed"
	PaymentAmountMismatch    Kind = "payment_amount_mismatch"
	AuthRequired             Kind = "auth_required"
	Forbidden                Kind = "forbidden"
	NotFound                 Kind = "not_found"
	Internal                 Kind = "internal"
)

var statusByKind = map[Kind]int{
	InputInvalid:              http.StatusBadRequest,
	SeatAlreadyLocked:         http.StatusBadRequest,
	SeatAlreadyBooked:         http.StatusBadRequest,
	LockExpired:               http.StatusBadRequest,
	PaymentVerificationFailed: http.StatusBadRequest,
	PaymentAmountMismatch:     http.StatusBadRequest,
	AuthRequired:              http.StatusUnauthorized,
	Forbidden:                 http.StatusForbidden,
	NotFound:                  http.StatusNotFound,
	Internal:                  http.StatusInternalServerError,
}

// Error is an application-level error carrying a taxonomy Kind alongside the
// underlying cause, so handlers never need to leak internal detail to the
// client.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New builds a taxonomy error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a taxonomy error around an underlying cause. The cause is never
// exposed to the client; it is only available via errors.Unwrap for logging.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Internalf wraps an unexpected error as Internal, formatting the message.
func Internalf(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: Internal, Message: fmt.Sprintf(format, args...), cause: cause}
}

// As extracts an *Error from err, for handlers deciding how to respond.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusAndMessage resolves any error into an HTTP status and a
// client-facing message, defaulting unrecognized errors to 500/internal.
func StatusAndMessage(err error) (int, string) {
	if e, ok := As(err); ok {
		return e.Status(), e.Message
	}
	return http.StatusInternalServerError, "internal error"
}
