// Package metrics wires the Prometheus counters this service exposes on
// /metrics. The teacher's go.mod already pulls in client_golang; nothing
// here used it until now.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LockAcquisitions counts seat lock attempts by outcome ("granted",
	// "already_locked", "already_booked", "error").
	LockAcquisitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elitetransport_lock_acquisitions_total",
		Help: "Seat lock acquisition attempts by outcome.",
	}, []string{"outcome"})

	// BookingConfirmations counts finalized bookings by outcome ("confirmed",
	// "duplicate", "rejected") and path ("paystack", "manual").
	BookingConfirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elitetransport_booking_confirmations_total",
		Help: "Completed booking confirmation attempts by outcome and path.",
	}, []string{"outcome", "path"})

	// PaymentVerifications counts processor verification calls by outcome
	// ("success", "failed", "amount_mismatch", "error").
	PaymentVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elitetransport_payment_verifications_total",
		Help: "Payment processor verification calls by outcome.",
	}, []string{"outcome"})

	// WebhookSignatureFailures counts inbound webhook deliveries rejected for
	// a bad HMAC signature.
	WebhookSignatureFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "elitetransport_webhook_signature_failures_total",
		Help: "Inbound payment webhook deliveries rejected for a bad signature.",
	})
)

// Handler returns the HTTP handler to mount at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
