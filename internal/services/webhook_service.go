package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"log"

	"elitetransport-backend/internal/apperr"
	"elitetransport-backend/internal/models"
	"elitetransport-backend/pkg/metrics"
)

// chargeSuccessEvent is the subset of the processor's webhook payload the
// receiver cares about.
type chargeSuccessEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// BookingRepositoryWebhook defines the booking operations WebhookService
// needs: confirming pending rows by reference, and looking the same
// reference back up for the fallback notify path.
type BookingRepositoryWebhook interface {
	MarkConfirmedByRef(ctx context.Context, ref string) ([]int64, error)
	FindByExternalRefPrefix(ctx context.Context, ref string) ([]models.Booking, error)
}

// PassengerRepositoryWebhook is the passenger lookup WebhookService needs to
// build a fallback notify event.
type PassengerRepositoryWebhook interface {
	GetByID(ctx context.Context, id int64) (*models.Passenger, error)
}

// ReceiptStoreWebhook is the narrow receipt-existence check the fallback
// path needs before deciding whether to send another SMS.
type ReceiptStoreWebhook interface {
	Exists(ctx context.Context, bookingID int64) (bool, error)
}

// WebhookService validates inbound payment processor webhooks, marks
// matching bookings confirmed, and runs a fallback receipt+SMS path for
// confirmations that never arrived through the synchronous finalizer.
type WebhookService struct {
	secret        string
	bookingRepo   BookingRepositoryWebhook
	passengerRepo PassengerRepositoryWebhook
	receiptRepo   ReceiptStoreWebhook
	effects       EffectsPublisher
}

func NewWebhookService(
	secret string,
	bookingRepo BookingRepositoryWebhook,
	passengerRepo PassengerRepositoryWebhook,
	receiptRepo ReceiptStoreWebhook,
	effects EffectsPublisher,
) *WebhookService {
	return &WebhookService{
		secret: secret, bookingRepo: bookingRepo,
		passengerRepo: passengerRepo, receiptRepo: receiptRepo, effects: effects,
	}
}

// VerifySignature reports whether signature (the hex-encoded HMAC-SHA-512
// header value) matches the HMAC of body under the configured secret. A
// signature that is not valid hex is rejected before any comparison; the
// comparison itself (hmac.Equal) runs in constant time for equal-length
// inputs.
func (s *WebhookService) VerifySignature(body []byte, signature string) bool {
	if s.secret == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(s.secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	given, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, given)
}

// Receive validates the signature and, for a charge.success event, marks
// matching bookings confirmed and runs the fallback notify path. It always
// returns nil once the signature has checked out, even if no booking
// matched the reference, so the processor never retries a handled event.
func (s *WebhookService) Receive(ctx context.Context, body []byte, signature string) error {
	if !s.VerifySignature(body, signature) {
		metrics.WebhookSignatureFailures.Inc()
		return apperr.New(apperr.AuthRequired, "invalid webhook signature")
	}

	var event chargeSuccessEvent
	if err := json.Unmarshal(body, &event); err != nil {
		// Malformed bodies are not a processor error; the signature already
		// proved authenticity, so there is nothing actionable left to do.
		return nil
	}
	if event.Event != "charge.success" || event.Data.Reference == "" {
		return nil
	}

	if _, err := s.bookingRepo.MarkConfirmedByRef(ctx, event.Data.Reference); err != nil {
		log.Printf("webhook: failed to mark bookings confirmed for ref %s: %v", event.Data.Reference, err)
	}

	s.runFallback(ctx, event.Data.Reference)
	return nil
}

// runFallback implements the "synchronous confirmation never arrived" path:
// generate a receipt and send an SMS only if no receipt exists yet for the
// first matching booking, so a webhook that races (or duplicates) the
// finalizer's own effects publish never sends a second SMS.
func (s *WebhookService) runFallback(ctx context.Context, reference string) {
	bookings, err := s.bookingRepo.FindByExternalRefPrefix(ctx, reference)
	if err != nil {
		log.Printf("webhook: failed to look up bookings for ref %s: %v", reference, err)
		return
	}
	if len(bookings) == 0 {
		return
	}

	exists, err := s.receiptRepo.Exists(ctx, bookings[0].ID)
	if err != nil {
		log.Printf("webhook: failed to check receipt existence for booking %d: %v", bookings[0].ID, err)
		return
	}
	if exists {
		return
	}

	passenger, err := s.passengerRepo.GetByID(ctx, bookings[0].PassengerID)
	if err != nil {
		log.Printf("webhook: failed to load passenger for booking %d: %v", bookings[0].ID, err)
		return
	}

	ids := make([]int64, 0, len(bookings))
	seats := make([]string, 0, len(bookings))
	var total float64
	for _, b := range bookings {
		ids = append(ids, b.ID)
		seats = append(seats, b.SeatNumber)
		total += b.PricePaid
	}

	event := models.ReceiptSMSEvent{
		BookingIDs:    ids,
		PassengerName: passenger.FullName(),
		Email:         passenger.Email,
		Phone:         passenger.Phone,
		Seats:         seats,
		Amount:        total,
		SkipIfReceipt: true,
	}
	if err := s.effects.Publish(ctx, event); err != nil {
		log.Printf("webhook: failed to publish fallback receipt/sms event for ref %s: %v", reference, err)
	}
}
