package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"elitetransport-backend/internal/apperr"
	"elitetransport-backend/internal/models"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type stubBookingRepoWebhook struct {
	confirmedIDs []int64
	existing     []models.Booking
}

func (s *stubBookingRepoWebhook) MarkConfirmedByRef(ctx context.Context, ref string) ([]int64, error) {
	return s.confirmedIDs, nil
}
func (s *stubBookingRepoWebhook) FindByExternalRefPrefix(ctx context.Context, ref string) ([]models.Booking, error) {
	return s.existing, nil
}

type stubPassengerRepoWebhook struct{}

func (s *stubPassengerRepoWebhook) GetByID(ctx context.Context, id int64) (*models.Passenger, error) {
	return &models.Passenger{ID: id, FirstName: "Kofi", LastName: "Owusu", Email: "kofi@example.com", Phone: "0200000000"}, nil
}

type stubReceiptStoreWebhook struct{ exists bool }

func (s *stubReceiptStoreWebhook) Exists(ctx context.Context, bookingID int64) (bool, error) {
	return s.exists, nil
}

func TestWebhookService_Receive_InvalidSignature(t *testing.T) {
	svc := NewWebhookService("whsec_test", &stubBookingRepoWebhook{}, &stubPassengerRepoWebhook{}, &stubReceiptStoreWebhook{}, &stubEffectsPublisher{})

	body := []byte(`{"event":"charge.success","data":{"reference":"R9"}}`)
	err := svc.Receive(context.Background(), body, "not-a-real-signature")

	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.AuthRequired {
		t.Fatalf("expected AuthRequired, got %v", err)
	}
}

func TestWebhookService_Receive_ConfirmsAndRunsFallback(t *testing.T) {
	secret := "whsec_test"
	bookingRepo := &stubBookingRepoWebhook{
		confirmedIDs: []int64{42},
		existing: []models.Booking{
			{ID: 42, PassengerID: 7, SeatNumber: "5", PricePaid: 50, Status: models.BookingStatusConfirmed},
		},
	}
	receipts := &stubReceiptStoreWebhook{exists: false}
	effects := &stubEffectsPublisher{}
	svc := NewWebhookService(secret, bookingRepo, &stubPassengerRepoWebhook{}, receipts, effects)

	body := []byte(`{"event":"charge.success","data":{"reference":"R9"}}`)
	signature := sign(secret, body)

	if err := svc.Receive(context.Background(), body, signature); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(effects.published) != 1 {
		t.Fatalf("expected one fallback effects event, got %d", len(effects.published))
	}
}

func TestWebhookService_Receive_SkipsFallbackWhenReceiptExists(t *testing.T) {
	secret := "whsec_test"
	bookingRepo := &stubBookingRepoWebhook{
		existing: []models.Booking{
			{ID: 42, PassengerID: 7, SeatNumber: "5", PricePaid: 50, Status: models.BookingStatusConfirmed},
		},
	}
	receipts := &stubReceiptStoreWebhook{exists: true}
	effects := &stubEffectsPublisher{}
	svc := NewWebhookService(secret, bookingRepo, &stubPassengerRepoWebhook{}, receipts, effects)

	body := []byte(`{"event":"charge.success","data":{"reference":"R9"}}`)
	signature := sign(secret, body)

	if err := svc.Receive(context.Background(), body, signature); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(effects.published) != 0 {
		t.Fatalf("expected no fallback event when a receipt already exists, got %d", len(effects.published))
	}
}

func TestWebhookService_Receive_IgnoresOtherEvents(t *testing.T) {
	secret := "whsec_test"
	bookingRepo := &stubBookingRepoWebhook{}
	svc := NewWebhookService(secret, bookingRepo, &stubPassengerRepoWebhook{}, &stubReceiptStoreWebhook{}, &stubEffectsPublisher{})

	body := []byte(`{"event":"charge.failed","data":{"reference":"R9"}}`)
	signature := sign(secret, body)

	if err := svc.Receive(context.Background(), body, signature); err != nil {
		t.Fatalf("expected no error for an ignored event, got %v", err)
	}
}
