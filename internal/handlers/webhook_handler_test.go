package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"elitetransport-backend/internal/apperr"
)

type stubWebhookReceiver struct {
	err error

	gotBody      []byte
	gotSignature string
}

func (s *stubWebhookReceiver) Receive(ctx context.Context, body []byte, signature string) error {
	s.gotBody, s.gotSignature = body, signature
	return s.err
}

func TestWebhookHandler_Receive_Success(t *testing.T) {
	receiver := &stubWebhookReceiver{}
	handler := NewWebhookHandler(receiver)

	req := httptest.NewRequest(http.MethodPost, "/api/paystack/webhook", bytes.NewBufferString(`{"event":"charge.success"}`))
	req.Header.Set("X-Paystack-Signature", "abc123")
	rr := httptest.NewRecorder()

	handler.Receive(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if receiver.gotSignature != "abc123" {
		t.Fatalf("expected signature to be forwarded, got %q", receiver.gotSignature)
	}
}

func TestWebhookHandler_Receive_BadSignaturePropagatesError(t *testing.T) {
	handler := NewWebhookHandler(&stubWebhookReceiver{err: apperr.New(apperr.AuthRequired, "invalid webhook signature")})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{}`))
	rr := httptest.NewRecorder()

	handler.Receive(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}
