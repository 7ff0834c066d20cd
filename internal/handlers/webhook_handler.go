package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
)

// WebhookReceiver defines the signature verification and processing
// WebhookHandler needs.
type WebhookReceiver interface {
	Receive(ctx context.Context, body []byte, signature string) error
}

// WebhookHandler serves the payment processor's inbound webhook, and the
// bare `/` fallback some processor configurations post to instead.
type WebhookHandler struct {
	webhook WebhookReceiver
}

func NewWebhookHandler(webhook WebhookReceiver) *WebhookHandler {
	return &WebhookHandler{webhook: webhook}
}

// Receive handles POST /api/paystack/webhook and POST /.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("webhook handler: failed to read body: %v", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	signature := r.Header.Get("X-Paystack-Signature")

	if err := h.webhook.Receive(r.Context(), body, signature); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
