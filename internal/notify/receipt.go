package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ReceiptClient calls the GAS-hosted receipt generator (spec's
// "receipt-PDF/email generator", treated as an external collaborator).
type ReceiptClient struct {
	webhookURL string
	httpClient *http.Client
}

func NewReceiptClient(webhookURL string) *ReceiptClient {
	return &ReceiptClient{webhookURL: webhookURL, httpClient: &http.Client{Timeout: 15 * time.Second}}
}

// ReceiptRequest is the booking detail the receipt service needs to render
// and email a receipt.
type ReceiptRequest struct {
	BookingIDs    []int64  `json:"booking_ids"`
	PassengerName string   `json:"passenger_name"`
	Email         string   `json:"email"`
	Seats         []string `json:"seats"`
	Amount        float64  `json:"amount"`
}

// ReceiptResult is the generator's response: a public URL and, optionally,
// the backing file id in whatever storage it used.
type ReceiptResult struct {
	ReceiptURL  string `json:"receipt_url"`
	DriveFileID string `json:"drive_file_id"`
}

// Generate posts a receipt request and returns the generated receipt. The
// caller treats failures as best-effort: it must not fail booking
// finalization.
func (c *ReceiptClient) Generate(ctx context.Context, req ReceiptRequest) (*ReceiptResult, error) {
	if c.webhookURL == "" {
		return nil, fmt.Errorf("receipt service not configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build receipt request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call receipt service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("receipt service returned status %d", resp.StatusCode)
	}

	var result ReceiptResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode receipt response: %w", err)
	}
	return &result, nil
}
