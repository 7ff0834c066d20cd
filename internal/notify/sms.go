package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// SMSClient sends booking notifications through the Arkesel SMS gateway
// (spec's external "SMS gateway" collaborator).
type SMSClient struct {
	apiKey     string
	senderID   string
	httpClient *http.Client
	baseURL    string
}

func NewSMSClient(apiKey, senderID string) *SMSClient {
	return &SMSClient{
		apiKey:     apiKey,
		senderID:   senderID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://sms.arkesel.com/api/v2/sms/send",
	}
}

// Send fires a single SMS to recipient. Best-effort: callers must swallow
// the error rather than fail the enclosing request.
func (c *SMSClient) Send(ctx context.Context, recipient, message string) error {
	if c.apiKey == "" {
		return fmt.Errorf("sms gateway not configured")
	}

	query := url.Values{}
	query.Set("action", "send-sms")
	query.Set("api_key", c.apiKey)
	query.Set("to", recipient)
	query.Set("from", c.senderID)
	query.Set("sms", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call sms gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
