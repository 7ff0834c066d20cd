// Package effects decouples booking finalization from the synchronous
// receipt/SMS calls by publishing a ReceiptSMSEvent to Kafka and running the
// actual notify calls on a separate consumer loop.
package effects

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"elitetransport-backend/internal/models"
	"elitetransport-backend/pkg/kafka"
)

// Publisher publishes side-effect events for a finalized or manually
// created booking.
type Publisher struct {
	producer *kafka.Producer
}

func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{producer: producer}
}

// Publish enqueues a receipt+SMS event, keyed by the first booking id so a
// given purchase's events land on the same partition.
func (p *Publisher) Publish(ctx context.Context, event models.ReceiptSMSEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt/sms event: %w", err)
	}

	key := ""
	if len(event.BookingIDs) > 0 {
		key = strconv.FormatInt(event.BookingIDs[0], 10)
	}
	return p.producer.Publish(ctx, key, payload)
}
