package effects

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"elitetransport-backend/internal/models"
	"elitetransport-backend/internal/notify"

	"github.com/segmentio/kafka-go"
)

// ReceiptStore is the narrow receipt persistence surface the worker needs.
type ReceiptStore interface {
	Exists(ctx context.Context, bookingID int64) (bool, error)
	Create(ctx context.Context, rec *models.BookingReceipt) error
}

// Worker drains the effects topic and runs the receipt + SMS calls that
// booking finalization and the webhook fallback enqueue. Every call here is
// best-effort: a failure is logged and the message is still committed, so a
// flaky downstream never wedges the consumer group.
type Worker struct {
	reader   *kafka.Reader
	receipts ReceiptStore
	receiptC *notify.ReceiptClient
	smsC     *notify.SMSClient
}

func NewWorker(reader *kafka.Reader, receipts ReceiptStore, receiptC *notify.ReceiptClient, smsC *notify.SMSClient) *Worker {
	return &Worker{reader: reader, receipts: receipts, receiptC: receiptC, smsC: smsC}
}

// Run blocks, processing messages until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("effects worker: read error: %v", err)
			continue
		}

		var event models.ReceiptSMSEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("effects worker: malformed event: %v", err)
			continue
		}

		w.process(ctx, event)
	}
}

func (w *Worker) process(ctx context.Context, event models.ReceiptSMSEvent) {
	if event.SkipIfReceipt && len(event.BookingIDs) > 0 {
		exists, err := w.receipts.Exists(ctx, event.BookingIDs[0])
		if err != nil {
			log.Printf("effects worker: receipt existence check failed: %v", err)
		} else if exists {
			return
		}
	}

	receiptURL := w.generateReceipts(ctx, event)

	refs := make([]string, len(event.BookingIDs))
	for i, id := range event.BookingIDs {
		refs[i] = fmt.Sprintf("ELITE-%d", id)
	}
	message := fmt.Sprintf("Booking %s confirmed: seats %s, amount %.2f.",
		strings.Join(refs, ", "), strings.Join(event.Seats, ", "), event.Amount)
	if receiptURL != "" {
		message += " Receipt: " + receiptURL
	}
	if err := w.smsC.Send(ctx, event.Phone, message); err != nil {
		log.Printf("effects worker: sms send failed for %s: %v", event.Phone, err)
	}
}

func (w *Worker) generateReceipts(ctx context.Context, event models.ReceiptSMSEvent) string {
	result, err := w.receiptC.Generate(ctx, notify.ReceiptRequest{
		BookingIDs:    event.BookingIDs,
		PassengerName: event.PassengerName,
		Email:         event.Email,
		Seats:         event.Seats,
		Amount:        event.Amount,
	})
	if err != nil {
		log.Printf("effects worker: receipt generation failed: %v", err)
		return ""
	}

	for _, bookingID := range event.BookingIDs {
		rec := &models.BookingReceipt{
			BookingID:   bookingID,
			ReceiptURL:  result.ReceiptURL,
			DriveFileID: result.DriveFileID,
		}
		if err := w.receipts.Create(ctx, rec); err != nil {
			log.Printf("effects worker: failed to persist receipt for booking %d: %v", bookingID, err)
		}
	}
	return result.ReceiptURL
}
