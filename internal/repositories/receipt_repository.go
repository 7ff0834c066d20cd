package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"elitetransport-backend/internal/models"
	"elitetransport-backend/pkg/database"
)

// ReceiptRepository handles booking_receipts database operations.
type ReceiptRepository struct {
	db *database.DB
}

func NewReceiptRepository(db *database.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// Exists reports whether a receipt has already been generated for a
// booking, the check the webhook fallback uses to avoid a duplicate SMS.
func (r *ReceiptRepository) Exists(ctx context.Context, bookingID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM booking_receipts WHERE booking_id = $1)`, bookingID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check receipt: %w", err)
	}
	return exists, nil
}

// Create persists a generated receipt, ignoring a duplicate-key race (two
// concurrent fallback paths for the same booking) as a benign no-op.
func (r *ReceiptRepository) Create(ctx context.Context, rec *models.BookingReceipt) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO booking_receipts (booking_id, receipt_url, drive_file_id, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (booking_id) DO NOTHING
		RETURNING id, created_at`, rec.BookingID, rec.ReceiptURL, nullIfEmpty(rec.DriveFileID)).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	return nil
}

// GetByBookingID fetches a receipt for a booking, or nil if none exists.
func (r *ReceiptRepository) GetByBookingID(ctx context.Context, bookingID int64) (*models.BookingReceipt, error) {
	var rec models.BookingReceipt
	var driveFileID sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, booking_id, receipt_url, drive_file_id, created_at
		FROM booking_receipts WHERE booking_id = $1`, bookingID).
		Scan(&rec.ID, &rec.BookingID, &rec.ReceiptURL, &driveFileID, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	rec.DriveFileID = driveFileID.String
	return &rec, nil
}
