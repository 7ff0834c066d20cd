package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"elitetransport-backend/internal/models"
	"elitetransport-backend/pkg/database"
)

// BookingRepository handles booking database operations, including the
// conditional insert that enforces "at most one confirmed booking per
// (bus, trip, canonical seat)" without relying on a table-level unique
// constraint that would have to special-case legacy seat spellings.
type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, passenger_id, bus_id, trip_id, seat_number, price_paid, status, external_ref, created_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (*models.Booking, error) {
	var b models.Booking
	if err := row.Scan(&b.ID, &b.PassengerID, &b.BusID, &b.TripID, &b.SeatNumber,
		&b.PricePaid, &b.Status, &b.ExternalRef, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// FindByExternalRefPrefix finds every booking whose external_ref is exactly
// ref or begins with ref+":", the idempotency key used by the finalizer and
// by webhook confirmation/fallback.
func (r *BookingRepository) FindByExternalRefPrefix(ctx context.Context, ref string) ([]models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE external_ref = $1 OR external_ref LIKE $2
		ORDER BY id`, ref, ref+":%")
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings by external ref: %w", err)
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// ConfirmedExists reports whether a confirmed booking already exists for
// (bus, trip, seat), matching both the canonical seat spelling and its
// legacy equivalent so rows written before the normalizer existed are still
// honored.
func (r *BookingRepository) ConfirmedExists(ctx context.Context, exec Executor, busID int64, tripID *int64, canonical, legacy string) (bool, error) {
	var exists bool
	err := exec.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE bus_id = $1 AND COALESCE(trip_id, -1) = COALESCE($2, -1)
			  AND status = 'confirmed' AND seat_number IN ($3, $4)
		)`, busID, tripID, canonical, legacy).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check confirmed booking: %w", err)
	}
	return exists, nil
}

// ListConfirmedSeats returns the seat numbers with a confirmed booking for
// (bus, trip) as stored, legacy spellings included, used by the seat
// availability engine (which normalizes them).
func (r *BookingRepository) ListConfirmedSeats(ctx context.Context, busID int64, tripID *int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seat_number FROM bookings
		WHERE bus_id = $1 AND COALESCE(trip_id, -1) = COALESCE($2, -1) AND status = 'confirmed'`,
		busID, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed seats: %w", err)
	}
	defer rows.Close()

	var seats []string
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return nil, fmt.Errorf("failed to scan confirmed seat: %w", err)
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

// ConfirmedExistsSimple is ConfirmedExists against the repository's own
// connection pool, for callers outside a transaction (the seat lock
// service's pre-grant check).
func (r *BookingRepository) ConfirmedExistsSimple(ctx context.Context, busID int64, tripID *int64, canonical, legacy string) (bool, error) {
	return r.ConfirmedExists(ctx, r.db, busID, tripID, canonical, legacy)
}

// InsertConfirmed inserts a confirmed booking, refusing (returning
// ErrSeatTaken) if a confirmed booking for the same (bus, trip, seat)
// already exists. A plain check-then-insert is not enough under read
// committed isolation: two concurrent transactions can both see
// exists=false before either commits. To close that window, the caller's
// transaction first takes a Postgres advisory lock keyed on
// (bus, trip, canonical seat); advisory locks queue, so a second
// finalizer for the same seat blocks until the first transaction commits
// or rolls back, and then sees an up-to-date ConfirmedExists result.
func (r *BookingRepository) InsertConfirmed(ctx context.Context, exec Executor, b *models.Booking, legacySeat string) error {
	tripKey := int64(-1)
	if b.TripID != nil {
		tripKey = *b.TripID
	}
	if _, err := exec.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		fmt.Sprintf("booking:%d:%d:%s", b.BusID, tripKey, b.SeatNumber)); err != nil {
		return fmt.Errorf("failed to acquire booking lock: %w", err)
	}

	taken, err := r.ConfirmedExists(ctx, exec, b.BusID, b.TripID, b.SeatNumber, legacySeat)
	if err != nil {
		return err
	}
	if taken {
		return ErrSeatTaken
	}

	query := `
		INSERT INTO bookings (passenger_id, bus_id, trip_id, seat_number, price_paid, status, external_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, created_at`

	err = exec.QueryRowContext(ctx, query, b.PassengerID, b.BusID, b.TripID, b.SeatNumber,
		b.PricePaid, b.Status, b.ExternalRef).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

// MarkConfirmedByRef marks every pending booking matching ref (exact or
// prefix) as confirmed, used by the webhook receiver. Returns the ids that
// were transitioned.
func (r *BookingRepository) MarkConfirmedByRef(ctx context.Context, ref string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE bookings SET status = 'confirmed'
		WHERE (external_ref = $1 OR external_ref LIKE $2) AND status = 'pending'
		RETURNING id`, ref, ref+":%")
	if err != nil {
		return nil, fmt.Errorf("failed to confirm bookings by ref: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan confirmed booking id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetByID fetches a booking by id.
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("booking not found")
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// ListByPassengerEmail returns every booking made under a given contact
// email, used by the user bookings endpoint (bookings are keyed off
// passengers, not the authenticated user, to support guest checkout).
func (r *BookingRepository) ListByPassengerEmail(ctx context.Context, email string) ([]models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.passenger_id, b.bus_id, b.trip_id, b.seat_number, b.price_paid, b.status, b.external_ref, b.created_at
		FROM bookings b JOIN passengers p ON p.id = b.passenger_id
		WHERE p.email = $1
		ORDER BY b.created_at DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by email: %w", err)
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func upcomingFilterClause(filter models.AdminBookingFilter, startAt int) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	next := startAt

	if filter.RouteID != nil {
		clauses = append(clauses, fmt.Sprintf("bs.route_id = $%d", next))
		args = append(args, *filter.RouteID)
		next++
	}
	if filter.Status != "" {
		clauses = append(clauses, fmt.Sprintf("b.status = $%d", next))
		args = append(args, filter.Status)
		next++
	}
	if filter.DateFrom != "" {
		clauses = append(clauses, fmt.Sprintf("t.departure_date >= $%d", next))
		args = append(args, filter.DateFrom)
		next++
	}
	if filter.DateTo != "" {
		clauses = append(clauses, fmt.Sprintf("t.departure_date <= $%d", next))
		args = append(args, filter.DateTo)
		next++
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " AND " + strings.Join(clauses, " AND "), args
}

const upcomingJoin = `
	FROM bookings b
	JOIN passengers p ON p.id = b.passenger_id
	JOIN buses bs ON bs.id = b.bus_id
	LEFT JOIN routes r ON r.id = bs.route_id
	LEFT JOIN trip_schedules t ON t.id = b.trip_id
	WHERE 1 = 1`

// ListUpcoming returns a filtered, paginated join of bookings with their
// passenger, bus and route, ordered by departure timestamp ascending (nulls
// last) then created_at descending, for the admin upcoming-bookings report.
func (r *BookingRepository) ListUpcoming(ctx context.Context, filter models.AdminBookingFilter) ([]models.AdminBookingRow, error) {
	where, args := upcomingFilterClause(filter, 1)
	query := `
		SELECT b.id, p.first_name, p.last_name, p.phone, p.email,
		       bs.route_id, COALESCE(r.name, bs.route_text), bs.name,
		       b.seat_number, b.price_paid, b.status,
		       COALESCE(t.departure_date, ''), COALESCE(t.departure_time, ''), b.created_at
	` + upcomingJoin + where + `
		ORDER BY t.departure_date ASC NULLS LAST, t.departure_time ASC NULLS LAST, b.created_at DESC
		LIMIT $` + fmt.Sprintf("%d", len(args)+1) + ` OFFSET $` + fmt.Sprintf("%d", len(args)+2)

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming bookings: %w", err)
	}
	defer rows.Close()

	var out []models.AdminBookingRow
	for rows.Next() {
		var row models.AdminBookingRow
		var firstName, lastName string
		if err := rows.Scan(&row.BookingID, &firstName, &lastName, &row.Phone, &row.Email,
			&row.RouteID, &row.RouteName, &row.BusName, &row.Seat, &row.Price, &row.Status,
			&row.DepartureDate, &row.DepartureTime, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upcoming booking: %w", err)
		}
		row.BookingRef = fmt.Sprintf("ELITE-%d", row.BookingID)
		row.PassengerName = strings.TrimSpace(firstName + " " + lastName)
		out = append(out, row)
	}
	return out, rows.Err()
}

// SummarizeUpcoming aggregates the same filter as ListUpcoming but over the
// whole matching set rather than one page, for the report's summary block.
func (r *BookingRepository) SummarizeUpcoming(ctx context.Context, filter models.AdminBookingFilter) (models.AdminBookingSummary, error) {
	where, args := upcomingFilterClause(filter, 1)
	query := `SELECT COUNT(*), COALESCE(SUM(b.price_paid) FILTER (WHERE b.status = 'confirmed'), 0)` + upcomingJoin + where

	var summary models.AdminBookingSummary
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&summary.TotalBookings, &summary.TotalRevenue)
	if err != nil {
		return summary, fmt.Errorf("failed to summarize upcoming bookings: %w", err)
	}
	return summary, nil
}

// CountByStatus returns the number of bookings in each status, for the
// admin dashboard bootstrap.
func (r *BookingRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan booking status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// SumConfirmedRevenue sums price_paid across every confirmed booking, for
// the admin dashboard bootstrap.
func (r *BookingRepository) SumConfirmedRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(price_paid), 0) FROM bookings WHERE status = 'confirmed'`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum confirmed revenue: %w", err)
	}
	return total, nil
}

// ListRecentWithReceipts returns the n most recently created bookings with
// their passenger and receipt (if any) joined in, for the dashboard
// bootstrap's recent-activity feed.
func (r *BookingRepository) ListRecentWithReceipts(ctx context.Context, limit int) ([]models.AdminRecentBooking, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, p.first_name, p.last_name, b.seat_number, b.price_paid, b.status,
		       COALESCE(rc.receipt_url, ''), b.created_at
		FROM bookings b
		JOIN passengers p ON p.id = b.passenger_id
		LEFT JOIN booking_receipts rc ON rc.booking_id = b.id
		ORDER BY b.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent bookings: %w", err)
	}
	defer rows.Close()

	var out []models.AdminRecentBooking
	for rows.Next() {
		var row models.AdminRecentBooking
		var firstName, lastName string
		if err := rows.Scan(&row.BookingID, &firstName, &lastName, &row.Seat, &row.Price,
			&row.Status, &row.ReceiptURL, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent booking: %w", err)
		}
		row.BookingRef = fmt.Sprintf("ELITE-%d", row.BookingID)
		row.PassengerName = strings.TrimSpace(firstName + " " + lastName)
		out = append(out, row)
	}
	return out, rows.Err()
}

// ErrSeatTaken is returned by InsertConfirmed when the seat was already
// booked by the time the insert ran.
var ErrSeatTaken = fmt.Errorf("seat already booked")
