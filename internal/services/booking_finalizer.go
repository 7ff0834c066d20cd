package services

import (
	"context"
	"fmt"
	"log"
	"math"

	"elitetransport-backend/internal/apperr"
	"elitetransport-backend/internal/models"
	"elitetransport-backend/internal/repositories"
	"elitetransport-backend/internal/seatkey"
	"elitetransport-backend/pkg/database"
	"elitetransport-backend/pkg/metrics"

	"go.opentelemetry.io/otel"
)

// PaymentVerifier verifies a processor reference. Satisfied by
// *notify.PaystackClient.
type PaymentVerifier interface {
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

// VerifyResult mirrors notify.VerifyResult so this package doesn't need to
// import notify directly; the adapter in cmd/server/main.go bridges the two.
type VerifyResult struct {
	Status      bool
	AmountMinor int64
}

// EffectsPublisher enqueues a best-effort receipt+SMS event.
type EffectsPublisher interface {
	Publish(ctx context.Context, event models.ReceiptSMSEvent) error
}

// RouteRepositoryFinalizer defines the route lookup BookingFinalizer needs
// to build a human-readable confirmation.
type RouteRepositoryFinalizer interface {
	GetRoute(ctx context.Context, id int64) (*models.Route, error)
}

// BusRepositoryFinalizer defines the bus lookups and the available_seats
// hint update BookingFinalizer needs.
type BusRepositoryFinalizer interface {
	BusRepositoryAvailability
	SetAvailableSeats(ctx context.Context, busID int64, availableSeats int) error
}

// BookingRepositoryFinalizer defines the booking persistence BookingFinalizer
// needs: the idempotency lookup and the atomic confirmed-row insert.
type BookingRepositoryFinalizer interface {
	FindByExternalRefPrefix(ctx context.Context, ref string) ([]models.Booking, error)
	InsertConfirmed(ctx context.Context, exec repositories.Executor, b *models.Booking, legacySeat string) error
}

// PassengerRepositoryFinalizer defines the passenger persistence
// BookingFinalizer needs.
type PassengerRepositoryFinalizer interface {
	Create(ctx context.Context, exec repositories.Executor, p *models.Passenger) (*models.Passenger, error)
	GetByID(ctx context.Context, id int64) (*models.Passenger, error)
}

// SeatLockRepositoryFinalizer defines the lock checks and cleanup
// BookingFinalizer needs.
type SeatLockRepositoryFinalizer interface {
	GetUnexpiredByOwner(ctx context.Context, busID int64, tripID *int64, seat, lockOwner string) (*models.SeatLock, error)
	DeleteByID(ctx context.Context, exec repositories.Executor, ids []int64) error
}

// TripRepositoryFinalizer defines the confirmed-count lookup BookingFinalizer
// needs to refresh the bus's available_seats hint.
type TripRepositoryFinalizer interface {
	CountConfirmedBookings(ctx context.Context, tripID int64) (int, error)
}

// BookingFinalizer verifies payment, atomically inserts the confirmed
// booking rows for one purchase, and makes retries over the same processor
// reference idempotent.
type BookingFinalizer struct {
	db            *database.DB
	busRepo       BusRepositoryFinalizer
	routeRepo     RouteRepositoryFinalizer
	bookingRepo   BookingRepositoryFinalizer
	passengerRepo PassengerRepositoryFinalizer
	lockRepo      SeatLockRepositoryFinalizer
	tripRepo      TripRepositoryFinalizer
	resolver      *TripResolver
	verifier      PaymentVerifier
	effects       EffectsPublisher
	tracerName    string
}

func NewBookingFinalizer(
	db *database.DB,
	busRepo BusRepositoryFinalizer,
	routeRepo RouteRepositoryFinalizer,
	bookingRepo BookingRepositoryFinalizer,
	passengerRepo PassengerRepositoryFinalizer,
	lockRepo SeatLockRepositoryFinalizer,
	tripRepo TripRepositoryFinalizer,
	resolver *TripResolver,
	verifier PaymentVerifier,
	effects EffectsPublisher,
) *BookingFinalizer {
	return &BookingFinalizer{
		db: db, busRepo: busRepo, routeRepo: routeRepo, bookingRepo: bookingRepo,
		passengerRepo: passengerRepo, lockRepo: lockRepo, tripRepo: tripRepo,
		resolver: resolver, verifier: verifier, effects: effects,
		tracerName: "elitetransport-backend/booking-finalizer",
	}
}

// Finalize runs the full confirm algorithm.
func (f *BookingFinalizer) Finalize(ctx context.Context, req *models.BookingRequest) (*models.BookingConfirmation, error) {
	tr := otel.Tracer(f.tracerName)
	ctx, span := tr.Start(ctx, "BookingFinalizer.Finalize")
	defer span.End()

	if !req.IsValid() {
		return nil, apperr.New(apperr.InputInvalid, "missing required booking fields")
	}

	bus, err := f.busRepo.GetByID(ctx, req.BusID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "bus not found", err)
	}
	trip, err := f.resolver.Resolve(ctx, req.BusID, req.TripID)
	if err != nil {
		return nil, err
	}
	var tripID *int64
	if trip != nil {
		id := trip.ID
		tripID = &id
	}

	capacity := bus.Capacity
	if capacity <= 0 {
		capacity = models.DefaultCapacity
	}

	seats, err := normalizeDedup(req.Seats, capacity)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, apperr.New(apperr.InputInvalid, "no seats supplied")
	}

	// Idempotency check: same processor reference always returns the same
	// booking set, never re-charges or re-inserts.
	existing, err := f.bookingRepo.FindByExternalRefPrefix(ctx, req.PaystackRef)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to check existing bookings")
	}
	if len(existing) > 0 {
		metrics.BookingConfirmations.WithLabelValues("duplicate", "paystack").Inc()
		return f.rebuildConfirmation(ctx, bus, existing, true)
	}

	verify, err := f.verifier.Verify(ctx, req.PaystackRef)
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues("error").Inc()
		return nil, apperr.Wrap(apperr.PaymentVerificationFailed, "payment verification failed", err)
	}
	if !verify.Status {
		metrics.PaymentVerifications.WithLabelValues("failed").Inc()
		return nil, apperr.New(apperr.PaymentVerificationFailed, "payment was not successful")
	}
	if req.Price > 0 {
		expectedMinor := int64(math.Round(req.Price * 100))
		if expectedMinor != verify.AmountMinor {
			metrics.PaymentVerifications.WithLabelValues("amount_mismatch").Inc()
			return nil, apperr.New(apperr.PaymentAmountMismatch, "paid amount does not match expected price")
		}
	}
	metrics.PaymentVerifications.WithLabelValues("success").Inc()

	lockIDs := make([]int64, 0, len(seats))
	for _, seat := range seats {
		lock, err := f.lockRepo.GetUnexpiredByOwner(ctx, req.BusID, tripID, seat, req.LockID)
		if err != nil {
			return nil, apperr.Internalf(err, "failed to check seat lock")
		}
		if lock == nil {
			metrics.BookingConfirmations.WithLabelValues("rejected", "paystack").Inc()
			return nil, apperr.New(apperr.LockExpired, fmt.Sprintf("no valid lock held for seat %s", seat))
		}
		lockIDs = append(lockIDs, lock.ID)
	}

	unitPrice := req.UnitPrice
	if unitPrice <= 0 {
		unitPrice = req.Price / float64(len(seats))
	}

	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	passenger := &models.Passenger{
		FirstName: req.FirstName, LastName: req.LastName, Email: req.Email,
		Phone: req.Phone, NokName: req.NokName, NokPhone: req.NokPhone,
	}
	if _, err := f.passengerRepo.Create(ctx, tx, passenger); err != nil {
		return nil, apperr.Internalf(err, "failed to create passenger")
	}

	insertedIDs := make([]int64, 0, len(seats))
	for _, seat := range seats {
		externalRef := req.PaystackRef
		if len(seats) > 1 {
			externalRef = req.PaystackRef + ":" + seat
		}
		legacy, _ := seatkey.ToLegacy(seat)

		b := &models.Booking{
			PassengerID: passenger.ID,
			BusID:       req.BusID,
			TripID:      tripID,
			SeatNumber:  seat,
			PricePaid:   unitPrice,
			Status:      models.BookingStatusConfirmed,
			ExternalRef: externalRef,
		}
		if err := f.bookingRepo.InsertConfirmed(ctx, tx, b, legacy); err != nil {
			// The deferred Rollback undoes every booking and the passenger
			// row inserted earlier in this transaction.
			if err == repositories.ErrSeatTaken {
				metrics.BookingConfirmations.WithLabelValues("rejected", "paystack").Inc()
				return nil, apperr.New(apperr.SeatAlreadyBooked, fmt.Sprintf("seat %s was already booked", seat))
			}
			return nil, apperr.Internalf(err, "failed to insert booking")
		}
		insertedIDs = append(insertedIDs, b.ID)
	}

	if err := f.lockRepo.DeleteByID(ctx, tx, lockIDs); err != nil {
		return nil, apperr.Internalf(err, "failed to delete consumed locks")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internalf(err, "failed to commit booking")
	}
	committed = true
	metrics.BookingConfirmations.WithLabelValues("confirmed", "paystack").Inc()

	if tripID != nil {
		if count, err := f.tripRepo.CountConfirmedBookings(ctx, *tripID); err == nil {
			remaining := capacity - count
			if remaining < 0 {
				remaining = 0
			}
			if err := f.busRepo.SetAvailableSeats(ctx, req.BusID, remaining); err != nil {
				log.Printf("booking finalizer: failed to update available_seats hint for bus %d: %v", req.BusID, err)
			}
		}
	}

	route, _ := f.routeRepo.GetRoute(ctx, bus.RouteID)
	confirmation := buildConfirmation(bus, route, passenger, seats, insertedIDs, req.Price, false)

	event := models.ReceiptSMSEvent{
		BookingIDs:    insertedIDs,
		PassengerName: passenger.FullName(),
		Email:         passenger.Email,
		Phone:         passenger.Phone,
		Seats:         seats,
		Amount:        req.Price,
		SkipIfReceipt: true,
	}
	if err := f.effects.Publish(ctx, event); err != nil {
		log.Printf("booking finalizer: failed to publish receipt/sms event for booking(s) %v: %v", insertedIDs, err)
	}

	return confirmation, nil
}

func (f *BookingFinalizer) rebuildConfirmation(ctx context.Context, bus *models.Bus, bookings []models.Booking, duplicate bool) (*models.BookingConfirmation, error) {
	if len(bookings) == 0 {
		return nil, apperr.New(apperr.NotFound, "no bookings to rebuild")
	}
	passenger, err := f.passengerRepo.GetByID(ctx, bookings[0].PassengerID)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to load passenger for duplicate booking")
	}

	seats := make([]string, 0, len(bookings))
	ids := make([]int64, 0, len(bookings))
	var total float64
	for _, b := range bookings {
		seats = append(seats, b.SeatNumber)
		ids = append(ids, b.ID)
		total += b.PricePaid
	}

	route, _ := f.routeRepo.GetRoute(ctx, bus.RouteID)
	return buildConfirmation(bus, route, passenger, seats, ids, total, duplicate), nil
}

func buildConfirmation(bus *models.Bus, route *models.Route, passenger *models.Passenger, seats []string, ids []int64, price float64, duplicate bool) *models.BookingConfirmation {
	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = fmt.Sprintf("ELITE-%d", id)
	}

	routeName := bus.RouteText
	if route != nil {
		routeName = route.Name
	}

	confirmation := &models.BookingConfirmation{
		BookingIDs:    idStrings,
		PassengerName: passenger.FullName(),
		RouteName:     routeName,
		BusName:       bus.Name,
		Seats:         seats,
		SeatCount:     len(seats),
		Price:         price,
		Phone:         passenger.Phone,
		Email:         passenger.Email,
		Status:        string(models.BookingStatusConfirmed),
		Duplicate:     duplicate,
	}
	if len(idStrings) > 0 {
		confirmation.BookingID = idStrings[0]
	}
	if len(seats) > 0 {
		confirmation.Seat = seats[0]
	}
	return confirmation
}

// normalizeDedup normalizes every seat in raw and deduplicates while
// preserving order.
func normalizeDedup(raw []string, capacity int) ([]string, error) {
	seen := map[string]bool{}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		seat, err := seatkey.Normalize(r, capacity)
		if err != nil {
			return nil, apperr.Wrap(apperr.InputInvalid, "invalid seat in request", err)
		}
		if seen[seat] {
			continue
		}
		seen[seat] = true
		out = append(out, seat)
	}
	return out, nil
}
