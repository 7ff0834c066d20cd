package services

import (
	"context"
	"testing"
	"time"

	"elitetransport-backend/internal/apperr"
	"elitetransport-backend/internal/models"
	"elitetransport-backend/internal/repositories"
	"elitetransport-backend/pkg/database"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockFinalizerDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &database.DB{DB: db}, mock
}

type stubBusRepoFinalizer struct {
	bus            *models.Bus
	setAvailableTo int
}

func (s *stubBusRepoFinalizer) GetByID(ctx context.Context, id int64) (*models.Bus, error) {
	return s.bus, nil
}
func (s *stubBusRepoFinalizer) SetAvailableSeats(ctx context.Context, busID int64, availableSeats int) error {
	s.setAvailableTo = availableSeats
	return nil
}

type stubRouteRepoFinalizer struct{ route *models.Route }

func (s *stubRouteRepoFinalizer) GetRoute(ctx context.Context, id int64) (*models.Route, error) {
	return s.route, nil
}

type stubBookingRepoFinalizer struct {
	existing    []models.Booking
	insertErr   error
	insertedN   int
	nextID      int64
}

func (s *stubBookingRepoFinalizer) FindByExternalRefPrefix(ctx context.Context, ref string) ([]models.Booking, error) {
	return s.existing, nil
}
func (s *stubBookingRepoFinalizer) InsertConfirmed(ctx context.Context, exec repositories.Executor, b *models.Booking, legacySeat string) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.insertedN++
	s.nextID++
	b.ID = s.nextID
	return nil
}

type stubPassengerRepoFinalizer struct {
	nextID int64
}

func (s *stubPassengerRepoFinalizer) Create(ctx context.Context, exec repositories.Executor, p *models.Passenger) (*models.Passenger, error) {
	s.nextID++
	p.ID = s.nextID
	return p, nil
}
func (s *stubPassengerRepoFinalizer) GetByID(ctx context.Context, id int64) (*models.Passenger, error) {
	return &models.Passenger{ID: id, FirstName: "Ama", LastName: "Mensah", Email: "ama@example.com", Phone: "0240000000"}, nil
}

type stubSeatLockRepoFinalizer struct {
	locks map[string]*models.SeatLock
}

func (s *stubSeatLockRepoFinalizer) GetUnexpiredByOwner(ctx context.Context, busID int64, tripID *int64, seat, lockOwner string) (*models.SeatLock, error) {
	lock, ok := s.locks[seat]
	if !ok || lock.LockedBy != lockOwner {
		return nil, nil
	}
	return lock, nil
}
func (s *stubSeatLockRepoFinalizer) DeleteByID(ctx context.Context, exec repositories.Executor, ids []int64) error {
	return nil
}

type stubTripRepoFinalizer struct{ confirmedCount int }

func (s *stubTripRepoFinalizer) CountConfirmedBookings(ctx context.Context, tripID int64) (int, error) {
	return s.confirmedCount, nil
}

type stubVerifier struct {
	result *VerifyResult
	err    error
}

func (s *stubVerifier) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	return s.result, s.err
}

type stubEffectsPublisher struct {
	published []models.ReceiptSMSEvent
	err       error
}

func (s *stubEffectsPublisher) Publish(ctx context.Context, event models.ReceiptSMSEvent) error {
	s.published = append(s.published, event)
	return s.err
}

func newTestFinalizer(t *testing.T, mock sqlmock.Sqlmock, db *database.DB, bus *models.Bus, verifier *stubVerifier) (*BookingFinalizer, *stubBookingRepoFinalizer, *stubBusRepoFinalizer, *stubEffectsPublisher) {
	busRepo := &stubBusRepoFinalizer{bus: bus}
	routeRepo := &stubRouteRepoFinalizer{route: &models.Route{ID: bus.RouteID, Name: "Accra - Kumasi"}}
	bookingRepo := &stubBookingRepoFinalizer{}
	passengerRepo := &stubPassengerRepoFinalizer{}
	lockRepo := &stubSeatLockRepoFinalizer{locks: map[string]*models.SeatLock{
		"5": {ID: 1, LockedBy: "lock-A", ExpiresAt: time.Now().Add(time.Minute)},
	}}
	tripRepo := &stubTripRepoFinalizer{}
	resolver := NewTripResolver(&stubTripRepoResolver{})
	effects := &stubEffectsPublisher{}

	f := NewBookingFinalizer(db, busRepo, routeRepo, bookingRepo, passengerRepo, lockRepo, tripRepo, resolver, verifier, effects)
	return f, bookingRepo, busRepo, effects
}

func TestBookingFinalizer_Finalize_Success(t *testing.T) {
	db, mock := newMockFinalizerDB(t)
	bus := &models.Bus{ID: 1, RouteID: 9, Capacity: 50, Name: "VIP 1"}
	verifier := &stubVerifier{result: &VerifyResult{Status: true, AmountMinor: 5000}}
	f, bookingRepo, _, effects := newTestFinalizer(t, mock, db, bus, verifier)

	mock.ExpectBegin()
	mock.ExpectCommit()

	req := &models.BookingRequest{
		BusID: 1, Seats: []string{"5"}, Email: "ama@example.com", Phone: "0240000000",
		PaystackRef: "R1", Price: 50, UnitPrice: 50, LockID: "lock-A",
		FirstName: "Ama", LastName: "Mensah",
	}

	confirmation, err := f.Finalize(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if confirmation.Duplicate {
		t.Fatalf("expected a fresh confirmation, got duplicate")
	}
	if bookingRepo.insertedN != 1 {
		t.Fatalf("expected one booking inserted, got %d", bookingRepo.insertedN)
	}
	if len(effects.published) != 1 {
		t.Fatalf("expected one effects event published, got %d", len(effects.published))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestBookingFinalizer_Finalize_IdempotentRetry(t *testing.T) {
	db, mock := newMockFinalizerDB(t)
	bus := &models.Bus{ID: 1, RouteID: 9, Capacity: 50, Name: "VIP 1"}
	verifier := &stubVerifier{result: &VerifyResult{Status: true, AmountMinor: 5000}}
	f, bookingRepo, _, effects := newTestFinalizer(t, mock, db, bus, verifier)
	bookingRepo.existing = []models.Booking{
		{ID: 42, PassengerID: 7, SeatNumber: "5", PricePaid: 50, Status: models.BookingStatusConfirmed},
	}

	req := &models.BookingRequest{
		BusID: 1, Seats: []string{"5"}, Email: "ama@example.com", Phone: "0240000000",
		PaystackRef: "R1", Price: 50, UnitPrice: 50, LockID: "lock-A",
	}

	confirmation, err := f.Finalize(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !confirmation.Duplicate {
		t.Fatalf("expected duplicate confirmation on retry")
	}
	if bookingRepo.insertedN != 0 {
		t.Fatalf("expected no new booking inserted on retry, got %d", bookingRepo.insertedN)
	}
	if len(effects.published) != 0 {
		t.Fatalf("expected no effects event on a duplicate retry, got %d", len(effects.published))
	}
}

func TestBookingFinalizer_Finalize_AmountMismatch(t *testing.T) {
	db, mock := newMockFinalizerDB(t)
	bus := &models.Bus{ID: 1, RouteID: 9, Capacity: 50, Name: "VIP 1"}
	verifier := &stubVerifier{result: &VerifyResult{Status: true, AmountMinor: 4000}}
	f, bookingRepo, _, _ := newTestFinalizer(t, mock, db, bus, verifier)

	req := &models.BookingRequest{
		BusID: 1, Seats: []string{"5"}, Email: "ama@example.com", Phone: "0240000000",
		PaystackRef: "R1", Price: 50, UnitPrice: 50, LockID: "lock-A",
	}

	_, err := f.Finalize(context.Background(), req)
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.PaymentAmountMismatch {
		t.Fatalf("expected PaymentAmountMismatch, got %v", err)
	}
	if bookingRepo.insertedN != 0 {
		t.Fatalf("expected no booking inserted on mismatch")
	}
}

func TestBookingFinalizer_Finalize_LockExpired(t *testing.T) {
	db, mock := newMockFinalizerDB(t)
	bus := &models.Bus{ID: 1, RouteID: 9, Capacity: 50, Name: "VIP 1"}
	verifier := &stubVerifier{result: &VerifyResult{Status: true, AmountMinor: 5000}}
	f, _, _, _ := newTestFinalizer(t, mock, db, bus, verifier)

	req := &models.BookingRequest{
		BusID: 1, Seats: []string{"5"}, Email: "ama@example.com", Phone: "0240000000",
		PaystackRef: "R1", Price: 50, UnitPrice: 50, LockID: "wrong-owner",
	}

	_, err := f.Finalize(context.Background(), req)
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.LockExpired {
		t.Fatalf("expected LockExpired, got %v", err)
	}
}

func TestBookingFinalizer_Finalize_SeatAlreadyBookedRollsBack(t *testing.T) {
	db, mock := newMockFinalizerDB(t)
	bus := &models.Bus{ID: 1, RouteID: 9, Capacity: 50, Name: "VIP 1"}
	verifier := &stubVerifier{result: &VerifyResult{Status: true, AmountMinor: 5000}}
	f, bookingRepo, _, _ := newTestFinalizer(t, mock, db, bus, verifier)
	bookingRepo.insertErr = repositories.ErrSeatTaken

	mock.ExpectBegin()
	mock.ExpectRollback()

	req := &models.BookingRequest{
		BusID: 1, Seats: []string{"5"}, Email: "ama@example.com", Phone: "0240000000",
		PaystackRef: "R1", Price: 50, UnitPrice: 50, LockID: "lock-A",
	}

	_, err := f.Finalize(context.Background(), req)
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.SeatAlreadyBooked {
		t.Fatalf("expected SeatAlreadyBooked, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}
