package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"elitetransport-backend/internal/handlers"
	"elitetransport-backend/internal/models"
)

// dummy implementations to satisfy handler constructors for router tests.
type dummyCatalogService struct{}

func (d *dummyCatalogService) ListCatalog(ctx context.Context) ([]models.CatalogGroup, error) {
	return nil, nil
}

type dummyPassengerLister struct{}

func (d *dummyPassengerLister) List(ctx context.Context, limit, offset int) ([]models.Passenger, error) {
	return nil, nil
}

type dummyAvailability struct{}

func (d *dummyAvailability) GetSeats(ctx context.Context, busID int64, tripID *int64, ownerLockID string) (*models.SeatAvailability, error) {
	return nil, nil
}

type dummyLocks struct{}

func (d *dummyLocks) Acquire(ctx context.Context, busID int64, rawSeat string, tripID *int64, lockID string) (*models.SeatLockResult, error) {
	return nil, nil
}

func (d *dummyLocks) Release(ctx context.Context, busID int64, rawSeat string, tripID *int64, lockID string) (string, *int64, error) {
	return "", nil, nil
}

type dummyFinalizer struct{}

func (d *dummyFinalizer) Finalize(ctx context.Context, req *models.BookingRequest) (*models.BookingConfirmation, error) {
	return nil, nil
}

type dummyWebhook struct{}

func (d *dummyWebhook) Receive(ctx context.Context, body []byte, signature string) error {
	return nil
}

type dummyAuthService struct{}

func (d *dummyAuthService) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthResult, error) {
	return nil, nil
}
func (d *dummyAuthService) SignIn(ctx context.Context, req *models.SignInRequest) (*models.AuthResult, error) {
	return nil, nil
}
func (d *dummyAuthService) GoogleAuth(ctx context.Context, req *models.GoogleAuthRequest) (*models.AuthResult, error) {
	return nil, nil
}
func (d *dummyAuthService) Verify(ctx context.Context, token string) (*models.User, error) {
	return nil, nil
}
func (d *dummyAuthService) IsAdmin(email string) bool { return false }

type dummyBookingLister struct{}

func (d *dummyBookingLister) ListByPassengerEmail(ctx context.Context, email string) ([]models.Booking, error) {
	return nil, nil
}

type dummyAdminService struct{}

func (d *dummyAdminService) FleetOptions(ctx context.Context) (*models.FleetOptions, error) {
	return nil, nil
}
func (d *dummyAdminService) CreateBus(ctx context.Context, req *models.CreateBusRequest) (*models.Bus, error) {
	return nil, nil
}
func (d *dummyAdminService) CreateTrip(ctx context.Context, req *models.CreateTripRequest) (*models.TripSchedule, error) {
	return nil, nil
}
func (d *dummyAdminService) EndTrip(ctx context.Context, tripID int64) error { return nil }
func (d *dummyAdminService) CreateManualBooking(ctx context.Context, req *models.BookingRequest) (*models.BookingConfirmation, error) {
	return nil, nil
}
func (d *dummyAdminService) UpcomingBookings(ctx context.Context, filter models.AdminBookingFilter) (*models.AdminBookingsReport, error) {
	return nil, nil
}
func (d *dummyAdminService) DashboardBootstrap(ctx context.Context) (*models.DashboardBootstrap, error) {
	return nil, nil
}
func (d *dummyAdminService) FleetUtilization(ctx context.Context) ([]models.FleetUtilization, error) {
	return nil, nil
}

func TestHealthEndpoint(t *testing.T) {
	ch := handlers.NewCatalogHandler(&dummyCatalogService{}, &dummyPassengerLister{})
	sh := handlers.NewSeatsHandler(&dummyAvailability{}, &dummyLocks{})
	bh := handlers.NewBookingHandler(&dummyFinalizer{})
	wh := handlers.NewWebhookHandler(&dummyWebhook{})
	ah := handlers.NewAuthHandler(&dummyAuthService{})
	uh := handlers.NewUserHandler(&dummyBookingLister{})
	adh := handlers.NewAdminHandler(&dummyAdminService{})

	router := setupRoutes(ch, sh, bh, wh, ah, uh, adh, &dummyAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
}

func TestRoutesEndpoint_PublicNoAuthRequired(t *testing.T) {
	ch := handlers.NewCatalogHandler(&dummyCatalogService{}, &dummyPassengerLister{})
	sh := handlers.NewSeatsHandler(&dummyAvailability{}, &dummyLocks{})
	bh := handlers.NewBookingHandler(&dummyFinalizer{})
	wh := handlers.NewWebhookHandler(&dummyWebhook{})
	ah := handlers.NewAuthHandler(&dummyAuthService{})
	uh := handlers.NewUserHandler(&dummyBookingLister{})
	adh := handlers.NewAdminHandler(&dummyAdminService{})

	router := setupRoutes(ch, sh, bh, wh, ah, uh, adh, &dummyAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/api/routes", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
}

func TestAdminEndpoint_RejectsMissingBearer(t *testing.T) {
	ch := handlers.NewCatalogHandler(&dummyCatalogService{}, &dummyPassengerLister{})
	sh := handlers.NewSeatsHandler(&dummyAvailability{}, &dummyLocks{})
	bh := handlers.NewBookingHandler(&dummyFinalizer{})
	wh := handlers.NewWebhookHandler(&dummyWebhook{})
	ah := handlers.NewAuthHandler(&dummyAuthService{})
	uh := handlers.NewUserHandler(&dummyBookingLister{})
	adh := handlers.NewAdminHandler(&dummyAdminService{})

	router := setupRoutes(ch, sh, bh, wh, ah, uh, adh, &dummyAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, status)
	}
}
