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

// RouteRepositoryAdmin defines the route lookups AdminService needs.
type RouteRepositoryAdmin interface {
	ListGroups(ctx context.Context) ([]models.RouteGroup, error)
	ListRoutes(ctx context.Context) ([]models.Route, error)
	GetRoute(ctx context.Context, id int64) (*models.Route, error)
	CountAll(ctx context.Context) (int, error)
}

// BusRepositoryAdmin defines the bus lookups and mutations AdminService
// needs.
type BusRepositoryAdmin interface {
	GetByID(ctx context.Context, id int64) (*models.Bus, error)
	ListAll(ctx context.Context) ([]models.Bus, error)
	Create(ctx context.Context, b *models.Bus) (*models.Bus, error)
	SetAvailableSeats(ctx context.Context, busID int64, availableSeats int) error
	AssignTrip(ctx context.Context, busID, routeID int64, price float64) error
	CountAll(ctx context.Context) (int, error)
	CountConfirmedSeatsByBus(ctx context.Context, busID int64) (int, error)
}

// TripRepositoryAdmin defines the trip lookups and mutations AdminService
// needs.
type TripRepositoryAdmin interface {
	GetByID(ctx context.Context, id int64) (*models.TripSchedule, error)
	GetActiveForBus(ctx context.Context, busID int64) (*models.TripSchedule, error)
	ListActive(ctx context.Context) ([]models.TripSchedule, error)
	ListRecentNonActive(ctx context.Context, limit int) ([]models.TripSchedule, error)
	Create(ctx context.Context, t *models.TripSchedule) (*models.TripSchedule, error)
	End(ctx context.Context, tripID int64) error
	CountConfirmedBookings(ctx context.Context, tripID int64) (int, error)
}

// SeatLockRepositoryAdmin defines the lock checks and cleanup AdminService
// needs.
type SeatLockRepositoryAdmin interface {
	GetUnexpired(ctx context.Context, busID int64, tripID *int64, seat string) (*models.SeatLock, error)
	DeleteAllForTrip(ctx context.Context, tripID int64) error
}

// BookingRepositoryAdmin defines the booking persistence and reporting
// queries AdminService needs.
type BookingRepositoryAdmin interface {
	FindByExternalRefPrefix(ctx context.Context, ref string) ([]models.Booking, error)
	InsertConfirmed(ctx context.Context, exec repositories.Executor, b *models.Booking, legacySeat string) error
	ListUpcoming(ctx context.Context, filter models.AdminBookingFilter) ([]models.AdminBookingRow, error)
	SummarizeUpcoming(ctx context.Context, filter models.AdminBookingFilter) (models.AdminBookingSummary, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	SumConfirmedRevenue(ctx context.Context) (float64, error)
	ListRecentWithReceipts(ctx context.Context, limit int) ([]models.AdminRecentBooking, error)
}

// PassengerRepositoryAdmin defines the passenger persistence AdminService
// needs for manual bookings.
type PassengerRepositoryAdmin interface {
	Create(ctx context.Context, exec repositories.Executor, p *models.Passenger) (*models.Passenger, error)
	GetByID(ctx context.Context, id int64) (*models.Passenger, error)
}

// UserRepositoryAdmin defines the user count AdminService needs for the
// dashboard bootstrap.
type UserRepositoryAdmin interface {
	CountAll(ctx context.Context) (int, error)
}

// CatalogCacheAdmin is the cache invalidation hook AdminService calls after
// any fleet mutation. Satisfied by *cache.CatalogCacheService.
type CatalogCacheAdmin interface {
	Invalidate(ctx context.Context) error
}

// AdminService implements fleet management, manual bookings, and the
// admin-facing reports. Every admin endpoint requires both a valid session
// and AuthService.IsAdmin; AdminService itself assumes the caller already
// enforced that.
type AdminService struct {
	db            *database.DB
	routeRepo     RouteRepositoryAdmin
	busRepo       BusRepositoryAdmin
	tripRepo      TripRepositoryAdmin
	lockRepo      SeatLockRepositoryAdmin
	bookingRepo   BookingRepositoryAdmin
	passengerRepo PassengerRepositoryAdmin
	userRepo      UserRepositoryAdmin
	cache         CatalogCacheAdmin
	effects       EffectsPublisher
	tracerName    string
}

func NewAdminService(
	db *database.DB,
	routeRepo RouteRepositoryAdmin,
	busRepo BusRepositoryAdmin,
	tripRepo TripRepositoryAdmin,
	lockRepo SeatLockRepositoryAdmin,
	bookingRepo BookingRepositoryAdmin,
	passengerRepo PassengerRepositoryAdmin,
	userRepo UserRepositoryAdmin,
	cache CatalogCacheAdmin,
	effects EffectsPublisher,
) *AdminService {
	return &AdminService{
		db: db, routeRepo: routeRepo, busRepo: busRepo, tripRepo: tripRepo, lockRepo: lockRepo,
		bookingRepo: bookingRepo, passengerRepo: passengerRepo, userRepo: userRepo, cache: cache,
		effects:    effects,
		tracerName: "elitetransport-backend/admin-service",
	}
}

// FleetOptions assembles the routes, buses, active trips (with booked
// counts and seats left), and the 20 most recent non-active trips.
func (s *AdminService) FleetOptions(ctx context.Context) (*models.FleetOptions, error) {
	groups, err := s.routeRepo.ListGroups(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to list route groups")
	}
	routes, err := s.routeRepo.ListRoutes(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to list routes")
	}
	buses, err := s.busRepo.ListAll(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to list buses")
	}
	capacityByBus := make(map[int64]int, len(buses))
	for _, b := range buses {
		capacityByBus[b.ID] = b.Capacity
	}

	active, err := s.tripRepo.ListActive(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to list active trips")
	}
	activeOptions := make([]models.FleetTripOption, 0, len(active))
	for _, t := range active {
		booked, err := s.tripRepo.CountConfirmedBookings(ctx, t.ID)
		if err != nil {
			return nil, apperr.Internalf(err, "failed to count confirmed bookings for trip %d", t.ID)
		}
		capacity := capacityByBus[t.BusID]
		seatsLeft := capacity - booked
		if seatsLeft < 0 {
			seatsLeft = 0
		}
		activeOptions = append(activeOptions, models.FleetTripOption{TripSchedule: t, BookedCount: booked, SeatsLeft: seatsLeft})
	}

	recent, err := s.tripRepo.ListRecentNonActive(ctx, 20)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to list recent trips")
	}

	return &models.FleetOptions{
		RouteGroups: groups, Routes: routes, Buses: buses,
		ActiveTrips: activeOptions, RecentTrips: recent,
	}, nil
}

// CreateBus validates and inserts a new bus.
func (s *AdminService) CreateBus(ctx context.Context, req *models.CreateBusRequest) (*models.Bus, error) {
	if req.RouteID <= 0 || req.Name == "" {
		return nil, apperr.New(apperr.InputInvalid, "route and name are required")
	}
	if req.Capacity <= 0 {
		return nil, apperr.New(apperr.InputInvalid, "capacity must be greater than zero")
	}
	available := req.AvailableSeats
	if available <= 0 || available > req.Capacity {
		available = req.Capacity
	}

	bus := &models.Bus{
		RouteID: req.RouteID, Name: req.Name, PlateNumber: req.PlateNumber,
		Capacity: req.Capacity, AvailableSeats: available, Price: req.Price, RouteText: req.RouteText,
	}
	created, err := s.busRepo.Create(ctx, bus)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to create bus")
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("admin: failed to invalidate catalog cache after bus creation: %v", err)
	}
	return created, nil
}

// CreateTrip starts a new active trip for a bus, failing if the bus already
// has one. On success the bus's available_seats is reset to capacity and
// its route_id/price updated to match.
func (s *AdminService) CreateTrip(ctx context.Context, req *models.CreateTripRequest) (*models.TripSchedule, error) {
	if req.RouteID <= 0 || req.BusID <= 0 {
		return nil, apperr.New(apperr.InputInvalid, "route and bus are required")
	}

	bus, err := s.busRepo.GetByID(ctx, req.BusID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "bus not found", err)
	}

	existing, err := s.tripRepo.GetActiveForBus(ctx, req.BusID)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to check for an existing active trip")
	}
	if existing != nil {
		return nil, apperr.New(apperr.InputInvalid, "bus already has an active trip")
	}

	trip := &models.TripSchedule{
		RouteID: req.RouteID, BusID: req.BusID, DepartureDate: req.DepartureDate,
		DepartureTime: req.DepartureTime, Price: req.Price,
	}
	created, err := s.tripRepo.Create(ctx, trip)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to create trip")
	}

	capacity := bus.Capacity
	if capacity <= 0 {
		capacity = models.DefaultCapacity
	}
	if err := s.busRepo.SetAvailableSeats(ctx, req.BusID, capacity); err != nil {
		log.Printf("admin: failed to reset available seats for bus %d: %v", req.BusID, err)
	}
	if err := s.busRepo.AssignTrip(ctx, req.BusID, req.RouteID, req.Price); err != nil {
		log.Printf("admin: failed to assign route/price to bus %d: %v", req.BusID, err)
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("admin: failed to invalidate catalog cache after trip creation: %v", err)
	}
	return created, nil
}

// EndTrip completes an active trip, resets the bus's available_seats to
// capacity, and deletes every seat lock outstanding against it.
func (s *AdminService) EndTrip(ctx context.Context, tripID int64) error {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return apperr.Wrap(apperr.NotFound, "trip not found", err)
	}

	if err := s.tripRepo.End(ctx, tripID); err != nil {
		return apperr.Wrap(apperr.InputInvalid, "trip is not active", err)
	}

	if err := s.lockRepo.DeleteAllForTrip(ctx, tripID); err != nil {
		log.Printf("admin: failed to delete seat locks for ended trip %d: %v", tripID, err)
	}

	if bus, err := s.busRepo.GetByID(ctx, trip.BusID); err == nil {
		capacity := bus.Capacity
		if capacity <= 0 {
			capacity = models.DefaultCapacity
		}
		if err := s.busRepo.SetAvailableSeats(ctx, trip.BusID, capacity); err != nil {
			log.Printf("admin: failed to reset available_seats for bus %d after ending trip %d: %v", trip.BusID, tripID, err)
		}
	} else {
		log.Printf("admin: failed to load bus %d to reset available_seats after ending trip %d: %v", trip.BusID, tripID, err)
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("admin: failed to invalidate catalog cache after ending trip %d: %v", tripID, err)
	}
	return nil
}

// CreateManualBooking runs the same atomic seat insertion as the payment
// finalizer but skips payment verification entirely; it still refuses an
// already-booked or actively-locked seat.
func (s *AdminService) CreateManualBooking(ctx context.Context, req *models.BookingRequest) (*models.BookingConfirmation, error) {
	tr := otel.Tracer(s.tracerName)
	ctx, span := tr.Start(ctx, "AdminService.CreateManualBooking")
	defer span.End()

	if !req.IsValid() {
		return nil, apperr.New(apperr.InputInvalid, "missing required booking fields")
	}

	bus, err := s.busRepo.GetByID(ctx, req.BusID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "bus not found", err)
	}

	var tripID *int64
	if req.TripID != nil {
		id := *req.TripID
		tripID = &id
	} else if trip, err := s.tripRepo.GetActiveForBus(ctx, req.BusID); err == nil && trip != nil {
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

	for _, seat := range seats {
		lock, err := s.lockRepo.GetUnexpired(ctx, req.BusID, tripID, seat)
		if err != nil {
			return nil, apperr.Internalf(err, "failed to check seat lock")
		}
		if lock != nil {
			metrics.BookingConfirmations.WithLabelValues("rejected", "manual").Inc()
			return nil, apperr.New(apperr.SeatAlreadyLocked, fmt.Sprintf("seat %s is actively locked", seat))
		}
	}

	unitPrice := req.UnitPrice
	if unitPrice <= 0 && len(seats) > 0 {
		unitPrice = req.Price / float64(len(seats))
	}

	tx, err := s.db.BeginTx(ctx, nil)
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
	if _, err := s.passengerRepo.Create(ctx, tx, passenger); err != nil {
		return nil, apperr.Internalf(err, "failed to create passenger")
	}

	reference := fmt.Sprintf("manual:%d:%d", req.BusID, passenger.ID)
	insertedIDs := make([]int64, 0, len(seats))
	for _, seat := range seats {
		externalRef := reference
		if len(seats) > 1 {
			externalRef = reference + ":" + seat
		}
		legacy, _ := seatkey.ToLegacy(seat)

		b := &models.Booking{
			PassengerID: passenger.ID, BusID: req.BusID, TripID: tripID, SeatNumber: seat,
			PricePaid: unitPrice, Status: models.BookingStatusConfirmed, ExternalRef: externalRef,
		}
		if err := s.bookingRepo.InsertConfirmed(ctx, tx, b, legacy); err != nil {
			if err == repositories.ErrSeatTaken {
				metrics.BookingConfirmations.WithLabelValues("rejected", "manual").Inc()
				return nil, apperr.New(apperr.SeatAlreadyBooked, fmt.Sprintf("seat %s was already booked", seat))
			}
			return nil, apperr.Internalf(err, "failed to insert booking")
		}
		insertedIDs = append(insertedIDs, b.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internalf(err, "failed to commit booking")
	}
	committed = true
	metrics.BookingConfirmations.WithLabelValues("confirmed", "manual").Inc()

	if tripID != nil {
		if count, err := s.tripRepo.CountConfirmedBookings(ctx, *tripID); err == nil {
			remaining := capacity - count
			if remaining < 0 {
				remaining = 0
			}
			if err := s.busRepo.SetAvailableSeats(ctx, req.BusID, remaining); err != nil {
				log.Printf("admin: failed to update available_seats hint for bus %d: %v", req.BusID, err)
			}
		}
	}

	route, _ := s.routeRepo.GetRoute(ctx, bus.RouteID)
	confirmation := buildConfirmation(bus, route, passenger, seats, insertedIDs, req.Price, false)

	event := models.ReceiptSMSEvent{
		BookingIDs: insertedIDs, PassengerName: passenger.FullName(), Email: passenger.Email,
		Phone: passenger.Phone, Seats: seats, Amount: req.Price, SkipIfReceipt: true,
	}
	if err := s.effects.Publish(ctx, event); err != nil {
		log.Printf("admin: failed to publish receipt/sms event for manual booking(s) %v: %v", insertedIDs, err)
	}
	return confirmation, nil
}

// UpcomingBookings runs the paginated, filtered, grouped upcoming-bookings
// report.
func (s *AdminService) UpcomingBookings(ctx context.Context, filter models.AdminBookingFilter) (*models.AdminBookingsReport, error) {
	rows, err := s.bookingRepo.ListUpcoming(ctx, filter)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to list upcoming bookings")
	}
	summary, err := s.bookingRepo.SummarizeUpcoming(ctx, filter)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to summarize upcoming bookings")
	}

	order := make([]int64, 0)
	byRoute := make(map[int64]*models.AdminBookingGroup)
	for _, row := range rows {
		group, ok := byRoute[row.RouteID]
		if !ok {
			group = &models.AdminBookingGroup{RouteID: row.RouteID, RouteName: row.RouteName}
			byRoute[row.RouteID] = group
			order = append(order, row.RouteID)
		}
		group.Bookings = append(group.Bookings, row)
	}
	groups := make([]models.AdminBookingGroup, 0, len(order))
	for _, id := range order {
		groups = append(groups, *byRoute[id])
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	return &models.AdminBookingsReport{Groups: groups, Summary: summary, Limit: limit, Offset: filter.Offset}, nil
}

// DashboardBootstrap assembles the admin landing-page payload.
func (s *AdminService) DashboardBootstrap(ctx context.Context) (*models.DashboardBootstrap, error) {
	routeCount, err := s.routeRepo.CountAll(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to count routes")
	}
	busCount, err := s.busRepo.CountAll(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to count buses")
	}
	userCount, err := s.userRepo.CountAll(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to count users")
	}
	bookingCounts, err := s.bookingRepo.CountByStatus(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to count bookings by status")
	}
	revenue, err := s.bookingRepo.SumConfirmedRevenue(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to sum confirmed revenue")
	}
	recent, err := s.bookingRepo.ListRecentWithReceipts(ctx, 8)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to list recent bookings")
	}

	return &models.DashboardBootstrap{
		RouteCount: routeCount, BusCount: busCount, UserCount: userCount,
		BookingCounts: bookingCounts, ConfirmedRevenue: revenue, RecentBookings: recent,
	}, nil
}

// FleetUtilization reports confirmed-seats / capacity across each bus's
// current or most recent trip.
func (s *AdminService) FleetUtilization(ctx context.Context) ([]models.FleetUtilization, error) {
	buses, err := s.busRepo.ListAll(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to list buses")
	}

	out := make([]models.FleetUtilization, 0, len(buses))
	for _, b := range buses {
		confirmed, err := s.busRepo.CountConfirmedSeatsByBus(ctx, b.ID)
		if err != nil {
			return nil, apperr.Internalf(err, "failed to count confirmed seats for bus %d", b.ID)
		}
		var utilization float64
		if b.Capacity > 0 {
			utilization = math.Round(float64(confirmed)/float64(b.Capacity)*1000) / 1000
		}
		out = append(out, models.FleetUtilization{
			BusID: b.ID, BusName: b.Name, Capacity: b.Capacity,
			ConfirmedSeats: confirmed, Utilization: utilization,
		})
	}
	return out, nil
}
