package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"elitetransport-backend/internal/cache"
	"elitetransport-backend/internal/config"
	"elitetransport-backend/internal/effects"
	"elitetransport-backend/internal/handlers"
	"elitetransport-backend/internal/notify"
	"elitetransport-backend/internal/repositories"
	"elitetransport-backend/internal/schema"
	"elitetransport-backend/internal/services"
	"elitetransport-backend/pkg/database"
	"elitetransport-backend/pkg/kafka"
	"elitetransport-backend/pkg/metrics"
	"elitetransport-backend/pkg/redis"
	"elitetransport-backend/pkg/tracing"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.Load()

	shutdownTracing, err := tracing.InitTracer(context.Background(), &cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("Failed to shut down tracing: %v", err)
		}
	}()

	db, err := database.NewPostgresConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	schemaManager := schema.NewManager(db.DB)
	if err := schemaManager.Ensure(context.Background()); err != nil {
		log.Fatalf("Failed to bootstrap schema: %v", err)
	}

	redisClient := redis.NewClient(&cfg.Redis)
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	kafkaProducer := kafka.NewProducer(&cfg.Effects)
	defer kafkaProducer.Close()
	effectsPublisher := effects.NewPublisher(kafkaProducer)

	// Repositories
	routeRepo := repositories.NewRouteRepository(db)
	busRepo := repositories.NewBusRepository(db)
	tripRepo := repositories.NewTripRepository(db)
	seatLockRepo := repositories.NewSeatLockRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)
	passengerRepo := repositories.NewPassengerRepository(db)
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	receiptRepo := repositories.NewReceiptRepository(db)

	catalogCache := cache.NewCatalogCacheService(redisClient, cfg.App.CatalogCacheTTL)
	tripResolver := services.NewTripResolver(tripRepo)

	paystackClient := notify.NewPaystackClient(cfg.App.PaystackSecret)
	receiptClient := notify.NewReceiptClient(cfg.App.ReceiptServiceURL)
	smsClient := notify.NewSMSClient(cfg.App.ArkeselAPIKey, cfg.App.ArkeselSenderID)
	verifier := &paystackVerifierAdapter{client: paystackClient}

	catalogService := services.NewCatalogService(routeRepo, busRepo, tripRepo, catalogCache)
	seatAvailability := services.NewSeatAvailabilityService(busRepo, bookingRepo, seatLockRepo, tripResolver)
	seatLockService := services.NewSeatLockService(busRepo, seatLockRepo, bookingRepo, tripResolver)
	bookingFinalizer := services.NewBookingFinalizer(
		db, busRepo, routeRepo, bookingRepo, passengerRepo, seatLockRepo, tripRepo,
		tripResolver, verifier, effectsPublisher,
	)
	webhookService := services.NewWebhookService(cfg.App.PaystackSecret, bookingRepo, passengerRepo, receiptRepo, effectsPublisher)
	authService := services.NewAuthService(db, userRepo, sessionRepo, passengerRepo, cfg.App.SessionTTL, cfg.App.AdminEmails)
	adminService := services.NewAdminService(
		db, routeRepo, busRepo, tripRepo, seatLockRepo, bookingRepo, passengerRepo, userRepo, catalogCache, effectsPublisher,
	)

	// Effects worker: drains Kafka and runs the best-effort receipt+SMS calls.
	kafkaReader := kafka.NewReader(&cfg.Effects)
	effectsWorker := effects.NewWorker(kafkaReader, receiptRepo, receiptClient, smsClient)
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	go effectsWorker.Run(workerCtx)

	catalogHandler := handlers.NewCatalogHandler(catalogService, passengerRepo)
	seatsHandler := handlers.NewSeatsHandler(seatAvailability, seatLockService)
	bookingHandler := handlers.NewBookingHandler(bookingFinalizer)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(bookingRepo)
	adminHandler := handlers.NewAdminHandler(adminService)

	router := setupRoutes(catalogHandler, seatsHandler, bookingHandler, webhookHandler, authHandler, userHandler, adminHandler, authService)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      otelhttp.NewHandler(router, "elitetransport-backend"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancelWorker()
	if err := kafkaReader.Close(); err != nil {
		log.Printf("Failed to close effects reader: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func setupRoutes(
	ch *handlers.CatalogHandler,
	sh *handlers.SeatsHandler,
	bh *handlers.BookingHandler,
	wh *handlers.WebhookHandler,
	ah *handlers.AuthHandler,
	uh *handlers.UserHandler,
	adh *handlers.AdminHandler,
	verifier handlers.AuthVerifier,
) *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()

	// Public catalog and seat operations.
	api.HandleFunc("/routes", ch.Routes).Methods("GET")
	api.HandleFunc("/passengers", ch.Passengers).Methods("GET")
	api.HandleFunc("/bus/{busId}/seats", sh.GetSeats).Methods("GET")
	api.HandleFunc("/bus/{busId}/lock-seat", sh.LockSeat).Methods("POST")
	api.HandleFunc("/bus/{busId}/unlock-seat", sh.UnlockSeat).Methods("POST")
	api.HandleFunc("/booking/confirm", bh.Confirm).Methods("POST")
	api.HandleFunc("/paystack/webhook", wh.Receive).Methods("POST")
	router.HandleFunc("/", wh.Receive).Methods("POST")

	// Auth.
	api.HandleFunc("/auth/signup", ah.SignUp).Methods("POST")
	api.HandleFunc("/auth/signin", ah.SignIn).Methods("POST")
	api.HandleFunc("/auth/google", ah.Google).Methods("POST")
	api.HandleFunc("/auth/verify", ah.Verify).Methods("POST")

	// Signed-in user, bearer-gated.
	user := api.PathPrefix("/user").Subrouter()
	user.Use(handlers.RequireAuth(verifier))
	user.HandleFunc("/bookings", uh.Bookings).Methods("GET")
	user.HandleFunc("/profile", uh.Profile).Methods("GET")

	// Admin, bearer + admin allow-list gated.
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(handlers.RequireAuth(verifier))
	admin.Use(handlers.RequireAdmin(verifier))
	admin.HandleFunc("/fleet-options", adh.FleetOptions).Methods("GET")
	admin.HandleFunc("/buses", adh.CreateBus).Methods("POST")
	admin.HandleFunc("/trips", adh.CreateTrip).Methods("POST")
	admin.HandleFunc("/trips/{id}/end", adh.EndTrip).Methods("POST")
	admin.HandleFunc("/bookings", adh.CreateManualBooking).Methods("POST")
	admin.HandleFunc("/bookings", adh.UpcomingBookings).Methods("GET")
	admin.HandleFunc("/dashboard", adh.Dashboard).Methods("GET")
	admin.HandleFunc("/fleet/utilization", adh.FleetUtilization).Methods("GET")

	// Operational endpoints.
	router.Handle("/metrics", metrics.Handler()).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)
	router.Use(rateLimitMiddleware)
	router.Use(throttleMiddleware)

	return router
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Simple per-IP rate limiter using golang.org/x/time/rate.
// Defaults: 10 requests/second with a burst of 20 per IP.
var (
	ipLimiters   = make(map[string]*rate.Limiter)
	ipLimitersMu sync.Mutex

	requestsPerSecond = rate.Limit(10)
	burstSize         = 20
)

func getIPLimiter(ip string) *rate.Limiter {
	ipLimitersMu.Lock()
	defer ipLimitersMu.Unlock()

	limiter, exists := ipLimiters[ip]
	if !exists {
		limiter = rate.NewLimiter(requestsPerSecond, burstSize)
		ipLimiters[ip] = limiter
	}
	return limiter
}

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if limiter := getIPLimiter(ip); !limiter.Allow() {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("Too Many Requests"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// throttleMiddleware limits the total number of in-flight requests.
// Defaults: at most 100 concurrent requests across the server.
var (
	maxInFlight     = 100
	inFlightSem     = make(chan struct{}, maxInFlight)
	throttleTimeout = 0 * time.Second // can be made >0 to wait before rejecting
)

func throttleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if throttleTimeout <= 0 {
			select {
			case inFlightSem <- struct{}{}:
				defer func() { <-inFlightSem }()
				next.ServeHTTP(w, r)
			default:
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte("Server is busy, please try again later"))
			}
			return
		}

		select {
		case inFlightSem <- struct{}{}:
			defer func() { <-inFlightSem }()
			next.ServeHTTP(w, r)
		case <-time.After(throttleTimeout):
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("Server is busy, please try again later"))
		}
	})
}
