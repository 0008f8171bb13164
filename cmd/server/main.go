package main // Entry point package

import (
	"log" // Logging library
	"os"  // Environment lookups for optional integrations

	"github.com/joho/godotenv"    // Loads .env files into the process environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/cinegate/screening-reservation/internal/broadcast"  // Availability hub and notifier
	"github.com/cinegate/screening-reservation/internal/config"     // Internal config loader
	"github.com/cinegate/screening-reservation/internal/database"   // MySQL connection and tx runner
	"github.com/cinegate/screening-reservation/internal/handler"    // HTTP handlers
	"github.com/cinegate/screening-reservation/internal/middleware" // Redis cache and rate limiter
	"github.com/cinegate/screening-reservation/internal/queue"      // Booking event consumer
	"github.com/cinegate/screening-reservation/internal/repository" // Data access layer
	"github.com/cinegate/screening-reservation/internal/reservation" // Reservation engine
	"github.com/cinegate/screening-reservation/internal/router"      // Route registration
)

func main() {
	_ = godotenv.Load() // Load .env if present; real env wins

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName) // Open MySQL pool
	if err != nil {
		log.Fatalf("database: %v", err) // Cannot serve without storage
	}
	defer db.Close()

	// Repositories share the single pool.
	movieRepo := repository.NewMovieRepo(db)
	screeningRepo := repository.NewScreeningRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	// The broadcast hub feeds SSE subscribers; the notifier also mirrors
	// deltas to the broker when one is configured.
	hub := broadcast.NewHub()
	broker := os.Getenv("RABBITMQ_URL") != "" || os.Getenv("AMQP_URL") != ""
	notifier := broadcast.NewNotifier(hub, broker)

	engine := reservation.NewEngine(
		&database.SQLRunner{DB: db},
		screeningRepo,
		seatRepo,
		bookingRepo,
		notifier,
		cfg.LockWait,
	)

	// Redis is optional; when unreachable the cache and rate limiter are
	// simply not installed and every request hits the handlers directly.
	var cacheMW, rateMW echo.MiddlewareFunc
	if rdb := config.NewRedisClient(); rdb != nil {
		cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
		rateMW = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	} else {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	e := echo.New()
	router.RegisterRoutes(e) // Health check
	router.RegisterPublic(e, handler.NewPublicHandler(movieRepo, screeningRepo), cacheMW)
	router.RegisterCustomer(
		e,
		handler.NewCustomerHandler(engine, seatRepo, bookingRepo, screeningRepo),
		handler.NewEventsHandler(hub, screeningRepo),
		cfg.JWTSecret,
		rateMW,
	)

	if broker {
		go func() { // Consumer reconnects internally; only log terminal failures
			if err := queue.StartBookingConsumer(); err != nil {
				log.Printf("booking consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
