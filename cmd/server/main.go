package main // Entry point package

import (
    "context"
    "log" // Logging library

    "github.com/joho/godotenv"    // .env loading for local development
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/tickethub/tickethub/internal/config"
    "github.com/tickethub/tickethub/internal/database"
    "github.com/tickethub/tickethub/internal/handler"
    "github.com/tickethub/tickethub/internal/notifier"
    "github.com/tickethub/tickethub/internal/queue"
    "github.com/tickethub/tickethub/internal/repository"
    "github.com/tickethub/tickethub/internal/router"
    "github.com/tickethub/tickethub/internal/service"
)

func main() {
    // Load .env when present; real deployments set the environment directly.
    _ = godotenv.Load()

    cfg := config.Load() // Load environment config

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer func() { _ = db.Close() }()

    // Redis is optional: a nil client disables caching, rate limiting
    // and cross-instance notifications but the API keeps working.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable; cache, rate limit and notification bridge disabled")
    }

    hub := notifier.NewHub(rdb)
    go hub.Run(context.Background())

    // Ticket delivery consumer; reconnects on its own.
    go func() {
        if err := queue.StartTicketConsumer(); err != nil {
            log.Printf("ticket-consumer stopped: %v", err)
        }
    }()

    userRepo := repository.NewUserRepo(db)
    eventRepo := repository.NewEventRepo(db)
    seatRepo := repository.NewSeatRepo(db)
    bookingRepo := repository.NewBookingRepo(db)

    svc := service.NewBookingService(db, eventRepo, seatRepo, bookingRepo, hub, cfg.SeatsPerRowMax)

    e := echo.New() // Create Echo instance
    router.Register(e, router.Handlers{
        Auth:    handler.NewAuthHandler(cfg, userRepo),
        Events:  handler.NewEventHandler(svc),
        Seats:   handler.NewSeatHandler(svc),
        Booking: handler.NewBookingHandler(cfg, svc),
        Admin:   handler.NewAdminHandler(svc),
    }, cfg, rdb)

    addr := ":" + cfg.Port                                // Address string with port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

    if err := e.Start(addr); err != nil { // Start HTTP server
        log.Fatal(err) // Log and exit if server fails
    }
}
