package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing
    "github.com/redis/go-redis/v9"

    "github.com/tickethub/tickethub/internal/config"
    "github.com/tickethub/tickethub/internal/handler"    // import the handlers that implement business logic
    "github.com/tickethub/tickethub/internal/middleware" // import middleware for JWT authentication and role enforcement
    "github.com/tickethub/tickethub/internal/model"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
    Auth    *handler.AuthHandler
    Events  *handler.EventHandler
    Seats   *handler.SeatHandler
    Booking *handler.BookingHandler
    Admin   *handler.AdminHandler
}

// Register mounts all routes on the provided Echo instance.
//
// Public browse endpoints sit behind the Redis response cache; the
// payment endpoints that create bookings sit behind the token-bucket
// rate limiter. Both middlewares turn into pass-throughs when Redis is
// unavailable, so the API works without it.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
    // Health check for load balancers and monitoring.
    e.GET("/healthz", handler.Health)

    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

    // Unauthenticated auth operations live under /v1/auth.
    auth := e.Group("/v1/auth")
    auth.POST("/register", h.Auth.Register)
    auth.POST("/login", h.Auth.Login)

    // Public browsing: events and seat maps, cacheable. The live
    // stream is registered without the cache (it never terminates).
    e.GET("/v1/events", h.Events.List, cache)
    e.GET("/v1/events/:id", h.Events.Get, cache)
    e.GET("/v1/events/:id/seats", h.Seats.GetSeats)
    e.GET("/v1/events/:id/seats/stream", h.Seats.Stream)

    // Everything below requires a valid access token.
    v1 := e.Group("/v1")
    v1.Use(middleware.JWTAuth(cfg.JWTSecret))
    v1.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin))

    v1.GET("/me", h.Auth.Me)
    v1.GET("/my-bookings", h.Booking.MyBookings)
    v1.POST("/bookings/:id/cancel", h.Booking.Cancel)

    // Booking creation goes through the payment entry points; these
    // are the endpoints worth rate limiting.
    v1.POST("/payments/demo", h.Booking.DemoPayment, limiter)
    v1.POST("/payments/verify", h.Booking.VerifyPayment, limiter)

    // Admin surface: event CRUD, layout replacement, booking oversight.
    admin := v1.Group("/admin")
    admin.Use(middleware.RequireRole(model.RoleAdmin))

    admin.POST("/events", h.Events.Create)
    admin.PUT("/events/:id", h.Events.Update)
    admin.DELETE("/events/:id", h.Events.Delete)
    admin.PUT("/events/:id/layout", h.Events.EditLayout)

    admin.GET("/bookings", h.Admin.ListBookings)
    admin.POST("/bookings/:id/send-ticket", h.Admin.SendTicket)
    admin.GET("/stats", h.Admin.Stats)
}
