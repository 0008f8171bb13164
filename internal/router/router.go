package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/cinegate/screening-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/cinegate/screening-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check
// for load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated catalog browse endpoints.
// The optional cache middleware (Redis response cache) is applied to all
// of them: catalog data changes rarely, unlike seat availability which
// is never served from a cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	if cache != nil {
		g.Use(cache)
	}
	// Expose list of all movies
	g.GET("/movies", p.GetMovies)
	// List screenings of a specific movie with theater details
	g.GET("/movies/:id/screenings", p.GetMovieScreenings)
	// Screening details by screening id
	g.GET("/screenings/:id", p.GetScreening)
}

// RegisterCustomer registers the authenticated booking endpoints under
// /v1.  All routes require a valid JWT and the CUSTOMER role.  The
// optional rate limiter (Redis token bucket) guards the commit path so
// a single client cannot hammer reserve/cancel.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, ev *handler.EventsHandler, jwtSecret string, ratelimit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)
	// Seat layout with live availability for a screening.
	g.GET("/screenings/:id/seats", h.ListSeats)
	// Booking-delta stream for clients watching a seat map.
	g.GET("/screenings/:id/events", ev.Stream)
	// The caller's bookings grouped by screening.
	g.GET("/my-bookings", h.ListBookings)

	// Commit-path endpoints get the rate limiter on top of auth.
	if ratelimit != nil {
		g = e.Group(
			"/v1",
			middleware.JWTAuth(jwtSecret),
			middleware.RequireRole("CUSTOMER"),
			ratelimit,
		)
	}
	g.POST("/screenings/:id/reserve", h.ReserveSeats)
	g.DELETE("/screenings/:id/seats", h.CancelSeats)
}
