package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql" // database handle wired into the readiness probe

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/tickethub/seat-reservation/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes wires every endpoint of the reservation service onto
// the provided Echo instance.  The caller identity arrives in the
// X-User-ID header, placed there by the authenticating gateway; no
// auth middleware runs here.
func RegisterRoutes(e *echo.Echo, db *sql.DB, catalog *handler.CatalogHandler, locks *handler.LockHandler, bookings *handler.BookingHandler) {
	// Probes for load balancers and orchestration.
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))

	v1 := e.Group("/v1")

	// Show catalog: creation plus the read-side seat map.
	v1.POST("/shows", catalog.CreateShow)
	v1.GET("/shows", catalog.ListShows)
	v1.GET("/shows/:show_id", catalog.GetShow)
	v1.GET("/shows/:show_id/seats", catalog.ListSeats)

	// Seat locks: acquire a time-bounded hold, or release early.
	v1.POST("/shows/:show_id/locks", locks.Acquire)
	v1.DELETE("/shows/:show_id/locks", locks.Release)

	// Booking lifecycle.
	v1.POST("/bookings", bookings.Create)
	v1.GET("/bookings", bookings.List)
	v1.GET("/bookings/:code", bookings.Get)
	v1.POST("/bookings/:code/confirm", bookings.Confirm)
	v1.POST("/bookings/:code/cancel", bookings.Cancel)
}
