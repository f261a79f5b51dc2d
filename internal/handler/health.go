package handler // declare the package name; contains HTTP handlers

import (
    "database/sql" // database handle for the readiness probe
    "net/http"     // net/http provides status codes and response helpers

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.  It returns
// a plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready reports whether the service can actually serve traffic, which
// for this engine means the database answers.  Returns 503 otherwise.
func Ready(db *sql.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        if err := db.PingContext(c.Request().Context()); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "database unreachable"})
        }
        return c.String(http.StatusOK, "ready")
    }
}
