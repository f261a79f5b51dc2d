package handler

import (
    "context"   // request-scoped timeouts for engine calls
    "net/http"  // HTTP status codes
    "strconv"   // parsing path parameters
    "strings"   // header trimming
    "time"      // timeout durations

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/tickethub/seat-reservation/internal/service" // engine failure taxonomy
)

// headerUserID carries the opaque caller identity.  Authentication is
// the gateway's job; by the time a request reaches this service the
// header holds a verified principal.
const headerUserID = "X-User-ID"

// callerID extracts the caller identity from the request.  An empty
// value is a client error: this service never guesses who is asking.
func callerID(c echo.Context) (string, bool) {
	id := strings.TrimSpace(c.Request().Header.Get(headerUserID))
	return id, id != ""
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// reqCtx bounds every engine call with a per-request timeout.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// respondErr translates an engine Failure into an HTTP response.  The
// body always carries the machine-readable code; seat-level failures
// also name the offending seat so clients can highlight it.
func respondErr(c echo.Context, err error) error {
	f, ok := service.AsFailure(err)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	status := http.StatusInternalServerError
	switch f.Kind {
	case service.KindInvalid:
		status = http.StatusBadRequest
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindConflict:
		status = http.StatusConflict
	case service.KindUnavailable:
		status = http.StatusServiceUnavailable
	}
	body := echo.Map{"error": f.Code}
	if f.SeatID != 0 {
		body["seat_id"] = f.SeatID
	}
	return c.JSON(status, body)
}
