package handler

import (
    "net/http" // HTTP status codes
    "time"     // response timestamps

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/tickethub/seat-reservation/internal/model"   // booking model
    "github.com/tickethub/seat-reservation/internal/service" // booking orchestrator
)

// BookingHandler exposes the booking lifecycle: create from held
// seats, confirm after payment, cancel, and read back.
type BookingHandler struct {
	Bookings *service.BookingService
}

// NewBookingHandler constructs the handler.
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{Bookings: bookings}
}

// ----- DTOs -----

type createBookingReq struct {
	ShowID  uint64   `json:"show_id"`
	SeatIDs []uint64 `json:"seat_ids"`
}

type bookingSeatPart struct {
	SeatID     uint64 `json:"seat_id"`
	PriceCents uint32 `json:"price_cents"`
}

type bookingResp struct {
	Code             string            `json:"code"`
	UserID           string            `json:"user_id"`
	ShowID           uint64            `json:"show_id"`
	Seats            []bookingSeatPart `json:"seats"`
	TotalAmountCents uint32            `json:"total_amount_cents"`
	Status           string            `json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
}

// Create handles POST /bookings.  Every seat must carry the caller's
// valid lock; the purchase commits atomically or not at all.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.CreateBooking(ctx, req.ShowID, req.SeatIDs, userID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(b))
}

// Confirm handles POST /bookings/:code/confirm, the payment-callback
// boundary.  Replays on an already-confirmed booking are no-ops.
func (h *BookingHandler) Confirm(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.ConfirmBooking(ctx, c.Param("code"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// Cancel handles POST /bookings/:code/cancel.  Only the owner may
// cancel; the booking's seats return to the open pool.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.CancelBooking(ctx, c.Param("code"), userID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// Get handles GET /bookings/:code.
func (h *BookingHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.GetBooking(ctx, c.Param("code"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// List handles GET /bookings, the caller's own bookings newest first.
func (h *BookingHandler) List(c echo.Context) error {
	userID, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	bookings, err := h.Bookings.ListUserBookings(ctx, userID)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]bookingResp, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResp(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

func toBookingResp(b model.Booking) bookingResp {
	seats := make([]bookingSeatPart, 0, len(b.Seats))
	for _, s := range b.Seats {
		seats = append(seats, bookingSeatPart{SeatID: s.SeatID, PriceCents: s.PriceCents})
	}
	return bookingResp{
		Code:             b.Code,
		UserID:           b.UserID,
		ShowID:           b.ShowID,
		Seats:            seats,
		TotalAmountCents: b.TotalAmountCents,
		Status:           string(b.Status),
		CreatedAt:        b.CreatedAt,
	}
}
