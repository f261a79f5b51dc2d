package handler

import (
    "net/http" // HTTP status codes
    "time"     // show schedule timestamps

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/tickethub/seat-reservation/internal/model"   // show/seat models
    "github.com/tickethub/seat-reservation/internal/service" // catalog service
)

// CatalogHandler serves show creation and the read-side seat map.
type CatalogHandler struct {
	Catalog *service.CatalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{Catalog: catalog}
}

// ----- DTOs -----

type seatSpecReq struct {
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
	SeatType   string `json:"seat_type"`
	PriceCents uint32 `json:"price_cents"` // 0 inherits the show base price
}

type createShowReq struct {
	VenueID        uint64        `json:"venue_id"`
	Title          string        `json:"title"`
	StartsAt       time.Time     `json:"starts_at"`
	EndsAt         time.Time     `json:"ends_at"`
	BasePriceCents uint32        `json:"base_price_cents"`
	Seats          []seatSpecReq `json:"seats"`
}

type showResp struct {
	ID             uint64    `json:"id"`
	VenueID        uint64    `json:"venue_id"`
	Title          string    `json:"title"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	BasePriceCents uint32    `json:"base_price_cents"`
	AvailableSeats *int      `json:"available_seats,omitempty"`
	SeatCount      int       `json:"seat_count,omitempty"`
}

type seatViewResp struct {
	ID            uint64     `json:"id"`
	RowLabel      string     `json:"row_label"`
	SeatNumber    uint32     `json:"seat_number"`
	SeatType      string     `json:"seat_type"`
	PriceCents    uint32     `json:"price_cents"`
	Status        string     `json:"status"`
	LockedBy      string     `json:"locked_by,omitempty"`
	LockExpiresAt *time.Time `json:"lock_expires_at,omitempty"`
}

// CreateShow handles POST /shows.  The show and its complete seat grid
// are created together; a show never exists half-seeded.
func (h *CatalogHandler) CreateShow(c echo.Context) error {
	var req createShowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Title == "" || !req.EndsAt.After(req.StartsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and a valid schedule are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	specs := make([]service.SeatSpec, 0, len(req.Seats))
	for _, s := range req.Seats {
		specs = append(specs, service.SeatSpec{
			RowLabel:   s.RowLabel,
			SeatNumber: s.SeatNumber,
			SeatType:   s.SeatType,
			PriceCents: s.PriceCents,
		})
	}
	show, grid, err := h.Catalog.CreateShow(ctx, model.Show{
		VenueID:        req.VenueID,
		Title:          req.Title,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		BasePriceCents: req.BasePriceCents,
	}, specs)
	if err != nil {
		return respondErr(c, err)
	}
	resp := toShowResp(show, nil)
	resp.SeatCount = len(grid)
	return c.JSON(http.StatusCreated, resp)
}

// ListShows handles GET /shows.
func (h *CatalogHandler) ListShows(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	shows, err := h.Catalog.ListShows(ctx)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]showResp, 0, len(shows))
	for _, s := range shows {
		out = append(out, toShowResp(s, nil))
	}
	return c.JSON(http.StatusOK, echo.Map{"shows": out})
}

// GetShow handles GET /shows/:show_id with the derived availability.
func (h *CatalogHandler) GetShow(c echo.Context) error {
	showID, err := pathID(c, "show_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	summary, err := h.Catalog.GetShow(ctx, showID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toShowResp(summary.Show, &summary.AvailableSeats))
}

// ListSeats handles GET /shows/:show_id/seats, the seat map clients
// render.  Held seats carry the holder and the lock expiry.
func (h *CatalogHandler) ListSeats(c echo.Context) error {
	showID, err := pathID(c, "show_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	views, err := h.Catalog.ListSeats(ctx, showID)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]seatViewResp, 0, len(views))
	for _, v := range views {
		out = append(out, seatViewResp{
			ID:            v.ID,
			RowLabel:      v.RowLabel,
			SeatNumber:    v.SeatNumber,
			SeatType:      v.SeatType,
			PriceCents:    v.PriceCents,
			Status:        string(v.Status),
			LockedBy:      v.LockedBy,
			LockExpiresAt: v.LockExpiresAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"show_id": showID, "seats": out})
}

func toShowResp(s model.Show, available *int) showResp {
	return showResp{
		ID:             s.ID,
		VenueID:        s.VenueID,
		Title:          s.Title,
		StartsAt:       s.StartsAt,
		EndsAt:         s.EndsAt,
		BasePriceCents: s.BasePriceCents,
		AvailableSeats: available,
	}
}
