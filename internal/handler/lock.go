package handler

import (
    "net/http" // HTTP status codes
    "time"     // DB call timeouts and TTL override

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/tickethub/seat-reservation/internal/model"   // seat lock model
    "github.com/tickethub/seat-reservation/internal/service" // lock manager
)

// LockHandler exposes seat lock acquisition and release for one show.
type LockHandler struct {
	Locks *service.LockManager
}

// NewLockHandler constructs the handler.
func NewLockHandler(locks *service.LockManager) *LockHandler {
	return &LockHandler{Locks: locks}
}

// ----- DTOs -----

type lockReq struct {
	SeatIDs    []uint64 `json:"seat_ids"`
	TTLSeconds int      `json:"ttl_seconds"` // optional; 0 uses the server default
}

type lockPart struct {
	SeatID    uint64    `json:"seat_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type lockResp struct {
	ShowID uint64     `json:"show_id"`
	UserID string     `json:"user_id"`
	Locks  []lockPart `json:"locks"`
}

// Acquire handles POST /shows/:show_id/locks.  All requested seats are
// granted or none are; the response lists each seat's lock expiry.
func (h *LockHandler) Acquire(c echo.Context) error {
	userID, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}
	showID, err := pathID(c, "show_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	var req lockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	granted, err := h.Locks.Acquire(ctx, showID, req.SeatIDs, userID, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, toLockResp(showID, userID, granted))
}

// Release handles DELETE /shows/:show_id/locks.  Only the lock holder
// may release; a rejected request leaves every seat untouched.
func (h *LockHandler) Release(c echo.Context) error {
	userID, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}
	showID, err := pathID(c, "show_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	var req lockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Locks.Release(ctx, showID, req.SeatIDs, userID); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func toLockResp(showID uint64, userID string, locks []model.SeatLock) lockResp {
	parts := make([]lockPart, 0, len(locks))
	for _, l := range locks {
		parts = append(parts, lockPart{SeatID: l.SeatID, ExpiresAt: l.ExpiresAt})
	}
	return lockResp{ShowID: showID, UserID: userID, Locks: parts}
}
