// Package queue defines the event payloads the engine publishes and
// the transports that carry them: a non-durable per-show pub/sub
// channel for live seat-map updates, and a durable queue feeding the
// downstream payment/ticketing pipeline.
package queue

import "fmt"

// Seat-state event names, published on the per-show topic.
const (
    EventSeatLocked   = "seat.locked"
    EventSeatUnlocked = "seat.unlocked"
    EventSeatBooked   = "seat.booked"
)

// ShowTopic is the pub/sub channel carrying seat-state changes of one
// show.  Subscribers key on the show they are rendering.
func ShowTopic(showID uint64) string {
    return fmt.Sprintf("show.%d.seats", showID)
}

// LockedSeat pairs one seat of a seat.locked event with the expiry of
// its lock (RFC 3339).  Expiries within one event may differ: a
// re-granted lock keeps its original deadline.
type LockedSeat struct {
    SeatID    uint64 `json:"seat_id"`
    ExpiresAt string `json:"expires_at"`
}

// SeatEvent is the envelope for all seat-state changes.  UserID is set
// for lock/unlock, BookingID for booked, Locks (with per-seat
// expiries) for locked.  Delivery is best-effort and at-most-once;
// consumers must treat the durable seat state as authoritative.
type SeatEvent struct {
    Event     string       `json:"event"`
    SeatIDs   []uint64     `json:"seat_ids"`
    UserID    string       `json:"user_id,omitempty"`
    BookingID uint64       `json:"booking_id,omitempty"`
    Locks     []LockedSeat `json:"locks,omitempty"`
}

// BookingCreatedEvent is handed to the downstream pipeline when a
// purchase commits.  It carries enough for the payment and ticketing
// consumers to proceed without querying the primary database.
type BookingCreatedEvent struct {
    BookingID        uint64   `json:"booking_id"`
    Code             string   `json:"code"`
    UserID           string   `json:"user_id"`
    ShowID           uint64   `json:"show_id"`
    SeatIDs          []uint64 `json:"seat_ids"`
    TotalAmountCents uint32   `json:"total_amount_cents"`
    CreatedAt        string   `json:"created_at"`
}
