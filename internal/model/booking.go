package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
    BookingPending   BookingStatus = "PENDING"   // created, awaiting payment confirmation
    BookingConfirmed BookingStatus = "CONFIRMED" // payment confirmed by the external gateway
    BookingCancelled BookingStatus = "CANCELLED" // cancelled; its seats were released
)

// CanTransition reports whether a booking may move from s to next.
// PENDING advances to CONFIRMED on the external payment callback;
// both PENDING and CONFIRMED may be cancelled.  There is no way back
// out of CANCELLED.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
    switch s {
    case BookingPending:
        return next == BookingConfirmed || next == BookingCancelled
    case BookingConfirmed:
        return next == BookingCancelled
    }
    return false
}

// BookingSeat is one seat of a booking with the price it was sold at.
// The set of seats is frozen when the booking is created.
type BookingSeat struct {
    SeatID     uint64
    PriceCents uint32
}

// Booking records a completed purchase of one or more seats for a
// show.  Code is an opaque public identifier handed to the buyer;
// internal references use ID.  Seats is ordered by ascending seat id
// and immutable after creation.  Every seat referenced by a
// non-cancelled booking must be BOOKED.
type Booking struct {
    ID               uint64
    Code             string
    UserID           string
    ShowID           uint64
    Seats            []BookingSeat
    TotalAmountCents uint32
    Status           BookingStatus
    CreatedAt        time.Time
}

// SeatIDs returns the ids of the booked seats in their frozen order.
func (b Booking) SeatIDs() []uint64 {
    ids := make([]uint64, 0, len(b.Seats))
    for _, s := range b.Seats {
        ids = append(ids, s.SeatID)
    }
    return ids
}
