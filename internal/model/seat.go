package model

import "time"

// SeatStatus is the lifecycle state of a seat for a given show.
type SeatStatus string

const (
    SeatAvailable SeatStatus = "AVAILABLE" // free to be locked
    SeatLocked    SeatStatus = "LOCKED"    // held by an active seat lock
    SeatBooked    SeatStatus = "BOOKED"    // sold as part of a booking
)

// Valid reports whether s is one of the known seat statuses.
func (s SeatStatus) Valid() bool {
    switch s {
    case SeatAvailable, SeatLocked, SeatBooked:
        return true
    }
    return false
}

// CanTransition reports whether a seat may move from s to next.  The
// allowed moves form the seat state machine: a seat is locked from
// AVAILABLE, a lock is either consumed into BOOKED or released back to
// AVAILABLE, and a booked seat only returns to AVAILABLE when its
// booking is cancelled.  Every status mutation in the repository layer
// is a compare-and-set along one of these edges.
func (s SeatStatus) CanTransition(next SeatStatus) bool {
    switch s {
    case SeatAvailable:
        return next == SeatLocked
    case SeatLocked:
        return next == SeatAvailable || next == SeatBooked
    case SeatBooked:
        return next == SeatAvailable
    }
    return false
}

// Seat is an immutable snapshot of one seat of a show.  Seats are
// created together with their show and are never deleted while a
// booking references them.  Status is mutated only through the seat
// store's compare-and-set, driven by the lock manager or the booking
// service; callers never write to a Seat value they hold.
//
// Fields:
//  ID         – primary key identifier.
//  ShowID     – show this seat belongs to (exactly one).
//  RowLabel   – letter or string designating the row.
//  SeatNumber – number of the seat within the row.
//  SeatType   – STANDARD, PREMIUM or VIP.
//  PriceCents – current price for this seat in cents.
//  Status     – AVAILABLE, LOCKED or BOOKED.
type Seat struct {
    ID         uint64
    ShowID     uint64
    RowLabel   string
    SeatNumber uint32
    SeatType   string
    PriceCents uint32
    Status     SeatStatus
    CreatedAt  time.Time
    UpdatedAt  time.Time
}
