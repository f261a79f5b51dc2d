package model

import "time"

// SeatLock is a time-bounded, exclusive, non-purchase claim on a seat
// by a user.  At most one *active* lock exists per seat at any instant;
// deactivated locks (expired, released or consumed by a booking) are
// retained as history and never reused.
//
// Fields:
//  ID        – primary key identifier.
//  ShowID    – show the locked seat belongs to.
//  SeatID    – seat being locked.
//  UserID    – opaque identifier of the holder, supplied by the caller.
//  LockedAt  – when the lock was granted.
//  ExpiresAt – when the lock becomes eligible for reclamation.
//  Active    – false once expired, released or consumed.
type SeatLock struct {
    ID        uint64
    ShowID    uint64
    SeatID    uint64
    UserID    string
    LockedAt  time.Time
    ExpiresAt time.Time
    Active    bool
}

// Expired reports whether the lock's TTL has elapsed at the given
// instant.  All expiry comparisons in the engine go through this
// method with an injected clock so tests stay deterministic.
func (l SeatLock) Expired(now time.Time) bool {
    return !l.ExpiresAt.After(now)
}

// HeldBy reports whether the lock belongs to the given user.
func (l SeatLock) HeldBy(userID string) bool {
    return l.UserID == userID
}
