// Package service holds the reservation engine: the lock manager, the
// booking orchestrator, the expiry sweeper and the show catalog.  All
// state lives behind the repository contract; the only concurrency
// primitives used here are the store's compare-and-set and its
// transactional boundary, so correctness holds with any number of
// server processes sharing one database.
package service

import (
    "errors"
    "fmt"
)

// Kind classifies a Failure for transport-level mapping.
type Kind int

const (
    KindInvalid     Kind = iota + 1 // malformed request (empty seat set and the like)
    KindNotFound                    // show / seat / booking / lock absent
    KindConflict                    // lost a race or violated a precondition
    KindUnavailable                 // transient storage trouble outlasted the retries
)

// Reason codes surfaced to callers alongside the Kind.
const (
    CodeEmptySeatSet       = "EMPTY_SEAT_SET"
    CodeShowNotFound       = "SHOW_NOT_FOUND"
    CodeSeatNotFound       = "SEAT_NOT_FOUND"
    CodeBookingNotFound    = "BOOKING_NOT_FOUND"
    CodeLockNotFound       = "LOCK_NOT_FOUND"
    CodeSeatUnavailable    = "SEAT_UNAVAILABLE"
    CodeSeatLockedByOther  = "SEAT_LOCKED_BY_OTHER"
    CodeLockMissing        = "LOCK_MISSING"
    CodeLockExpired        = "LOCK_EXPIRED"
    CodeLockOwnerMismatch  = "LOCK_OWNER_MISMATCH"
    CodeNotLockOwner       = "NOT_LOCK_OWNER"
    CodeNotBookingOwner    = "NOT_BOOKING_OWNER"
    CodeBookingNotPending  = "BOOKING_NOT_PENDING"
    CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)

// Failure is a rejected operation with a machine-readable reason.
// SeatID is set when the failure concerns one seat of a batch, so the
// caller can tell which seat sank an all-or-nothing request.
type Failure struct {
    Kind   Kind
    Code   string
    SeatID uint64
    err    error
}

func (f *Failure) Error() string {
    switch {
    case f.SeatID != 0:
        return fmt.Sprintf("%s (seat %d)", f.Code, f.SeatID)
    case f.err != nil:
        return fmt.Sprintf("%s: %v", f.Code, f.err)
    }
    return f.Code
}

func (f *Failure) Unwrap() error { return f.err }

func notFound(code string) *Failure         { return &Failure{Kind: KindNotFound, Code: code} }
func conflict(code string) *Failure         { return &Failure{Kind: KindConflict, Code: code} }
func invalid(code string) *Failure          { return &Failure{Kind: KindInvalid, Code: code} }
func seatFailure(k Kind, code string, seatID uint64) *Failure {
    return &Failure{Kind: k, Code: code, SeatID: seatID}
}

// AsFailure unwraps err into a *Failure when it carries one.
func AsFailure(err error) (*Failure, bool) {
    var f *Failure
    ok := errors.As(err, &f)
    return f, ok
}

// FailureCode returns the reason code of err, or "" when err is not a
// Failure.  Convenient in tests and log lines.
func FailureCode(err error) string {
    if f, ok := AsFailure(err); ok {
        return f.Code
    }
    return ""
}

// IsConflict reports whether err is a Conflict-kind Failure.
func IsConflict(err error) bool {
    f, ok := AsFailure(err)
    return ok && f.Kind == KindConflict
}

// IsNotFound reports whether err is a NotFound-kind Failure.
func IsNotFound(err error) bool {
    f, ok := AsFailure(err)
    return ok && f.Kind == KindNotFound
}
