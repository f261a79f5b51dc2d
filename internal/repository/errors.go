// Package repository defines the storage collaborator contract the
// reservation engine runs against, together with the sentinel errors
// shared by all of its implementations.  The engine assumes the
// backing store offers atomic read-modify-write per row and indexed
// lookups; everything stronger (lock ordering, rollback discipline,
// transactional booking) is built on top of these primitives in the
// service layer.
package repository

import "errors"

// ErrShowNotFound is returned when a show id resolves to no row.
var ErrShowNotFound = errors.New("show not found")

// ErrSeatNotFound is returned when a seat id resolves to no row for
// the requested show.
var ErrSeatNotFound = errors.New("seat not found")

// ErrLockNotFound is returned when no active seat lock exists for the
// requested seat, or when a deactivation targets a lock that is no
// longer active.
var ErrLockNotFound = errors.New("seat lock not found")

// ErrBookingNotFound is returned when a booking id or code resolves to
// no row.
var ErrBookingNotFound = errors.New("booking not found")

// ErrStatusConflict is the compare-and-set failure: the row's current
// status did not match the expected value, so nothing was written.
// Callers treat it as "someone else got there first" and either roll
// back or re-read to find out what happened.
var ErrStatusConflict = errors.New("status conflict")

// ErrRetryable wraps transient storage failures (deadlocks, lock-wait
// timeouts).  The operation did not take effect and may be retried;
// the service layer retries a bounded number of times before
// surfacing the failure as service-unavailable.
var ErrRetryable = errors.New("transient storage failure")
