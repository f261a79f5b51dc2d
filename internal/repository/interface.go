package repository

import (
    "context"
    "time"

    "github.com/tickethub/seat-reservation/internal/model"
)

// SeatStore gives access to seat rows.  UpdateStatus is the atomic
// compare-and-set every higher component relies on for its invariants:
// the write takes effect only when the seat's current status equals
// the expected value, and concurrent updates are never silently lost.
type SeatStore interface {
    // GetByShowAndIDs returns the seats of the show matching the given
    // ids, ordered by ascending seat id.  Ids that do not belong to
    // the show are simply absent from the result; callers detect them
    // by comparing cardinality.
    GetByShowAndIDs(ctx context.Context, showID uint64, seatIDs []uint64) ([]model.Seat, error)

    // ListByShow returns every seat of the show ordered by ascending id.
    ListByShow(ctx context.Context, showID uint64) ([]model.Seat, error)

    // CountByShowAndStatus counts the show's seats in the given status.
    // The engine uses it to derive availability; the count is never stored.
    CountByShowAndStatus(ctx context.Context, showID uint64, status model.SeatStatus) (int, error)

    // UpdateStatus atomically transitions one seat from the expected
    // status to the next.  Returns ErrStatusConflict when the seat's
    // current status differs from the expectation, ErrSeatNotFound
    // when the seat does not exist.
    UpdateStatus(ctx context.Context, seatID uint64, from, to model.SeatStatus) error

    // CreateBulk inserts the given seats, assigning their ids.  Used
    // when a show is created together with its seat grid.
    CreateBulk(ctx context.Context, seats []model.Seat) ([]model.Seat, error)
}

// LockStore gives access to seat lock rows.  Locks are inserted on
// acquisition and deactivated on expiry, release or consumption; they
// are never deleted or reused.
type LockStore interface {
    // Create inserts a new active lock and returns it with its id set.
    Create(ctx context.Context, lock model.SeatLock) (model.SeatLock, error)

    // ActiveBySeat returns the single active lock for the seat, or
    // ErrLockNotFound when none exists.
    ActiveBySeat(ctx context.Context, seatID uint64) (model.SeatLock, error)

    // Deactivate atomically flips an active lock to inactive.  Returns
    // ErrLockNotFound when the lock does not exist or is already
    // inactive, so double releases are detectable.
    Deactivate(ctx context.Context, lockID uint64) error

    // ExpiredBefore lists active locks whose expiry lies strictly
    // before the given instant, oldest first, capped at limit.
    ExpiredBefore(ctx context.Context, now time.Time, limit int) ([]model.SeatLock, error)
}

// BookingStore gives access to booking rows and their frozen seat sets.
type BookingStore interface {
    // Create inserts the booking and its seats, assigning the id.
    Create(ctx context.Context, b model.Booking) (model.Booking, error)

    // GetByCode resolves a booking by its opaque public code.
    GetByCode(ctx context.Context, code string) (model.Booking, error)

    // ListByUser returns the user's bookings, newest first.
    ListByUser(ctx context.Context, userID string) ([]model.Booking, error)

    // UpdateStatus atomically transitions a booking from the expected
    // status to the next; ErrStatusConflict when the current status
    // differs.  This is the guard on the payment-confirmation boundary.
    UpdateStatus(ctx context.Context, bookingID uint64, from, to model.BookingStatus) error
}

// ShowStore gives access to show rows.
type ShowStore interface {
    Create(ctx context.Context, s model.Show) (model.Show, error)
    GetByID(ctx context.Context, id uint64) (model.Show, error)
    List(ctx context.Context) ([]model.Show, error)
}

// Store bundles the per-entity stores with an explicit transactional
// boundary.  WithinTx runs fn against a Store whose writes commit
// together or not at all; the booking orchestrator uses it so that
// seat transitions, lock deactivations and the booking insert form one
// atomic unit.  Implementations must tolerate nesting by running fn
// directly when already inside a transaction.
type Store interface {
    Seats() SeatStore
    Locks() LockStore
    Bookings() BookingStore
    Shows() ShowStore
    WithinTx(ctx context.Context, fn func(Store) error) error
}
