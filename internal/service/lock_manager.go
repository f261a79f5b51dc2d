package service

import (
    "context"
    "errors"
    "log"
    "sort"
    "time"

    "github.com/tickethub/seat-reservation/internal/model"
    "github.com/tickethub/seat-reservation/internal/queue"
    "github.com/tickethub/seat-reservation/internal/repository"
)

// LockManager grants, validates and releases time-bounded seat locks.
// Every mutation goes through the seat store's compare-and-set, never
// an in-process lock, so two server instances racing for the same seat
// resolve the race in storage.  Multi-seat requests process seats in
// ascending id order; combined with per-seat CAS this rules out
// circular waits between overlapping requests.
type LockManager struct {
    store    repository.Store
    notifier queue.Notifier
    clock    Clock
    ttl      time.Duration
}

// NewLockManager wires the manager with its default TTL, applied when
// a caller passes a non-positive ttl to Acquire.
func NewLockManager(store repository.Store, notifier queue.Notifier, clock Clock, ttl time.Duration) *LockManager {
    return &LockManager{store: store, notifier: notifier, clock: clock, ttl: ttl}
}

// DefaultTTL returns the configured lock lifetime.
func (m *LockManager) DefaultTTL() time.Duration { return m.ttl }

// normalizeSeatIDs drops zero ids, deduplicates and sorts ascending.
// The ascending order is the fixed cross-seat processing order of
// every multi-seat operation.
func normalizeSeatIDs(ids []uint64) []uint64 {
    seen := make(map[uint64]struct{}, len(ids))
    out := make([]uint64, 0, len(ids))
    for _, id := range ids {
        if id == 0 {
            continue
        }
        if _, ok := seen[id]; ok {
            continue
        }
        seen[id] = struct{}{}
        out = append(out, id)
    }
    sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
    return out
}

// firstMissing returns the first requested id absent from the resolved
// seats, for the SeatID detail of a SEAT_NOT_FOUND failure.
func firstMissing(requested []uint64, seats []model.Seat) uint64 {
    have := make(map[uint64]struct{}, len(seats))
    for _, s := range seats {
        have[s.ID] = struct{}{}
    }
    for _, id := range requested {
        if _, ok := have[id]; !ok {
            return id
        }
    }
    return 0
}

// Acquire grants the caller an active lock on every requested seat of
// the show, or nothing at all.  Seats already locked by the same user
// are re-granted idempotently.  On any precondition failure every seat
// flipped earlier in this call is rolled back before the error
// returns.  A non-positive ttl selects the configured default.
func (m *LockManager) Acquire(ctx context.Context, showID uint64, seatIDs []uint64, userID string, ttl time.Duration) ([]model.SeatLock, error) {
    ids := normalizeSeatIDs(seatIDs)
    if len(ids) == 0 {
        return nil, invalid(CodeEmptySeatSet)
    }
    if ttl <= 0 {
        ttl = m.ttl
    }
    var granted []model.SeatLock
    err := withRetry(ctx, func() error {
        var err error
        granted, err = m.acquire(ctx, showID, ids, userID, ttl)
        return err
    })
    if err != nil {
        return nil, err
    }
    return granted, nil
}

// flippedSeat tracks one seat this call transitioned, for rollback.
type flippedSeat struct {
    seatID uint64
    lockID uint64
}

func (m *LockManager) acquire(ctx context.Context, showID uint64, ids []uint64, userID string, ttl time.Duration) ([]model.SeatLock, error) {
    if _, err := m.store.Shows().GetByID(ctx, showID); err != nil {
        if errors.Is(err, repository.ErrShowNotFound) {
            return nil, notFound(CodeShowNotFound)
        }
        return nil, err
    }
    seats, err := m.store.Seats().GetByShowAndIDs(ctx, showID, ids)
    if err != nil {
        return nil, err
    }
    if len(seats) != len(ids) {
        return nil, seatFailure(KindNotFound, CodeSeatNotFound, firstMissing(ids, seats))
    }

    now := m.clock.Now()
    expiresAt := now.Add(ttl)
    granted := make([]model.SeatLock, 0, len(seats))
    var flipped []flippedSeat

    for _, seat := range seats {
        existing, err := m.store.Locks().ActiveBySeat(ctx, seat.ID)
        switch {
        case err == nil && existing.HeldBy(userID) && !existing.Expired(now):
            // Re-request by the holder: return the existing lock, no duplicate.
            granted = append(granted, existing)
            continue
        case err == nil && !existing.Expired(now):
            m.rollback(ctx, flipped)
            return nil, seatFailure(KindConflict, CodeSeatLockedByOther, seat.ID)
        case err == nil:
            // Expired but not yet swept: reclaim inline, as the sweeper would.
            seat.Status = m.reclaimExpired(ctx, seat, existing)
        case !errors.Is(err, repository.ErrLockNotFound):
            m.rollback(ctx, flipped)
            return nil, err
        case seat.Status == model.SeatLocked:
            // LOCKED with no active lock can only be the residue of an
            // interrupted release or rollback; repair it in place.
            if uerr := m.store.Seats().UpdateStatus(ctx, seat.ID, model.SeatLocked, model.SeatAvailable); uerr == nil {
                seat.Status = model.SeatAvailable
            }
        }

        if seat.Status != model.SeatAvailable {
            m.rollback(ctx, flipped)
            if seat.Status == model.SeatLocked {
                return nil, seatFailure(KindConflict, CodeSeatLockedByOther, seat.ID)
            }
            return nil, seatFailure(KindConflict, CodeSeatUnavailable, seat.ID)
        }

        if err := m.store.Seats().UpdateStatus(ctx, seat.ID, model.SeatAvailable, model.SeatLocked); err != nil {
            m.rollback(ctx, flipped)
            switch {
            case errors.Is(err, repository.ErrStatusConflict):
                return nil, m.raceFailure(ctx, seat.ID, userID)
            case errors.Is(err, repository.ErrSeatNotFound):
                return nil, seatFailure(KindNotFound, CodeSeatNotFound, seat.ID)
            }
            return nil, err
        }

        lock, err := m.store.Locks().Create(ctx, model.SeatLock{
            ShowID:    showID,
            SeatID:    seat.ID,
            UserID:    userID,
            LockedAt:  now,
            ExpiresAt: expiresAt,
        })
        if err != nil {
            m.rollback(ctx, append(flipped, flippedSeat{seatID: seat.ID}))
            return nil, err
        }
        granted = append(granted, lock)
        flipped = append(flipped, flippedSeat{seatID: seat.ID, lockID: lock.ID})
    }

    if err := m.notifier.SeatsLocked(ctx, showID, granted, userID); err != nil {
        log.Printf("lock: publish seat.locked failed: %v", err)
    }
    return granted, nil
}

// reclaimExpired frees the seat of an expired lock and then retires
// the lock, ahead of the sweeper.  The seat moves first: if the
// deactivation is lost, an active lock on an AVAILABLE seat remains,
// which the sweeper retires at the next pass; the reverse order could
// strand a LOCKED seat with no lock at all.  Returns the seat's
// status after the attempt.
func (m *LockManager) reclaimExpired(ctx context.Context, seat model.Seat, lock model.SeatLock) model.SeatStatus {
    status := seat.Status
    if status == model.SeatLocked {
        err := m.store.Seats().UpdateStatus(ctx, seat.ID, model.SeatLocked, model.SeatAvailable)
        switch {
        case err == nil:
            status = model.SeatAvailable
        case errors.Is(err, repository.ErrStatusConflict):
            // Someone transitioned the seat between our read and the CAS.
            if fresh, ferr := m.store.Seats().GetByShowAndIDs(ctx, seat.ShowID, []uint64{seat.ID}); ferr == nil && len(fresh) == 1 {
                status = fresh[0].Status
            }
        default:
            // Seat still LOCKED under its active lock: a consistent
            // pair the sweeper picks up again.
            log.Printf("lock: free seat %d after expired lock failed: %v", seat.ID, err)
            return status
        }
    }
    if err := m.store.Locks().Deactivate(ctx, lock.ID); err != nil && !errors.Is(err, repository.ErrLockNotFound) {
        log.Printf("lock: deactivate expired lock %d failed: %v", lock.ID, err)
    }
    return status
}

// raceFailure decides which conflict to report after losing the
// AVAILABLE→LOCKED compare-and-set: locked by another user when their
// lock is visible, plain unavailable otherwise.
func (m *LockManager) raceFailure(ctx context.Context, seatID uint64, userID string) error {
    if lock, err := m.store.Locks().ActiveBySeat(ctx, seatID); err == nil && !lock.HeldBy(userID) {
        return seatFailure(KindConflict, CodeSeatLockedByOther, seatID)
    }
    return seatFailure(KindConflict, CodeSeatUnavailable, seatID)
}

// rollback undoes the seats flipped earlier in a failed batch, newest
// first.  Each seat is freed before its lock is retired: if the seat
// CAS is lost the lock stays active and the pair remains a normal
// expired hold the sweeper reclaims, whereas retiring the lock first
// could strand a LOCKED seat no sweep can see.  Failures are logged
// and skipped.
func (m *LockManager) rollback(ctx context.Context, flipped []flippedSeat) {
    for i := len(flipped) - 1; i >= 0; i-- {
        f := flipped[i]
        if err := m.store.Seats().UpdateStatus(ctx, f.seatID, model.SeatLocked, model.SeatAvailable); err != nil &&
            !errors.Is(err, repository.ErrStatusConflict) {
            log.Printf("lock: rollback free seat %d failed: %v", f.seatID, err)
            if f.lockID != 0 {
                continue // keep the lock active so expiry reclaims the pair
            }
        }
        if f.lockID != 0 {
            if err := m.store.Locks().Deactivate(ctx, f.lockID); err != nil && !errors.Is(err, repository.ErrLockNotFound) {
                log.Printf("lock: rollback deactivate lock %d failed: %v", f.lockID, err)
            }
        }
    }
}

// Release deactivates the caller's active locks on the given seats and
// returns the seats to AVAILABLE.  The whole release runs inside one
// storage transaction: ownership of every requested lock is verified
// before anything is mutated, and a failure part-way through restores
// every seat and lock, so a rejected or retried release never leaves a
// half-freed batch behind.
func (m *LockManager) Release(ctx context.Context, showID uint64, seatIDs []uint64, userID string) error {
    ids := normalizeSeatIDs(seatIDs)
    if len(ids) == 0 {
        return invalid(CodeEmptySeatSet)
    }
    err := withRetry(ctx, func() error {
        return m.store.WithinTx(ctx, func(tx repository.Store) error {
            return m.releaseInTx(ctx, tx, showID, ids, userID)
        })
    })
    if err != nil {
        return err
    }
    if err := m.notifier.SeatsUnlocked(ctx, showID, ids, userID); err != nil {
        log.Printf("lock: publish seat.unlocked failed: %v", err)
    }
    return nil
}

func (m *LockManager) releaseInTx(ctx context.Context, tx repository.Store, showID uint64, ids []uint64, userID string) error {
    seats, err := tx.Seats().GetByShowAndIDs(ctx, showID, ids)
    if err != nil {
        return err
    }
    if len(seats) != len(ids) {
        return seatFailure(KindNotFound, CodeSeatNotFound, firstMissing(ids, seats))
    }

    // First pass: verify every lock exists and belongs to the caller.
    locks := make([]model.SeatLock, 0, len(ids))
    for _, id := range ids {
        lock, err := tx.Locks().ActiveBySeat(ctx, id)
        if errors.Is(err, repository.ErrLockNotFound) {
            return seatFailure(KindNotFound, CodeLockNotFound, id)
        }
        if err != nil {
            return err
        }
        if !lock.HeldBy(userID) {
            return seatFailure(KindConflict, CodeNotLockOwner, id)
        }
        locks = append(locks, lock)
    }

    // Second pass: free each seat, then retire its lock.
    for _, lock := range locks {
        if err := tx.Seats().UpdateStatus(ctx, lock.SeatID, model.SeatLocked, model.SeatAvailable); err != nil &&
            !errors.Is(err, repository.ErrStatusConflict) {
            return err
        }
        if err := tx.Locks().Deactivate(ctx, lock.ID); err != nil && !errors.Is(err, repository.ErrLockNotFound) {
            return err
        }
    }
    return nil
}

// Validate succeeds only when an active lock exists for the seat, is
// owned by userID, and expires strictly after now.
func (m *LockManager) Validate(ctx context.Context, seatID uint64, userID string, now time.Time) (model.SeatLock, error) {
    return validateLock(ctx, m.store.Locks(), seatID, userID, now)
}

// validateLock is shared with the booking orchestrator, which runs the
// same check against its transaction-scoped store.
func validateLock(ctx context.Context, locks repository.LockStore, seatID uint64, userID string, now time.Time) (model.SeatLock, error) {
    lock, err := locks.ActiveBySeat(ctx, seatID)
    if errors.Is(err, repository.ErrLockNotFound) {
        return model.SeatLock{}, seatFailure(KindConflict, CodeLockMissing, seatID)
    }
    if err != nil {
        return model.SeatLock{}, err
    }
    if !lock.HeldBy(userID) {
        return model.SeatLock{}, seatFailure(KindConflict, CodeLockOwnerMismatch, seatID)
    }
    if lock.Expired(now) {
        return model.SeatLock{}, seatFailure(KindConflict, CodeLockExpired, seatID)
    }
    return lock, nil
}
