package service

import (
    "context"
    "errors"
    "log"
    "time"

    "github.com/tickethub/seat-reservation/internal/model"
    "github.com/tickethub/seat-reservation/internal/repository"
)

// sweepBatch caps how many expired locks one pass reclaims, so a pile
// of stale holds cannot starve request traffic on the lock table.
const sweepBatch = 500

// Sweeper periodically reclaims expired seat locks: the seat is
// demoted back to AVAILABLE, but only while it is still LOCKED, and
// the lock is then deactivated.  A seat a purchase moved to BOOKED in the
// meantime is never touched, no matter how stale its originating lock
// is.  The sweeper performs no signalling of its own; freed seats
// become visible through the shared state.
type Sweeper struct {
    store    repository.Store
    clock    Clock
    interval time.Duration

    cancel context.CancelFunc
    done   chan struct{}
}

// NewSweeper configures a sweeper with the given pass interval.
func NewSweeper(store repository.Store, clock Clock, interval time.Duration) *Sweeper {
    return &Sweeper{store: store, clock: clock, interval: interval}
}

// Start launches the periodic task.  It runs until the context is
// cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
    ctx, s.cancel = context.WithCancel(ctx)
    s.done = make(chan struct{})
    go s.run(ctx)
}

// Stop cancels the task and waits for the in-flight pass to finish.
func (s *Sweeper) Stop() {
    if s.cancel == nil {
        return
    }
    s.cancel()
    <-s.done
}

func (s *Sweeper) run(ctx context.Context) {
    defer close(s.done)
    ticker := time.NewTicker(s.interval)
    defer ticker.Stop()
    log.Printf("sweeper: started, interval %s", s.interval)
    for {
        select {
        case <-ctx.Done():
            log.Printf("sweeper: stopped")
            return
        case <-ticker.C:
            if n := s.RunOnce(ctx); n > 0 {
                log.Printf("sweeper: reclaimed %d expired seat locks", n)
            }
        }
    }
}

// RunOnce performs a single sweep pass and returns how many locks it
// reclaimed.  Per-item failures are logged and skipped; the batch
// never aborts on one bad lock.
func (s *Sweeper) RunOnce(ctx context.Context) int {
    now := s.clock.Now()
    expired, err := s.store.Locks().ExpiredBefore(ctx, now, sweepBatch)
    if err != nil {
        log.Printf("sweeper: list expired locks failed: %v", err)
        return 0
    }
    reclaimed := 0
    for _, lock := range expired {
        if err := s.reclaim(ctx, lock); err != nil {
            log.Printf("sweeper: reclaim lock %d (seat %d) failed: %v", lock.ID, lock.SeatID, err)
            continue
        }
        reclaimed++
    }
    return reclaimed
}

// reclaim frees the seat first and only then retires the lock.  If
// the pass dies in between, the still-active lock brings the pair back
// on the next scan; retiring the lock first could strand a LOCKED seat
// no later sweep would ever see.
func (s *Sweeper) reclaim(ctx context.Context, lock model.SeatLock) error {
    // A status conflict means the seat is not LOCKED (booked, or
    // already freed): the check is against the seat's present state,
    // not the lock, and the stale lock is still retired below.
    err := s.store.Seats().UpdateStatus(ctx, lock.SeatID, model.SeatLocked, model.SeatAvailable)
    if err != nil && !errors.Is(err, repository.ErrStatusConflict) {
        return err
    }
    if err := s.store.Locks().Deactivate(ctx, lock.ID); err != nil && !errors.Is(err, repository.ErrLockNotFound) {
        return err
    }
    return nil
}
