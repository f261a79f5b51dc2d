package mysql

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/tickethub/seat-reservation/internal/model"
    "github.com/tickethub/seat-reservation/internal/repository"
)

// LockRepo encapsulates database operations for the seat_locks table.
// Rows are inserted on acquisition and flipped inactive on expiry,
// release or consumption; they are never deleted, so the table doubles
// as the hold history.
type LockRepo struct {
    q queryer
}

const lockColumns = `id, show_id, seat_id, user_id, locked_at, expires_at, active`

func scanLock(row interface{ Scan(...any) error }) (model.SeatLock, error) {
    var l model.SeatLock
    err := row.Scan(&l.ID, &l.ShowID, &l.SeatID, &l.UserID, &l.LockedAt, &l.ExpiresAt, &l.Active)
    return l, err
}

// Create inserts a new active lock and returns it with the assigned id.
// Timestamps are stored in UTC; callers pass values taken from the
// injected clock.
func (r *LockRepo) Create(ctx context.Context, lock model.SeatLock) (model.SeatLock, error) {
    res, err := r.q.ExecContext(ctx,
        `INSERT INTO seat_locks (show_id, seat_id, user_id, locked_at, expires_at, active)
         VALUES (?, ?, ?, ?, ?, 1)`,
        lock.ShowID, lock.SeatID, lock.UserID, lock.LockedAt.UTC(), lock.ExpiresAt.UTC())
    if err != nil {
        return model.SeatLock{}, wrapRetryable(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return model.SeatLock{}, err
    }
    lock.ID = uint64(id)
    lock.Active = true
    return lock, nil
}

// ActiveBySeat returns the single active lock for the seat.  The
// at-most-one-active-lock invariant is maintained by the seat status
// CAS in the service layer, so LIMIT 1 is a formality.
func (r *LockRepo) ActiveBySeat(ctx context.Context, seatID uint64) (model.SeatLock, error) {
    row := r.q.QueryRowContext(ctx,
        `SELECT `+lockColumns+` FROM seat_locks WHERE seat_id = ? AND active = 1 LIMIT 1`, seatID)
    l, err := scanLock(row)
    if errors.Is(err, sql.ErrNoRows) {
        return model.SeatLock{}, repository.ErrLockNotFound
    }
    if err != nil {
        return model.SeatLock{}, wrapRetryable(err)
    }
    return l, nil
}

// Deactivate flips an active lock to inactive.  The active guard makes
// the write idempotence-detectable: a second deactivation reports
// ErrLockNotFound instead of silently succeeding.
func (r *LockRepo) Deactivate(ctx context.Context, lockID uint64) error {
    res, err := r.q.ExecContext(ctx,
        `UPDATE seat_locks SET active = 0 WHERE id = ? AND active = 1`, lockID)
    if err != nil {
        return wrapRetryable(err)
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 0 {
        return repository.ErrLockNotFound
    }
    return nil
}

// ExpiredBefore lists active locks whose expiry lies strictly before
// the given instant, oldest first.  The sweeper drains these in
// batches; idx_active_expires keeps the scan cheap.
func (r *LockRepo) ExpiredBefore(ctx context.Context, now time.Time, limit int) ([]model.SeatLock, error) {
    rows, err := r.q.QueryContext(ctx,
        `SELECT `+lockColumns+` FROM seat_locks
         WHERE active = 1 AND expires_at < ?
         ORDER BY expires_at LIMIT ?`,
        now.UTC(), limit)
    if err != nil {
        return nil, wrapRetryable(err)
    }
    defer rows.Close()
    var locks []model.SeatLock
    for rows.Next() {
        l, err := scanLock(rows)
        if err != nil {
            return nil, err
        }
        locks = append(locks, l)
    }
    return locks, rows.Err()
}
