package mysql

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/tickethub/seat-reservation/internal/model"
    "github.com/tickethub/seat-reservation/internal/repository"
)

// SeatRepo encapsulates database operations for the seats table.
type SeatRepo struct {
    q queryer
}

const seatColumns = `id, show_id, row_label, seat_number, seat_type, price_cents, status, created_at, updated_at`

func scanSeat(row interface{ Scan(...any) error }) (model.Seat, error) {
    var s model.Seat
    err := row.Scan(&s.ID, &s.ShowID, &s.RowLabel, &s.SeatNumber, &s.SeatType,
        &s.PriceCents, &s.Status, &s.CreatedAt, &s.UpdatedAt)
    return s, err
}

// GetByShowAndIDs returns the show's seats matching the given ids,
// ordered by ascending seat id.  Ids outside the show are absent from
// the result; callers compare cardinality to detect them.
func (r *SeatRepo) GetByShowAndIDs(ctx context.Context, showID uint64, seatIDs []uint64) ([]model.Seat, error) {
    if len(seatIDs) == 0 {
        return []model.Seat{}, nil
    }
    query := `SELECT ` + seatColumns + ` FROM seats WHERE show_id = ? AND id IN (`
    args := make([]any, 0, len(seatIDs)+1)
    args = append(args, showID)
    for i, id := range seatIDs {
        if i > 0 {
            query += ","
        }
        query += "?"
        args = append(args, id)
    }
    query += `) ORDER BY id`
    rows, err := r.q.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, wrapRetryable(err)
    }
    defer rows.Close()
    var seats []model.Seat
    for rows.Next() {
        s, err := scanSeat(rows)
        if err != nil {
            return nil, err
        }
        seats = append(seats, s)
    }
    return seats, rows.Err()
}

// ListByShow returns every seat of the show ordered by ascending id.
func (r *SeatRepo) ListByShow(ctx context.Context, showID uint64) ([]model.Seat, error) {
    rows, err := r.q.QueryContext(ctx,
        `SELECT `+seatColumns+` FROM seats WHERE show_id = ? ORDER BY id`, showID)
    if err != nil {
        return nil, wrapRetryable(err)
    }
    defer rows.Close()
    var seats []model.Seat
    for rows.Next() {
        s, err := scanSeat(rows)
        if err != nil {
            return nil, err
        }
        seats = append(seats, s)
    }
    return seats, rows.Err()
}

// CountByShowAndStatus counts the show's seats in the given status.
func (r *SeatRepo) CountByShowAndStatus(ctx context.Context, showID uint64, status model.SeatStatus) (int, error) {
    var n int
    err := r.q.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM seats WHERE show_id = ? AND status = ?`, showID, status).Scan(&n)
    if err != nil {
        return 0, wrapRetryable(err)
    }
    return n, nil
}

// UpdateStatus is the row-level compare-and-set on seat status.  The
// UPDATE only matches while the seat still carries the expected
// status, so two racing transitions cannot both win; the loser sees
// ErrStatusConflict and must re-read or roll back.
func (r *SeatRepo) UpdateStatus(ctx context.Context, seatID uint64, from, to model.SeatStatus) error {
    if !from.CanTransition(to) {
        return fmt.Errorf("illegal seat transition %s -> %s", from, to)
    }
    res, err := r.q.ExecContext(ctx,
        `UPDATE seats SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?`,
        to, seatID, from)
    if err != nil {
        return wrapRetryable(err)
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 1 {
        return nil
    }
    // Nothing matched: the seat either moved on or never existed.
    var current model.SeatStatus
    err = r.q.QueryRowContext(ctx, `SELECT status FROM seats WHERE id = ?`, seatID).Scan(&current)
    if errors.Is(err, sql.ErrNoRows) {
        return repository.ErrSeatNotFound
    }
    if err != nil {
        return wrapRetryable(err)
    }
    return repository.ErrStatusConflict
}

// CreateBulk inserts the seats one by one under a prepared statement
// and fills in their assigned ids.  Runs inside the show-creation
// transaction, so partial grids never become visible.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) ([]model.Seat, error) {
    if len(seats) == 0 {
        return seats, nil
    }
    const q = `INSERT INTO seats (show_id, row_label, seat_number, seat_type, price_cents, status)
               VALUES (?, ?, ?, ?, ?, ?)`
    out := make([]model.Seat, 0, len(seats))
    for _, s := range seats {
        res, err := r.q.ExecContext(ctx, q, s.ShowID, s.RowLabel, s.SeatNumber, s.SeatType, s.PriceCents, s.Status)
        if err != nil {
            return nil, wrapRetryable(err)
        }
        id, err := res.LastInsertId()
        if err != nil {
            return nil, err
        }
        s.ID = uint64(id)
        out = append(out, s)
    }
    return out, nil
}
