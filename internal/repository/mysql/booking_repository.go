package mysql

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/tickethub/seat-reservation/internal/model"
    "github.com/tickethub/seat-reservation/internal/repository"
)

// BookingRepo encapsulates database operations for the bookings and
// booking_seats tables.  A booking's seat set is written once at
// creation and never touched afterwards.
type BookingRepo struct {
    q queryer
}

// Create inserts the booking header and its frozen seat set.  Must be
// called inside WithinTx together with the seat transitions so the
// purchase commits as one unit.
func (r *BookingRepo) Create(ctx context.Context, b model.Booking) (model.Booking, error) {
    res, err := r.q.ExecContext(ctx,
        `INSERT INTO bookings (code, user_id, show_id, total_amount_cents, status, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
        b.Code, b.UserID, b.ShowID, b.TotalAmountCents, b.Status, b.CreatedAt.UTC())
    if err != nil {
        return model.Booking{}, wrapRetryable(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return model.Booking{}, err
    }
    b.ID = uint64(id)
    for _, seat := range b.Seats {
        if _, err := r.q.ExecContext(ctx,
            `INSERT INTO booking_seats (booking_id, seat_id, price_cents) VALUES (?, ?, ?)`,
            b.ID, seat.SeatID, seat.PriceCents); err != nil {
            return model.Booking{}, wrapRetryable(fmt.Errorf("insert booking seat %d: %w", seat.SeatID, err))
        }
    }
    return b, nil
}

// GetByCode resolves a booking by its opaque public code, including
// the seat set in its frozen ascending order.
func (r *BookingRepo) GetByCode(ctx context.Context, code string) (model.Booking, error) {
    row := r.q.QueryRowContext(ctx,
        `SELECT id, code, user_id, show_id, total_amount_cents, status, created_at
         FROM bookings WHERE code = ?`, code)
    var b model.Booking
    err := row.Scan(&b.ID, &b.Code, &b.UserID, &b.ShowID, &b.TotalAmountCents, &b.Status, &b.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Booking{}, repository.ErrBookingNotFound
    }
    if err != nil {
        return model.Booking{}, wrapRetryable(err)
    }
    if b.Seats, err = r.seatsOf(ctx, b.ID); err != nil {
        return model.Booking{}, err
    }
    return b, nil
}

// ListByUser returns the user's bookings newest first, each with its
// seat set resolved through an explicit join rather than per-booking
// round trips.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
    rows, err := r.q.QueryContext(ctx,
        `SELECT b.id, b.code, b.user_id, b.show_id, b.total_amount_cents, b.status, b.created_at,
                bs.seat_id, bs.price_cents
         FROM bookings b
         JOIN booking_seats bs ON bs.booking_id = b.id
         WHERE b.user_id = ?
         ORDER BY b.created_at DESC, b.id DESC, bs.seat_id`, userID)
    if err != nil {
        return nil, wrapRetryable(err)
    }
    defer rows.Close()
    var out []model.Booking
    index := make(map[uint64]int)
    for rows.Next() {
        var b model.Booking
        var seat model.BookingSeat
        if err := rows.Scan(&b.ID, &b.Code, &b.UserID, &b.ShowID, &b.TotalAmountCents,
            &b.Status, &b.CreatedAt, &seat.SeatID, &seat.PriceCents); err != nil {
            return nil, err
        }
        i, ok := index[b.ID]
        if !ok {
            index[b.ID] = len(out)
            b.Seats = []model.BookingSeat{seat}
            out = append(out, b)
            continue
        }
        out[i].Seats = append(out[i].Seats, seat)
    }
    return out, rows.Err()
}

// UpdateStatus is the compare-and-set on booking status guarding the
// payment-confirmation and cancellation boundaries.
func (r *BookingRepo) UpdateStatus(ctx context.Context, bookingID uint64, from, to model.BookingStatus) error {
    if !from.CanTransition(to) {
        return fmt.Errorf("illegal booking transition %s -> %s", from, to)
    }
    res, err := r.q.ExecContext(ctx,
        `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`, to, bookingID, from)
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
    var current model.BookingStatus
    err = r.q.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, bookingID).Scan(&current)
    if errors.Is(err, sql.ErrNoRows) {
        return repository.ErrBookingNotFound
    }
    if err != nil {
        return wrapRetryable(err)
    }
    return repository.ErrStatusConflict
}

func (r *BookingRepo) seatsOf(ctx context.Context, bookingID uint64) ([]model.BookingSeat, error) {
    rows, err := r.q.QueryContext(ctx,
        `SELECT seat_id, price_cents FROM booking_seats WHERE booking_id = ? ORDER BY seat_id`, bookingID)
    if err != nil {
        return nil, wrapRetryable(err)
    }
    defer rows.Close()
    var seats []model.BookingSeat
    for rows.Next() {
        var s model.BookingSeat
        if err := rows.Scan(&s.SeatID, &s.PriceCents); err != nil {
            return nil, err
        }
        seats = append(seats, s)
    }
    return seats, rows.Err()
}
