package mysql

import (
    "context"
    "database/sql"
    "errors"

    "github.com/tickethub/seat-reservation/internal/model"
    "github.com/tickethub/seat-reservation/internal/repository"
)

// ShowRepo encapsulates database operations for the shows table.
type ShowRepo struct {
    q queryer
}

const showColumns = `id, venue_id, title, starts_at, ends_at, base_price_cents, created_at`

func scanShow(row interface{ Scan(...any) error }) (model.Show, error) {
    var s model.Show
    err := row.Scan(&s.ID, &s.VenueID, &s.Title, &s.StartsAt, &s.EndsAt, &s.BasePriceCents, &s.CreatedAt)
    return s, err
}

// Create inserts a show and returns it with the assigned id.
func (r *ShowRepo) Create(ctx context.Context, s model.Show) (model.Show, error) {
    res, err := r.q.ExecContext(ctx,
        `INSERT INTO shows (venue_id, title, starts_at, ends_at, base_price_cents, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
        s.VenueID, s.Title, s.StartsAt.UTC(), s.EndsAt.UTC(), s.BasePriceCents, s.CreatedAt.UTC())
    if err != nil {
        return model.Show{}, wrapRetryable(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return model.Show{}, err
    }
    s.ID = uint64(id)
    return s, nil
}

// GetByID resolves a show or reports ErrShowNotFound.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (model.Show, error) {
    row := r.q.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id)
    s, err := scanShow(row)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Show{}, repository.ErrShowNotFound
    }
    if err != nil {
        return model.Show{}, wrapRetryable(err)
    }
    return s, nil
}

// List returns all shows ordered by start time.
func (r *ShowRepo) List(ctx context.Context) ([]model.Show, error) {
    rows, err := r.q.QueryContext(ctx, `SELECT `+showColumns+` FROM shows ORDER BY starts_at, id`)
    if err != nil {
        return nil, wrapRetryable(err)
    }
    defer rows.Close()
    var shows []model.Show
    for rows.Next() {
        s, err := scanShow(rows)
        if err != nil {
            return nil, err
        }
        shows = append(shows, s)
    }
    return shows, rows.Err()
}
