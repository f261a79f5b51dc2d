// Package mysql implements the repository contract on MySQL.  Seat
// and booking status changes are single-row compare-and-set UPDATEs,
// so correctness holds across multiple server processes sharing one
// database; WithinTx supplies the transactional boundary the booking
// orchestrator commits under.
package mysql

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    driver "github.com/go-sql-driver/mysql"

    "github.com/tickethub/seat-reservation/internal/repository"
)

// queryer is satisfied by both *sql.DB and *sql.Tx, letting the same
// repository code run inside and outside a transaction.
type queryer interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the MySQL-backed repository.Store.
type Store struct {
    db *sql.DB
    q  queryer
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
    return &Store{db: db, q: db}
}

func (s *Store) Seats() repository.SeatStore       { return &SeatRepo{q: s.q} }
func (s *Store) Locks() repository.LockStore       { return &LockRepo{q: s.q} }
func (s *Store) Bookings() repository.BookingStore { return &BookingRepo{q: s.q} }
func (s *Store) Shows() repository.ShowStore       { return &ShowRepo{q: s.q} }

// WithinTx runs fn against a Store bound to a single transaction.  The
// transaction is rolled back when fn returns an error and committed
// otherwise.  A nested call runs fn directly on the current
// transaction so the boundary stays the outermost one.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
    if _, ok := s.q.(*sql.Tx); ok {
        return fn(s)
    }
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return wrapRetryable(err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(&Store{db: s.db, q: tx}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return wrapRetryable(err)
    }
    committed = true
    return nil
}

// wrapRetryable marks MySQL deadlocks (1213) and lock-wait timeouts
// (1205) as repository.ErrRetryable.  Both mean the statement did not
// take effect and the whole unit is safe to run again.
func wrapRetryable(err error) error {
    if err == nil {
        return nil
    }
    var me *driver.MySQLError
    if errors.As(err, &me) && (me.Number == 1213 || me.Number == 1205) {
        return fmt.Errorf("%w: %v", repository.ErrRetryable, err)
    }
    return err
}
