package service

import (
    "context"
    "errors"
    "time"

    "github.com/tickethub/seat-reservation/internal/model"
    "github.com/tickethub/seat-reservation/internal/repository"
)

// SeatSpec describes one seat of a show's grid at creation time.  A
// zero PriceCents inherits the show's base price.
type SeatSpec struct {
    RowLabel   string
    SeatNumber uint32
    SeatType   string
    PriceCents uint32
}

// SeatView is a seat as presented to clients rendering a seat map:
// the seat itself plus, for LOCKED seats, the holder and expiry of the
// active lock.
type SeatView struct {
    model.Seat
    LockedBy      string
    LockExpiresAt *time.Time
}

// ShowSummary is a show with its derived availability.
type ShowSummary struct {
    model.Show
    AvailableSeats int
}

// CatalogService creates shows with their seat grids and answers
// read-side queries.  It owns no seat-state transitions.
type CatalogService struct {
    store repository.Store
    clock Clock
}

// NewCatalogService wires the catalog.
func NewCatalogService(store repository.Store, clock Clock) *CatalogService {
    return &CatalogService{store: store, clock: clock}
}

// CreateShow persists the show together with its full seat grid in
// one transaction; a show never exists with a partial grid.  All
// seats start AVAILABLE.
func (c *CatalogService) CreateShow(ctx context.Context, show model.Show, seats []SeatSpec) (model.Show, []model.Seat, error) {
    if len(seats) == 0 {
        return model.Show{}, nil, invalid(CodeEmptySeatSet)
    }
    var (
        created     model.Show
        createdGrid []model.Seat
    )
    err := withRetry(ctx, func() error {
        return c.store.WithinTx(ctx, func(tx repository.Store) error {
            show.CreatedAt = c.clock.Now()
            var err error
            created, err = tx.Shows().Create(ctx, show)
            if err != nil {
                return err
            }
            grid := make([]model.Seat, 0, len(seats))
            for _, spec := range seats {
                price := spec.PriceCents
                if price == 0 {
                    price = created.BasePriceCents
                }
                grid = append(grid, model.Seat{
                    ShowID:     created.ID,
                    RowLabel:   spec.RowLabel,
                    SeatNumber: spec.SeatNumber,
                    SeatType:   spec.SeatType,
                    PriceCents: price,
                    Status:     model.SeatAvailable,
                })
            }
            createdGrid, err = tx.Seats().CreateBulk(ctx, grid)
            return err
        })
    })
    if err != nil {
        return model.Show{}, nil, err
    }
    return created, createdGrid, nil
}

// GetShow returns the show with its derived count of AVAILABLE seats.
func (c *CatalogService) GetShow(ctx context.Context, showID uint64) (ShowSummary, error) {
    show, err := c.store.Shows().GetByID(ctx, showID)
    if errors.Is(err, repository.ErrShowNotFound) {
        return ShowSummary{}, notFound(CodeShowNotFound)
    }
    if err != nil {
        return ShowSummary{}, err
    }
    available, err := c.store.Seats().CountByShowAndStatus(ctx, showID, model.SeatAvailable)
    if err != nil {
        return ShowSummary{}, err
    }
    return ShowSummary{Show: show, AvailableSeats: available}, nil
}

// ListShows returns all shows ordered by start time.
func (c *CatalogService) ListShows(ctx context.Context) ([]model.Show, error) {
    return c.store.Shows().List(ctx)
}

// ListSeats returns the show's seat map.  For LOCKED seats the active
// lock's holder and expiry are overlaid when the lock is still live;
// a seat whose lock already lapsed renders without holder detail, the
// sweeper will free it shortly.
func (c *CatalogService) ListSeats(ctx context.Context, showID uint64) ([]SeatView, error) {
    if _, err := c.store.Shows().GetByID(ctx, showID); err != nil {
        if errors.Is(err, repository.ErrShowNotFound) {
            return nil, notFound(CodeShowNotFound)
        }
        return nil, err
    }
    seats, err := c.store.Seats().ListByShow(ctx, showID)
    if err != nil {
        return nil, err
    }
    now := c.clock.Now()
    views := make([]SeatView, 0, len(seats))
    for _, seat := range seats {
        view := SeatView{Seat: seat}
        if seat.Status == model.SeatLocked {
            lock, err := c.store.Locks().ActiveBySeat(ctx, seat.ID)
            if err == nil && !lock.Expired(now) {
                expires := lock.ExpiresAt
                view.LockedBy = lock.UserID
                view.LockExpiresAt = &expires
            } else if err != nil && !errors.Is(err, repository.ErrLockNotFound) {
                return nil, err
            }
        }
        views = append(views, view)
    }
    return views, nil
}
