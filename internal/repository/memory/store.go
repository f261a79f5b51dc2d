// Package memory implements the repository contract on plain maps
// guarded by a single mutex.  It backs the engine's tests and the
// single-process dev mode; production deployments run the mysql
// implementation, since a process-local mutex cannot coordinate
// multiple server instances.
package memory

import (
    "context"
    "fmt"
    "sort"
    "sync"
    "time"

    "github.com/tickethub/seat-reservation/internal/model"
    "github.com/tickethub/seat-reservation/internal/repository"
)

type data struct {
    shows    map[uint64]model.Show
    seats    map[uint64]model.Seat
    locks    map[uint64]model.SeatLock
    bookings map[uint64]model.Booking

    nextShowID    uint64
    nextSeatID    uint64
    nextLockID    uint64
    nextBookingID uint64
}

func (d *data) clone() *data {
    c := &data{
        shows:         make(map[uint64]model.Show, len(d.shows)),
        seats:         make(map[uint64]model.Seat, len(d.seats)),
        locks:         make(map[uint64]model.SeatLock, len(d.locks)),
        bookings:      make(map[uint64]model.Booking, len(d.bookings)),
        nextShowID:    d.nextShowID,
        nextSeatID:    d.nextSeatID,
        nextLockID:    d.nextLockID,
        nextBookingID: d.nextBookingID,
    }
    for id, s := range d.shows {
        c.shows[id] = s
    }
    for id, s := range d.seats {
        c.seats[id] = s
    }
    for id, l := range d.locks {
        c.locks[id] = l
    }
    for id, b := range d.bookings {
        b.Seats = append([]model.BookingSeat(nil), b.Seats...)
        c.bookings[id] = b
    }
    return c
}

// Store is the in-memory repository.Store.
type Store struct {
    mu   *sync.Mutex
    d    *data
    inTx bool
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
    return &Store{
        mu: &sync.Mutex{},
        d: &data{
            shows:    make(map[uint64]model.Show),
            seats:    make(map[uint64]model.Seat),
            locks:    make(map[uint64]model.SeatLock),
            bookings: make(map[uint64]model.Booking),
        },
    }
}

// lock is a no-op inside WithinTx, where the transaction already holds
// the mutex for its whole extent.
func (s *Store) lock() {
    if !s.inTx {
        s.mu.Lock()
    }
}

func (s *Store) unlock() {
    if !s.inTx {
        s.mu.Unlock()
    }
}

func (s *Store) Seats() repository.SeatStore       { return seatStore{s} }
func (s *Store) Locks() repository.LockStore       { return lockStore{s} }
func (s *Store) Bookings() repository.BookingStore { return bookingStore{s} }
func (s *Store) Shows() repository.ShowStore       { return showStore{s} }

// WithinTx holds the mutex for the whole of fn and restores a snapshot
// of the data when fn fails, so the all-or-nothing guarantee of the
// real transactional backend holds here too.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
    if s.inTx {
        return fn(s)
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    snapshot := s.d.clone()
    if err := fn(&Store{mu: s.mu, d: s.d, inTx: true}); err != nil {
        *s.d = *snapshot
        return err
    }
    return nil
}

type seatStore struct{ s *Store }

func (v seatStore) GetByShowAndIDs(ctx context.Context, showID uint64, seatIDs []uint64) ([]model.Seat, error) {
    v.s.lock()
    defer v.s.unlock()
    want := make(map[uint64]struct{}, len(seatIDs))
    for _, id := range seatIDs {
        want[id] = struct{}{}
    }
    var out []model.Seat
    for _, seat := range v.s.d.seats {
        if seat.ShowID != showID {
            continue
        }
        if _, ok := want[seat.ID]; ok {
            out = append(out, seat)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (v seatStore) ListByShow(ctx context.Context, showID uint64) ([]model.Seat, error) {
    v.s.lock()
    defer v.s.unlock()
    var out []model.Seat
    for _, seat := range v.s.d.seats {
        if seat.ShowID == showID {
            out = append(out, seat)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (v seatStore) CountByShowAndStatus(ctx context.Context, showID uint64, status model.SeatStatus) (int, error) {
    v.s.lock()
    defer v.s.unlock()
    n := 0
    for _, seat := range v.s.d.seats {
        if seat.ShowID == showID && seat.Status == status {
            n++
        }
    }
    return n, nil
}

func (v seatStore) UpdateStatus(ctx context.Context, seatID uint64, from, to model.SeatStatus) error {
    if !from.CanTransition(to) {
        return fmt.Errorf("illegal seat transition %s -> %s", from, to)
    }
    v.s.lock()
    defer v.s.unlock()
    seat, ok := v.s.d.seats[seatID]
    if !ok {
        return repository.ErrSeatNotFound
    }
    if seat.Status != from {
        return repository.ErrStatusConflict
    }
    seat.Status = to
    seat.UpdatedAt = time.Now().UTC()
    v.s.d.seats[seatID] = seat
    return nil
}

func (v seatStore) CreateBulk(ctx context.Context, seats []model.Seat) ([]model.Seat, error) {
    v.s.lock()
    defer v.s.unlock()
    out := make([]model.Seat, 0, len(seats))
    for _, seat := range seats {
        v.s.d.nextSeatID++
        seat.ID = v.s.d.nextSeatID
        v.s.d.seats[seat.ID] = seat
        out = append(out, seat)
    }
    return out, nil
}

type lockStore struct{ s *Store }

func (v lockStore) Create(ctx context.Context, lock model.SeatLock) (model.SeatLock, error) {
    v.s.lock()
    defer v.s.unlock()
    v.s.d.nextLockID++
    lock.ID = v.s.d.nextLockID
    lock.Active = true
    v.s.d.locks[lock.ID] = lock
    return lock, nil
}

func (v lockStore) ActiveBySeat(ctx context.Context, seatID uint64) (model.SeatLock, error) {
    v.s.lock()
    defer v.s.unlock()
    for _, l := range v.s.d.locks {
        if l.SeatID == seatID && l.Active {
            return l, nil
        }
    }
    return model.SeatLock{}, repository.ErrLockNotFound
}

func (v lockStore) Deactivate(ctx context.Context, lockID uint64) error {
    v.s.lock()
    defer v.s.unlock()
    l, ok := v.s.d.locks[lockID]
    if !ok || !l.Active {
        return repository.ErrLockNotFound
    }
    l.Active = false
    v.s.d.locks[lockID] = l
    return nil
}

func (v lockStore) ExpiredBefore(ctx context.Context, now time.Time, limit int) ([]model.SeatLock, error) {
    v.s.lock()
    defer v.s.unlock()
    var out []model.SeatLock
    for _, l := range v.s.d.locks {
        if l.Active && l.ExpiresAt.Before(now) {
            out = append(out, l)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
    if limit > 0 && len(out) > limit {
        out = out[:limit]
    }
    return out, nil
}

type bookingStore struct{ s *Store }

func (v bookingStore) Create(ctx context.Context, b model.Booking) (model.Booking, error) {
    v.s.lock()
    defer v.s.unlock()
    for _, existing := range v.s.d.bookings {
        if existing.Code == b.Code {
            return model.Booking{}, fmt.Errorf("duplicate booking code %q", b.Code)
        }
    }
    v.s.d.nextBookingID++
    b.ID = v.s.d.nextBookingID
    b.Seats = append([]model.BookingSeat(nil), b.Seats...)
    v.s.d.bookings[b.ID] = b
    return b, nil
}

func (v bookingStore) GetByCode(ctx context.Context, code string) (model.Booking, error) {
    v.s.lock()
    defer v.s.unlock()
    for _, b := range v.s.d.bookings {
        if b.Code == code {
            b.Seats = append([]model.BookingSeat(nil), b.Seats...)
            return b, nil
        }
    }
    return model.Booking{}, repository.ErrBookingNotFound
}

func (v bookingStore) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
    v.s.lock()
    defer v.s.unlock()
    var out []model.Booking
    for _, b := range v.s.d.bookings {
        if b.UserID == userID {
            b.Seats = append([]model.BookingSeat(nil), b.Seats...)
            out = append(out, b)
        }
    }
    sort.Slice(out, func(i, j int) bool {
        if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
            return out[i].CreatedAt.After(out[j].CreatedAt)
        }
        return out[i].ID > out[j].ID
    })
    return out, nil
}

func (v bookingStore) UpdateStatus(ctx context.Context, bookingID uint64, from, to model.BookingStatus) error {
    if !from.CanTransition(to) {
        return fmt.Errorf("illegal booking transition %s -> %s", from, to)
    }
    v.s.lock()
    defer v.s.unlock()
    b, ok := v.s.d.bookings[bookingID]
    if !ok {
        return repository.ErrBookingNotFound
    }
    if b.Status != from {
        return repository.ErrStatusConflict
    }
    b.Status = to
    v.s.d.bookings[bookingID] = b
    return nil
}

type showStore struct{ s *Store }

func (v showStore) Create(ctx context.Context, show model.Show) (model.Show, error) {
    v.s.lock()
    defer v.s.unlock()
    v.s.d.nextShowID++
    show.ID = v.s.d.nextShowID
    v.s.d.shows[show.ID] = show
    return show, nil
}

func (v showStore) GetByID(ctx context.Context, id uint64) (model.Show, error) {
    v.s.lock()
    defer v.s.unlock()
    show, ok := v.s.d.shows[id]
    if !ok {
        return model.Show{}, repository.ErrShowNotFound
    }
    return show, nil
}

func (v showStore) List(ctx context.Context) ([]model.Show, error) {
    v.s.lock()
    defer v.s.unlock()
    var out []model.Show
    for _, show := range v.s.d.shows {
        out = append(out, show)
    }
    sort.Slice(out, func(i, j int) bool {
        if !out[i].StartsAt.Equal(out[j].StartsAt) {
            return out[i].StartsAt.Before(out[j].StartsAt)
        }
        return out[i].ID < out[j].ID
    })
    return out, nil
}
