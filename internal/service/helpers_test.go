package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tickethub/seat-reservation/internal/model"
	"github.com/tickethub/seat-reservation/internal/queue"
	"github.com/tickethub/seat-reservation/internal/repository"
	"github.com/tickethub/seat-reservation/internal/repository/memory"
	"github.com/tickethub/seat-reservation/internal/service"
)

// fakeClock is a settable clock so expiry behaviour is deterministic.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recorder captures published events so tests can assert on the
// notification side-channel without a broker.
type recorder struct {
	mu          sync.Mutex
	locked      [][]uint64
	lockedLocks [][]model.SeatLock
	unlocked    [][]uint64
	booked      [][]uint64
	created     []queue.BookingCreatedEvent
}

func (r *recorder) SeatsLocked(_ context.Context, _ uint64, locks []model.SeatLock, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint64, 0, len(locks))
	for _, l := range locks {
		ids = append(ids, l.SeatID)
	}
	r.locked = append(r.locked, ids)
	r.lockedLocks = append(r.lockedLocks, append([]model.SeatLock(nil), locks...))
	return nil
}

func (r *recorder) SeatsUnlocked(_ context.Context, _ uint64, seatIDs []uint64, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unlocked = append(r.unlocked, append([]uint64(nil), seatIDs...))
	return nil
}

func (r *recorder) SeatsBooked(_ context.Context, _ uint64, seatIDs []uint64, _ uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.booked = append(r.booked, append([]uint64(nil), seatIDs...))
	return nil
}

func (r *recorder) BookingCreated(_ context.Context, ev queue.BookingCreatedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, ev)
	return nil
}

// fixture seeds one show with a grid of priced seats and wires the
// engine around an in-memory store.
type fixture struct {
	store    *memory.Store
	clock    *fakeClock
	notifier *recorder
	locks    *service.LockManager
	bookings *service.BookingService
	catalog  *service.CatalogService
	show     model.Show
	seats    []model.Seat
}

func newFixture(t *testing.T, seatCount int) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := newFakeClock(time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC))
	rec := &recorder{}
	catalog := service.NewCatalogService(store, clock)

	specs := make([]service.SeatSpec, 0, seatCount)
	for i := 0; i < seatCount; i++ {
		specs = append(specs, service.SeatSpec{
			RowLabel:   "A",
			SeatNumber: uint32(i + 1),
			SeatType:   "STANDARD",
			PriceCents: uint32(1000 * (i + 1)),
		})
	}
	show, seats, err := catalog.CreateShow(context.Background(), model.Show{
		VenueID:        1,
		Title:          "Evening Premiere",
		StartsAt:       clock.Now().Add(24 * time.Hour),
		EndsAt:         clock.Now().Add(26 * time.Hour),
		BasePriceCents: 1000,
	}, specs)
	require.NoError(t, err)
	require.Len(t, seats, seatCount)

	return &fixture{
		store:    store,
		clock:    clock,
		notifier: rec,
		locks:    service.NewLockManager(store, rec, clock, 3*time.Minute),
		bookings: service.NewBookingService(store, rec, rec, clock),
		catalog:  catalog,
		show:     show,
		seats:    seats,
	}
}

// seat re-reads one seat's current state from the store.
func (f *fixture) seat(t *testing.T, seatID uint64) model.Seat {
	t.Helper()
	seats, err := f.store.Seats().GetByShowAndIDs(context.Background(), f.show.ID, []uint64{seatID})
	require.NoError(t, err)
	require.Len(t, seats, 1)
	return seats[0]
}

// requireCode asserts err is a Failure carrying the given reason code.
func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, service.FailureCode(err))
}

// seatFault is one injected storage fault, matched by seat id and
// transition direction and armed for a fixed number of hits.
type seatFault struct {
	mu     sync.Mutex
	seatID uint64
	from   model.SeatStatus
	to     model.SeatStatus
	times  int
	err    error
}

func (f *seatFault) hit(seatID uint64, from, to model.SeatStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.times > 0 && f.seatID == seatID && f.from == from && f.to == to {
		f.times--
		return f.err
	}
	return nil
}

func (f *seatFault) disarm() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.times = 0
}

// faultyStore wraps a Store and fails selected seat status updates,
// simulating transient or persistent storage trouble.
type faultyStore struct {
	inner repository.Store
	fault *seatFault
}

func newFaultyStore(inner repository.Store, fault *seatFault) *faultyStore {
	return &faultyStore{inner: inner, fault: fault}
}

func (s *faultyStore) Seats() repository.SeatStore {
	return faultySeats{SeatStore: s.inner.Seats(), fault: s.fault}
}
func (s *faultyStore) Locks() repository.LockStore       { return s.inner.Locks() }
func (s *faultyStore) Bookings() repository.BookingStore { return s.inner.Bookings() }
func (s *faultyStore) Shows() repository.ShowStore       { return s.inner.Shows() }

func (s *faultyStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.inner.WithinTx(ctx, func(tx repository.Store) error {
		return fn(&faultyStore{inner: tx, fault: s.fault})
	})
}

type faultySeats struct {
	repository.SeatStore
	fault *seatFault
}

func (v faultySeats) UpdateStatus(ctx context.Context, seatID uint64, from, to model.SeatStatus) error {
	if err := v.fault.hit(seatID, from, to); err != nil {
		return err
	}
	return v.SeatStore.UpdateStatus(ctx, seatID, from, to)
}
