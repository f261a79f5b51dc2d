package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickethub/seat-reservation/internal/model"
	"github.com/tickethub/seat-reservation/internal/repository"
	"github.com/tickethub/seat-reservation/internal/repository/memory"
)

func seedShow(t *testing.T, store *memory.Store, seatCount int) (model.Show, []model.Seat) {
	t.Helper()
	ctx := context.Background()
	show, err := store.Shows().Create(ctx, model.Show{
		VenueID:        1,
		Title:          "Matinee",
		StartsAt:       time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC),
		EndsAt:         time.Date(2026, 5, 1, 16, 0, 0, 0, time.UTC),
		BasePriceCents: 1500,
	})
	require.NoError(t, err)

	grid := make([]model.Seat, 0, seatCount)
	for i := 0; i < seatCount; i++ {
		grid = append(grid, model.Seat{
			ShowID:     show.ID,
			RowLabel:   "B",
			SeatNumber: uint32(i + 1),
			SeatType:   "STANDARD",
			PriceCents: 1500,
			Status:     model.SeatAvailable,
		})
	}
	seats, err := store.Seats().CreateBulk(ctx, grid)
	require.NoError(t, err)
	return show, seats
}

func TestSeatUpdateStatus_CompareAndSet(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	_, seats := seedShow(t, store, 1)
	id := seats[0].ID

	require.NoError(t, store.Seats().UpdateStatus(ctx, id, model.SeatAvailable, model.SeatLocked))

	err := store.Seats().UpdateStatus(ctx, id, model.SeatAvailable, model.SeatLocked)
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	err = store.Seats().UpdateStatus(ctx, 999, model.SeatAvailable, model.SeatLocked)
	assert.ErrorIs(t, err, repository.ErrSeatNotFound)
}

func TestSeatUpdateStatus_ExactlyOneWinnerUnderContention(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	_, seats := seedShow(t, store, 1)
	id := seats[0].ID

	const racers = 32
	var wg sync.WaitGroup
	var winners int32
	var mu sync.Mutex

	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			err := store.Seats().UpdateStatus(ctx, id, model.SeatAvailable, model.SeatLocked)
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
				return
			}
			if !errors.Is(err, repository.ErrStatusConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners)
}

func TestLockStore_SingleActiveLockPerSeat(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	show, seats := seedShow(t, store, 1)
	id := seats[0].ID

	now := time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC)
	lock, err := store.Locks().Create(ctx, model.SeatLock{
		ShowID: show.ID, SeatID: id, UserID: "alice",
		LockedAt: now, ExpiresAt: now.Add(3 * time.Minute),
	})
	require.NoError(t, err)
	require.True(t, lock.Active)

	got, err := store.Locks().ActiveBySeat(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, lock.ID, got.ID)

	require.NoError(t, store.Locks().Deactivate(ctx, lock.ID))
	_, err = store.Locks().ActiveBySeat(ctx, id)
	assert.ErrorIs(t, err, repository.ErrLockNotFound)

	// Deactivating twice reports the lock as gone.
	err = store.Locks().Deactivate(ctx, lock.ID)
	assert.ErrorIs(t, err, repository.ErrLockNotFound)
}

func TestLockStore_ExpiredBefore(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	show, seats := seedShow(t, store, 3)

	base := time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC)
	for i, seat := range seats {
		_, err := store.Locks().Create(ctx, model.SeatLock{
			ShowID: show.ID, SeatID: seat.ID, UserID: "alice",
			LockedAt:  base,
			ExpiresAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	// Cutoff between the second and third expiry; oldest first.
	expired, err := store.Locks().ExpiredBefore(ctx, base.Add(90*time.Second), 10)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.True(t, expired[0].ExpiresAt.Before(expired[1].ExpiresAt))

	// The limit caps the batch.
	expired, err = store.Locks().ExpiredBefore(ctx, base.Add(time.Hour), 1)
	require.NoError(t, err)
	assert.Len(t, expired, 1)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	_, seats := seedShow(t, store, 2)
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Seats().UpdateStatus(ctx, seats[0].ID, model.SeatAvailable, model.SeatLocked); err != nil {
			return err
		}
		if _, err := tx.Locks().Create(ctx, model.SeatLock{
			ShowID: seats[0].ShowID, SeatID: seats[0].ID, UserID: "alice",
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Every write inside the failed transaction was undone.
	fresh, err := store.Seats().GetByShowAndIDs(ctx, seats[0].ShowID, []uint64{seats[0].ID})
	require.NoError(t, err)
	assert.Equal(t, model.SeatAvailable, fresh[0].Status)
	_, err = store.Locks().ActiveBySeat(ctx, seats[0].ID)
	assert.ErrorIs(t, err, repository.ErrLockNotFound)
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	_, seats := seedShow(t, store, 1)

	err := store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Seats().UpdateStatus(ctx, seats[0].ID, model.SeatAvailable, model.SeatLocked)
	})
	require.NoError(t, err)

	fresh, err := store.Seats().GetByShowAndIDs(ctx, seats[0].ShowID, []uint64{seats[0].ID})
	require.NoError(t, err)
	assert.Equal(t, model.SeatLocked, fresh[0].Status)
}

func TestBookingStore_Lifecycle(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	show, seats := seedShow(t, store, 2)

	created, err := store.Bookings().Create(ctx, model.Booking{
		Code:   "code-1",
		UserID: "alice",
		ShowID: show.ID,
		Seats: []model.BookingSeat{
			{SeatID: seats[0].ID, PriceCents: 1500},
			{SeatID: seats[1].ID, PriceCents: 1500},
		},
		TotalAmountCents: 3000,
		Status:           model.BookingPending,
		CreatedAt:        time.Date(2026, 5, 1, 13, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := store.Bookings().GetByCode(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, []uint64{seats[0].ID, seats[1].ID}, got.SeatIDs())

	_, err = store.Bookings().GetByCode(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)

	require.NoError(t, store.Bookings().UpdateStatus(ctx, created.ID, model.BookingPending, model.BookingConfirmed))
	err = store.Bookings().UpdateStatus(ctx, created.ID, model.BookingPending, model.BookingConfirmed)
	assert.ErrorIs(t, err, repository.ErrStatusConflict)
}
