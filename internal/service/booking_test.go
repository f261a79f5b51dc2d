package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickethub/seat-reservation/internal/model"
	"github.com/tickethub/seat-reservation/internal/repository"
	"github.com/tickethub/seat-reservation/internal/service"
)

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	ids := []uint64{f.seats[0].ID, f.seats[1].ID}

	_, err := f.locks.Acquire(ctx, f.show.ID, ids, "alice", 0)
	require.NoError(t, err)

	b, err := f.bookings.CreateBooking(ctx, f.show.ID, ids, "alice")
	require.NoError(t, err)

	assert.NotEmpty(t, b.Code)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, "alice", b.UserID)
	assert.Equal(t, ids, b.SeatIDs())
	// Total is the sum of the seats' current prices (1000 + 2000).
	assert.Equal(t, uint32(3000), b.TotalAmountCents)

	// Seats moved to BOOKED and their locks are gone.
	for _, id := range ids {
		assert.Equal(t, model.SeatBooked, f.seat(t, id).Status)
		_, err := f.store.Locks().ActiveBySeat(ctx, id)
		assert.ErrorIs(t, err, repository.ErrLockNotFound)
	}
	// The third seat is untouched.
	assert.Equal(t, model.SeatAvailable, f.seat(t, f.seats[2].ID).Status)

	require.Len(t, f.notifier.booked, 1)
	require.Len(t, f.notifier.created, 1)
	assert.Equal(t, b.Code, f.notifier.created[0].Code)
	assert.Equal(t, uint32(3000), f.notifier.created[0].TotalAmountCents)
}

func TestCreateBooking_RequiresOwnLocks(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	ids := []uint64{f.seats[0].ID, f.seats[1].ID}

	_, err := f.locks.Acquire(ctx, f.show.ID, []uint64{f.seats[0].ID}, "alice", 0)
	require.NoError(t, err)
	_, err = f.locks.Acquire(ctx, f.show.ID, []uint64{f.seats[1].ID}, "bob", 0)
	require.NoError(t, err)

	// Alice holds seat 1 but seat 2 is bob's: nothing commits.
	_, err = f.bookings.CreateBooking(ctx, f.show.ID, ids, "alice")
	requireCode(t, err, service.CodeLockOwnerMismatch)

	// Seat 1 stays LOCKED under alice's still-active lock.
	assert.Equal(t, model.SeatLocked, f.seat(t, f.seats[0].ID).Status)
	lock, err := f.store.Locks().ActiveBySeat(ctx, f.seats[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", lock.UserID)
	// Seat 2 stays LOCKED under bob's.
	assert.Equal(t, model.SeatLocked, f.seat(t, f.seats[1].ID).Status)
}

func TestCreateBooking_ExpiredLock(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := f.seats[0].ID

	_, err := f.locks.Acquire(ctx, f.show.ID, []uint64{id}, "alice", 0)
	require.NoError(t, err)

	f.clock.Advance(4 * time.Minute)
	_, err = f.bookings.CreateBooking(ctx, f.show.ID, []uint64{id}, "alice")
	requireCode(t, err, service.CodeLockExpired)
	assert.Equal(t, model.SeatLocked, f.seat(t, id).Status)
}

func TestCreateBooking_NoLock(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.bookings.CreateBooking(context.Background(), f.show.ID, []uint64{f.seats[0].ID}, "alice")
	requireCode(t, err, service.CodeLockMissing)
}

func TestCreateBooking_TotalTracksCurrentPrice(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := f.seats[0].ID

	_, err := f.locks.Acquire(ctx, f.show.ID, []uint64{id}, "alice", 0)
	require.NoError(t, err)

	b, err := f.bookings.CreateBooking(ctx, f.show.ID, []uint64{id}, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), b.TotalAmountCents)
	require.Len(t, b.Seats, 1)
	assert.Equal(t, uint32(1000), b.Seats[0].PriceCents)
}

func TestConfirmBooking_Idempotent(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := f.seats[0].ID

	_, err := f.locks.Acquire(ctx, f.show.ID, []uint64{id}, "alice", 0)
	require.NoError(t, err)
	b, err := f.bookings.CreateBooking(ctx, f.show.ID, []uint64{id}, "alice")
	require.NoError(t, err)

	first, err := f.bookings.ConfirmBooking(ctx, b.Code)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, first.Status)

	// A replayed payment callback changes nothing.
	again, err := f.bookings.ConfirmBooking(ctx, b.Code)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, again.Status)

	_, err = f.bookings.ConfirmBooking(ctx, "no-such-code")
	requireCode(t, err, service.CodeBookingNotFound)
}

func TestConfirmBooking_RejectsCancelled(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := f.seats[0].ID

	_, err := f.locks.Acquire(ctx, f.show.ID, []uint64{id}, "alice", 0)
	require.NoError(t, err)
	b, err := f.bookings.CreateBooking(ctx, f.show.ID, []uint64{id}, "alice")
	require.NoError(t, err)
	_, err = f.bookings.CancelBooking(ctx, b.Code, "alice")
	require.NoError(t, err)

	_, err = f.bookings.ConfirmBooking(ctx, b.Code)
	requireCode(t, err, service.CodeBookingNotPending)
}

func TestCancelBooking_ReleasesSeats(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	ids := []uint64{f.seats[0].ID, f.seats[1].ID}

	_, err := f.locks.Acquire(ctx, f.show.ID, ids, "alice", 0)
	require.NoError(t, err)
	b, err := f.bookings.CreateBooking(ctx, f.show.ID, ids, "alice")
	require.NoError(t, err)

	cancelled, err := f.bookings.CancelBooking(ctx, b.Code, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)
	for _, id := range ids {
		assert.Equal(t, model.SeatAvailable, f.seat(t, id).Status)
	}

	// Idempotent on repeat.
	again, err := f.bookings.CancelBooking(ctx, b.Code, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, again.Status)
}

func TestCancelBooking_OwnerOnly(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := f.seats[0].ID

	_, err := f.locks.Acquire(ctx, f.show.ID, []uint64{id}, "alice", 0)
	require.NoError(t, err)
	b, err := f.bookings.CreateBooking(ctx, f.show.ID, []uint64{id}, "alice")
	require.NoError(t, err)

	_, err = f.bookings.CancelBooking(ctx, b.Code, "mallory")
	requireCode(t, err, service.CodeNotBookingOwner)
	assert.Equal(t, model.SeatBooked, f.seat(t, id).Status)
}

func TestListUserBookings_NewestFirst(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	_, err := f.locks.Acquire(ctx, f.show.ID, []uint64{f.seats[0].ID}, "alice", 0)
	require.NoError(t, err)
	first, err := f.bookings.CreateBooking(ctx, f.show.ID, []uint64{f.seats[0].ID}, "alice")
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.locks.Acquire(ctx, f.show.ID, []uint64{f.seats[1].ID}, "alice", 0)
	require.NoError(t, err)
	second, err := f.bookings.CreateBooking(ctx, f.show.ID, []uint64{f.seats[1].ID}, "alice")
	require.NoError(t, err)

	got, err := f.bookings.ListUserBookings(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.Code, got[0].Code)
	assert.Equal(t, first.Code, got[1].Code)

	none, err := f.bookings.ListUserBookings(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, none)
}
