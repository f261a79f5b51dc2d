package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickethub/seat-reservation/internal/model"
	"github.com/tickethub/seat-reservation/internal/service"
)

func TestCreateShow_SeedsFullGrid(t *testing.T) {
	f := newFixture(t, 4)

	assert.NotZero(t, f.show.ID)
	require.Len(t, f.seats, 4)
	for i, seat := range f.seats {
		assert.Equal(t, f.show.ID, seat.ShowID)
		assert.Equal(t, model.SeatAvailable, seat.Status)
		assert.Equal(t, uint32(1000*(i+1)), seat.PriceCents)
	}
}

func TestCreateShow_ZeroPriceInheritsBase(t *testing.T) {
	f := newFixture(t, 1) // reuse the wiring, create a second show below
	ctx := context.Background()

	show, seats, err := f.catalog.CreateShow(ctx, model.Show{
		VenueID:        2,
		Title:          "Late Night",
		StartsAt:       f.clock.Now().Add(48 * time.Hour),
		EndsAt:         f.clock.Now().Add(50 * time.Hour),
		BasePriceCents: 2500,
	}, []service.SeatSpec{
		{RowLabel: "A", SeatNumber: 1, SeatType: "STANDARD"},
		{RowLabel: "A", SeatNumber: 2, SeatType: "VIP", PriceCents: 5000},
	})
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, uint32(2500), seats[0].PriceCents)
	assert.Equal(t, uint32(5000), seats[1].PriceCents)
	assert.NotZero(t, show.ID)
}

func TestCreateShow_RejectsEmptyGrid(t *testing.T) {
	f := newFixture(t, 1)
	_, _, err := f.catalog.CreateShow(context.Background(), model.Show{Title: "Empty"}, nil)
	requireCode(t, err, service.CodeEmptySeatSet)
}

func TestGetShow_DerivesAvailability(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	summary, err := f.catalog.GetShow(ctx, f.show.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.AvailableSeats)

	_, err = f.locks.Acquire(ctx, f.show.ID, []uint64{f.seats[0].ID}, "alice", 0)
	require.NoError(t, err)

	summary, err = f.catalog.GetShow(ctx, f.show.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.AvailableSeats)

	_, err = f.catalog.GetShow(ctx, 999)
	requireCode(t, err, service.CodeShowNotFound)
}

func TestListSeats_OverlaysActiveLocks(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	granted, err := f.locks.Acquire(ctx, f.show.ID, []uint64{f.seats[0].ID}, "alice", 0)
	require.NoError(t, err)

	views, err := f.catalog.ListSeats(ctx, f.show.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, model.SeatLocked, views[0].Status)
	assert.Equal(t, "alice", views[0].LockedBy)
	require.NotNil(t, views[0].LockExpiresAt)
	assert.Equal(t, granted[0].ExpiresAt, *views[0].LockExpiresAt)

	assert.Equal(t, model.SeatAvailable, views[1].Status)
	assert.Empty(t, views[1].LockedBy)
	assert.Nil(t, views[1].LockExpiresAt)
}

func TestListSeats_ExpiredLockRendersWithoutHolder(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.locks.Acquire(ctx, f.show.ID, []uint64{f.seats[0].ID}, "alice", 0)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)

	views, err := f.catalog.ListSeats(ctx, f.show.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, model.SeatLocked, views[0].Status)
	assert.Empty(t, views[0].LockedBy)
	assert.Nil(t, views[0].LockExpiresAt)
}
