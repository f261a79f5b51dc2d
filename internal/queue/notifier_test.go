package queue_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickethub/seat-reservation/internal/model"
	"github.com/tickethub/seat-reservation/internal/queue"
)

func TestShowTopic(t *testing.T) {
	assert.Equal(t, "show.42.seats", queue.ShowTopic(42))
}

func TestRedisNotifier_SeatsLocked(t *testing.T) {
	client, mock := redismock.NewClientMock()
	n := queue.NewRedisNotifier(client)

	// Seat 7 was re-granted and kept its earlier deadline; the event
	// must carry each lock's own expiry, not one shared timestamp.
	locks := []model.SeatLock{
		{SeatID: 7, UserID: "alice", ExpiresAt: time.Date(2026, 3, 14, 18, 2, 0, 0, time.UTC)},
		{SeatID: 8, UserID: "alice", ExpiresAt: time.Date(2026, 3, 14, 18, 3, 0, 0, time.UTC)},
	}
	body, err := json.Marshal(queue.SeatEvent{
		Event:   queue.EventSeatLocked,
		SeatIDs: []uint64{7, 8},
		UserID:  "alice",
		Locks: []queue.LockedSeat{
			{SeatID: 7, ExpiresAt: "2026-03-14T18:02:00Z"},
			{SeatID: 8, ExpiresAt: "2026-03-14T18:03:00Z"},
		},
	})
	require.NoError(t, err)
	mock.ExpectPublish("show.42.seats", body).SetVal(1)

	err = n.SeatsLocked(context.Background(), 42, locks, "alice")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisNotifier_SeatsUnlocked(t *testing.T) {
	client, mock := redismock.NewClientMock()
	n := queue.NewRedisNotifier(client)

	body, err := json.Marshal(queue.SeatEvent{
		Event:   queue.EventSeatUnlocked,
		SeatIDs: []uint64{7},
		UserID:  "alice",
	})
	require.NoError(t, err)
	mock.ExpectPublish("show.42.seats", body).SetVal(1)

	err = n.SeatsUnlocked(context.Background(), 42, []uint64{7}, "alice")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisNotifier_SeatsBooked(t *testing.T) {
	client, mock := redismock.NewClientMock()
	n := queue.NewRedisNotifier(client)

	body, err := json.Marshal(queue.SeatEvent{
		Event:     queue.EventSeatBooked,
		SeatIDs:   []uint64{7, 8},
		BookingID: 99,
	})
	require.NoError(t, err)
	mock.ExpectPublish("show.42.seats", body).SetVal(1)

	err = n.SeatsBooked(context.Background(), 42, []uint64{7, 8}, 99)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNopImplementations(t *testing.T) {
	ctx := context.Background()
	var n queue.Notifier = queue.NopNotifier{}
	assert.NoError(t, n.SeatsLocked(ctx, 1, []model.SeatLock{{SeatID: 1}}, "u"))
	assert.NoError(t, n.SeatsUnlocked(ctx, 1, []uint64{1}, "u"))
	assert.NoError(t, n.SeatsBooked(ctx, 1, []uint64{1}, 1))

	var p queue.PipelinePublisher = queue.NopPipeline{}
	assert.NoError(t, p.BookingCreated(ctx, queue.BookingCreatedEvent{}))
}
