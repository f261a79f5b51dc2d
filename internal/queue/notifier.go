package queue

import (
    "context"
    "encoding/json"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/tickethub/seat-reservation/internal/model"
)

// Notifier broadcasts seat-state changes to a show's subscribers.
// Publishing is fire-and-forget: errors are returned so callers can
// log them, but no caller lets a publish failure fail the operation
// that caused it.  SeatsLocked takes the granted locks themselves so
// each seat's event carries that lock's own expiry.
type Notifier interface {
    SeatsLocked(ctx context.Context, showID uint64, locks []model.SeatLock, userID string) error
    SeatsUnlocked(ctx context.Context, showID uint64, seatIDs []uint64, userID string) error
    SeatsBooked(ctx context.Context, showID uint64, seatIDs []uint64, bookingID uint64) error
}

// RedisNotifier publishes seat events over Redis pub/sub.  Redis
// channels are exactly the contract the emitter needs: keyed by show,
// at-most-once, nothing persisted for absent subscribers.
type RedisNotifier struct {
    client *redis.Client
}

// NewRedisNotifier wraps an existing client.
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
    return &RedisNotifier{client: client}
}

func (n *RedisNotifier) publish(ctx context.Context, showID uint64, ev SeatEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    return n.client.Publish(ctx, ShowTopic(showID), body).Err()
}

func (n *RedisNotifier) SeatsLocked(ctx context.Context, showID uint64, locks []model.SeatLock, userID string) error {
    ids := make([]uint64, 0, len(locks))
    locked := make([]LockedSeat, 0, len(locks))
    for _, l := range locks {
        ids = append(ids, l.SeatID)
        locked = append(locked, LockedSeat{
            SeatID:    l.SeatID,
            ExpiresAt: l.ExpiresAt.UTC().Format(time.RFC3339),
        })
    }
    return n.publish(ctx, showID, SeatEvent{
        Event:   EventSeatLocked,
        SeatIDs: ids,
        UserID:  userID,
        Locks:   locked,
    })
}

func (n *RedisNotifier) SeatsUnlocked(ctx context.Context, showID uint64, seatIDs []uint64, userID string) error {
    return n.publish(ctx, showID, SeatEvent{
        Event:   EventSeatUnlocked,
        SeatIDs: seatIDs,
        UserID:  userID,
    })
}

func (n *RedisNotifier) SeatsBooked(ctx context.Context, showID uint64, seatIDs []uint64, bookingID uint64) error {
    return n.publish(ctx, showID, SeatEvent{
        Event:     EventSeatBooked,
        SeatIDs:   seatIDs,
        BookingID: bookingID,
    })
}

// NopNotifier drops every event.  Used when Redis is not configured;
// notification is not part of the correctness contract.
type NopNotifier struct{}

func (NopNotifier) SeatsLocked(context.Context, uint64, []model.SeatLock, string) error {
    return nil
}

func (NopNotifier) SeatsUnlocked(context.Context, uint64, []uint64, string) error {
    return nil
}

func (NopNotifier) SeatsBooked(context.Context, uint64, []uint64, uint64) error {
    return nil
}
