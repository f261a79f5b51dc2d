package service

import (
    "context"
    "errors"
    "log"

    "github.com/google/uuid"

    "github.com/tickethub/seat-reservation/internal/model"
    "github.com/tickethub/seat-reservation/internal/queue"
    "github.com/tickethub/seat-reservation/internal/repository"
)

// BookingService converts valid seat locks into purchases and manages
// the booking lifecycle afterwards.  Creation runs inside one storage
// transaction: every seat transition, every lock deactivation and the
// booking insert commit together or not at all.
type BookingService struct {
    store    repository.Store
    notifier queue.Notifier
    pipeline queue.PipelinePublisher
    clock    Clock
}

// NewBookingService wires the orchestrator.
func NewBookingService(store repository.Store, notifier queue.Notifier, pipeline queue.PipelinePublisher, clock Clock) *BookingService {
    return &BookingService{store: store, notifier: notifier, pipeline: pipeline, clock: clock}
}

// CreateBooking purchases the given seats for the caller.  Every seat
// must carry a valid, unexpired lock owned by the caller; any failure
// aborts the whole booking with nothing committed.  The total is the
// sum of each seat's current price, not a snapshot from lock time.
func (s *BookingService) CreateBooking(ctx context.Context, showID uint64, seatIDs []uint64, userID string) (model.Booking, error) {
    ids := normalizeSeatIDs(seatIDs)
    if len(ids) == 0 {
        return model.Booking{}, invalid(CodeEmptySeatSet)
    }
    var booking model.Booking
    err := withRetry(ctx, func() error {
        return s.store.WithinTx(ctx, func(tx repository.Store) error {
            var err error
            booking, err = s.createInTx(ctx, tx, showID, ids, userID)
            return err
        })
    })
    if err != nil {
        return model.Booking{}, err
    }

    if err := s.notifier.SeatsBooked(ctx, showID, ids, booking.ID); err != nil {
        log.Printf("booking: publish seat.booked failed: %v", err)
    }
    if err := s.pipeline.BookingCreated(ctx, queue.BookingCreatedEvent{
        BookingID:        booking.ID,
        Code:             booking.Code,
        UserID:           booking.UserID,
        ShowID:           booking.ShowID,
        SeatIDs:          booking.SeatIDs(),
        TotalAmountCents: booking.TotalAmountCents,
        CreatedAt:        booking.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
    }); err != nil {
        log.Printf("booking: publish booking.created failed: %v", err)
    }
    return booking, nil
}

func (s *BookingService) createInTx(ctx context.Context, tx repository.Store, showID uint64, ids []uint64, userID string) (model.Booking, error) {
    if _, err := tx.Shows().GetByID(ctx, showID); err != nil {
        if errors.Is(err, repository.ErrShowNotFound) {
            return model.Booking{}, notFound(CodeShowNotFound)
        }
        return model.Booking{}, err
    }
    seats, err := tx.Seats().GetByShowAndIDs(ctx, showID, ids)
    if err != nil {
        return model.Booking{}, err
    }
    if len(seats) != len(ids) {
        return model.Booking{}, seatFailure(KindNotFound, CodeSeatNotFound, firstMissing(ids, seats))
    }

    now := s.clock.Now()
    var total uint32
    bookingSeats := make([]model.BookingSeat, 0, len(seats))

    for _, seat := range seats {
        lock, err := validateLock(ctx, tx.Locks(), seat.ID, userID, now)
        if err != nil {
            return model.Booking{}, err
        }
        if seat.Status != model.SeatLocked {
            // A valid active lock on a seat that is not LOCKED means the
            // registry and the lock table disagree; keep it internal.
            log.Printf("booking: invariant violation: seat %d has active lock %d but status %s",
                seat.ID, lock.ID, seat.Status)
            return model.Booking{}, seatFailure(KindConflict, CodeSeatUnavailable, seat.ID)
        }
        if err := tx.Seats().UpdateStatus(ctx, seat.ID, model.SeatLocked, model.SeatBooked); err != nil {
            if errors.Is(err, repository.ErrStatusConflict) {
                return model.Booking{}, seatFailure(KindConflict, CodeSeatUnavailable, seat.ID)
            }
            return model.Booking{}, err
        }
        if err := tx.Locks().Deactivate(ctx, lock.ID); err != nil {
            if errors.Is(err, repository.ErrLockNotFound) {
                return model.Booking{}, seatFailure(KindConflict, CodeLockMissing, seat.ID)
            }
            return model.Booking{}, err
        }
        total += seat.PriceCents
        bookingSeats = append(bookingSeats, model.BookingSeat{SeatID: seat.ID, PriceCents: seat.PriceCents})
    }

    return tx.Bookings().Create(ctx, model.Booking{
        Code:             uuid.NewString(),
        UserID:           userID,
        ShowID:           showID,
        Seats:            bookingSeats,
        TotalAmountCents: total,
        Status:           model.BookingPending,
        CreatedAt:        now,
    })
}

// ConfirmBooking is the boundary for the external payment
// confirmation.  The PENDING→CONFIRMED transition is a status CAS, so
// a replayed callback on an already-confirmed booking is an idempotent
// no-op; a cancelled booking rejects the confirmation.
func (s *BookingService) ConfirmBooking(ctx context.Context, code string) (model.Booking, error) {
    var out model.Booking
    err := withRetry(ctx, func() error {
        b, err := s.store.Bookings().GetByCode(ctx, code)
        if errors.Is(err, repository.ErrBookingNotFound) {
            return notFound(CodeBookingNotFound)
        }
        if err != nil {
            return err
        }
        switch b.Status {
        case model.BookingConfirmed:
            out = b
            return nil
        case model.BookingCancelled:
            return conflict(CodeBookingNotPending)
        }
        if err := s.store.Bookings().UpdateStatus(ctx, b.ID, model.BookingPending, model.BookingConfirmed); err != nil {
            if errors.Is(err, repository.ErrStatusConflict) {
                fresh, ferr := s.store.Bookings().GetByCode(ctx, code)
                if ferr == nil && fresh.Status == model.BookingConfirmed {
                    out = fresh
                    return nil
                }
                return conflict(CodeBookingNotPending)
            }
            return err
        }
        b.Status = model.BookingConfirmed
        out = b
        return nil
    })
    if err != nil {
        return model.Booking{}, err
    }
    return out, nil
}

// CancelBooking cancels the caller's booking and releases its seats
// back to AVAILABLE, all inside one transaction.  Cancelling an
// already-cancelled booking is an idempotent no-op.
func (s *BookingService) CancelBooking(ctx context.Context, code string, userID string) (model.Booking, error) {
    var out model.Booking
    released := false
    err := withRetry(ctx, func() error {
        return s.store.WithinTx(ctx, func(tx repository.Store) error {
            b, err := tx.Bookings().GetByCode(ctx, code)
            if errors.Is(err, repository.ErrBookingNotFound) {
                return notFound(CodeBookingNotFound)
            }
            if err != nil {
                return err
            }
            if b.UserID != userID {
                return conflict(CodeNotBookingOwner)
            }
            if b.Status == model.BookingCancelled {
                out = b
                return nil
            }
            if err := tx.Bookings().UpdateStatus(ctx, b.ID, b.Status, model.BookingCancelled); err != nil {
                if errors.Is(err, repository.ErrStatusConflict) {
                    return conflict(CodeBookingNotPending)
                }
                return err
            }
            for _, seat := range b.Seats {
                err := tx.Seats().UpdateStatus(ctx, seat.SeatID, model.SeatBooked, model.SeatAvailable)
                if errors.Is(err, repository.ErrStatusConflict) {
                    log.Printf("booking: invariant violation: seat %d of booking %d not BOOKED at cancellation",
                        seat.SeatID, b.ID)
                    continue
                }
                if err != nil {
                    return err
                }
            }
            b.Status = model.BookingCancelled
            out = b
            released = true
            return nil
        })
    })
    if err != nil {
        return model.Booking{}, err
    }
    if released {
        if err := s.notifier.SeatsUnlocked(ctx, out.ShowID, out.SeatIDs(), userID); err != nil {
            log.Printf("booking: publish seat.unlocked failed: %v", err)
        }
    }
    return out, nil
}

// GetBooking resolves a booking by its public code.
func (s *BookingService) GetBooking(ctx context.Context, code string) (model.Booking, error) {
    b, err := s.store.Bookings().GetByCode(ctx, code)
    if errors.Is(err, repository.ErrBookingNotFound) {
        return model.Booking{}, notFound(CodeBookingNotFound)
    }
    return b, err
}

// ListUserBookings returns the caller's bookings, newest first.
func (s *BookingService) ListUserBookings(ctx context.Context, userID string) ([]model.Booking, error) {
    return s.store.Bookings().ListByUser(ctx, userID)
}
