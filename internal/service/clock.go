package service

import (
    "context"
    "errors"
    "time"

    "github.com/tickethub/seat-reservation/internal/repository"
)

// Clock supplies the current instant for every TTL comparison in the
// engine.  Injecting it keeps expiry behaviour deterministic in tests.
type Clock interface {
    Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// maxAttempts bounds the internal retry of transient storage failures
// before they surface as service-unavailable.
const maxAttempts = 3

// withRetry runs fn up to maxAttempts times, retrying only when the
// failure is repository.ErrRetryable (the unit did not take effect).
// Anything else returns immediately.  Exhausted retries surface as a
// STORAGE_UNAVAILABLE failure wrapping the last error.
func withRetry(ctx context.Context, fn func() error) error {
    var err error
    for attempt := 1; attempt <= maxAttempts; attempt++ {
        err = fn()
        if err == nil || !errors.Is(err, repository.ErrRetryable) {
            return err
        }
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
        }
    }
    return &Failure{Kind: KindUnavailable, Code: CodeStorageUnavailable, err: err}
}
