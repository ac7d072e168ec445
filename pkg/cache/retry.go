package cache

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a failure worth retrying, such as a dropped
// connection to a shared cache.
type RetryableError struct{ Err error }

// Retryable wraps err so [Backoff.Do] retries it. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a [RetryableError].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff is an exponential retry policy.
type Backoff struct {
	Attempts int           // total tries, at least 1
	Delay    time.Duration // wait after the first failure
	MaxDelay time.Duration // cap on the doubled delay; zero means no cap
}

// Do runs fn until it succeeds, returns an error not marked [Retryable], or
// the attempts run out. The last error is returned unchanged. A cancelled
// ctx ends the wait between tries with ctx.Err().
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay

	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
	return err
}

// RetryWithBackoff is shorthand for Backoff{Attempts: attempts, Delay: delay}.Do.
func RetryWithBackoff(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	return Backoff{Attempts: attempts, Delay: delay}.Do(ctx, fn)
}
