package util

import (
	"context"
	"errors"
	"time"
)

// Backoff configures RetryWithBackoff. Delay doubles after every failed
// attempt up to MaxDelay.
type Backoff struct {
	MaxTries int
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultBackoff is used for object storage calls.
var DefaultBackoff = Backoff{MaxTries: 3, Delay: 100 * time.Millisecond, MaxDelay: 2 * time.Second}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. The retry helpers return the
// wrapped error immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry calls fn up to maxTries times until it returns nil error.
// If maxTries <= 0, it defaults to 1. Returns the last error if all attempts fail.
func Retry[T any](maxTries int, fn func() (T, error)) (T, error) {
	return RetryWithBackoff(context.Background(), Backoff{MaxTries: maxTries}, func(context.Context) (T, error) {
		return fn()
	})
}

// RetryErr is Retry for functions without a result.
func RetryErr(maxTries int, fn func() error) error {
	_, err := Retry(maxTries, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// RetryWithBackoff calls fn until it succeeds, b.MaxTries attempts are
// used up, or ctx is done. Context errors returned by fn are not retried.
func RetryWithBackoff[T any](ctx context.Context, b Backoff, fn func(context.Context) (T, error)) (T, error) {
	if b.MaxTries <= 0 {
		b.MaxTries = 1
	}
	var zero T
	var lastErr error
	delay := b.Delay
	for i := 0; i < b.MaxTries; i++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		lastErr = err

		if i == b.MaxTries-1 || delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
	return zero, lastErr
}

// RetryErrWithBackoff is RetryWithBackoff for functions without a result.
func RetryErrWithBackoff(ctx context.Context, b Backoff, fn func(context.Context) error) error {
	_, err := RetryWithBackoff(ctx, b, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
