// Package retry runs an operation under a bounded attempt count with a pluggable backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrExhausted is returned (wrapped) when every attempt failed
var ErrExhausted = errors.New("retries exhausted")

// Backoff returns the delay to wait after the given failed attempt (1-based)
type Backoff func(attempt int) time.Duration

// Exponential waits base^attempt seconds, never more than max
func Exponential(base float64, max time.Duration) Backoff {
	return func(attempt int) time.Duration {
		secs := math.Pow(base, float64(attempt))
		if math.IsInf(secs, 0) || math.IsNaN(secs) || secs*float64(time.Second) > float64(max) {
			return max
		}
		return time.Duration(secs * float64(time.Second))
	}
}

// Fixed waits the same delay after every attempt
func Fixed(d time.Duration) Backoff {
	return func(int) time.Duration {
		return d
	}
}

// Sleeper pauses between attempts
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f(ctx, d)
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// TimerSleeper waits on a real timer and honours context cancellation
var TimerSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
})

// Policy bounds a retried operation
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
	Sleeper     Sleeper
}

// DefaultPolicy makes 4 attempts, waiting 2s, 4s, 8s between them
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		Backoff:     Exponential(2, 30*time.Second),
		Sleeper:     TimerSleeper,
	}
}

// Do runs fn until it succeeds, the attempts run out or ctx is done.
// onRetry, when set, is told about every failed attempt that will be retried.
func Do(ctx context.Context, p Policy, fn func(attempt int) error, onRetry func(attempt int, delay time.Duration, err error)) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.Backoff == nil {
		p.Backoff = Fixed(0)
	}
	if p.Sleeper == nil {
		p.Sleeper = TimerSleeper
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return fmt.Errorf("retry cancelled after attempt %d: %w", attempt, ctx.Err())
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.Backoff(attempt)
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
		if err := p.Sleeper.Sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled during backoff: %w", err)
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.MaxAttempts, lastErr)
}
