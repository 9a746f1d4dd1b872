package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleeper collects the requested delays without waiting
type recordingSleeper struct {
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func TestExponential(t *testing.T) {
	b := Exponential(2, 10*time.Second)
	assert.Equal(t, 2*time.Second, b(1))
	assert.Equal(t, 4*time.Second, b(2))
	assert.Equal(t, 8*time.Second, b(3))
	assert.Equal(t, 10*time.Second, b(4))
	assert.Equal(t, 10*time.Second, b(5000))
}

func TestFixed(t *testing.T) {
	b := Fixed(3 * time.Second)
	assert.Equal(t, 3*time.Second, b(1))
	assert.Equal(t, 3*time.Second, b(7))
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	sleeper := &recordingSleeper{}
	p := Policy{MaxAttempts: 5, Backoff: Exponential(2, time.Minute), Sleeper: sleeper}

	calls := 0
	err := Do(context.Background(), p, func(attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.delays)
}

func TestDoExhausted(t *testing.T) {
	sleeper := &recordingSleeper{}
	p := Policy{MaxAttempts: 3, Backoff: Fixed(time.Second), Sleeper: sleeper}
	boom := errors.New("boom")

	var retried []int
	err := Do(context.Background(), p, func(int) error { return boom }, func(attempt int, _ time.Duration, _ error) {
		retried = append(retried, attempt)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{1, 2}, retried)
	assert.Len(t, sleeper.delays, 2)
}

func TestDoRunsAtLeastOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{}, func(int) error {
		calls++
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, Policy{MaxAttempts: 5, Sleeper: &recordingSleeper{}}, func(int) error {
		calls++
		return errors.New("fail")
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestTimerSleeperHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := TimerSleeper.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
