package ratelimit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	current time.Time
	sleeps  []time.Duration
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.current = c.current.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)}
}

func TestLimiter_Wait(t *testing.T) {
	t.Run("two per second, five calls", func(t *testing.T) {
		clock := newFakeClock()
		start := clock.current
		l := New(2, time.Second, WithClock(clock.now, clock.sleep))

		calledAt := []time.Time{}
		for i := 0; i < 5; i++ {
			err := l.Do(func() error {
				calledAt = append(calledAt, clock.current)
				return nil
			})
			require.NoError(t, err)
		}

		require.Equal(t, []time.Time{
			start,
			start,
			start.Add(time.Second),
			start.Add(time.Second),
			start.Add(2 * time.Second),
		}, calledAt)
		require.Equal(t, []time.Duration{time.Second, time.Second}, clock.sleeps)
		require.GreaterOrEqual(t, clock.current.Sub(start), 2*time.Second)
	})

	t.Run("window slides instead of resetting", func(t *testing.T) {
		clock := newFakeClock()
		start := clock.current
		l := New(2, time.Second, WithClock(clock.now, clock.sleep))

		l.Wait()
		clock.current = start.Add(600 * time.Millisecond)
		l.Wait()
		// full - must wait for the first slot to expire at t=1s
		l.Wait()
		require.Equal(t, []time.Duration{400 * time.Millisecond}, clock.sleeps)
		require.Equal(t, start.Add(time.Second), clock.current)

		// the second slot (t=0.6s) is still inside the window
		l.Wait()
		require.Equal(t, start.Add(1600*time.Millisecond), clock.current)
	})

	t.Run("no wait when calls are spread out", func(t *testing.T) {
		clock := newFakeClock()
		l := New(1, time.Minute, WithClock(clock.now, clock.sleep))
		for i := 0; i < 3; i++ {
			l.Wait()
			clock.current = clock.current.Add(time.Minute)
		}
		require.Empty(t, clock.sleeps)
	})

	t.Run("limit below one is clamped", func(t *testing.T) {
		l := New(0, time.Second)
		require.Equal(t, 1, l.MaxCalls())
	})
}

func TestCall(t *testing.T) {
	clock := newFakeClock()
	l := New(1, time.Second, WithClock(clock.now, clock.sleep))

	out, err := Call(l, func() (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", out)

	_, err = Call(l, func() (int, error) {
		return 0, errors.New("upstream failed")
	})
	require.EqualError(t, err, "upstream failed")
	// failures still consume a slot, there is no backoff
	require.Equal(t, []time.Duration{time.Second}, clock.sleeps)
}

func TestLimiter_WallClock(t *testing.T) {
	period := 100 * time.Millisecond
	l := New(2, period)

	start := time.Now()
	for i := 0; i < 5; i++ {
		l.Wait()
	}
	require.GreaterOrEqual(t, time.Since(start), 2*period)
}
