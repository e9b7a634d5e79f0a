package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window limiter: across any rolling window of length
// period, at most maxCalls slots are handed out. Callers over the limit
// sleep until the oldest slot leaves the window. Calls are never dropped.
type Limiter struct {
	maxCalls int
	period   time.Duration

	mu    sync.Mutex
	calls []time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

type Option func(*Limiter)

// WithClock replaces the wall clock, used by tests to run without sleeping.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(l *Limiter) {
		l.now = now
		l.sleep = sleep
	}
}

func New(maxCalls int, period time.Duration, opts ...Option) *Limiter {
	if maxCalls < 1 {
		maxCalls = 1
	}
	l := &Limiter{
		maxCalls: maxCalls,
		period:   period,
		calls:    make([]time.Time, 0, maxCalls),
		now:      time.Now,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) MaxCalls() int {
	return l.maxCalls
}

func (l *Limiter) Period() time.Duration {
	return l.period
}

// Wait blocks until a slot is free and claims it. A nil Limiter never blocks.
func (l *Limiter) Wait() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		now := l.now()
		l.evict(now)
		if len(l.calls) < l.maxCalls {
			l.calls = append(l.calls, now)
			return
		}
		l.sleep(l.calls[0].Add(l.period).Sub(now))
	}
}

func (l *Limiter) evict(now time.Time) {
	i := 0
	for i < len(l.calls) && !now.Before(l.calls[i].Add(l.period)) {
		i++
	}
	l.calls = l.calls[i:]
}

func (l *Limiter) Do(fn func() error) error {
	l.Wait()
	return fn()
}

// Call runs fn under the limiter and hands back its result.
func Call[T any](l *Limiter, fn func() (T, error)) (T, error) {
	l.Wait()
	return fn()
}
