// Package ratelimit enforces a minimum spacing between upstream requests. One Limiter
// models one upstream connection budget and is shared by handle between acquirers.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces calls at least interval apart across every caller holding it
type Limiter struct {
	limiter  *rate.Limiter
	interval time.Duration
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	waits  int
	waited time.Duration
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithSleeper replaces the blocking sleep
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		l.sleep = sleep
	}
}

// New creates a limiter with the given minimum interval. A zero or negative interval
// disables spacing.
func New(interval time.Duration, opts ...Option) *Limiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	l := &Limiter{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
		now:      time.Now,
		sleep:    Sleep,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Interval returns the configured minimum spacing
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until the caller may issue its request and returns how long it waited.
// The slot is claimed before sleeping so concurrent callers queue behind each other.
func (l *Limiter) Wait(ctx context.Context) (time.Duration, error) {
	now := l.now()
	reservation := l.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return 0, context.DeadlineExceeded
	}

	delay := reservation.DelayFrom(now)
	if delay <= 0 {
		return 0, nil
	}

	if err := l.sleep(ctx, delay); err != nil {
		reservation.CancelAt(l.now())
		return 0, err
	}

	l.mu.Lock()
	l.waits++
	l.waited += delay
	l.mu.Unlock()

	return delay, nil
}

// Stats returns how many calls had to wait and the total time spent waiting
func (l *Limiter) Stats() (waits int, waited time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waits, l.waited
}

// Sleep blocks for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
