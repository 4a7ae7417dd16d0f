package ratelimiter

import (
	"sync"
	"time"
)

// Limiter allows one action per interval and is safe for concurrent use
type Limiter struct {
	mu          sync.Mutex
	interval    time.Duration
	lastAllowed time.Time
	suppressed  int
	now         func() time.Time
}

// New creates a new rate limiter with the specified interval
func New(interval time.Duration) *Limiter {
	return &Limiter{
		interval: interval,
		now:      time.Now,
	}
}

// Allow reports whether an action may happen now. When it may, it also
// returns how many actions were refused since the last allowed one.
func (l *Limiter) Allow() (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.lastAllowed.IsZero() || now.Sub(l.lastAllowed) >= l.interval {
		l.lastAllowed = now
		suppressed := l.suppressed
		l.suppressed = 0
		return true, suppressed
	}

	l.suppressed++
	return false, 0
}

// Reset clears the limiter state, allowing the next action immediately
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.lastAllowed = time.Time{}
	l.suppressed = 0
	l.mu.Unlock()
}

// Interval returns the configured rate limit interval
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
