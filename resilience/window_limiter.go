package resilience

import (
	"sync"
	"time"
)

// WindowLimiter allows at most Limit events per key in any sliding Window.
type WindowLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	events map[string][]time.Time
}

func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &WindowLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		events: make(map[string][]time.Time),
	}
}

// Allow records an event for key and reports whether it fits the window.
// Rejected events are not recorded.
func (l *WindowLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	live := prune(l.events[key], now.Add(-l.window))
	if len(live) >= l.limit {
		l.events[key] = live
		return false
	}
	l.events[key] = append(live, now)
	return true
}

// Sweep drops keys with no events inside the window.
func (l *WindowLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.window)
	for key, times := range l.events {
		if live := prune(times, cutoff); len(live) == 0 {
			delete(l.events, key)
		} else {
			l.events[key] = live
		}
	}
}

// Keys is the number of tracked keys.
func (l *WindowLimiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func prune(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}
