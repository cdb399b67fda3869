package main

import (
	"sync"
	"time"
)

// RateLimiter is a sliding-window counter keyed by source address. Each
// checked event pushes a timestamp and prunes entries older than the window;
// the event is blocked when the resulting count exceeds max. Exactly max
// events inside one window pass, the next one is blocked.
type RateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	events map[string][]time.Time
}

func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	rl := &RateLimiter{
		window: window,
		max:    max,
		events: make(map[string][]time.Time),
	}
	go rl.cleanup()
	return rl
}

// IsLimited records an event for key and reports whether it exceeds the
// window ceiling.
func (rl *RateLimiter) IsLimited(key string) bool {
	return rl.isLimitedAt(key, time.Now())
}

func (rl *RateLimiter) isLimitedAt(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.window)
	recent := rl.events[key][:0]
	for _, t := range rl.events[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	rl.events[key] = recent

	return len(recent) > rl.max
}

// cleanup drops keys whose every event has aged out of the window, bounding
// memory for addresses that stop sending entirely.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.window)
		for key, ts := range rl.events {
			if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
				delete(rl.events, key)
			}
		}
		rl.mu.Unlock()
	}
}
