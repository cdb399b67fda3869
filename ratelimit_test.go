package main

import (
	"testing"
	"time"
)

func TestRateLimiter_Boundary(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 5)
	now := time.Now()

	// Exactly max events inside the window pass.
	for i := 0; i < 5; i++ {
		if rl.isLimitedAt("1.2.3.4", now.Add(time.Duration(i)*time.Second)) {
			t.Fatalf("event %d should be allowed", i+1)
		}
	}

	// The (max+1)th inside the same window is blocked.
	if !rl.isLimitedAt("1.2.3.4", now.Add(6*time.Second)) {
		t.Error("6th event inside the window should be blocked")
	}
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 3)
	now := time.Now()

	for i := 0; i < 3; i++ {
		rl.isLimitedAt("10.0.0.1", now)
	}
	if !rl.isLimitedAt("10.0.0.1", now.Add(time.Second)) {
		t.Fatal("ceiling should be hit inside the window")
	}

	// Past the window the old events have aged out.
	if rl.isLimitedAt("10.0.0.1", now.Add(2*time.Minute)) {
		t.Error("events outside the window should not count")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 1)
	now := time.Now()

	if rl.isLimitedAt("a", now) {
		t.Error("first event for key a should be allowed")
	}
	if rl.isLimitedAt("b", now) {
		t.Error("key b should not share key a's bucket")
	}
	if !rl.isLimitedAt("a", now) {
		t.Error("second event for key a should be blocked")
	}
}
