package http

import (
	"sync"
	"testing"
	"time"
)

func TestRateLimiterWindowReset(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	r := newRateLimiter(2)
	r.now = func() time.Time { return clock }
	r.windowStart.Store(clock.UnixNano())

	if !r.allow() || !r.allow() {
		t.Fatalf("frames within the budget must pass")
	}
	if r.allow() {
		t.Fatalf("frame over budget in the same minute must be dropped")
	}

	clock = clock.Add(time.Minute + time.Second)
	if !r.allow() {
		t.Fatalf("frame after the window rolled over must pass")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	r := newRateLimiter(0)
	for i := 0; i < 100; i++ {
		if !r.allow() {
			t.Fatalf("disabled limiter must always allow")
		}
	}
}

func TestRateLimiterConcurrentAllow(t *testing.T) {
	r := newRateLimiter(1)
	// Start with an expired window so the rollover path runs concurrently.
	r.windowStart.Store(time.Now().Add(-2 * time.Minute).UnixNano())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				r.allow()
			}
		}()
	}
	wg.Wait()
}
