package http

import (
	"sync/atomic"
	"time"
)

// rateLimiter caps chat frames per connection per minute. A zero or negative
// limit disables it. Safe for concurrent use.
type rateLimiter struct {
	limit       int64
	counter     atomic.Int64
	windowStart atomic.Int64 // unix nanos
	now         func() time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	r := &rateLimiter{limit: int64(limit), now: time.Now}
	r.windowStart.Store(r.now().UnixNano())
	return r
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	now := r.now().UnixNano()
	start := r.windowStart.Load()
	if now-start >= int64(time.Minute) {
		// One caller wins the rollover; everyone counts into the new window.
		if r.windowStart.CompareAndSwap(start, now) {
			r.counter.Store(0)
		}
	}
	return r.counter.Add(1) <= r.limit
}
