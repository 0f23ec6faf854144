// Package ratelimit implements a token bucket shared by concurrent
// callers. The WHOIS registry enforces hard query ceilings, so the
// bucket never blocks: callers either get a token now or are told how
// long until one becomes available.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Bucket is a token bucket with fractional refill. Tokens regenerate
// continuously at capacity/refillPeriod and are capped at capacity.
// All methods are safe for concurrent use.
type Bucket struct {
	mu       sync.Mutex
	capacity float64
	rate     float64 // tokens per second
	tokens   float64
	last     time.Time

	now func() time.Time // test hook
}

// New creates a bucket that regenerates capacity tokens over
// refillPeriod. The bucket starts full. capacity must be >= 1 and
// refillPeriod > 0; out-of-range values are clamped.
func New(capacity int, refillPeriod time.Duration) *Bucket {
	if capacity < 1 {
		capacity = 1
	}
	if refillPeriod <= 0 {
		refillPeriod = time.Second
	}
	b := &Bucket{
		capacity: float64(capacity),
		rate:     float64(capacity) / refillPeriod.Seconds(),
		tokens:   float64(capacity),
		now:      time.Now,
	}
	b.last = b.now()
	return b
}

// NewPerSecond creates a bucket with the given sustained rate and a
// capacity of the rate rounded up.
func NewPerSecond(ratePerSecond float64) *Bucket {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	capacity := math.Ceil(ratePerSecond)
	b := &Bucket{
		capacity: capacity,
		rate:     ratePerSecond,
		tokens:   capacity,
		now:      time.Now,
	}
	b.last = b.now()
	return b
}

// TryAcquire removes one token if available. It never blocks.
func (b *Bucket) TryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// TimeUntilToken returns the expected wait until at least one token is
// available, or 0 if one already is.
func (b *Bucket) TimeUntilToken() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1 {
		return 0
	}
	missing := 1 - b.tokens
	return time.Duration(missing / b.rate * float64(time.Second))
}

// Tokens returns the current token count, for stats reporting.
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return b.tokens
}

// refill credits tokens for elapsed time. Caller holds b.mu.
func (b *Bucket) refill() {
	now := b.now()
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(b.capacity, b.tokens+elapsed*b.rate)
	}
	b.last = now
}
