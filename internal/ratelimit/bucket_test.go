package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests advance time deterministically.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestBucket(capacity int, period time.Duration) (*Bucket, *fakeClock) {
	clock := newFakeClock()
	b := New(capacity, period)
	b.now = clock.now
	b.last = clock.now()
	b.tokens = b.capacity
	return b, clock
}

func TestTryAcquireBurst(t *testing.T) {
	b, _ := newTestBucket(4, time.Second)

	for i := 0; i < 4; i++ {
		if !b.TryAcquire() {
			t.Fatalf("acquire %d denied, bucket should start full", i)
		}
	}
	if b.TryAcquire() {
		t.Error("acquire beyond capacity should be denied")
	}
}

func TestFractionalRefill(t *testing.T) {
	b, clock := newTestBucket(4, time.Second) // 4 tokens/s

	for i := 0; i < 4; i++ {
		b.TryAcquire()
	}
	// 100ms regenerates 0.4 tokens: still not enough.
	clock.advance(100 * time.Millisecond)
	if b.TryAcquire() {
		t.Error("0.4 tokens should not permit acquisition")
	}
	// Another 200ms brings the count to 1.2.
	clock.advance(200 * time.Millisecond)
	if !b.TryAcquire() {
		t.Error("1.2 tokens should permit acquisition")
	}
	if b.TryAcquire() {
		t.Error("0.2 tokens should not permit a second acquisition")
	}
}

func TestRefillCappedAtCapacity(t *testing.T) {
	b, clock := newTestBucket(2, time.Second)

	clock.advance(time.Hour)
	granted := 0
	for b.TryAcquire() {
		granted++
	}
	if granted != 2 {
		t.Errorf("granted %d after long idle, want capacity 2", granted)
	}
}

func TestTimeUntilToken(t *testing.T) {
	b, clock := newTestBucket(2, time.Second) // 2 tokens/s

	if d := b.TimeUntilToken(); d != 0 {
		t.Errorf("full bucket TimeUntilToken = %v, want 0", d)
	}

	b.TryAcquire()
	b.TryAcquire()
	// Empty: one token takes 500ms at 2/s.
	d := b.TimeUntilToken()
	if d < 450*time.Millisecond || d > 550*time.Millisecond {
		t.Errorf("TimeUntilToken = %v, want ~500ms", d)
	}

	clock.advance(250 * time.Millisecond)
	d = b.TimeUntilToken()
	if d < 200*time.Millisecond || d > 300*time.Millisecond {
		t.Errorf("TimeUntilToken after partial refill = %v, want ~250ms", d)
	}
}

// Grants over a long workload never exceed capacity + rate*T.
func TestLongRunCeiling(t *testing.T) {
	b, clock := newTestBucket(100, 30*time.Minute)

	granted := 0
	total := 2 * time.Hour
	step := 10 * time.Second
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		for i := 0; i < 5; i++ { // greedy caller
			if b.TryAcquire() {
				granted++
			}
		}
		clock.advance(step)
	}

	rate := 100.0 / (30 * time.Minute).Seconds()
	ceiling := 100 + int(rate*total.Seconds())
	if granted > ceiling {
		t.Errorf("granted %d over %v, ceiling is %d", granted, total, ceiling)
	}
}

func TestConcurrentAcquire(t *testing.T) {
	b := New(50, time.Hour) // effectively no refill during the test

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if b.TryAcquire() {
					mu.Lock()
					granted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if granted != 50 {
		t.Errorf("concurrent grants = %d, want exactly 50", granted)
	}
}

func TestNewPerSecond(t *testing.T) {
	b := NewPerSecond(4.5)
	if b.capacity != 5 {
		t.Errorf("capacity = %v, want rate rounded up to 5", b.capacity)
	}
	if b.rate != 4.5 {
		t.Errorf("rate = %v, want 4.5", b.rate)
	}
}

func TestClampedConstruction(t *testing.T) {
	b := New(0, 0)
	if b.capacity != 1 {
		t.Errorf("capacity clamped to %v, want 1", b.capacity)
	}
	if !b.TryAcquire() {
		t.Error("clamped bucket should still grant its one token")
	}
}
