package guard

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced Clock. After records each requested
// delay and fires immediately unless hold is set.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	delays []time.Duration
	hold   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	hold := c.hold
	now := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if !hold {
		ch <- now
	}
	return ch
}

func (c *fakeClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.delays))
	copy(out, c.delays)
	return out
}

func TestSystemClock(t *testing.T) {
	clock := SystemClock()

	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, want between %v and %v", now, before, after)
	}

	select {
	case <-clock.After(time.Millisecond):
	case <-time.After(time.Second):
		t.Error("After(1ms) did not fire within 1s")
	}
}
