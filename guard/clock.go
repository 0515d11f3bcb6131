package guard

import "time"

// Clock supplies current time and timer channels to guards. The default is
// the system wall clock; tests inject a fake to drive breaker timeouts and
// retry delays deterministically.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that delivers the time after d has elapsed.
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns the wall-clock Clock guards use by default.
func SystemClock() Clock { return systemClock{} }
