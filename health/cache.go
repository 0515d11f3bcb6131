package health

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/resilientops/guard"
)

// resultCache stores probe results for a fixed TTL. Concurrent
// refreshes of the same checker are deduplicated with singleflight so
// a slow probe is only in flight once no matter how many callers ask.
type resultCache struct {
	ttl   time.Duration
	clock guard.Clock

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

type cacheEntry struct {
	result  Result
	expires time.Time
}

func newResultCache(ttl time.Duration, clock guard.Clock) *resultCache {
	return &resultCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]cacheEntry),
	}
}

// get returns the cached result for name, probing only when the entry
// is missing or expired.
func (c *resultCache) get(name string, probe func() Result) Result {
	if r, ok := c.fresh(name); ok {
		return r
	}

	v, _, _ := c.group.Do(name, func() (any, error) {
		// Another caller may have refreshed while we waited for the flight.
		if r, ok := c.fresh(name); ok {
			return r, nil
		}
		r := probe()
		c.mu.Lock()
		c.entries[name] = cacheEntry{result: r, expires: c.clock.Now().Add(c.ttl)}
		c.mu.Unlock()
		return r, nil
	})
	return v.(Result)
}

func (c *resultCache) fresh(name string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[name]
	if !ok || !c.clock.Now().Before(entry.expires) {
		return Result{}, false
	}
	return entry.result, true
}

func (c *resultCache) invalidate(name string) {
	c.mu.Lock()
	delete(c.entries, name)
	c.mu.Unlock()
}
