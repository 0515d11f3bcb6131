package guard

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Priority orders requests for admission when the load shedder is at
// capacity.
type Priority int

const (
	// PriorityLow work is shed first under load.
	PriorityLow Priority = iota
	// PriorityNormal is the default request priority.
	PriorityNormal
	// PriorityHigh work may preempt lower-priority work at capacity.
	PriorityHigh
)

// String returns the string representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Request tags a unit of work passing through the load shedder.
type Request struct {
	// ID identifies the request in shed/preemption events.
	ID string

	// Priority orders the request for admission.
	Priority Priority
}

// NewRequest creates a request with a fresh ID and the given priority.
func NewRequest(p Priority) Request {
	return Request{ID: uuid.NewString(), Priority: p}
}

// LoadShedderConfig configures a load shedder.
type LoadShedderConfig struct {
	// MaxConcurrency is the ceiling on in-flight handlers.
	// Default: 100
	MaxConcurrency int

	// QueueCapacity bounds how many requests may wait for a slot. Zero
	// means overload is rejected immediately with ErrOverCapacity.
	// Default: 0
	QueueCapacity int

	// EnablePreemption lets a high-priority request cancel one in-flight
	// lower-priority handler to make room. Preemption improves the odds
	// of admission but never guarantees it.
	EnablePreemption bool

	// OnShed is called when a request is rejected or preempted.
	OnShed func(req Request, reason error)
}

type inflight struct {
	req       Request
	cancel    context.CancelFunc
	preempted bool
}

type waiter struct {
	req     Request
	ready   chan struct{}
	granted bool
}

// LoadShedder is admission control: it rejects work once in-flight
// concurrency reaches a configured ceiling, instead of queueing unbounded
// work behind a saturated system. Overload is reported, never waited out
// beyond the bounded admission queue.
type LoadShedder struct {
	mu       sync.Mutex
	config   LoadShedderConfig
	current  int
	active   map[string]*inflight
	waiters  []*waiter
	shedded  int64
	preempts int64
}

// NewLoadShedder creates a load shedder.
func NewLoadShedder(config LoadShedderConfig) *LoadShedder {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 100
	}
	if config.QueueCapacity < 0 {
		config.QueueCapacity = 0
	}

	return &LoadShedder{
		config: config,
		active: make(map[string]*inflight),
	}
}

// Process runs the handler if the request is admitted. At capacity,
// low-priority requests are shed with ErrOverCapacity (or ErrQueueFull
// once the admission queue is also exhausted); high-priority requests may
// preempt one in-flight lower-priority handler by cancelling its context.
// The slot is always released on the handler's exit path, success, failure
// or panic.
func (ls *LoadShedder) Process(ctx context.Context, req Request, handler func(context.Context) error) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	entry, err := ls.admit(ctx, req)
	if err != nil {
		return err
	}

	hctx, cancel := context.WithCancel(ctx)
	ls.mu.Lock()
	entry.cancel = cancel
	preempted := entry.preempted
	ls.mu.Unlock()
	if preempted {
		// Lost the race with a preemptor between admission and here.
		cancel()
	}

	defer func() {
		cancel()
		ls.release(entry)
	}()

	herr := handler(hctx)

	ls.mu.Lock()
	preempted = entry.preempted
	ls.mu.Unlock()

	if preempted && herr != nil {
		return fmt.Errorf("%w: %w", ErrPreempted, herr)
	}
	return herr
}

// admit acquires a slot, preempting or queueing per configuration.
func (ls *LoadShedder) admit(ctx context.Context, req Request) (*inflight, error) {
	ls.mu.Lock()

	if ls.current < ls.config.MaxConcurrency {
		entry := ls.registerLocked(req)
		ls.current++
		ls.mu.Unlock()
		return entry, nil
	}

	if ls.config.EnablePreemption && req.Priority == PriorityHigh {
		if victim := ls.victimLocked(req.Priority); victim != nil {
			// Transfer the victim's slot: its release is skipped, so
			// current never exceeds MaxConcurrency.
			victim.preempted = true
			if victim.cancel != nil {
				victim.cancel()
			}
			delete(ls.active, victim.req.ID)
			ls.preempts++
			entry := ls.registerLocked(req)
			ls.mu.Unlock()
			if ls.config.OnShed != nil {
				ls.config.OnShed(victim.req, ErrPreempted)
			}
			return entry, nil
		}
	}

	if req.Priority == PriorityLow || ls.config.QueueCapacity == 0 {
		return nil, ls.shedAndUnlock(req, ErrOverCapacity)
	}
	if len(ls.waiters) >= ls.config.QueueCapacity {
		return nil, ls.shedAndUnlock(req, ErrQueueFull)
	}

	w := &waiter{req: req, ready: make(chan struct{})}
	ls.waiters = append(ls.waiters, w)
	ls.mu.Unlock()

	select {
	case <-w.ready:
		ls.mu.Lock()
		entry := ls.registerLocked(req)
		ls.mu.Unlock()
		return entry, nil
	case <-ctx.Done():
		ls.mu.Lock()
		if w.granted {
			// Slot was handed over concurrently with cancellation;
			// pass it on instead of leaking it.
			ls.handOffLocked()
		} else {
			ls.removeWaiterLocked(w)
		}
		ls.mu.Unlock()
		return nil, ctx.Err()
	}
}

// release returns a slot, handing it to the oldest waiter if any.
func (ls *LoadShedder) release(entry *inflight) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	delete(ls.active, entry.req.ID)
	if entry.preempted {
		// Slot was transferred to the preemptor.
		return
	}
	ls.handOffLocked()
}

func (ls *LoadShedder) handOffLocked() {
	// A freed slot is dropped, not handed over, while the in-flight count
	// still exceeds a lowered ceiling. Waiters are admitted by later
	// releases once the count is back under it.
	if ls.current <= ls.config.MaxConcurrency && len(ls.waiters) > 0 {
		w := ls.waiters[0]
		ls.waiters = ls.waiters[1:]
		w.granted = true
		close(w.ready)
		return
	}
	ls.current--
}

func (ls *LoadShedder) registerLocked(req Request) *inflight {
	entry := &inflight{req: req}
	ls.active[req.ID] = entry
	return entry
}

func (ls *LoadShedder) removeWaiterLocked(w *waiter) {
	for i, other := range ls.waiters {
		if other == w {
			ls.waiters = append(ls.waiters[:i], ls.waiters[i+1:]...)
			return
		}
	}
}

// victimLocked picks an in-flight entry with a priority strictly below p.
// The lowest-priority entry wins.
func (ls *LoadShedder) victimLocked(p Priority) *inflight {
	var victim *inflight
	for _, entry := range ls.active {
		if entry.preempted || entry.req.Priority >= p {
			continue
		}
		if victim == nil || entry.req.Priority < victim.req.Priority {
			victim = entry
		}
	}
	return victim
}

// shedAndUnlock records the rejection, releases the mutex, and fires the
// shed hook outside it.
func (ls *LoadShedder) shedAndUnlock(req Request, reason error) error {
	ls.shedded++
	ls.mu.Unlock()
	if ls.config.OnShed != nil {
		ls.config.OnShed(req, reason)
	}
	return reason
}

// SetMaxConcurrency adjusts the in-flight ceiling at runtime. Raising it
// admits queued waiters immediately; lowering it takes effect as in-flight
// work drains.
func (ls *LoadShedder) SetMaxConcurrency(n int) {
	if n <= 0 {
		return
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.config.MaxConcurrency = n
	for ls.current < n && len(ls.waiters) > 0 {
		w := ls.waiters[0]
		ls.waiters = ls.waiters[1:]
		w.granted = true
		ls.current++
		close(w.ready)
	}
}

// LoadShedderMetrics is a point-in-time snapshot of shedder counters.
type LoadShedderMetrics struct {
	InFlight       int
	Waiting        int
	MaxConcurrency int
	Shed           int64
	Preempted      int64
}

// Metrics returns a snapshot of the shedder's counters.
func (ls *LoadShedder) Metrics() LoadShedderMetrics {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	return LoadShedderMetrics{
		InFlight:       ls.current,
		Waiting:        len(ls.waiters),
		MaxConcurrency: ls.config.MaxConcurrency,
		Shed:           ls.shedded,
		Preempted:      ls.preempts,
	}
}
