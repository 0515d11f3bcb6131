package guard

import (
	"context"
	"sync"
	"time"
)

// Task is a unit of work executed inside a bulkhead pool.
type Task func(ctx context.Context) error

// PoolConfig configures a bulkhead pool.
type PoolConfig struct {
	// Capacity is the number of worker goroutines, i.e. the maximum
	// number of tasks executing concurrently.
	// Default: 10
	Capacity int

	// QueueCapacity is how many additional tasks may wait for a worker
	// before submissions are rejected with ErrPoolFull.
	// Default: 0 (no waiting, reject when all workers are busy)
	QueueCapacity int

	// Clock supplies time for duration samples. Default: SystemClock.
	Clock Clock

	// OnReject is called when a submission is rejected.
	OnReject func(pool string)

	// OnComplete is called after each executed task.
	OnComplete func(pool string, duration time.Duration, err error)
}

type poolTask struct {
	ctx  context.Context
	run  Task
	done chan<- error // nil for fire-and-forget submissions
}

// Pool is a named, bounded concurrency pool isolating one failure domain.
// A fixed set of workers drains a bounded queue; Submit never blocks, it
// either enqueues or fails fast.
type Pool struct {
	name   string
	config PoolConfig
	tasks  chan poolTask
	wg     sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	inFlight   int // queued + executing
	executions int64
	failures   int64
	rejections int64
	totalTime  time.Duration
}

func newPool(name string, config PoolConfig) *Pool {
	if config.Capacity <= 0 {
		config.Capacity = 10
	}
	if config.QueueCapacity < 0 {
		config.QueueCapacity = 0
	}
	if config.Clock == nil {
		config.Clock = SystemClock()
	}

	// The channel is sized to hold every admitted task so the send in
	// submit never blocks; the admission bound itself is the inFlight
	// counter, not the buffer.
	p := &Pool{
		name:   name,
		config: config,
		tasks:  make(chan poolTask, config.Capacity+config.QueueCapacity),
	}

	p.wg.Add(config.Capacity)
	for i := 0; i < config.Capacity; i++ {
		go p.worker()
	}

	return p
}

// Name returns the pool's name.
func (p *Pool) Name() string { return p.name }

func (p *Pool) worker() {
	defer p.wg.Done()

	for t := range p.tasks {
		// Drop work whose caller already gave up.
		if err := t.ctx.Err(); err != nil {
			p.finish(0, nil, true)
			if t.done != nil {
				t.done <- err
			}
			continue
		}

		start := p.config.Clock.Now()
		err := t.run(t.ctx)
		elapsed := p.config.Clock.Now().Sub(start)

		p.finish(elapsed, err, false)
		if p.config.OnComplete != nil {
			p.config.OnComplete(p.name, elapsed, err)
		}
		if t.done != nil {
			t.done <- err
		}
	}
}

func (p *Pool) finish(d time.Duration, err error, skipped bool) {
	p.mu.Lock()
	p.inFlight--
	if !skipped {
		p.executions++
		p.totalTime += d
		if err != nil {
			p.failures++
		}
	}
	p.mu.Unlock()
}

// submit enqueues a task without blocking. The mutex covers the admission
// check and the send so a concurrent shutdown cannot close the channel
// between them; the buffered send cannot block because inFlight never
// exceeds the channel capacity.
func (p *Pool) submit(t poolTask) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}

	if p.inFlight >= p.config.Capacity+p.config.QueueCapacity {
		p.rejections++
		p.mu.Unlock()
		if p.config.OnReject != nil {
			p.config.OnReject(p.name)
		}
		return ErrPoolFull
	}

	p.inFlight++
	p.tasks <- t
	p.mu.Unlock()
	return nil
}

// Submit attempts to run the task within the pool's concurrency budget.
// It returns ErrPoolFull immediately when both all workers and the queue
// are occupied. Task errors are recorded in metrics, not returned.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	return p.submit(poolTask{ctx: ctx, run: task})
}

// Do submits the task and waits for it to finish, returning the task's
// error. Admission failures are returned immediately. If ctx expires while
// waiting, Do returns early but an already-dequeued task runs to
// completion.
func (p *Pool) Do(ctx context.Context, task Task) error {
	done := make(chan error, 1)
	if err := p.submit(poolTask{ctx: ctx, run: task, done: done}); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops admission, lets queued tasks drain, and joins all workers.
// Tasks already dequeued run to completion; ctx bounds only how long
// Shutdown waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PoolMetrics is a point-in-time snapshot of a pool's counters.
type PoolMetrics struct {
	Name        string
	Capacity    int
	InFlight    int
	Queued      int
	Executions  int64
	Failures    int64
	Rejections  int64
	AvgDuration time.Duration
}

// Metrics returns a snapshot of the pool's counters.
func (p *Pool) Metrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	m := PoolMetrics{
		Name:       p.name,
		Capacity:   p.config.Capacity,
		InFlight:   p.inFlight,
		Queued:     len(p.tasks),
		Executions: p.executions,
		Failures:   p.failures,
		Rejections: p.rejections,
	}
	if p.executions > 0 {
		m.AvgDuration = p.totalTime / time.Duration(p.executions)
	}
	return m
}

// Pools is a registry of named bulkhead pools, one per failure domain. It
// is owned by the application's composition root and passed by handle;
// there is no package-level instance.
type Pools struct {
	mu    sync.RWMutex
	pools map[string]*Pool
}

// NewPools creates an empty pool registry.
func NewPools() *Pools {
	return &Pools{pools: make(map[string]*Pool)}
}

// Create registers a named pool. Creating a name twice returns the
// existing pool unchanged along with false.
func (ps *Pools) Create(name string, config PoolConfig) (*Pool, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if existing, ok := ps.pools[name]; ok {
		return existing, false
	}

	p := newPool(name, config)
	ps.pools[name] = p
	return p, true
}

// Resize replaces the named pool with one built from config. The old
// pool is drained first, bounded by ctx, so in-flight and queued work
// completes before the new capacity takes effect. Submissions landing
// during the drain receive ErrPoolClosed.
func (ps *Pools) Resize(ctx context.Context, name string, config PoolConfig) (*Pool, error) {
	ps.mu.Lock()
	old, ok := ps.pools[name]
	ps.mu.Unlock()
	if !ok {
		return nil, ErrPoolNotFound
	}

	if err := old.Shutdown(ctx); err != nil {
		return nil, err
	}

	p := newPool(name, config)
	ps.mu.Lock()
	ps.pools[name] = p
	ps.mu.Unlock()
	return p, nil
}

// Get returns the named pool.
func (ps *Pools) Get(name string) (*Pool, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	p, ok := ps.pools[name]
	return p, ok
}

// Names returns the registered pool names.
func (ps *Pools) Names() []string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	names := make([]string, 0, len(ps.pools))
	for name := range ps.pools {
		names = append(names, name)
	}
	return names
}

// Submit submits a task to the named pool, returning ErrPoolNotFound for
// unknown names.
func (ps *Pools) Submit(ctx context.Context, name string, task Task) error {
	p, ok := ps.Get(name)
	if !ok {
		return ErrPoolNotFound
	}
	return p.Submit(ctx, task)
}

// Do runs a task in the named pool and waits for its result.
func (ps *Pools) Do(ctx context.Context, name string, task Task) error {
	p, ok := ps.Get(name)
	if !ok {
		return ErrPoolNotFound
	}
	return p.Do(ctx, task)
}

// Shutdown gracefully shuts down every registered pool.
func (ps *Pools) Shutdown(ctx context.Context) error {
	ps.mu.RLock()
	pools := make([]*Pool, 0, len(ps.pools))
	for _, p := range ps.pools {
		pools = append(pools, p)
	}
	ps.mu.RUnlock()

	var firstErr error
	for _, p := range pools {
		if err := p.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
