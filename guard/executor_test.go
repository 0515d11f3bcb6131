package guard

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecutor_NoGuards(t *testing.T) {
	e := NewExecutor()

	invoked := false
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		invoked = true
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if !invoked {
		t.Error("operation was not invoked")
	}
}

func TestExecutor_FullChainSuccess(t *testing.T) {
	pools := NewPools()
	defer pools.Shutdown(context.Background())
	pools.Create("dep", PoolConfig{Capacity: 2, QueueCapacity: 2})

	e := NewExecutor(
		WithRateLimiter(NewRateLimiter(RateLimiterConfig{Rate: 1000, Burst: 100})),
		WithLoadShedder(NewLoadShedder(LoadShedderConfig{MaxConcurrency: 10})),
		WithPool(pools, "dep"),
		WithCircuitBreaker(NewCircuitBreaker(CircuitBreakerConfig{Name: "dep"})),
		WithRetry(NewRetry(RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, Clock: newFakeClock()})),
		WithTimeout(time.Second),
	)

	attempts := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2 (retry inside the chain)", attempts)
	}
}

func TestExecutor_ShedderRejectionShortCircuits(t *testing.T) {
	ls := NewLoadShedder(LoadShedderConfig{MaxConcurrency: 1})
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "dep"})

	release := make(chan struct{})
	started := make(chan struct{})
	go ls.Process(context.Background(), NewRequest(PriorityNormal), func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	e := NewExecutor(
		WithLoadShedder(ls),
		WithCircuitBreaker(cb),
	)

	err := e.Execute(context.Background(), func(ctx context.Context) error {
		t.Error("operation invoked despite shedding")
		return nil
	})
	if !errors.Is(err, ErrOverCapacity) {
		t.Errorf("Execute() error = %v, want ErrOverCapacity", err)
	}

	// The rejection happened outside the breaker, so it counts no failure.
	if got := cb.Metrics().Failures; got != 0 {
		t.Errorf("breaker failures = %d, want 0", got)
	}

	close(release)
}

func TestExecutor_BreakerRejectionSkipsRetry(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "dep", MaxFailures: 1})
	cb.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	})

	retries := 0
	e := NewExecutor(
		WithCircuitBreaker(cb),
		WithRetry(NewRetry(RetryPolicy{
			MaxRetries: 3,
			BaseDelay:  time.Millisecond,
			Clock:      newFakeClock(),
			OnRetry:    func(int, error, time.Duration) { retries++ },
		})),
	)

	invoked := false
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		invoked = true
		return nil
	})

	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() error = %v, want ErrCircuitOpen", err)
	}
	if invoked {
		t.Error("operation invoked while circuit open")
	}
	if retries != 0 {
		t.Errorf("retries = %d, want 0 (retry is inside the breaker)", retries)
	}
}

func TestExecutor_RetriesCountAsSingleBreakerCall(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "dep", MaxFailures: 2})

	e := NewExecutor(
		WithCircuitBreaker(cb),
		WithRetry(NewRetry(RetryPolicy{
			MaxRetries: 4,
			BaseDelay:  time.Millisecond,
			Clock:      newFakeClock(),
		})),
	)

	e.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	})

	// Five attempts exhausted inside one breaker invocation.
	if got := cb.Metrics().Failures; got != 1 {
		t.Errorf("breaker failures = %d, want 1", got)
	}
	if cb.State() != StateClosed {
		t.Errorf("breaker state = %v, want closed", cb.State())
	}
}

func TestExecutor_PoolRejection(t *testing.T) {
	pools := NewPools()
	p, _ := pools.Create("dep", PoolConfig{Capacity: 1})

	block := make(chan struct{})
	started := make(chan struct{})
	p.Submit(context.Background(), func(ctx context.Context) error {
		close(started)
		<-block
		return nil
	})
	<-started

	e := NewExecutor(WithPool(pools, "dep"))

	err := e.Execute(context.Background(), func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrPoolFull) {
		t.Errorf("Execute() error = %v, want ErrPoolFull", err)
	}

	close(block)
	pools.Shutdown(context.Background())
}
