package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/resilientops/guard"
)

func TestBreakerChecker(t *testing.T) {
	clock := newFakeClock()
	cb := guard.NewCircuitBreaker(guard.CircuitBreakerConfig{
		Name:         "payments",
		MaxFailures:  1,
		ResetTimeout: 30 * time.Second,
		Clock:        clock,
	})
	checker := NewBreakerChecker(cb)

	if checker.Name() != "payments" {
		t.Errorf("Name() = %q, want %q", checker.Name(), "payments")
	}
	if !checker.Critical() {
		t.Error("Critical() = false, want true by default")
	}

	if r := checker.Check(context.Background()); r.Status != StatusHealthy {
		t.Errorf("closed breaker status = %v, want %v", r.Status, StatusHealthy)
	}

	boom := errors.New("boom")
	cb.Execute(context.Background(), func(ctx context.Context) error { return boom })

	r := checker.Check(context.Background())
	if r.Status != StatusUnhealthy {
		t.Errorf("open breaker status = %v, want %v", r.Status, StatusUnhealthy)
	}
	if !errors.Is(r.Error, guard.ErrCircuitOpen) {
		t.Errorf("Error = %v, want ErrCircuitOpen", r.Error)
	}
	if r.Details["state"] != "open" {
		t.Errorf("Details[state] = %v, want open", r.Details["state"])
	}

	clock.advance(31 * time.Second)
	if r := checker.Check(context.Background()); r.Status != StatusDegraded {
		t.Errorf("half-open breaker status = %v, want %v", r.Status, StatusDegraded)
	}
}

func TestBreakerChecker_NonCritical(t *testing.T) {
	cb := guard.NewCircuitBreaker(guard.CircuitBreakerConfig{Name: "search"})
	checker := NewBreakerChecker(cb).NonCritical()
	if checker.Critical() {
		t.Error("Critical() = true after NonCritical()")
	}
}

func TestPoolChecker(t *testing.T) {
	pools := guard.NewPools()
	pools.Create("reports", guard.PoolConfig{Capacity: 2})
	checker := NewPoolChecker(pools, "reports")

	if checker.Name() != "pool.reports" {
		t.Errorf("Name() = %q, want %q", checker.Name(), "pool.reports")
	}
	if checker.Critical() {
		t.Error("Critical() = true, want false by default")
	}

	if r := checker.Check(context.Background()); r.Status != StatusHealthy {
		t.Errorf("idle pool status = %v, want %v", r.Status, StatusHealthy)
	}
}

func TestPoolChecker_DegradedWhenSaturated(t *testing.T) {
	pools := guard.NewPools()
	pools.Create("reports", guard.PoolConfig{Capacity: 1})
	checker := NewPoolChecker(pools, "reports", PoolCheckerConfig{DegradedAt: 0.5})

	release := make(chan struct{})
	running := make(chan struct{})
	pools.Submit(context.Background(), "reports", func(ctx context.Context) error {
		close(running)
		<-release
		return nil
	})
	<-running
	defer close(release)

	r := checker.Check(context.Background())
	if r.Status != StatusDegraded {
		t.Errorf("saturated pool status = %v, want %v", r.Status, StatusDegraded)
	}
	if r.Details["in_flight"] != 1 {
		t.Errorf("Details[in_flight] = %v, want 1", r.Details["in_flight"])
	}
}

func TestPoolChecker_MissingPool(t *testing.T) {
	checker := NewPoolChecker(guard.NewPools(), "ghost")
	r := checker.Check(context.Background())
	if r.Status != StatusUnhealthy {
		t.Errorf("missing pool status = %v, want %v", r.Status, StatusUnhealthy)
	}
	if !errors.Is(r.Error, guard.ErrPoolNotFound) {
		t.Errorf("Error = %v, want ErrPoolNotFound", r.Error)
	}
}
