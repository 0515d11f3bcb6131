package chaos

import (
	"context"
	"errors"
	"testing"
	"time"
)

func alwaysFire() float64 { return 0.0 }
func neverFire() float64  { return 0.99 }

func TestInjector_DisabledByDefault(t *testing.T) {
	inj := NewInjector(InjectorConfig{Rand: alwaysFire})
	inj.Register(Experiment{
		Name:        "outage",
		Enabled:     true,
		Probability: 1.0,
		Err:         errors.New("boom"),
	})

	if err := inj.MaybeInject(context.Background(), "charge"); err != nil {
		t.Errorf("MaybeInject() with global gate off = %v, want nil", err)
	}
	if inj.Enabled() {
		t.Error("Enabled() = true, want false by default")
	}
}

func TestInjector_RegisterValidation(t *testing.T) {
	inj := NewInjector()

	if err := inj.Register(Experiment{Name: ""}); !errors.Is(err, ErrInvalidExperiment) {
		t.Errorf("Register(empty name) error = %v, want ErrInvalidExperiment", err)
	}
	if err := inj.Register(Experiment{Name: "x", Probability: 1.5}); !errors.Is(err, ErrInvalidExperiment) {
		t.Errorf("Register(probability 1.5) error = %v, want ErrInvalidExperiment", err)
	}
	if err := inj.Register(Experiment{Name: "x", Probability: 0.5}); err != nil {
		t.Errorf("Register(valid) error = %v, want nil", err)
	}
}

func TestInjector_SyntheticError(t *testing.T) {
	boom := errors.New("connection reset")
	inj := NewInjector(InjectorConfig{Enabled: true, Rand: alwaysFire})
	inj.Register(Experiment{
		Name:        "outage",
		Enabled:     true,
		Probability: 0.5,
		Operation:   "charge",
		Err:         boom,
	})

	err := inj.MaybeInject(context.Background(), "charge")
	if !errors.Is(err, ErrInjected) {
		t.Errorf("MaybeInject() error = %v, want ErrInjected", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("MaybeInject() error = %v, want wrapped cause", err)
	}

	counts := inj.Injections()
	if counts["outage"] != 1 {
		t.Errorf("Injections()[outage] = %d, want 1", counts["outage"])
	}
}

func TestInjector_ProbabilityNotMet(t *testing.T) {
	inj := NewInjector(InjectorConfig{Enabled: true, Rand: neverFire})
	inj.Register(Experiment{
		Name:        "outage",
		Enabled:     true,
		Probability: 0.5,
		Err:         errors.New("boom"),
	})

	if err := inj.MaybeInject(context.Background(), "charge"); err != nil {
		t.Errorf("MaybeInject() = %v, want nil when draw misses probability", err)
	}
	if n := inj.Injections()["outage"]; n != 0 {
		t.Errorf("Injections()[outage] = %d, want 0", n)
	}
}

func TestInjector_OperationScoping(t *testing.T) {
	inj := NewInjector(InjectorConfig{Enabled: true, Rand: alwaysFire})
	inj.Register(Experiment{
		Name:        "charge-only",
		Enabled:     true,
		Probability: 1.0,
		Operation:   "charge",
		Err:         errors.New("boom"),
	})

	if err := inj.MaybeInject(context.Background(), "refund"); err != nil {
		t.Errorf("MaybeInject(refund) = %v, want nil for non-matching operation", err)
	}
	if err := inj.MaybeInject(context.Background(), "charge"); err == nil {
		t.Error("MaybeInject(charge) = nil, want injected error")
	}
}

func TestInjector_ExperimentToggle(t *testing.T) {
	inj := NewInjector(InjectorConfig{Enabled: true, Rand: alwaysFire})
	inj.Register(Experiment{
		Name:        "outage",
		Enabled:     false,
		Probability: 1.0,
		Err:         errors.New("boom"),
	})

	if err := inj.MaybeInject(context.Background(), "charge"); err != nil {
		t.Errorf("MaybeInject() = %v, want nil for disabled experiment", err)
	}

	if err := inj.SetExperimentEnabled("outage", true); err != nil {
		t.Fatalf("SetExperimentEnabled() error = %v", err)
	}
	if err := inj.MaybeInject(context.Background(), "charge"); err == nil {
		t.Error("MaybeInject() = nil after enabling experiment, want error")
	}

	if err := inj.SetExperimentEnabled("ghost", true); !errors.Is(err, ErrInvalidExperiment) {
		t.Errorf("SetExperimentEnabled(ghost) error = %v, want ErrInvalidExperiment", err)
	}
}

func TestInjector_GlobalGateToggle(t *testing.T) {
	inj := NewInjector(InjectorConfig{Rand: alwaysFire})
	inj.Register(Experiment{
		Name:        "outage",
		Enabled:     true,
		Probability: 1.0,
		Err:         errors.New("boom"),
	})

	inj.SetEnabled(true)
	if err := inj.MaybeInject(context.Background(), "charge"); err == nil {
		t.Error("MaybeInject() = nil with gate on, want error")
	}
	inj.SetEnabled(false)
	if err := inj.MaybeInject(context.Background(), "charge"); err != nil {
		t.Errorf("MaybeInject() = %v with gate off, want nil", err)
	}
}

func TestInjector_LatencyHonorsCancellation(t *testing.T) {
	inj := NewInjector(InjectorConfig{Enabled: true, Rand: alwaysFire})
	inj.Register(Experiment{
		Name:        "slow",
		Enabled:     true,
		Probability: 1.0,
		Latency:     time.Minute,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := inj.MaybeInject(ctx, "charge")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("MaybeInject() error = %v, want DeadlineExceeded", err)
	}
}

func TestInjector_LatencyOnly(t *testing.T) {
	inj := NewInjector(InjectorConfig{Enabled: true, Rand: alwaysFire})
	inj.Register(Experiment{
		Name:        "slow",
		Enabled:     true,
		Probability: 1.0,
		Latency:     time.Millisecond,
	})

	if err := inj.MaybeInject(context.Background(), "charge"); err != nil {
		t.Errorf("MaybeInject() = %v, want nil for latency-only experiment", err)
	}
	if n := inj.Injections()["slow"]; n != 1 {
		t.Errorf("Injections()[slow] = %d, want 1", n)
	}
}

func TestInjector_Wrap(t *testing.T) {
	inj := NewInjector(InjectorConfig{Enabled: true, Rand: alwaysFire})
	inj.Register(Experiment{
		Name:        "outage",
		Enabled:     true,
		Probability: 1.0,
		Err:         errors.New("boom"),
	})

	ran := false
	op := inj.Wrap("charge", func(ctx context.Context) error {
		ran = true
		return nil
	})

	if err := op(context.Background()); !errors.Is(err, ErrInjected) {
		t.Errorf("wrapped op error = %v, want ErrInjected", err)
	}
	if ran {
		t.Error("operation ran despite injected failure")
	}

	inj.SetEnabled(false)
	if err := op(context.Background()); err != nil {
		t.Errorf("wrapped op error = %v with gate off, want nil", err)
	}
	if !ran {
		t.Error("operation did not run with gate off")
	}
}
