package feature

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/jonwraymond/resilientops/health"
)

func stringFallback(s string) Producer {
	return func(ctx context.Context) any { return s }
}

func TestManager_RegisterValidation(t *testing.T) {
	mgr := NewManager()

	if err := mgr.Register(Flag{Name: "", Fallback: stringFallback("x")}); !errors.Is(err, ErrInvalidFlag) {
		t.Errorf("Register(empty name) error = %v, want ErrInvalidFlag", err)
	}
	if err := mgr.Register(Flag{Name: "search"}); !errors.Is(err, ErrInvalidFlag) {
		t.Errorf("Register(no fallback) error = %v, want ErrInvalidFlag", err)
	}
	if err := mgr.Register(Flag{Name: "search", Enabled: true, Fallback: stringFallback("cached")}); err != nil {
		t.Errorf("Register(valid flag) error = %v, want nil", err)
	}
}

func TestManager_UnknownFlagRunsPrimary(t *testing.T) {
	mgr := NewManager()

	got, err := mgr.Execute(context.Background(), "ghost", func(ctx context.Context) (any, error) {
		return "primary", nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != "primary" {
		t.Errorf("Execute() = %v, want primary (fail-open for unknown flags)", got)
	}
}

func TestManager_EnabledHealthyRunsPrimary(t *testing.T) {
	mgr := NewManager()
	mgr.Register(Flag{Name: "search", Enabled: true, Fallback: stringFallback("cached")})

	got, err := mgr.Execute(context.Background(), "search", func(ctx context.Context) (any, error) {
		return "live", nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != "live" {
		t.Errorf("Execute() = %v, want live", got)
	}
}

func TestManager_DisabledFlagFallsBack(t *testing.T) {
	var fellBack []string
	mgr := NewManager(ManagerConfig{
		OnFallback: func(flag string, reason Reason) {
			fellBack = append(fellBack, flag+":"+reason.String())
		},
	})
	mgr.Register(Flag{Name: "search", Enabled: false, Fallback: stringFallback("cached")})

	primaryRan := false
	got, err := mgr.Execute(context.Background(), "search", func(ctx context.Context) (any, error) {
		primaryRan = true
		return "live", nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil (degradation is not an error)", err)
	}
	if got != "cached" {
		t.Errorf("Execute() = %v, want cached", got)
	}
	if primaryRan {
		t.Error("primary ran for a disabled flag")
	}
	if len(fellBack) != 1 || fellBack[0] != "search:disabled" {
		t.Errorf("OnFallback events = %v, want [search:disabled]", fellBack)
	}
}

func TestManager_UnhealthyFlagFallsBack(t *testing.T) {
	var reasons []Reason
	mgr := NewManager(ManagerConfig{
		OnFallback: func(flag string, reason Reason) { reasons = append(reasons, reason) },
	})
	mgr.Register(Flag{
		Name:        "search",
		Enabled:     true,
		Fallback:    stringFallback("cached"),
		HealthCheck: func(ctx context.Context) bool { return false },
	})

	got, err := mgr.Execute(context.Background(), "search", func(ctx context.Context) (any, error) {
		return "live", nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != "cached" {
		t.Errorf("Execute() = %v, want cached", got)
	}
	if len(reasons) != 1 || reasons[0] != ReasonUnhealthy {
		t.Errorf("fallback reasons = %v, want [unhealthy]", reasons)
	}
}

func TestManager_PrimaryErrorPropagates(t *testing.T) {
	mgr := NewManager()
	mgr.Register(Flag{Name: "search", Enabled: true, Fallback: stringFallback("cached")})

	boom := errors.New("upstream 500")
	_, err := mgr.Execute(context.Background(), "search", func(ctx context.Context) (any, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, want primary's error", err)
	}
}

func TestManager_EnableDisable(t *testing.T) {
	mgr := NewManager()
	mgr.Register(Flag{Name: "search", Enabled: true, Fallback: stringFallback("cached")})

	if err := mgr.Disable("search"); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	if mgr.IsEnabled("search") {
		t.Error("IsEnabled() = true after Disable")
	}
	if err := mgr.Enable("search"); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if !mgr.IsEnabled("search") {
		t.Error("IsEnabled() = false after Enable")
	}

	if err := mgr.Enable("ghost"); !errors.Is(err, ErrFlagNotFound) {
		t.Errorf("Enable(ghost) error = %v, want ErrFlagNotFound", err)
	}
	if err := mgr.Disable("ghost"); !errors.Is(err, ErrFlagNotFound) {
		t.Errorf("Disable(ghost) error = %v, want ErrFlagNotFound", err)
	}
}

func TestManager_SetHealthCheck(t *testing.T) {
	mgr := NewManager()
	mgr.Register(Flag{Name: "search", Enabled: true, Fallback: stringFallback("cached")})

	if err := mgr.SetHealthCheck("ghost", nil); !errors.Is(err, ErrFlagNotFound) {
		t.Errorf("SetHealthCheck(ghost) error = %v, want ErrFlagNotFound", err)
	}

	mgr.SetHealthCheck("search", func(ctx context.Context) bool { return false })
	got, _ := mgr.Execute(context.Background(), "search", func(ctx context.Context) (any, error) {
		return "live", nil
	})
	if got != "cached" {
		t.Errorf("Execute() = %v, want cached after unhealthy check installed", got)
	}

	mgr.SetHealthCheck("search", nil)
	got, _ = mgr.Execute(context.Background(), "search", func(ctx context.Context) (any, error) {
		return "live", nil
	})
	if got != "live" {
		t.Errorf("Execute() = %v, want live after check cleared", got)
	}
}

func TestManager_Names(t *testing.T) {
	mgr := NewManager()
	mgr.Register(Flag{Name: "b", Enabled: true, Fallback: stringFallback("")})
	mgr.Register(Flag{Name: "a", Enabled: true, Fallback: stringFallback("")})

	names := mgr.Names()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v, want [a b]", names)
	}
}

func TestExecute_Typed(t *testing.T) {
	mgr := NewManager()
	mgr.Register(Flag{
		Name:     "recommendations",
		Enabled:  false,
		Fallback: func(ctx context.Context) any { return []string{} },
	})

	items, err := Execute(context.Background(), mgr, "recommendations", func(ctx context.Context) ([]string, error) {
		return []string{"live"}, nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Execute() = %v, want empty fallback slice", items)
	}
}

func TestExecute_TypedMismatch(t *testing.T) {
	mgr := NewManager()
	mgr.Register(Flag{
		Name:     "recommendations",
		Enabled:  false,
		Fallback: func(ctx context.Context) any { return 42 },
	})

	_, err := Execute(context.Background(), mgr, "recommendations", func(ctx context.Context) ([]string, error) {
		return nil, nil
	})
	if !errors.Is(err, ErrFallbackType) {
		t.Errorf("Execute() error = %v, want ErrFallbackType", err)
	}
}

func TestCheckerHealth(t *testing.T) {
	healthy := CheckerHealth(health.NewCheckerFunc("db", func(ctx context.Context) health.Result {
		return health.Degraded("slow but alive")
	}))
	if !healthy(context.Background()) {
		t.Error("CheckerHealth(degraded) = false, want true (degraded still serves primary)")
	}

	down := CheckerHealth(health.NewCheckerFunc("db", func(ctx context.Context) health.Result {
		return health.Unhealthy("down", errors.New("refused"))
	}))
	if down(context.Background()) {
		t.Error("CheckerHealth(unhealthy) = true, want false")
	}
}

func TestManager_ConcurrentToggle(t *testing.T) {
	mgr := NewManager()
	mgr.Register(Flag{Name: "search", Enabled: true, Fallback: stringFallback("cached")})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				mgr.Disable("search")
			} else {
				mgr.Enable("search")
			}
			mgr.Execute(context.Background(), "search", func(ctx context.Context) (any, error) {
				return "live", nil
			})
		}(i)
	}
	wg.Wait()
}
