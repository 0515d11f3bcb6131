package config

import (
	"fmt"
	"time"

	"github.com/jonwraymond/resilientops/guard"
	"github.com/jonwraymond/resilientops/health"
	"github.com/jonwraymond/resilientops/observe"
)

// Settings is the full configuration surface for the resilience layer.
// Thresholds are plain values supplied at construction time; runtime
// mutation happens through the guards' own setters.
type Settings struct {
	Service   ServiceSettings   `yaml:"service" mapstructure:"service"`
	Breakers  []BreakerSettings `yaml:"breakers" mapstructure:"breakers"`
	Retry     RetrySettings     `yaml:"retry" mapstructure:"retry"`
	Pools     []PoolSettings    `yaml:"pools" mapstructure:"pools"`
	Shedder   ShedderSettings   `yaml:"shedder" mapstructure:"shedder"`
	RateLimit RateLimitSettings `yaml:"ratelimit" mapstructure:"ratelimit"`
	Health    HealthSettings    `yaml:"health" mapstructure:"health"`
	Flags     []FlagSettings    `yaml:"flags" mapstructure:"flags"`
	Telemetry TelemetrySettings `yaml:"telemetry" mapstructure:"telemetry"`
}

// ServiceSettings identifies the embedding service.
type ServiceSettings struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
}

// BreakerSettings configures one named circuit breaker.
type BreakerSettings struct {
	Name             string        `yaml:"name" mapstructure:"name"`
	MaxFailures      int           `yaml:"max_failures" mapstructure:"max_failures"`
	ResetTimeout     time.Duration `yaml:"reset_timeout" mapstructure:"reset_timeout"`
	SuccessThreshold int           `yaml:"success_threshold" mapstructure:"success_threshold"`
}

// CircuitBreakerConfig converts the settings into a breaker config.
func (s BreakerSettings) CircuitBreakerConfig() guard.CircuitBreakerConfig {
	return guard.CircuitBreakerConfig{
		Name:             s.Name,
		MaxFailures:      s.MaxFailures,
		ResetTimeout:     s.ResetTimeout,
		SuccessThreshold: s.SuccessThreshold,
	}
}

// RetrySettings configures the default retry policy.
type RetrySettings struct {
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelay     time.Duration `yaml:"base_delay" mapstructure:"base_delay"`
	MaxDelay      time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor" mapstructure:"backoff_factor"`
	Jitter        bool          `yaml:"jitter" mapstructure:"jitter"`
}

// Policy converts the settings into a retry policy.
func (s RetrySettings) Policy() guard.RetryPolicy {
	return guard.RetryPolicy{
		MaxRetries:    s.MaxRetries,
		BaseDelay:     s.BaseDelay,
		MaxDelay:      s.MaxDelay,
		BackoffFactor: s.BackoffFactor,
		Jitter:        s.Jitter,
	}
}

// PoolSettings configures one named bulkhead pool.
type PoolSettings struct {
	Name          string `yaml:"name" mapstructure:"name"`
	Capacity      int    `yaml:"capacity" mapstructure:"capacity"`
	QueueCapacity int    `yaml:"queue_capacity" mapstructure:"queue_capacity"`
}

// PoolConfig converts the settings into a pool config.
func (s PoolSettings) PoolConfig() guard.PoolConfig {
	return guard.PoolConfig{
		Capacity:      s.Capacity,
		QueueCapacity: s.QueueCapacity,
	}
}

// ShedderSettings configures the load shedder.
type ShedderSettings struct {
	MaxConcurrency   int  `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	QueueCapacity    int  `yaml:"queue_capacity" mapstructure:"queue_capacity"`
	EnablePreemption bool `yaml:"enable_preemption" mapstructure:"enable_preemption"`
}

// Config converts the settings into a load shedder config.
func (s ShedderSettings) Config() guard.LoadShedderConfig {
	return guard.LoadShedderConfig{
		MaxConcurrency:   s.MaxConcurrency,
		QueueCapacity:    s.QueueCapacity,
		EnablePreemption: s.EnablePreemption,
	}
}

// RateLimitSettings configures the token bucket rate limiter.
type RateLimitSettings struct {
	Rate        float64 `yaml:"rate" mapstructure:"rate"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
	WaitOnLimit bool    `yaml:"wait_on_limit" mapstructure:"wait_on_limit"`
}

// Config converts the settings into a rate limiter config.
func (s RateLimitSettings) Config() guard.RateLimiterConfig {
	return guard.RateLimiterConfig{
		Rate:        s.Rate,
		Burst:       s.Burst,
		WaitOnLimit: s.WaitOnLimit,
	}
}

// HealthSettings configures the health registry.
type HealthSettings struct {
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// RegistryConfig converts the settings into a health registry config.
func (s HealthSettings) RegistryConfig() health.RegistryConfig {
	return health.RegistryConfig{
		Timeout:  s.Timeout,
		CacheTTL: s.CacheTTL,
	}
}

// FlagSettings carries the enabled switch for one feature flag. The
// fallback producer and health check are code, not configuration, so
// flags must already be registered before settings are applied.
type FlagSettings struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
}

// TelemetrySettings configures the observability stack.
type TelemetrySettings struct {
	TracingEnabled  bool    `yaml:"tracing_enabled" mapstructure:"tracing_enabled"`
	TracingExporter string  `yaml:"tracing_exporter" mapstructure:"tracing_exporter"`
	SamplePct       float64 `yaml:"sample_pct" mapstructure:"sample_pct"`
	MetricsEnabled  bool    `yaml:"metrics_enabled" mapstructure:"metrics_enabled"`
	MetricsExporter string  `yaml:"metrics_exporter" mapstructure:"metrics_exporter"`
	LoggingEnabled  bool    `yaml:"logging_enabled" mapstructure:"logging_enabled"`
	LogLevel        string  `yaml:"log_level" mapstructure:"log_level"`
}

// ObserveConfig converts the settings into an observer config.
func (s *Settings) ObserveConfig() observe.Config {
	return observe.Config{
		ServiceName: s.Service.Name,
		Version:     s.Service.Version,
		Tracing: observe.TracingConfig{
			Enabled:   s.Telemetry.TracingEnabled,
			Exporter:  s.Telemetry.TracingExporter,
			SamplePct: s.Telemetry.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  s.Telemetry.MetricsEnabled,
			Exporter: s.Telemetry.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: s.Telemetry.LoggingEnabled,
			Level:   s.Telemetry.LogLevel,
		},
	}
}

// BuildPools creates a pool registry with every configured pool.
func (s *Settings) BuildPools() *guard.Pools {
	pools := guard.NewPools()
	for _, ps := range s.Pools {
		pools.Create(ps.Name, ps.PoolConfig())
	}
	return pools
}

// BuildBreakers creates one circuit breaker per breaker entry, keyed
// by name.
func (s *Settings) BuildBreakers() map[string]*guard.CircuitBreaker {
	breakers := make(map[string]*guard.CircuitBreaker, len(s.Breakers))
	for _, bs := range s.Breakers {
		breakers[bs.Name] = guard.NewCircuitBreaker(bs.CircuitBreakerConfig())
	}
	return breakers
}

// FlagToggler applies flag enabled switches to an external registry.
// It matches the feature manager's mutation API.
type FlagToggler interface {
	Enable(name string) error
	Disable(name string) error
}

// ApplyFlags toggles already-registered flags to their configured
// state. Unknown flags are reported, not skipped.
func (s *Settings) ApplyFlags(toggler FlagToggler) error {
	for _, fs := range s.Flags {
		var err error
		if fs.Enabled {
			err = toggler.Enable(fs.Name)
		} else {
			err = toggler.Disable(fs.Name)
		}
		if err != nil {
			return fmt.Errorf("config: flag %q: %w", fs.Name, err)
		}
	}
	return nil
}

// ApplyDefaults fills unset fields with production-safe defaults.
func (s *Settings) ApplyDefaults() {
	if s.Service.Environment == "" {
		s.Service.Environment = "development"
	}
	for i := range s.Breakers {
		b := &s.Breakers[i]
		if b.MaxFailures == 0 {
			b.MaxFailures = 5
		}
		if b.ResetTimeout == 0 {
			b.ResetTimeout = 30 * time.Second
		}
		if b.SuccessThreshold == 0 {
			b.SuccessThreshold = 1
		}
	}
	if s.Retry.BaseDelay == 0 {
		s.Retry.BaseDelay = 100 * time.Millisecond
	}
	if s.Retry.MaxDelay == 0 {
		s.Retry.MaxDelay = 30 * time.Second
	}
	if s.Retry.BackoffFactor == 0 {
		s.Retry.BackoffFactor = 2.0
	}
	for i := range s.Pools {
		if s.Pools[i].Capacity == 0 {
			s.Pools[i].Capacity = 10
		}
	}
	if s.Shedder.MaxConcurrency == 0 {
		s.Shedder.MaxConcurrency = 100
	}
	if s.RateLimit.Rate == 0 {
		s.RateLimit.Rate = 100
	}
	if s.RateLimit.Burst == 0 {
		s.RateLimit.Burst = 10
	}
	if s.Health.Timeout == 0 {
		s.Health.Timeout = 10 * time.Second
	}
}

// Validate rejects settings that no guard would accept.
func (s *Settings) Validate() error {
	if s.Service.Name == "" {
		return fmt.Errorf("config: service.name is required")
	}

	seen := make(map[string]bool)
	for _, b := range s.Breakers {
		if b.Name == "" {
			return fmt.Errorf("config: breaker with empty name")
		}
		if seen[b.Name] {
			return fmt.Errorf("config: duplicate breaker %q", b.Name)
		}
		seen[b.Name] = true
		if b.MaxFailures < 0 || b.SuccessThreshold < 0 {
			return fmt.Errorf("config: breaker %q has negative threshold", b.Name)
		}
	}

	seen = make(map[string]bool)
	for _, p := range s.Pools {
		if p.Name == "" {
			return fmt.Errorf("config: pool with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("config: duplicate pool %q", p.Name)
		}
		seen[p.Name] = true
		if p.Capacity < 0 || p.QueueCapacity < 0 {
			return fmt.Errorf("config: pool %q has negative capacity", p.Name)
		}
	}

	if s.Retry.MaxRetries < 0 {
		return fmt.Errorf("config: retry.max_retries must not be negative")
	}
	if s.Shedder.MaxConcurrency < 0 || s.Shedder.QueueCapacity < 0 {
		return fmt.Errorf("config: shedder capacities must not be negative")
	}
	if s.RateLimit.Rate < 0 || s.RateLimit.Burst < 0 {
		return fmt.Errorf("config: ratelimit values must not be negative")
	}

	obs := s.ObserveConfig()
	if err := obs.Validate(); err != nil {
		return err
	}
	return nil
}
