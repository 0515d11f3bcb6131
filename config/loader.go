package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// RESILIENTOPS_SHEDDER_MAX_CONCURRENCY.
const EnvPrefix = "RESILIENTOPS"

// LoaderOption customizes Load.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	configFile string
	envFile    string
}

// WithConfigFile sets an explicit config file path instead of the
// standard search locations.
func WithConfigFile(path string) LoaderOption {
	return func(o *loaderOptions) { o.configFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(o *loaderOptions) { o.envFile = path }
}

// Load reads settings from YAML and the environment. Sources are
// merged in precedence order: environment variables override the .env
// file, which overrides the config file, which overrides defaults.
// A missing config file is not an error; missing required fields are.
func Load(opts ...LoaderOption) (*Settings, error) {
	var o loaderOptions
	for _, opt := range opts {
		opt(&o)
	}

	loadDotenv(o.envFile)

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindKeys(v)

	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", o.configFile, err)
		}
	} else {
		v.SetConfigName("resilientops")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read: %w", err)
			}
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	settings.ApplyDefaults()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// loadDotenv loads the explicit .env file, or the first one found in
// standard locations. Load failures are non-fatal; the environment
// simply stays as the process inherited it.
func loadDotenv(explicit string) {
	if explicit != "" {
		_ = godotenv.Load(explicit)
		return
	}
	for _, path := range []string{".env", "config/.env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

// bindKeys registers the scalar keys with viper so environment
// variables apply even when the key is absent from the config file.
// List-valued sections (breakers, pools, flags) come from YAML only.
func bindKeys(v *viper.Viper) {
	for _, key := range []string{
		"service.name",
		"service.environment",
		"service.version",
		"retry.max_retries",
		"retry.base_delay",
		"retry.max_delay",
		"retry.backoff_factor",
		"retry.jitter",
		"shedder.max_concurrency",
		"shedder.queue_capacity",
		"shedder.enable_preemption",
		"ratelimit.rate",
		"ratelimit.burst",
		"ratelimit.wait_on_limit",
		"health.timeout",
		"health.cache_ttl",
		"telemetry.tracing_enabled",
		"telemetry.tracing_exporter",
		"telemetry.sample_pct",
		"telemetry.metrics_enabled",
		"telemetry.metrics_exporter",
		"telemetry.logging_enabled",
		"telemetry.log_level",
	} {
		_ = v.BindEnv(key)
	}
}
