// Package config loads the resilience layer's settings from YAML,
// .env files, and environment variables, and converts them into the
// guard, health, and observe configuration types.
//
//	settings, err := config.Load(config.WithConfigFile("resilientops.yaml"))
//	if err != nil {
//	    return err
//	}
//	pools := settings.BuildPools()
//	breakers := settings.BuildBreakers()
//	registry := health.NewRegistry(settings.Health.RegistryConfig())
//
// Environment variables use the RESILIENTOPS_ prefix with underscores
// for nesting, e.g. RESILIENTOPS_SHEDDER_MAX_CONCURRENCY=200.
package config
