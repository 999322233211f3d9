package config

import (
	"github.com/google/wire"
	"github.com/ncobase/rendercore/backend"
	"github.com/ncobase/rendercore/concurrency/worker"
	"github.com/ncobase/rendercore/jobs"
	logcfg "github.com/ncobase/rendercore/logging/logger/config"
	"github.com/ncobase/rendercore/metrics"
	"github.com/ncobase/rendercore/prefs"
	"github.com/ncobase/rendercore/relay"
)

// ProviderSet is the wire provider set for the config package.
// It provides the main *Config and extracts sub-configurations for
// other modules to use.
//
// Usage:
//
//	wire.Build(
//	    config.ProviderSet,
//	    // ... other providers
//	)
var ProviderSet = wire.NewSet(
	GetConfig,
	ProvideLoggerConfig,
	ProvideJobsConfig,
	ProvideWorkerConfig,
	ProvideMetricsConfig,
	ProvidePrefsConfig,
	ProvideRelayConfig,
	ProvideRelayTargets,
	ProvideObservesConfig,
	ProvideBackends,
)

// ProvideLoggerConfig provides the logger configuration.
func ProvideLoggerConfig(cfg *Config) *logcfg.Config {
	if cfg == nil {
		return nil
	}
	return cfg.Logger
}

// ProvideJobsConfig provides the registry configuration.
func ProvideJobsConfig(cfg *Config) *jobs.Config {
	if cfg == nil {
		return nil
	}
	return cfg.Jobs
}

// ProvideWorkerConfig provides the render pool configuration.
func ProvideWorkerConfig(cfg *Config) *worker.Config {
	if cfg == nil {
		return nil
	}
	return cfg.Worker
}

// ProvideMetricsConfig provides the metrics configuration.
func ProvideMetricsConfig(cfg *Config) *metrics.Config {
	if cfg == nil {
		return nil
	}
	return cfg.Metrics
}

// ProvidePrefsConfig provides the preferences location.
func ProvidePrefsConfig(cfg *Config) *prefs.Config {
	if cfg == nil {
		return nil
	}
	return cfg.Prefs
}

// ProvideRelayConfig provides the event relay configuration.
func ProvideRelayConfig(cfg *Config) *relay.Config {
	if cfg == nil || cfg.Relay == nil {
		return nil
	}
	return cfg.Relay.Config
}

// ProvideRelayTargets provides the configured brokers.
func ProvideRelayTargets(cfg *Config) *relay.Targets {
	if cfg == nil || cfg.Relay == nil {
		return nil
	}
	return cfg.Relay.Targets
}

// ProvideObservesConfig provides the tracing configuration.
func ProvideObservesConfig(cfg *Config) *Observes {
	if cfg == nil {
		return nil
	}
	return cfg.Observes
}

// ProvideBackends provides the renderer executables.
func ProvideBackends(cfg *Config) backend.Binaries {
	if cfg == nil {
		return backend.DefaultBinaries()
	}
	return cfg.Backends
}
