package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/ncobase/rendercore/backend"
	"github.com/ncobase/rendercore/concurrency/worker"
	"github.com/ncobase/rendercore/jobs"
	logcfg "github.com/ncobase/rendercore/logging/logger/config"
	"github.com/ncobase/rendercore/metrics"
	"github.com/ncobase/rendercore/prefs"
	"github.com/ncobase/rendercore/validator"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. RENDERCORE_JOBS_REMOVAL_DELAY
const EnvPrefix = "RENDERCORE"

var (
	config *Config
	path   string
	mu     sync.Mutex
)

// Config represents the configuration implementation.
type Config struct {
	AppName  string
	RunMode  string
	Version  string
	Logger   *logcfg.Config
	Jobs     *jobs.Config
	Worker   *worker.Config
	Metrics  *metrics.Config
	Prefs    *prefs.Config
	Relay    *Relay
	Observes *Observes
	Backends backend.Binaries
	Viper    *viper.Viper
}

// SetPath sets the file GetConfig loads, empty searches the default locations
func SetPath(p string) {
	mu.Lock()
	defer mu.Unlock()
	path = p
	config = nil
}

// GetConfig returns the configuration, loading it on first use.
// It does not handle errors internally; instead, it returns the error for the caller to handle.
func GetConfig() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if config == nil {
		cfg, err := LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize config: %w", err)
		}
		config = cfg
	}
	return config, nil
}

// LoadConfig loads the configuration from the file. Without a path the
// usual locations are searched and a missing file means defaults.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("rendercore")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "rendercore"))
		}
		v.AddConfigPath("/etc/rendercore")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		AppName:  getStringOrDefault(v, "app_name", "rendercore"),
		RunMode:  getStringOrDefault(v, "run_mode", "release"),
		Version:  v.GetString("version"),
		Logger:   logcfg.GetConfig(v),
		Jobs:     getJobsConfig(v),
		Worker:   getWorkerConfig(v),
		Metrics:  getMetricsConfig(v),
		Prefs:    getPrefsConfig(v),
		Relay:    getRelayConfig(v),
		Observes: getObservesConfig(v),
		Backends: getBackendsConfig(v),
		Viper:    v,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section
func (c *Config) Validate() error {
	errs := []error{
		validator.Struct("logger", c.Logger),
		validator.Struct("jobs", c.Jobs),
		validator.Struct("worker", c.Worker),
		validator.Struct("prefs", c.Prefs),
	}
	if c.Metrics != nil {
		errs = append(errs, c.Metrics.Validate())
	}
	if c.Relay != nil {
		errs = append(errs, validator.Struct("relay", c.Relay.Config))
	}
	if c.Observes != nil && c.Observes.Tracer.Enabled() {
		errs = append(errs, validator.Struct("tracer", c.Observes.Tracer))
	}
	return errors.Join(errs...)
}

// Reload reloads the configuration from the file.
func Reload() error {
	mu.Lock()
	defer mu.Unlock()

	newConfig, err := LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	config = newConfig
	return nil
}

// Watch watches the loaded configuration file and passes every valid
// reload to callback. Invalid edits are reported to onError and ignored.
func Watch(callback func(*Config), onError func(error)) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	if cfg.Viper.ConfigFileUsed() == "" {
		return errors.New("no config file to watch")
	}

	cfg.Viper.OnConfigChange(func(fsnotify.Event) {
		if err := Reload(); err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if next, err := GetConfig(); err == nil && callback != nil {
			callback(next)
		}
	})
	cfg.Viper.WatchConfig()
	return nil
}
