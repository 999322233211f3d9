package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ncobase/rendercore/backend"
	"github.com/ncobase/rendercore/concurrency/worker"
	"github.com/ncobase/rendercore/jobs"
	"github.com/ncobase/rendercore/metrics"
	"github.com/ncobase/rendercore/prefs"
	"github.com/spf13/viper"
)

// getJobsConfig reads the registry settings
func getJobsConfig(v *viper.Viper) *jobs.Config {
	return &jobs.Config{
		RemovalDelay: getDurationOrDefault(v, "jobs.removal_delay", jobs.DefaultRemovalDelay),
	}
}

// getWorkerConfig reads the render pool settings
func getWorkerConfig(v *viper.Viper) *worker.Config {
	def := worker.DefaultConfig()
	return &worker.Config{
		MaxWorkers:  getIntOrDefault(v, "jobs.workers.max_workers", def.MaxWorkers),
		QueueSize:   getIntOrDefault(v, "jobs.workers.queue_size", def.QueueSize),
		TaskTimeout: getDurationOrDefault(v, "jobs.workers.task_timeout", def.TaskTimeout),
	}
}

// getPrefsConfig reads where user preferences are kept
func getPrefsConfig(v *viper.Viper) *prefs.Config {
	return &prefs.Config{
		Path:  getStringOrDefault(v, "prefs.path", defaultPrefsPath()),
		Watch: getBoolOrDefault(v, "prefs.watch", true),
	}
}

func defaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "rendercore", "prefs.yaml")
}

// getMetricsConfig reads the metrics collector settings
func getMetricsConfig(v *viper.Viper) *metrics.Config {
	def := metrics.DefaultConfig()
	return &metrics.Config{
		Enabled:     getBoolOrDefault(v, "metrics.enabled", def.Enabled),
		MaxSamples:  getIntOrDefault(v, "metrics.max_samples", def.MaxSamples),
		LogInterval: getDurationOrDefault(v, "metrics.log_interval", time.Duration(0)),
	}
}

// getBackendsConfig reads the renderer executables
func getBackendsConfig(v *viper.Viper) backend.Binaries {
	def := backend.DefaultBinaries()
	return backend.Binaries{
		Melt:    getStringOrDefault(v, "backends.melt", def.Melt),
		Blender: getStringOrDefault(v, "backends.blender", def.Blender),
		Gmic:    getStringOrDefault(v, "backends.gmic", def.Gmic),
	}
}
