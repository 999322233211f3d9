package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ncobase/rendercore/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "rendercore.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "rendercore", cfg.AppName)
	assert.Equal(t, jobs.DefaultRemovalDelay, cfg.Jobs.RemovalDelay)
	assert.Equal(t, "melt", cfg.Backends.Melt)
	assert.True(t, cfg.Prefs.Watch)
	assert.Equal(t, "prefs.yaml", filepath.Base(cfg.Prefs.Path))
	assert.Nil(t, cfg.Relay.Targets.Redis)
	assert.Nil(t, cfg.Relay.Targets.Kafka)
	assert.Nil(t, cfg.Relay.Targets.RabbitMQ)
	assert.False(t, cfg.Observes.Tracer.Enabled())
}

func TestLoadConfig_File(t *testing.T) {
	p := writeFile(t, `
app_name: farm
jobs:
  removal_delay: 10s
  workers:
    max_workers: 3
backends:
  blender: /opt/blender/blender
prefs:
  path: /tmp/p.yaml
  watch: false
relay:
  topic: farm.jobs
  kafka:
    brokers: [k1:9092, k2:9092]
  redis:
    addr: localhost:6379
observes:
  tracer:
    endpoint: localhost:4317
`)
	cfg, err := LoadConfig(p)
	require.NoError(t, err)

	assert.Equal(t, "farm", cfg.AppName)
	assert.Equal(t, 10*time.Second, cfg.Jobs.RemovalDelay)
	assert.Equal(t, 3, cfg.Worker.MaxWorkers)
	assert.Equal(t, "/opt/blender/blender", cfg.Backends.Blender)
	assert.Equal(t, "melt", cfg.Backends.Melt)
	assert.Equal(t, "/tmp/p.yaml", cfg.Prefs.Path)
	assert.False(t, cfg.Prefs.Watch)
	assert.Equal(t, "farm.jobs", cfg.Relay.Topic)
	require.NotNil(t, cfg.Relay.Targets.Kafka)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Relay.Targets.Kafka.Brokers)
	require.NotNil(t, cfg.Relay.Targets.Redis)
	assert.Equal(t, "localhost:6379", cfg.Relay.Targets.Redis.Addr)
	assert.True(t, cfg.Observes.Tracer.Enabled())
	assert.Equal(t, "farm", cfg.Observes.Tracer.ServiceName)
}

func TestLoadConfig_Env(t *testing.T) {
	p := writeFile(t, "jobs:\n  removal_delay: 2s\n")
	t.Setenv("RENDERCORE_JOBS_REMOVAL_DELAY", "7s")

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, cfg.Jobs.RemovalDelay)
}

func TestLoadConfig_Invalid(t *testing.T) {
	p := writeFile(t, `
jobs:
  workers:
    max_workers: 0
logger:
  output: file
`)
	_, err := LoadConfig(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid worker config")
	assert.Contains(t, err.Error(), "invalid logger config")
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetConfig_Reload(t *testing.T) {
	p := writeFile(t, "app_name: one\n")
	SetPath(p)
	t.Cleanup(func() { SetPath("") })

	cfg, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "one", cfg.AppName)

	again, err := GetConfig()
	require.NoError(t, err)
	assert.Same(t, cfg, again)

	require.NoError(t, os.WriteFile(p, []byte("app_name: two\n"), 0o644))
	require.NoError(t, Reload())

	cfg, err = GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "two", cfg.AppName)
}

func TestProviders(t *testing.T) {
	assert.Nil(t, ProvideJobsConfig(nil))
	assert.Nil(t, ProvideRelayTargets(nil))
	assert.Equal(t, "melt", ProvideBackends(nil).Melt)

	p := writeFile(t, "relay:\n  topic: x\n")
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, "x", ProvideRelayConfig(cfg).Topic)
	assert.Same(t, cfg.Worker, ProvideWorkerConfig(cfg))
	assert.Same(t, cfg.Logger, ProvideLoggerConfig(cfg))
}
