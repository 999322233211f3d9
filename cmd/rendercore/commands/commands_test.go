package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ncobase/rendercore/app"
	"github.com/ncobase/rendercore/backend"
	"github.com/ncobase/rendercore/concurrency/worker"
	"github.com/ncobase/rendercore/config"
	"github.com/ncobase/rendercore/jobs"
	"github.com/ncobase/rendercore/metrics"
	"github.com/ncobase/rendercore/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string, mode os.FileMode) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), mode))
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { config.SetPath("") })

	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestLoadManifest(t *testing.T) {
	p := writeFile(t, "jobs.yaml", `
jobs:
  - id: intro
    kind: mlt
    input: intro.mlt
    output: intro.mp4
  - kind: blender
    input: scene.blend
    output: /tmp/frame_####
    start: 1
    end: 48
`, 0o644)

	m, err := LoadManifest(p)
	require.NoError(t, err)
	require.Len(t, m.Jobs, 2)
	assert.Equal(t, "intro", m.Jobs[0].ID)
	assert.Equal(t, jobs.KindMLTXML, m.Jobs[0].Kind)
	assert.Equal(t, jobs.KindBlender, m.Jobs[1].Kind)
	assert.Equal(t, 48, m.Jobs[1].End)
}

func TestLoadManifest_Errors(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadManifest(writeFile(t, "empty.yaml", "jobs: []\n", 0o644))
	assert.EqualError(t, err, "manifest has no jobs")

	_, err = LoadManifest(writeFile(t, "bad.yaml", "jobs:\n  - kind: natron\n", 0o644))
	assert.Error(t, err)
}

func TestPrefsCommands(t *testing.T) {
	prefsPath := filepath.Join(t.TempDir(), "prefs.yaml")
	cfg := writeFile(t, "rendercore.yaml", "prefs:\n  path: "+prefsPath+"\n  watch: false\n", 0o644)

	out, err := execute(t, "-c", cfg, "prefs", "set", prefs.KeyRenderSequentially, "true")
	require.NoError(t, err)
	assert.Contains(t, out, prefs.KeyRenderSequentially+": true")

	out, err = execute(t, "-c", cfg, "prefs", "toggle", prefs.KeyOpenPanelOnAdd)
	require.NoError(t, err)
	assert.Contains(t, out, prefs.KeyOpenPanelOnAdd+": true")

	out, err = execute(t, "-c", cfg, "prefs", "show")
	require.NoError(t, err)
	assert.Contains(t, out, prefsPath)
	assert.Contains(t, out, prefs.KeyRenderSequentially+": true")
	assert.Contains(t, out, prefs.KeyOpenPanelOnAdd+": true")

	_, err = execute(t, "-c", cfg, "prefs", "set", "autosave", "true")
	assert.ErrorIs(t, err, prefs.ErrUnknownKey)

	_, err = execute(t, "-c", cfg, "prefs", "set", prefs.KeyOpenPanelOnAdd, "maybe")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"goVersion"`)
}

func TestRenderCommand_RequiresFile(t *testing.T) {
	_, err := execute(t, "render")
	assert.Error(t, err)
}

func newApp(t *testing.T, melt string) *app.App {
	t.Helper()
	ctx := context.Background()

	bus := app.ProvideEventBus()
	reg := jobs.NewRegistry(jobs.StaticPreferences{}, jobs.WithRemovalDelay(5*time.Millisecond), jobs.WithEventBus(bus))
	require.NoError(t, reg.Start(ctx))
	t.Cleanup(func() { _ = reg.Stop(ctx) })

	pool := worker.NewPool(worker.DefaultConfig())
	pool.Start()
	t.Cleanup(func() { pool.Stop(ctx) })

	collector, err := metrics.NewCollector(metrics.DefaultConfig())
	require.NoError(t, err)
	collector.Attach(bus)

	factory := backend.NewFactory(backend.Binaries{Melt: melt}, pool, reg)
	return app.NewApp(nil, nil, &app.Tracing{}, bus, nil, reg, pool, factory, collector, nil, app.ProvidePanel(reg, nil))
}

func TestRunRender(t *testing.T) {
	ok := writeFile(t, "melt.sh", "#!/bin/sh\necho 'Current Frame: 1, percentage: 100'\n", 0o755)
	a := newApp(t, ok)

	m := &Manifest{Jobs: []backend.JobSpec{
		{ID: "one", Kind: jobs.KindMLTXML, Input: "a.mlt", Output: "a.mp4"},
		{ID: "two", Kind: jobs.KindMLTXML, Input: "b.mlt", Output: "b.mp4"},
	}}

	var buf bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, runRender(ctx, a, m, &buf, 5*time.Millisecond, false, false))
	assert.Contains(t, buf.String(), "2 completed, 0 cancelled")
	assert.NotContains(t, buf.String(), `"registry"`)
}

func TestRunRender_Stats(t *testing.T) {
	ok := writeFile(t, "melt.sh", "#!/bin/sh\necho 'Current Frame: 1, percentage: 100'\n", 0o755)
	a := newApp(t, ok)

	m := &Manifest{Jobs: []backend.JobSpec{{ID: "one", Kind: jobs.KindMLTXML, Input: "a.mlt", Output: "a.mp4"}}}
	var buf bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, runRender(ctx, a, m, &buf, time.Second, false, true))

	out := buf.String()
	assert.Contains(t, out, "1 completed, 0 cancelled")
	assert.Contains(t, out, `"registry"`)
	assert.Contains(t, out, `"removals"`)
	assert.Contains(t, out, `"pool"`)
	assert.Contains(t, out, `"job.completed": 1`)
}

func TestRunRender_Failure(t *testing.T) {
	fail := writeFile(t, "melt.sh", "#!/bin/sh\nexit 3\n", 0o755)
	a := newApp(t, fail)

	m := &Manifest{Jobs: []backend.JobSpec{{ID: "bad", Kind: jobs.KindMLTXML, Input: "a.mlt", Output: "a.mp4"}}}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := runRender(ctx, a, m, &bytes.Buffer{}, time.Second, false, false)
	assert.EqualError(t, err, "1 render(s) did not complete")
}

func TestRunRender_Interrupted(t *testing.T) {
	slow := writeFile(t, "melt.sh", "#!/bin/sh\nexec sleep 30\n", 0o755)
	a := newApp(t, slow)

	m := &Manifest{Jobs: []backend.JobSpec{{ID: "slow", Kind: jobs.KindMLTXML, Input: "a.mlt", Output: "a.mp4"}}}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := runRender(ctx, a, m, &bytes.Buffer{}, time.Second, false, false)
	assert.EqualError(t, err, "interrupted, cancelled 1 render(s)")
}
