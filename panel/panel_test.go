package panel

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/ncobase/rendercore/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memToggles struct {
	jobs.StaticPreferences
}

func (m *memToggles) RenderSequentially() bool { return m.Sequential }
func (m *memToggles) OpenPanelOnAdd() bool     { return m.OpenOnAdd }

func (m *memToggles) ToggleRenderSequentially() (bool, error) {
	m.Sequential = !m.Sequential
	return m.Sequential, nil
}

func (m *memToggles) ToggleOpenPanelOnAdd() (bool, error) {
	m.OpenOnAdd = !m.OpenOnAdd
	return m.OpenOnAdd, nil
}

type abortCounter struct{ aborts atomic.Int32 }

func (a *abortCounter) StartRender() {}
func (a *abortCounter) AbortRender() { a.aborts.Add(1) }

func setup(t *testing.T, toggles *memToggles) (*jobs.Registry, *Panel) {
	t.Helper()
	r := jobs.NewRegistry(toggles)
	p := New(r, toggles)
	r.AddObserver(p)
	return r, p
}

func TestPanel_RowsFollowRegistry(t *testing.T) {
	r, p := setup(t, &memToggles{jobs.StaticPreferences{Sequential: true}})
	ctx := context.Background()

	require.NoError(t, r.Submit(ctx, jobs.NewHandle("a", jobs.KindGmic, &abortCounter{})))
	require.NoError(t, r.Submit(ctx, jobs.NewHandle("b", jobs.KindUnset, &abortCounter{})))
	require.NoError(t, r.ApplyUpdate(ctx, jobs.Update{ID: "a", Status: jobs.StatusRendering, Progress: 0.42, Text: "frame 42/100", Elapsed: 65}))

	rows := p.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, Row{
		ID:       "a",
		Status:   jobs.StatusRendering,
		Type:     "Container Clip G'Mic",
		Text:     "frame 42/100",
		Elapsed:  "1m 5s",
		Progress: "42%",
	}, rows[0])
	assert.Equal(t, "NO TYPE SET", rows[1].Type)
	assert.Equal(t, jobs.StatusQueued, rows[1].Status)
	assert.Equal(t, 3, p.Refreshes())
}

func TestPanel_CancelSelected(t *testing.T) {
	r, p := setup(t, &memToggles{})
	ctx := context.Background()

	assert.ErrorIs(t, p.CancelSelected(ctx), ErrNoSelection)

	a, b := &abortCounter{}, &abortCounter{}
	require.NoError(t, r.Submit(ctx, jobs.NewHandle("a", jobs.KindGmic, a)))
	require.NoError(t, r.Submit(ctx, jobs.NewHandle("b", jobs.KindGmic, b)))

	p.Select("b", "a", "ghost")
	assert.Equal(t, []string{"a", "b"}, p.Selected())

	require.NoError(t, p.CancelSelected(ctx))
	assert.EqualValues(t, 1, a.aborts.Load())
	assert.Zero(t, b.aborts.Load())
	assert.Equal(t, "Cancelled", p.Rows()[0].Text)

	assert.ErrorIs(t, p.CancelSelected(ctx), jobs.ErrJobFinished)
}

func TestPanel_SelectionDropsRemovedRows(t *testing.T) {
	r := jobs.NewRegistry(nil, jobs.WithRemovalDelay(0))
	p := New(r, nil)
	r.AddObserver(p)
	ctx := context.Background()

	require.NoError(t, r.Submit(ctx, jobs.NewHandle("a", jobs.KindGmic, &abortCounter{})))
	assert.True(t, p.SelectIndex(0))
	assert.False(t, p.SelectIndex(4))
	require.NoError(t, r.Cancel(ctx, "a"))
	r.SweepRemovals(ctx)

	assert.Empty(t, p.Rows())
	assert.Empty(t, p.Selected())
	assert.ErrorIs(t, p.CancelSelected(ctx), ErrNoSelection)
}

func TestPanel_CancelAll(t *testing.T) {
	r, p := setup(t, &memToggles{jobs.StaticPreferences{Sequential: true}})
	ctx := context.Background()

	a, b := &abortCounter{}, &abortCounter{}
	require.NoError(t, r.Submit(ctx, jobs.NewHandle("a", jobs.KindBlender, a)))
	require.NoError(t, r.Submit(ctx, jobs.NewHandle("b", jobs.KindBlender, b)))

	assert.Equal(t, 1, p.CancelAll(ctx))
	assert.EqualValues(t, 1, a.aborts.Load())
	assert.Zero(t, b.aborts.Load())
}

func TestPanel_Toggles(t *testing.T) {
	toggles := &memToggles{}
	_, p := setup(t, toggles)

	on, err := p.ToggleRenderSequentially()
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, toggles.Sequential)

	on, err = p.ToggleOpenOnAdd()
	require.NoError(t, err)
	assert.True(t, on)
	on, err = p.ToggleOpenOnAdd()
	require.NoError(t, err)
	assert.False(t, on)

	bare := New(jobs.NewRegistry(nil), nil)
	_, err = bare.ToggleRenderSequentially()
	assert.Error(t, err)
}

func TestPanel_ShowOnAdd(t *testing.T) {
	var out bytes.Buffer
	toggles := &memToggles{jobs.StaticPreferences{OpenOnAdd: true}}
	r := jobs.NewRegistry(toggles)
	p := New(r, toggles, WithOutput(&out, false))
	r.AddObserver(p)

	assert.False(t, p.Visible())
	require.NoError(t, r.Submit(context.Background(), jobs.NewHandle("a", jobs.KindMLTXML, &abortCounter{})))
	assert.True(t, p.Visible())
	assert.Contains(t, out.String(), "Container Clip MLT XML")

	p.Hide()
	assert.False(t, p.Visible())
}

func TestPanel_Render(t *testing.T) {
	toggles := &memToggles{jobs.StaticPreferences{Sequential: true}}
	r, p := setup(t, toggles)
	ctx := context.Background()

	require.NoError(t, r.Submit(ctx, jobs.NewHandle("a", jobs.KindBlender, &abortCounter{})))
	p.Select("a")

	lines := strings.Split(strings.TrimRight(p.Render(false), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "  Type"))
	assert.Contains(t, lines[0], "Render Time")
	assert.True(t, strings.HasPrefix(lines[1], "> Container Clip Blender"))
	assert.Contains(t, lines[1], "0%")
	assert.Equal(t, "[x] Render sequentially   [ ] Open jobs panel on add", lines[2])
}

var ansi = regexp.MustCompile("\x1b\[[0-9;]*m")

func TestPanel_RenderColorKeepsColumns(t *testing.T) {
	renderer := lipgloss.NewRenderer(io.Discard)
	renderer.SetColorProfile(termenv.ANSI256)

	toggles := &memToggles{}
	r := jobs.NewRegistry(toggles)
	p := New(r, toggles, WithRenderer(renderer))
	r.AddObserver(p)
	ctx := context.Background()

	for _, id := range []string{"done", "dropped", "busy", "picked"} {
		require.NoError(t, r.Submit(ctx, jobs.NewHandle(id, jobs.KindBlender, &abortCounter{})))
	}
	require.NoError(t, r.ApplyUpdate(ctx, jobs.Update{ID: "done", Status: jobs.StatusCompleted}))
	require.NoError(t, r.Cancel(ctx, "dropped"))
	require.NoError(t, r.ApplyUpdate(ctx, jobs.Update{ID: "busy", Status: jobs.StatusRendering, Progress: 0.5, Text: "Fra:12"}))
	p.Select("picked")

	colored := p.Render(true)
	plain := p.Render(false)
	assert.NotEqual(t, plain, colored)
	assert.Equal(t, plain, ansi.ReplaceAllString(colored, ""))

	lines := strings.Split(strings.TrimRight(colored, "\n"), "\n")
	require.Len(t, lines, 6)
	header := ansi.ReplaceAllString(lines[0], "")
	assert.True(t, strings.HasPrefix(header, "  Type"))
	assert.Contains(t, header, "Progress")

	col := strings.Index(header, "Progress")
	for _, line := range lines[1:5] {
		row := ansi.ReplaceAllString(line, "")
		require.Greater(t, len(row), col, row)
		assert.NotEqual(t, ' ', rune(row[col]), "progress column misaligned in %q", row)
		assert.Equal(t, ' ', rune(row[col-1]), "progress column misaligned in %q", row)
	}
}
