// Package panel is the jobs list view: rows built from registry snapshots,
// a selection, and the user actions that map onto registry operations.
package panel

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/ncobase/rendercore/jobs"
	"github.com/ncobase/rendercore/logging/logger"
)

// ErrNoSelection is returned by CancelSelected when no row is selected
var ErrNoSelection = errors.New("no job selected")

// Source is the registry side the panel reads and drives
type Source interface {
	Snapshot() []jobs.Snapshot
	Cancel(ctx context.Context, id string) error
	CancelAll(ctx context.Context) int
}

// Toggles are the persisted flags the panel shows as checkboxes
type Toggles interface {
	jobs.Preferences
	ToggleRenderSequentially() (bool, error)
	ToggleOpenPanelOnAdd() (bool, error)
}

// Row is one displayed job
type Row struct {
	ID       string
	Status   jobs.Status
	Type     string
	Text     string
	Elapsed  string
	Progress string
}

func rowFrom(s jobs.Snapshot) Row {
	return Row{
		ID:       s.ID,
		Status:   s.Status,
		Type:     s.TypeLabel(),
		Text:     s.Text,
		Elapsed:  s.ElapsedLabel(),
		Progress: s.ProgressLabel(),
	}
}

// Panel implements jobs.Observer
type Panel struct {
	src     Source
	toggles Toggles

	mu        sync.Mutex
	rows      []Row
	selected  map[string]struct{}
	visible   bool
	refreshes int

	out    io.Writer
	color  bool
	styles styles
}

var _ jobs.Observer = (*Panel)(nil)

// Option configures a Panel
type Option func(*Panel)

// WithOutput redraws the panel to w on every refresh while it is visible
func WithOutput(w io.Writer, color bool) Option {
	return func(p *Panel) {
		p.out = w
		p.color = color
	}
}

// WithRenderer styles colored output for r instead of the default renderer
func WithRenderer(r *lipgloss.Renderer) Option {
	return func(p *Panel) {
		if r != nil {
			p.styles = newStyles(r)
		}
	}
}

// New creates a panel over src. toggles may be nil, which disables the
// checkbox actions.
func New(src Source, toggles Toggles, opts ...Option) *Panel {
	p := &Panel{
		src:      src,
		toggles:  toggles,
		selected: make(map[string]struct{}),
		styles:   newStyles(lipgloss.DefaultRenderer()),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnRegistryChanged rebuilds the rows from the registry
func (p *Panel) OnRegistryChanged() {
	snaps := p.src.Snapshot()

	rows := make([]Row, 0, len(snaps))
	live := make(map[string]struct{}, len(snaps))
	for _, s := range snaps {
		rows = append(rows, rowFrom(s))
		live[s.ID] = struct{}{}
	}

	p.mu.Lock()
	p.rows = rows
	p.refreshes++
	for id := range p.selected {
		if _, ok := live[id]; !ok {
			delete(p.selected, id)
		}
	}
	draw := p.visible && p.out != nil
	p.mu.Unlock()

	if draw {
		p.draw()
	}
}

// ShowJobsPanel brings the panel into view
func (p *Panel) ShowJobsPanel() {
	p.mu.Lock()
	already := p.visible
	p.visible = true
	draw := p.out != nil
	p.mu.Unlock()

	if !already && draw {
		p.draw()
	}
}

// Hide takes the panel out of view
func (p *Panel) Hide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = false
}

// Visible reports whether the panel is in view
func (p *Panel) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Refreshes returns how many times the rows were rebuilt
func (p *Panel) Refreshes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshes
}

// Rows returns the displayed rows in order
func (p *Panel) Rows() []Row {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.rows)
}

// Select adds rows to the selection, ignoring ids that are not displayed
func (p *Panel) Select(ids ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range ids {
		if p.indexLocked(id) >= 0 {
			p.selected[id] = struct{}{}
		}
	}
}

// SelectIndex selects the row at display index i
func (p *Panel) SelectIndex(i int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i < 0 || i >= len(p.rows) {
		return false
	}
	p.selected[p.rows[i].ID] = struct{}{}
	return true
}

// Selected returns the selected ids in display order
func (p *Panel) Selected() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selectedLocked()
}

func (p *Panel) selectedLocked() []string {
	var ids []string
	for _, r := range p.rows {
		if _, ok := p.selected[r.ID]; ok {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func (p *Panel) indexLocked(id string) int {
	return slices.IndexFunc(p.rows, func(r Row) bool { return r.ID == id })
}

// CancelSelected cancels the first selected row. Further selected rows are
// left alone.
func (p *Panel) CancelSelected(ctx context.Context) error {
	p.mu.Lock()
	ids := p.selectedLocked()
	p.mu.Unlock()

	if len(ids) == 0 {
		return ErrNoSelection
	}
	if err := p.src.Cancel(ctx, ids[0]); err != nil {
		logger.Warnf(ctx, "cancel selected job %s: %v", ids[0], err)
		return err
	}
	return nil
}

// CancelAll cancels every rendering job
func (p *Panel) CancelAll(ctx context.Context) int {
	return p.src.CancelAll(ctx)
}

// ToggleRenderSequentially flips the sequential rendering flag
func (p *Panel) ToggleRenderSequentially() (bool, error) {
	if p.toggles == nil {
		return false, errors.New("preferences are not available")
	}
	return p.toggles.ToggleRenderSequentially()
}

// ToggleOpenOnAdd flips the open panel on add flag
func (p *Panel) ToggleOpenOnAdd() (bool, error) {
	if p.toggles == nil {
		return false, errors.New("preferences are not available")
	}
	return p.toggles.ToggleOpenPanelOnAdd()
}

func (p *Panel) draw() {
	_, _ = io.WriteString(p.out, p.Render(p.color)+"\n")
}
