package jobs

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ncobase/rendercore/ctxutil"
	"github.com/ncobase/rendercore/event"
	"github.com/ncobase/rendercore/logging/logger"
	"github.com/ncobase/rendercore/queue"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxPendingRemovals = 1 << 20

// Registry is the ordered set of live render jobs
type Registry struct {
	prefs  Preferences
	delay  time.Duration
	now    func() time.Time
	bus    *event.Bus
	tracer trace.Tracer

	mu        sync.Mutex
	jobs      []*Handle
	index     map[string]*Handle
	removals  *queue.TimerQueue
	observers []registration
	nextObs   uint64

	loopMu sync.Mutex
	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRegistry creates a registry reading its scheduling policy from prefs.
// A nil prefs renders in parallel and never opens the panel.
func NewRegistry(prefs Preferences, opts ...Option) *Registry {
	if prefs == nil {
		prefs = StaticPreferences{}
	}
	r := &Registry{
		prefs:    prefs,
		delay:    DefaultRemovalDelay,
		now:      time.Now,
		tracer:   defaultTracer(),
		index:    make(map[string]*Handle),
		removals: queue.NewTimerQueue(maxPendingRemovals),
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type registration struct {
	id uint64
	o  Observer
}

// AddObserver registers o for refresh notifications and returns the
// function that unregisters it
func (r *Registry) AddObserver(o Observer) func() {
	if o == nil {
		return func() {}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addObserverLocked(o)
}

func (r *Registry) addObserverLocked(o Observer) func() {
	r.nextObs++
	id := r.nextObs
	r.observers = append(r.observers, registration{id: id, o: o})
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.observers = slices.DeleteFunc(r.observers, func(reg registration) bool { return reg.id == id })
	}
}

// Observers returns how many observers are registered
func (r *Registry) Observers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.observers)
}

// effects collects what a locked mutation wants done once the lock is gone
type effects struct {
	starts    []*Handle
	aborts    []Backend
	events    []pendingEvent
	changed   bool
	showPanel bool
	wake      bool
}

type pendingEvent struct {
	name string
	data any
}

func (fx *effects) emit(name string, data any) {
	fx.events = append(fx.events, pendingEvent{name: name, data: data})
}

// Submit adds h to the end of the list and starts it unless sequential
// rendering is on and another job is rendering.
func (r *Registry) Submit(ctx context.Context, h *Handle) error {
	if h == nil || h.id == "" || h.backend == nil {
		return ErrInvalidJob
	}

	ctx = ctxutil.SetJobID(ctx, h.id)
	ctx, span := r.tracer.Start(ctx, "jobs.Submit", trace.WithAttributes(
		attribute.String("job.id", h.id),
		attribute.String("job.kind", h.kind.String()),
	))
	defer span.End()

	if h.kind == KindUnset {
		logger.Warnf(ctx, "job %s submitted without a kind", h.id)
	}

	sequential := r.prefs.RenderSequentially()
	fx := &effects{changed: true, showPanel: r.prefs.OpenPanelOnAdd()}

	r.mu.Lock()
	if _, exists := r.index[h.id]; exists {
		r.mu.Unlock()
		span.SetStatus(codes.Error, "duplicate job id")
		return fmt.Errorf("%w: %s", ErrDuplicateJob, h.id)
	}

	h.status = StatusQueued
	h.started = false
	h.submittedAt = r.now()
	r.jobs = append(r.jobs, h)
	r.index[h.id] = h
	fx.emit(event.JobSubmitted, r.snapshotLocked(h))

	if !sequential || r.firstLocked(StatusRendering) == nil {
		r.startLocked(h, fx)
	}
	status := h.status
	r.mu.Unlock()

	span.SetAttributes(attribute.String("job.status", status.String()))
	logger.Debugf(ctx, "job %s submitted as %s", h.id, status)

	r.flush(ctx, fx)
	return nil
}

// ApplyUpdate folds a backend report into the live job with the same id.
// Updates for cancelled or completed jobs are dropped without error.
func (r *Registry) ApplyUpdate(ctx context.Context, u Update) error {
	ctx = ctxutil.SetJobID(ctx, u.ID)
	ctx, span := r.tracer.Start(ctx, "jobs.ApplyUpdate", trace.WithAttributes(
		attribute.String("job.id", u.ID),
		attribute.String("job.update_status", u.Status.String()),
	))
	defer span.End()

	if !u.Status.Valid() {
		span.SetStatus(codes.Error, "invalid status")
		return fmt.Errorf("%w: %d", ErrInvalidStatus, int(u.Status))
	}

	sequential := r.prefs.RenderSequentially()
	fx := &effects{}

	r.mu.Lock()
	h, ok := r.index[u.ID]
	if !ok {
		r.mu.Unlock()
		// a backend and the registry disagree about which jobs exist
		logger.Errorf(ctx, "update for untracked job %s", u.ID)
		if r.bus != nil {
			r.bus.PublishSync(event.JobOrphanUpdate, u)
		}
		span.SetStatus(codes.Error, "unknown job")
		return fmt.Errorf("%w: %s", ErrUnknownJob, u.ID)
	}

	if h.status.IsTerminal() {
		status := h.status
		r.mu.Unlock()
		logger.Debugf(ctx, "dropping update for %s job %s", status, u.ID)
		return nil
	}

	h.text = u.Text
	if u.Elapsed > h.elapsed {
		h.elapsed = u.Elapsed
	}
	h.progress = clampProgress(u.Progress)
	fx.changed = true

	switch u.Status {
	case StatusCompleted:
		h.status = StatusCompleted
		h.text = textCompleted
		h.progress = 1.0
		h.finishedAt = r.now()
		r.scheduleRemovalLocked(ctx, h, fx)
		fx.emit(event.JobCompleted, r.snapshotLocked(h))

		if next := r.firstLocked(StatusQueued); next != nil {
			r.startLocked(next, fx)
		}
	case StatusCancelled:
		// the backend gave up on its own, e.g. the render process failed
		h.status = StatusCancelled
		if h.text == "" {
			h.text = textCancelled
		}
		h.finishedAt = r.now()
		r.scheduleRemovalLocked(ctx, h, fx)
		fx.emit(event.JobCancelled, r.snapshotLocked(h))
		r.advanceLocked(sequential, fx)
	default:
		h.status = u.Status
		fx.emit(event.JobUpdated, r.snapshotLocked(h))
	}
	r.mu.Unlock()

	r.flush(ctx, fx)
	return nil
}

// CancelAll aborts every rendering job and returns how many were cancelled.
// Queued jobs are left alone.
func (r *Registry) CancelAll(ctx context.Context) int {
	ctx, span := r.tracer.Start(ctx, "jobs.CancelAll")
	defer span.End()

	fx := &effects{changed: true}

	r.mu.Lock()
	n := 0
	for _, h := range r.jobs {
		if h.status == StatusRendering {
			r.cancelLocked(ctx, h, fx)
			n++
		}
	}
	r.mu.Unlock()

	span.SetAttributes(attribute.Int("jobs.cancelled", n))
	if n > 0 {
		logger.Infof(ctx, "cancelled %d rendering jobs", n)
	}

	r.flush(ctx, fx)
	return n
}

// Cancel aborts one job. A finished job still gets the abort call but keeps
// its state, and ErrJobFinished is returned.
func (r *Registry) Cancel(ctx context.Context, id string) error {
	ctx = ctxutil.SetJobID(ctx, id)
	ctx, span := r.tracer.Start(ctx, "jobs.Cancel", trace.WithAttributes(attribute.String("job.id", id)))
	defer span.End()

	fx := &effects{changed: true}

	r.mu.Lock()
	h, ok := r.index[id]
	if !ok {
		r.mu.Unlock()
		span.SetStatus(codes.Error, "unknown job")
		return fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	if h.status.IsTerminal() {
		// abort is unconditional, the finished row keeps its state
		status, b := h.status, h.backend
		r.mu.Unlock()
		r.safeCall(ctx, "abort render", b.AbortRender)
		return fmt.Errorf("%w: %s is %s", ErrJobFinished, id, status)
	}
	r.cancelLocked(ctx, h, fx)
	r.mu.Unlock()

	logger.Infof(ctx, "cancelled job %s", id)
	r.flush(ctx, fx)
	return nil
}

// SweepRemovals drops every finished job whose removal time has passed and
// returns how many were dropped. Calling it with nothing due is a no-op.
func (r *Registry) SweepRemovals(ctx context.Context) int {
	sequential := r.prefs.RenderSequentially()
	fx := &effects{}

	r.mu.Lock()
	removed := 0
	for _, id := range r.removals.Due(r.now()) {
		h, ok := r.index[id]
		if !ok {
			continue
		}
		delete(r.index, id)
		removed++
		fx.emit(event.JobRemoved, h.snapshot(time.Time{}))
	}
	if removed > 0 {
		r.jobs = slices.DeleteFunc(r.jobs, func(h *Handle) bool {
			return r.index[h.id] != h
		})
		fx.changed = true
		r.advanceLocked(sequential, fx)
	}
	r.mu.Unlock()

	if removed > 0 {
		logger.Debugf(ctx, "removed %d finished jobs", removed)
	}
	r.flush(ctx, fx)
	return removed
}

// Snapshot returns every live job in display order
func (r *Registry) Snapshot() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Snapshot, 0, len(r.jobs))
	for _, h := range r.jobs {
		out = append(out, r.snapshotLocked(h))
	}
	return out
}

// Get returns the live job with id
func (r *Registry) Get(id string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.index[id]
	if !ok {
		return Snapshot{}, false
	}
	return r.snapshotLocked(h), true
}

// Len returns the number of live jobs, finished ones included
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Count returns how many live jobs have status s
func (r *Registry) Count(s Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, h := range r.jobs {
		if h.status == s {
			n++
		}
	}
	return n
}

// Reschedule starts the queued jobs the current preferences allow to run,
// for use after the sequential flag changed. It returns how many started.
func (r *Registry) Reschedule(ctx context.Context) int {
	sequential := r.prefs.RenderSequentially()
	fx := &effects{}

	r.mu.Lock()
	r.advanceLocked(sequential, fx)
	n := len(fx.starts)
	if n > 0 {
		fx.changed = true
	}
	r.mu.Unlock()

	if n > 0 {
		logger.Infof(ctx, "started %d queued jobs after a preference change", n)
	}
	r.flush(ctx, fx)
	return n
}

// GetMetrics returns job counts per status and the removal queue metrics
func (r *Registry) GetMetrics() map[string]any {
	r.mu.Lock()
	counts := make(map[string]int, 4)
	for _, h := range r.jobs {
		counts[h.status.String()]++
	}
	observers := len(r.observers)
	r.mu.Unlock()

	return map[string]any{
		"jobs":      counts,
		"observers": observers,
		"removals":  r.removals.GetMetrics(),
	}
}

// Start runs the removal sweeper until Stop or ctx is done
func (r *Registry) Start(ctx context.Context) error {
	r.loopMu.Lock()
	defer r.loopMu.Unlock()

	if r.cancel != nil {
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.sweepLoop(ctx, r.done)
	return nil
}

// Stop ends the sweeper, waiting for it until ctx is done
func (r *Registry) Stop(ctx context.Context) error {
	r.loopMu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.loopMu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) sweepLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	for {
		var (
			timer *time.Timer
			fire  <-chan time.Time
		)
		if wait := r.removals.NextDue(r.now()); wait >= 0 {
			timer = time.NewTimer(wait)
			fire = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-r.wake:
		case <-fire:
			r.SweepRemovals(ctx)
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (r *Registry) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Registry) snapshotLocked(h *Handle) Snapshot {
	at, _ := r.removals.Get(h.id)
	return h.snapshot(at)
}

// firstLocked returns the oldest job with status s
func (r *Registry) firstLocked(s Status) *Handle {
	for _, h := range r.jobs {
		if h.status == s {
			return h
		}
	}
	return nil
}

func (r *Registry) startLocked(h *Handle, fx *effects) {
	h.status = StatusRendering
	fx.starts = append(fx.starts, h)
	fx.emit(event.JobStarted, r.snapshotLocked(h))
}

// advanceLocked starts queued jobs the policy now allows to run
func (r *Registry) advanceLocked(sequential bool, fx *effects) {
	if !sequential {
		for _, h := range r.jobs {
			if h.status == StatusQueued {
				r.startLocked(h, fx)
			}
		}
		return
	}
	if r.firstLocked(StatusRendering) != nil {
		return
	}
	if next := r.firstLocked(StatusQueued); next != nil {
		r.startLocked(next, fx)
	}
}

func (r *Registry) cancelLocked(ctx context.Context, h *Handle, fx *effects) {
	fx.aborts = append(fx.aborts, h.backend)
	h.progress = ProgressUnknown
	h.text = textCancelled
	h.status = StatusCancelled
	h.finishedAt = r.now()
	r.scheduleRemovalLocked(ctx, h, fx)
	fx.emit(event.JobCancelled, r.snapshotLocked(h))
}

func (r *Registry) scheduleRemovalLocked(ctx context.Context, h *Handle, fx *effects) {
	if err := r.removals.Schedule(h.id, r.now().Add(r.delay)); err != nil {
		logger.Errorf(ctx, "cannot schedule removal of job %s: %v", h.id, err)
		return
	}
	fx.wake = true
}

// claimStart reports whether h should still be started, at most once
func (r *Registry) claimStart(h *Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h.status != StatusRendering || h.started || r.index[h.id] != h {
		return false
	}
	h.started = true
	return true
}

// flush performs the side effects of a mutation outside the lock
func (r *Registry) flush(ctx context.Context, fx *effects) {
	for _, b := range fx.aborts {
		r.safeCall(ctx, "abort render", b.AbortRender)
	}

	// events go out before any start so a backend's own updates follow them
	if r.bus != nil {
		for _, e := range fx.events {
			r.bus.PublishSync(e.name, e.data)
		}
	}

	for _, h := range fx.starts {
		if r.claimStart(h) {
			r.safeCall(ctxutil.SetJobID(ctx, h.id), "start render", h.backend.StartRender)
		}
	}

	if fx.changed || fx.showPanel {
		r.mu.Lock()
		observers := slices.Clone(r.observers)
		r.mu.Unlock()

		for _, reg := range observers {
			o := reg.o
			if fx.changed {
				r.safeCall(ctx, "refresh observer", o.OnRegistryChanged)
			}
			if fx.showPanel {
				r.safeCall(ctx, "show jobs panel", o.ShowJobsPanel)
			}
		}
	}

	if fx.wake {
		r.signal()
	}
}

// safeCall keeps a misbehaving backend or observer from taking the host down
func (r *Registry) safeCall(ctx context.Context, what string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf(ctx, "panic during %s: %v", what, rec)
		}
	}()
	fn()
}
