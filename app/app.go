// Package app assembles the render service: configuration, logging, the job
// registry and everything that hangs off its event bus.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ncobase/rendercore/backend"
	"github.com/ncobase/rendercore/concurrency/worker"
	"github.com/ncobase/rendercore/config"
	"github.com/ncobase/rendercore/event"
	"github.com/ncobase/rendercore/jobs"
	"github.com/ncobase/rendercore/logging/logger"
	"github.com/ncobase/rendercore/metrics"
	"github.com/ncobase/rendercore/panel"
	"github.com/ncobase/rendercore/prefs"
	"github.com/ncobase/rendercore/relay"
)

// App holds the wired components
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Tracing  *Tracing
	Bus      *event.Bus
	Prefs    *prefs.Store
	Registry *jobs.Registry
	Pool     *worker.Pool
	Factory  *backend.Factory
	Metrics  *metrics.Collector
	Relay    *relay.Relay
	Panel    *panel.Panel
}

// NewApp creates the application
func NewApp(
	cfg *config.Config,
	log *logger.Logger,
	tracing *Tracing,
	bus *event.Bus,
	store *prefs.Store,
	reg *jobs.Registry,
	pool *worker.Pool,
	factory *backend.Factory,
	collector *metrics.Collector,
	rl *relay.Relay,
	pnl *panel.Panel,
) *App {
	a := &App{
		Config:   cfg,
		Logger:   log,
		Tracing:  tracing,
		Bus:      bus,
		Prefs:    store,
		Registry: reg,
		Pool:     pool,
		Factory:  factory,
		Metrics:  collector,
		Relay:    rl,
		Panel:    pnl,
	}
	a.watchPrefs()
	a.registerMetrics()
	return a
}

// watchPrefs announces preference changes and lets queued jobs start once
// sequential rendering is switched off
func (a *App) watchPrefs() {
	if a.Prefs == nil || a.Registry == nil {
		return
	}
	a.Prefs.OnChange(func(p prefs.Prefs) {
		if a.Bus != nil {
			a.Bus.Publish(event.PrefsChanged, p)
		}
		a.Registry.Reschedule(context.Background())
	})
}

func (a *App) registerMetrics() {
	if a.Metrics == nil {
		return
	}
	if a.Registry != nil {
		a.Metrics.AddSource("registry", func() any { return a.Registry.GetMetrics() })
	}
	if a.Pool != nil {
		a.Metrics.AddSource("pool", func() any { return a.Pool.GetMetrics() })
	}
	if a.Bus != nil {
		a.Metrics.AddSource("bus", func() any { return a.Bus.GetMetrics() })
	}
	if a.Relay != nil {
		a.Metrics.AddSource("relay", func() any { return a.Relay.GetMetrics() })
	}
}

// Submit builds the backend for spec and adds it to the registry
func (a *App) Submit(ctx context.Context, spec backend.JobSpec) (string, error) {
	p, err := a.Factory.New(spec)
	if err != nil {
		return "", err
	}
	if err := a.Registry.Submit(ctx, p.Handle()); err != nil {
		return "", err
	}
	return p.ID(), nil
}

// SubmitAll submits every spec in order. A bad entry is reported and skipped.
func (a *App) SubmitAll(ctx context.Context, specs []backend.JobSpec) ([]string, error) {
	var (
		ids  []string
		errs []error
	)
	for i, s := range specs {
		id, err := a.Submit(ctx, s)
		if err != nil {
			errs = append(errs, fmt.Errorf("job %d: %w", i+1, err))
			continue
		}
		ids = append(ids, id)
	}
	return ids, errors.Join(errs...)
}

// Wait blocks until the registry is empty or ctx is done
func (a *App) Wait(ctx context.Context) error {
	changed := make(chan struct{}, 1)
	remove := a.Registry.AddObserver(jobs.ObserverFuncs{Changed: func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}})
	defer remove()

	for a.Registry.Len() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
	return nil
}

// Shutdown cancels whatever still renders and waits for the pool to drain.
// It returns how many jobs were cancelled.
func (a *App) Shutdown(ctx context.Context) int {
	n := a.Registry.CancelAll(ctx)
	if n > 0 {
		logger.Infof(ctx, "cancelled %d render(s) on shutdown", n)
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for !a.Pool.IsIdle() || !a.Pool.IsEmpty() {
		select {
		case <-ctx.Done():
			logger.Warnf(ctx, "shutdown: %d render(s) still running", a.Pool.GetMetrics()["active_workers"])
			return n
		case <-ticker.C:
		}
	}
	return n
}
