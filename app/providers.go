package app

import (
	"context"
	"time"

	"github.com/ncobase/rendercore/config"
	"github.com/ncobase/rendercore/event"
	"github.com/ncobase/rendercore/jobs"
	"github.com/ncobase/rendercore/logging/logger"
	"github.com/ncobase/rendercore/logging/observes"
	"github.com/ncobase/rendercore/panel"
	"github.com/ncobase/rendercore/prefs"
)

// EventSource names the bus in every event envelope
const EventSource = "rendercore"

// Tracing reports whether spans are exported
type Tracing struct {
	Enabled bool
}

// ProvideEventBus creates the bus lifecycle events are published on
func ProvideEventBus() *event.Bus {
	return event.NewBus(EventSource)
}

// ProvideTracing installs the OTLP tracer provider when an endpoint is
// configured. The cleanup function flushes pending spans.
func ProvideTracing(obs *config.Observes) (*Tracing, func(), error) {
	if obs == nil || !obs.Tracer.Enabled() {
		return &Tracing{}, func() {}, nil
	}

	t := obs.Tracer
	shutdown, err := observes.NewTracer(context.Background(), &observes.TracerOption{
		URL:                t.Endpoint,
		Name:               t.ServiceName,
		Version:            t.ServiceVersion,
		Environment:        t.Environment,
		SamplingRate:       t.SamplingRate,
		BatchTimeout:       t.BatchTimeout,
		ExportTimeout:      t.ExportTimeout,
		MaxExportBatchSize: t.MaxExportBatchSize,
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Errorf(ctx, "tracer shutdown: %v", err)
		}
	}
	return &Tracing{Enabled: true}, cleanup, nil
}

// ProvidePanel creates the jobs panel and subscribes it to the registry.
// Without a store the preference checkboxes are disabled.
func ProvidePanel(reg *jobs.Registry, store *prefs.Store) *panel.Panel {
	var toggles panel.Toggles
	if store != nil {
		toggles = store
	}
	p := panel.New(reg, toggles)
	reg.AddObserver(p)
	return p
}
