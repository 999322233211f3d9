package jobs

import (
	"time"

	"github.com/ncobase/rendercore/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultRemovalDelay is how long finished rows stay visible
const DefaultRemovalDelay = 4000 * time.Millisecond

const tracerName = "github.com/ncobase/rendercore/jobs"

// Option configures a Registry
type Option func(*Registry)

// WithRemovalDelay sets how long completed and cancelled jobs stay listed
func WithRemovalDelay(d time.Duration) Option {
	return func(r *Registry) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithEventBus publishes lifecycle events on bus
func WithEventBus(bus *event.Bus) Option {
	return func(r *Registry) {
		r.bus = bus
	}
}

// WithObserver registers an observer at construction
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.addObserverLocked(o)
		}
	}
}

// WithTracerProvider sets where registry spans go, the global provider by default
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Registry) {
		if tp != nil {
			r.tracer = tp.Tracer(tracerName)
		}
	}
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
