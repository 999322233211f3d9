package event

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ncobase/rendercore/logging/logger"
)

// Wildcard subscribes a handler to every event name
const Wildcard = "*"

// Bus is an in-process event bus for job lifecycle events.
// Publish delivers asynchronously, PublishSync in subscription order on the
// caller's goroutine.
type Bus struct {
	source      string
	subscribers map[string][]Handler
	mu          sync.RWMutex
	metrics     struct {
		published        atomic.Int64
		delivered        atomic.Int64
		failed           atomic.Int64
		lastEventTime    atomic.Value
		activeHandlers   atomic.Int32
		totalSubscribers atomic.Int32
	}
}

// NewBus creates a new Bus stamping events with source
func NewBus(source string) *Bus {
	eb := &Bus{
		source:      source,
		subscribers: make(map[string][]Handler),
	}
	eb.metrics.lastEventTime.Store(time.Time{})
	return eb
}

// GetMetrics returns event bus metrics
func (eb *Bus) GetMetrics() map[string]any {
	lastEventTime := eb.metrics.lastEventTime.Load().(time.Time)
	return map[string]any{
		"published_events": eb.metrics.published.Load(),
		"delivered_events": eb.metrics.delivered.Load(),
		"failed_events":    eb.metrics.failed.Load(),
		"last_event_time":  lastEventTime,
		"active_handlers":  eb.metrics.activeHandlers.Load(),
		"total":            eb.metrics.totalSubscribers.Load(),
		"failure_rate":     eb.calculateFailureRate(),
	}
}

// calculateFailureRate calculates the failure rate percentage
func (eb *Bus) calculateFailureRate() float64 {
	total := eb.metrics.delivered.Load() + eb.metrics.failed.Load()
	if total == 0 {
		return 0.0
	}

	failed := eb.metrics.failed.Load()
	return (float64(failed) / float64(total)) * 100.0
}

// Subscribe adds a subscriber for a specific event, or every event with Wildcard
func (eb *Bus) Subscribe(eventName string, handler Handler) {
	if handler == nil {
		return
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()

	wrappedHandler := func(data Data) {
		eb.metrics.activeHandlers.Add(1)
		defer eb.metrics.activeHandlers.Add(-1)

		defer func() {
			if r := recover(); r != nil {
				eb.metrics.failed.Add(1)
				logger.Errorf(context.Background(), "panic in %s event handler: %v", data.EventType, r)
			}
		}()

		handler(data)
		eb.metrics.delivered.Add(1)
	}

	eb.subscribers[eventName] = append(eb.subscribers[eventName], wrappedHandler)
	eb.metrics.totalSubscribers.Add(1)
}

// handlersFor returns the handlers for eventName followed by wildcard handlers
func (eb *Bus) handlersFor(eventName string) []Handler {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	named := eb.subscribers[eventName]
	all := eb.subscribers[Wildcard]
	if len(named)+len(all) == 0 {
		return nil
	}
	handlers := make([]Handler, 0, len(named)+len(all))
	handlers = append(handlers, named...)
	return append(handlers, all...)
}

func (eb *Bus) envelope(eventName string, data any) Data {
	now := time.Now()
	eb.metrics.published.Add(1)
	eb.metrics.lastEventTime.Store(now)
	return Data{
		Time:      now,
		Source:    eb.source,
		EventType: eventName,
		Data:      data,
	}
}

// Publish sends an event to all subscribers, each on its own goroutine
func (eb *Bus) Publish(eventName string, data any) {
	handlers := eb.handlersFor(eventName)
	if len(handlers) == 0 {
		return
	}

	eventData := eb.envelope(eventName, data)
	for _, handler := range handlers {
		go handler(eventData)
	}
}

// PublishSync sends an event to all subscribers in order and returns once
// every handler has run
func (eb *Bus) PublishSync(eventName string, data any) {
	handlers := eb.handlersFor(eventName)
	if len(handlers) == 0 {
		return
	}

	eventData := eb.envelope(eventName, data)
	for _, handler := range handlers {
		handler(eventData)
	}
}
