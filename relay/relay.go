// Package relay forwards job lifecycle events to external brokers.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ncobase/rendercore/event"
	"github.com/ncobase/rendercore/jobs"
	"github.com/ncobase/rendercore/logging/logger"
	"github.com/sony/gobreaker"
)

var (
	ErrClosed     = errors.New("relay is closed")
	ErrBufferFull = errors.New("relay buffer is full")
)

// Message is one event ready for a broker
type Message struct {
	Topic string
	Key   []byte // job id, keeps a job's events on one partition
	Event string
	Body  []byte
}

// Publisher delivers messages to one broker
type Publisher interface {
	Name() string
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Config holds relay settings
type Config struct {
	Topic          string        `validate:"required"`
	Buffer         int           `validate:"gte=1"`
	PublishTimeout time.Duration `validate:"gt=0"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Topic:          "rendercore.jobs",
		Buffer:         1024,
		PublishTimeout: 5 * time.Second,
	}
}

type target struct {
	pub Publisher
	cb  *gobreaker.CircuitBreaker
}

// Relay queues bus events and hands them to every publisher in order
type Relay struct {
	cfg     *Config
	targets []*target
	queue   chan event.Data

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup

	sent    atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// New creates a relay over pubs
func New(cfg *Config, pubs ...Publisher) *Relay {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	r := &Relay{
		cfg:   cfg,
		queue: make(chan event.Data, cfg.Buffer),
	}
	for _, p := range pubs {
		if p != nil {
			r.targets = append(r.targets, &target{pub: p, cb: newBreaker(p.Name())})
		}
	}
	return r
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf(context.Background(), "relay %s breaker %s -> %s", name, from, to)
		},
	})
}

// Publishers returns the names of the configured publishers
func (r *Relay) Publishers() []string {
	names := make([]string, 0, len(r.targets))
	for _, t := range r.targets {
		names = append(names, t.pub.Name())
	}
	return names
}

// Attach subscribes the relay to every event on bus
func (r *Relay) Attach(bus *event.Bus) {
	if bus == nil || len(r.targets) == 0 {
		return
	}
	bus.Subscribe(event.Wildcard, func(d event.Data) {
		if err := r.Enqueue(d); err != nil && !errors.Is(err, ErrClosed) {
			logger.Warnf(context.Background(), "relay dropped %s: %v", d.EventType, err)
		}
	})
}

// Enqueue queues d without blocking
func (r *Relay) Enqueue(d event.Data) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrClosed
	}
	select {
	case r.queue <- d:
		return nil
	default:
		r.dropped.Add(1)
		return ErrBufferFull
	}
}

// Start delivers queued events until Close
func (r *Relay) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.closed {
		return
	}
	r.started = true

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for d := range r.queue {
			r.deliver(ctx, d)
		}
	}()
}

// Close stops accepting events, flushes the queue and closes the publishers
func (r *Relay) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	started := r.started
	r.mu.Unlock()

	if started {
		done := make(chan struct{})
		go func() {
			r.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			logger.Warnf(ctx, "relay closed with events still queued")
		}
	}

	var errs []error
	for _, t := range r.targets {
		if err := t.pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.pub.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (r *Relay) deliver(ctx context.Context, d event.Data) {
	msg, err := r.encode(d)
	if err != nil {
		logger.Errorf(ctx, "relay cannot encode %s: %v", d.EventType, err)
		r.failed.Add(1)
		return
	}

	for _, t := range r.targets {
		_, err := t.cb.Execute(func() (any, error) {
			pctx, cancel := context.WithTimeout(ctx, r.cfg.PublishTimeout)
			defer cancel()
			return nil, t.pub.Publish(pctx, msg)
		})
		if err != nil {
			r.failed.Add(1)
			logger.Warnf(ctx, "relay %s failed to publish %s: %v", t.pub.Name(), d.EventType, err)
			continue
		}
		r.sent.Add(1)
	}
}

func (r *Relay) encode(d event.Data) (Message, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Topic: r.cfg.Topic,
		Key:   []byte(jobID(d.Data)),
		Event: d.EventType,
		Body:  body,
	}, nil
}

func jobID(data any) string {
	switch v := data.(type) {
	case jobs.Snapshot:
		return v.ID
	case jobs.Update:
		return v.ID
	}
	return ""
}

// GetMetrics returns delivery counters
func (r *Relay) GetMetrics() map[string]int64 {
	return map[string]int64{
		"sent":    r.sent.Load(),
		"failed":  r.failed.Load(),
		"dropped": r.dropped.Load(),
		"queued":  int64(len(r.queue)),
	}
}
