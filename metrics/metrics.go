package metrics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ncobase/rendercore/event"
	"github.com/ncobase/rendercore/jobs"
	"github.com/ncobase/rendercore/logging/logger"
)

// Config represents metrics configuration
type Config struct {
	Enabled     bool          // Enable metrics collection
	MaxSamples  int           // Maximum samples for histograms
	LogInterval time.Duration // Interval to log a summary, 0 disables it
}

// DefaultConfig returns the default metrics configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled:    true,
		MaxSamples: 1000,
	}
}

// Validate validates the metrics configuration
func (c *Config) Validate() error {
	if c.MaxSamples <= 0 {
		return fmt.Errorf("max samples must be greater than 0, got %d", c.MaxSamples)
	}
	if c.LogInterval < 0 {
		return fmt.Errorf("log interval must not be negative, got %v", c.LogInterval)
	}
	return nil
}

// Collector turns job lifecycle events into counters and histograms
type Collector struct {
	config    *Config
	startTime time.Time

	mu        sync.RWMutex
	counters  map[string]*atomic.Int64
	rendering map[string]struct{}
	sources   map[string]func() any

	renderTime *Histogram // seconds a job reported when it completed
	queueWait  *Histogram // seconds between submit and start

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCollector creates a new metrics collector
func NewCollector(cfg *Config) (*Collector, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid metrics config: %w", err)
	}

	return &Collector{
		config:     cfg,
		startTime:  time.Now(),
		counters:   make(map[string]*atomic.Int64),
		rendering:  make(map[string]struct{}),
		sources:    make(map[string]func() any),
		renderTime: NewHistogram(cfg.MaxSamples),
		queueWait:  NewHistogram(cfg.MaxSamples),
	}, nil
}

// Attach subscribes the collector to every event on bus
func (c *Collector) Attach(bus *event.Bus) {
	if bus == nil || !c.config.Enabled {
		return
	}
	bus.Subscribe(event.Wildcard, c.Handle)
}

// Handle records one event
func (c *Collector) Handle(d event.Data) {
	c.AddCounter(d.EventType, 1)

	snap, ok := d.Data.(jobs.Snapshot)
	if !ok {
		return
	}
	c.AddCounter(WithLabels(d.EventType, Label{Name: "kind", Value: snap.Kind.String()}), 1)

	switch d.EventType {
	case event.JobStarted:
		c.mu.Lock()
		c.rendering[snap.ID] = struct{}{}
		c.mu.Unlock()
		if !snap.SubmittedAt.IsZero() && !d.Time.Before(snap.SubmittedAt) {
			c.queueWait.Add(d.Time.Sub(snap.SubmittedAt).Seconds())
		}
	case event.JobCompleted:
		c.finish(snap.ID)
		c.renderTime.Add(snap.Elapsed)
	case event.JobCancelled, event.JobRemoved:
		c.finish(snap.ID)
	}
}

func (c *Collector) finish(id string) {
	c.mu.Lock()
	delete(c.rendering, id)
	c.mu.Unlock()
}

// Start logs a summary every LogInterval until Stop or ctx is done
func (c *Collector) Start(ctx context.Context) error {
	if !c.config.Enabled || c.config.LogInterval <= 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.logLoop(ctx)
	}()
	return nil
}

// Stop stops metrics collection
func (c *Collector) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *Collector) logLoop(ctx context.Context) {
	ticker := time.NewTicker(c.config.LogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := c.renderTime.GetStats()
			rt := SampleRuntime()
			logger.Infof(ctx, "render jobs: %d submitted, %d completed, %d cancelled, %d rendering, mean render %.1fs, %d goroutines, heap %d KiB",
				c.GetCounter(event.JobSubmitted),
				c.GetCounter(event.JobCompleted),
				c.GetCounter(event.JobCancelled),
				c.Active(),
				stats.Mean,
				rt.Goroutines,
				rt.HeapAlloc/1024,
			)
		}
	}
}

// AddCounter adds delta to the named counter, creating it on first use
func (c *Collector) AddCounter(name string, delta int64) {
	c.mu.RLock()
	counter, ok := c.counters[name]
	c.mu.RUnlock()

	if !ok {
		c.mu.Lock()
		if counter, ok = c.counters[name]; !ok {
			counter = &atomic.Int64{}
			c.counters[name] = counter
		}
		c.mu.Unlock()
	}
	counter.Add(delta)
}

// GetCounter gets a counter value
func (c *Collector) GetCounter(name string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if counter, ok := c.counters[name]; ok {
		return counter.Load()
	}
	return 0
}

// Active returns how many jobs are rendering
func (c *Collector) Active() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rendering)
}

// RenderTime returns the completed render durations
func (c *Collector) RenderTime() HistogramStats { return c.renderTime.GetStats() }

// QueueWait returns the submit to start delays
func (c *Collector) QueueWait() HistogramStats { return c.queueWait.GetStats() }

// AddSource adds the metrics fn returns to GetMetrics under name
func (c *Collector) AddSource(name string, fn func() any) {
	if name == "" || fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[name] = fn
}

// GetMetrics returns all metrics
func (c *Collector) GetMetrics() map[string]any {
	c.mu.RLock()
	counters := make(map[string]int64, len(c.counters))
	for name, counter := range c.counters {
		counters[name] = counter.Load()
	}
	sources := make(map[string]func() any, len(c.sources))
	for name, fn := range c.sources {
		sources[name] = fn
	}
	c.mu.RUnlock()

	m := map[string]any{
		"runtime": map[string]any{
			"start_time": c.startTime.Unix(),
			"uptime":     time.Since(c.startTime).Seconds(),
			"process":    SampleRuntime(),
		},
		"counters":           counters,
		"rendering":          c.Active(),
		"render_seconds":     c.renderTime.GetStats(),
		"queue_wait_seconds": c.queueWait.GetStats(),
	}
	for name, fn := range sources {
		if _, taken := m[name]; !taken {
			m[name] = fn()
		}
	}
	return m
}

// Label represents a metric label
type Label struct {
	Name  string
	Value string
}

// WithLabels appends labels to a metric name, sorted by label name
func WithLabels(name string, labels ...Label) string {
	if len(labels) == 0 {
		return name
	}
	sorted := append([]Label(nil), labels...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('{')
	for i, label := range sorted {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(label.Name)
		sb.WriteByte('=')
		sb.WriteString(label.Value)
	}
	sb.WriteByte('}')
	return sb.String()
}
