package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrQueueFull   = errors.New("task queue is full")
	ErrPoolStopped = errors.New("worker pool is stopped")
	ErrTaskExists  = errors.New("task already submitted")
	ErrInvalidTask = errors.New("invalid task")
)

// Config represents pool configuration
type Config struct {
	MaxWorkers  int           `validate:"gte=1"` // maximum number of concurrent tasks
	QueueSize   int           `validate:"gte=1"` // tasks waiting for a worker
	TaskTimeout time.Duration `validate:"gte=0"` // 0 disables the per task timeout
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxWorkers:  4,
		QueueSize:   256,
		TaskTimeout: 0, // renders may legitimately take hours
	}
}

// Validate validates configuration
func (cfg *Config) Validate() error {
	if cfg.MaxWorkers < 1 {
		return errors.New("max workers must be greater than 0")
	}
	if cfg.QueueSize < 1 {
		return errors.New("queue size must be greater than 0")
	}
	if cfg.TaskTimeout < 0 {
		return errors.New("task timeout must be greater than or equal to 0")
	}
	return nil
}

// Task is a unit of work identified by ID. Run must return once ctx is done.
type Task struct {
	ID  string
	Run func(ctx context.Context) error
}

// Metrics tracks pool's operational metrics
type Metrics struct {
	ActiveWorkers  atomic.Int64
	PendingTasks   atomic.Int64
	CompletedTasks atomic.Int64
	FailedTasks    atomic.Int64
	CanceledTasks  atomic.Int64
	ProcessingTime atomic.Int64 // nanoseconds
}

type entry struct {
	task   Task
	ctx    context.Context
	cancel context.CancelFunc
}

// Pool represents a worker pool running cancellable tasks
type Pool struct {
	// Configuration
	maxWorkers  int
	queueSize   int
	taskTimeout time.Duration

	// Runtime components
	tasks   chan *entry
	entries map[string]*entry
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool

	// Metrics
	metrics *Metrics
}

// NewPool creates a new worker pool
//
// Usage:
//
//	pool := worker.NewPool(worker.DefaultConfig())
//	pool.Start()
//	defer pool.Stop(context.Background())
//
//	err := pool.Submit(worker.Task{
//	    ID: jobID,
//	    Run: func(ctx context.Context) error {
//	        return exec.CommandContext(ctx, "melt", args...).Run()
//	    },
//	})
//
//	// abort a queued or running task
//	pool.Cancel(jobID)
func NewPool(cfg *Config) *Pool {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		maxWorkers:  cfg.MaxWorkers,
		queueSize:   cfg.QueueSize,
		taskTimeout: cfg.TaskTimeout,
		tasks:       make(chan *entry, cfg.QueueSize),
		entries:     make(map[string]*entry),
		ctx:         ctx,
		cancel:      cancel,
		metrics:     &Metrics{},
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop cancels every task and waits for the workers until ctx is done
func (p *Pool) Stop(ctx context.Context) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.cancel()
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Submit queues a task without blocking
func (p *Pool) Submit(task Task) error {
	if task.ID == "" || task.Run == nil {
		return ErrInvalidTask
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrPoolStopped
	}
	if _, exists := p.entries[task.ID]; exists {
		return fmt.Errorf("%w: %s", ErrTaskExists, task.ID)
	}

	ctx, cancel := context.WithCancel(p.ctx)
	e := &entry{task: task, ctx: ctx, cancel: cancel}

	select {
	case p.tasks <- e:
		p.entries[task.ID] = e
		p.metrics.PendingTasks.Add(1)
		return nil
	default:
		cancel()
		return ErrQueueFull
	}
}

// Cancel cancels a pending or running task, reporting whether it was known
func (p *Pool) Cancel(id string) bool {
	p.mu.RLock()
	e, ok := p.entries[id]
	p.mu.RUnlock()

	if !ok {
		return false
	}
	e.cancel()
	return true
}

// worker represents a worker goroutine
func (p *Pool) worker() {
	defer p.wg.Done()

	for e := range p.tasks {
		p.processTask(e)
	}
}

// processTask processes a single task
func (p *Pool) processTask(e *entry) {
	p.metrics.PendingTasks.Add(-1)
	defer p.release(e)

	if e.ctx.Err() != nil {
		p.metrics.CanceledTasks.Add(1)
		return
	}

	start := time.Now()
	p.metrics.ActiveWorkers.Add(1)

	defer func() {
		p.metrics.ActiveWorkers.Add(-1)
		p.metrics.ProcessingTime.Add(time.Since(start).Nanoseconds())

		if r := recover(); r != nil {
			p.metrics.FailedTasks.Add(1)
		}
	}()

	ctx := e.ctx
	if p.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.taskTimeout)
		defer cancel()
	}

	err := e.task.Run(ctx)
	switch {
	case err == nil:
		p.metrics.CompletedTasks.Add(1)
	case e.ctx.Err() != nil:
		p.metrics.CanceledTasks.Add(1)
	default:
		p.metrics.FailedTasks.Add(1)
	}
}

func (p *Pool) release(e *entry) {
	e.cancel()
	p.mu.Lock()
	if p.entries[e.task.ID] == e {
		delete(p.entries, e.task.ID)
	}
	p.mu.Unlock()
}

// GetMetrics returns the current metrics
func (p *Pool) GetMetrics() map[string]int64 {
	return map[string]int64{
		"active_workers":  p.metrics.ActiveWorkers.Load(),
		"pending_tasks":   p.metrics.PendingTasks.Load(),
		"completed_tasks": p.metrics.CompletedTasks.Load(),
		"failed_tasks":    p.metrics.FailedTasks.Load(),
		"canceled_tasks":  p.metrics.CanceledTasks.Load(),
		"processing_time": p.metrics.ProcessingTime.Load(),
	}
}

// IsIdle returns whether no task is running
func (p *Pool) IsIdle() bool {
	return p.metrics.ActiveWorkers.Load() == 0
}

// IsEmpty returns whether no task is waiting
func (p *Pool) IsEmpty() bool {
	return p.metrics.PendingTasks.Load() == 0
}
