package queue

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidDeadline = errors.New("invalid deadline")
	ErrQueueFull       = errors.New("timer queue is full")
)

// TimerMetrics tracks operational metrics for the timer queue
type TimerMetrics struct {
	ScheduleCount   atomic.Int64
	RescheduleCount atomic.Int64
	DueCount        atomic.Int64
	OverdueCount    atomic.Int64
}

// Deadline is a point in time at which the entry with ID becomes due
type Deadline struct {
	ID    string
	At    time.Time
	index int
}

// TimerQueue keeps one deadline per ID ordered by time, earliest first.
// Scheduling an ID that is already queued moves its deadline.
type TimerQueue struct {
	items    timerHeap
	capacity int
	lookup   map[string]*Deadline
	metrics  *TimerMetrics
	mu       sync.RWMutex
}

// timerHeap implements heap.Interface for deadlines ordered by At
type timerHeap []*Deadline

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool { return h[i].At.Before(h[j].At) }

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	d := x.(*Deadline)
	d.index = len(*h)
	*h = append(*h, d)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[0 : n-1]
	return item
}

// NewTimerQueue creates a new timer queue with the specified capacity
//
// Usage:
//
//	tq := NewTimerQueue(0)
//	_ = tq.Schedule("job-1", time.Now().Add(4*time.Second))
//
//	// later, from a sweeper
//	for _, id := range tq.Due(time.Now()) {
//	    remove(id)
//	}
func NewTimerQueue(capacity int) *TimerQueue {
	if capacity <= 0 {
		capacity = 1000 // default capacity
	}

	return &TimerQueue{
		items:    timerHeap{},
		capacity: capacity,
		lookup:   make(map[string]*Deadline),
		metrics:  &TimerMetrics{},
	}
}

// Schedule sets the deadline for id, replacing any earlier one
func (tq *TimerQueue) Schedule(id string, at time.Time) error {
	if id == "" || at.IsZero() {
		return ErrInvalidDeadline
	}

	tq.mu.Lock()
	defer tq.mu.Unlock()

	if d, exists := tq.lookup[id]; exists {
		d.At = at
		heap.Fix(&tq.items, d.index)
		tq.metrics.RescheduleCount.Add(1)
		return nil
	}

	if len(tq.items) >= tq.capacity {
		return ErrQueueFull
	}

	d := &Deadline{ID: id, At: at}
	heap.Push(&tq.items, d)
	tq.lookup[id] = d
	tq.metrics.ScheduleCount.Add(1)
	return nil
}

// Due pops every deadline at or before now, earliest first
func (tq *TimerQueue) Due(now time.Time) []string {
	tq.mu.Lock()
	defer tq.mu.Unlock()

	var ids []string
	for len(tq.items) > 0 && !tq.items[0].At.After(now) {
		d := heap.Pop(&tq.items).(*Deadline)
		delete(tq.lookup, d.ID)
		if now.Sub(d.At) > time.Second {
			tq.metrics.OverdueCount.Add(1)
		}
		ids = append(ids, d.ID)
	}
	tq.metrics.DueCount.Add(int64(len(ids)))
	return ids
}

// Get returns the deadline for id without removing it
func (tq *TimerQueue) Get(id string) (time.Time, bool) {
	tq.mu.RLock()
	defer tq.mu.RUnlock()

	d, ok := tq.lookup[id]
	if !ok {
		return time.Time{}, false
	}
	return d.At, true
}

// NextDue returns the duration from now until the earliest deadline.
// Returns -1 if queue is empty and 0 if something is already due.
func (tq *TimerQueue) NextDue(now time.Time) time.Duration {
	tq.mu.RLock()
	defer tq.mu.RUnlock()

	if len(tq.items) == 0 {
		return time.Duration(-1)
	}

	next := tq.items[0].At
	if !next.After(now) {
		return 0
	}
	return next.Sub(now)
}

// Len returns the current number of deadlines in queue
func (tq *TimerQueue) Len() int {
	tq.mu.RLock()
	defer tq.mu.RUnlock()
	return len(tq.items)
}

// GetMetrics returns current queue metrics
func (tq *TimerQueue) GetMetrics() map[string]int64 {
	return map[string]int64{
		"schedule_count":   tq.metrics.ScheduleCount.Load(),
		"reschedule_count": tq.metrics.RescheduleCount.Load(),
		"due_count":        tq.metrics.DueCount.Load(),
		"overdue_count":    tq.metrics.OverdueCount.Load(),
		"queue_length":     int64(tq.Len()),
	}
}
