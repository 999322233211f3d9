package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitMetric(t *testing.T, p *Pool, key string, want int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return p.GetMetrics()[key] == want
	}, time.Second, 5*time.Millisecond, "metric %s", key)
}

func TestPool_Submit(t *testing.T) {
	p := NewPool(nil)
	p.Start()
	defer p.Stop(context.Background())

	var ran atomic.Int32
	for _, id := range []string{"task1", "task2"} {
		require.NoError(t, p.Submit(Task{ID: id, Run: func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}}))
	}

	waitMetric(t, p, "completed_tasks", 2)
	assert.EqualValues(t, 2, ran.Load())
	assert.True(t, p.IsIdle())
	assert.True(t, p.IsEmpty())
}

func TestPool_SubmitWhenFull(t *testing.T) {
	p := NewPool(&Config{MaxWorkers: 1, QueueSize: 1})
	// not started: nothing drains the queue
	defer p.Stop(context.Background())

	block := func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }
	require.NoError(t, p.Submit(Task{ID: "task1", Run: block}))
	assert.ErrorIs(t, p.Submit(Task{ID: "task2", Run: block}), ErrQueueFull)
}

func TestPool_SubmitDuplicate(t *testing.T) {
	p := NewPool(nil)
	defer p.Stop(context.Background())

	noop := func(ctx context.Context) error { return nil }
	require.NoError(t, p.Submit(Task{ID: "a", Run: noop}))
	assert.ErrorIs(t, p.Submit(Task{ID: "a", Run: noop}), ErrTaskExists)
	assert.ErrorIs(t, p.Submit(Task{ID: "", Run: noop}), ErrInvalidTask)
	assert.ErrorIs(t, p.Submit(Task{ID: "b"}), ErrInvalidTask)
}

func TestPool_CancelRunning(t *testing.T) {
	p := NewPool(&Config{MaxWorkers: 1, QueueSize: 4})
	p.Start()
	defer p.Stop(context.Background())

	started := make(chan struct{})
	require.NoError(t, p.Submit(Task{ID: "render", Run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}))

	<-started
	assert.True(t, p.Cancel("render"))
	waitMetric(t, p, "canceled_tasks", 1)
	assert.False(t, p.Cancel("render"))
}

func TestPool_CancelPending(t *testing.T) {
	p := NewPool(&Config{MaxWorkers: 1, QueueSize: 4})
	p.Start()
	defer p.Stop(context.Background())

	release := make(chan struct{})
	require.NoError(t, p.Submit(Task{ID: "first", Run: func(ctx context.Context) error {
		<-release
		return nil
	}}))

	var ran atomic.Bool
	require.NoError(t, p.Submit(Task{ID: "second", Run: func(ctx context.Context) error {
		ran.Store(true)
		return nil
	}}))

	assert.True(t, p.Cancel("second"))
	close(release)

	waitMetric(t, p, "canceled_tasks", 1)
	waitMetric(t, p, "completed_tasks", 1)
	assert.False(t, ran.Load())
}

func TestPool_ProcessorErrorAndPanic(t *testing.T) {
	p := NewPool(nil)
	p.Start()
	defer p.Stop(context.Background())

	require.NoError(t, p.Submit(Task{ID: "err", Run: func(ctx context.Context) error {
		return errors.New("processing error")
	}}))
	require.NoError(t, p.Submit(Task{ID: "panic", Run: func(ctx context.Context) error {
		panic("processing panic")
	}}))

	waitMetric(t, p, "failed_tasks", 2)
}

func TestPool_StopAbortsAndRejects(t *testing.T) {
	p := NewPool(&Config{MaxWorkers: 1, QueueSize: 1})
	p.Start()

	aborted := make(chan struct{})
	require.NoError(t, p.Submit(Task{ID: "long", Run: func(ctx context.Context) error {
		<-ctx.Done()
		close(aborted)
		return ctx.Err()
	}}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Stop(ctx)

	select {
	case <-aborted:
	case <-time.After(time.Second):
		t.Fatal("running task was not aborted by Stop")
	}
	assert.ErrorIs(t, p.Submit(Task{ID: "late", Run: func(context.Context) error { return nil }}), ErrPoolStopped)
	p.Stop(ctx) // second stop is a no-op
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, (&Config{MaxWorkers: 0, QueueSize: 1}).Validate())
	assert.Error(t, (&Config{MaxWorkers: 1, QueueSize: 0}).Validate())
	assert.Error(t, (&Config{MaxWorkers: 1, QueueSize: 1, TaskTimeout: -1}).Validate())

	_, _, err := ProvidePool(&Config{})
	assert.Error(t, err)

	pool, cleanup, err := ProvidePool(nil)
	require.NoError(t, err)
	assert.NotNil(t, pool)
	cleanup()
}
