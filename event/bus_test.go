package event

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SubscribeAndPublish(t *testing.T) {
	bus := NewBus("test")
	var received atomic.Int32

	bus.Subscribe(JobSubmitted, func(data Data) {
		if msg, ok := data.Data.(string); ok && msg == "hello" {
			received.Add(1)
		}
	})

	bus.Publish(JobSubmitted, "hello")

	require.Eventually(t, func() bool { return received.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestBus_PublishSyncOrder(t *testing.T) {
	bus := NewBus("registry")
	var got []string

	bus.Subscribe(JobStarted, func(data Data) { got = append(got, "named:"+data.EventType) })
	bus.Subscribe(Wildcard, func(data Data) { got = append(got, "all:"+data.EventType) })

	bus.PublishSync(JobStarted, nil)
	bus.PublishSync(JobRemoved, nil)

	assert.Equal(t, []string{"named:job.started", "all:job.started", "all:job.removed"}, got)
}

func TestBus_EnvelopeFields(t *testing.T) {
	bus := NewBus("registry")
	var got Data
	bus.Subscribe(JobCompleted, func(data Data) { got = data })

	bus.PublishSync(JobCompleted, 42)

	assert.Equal(t, "registry", got.Source)
	assert.Equal(t, JobCompleted, got.EventType)
	assert.Equal(t, 42, got.Data)
	assert.False(t, got.Time.IsZero())
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := NewBus("test")
	bus.Publish("nonexistent_event", nil)
	bus.PublishSync("nonexistent_event", nil)
	assert.EqualValues(t, 0, bus.GetMetrics()["published_events"])
}

func TestBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewBus("test")
	var after atomic.Bool

	bus.Subscribe(JobUpdated, func(Data) { panic("boom") })
	bus.Subscribe(JobUpdated, func(Data) { after.Store(true) })

	assert.NotPanics(t, func() { bus.PublishSync(JobUpdated, nil) })
	assert.True(t, after.Load())
	assert.EqualValues(t, 1, bus.GetMetrics()["failed_events"])
	assert.EqualValues(t, 1, bus.GetMetrics()["delivered_events"])
}

func TestBus_ConcurrentAccess(t *testing.T) {
	bus := NewBus("test")
	var count atomic.Int32
	bus.Subscribe(JobUpdated, func(Data) { count.Add(1) })

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.PublishSync(JobUpdated, nil)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 100, count.Load())
}
