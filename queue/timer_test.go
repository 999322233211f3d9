package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestTimerQueueDueOrder(t *testing.T) {
	tq := NewTimerQueue(0)
	require.NoError(t, tq.Schedule("c", base.Add(3*time.Second)))
	require.NoError(t, tq.Schedule("a", base.Add(1*time.Second)))
	require.NoError(t, tq.Schedule("b", base.Add(2*time.Second)))

	assert.Empty(t, tq.Due(base))
	assert.Equal(t, []string{"a", "b"}, tq.Due(base.Add(2*time.Second)))
	assert.Equal(t, 1, tq.Len())
	assert.Equal(t, time.Second, tq.NextDue(base.Add(2*time.Second)))
	assert.Equal(t, []string{"c"}, tq.Due(base.Add(time.Hour)))
	assert.Equal(t, time.Duration(-1), tq.NextDue(base))
}

func TestTimerQueueReschedule(t *testing.T) {
	tq := NewTimerQueue(0)
	require.NoError(t, tq.Schedule("a", base.Add(time.Second)))
	require.NoError(t, tq.Schedule("b", base.Add(2*time.Second)))
	require.NoError(t, tq.Schedule("a", base.Add(5*time.Second)))

	at, ok := tq.Get("a")
	require.True(t, ok)
	assert.Equal(t, base.Add(5*time.Second), at)

	assert.Equal(t, []string{"b"}, tq.Due(base.Add(2*time.Second)))
	assert.Equal(t, 1, tq.Len())
	m := tq.GetMetrics()
	assert.EqualValues(t, 1, m["reschedule_count"])
	assert.EqualValues(t, 1, m["due_count"])
	assert.EqualValues(t, 1, m["queue_length"])
}

func TestTimerQueueValidation(t *testing.T) {
	tq := NewTimerQueue(1)
	assert.ErrorIs(t, tq.Schedule("", base), ErrInvalidDeadline)
	assert.ErrorIs(t, tq.Schedule("a", time.Time{}), ErrInvalidDeadline)
	require.NoError(t, tq.Schedule("a", base))
	assert.ErrorIs(t, tq.Schedule("b", base), ErrQueueFull)
	// moving an existing deadline does not need capacity
	assert.NoError(t, tq.Schedule("a", base.Add(time.Second)))
	assert.Equal(t, 1, tq.Len())
}
