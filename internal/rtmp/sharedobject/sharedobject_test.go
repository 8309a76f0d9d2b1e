package sharedobject

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetPropertyQueuesAndAppliesLocally(t *testing.T) {
	so := New("so1", false)
	so.SetProperty("k", float64(3))

	v, ok := so.GetProperty("k")
	require.True(t, ok)
	require.Equal(t, float64(3), v)
	require.Equal(t, Pending, so.FlushState())

	_, events := so.PendingSnapshot()
	require.Len(t, events, 1)
	require.Equal(t, EventRequestChange, events[0].Type)
	require.Equal(t, "k", events[0].Key)
}

func TestUseThenChangeOrdering(t *testing.T) {
	so := New("so1", false)
	so.QueueUse()
	so.SetProperty("k", float64(3))

	_, events := so.PendingSnapshot()
	require.Len(t, events, 2)
	require.Equal(t, EventUse, events[0].Type)
	require.Equal(t, EventRequestChange, events[1].Type)
}

func TestFlushLifecycle(t *testing.T) {
	so := New("so1", false)
	so.SetProperty("k", "v")

	// snapshot does not clear: a failed write retries the same batch
	_, first := so.PendingSnapshot()
	_, second := so.PendingSnapshot()
	require.Equal(t, first, second)
	require.Equal(t, Pending, so.FlushState())

	so.MarkFlushed()
	require.Equal(t, Flushed, so.FlushState())
	_, after := so.PendingSnapshot()
	require.Empty(t, after)
}

func TestApplyEvents(t *testing.T) {
	so := New("so1", false)
	so.ApplyEvents(7, []Event{
		{Type: EventChange, Key: "a", Value: float64(1)},
		{Type: EventChange, Key: "b", Value: "two"},
		{Type: EventUseSuccess},
		{Type: EventStatus, Code: "SharedObject.OK", Level: "status"},
		{Type: EventRemove, Key: "a"},
	})

	require.Equal(t, uint32(7), so.Version())
	require.True(t, so.UseSuccess())
	require.Equal(t, map[string]interface{}{"b": "two"}, so.Data())

	log := so.ProcessedLog()
	require.Len(t, log, 1)
	require.Equal(t, EventStatus, log[0].Type)
	require.Equal(t, "SharedObject.OK", log[0].Code)
}

func TestApplyClear(t *testing.T) {
	so := New("so1", false)
	so.SetProperty("a", float64(1))
	so.ApplyEvents(1, []Event{{Type: EventClear}})
	require.Empty(t, so.Data())
}

func TestApplyUnknownTagContinues(t *testing.T) {
	so := New("so1", false)
	so.ApplyEvents(3, []Event{
		{Type: EventType(42)},
		{Type: EventChange, Key: "k", Value: true},
	})
	require.Equal(t, uint32(3), so.Version())
	v, ok := so.GetProperty("k")
	require.True(t, ok)
	require.Equal(t, true, v)
}

func TestEventApplicationComposes(t *testing.T) {
	// applying stream E then E' must equal applying E++E'
	e1 := []Event{
		{Type: EventChange, Key: "x", Value: float64(1)},
		{Type: EventChange, Key: "y", Value: float64(2)},
	}
	e2 := []Event{
		{Type: EventRemove, Key: "x"},
		{Type: EventChange, Key: "z", Value: float64(3)},
	}

	split := New("so1", false)
	split.ApplyEvents(1, e1)
	split.ApplyEvents(2, e2)

	joined := New("so1", false)
	joined.ApplyEvents(2, append(append([]Event{}, e1...), e2...))

	require.Equal(t, joined.Data(), split.Data())
	require.Equal(t, joined.Version(), split.Version())
}

func TestRemoveProperty(t *testing.T) {
	so := New("so1", false)
	so.SetProperty("k", float64(1))
	so.MarkFlushed()
	so.RemoveProperty("k")

	_, ok := so.GetProperty("k")
	require.False(t, ok)
	_, events := so.PendingSnapshot()
	require.Len(t, events, 1)
	require.Equal(t, EventRequestRemove, events[0].Type)
	require.Equal(t, Pending, so.FlushState())
}
