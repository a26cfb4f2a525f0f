package timerheap_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-readiness/evpoll/internal/revent"
	"github.com/go-readiness/evpoll/internal/timerheap"
)

type sliceSink struct {
	events []revent.Event
	limit  revent.Capacity
}

func (s *sliceSink) CapacityLeft() revent.Capacity {
	if !s.limit.Finite() {
		return revent.Growable
	}
	return s.limit - revent.Capacity(len(s.events))
}

func (s *sliceSink) Append(e revent.Event) { s.events = append(s.events, e) }

func TestPastDeadlineFiresImmediately(t *testing.T) {
	h := timerheap.New()
	h.AddDeadline(1, time.Now().Add(-time.Second))
	sink := &sliceSink{limit: revent.Growable}
	require.NoError(t, h.Poll(sink))
	require.Len(t, sink.events, 1)
	assert.Equal(t, revent.Id(1), sink.events[0].Id)
	assert.True(t, sink.events[0].Readiness.IsTimer())
}

func TestFutureDeadlineDoesNotFireYet(t *testing.T) {
	h := timerheap.New()
	h.AddDeadline(1, time.Now().Add(time.Hour))
	sink := &sliceSink{limit: revent.Growable}
	require.NoError(t, h.Poll(sink))
	assert.Empty(t, sink.events)
	mt := h.MaxTimeout()
	require.NotNil(t, mt)
	assert.Greater(t, *mt, time.Duration(0))
}

func TestMultiDeadlineOrdering(t *testing.T) {
	h := timerheap.New()
	base := time.Now()
	t1, t2, t3 := base.Add(-3*time.Millisecond), base.Add(-2*time.Millisecond), base.Add(-1*time.Millisecond)
	// Added out of order: T3, T1, T2.
	h.AddDeadline(30, t3)
	h.AddDeadline(10, t1)
	h.AddDeadline(20, t2)

	sink := &sliceSink{limit: revent.Growable}
	require.NoError(t, h.Poll(sink))
	require.Len(t, sink.events, 3)
	assert.Equal(t, []revent.Id{10, 20, 30}, []revent.Id{sink.events[0].Id, sink.events[1].Id, sink.events[2].Id})
}

func TestEqualDeadlineTiesBreakByAscendingId(t *testing.T) {
	h := timerheap.New()
	when := time.Now().Add(-time.Millisecond)
	h.AddDeadline(5, when)
	h.AddDeadline(3, when)
	h.AddDeadline(4, when)

	sink := &sliceSink{limit: revent.Growable}
	require.NoError(t, h.Poll(sink))
	require.Len(t, sink.events, 3)
	assert.Equal(t, []revent.Id{3, 4, 5}, []revent.Id{sink.events[0].Id, sink.events[1].Id, sink.events[2].Id})
}

func TestRemoveDeadline(t *testing.T) {
	h := timerheap.New()
	h.AddDeadline(1, time.Now().Add(time.Hour))
	when, ok := h.RemoveDeadline(1)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), when, time.Second)

	_, ok = h.RemoveDeadline(1)
	assert.False(t, ok)
}

func TestPollStopsAtSinkCapacity(t *testing.T) {
	h := timerheap.New()
	when := time.Now().Add(-time.Millisecond)
	h.AddDeadline(1, when)
	h.AddDeadline(2, when)
	h.AddDeadline(3, when)

	sink := &sliceSink{limit: 2}
	require.NoError(t, h.Poll(sink))
	assert.Len(t, sink.events, 2)
	assert.Equal(t, 1, h.Len())
}

func TestMaxTimeoutEmptyIsNil(t *testing.T) {
	h := timerheap.New()
	assert.Nil(t, h.MaxTimeout())
}

func TestMaxTimeoutDueIsZero(t *testing.T) {
	h := timerheap.New()
	h.AddDeadline(1, time.Now().Add(-time.Hour))
	mt := h.MaxTimeout()
	require.NotNil(t, mt)
	assert.Equal(t, time.Duration(0), *mt)
}
