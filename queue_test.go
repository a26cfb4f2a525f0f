//go:build unix

package evpoll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRegisterDeregisterRoundTrip(t *testing.T) {
	q, err := New()
	require.NoError(t, err)
	defer q.Close()

	sender, receiver, err := NewPipe()
	require.NoError(t, err)
	defer sender.Close()
	defer receiver.Close()

	interests, err := NewInterests(true, false)
	require.NoError(t, err)
	require.NoError(t, q.Register(receiver, Id(1), interests, 0))

	_, err = sender.Write([]byte("x"))
	require.NoError(t, err)

	var events Events
	zero := time.Duration(0)
	require.NoError(t, q.Poll(&events, &zero))
	require.Len(t, events, 1)
	assert.Equal(t, Id(1), events[0].Id)
	assert.True(t, events[0].Readiness.IsReadable())

	require.NoError(t, q.Deregister(receiver))

	_, err = sender.Write([]byte("y"))
	require.NoError(t, err)

	events.Reset()
	require.NoError(t, q.Poll(&events, &zero))
	assert.Empty(t, events)
}

func TestQueueAddUserEventSurfacesOnPoll(t *testing.T) {
	q, err := New()
	require.NoError(t, err)
	defer q.Close()

	q.AddUserEvent(Event{Id: 42, Readiness: Readable})

	var events Events
	zero := time.Duration(0)
	require.NoError(t, q.Poll(&events, &zero))
	require.Len(t, events, 1)
	assert.Equal(t, Id(42), events[0].Id)
}

func TestQueueAddTimeoutSurfacesOnPoll(t *testing.T) {
	q, err := New()
	require.NoError(t, err)
	defer q.Close()

	q.AddTimeout(Id(7), time.Millisecond)

	var events Events
	deadline := time.Now().Add(time.Second)
	for len(events) == 0 {
		events.Reset()
		timeout := 10 * time.Millisecond
		require.NoError(t, q.Poll(&events, &timeout))
		if len(events) == 0 && time.Now().After(deadline) {
			t.Fatal("timed out waiting for timer event")
		}
	}
	require.Len(t, events, 1)
	assert.Equal(t, Id(7), events[0].Id)
	assert.True(t, events[0].Readiness.IsTimer())
}

func TestQueueRemoveDeadlineCancelsPendingTimer(t *testing.T) {
	q, err := New()
	require.NoError(t, err)
	defer q.Close()

	when := time.Now().Add(time.Hour)
	q.AddDeadline(Id(9), when)
	got, ok := q.RemoveDeadline(Id(9))
	require.True(t, ok)
	assert.Equal(t, when, got)

	_, ok = q.RemoveDeadline(Id(9))
	assert.False(t, ok)
}
