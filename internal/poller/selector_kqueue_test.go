// Tencent is pleased to support the open source community by making tnet available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tnet source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License can be found in the LICENSE file.

//go:build freebsd || dragonfly || darwin
// +build freebsd dragonfly darwin

package poller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/go-readiness/evpoll/internal/revent"
)

func newTestInterests(t *testing.T, readable, writable bool) revent.Interests {
	t.Helper()
	i, err := revent.NewInterests(readable, writable)
	require.NoError(t, err)
	return i
}

func newPipe(t *testing.T) (r, w int) {
	t.Helper()
	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestKqueueSelectorReportsWritableImmediately(t *testing.T) {
	sel, err := New()
	require.NoError(t, err)
	defer sel.Close()

	_, w := newPipe(t)
	require.NoError(t, sel.Register(w, revent.Id(1), newTestInterests(t, false, true), 0))

	sink := &sliceSink{limit: revent.Growable}
	zero := time.Duration(0)
	require.NoError(t, sel.Select(sink, &zero))
	require.Len(t, sink.events, 1)
	assert.Equal(t, revent.Id(1), sink.events[0].Id)
	assert.True(t, sink.events[0].Readiness.IsWritable())
}

func TestKqueueSelectorReportsReadableAfterWrite(t *testing.T) {
	sel, err := New()
	require.NoError(t, err)
	defer sel.Close()

	r, w := newPipe(t)
	require.NoError(t, sel.Register(r, revent.Id(2), newTestInterests(t, true, false), 0))

	sink := &sliceSink{limit: revent.Growable}
	zero := time.Duration(0)
	require.NoError(t, sel.Select(sink, &zero))
	assert.Empty(t, sink.events)

	_, err = unix.Write(w, []byte("x"))
	require.NoError(t, err)

	require.NoError(t, sel.Select(sink, &zero))
	require.Len(t, sink.events, 1)
	assert.Equal(t, revent.Id(2), sink.events[0].Id)
	assert.True(t, sink.events[0].Readiness.IsReadable())
}

func TestKqueueSelectorDeregisterStopsNotifications(t *testing.T) {
	sel, err := New()
	require.NoError(t, err)
	defer sel.Close()

	_, w := newPipe(t)
	require.NoError(t, sel.Register(w, revent.Id(3), newTestInterests(t, false, true), 0))
	require.NoError(t, sel.Deregister(w))

	sink := &sliceSink{limit: revent.Growable}
	zero := time.Duration(0)
	require.NoError(t, sel.Select(sink, &zero))
	assert.Empty(t, sink.events)
}

func TestKqueueSelectorEdgeTriggeredFiresOncePerWrite(t *testing.T) {
	sel, err := New()
	require.NoError(t, err)
	defer sel.Close()

	r, w := newPipe(t)
	require.NoError(t, sel.Register(r, revent.Id(5), newTestInterests(t, true, false), revent.Edge))

	_, err = unix.Write(w, []byte("x"))
	require.NoError(t, err)

	sink := &sliceSink{limit: revent.Growable}
	zero := time.Duration(0)
	require.NoError(t, sel.Select(sink, &zero))
	require.Len(t, sink.events, 1, "edge-triggered registration must report the write")
	assert.Equal(t, revent.Id(5), sink.events[0].Id)

	sink.events = nil
	require.NoError(t, sel.Select(sink, &zero))
	assert.Empty(t, sink.events, "edge-triggered registration must not re-report without a new edge, even though the pipe is still unread")

	_, err = unix.Write(w, []byte("y"))
	require.NoError(t, err)

	sink.events = nil
	require.NoError(t, sel.Select(sink, &zero))
	require.Len(t, sink.events, 1, "a second write must produce a new edge and be reported again")
}

func TestKqueueSelectorOneshotDisarmsAfterFirstEvent(t *testing.T) {
	sel, err := New()
	require.NoError(t, err)
	defer sel.Close()

	r, w := newPipe(t)
	require.NoError(t, sel.Register(r, revent.Id(6), newTestInterests(t, true, false), revent.Oneshot))

	_, err = unix.Write(w, []byte("x"))
	require.NoError(t, err)

	sink := &sliceSink{limit: revent.Growable}
	zero := time.Duration(0)
	require.NoError(t, sel.Select(sink, &zero))
	require.Len(t, sink.events, 1)
	assert.Equal(t, revent.Id(6), sink.events[0].Id)

	_, err = unix.Write(w, []byte("y"))
	require.NoError(t, err)

	sink.events = nil
	require.NoError(t, sel.Select(sink, &zero))
	assert.Empty(t, sink.events, "oneshot registration must disarm itself after its first event")

	require.NoError(t, sel.Register(r, revent.Id(6), newTestInterests(t, true, false), revent.Oneshot))

	sink.events = nil
	require.NoError(t, sel.Select(sink, &zero))
	require.Len(t, sink.events, 1, "rearming via Register must let the pending data fire again")
	assert.Equal(t, revent.Id(6), sink.events[0].Id)
}

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
