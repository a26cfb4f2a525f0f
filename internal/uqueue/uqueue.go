// Package uqueue provides the user-space readiness source: an
// append-only, in-process buffer of pre-built Events that is drained
// FIFO on each poll, for injecting readiness without an OS object
// backing it.
package uqueue

import (
	"sync"
	"time"

	"github.com/go-readiness/evpoll/internal/revent"
	"github.com/go-readiness/evpoll/metrics"
)

// Queue is the user-space event source. The zero value is ready to
// use. A Queue is safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	events []revent.Event
}

// New creates an empty user-space queue.
func New() *Queue {
	return &Queue{}
}

// Add appends an event to the back of the queue.
func (q *Queue) Add(e revent.Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()
}

// Len reports the number of buffered events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// MaxTimeout implements revent.Source: a zero duration whenever the
// queue is non-empty, guaranteeing the driver never blocks past
// already-pending user-space events; nil when empty.
func (q *Queue) MaxTimeout() *time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	var zero time.Duration
	return &zero
}

// Poll drains up to sink.CapacityLeft() events, front-first. Drained
// events are removed from the queue even if the sink's capacity cuts
// the drain off mid-way.
func (q *Queue) Poll(sink revent.Sink) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.events)
	if c := sink.CapacityLeft(); c.Finite() && int(c) < n {
		n = int(c)
	}
	for i := 0; i < n; i++ {
		sink.Append(q.events[i])
	}
	if n > 0 {
		metrics.Add(metrics.UserSpaceDrains, uint64(n))
	}
	q.events = q.events[n:]
	return nil
}

// BlockingPoll implements revent.Source. The user-space queue never
// itself blocks; its MaxTimeout contribution is what keeps the driver
// from oversleeping past a pending Add.
func (q *Queue) BlockingPoll(sink revent.Sink, _ *time.Duration) error {
	return q.Poll(sink)
}
