package evpoll

import (
	"time"

	"github.com/go-readiness/evpoll/internal/poller"
	"github.com/go-readiness/evpoll/internal/timerheap"
	"github.com/go-readiness/evpoll/internal/uqueue"
)

// Queue aggregates readiness events from the OS selector, a deadline
// timer heap, and a user-space injection queue behind one Poll call.
// It is the central type applications construct and register Evented
// handles with.
type Queue struct {
	selector poller.Selector
	timers   *timerheap.Heap
	uspace   *uqueue.Queue
}

// New creates a Queue backed by the native OS selector.
func New() (*Queue, error) {
	sel, err := poller.New()
	if err != nil {
		return nil, err
	}
	return &Queue{
		selector: sel,
		timers:   timerheap.New(),
		uspace:   uqueue.New(),
	}, nil
}

// Register starts monitoring e for interests, tagging any event it
// produces with id.
func (q *Queue) Register(e Evented, id Id, interests Interests, opt RegisterOption) error {
	return e.register(q, id, interests, opt)
}

// Reregister changes the monitored interests for e.
func (q *Queue) Reregister(e Evented, id Id, interests Interests, opt RegisterOption) error {
	return e.reregister(q, id, interests, opt)
}

// Deregister stops monitoring e entirely.
func (q *Queue) Deregister(e Evented) error {
	return e.deregister(q)
}

// AddDeadline schedules a Timer event for id at the given instant.
func (q *Queue) AddDeadline(id Id, when time.Time) {
	q.timers.AddDeadline(id, when)
}

// AddTimeout is a convenience for AddDeadline(id, time.Now().Add(d)).
func (q *Queue) AddTimeout(id Id, d time.Duration) {
	q.timers.AddTimeout(id, d)
}

// RemoveDeadline cancels one pending deadline for id.
func (q *Queue) RemoveDeadline(id Id) (time.Time, bool) {
	return q.timers.RemoveDeadline(id)
}

// AddUserEvent appends e to the user-space queue; it will be emitted
// by the next Poll call that drains the user-space source.
func (q *Queue) AddUserEvent(e Event) {
	q.uspace.Add(e)
}

// Poll waits up to timeout (nil blocks forever, a zero duration never
// blocks) and drains every source — the OS selector, the timer heap,
// and the user-space queue, in that order — into sink.
func (q *Queue) Poll(sink Sink, timeout *time.Duration) error {
	return Poll([]Source{osSource{q.selector}, q.timers, q.uspace}, sink, timeout)
}

// Close releases the underlying OS selector.
func (q *Queue) Close() error {
	return q.selector.Close()
}

// osSource adapts a poller.Selector to the Source contract: the OS
// queue has no timeout of its own to contribute, it only honors the
// one Poll computes from every source's horizon.
type osSource struct {
	selector poller.Selector
}

func (s osSource) MaxTimeout() *time.Duration { return nil }

func (s osSource) Poll(sink Sink) error {
	zero := time.Duration(0)
	return s.selector.Select(sink, &zero)
}

func (s osSource) BlockingPoll(sink Sink, timeout *time.Duration) error {
	return s.selector.Select(sink, timeout)
}
