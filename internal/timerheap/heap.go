// Package timerheap provides the deadline-driven timer source: a
// binary min-heap keyed by (deadline, id) that emits TIMER events when
// deadlines expire.
//
// The heap ordering is container/heap driven, the idiomatic Go shape
// used for the same min-heap-of-timers problem elsewhere in this
// corpus (an event loop's timerHeap implementing heap.Interface).
// remove_deadline is a linear scan followed by heap.Fix, documented as
// slow exactly as the spec requires; nothing here attempts to make it
// fast, since doing so would mean swapping the whole data structure for
// a hierarchical timer wheel, which the spec explicitly leaves as a
// drop-in future substitution rather than today's job.
package timerheap

import (
	"container/heap"
	"sync"
	"time"

	"github.com/go-readiness/evpoll/internal/revent"
	"github.com/go-readiness/evpoll/metrics"
)

type entry struct {
	deadline time.Time
	id       revent.Id
}

// orderedHeap implements heap.Interface, ordering ascending by
// deadline then ascending by id so pop order is deterministic for
// entries sharing a deadline.
type orderedHeap []entry

func (h orderedHeap) Len() int { return len(h) }

func (h orderedHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].id < h[j].id
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h orderedHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *orderedHeap) Push(x any) {
	*h = append(*h, x.(entry))
}

func (h *orderedHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Heap is the timer source: a min-heap of (deadline, id) entries. The
// zero value is not usable; construct with New. A Heap is safe for
// concurrent use.
type Heap struct {
	mu  sync.Mutex
	h   orderedHeap
	now func() time.Time
}

// New creates an empty timer heap.
func New() *Heap {
	return &Heap{now: time.Now}
}

// AddDeadline schedules a TIMER event for id at the given instant.
func (t *Heap) AddDeadline(id revent.Id, when time.Time) {
	t.mu.Lock()
	heap.Push(&t.h, entry{deadline: when, id: id})
	t.mu.Unlock()
}

// AddTimeout is a convenience for AddDeadline(id, now+d).
func (t *Heap) AddTimeout(id revent.Id, d time.Duration) {
	t.AddDeadline(id, t.now().Add(d))
}

// RemoveDeadline removes one entry for id, returning its deadline. If
// more than one entry shares id, an unspecified one is removed. This
// is a linear scan followed by a re-heapify; documented as slow and
// discouraged for hot paths.
func (t *Heap) RemoveDeadline(id revent.Id) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, e := range t.h {
		if e.id == id {
			when := e.deadline
			n := len(t.h) - 1
			t.h[i] = t.h[n]
			t.h = t.h[:n]
			if i < n {
				heap.Fix(&t.h, i)
			}
			return when, true
		}
	}
	return time.Time{}, false
}

// Len reports the number of pending timer entries.
func (t *Heap) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.h)
}

// MaxTimeout implements revent.Source: Some(0) if the top entry is
// already due, Some(deadline-now) if one is pending, or nil if empty.
func (t *Heap) MaxTimeout() *time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.h) == 0 {
		return nil
	}
	top := t.h[0]
	now := t.now()
	if !top.deadline.After(now) {
		var zero time.Duration
		return &zero
	}
	d := top.deadline.Sub(now)
	return &d
}

// Poll pops every entry whose deadline has passed, emitting
// Event{id, Timer} into sink in (deadline, id) order, stopping early if
// the sink runs out of capacity. Entries not popped in this call remain
// in the heap for the next one.
func (t *Heap) Poll(sink revent.Sink) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for len(t.h) > 0 {
		if c := sink.CapacityLeft(); c.Finite() && c == 0 {
			break
		}
		top := t.h[0]
		if top.deadline.After(now) {
			break
		}
		heap.Pop(&t.h)
		sink.Append(revent.Event{Id: top.id, Readiness: revent.Timer})
		metrics.Add(metrics.TimerPops, 1)
	}
	return nil
}

// BlockingPoll implements revent.Source. The timer heap never itself
// blocks; it just reports currently-due entries, relying on its
// MaxTimeout contribution to bound whichever source actually blocks.
func (t *Heap) BlockingPoll(sink revent.Sink, _ *time.Duration) error {
	return t.Poll(sink)
}
