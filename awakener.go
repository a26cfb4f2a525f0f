//go:build unix

package evpoll

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/go-readiness/evpoll/log"
	"github.com/go-readiness/evpoll/metrics"
)

// Awakener lets another goroutine or OS thread wake a blocked Poll
// call. It is backed by a non-blocking self-pipe: Wake writes a single
// byte, coalescing with any wake that hasn't been drained yet, and the
// read end is what gets registered with the Queue.
//
// Only one Awakener should be actively registered per Queue; use
// TryClone to share wake access across goroutines without registering
// more than once. What happens if more than one Awakener is
// registered with the same Queue is undefined, matching the
// underlying OS queue's own aliasing rules.
type Awakener struct {
	sender   Sender
	receiver Receiver
}

// NewAwakener creates an Awakener and registers its read end with
// queue under id, interested in Readable events, edge-triggered. Being
// edge-triggered, the byte a Wake writes is never reported again once
// seen; Drain must be called once the registered event fires so the
// next Wake can be observed.
func NewAwakener(queue *Queue, id Id) (*Awakener, error) {
	sender, receiver, err := NewPipe()
	if err != nil {
		return nil, err
	}
	interests, err := NewInterests(true, false)
	if err != nil {
		return nil, err
	}
	if err := queue.Register(receiver, id, interests, Edge); err != nil {
		sender.Close()
		receiver.Close()
		return nil, errors.Wrap(err, "evpoll: register awakener")
	}
	return &Awakener{sender: sender, receiver: receiver}, nil
}

// TryClone returns a new Awakener sharing the same underlying pipe,
// safe to hand to another goroutine. The clone must not be registered
// with a Queue again; only Wake should be called on it.
func (a *Awakener) TryClone() (*Awakener, error) {
	return &Awakener{sender: a.sender, receiver: a.receiver}, nil
}

// Wake causes the associated Queue's next Poll to return a Readable
// event for the Awakener's registered id. Safe to call concurrently
// and from a different goroutine than the one polling the Queue.
func (a *Awakener) Wake() error {
	_, err := a.sender.Write([]byte{1})
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return nil
	}
	if err == nil {
		metrics.Add(metrics.AwakenerWakes, 1)
	}
	return err
}

// Drain empties the self-pipe. The registration is edge-triggered, so
// this must be called after observing the registered id's Readable
// event, or the pipe will never again report readable and the Queue
// will have lost track of any further Wake calls. Mirrors the
// original design's cleanup() step.
func (a *Awakener) Drain() error {
	var buf [64]byte
	for {
		_, err := a.receiver.Read(buf[:])
		if err == nil {
			continue
		}
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil
		}
		return err
	}
}

// Close releases the underlying pipe. All clones share it, so Close
// should only be called once the Awakener is no longer needed by any
// clone.
func (a *Awakener) Close() error {
	werr := a.sender.Close()
	rerr := a.receiver.Close()
	if werr != nil {
		if rerr != nil {
			log.Errorf("evpoll: awakener receiver close err: %v", rerr)
		}
		return werr
	}
	return rerr
}
