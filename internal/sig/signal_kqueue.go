//go:build darwin || freebsd || dragonfly

package sig

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/go-readiness/evpoll/internal/revent"
	"github.com/go-readiness/evpoll/metrics"
)

// Signals is a signal ingestor backed by a private kqueue holding one
// EVFILT_SIGNAL registration per requested signal. The private kqueue
// is itself registered, as a plain readable fd, with the caller's OS
// queue so signal arrivals surface through the normal poll loop; a
// direct, non-blocking kevent call against the private kqueue then
// identifies which signal fired.
type Signals struct {
	kq int
}

// New creates a private kqueue for set, registers it with queue under
// id, then blocks set on the calling thread. Registration happens
// before the mask is blocked so no signal can be lost to the default
// disposition in between.
func New(queue OSQueue, set SignalSet, id revent.Id) (*Signals, error) {
	if set == 0 {
		return nil, ErrEmptySignalSet
	}
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, errors.Wrap(err, "sig: kqueue")
	}
	s := &Signals{kq: kq}

	raws := set.rawSignals()
	changes := make([]unix.Kevent_t, len(raws))
	for i, raw := range raws {
		changes[i] = unix.Kevent_t{
			Ident:  uint64(raw),
			Filter: unix.EVFILT_SIGNAL,
			Flags:  unix.EV_ADD,
		}
	}
	if len(changes) > 0 {
		if _, err := unix.Kevent(kq, changes, nil, nil); err != nil {
			unix.Close(kq)
			return nil, errors.Wrap(err, "sig: register EVFILT_SIGNAL")
		}
	}

	interests, err := revent.NewInterests(true, false)
	if err != nil {
		unix.Close(kq)
		return nil, err
	}
	var level revent.RegisterOption
	if err := queue.Register(kq, id, interests, level); err != nil {
		unix.Close(kq)
		return nil, errors.Wrap(err, "sig: register private kqueue")
	}

	mask := sigsetFor(set)
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &mask, nil); err != nil {
		unix.Close(kq)
		return nil, errors.Wrap(err, "sig: block signals")
	}

	return s, nil
}

// Receive returns the next pending signal, or ok == false if none is
// currently queued.
func (s *Signals) Receive() (Signal, bool, error) {
	events := make([]unix.Kevent_t, 1)
	zero := unix.Timespec{}
	for {
		n, err := unix.Kevent(s.kq, nil, events, &zero)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, false, errors.Wrap(err, "sig: kevent")
		}
		if n == 0 {
			return 0, false, nil
		}
		sig, ok := fromRaw(unix.Signal(events[0].Ident))
		if ok {
			metrics.Add(metrics.SignalsReceived, 1)
		}
		return sig, ok, nil
	}
}

// Close closes the private kqueue. The signal mask blocked in New is
// intentionally left in place; Close does not restore it.
func (s *Signals) Close() error {
	return unix.Close(s.kq)
}
