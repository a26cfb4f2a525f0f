// Tencent is pleased to support the open source community by making tnet available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tnet source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License can be found in the LICENSE file.

//go:build freebsd || dragonfly || darwin
// +build freebsd dragonfly darwin

package poller

import (
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/go-readiness/evpoll/internal/revent"
	"github.com/go-readiness/evpoll/metrics"
)

const defaultKevent = 128

type kqueueSelector struct {
	fd     int
	events []unix.Kevent_t
}

func newSelector() (Selector, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, os.NewSyscallError("kqueue", err)
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &kqueueSelector{
		fd:     fd,
		events: make([]unix.Kevent_t, defaultKevent),
	}, nil
}

func (s *kqueueSelector) Close() error {
	return os.NewSyscallError("close", unix.Close(s.fd))
}

// Register submits one EV_ADD changelist entry per requested
// direction.
func (s *kqueueSelector) Register(fd int, id revent.Id, interests revent.Interests, opt revent.RegisterOption) error {
	changes := addChanges(fd, id, interests, opt)
	_, err := unix.Kevent(s.fd, changes, nil, nil)
	if err != nil {
		return os.NewSyscallError("kevent add", err)
	}
	return nil
}

// Reregister expresses the new desired state as an unconditional
// ADD-for-wanted-direction plus DELETE-for-unwanted-direction,
// tolerating ENOENT on the DELETE leg: the Selector never tracks the
// fd's previous interests itself, so it cannot know which leg, if
// any, was already absent.
func (s *kqueueSelector) Reregister(fd int, id revent.Id, interests revent.Interests, opt revent.RegisterOption) error {
	changes := addChanges(fd, id, interests, opt)
	if !interests.Readable() {
		changes = append(changes, unix.Kevent_t{Ident: newKeventIdent(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE})
	}
	if !interests.Writable() {
		changes = append(changes, unix.Kevent_t{Ident: newKeventIdent(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE})
	}
	if _, err := unix.Kevent(s.fd, changes, nil, nil); err != nil && err != unix.ENOENT {
		return os.NewSyscallError("kevent reregister", err)
	}
	return nil
}

// Deregister deletes each direction in its own kevent call, tolerating
// ENOENT: with no event list, kevent stops at the first failing change,
// so a missing READ filter would otherwise leave the WRITE one in place.
func (s *kqueueSelector) Deregister(fd int) error {
	for _, filter := range []int16{unix.EVFILT_READ, unix.EVFILT_WRITE} {
		change := []unix.Kevent_t{{Ident: newKeventIdent(fd), Filter: filter, Flags: unix.EV_DELETE}}
		if _, err := unix.Kevent(s.fd, change, nil, nil); err != nil && err != unix.ENOENT {
			return os.NewSyscallError("kevent delete", err)
		}
	}
	return nil
}

func addChanges(fd int, id revent.Id, interests revent.Interests, opt revent.RegisterOption) []unix.Kevent_t {
	var flags uint16 = unix.EV_ADD
	if opt.IsEdge() {
		flags |= unix.EV_CLEAR
	}
	if opt.IsOneshot() {
		flags |= unix.EV_ONESHOT
	}

	var changes []unix.Kevent_t
	if interests.Readable() {
		evt := unix.Kevent_t{Ident: newKeventIdent(fd), Filter: unix.EVFILT_READ, Flags: flags}
		setKeventUdata(unsafe.Pointer(&evt.Udata), id)
		changes = append(changes, evt)
	}
	if interests.Writable() {
		evt := unix.Kevent_t{Ident: newKeventIdent(fd), Filter: unix.EVFILT_WRITE, Flags: flags}
		setKeventUdata(unsafe.Pointer(&evt.Udata), id)
		changes = append(changes, evt)
	}
	return changes
}

// Select waits up to timeout and translates ready native events into
// sink, stopping early if sink runs out of capacity.
func (s *kqueueSelector) Select(sink revent.Sink, timeout *time.Duration) error {
	ts, deadline := timespecFor(timeout)

	for {
		n, err := unix.Kevent(s.fd, nil, s.events, ts)
		metrics.Add(metrics.SelectCalls, 1)
		if err == unix.EINTR {
			metrics.Add(metrics.SelectEINTR, 1)
			ts = remainingTimespec(deadline)
			continue
		}
		if err != nil {
			return os.NewSyscallError("kevent", err)
		}
		metrics.Add(metrics.SelectEvents, uint64(n))
		for i := 0; i < n; i++ {
			if c := sink.CapacityLeft(); c.Finite() && c == 0 {
				return nil
			}
			native := s.events[i]
			ready := readinessFromKevent(native)
			if ready.Empty() {
				continue
			}
			id := idFromUdataAddr(unsafe.Pointer(&native.Udata))
			sink.Append(revent.Event{Id: id, Readiness: ready})
		}
		return nil
	}
}

func readinessFromKevent(native unix.Kevent_t) revent.Ready {
	var r revent.Ready
	switch native.Filter {
	case unix.EVFILT_READ:
		r = r.Union(revent.Readable)
	case unix.EVFILT_WRITE:
		r = r.Union(revent.Writable)
	}
	if native.Flags&unix.EV_EOF != 0 {
		r = r.Union(revent.Hup)
		if native.Fflags != 0 {
			r = r.Union(revent.Error)
		}
	}
	if native.Flags&unix.EV_ERROR != 0 {
		r = r.Union(revent.Error)
	}
	return r
}

func timespecFor(timeout *time.Duration) (*unix.Timespec, time.Time) {
	if timeout == nil {
		return nil, time.Time{}
	}
	ts := unix.NsecToTimespec(timeout.Nanoseconds())
	return &ts, time.Now().Add(*timeout)
}

func remainingTimespec(deadline time.Time) *unix.Timespec {
	if deadline.IsZero() {
		return nil
	}
	left := time.Until(deadline)
	if left < 0 {
		left = 0
	}
	ts := unix.NsecToTimespec(left.Nanoseconds())
	return &ts
}
