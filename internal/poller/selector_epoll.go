// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

//go:build linux
// +build linux

package poller

import (
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/go-readiness/evpoll/internal/poller/event"
	"github.com/go-readiness/evpoll/internal/revent"
	"github.com/go-readiness/evpoll/metrics"
)

const (
	readFlags  = unix.EPOLLIN | unix.EPOLLPRI
	writeFlags = unix.EPOLLOUT
	errFlags   = unix.EPOLLERR
	hupFlags   = unix.EPOLLHUP | unix.EPOLLRDHUP

	defaultEventCount = 128
)

type epollSelector struct {
	fd     int
	events []event.EpollEvent
}

func newSelector() (Selector, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	return &epollSelector{
		fd:     fd,
		events: make([]event.EpollEvent, defaultEventCount),
	}, nil
}

func flagsFor(interests revent.Interests, opt revent.RegisterOption) uint32 {
	var flags uint32
	if interests.Readable() {
		flags |= readFlags
	}
	if interests.Writable() {
		flags |= writeFlags
	}
	if opt.IsEdge() {
		flags |= unix.EPOLLET
	}
	if opt.IsOneshot() {
		flags |= unix.EPOLLONESHOT
	}
	return flags
}

func buildEvent(id revent.Id, interests revent.Interests, opt revent.RegisterOption) event.EpollEvent {
	var evt event.EpollEvent
	evt.Events = flagsFor(interests, opt)
	*(*uint64)(unsafe.Pointer(&evt.Data)) = uint64(id)
	return evt
}

func (s *epollSelector) Register(fd int, id revent.Id, interests revent.Interests, opt revent.RegisterOption) error {
	evt := buildEvent(id, interests, opt)
	if err := epollCtl(s.fd, unix.EPOLL_CTL_ADD, fd, &evt); err != nil {
		return os.NewSyscallError("epoll_ctl add", err)
	}
	return nil
}

func (s *epollSelector) Reregister(fd int, id revent.Id, interests revent.Interests, opt revent.RegisterOption) error {
	evt := buildEvent(id, interests, opt)
	if err := epollCtl(s.fd, unix.EPOLL_CTL_MOD, fd, &evt); err != nil {
		return os.NewSyscallError("epoll_ctl mod", err)
	}
	return nil
}

func (s *epollSelector) Deregister(fd int) error {
	if err := epollCtl(s.fd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return os.NewSyscallError("epoll_ctl del", err)
	}
	return nil
}

func (s *epollSelector) Close() error {
	return os.NewSyscallError("close", unix.Close(s.fd))
}

// Select waits up to timeout and translates ready native events into
// sink, stopping early if sink runs out of capacity. A level-triggered
// registration whose event is dropped this way is simply reported
// again on the next Select call; an edge-triggered one is not, which
// is why callers wanting edge triggering should pair it with a
// growable sink.
func (s *epollSelector) Select(sink revent.Sink, timeout *time.Duration) error {
	msec := msecFromTimeout(timeout)
	deadline := deadlineFor(timeout)

	for {
		n, err := epollWait(s.fd, s.events, msec)
		if err == unix.EINTR {
			msec = remainingMsec(deadline)
			continue
		}
		if err != nil {
			return os.NewSyscallError("epoll_wait", err)
		}
		for i := 0; i < n; i++ {
			if c := sink.CapacityLeft(); c.Finite() && c == 0 {
				return nil
			}
			native := s.events[i]
			ready := readinessFromEpoll(native.Events)
			if ready.Empty() {
				continue
			}
			id := revent.Id(*(*uint64)(unsafe.Pointer(&native.Data)))
			sink.Append(revent.Event{Id: id, Readiness: ready})
		}
		return nil
	}
}

func readinessFromEpoll(events uint32) revent.Ready {
	var r revent.Ready
	if events&readFlags != 0 {
		r = r.Union(revent.Readable)
	}
	if events&writeFlags != 0 {
		r = r.Union(revent.Writable)
	}
	if events&errFlags != 0 {
		r = r.Union(revent.Error)
	}
	if events&hupFlags != 0 {
		r = r.Union(revent.Hup)
	}
	return r
}

func epollWait(epfd int, events []event.EpollEvent, msec int) (int, error) {
	var r0 uintptr
	var err error
	p := unsafe.Pointer(&events[0])
	if msec == 0 {
		r0, _, err = unix.RawSyscall6(unix.SYS_EPOLL_PWAIT,
			uintptr(epfd), uintptr(p), uintptr(len(events)), 0, 0, 0)
		metrics.Add(metrics.SelectNoWait, 1)
	} else {
		r0, _, err = unix.Syscall6(unix.SYS_EPOLL_PWAIT,
			uintptr(epfd), uintptr(p), uintptr(len(events)), uintptr(msec), 0, 0)
	}
	metrics.Add(metrics.SelectCalls, 1)
	if err == unix.Errno(0) {
		err = nil
	}
	if err != nil {
		if err == unix.EINTR {
			metrics.Add(metrics.SelectEINTR, 1)
		}
		return 0, err
	}
	metrics.Add(metrics.SelectEvents, uint64(r0))
	return int(r0), nil
}

func epollCtl(epfd int, op int, fd int, evt *event.EpollEvent) error {
	_, _, err := unix.RawSyscall6(
		unix.SYS_EPOLL_CTL,
		uintptr(epfd),
		uintptr(op),
		uintptr(fd),
		uintptr(unsafe.Pointer(evt)),
		0, 0)
	if err == unix.Errno(0) {
		return nil
	}
	return err
}

func msecFromTimeout(timeout *time.Duration) int {
	if timeout == nil {
		return -1
	}
	if *timeout <= 0 {
		return 0
	}
	return int(timeout.Milliseconds())
}

func deadlineFor(timeout *time.Duration) time.Time {
	if timeout == nil {
		return time.Time{}
	}
	return time.Now().Add(*timeout)
}

func remainingMsec(deadline time.Time) int {
	if deadline.IsZero() {
		return -1
	}
	left := time.Until(deadline)
	if left <= 0 {
		return 0
	}
	return int(left.Milliseconds())
}
