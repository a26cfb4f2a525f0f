// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package poller wraps the OS readiness-notification facility (epoll on
// Linux, kqueue on BSD/Darwin) behind a single Selector interface: one
// fd queue per instance, registrations keyed by an opaque Id the
// caller supplies, and a pull-based Select call instead of a
// callback-driven run loop.
package poller

import (
	"time"

	"github.com/go-readiness/evpoll/internal/revent"
)

// Selector is the OS queue abstraction. A Selector owns one kernel
// object (an epoll instance or a kqueue) and translates native
// readiness records into revent.Events on Select.
//
// The Selector does not keep its own fd-to-registration table; the
// kernel queue is the only source of truth. Reregister therefore takes
// the same arguments Register did, Deregister takes only the fd, and on
// kqueue in
// particular a reregistration is expressed as the unconditional union
// of ADD-for-wanted-direction and DELETE-for-unwanted-direction,
// tolerating ENOENT on the DELETE leg.
type Selector interface {
	// Register starts monitoring fd for interests, tagging any event
	// it produces with id.
	Register(fd int, id revent.Id, interests revent.Interests, opt revent.RegisterOption) error

	// Reregister changes the monitored interests for fd.
	Reregister(fd int, id revent.Id, interests revent.Interests, opt revent.RegisterOption) error

	// Deregister stops monitoring fd entirely.
	Deregister(fd int) error

	// Select waits for at most timeout (nil means forever, a zero
	// duration means return immediately) and appends every ready event
	// into sink, bounded by sink.CapacityLeft().
	Select(sink revent.Sink, timeout *time.Duration) error

	// Close releases the kernel queue object. A closed Selector must
	// not be used again.
	Close() error
}

// New creates a Selector backed by the native facility for the
// current OS.
func New() (Selector, error) {
	return newSelector()
}
