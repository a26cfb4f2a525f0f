// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package evpoll aggregates readiness events from multiple sources
// behind one Queue: the OS selector (epoll/kqueue), a deadline timer
// heap, a user-space injection queue, and POSIX signal delivery, all
// funneling into a single Poll call.
package evpoll

import (
	"time"

	"github.com/go-readiness/evpoll/internal/revent"
)

// Id is an opaque, application-chosen tag correlating a registration
// with the events it produces.
type Id = revent.Id

// Ready is a bitset describing which operations can now proceed on a
// handle without blocking.
type Ready = revent.Ready

// The readiness bits.
const (
	Readable = revent.Readable
	Writable = revent.Writable
	Error    = revent.Error
	Timer    = revent.Timer
	Hup      = revent.Hup
)

// Interests describes which directions (readable, writable, or both)
// a registration cares about. The zero value is invalid; build one
// with NewInterests.
type Interests = revent.Interests

// ErrEmptyInterests is returned by NewInterests when neither
// direction is requested.
var ErrEmptyInterests = revent.ErrEmptyInterests

// NewInterests builds an Interests value. At least one of readable or
// writable must be true.
func NewInterests(readable, writable bool) (Interests, error) {
	return revent.NewInterests(readable, writable)
}

// RegisterOption carries the trigger-mode bits for a registration:
// edge vs. level triggering, and whether it disarms after firing
// once.
type RegisterOption = revent.RegisterOption

// The register options. The zero value is level-triggered.
const (
	Edge    = revent.Edge
	Oneshot = revent.Oneshot
)

// Event pairs an Id with the readiness that was observed for it.
type Event = revent.Event

// Capacity describes how many more events a Sink can currently
// accept. Growable sinks never run out.
type Capacity = revent.Capacity

// Growable marks a Sink with no fixed capacity.
const Growable = revent.Growable

// Sink receives events drained from a Source during a Poll.
type Sink = revent.Sink

// Source is anything Poll can drain events from: the OS queue, the
// timer heap, the user-space queue, or a custom source.
type Source = revent.Source

// Poll computes a bounded timeout across sources, blocks on the first
// one, then drains the rest non-blocking, funneling every event into
// sink.
func Poll(sources []Source, sink Sink, timeout *time.Duration) error {
	return revent.Poll(sources, sink, timeout)
}
