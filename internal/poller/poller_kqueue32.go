// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

//go:build (freebsd || dragonfly || darwin) && (386 || arm)
// +build freebsd dragonfly darwin
// +build 386 arm

package poller

import (
	"unsafe"

	"github.com/go-readiness/evpoll/internal/revent"
)

func newKeventIdent(i int) uint32 {
	return uint32(i)
}

// setKeventUdata and idFromUdataAddr store and recover a revent.Id in
// a kevent's Udata word given its address. On 32-bit targets Udata is
// pointer-width (32 bits), so an id whose value does not fit in 32
// bits is stored, and reported back in events, with its upper bits
// dropped.
func setKeventUdata(udataAddr unsafe.Pointer, id revent.Id) {
	*(*uint32)(udataAddr) = uint32(id)
}

func idFromUdataAddr(udataAddr unsafe.Pointer) revent.Id {
	return revent.Id(*(*uint32)(udataAddr))
}
