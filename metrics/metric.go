//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 THL A29 Limited, a Tencent company.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package metrics provides runtime monitoring data for the event
// aggregation engine, such as the efficiency of each select call,
// which is useful for tuning poll loop behavior.
package metrics

import (
	"fmt"
	"time"

	"go.uber.org/atomic"
)

// All metrics definitions.
const (
	// SelectCalls counts calls into the Selector's blocking wait.
	SelectCalls = iota
	// SelectNoWait counts calls made with a zero timeout.
	SelectNoWait
	// SelectEvents counts the total number of native records returned by
	// the kernel wait across all calls, before translation and before
	// any record is skipped or cut off by sink capacity.
	SelectEvents
	// SelectEINTR counts waits that were interrupted and retried internally.
	SelectEINTR

	// TimerPops counts TIMER events emitted by the timer heap.
	TimerPops
	// UserSpaceDrains counts events drained from the user-space queue.
	UserSpaceDrains
	// AwakenerWakes counts Awakener.Wake calls that wrote a byte to the
	// self-pipe.
	AwakenerWakes
	// SignalsReceived counts signals delivered by the signal ingestor.
	SignalsReceived

	// Max is the number of metrics slots; not itself a valid metric index.
	Max
)

var (
	metrics [Max]atomic.Uint64
)

// Add metrics counter.
func Add(name int, delta uint64) {
	if name < 0 || name >= Max {
		return
	}
	metrics[name].Add(delta)
}

// Get one metric counter.
func Get(name int) uint64 {
	if name < 0 || name >= Max {
		return 0
	}
	return metrics[name].Load()
}

// GetAll get all metrics.
func GetAll() [Max]uint64 {
	var m [Max]uint64
	for i := range metrics {
		m[i] = metrics[i].Load()
	}
	return m
}

// ShowMetricsOfPeriod shows metric info of duration d from now on.
// It will block d duration, and then prints metrics info.
func ShowMetricsOfPeriod(d time.Duration) {
	old := GetAll()
	<-time.After(d)
	latest := GetAll()
	var m [Max]uint64
	for i := range metrics {
		m[i] = latest[i] - old[i]
	}
	showAll(m)
}

// ShowMetrics shows metric info in console.
func ShowMetrics() {
	m := GetAll()
	showAll(m)
}

func showAll(m [Max]uint64) {
	fmt.Println("######### evpoll metrics (", time.Now().Format("2006-01-02 15:04:05"), ") ###########")
	fmt.Printf("%-59s: %d\n", "# number of Selector.Select calls", m[SelectCalls])
	fmt.Printf("%-59s: %d\n", "# number of Selector.Select calls with zero timeout", m[SelectNoWait])
	fmt.Printf("%-59s: %d\n", "# number of events returned by Selector.Select", m[SelectEvents])
	fmt.Printf("%-59s: %d\n", "# number of EINTR retries inside Selector.Select", m[SelectEINTR])
	if m[SelectCalls] > 0 {
		fmt.Printf("%-59s: %.2f\n", "# average events per Select call",
			float64(m[SelectEvents])/float64(m[SelectCalls]))
	}
	fmt.Printf("%-59s: %d\n", "# number of TIMER events emitted", m[TimerPops])
	fmt.Printf("%-59s: %d\n", "# number of events drained from the user-space queue", m[UserSpaceDrains])
	fmt.Printf("%-59s: %d\n", "# number of Awakener wakes", m[AwakenerWakes])
	fmt.Printf("%-59s: %d\n", "# number of signals received", m[SignalsReceived])
	fmt.Printf("\n")
}
