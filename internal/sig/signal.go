// Package sig turns POSIX process signals into readiness events,
// backed by signalfd on Linux and a private EVFILT_SIGNAL kqueue on
// BSD/Darwin, following the two OS-specific strategies in the same
// ratio the rest of this module keeps epoll and kqueue on separate
// files behind a shared surface.
package sig

import (
	"errors"
	"strings"

	"golang.org/x/sys/unix"
)

// ErrEmptySignalSet is returned by New when set contains no signal.
var ErrEmptySignalSet = errors.New("sig: signal set must not be empty")

// Signal is one of the POSIX signals this package understands.
type Signal int

const (
	// Interrupt corresponds to SIGINT, typically delivered on Ctrl+C.
	Interrupt Signal = iota
	// Terminate corresponds to SIGTERM, a polite shutdown request.
	Terminate
	// Quit corresponds to SIGQUIT, a shutdown request with a core dump.
	Quit
)

func (s Signal) String() string {
	switch s {
	case Interrupt:
		return "INTERRUPT"
	case Terminate:
		return "TERMINATE"
	case Quit:
		return "QUIT"
	default:
		return "UNKNOWN"
	}
}

// SignalSet is a bitset of Signals, used to register interest with
// New. The zero value is the empty set.
type SignalSet uint8

const (
	setInterrupt SignalSet = 1 << iota
	setQuit
	setTerminate
)

// All returns a set containing every signal this package understands.
func All() SignalSet {
	return setInterrupt | setQuit | setTerminate
}

// Of builds a set out of individual signals.
func Of(signals ...Signal) SignalSet {
	var s SignalSet
	for _, sig := range signals {
		s |= bitFor(sig)
	}
	return s
}

// Union combines two sets.
func (s SignalSet) Union(other SignalSet) SignalSet {
	return s | other
}

// Contains reports whether every signal in other is also in s.
func (s SignalSet) Contains(other SignalSet) bool {
	return s&other == other
}

func (s SignalSet) String() string {
	var parts []string
	for _, e := range table {
		if s.Contains(e.bit) {
			parts = append(parts, e.sig.String())
		}
	}
	return strings.Join(parts, "|")
}

func bitFor(sig Signal) SignalSet {
	switch sig {
	case Interrupt:
		return setInterrupt
	case Quit:
		return setQuit
	case Terminate:
		return setTerminate
	default:
		return 0
	}
}

// entry binds a SignalSet bit to its raw unix.Signal and the public
// Signal value that maps to it. It is the single source of truth the
// OS-specific backends build their sigset_t and kevent changelists
// from, so Linux and BSD never drift on which raw number means what.
type entry struct {
	bit SignalSet
	raw unix.Signal
	sig Signal
}

var table = [...]entry{
	{setInterrupt, unix.SIGINT, Interrupt},
	{setQuit, unix.SIGQUIT, Quit},
	{setTerminate, unix.SIGTERM, Terminate},
}

// rawSignals returns the unix.Signal values selected by s.
func (s SignalSet) rawSignals() []unix.Signal {
	out := make([]unix.Signal, 0, len(table))
	for _, e := range table {
		if s.Contains(e.bit) {
			out = append(out, e.raw)
		}
	}
	return out
}

// fromRaw maps a raw signal number back to a Signal, if this package
// understands it.
func fromRaw(raw unix.Signal) (Signal, bool) {
	for _, e := range table {
		if e.raw == raw {
			return e.sig, true
		}
	}
	return 0, false
}
