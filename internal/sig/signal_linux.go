//go:build linux

package sig

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/go-readiness/evpoll/internal/revent"
	"github.com/go-readiness/evpoll/metrics"
)

// signalfdSiginfoSize is sizeof(struct signalfd_siginfo): the kernel
// always returns records of exactly this width regardless of how many
// signals are in the mask.
const signalfdSiginfoSize = 128

// Signals is a signal ingestor backed by a Linux signalfd, registered
// on the caller's OS queue as a plain readable, level-triggered fd.
type Signals struct {
	fd int
}

// New creates a signalfd for set, registers it with queue under id,
// then blocks set on the calling thread. Registration happens before
// the mask is blocked so no signal can be lost to the default
// disposition in between.
func New(queue OSQueue, set SignalSet, id revent.Id) (*Signals, error) {
	if set == 0 {
		return nil, ErrEmptySignalSet
	}
	mask := sigsetFor(set)

	fd, err := unix.Signalfd(-1, &mask, unix.SFD_CLOEXEC|unix.SFD_NONBLOCK)
	if err != nil {
		return nil, errors.Wrap(err, "sig: signalfd")
	}

	interests, err := revent.NewInterests(true, false)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	var level revent.RegisterOption
	if err := queue.Register(fd, id, interests, level); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "sig: register signalfd")
	}

	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &mask, nil); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "sig: block signals")
	}

	return &Signals{fd: fd}, nil
}

// Receive returns the next pending signal, or ok == false if none is
// currently queued.
func (s *Signals) Receive() (Signal, bool, error) {
	var buf [signalfdSiginfoSize]byte
	for {
		n, err := unix.Read(s.fd, buf[:])
		if err == unix.EAGAIN {
			return 0, false, nil
		}
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, false, errors.Wrap(err, "sig: read signalfd")
		}
		if n != signalfdSiginfoSize {
			return 0, false, errors.Errorf("sig: short signalfd read: %d bytes", n)
		}
		break
	}
	signo := unix.Signal(binary.LittleEndian.Uint32(buf[0:4]))
	sig, ok := fromRaw(signo)
	if ok {
		metrics.Add(metrics.SignalsReceived, 1)
	}
	return sig, ok, nil
}

// Close closes the underlying signalfd. The signal mask blocked in
// New is intentionally left in place; Close does not restore it.
func (s *Signals) Close() error {
	return unix.Close(s.fd)
}

func sigsetFor(set SignalSet) unix.Sigset_t {
	var mask unix.Sigset_t
	for _, raw := range set.rawSignals() {
		bit := uint(raw) - 1
		mask.Val[bit/64] |= 1 << (bit % 64)
	}
	return mask
}
