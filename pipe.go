//go:build unix

package evpoll

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// errWrongDirection guards against registering a Sender for readable
// interest or a Receiver for writable interest, a misuse the original
// design treats as a programmer error rather than a runtime
// possibility worth tolerating silently.
var errWrongDirection = errors.New("evpoll: pipe endpoint registered for its unsupported direction")

// Sender is the write half of a non-blocking pipe created by NewPipe.
// It only supports writable registration.
type Sender struct {
	*EventedIo
}

func (s Sender) register(q *Queue, id Id, interests Interests, opt RegisterOption) error {
	if interests.Readable() {
		return errWrongDirection
	}
	return s.EventedIo.register(q, id, interests, opt)
}

func (s Sender) reregister(q *Queue, id Id, interests Interests, opt RegisterOption) error {
	if interests.Readable() {
		return errWrongDirection
	}
	return s.EventedIo.reregister(q, id, interests, opt)
}

// Receiver is the read half of a non-blocking pipe created by NewPipe.
// It only supports readable registration.
type Receiver struct {
	*EventedIo
}

func (r Receiver) register(q *Queue, id Id, interests Interests, opt RegisterOption) error {
	if interests.Writable() {
		return errWrongDirection
	}
	return r.EventedIo.register(q, id, interests, opt)
}

func (r Receiver) reregister(q *Queue, id Id, interests Interests, opt RegisterOption) error {
	if interests.Writable() {
		return errWrongDirection
	}
	return r.EventedIo.reregister(q, id, interests, opt)
}

// NewPipe creates a non-blocking, close-on-exec OS pipe and wraps its
// two ends as Evented handles ready for registration with a Queue.
// Nonblocking and close-on-exec are set with separate fcntl calls
// rather than pipe2's combined flags, since pipe2 is not available on
// every Unix this module targets.
func NewPipe() (Sender, Receiver, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return Sender{}, Receiver{}, errors.Wrap(err, "evpoll: pipe")
	}
	for _, fd := range fds {
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fds[0])
			unix.Close(fds[1])
			return Sender{}, Receiver{}, errors.Wrap(err, "evpoll: set nonblocking")
		}
		unix.CloseOnExec(fd)
	}
	return Sender{NewEventedIo(fds[1])}, Receiver{NewEventedIo(fds[0])}, nil
}
