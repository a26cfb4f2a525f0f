//go:build unix

package evpoll

import (
	"github.com/go-readiness/evpoll/internal/sig"
	"github.com/go-readiness/evpoll/log"
)

// Signal is one of the POSIX signals Signals understands.
type Signal = sig.Signal

// The signals this package understands.
const (
	Interrupt = sig.Interrupt
	Terminate = sig.Terminate
	Quit      = sig.Quit
)

// SignalSet is a bitset of Signals, used to register interest with
// NewSignals.
type SignalSet = sig.SignalSet

// ErrEmptySignalSet is returned by NewSignals when set contains no signal.
var ErrEmptySignalSet = sig.ErrEmptySignalSet

// AllSignals returns a set containing every signal this package
// understands.
func AllSignals() SignalSet {
	return sig.All()
}

// Of builds a SignalSet containing exactly the given signals.
func Of(signals ...Signal) SignalSet {
	return sig.Of(signals...)
}

// Signals turns POSIX process signals into readiness events on a
// Queue. Constructing one blocks every signal in its set on the
// calling thread, without installing a signal handler, relying on the
// associated Queue's Poll to ever observe it again.
type Signals struct {
	inner *sig.Signals
}

// NewSignals creates a signal ingestor for set, registering it with
// queue under id. The associated Queue's next Poll call will report a
// Readable event for id whenever one of set's signals arrives; call
// Receive to find out which one.
func NewSignals(queue *Queue, set SignalSet, id Id) (*Signals, error) {
	inner, err := sig.New(queueSelectorAdapter{queue}, set, id)
	if err != nil {
		return nil, err
	}
	log.Debugf("evpoll: blocking signal set %s on id=%d", set, id)
	return &Signals{inner: inner}, nil
}

// Receive returns the next pending signal, or ok == false if none is
// currently queued.
func (s *Signals) Receive() (Signal, bool, error) {
	return s.inner.Receive()
}

// Close closes the underlying signal ingestor. The signal mask
// blocked in NewSignals is intentionally left in place.
func (s *Signals) Close() error {
	log.Debugf("evpoll: closing signal ingestor, signal mask stays blocked")
	return s.inner.Close()
}

// queueSelectorAdapter lets internal/sig register its ingestor fd
// without depending on the root package's Evented abstraction, which
// would create an import cycle.
type queueSelectorAdapter struct {
	q *Queue
}

func (a queueSelectorAdapter) Register(fd int, id Id, interests Interests, opt RegisterOption) error {
	return a.q.selector.Register(fd, id, interests, opt)
}
