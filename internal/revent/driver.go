package revent

import "time"

// Poll computes a bounded timeout across every source, calls the first
// source's BlockingPoll with that timeout, then calls every remaining
// source's non-blocking Poll in order, funneling events into sink.
//
// The caller controls ordering: listing the OS queue first makes the
// kernel wait the sole suspension point, with timer and user-space
// sources piggy-backing on their own horizons contributing to the
// effective timeout. Poll does not balance or parallelize across
// sources; it is a single-threaded composition, matching the
// single-threaded-cooperative model the rest of this package assumes.
func Poll(sources []Source, sink Sink, timeout *time.Duration) error {
	if len(sources) == 0 {
		return nil
	}

	effective := timeout
	for _, s := range sources {
		effective = minTimeout(effective, s.MaxTimeout())
	}

	if err := sources[0].BlockingPoll(sink, effective); err != nil {
		return err
	}
	for _, s := range sources[1:] {
		if err := s.Poll(sink); err != nil {
			return err
		}
	}
	return nil
}

// minTimeout returns the smaller of a and b, where nil represents +Inf.
func minTimeout(a, b *time.Duration) *time.Duration {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *a < *b:
		return a
	default:
		return b
	}
}
