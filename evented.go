package evpoll

// Evented is a value that can be registered with a Queue. Implementing
// it over a raw file descriptor just means delegating to EventedFd or
// embedding an EventedIo; the Queue never touches a descriptor
// directly, only through this interface.
type Evented interface {
	register(q *Queue, id Id, interests Interests, opt RegisterOption) error
	reregister(q *Queue, id Id, interests Interests, opt RegisterOption) error
	deregister(q *Queue) error
}

// EventedFd adapts a borrowed file descriptor for registration with a
// Queue. It does not take ownership: the caller remains responsible
// for closing fd. Use EventedIo for an owned descriptor.
type EventedFd int

func (fd EventedFd) register(q *Queue, id Id, interests Interests, opt RegisterOption) error {
	return q.selector.Register(int(fd), id, interests, opt)
}

func (fd EventedFd) reregister(q *Queue, id Id, interests Interests, opt RegisterOption) error {
	return q.selector.Reregister(int(fd), id, interests, opt)
}

func (fd EventedFd) deregister(q *Queue) error {
	return q.selector.Deregister(int(fd))
}

// EventedIo adapts an owned file descriptor for registration with a
// Queue. Unlike EventedFd, Close releases the descriptor.
type EventedIo struct {
	fd int
}

// NewEventedIo wraps fd, which EventedIo now owns.
func NewEventedIo(fd int) *EventedIo {
	return &EventedIo{fd: fd}
}

// Fd returns the underlying file descriptor.
func (e *EventedIo) Fd() int {
	return e.fd
}

func (e *EventedIo) register(q *Queue, id Id, interests Interests, opt RegisterOption) error {
	return EventedFd(e.fd).register(q, id, interests, opt)
}

func (e *EventedIo) reregister(q *Queue, id Id, interests Interests, opt RegisterOption) error {
	return EventedFd(e.fd).reregister(q, id, interests, opt)
}

func (e *EventedIo) deregister(q *Queue) error {
	return EventedFd(e.fd).deregister(q)
}

// Read reads from the underlying descriptor.
func (e *EventedIo) Read(p []byte) (int, error) {
	return readFd(e.fd, p)
}

// Write writes to the underlying descriptor.
func (e *EventedIo) Write(p []byte) (int, error) {
	return writeFd(e.fd, p)
}

// Close closes the underlying descriptor.
func (e *EventedIo) Close() error {
	return closeFd(e.fd)
}
