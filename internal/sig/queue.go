package sig

import "github.com/go-readiness/evpoll/internal/revent"

// OSQueue is the slice of the OS selector that signal registration
// needs: enough to register a raw fd for readable, level-triggered
// notifications. internal/poller's Selector satisfies this
// structurally.
type OSQueue interface {
	Register(fd int, id revent.Id, interests revent.Interests, opt revent.RegisterOption) error
}
