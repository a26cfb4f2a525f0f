package evpoll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventsIsGrowable(t *testing.T) {
	var e Events
	assert.Equal(t, Growable, e.CapacityLeft())
	e.Append(Event{Id: 1, Readiness: Readable})
	assert.Equal(t, Growable, e.CapacityLeft())
	assert.Len(t, e, 1)
}

func TestEventsReset(t *testing.T) {
	var e Events
	e.Append(Event{Id: 1, Readiness: Readable})
	e.Reset()
	assert.Empty(t, e)
}

func TestBoundedCapsAtLimit(t *testing.T) {
	b := NewBounded(2)
	assert.Equal(t, Capacity(2), b.CapacityLeft())
	b.Append(Event{Id: 1, Readiness: Readable})
	assert.Equal(t, Capacity(1), b.CapacityLeft())
	b.Append(Event{Id: 2, Readiness: Writable})
	assert.Equal(t, Capacity(0), b.CapacityLeft())
	assert.Len(t, b.Events(), 2)
}

func TestBoundedReset(t *testing.T) {
	b := NewBounded(1)
	b.Append(Event{Id: 1, Readiness: Readable})
	b.Reset()
	assert.Equal(t, Capacity(1), b.CapacityLeft())
	assert.Empty(t, b.Events())
}
