package display

import "errors"

// ErrEmptyBuffer is returned by PopNext when no departures are buffered.
var ErrEmptyBuffer = errors.New("departure buffer is empty")

// Buffer holds the departures a kiosk has yet to show. It is filled in
// full from one upstream fetch and drained a line at a time; it is not
// safe for concurrent use and is owned by a single kiosk loop.
type Buffer struct {
	// stack keeps the soonest departure at the end so pops are O(1).
	stack []Departure
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Refill replaces the buffer contents. departures must be ordered
// soonest first, as returned by the realtime API.
func (b *Buffer) Refill(departures []Departure) {
	stack := make([]Departure, len(departures))
	for i, d := range departures {
		stack[len(departures)-1-i] = d
	}
	b.stack = stack
}

// IsEmpty reports whether no departures remain.
func (b *Buffer) IsEmpty() bool {
	return len(b.stack) == 0
}

// Len returns the number of buffered departures.
func (b *Buffer) Len() int {
	return len(b.stack)
}

// PopNext removes and returns the soonest remaining departure.
func (b *Buffer) PopNext() (Departure, error) {
	if len(b.stack) == 0 {
		return Departure{}, ErrEmptyBuffer
	}
	last := len(b.stack) - 1
	d := b.stack[last]
	b.stack = b.stack[:last]
	return d, nil
}
