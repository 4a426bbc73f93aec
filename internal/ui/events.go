// Package ui carries discrete input events from their producers (display
// key polling, the WebSocket control channel) to the main loop. The loop is
// the only consumer and owns all selection and tracking state; producers
// never mutate shared state, they only enqueue events.
package ui

import "sync"

// EventKind discriminates queued input events.
type EventKind int

const (
	// KindClick is a pointer press at frame coordinates.
	KindClick EventKind = iota
	// KindKey is a single key press.
	KindKey
)

// Event is a single input event.
type Event struct {
	Kind EventKind

	// X, Y are set for KindClick.
	X, Y int

	// Key is set for KindKey.
	Key rune
}

// Click builds a pointer-press event.
func Click(x, y int) Event {
	return Event{Kind: KindClick, X: x, Y: y}
}

// Key builds a key-press event.
func Key(k rune) Event {
	return Event{Kind: KindKey, Key: k}
}

// Queue is a bounded FIFO of input events. Push never blocks: events beyond
// the capacity are dropped, which is acceptable for interactive input where
// a stale backlog is worse than a lost click.
type Queue struct {
	mu     sync.Mutex
	events []Event
	cap    int
}

// DefaultQueueCap bounds pending events between two frames.
const DefaultQueueCap = 64

// NewQueue creates a Queue with the given capacity. Non-positive values
// fall back to DefaultQueueCap.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCap
	}
	return &Queue{
		events: make([]Event, 0, capacity),
		cap:    capacity,
	}
}

// Push enqueues an event, reporting whether it was accepted.
func (q *Queue) Push(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) >= q.cap {
		return false
	}

	q.events = append(q.events, e)
	return true
}

// Drain removes and returns all pending events in arrival order.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}

	out := make([]Event, len(q.events))
	copy(out, q.events)
	q.events = q.events[:0]

	return out
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
