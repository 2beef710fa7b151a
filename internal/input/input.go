// Package input defines the keyboard events consumed by the viewer core and
// a thread-safe queue that backends fill from their own event loops.
package input

import (
	"iter"
	"sync"
)

// Key identifies a keyboard key the viewer cares about.
type Key int

const (
	KeyUnknown Key = iota
	KeyShift
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeySpace
	KeyR
)

var keyNames = map[Key]string{
	KeyUnknown: "unknown",
	KeyShift:   "shift",
	KeyW:       "w",
	KeyA:       "a",
	KeyS:       "s",
	KeyD:       "d",
	KeyQ:       "q",
	KeyE:       "e",
	KeySpace:   "space",
	KeyR:       "r",
}

func (k Key) String() string {
	if n, ok := keyNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseKey is the inverse of Key.String. Unrecognized names map to KeyUnknown.
func ParseKey(name string) Key {
	for k, n := range keyNames {
		if n == name {
			return k
		}
	}
	return KeyUnknown
}

// Kind enumerates event variants.
type Kind int

const (
	Other Kind = iota
	KeyPress
	KeyRelease
	Close
)

func (k Kind) String() string {
	switch k {
	case KeyPress:
		return "press"
	case KeyRelease:
		return "release"
	case Close:
		return "close"
	default:
		return "other"
	}
}

// Event is one input occurrence. Key is only meaningful for KeyPress and KeyRelease.
type Event struct {
	Kind Kind
	Key  Key
}

// Press is a key-down event for k.
func Press(k Key) Event { return Event{Kind: KeyPress, Key: k} }

// Release is a key-up event for k.
func Release(k Key) Event { return Event{Kind: KeyRelease, Key: k} }

// CloseEvent asks the host loop to stop.
func CloseEvent() Event { return Event{Kind: Close} }

// Source yields the events queued since the previous call, in arrival order.
// The returned sequence is finite and never blocks.
type Source interface {
	PollEvents() iter.Seq[Event]
}

// Queue is a mutex-guarded FIFO that implements Source. Producers may push from
// any goroutine; PollEvents drains a snapshot taken at call time.
type Queue struct {
	mu  sync.Mutex
	buf []Event
}

// NewQueue returns an empty queue.
func NewQueue() *Queue { return &Queue{} }

func (q *Queue) Push(evs ...Event) {
	q.mu.Lock()
	q.buf = append(q.buf, evs...)
	q.mu.Unlock()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// PollEvents takes ownership of everything queued so far. Events pushed while
// the caller iterates are left for the next poll.
func (q *Queue) PollEvents() iter.Seq[Event] {
	q.mu.Lock()
	pending := q.buf
	q.buf = nil
	q.mu.Unlock()

	return func(yield func(Event) bool) {
		for i, ev := range pending {
			if !yield(ev) {
				// put back whatever the consumer did not take
				rest := pending[i+1:]
				if len(rest) > 0 {
					q.mu.Lock()
					q.buf = append(append([]Event{}, rest...), q.buf...)
					q.mu.Unlock()
				}
				return
			}
		}
	}
}
