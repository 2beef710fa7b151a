// Package fake provides headless collaborators: a recording driver and a
// scripted input source that replays one batch of events per tick.
package fake

import (
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/coreman2200/funtimes-spincube/internal/input"
)

// Script replays pre-recorded batches, one per PollEvents call. Once the
// batches run out it yields nothing, or a single Close when CloseAtEnd is set.
type Script struct {
	CloseAtEnd bool

	mu      sync.Mutex
	batches [][]input.Event
	next    int
}

func NewScript(batches ...[]input.Event) *Script {
	return &Script{batches: batches}
}

// ParseScript reads a compact script: ticks are separated by '|', tokens by
// spaces. "+key" presses, "-key" releases, a bare key is press then release,
// "close" is a window close. An empty tick is a tick without input.
//
//	"+shift +d | | -d -shift | space"
func ParseScript(src string) (*Script, error) {
	var batches [][]input.Event
	for i, tick := range strings.Split(src, "|") {
		var batch []input.Event
		for _, tok := range strings.Fields(tick) {
			evs, err := parseToken(tok)
			if err != nil {
				return nil, fmt.Errorf("tick %d: %w", i, err)
			}
			batch = append(batch, evs...)
		}
		batches = append(batches, batch)
	}
	return NewScript(batches...), nil
}

func parseToken(tok string) ([]input.Event, error) {
	if tok == "close" {
		return []input.Event{input.CloseEvent()}, nil
	}
	kind := input.Other
	name := tok
	switch tok[0] {
	case '+':
		kind, name = input.KeyPress, tok[1:]
	case '-':
		kind, name = input.KeyRelease, tok[1:]
	}
	k := input.ParseKey(name)
	if k == input.KeyUnknown {
		return nil, fmt.Errorf("unknown key %q", name)
	}
	switch kind {
	case input.KeyPress:
		return []input.Event{input.Press(k)}, nil
	case input.KeyRelease:
		return []input.Event{input.Release(k)}, nil
	default:
		return []input.Event{input.Press(k), input.Release(k)}, nil
	}
}

// Remaining is the number of batches not yet replayed.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches) - s.next
}

// PadTo appends empty ticks until the script is at least n ticks long.
func (s *Script) PadTo(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.batches) < n {
		s.batches = append(s.batches, nil)
	}
}

func (s *Script) PollEvents() iter.Seq[input.Event] {
	s.mu.Lock()
	var batch []input.Event
	switch {
	case s.next < len(s.batches):
		batch = s.batches[s.next]
		s.next++
	case s.CloseAtEnd:
		batch = []input.Event{input.CloseEvent()}
	}
	s.mu.Unlock()

	return func(yield func(input.Event) bool) {
		for _, ev := range batch {
			if !yield(ev) {
				return
			}
		}
	}
}
