package input

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(q *Queue) []Event {
	var out []Event
	for ev := range q.PollEvents() {
		out = append(out, ev)
	}
	return out
}

func TestQueueDrainsInArrivalOrder(t *testing.T) {
	q := NewQueue()
	q.Push(Press(KeyShift), Press(KeyD))
	q.Push(Release(KeyD))

	got := collect(q)
	assert.Equal(t, []Event{Press(KeyShift), Press(KeyD), Release(KeyD)}, got)
	assert.Empty(t, collect(q), "second poll should be empty")
}

func TestQueueRestoresUnconsumedTail(t *testing.T) {
	q := NewQueue()
	q.Push(Press(KeyW), CloseEvent(), Press(KeyR))

	for ev := range q.PollEvents() {
		if ev.Kind == Close {
			break
		}
	}
	q.Push(Press(KeyA))

	assert.Equal(t, []Event{Press(KeyR), Press(KeyA)}, collect(q))
}

func TestQueueConcurrentPush(t *testing.T) {
	q := NewQueue()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(Press(KeyQ))
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 800, q.Len())
	assert.Len(t, collect(q), 800)
}

func TestParseKeyRoundTrip(t *testing.T) {
	for _, k := range []Key{KeyShift, KeyW, KeyA, KeyS, KeyD, KeyQ, KeyE, KeySpace, KeyR} {
		assert.Equal(t, k, ParseKey(k.String()))
	}
	assert.Equal(t, KeyUnknown, ParseKey("f13"))
}
