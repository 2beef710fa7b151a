package scheduler

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-spincube/internal/gesture"
	"github.com/coreman2200/funtimes-spincube/internal/input"
)

// recorder captures every submitted transform.
type recorder struct {
	frames []mgl64.Mat4
	failAt int // 1-based submission index that fails; 0 disables
}

func (r *recorder) SubmitFrame(m mgl64.Mat4) error {
	r.frames = append(r.frames, m)
	if r.failAt > 0 && len(r.frames) == r.failAt {
		return errors.New("surface lost")
	}
	return nil
}

func newTestScheduler(h Hooks) (*Scheduler, *input.Queue, *recorder) {
	q := input.NewQueue()
	r := &recorder{}
	return New(q, r, h, zerolog.Nop()), q, r
}

func mustUpdate(t *testing.T, s *Scheduler) {
	t.Helper()
	exit, err := s.Update()
	require.NoError(t, err)
	require.False(t, exit)
}

func TestIdleTickSubmitsExactlyOneFrame(t *testing.T) {
	s, _, r := newTestScheduler(Hooks{})
	mustUpdate(t, s)
	assert.Len(t, r.frames, 1)
	assert.Equal(t, gesture.Initial, s.Snapshot().State)
	assert.Equal(t, Axes{}, s.Snapshot().Axes)
}

func TestChordRunsFullAnimationInOneUpdate(t *testing.T) {
	var started, ended int
	var restoredTo gesture.State
	s, q, r := newTestScheduler(Hooks{
		OnAnimationStart: func() { started++ },
		OnAnimationEnd:   func(st gesture.State) { ended++; restoredTo = st },
	})

	q.Push(input.Press(input.KeyShift))
	mustUpdate(t, s)
	require.Equal(t, gesture.ShiftHeld, s.Snapshot().State)
	require.Len(t, r.frames, 1)

	q.Push(input.Press(input.KeyD))
	mustUpdate(t, s)

	snap := s.Snapshot()
	assert.Len(t, r.frames, 1+StepGranularity)
	assert.Equal(t, gesture.ShiftHeld, snap.State, "returns to state held before the trigger")
	assert.Equal(t, gesture.ShiftHeld, snap.Previous)
	assert.LessOrEqual(t, snap.Counter, 0)
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, ended)
	assert.Equal(t, gesture.ShiftHeld, restoredTo)

	// d stayed held for the whole run
	assert.InDelta(t, math.Pi/2, snap.Axes.Y, 1e-9)
}

func TestChordInSingleBatch(t *testing.T) {
	s, q, r := newTestScheduler(Hooks{})
	q.Push(input.Press(input.KeyW), input.Press(input.KeyShift))
	mustUpdate(t, s)

	assert.Len(t, r.frames, StepGranularity)
	assert.Equal(t, gesture.MoveKeyHeld, s.Snapshot().State)
	assert.InDelta(t, math.Pi/2, s.Snapshot().Axes.X, 1e-9)
}

func TestCounterObservedDuringAnimation(t *testing.T) {
	var counters []int
	var states []gesture.State
	s, q, _ := newTestScheduler(Hooks{
		OnFrame: func(sn Snapshot) {
			counters = append(counters, sn.Counter)
			states = append(states, sn.State)
		},
	})
	q.Push(input.Press(input.KeyShift), input.Press(input.KeyQ))
	mustUpdate(t, s)

	require.Len(t, counters, StepGranularity)
	assert.Equal(t, StepGranularity, counters[0], "first frame sees the full budget")
	assert.Equal(t, 1, counters[len(counters)-1])
	for _, st := range states {
		assert.Equal(t, gesture.Animating, st)
	}
}

func TestReleaseBeforeTickCancelsTrigger(t *testing.T) {
	s, q, r := newTestScheduler(Hooks{})
	q.Push(input.Press(input.KeyShift), input.Press(input.KeyD), input.Release(input.KeyShift))
	mustUpdate(t, s)

	assert.Len(t, r.frames, 1)
	assert.Equal(t, gesture.MoveKeyHeld, s.Snapshot().State)
}

func TestRotationAccumulation(t *testing.T) {
	s, q, r := newTestScheduler(Hooks{})
	q.Push(input.Press(input.KeyW))
	for i := 0; i < StepGranularity; i++ {
		mustUpdate(t, s)
	}
	require.Len(t, r.frames, StepGranularity)
	snap := s.Snapshot()
	assert.Equal(t, Intent{X: 1}, snap.Intent)
	assert.InDelta(t, math.Pi/2, snap.Axes.X, 1e-9)
	assert.Zero(t, snap.Axes.Y)
	assert.Zero(t, snap.Axes.Z)
}

func TestZeroIntentNeverMoves(t *testing.T) {
	s, _, _ := newTestScheduler(Hooks{})
	for i := 0; i < 2500; i++ {
		mustUpdate(t, s)
	}
	assert.Equal(t, Axes{}, s.Snapshot().Axes)
}

func TestIntentDirectionsAndRelease(t *testing.T) {
	s, q, _ := newTestScheduler(Hooks{})
	q.Push(input.Press(input.KeyS), input.Press(input.KeyA), input.Press(input.KeyE))
	mustUpdate(t, s)
	assert.Equal(t, Intent{X: -1, Y: -1, Z: 1}, s.Snapshot().Intent)

	q.Push(input.Release(input.KeyS), input.Press(input.KeyD), input.Press(input.KeyQ))
	mustUpdate(t, s)
	assert.Equal(t, Intent{X: 0, Y: 1, Z: -1}, s.Snapshot().Intent)
}

func TestResetKeepsGestureState(t *testing.T) {
	for _, pre := range [][]input.Event{
		nil,
		{input.Press(input.KeyShift)},
		{input.Press(input.KeyW)},
	} {
		var resets int
		s, q, _ := newTestScheduler(Hooks{OnReset: func() { resets++ }})
		q.Push(pre...)
		q.Push(input.Press(input.KeyE))
		mustUpdate(t, s)
		mustUpdate(t, s)
		before := s.Snapshot().State

		q.Push(input.Press(input.KeyR))
		mustUpdate(t, s)

		snap := s.Snapshot()
		assert.Equal(t, before, snap.State)
		assert.Equal(t, Axes{}, snap.Axes)
		assert.Equal(t, Intent{}, snap.Intent)
		assert.Equal(t, 1, resets)
	}
}

func TestExitBeforeAnyFrame(t *testing.T) {
	for _, ev := range []input.Event{input.CloseEvent(), input.Press(input.KeySpace)} {
		s, q, r := newTestScheduler(Hooks{})
		q.Push(input.Press(input.KeyW), ev, input.Press(input.KeyR))
		exit, err := s.Update()
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Empty(t, r.frames)
		assert.Equal(t, gesture.MoveKeyHeld, s.Snapshot().State, "events before the exit are applied")
	}
}

func TestExitDropsRestOfBatch(t *testing.T) {
	var started int
	s, q, r := newTestScheduler(Hooks{OnAnimationStart: func() { started++ }})
	q.Push(input.Press(input.KeySpace), input.Press(input.KeyShift), input.Press(input.KeyD))

	exit, err := s.Update()
	require.NoError(t, err)
	require.True(t, exit)
	assert.Zero(t, q.Len(), "events behind the exit are consumed")

	mustUpdate(t, s)
	assert.Equal(t, gesture.Initial, s.Snapshot().State)
	assert.Zero(t, started, "a chord queued behind the exit never triggers")
	assert.Len(t, r.frames, 1)
}

func TestSpaceReleaseDoesNotExit(t *testing.T) {
	s, q, r := newTestScheduler(Hooks{})
	q.Push(input.Release(input.KeySpace))
	mustUpdate(t, s)
	assert.Len(t, r.frames, 1)
}

func TestSubmitErrorIsFatal(t *testing.T) {
	s, q, r := newTestScheduler(Hooks{})
	r.failAt = 10
	q.Push(input.Press(input.KeyShift), input.Press(input.KeyW))
	exit, err := s.Update()
	require.Error(t, err)
	assert.False(t, exit)
	assert.Len(t, r.frames, 10, "no retry after failure")
}

func TestTransitionHookSequence(t *testing.T) {
	var seen []string
	s, q, _ := newTestScheduler(Hooks{
		OnTransition: func(from, to gesture.State) { seen = append(seen, string(from)+">"+string(to)) },
	})
	q.Push(input.Press(input.KeyW), input.Press(input.KeyShift))
	mustUpdate(t, s)
	assert.Equal(t, []string{
		"initial>move_key_held",
		"move_key_held>animation_triggered",
		"animation_triggered>animating",
		"animating>move_key_held",
	}, seen)
}

func TestTransformOrder(t *testing.T) {
	m := Transform(Axes{X: math.Pi / 2})
	v := m.Mul4x1(mgl64.Vec4{0, 1, 0, 1})
	assert.InDelta(t, 0, v.Y(), 1e-12)
	assert.InDelta(t, 1, v.Z(), 1e-12)

	assert.True(t, Transform(Axes{}).ApproxEqual(mgl64.Ident4()))
}
