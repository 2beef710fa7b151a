// Package scheduler owns the rotation accumulators and drives one host tick:
// drain input, advance the gesture machine, apply direct key effects, and
// submit one frame, or a full auto-rotation run when a chord fired.
package scheduler

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-spincube/internal/gesture"
	"github.com/coreman2200/funtimes-spincube/internal/input"
)

const (
	// StepGranularity divides one AngularUnit into discrete steps and is also
	// the number of frames a triggered animation runs for.
	StepGranularity = 1000
	// AngularUnit is the rotation covered by StepGranularity steps at full intent.
	AngularUnit = math.Pi / 2
	// AnimationBudget is the countdown loaded on entry to Animating.
	AnimationBudget = StepGranularity
)

// Axes are accumulated rotation angles in radians. They are never clamped.
type Axes struct{ X, Y, Z float64 }

// Intent holds the held direction per axis, each in {-1, 0, 1}.
type Intent struct{ X, Y, Z int }

// Renderer presents one frame for a model transform. Errors are fatal.
type Renderer interface {
	SubmitFrame(transform mgl64.Mat4) error
}

// Snapshot is a consistent copy of scheduler state.
type Snapshot struct {
	Axes     Axes
	Intent   Intent
	State    gesture.State
	Previous gesture.State
	// Counter is only meaningful while State == gesture.Animating.
	Counter int
	Frames  uint64
}

// Hooks are optional callbacks fired outside the state lock.
type Hooks struct {
	OnTransition     func(from, to gesture.State)
	OnAnimationStart func()
	OnAnimationEnd   func(restored gesture.State)
	OnReset          func()
	OnFrame          func(s Snapshot)
}

// Scheduler is not meant to be shared between host loops, but Snapshot may be
// called from any goroutine.
type Scheduler struct {
	src   input.Source
	r     Renderer
	hooks Hooks
	log   zerolog.Logger

	// mu makes each read-modify-write of the state/previous pair a single step.
	mu       sync.Mutex
	state    gesture.State
	previous gesture.State
	counter  int
	axes     Axes
	intent   Intent
	frames   uint64
}

// New returns a scheduler in the Initial state with zeroed axes.
func New(src input.Source, r Renderer, h Hooks, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		src:      src,
		r:        r,
		hooks:    h,
		log:      log.With().Str("component", "scheduler").Logger(),
		state:    gesture.Initial,
		previous: gesture.Initial,
	}
}

// Update runs one host tick. It reports exit=true when a close event or the
// exit key is seen, before any frame is submitted for this tick. Events queued
// behind the exit are consumed and dropped. A renderer error aborts the tick
// and is returned unchanged.
func (s *Scheduler) Update() (exit bool, err error) {
	for ev := range s.src.PollEvents() {
		if exit {
			continue
		}
		if ev.Kind == input.Close || (ev.Kind == input.KeyPress && ev.Key == input.KeySpace) {
			s.log.Debug().Str("event", ev.Kind.String()).Msg("exit requested")
			exit = true
			continue
		}
		s.apply(ev)
	}
	if exit {
		return true, nil
	}

	s.mu.Lock()
	started := s.state == gesture.AnimationTriggered
	if started {
		s.counter = AnimationBudget
		s.state = gesture.Animating
	}
	s.mu.Unlock()
	if started {
		s.log.Debug().Int("budget", AnimationBudget).Msg("animation started")
		s.fireTransition(gesture.AnimationTriggered, gesture.Animating)
		if s.hooks.OnAnimationStart != nil {
			s.hooks.OnAnimationStart()
		}
	}

	for {
		if err := s.submit(); err != nil {
			return false, err
		}

		s.mu.Lock()
		if s.state != gesture.Animating {
			s.mu.Unlock()
			return false, nil
		}
		s.counter--
		if s.counter > 0 {
			s.mu.Unlock()
			continue
		}
		restored := s.previous
		s.state = restored
		s.mu.Unlock()

		s.log.Debug().Str("restored", string(restored)).Msg("animation finished")
		s.fireTransition(gesture.Animating, restored)
		if s.hooks.OnAnimationEnd != nil {
			s.hooks.OnAnimationEnd(restored)
		}
		return false, nil
	}
}

// apply folds one non-exit event into the state.
func (s *Scheduler) apply(ev input.Event) {
	s.mu.Lock()
	from := s.state
	to := gesture.Transition(from, ev)
	if to != from {
		s.previous = from
		s.state = to
	}
	if gesture.IsMotion(ev.Key) {
		switch ev.Kind {
		case input.KeyPress:
			s.intent.set(ev.Key, direction(ev.Key))
		case input.KeyRelease:
			s.intent.set(ev.Key, 0)
		}
	}
	reset := ev.Kind == input.KeyPress && ev.Key == input.KeyR
	if reset {
		s.axes = Axes{}
		s.intent = Intent{}
	}
	s.mu.Unlock()

	if to != from {
		s.log.Debug().Str("from", string(from)).Str("to", string(to)).
			Str("key", ev.Key.String()).Str("kind", ev.Kind.String()).Msg("gesture")
		s.fireTransition(from, to)
	}
	if reset && s.hooks.OnReset != nil {
		s.hooks.OnReset()
	}
}

func (s *Scheduler) submit() error {
	s.mu.Lock()
	s.axes.X += AngularUnit * float64(s.intent.X) / StepGranularity
	s.axes.Y += AngularUnit * float64(s.intent.Y) / StepGranularity
	s.axes.Z += AngularUnit * float64(s.intent.Z) / StepGranularity
	m := Transform(s.axes)
	s.frames++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.r.SubmitFrame(m); err != nil {
		return err
	}
	if s.hooks.OnFrame != nil {
		s.hooks.OnFrame(snap)
	}
	return nil
}

func (s *Scheduler) fireTransition(from, to gesture.State) {
	if s.hooks.OnTransition != nil {
		s.hooks.OnTransition(from, to)
	}
}

// Snapshot copies the current state. It is safe to call from another goroutine.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Scheduler) snapshotLocked() Snapshot {
	return Snapshot{
		Axes:     s.axes,
		Intent:   s.intent,
		State:    s.state,
		Previous: s.previous,
		Counter:  s.counter,
		Frames:   s.frames,
	}
}

// Transform builds the model matrix for the given angles, rotating about X
// first, then Y, then Z.
func Transform(a Axes) mgl64.Mat4 {
	return mgl64.HomogRotate3DZ(a.Z).
		Mul4(mgl64.HomogRotate3DY(a.Y)).
		Mul4(mgl64.HomogRotate3DX(a.X))
}

// direction returns the intent value a motion key sets on its axis.
func direction(k input.Key) int {
	switch k {
	case input.KeyW, input.KeyD, input.KeyE:
		return 1
	case input.KeyS, input.KeyA, input.KeyQ:
		return -1
	}
	return 0
}

func (in *Intent) set(k input.Key, v int) {
	switch k {
	case input.KeyW, input.KeyS:
		in.X = v
	case input.KeyD, input.KeyA:
		in.Y = v
	case input.KeyE, input.KeyQ:
		in.Z = v
	}
}
