package gesture

import "github.com/coreman2200/funtimes-spincube/internal/input"

// State enumerates gesture states.
type State string

const (
	Initial            State = "initial"
	ShiftHeld          State = "shift_held"
	MoveKeyHeld        State = "move_key_held"
	AnimationTriggered State = "animation_triggered"
	Animating          State = "animating"
)

// States lists every state in declaration order.
var States = []State{Initial, ShiftHeld, MoveKeyHeld, AnimationTriggered, Animating}

// IsModifier reports whether k belongs to the modifier set.
func IsModifier(k input.Key) bool { return k == input.KeyShift }

// IsMotion reports whether k is one of the six rotation keys.
func IsMotion(k input.Key) bool {
	switch k {
	case input.KeyW, input.KeyS, input.KeyD, input.KeyA, input.KeyQ, input.KeyE:
		return true
	}
	return false
}

// Transition maps (state, event) to the next state. It is total: keys outside
// the modifier and motion sets, and non-key events, leave s unchanged.
//
// Releasing one key of a completed chord falls back to the fixed sibling state
// for the key assumed still held; live key state is not consulted.
func Transition(s State, ev input.Event) State {
	var press bool
	switch ev.Kind {
	case input.KeyPress:
		press = true
	case input.KeyRelease:
	default:
		return s
	}

	mod, motion := IsModifier(ev.Key), IsMotion(ev.Key)
	if !mod && !motion {
		return s
	}

	switch s {
	case Initial:
		if press && mod {
			return ShiftHeld
		}
		if press && motion {
			return MoveKeyHeld
		}
	case ShiftHeld:
		if press && motion {
			return AnimationTriggered
		}
		if !press && mod {
			return Initial
		}
	case MoveKeyHeld:
		if press && mod {
			return AnimationTriggered
		}
		if !press && motion {
			return Initial
		}
	case AnimationTriggered:
		if !press && mod {
			return MoveKeyHeld
		}
		if !press && motion {
			return ShiftHeld
		}
	case Animating:
		// only countdown exhaustion leaves Animating
	}
	return s
}
