// Package gesture implements the chord recognizer that separates manual
// steering from a triggered auto-rotation. Holding shift then a motion key, or
// a motion key then shift, completes the chord.
package gesture
