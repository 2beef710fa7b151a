// Package layout maps panel coordinates onto the linear pixel order of an LED
// strip wired in rows.
package layout

import "fmt"

// Grid is a W x H matrix of LEDs. With Serpentine set every odd row runs
// right to left. FlipY puts row 0 at the bottom of the panel.
type Grid struct {
	W, H       int
	Serpentine bool
	FlipY      bool
}

func (g Grid) Validate() error {
	if g.W <= 0 || g.H <= 0 {
		return fmt.Errorf("grid %dx%d: dimensions must be positive", g.W, g.H)
	}
	return nil
}

// Index maps x,y in screen space (y down) to the strip index 0..Count()-1.
func (g Grid) Index(x, y int) int {
	if g.FlipY {
		y = g.H - 1 - y
	}
	if g.Serpentine && y%2 == 1 {
		x = g.W - 1 - x
	}
	return y*g.W + x
}

func (g Grid) Count() int {
	return g.W * g.H
}
