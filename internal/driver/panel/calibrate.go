package panel

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"
)

// Pattern is a wiring check drawn straight to the strip.
type Pattern string

const (
	IndexSweep  Pattern = "index_sweep"  // one white LED walks the strip in wiring order
	RGBChannels Pattern = "rgb_channels" // whole strip red, green, blue
	RowSweep    Pattern = "row_sweep"    // one cyan row at a time, top to bottom
)

func ParsePattern(s string) (Pattern, error) {
	switch p := Pattern(s); p {
	case IndexSweep, RGBChannels, RowSweep:
		return p, nil
	}
	return "", fmt.Errorf("unknown panel pattern %q", s)
}

// Runner steps through one pattern.
type Runner struct {
	pattern Pattern
	step    int
}

func NewRunner(p Pattern) *Runner { return &Runner{pattern: p} }

// Step fills strip with the next pattern frame; false when the pattern is done.
func (r *Runner) Step(p *Panel, strip *image.NRGBA) bool {
	n := p.grid.Count()
	for i := range strip.Pix {
		strip.Pix[i] = 0
	}
	switch r.pattern {
	case IndexSweep:
		if r.step >= n {
			return false
		}
		strip.SetNRGBA(r.step, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	case RGBChannels:
		if r.step >= 3 {
			return false
		}
		c := [3]color.NRGBA{{R: 255, A: 255}, {G: 255, A: 255}, {B: 255, A: 255}}[r.step]
		for i := 0; i < n; i++ {
			strip.SetNRGBA(i, 0, c)
		}
	case RowSweep:
		if r.step >= p.grid.H {
			return false
		}
		for x := 0; x < p.grid.W; x++ {
			strip.SetNRGBA(p.grid.Index(x, r.step), 0, color.NRGBA{G: 255, B: 255, A: 255})
		}
	default:
		return false
	}
	r.step++
	return true
}

// Calibrate draws pattern one step per interval, bypassing the frame
// throttle, and blanks the strip when done or when ctx ends.
func (p *Panel) Calibrate(ctx context.Context, pattern Pattern, interval time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.drawer.Halt()

	r := NewRunner(pattern)
	strip := image.NewNRGBA(p.strip.Rect)
	for r.Step(p, strip) {
		if err := p.drawer.Draw(p.drawer.Bounds(), strip, image.Point{}); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-p.clock.After(interval):
		}
	}
	return nil
}
