package render

import "github.com/go-gl/mathgl/mgl64"

type Color struct{ R, G, B float32 }

// Segment is one projected edge in driver space. Depth is 0 at the near plane
// and 1 at the far plane.
type Segment struct {
	X0, Y0, X1, Y1 float64
	Depth          float64
	Color          Color
}

// Frame is what drivers receive on every submission.
type Frame struct {
	Seq      uint64
	Model    mgl64.Mat4
	Width    int
	Height   int
	Segments []Segment
}

// Uniforms carry post-processing parameters. Recognized Params:
//   - "DepthCue" 0..1, how much the far edges are dimmed (default 0.6)
//   - "ExposureEV" (default 0)
//   - "OutputGamma" (default 2.2)
type Uniforms struct {
	GlobalBrightness float64
	Params           map[string]float64
}

func DefaultUniforms() *Uniforms {
	return &Uniforms{
		GlobalBrightness: 1.0,
		Params: map[string]float64{
			"DepthCue":    0.6,
			"ExposureEV":  0,
			"OutputGamma": 2.2,
		},
	}
}

func (u *Uniforms) param(name string, def float64) float64 {
	if u == nil || u.Params == nil {
		return def
	}
	if v, ok := u.Params[name]; ok {
		return v
	}
	return def
}

// Driver is a presentation sink.
type Driver interface {
	// Size is the drawable area in driver units (cells or pixels).
	Size() (w, h int)
	// Aspect is the height/width ratio of one driver unit; terminal cells are
	// roughly twice as tall as they are wide.
	Aspect() float64
	Write(f Frame) error
}
