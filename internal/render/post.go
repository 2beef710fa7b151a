package render

import "math"

// Background is the color far edges fade toward.
var Background = Color{}

// DepthCue dims each segment toward Background in proportion to its depth and
// scales by the global brightness.
// Reads "DepthCue" from u.Params (0 disables, default 0.6).
func DepthCue(segs []Segment, u *Uniforms) {
	amount := clamp01f(u.param("DepthCue", 0.6))
	bright := float32(1.0)
	if u != nil && u.GlobalBrightness > 0 {
		bright = float32(u.GlobalBrightness)
	}
	for i := range segs {
		c := Mix(segs[i].Color, Background, amount*segs[i].Depth)
		c.R *= bright
		c.G *= bright
		c.B *= bright
		segs[i].Color = c
	}
}

// FilmicToneMap applies exposure, an ACES approximation and output gamma.
// Reads from u.Params:
//   - "ExposureEV" (default 0)
//   - "OutputGamma" (default 2.2)
func FilmicToneMap(segs []Segment, u *Uniforms) {
	exposure := float32(math.Pow(2.0, u.param("ExposureEV", 0)))
	gamma := u.param("OutputGamma", 2.2)
	if gamma <= 0 {
		gamma = 2.2
	}
	ig := 1.0 / gamma

	for i := range segs {
		c := segs[i].Color
		r := acesApprox(c.R * exposure)
		g := acesApprox(c.G * exposure)
		b := acesApprox(c.B * exposure)
		if gamma != 1.0 {
			r = powf(r, ig)
			g = powf(g, ig)
			b = powf(b, ig)
		}
		segs[i].Color = Color{R: clamp01(r), G: clamp01(g), B: clamp01(b)}
	}
}

// PostPipeline groups post stages; all are optional.
type PostPipeline struct {
	Cue     func([]Segment, *Uniforms)
	ToneMap func([]Segment, *Uniforms)
}

func DefaultPost() PostPipeline {
	return PostPipeline{Cue: DepthCue, ToneMap: FilmicToneMap}
}

func (p PostPipeline) apply(segs []Segment, u *Uniforms) {
	if p.Cue != nil {
		p.Cue(segs, u)
	}
	if p.ToneMap != nil {
		p.ToneMap(segs, u)
	}
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func powf(x float32, p float64) float32 {
	return float32(math.Pow(float64(x), p))
}

// Approximate ACES filmic curve (Narkowicz 2015).
func acesApprox(x float32) float32 {
	a := float32(2.51)
	b := float32(0.03)
	c := float32(2.43)
	d := float32(0.59)
	e := float32(0.14)
	return clamp01((x * (a*x + b)) / (x*(c*x+d) + e))
}
