package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective look-at camera.
type Camera struct {
	Eye, Center, Up mgl64.Vec3
	FovY            float64 // radians
	Near, Far       float64
}

func DefaultCamera() Camera {
	return Camera{
		Eye:    mgl64.Vec3{0, 0, 5},
		Center: mgl64.Vec3{0, 0, 0},
		Up:     mgl64.Vec3{0, 1, 0},
		FovY:   mgl64.DegToRad(45),
		Near:   0.1,
		Far:    50,
	}
}

// Project transforms mesh edges through projection*view*model into a w×h
// driver area. unitAspect is the height/width ratio of one driver unit.
// Depth is normalized over the visible vertices of this frame, so the nearest
// edge is 0 and the farthest 1. An edge with either endpoint behind the camera
// is dropped.
func (c Camera) Project(m Mesh, model mgl64.Mat4, w, h int, unitAspect float64) []Segment {
	if w <= 0 || h <= 0 {
		return nil
	}
	if unitAspect <= 0 {
		unitAspect = 1
	}
	aspect := float64(w) / (float64(h) * unitAspect)
	mvp := mgl64.Perspective(c.FovY, aspect, c.Near, c.Far).
		Mul4(mgl64.LookAtV(c.Eye, c.Center, c.Up)).
		Mul4(model)

	type pt struct {
		x, y, dist float64
		ok         bool
	}
	pts := make([]pt, len(m.Vertices))
	minD, maxD := math.Inf(1), math.Inf(-1)
	for i, v := range m.Vertices {
		clip := mvp.Mul4x1(v.Vec4(1))
		if clip.W() <= 0 {
			continue
		}
		ndc := clip.Vec3().Mul(1 / clip.W())
		// w of a perspective clip coordinate is the distance along the view axis
		pts[i] = pt{
			x:    (ndc.X() + 1) / 2 * float64(w-1),
			y:    (1 - ndc.Y()) / 2 * float64(h-1),
			dist: clip.W(),
			ok:   true,
		}
		minD = math.Min(minD, clip.W())
		maxD = math.Max(maxD, clip.W())
	}
	span := maxD - minD
	if span <= 0 {
		span = 1
	}

	segs := make([]Segment, 0, len(m.Edges))
	for i, e := range m.Edges {
		a, b := pts[e[0]], pts[e[1]]
		if !a.ok || !b.ok {
			continue
		}
		col := Color{R: 1, G: 1, B: 1}
		if i < len(m.Colors) {
			col = m.Colors[i]
		}
		segs = append(segs, Segment{
			X0: a.x, Y0: a.y, X1: b.x, Y1: b.y,
			Depth: clamp01f(((a.dist+b.dist)/2 - minD) / span),
			Color: col,
		})
	}
	return segs
}

func clamp01f(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
