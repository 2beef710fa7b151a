package render

import "github.com/go-gl/mathgl/mgl64"

// Mesh is a wireframe: vertices plus index pairs.
type Mesh struct {
	Vertices []mgl64.Vec3
	Edges    [][2]int
	Colors   []Color // one per edge
}

var (
	red   = Color{R: 1, G: 0.25, B: 0.2}
	green = Color{R: 0.3, G: 1, B: 0.35}
	blue  = Color{R: 0.3, G: 0.5, B: 1}
)

// Cube returns the fixed unit cube centred on the origin. Edges parallel to X
// are red, to Y green and to Z blue.
func Cube() Mesh {
	v := make([]mgl64.Vec3, 0, 8)
	for i := 0; i < 8; i++ {
		v = append(v, mgl64.Vec3{
			float64(i&1)*2 - 1,
			float64((i>>1)&1)*2 - 1,
			float64((i>>2)&1)*2 - 1,
		})
	}
	m := Mesh{Vertices: v}
	for i := 0; i < 8; i++ {
		for bit, c := range []Color{red, green, blue} {
			j := i | 1<<bit
			if j != i {
				m.Edges = append(m.Edges, [2]int{i, j})
				m.Colors = append(m.Colors, c)
			}
		}
	}
	return m
}
