package render

// Mix blends a toward b by alpha (0..1), channel-wise in linear space.
func Mix(a, b Color, alpha float64) Color {
	if alpha <= 0 {
		return a
	}
	if alpha >= 1 {
		return b
	}
	af := float32(1.0 - alpha)
	bf := float32(alpha)
	return Color{
		R: a.R*af + b.R*bf,
		G: a.G*af + b.G*bf,
		B: a.B*af + b.B*bf,
	}
}
