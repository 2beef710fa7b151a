package render

import "math"

// Rasterize walks every segment of f with Bresenham's algorithm and calls plot
// for each covered unit inside [0,w)×[0,h).
func Rasterize(f Frame, w, h int, plot func(x, y int, c Color, depth float64)) {
	for _, s := range f.Segments {
		x0, y0 := int(math.Round(s.X0)), int(math.Round(s.Y0))
		x1, y1 := int(math.Round(s.X1)), int(math.Round(s.Y1))
		line(x0, y0, x1, y1, func(x, y int) {
			if x >= 0 && x < w && y >= 0 && y < h {
				plot(x, y, s.Color, s.Depth)
			}
		})
	}
}

func line(x0, y0, x1, y1 int, put func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		put(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
