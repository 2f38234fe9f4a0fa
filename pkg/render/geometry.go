package render

import "github.com/golang/geo/r3"

// Segment is a model-space line.
type Segment struct {
	A, B r3.Vector
}

// glyph returns the line segments of a model's wireframe. size is the marker
// width in model units. The glyph sits on the marker plane and rises along +Z.
func glyph(m Model, size float64) []Segment {
	h := size / 2
	top := size * m.Height

	base := [4]r3.Vector{
		{X: -h, Y: -h}, {X: h, Y: -h}, {X: h, Y: h}, {X: -h, Y: h},
	}

	var segs []Segment
	for i := 0; i < 4; i++ {
		segs = append(segs, Segment{base[i], base[(i+1)%4]})
	}

	switch m.Shape {
	case ShapePyramid:
		apex := r3.Vector{Z: top}
		for i := 0; i < 4; i++ {
			segs = append(segs, Segment{base[i], apex})
		}
	case ShapeAxes:
		return segs
	default:
		for i := 0; i < 4; i++ {
			a := base[i].Add(r3.Vector{Z: top})
			b := base[(i+1)%4].Add(r3.Vector{Z: top})
			segs = append(segs, Segment{a, b}, Segment{base[i], a})
		}
	}
	return segs
}

// axes returns the X, Y and Z unit axes scaled to length.
func axes(length float64) [3]Segment {
	return [3]Segment{
		{B: r3.Vector{X: length}},
		{B: r3.Vector{Y: length}},
		{B: r3.Vector{Z: length}},
	}
}
