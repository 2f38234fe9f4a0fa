// Package marker defines fiducial marker detections and best-match selection.
package marker

import (
	"math"

	"github.com/golang/geo/r2"
)

// Marker is one fiducial detection in a single frame.
// It is produced by a detector backend and discarded after association.
type Marker struct {
	ID         int         // Decoded marker identifier
	Confidence float64     // Detector-assigned match quality (0-1)
	Corners    [4]r2.Point // Image corners in pixels, clockwise from top-left
}

// Center returns the mean of the four corners.
func (m Marker) Center() r2.Point {
	var c r2.Point
	for _, p := range m.Corners {
		c = c.Add(p)
	}
	return c.Mul(0.25)
}

// Area returns the quad area in square pixels (shoelace formula).
func (m Marker) Area() float64 {
	var s float64
	for i := range m.Corners {
		a := m.Corners[i]
		b := m.Corners[(i+1)%4]
		s += a.Cross(b)
	}
	return math.Abs(s) / 2
}

// Squareness scores how close the quad is to a square, in [0, 1].
// It is the ratio of shortest to longest edge times the ratio of the diagonals.
func Squareness(corners [4]r2.Point) float64 {
	minEdge, maxEdge := math.Inf(1), 0.0
	for i := range corners {
		e := corners[(i+1)%4].Sub(corners[i]).Norm()
		minEdge = math.Min(minEdge, e)
		maxEdge = math.Max(maxEdge, e)
	}
	if maxEdge == 0 {
		return 0
	}

	d1 := corners[2].Sub(corners[0]).Norm()
	d2 := corners[3].Sub(corners[1]).Norm()
	diag := math.Min(d1, d2) / math.Max(d1, d2)
	if math.IsNaN(diag) {
		return 0
	}
	return (minEdge / maxEdge) * diag
}

// SelectBest returns the index of the detection with the given id and the
// strictly highest confidence, or -1 when none matches. Equal confidences keep
// the first one in detector order.
func SelectBest(markers []Marker, id int) int {
	best := -1
	for j := range markers {
		if markers[j].ID != id {
			continue
		}
		if best == -1 || markers[j].Confidence > markers[best].Confidence {
			best = j
		}
	}
	return best
}

// CountByID counts detections per identifier.
func CountByID(markers []Marker) map[int]int {
	counts := make(map[int]int, len(markers))
	for _, m := range markers {
		counts[m.ID]++
	}
	return counts
}
