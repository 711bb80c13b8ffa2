package geometry

import "math"

type LineSegment struct {
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
}

func (s LineSegment) Length() float64 {
	return Distance(s.P1, s.P2)
}

func (s LineSegment) Midpoint() Point {
	return Midpoint(s.P1, s.P2)
}

// Slope is +Inf for vertical segments.
func (s LineSegment) Slope() float64 {
	if s.P1.X == s.P2.X {
		return math.Inf(1)
	}
	return (s.P1.Y - s.P2.Y) / (s.P1.X - s.P2.X)
}

func (s LineSegment) IsParallel(o LineSegment) bool {
	return s.Slope() == o.Slope()
}

// Intersection returns the crossing point of the lines supporting both
// segments. It returns false for parallel or degenerate segments.
func (s LineSegment) Intersection(o LineSegment) (Point, bool) {
	if s.IsParallel(o) {
		return Point{}, false
	}
	x1, y1, x2, y2 := s.P1.X, s.P1.Y, s.P2.X, s.P2.Y
	x3, y3, x4, y4 := o.P1.X, o.P1.Y, o.P2.X, o.P2.Y

	denominator := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if denominator == 0 {
		return Point{}, false
	}
	d1 := x1*y2 - y1*x2
	d2 := x3*y4 - y3*x4
	return Point{
		X: (d1*(x3-x4) - (x1-x2)*d2) / denominator,
		Y: (d1*(y3-y4) - (y1-y2)*d2) / denominator,
	}, true
}
