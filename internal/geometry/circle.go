package geometry

import (
	"errors"
	"math"
)

var (
	ErrCoincidentCircles = errors.New("circles share the same center")
	ErrNoIntersection    = errors.New("circles do not intersect")
	ErrContainedCircle   = errors.New("circle lies inside the other circle")
)

type Circle struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
}

func (c Circle) Contains(p Point) bool {
	return Distance(c.Center, p) <= c.Radius
}

// Intersects reports whether the two disks overlap. Tangent circles do not count.
func (c Circle) Intersects(o Circle) bool {
	return Distance(c.Center, o.Center) < c.Radius+o.Radius
}

// IntersectionPoints returns the two points where the circle boundaries cross.
func (c Circle) IntersectionPoints(o Circle) ([2]Point, error) {
	d := Distance(c.Center, o.Center)
	if d == 0 {
		return [2]Point{}, ErrCoincidentCircles
	}
	if d >= c.Radius+o.Radius {
		return [2]Point{}, ErrNoIntersection
	}
	if d <= math.Abs(c.Radius-o.Radius) {
		return [2]Point{}, ErrContainedCircle
	}

	a := (c.Radius*c.Radius - o.Radius*o.Radius + d*d) / (2 * d)
	h := math.Sqrt(math.Max(c.Radius*c.Radius-a*a, 0))
	dx := (o.Center.X - c.Center.X) / d
	dy := (o.Center.Y - c.Center.Y) / d
	mid := Point{X: c.Center.X + a*dx, Y: c.Center.Y + a*dy}

	return [2]Point{
		{X: mid.X + h*dy, Y: mid.Y - h*dx},
		{X: mid.X - h*dy, Y: mid.Y + h*dx},
	}, nil
}

// Chord returns the segment joining the two boundary intersection points.
func (c Circle) Chord(o Circle) (LineSegment, error) {
	points, err := c.IntersectionPoints(o)
	if err != nil {
		return LineSegment{}, err
	}
	return LineSegment{P1: points[0], P2: points[1]}, nil
}
