package geometry

import "math"

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func Distance(p, q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func Midpoint(p, q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Polar returns the point at distance r and angle theta from the origin point.
func Polar(origin Point, r, theta float64) Point {
	return Point{
		X: origin.X + r*math.Cos(theta),
		Y: origin.Y + r*math.Sin(theta),
	}
}

// Centroid returns the arithmetic mean of points. It returns false for an empty input.
func Centroid(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(points))
	return Point{X: sx / n, Y: sy / n}, true
}

func (p Point) Pair() [2]float64 {
	return [2]float64{p.X, p.Y}
}

func FromPair(v [2]float64) Point {
	return Point{X: v[0], Y: v[1]}
}
