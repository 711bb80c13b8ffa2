package geometry

import (
	"errors"
	"math"
)

// ErrNoRelayPoint is returned when the mutual intersection of a set of disks
// cannot be located.
var ErrNoRelayPoint = errors.New("no valid relay point")

// containmentTolerance absorbs rounding when checking the relay point
// against the disks it was derived from.
const containmentTolerance = 1e-9

// PointInIntersection returns a point inside the region shared by circles.
//
// Two circles yield the midpoint of their chord. With more chords, the
// pairwise crossings of the chord lines are collected and their centroid is
// used once at least three crossings exist. The result is rejected when it
// falls outside any of the circles.
func PointInIntersection(circles []Circle) (Point, error) {
	chords := make([]LineSegment, 0, len(circles))
	for i := 0; i < len(circles); i++ {
		for j := i + 1; j < len(circles); j++ {
			chord, err := circles[i].Chord(circles[j])
			if err != nil {
				continue
			}
			chords = append(chords, chord)
		}
	}

	switch len(chords) {
	case 0:
		return Point{}, ErrNoRelayPoint
	case 1:
		return insideAll(circles, chords[0].Midpoint())
	}

	crossings := make([]Point, 0, len(chords)*(len(chords)-1)/2)
	for i := 0; i < len(chords); i++ {
		for j := i + 1; j < len(chords); j++ {
			p, ok := chords[i].Intersection(chords[j])
			if !ok || math.IsNaN(p.X) || math.IsNaN(p.Y) {
				continue
			}
			crossings = append(crossings, p)
		}
	}
	if len(crossings) < 3 {
		return Point{}, ErrNoRelayPoint
	}
	center, _ := Centroid(crossings)
	return insideAll(circles, center)
}

func insideAll(circles []Circle, p Point) (Point, error) {
	for _, c := range circles {
		if Distance(c.Center, p) > c.Radius+containmentTolerance {
			return Point{}, ErrNoRelayPoint
		}
	}
	return p, nil
}
