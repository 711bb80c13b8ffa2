package analysis

import (
	"math/rand"

	"adhocnet/internal/network"
)

// ResiliencePoint is the size of the largest component after Removed random
// vertex failures.
type ResiliencePoint struct {
	Removed          int `json:"removed"`
	LargestComponent int `json:"largest_component"`
}

// Resilience knocks out random vertices of a copy of net one at a time until
// none remain, recording the largest component before each removal. The
// input network is left untouched.
func Resilience(net *network.Network, rng *rand.Rand) []ResiliencePoint {
	g := net.Clone(rng).Graph()
	points := make([]ResiliencePoint, 0, g.Len())
	for removed := 0; g.Len() > 0; removed++ {
		largest := 0
		for _, component := range g.Components() {
			if len(component) > largest {
				largest = len(component)
			}
		}
		points = append(points, ResiliencePoint{Removed: removed, LargestComponent: largest})

		ids := g.IDs()
		if err := g.RemoveVertex(ids[rng.Intn(len(ids))]); err != nil {
			break
		}
	}
	return points
}
