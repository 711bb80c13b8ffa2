package fitness

import (
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"adhocnet/internal/diskgraph"
	"adhocnet/internal/network"
)

func Edges() Function {
	return New("edges", Maximize, func(n *network.Network) float64 {
		return float64(n.Graph().EdgeCount())
	})
}

// FewestComponents rewards fewer components first, then more edges.
func FewestComponents() Function {
	return New("fewest_components", Maximize, func(n *network.Network) float64 {
		g := n.Graph()
		components := len(g.Components())
		if components == 0 {
			return 0
		}
		return 1/float64(components) + float64(g.EdgeCount())
	})
}

func SumSquareComponents() Function {
	return New("sum_square_components", Maximize, func(n *network.Network) float64 {
		g := n.Graph()
		total := 0.0
		for _, component := range g.Components() {
			total += float64(len(component) * len(component))
		}
		edges := float64(g.EdgeCount())
		return total + edges*edges
	})
}

// AvgPathLength is the mean hop count between reachable sensor pairs. Relays
// may carry paths but are never endpoints.
func AvgPathLength() Function {
	return New("avg_path_length", Minimize, func(n *network.Network) float64 {
		pairs, sum := 0, 0.0
		sensorHops(n, func(hops float64) {
			pairs++
			sum += hops
		})
		if pairs == 0 {
			return 0
		}
		return sum / float64(pairs)
	})
}

func HarmonicPathLength() Function {
	return New("harmonic_path_length", Minimize, func(n *network.Network) float64 {
		pairs, inverse := 0, 0.0
		sensorHops(n, func(hops float64) {
			pairs++
			inverse += 1 / hops
		})
		if inverse == 0 {
			return 0
		}
		return float64(pairs) / inverse
	})
}

// sensorHops calls visit with the hop distance of every reachable unordered
// pair of non-relay vertices.
func sensorHops(n *network.Network, visit func(hops float64)) {
	g := n.Graph()
	ids := g.IDs()
	index := make(map[diskgraph.VertexID]int64, len(ids))
	ug := simple.NewUndirectedGraph()
	for i, id := range ids {
		index[id] = int64(i)
		ug.AddNode(simple.Node(i))
	}
	for _, e := range g.Edges() {
		ug.SetEdge(ug.NewEdge(simple.Node(index[e.A]), simple.Node(index[e.B])))
	}

	sensors := n.Sensors()
	for i, from := range sensors {
		shortest := path.DijkstraFrom(simple.Node(index[from.ID]), ug)
		for _, to := range sensors[i+1:] {
			hops := shortest.WeightTo(index[to.ID])
			if math.IsInf(hops, 1) {
				continue
			}
			visit(hops)
		}
	}
}
