package network

import (
	"adhocnet/internal/diskgraph"
	"adhocnet/internal/geometry"
)

// HaloPair is one pair of overlapping sensing disks, one from each side of a
// connectivity gap.
type HaloPair struct {
	A     diskgraph.VertexID
	B     diskgraph.VertexID
	AHalo geometry.Circle
	BHalo geometry.Circle
}

func (p HaloPair) Circles() []geometry.Circle {
	return []geometry.Circle{p.AHalo, p.BHalo}
}

type ComponentIntersection struct {
	First  diskgraph.Component
	Second diskgraph.Component
	Pairs  []HaloPair
}

// IntersectingComponents lists every pair of distinct components where at
// least one sensing disk of the first overlaps a sensing disk of the second.
func (n *Network) IntersectingComponents() []ComponentIntersection {
	components := n.graph.Components()
	var out []ComponentIntersection
	for i := 0; i < len(components); i++ {
		for j := i + 1; j < len(components); j++ {
			pairs := n.HaloIntersections(components[i], components[j])
			if len(pairs) == 0 {
				continue
			}
			out = append(out, ComponentIntersection{
				First:  components[i],
				Second: components[j],
				Pairs:  pairs,
			})
		}
	}
	return out
}

func (n *Network) HaloIntersections(first, second diskgraph.Component) []HaloPair {
	var out []HaloPair
	for _, a := range first {
		va, ok := n.graph.Vertex(a)
		if !ok {
			continue
		}
		for _, b := range second {
			vb, ok := n.graph.Vertex(b)
			if !ok || a == b {
				continue
			}
			ca, cb := va.HaloCircle(), vb.HaloCircle()
			if ca == cb || !ca.Intersects(cb) {
				continue
			}
			out = append(out, HaloPair{A: a, B: b, AHalo: ca, BHalo: cb})
		}
	}
	return out
}
