package evo

import (
	"math/rand"

	"adhocnet/internal/diskgraph"
	"adhocnet/internal/network"
)

// Crossover builds two offspring. The first takes a random subset of a's
// vertices (up to half, sampled with replacement) plus every vertex of b
// whose id was not taken; the second mirrors it. Offspring vertices are
// clones, so parents are never aliased.
func Crossover(rng *rand.Rand, a, b *network.Network, first, second *rand.Rand) (*network.Network, *network.Network, error) {
	fromA := sampleIDs(rng, a)
	fromB := sampleIDs(rng, b)

	left, err := offspring(a, b, fromA, first)
	if err != nil {
		return nil, nil, err
	}
	right, err := offspring(b, a, fromB, second)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func sampleIDs(rng *rand.Rand, n *network.Network) map[diskgraph.VertexID]struct{} {
	ids := n.Graph().IDs()
	chosen := make(map[diskgraph.VertexID]struct{})
	if len(ids) == 0 {
		return chosen
	}
	k := rng.Intn(len(ids)/2 + 1)
	for i := 0; i < k; i++ {
		chosen[ids[rng.Intn(len(ids))]] = struct{}{}
	}
	return chosen
}

func offspring(primary, complement *network.Network, chosen map[diskgraph.VertexID]struct{}, rng *rand.Rand) (*network.Network, error) {
	vertices := make([]*diskgraph.Vertex, 0, len(chosen)+complement.Graph().Len())
	for _, v := range primary.Graph().Vertices() {
		if _, ok := chosen[v.ID]; ok {
			vertices = append(vertices, v.Clone())
		}
	}
	for _, v := range complement.Graph().Vertices() {
		if _, ok := chosen[v.ID]; !ok {
			vertices = append(vertices, v.Clone())
		}
	}
	return network.FromVertices(primary.Areas(), primary.Graph().Radius(), rng, vertices)
}
