package evo

import (
	"context"
	"fmt"
	"math/rand"

	"adhocnet/internal/diskgraph"
	"adhocnet/internal/geometry"
	"adhocnet/internal/network"
)

type haloKey struct {
	a diskgraph.VertexID
	b diskgraph.VertexID
}

func keyOf(pair network.HaloPair) haloKey {
	if pair.B < pair.A {
		return haloKey{a: pair.B, b: pair.A}
	}
	return haloKey{a: pair.A, b: pair.B}
}

// InsertRelays merges components whose sensing disks overlap, one relay at a
// time, until no overlapping pair can be bridged. A relay is kept only when
// it actually joins the two vertices whose disks produced it; otherwise it
// is removed and that pair is not tried again. Returns the number of relays
// kept.
func InsertRelays(ctx context.Context, rng *rand.Rand, net *network.Network) (int, error) {
	failed := make(map[haloKey]struct{})
	added := 0
	for {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		merged, err := bridgeOnce(rng, net, failed)
		if err != nil {
			return added, err
		}
		if !merged {
			return added, nil
		}
		added++
	}
}

func bridgeOnce(rng *rand.Rand, net *network.Network, failed map[haloKey]struct{}) (bool, error) {
	for _, gap := range net.IntersectingComponents() {
		pairs := append([]network.HaloPair(nil), gap.Pairs...)
		rng.Shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })
		for _, pair := range pairs {
			key := keyOf(pair)
			if _, ok := failed[key]; ok {
				continue
			}
			location, err := geometry.PointInIntersection(pair.Circles())
			if err != nil {
				failed[key] = struct{}{}
				continue
			}
			relay, err := net.AddRelay(location)
			if err != nil {
				return false, fmt.Errorf("insert relay: %w", err)
			}
			if net.Graph().SameComponent(pair.A, pair.B) {
				return true, nil
			}
			if err := net.RemoveRelay(relay); err != nil {
				return false, fmt.Errorf("drop relay: %w", err)
			}
			failed[key] = struct{}{}
		}
	}
	return false, nil
}
