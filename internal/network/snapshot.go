package network

import (
	"fmt"
	"math/rand"

	"adhocnet/internal/diskgraph"
	"adhocnet/internal/geometry"
	"adhocnet/internal/model"
)

// Snapshot captures the areas, vertices and edges of the network. Edges are
// informational; FromSnapshot derives them again from the locations.
func (n *Network) Snapshot() model.NetworkSnapshot {
	areas := make([]model.InterestAreaRecord, 0, len(n.areas))
	for _, area := range n.areas {
		areas = append(areas, area.Record())
	}
	vertices := make([]model.VertexRecord, 0, n.graph.Len())
	for _, v := range n.graph.Vertices() {
		rec := model.VertexRecord{
			ID:       string(v.ID),
			Location: v.Location.Pair(),
			IsRelay:  v.IsRelay,
			Halo:     v.Halo,
		}
		if v.Area != nil {
			rec.InterestArea = v.Area.Name
		}
		vertices = append(vertices, rec)
	}
	edges := make([][2]string, 0, n.graph.EdgeCount())
	for _, e := range n.graph.Edges() {
		edges = append(edges, [2]string{string(e.A), string(e.B)})
	}
	return model.NetworkSnapshot{
		InterestAreas: areas,
		Graph: model.GraphRecord{
			Radius:   n.graph.Radius(),
			Vertices: vertices,
			Edges:    edges,
		},
	}
}

func FromSnapshot(snapshot model.NetworkSnapshot, rng *rand.Rand) (*Network, error) {
	areas := make([]*model.InterestArea, 0, len(snapshot.InterestAreas))
	byName := make(map[string]*model.InterestArea, len(snapshot.InterestAreas))
	for _, rec := range snapshot.InterestAreas {
		area := rec.Area()
		if _, ok := byName[area.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateArea, area.Name)
		}
		byName[area.Name] = area
		areas = append(areas, area)
	}
	vertices := make([]*diskgraph.Vertex, 0, len(snapshot.Graph.Vertices))
	for _, rec := range snapshot.Graph.Vertices {
		v := &diskgraph.Vertex{
			ID:       diskgraph.VertexID(rec.ID),
			Location: geometry.FromPair(rec.Location),
			Meta:     diskgraph.Meta{IsRelay: rec.IsRelay, Halo: rec.Halo},
		}
		if rec.InterestArea != "" {
			area, ok := byName[rec.InterestArea]
			if !ok {
				return nil, fmt.Errorf("vertex %s: unknown interest area %q", rec.ID, rec.InterestArea)
			}
			v.Area = area
		}
		vertices = append(vertices, v)
	}
	return FromVertices(areas, snapshot.Graph.Radius, rng, vertices)
}
