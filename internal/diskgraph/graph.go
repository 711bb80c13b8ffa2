package diskgraph

import (
	"errors"
	"fmt"
	"sort"

	"adhocnet/internal/geometry"
)

const DefaultRadius = 1.0

var (
	ErrVertexNotFound  = errors.New("vertex not found")
	ErrDuplicateVertex = errors.New("vertex already exists")
)

// Graph is an undirected disk graph: two vertices are adjacent iff their
// Euclidean distance is at most the graph radius. It is not safe for
// concurrent use; even read methods fill caches.
type Graph struct {
	radius float64

	order    []VertexID
	seq      map[VertexID]uint64
	nextSeq  uint64
	vertices map[VertexID]*Vertex
	adj      map[VertexID]map[VertexID]struct{}
	edges    int

	neighbors  map[VertexID][]VertexID
	components componentCache
}

func New(radius float64) *Graph {
	if radius <= 0 {
		radius = DefaultRadius
	}
	return &Graph{
		radius:     radius,
		seq:        make(map[VertexID]uint64),
		vertices:   make(map[VertexID]*Vertex),
		adj:        make(map[VertexID]map[VertexID]struct{}),
		neighbors:  make(map[VertexID][]VertexID),
		components: newComponentCache(),
	}
}

// FromVertices builds a graph and derives every edge from the vertex locations.
func FromVertices(radius float64, vertices []*Vertex) (*Graph, error) {
	g := New(radius)
	for _, v := range vertices {
		if err := g.AddVertex(v); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Graph) Radius() float64 {
	return g.radius
}

func (g *Graph) Len() int {
	return len(g.order)
}

func (g *Graph) EdgeCount() int {
	return g.edges
}

func (g *Graph) Vertex(id VertexID) (*Vertex, bool) {
	v, ok := g.vertices[id]
	return v, ok
}

// Vertices returns the vertices in insertion order. Locations must be changed
// through MoveVertex only.
func (g *Graph) Vertices() []*Vertex {
	out := make([]*Vertex, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.vertices[id])
	}
	return out
}

func (g *Graph) IDs() []VertexID {
	return append([]VertexID(nil), g.order...)
}

func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for _, id := range g.order {
		for other := range g.adj[id] {
			if g.seq[other] > g.seq[id] {
				out = append(out, Edge{A: id, B: other})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return g.seq[out[i].A] < g.seq[out[j].A]
		}
		return g.seq[out[i].B] < g.seq[out[j].B]
	})
	return out
}

func (g *Graph) HasEdge(a, b VertexID) bool {
	_, ok := g.adj[a][b]
	return ok
}

func (g *Graph) Distance(a, b VertexID) (float64, error) {
	va, ok := g.vertices[a]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrVertexNotFound, a)
	}
	vb, ok := g.vertices[b]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrVertexNotFound, b)
	}
	return geometry.Distance(va.Location, vb.Location), nil
}

// AddVertex inserts v and links it to every vertex within the radius.
func (g *Graph) AddVertex(v *Vertex) error {
	if v == nil {
		return errors.New("vertex is required")
	}
	if _, ok := g.vertices[v.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVertex, v.ID)
	}
	if v.Halo <= 0 {
		v.Halo = g.radius
	}

	g.vertices[v.ID] = v
	g.order = append(g.order, v.ID)
	g.seq[v.ID] = g.nextSeq
	g.nextSeq++
	g.adj[v.ID] = make(map[VertexID]struct{})

	for _, id := range g.order {
		if id == v.ID {
			continue
		}
		if geometry.Distance(g.vertices[id].Location, v.Location) <= g.radius {
			if err := g.link(id, v.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// MoveVertex relocates a vertex and rebuilds its edge set.
func (g *Graph) MoveVertex(id VertexID, location geometry.Point) error {
	v, ok := g.vertices[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrVertexNotFound, id)
	}
	v.Location = location

	for other := range g.adj[id] {
		if geometry.Distance(g.vertices[other].Location, location) > g.radius {
			if err := g.unlink(id, other); err != nil {
				return err
			}
		}
	}
	for _, other := range g.order {
		if other == id || g.HasEdge(id, other) {
			continue
		}
		if geometry.Distance(g.vertices[other].Location, location) <= g.radius {
			if err := g.link(id, other); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Graph) RemoveVertex(id VertexID) error {
	if _, ok := g.vertices[id]; !ok {
		return fmt.Errorf("%w: %s", ErrVertexNotFound, id)
	}
	g.components.invalidate(id)
	for other := range g.adj[id] {
		if err := g.unlink(id, other); err != nil {
			return err
		}
	}

	delete(g.vertices, id)
	delete(g.adj, id)
	delete(g.seq, id)
	delete(g.neighbors, id)
	for i, candidate := range g.order {
		if candidate == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

// Neighbors returns the adjacent vertices in insertion order.
func (g *Graph) Neighbors(id VertexID) ([]VertexID, error) {
	if _, ok := g.vertices[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrVertexNotFound, id)
	}
	return append([]VertexID(nil), g.neighborsOf(id)...), nil
}

// neighborsOf returns the cached neighbor slice. Callers must not modify it.
func (g *Graph) neighborsOf(id VertexID) []VertexID {
	if cached, ok := g.neighbors[id]; ok {
		return cached
	}
	out := make([]VertexID, 0, len(g.adj[id]))
	for other := range g.adj[id] {
		out = append(out, other)
	}
	sort.Slice(out, func(i, j int) bool { return g.seq[out[i]] < g.seq[out[j]] })
	g.neighbors[id] = out
	return out
}

func (g *Graph) Degree(id VertexID) int {
	return len(g.adj[id])
}

// Clone deep-copies the vertices and the edge set. Caches start empty.
func (g *Graph) Clone() *Graph {
	cp := New(g.radius)
	cp.order = append(cp.order, g.order...)
	cp.nextSeq = g.nextSeq
	cp.edges = g.edges
	for _, id := range g.order {
		cp.vertices[id] = g.vertices[id].Clone()
		cp.seq[id] = g.seq[id]
		links := make(map[VertexID]struct{}, len(g.adj[id]))
		for other := range g.adj[id] {
			links[other] = struct{}{}
		}
		cp.adj[id] = links
	}
	return cp
}

func (g *Graph) link(a, b VertexID) error {
	if _, ok := g.vertices[a]; !ok {
		return fmt.Errorf("link %s-%s: %w: %s", a, b, ErrVertexNotFound, a)
	}
	if _, ok := g.vertices[b]; !ok {
		return fmt.Errorf("link %s-%s: %w: %s", a, b, ErrVertexNotFound, b)
	}
	if a == b || g.HasEdge(a, b) {
		return nil
	}
	g.components.invalidate(a)
	g.components.invalidate(b)
	g.adj[a][b] = struct{}{}
	g.adj[b][a] = struct{}{}
	delete(g.neighbors, a)
	delete(g.neighbors, b)
	g.edges++
	return nil
}

func (g *Graph) unlink(a, b VertexID) error {
	if !g.HasEdge(a, b) {
		return fmt.Errorf("unlink %s-%s: edge not found", a, b)
	}
	g.components.invalidate(a)
	g.components.invalidate(b)
	delete(g.adj[a], b)
	delete(g.adj[b], a)
	delete(g.neighbors, a)
	delete(g.neighbors, b)
	g.edges--
	return nil
}
