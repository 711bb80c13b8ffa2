package diskgraph

import "fmt"

// componentCache maps every vertex to the component it was last found in.
// Invalidating a vertex drops the whole component it belonged to; components
// that were not touched keep their cached membership.
type componentCache struct {
	byVertex map[VertexID]*cachedComponent
	builds   int
}

type cachedComponent struct {
	members []VertexID
}

func newComponentCache() componentCache {
	return componentCache{byVertex: make(map[VertexID]*cachedComponent)}
}

func (c *componentCache) invalidate(id VertexID) {
	comp, ok := c.byVertex[id]
	if !ok {
		return
	}
	for _, member := range comp.members {
		delete(c.byVertex, member)
	}
}

// CacheStats reports how many components were built by traversal since the
// graph was created.
type CacheStats struct {
	ComponentBuilds int
}

func (g *Graph) CacheStats() CacheStats {
	return CacheStats{ComponentBuilds: g.components.builds}
}

// Components partitions the vertices into maximal connected sets. The result
// is ordered by the insertion order of each component's first vertex.
func (g *Graph) Components() []Component {
	seen := make(map[*cachedComponent]struct{})
	out := make([]Component, 0)
	for _, id := range g.order {
		comp := g.componentFor(id)
		if _, ok := seen[comp]; ok {
			continue
		}
		seen[comp] = struct{}{}
		out = append(out, append(Component(nil), comp.members...))
	}
	return out
}

// ComponentOf returns the component containing id.
func (g *Graph) ComponentOf(id VertexID) (Component, error) {
	if _, ok := g.vertices[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrVertexNotFound, id)
	}
	return append(Component(nil), g.componentFor(id).members...), nil
}

func (g *Graph) SameComponent(a, b VertexID) bool {
	if _, ok := g.vertices[a]; !ok {
		return false
	}
	if _, ok := g.vertices[b]; !ok {
		return false
	}
	return g.componentFor(a) == g.componentFor(b)
}

// IsConnected reports whether the graph has exactly one component.
func (g *Graph) IsConnected() bool {
	return len(g.Components()) == 1
}

func (g *Graph) componentFor(id VertexID) *cachedComponent {
	if comp, ok := g.components.byVertex[id]; ok {
		return comp
	}
	comp := &cachedComponent{members: g.traverse(id)}
	for _, member := range comp.members {
		g.components.byVertex[member] = comp
	}
	g.components.builds++
	return comp
}

// traverse collects every vertex reachable from start, breadth first.
func (g *Graph) traverse(start VertexID) []VertexID {
	visited := map[VertexID]struct{}{start: {}}
	queue := []VertexID{start}
	members := make([]VertexID, 0, 1)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		members = append(members, current)

		for _, next := range g.neighborsOf(current) {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return members
}

// PathLength returns the number of hops on a shortest path between a and b,
// or -1 when b is unreachable from a.
func (g *Graph) PathLength(a, b VertexID) (int, error) {
	if _, ok := g.vertices[a]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrVertexNotFound, a)
	}
	if _, ok := g.vertices[b]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrVertexNotFound, b)
	}
	if a == b {
		return 0, nil
	}
	if !g.SameComponent(a, b) {
		return -1, nil
	}

	depth := map[VertexID]int{a: 0}
	queue := []VertexID{a}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.neighborsOf(current) {
			if _, ok := depth[next]; ok {
				continue
			}
			depth[next] = depth[current] + 1
			if next == b {
				return depth[next], nil
			}
			queue = append(queue, next)
		}
	}
	return -1, nil
}
