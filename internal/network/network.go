package network

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"adhocnet/internal/diskgraph"
	"adhocnet/internal/geometry"
	"adhocnet/internal/model"
)

// Network is one candidate topology: a disk graph whose sensors live inside
// a fixed set of interest areas, plus any relays inserted to join clusters.
// The random source is owned by the network; a Network must not be shared
// between goroutines.
type Network struct {
	areas  []*model.InterestArea
	graph  *diskgraph.Graph
	relays map[diskgraph.VertexID]struct{}
	rng    *rand.Rand
}

func New(areas []*model.InterestArea, radius float64, rng *rand.Rand) *Network {
	return &Network{
		areas:  areas,
		graph:  diskgraph.New(radius),
		relays: make(map[diskgraph.VertexID]struct{}),
		rng:    rng,
	}
}

// FromVertices builds a network around existing vertices. Vertices flagged as
// relays are tracked as relays.
func FromVertices(areas []*model.InterestArea, radius float64, rng *rand.Rand, vertices []*diskgraph.Vertex) (*Network, error) {
	n := New(areas, radius, rng)
	for _, v := range vertices {
		if err := n.graph.AddVertex(v); err != nil {
			return nil, err
		}
		if v.IsRelay {
			n.relays[v.ID] = struct{}{}
		}
	}
	return n, nil
}

func SensorID(areaIndex int) diskgraph.VertexID {
	return diskgraph.VertexID(fmt.Sprintf("sensor-%d", areaIndex))
}

func (n *Network) Areas() []*model.InterestArea {
	return n.areas
}

func (n *Network) Graph() *diskgraph.Graph {
	return n.graph
}

// Randomize places one sensor in every interest area. Hubs sit at their
// center.
func (n *Network) Randomize() error {
	for i, area := range n.areas {
		location := area.Center
		if !area.IsHub {
			location = RandomLocation(n.rng, area)
		}
		if err := n.graph.AddVertex(diskgraph.NewSensor(SensorID(i), location, area)); err != nil {
			return fmt.Errorf("place sensor for area %q: %w", area.Name, err)
		}
	}
	return nil
}

// RandomLocation samples a radius in [0, area radius) and an angle in
// [0, 2π) around the area center.
func RandomLocation(rng *rand.Rand, area *model.InterestArea) geometry.Point {
	theta := 2 * math.Pi * rng.Float64()
	r := area.Radius * rng.Float64()
	return geometry.Polar(area.Center, r, theta)
}

// MoveSensor hops a sensor to a new random spot in its own interest area.
// It reports false when the vertex is absent, is a relay, or has no area.
func (n *Network) MoveSensor(id diskgraph.VertexID) bool {
	v, ok := n.graph.Vertex(id)
	if !ok || v.IsRelay || v.Area == nil {
		return false
	}
	return n.graph.MoveVertex(id, RandomLocation(n.rng, v.Area)) == nil
}

// RandomSensor picks a vertex uniformly. With includeRelays false only
// sensors are eligible.
func (n *Network) RandomSensor(includeRelays bool) (diskgraph.VertexID, bool) {
	candidates := make([]diskgraph.VertexID, 0, n.graph.Len())
	for _, v := range n.graph.Vertices() {
		if !includeRelays && v.IsRelay {
			continue
		}
		candidates = append(candidates, v.ID)
	}
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[n.rng.Intn(len(candidates))], true
}

// AddRelay inserts a relay vertex at location.
func (n *Network) AddRelay(location geometry.Point) (diskgraph.VertexID, error) {
	raw, err := uuid.NewRandomFromReader(n.rng)
	if err != nil {
		return "", fmt.Errorf("relay id: %w", err)
	}
	id := diskgraph.VertexID("relay-" + raw.String())
	if err := n.graph.AddVertex(diskgraph.NewRelay(id, location)); err != nil {
		return "", err
	}
	n.relays[id] = struct{}{}
	return id, nil
}

func (n *Network) RemoveRelay(id diskgraph.VertexID) error {
	if _, ok := n.relays[id]; !ok {
		return fmt.Errorf("%w: relay %s", diskgraph.ErrVertexNotFound, id)
	}
	if err := n.graph.RemoveVertex(id); err != nil {
		return err
	}
	delete(n.relays, id)
	return nil
}

func (n *Network) IsRelay(id diskgraph.VertexID) bool {
	_, ok := n.relays[id]
	return ok
}

func (n *Network) RelayCount() int {
	return len(n.relays)
}

// Relays returns relay ids in insertion order.
func (n *Network) Relays() []diskgraph.VertexID {
	out := make([]diskgraph.VertexID, 0, len(n.relays))
	for _, id := range n.graph.IDs() {
		if _, ok := n.relays[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (n *Network) Sensors() []*diskgraph.Vertex {
	out := make([]*diskgraph.Vertex, 0, n.graph.Len())
	for _, v := range n.graph.Vertices() {
		if !v.IsRelay {
			out = append(out, v)
		}
	}
	return out
}

// Clone deep-copies the graph. Interest areas are shared.
func (n *Network) Clone(rng *rand.Rand) *Network {
	relays := make(map[diskgraph.VertexID]struct{}, len(n.relays))
	for id := range n.relays {
		relays[id] = struct{}{}
	}
	return &Network{
		areas:  n.areas,
		graph:  n.graph.Clone(),
		relays: relays,
		rng:    rng,
	}
}
