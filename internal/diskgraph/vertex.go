package diskgraph

import (
	"adhocnet/internal/geometry"
	"adhocnet/internal/model"
)

type VertexID string

// Meta is the fixed metadata carried by every vertex.
type Meta struct {
	Area    *model.InterestArea // nil for relays
	IsRelay bool
	Halo    float64 // sensing radius; zero means the graph radius
}

type Vertex struct {
	ID       VertexID
	Location geometry.Point
	Meta
}

func NewSensor(id VertexID, location geometry.Point, area *model.InterestArea) *Vertex {
	return &Vertex{ID: id, Location: location, Meta: Meta{Area: area}}
}

func NewRelay(id VertexID, location geometry.Point) *Vertex {
	return &Vertex{ID: id, Location: location, Meta: Meta{IsRelay: true}}
}

func (v *Vertex) HaloCircle() geometry.Circle {
	return geometry.Circle{Center: v.Location, Radius: v.Halo}
}

// Clone copies the vertex. The interest area is shared, it is never mutated.
func (v *Vertex) Clone() *Vertex {
	cp := *v
	return &cp
}

// Get looks up a metadata value by key: location, halo, is_relay or
// interest_area. Unknown keys yield nil.
func (v *Vertex) Get(key string) any {
	switch key {
	case "location":
		return v.Location
	case "halo":
		return v.Halo
	case "is_relay":
		return v.IsRelay
	case "interest_area":
		if v.Area == nil {
			return nil
		}
		return v.Area
	default:
		return nil
	}
}

type Edge struct {
	A VertexID
	B VertexID
}

// Component is one maximal connected vertex set.
type Component []VertexID

func (c Component) Contains(id VertexID) bool {
	for _, member := range c {
		if member == id {
			return true
		}
	}
	return false
}
