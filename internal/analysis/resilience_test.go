package analysis

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhocnet/internal/diskgraph"
	"adhocnet/internal/geometry"
	"adhocnet/internal/model"
	"adhocnet/internal/network"
)

func TestResilienceShrinksToZero(t *testing.T) {
	areas := []*model.InterestArea{{Name: "a", Radius: 1}}
	var vertices []*diskgraph.Vertex
	for i := 0; i < 5; i++ {
		vertices = append(vertices, diskgraph.NewSensor(network.SensorID(i), geometry.Point{X: float64(i) * 0.9}, areas[0]))
	}
	net, err := network.FromVertices(areas, 1, rand.New(rand.NewSource(1)), vertices)
	require.NoError(t, err)

	points := Resilience(net, rand.New(rand.NewSource(2)))
	require.Len(t, points, 5)
	assert.Equal(t, ResiliencePoint{Removed: 0, LargestComponent: 5}, points[0])
	for i := 1; i < len(points); i++ {
		assert.Equal(t, i, points[i].Removed)
		assert.LessOrEqual(t, points[i].LargestComponent, points[i-1].LargestComponent)
		assert.LessOrEqual(t, points[i].LargestComponent, 5-i)
	}
	assert.Equal(t, 1, points[4].LargestComponent)
	assert.Equal(t, 5, net.Graph().Len())
}

func TestResilienceEmptyNetwork(t *testing.T) {
	net := network.New(nil, 1, rand.New(rand.NewSource(1)))
	assert.Empty(t, Resilience(net, rand.New(rand.NewSource(1))))
}
