package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhocnet/internal/model"
)

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-b", "run-a", "run-c"} {
		run := model.RunRecord{VersionedRecord: Versioned(), ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, store.SaveRun(ctx, run))
	}

	run, ok, err := store.GetRun(ctx, "run-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run-a", run.ID)
	_, ok, _ = store.GetRun(ctx, "missing")
	assert.False(t, ok)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-b", runs[0].ID)
	assert.Equal(t, "run-c", runs[2].ID)
}

func TestMemoryStoreNetworkRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	snapshot := model.NetworkSnapshot{
		VersionedRecord: Versioned(),
		Graph: model.GraphRecord{
			Radius:   1,
			Vertices: []model.VertexRecord{{ID: "sensor-0", Location: [2]float64{1, 2}}},
		},
	}
	require.NoError(t, store.SaveNetwork(ctx, "run-1", "final", snapshot))

	loaded, ok, err := store.GetNetwork(ctx, "run-1", "final")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, loaded.Graph.Vertices, 1)
	assert.Equal(t, "sensor-0", loaded.Graph.Vertices[0].ID)

	_, ok, _ = store.GetNetwork(ctx, "run-1", "initial")
	assert.False(t, ok, "labels are distinct")
}

func TestMemoryStoreGenerationStatsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	input := []model.GenerationStats{
		{Generation: 1, BestFitness: 0.8, MeanFitness: 0.6, PopulationSize: 8, Components: 3},
		{Generation: 2, BestFitness: 0.9, MeanFitness: 0.7, PopulationSize: 8, Components: 2},
	}
	require.NoError(t, store.SaveGenerationStats(ctx, "run-1", input))
	input[0].BestFitness = 100

	output, ok, err := store.GetGenerationStats(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, output, 2)
	assert.Equal(t, 0.8, output[0].BestFitness)
	assert.Equal(t, 2, output[1].Components)
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	assert.Error(t, store.SaveRun(context.Background(), model.RunRecord{ID: "run-1"}))
}
