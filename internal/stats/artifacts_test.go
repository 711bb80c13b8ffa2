package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhocnet/internal/model"
)

func sampleArtifacts(runID, createdAt string) RunArtifacts {
	return RunArtifacts{
		Config: RunConfig{
			RunID:           runID,
			CreatedAtUTC:    createdAt,
			FitnessFunction: "edges",
			Direction:       "maximize",
			PopulationSize:  4,
			Generations:     2,
			MutationFactor:  1,
			Radius:          1,
			Seed:            1,
			Workers:         2,
		},
		Generations: []model.GenerationStats{
			{Generation: 1, BestFitness: 2, MeanFitness: 1.5, PopulationSize: 4, Components: 3, Duration: 3 * time.Millisecond},
			{Generation: 2, BestFitness: 3, MeanFitness: 2.25, PopulationSize: 4, Components: 2, Duration: 2 * time.Millisecond},
		},
		InterestAreas: []model.InterestAreaRecord{{Name: "HUB", Center: [2]float64{1, 1}, Radius: 0.5, IsHub: true}},
		FinalNetwork: model.NetworkSnapshot{
			Graph: model.GraphRecord{Radius: 1, Vertices: []model.VertexRecord{{ID: "sensor-0", InterestArea: "HUB"}}},
		},
		InitialFitness: 1,
		FinalFitness:   3,
		Relays:         1,
		Connected:      true,
	}
}

func TestWriteAndExportRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "exports")

	runDir, err := WriteRunArtifacts(baseDir, sampleArtifacts("run-123", "2024-01-01T00:00:00Z"))
	require.NoError(t, err)

	expected := []string{"config.json", "fitness_history.json", "generations.csv", "interest_areas.json", "initial_network.json", "final_network.json"}
	for _, file := range expected {
		assert.FileExists(t, filepath.Join(runDir, file))
	}

	require.NoError(t, os.MkdirAll(filepath.Join(runDir, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(runDir, "images", "1.png"), []byte("png"), 0o644))

	exportedDir, err := ExportRunArtifacts(baseDir, "run-123", outDir)
	require.NoError(t, err)
	for _, file := range append(expected, filepath.Join("images", "1.png")) {
		assert.FileExists(t, filepath.Join(exportedDir, file))
	}
}

func TestReadBackRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	input := sampleArtifacts("run-1", "2024-01-01T00:00:00Z")
	_, err := WriteRunArtifacts(baseDir, input)
	require.NoError(t, err)

	cfg, ok, err := ReadRunConfig(baseDir, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, input.Config, cfg)

	generations, ok, err := ReadGenerationStats(baseDir, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, input.Generations, generations)

	final, ok, err := ReadNetwork(baseDir, "run-1", "final")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, final.Graph.Vertices, 1)
	assert.Equal(t, "sensor-0", final.Graph.Vertices[0].ID)

	_, _, err = ReadNetwork(baseDir, "run-1", "middle")
	assert.Error(t, err, "unknown label")

	areas, ok, err := ReadInterestAreas(baseDir, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, areas, 1)
	assert.True(t, areas[0].IsHub)

	_, ok, err = ReadRunConfig(baseDir, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunIndexNewestFirst(t *testing.T) {
	baseDir := t.TempDir()
	for _, item := range []struct{ id, at string }{
		{"run-old", "2024-01-01T00:00:00Z"},
		{"run-new", "2024-02-01T00:00:00Z"},
		{"run-mid", "2024-01-15T00:00:00Z"},
	} {
		_, err := WriteRunArtifacts(baseDir, sampleArtifacts(item.id, item.at))
		require.NoError(t, err, item.id)
	}
	updated := sampleArtifacts("run-old", "2024-01-01T00:00:00Z")
	updated.FinalFitness = 9
	_, err := WriteRunArtifacts(baseDir, updated)
	require.NoError(t, err)

	index, err := ListRunIndex(baseDir)
	require.NoError(t, err)
	require.Len(t, index, 3)
	assert.Equal(t, "run-new", index[0].RunID)
	assert.Equal(t, "run-mid", index[1].RunID)
	assert.Equal(t, "run-old", index[2].RunID)
	assert.Equal(t, 9.0, index[2].FinalFitness, "rewrite replaces the entry")
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	_, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{})
	assert.Error(t, err)
}
