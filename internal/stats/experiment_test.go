package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhocnet/internal/model"
)

func TestAggregateGenerations(t *testing.T) {
	histories := [][]model.GenerationStats{
		{{Generation: 1, BestFitness: 2}, {Generation: 2, BestFitness: 4}},
		{{Generation: 1, BestFitness: 4}, {Generation: 2, BestFitness: 4}, {Generation: 3, BestFitness: 5}},
	}
	trace := AggregateGenerations(histories)
	require.Len(t, trace, 3)

	first := trace[0]
	assert.Equal(t, 1, first.Generation)
	assert.Equal(t, 2, first.Runs)
	assert.Equal(t, 3.0, first.MeanBest)
	assert.Equal(t, 2.0, first.MinBest)
	assert.Equal(t, 4.0, first.MaxBest)
	assert.InDelta(t, math.Sqrt2, first.StdBest, 1e-9)
	assert.Zero(t, trace[1].StdBest, "equal values have no spread")

	last := trace[2]
	assert.Equal(t, 1, last.Runs)
	assert.Equal(t, 5.0, last.MeanBest)
	assert.Zero(t, last.StdBest)
}

func TestSummarizeExperiment(t *testing.T) {
	summary := SummarizeExperiment([]ExperimentRun{
		{RunID: "a", BestFitness: 1, Relays: 2, Connected: true},
		{RunID: "b", BestFitness: 3, Relays: 0},
	})
	assert.Equal(t, 2, summary.TotalRuns)
	assert.Equal(t, 1, summary.ConnectedRuns)
	assert.Equal(t, 0.5, summary.ConnectedRate)
	assert.Equal(t, 2.0, summary.MeanBest)
	assert.Equal(t, 1.0, summary.MinBest)
	assert.Equal(t, 3.0, summary.MaxBest)
	assert.Equal(t, 1.0, summary.MeanRelays)

	empty := SummarizeExperiment(nil)
	assert.Zero(t, empty.TotalRuns)
	assert.Zero(t, empty.MeanBest)
}

func TestWriteReadListExperiments(t *testing.T) {
	base := t.TempDir()

	for _, exp := range []Experiment{
		{ID: "exp-old", StartedAtUTC: "2026-01-01T00:00:00Z"},
		{ID: "exp-new", StartedAtUTC: "2026-02-01T00:00:00Z", Runs: []ExperimentRun{{RunID: "r1", Seed: 4}}},
	} {
		_, err := WriteExperiment(base, exp)
		require.NoError(t, err, exp.ID)
	}

	got, ok, err := ReadExperiment(base, "exp-new")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.Runs, 1)
	assert.Equal(t, int64(4), got.Runs[0].Seed)
	assert.NotEmpty(t, got.CompletedAtUTC)

	_, ok, err = ReadExperiment(base, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := ListExperiments(base)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "exp-new", list[0].ID)
	assert.Equal(t, "exp-old", list[1].ID)

	_, err = WriteExperiment(base, Experiment{})
	assert.Error(t, err, "missing id")
}
