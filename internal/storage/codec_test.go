package storage

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhocnet/internal/model"
	"adhocnet/internal/network"
)

func TestDecodeNetworkFixture(t *testing.T) {
	snapshot, err := DecodeNetwork(readFixture(t, "network_snapshot_v1.json"))
	require.NoError(t, err)
	require.Len(t, snapshot.InterestAreas, 2)
	require.Len(t, snapshot.Graph.Vertices, 3)

	net, err := network.FromSnapshot(snapshot, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.True(t, net.Graph().IsConnected(), "fixture network is connected through its relay")
	assert.Equal(t, 1, net.RelayCount())
	assert.Equal(t, len(snapshot.Graph.Edges), net.Graph().EdgeCount())
}

func TestDecodeRunFixture(t *testing.T) {
	run, err := DecodeRun(readFixture(t, "run_record_v1.json"))
	require.NoError(t, err)
	assert.Equal(t, "run-fixture-1", run.ID)
	assert.Equal(t, "fewest_components", run.FitnessFunction)
	assert.True(t, run.CreatedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)), "created_at %s", run.CreatedAt)
}

func TestRunCodecRoundTrip(t *testing.T) {
	input := model.RunRecord{
		VersionedRecord: Versioned(),
		ID:              "run-1",
		CreatedAt:       time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		FitnessFunction: "edges",
		Direction:       "maximize",
		PopulationSize:  4,
		Generations:     10,
		MutationFactor:  1,
		Radius:          1,
		Seed:            42,
		FinalFitness:    7,
		Connected:       true,
	}
	data, err := EncodeRun(input)
	require.NoError(t, err)
	output, err := DecodeRun(data)
	require.NoError(t, err)
	assert.Equal(t, input, output)
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	run := model.RunRecord{VersionedRecord: model.VersionedRecord{SchemaVersion: 99, CodecVersion: CurrentCodecVersion}, ID: "run-1"}
	data, err := EncodeRun(run)
	require.NoError(t, err)
	_, err = DecodeRun(data)
	assert.ErrorIs(t, err, ErrVersionMismatch)

	data, err = EncodeNetwork(model.NetworkSnapshot{})
	require.NoError(t, err)
	_, err = DecodeNetwork(data)
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestGenerationStatsCodecRoundTrip(t *testing.T) {
	input := []model.GenerationStats{
		{Generation: 1, BestFitness: 3, MeanFitness: 2, PopulationSize: 8, Components: 4, Duration: 5 * time.Millisecond},
		{Generation: 2, BestFitness: 4, MeanFitness: 2.5, PopulationSize: 8, Components: 3, Duration: 4 * time.Millisecond},
	}
	data, err := EncodeGenerationStats(input)
	require.NoError(t, err)
	output, err := DecodeGenerationStats(data)
	require.NoError(t, err)
	assert.Equal(t, input, output)
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "fixtures", name))
	require.NoError(t, err)
	return data
}
