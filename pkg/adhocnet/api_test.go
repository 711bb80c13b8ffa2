package adhocnet

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhocnet/internal/geometry"
	"adhocnet/internal/model"
	"adhocnet/internal/stats"
)

func testAreas() []*model.InterestArea {
	return []*model.InterestArea{
		{Name: "HUB", Center: geometry.Point{X: 0, Y: 0}, Radius: 0.2, IsHub: true},
		{Name: "east", Center: geometry.Point{X: 1.4, Y: 0}, Radius: 0.2},
		{Name: "north", Center: geometry.Point{X: 0, Y: 1.4}, Radius: 0.2},
	}
}

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:  "memory",
		RunsDir:    filepath.Join(base, "runs"),
		ExportsDir: filepath.Join(base, "exports"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, base
}

func TestClientRunRunsAndExport(t *testing.T) {
	client, base := newTestClient(t)
	ctx := context.Background()

	var seen []int
	summary, err := client.Run(ctx, RunRequest{
		Areas:       testAreas(),
		Population:  6,
		Generations: 3,
		Radius:      1,
		Seed:        42,
		Workers:     2,
		OnGeneration: func(s model.GenerationStats) {
			seen = append(seen, s.Generation)
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, summary.RunID)
	assert.Regexp(t, "^"+DefaultFitness+"-42-", summary.RunID)
	assert.Len(t, summary.Generations, 3)
	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.GreaterOrEqual(t, summary.BestFitness, summary.InitialFitness)
	assert.True(t, summary.Connected, "relays connect the network, relays=%d", summary.Relays)

	runs, err := client.Runs(ctx, RunsRequest{Limit: 5})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].RunID)

	cfg, ok, err := stats.ReadRunConfig(filepath.Join(base, "runs"), summary.RunID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 6, cfg.PopulationSize)
	assert.Equal(t, DefaultMutationFactor, cfg.MutationFactor)

	exported, err := client.Export(ctx, ExportRequest{Latest: true})
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, exported.RunID)
	assert.FileExists(t, filepath.Join(exported.Directory, "final_network.json"))
}

func TestClientRunLoadsAreasFile(t *testing.T) {
	client, base := newTestClient(t)
	ctx := context.Background()

	areasPath := filepath.Join(base, "areas.json")
	_, err := client.GenerateAreas(ctx, AreasRequest{Amount: 4, Seed: 3, OutPath: areasPath})
	require.NoError(t, err)

	summary, err := client.Run(ctx, RunRequest{
		AreasFile:   areasPath,
		Fitness:     "edges",
		Population:  4,
		Generations: 2,
		Radius:      1.5,
		Seed:        7,
	})
	require.NoError(t, err)
	assert.Equal(t, "edges", summary.Fitness)
}

func TestClientRunRejectsInvalidRequests(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  RunRequest
	}{
		{name: "no areas", req: RunRequest{}},
		{name: "unknown fitness", req: RunRequest{Areas: testAreas(), Fitness: "nope"}},
		{name: "negative population", req: RunRequest{Areas: testAreas(), Population: -1}},
		{name: "negative generations", req: RunRequest{Areas: testAreas(), Generations: -1}},
		{name: "negative radius", req: RunRequest{Areas: testAreas(), Radius: -0.5}},
		{name: "negative workers", req: RunRequest{Areas: testAreas(), Workers: -2}},
		{name: "mutation factor above one", req: RunRequest{Areas: testAreas(), MutationFactor: 1.5}},
		{name: "missing areas file", req: RunRequest{AreasFile: "does-not-exist.json"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.Run(ctx, tc.req)
			assert.Error(t, err)
		})
	}
}

func TestClientRunZeroSelectsDefaults(t *testing.T) {
	client, base := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{Areas: testAreas(), Population: 4, Generations: 1, Seed: 2})
	require.NoError(t, err)

	cfg, ok, err := stats.ReadRunConfig(filepath.Join(base, "runs"), summary.RunID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1.0, cfg.Radius)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, DefaultMutationFactor, cfg.MutationFactor)
	assert.Equal(t, DefaultFitness, cfg.FitnessFunction)
}

func TestClientExportRunSelection(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	_, err := client.Export(ctx, ExportRequest{RunID: "x", Latest: true})
	assert.Error(t, err, "run id with latest")
	_, err = client.Export(ctx, ExportRequest{})
	assert.Error(t, err, "no run id")
	_, err = client.Export(ctx, ExportRequest{Latest: true})
	assert.Error(t, err, "no runs")
}

func TestClientResilience(t *testing.T) {
	client, base := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{
		Areas:       testAreas(),
		Population:  4,
		Generations: 2,
		Radius:      1,
		Seed:        5,
	})
	require.NoError(t, err)

	plotPath := filepath.Join(base, "resilience.png")
	points, err := client.Resilience(ctx, ResilienceRequest{RunID: summary.RunID, Seed: 1, PlotPath: plotPath})
	require.NoError(t, err)
	require.NotEmpty(t, points)
	assert.Equal(t, 1, points[len(points)-1].LargestComponent, "a single vertex is left at the end")
	assert.FileExists(t, plotPath)

	_, err = client.Resilience(ctx, ResilienceRequest{RunID: summary.RunID, Label: "middle"})
	assert.Error(t, err, "unknown label")
	_, err = client.Resilience(ctx, ResilienceRequest{RunID: "missing"})
	assert.Error(t, err, "unknown run")
}

func TestClientGenerateAreas(t *testing.T) {
	client, base := newTestClient(t)
	ctx := context.Background()

	out := filepath.Join(base, "areas", "generated.json")
	img := filepath.Join(base, "areas", "generated.png")
	areas, err := client.GenerateAreas(ctx, AreasRequest{Amount: 5, Seed: 11, OutPath: out, ImagePath: img})
	require.NoError(t, err)
	assert.Len(t, areas, 5)
	assert.FileExists(t, out)
	assert.FileExists(t, img)

	_, err = client.GenerateAreas(ctx, AreasRequest{})
	assert.Error(t, err, "zero amount")
}

func TestClientBenchmark(t *testing.T) {
	client, base := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Benchmark(ctx, BenchmarkRequest{
		Run: RunRequest{
			Areas:       testAreas(),
			Population:  4,
			Generations: 2,
			Radius:      1,
			Seed:        100,
			SaveImages:  true,
		},
		Runs: 3,
	})
	require.NoError(t, err)
	require.Len(t, summary.Runs, 3)
	assert.Equal(t, 3, summary.Summary.TotalRuns)
	for i, run := range summary.Runs {
		assert.Equal(t, 100+int64(i), run.Seed, "run %d", i)
	}
	require.Len(t, summary.Trace, 2)
	assert.Equal(t, 3, summary.Trace[0].Runs)

	exp, ok, err := stats.ReadExperiment(filepath.Join(base, "runs"), summary.ExperimentID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, exp.Runs, 3)
	assert.FileExists(t, filepath.Join(summary.Directory, "mean_fitness.png"))

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	_, err = client.Benchmark(ctx, BenchmarkRequest{Run: RunRequest{Areas: testAreas()}})
	assert.Error(t, err, "zero runs")
}
