package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"adhocnet/internal/model"
)

const experimentsDir = "experiments"

// Experiment groups repeated runs of one configuration under different
// seeds.
type Experiment struct {
	ID              string                `json:"id"`
	FitnessFunction string                `json:"fitness_function"`
	StartedAtUTC    string                `json:"started_at_utc,omitempty"`
	CompletedAtUTC  string                `json:"completed_at_utc,omitempty"`
	Runs            []ExperimentRun       `json:"runs"`
	Summary         ExperimentSummary     `json:"summary"`
	Trace           []GenerationAggregate `json:"trace,omitempty"`
}

type ExperimentRun struct {
	RunID        string  `json:"run_id"`
	Seed         int64   `json:"seed"`
	BestFitness  float64 `json:"best_fitness"`
	FinalFitness float64 `json:"final_fitness"`
	Relays       int     `json:"relays"`
	Connected    bool    `json:"connected"`
}

type ExperimentSummary struct {
	TotalRuns     int     `json:"total_runs"`
	ConnectedRuns int     `json:"connected_runs"`
	ConnectedRate float64 `json:"connected_rate"`
	MeanBest      float64 `json:"mean_best"`
	StdBest       float64 `json:"std_best"`
	MinBest       float64 `json:"min_best"`
	MaxBest       float64 `json:"max_best"`
	MeanRelays    float64 `json:"mean_relays"`
}

// GenerationAggregate is the spread of the best fitness across runs at one
// generation.
type GenerationAggregate struct {
	Generation int     `json:"generation"`
	Runs       int     `json:"runs"`
	MeanBest   float64 `json:"mean_best"`
	StdBest    float64 `json:"std_best"`
	MinBest    float64 `json:"min_best"`
	MaxBest    float64 `json:"max_best"`
}

// AggregateGenerations lines up histories by generation number. Histories
// of different length are averaged over the runs that reached a generation.
func AggregateGenerations(histories [][]model.GenerationStats) []GenerationAggregate {
	byGen := map[int][]float64{}
	for _, history := range histories {
		for _, gen := range history {
			byGen[gen.Generation] = append(byGen[gen.Generation], gen.BestFitness)
		}
	}
	gens := make([]int, 0, len(byGen))
	for gen := range byGen {
		gens = append(gens, gen)
	}
	sort.Ints(gens)

	out := make([]GenerationAggregate, 0, len(gens))
	for _, gen := range gens {
		values := byGen[gen]
		mean, std := meanStd(values)
		out = append(out, GenerationAggregate{
			Generation: gen,
			Runs:       len(values),
			MeanBest:   mean,
			StdBest:    std,
			MinBest:    floats.Min(values),
			MaxBest:    floats.Max(values),
		})
	}
	return out
}

func SummarizeExperiment(runs []ExperimentRun) ExperimentSummary {
	summary := ExperimentSummary{TotalRuns: len(runs)}
	if len(runs) == 0 {
		return summary
	}
	best := make([]float64, 0, len(runs))
	relays := make([]float64, 0, len(runs))
	for _, run := range runs {
		best = append(best, run.BestFitness)
		relays = append(relays, float64(run.Relays))
		if run.Connected {
			summary.ConnectedRuns++
		}
	}
	summary.ConnectedRate = float64(summary.ConnectedRuns) / float64(len(runs))
	summary.MeanBest, summary.StdBest = meanStd(best)
	summary.MinBest = floats.Min(best)
	summary.MaxBest = floats.Max(best)
	summary.MeanRelays = stat.Mean(relays, nil)
	return summary
}

// WriteExperiment stores the experiment under
// <baseDir>/experiments/<id>/experiment.json and returns its directory.
func WriteExperiment(baseDir string, exp Experiment) (string, error) {
	if exp.ID == "" {
		return "", fmt.Errorf("experiment id is required")
	}
	if exp.CompletedAtUTC == "" {
		exp.CompletedAtUTC = time.Now().UTC().Format(time.RFC3339)
	}
	path := experimentPath(baseDir, exp.ID)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := writeJSON(path, exp); err != nil {
		return "", err
	}
	return dir, nil
}

func ReadExperiment(baseDir, id string) (Experiment, bool, error) {
	if id == "" {
		return Experiment{}, false, fmt.Errorf("experiment id is required")
	}
	var exp Experiment
	ok, err := readJSON(experimentPath(baseDir, id), &exp)
	if err != nil || !ok {
		return Experiment{}, ok, err
	}
	return exp, true, nil
}

// ListExperiments returns stored experiments, most recently started first.
func ListExperiments(baseDir string) ([]Experiment, error) {
	entries, err := os.ReadDir(filepath.Join(baseDir, experimentsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []Experiment{}, nil
		}
		return nil, err
	}

	exps := make([]Experiment, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		exp, ok, err := ReadExperiment(baseDir, entry.Name())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		exps = append(exps, exp)
	}
	sort.Slice(exps, func(i, j int) bool {
		switch {
		case exps[i].StartedAtUTC == exps[j].StartedAtUTC:
			return exps[i].ID < exps[j].ID
		case exps[i].StartedAtUTC == "":
			return false
		case exps[j].StartedAtUTC == "":
			return true
		default:
			return exps[i].StartedAtUTC > exps[j].StartedAtUTC
		}
	})
	return exps, nil
}

func experimentPath(baseDir, id string) string {
	return filepath.Join(baseDir, experimentsDir, id, "experiment.json")
}

// meanStd returns the sample mean and standard deviation; a single value
// has zero spread.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	if len(values) == 1 {
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}
