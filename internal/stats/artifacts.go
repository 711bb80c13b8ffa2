package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"adhocnet/internal/model"
)

const (
	runIndexFile       = "run_index.json"
	configFile         = "config.json"
	fitnessFile        = "fitness_history.json"
	generationsFile    = "generations.csv"
	interestAreasFile  = "interest_areas.json"
	initialNetworkFile = "initial_network.json"
	finalNetworkFile   = "final_network.json"
)

var generationsHeader = []string{"generation", "best_fitness", "mean_fitness", "population_size", "components", "duration_ms"}

type RunConfig struct {
	RunID           string  `json:"run_id"`
	CreatedAtUTC    string  `json:"created_at_utc"`
	FitnessFunction string  `json:"fitness_function"`
	Direction       string  `json:"direction"`
	PopulationSize  int     `json:"population_size"`
	Generations     int     `json:"generations"`
	MutationFactor  float64 `json:"mutation_factor"`
	Radius          float64 `json:"radius"`
	Seed            int64   `json:"seed"`
	Workers         int     `json:"workers"`
	AreasFile       string  `json:"areas_file,omitempty"`
	SnapshotDir     string  `json:"snapshot_dir,omitempty"`
}

type RunArtifacts struct {
	Config         RunConfig                  `json:"config"`
	Generations    []model.GenerationStats    `json:"generations"`
	InterestAreas  []model.InterestAreaRecord `json:"interest_areas"`
	InitialNetwork model.NetworkSnapshot      `json:"initial_network"`
	FinalNetwork   model.NetworkSnapshot      `json:"final_network"`
	InitialFitness float64                    `json:"initial_fitness"`
	BestFitness    float64                    `json:"best_fitness"`
	FinalFitness   float64                    `json:"final_fitness"`
	Relays         int                        `json:"relays"`
	Connected      bool                       `json:"connected"`
}

type RunIndexEntry struct {
	RunID           string  `json:"run_id"`
	FitnessFunction string  `json:"fitness_function"`
	PopulationSize  int     `json:"population_size"`
	Generations     int     `json:"generations"`
	Seed            int64   `json:"seed"`
	Workers         int     `json:"workers"`
	InitialFitness  float64 `json:"initial_fitness"`
	FinalFitness    float64 `json:"final_fitness"`
	Relays          int     `json:"relays"`
	Connected       bool    `json:"connected"`
	CreatedAtUTC    string  `json:"created_at_utc"`
}

type fitnessHistory struct {
	InitialFitness   float64   `json:"initial_fitness"`
	BestFitness      float64   `json:"best_fitness"`
	FinalFitness     float64   `json:"final_fitness"`
	BestByGeneration []float64 `json:"best_by_generation"`
	Relays           int       `json:"relays"`
	Connected        bool      `json:"connected"`
}

// WriteRunArtifacts lays out <baseDir>/<run id>/ and records the run in the
// base directory index.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}
	if artifacts.Config.CreatedAtUTC == "" {
		artifacts.Config.CreatedAtUTC = time.Now().UTC().Format(time.RFC3339)
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	best := make([]float64, 0, len(artifacts.Generations))
	for _, gen := range artifacts.Generations {
		best = append(best, gen.BestFitness)
	}
	files := []struct {
		name  string
		value any
	}{
		{configFile, artifacts.Config},
		{fitnessFile, fitnessHistory{
			InitialFitness:   artifacts.InitialFitness,
			BestFitness:      artifacts.BestFitness,
			FinalFitness:     artifacts.FinalFitness,
			BestByGeneration: best,
			Relays:           artifacts.Relays,
			Connected:        artifacts.Connected,
		}},
		{interestAreasFile, artifacts.InterestAreas},
		{initialNetworkFile, artifacts.InitialNetwork},
		{finalNetworkFile, artifacts.FinalNetwork},
	}
	for _, file := range files {
		if err := writeJSON(filepath.Join(runDir, file.name), file.value); err != nil {
			return "", err
		}
	}
	if err := WriteGenerationStats(runDir, artifacts.Generations); err != nil {
		return "", err
	}

	cfg := artifacts.Config
	err := AppendRunIndex(baseDir, RunIndexEntry{
		RunID:           cfg.RunID,
		FitnessFunction: cfg.FitnessFunction,
		PopulationSize:  cfg.PopulationSize,
		Generations:     cfg.Generations,
		Seed:            cfg.Seed,
		Workers:         cfg.Workers,
		InitialFitness:  artifacts.InitialFitness,
		FinalFitness:    artifacts.FinalFitness,
		Relays:          artifacts.Relays,
		Connected:       artifacts.Connected,
		CreatedAtUTC:    cfg.CreatedAtUTC,
	})
	if err != nil {
		return "", err
	}
	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns indexed runs newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies every artifact of a run to <outDir>/<run id>.
// Generation images under images/ are copied when present.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	files := []string{configFile, fitnessFile, generationsFile, interestAreasFile, initialNetworkFile, finalNetworkFile}
	for _, file := range files {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}

	images, err := filepath.Glob(filepath.Join(src, "images", "*.png"))
	if err != nil {
		return "", err
	}
	if len(images) > 0 {
		if err := os.MkdirAll(filepath.Join(dst, "images"), 0o755); err != nil {
			return "", err
		}
	}
	for _, image := range images {
		if err := copyFile(image, filepath.Join(dst, "images", filepath.Base(image))); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, configFile), &cfg)
	return cfg, ok, err
}

// ReadNetwork loads the "initial" or "final" network snapshot of a run.
func ReadNetwork(baseDir, runID, label string) (model.NetworkSnapshot, bool, error) {
	var name string
	switch label {
	case "initial":
		name = initialNetworkFile
	case "final":
		name = finalNetworkFile
	default:
		return model.NetworkSnapshot{}, false, fmt.Errorf("unknown network label %q", label)
	}
	var snapshot model.NetworkSnapshot
	ok, err := readJSON(filepath.Join(baseDir, runID, name), &snapshot)
	return snapshot, ok, err
}

func ReadInterestAreas(baseDir, runID string) ([]model.InterestAreaRecord, bool, error) {
	var areas []model.InterestAreaRecord
	ok, err := readJSON(filepath.Join(baseDir, runID, interestAreasFile), &areas)
	return areas, ok, err
}

func WriteGenerationStats(runDir string, generations []model.GenerationStats) error {
	file, err := os.Create(filepath.Join(runDir, generationsFile))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(generationsHeader); err != nil {
		return err
	}
	for _, gen := range generations {
		if err := writer.Write([]string{
			strconv.Itoa(gen.Generation),
			strconv.FormatFloat(gen.BestFitness, 'f', -1, 64),
			strconv.FormatFloat(gen.MeanFitness, 'f', -1, 64),
			strconv.Itoa(gen.PopulationSize),
			strconv.Itoa(gen.Components),
			strconv.FormatFloat(float64(gen.Duration)/float64(time.Millisecond), 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadGenerationStats(baseDir, runID string) ([]model.GenerationStats, bool, error) {
	path := filepath.Join(baseDir, runID, generationsFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []model.GenerationStats{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < len(generationsHeader) {
		return nil, false, fmt.Errorf("generations header must have %d columns", len(generationsHeader))
	}

	var out []model.GenerationStats
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		gen, err := parseGenerationRow(record)
		if err != nil {
			return nil, false, fmt.Errorf("generations row %d: %w", len(out)+1, err)
		}
		out = append(out, gen)
	}
	return out, true, nil
}

func parseGenerationRow(record []string) (model.GenerationStats, error) {
	var (
		gen model.GenerationStats
		err error
		ms  float64
	)
	if gen.Generation, err = strconv.Atoi(record[0]); err != nil {
		return gen, err
	}
	if gen.BestFitness, err = strconv.ParseFloat(record[1], 64); err != nil {
		return gen, err
	}
	if gen.MeanFitness, err = strconv.ParseFloat(record[2], 64); err != nil {
		return gen, err
	}
	if gen.PopulationSize, err = strconv.Atoi(record[3]); err != nil {
		return gen, err
	}
	if gen.Components, err = strconv.Atoi(record[4]); err != nil {
		return gen, err
	}
	if ms, err = strconv.ParseFloat(record[5], 64); err != nil {
		return gen, err
	}
	gen.Duration = time.Duration(ms * float64(time.Millisecond))
	return gen, nil
}

func readJSON(path string, value any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
