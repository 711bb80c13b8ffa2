package adhocnet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"adhocnet/internal/analysis"
	"adhocnet/internal/evo"
	"adhocnet/internal/fitness"
	"adhocnet/internal/geometry"
	"adhocnet/internal/model"
	"adhocnet/internal/network"
	"adhocnet/internal/render"
	"adhocnet/internal/stats"
	"adhocnet/internal/storage"
)

const (
	defaultRunsDir    = "runs"
	defaultExportsDir = "exports"
	defaultDBPath     = "adhocnet.db"

	DefaultFitness        = "fewest_components"
	DefaultPopulation     = 20
	DefaultGenerations    = 50
	DefaultMutationFactor = 0.8
)

var validate = validator.New()

type Options struct {
	StoreKind  string
	DBPath     string
	RunsDir    string
	ExportsDir string
	Logger     *slog.Logger
}

type Client struct {
	store storage.Store
	log   *slog.Logger

	runsDir    string
	exportsDir string

	mu          sync.Mutex
	initialized bool
}

// RunRequest describes one optimization run. Zero values pick the package
// defaults; a zero MutationFactor means DefaultMutationFactor.
type RunRequest struct {
	Areas          []*model.InterestArea
	AreasFile      string
	Fitness        string
	Population     int     `validate:"gte=0"`
	Generations    int     `validate:"gte=0"`
	MutationFactor float64 `validate:"gte=0,lte=1"`
	Radius         float64 `validate:"gte=0"`
	Seed           int64
	Workers        int `validate:"gte=0"`
	SaveImages     bool
	OnGeneration   func(model.GenerationStats)
}

type RunSummary struct {
	RunID          string
	ArtifactsDir   string
	Fitness        string
	InitialFitness float64
	BestFitness    float64
	FinalFitness   float64
	Generations    []model.GenerationStats
	Relays         int
	Connected      bool
	RejectedScores int
	Elapsed        time.Duration
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID           string
	CreatedAtUTC    string
	FitnessFunction string
	Seed            int64
	Population      int
	Generations     int
	InitialFitness  float64
	FinalFitness    float64
	Relays          int
	Connected       bool
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type ResilienceRequest struct {
	RunID    string
	Latest   bool
	Label    string `validate:"omitempty,oneof=initial final"`
	Seed     int64
	PlotPath string
}

// BenchmarkRequest repeats Run with seeds Run.Seed, Run.Seed+1, ...
type BenchmarkRequest struct {
	Run  RunRequest
	Runs int `validate:"gt=0"`
}

type BenchmarkSummary struct {
	ExperimentID string
	Directory    string
	Runs         []stats.ExperimentRun
	Summary      stats.ExperimentSummary
	Trace        []stats.GenerationAggregate
}

type AreasRequest struct {
	Amount       int `validate:"gt=0"`
	XLim         [2]float64
	YLim         [2]float64
	AllowOverlap bool
	Seed         int64
	OutPath      string
	ImagePath    string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	runsDir := opts.RunsDir
	if runsDir == "" {
		runsDir = defaultRunsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		log:        logger,
		runsDir:    runsDir,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	c.initialized = true
	return nil
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Fitness == "" {
		req.Fitness = DefaultFitness
	}
	if req.Population == 0 {
		req.Population = DefaultPopulation
	}
	if req.Generations == 0 {
		req.Generations = DefaultGenerations
	}
	if req.MutationFactor == 0 {
		req.MutationFactor = DefaultMutationFactor
	}
	if req.Radius == 0 {
		req.Radius = 1
	}
	if req.Workers == 0 {
		req.Workers = 1
	}
	if err := validate.Struct(req); err != nil {
		return RunSummary{}, fmt.Errorf("invalid run request: %w", err)
	}

	areas := req.Areas
	if len(areas) == 0 {
		if req.AreasFile == "" {
			return RunSummary{}, errors.New("run requires interest areas or an areas file")
		}
		loaded, err := network.LoadAreasFile(req.AreasFile)
		if err != nil {
			return RunSummary{}, err
		}
		areas = loaded
	}
	fn, err := fitness.Resolve(req.Fitness)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("%s-%d-%s", fn.Name(), req.Seed, uuid.NewString()[:8])
	runDir := filepath.Join(c.runsDir, runID)
	logger := c.log.With("run_id", runID)

	cfg := evo.Config{
		Areas:          areas,
		Radius:         req.Radius,
		PopulationSize: req.Population,
		Generations:    req.Generations,
		MutationFactor: req.MutationFactor,
		Fitness:        fn,
		Seed:           req.Seed,
		Workers:        req.Workers,
		OnGeneration:   req.OnGeneration,
		Logger:         logger,
	}
	if req.SaveImages {
		cfg.ImageSaver = render.ImageSaver{}
		cfg.SnapshotDir = filepath.Join(runDir, "images")
	}
	engine, err := evo.NewEngine(cfg)
	if err != nil {
		return RunSummary{}, err
	}

	logger.Info("run started",
		"areas", len(areas),
		"population", req.Population,
		"generations", req.Generations,
		"workers", req.Workers,
	)
	result, err := engine.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	final := result.Final.Network
	connected := final.Graph().IsConnected()
	initialSnapshot := versioned(result.InitialFittest.Network.Snapshot())
	finalSnapshot := versioned(final.Snapshot())

	record := model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              runID,
		CreatedAt:       now,
		FitnessFunction: fn.Name(),
		Direction:       fn.Direction().String(),
		PopulationSize:  req.Population,
		Generations:     req.Generations,
		MutationFactor:  req.MutationFactor,
		Radius:          req.Radius,
		Seed:            req.Seed,
		Workers:         req.Workers,
		InterestAreas:   len(areas),
		InitialFitness:  result.InitialFittest.Fitness,
		BestFitness:     result.Fittest.Fitness,
		FinalFitness:    result.Final.Fitness,
		Relays:          final.RelayCount(),
		Connected:       connected,
		RejectedScores:  result.RejectedScores,
		ElapsedSeconds:  result.Elapsed.Seconds(),
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveNetwork(ctx, runID, "initial", initialSnapshot); err != nil {
		return RunSummary{}, fmt.Errorf("save initial network: %w", err)
	}
	if err := c.store.SaveNetwork(ctx, runID, "final", finalSnapshot); err != nil {
		return RunSummary{}, fmt.Errorf("save final network: %w", err)
	}
	if err := c.store.SaveGenerationStats(ctx, runID, result.Generations); err != nil {
		return RunSummary{}, fmt.Errorf("save generation stats: %w", err)
	}

	artifactsDir, err := stats.WriteRunArtifacts(c.runsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:           runID,
			CreatedAtUTC:    now.Format(time.RFC3339),
			FitnessFunction: fn.Name(),
			Direction:       fn.Direction().String(),
			PopulationSize:  req.Population,
			Generations:     req.Generations,
			MutationFactor:  req.MutationFactor,
			Radius:          req.Radius,
			Seed:            req.Seed,
			Workers:         req.Workers,
			AreasFile:       req.AreasFile,
			SnapshotDir:     cfg.SnapshotDir,
		},
		Generations:    result.Generations,
		InterestAreas:  finalSnapshot.InterestAreas,
		InitialNetwork: initialSnapshot,
		FinalNetwork:   finalSnapshot,
		InitialFitness: record.InitialFitness,
		BestFitness:    record.BestFitness,
		FinalFitness:   record.FinalFitness,
		Relays:         record.Relays,
		Connected:      connected,
	})
	if err != nil {
		return RunSummary{}, fmt.Errorf("write artifacts: %w", err)
	}
	if req.SaveImages && len(result.Generations) > 0 {
		points := make([]geometry.Point, 0, len(result.Generations))
		for _, gen := range result.Generations {
			points = append(points, geometry.Point{X: float64(gen.Generation), Y: gen.BestFitness})
		}
		if err := render.SaveStatisticsPlot("Gen-Fitness", points, filepath.Join(artifactsDir, "images", "fitness.png")); err != nil {
			return RunSummary{}, err
		}
		for i, gen := range result.Generations {
			points[i].Y = gen.Duration.Seconds()
		}
		if err := render.SaveStatisticsPlot("Gen-Time", points, filepath.Join(artifactsDir, "images", "generation_time.png")); err != nil {
			return RunSummary{}, err
		}
	}

	logger.Info("run stored", "dir", artifactsDir, "connected", connected, "relays", record.Relays)
	return RunSummary{
		RunID:          runID,
		ArtifactsDir:   artifactsDir,
		Fitness:        fn.Name(),
		InitialFitness: record.InitialFitness,
		BestFitness:    record.BestFitness,
		FinalFitness:   record.FinalFitness,
		Generations:    result.Generations,
		Relays:         record.Relays,
		Connected:      connected,
		RejectedScores: result.RejectedScores,
		Elapsed:        result.Elapsed,
	}, nil
}

func (c *Client) Benchmark(ctx context.Context, req BenchmarkRequest) (BenchmarkSummary, error) {
	if err := validate.Struct(req); err != nil {
		return BenchmarkSummary{}, fmt.Errorf("invalid benchmark request: %w", err)
	}
	fitnessName := req.Run.Fitness
	if fitnessName == "" {
		fitnessName = DefaultFitness
	}

	exp := stats.Experiment{
		ID:              fmt.Sprintf("exp-%s-%d-%s", fitnessName, req.Run.Seed, uuid.NewString()[:8]),
		FitnessFunction: fitnessName,
		StartedAtUTC:    time.Now().UTC().Format(time.RFC3339),
		Runs:            make([]stats.ExperimentRun, 0, req.Runs),
	}
	histories := make([][]model.GenerationStats, 0, req.Runs)
	for i := 0; i < req.Runs; i++ {
		runReq := req.Run
		runReq.Seed = req.Run.Seed + int64(i)
		summary, err := c.Run(ctx, runReq)
		if err != nil {
			return BenchmarkSummary{}, fmt.Errorf("experiment %s run %d: %w", exp.ID, i+1, err)
		}
		exp.Runs = append(exp.Runs, stats.ExperimentRun{
			RunID:        summary.RunID,
			Seed:         runReq.Seed,
			BestFitness:  summary.BestFitness,
			FinalFitness: summary.FinalFitness,
			Relays:       summary.Relays,
			Connected:    summary.Connected,
		})
		histories = append(histories, summary.Generations)
	}
	exp.Summary = stats.SummarizeExperiment(exp.Runs)
	exp.Trace = stats.AggregateGenerations(histories)

	dir, err := stats.WriteExperiment(c.runsDir, exp)
	if err != nil {
		return BenchmarkSummary{}, err
	}
	if req.Run.SaveImages && len(exp.Trace) > 0 {
		points := make([]geometry.Point, 0, len(exp.Trace))
		for _, gen := range exp.Trace {
			points = append(points, geometry.Point{X: float64(gen.Generation), Y: gen.MeanBest})
		}
		if err := render.SaveStatisticsPlot("Gen-MeanFitness", points, filepath.Join(dir, "mean_fitness.png")); err != nil {
			return BenchmarkSummary{}, err
		}
	}
	c.log.Info("experiment stored", "experiment_id", exp.ID, "runs", len(exp.Runs), "connected_rate", exp.Summary.ConnectedRate)
	return BenchmarkSummary{
		ExperimentID: exp.ID,
		Directory:    dir,
		Runs:         exp.Runs,
		Summary:      exp.Summary,
		Trace:        exp.Trace,
	}, nil
}

// Runs lists stored runs newest first. The run index on disk is used when
// the store has no runs, e.g. a fresh in-memory store.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	records, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	var out []RunItem
	if len(records) > 0 {
		for i := len(records) - 1; i >= 0 && len(out) < req.Limit; i-- {
			r := records[i]
			out = append(out, RunItem{
				RunID:           r.ID,
				CreatedAtUTC:    r.CreatedAt.UTC().Format(time.RFC3339),
				FitnessFunction: r.FitnessFunction,
				Seed:            r.Seed,
				Population:      r.PopulationSize,
				Generations:     r.Generations,
				InitialFitness:  r.InitialFitness,
				FinalFitness:    r.FinalFitness,
				Relays:          r.Relays,
				Connected:       r.Connected,
			})
		}
		return out, nil
	}

	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	out = make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:           e.RunID,
			CreatedAtUTC:    e.CreatedAtUTC,
			FitnessFunction: e.FitnessFunction,
			Seed:            e.Seed,
			Population:      e.PopulationSize,
			Generations:     e.Generations,
			InitialFitness:  e.InitialFitness,
			FinalFitness:    e.FinalFitness,
			Relays:          e.Relays,
			Connected:       e.Connected,
		})
	}
	return out, nil
}

func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}

	exportedDir, err := stats.ExportRunArtifacts(c.runsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// Resilience replays random vertex failures on a stored network.
func (c *Client) Resilience(ctx context.Context, req ResilienceRequest) ([]analysis.ResiliencePoint, error) {
	if req.Label == "" {
		req.Label = "final"
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid resilience request: %w", err)
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	snapshot, ok, err := c.store.GetNetwork(ctx, runID, req.Label)
	if err != nil {
		return nil, err
	}
	if !ok {
		snapshot, ok, err = stats.ReadNetwork(c.runsDir, runID, req.Label)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%s network for run %s not found", req.Label, runID)
		}
	}

	rng := rand.New(rand.NewSource(req.Seed))
	net, err := network.FromSnapshot(snapshot, rng)
	if err != nil {
		return nil, err
	}
	points := analysis.Resilience(net, rng)
	if req.PlotPath != "" && len(points) > 0 {
		xy := make([]geometry.Point, 0, len(points))
		for _, p := range points {
			xy = append(xy, geometry.Point{X: float64(p.Removed), Y: float64(p.LargestComponent)})
		}
		if err := render.SaveStatisticsPlot("Resilience", xy, req.PlotPath); err != nil {
			return nil, err
		}
	}
	return points, nil
}

// GenerateAreas scatters random interest areas and optionally writes them
// as JSON and as an image.
func (c *Client) GenerateAreas(_ context.Context, req AreasRequest) ([]*model.InterestArea, error) {
	defaults := network.DefaultGenerateOptions()
	if req.XLim == [2]float64{} {
		req.XLim = defaults.XLim
	}
	if req.YLim == [2]float64{} {
		req.YLim = defaults.YLim
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid areas request: %w", err)
	}

	areas, err := network.GenerateAreas(rand.New(rand.NewSource(req.Seed)), network.GenerateOptions{
		Amount:       req.Amount,
		XLim:         req.XLim,
		YLim:         req.YLim,
		AllowOverlap: req.AllowOverlap,
	})
	if err != nil {
		return nil, err
	}

	if req.OutPath != "" {
		if dir := filepath.Dir(req.OutPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		f, err := os.Create(req.OutPath)
		if err != nil {
			return nil, err
		}
		if err := network.SaveAreas(f, areas); err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}
	if req.ImagePath != "" {
		if err := render.SaveAreasImage(areas, "Interest areas", req.ImagePath); err != nil {
			return nil, err
		}
	}
	return areas, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID == "" && !latest {
		return "", errors.New("run id or latest is required")
	}
	if err := c.Init(ctx); err != nil {
		return "", err
	}
	if runID != "" {
		return runID, nil
	}

	items, err := c.Runs(ctx, RunsRequest{Limit: 1})
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", errors.New("no runs available")
	}
	return items[0].RunID, nil
}

func versioned(snapshot model.NetworkSnapshot) model.NetworkSnapshot {
	snapshot.VersionedRecord = storage.Versioned()
	return snapshot
}
