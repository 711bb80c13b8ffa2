package evo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strconv"
	"time"

	"adhocnet/internal/fitness"
	"adhocnet/internal/model"
	"adhocnet/internal/network"
)

var ErrEmptyPopulation = errors.New("population is empty")

type Config struct {
	Areas          []*model.InterestArea
	Radius         float64
	PopulationSize int
	Generations    int
	MutationFactor float64
	Fitness        fitness.Function
	Seed           int64
	Workers        int
	Dispatcher     Dispatcher
	ImageSaver     NetworkImageSaver
	SnapshotDir    string
	OnGeneration   func(model.GenerationStats)
	Logger         *slog.Logger
}

type RunResult struct {
	Fittest        *Agent
	InitialFittest *Agent
	// Final is the best agent of the population after relay insertion.
	Final          *Agent
	Generations    []model.GenerationStats
	Relays         int
	RejectedScores int
	Elapsed        time.Duration
}

// Engine evolves a population of networks. It is driven from one goroutine;
// only the dispatched phases fan out, and each task owns a single agent or
// breeding pair.
type Engine struct {
	cfg Config
	rng *rand.Rand
	log *slog.Logger

	agents         []*Agent
	fittest        *Agent
	initialFittest *Agent
	rejected       int
	relays         int
	history        []model.GenerationStats
}

func NewEngine(cfg Config) (*Engine, error) {
	if len(cfg.Areas) == 0 {
		return nil, fmt.Errorf("interest areas are required")
	}
	if cfg.Fitness == nil {
		return nil, fmt.Errorf("fitness function is required")
	}
	if cfg.Radius <= 0 {
		return nil, fmt.Errorf("radius must be > 0")
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.Generations < 0 {
		return nil, fmt.Errorf("generations must be >= 0")
	}
	if cfg.MutationFactor < 0 || cfg.MutationFactor > 1 {
		return nil, fmt.Errorf("mutation factor must be in [0, 1]")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Dispatcher == nil {
		if cfg.Workers > 1 {
			cfg.Dispatcher = PoolDispatcher{Workers: cfg.Workers}
		} else {
			cfg.Dispatcher = SerialDispatcher{}
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		log: cfg.Logger.With("fitness", cfg.Fitness.Name()),
	}, nil
}

func (e *Engine) Agents() []*Agent {
	return e.agents
}

// Fittest returns a snapshot of the best agent seen so far.
func (e *Engine) Fittest() (*Agent, error) {
	if e.fittest == nil {
		return nil, ErrEmptyPopulation
	}
	return e.fittest, nil
}

// InitialFittest returns the best agent of the initial population.
func (e *Engine) InitialFittest() (*Agent, error) {
	if e.initialFittest == nil {
		return nil, ErrEmptyPopulation
	}
	return e.initialFittest, nil
}

func (e *Engine) RejectedScores() int {
	return e.rejected
}

func (e *Engine) History() []model.GenerationStats {
	return e.history
}

// GenerateInitialPopulation replaces the population with freshly randomized
// networks and scores them.
func (e *Engine) GenerateInitialPopulation(ctx context.Context) error {
	agents := make([]*Agent, 0, e.cfg.PopulationSize)
	for i := 0; i < e.cfg.PopulationSize; i++ {
		agent, err := newAgent(e.rng)
		if err != nil {
			return err
		}
		agent.Network = network.New(e.cfg.Areas, e.cfg.Radius, agent.source())
		if err := agent.Network.Randomize(); err != nil {
			return fmt.Errorf("randomize agent %d: %w", i, err)
		}
		agents = append(agents, agent)
	}
	e.agents = agents
	e.fittest = nil

	if err := e.Evaluate(ctx); err != nil {
		return err
	}
	e.initialFittest = e.fittest
	return nil
}

// Evaluate scores every agent and refreshes the best-ever snapshot.
func (e *Engine) Evaluate(ctx context.Context) error {
	agents := e.agents
	fn := e.cfg.Fitness
	err := e.cfg.Dispatcher.Dispatch(ctx, len(agents), func(_ context.Context, i int) error {
		agents[i].Fitness = fn.Evaluate(agents[i].Network)
		agents[i].Evaluated = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	direction := fn.Direction()
	rejected := 0
	for _, agent := range agents {
		if !direction.Valid(agent.Fitness) {
			rejected++
		}
		if e.fittest == nil || direction.Better(agent.Fitness, e.fittest.Fitness) {
			e.fittest = agent.Clone()
		}
	}
	if rejected > 0 {
		e.rejected += rejected
		e.log.Warn("fitness scores rejected", "count", rejected, "direction", direction.String())
	}
	return nil
}

// Select keeps the best PopulationSize agents.
func (e *Engine) Select() {
	e.agents = Truncate(e.agents, e.cfg.Fitness.Direction(), e.cfg.PopulationSize)
}

// Breed pairs agents at random without replacement and appends two
// offspring per pair. An odd agent out sits the round out.
func (e *Engine) Breed(ctx context.Context) error {
	type couple struct {
		a, b *Agent
		seed int64
	}
	remaining := append([]*Agent(nil), e.agents...)
	var couples []couple
	for len(remaining) > 1 {
		i := e.rng.Intn(len(remaining))
		a := remaining[i]
		remaining = append(remaining[:i], remaining[i+1:]...)
		j := e.rng.Intn(len(remaining))
		b := remaining[j]
		remaining = append(remaining[:j], remaining[j+1:]...)
		couples = append(couples, couple{a: a, b: b, seed: e.rng.Int63()})
	}
	if len(couples) == 0 {
		return nil
	}

	offspring := make([]*Agent, 2*len(couples))
	err := e.cfg.Dispatcher.Dispatch(ctx, len(couples), func(_ context.Context, i int) error {
		c := couples[i]
		rng := rand.New(rand.NewSource(c.seed))
		first, err := newAgent(rng)
		if err != nil {
			return err
		}
		second, err := newAgent(rng)
		if err != nil {
			return err
		}
		first.Network, second.Network, err = Crossover(rng, c.a.Network, c.b.Network, first.source(), second.source())
		if err != nil {
			return fmt.Errorf("crossover %s x %s: %w", c.a.ID, c.b.ID, err)
		}
		offspring[2*i] = first
		offspring[2*i+1] = second
		return nil
	})
	if err != nil {
		return fmt.Errorf("breed: %w", err)
	}
	e.agents = append(e.agents, offspring...)
	return nil
}

// Mutate moves one random sensor of each agent with probability
// MutationFactor.
func (e *Engine) Mutate() int {
	mutated := 0
	for _, agent := range e.agents {
		if e.rng.Float64() >= e.cfg.MutationFactor {
			continue
		}
		id, ok := agent.Network.RandomSensor(false)
		if !ok {
			continue
		}
		if agent.Network.MoveSensor(id) {
			agent.Evaluated = false
			mutated++
		}
	}
	return mutated
}

// AddRelays bridges overlapping components in every agent and returns the
// number of relays kept.
func (e *Engine) AddRelays(ctx context.Context) (int, error) {
	agents := e.agents
	seeds := make([]int64, len(agents))
	for i := range seeds {
		seeds[i] = e.rng.Int63()
	}
	counts := make([]int, len(agents))
	err := e.cfg.Dispatcher.Dispatch(ctx, len(agents), func(ctx context.Context, i int) error {
		n, err := InsertRelays(ctx, rand.New(rand.NewSource(seeds[i])), agents[i].Network)
		counts[i] = n
		if n > 0 {
			agents[i].Evaluated = false
		}
		if err != nil {
			return fmt.Errorf("agent %s: %w", agents[i].ID, err)
		}
		return nil
	})
	total := 0
	for _, n := range counts {
		total += n
	}
	e.relays += total
	if err != nil {
		return total, fmt.Errorf("add relays: %w", err)
	}
	return total, nil
}

// Run evolves for exactly Generations rounds, then inserts relays and scores
// the population one last time.
func (e *Engine) Run(ctx context.Context) (RunResult, error) {
	start := time.Now()
	if len(e.agents) == 0 {
		if err := e.phase(ctx, "initial", 0, func() error { return e.GenerateInitialPopulation(ctx) }); err != nil {
			return RunResult{}, err
		}
	}
	if e.initialFittest != nil {
		if err := e.saveImage("initial", e.initialFittest.Network); err != nil {
			return RunResult{}, err
		}
	}

	for gen := 1; gen <= e.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
		genStart := time.Now()

		if err := e.phase(ctx, "evaluate", gen, func() error { return e.Evaluate(ctx) }); err != nil {
			return RunResult{}, err
		}
		stats := e.summarize(gen)

		e.Select()
		if err := e.phase(ctx, "breed", gen, func() error { return e.Breed(ctx) }); err != nil {
			return RunResult{}, err
		}
		mutated := e.Mutate()

		if err := e.saveImage(strconv.Itoa(gen), e.fittest.Network); err != nil {
			return RunResult{}, err
		}
		stats.Duration = time.Since(genStart)
		e.history = append(e.history, stats)
		e.log.Debug("generation complete",
			"generation", gen,
			"best", stats.BestFitness,
			"mean", stats.MeanFitness,
			"population", len(e.agents),
			"mutated", mutated,
			"elapsed", stats.Duration,
		)
		if e.cfg.OnGeneration != nil {
			e.cfg.OnGeneration(stats)
		}
	}

	if err := e.phase(ctx, "relays", e.cfg.Generations, func() error {
		_, err := e.AddRelays(ctx)
		return err
	}); err != nil {
		return RunResult{}, err
	}
	if err := e.phase(ctx, "final", e.cfg.Generations, func() error { return e.Evaluate(ctx) }); err != nil {
		return RunResult{}, err
	}

	Rank(e.agents, e.cfg.Fitness.Direction())
	final := e.agents[0].Clone()
	if err := e.saveImage("final", final.Network); err != nil {
		return RunResult{}, err
	}
	result := RunResult{
		Fittest:        e.fittest,
		InitialFittest: e.initialFittest,
		Final:          final,
		Generations:    e.history,
		Relays:         e.relays,
		RejectedScores: e.rejected,
		Elapsed:        time.Since(start),
	}
	e.log.Info("run complete",
		"generations", e.cfg.Generations,
		"initial", e.initialFittest.Fitness,
		"final", e.fittest.Fitness,
		"relays", e.relays,
		"elapsed", result.Elapsed,
	)
	return result, nil
}

func (e *Engine) phase(ctx context.Context, name string, gen int, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	e.log.Debug("phase", "name", name, "generation", gen, "elapsed", time.Since(start))
	return err
}

func (e *Engine) summarize(gen int) model.GenerationStats {
	direction := e.cfg.Fitness.Direction()
	sum, valid := 0.0, 0
	for _, agent := range e.agents {
		if direction.Valid(agent.Fitness) {
			sum += agent.Fitness
			valid++
		}
	}
	stats := model.GenerationStats{
		Generation:     gen,
		BestFitness:    e.fittest.Fitness,
		PopulationSize: len(e.agents),
		Components:     len(e.fittest.Network.Graph().Components()),
	}
	if valid > 0 {
		stats.MeanFitness = sum / float64(valid)
	}
	return stats
}

// saveImage renders net as <SnapshotDir>/<label>.png titled "Gen <label>".
func (e *Engine) saveImage(label string, net *network.Network) error {
	if e.cfg.ImageSaver == nil || net == nil {
		return nil
	}
	path := filepath.Join(e.cfg.SnapshotDir, label+".png")
	if err := e.cfg.ImageSaver.SaveNetworkImage(net, "Gen "+label, path); err != nil {
		return fmt.Errorf("save %s image: %w", label, err)
	}
	return nil
}
