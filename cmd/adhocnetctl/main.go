package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"adhocnet/internal/fitness"
	"adhocnet/internal/model"
	"adhocnet/pkg/adhocnet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	root := newRootCommand(os.Stdout, os.Stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: newViper(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "adhocnetctl",
		Short:         "Evolve sensor placements for ad hoc wireless networks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindConfig(a.v, cmd); err != nil {
				return err
			}
			logger, err := newLogger(a.stderr, a.v.GetString("log-level"))
			if err != nil {
				return err
			}
			a.log = logger
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (json, yaml or toml)")
	flags.String("store", a.v.GetString("store"), "store backend: memory|sqlite")
	flags.String("db-path", a.v.GetString("db-path"), "sqlite database path")
	flags.String("runs-dir", a.v.GetString("runs-dir"), "directory for run artifacts")
	flags.String("exports-dir", a.v.GetString("exports-dir"), "directory for exported runs")
	flags.String("log-level", a.v.GetString("log-level"), "log level: debug|info|warn|error")

	root.AddCommand(
		a.runCommand(),
		a.benchmarkCommand(),
		a.areasCommand(),
		a.runsCommand(),
		a.exportCommand(),
		a.resilienceCommand(),
	)
	return root
}

func (a *app) client() (*adhocnet.Client, error) {
	cfg := loadConfig(a.v)
	return adhocnet.New(adhocnet.Options{
		StoreKind:  cfg.Store,
		DBPath:     cfg.DBPath,
		RunsDir:    cfg.RunsDir,
		ExportsDir: cfg.ExportsDir,
		Logger:     a.log,
	})
}

func (a *app) runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evolve sensor placements for a set of interest areas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			req := a.runRequest()
			progress, bar := a.progressBar(req.Generations)
			if bar != nil {
				req.OnGeneration = func(model.GenerationStats) { bar.Increment() }
			}
			summary, err := client.Run(cmd.Context(), req)
			if progress != nil {
				if err != nil {
					bar.Abort(false)
				}
				progress.Wait()
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "run_id=%s fitness=%s generations=%s\n",
				summary.RunID, summary.Fitness, humanize.Comma(int64(len(summary.Generations))))
			fmt.Fprintf(a.stdout, "initial=%s best=%s final=%s relays=%s connected=%t elapsed=%s\n",
				humanize.Ftoa(summary.InitialFitness),
				humanize.Ftoa(summary.BestFitness),
				humanize.Ftoa(summary.FinalFitness),
				humanize.Comma(int64(summary.Relays)),
				summary.Connected,
				summary.Elapsed.Round(time.Millisecond),
			)
			if summary.RejectedScores > 0 {
				fmt.Fprintf(a.stdout, "rejected_scores=%s\n", humanize.Comma(int64(summary.RejectedScores)))
			}
			fmt.Fprintf(a.stdout, "artifacts=%s\n", summary.ArtifactsDir)
			return nil
		},
	}

	addRunFlags(cmd)
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("areas", "", "interest areas json file")
	flags.String("fitness", adhocnet.DefaultFitness, fmt.Sprintf("fitness function: %v", fitness.Names()))
	flags.Int("population", adhocnet.DefaultPopulation, "population size")
	flags.Int("generations", adhocnet.DefaultGenerations, "number of generations")
	flags.Float64("mutation-factor", adhocnet.DefaultMutationFactor, "probability an agent is mutated each generation")
	flags.Float64("radius", 1, "communication radius")
	flags.Int64("seed", time.Now().UnixNano(), "random seed")
	flags.Int("workers", 1, "parallel workers")
	flags.Bool("images", false, "save a network image per generation")
}

func (a *app) runRequest() adhocnet.RunRequest {
	req := adhocnet.RunRequest{
		AreasFile:      a.v.GetString("areas"),
		Fitness:        a.v.GetString("fitness"),
		Population:     a.v.GetInt("population"),
		Generations:    a.v.GetInt("generations"),
		MutationFactor: a.v.GetFloat64("mutation-factor"),
		Radius:         a.v.GetFloat64("radius"),
		Seed:           a.v.GetInt64("seed"),
		Workers:        a.v.GetInt("workers"),
		SaveImages:     a.v.GetBool("images"),
	}
	if req.Generations <= 0 {
		req.Generations = adhocnet.DefaultGenerations
	}
	return req
}

func (a *app) benchmarkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Repeat a run over consecutive seeds and aggregate the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			req := adhocnet.BenchmarkRequest{Run: a.runRequest(), Runs: a.v.GetInt("runs")}
			progress, bar := a.progressBar(req.Runs * req.Run.Generations)
			if bar != nil {
				req.Run.OnGeneration = func(model.GenerationStats) { bar.Increment() }
			}
			summary, err := client.Benchmark(cmd.Context(), req)
			if progress != nil {
				if err != nil {
					bar.Abort(false)
				}
				progress.Wait()
			}
			if err != nil {
				return err
			}

			s := summary.Summary
			fmt.Fprintf(a.stdout, "experiment_id=%s runs=%s connected=%s (%.0f%%)\n",
				summary.ExperimentID,
				humanize.Comma(int64(s.TotalRuns)),
				humanize.Comma(int64(s.ConnectedRuns)),
				100*s.ConnectedRate,
			)
			fmt.Fprintf(a.stdout, "best mean=%s std=%s min=%s max=%s relays_mean=%s\n",
				humanize.Ftoa(s.MeanBest),
				humanize.Ftoa(s.StdBest),
				humanize.Ftoa(s.MinBest),
				humanize.Ftoa(s.MaxBest),
				humanize.Ftoa(s.MeanRelays),
			)
			fmt.Fprintf(a.stdout, "dir=%s\n", summary.Directory)
			return nil
		},
	}
	addRunFlags(cmd)
	cmd.Flags().Int("runs", 5, "number of runs")
	return cmd
}

func (a *app) progressBar(total int) (*mpb.Progress, *mpb.Bar) {
	f, ok := a.stderr.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return nil, nil
	}
	p := mpb.New(mpb.WithOutput(f), mpb.WithWidth(60))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("generations "),
			decor.CountersNoUnit("%d / %d", decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "done"),
		),
	)
	return p, bar
}

func (a *app) areasCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "areas",
		Short: "Generate random interest areas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			out := a.v.GetString("out")
			areas, err := client.GenerateAreas(cmd.Context(), adhocnet.AreasRequest{
				Amount:       a.v.GetInt("amount"),
				XLim:         [2]float64{a.v.GetFloat64("xmin"), a.v.GetFloat64("xmax")},
				YLim:         [2]float64{a.v.GetFloat64("ymin"), a.v.GetFloat64("ymax")},
				AllowOverlap: a.v.GetBool("allow-overlap"),
				Seed:         a.v.GetInt64("seed"),
				OutPath:      out,
				ImagePath:    a.v.GetString("image"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "generated %s interest areas -> %s\n", humanize.Comma(int64(len(areas))), out)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Int("amount", 10, "number of interest areas")
	flags.Float64("xmin", 0, "lower x limit")
	flags.Float64("xmax", 10, "upper x limit")
	flags.Float64("ymin", 0, "lower y limit")
	flags.Float64("ymax", 10, "upper y limit")
	flags.Bool("allow-overlap", false, "allow overlapping areas")
	flags.Int64("seed", time.Now().UnixNano(), "random seed")
	flags.String("out", "interest_areas.json", "output json file")
	flags.String("image", "", "optional png of the generated areas")
	return cmd
}

func (a *app) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			items, err := client.Runs(cmd.Context(), adhocnet.RunsRequest{Limit: a.v.GetInt("limit")})
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(a.stdout, "no runs")
				return nil
			}
			for _, item := range items {
				created := item.CreatedAtUTC
				if ts, err := time.Parse(time.RFC3339, item.CreatedAtUTC); err == nil {
					created = humanize.Time(ts)
				}
				fmt.Fprintf(a.stdout, "run_id=%s created=%q fitness=%s population=%s generations=%s initial=%s final=%s relays=%s connected=%t\n",
					item.RunID,
					created,
					item.FitnessFunction,
					humanize.Comma(int64(item.Population)),
					humanize.Comma(int64(item.Generations)),
					humanize.Ftoa(item.InitialFitness),
					humanize.Ftoa(item.FinalFitness),
					humanize.Comma(int64(item.Relays)),
					item.Connected,
				)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "max runs to list")
	return cmd
}

func (a *app) exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a run's artifacts into the exports directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			exported, err := client.Export(cmd.Context(), adhocnet.ExportRequest{
				RunID:  a.v.GetString("run-id"),
				Latest: a.v.GetBool("latest"),
				OutDir: a.v.GetString("out"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("run-id", "", "run id to export")
	flags.Bool("latest", false, "export the most recent run")
	flags.String("out", "", "output directory (defaults to exports-dir)")
	return cmd
}

func (a *app) resilienceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resilience",
		Short: "Remove random vertices from a stored network and track the largest component",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			points, err := client.Resilience(cmd.Context(), adhocnet.ResilienceRequest{
				RunID:    a.v.GetString("run-id"),
				Latest:   a.v.GetBool("latest"),
				Label:    a.v.GetString("label"),
				Seed:     a.v.GetInt64("seed"),
				PlotPath: a.v.GetString("plot"),
			})
			if err != nil {
				return err
			}
			for _, p := range points {
				fmt.Fprintf(a.stdout, "removed=%d largest_component=%d\n", p.Removed, p.LargestComponent)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("run-id", "", "run id to analyse")
	flags.Bool("latest", false, "analyse the most recent run")
	flags.String("label", "final", "network to analyse: initial|final")
	flags.Int64("seed", 1, "random seed for vertex removal order")
	flags.String("plot", "", "optional png of the resilience curve")
	return cmd
}
