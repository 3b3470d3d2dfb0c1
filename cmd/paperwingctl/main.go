// Command paperwingctl drives fold-design optimization runs and inspects
// their artifacts from the shell.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"paperwing/internal/storage"
	"paperwing/pkg/paperwing"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "resume":
		return runResume(ctx, args[1:])
	case "sweep":
		return runSweep(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "top":
		return runTop(ctx, args[1:])
	case "trajectory":
		return runTrajectory(ctx, args[1:])
	case "profiles":
		return runProfiles(ctx, args[1:])
	case "profile-summary":
		return runProfileSummary(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: paperwingctl <init|reset|run|resume|sweep|runs|fitness|diagnostics|top|trajectory|profiles|profile-summary|export> [flags]", msg)
}

func addClientFlags(fs *flag.FlagSet) (storeKind, dbPath, benchmarksDir, exportsDir *string) {
	storeKind = fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath = fs.String("db-path", "paperwing.db", "sqlite database path")
	benchmarksDir = fs.String("benchmarks-dir", "benchmarks", "run artifacts directory")
	exportsDir = fs.String("exports-dir", "exports", "export output directory")
	return
}

func newClient(storeKind, dbPath, benchmarksDir, exportsDir string) (*paperwing.Client, error) {
	return paperwing.New(paperwing.Options{
		StoreKind:     storeKind,
		DBPath:        dbPath,
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, exportsDir := addClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *exportsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, exportsDir := addClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *exportsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Reset(ctx); err != nil {
		return err
	}
	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, exportsDir := addClientFlags(fs)
	configPath := fs.String("config", "", "run config path (json or yaml)")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	profile := fs.String("profile", "standard", "condition profile: standard|calm|tailwind|headwind|crosswind|gusty")
	objective := fs.String("objective", "balanced", "fitness objective: balanced|distance|stability")
	population := fs.Int("pop", 30, "population size")
	generations := fs.Int("gens", 50, "generation count")
	seed := fs.Int64("seed", 1, "rng seed")
	workers := fs.Int("workers", 4, "worker count")
	elite := fs.Int("elite", 0, "elite count (0 derives from population)")
	selection := fs.String("selection", "tournament", "parent selection: tournament|elite|roulette")
	crossoverOp := fs.String("crossover", "blend", "crossover operator: blend|single_point|uniform")
	crossoverAlpha := fs.Float64("crossover-alpha", 0, "blend crossover alpha (0 uses default)")
	crossoverRate := fs.Float64("crossover-rate", 0.8, "crossover probability")
	mutationRate := fs.Float64("mutation-rate", 0.1, "per-gene mutation probability")
	mutationScale := fs.Float64("mutation-scale", 0, "mutation delta as a fraction of gene range (0 uses default)")
	enableTuning := fs.Bool("tuning", false, "enable hill-climb tuning")
	tuneAttempts := fs.Int("attempts", 4, "tuning attempts per evaluation")
	tuneSteps := fs.Int("tune-steps", 0, "genes perturbed per tuning attempt (0 uses default)")
	tuneStepSize := fs.Float64("tune-step-size", 0, "tuning perturbation magnitude (0 uses default)")
	tunePolicy := fs.String("tune-attempt-policy", "fixed", "tuning attempt policy: fixed|linear_decay")
	tunePolicyParam := fs.Float64("tune-attempt-param", 0, "tuning attempt policy parameter")
	stagnationPatience := fs.Int("stagnation-patience", 0, "stop after N stagnant generations (0 disables)")
	stagnationEpsilon := fs.Float64("stagnation-epsilon", 0, "minimum improvement that resets stagnation")
	timeStep := fs.Float64("time-step", 0, "integration time step in seconds (0 uses default)")
	maxDuration := fs.Float64("max-duration", 0, "flight timeout in seconds (0 uses default)")
	speedLimit := fs.Float64("speed-limit", 0, "divergence speed bound in m/s (0 uses default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	var req paperwing.RunRequest
	if *configPath != "" {
		loaded, err := loadRunRequestFromConfig(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		req = loaded
	} else {
		req = paperwing.RunRequest{
			RunID:                  *runID,
			Profile:                *profile,
			Objective:              *objective,
			Population:             *population,
			Generations:            *generations,
			Seed:                   *seed,
			Workers:                *workers,
			EliteCount:             *elite,
			Selection:              *selection,
			Crossover:              *crossoverOp,
			CrossoverAlpha:         *crossoverAlpha,
			CrossoverRate:          *crossoverRate,
			MutationRate:           *mutationRate,
			MutationScale:          *mutationScale,
			EnableTuning:           *enableTuning,
			TuneAttempts:           *tuneAttempts,
			TuneSteps:              *tuneSteps,
			TuneStepSize:           *tuneStepSize,
			TuneAttemptPolicy:      *tunePolicy,
			TuneAttemptPolicyParam: *tunePolicyParam,
			StagnationPatience:     *stagnationPatience,
			StagnationEpsilon:      *stagnationEpsilon,
			TimeStep:               *timeStep,
			MaxFlightDuration:      *maxDuration,
			SpeedLimit:             *speedLimit,
		}
	}
	if *configPath != "" {
		overrideFromFlags(&req, setFlags, map[string]any{
			"run-id":              *runID,
			"profile":             *profile,
			"objective":           *objective,
			"pop":                 *population,
			"gens":                *generations,
			"seed":                *seed,
			"workers":             *workers,
			"elite":               *elite,
			"selection":           *selection,
			"crossover":           *crossoverOp,
			"crossover-alpha":     *crossoverAlpha,
			"crossover-rate":      *crossoverRate,
			"mutation-rate":       *mutationRate,
			"mutation-scale":      *mutationScale,
			"tuning":              *enableTuning,
			"attempts":            *tuneAttempts,
			"tune-steps":          *tuneSteps,
			"tune-step-size":      *tuneStepSize,
			"tune-attempt-policy": *tunePolicy,
			"tune-attempt-param":  *tunePolicyParam,
			"stagnation-patience": *stagnationPatience,
			"stagnation-epsilon":  *stagnationEpsilon,
			"time-step":           *timeStep,
			"max-duration":        *maxDuration,
			"speed-limit":         *speedLimit,
		})
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *exportsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	printRunSummary(summary)
	return nil
}

func runResume(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("resume", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, exportsDir := addClientFlags(fs)
	runID := fs.String("run-id", "", "run id to resume")
	latest := fs.Bool("latest", false, "resume the most recent run")
	generations := fs.Int("gens", 0, "additional generations (0 reuses the stored count)")
	workers := fs.Int("workers", 0, "worker count override")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *exportsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Resume(ctx, paperwing.ResumeRequest{
		RunID:       *runID,
		Latest:      *latest,
		Generations: *generations,
		Workers:     *workers,
	})
	if err != nil {
		return err
	}
	printRunSummary(summary)
	return nil
}

func runSweep(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, exportsDir := addClientFlags(fs)
	profile := fs.String("profile", "standard", "condition profile")
	objective := fs.String("objective", "balanced", "fitness objective")
	population := fs.Int("pop", 30, "population size")
	generations := fs.Int("gens", 50, "generation count")
	baseSeed := fs.Int64("seed", 1, "base rng seed")
	seedsFlag := fs.String("seeds", "", "comma-separated explicit seeds (overrides -count)")
	count := fs.Int("count", 3, "number of seeds starting at -seed")
	parallel := fs.Int("parallel", 2, "concurrent runs")
	workers := fs.Int("workers", 2, "worker count per run")
	enableTuning := fs.Bool("tuning", false, "enable hill-climb tuning")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var seeds []int64
	if *seedsFlag != "" {
		for _, part := range strings.Split(*seedsFlag, ",") {
			seed, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return fmt.Errorf("parse seeds: %w", err)
			}
			seeds = append(seeds, seed)
		}
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *exportsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	sweep, err := client.Sweep(ctx, paperwing.SweepRequest{
		Base: paperwing.RunRequest{
			Profile:      *profile,
			Objective:    *objective,
			Population:   *population,
			Generations:  *generations,
			Seed:         *baseSeed,
			Workers:      *workers,
			EnableTuning: *enableTuning,
		},
		Seeds:    seeds,
		Count:    *count,
		Parallel: *parallel,
	})
	if err != nil {
		return err
	}

	for _, item := range sweep.Items {
		fmt.Printf("seed=%d run=%s best=%.6f stop=%s\n",
			item.Seed, item.Summary.RunID, item.Summary.FinalBestFitness, item.Summary.StopReason)
	}
	fmt.Printf("best: run=%s seed=%d fitness=%.6f\n", sweep.BestRunID, sweep.BestSeed, sweep.BestFitness)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, exportsDir := addClientFlags(fs)
	limit := fs.Int("limit", 20, "maximum entries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *exportsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, paperwing.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	for _, item := range runs {
		fmt.Printf("%s  %s  profile=%s objective=%s seed=%d pop=%d gens=%d tuning=%t best=%.6f stop=%s\n",
			item.CreatedAtUTC, item.RunID, item.Profile, item.Objective,
			item.Seed, item.Population, item.Generations, item.TuningEnabled,
			item.FinalBestFitness, item.StopReason)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, exportsDir := addClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 0, "maximum generations (0 shows all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *exportsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, paperwing.FitnessHistoryRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	for _, summary := range history {
		fmt.Printf("gen=%d best=%.6f mean=%.6f worst=%.6f evals=%d\n",
			summary.Generation, summary.Best, summary.Mean, summary.Worst, summary.Evaluations)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, exportsDir := addClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 0, "maximum generations (0 shows all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *exportsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.Diagnostics(ctx, paperwing.DiagnosticsRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	for _, summary := range history {
		fmt.Printf("gen=%d best=%.6f mean=%.6f worst=%.6f evals=%d\n",
			summary.Generation, summary.Best, summary.Mean, summary.Worst, summary.Evaluations)
	}
	return nil
}

func runTop(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, exportsDir := addClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 5, "maximum genomes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *exportsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	top, err := client.TopGenomes(ctx, paperwing.TopGenomesRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	for _, record := range top {
		fmt.Printf("rank=%d fitness=%.6f id=%s genes=%v\n",
			record.Rank, record.Fitness, record.Genome.ID, record.Genome.Genes)
	}
	return nil
}

func runTrajectory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trajectory", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, exportsDir := addClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	condition := fs.String("condition", "", "condition name (default: first recorded)")
	step := fs.Int("step", 10, "print every Nth sample")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *step <= 0 {
		return errors.New("step must be > 0")
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *exportsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	trajectory, err := client.Trajectory(ctx, paperwing.TrajectoryRequest{
		RunID:     *runID,
		Latest:    *latest,
		Condition: *condition,
	})
	if err != nil {
		return err
	}
	fmt.Printf("condition=%s samples=%d\n", trajectory.Condition, len(trajectory.Samples))
	for i := 0; i < len(trajectory.Samples); i += *step {
		sample := trajectory.Samples[i]
		fmt.Printf("t=%.2f x=%.3f y=%.3f z=%.3f aoa=%.4f\n",
			sample.Time, sample.Position.X, sample.Position.Y, sample.Position.Z, sample.AngleOfAttack)
	}
	return nil
}

func runProfiles(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profiles", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, exportsDir := addClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *exportsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("profiles: %s\n", strings.Join(client.Profiles(), " "))
	fmt.Printf("objectives: %s\n", strings.Join(client.Objectives(), " "))
	return nil
}

func runProfileSummary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile-summary", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, exportsDir := addClientFlags(fs)
	profile := fs.String("profile", "", "profile name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *profile == "" {
		return errors.New("profile name is required")
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *exportsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.ProfileSummary(ctx, *profile)
	if err != nil {
		return err
	}
	fmt.Printf("profile=%s best=%.6f %s\n", summary.Name, summary.BestFitness, summary.Description)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, exportsDir := addClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", "", "output directory (default: exports dir)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *exportsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	export, err := client.Export(ctx, paperwing.ExportRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *outDir,
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported run=%s dir=%s\n", export.RunID, export.Directory)
	return nil
}

func printRunSummary(summary paperwing.RunSummary) {
	fmt.Printf("run=%s profile=%s objective=%s stop=%s\n",
		summary.RunID, summary.Profile, summary.Objective, summary.StopReason)
	for _, gen := range summary.History {
		fmt.Printf("gen=%d best=%.6f mean=%.6f worst=%.6f\n",
			gen.Generation, gen.Best, gen.Mean, gen.Worst)
	}
	fmt.Printf("final best=%.6f genome=%s genes=%v\n",
		summary.FinalBestFitness, summary.BestGenome.ID, summary.BestGenome.Genes)
	fmt.Printf("artifacts: %s\n", summary.ArtifactsDir)
}
