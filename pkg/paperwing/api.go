// Package paperwing is the embedding API: it owns a store and a bench
// and exposes runs, sweeps, and artifact queries to callers.
package paperwing

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"paperwing/internal/aero"
	"paperwing/internal/conditions"
	"paperwing/internal/evo"
	"paperwing/internal/fitness"
	"paperwing/internal/geometry"
	"paperwing/internal/model"
	"paperwing/internal/platform"
	"paperwing/internal/stats"
	"paperwing/internal/storage"
	"paperwing/internal/tuning"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"
	defaultDBPath        = "paperwing.db"
)

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	ExportsDir    string
}

type Client struct {
	store storage.Store
	bench *platform.Bench

	// indexMu serializes run-index updates; sweeps write concurrently.
	indexMu sync.Mutex

	benchmarksDir string
	exportsDir    string
}

type RunRequest struct {
	RunID       string
	Profile     string
	Objective   string
	Population  int
	Generations int
	Seed        int64
	Workers     int
	EliteCount  int
	Selection   string
	Crossover   string
	// CrossoverRate 0 selects the 0.8 default; a negative value disables
	// crossover. MutationRate 0 selects the 0.1 default; a negative value
	// selects the operator's 1/sqrt(gene count) rule.
	CrossoverAlpha         float64
	CrossoverRate          float64
	MutationRate           float64
	MutationScale          float64
	EnableTuning           bool
	TuneAttempts           int
	TuneSteps              int
	TuneStepSize           float64
	TuneAttemptPolicy      string
	TuneAttemptPolicyParam float64
	StagnationPatience     int
	StagnationEpsilon      float64
	// Simulation window; zero values select the simulator defaults.
	TimeStep          float64
	MaxFlightDuration float64
	SpeedLimit        float64
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	Profile          string
	Objective        string
	History          []model.GenerationSummary
	FinalBestFitness float64
	StopReason       string
	BestGenome       model.Genome
	BestResult       model.FitnessResult
}

type ResumeRequest struct {
	RunID       string
	Latest      bool
	Generations int
	Workers     int
}

type SweepRequest struct {
	Base     RunRequest
	Seeds    []int64
	Count    int
	Parallel int
}

type SweepItem struct {
	Seed    int64
	Summary RunSummary
}

type SweepSummary struct {
	Items       []SweepItem
	BestRunID   string
	BestSeed    int64
	BestFitness float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Profile          string
	Objective        string
	Seed             int64
	Population       int
	Generations      int
	TuningEnabled    bool
	FinalBestFitness float64
	StopReason       string
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type TopGenomesRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type TrajectoryRequest struct {
	RunID     string
	Latest    bool
	Condition string
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

type ProfileSummaryItem struct {
	Name        string
	Description string
	BestFitness float64
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
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		benchmarksDir: benchmarksDir,
		exportsDir:    exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensureBench(ctx)
	return err
}

// Reset drops all persisted state and reinitializes the bench.
func (c *Client) Reset(ctx context.Context) error {
	bench, err := c.ensureBench(ctx)
	if err != nil {
		return err
	}
	if err := bench.Reset(ctx); err != nil {
		return err
	}
	return bench.RegisterDefaultProfiles()
}

// Run executes one optimization: seed a population, evolve it, and write
// the artifacts directory plus the run index entry.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	req, err := applyRunDefaults(req)
	if err != nil {
		return RunSummary{}, err
	}

	selector, err := evo.SelectorFromConfig(req.Selection)
	if err != nil {
		return RunSummary{}, err
	}
	crossover, err := evo.CrossoverFromConfig(req.Crossover, req.CrossoverAlpha)
	if err != nil {
		return RunSummary{}, err
	}
	weights, err := conditions.ObjectiveFromConfig(req.Objective)
	if err != nil {
		return RunSummary{}, err
	}

	var tuner tuning.Tuner
	var attemptPolicy tuning.AttemptPolicy
	if req.EnableTuning {
		tuner = tuning.HillClimber{
			Seed:     req.Seed + 2000,
			Steps:    req.TuneSteps,
			StepSize: req.TuneStepSize,
		}
		attemptPolicy, err = tuning.AttemptPolicyFromConfig(req.TuneAttemptPolicy, req.TuneAttemptPolicyParam)
		if err != nil {
			return RunSummary{}, err
		}
	}

	bench, err := c.ensureBench(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	initial := seedPopulation(runID, req.Seed, req.Population)
	now := time.Now().UTC()

	result, err := bench.RunOptimization(ctx, platform.OptimizationConfig{
		RunID:              runID,
		Profile:            req.Profile,
		PopulationSize:     req.Population,
		Generations:        req.Generations,
		EliteCount:         req.EliteCount,
		Workers:            req.Workers,
		Seed:               req.Seed,
		Mutation:           evo.BoundedPerturb{Rate: req.MutationRate, MaxDelta: req.MutationScale},
		Crossover:          crossover,
		CrossoverRate:      req.CrossoverRate,
		Selector:           selector,
		Tuner:              tuner,
		TuneAttempts:       req.TuneAttempts,
		TuneAttemptPolicy:  attemptPolicy,
		StagnationPatience: req.StagnationPatience,
		StagnationEpsilon:  req.StagnationEpsilon,
		Weights:            weights,
		SimConfig:          simConfigFromRequest(req),
		Initial:            initial,
	})
	if err != nil {
		return RunSummary{}, err
	}

	return c.writeRunOutputs(req, runID, 0, now, result)
}

// Resume continues a stored run from its final population snapshot. The
// merged history is rewritten to the same artifacts directory.
func (c *Client) Resume(ctx context.Context, req ResumeRequest) (RunSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return RunSummary{}, err
	}

	cfg, ok, err := stats.ReadRunConfig(c.benchmarksDir, runID)
	if err != nil {
		return RunSummary{}, err
	}
	if !ok {
		return RunSummary{}, fmt.Errorf("run config not found for run id: %s", runID)
	}

	bench, err := c.ensureBench(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	initial, generation, err := bench.LoadPopulation(ctx, runID)
	if err != nil {
		return RunSummary{}, err
	}

	runReq := RunRequest{
		RunID:              runID,
		Profile:            cfg.Profile,
		Objective:          cfg.Objective,
		Population:         cfg.PopulationSize,
		Generations:        cfg.Generations,
		Seed:               cfg.Seed,
		Workers:            cfg.Workers,
		EliteCount:         cfg.EliteCount,
		Selection:          cfg.Selector,
		Crossover:          cfg.CrossoverOp,
		CrossoverAlpha:     cfg.CrossoverAlpha,
		CrossoverRate:      cfg.CrossoverRate,
		MutationRate:       cfg.MutationRate,
		MutationScale:      cfg.MutationScale,
		EnableTuning:       cfg.TuningEnabled,
		TuneAttempts:       cfg.TuneAttempts,
		TuneSteps:          cfg.TuneSteps,
		TuneStepSize:       cfg.TuneStepSize,
		TuneAttemptPolicy:  cfg.TuneAttemptPolicy,
		StagnationPatience: cfg.StagnationPatience,
		StagnationEpsilon:  cfg.StagnationEpsilon,
		TimeStep:           cfg.TimeStep,
		MaxFlightDuration:  cfg.MaxFlightDuration,
		SpeedLimit:         cfg.SpeedLimit,
	}
	// The stored config holds effective values, so a zero rate there was
	// an explicit zero, not an unset field.
	if cfg.CrossoverRate == 0 {
		runReq.CrossoverRate = -1
	}
	if cfg.MutationRate == 0 {
		runReq.MutationRate = -1
	}
	if req.Generations > 0 {
		runReq.Generations = req.Generations
	}
	if req.Workers > 0 {
		runReq.Workers = req.Workers
	}
	runReq, err = applyRunDefaults(runReq)
	if err != nil {
		return RunSummary{}, err
	}

	selector, err := evo.SelectorFromConfig(runReq.Selection)
	if err != nil {
		return RunSummary{}, err
	}
	crossover, err := evo.CrossoverFromConfig(runReq.Crossover, runReq.CrossoverAlpha)
	if err != nil {
		return RunSummary{}, err
	}
	weights, err := conditions.ObjectiveFromConfig(runReq.Objective)
	if err != nil {
		return RunSummary{}, err
	}
	var tuner tuning.Tuner
	var attemptPolicy tuning.AttemptPolicy
	if runReq.EnableTuning {
		tuner = tuning.HillClimber{
			Seed:     runReq.Seed + 2000,
			Steps:    runReq.TuneSteps,
			StepSize: runReq.TuneStepSize,
		}
		attemptPolicy, err = tuning.AttemptPolicyFromConfig(runReq.TuneAttemptPolicy, 0)
		if err != nil {
			return RunSummary{}, err
		}
	}
	if len(initial) != runReq.Population {
		return RunSummary{}, fmt.Errorf("snapshot population mismatch: got=%d want=%d", len(initial), runReq.Population)
	}

	now := time.Now().UTC()
	result, err := bench.RunOptimization(ctx, platform.OptimizationConfig{
		RunID:              runID,
		Profile:            runReq.Profile,
		PopulationSize:     runReq.Population,
		Generations:        runReq.Generations,
		InitialGeneration:  generation,
		EliteCount:         runReq.EliteCount,
		Workers:            runReq.Workers,
		Seed:               runReq.Seed + int64(generation),
		Mutation:           evo.BoundedPerturb{Rate: runReq.MutationRate, MaxDelta: runReq.MutationScale},
		Crossover:          crossover,
		CrossoverRate:      runReq.CrossoverRate,
		Selector:           selector,
		Tuner:              tuner,
		TuneAttempts:       runReq.TuneAttempts,
		TuneAttemptPolicy:  attemptPolicy,
		StagnationPatience: runReq.StagnationPatience,
		StagnationEpsilon:  runReq.StagnationEpsilon,
		Weights:            weights,
		SimConfig:          simConfigFromRequest(runReq),
		Initial:            initial,
	})
	if err != nil {
		return RunSummary{}, err
	}

	return c.writeRunOutputs(runReq, runID, generation, now, result)
}

// Sweep runs the same request across several seeds concurrently and
// reports the best run.
func (c *Client) Sweep(ctx context.Context, req SweepRequest) (SweepSummary, error) {
	seeds := append([]int64(nil), req.Seeds...)
	if len(seeds) == 0 {
		count := req.Count
		if count <= 0 {
			count = 3
		}
		for i := 0; i < count; i++ {
			seeds = append(seeds, req.Base.Seed+int64(i))
		}
	}
	parallel := req.Parallel
	if parallel <= 0 {
		parallel = 2
	}

	if _, err := c.ensureBench(ctx); err != nil {
		return SweepSummary{}, err
	}

	sweepID := req.Base.RunID
	if sweepID == "" {
		sweepID = uuid.NewString()
	}

	items := make([]SweepItem, len(seeds))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallel)
	for i, seed := range seeds {
		i, seed := i, seed
		group.Go(func() error {
			runReq := req.Base
			runReq.Seed = seed
			runReq.RunID = fmt.Sprintf("%s-s%d", sweepID, seed)
			summary, err := c.Run(groupCtx, runReq)
			if err != nil {
				return fmt.Errorf("sweep seed %d: %w", seed, err)
			}
			items[i] = SweepItem{Seed: seed, Summary: summary}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return SweepSummary{}, err
	}

	out := SweepSummary{Items: items}
	for _, item := range items {
		if out.BestRunID == "" || item.Summary.FinalBestFitness > out.BestFitness {
			out.BestRunID = item.Summary.RunID
			out.BestSeed = item.Seed
			out.BestFitness = item.Summary.FinalBestFitness
		}
	}
	return out, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Profile:          e.Profile,
			Objective:        e.Objective,
			Seed:             e.Seed,
			Population:       e.PopulationSize,
			Generations:      e.Generations,
			TuningEnabled:    e.TuningEnabled,
			FinalBestFitness: e.FinalBestFitness,
			StopReason:       e.StopReason,
		})
	}
	return out, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]model.GenerationSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}

	if _, err := c.ensureBench(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return history, nil
}

// Diagnostics reads the per-generation CSV from the artifacts directory,
// so it works on exported runs without a store.
func (c *Client) Diagnostics(_ context.Context, req DiagnosticsRequest) ([]model.GenerationSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}

	history, ok, err := stats.ReadDiagnostics(c.benchmarksDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return history, nil
}

func (c *Client) TopGenomes(ctx context.Context, req TopGenomesRequest) ([]model.TopGenomeRecord, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}

	if _, err := c.ensureBench(ctx); err != nil {
		return nil, err
	}
	top, ok, err := c.store.GetTopGenomes(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("top genomes not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(top) > req.Limit {
		top = top[:req.Limit]
	}
	return top, nil
}

func (c *Client) Trajectory(ctx context.Context, req TrajectoryRequest) (model.TrajectoryRecord, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return model.TrajectoryRecord{}, err
	}
	if _, err := c.ensureBench(ctx); err != nil {
		return model.TrajectoryRecord{}, err
	}

	condition := req.Condition
	if condition == "" {
		conds, err := c.store.ListTrajectoryConditions(ctx, runID)
		if err != nil {
			return model.TrajectoryRecord{}, err
		}
		if len(conds) == 0 {
			return model.TrajectoryRecord{}, fmt.Errorf("no trajectories recorded for run id: %s", runID)
		}
		condition = conds[0]
	}

	trajectory, ok, err := c.store.GetTrajectory(ctx, runID, condition)
	if err != nil {
		return model.TrajectoryRecord{}, err
	}
	if !ok {
		return model.TrajectoryRecord{}, fmt.Errorf("trajectory not found: run=%s condition=%s", runID, condition)
	}
	return trajectory, nil
}

func (c *Client) TrajectoryConditions(ctx context.Context, runID string, latest bool) ([]string, error) {
	resolved, err := c.resolveRunID(runID, latest)
	if err != nil {
		return nil, err
	}
	if _, err := c.ensureBench(ctx); err != nil {
		return nil, err
	}
	return c.store.ListTrajectoryConditions(ctx, resolved)
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.benchmarksDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) ProfileSummary(ctx context.Context, profile string) (ProfileSummaryItem, error) {
	name, err := conditions.CanonicalProfileName(profile)
	if err != nil {
		return ProfileSummaryItem{}, err
	}
	if _, err := c.ensureBench(ctx); err != nil {
		return ProfileSummaryItem{}, err
	}
	summary, ok, err := c.store.GetProfileSummary(ctx, name)
	if err != nil {
		return ProfileSummaryItem{}, err
	}
	if !ok {
		return ProfileSummaryItem{}, fmt.Errorf("profile summary not found: %s", name)
	}
	return ProfileSummaryItem{
		Name:        summary.Name,
		Description: summary.Description,
		BestFitness: summary.BestFitness,
	}, nil
}

// Profiles lists the selectable condition profiles.
func (c *Client) Profiles() []string {
	return conditions.AvailableProfiles()
}

// Objectives lists the selectable fitness objectives.
func (c *Client) Objectives() []string {
	return conditions.AvailableObjectives()
}

func (c *Client) ensureBench(ctx context.Context) (*platform.Bench, error) {
	if c.bench != nil && c.bench.Started() {
		return c.bench, nil
	}
	bench := platform.NewBench(platform.Config{Store: c.store})
	if err := bench.Init(ctx); err != nil {
		return nil, err
	}
	if err := bench.RegisterDefaultProfiles(); err != nil {
		return nil, err
	}
	c.bench = bench
	return c.bench, nil
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id or latest is required")
	}
	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func (c *Client) writeRunOutputs(req RunRequest, runID string, initialGeneration int, now time.Time, result platform.OptimizationResult) (RunSummary, error) {
	simCfg := simConfigFromRequest(req)
	defaults := aero.DefaultConfig()
	if simCfg.TimeStep == 0 {
		simCfg.TimeStep = defaults.TimeStep
	}
	if simCfg.MaxDuration == 0 {
		simCfg.MaxDuration = defaults.MaxDuration
	}
	if simCfg.SpeedLimit == 0 {
		simCfg.SpeedLimit = defaults.SpeedLimit
	}
	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:              runID,
			InitialGeneration:  initialGeneration,
			Profile:            req.Profile,
			Objective:          req.Objective,
			PopulationSize:     req.Population,
			Generations:        req.Generations,
			EliteCount:         req.EliteCount,
			Workers:            req.Workers,
			Seed:               req.Seed,
			Selector:           req.Selection,
			CrossoverOp:        req.Crossover,
			CrossoverRate:      req.CrossoverRate,
			CrossoverAlpha:     req.CrossoverAlpha,
			MutationRate:       req.MutationRate,
			MutationScale:      req.MutationScale,
			StagnationPatience: req.StagnationPatience,
			StagnationEpsilon:  req.StagnationEpsilon,
			TuningEnabled:      req.EnableTuning,
			TuneAttempts:       req.TuneAttempts,
			TuneSteps:          req.TuneSteps,
			TuneStepSize:       req.TuneStepSize,
			TuneAttemptPolicy:  tuning.NormalizeAttemptPolicyName(req.TuneAttemptPolicy),
			TimeStep:           simCfg.TimeStep,
			MaxFlightDuration:  simCfg.MaxDuration,
			SpeedLimit:         simCfg.SpeedLimit,
			FitnessFloor:       fitness.DefaultFloor(),
		},
		History:          result.History,
		FinalBestFitness: result.BestFitness,
		StopReason:       result.StopReason,
		TopGenomes:       topGenomeRecords(result.TopFinal),
		Trajectories:     result.Trajectories,
	})
	if err != nil {
		return RunSummary{}, err
	}

	c.indexMu.Lock()
	defer c.indexMu.Unlock()
	if err := stats.AppendRunIndex(c.benchmarksDir, stats.RunIndexEntry{
		RunID:            runID,
		Profile:          req.Profile,
		Objective:        req.Objective,
		PopulationSize:   req.Population,
		Generations:      req.Generations,
		Seed:             req.Seed,
		Workers:          req.Workers,
		EliteCount:       req.EliteCount,
		TuningEnabled:    req.EnableTuning,
		FinalBestFitness: result.BestFitness,
		StopReason:       result.StopReason,
		CreatedAtUTC:     now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		Profile:          req.Profile,
		Objective:        req.Objective,
		History:          append([]model.GenerationSummary(nil), result.History...),
		FinalBestFitness: result.BestFitness,
		StopReason:       result.StopReason,
		BestGenome:       result.BestGenome,
		BestResult:       result.BestResult,
	}, nil
}

func applyRunDefaults(req RunRequest) (RunRequest, error) {
	profile, err := conditions.CanonicalProfileName(req.Profile)
	if err != nil {
		return RunRequest{}, err
	}
	req.Profile = profile
	objective, err := conditions.CanonicalObjectiveName(req.Objective)
	if err != nil {
		return RunRequest{}, err
	}
	req.Objective = objective

	if req.Population <= 0 {
		req.Population = 30
	}
	if req.Generations <= 0 {
		req.Generations = 50
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.EliteCount <= 0 {
		req.EliteCount = req.Population / 6
		if req.EliteCount < 1 {
			req.EliteCount = 1
		}
	}
	// Zero means unset; negative is the explicit request for rate zero.
	if req.CrossoverRate == 0 {
		req.CrossoverRate = 0.8
	} else if req.CrossoverRate < 0 {
		req.CrossoverRate = 0
	}
	if req.MutationRate == 0 {
		req.MutationRate = 0.1
	} else if req.MutationRate < 0 {
		req.MutationRate = 0
	}
	if req.EnableTuning && req.TuneAttempts <= 0 {
		req.TuneAttempts = 4
	}
	return req, nil
}

func simConfigFromRequest(req RunRequest) aero.Config {
	return aero.Config{
		TimeStep:    req.TimeStep,
		MaxDuration: req.MaxFlightDuration,
		SpeedLimit:  req.SpeedLimit,
	}
}

func seedPopulation(runID string, seed int64, count int) []model.Genome {
	rng := rand.New(rand.NewSource(seed))
	out := make([]model.Genome, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, geometry.Sample(rng, fmt.Sprintf("%s-g0-i%d", runID, i)))
	}
	return out
}

func topGenomeRecords(top []evo.ScoredGenome) []model.TopGenomeRecord {
	out := make([]model.TopGenomeRecord, 0, len(top))
	for i, item := range top {
		out = append(out, model.TopGenomeRecord{
			Rank:    i + 1,
			Fitness: item.Fitness,
			Genome:  item.Genome,
		})
	}
	return out
}
