// Package platform wires the decoder, simulator, evaluator, and
// optimizer into complete runs and persists their outcomes.
package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"paperwing/internal/aero"
	"paperwing/internal/conditions"
	"paperwing/internal/evo"
	"paperwing/internal/fitness"
	"paperwing/internal/geometry"
	"paperwing/internal/model"
	"paperwing/internal/storage"
	"paperwing/internal/tuning"
)

type Config struct {
	Store storage.Store
}

type StopReason string

const (
	StopReasonNormal   StopReason = "normal"
	StopReasonShutdown StopReason = "shutdown"
)

// topGenomeCount bounds how many ranked genomes a run persists.
const topGenomeCount = 5

type OptimizationConfig struct {
	RunID             string
	Profile           string
	PopulationSize    int
	Generations       int
	InitialGeneration int
	EliteCount        int
	Workers           int
	Seed              int64
	Mutation          evo.Operator
	Crossover         evo.Crossover
	CrossoverRate     float64
	Selector          evo.Selector
	Tuner             tuning.Tuner
	TuneAttempts      int
	TuneAttemptPolicy tuning.AttemptPolicy

	StagnationPatience int
	StagnationEpsilon  float64

	Weights      fitness.Weights
	FitnessFloor float64
	SimConfig    aero.Config
	Model        aero.CoefficientModel

	Initial []model.Genome
}

type OptimizationResult struct {
	History          []model.GenerationSummary
	BestGenome       model.Genome
	BestFitness      float64
	BestResult       model.FitnessResult
	TopFinal         []evo.ScoredGenome
	Trajectories     []model.TrajectoryRecord
	StopReason       string
	FinalGeneration  int
	FinalPopulation  []model.Genome
}

// Bench owns the store and the registered condition profiles, and runs
// optimizations against them. One Bench can host several runs; each run
// gets a cancel handle so it can be stopped by id.
type Bench struct {
	store storage.Store

	mu sync.RWMutex

	profiles       map[string][]model.FlightCondition
	started        bool
	lastStopReason StopReason
	runs           map[string]context.CancelFunc

	config Config
}

func NewBench(cfg Config) *Bench {
	return &Bench{
		store:          cfg.Store,
		profiles:       make(map[string][]model.FlightCondition),
		runs:           make(map[string]context.CancelFunc),
		config:         cfg,
		lastStopReason: StopReasonNormal,
	}
}

func (b *Bench) Init(ctx context.Context) error {
	if b.store == nil {
		return fmt.Errorf("store is required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}
	if err := b.store.Init(ctx); err != nil {
		return err
	}
	b.started = true
	return nil
}

func (b *Bench) Reset(ctx context.Context) error {
	_ = b.StopWithReason(StopReasonShutdown)
	if resetter, ok := b.store.(storage.Resetter); ok {
		if err := resetter.Reset(ctx); err != nil {
			return err
		}
	}
	return b.Init(ctx)
}

// RegisterProfile makes a named condition set selectable by runs.
func (b *Bench) RegisterProfile(name string, conds []model.FlightCondition) error {
	if name == "" {
		return fmt.Errorf("profile name is required")
	}
	if len(conds) == 0 {
		return fmt.Errorf("profile %s has no conditions", name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return fmt.Errorf("bench is not initialized")
	}
	b.profiles[name] = append([]model.FlightCondition(nil), conds...)
	return nil
}

// RegisterDefaultProfiles registers every built-in condition profile.
func (b *Bench) RegisterDefaultProfiles() error {
	for _, name := range conditions.AvailableProfiles() {
		conds, err := conditions.ConstructProfile(name)
		if err != nil {
			return err
		}
		if err := b.RegisterProfile(name, conds); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bench) GetProfile(name string) ([]model.FlightCondition, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	conds, ok := b.profiles[name]
	if !ok {
		return nil, false
	}
	return append([]model.FlightCondition(nil), conds...), true
}

func (b *Bench) RegisteredProfiles() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.profiles))
	for name := range b.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *Bench) Stop() {
	_ = b.StopWithReason(StopReasonNormal)
}

func (b *Bench) Shutdown() {
	_ = b.StopWithReason(StopReasonShutdown)
}

func (b *Bench) StopWithReason(reason StopReason) error {
	if reason == "" {
		reason = StopReasonNormal
	}
	switch reason {
	case StopReasonNormal, StopReasonShutdown:
	default:
		return fmt.Errorf("unsupported stop reason: %s", reason)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cancel := range b.runs {
		cancel()
	}
	b.started = false
	b.lastStopReason = reason
	b.profiles = make(map[string][]model.FlightCondition)
	b.runs = make(map[string]context.CancelFunc)
	return nil
}

func (b *Bench) Started() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.started
}

func (b *Bench) LastStopReason() StopReason {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastStopReason
}

// RunOptimization validates the config, runs the generational loop, and
// persists the snapshot, histories, top genomes, and the best genome's
// trajectory under every condition of the profile.
func (b *Bench) RunOptimization(ctx context.Context, cfg OptimizationConfig) (OptimizationResult, error) {
	if len(cfg.Initial) != cfg.PopulationSize {
		return OptimizationResult{}, fmt.Errorf("initial population mismatch: got=%d want=%d", len(cfg.Initial), cfg.PopulationSize)
	}
	if cfg.Mutation == nil {
		return OptimizationResult{}, fmt.Errorf("mutation operator is required")
	}
	if cfg.Profile == "" {
		return OptimizationResult{}, fmt.Errorf("profile name is required")
	}
	if cfg.EliteCount <= 0 {
		cfg.EliteCount = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Model == nil {
		cfg.Model = aero.ThinAirfoilModel{}
	}

	b.mu.RLock()
	conds, ok := b.profiles[cfg.Profile]
	started := b.started
	b.mu.RUnlock()

	if !started {
		return OptimizationResult{}, fmt.Errorf("bench is not initialized")
	}
	if !ok {
		return OptimizationResult{}, fmt.Errorf("profile not registered: %s", cfg.Profile)
	}

	runID := cfg.RunID
	if runID == "" {
		runID = fmt.Sprintf("opt:%s:%d", cfg.Profile, cfg.Seed)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := b.registerRun(runID, cancel); err != nil {
		return OptimizationResult{}, err
	}
	defer b.unregisterRun(runID)

	sim, err := aero.NewSimulator(cfg.Model, cfg.SimConfig)
	if err != nil {
		return OptimizationResult{}, err
	}
	evaluator, err := fitness.NewEvaluator(sim, conds, fitness.Config{
		Weights:      cfg.Weights,
		FitnessFloor: cfg.FitnessFloor,
	})
	if err != nil {
		return OptimizationResult{}, err
	}

	monitor, err := evo.NewPopulationMonitor(evo.MonitorConfig{
		Evaluator:          evaluator,
		Mutation:           cfg.Mutation,
		Crossover:          cfg.Crossover,
		CrossoverRate:      cfg.CrossoverRate,
		Selector:           cfg.Selector,
		PopulationSize:     cfg.PopulationSize,
		EliteCount:         cfg.EliteCount,
		Generations:        cfg.Generations,
		Workers:            cfg.Workers,
		Seed:               cfg.Seed,
		Tuner:              cfg.Tuner,
		TuneAttempts:       cfg.TuneAttempts,
		TuneAttemptPolicy:  cfg.TuneAttemptPolicy,
		StagnationPatience: cfg.StagnationPatience,
		StagnationEpsilon:  cfg.StagnationEpsilon,
	})
	if err != nil {
		return OptimizationResult{}, err
	}

	result, err := monitor.Run(runCtx, cfg.Initial)
	if err != nil {
		return OptimizationResult{}, err
	}

	if cfg.InitialGeneration > 0 {
		for i := range result.History {
			result.History[i].Generation += cfg.InitialGeneration
		}
		result, err = b.mergeExistingRunHistory(ctx, runID, result)
		if err != nil {
			return OptimizationResult{}, err
		}
	}

	finalGenomes := make([]model.Genome, 0, len(result.FinalPopulation))
	for _, scored := range result.FinalPopulation {
		finalGenomes = append(finalGenomes, scored.Genome)
	}
	finalGeneration := cfg.InitialGeneration
	if len(result.History) > 0 {
		finalGeneration = result.History[len(result.History)-1].Generation
	}
	if err := storage.SavePopulationSnapshot(ctx, b.store, runID, finalGeneration, finalGenomes); err != nil {
		return OptimizationResult{}, err
	}
	if err := b.store.SaveFitnessHistory(ctx, runID, result.History); err != nil {
		return OptimizationResult{}, err
	}

	topFinal := rankTop(result.FinalPopulation, topGenomeCount)
	if err := b.store.SaveTopGenomes(ctx, runID, toTopGenomeRecords(topFinal)); err != nil {
		return OptimizationResult{}, err
	}

	trajectories, err := b.saveBestTrajectories(ctx, runID, sim, conds, result.BestGenome)
	if err != nil {
		return OptimizationResult{}, err
	}

	if err := b.updateProfileSummary(ctx, cfg.Profile, result.BestFitness); err != nil {
		return OptimizationResult{}, err
	}

	return OptimizationResult{
		History:         result.History,
		BestGenome:      result.BestGenome,
		BestFitness:     result.BestFitness,
		BestResult:      result.BestResult,
		TopFinal:        topFinal,
		Trajectories:    trajectories,
		StopReason:      result.StopReason,
		FinalGeneration: finalGeneration,
		FinalPopulation: finalGenomes,
	}, nil
}

// LoadPopulation restores a stored snapshot for resuming a run.
func (b *Bench) LoadPopulation(ctx context.Context, populationID string) ([]model.Genome, int, error) {
	if !b.Started() {
		return nil, 0, fmt.Errorf("bench is not initialized")
	}
	return storage.LoadPopulationSnapshot(ctx, b.store, populationID)
}

func (b *Bench) StopRun(runID string) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	b.mu.RLock()
	cancel, ok := b.runs[runID]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("run not active: %s", runID)
	}
	cancel()
	return nil
}

func (b *Bench) ActiveRuns() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.runs))
	for name := range b.runs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *Bench) registerRun(runID string, cancel context.CancelFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return fmt.Errorf("bench is not initialized")
	}
	if _, exists := b.runs[runID]; exists {
		return fmt.Errorf("run already active: %s", runID)
	}
	b.runs[runID] = cancel
	return nil
}

func (b *Bench) unregisterRun(runID string) {
	b.mu.Lock()
	delete(b.runs, runID)
	b.mu.Unlock()
}

func (b *Bench) mergeExistingRunHistory(ctx context.Context, runID string, current evo.RunResult) (evo.RunResult, error) {
	if history, ok, err := b.store.GetFitnessHistory(ctx, runID); err != nil {
		return evo.RunResult{}, err
	} else if ok {
		current.History = append(append([]model.GenerationSummary{}, history...), current.History...)
	}

	if top, ok, err := b.store.GetTopGenomes(ctx, runID); err != nil {
		return evo.RunResult{}, err
	} else if ok && len(top) > 0 {
		merged := make([]evo.ScoredGenome, 0, len(top)+len(current.FinalPopulation))
		for _, item := range top {
			merged = append(merged, evo.ScoredGenome{Genome: item.Genome, Fitness: item.Fitness})
		}
		merged = append(merged, current.FinalPopulation...)
		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i].Fitness > merged[j].Fitness
		})
		seen := make(map[string]struct{}, len(merged))
		unique := make([]evo.ScoredGenome, 0, len(merged))
		for _, item := range merged {
			if item.Genome.ID != "" {
				if _, exists := seen[item.Genome.ID]; exists {
					continue
				}
				seen[item.Genome.ID] = struct{}{}
			}
			unique = append(unique, item)
		}
		if len(unique) > 0 && unique[0].Fitness > current.BestFitness {
			current.BestGenome = model.CloneGenome(unique[0].Genome, unique[0].Genome.ID)
			current.BestFitness = unique[0].Fitness
			current.BestResult = unique[0].Result
		}
		current.FinalPopulation = unique
	}

	return current, nil
}

func (b *Bench) saveBestTrajectories(ctx context.Context, runID string, sim *aero.Simulator, conds []model.FlightCondition, best model.Genome) ([]model.TrajectoryRecord, error) {
	geom, err := geometry.Decode(best)
	if err != nil {
		if errors.Is(err, geometry.ErrInvalidGeometry) {
			// A degenerate winner has no flyable shape to record.
			return nil, nil
		}
		return nil, err
	}

	out := make([]model.TrajectoryRecord, 0, len(conds))
	for _, cond := range conds {
		flight := sim.Fly(geom, cond)
		record := model.TrajectoryRecord{Condition: cond.Name, Samples: flight.Samples}
		if err := b.store.SaveTrajectory(ctx, runID, record); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

func (b *Bench) updateProfileSummary(ctx context.Context, profile string, bestFitness float64) error {
	summary, ok, err := b.store.GetProfileSummary(ctx, profile)
	if err != nil {
		return err
	}
	if !ok {
		summary = model.ProfileSummary{
			Name:        profile,
			Description: fmt.Sprintf("best observed fitness for profile %s", profile),
		}
	}
	if bestFitness > summary.BestFitness {
		summary.BestFitness = bestFitness
	}
	storage.Stamp(&summary.VersionedRecord)
	return b.store.SaveProfileSummary(ctx, summary)
}

func rankTop(population []evo.ScoredGenome, count int) []evo.ScoredGenome {
	if len(population) == 0 {
		return []evo.ScoredGenome{}
	}
	ranked := append([]evo.ScoredGenome(nil), population...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	if len(ranked) > count {
		ranked = ranked[:count]
	}
	return ranked
}

func toTopGenomeRecords(top []evo.ScoredGenome) []model.TopGenomeRecord {
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
