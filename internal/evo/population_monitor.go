package evo

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"paperwing/internal/model"
	"paperwing/internal/tuning"
)

// ScoredGenome pairs a genome with its evaluation.
type ScoredGenome struct {
	Genome  model.Genome
	Fitness float64
	Result  model.FitnessResult
}

// ConfigError reports an invalid run configuration. It is always returned
// before any generation is evaluated.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid run configuration: %s: %s", e.Field, e.Reason)
}

// Stop reasons reported in RunResult.
const (
	StopGenerations = "generations"
	StopStagnation  = "stagnation"
	StopCancelled   = "cancelled"
)

type MonitorConfig struct {
	Evaluator         CandidateEvaluator
	Mutation          Operator
	Crossover         Crossover
	CrossoverRate     float64
	Selector          Selector
	PopulationSize    int
	EliteCount        int
	Generations       int
	Workers           int
	Seed              int64
	Tuner             tuning.Tuner
	TuneAttempts      int
	TuneAttemptPolicy tuning.AttemptPolicy

	// StagnationPatience stops the run after that many consecutive
	// generations without a best-fitness improvement above
	// StagnationEpsilon. Zero disables the check.
	StagnationPatience int
	StagnationEpsilon  float64
}

type RunResult struct {
	History         []model.GenerationSummary
	BestGenome      model.Genome
	BestFitness     float64
	BestResult      model.FitnessResult
	FinalPopulation []ScoredGenome
	StopReason      string
}

// PopulationMonitor runs the generational loop: evaluate, rank, carry
// elites, breed the rest. All random decisions flow through one seeded
// source, so a run is reproducible from its config and initial population.
type PopulationMonitor struct {
	cfg MonitorConfig
	rng *rand.Rand
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if cfg.Evaluator == nil {
		return nil, &ConfigError{Field: "evaluator", Reason: "is required"}
	}
	if cfg.Mutation == nil {
		return nil, &ConfigError{Field: "mutation", Reason: "operator is required"}
	}
	if cfg.PopulationSize <= 0 {
		return nil, &ConfigError{Field: "population_size", Reason: "must be > 0"}
	}
	if cfg.EliteCount <= 0 || cfg.EliteCount > cfg.PopulationSize {
		return nil, &ConfigError{Field: "elite_count", Reason: "must be in [1, population size]"}
	}
	if cfg.Generations <= 0 {
		return nil, &ConfigError{Field: "generations", Reason: "must be > 0"}
	}
	if cfg.CrossoverRate < 0 || cfg.CrossoverRate > 1 {
		return nil, &ConfigError{Field: "crossover_rate", Reason: "must be in [0, 1]"}
	}
	if cfg.StagnationPatience < 0 {
		return nil, &ConfigError{Field: "stagnation_patience", Reason: "must be >= 0"}
	}
	if cfg.StagnationEpsilon < 0 {
		return nil, &ConfigError{Field: "stagnation_epsilon", Reason: "must be >= 0"}
	}
	if cfg.Tuner != nil && cfg.TuneAttempts < 0 {
		return nil, &ConfigError{Field: "tune_attempts", Reason: "must be >= 0"}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Selector == nil {
		cfg.Selector = TournamentSelector{}
	}
	if cfg.Crossover == nil && cfg.CrossoverRate > 0 {
		cfg.Crossover = BlendCrossover{}
	}
	if cfg.Tuner != nil && cfg.TuneAttemptPolicy == nil {
		cfg.TuneAttemptPolicy = tuning.FixedAttemptPolicy{}
	}

	return &PopulationMonitor{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Run evaluates generations until the generation budget, stagnation, or
// context cancellation stops it. Cancellation is observed at generation
// boundaries and returns the best result found so far rather than an
// error.
func (m *PopulationMonitor) Run(ctx context.Context, initial []model.Genome) (RunResult, error) {
	if len(initial) != m.cfg.PopulationSize {
		return RunResult{}, &ConfigError{
			Field:  "initial_population",
			Reason: fmt.Sprintf("got %d genomes, want %d", len(initial), m.cfg.PopulationSize),
		}
	}

	population := make([]model.Genome, len(initial))
	copy(population, initial)

	result := RunResult{
		History:    make([]model.GenerationSummary, 0, m.cfg.Generations),
		StopReason: StopGenerations,
	}
	haveBest := false
	stagnant := 0

	for gen := 0; gen < m.cfg.Generations; gen++ {
		if ctx.Err() != nil {
			result.StopReason = StopCancelled
			break
		}

		scored, err := m.evaluatePopulation(ctx, population, gen)
		if err != nil {
			if ctx.Err() != nil {
				result.StopReason = StopCancelled
				break
			}
			return RunResult{}, err
		}

		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Fitness > scored[j].Fitness
		})
		result.FinalPopulation = scored
		result.History = append(result.History, summarizeGeneration(scored, gen+1))

		improvement := scored[0].Fitness - result.BestFitness
		if !haveBest || scored[0].Fitness > result.BestFitness {
			result.BestGenome = model.CloneGenome(scored[0].Genome, scored[0].Genome.ID)
			result.BestFitness = scored[0].Fitness
			result.BestResult = scored[0].Result
		}
		if haveBest && m.cfg.StagnationPatience > 0 {
			if improvement <= m.cfg.StagnationEpsilon {
				stagnant++
			} else {
				stagnant = 0
			}
			if stagnant >= m.cfg.StagnationPatience {
				result.StopReason = StopStagnation
				break
			}
		}
		haveBest = true

		if gen == m.cfg.Generations-1 {
			break
		}
		population, err = m.nextGeneration(scored, gen)
		if err != nil {
			return RunResult{}, err
		}
	}

	return result, nil
}

func summarizeGeneration(scored []ScoredGenome, generation int) model.GenerationSummary {
	if len(scored) == 0 {
		return model.GenerationSummary{Generation: generation}
	}
	total := 0.0
	for _, item := range scored {
		total += item.Fitness
	}
	return model.GenerationSummary{
		Generation:  generation,
		Best:        scored[0].Fitness,
		Mean:        total / float64(len(scored)),
		Worst:       scored[len(scored)-1].Fitness,
		Evaluations: len(scored),
	}
}

func (m *PopulationMonitor) evaluatePopulation(ctx context.Context, population []model.Genome, generation int) ([]ScoredGenome, error) {
	type job struct {
		idx    int
		genome model.Genome
	}
	type outcome struct {
		idx    int
		scored ScoredGenome
		err    error
	}

	jobs := make(chan job)
	results := make(chan outcome, len(population))

	workerCount := m.cfg.Workers
	if workerCount > len(population) {
		workerCount = len(population)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- outcome{idx: j.idx, err: err}
					continue
				}

				candidate := j.genome
				if m.cfg.Tuner != nil {
					attempts := m.cfg.TuneAttemptPolicy.Attempts(m.cfg.TuneAttempts, generation, m.cfg.Generations, j.genome)
					if attempts > 0 {
						tuned, err := m.cfg.Tuner.Tune(ctx, j.genome, attempts, func(_ context.Context, g model.Genome) (float64, error) {
							return m.cfg.Evaluator.Evaluate(g).Fitness, nil
						})
						if err != nil {
							results <- outcome{idx: j.idx, err: err}
							continue
						}
						candidate = tuned
					}
				}

				evaluated := m.cfg.Evaluator.Evaluate(candidate)
				results <- outcome{idx: j.idx, scored: ScoredGenome{
					Genome:  candidate,
					Fitness: evaluated.Fitness,
					Result:  evaluated,
				}}
			}
		}()
	}

	for i := range population {
		jobs <- job{idx: i, genome: population[i]}
	}
	close(jobs)

	wg.Wait()
	close(results)

	scored := make([]ScoredGenome, len(population))
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		scored[res.idx] = res.scored
	}
	return scored, nil
}

func (m *PopulationMonitor) nextGeneration(ranked []ScoredGenome, generation int) ([]model.Genome, error) {
	next := make([]model.Genome, 0, m.cfg.PopulationSize)

	for i := 0; i < m.cfg.EliteCount; i++ {
		next = append(next, model.CloneGenome(ranked[i].Genome, ranked[i].Genome.ID))
	}

	for len(next) < m.cfg.PopulationSize {
		parent, err := m.cfg.Selector.PickParent(m.rng, ranked, m.cfg.EliteCount)
		if err != nil {
			return nil, err
		}

		childID := fmt.Sprintf("%s-g%d-i%d", parent.ID, generation+1, len(next))
		child := model.CloneGenome(parent, childID)
		if m.cfg.Crossover != nil && m.rng.Float64() < m.cfg.CrossoverRate {
			mate, err := m.cfg.Selector.PickParent(m.rng, ranked, m.cfg.EliteCount)
			if err != nil {
				return nil, err
			}
			child, err = m.cfg.Crossover.Combine(m.rng, parent, mate, childID)
			if err != nil {
				return nil, err
			}
		}

		child, err = m.cfg.Mutation.Apply(m.rng, child)
		if err != nil {
			return nil, err
		}
		next = append(next, child)
	}

	return next, nil
}
