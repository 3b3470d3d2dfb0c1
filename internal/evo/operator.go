package evo

import (
	"math/rand"

	"paperwing/internal/model"
)

// CandidateEvaluator scores one genome. Implementations must be pure and
// safe for concurrent use: the population monitor calls Evaluate from
// multiple workers.
type CandidateEvaluator interface {
	Evaluate(genome model.Genome) model.FitnessResult
}

// Operator derives a mutated genome from a parent. The random source is
// passed explicitly so the caller controls reproducibility.
type Operator interface {
	Name() string
	Apply(rng *rand.Rand, genome model.Genome) (model.Genome, error)
}

// Crossover combines two parents into one child genome.
type Crossover interface {
	Name() string
	Combine(rng *rand.Rand, a, b model.Genome, childID string) (model.Genome, error)
}
