package evo

import (
	"errors"
	"fmt"
	"math/rand"

	"paperwing/internal/geometry"
	"paperwing/internal/model"
)

// BlendCrossover draws each child gene uniformly from the interval spanned
// by the parents, widened by Alpha on both sides (BLX-alpha). Results are
// clamped back into gene range.
type BlendCrossover struct {
	Alpha float64
}

func (BlendCrossover) Name() string {
	return "blend"
}

func (c BlendCrossover) Combine(rng *rand.Rand, a, b model.Genome, childID string) (model.Genome, error) {
	if err := checkParents(rng, a, b); err != nil {
		return model.Genome{}, err
	}
	alpha := c.Alpha
	if alpha < 0 {
		return model.Genome{}, errors.New("alpha must be >= 0")
	}
	if alpha == 0 {
		alpha = 0.5
	}

	child := model.CloneGenome(a, childID)
	for i := range child.Genes {
		lo, hi := a.Genes[i], b.Genes[i]
		if lo > hi {
			lo, hi = hi, lo
		}
		span := hi - lo
		lo -= alpha * span
		hi += alpha * span
		child.Genes[i] = lo + rng.Float64()*(hi-lo)
	}
	geometry.ClampGenes(child.Genes)
	return child, nil
}

// SinglePointCrossover splits both parents at one locus and joins the
// halves.
type SinglePointCrossover struct{}

func (SinglePointCrossover) Name() string {
	return "single_point"
}

func (SinglePointCrossover) Combine(rng *rand.Rand, a, b model.Genome, childID string) (model.Genome, error) {
	if err := checkParents(rng, a, b); err != nil {
		return model.Genome{}, err
	}

	child := model.CloneGenome(a, childID)
	point := 1 + rng.Intn(len(a.Genes)-1)
	copy(child.Genes[point:], b.Genes[point:])
	return child, nil
}

// UniformCrossover picks each gene from either parent with equal
// probability.
type UniformCrossover struct{}

func (UniformCrossover) Name() string {
	return "uniform"
}

func (UniformCrossover) Combine(rng *rand.Rand, a, b model.Genome, childID string) (model.Genome, error) {
	if err := checkParents(rng, a, b); err != nil {
		return model.Genome{}, err
	}

	child := model.CloneGenome(a, childID)
	for i := range child.Genes {
		if rng.Intn(2) == 1 {
			child.Genes[i] = b.Genes[i]
		}
	}
	return child, nil
}

func checkParents(rng *rand.Rand, a, b model.Genome) error {
	if rng == nil {
		return errors.New("random source is required")
	}
	if len(a.Genes) == 0 || len(b.Genes) == 0 {
		return ErrNoGenes
	}
	if len(a.Genes) != len(b.Genes) {
		return fmt.Errorf("parent gene counts differ: %d vs %d", len(a.Genes), len(b.Genes))
	}
	if len(a.Genes) < 2 {
		return errors.New("crossover needs at least two genes")
	}
	return nil
}

// CrossoverFromConfig maps a config name to an operator.
func CrossoverFromConfig(name string, alpha float64) (Crossover, error) {
	switch name {
	case "", "blend":
		return BlendCrossover{Alpha: alpha}, nil
	case "single_point":
		return SinglePointCrossover{}, nil
	case "uniform":
		return UniformCrossover{}, nil
	default:
		return nil, fmt.Errorf("unsupported crossover: %s", name)
	}
}
