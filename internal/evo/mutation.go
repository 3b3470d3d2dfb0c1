package evo

import (
	"errors"
	"math"
	"math/rand"

	"paperwing/internal/geometry"
	"paperwing/internal/model"
)

var ErrNoGenes = errors.New("genome has no genes")

// BoundedPerturb nudges a random subset of genes by a delta scaled to each
// gene's declared range, then clamps the result back into range. At least
// one gene always changes. The mutate probability follows the
// 1/sqrt(gene_count) rule unless Rate overrides it.
type BoundedPerturb struct {
	Rate     float64
	MaxDelta float64 // fraction of the gene range, defaults to 0.15
}

func (BoundedPerturb) Name() string {
	return "bounded_perturb"
}

func (o BoundedPerturb) Apply(rng *rand.Rand, genome model.Genome) (model.Genome, error) {
	if rng == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.Genes) == 0 {
		return model.Genome{}, ErrNoGenes
	}
	if o.Rate < 0 || o.Rate > 1 {
		return model.Genome{}, errors.New("mutation rate must be in [0, 1]")
	}

	rate := o.Rate
	if rate == 0 {
		rate = 1 / math.Sqrt(float64(len(genome.Genes)))
	}
	maxDelta := o.MaxDelta
	if maxDelta <= 0 {
		maxDelta = 0.15
	}

	mutated := model.CloneGenome(genome, genome.ID)
	ranges := geometry.Ranges()
	changed := 0
	for i := range mutated.Genes {
		if rng.Float64() >= rate {
			continue
		}
		mutated.Genes[i] += o.delta(rng, ranges, i, maxDelta)
		changed++
	}
	if changed == 0 {
		idx := rng.Intn(len(mutated.Genes))
		mutated.Genes[idx] += o.delta(rng, ranges, idx, maxDelta)
	}

	geometry.ClampGenes(mutated.Genes)
	return mutated, nil
}

func (BoundedPerturb) delta(rng *rand.Rand, ranges []geometry.GeneRange, idx int, maxDelta float64) float64 {
	width := 1.0
	if idx < len(ranges) {
		width = ranges[idx].Max - ranges[idx].Min
	}
	return (rng.Float64()*2 - 1) * maxDelta * width
}

// ResampleGene replaces one random gene with a fresh uniform draw from its
// range. It escapes local optima the bounded perturbation cannot leave.
type ResampleGene struct{}

func (ResampleGene) Name() string {
	return "resample_gene"
}

func (ResampleGene) Apply(rng *rand.Rand, genome model.Genome) (model.Genome, error) {
	if rng == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.Genes) == 0 {
		return model.Genome{}, ErrNoGenes
	}

	mutated := model.CloneGenome(genome, genome.ID)
	ranges := geometry.Ranges()
	idx := rng.Intn(len(mutated.Genes))
	if idx < len(ranges) {
		r := ranges[idx]
		mutated.Genes[idx] = r.Min + rng.Float64()*(r.Max-r.Min)
	}
	return mutated, nil
}
