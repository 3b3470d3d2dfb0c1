package tuning

import (
	"context"
	"encoding/binary"
	"errors"
	"hash/fnv"
	"math"
	"math/rand"

	"paperwing/internal/geometry"
	"paperwing/internal/model"
)

// HillClimber refines a genome by perturbing one gene at a time and keeping
// strict improvements. Each Tune call derives its random stream from the
// seed and the gene vector, so results do not depend on which worker runs
// the call or on how the genome was labeled.
type HillClimber struct {
	Seed            int64
	Steps           int
	StepSize        float64
	AnnealingFactor float64
	MinImprovement  float64
}

func (HillClimber) Name() string {
	return "gene_hillclimb"
}

func (h HillClimber) Tune(ctx context.Context, genome model.Genome, attempts int, fitness FitnessFn) (model.Genome, error) {
	if err := ctx.Err(); err != nil {
		return model.Genome{}, err
	}
	if attempts <= 0 {
		return model.CloneGenome(genome, genome.ID), nil
	}
	if fitness == nil {
		return model.Genome{}, errors.New("fitness function is required")
	}
	steps := h.Steps
	if steps <= 0 {
		steps = 2
	}
	stepSize := h.StepSize
	if stepSize <= 0 {
		stepSize = 0.05
	}
	annealing := h.AnnealingFactor
	if annealing <= 0 {
		annealing = 0.9
	}
	if h.MinImprovement < 0 {
		return model.Genome{}, errors.New("min improvement must be >= 0")
	}
	if len(genome.Genes) == 0 {
		return model.CloneGenome(genome, genome.ID), nil
	}

	rng := rand.New(rand.NewSource(h.Seed ^ int64(hashGenes(genome.Genes))))
	ranges := geometry.Ranges()

	best := model.CloneGenome(genome, genome.ID)
	bestFitness, err := fitness(ctx, best)
	if err != nil {
		return model.Genome{}, err
	}

	for a := 0; a < attempts; a++ {
		if err := ctx.Err(); err != nil {
			return model.Genome{}, err
		}

		candidate := model.CloneGenome(best, best.ID)
		for s := 0; s < steps; s++ {
			idx := rng.Intn(len(candidate.Genes))
			width := 1.0
			if idx < len(ranges) {
				width = ranges[idx].Max - ranges[idx].Min
			}
			spread := stepSize * width * math.Pow(annealing, float64(a))
			candidate.Genes[idx] += (rng.Float64()*2 - 1) * spread
		}
		geometry.ClampGenes(candidate.Genes)

		candidateFitness, err := fitness(ctx, candidate)
		if err != nil {
			return model.Genome{}, err
		}
		if candidateFitness > bestFitness+h.MinImprovement {
			best = candidate
			bestFitness = candidateFitness
		}
	}

	return best, nil
}

func hashGenes(genes []float64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, g := range genes {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(g))
		h.Write(buf[:])
	}
	return h.Sum64()
}
