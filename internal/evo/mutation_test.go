package evo

import (
	"errors"
	"math/rand"
	"testing"

	"paperwing/internal/geometry"
	"paperwing/internal/model"
)

func parentGenome(id string) model.Genome {
	return model.Genome{ID: id, Genes: []float64{10, 8, 45, 20, 15, 0.1, 5}}
}

func TestBoundedPerturbChangesAtLeastOneGene(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	op := BoundedPerturb{Rate: 0.01}

	for i := 0; i < 50; i++ {
		parent := parentGenome("p")
		child, err := op.Apply(rng, parent)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		same := true
		for j := range child.Genes {
			if child.Genes[j] != parent.Genes[j] {
				same = false
				break
			}
		}
		if same {
			t.Fatalf("iteration %d produced an unchanged genome", i)
		}
	}
}

func TestBoundedPerturbStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	op := BoundedPerturb{Rate: 1, MaxDelta: 0.5}

	genome := parentGenome("p")
	for i := 0; i < 200; i++ {
		var err error
		genome, err = op.Apply(rng, genome)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if err := geometry.ValidateGenes(genome.Genes); err != nil {
			t.Fatalf("iteration %d left gene range: %v", i, err)
		}
	}
}

func TestBoundedPerturbDoesNotMutateParent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	parent := parentGenome("p")
	before := append([]float64(nil), parent.Genes...)

	if _, err := (BoundedPerturb{}).Apply(rng, parent); err != nil {
		t.Fatalf("apply: %v", err)
	}
	for i := range before {
		if parent.Genes[i] != before[i] {
			t.Fatalf("parent gene %d changed in place", i)
		}
	}
}

func TestBoundedPerturbValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	if _, err := (BoundedPerturb{}).Apply(nil, parentGenome("p")); err == nil {
		t.Fatal("want error for nil random source")
	}
	if _, err := (BoundedPerturb{}).Apply(rng, model.Genome{ID: "empty"}); !errors.Is(err, ErrNoGenes) {
		t.Fatalf("want ErrNoGenes, got %v", err)
	}
	if _, err := (BoundedPerturb{Rate: 2}).Apply(rng, parentGenome("p")); err == nil {
		t.Fatal("want error for rate above one")
	}
}

func TestResampleGeneStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	op := ResampleGene{}

	for i := 0; i < 100; i++ {
		child, err := op.Apply(rng, parentGenome("p"))
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if err := geometry.ValidateGenes(child.Genes); err != nil {
			t.Fatalf("iteration %d left gene range: %v", i, err)
		}
	}
}
