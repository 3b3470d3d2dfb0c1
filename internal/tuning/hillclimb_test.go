package tuning

import (
	"context"
	"testing"

	"paperwing/internal/geometry"
	"paperwing/internal/model"
)

// spanGap rewards genomes whose wing span gene sits close to 14 cm.
func spanGap(_ context.Context, g model.Genome) (float64, error) {
	gap := g.Genes[geometry.GeneWingSpan] - 14
	return -gap * gap, nil
}

func seedGenome() model.Genome {
	return model.Genome{ID: "t1", Genes: []float64{8, 8, 30, 10, 5, 0.2, 4}}
}

func TestHillClimberNeverRegresses(t *testing.T) {
	h := HillClimber{Seed: 3}
	base := seedGenome()
	baseFitness, _ := spanGap(context.Background(), base)

	tuned, err := h.Tune(context.Background(), base, 20, spanGap)
	if err != nil {
		t.Fatalf("tune: %v", err)
	}
	tunedFitness, _ := spanGap(context.Background(), tuned)
	if tunedFitness < baseFitness {
		t.Fatalf("tuning regressed fitness: %v -> %v", baseFitness, tunedFitness)
	}
	if err := geometry.ValidateGenes(tuned.Genes); err != nil {
		t.Fatalf("tuned genome left the gene ranges: %v", err)
	}
}

func TestHillClimberDeterministicPerGenome(t *testing.T) {
	h := HillClimber{Seed: 9}

	first, err := h.Tune(context.Background(), seedGenome(), 10, spanGap)
	if err != nil {
		t.Fatalf("tune: %v", err)
	}
	second, err := h.Tune(context.Background(), seedGenome(), 10, spanGap)
	if err != nil {
		t.Fatalf("tune: %v", err)
	}
	for i := range first.Genes {
		if first.Genes[i] != second.Genes[i] {
			t.Fatalf("gene %d diverged between identical tune calls: %v vs %v", i, first.Genes[i], second.Genes[i])
		}
	}
}

func TestHillClimberIgnoresGenomeID(t *testing.T) {
	h := HillClimber{Seed: 9}
	relabeled := seedGenome()
	relabeled.ID = "t1-copy"

	first, err := h.Tune(context.Background(), seedGenome(), 10, spanGap)
	if err != nil {
		t.Fatalf("tune: %v", err)
	}
	second, err := h.Tune(context.Background(), relabeled, 10, spanGap)
	if err != nil {
		t.Fatalf("tune: %v", err)
	}
	for i := range first.Genes {
		if first.Genes[i] != second.Genes[i] {
			t.Fatalf("gene %d depends on the genome label: %v vs %v", i, first.Genes[i], second.Genes[i])
		}
	}
}

func TestHillClimberZeroAttemptsIsIdentity(t *testing.T) {
	h := HillClimber{Seed: 1}
	base := seedGenome()

	tuned, err := h.Tune(context.Background(), base, 0, spanGap)
	if err != nil {
		t.Fatalf("tune: %v", err)
	}
	for i := range base.Genes {
		if tuned.Genes[i] != base.Genes[i] {
			t.Fatalf("zero attempts must not modify genes, gene %d changed", i)
		}
	}
	if tuned.ID != base.ID {
		t.Fatalf("tune must preserve the genome ID, got %q", tuned.ID)
	}
}

func TestHillClimberCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := (HillClimber{Seed: 1}).Tune(ctx, seedGenome(), 5, spanGap); err == nil {
		t.Fatal("want error for cancelled context")
	}
}

func TestAttemptPolicies(t *testing.T) {
	if got := (FixedAttemptPolicy{}).Attempts(5, 3, 10, model.Genome{}); got != 5 {
		t.Fatalf("fixed policy: got %d want 5", got)
	}
	decay := LinearDecayAttemptPolicy{MinAttempts: 1}
	early := decay.Attempts(10, 0, 10, model.Genome{})
	late := decay.Attempts(10, 9, 10, model.Genome{})
	if early <= late {
		t.Fatalf("linear decay should shrink over generations: %d vs %d", early, late)
	}
	if late < 1 {
		t.Fatalf("linear decay must respect the minimum, got %d", late)
	}

	if _, err := AttemptPolicyFromConfig("nope", 0); err == nil {
		t.Fatal("want error for unknown policy name")
	}
	policy, err := AttemptPolicyFromConfig("", 0)
	if err != nil {
		t.Fatalf("default policy: %v", err)
	}
	if policy.Name() != "fixed" {
		t.Fatalf("default policy: got %q want fixed", policy.Name())
	}
}
