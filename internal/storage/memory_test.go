package storage

import (
	"context"
	"testing"

	"paperwing/internal/model"
)

func newInitializedStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return store
}

func TestMemoryStoreGenomeRoundTrip(t *testing.T) {
	store := newInitializedStore(t)
	ctx := context.Background()

	genome := model.Genome{ID: "g1", Genes: []float64{10, 8, 45, 10, 5, 0.1, 5}}
	if err := store.SaveGenome(ctx, genome); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, ok, err := store.GetGenome(ctx, "g1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if loaded.ID != "g1" || len(loaded.Genes) != 7 {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}

	// Mutating the returned copy must not leak into the store.
	loaded.Genes[0] = -999
	again, _, _ := store.GetGenome(ctx, "g1")
	if again.Genes[0] != 10 {
		t.Fatalf("store leaked internal state: %v", again.Genes[0])
	}
}

func TestMemoryStoreMissingKeys(t *testing.T) {
	store := newInitializedStore(t)
	ctx := context.Background()

	if _, ok, err := store.GetGenome(ctx, "none"); ok || err != nil {
		t.Fatalf("missing genome: ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.GetPopulation(ctx, "none"); ok || err != nil {
		t.Fatalf("missing population: ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.GetFitnessHistory(ctx, "none"); ok || err != nil {
		t.Fatalf("missing history: ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.GetTrajectory(ctx, "none", "calm"); ok || err != nil {
		t.Fatalf("missing trajectory: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreHistoryRoundTrip(t *testing.T) {
	store := newInitializedStore(t)
	ctx := context.Background()

	history := []model.GenerationSummary{
		{Generation: 1, Best: 2.5, Mean: 1.1, Worst: 0.2, Evaluations: 30},
		{Generation: 2, Best: 3.0, Mean: 1.6, Worst: 0.4, Evaluations: 30},
	}
	if err := store.SaveFitnessHistory(ctx, "run1", history); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, ok, err := store.GetFitnessHistory(ctx, "run1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(loaded) != 2 || loaded[1].Best != 3.0 {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestMemoryStoreTrajectories(t *testing.T) {
	store := newInitializedStore(t)
	ctx := context.Background()

	for _, condition := range []string{"tailwind", "calm", "headwind"} {
		err := store.SaveTrajectory(ctx, "run1", model.TrajectoryRecord{
			Condition: condition,
			Samples:   []model.TrajectorySample{{Time: 0}, {Time: 0.01}},
		})
		if err != nil {
			t.Fatalf("save %s: %v", condition, err)
		}
	}

	conditions, err := store.ListTrajectoryConditions(ctx, "run1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"calm", "headwind", "tailwind"}
	if len(conditions) != len(want) {
		t.Fatalf("conditions: got %v want %v", conditions, want)
	}
	for i := range want {
		if conditions[i] != want[i] {
			t.Fatalf("conditions not sorted: got %v want %v", conditions, want)
		}
	}

	trajectory, ok, err := store.GetTrajectory(ctx, "run1", "calm")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(trajectory.Samples) != 2 {
		t.Fatalf("sample count: got %d want 2", len(trajectory.Samples))
	}
}

func TestMemoryStoreProfileSummary(t *testing.T) {
	store := newInitializedStore(t)
	ctx := context.Background()

	summary := model.ProfileSummary{Name: "standard", Description: "calm, tailwind, headwind", BestFitness: 4.2}
	if err := store.SaveProfileSummary(ctx, summary); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, ok, err := store.GetProfileSummary(ctx, "standard")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if loaded.BestFitness != 4.2 {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}
