package storage

import (
	"context"
	"testing"

	"paperwing/internal/model"
)

func TestPopulationSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	genomes := []model.Genome{
		{ID: "g-0", Genes: []float64{12, 8, 30, 20, 10, 0.2, 4}},
		{ID: "g-1", Genes: []float64{16, 6, 45, 25, 5, 0.1, 0}},
	}
	if err := SavePopulationSnapshot(ctx, store, "pop-a", 7, genomes); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	loaded, generation, err := LoadPopulationSnapshot(ctx, store, "pop-a")
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if generation != 7 {
		t.Fatalf("generation: got %d want 7", generation)
	}
	if len(loaded) != 2 {
		t.Fatalf("genome count: got %d want 2", len(loaded))
	}
	for i, genome := range loaded {
		if genome.ID != genomes[i].ID {
			t.Fatalf("genome %d id: got %s want %s", i, genome.ID, genomes[i].ID)
		}
		if genome.SchemaVersion != CurrentSchemaVersion {
			t.Fatalf("genome %d not stamped: %+v", i, genome.VersionedRecord)
		}
		if len(genome.Genes) != len(genomes[i].Genes) {
			t.Fatalf("genome %d gene count: got %d", i, len(genome.Genes))
		}
	}
}

func TestSavePopulationSnapshotRequiresID(t *testing.T) {
	store := NewMemoryStore()
	if err := SavePopulationSnapshot(context.Background(), store, "", 0, nil); err == nil {
		t.Fatal("want error for empty population id")
	}
}

func TestLoadPopulationSnapshotMissing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, _, err := LoadPopulationSnapshot(ctx, store, "ghost"); err == nil {
		t.Fatal("want error for missing population")
	}

	population := model.Population{ID: "pop-b", Generation: 1, GenomeIDs: []string{"absent"}}
	Stamp(&population.VersionedRecord)
	if err := store.SavePopulation(ctx, population); err != nil {
		t.Fatalf("save population: %v", err)
	}
	if _, _, err := LoadPopulationSnapshot(ctx, store, "pop-b"); err == nil {
		t.Fatal("want error for missing referenced genome")
	}
}
