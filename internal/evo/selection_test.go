package evo

import (
	"math/rand"
	"testing"

	"paperwing/internal/model"
)

func rankedFixture() []ScoredGenome {
	return []ScoredGenome{
		{Genome: model.Genome{ID: "g0"}, Fitness: 9},
		{Genome: model.Genome{ID: "g1"}, Fitness: 7},
		{Genome: model.Genome{ID: "g2"}, Fitness: 4},
		{Genome: model.Genome{ID: "g3"}, Fitness: 2},
		{Genome: model.Genome{ID: "g4"}, Fitness: 1},
	}
}

func TestEliteSelectorPicksFromEliteSet(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ranked := rankedFixture()

	for i := 0; i < 50; i++ {
		parent, err := (EliteSelector{}).PickParent(rng, ranked, 2)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if parent.ID != "g0" && parent.ID != "g1" {
			t.Fatalf("elite selector escaped the elite set: %q", parent.ID)
		}
	}
}

func TestTournamentSelectorFavorsFitness(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	ranked := rankedFixture()
	counts := map[string]int{}

	for i := 0; i < 500; i++ {
		parent, err := (TournamentSelector{PoolSize: 5, TournamentSize: 3}).PickParent(rng, ranked, 2)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		counts[parent.ID]++
	}
	if counts["g0"] <= counts["g4"] {
		t.Fatalf("tournament should favor the fittest: %v", counts)
	}
}

func TestRouletteSelectorFavorsFitness(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ranked := rankedFixture()
	counts := map[string]int{}

	for i := 0; i < 500; i++ {
		parent, err := (RouletteSelector{}).PickParent(rng, ranked, 2)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		counts[parent.ID]++
	}
	if counts["g0"] <= counts["g4"] {
		t.Fatalf("roulette should favor the fittest: %v", counts)
	}
}

func TestSelectorValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	ranked := rankedFixture()

	if _, err := (EliteSelector{}).PickParent(nil, ranked, 2); err == nil {
		t.Fatal("want error for nil random source")
	}
	if _, err := (TournamentSelector{}).PickParent(rng, ranked, 0); err == nil {
		t.Fatal("want error for zero elite count")
	}
	if _, err := (RouletteSelector{}).PickParent(rng, ranked, 99); err == nil {
		t.Fatal("want error for elite count beyond population")
	}
}

func TestSelectorFromConfig(t *testing.T) {
	for _, name := range []string{"", "tournament", "elite", "roulette"} {
		if _, err := SelectorFromConfig(name); err != nil {
			t.Fatalf("selector %q: %v", name, err)
		}
	}
	if _, err := SelectorFromConfig("nope"); err == nil {
		t.Fatal("want error for unknown selector name")
	}
}
