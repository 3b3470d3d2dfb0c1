package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRunRequestFromJSON(t *testing.T) {
	path := writeConfig(t, "run.json", `{
		"profile": "gusty",
		"objective": "distance",
		"population": 12,
		"generations": 8,
		"seed": 99,
		"mutation_rate": 0.2,
		"enable_tuning": true,
		"tune_attempts": 3
	}`)

	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if req.Profile != "gusty" || req.Objective != "distance" {
		t.Fatalf("names: %+v", req)
	}
	if req.Population != 12 || req.Generations != 8 || req.Seed != 99 {
		t.Fatalf("sizes: %+v", req)
	}
	if req.MutationRate != 0.2 || !req.EnableTuning || req.TuneAttempts != 3 {
		t.Fatalf("tuning: %+v", req)
	}
}

func TestLoadRunRequestFromYAML(t *testing.T) {
	path := writeConfig(t, "run.yaml", `
profile: calm
objective: stability
population: 10
generations: 5
seed: 42
crossover: single_point
stagnation_patience: 6
time_step: 0.02
max_flight_duration: 8
`)

	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if req.Profile != "calm" || req.Objective != "stability" {
		t.Fatalf("names: %+v", req)
	}
	if req.Population != 10 || req.Generations != 5 || req.Seed != 42 {
		t.Fatalf("sizes: %+v", req)
	}
	if req.Crossover != "single_point" || req.StagnationPatience != 6 {
		t.Fatalf("operators: %+v", req)
	}
	if req.TimeStep != 0.02 || req.MaxFlightDuration != 8 {
		t.Fatalf("sim config: %+v", req)
	}
}

func TestLoadRunRequestRejectsGarbage(t *testing.T) {
	path := writeConfig(t, "run.json", `{broken`)
	if _, err := loadRunRequestFromConfig(path); err == nil {
		t.Fatal("want error for malformed config")
	}
}

func TestLoadRunRequestMissingFile(t *testing.T) {
	if _, err := loadRunRequestFromConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestOverrideFromFlags(t *testing.T) {
	path := writeConfig(t, "run.json", `{"profile": "calm", "population": 10, "seed": 5}`)
	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	overrideFromFlags(&req, map[string]bool{"pop": true, "tuning": true, "time-step": true}, map[string]any{
		"pop":       20,
		"seed":      int64(77),
		"tuning":    true,
		"time-step": 0.02,
	})

	if req.Population != 20 {
		t.Fatalf("population override: got %d want 20", req.Population)
	}
	if !req.EnableTuning {
		t.Fatal("tuning override not applied")
	}
	if req.TimeStep != 0.02 {
		t.Fatalf("time step override: got %v want 0.02", req.TimeStep)
	}
	// Flags that were not set on the command line keep the config value.
	if req.Seed != 5 {
		t.Fatalf("seed should stay at config value: got %d", req.Seed)
	}
	if req.Profile != "calm" {
		t.Fatalf("profile should stay at config value: got %s", req.Profile)
	}
}
