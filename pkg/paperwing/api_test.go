package paperwing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"paperwing/internal/stats"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{
		BenchmarksDir: t.TempDir(),
		ExportsDir:    t.TempDir(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func smallRunRequest() RunRequest {
	return RunRequest{
		Profile:     "calm",
		Objective:   "balanced",
		Population:  6,
		Generations: 3,
		Seed:        11,
		Workers:     2,
		EliteCount:  2,
	}
}

func TestRunWritesArtifactsAndIndex(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, smallRunRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("run id is empty")
	}
	if len(summary.History) != 3 {
		t.Fatalf("history length: got %d want 3", len(summary.History))
	}
	if summary.FinalBestFitness <= 0 {
		t.Fatalf("final best fitness: got %v", summary.FinalBestFitness)
	}
	if len(summary.BestGenome.Genes) == 0 {
		t.Fatal("best genome has no genes")
	}

	for _, name := range []string{"config.json", "fitness_history.json", "top_genomes.json", "diagnostics.csv", "trajectory_calm.csv"} {
		if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID {
		t.Fatalf("run index: %+v", runs)
	}
	if runs[0].Profile != "calm" || runs[0].Population != 6 {
		t.Fatalf("run index entry: %+v", runs[0])
	}
}

func TestRunDefaultsAreApplied(t *testing.T) {
	req, err := applyRunDefaults(RunRequest{})
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if req.Profile != "standard" || req.Objective != "balanced" {
		t.Fatalf("profile/objective defaults: %+v", req)
	}
	if req.Population != 30 || req.Generations != 50 {
		t.Fatalf("size defaults: %+v", req)
	}
	if req.EliteCount != 5 {
		t.Fatalf("elite default: got %d want 5", req.EliteCount)
	}
	if req.CrossoverRate != 0.8 || req.MutationRate != 0.1 {
		t.Fatalf("rate defaults: %+v", req)
	}
}

func TestSimConfigAppliedAndRecorded(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	req := smallRunRequest()
	req.TimeStep = 0.05
	req.MaxFlightDuration = 5
	summary, err := client.Run(ctx, req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	cfg, ok, err := stats.ReadRunConfig(client.benchmarksDir, summary.RunID)
	if err != nil || !ok {
		t.Fatalf("read config: ok=%v err=%v", ok, err)
	}
	if cfg.TimeStep != 0.05 || cfg.MaxFlightDuration != 5 {
		t.Fatalf("recorded sim config: %+v", cfg)
	}
	// The unset speed limit records the simulator default.
	if cfg.SpeedLimit != 60 {
		t.Fatalf("recorded speed limit: got %v want 60", cfg.SpeedLimit)
	}

	trajectory, err := client.Trajectory(ctx, TrajectoryRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("trajectory: %v", err)
	}
	if len(trajectory.Samples) < 2 || trajectory.Samples[1].Time != 0.05 {
		t.Fatalf("time step not applied to the integrator: %+v", trajectory.Samples[:min(len(trajectory.Samples), 2)])
	}
}

func TestNegativeRatesAreExplicitZero(t *testing.T) {
	req, err := applyRunDefaults(RunRequest{CrossoverRate: -1, MutationRate: -1})
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if req.CrossoverRate != 0 {
		t.Fatalf("crossover rate: got %v want 0", req.CrossoverRate)
	}
	if req.MutationRate != 0 {
		t.Fatalf("mutation rate: got %v want 0", req.MutationRate)
	}

	client := newTestClient(t)
	run := smallRunRequest()
	run.CrossoverRate = -1
	summary, err := client.Run(context.Background(), run)
	if err != nil {
		t.Fatalf("run without crossover: %v", err)
	}
	if len(summary.History) != 3 {
		t.Fatalf("history length: got %d want 3", len(summary.History))
	}

	// Resuming must not re-default the explicit zero stored in the config.
	if _, err := client.Resume(context.Background(), ResumeRequest{RunID: summary.RunID, Generations: 1}); err != nil {
		t.Fatalf("resume without crossover: %v", err)
	}
	cfg, ok, err := stats.ReadRunConfig(client.benchmarksDir, summary.RunID)
	if err != nil || !ok {
		t.Fatalf("read config: ok=%v err=%v", ok, err)
	}
	if cfg.CrossoverRate != 0 {
		t.Fatalf("resume re-enabled crossover: rate %v", cfg.CrossoverRate)
	}
}

func TestRunRejectsUnknownNames(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	req := smallRunRequest()
	req.Objective = "altitude"
	if _, err := client.Run(ctx, req); err == nil {
		t.Fatal("want error for unknown objective")
	}

	req = smallRunRequest()
	req.Profile = "hurricane"
	if _, err := client.Run(ctx, req); err == nil {
		t.Fatal("want error for unknown profile")
	}
}

func TestRunSeedReproducibility(t *testing.T) {
	ctx := context.Background()

	first := newTestClient(t)
	a, err := first.Run(ctx, smallRunRequest())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second := newTestClient(t)
	b, err := second.Run(ctx, smallRunRequest())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(a.History) != len(b.History) {
		t.Fatalf("history lengths differ: %d vs %d", len(a.History), len(b.History))
	}
	for i := range a.History {
		if a.History[i].Best != b.History[i].Best {
			t.Fatalf("generation %d diverged: %v vs %v", i+1, a.History[i].Best, b.History[i].Best)
		}
	}
	if a.FinalBestFitness != b.FinalBestFitness {
		t.Fatalf("final best diverged: %v vs %v", a.FinalBestFitness, b.FinalBestFitness)
	}
}

func TestRunSeedReproducibilityWithTuning(t *testing.T) {
	ctx := context.Background()
	req := smallRunRequest()
	req.EnableTuning = true
	req.TuneAttempts = 2

	first := newTestClient(t)
	a, err := first.Run(ctx, req)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second := newTestClient(t)
	b, err := second.Run(ctx, req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(a.History) != len(b.History) {
		t.Fatalf("history lengths differ: %d vs %d", len(a.History), len(b.History))
	}
	for i := range a.History {
		if a.History[i].Best != b.History[i].Best {
			t.Fatalf("generation %d diverged with tuning enabled: %v vs %v", i+1, a.History[i].Best, b.History[i].Best)
		}
	}
	if a.FinalBestFitness != b.FinalBestFitness {
		t.Fatalf("final best diverged: %v vs %v", a.FinalBestFitness, b.FinalBestFitness)
	}
}

func TestQueriesAfterRun(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, smallRunRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	history, err := client.FitnessHistory(ctx, FitnessHistoryRequest{Latest: true})
	if err != nil {
		t.Fatalf("fitness history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length: got %d want 3", len(history))
	}

	diagnostics, err := client.Diagnostics(ctx, DiagnosticsRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("diagnostics: %v", err)
	}
	if len(diagnostics) != 3 || diagnostics[2].Best != history[2].Best {
		t.Fatalf("diagnostics mismatch: %+v", diagnostics)
	}

	top, err := client.TopGenomes(ctx, TopGenomesRequest{Latest: true, Limit: 3})
	if err != nil {
		t.Fatalf("top genomes: %v", err)
	}
	if len(top) == 0 || top[0].Fitness != summary.FinalBestFitness {
		t.Fatalf("top genomes: %+v", top)
	}

	conds, err := client.TrajectoryConditions(ctx, summary.RunID, false)
	if err != nil {
		t.Fatalf("trajectory conditions: %v", err)
	}
	if len(conds) != 1 || conds[0] != "calm" {
		t.Fatalf("trajectory conditions: %v", conds)
	}
	trajectory, err := client.Trajectory(ctx, TrajectoryRequest{Latest: true})
	if err != nil {
		t.Fatalf("trajectory: %v", err)
	}
	if trajectory.Condition != "calm" || len(trajectory.Samples) == 0 {
		t.Fatalf("trajectory: condition=%s samples=%d", trajectory.Condition, len(trajectory.Samples))
	}

	profile, err := client.ProfileSummary(ctx, "calm")
	if err != nil {
		t.Fatalf("profile summary: %v", err)
	}
	if profile.BestFitness != summary.FinalBestFitness {
		t.Fatalf("profile best %v != run best %v", profile.BestFitness, summary.FinalBestFitness)
	}
}

func TestResolveRunIDValidation(t *testing.T) {
	client := newTestClient(t)

	if _, err := client.resolveRunID("run-a", true); err == nil {
		t.Fatal("want error for run id plus latest")
	}
	if _, err := client.resolveRunID("", false); err == nil {
		t.Fatal("want error for neither run id nor latest")
	}
	if _, err := client.resolveRunID("", true); err == nil {
		t.Fatal("want error when no runs exist")
	}
}

func TestResumeExtendsRun(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first, err := client.Run(ctx, smallRunRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	resumed, err := client.Resume(ctx, ResumeRequest{RunID: first.RunID, Generations: 2})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.RunID != first.RunID {
		t.Fatalf("resume changed run id: %s", resumed.RunID)
	}
	if len(resumed.History) != 5 {
		t.Fatalf("merged history length: got %d want 5", len(resumed.History))
	}
	if resumed.History[3].Generation != 4 {
		t.Fatalf("resumed generations not renumbered: %+v", resumed.History[3])
	}
	if resumed.FinalBestFitness < first.FinalBestFitness {
		t.Fatalf("resume regressed best: %v < %v", resumed.FinalBestFitness, first.FinalBestFitness)
	}

	history, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunID: first.RunID})
	if err != nil {
		t.Fatalf("fitness history: %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("stored merged history length: got %d want 5", len(history))
	}
}

func TestResumeUnknownRun(t *testing.T) {
	client := newTestClient(t)
	if _, err := client.Resume(context.Background(), ResumeRequest{RunID: "ghost"}); err == nil {
		t.Fatal("want error for unknown run")
	}
}

func TestSweepRunsEachSeed(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	base := smallRunRequest()
	base.Generations = 2
	sweep, err := client.Sweep(ctx, SweepRequest{
		Base:     base,
		Seeds:    []int64{3, 4},
		Parallel: 2,
	})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(sweep.Items) != 2 {
		t.Fatalf("sweep items: got %d want 2", len(sweep.Items))
	}
	if sweep.BestRunID == "" {
		t.Fatal("sweep best run id is empty")
	}
	for _, item := range sweep.Items {
		if item.Summary.FinalBestFitness > sweep.BestFitness {
			t.Fatalf("best fitness %v is not maximal: item %v", sweep.BestFitness, item.Summary.FinalBestFitness)
		}
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("run index after sweep: got %d entries want 2", len(runs))
	}
}

func TestExportLatestRun(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if _, err := client.Run(ctx, smallRunRequest()); err != nil {
		t.Fatalf("run: %v", err)
	}

	export, err := client.Export(ctx, ExportRequest{Latest: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(export.Directory, "config.json")); err != nil {
		t.Fatalf("exported config missing: %v", err)
	}
}

func TestResetDropsState(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, smallRunRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := client.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunID: summary.RunID}); err == nil {
		t.Fatal("reset should drop stored history")
	}

	// A fresh run still works against the reset bench.
	if _, err := client.Run(ctx, smallRunRequest()); err != nil {
		t.Fatalf("run after reset: %v", err)
	}
}

func TestProfilesAndObjectives(t *testing.T) {
	client := newTestClient(t)

	profiles := client.Profiles()
	if len(profiles) == 0 {
		t.Fatal("no profiles")
	}
	objectives := client.Objectives()
	if len(objectives) != 3 {
		t.Fatalf("objectives: %v", objectives)
	}
}
