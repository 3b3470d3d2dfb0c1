package storage

import (
	"context"

	"paperwing/internal/model"
)

// Store defines persistence for run artifacts: genomes, population
// snapshots, per-run histories, and flight trajectories.
type Store interface {
	Init(ctx context.Context) error
	SaveGenome(ctx context.Context, genome model.Genome) error
	GetGenome(ctx context.Context, id string) (model.Genome, bool, error)
	SavePopulation(ctx context.Context, population model.Population) error
	GetPopulation(ctx context.Context, id string) (model.Population, bool, error)
	SaveProfileSummary(ctx context.Context, summary model.ProfileSummary) error
	GetProfileSummary(ctx context.Context, name string) (model.ProfileSummary, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []model.GenerationSummary) error
	GetFitnessHistory(ctx context.Context, runID string) ([]model.GenerationSummary, bool, error)
	SaveTopGenomes(ctx context.Context, runID string, top []model.TopGenomeRecord) error
	GetTopGenomes(ctx context.Context, runID string) ([]model.TopGenomeRecord, bool, error)
	SaveTrajectory(ctx context.Context, runID string, trajectory model.TrajectoryRecord) error
	GetTrajectory(ctx context.Context, runID, condition string) (model.TrajectoryRecord, bool, error)
	ListTrajectoryConditions(ctx context.Context, runID string) ([]string, error)
}

// Resetter is implemented by stores that can drop all persisted state.
type Resetter interface {
	Reset(ctx context.Context) error
}
