package storage

import (
	"context"
	"sort"
	"sync"

	"paperwing/internal/model"
)

type MemoryStore struct {
	mu           sync.RWMutex
	genomes      map[string]model.Genome
	populations  map[string]model.Population
	profiles     map[string]model.ProfileSummary
	history      map[string][]model.GenerationSummary
	topGenomes   map[string][]model.TopGenomeRecord
	trajectories map[string]map[string]model.TrajectoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.genomes = make(map[string]model.Genome)
	s.populations = make(map[string]model.Population)
	s.profiles = make(map[string]model.ProfileSummary)
	s.history = make(map[string][]model.GenerationSummary)
	s.topGenomes = make(map[string][]model.TopGenomeRecord)
	s.trajectories = make(map[string]map[string]model.TrajectoryRecord)
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	return s.Init(ctx)
}

func (s *MemoryStore) SaveGenome(_ context.Context, genome model.Genome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.genomes[genome.ID] = model.CloneGenome(genome, genome.ID)
	return nil
}

func (s *MemoryStore) GetGenome(_ context.Context, id string) (model.Genome, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	genome, ok := s.genomes[id]
	if !ok {
		return model.Genome{}, false, nil
	}
	return model.CloneGenome(genome, genome.ID), true, nil
}

func (s *MemoryStore) SavePopulation(_ context.Context, population model.Population) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := population
	copied.GenomeIDs = append([]string(nil), population.GenomeIDs...)
	s.populations[population.ID] = copied
	return nil
}

func (s *MemoryStore) GetPopulation(_ context.Context, id string) (model.Population, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	population, ok := s.populations[id]
	if !ok {
		return model.Population{}, false, nil
	}
	copied := population
	copied.GenomeIDs = append([]string(nil), population.GenomeIDs...)
	return copied, true, nil
}

func (s *MemoryStore) SaveProfileSummary(_ context.Context, summary model.ProfileSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[summary.Name] = summary
	return nil
}

func (s *MemoryStore) GetProfileSummary(_ context.Context, name string) (model.ProfileSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.profiles[name]
	return summary, ok, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []model.GenerationSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.GenerationSummary, len(history))
	copy(copied, history)
	s.history[runID] = copied
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]model.GenerationSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.GenerationSummary, len(history))
	copy(copied, history)
	return copied, true, nil
}

func (s *MemoryStore) SaveTopGenomes(_ context.Context, runID string, top []model.TopGenomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.TopGenomeRecord, len(top))
	copy(copied, top)
	s.topGenomes[runID] = copied
	return nil
}

func (s *MemoryStore) GetTopGenomes(_ context.Context, runID string) ([]model.TopGenomeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	top, ok := s.topGenomes[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.TopGenomeRecord, len(top))
	copy(copied, top)
	return copied, true, nil
}

func (s *MemoryStore) SaveTrajectory(_ context.Context, runID string, trajectory model.TrajectoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byCondition := s.trajectories[runID]
	if byCondition == nil {
		byCondition = make(map[string]model.TrajectoryRecord)
		s.trajectories[runID] = byCondition
	}
	copied := trajectory
	copied.Samples = append([]model.TrajectorySample(nil), trajectory.Samples...)
	byCondition[trajectory.Condition] = copied
	return nil
}

func (s *MemoryStore) GetTrajectory(_ context.Context, runID, condition string) (model.TrajectoryRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trajectory, ok := s.trajectories[runID][condition]
	if !ok {
		return model.TrajectoryRecord{}, false, nil
	}
	copied := trajectory
	copied.Samples = append([]model.TrajectorySample(nil), trajectory.Samples...)
	return copied, true, nil
}

func (s *MemoryStore) ListTrajectoryConditions(_ context.Context, runID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conditions := make([]string, 0, len(s.trajectories[runID]))
	for condition := range s.trajectories[runID] {
		conditions = append(conditions, condition)
	}
	sort.Strings(conditions)
	return conditions, nil
}
