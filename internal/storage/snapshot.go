package storage

import (
	"context"
	"fmt"

	"paperwing/internal/model"
)

// SavePopulationSnapshot persists every genome plus the population record
// that indexes them, all stamped with the current versions.
func SavePopulationSnapshot(ctx context.Context, store Store, populationID string, generation int, genomes []model.Genome) error {
	if populationID == "" {
		return fmt.Errorf("population id is required")
	}

	ids := make([]string, 0, len(genomes))
	for _, genome := range genomes {
		stamped := model.CloneGenome(genome, genome.ID)
		Stamp(&stamped.VersionedRecord)
		if err := store.SaveGenome(ctx, stamped); err != nil {
			return err
		}
		ids = append(ids, genome.ID)
	}

	population := model.Population{
		ID:         populationID,
		Generation: generation,
		GenomeIDs:  ids,
	}
	Stamp(&population.VersionedRecord)
	return store.SavePopulation(ctx, population)
}

// LoadPopulationSnapshot restores the genomes referenced by a population
// record, in snapshot order.
func LoadPopulationSnapshot(ctx context.Context, store Store, populationID string) ([]model.Genome, int, error) {
	population, ok, err := store.GetPopulation(ctx, populationID)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, fmt.Errorf("population not found: %s", populationID)
	}

	genomes := make([]model.Genome, 0, len(population.GenomeIDs))
	for _, id := range population.GenomeIDs {
		genome, ok, err := store.GetGenome(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			return nil, 0, fmt.Errorf("population %s references missing genome: %s", populationID, id)
		}
		genomes = append(genomes, genome)
	}
	return genomes, population.Generation, nil
}
