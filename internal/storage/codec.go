package storage

import (
	"encoding/json"
	"errors"

	"paperwing/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeGenome(g model.Genome) ([]byte, error) {
	return json.Marshal(g)
}

func DecodeGenome(data []byte) (model.Genome, error) {
	var genome model.Genome
	if err := json.Unmarshal(data, &genome); err != nil {
		return model.Genome{}, err
	}
	if err := checkVersion(genome.VersionedRecord); err != nil {
		return model.Genome{}, err
	}
	return genome, nil
}

func EncodePopulation(p model.Population) ([]byte, error) {
	return json.Marshal(p)
}

func DecodePopulation(data []byte) (model.Population, error) {
	var population model.Population
	if err := json.Unmarshal(data, &population); err != nil {
		return model.Population{}, err
	}
	if err := checkVersion(population.VersionedRecord); err != nil {
		return model.Population{}, err
	}
	return population, nil
}

func EncodeProfileSummary(s model.ProfileSummary) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeProfileSummary(data []byte) (model.ProfileSummary, error) {
	var summary model.ProfileSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return model.ProfileSummary{}, err
	}
	if err := checkVersion(summary.VersionedRecord); err != nil {
		return model.ProfileSummary{}, err
	}
	return summary, nil
}

func EncodeFitnessHistory(history []model.GenerationSummary) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeFitnessHistory(data []byte) ([]model.GenerationSummary, error) {
	var history []model.GenerationSummary
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func EncodeTopGenomes(top []model.TopGenomeRecord) ([]byte, error) {
	return json.Marshal(top)
}

func DecodeTopGenomes(data []byte) ([]model.TopGenomeRecord, error) {
	var top []model.TopGenomeRecord
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	return top, nil
}

func EncodeTrajectory(t model.TrajectoryRecord) ([]byte, error) {
	return json.Marshal(t)
}

func DecodeTrajectory(data []byte) (model.TrajectoryRecord, error) {
	var trajectory model.TrajectoryRecord
	if err := json.Unmarshal(data, &trajectory); err != nil {
		return model.TrajectoryRecord{}, err
	}
	return trajectory, nil
}

// Stamp fills the version fields a record needs before persisting.
func Stamp(v *model.VersionedRecord) {
	v.SchemaVersion = CurrentSchemaVersion
	v.CodecVersion = CurrentCodecVersion
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
