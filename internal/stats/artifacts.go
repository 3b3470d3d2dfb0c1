// Package stats writes and reads the on-disk artifacts of optimization
// runs: per-run JSON/CSV files under a base directory plus a run index.
package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"paperwing/internal/model"
)

const runIndexFile = "run_index.json"

type RunConfig struct {
	RunID                string  `json:"run_id"`
	ContinuePopulationID string  `json:"continue_population_id,omitempty"`
	InitialGeneration    int     `json:"initial_generation"`
	Profile              string  `json:"profile"`
	Objective            string  `json:"objective"`
	PopulationSize       int     `json:"population_size"`
	Generations          int     `json:"generations"`
	EliteCount           int     `json:"elite_count"`
	Workers              int     `json:"workers"`
	Seed                 int64   `json:"seed"`
	Selector             string  `json:"selector"`
	CrossoverOp          string  `json:"crossover_op"`
	CrossoverRate        float64 `json:"crossover_rate"`
	CrossoverAlpha       float64 `json:"crossover_alpha"`
	MutationRate         float64 `json:"mutation_rate"`
	MutationScale        float64 `json:"mutation_scale"`
	StagnationPatience   int     `json:"stagnation_patience"`
	StagnationEpsilon    float64 `json:"stagnation_epsilon"`
	TuningEnabled        bool    `json:"tuning_enabled"`
	TuneAttempts         int     `json:"tune_attempts"`
	TuneSteps            int     `json:"tune_steps"`
	TuneStepSize         float64 `json:"tune_step_size"`
	TuneAttemptPolicy    string  `json:"tune_attempt_policy"`
	TimeStep             float64 `json:"time_step"`
	MaxFlightDuration    float64 `json:"max_flight_duration"`
	SpeedLimit           float64 `json:"speed_limit"`
	FitnessFloor         float64 `json:"fitness_floor"`
}

type RunArtifacts struct {
	Config           RunConfig                 `json:"config"`
	History          []model.GenerationSummary `json:"history"`
	FinalBestFitness float64                   `json:"final_best_fitness"`
	StopReason       string                    `json:"stop_reason"`
	TopGenomes       []model.TopGenomeRecord   `json:"top_genomes"`
	Trajectories     []model.TrajectoryRecord  `json:"trajectories,omitempty"`
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	Profile          string  `json:"profile"`
	Objective        string  `json:"objective"`
	PopulationSize   int     `json:"population_size"`
	Generations      int     `json:"generations"`
	Seed             int64   `json:"seed"`
	Workers          int     `json:"workers"`
	EliteCount       int     `json:"elite_count"`
	TuningEnabled    bool    `json:"tuning_enabled"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	StopReason       string  `json:"stop_reason"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

// WriteRunArtifacts lays out one run directory under baseDir:
// config.json, fitness_history.json, top_genomes.json, diagnostics.csv,
// and one trajectory CSV per condition for the winning genome.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	history := map[string]any{
		"history":            artifacts.History,
		"final_best_fitness": artifacts.FinalBestFitness,
		"stop_reason":        artifacts.StopReason,
	}
	if err := writeJSON(filepath.Join(runDir, "fitness_history.json"), history); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "top_genomes.json"), artifacts.TopGenomes); err != nil {
		return "", err
	}
	if err := writeDiagnosticsCSV(filepath.Join(runDir, "diagnostics.csv"), artifacts.History); err != nil {
		return "", err
	}
	for _, trajectory := range artifacts.Trajectories {
		name := fmt.Sprintf("trajectory_%s.csv", trajectory.Condition)
		if err := writeTrajectoryCSV(filepath.Join(runDir, name), trajectory); err != nil {
			return "", err
		}
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run directory into outDir for sharing.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".csv") {
			continue
		}
		if err := copyFile(filepath.Join(src, name), filepath.Join(dst, name)); err != nil {
			return "", err
		}
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	path := filepath.Join(baseDir, runID, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func ReadTopGenomes(baseDir, runID string) ([]model.TopGenomeRecord, bool, error) {
	path := filepath.Join(baseDir, runID, "top_genomes.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var top []model.TopGenomeRecord
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, false, err
	}
	return top, true, nil
}

func ReadDiagnostics(baseDir, runID string) ([]model.GenerationSummary, bool, error) {
	path := filepath.Join(baseDir, runID, "diagnostics.csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []model.GenerationSummary{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 5 {
		return nil, false, fmt.Errorf("diagnostics header must have at least 5 columns")
	}

	history := make([]model.GenerationSummary, 0, 64)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 5 {
			return nil, false, fmt.Errorf("diagnostics row must have at least 5 columns")
		}
		generation, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, false, err
		}
		best, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		mean, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, false, err
		}
		worst, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, false, err
		}
		evaluations, err := strconv.Atoi(record[4])
		if err != nil {
			return nil, false, err
		}
		history = append(history, model.GenerationSummary{
			Generation:  generation,
			Best:        best,
			Mean:        mean,
			Worst:       worst,
			Evaluations: evaluations,
		})
	}
	return history, true, nil
}

func writeDiagnosticsCSV(path string, history []model.GenerationSummary) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best", "mean", "worst", "evaluations"}); err != nil {
		return err
	}
	for _, summary := range history {
		if err := writer.Write([]string{
			strconv.Itoa(summary.Generation),
			strconv.FormatFloat(summary.Best, 'f', -1, 64),
			strconv.FormatFloat(summary.Mean, 'f', -1, 64),
			strconv.FormatFloat(summary.Worst, 'f', -1, 64),
			strconv.Itoa(summary.Evaluations),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeTrajectoryCSV(path string, trajectory model.TrajectoryRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{"time", "x", "y", "z", "vx", "vy", "vz", "angle_of_attack", "lift", "drag"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, sample := range trajectory.Samples {
		record := []string{
			formatFloat(sample.Time),
			formatFloat(sample.Position.X),
			formatFloat(sample.Position.Y),
			formatFloat(sample.Position.Z),
			formatFloat(sample.Velocity.X),
			formatFloat(sample.Velocity.Y),
			formatFloat(sample.Velocity.Z),
			formatFloat(sample.AngleOfAttack),
			formatFloat(sample.Lift),
			formatFloat(sample.Drag),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
