package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"paperwing/pkg/paperwing"
)

// runConfigFile mirrors paperwing.RunRequest for on-disk run configs.
// JSON and YAML share the same key set.
type runConfigFile struct {
	RunID                  string  `json:"run_id" yaml:"run_id"`
	Profile                string  `json:"profile" yaml:"profile"`
	Objective              string  `json:"objective" yaml:"objective"`
	Population             int     `json:"population" yaml:"population"`
	Generations            int     `json:"generations" yaml:"generations"`
	Seed                   int64   `json:"seed" yaml:"seed"`
	Workers                int     `json:"workers" yaml:"workers"`
	EliteCount             int     `json:"elite_count" yaml:"elite_count"`
	Selection              string  `json:"selection" yaml:"selection"`
	Crossover              string  `json:"crossover" yaml:"crossover"`
	CrossoverAlpha         float64 `json:"crossover_alpha" yaml:"crossover_alpha"`
	CrossoverRate          float64 `json:"crossover_rate" yaml:"crossover_rate"`
	MutationRate           float64 `json:"mutation_rate" yaml:"mutation_rate"`
	MutationScale          float64 `json:"mutation_scale" yaml:"mutation_scale"`
	EnableTuning           bool    `json:"enable_tuning" yaml:"enable_tuning"`
	TuneAttempts           int     `json:"tune_attempts" yaml:"tune_attempts"`
	TuneSteps              int     `json:"tune_steps" yaml:"tune_steps"`
	TuneStepSize           float64 `json:"tune_step_size" yaml:"tune_step_size"`
	TuneAttemptPolicy      string  `json:"tune_attempt_policy" yaml:"tune_attempt_policy"`
	TuneAttemptPolicyParam float64 `json:"tune_attempt_policy_param" yaml:"tune_attempt_policy_param"`
	StagnationPatience     int     `json:"stagnation_patience" yaml:"stagnation_patience"`
	StagnationEpsilon      float64 `json:"stagnation_epsilon" yaml:"stagnation_epsilon"`
	TimeStep               float64 `json:"time_step" yaml:"time_step"`
	MaxFlightDuration      float64 `json:"max_flight_duration" yaml:"max_flight_duration"`
	SpeedLimit             float64 `json:"speed_limit" yaml:"speed_limit"`
}

func loadRunRequestFromConfig(path string) (paperwing.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return paperwing.RunRequest{}, err
	}

	var cfg runConfigFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return paperwing.RunRequest{}, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return paperwing.RunRequest{}, fmt.Errorf("parse json config: %w", err)
		}
	default:
		// Unknown extension: accept either format.
		if jsonErr := json.Unmarshal(data, &cfg); jsonErr != nil {
			if yamlErr := yaml.Unmarshal(data, &cfg); yamlErr != nil {
				return paperwing.RunRequest{}, fmt.Errorf("parse config: %w", yamlErr)
			}
		}
	}

	return paperwing.RunRequest{
		RunID:                  cfg.RunID,
		Profile:                cfg.Profile,
		Objective:              cfg.Objective,
		Population:             cfg.Population,
		Generations:            cfg.Generations,
		Seed:                   cfg.Seed,
		Workers:                cfg.Workers,
		EliteCount:             cfg.EliteCount,
		Selection:              cfg.Selection,
		Crossover:              cfg.Crossover,
		CrossoverAlpha:         cfg.CrossoverAlpha,
		CrossoverRate:          cfg.CrossoverRate,
		MutationRate:           cfg.MutationRate,
		MutationScale:          cfg.MutationScale,
		EnableTuning:           cfg.EnableTuning,
		TuneAttempts:           cfg.TuneAttempts,
		TuneSteps:              cfg.TuneSteps,
		TuneStepSize:           cfg.TuneStepSize,
		TuneAttemptPolicy:      cfg.TuneAttemptPolicy,
		TuneAttemptPolicyParam: cfg.TuneAttemptPolicyParam,
		StagnationPatience:     cfg.StagnationPatience,
		StagnationEpsilon:      cfg.StagnationEpsilon,
		TimeStep:               cfg.TimeStep,
		MaxFlightDuration:      cfg.MaxFlightDuration,
		SpeedLimit:             cfg.SpeedLimit,
	}, nil
}

func overrideFromFlags(req *paperwing.RunRequest, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "profile":
			req.Profile = v.(string)
		case "objective":
			req.Objective = v.(string)
		case "pop":
			req.Population = v.(int)
		case "gens":
			req.Generations = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "workers":
			req.Workers = v.(int)
		case "elite":
			req.EliteCount = v.(int)
		case "selection":
			req.Selection = v.(string)
		case "crossover":
			req.Crossover = v.(string)
		case "crossover-alpha":
			req.CrossoverAlpha = v.(float64)
		case "crossover-rate":
			req.CrossoverRate = v.(float64)
		case "mutation-rate":
			req.MutationRate = v.(float64)
		case "mutation-scale":
			req.MutationScale = v.(float64)
		case "tuning":
			req.EnableTuning = v.(bool)
		case "attempts":
			req.TuneAttempts = v.(int)
		case "tune-steps":
			req.TuneSteps = v.(int)
		case "tune-step-size":
			req.TuneStepSize = v.(float64)
		case "tune-attempt-policy":
			req.TuneAttemptPolicy = v.(string)
		case "tune-attempt-param":
			req.TuneAttemptPolicyParam = v.(float64)
		case "stagnation-patience":
			req.StagnationPatience = v.(int)
		case "stagnation-epsilon":
			req.StagnationEpsilon = v.(float64)
		case "time-step":
			req.TimeStep = v.(float64)
		case "max-duration":
			req.MaxFlightDuration = v.(float64)
		case "speed-limit":
			req.SpeedLimit = v.(float64)
		}
	}
}
