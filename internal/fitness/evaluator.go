// Package fitness scores genomes by decoding them and flying the decoded
// craft through a set of flight conditions.
package fitness

import (
	"errors"
	"fmt"
	"math"

	"paperwing/internal/aero"
	"paperwing/internal/geometry"
	"paperwing/internal/model"
)

// Weights blend the per-condition metrics into one scalar. All weights are
// non-negative; InstabilityPenalty is subtracted when a flight diverges.
type Weights struct {
	Range              float64 `json:"range"`
	Duration           float64 `json:"duration"`
	Stability          float64 `json:"stability"`
	LandingQuality     float64 `json:"landing_quality"`
	InstabilityPenalty float64 `json:"instability_penalty"`
}

// Config selects the objective. Zero FitnessFloor picks the default.
type Config struct {
	Weights      Weights `json:"weights"`
	FitnessFloor float64 `json:"fitness_floor"`
}

const defaultFitnessFloor = 1e-3

// Evaluator scores one genome across every registered condition. It is
// stateless after construction and safe for concurrent use.
type Evaluator struct {
	sim        *aero.Simulator
	conditions []model.FlightCondition
	weights    Weights
	floor      float64
}

func NewEvaluator(sim *aero.Simulator, conditions []model.FlightCondition, cfg Config) (*Evaluator, error) {
	if sim == nil {
		return nil, fmt.Errorf("simulator is required")
	}
	if len(conditions) == 0 {
		return nil, fmt.Errorf("at least one flight condition is required")
	}
	for _, w := range []float64{cfg.Weights.Range, cfg.Weights.Duration, cfg.Weights.Stability, cfg.Weights.LandingQuality, cfg.Weights.InstabilityPenalty} {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("weights must be finite and non-negative, got %+v", cfg.Weights)
		}
	}
	floor := cfg.FitnessFloor
	if floor == 0 {
		floor = defaultFitnessFloor
	}
	if floor < 0 {
		return nil, fmt.Errorf("fitness floor must be >= 0, got %v", floor)
	}
	return &Evaluator{
		sim:        sim,
		conditions: append([]model.FlightCondition(nil), conditions...),
		weights:    cfg.Weights,
		floor:      floor,
	}, nil
}

// Floor is the fitness assigned to genomes that decode to degenerate
// geometry.
func (e *Evaluator) Floor() float64 {
	return e.floor
}

// DefaultFloor is the floor used when the config leaves it zero.
func DefaultFloor() float64 {
	return defaultFitnessFloor
}

// Conditions returns the registered condition set in evaluation order.
func (e *Evaluator) Conditions() []model.FlightCondition {
	return append([]model.FlightCondition(nil), e.conditions...)
}

// Evaluate decodes the genome once and averages the weighted score over
// every condition. Degenerate genomes score exactly the floor; any other
// genome never scores below it. The result is deterministic in the genome.
func (e *Evaluator) Evaluate(g model.Genome) model.FitnessResult {
	result := model.FitnessResult{
		ByCondition: make(map[string]model.ConditionMetrics, len(e.conditions)),
	}

	geom, err := geometry.Decode(g)
	if err != nil && errors.Is(err, geometry.ErrInvalidGeometry) {
		result.Degenerate = true
		result.Fitness = e.floor
		return result
	}
	if err != nil {
		// Malformed genomes (wrong gene count, out-of-range values) are
		// treated the same way so a corrupted individual cannot stall a
		// run.
		result.Degenerate = true
		result.Fitness = e.floor
		return result
	}

	total := 0.0
	for _, cond := range e.conditions {
		flight := e.sim.Fly(geom, cond)
		metrics := model.ConditionMetrics{
			Range:          flight.Range,
			Duration:       flight.Duration,
			Stability:      1 / (1 + flight.AoAVariance),
			LandingQuality: 1 / (1 + flight.LandingSpeed),
			Unstable:       flight.Unstable,
		}
		result.ByCondition[cond.Name] = metrics

		score := e.weights.Range*metrics.Range +
			e.weights.Duration*metrics.Duration +
			e.weights.Stability*metrics.Stability +
			e.weights.LandingQuality*metrics.LandingQuality
		if flight.Unstable {
			score -= e.weights.InstabilityPenalty
		}
		total += score
	}

	fitness := total / float64(len(e.conditions))
	if math.IsNaN(fitness) || math.IsInf(fitness, 0) || fitness < e.floor {
		fitness = e.floor
	}
	result.Fitness = fitness
	return result
}
