// Package conditions holds the named flight condition profiles and
// objective presets a run can select by name.
package conditions

import (
	"fmt"
	"sort"
	"strings"

	"paperwing/internal/fitness"
	"paperwing/internal/model"
)

const (
	seaLevelDensity = 1.225
	launchSpeed     = 6.0
	launchAngle     = 10.0
	launchHeight    = 1.8
)

func calm() model.FlightCondition {
	return model.FlightCondition{
		Name:         "calm",
		AirDensity:   seaLevelDensity,
		LaunchSpeed:  launchSpeed,
		LaunchAngle:  launchAngle,
		LaunchHeight: launchHeight,
	}
}

func withWind(name string, wind model.Vec3) model.FlightCondition {
	c := calm()
	c.Name = name
	c.Wind = wind
	return c
}

// ConstructProfile resolves a profile name to its condition set. The
// standard profile flies each genome in calm air, a tailwind, and a
// headwind so the optimizer cannot overfit one wind regime.
func ConstructProfile(name string) ([]model.FlightCondition, error) {
	switch normalize(name) {
	case "", "default", "standard":
		return []model.FlightCondition{
			calm(),
			withWind("tailwind", model.Vec3{X: 2.5}),
			withWind("headwind", model.Vec3{X: -2.5}),
		}, nil
	case "calm", "no_wind", "indoor":
		return []model.FlightCondition{calm()}, nil
	case "tailwind":
		return []model.FlightCondition{withWind("tailwind", model.Vec3{X: 2.5})}, nil
	case "headwind":
		return []model.FlightCondition{withWind("headwind", model.Vec3{X: -2.5})}, nil
	case "crosswind":
		return []model.FlightCondition{withWind("crosswind", model.Vec3{Y: 2.0})}, nil
	case "gusty", "outdoor":
		return []model.FlightCondition{
			calm(),
			withWind("tailwind", model.Vec3{X: 3.5}),
			withWind("headwind", model.Vec3{X: -3.5}),
			withWind("crosswind", model.Vec3{Y: 2.5}),
			withWind("updraft", model.Vec3{X: -1.5, Z: 1.0}),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported condition profile: %s", name)
	}
}

// CanonicalProfileName resolves aliases to the registered profile name.
func CanonicalProfileName(name string) (string, error) {
	switch normalize(name) {
	case "", "default", "standard":
		return "standard", nil
	case "calm", "no_wind", "indoor":
		return "calm", nil
	case "tailwind":
		return "tailwind", nil
	case "headwind":
		return "headwind", nil
	case "crosswind":
		return "crosswind", nil
	case "gusty", "outdoor":
		return "gusty", nil
	default:
		return "", fmt.Errorf("unsupported condition profile: %s", name)
	}
}

// AvailableProfiles lists the selectable profile names.
func AvailableProfiles() []string {
	profiles := []string{"calm", "crosswind", "gusty", "headwind", "standard", "tailwind"}
	sort.Strings(profiles)
	return profiles
}

// ObjectiveFromConfig maps an objective name to its metric weights.
func ObjectiveFromConfig(name string) (fitness.Weights, error) {
	switch normalize(name) {
	case "", "default", "balanced":
		return fitness.Weights{
			Range:              1.0,
			Duration:           0.5,
			Stability:          2.0,
			LandingQuality:     0.5,
			InstabilityPenalty: 5.0,
		}, nil
	case "distance", "range":
		return fitness.Weights{
			Range:              2.0,
			Duration:           0.2,
			Stability:          0.5,
			LandingQuality:     0.1,
			InstabilityPenalty: 5.0,
		}, nil
	case "stability", "glider":
		return fitness.Weights{
			Range:              0.3,
			Duration:           1.0,
			Stability:          3.0,
			LandingQuality:     1.0,
			InstabilityPenalty: 8.0,
		}, nil
	default:
		return fitness.Weights{}, fmt.Errorf("unsupported objective: %s", name)
	}
}

// CanonicalObjectiveName resolves aliases to the recorded objective name.
func CanonicalObjectiveName(name string) (string, error) {
	switch normalize(name) {
	case "", "default", "balanced":
		return "balanced", nil
	case "distance", "range":
		return "distance", nil
	case "stability", "glider":
		return "stability", nil
	default:
		return "", fmt.Errorf("unsupported objective: %s", name)
	}
}

// AvailableObjectives lists the selectable objective names.
func AvailableObjectives() []string {
	objectives := []string{"balanced", "distance", "stability"}
	sort.Strings(objectives)
	return objectives
}

func normalize(raw string) string {
	name := strings.TrimSpace(strings.ToLower(raw))
	return strings.ReplaceAll(name, "-", "_")
}
