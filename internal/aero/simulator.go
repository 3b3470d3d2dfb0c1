package aero

import (
	"fmt"
	"math"

	"paperwing/internal/model"
)

const gravity = 9.81

// Config controls the integration loop. Zero values select the defaults.
type Config struct {
	TimeStep     float64 // s
	MaxDuration  float64 // s, timeout for a flight that never lands
	SpeedLimit   float64 // m/s, sanity bound before a run is flagged unstable
	PitchDamping float64 // 1/s, rotational damping
}

func DefaultConfig() Config {
	return Config{
		TimeStep:     0.01,
		MaxDuration:  15,
		SpeedLimit:   60,
		PitchDamping: 2.5,
	}
}

// Simulator integrates rigid-body flight for a decoded geometry under one
// condition. Each Fly call is independent and side-effect-free.
type Simulator struct {
	model CoefficientModel
	cfg   Config
}

func NewSimulator(coefficientModel CoefficientModel, cfg Config) (*Simulator, error) {
	if coefficientModel == nil {
		return nil, fmt.Errorf("coefficient model is required")
	}
	defaults := DefaultConfig()
	if cfg.TimeStep == 0 {
		cfg.TimeStep = defaults.TimeStep
	}
	if cfg.MaxDuration == 0 {
		cfg.MaxDuration = defaults.MaxDuration
	}
	if cfg.SpeedLimit == 0 {
		cfg.SpeedLimit = defaults.SpeedLimit
	}
	if cfg.PitchDamping == 0 {
		cfg.PitchDamping = defaults.PitchDamping
	}
	if cfg.TimeStep <= 0 {
		return nil, fmt.Errorf("time step must be > 0, got %v", cfg.TimeStep)
	}
	if cfg.MaxDuration <= cfg.TimeStep {
		return nil, fmt.Errorf("max duration must exceed the time step")
	}
	if cfg.SpeedLimit <= 0 {
		return nil, fmt.Errorf("speed limit must be > 0, got %v", cfg.SpeedLimit)
	}
	return &Simulator{model: coefficientModel, cfg: cfg}, nil
}

// Fly integrates one launch with semi-implicit Euler until landing,
// timeout, or a divergence guard trips. The partial trajectory is valid
// output in every case; divergence is reported via the Unstable flag, and
// samples never contain NaN or Inf.
func (s *Simulator) Fly(geom model.Geometry, cond model.FlightCondition) model.FlightResult {
	dt := s.cfg.TimeStep
	launch := cond.LaunchAngle * math.Pi / 180

	pos := model.Vec3{Z: cond.LaunchHeight}
	vel := model.Vec3{
		X: cond.LaunchSpeed * math.Cos(launch),
		Z: cond.LaunchSpeed * math.Sin(launch),
	}
	pitch := launch
	pitchRate := 0.0

	aoa0, lift0, drag0 := s.instantLoads(geom, cond, vel, pitch)
	result := model.FlightResult{
		Samples: []model.TrajectorySample{{
			Position:      pos,
			Velocity:      vel,
			AngleOfAttack: aoa0,
			Lift:          lift0,
			Drag:          drag0,
		}},
	}
	maxAltitude := pos.Z

	steps := int(s.cfg.MaxDuration / dt)
	for step := 1; step <= steps; step++ {
		relX := vel.X - cond.Wind.X
		relY := vel.Y - cond.Wind.Y
		relZ := vel.Z - cond.Wind.Z
		airspeed := math.Sqrt(relX*relX + relY*relY + relZ*relZ)

		var aoa, lift, drag float64
		ax, ay, az := 0.0, 0.0, -gravity
		pitchAccel := -s.cfg.PitchDamping * pitchRate

		if airspeed > 1e-6 {
			horizontal := math.Sqrt(relX*relX + relY*relY)
			flightPath := math.Atan2(relZ, horizontal)
			aoa = pitch - flightPath

			co := s.model.Coefficients(aoa, geom.AspectRatio)
			q := 0.5 * cond.AirDensity * airspeed * airspeed
			lift = q * geom.WingArea * co.Lift
			drag = q * geom.WingArea * co.Drag

			// Drag opposes the relative wind.
			ax += -drag * relX / airspeed / geom.Mass
			ay += -drag * relY / airspeed / geom.Mass
			az += -drag * relZ / airspeed / geom.Mass

			// Lift acts perpendicular to the relative wind in the
			// vertical plane that contains it.
			upDot := relZ / airspeed
			lx := -upDot * relX / airspeed
			ly := -upDot * relY / airspeed
			lz := 1 - upDot*relZ/airspeed
			norm := math.Sqrt(lx*lx + ly*ly + lz*lz)
			if norm > 1e-9 {
				ax += lift * lx / norm / geom.Mass
				ay += lift * ly / norm / geom.Mass
				az += lift * lz / norm / geom.Mass
			}

			// Dihedral damps lateral drift.
			ay += -geom.Dihedral * relY * airspeed * cond.AirDensity * geom.WingArea / (2 * geom.Mass)

			// Restoring pitch moment from the pressure-to-mass offset.
			moment := -q * geom.WingArea * geom.Chord * geom.StaticMargin * co.Lift
			pitchAccel += moment / geom.PitchInertia
		}

		vel.X += ax * dt
		vel.Y += ay * dt
		vel.Z += az * dt
		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
		pos.Z += vel.Z * dt
		pitchRate += pitchAccel * dt
		pitch += pitchRate * dt

		if !finiteState(pos, vel) || speed(vel) > s.cfg.SpeedLimit {
			result.Unstable = true
			break
		}
		if pos.Z > maxAltitude {
			maxAltitude = pos.Z
		}

		result.Samples = append(result.Samples, model.TrajectorySample{
			Time:          float64(step) * dt,
			Position:      pos,
			Velocity:      vel,
			AngleOfAttack: aoa,
			Lift:          lift,
			Drag:          drag,
		})

		if pos.Z <= 0 {
			break
		}
	}

	last := result.Samples[len(result.Samples)-1]
	if !result.Unstable && last.Position.Z > 0 {
		result.TimedOut = true
	}
	result.Range = math.Sqrt(last.Position.X*last.Position.X + last.Position.Y*last.Position.Y)
	result.Duration = last.Time
	result.MaxAltitude = maxAltitude
	result.AoAVariance = aoaVariance(result.Samples)
	if last.Velocity.Z < 0 {
		result.LandingSpeed = -last.Velocity.Z
	}
	return result
}

// instantLoads evaluates angle of attack, lift, and drag for one flight
// state, used to fill the launch sample before any integration step.
func (s *Simulator) instantLoads(geom model.Geometry, cond model.FlightCondition, vel model.Vec3, pitch float64) (aoa, lift, drag float64) {
	relX := vel.X - cond.Wind.X
	relY := vel.Y - cond.Wind.Y
	relZ := vel.Z - cond.Wind.Z
	airspeed := math.Sqrt(relX*relX + relY*relY + relZ*relZ)
	if airspeed <= 1e-6 {
		return 0, 0, 0
	}

	horizontal := math.Sqrt(relX*relX + relY*relY)
	aoa = pitch - math.Atan2(relZ, horizontal)
	co := s.model.Coefficients(aoa, geom.AspectRatio)
	q := 0.5 * cond.AirDensity * airspeed * airspeed
	return aoa, q * geom.WingArea * co.Lift, q * geom.WingArea * co.Drag
}

func aoaVariance(samples []model.TrajectorySample) float64 {
	if len(samples) < 2 {
		return 0
	}
	mean := 0.0
	for _, sample := range samples[1:] {
		mean += sample.AngleOfAttack
	}
	mean /= float64(len(samples) - 1)

	variance := 0.0
	for _, sample := range samples[1:] {
		d := sample.AngleOfAttack - mean
		variance += d * d
	}
	return variance / float64(len(samples)-1)
}

func finiteState(pos, vel model.Vec3) bool {
	for _, v := range []float64{pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func speed(v model.Vec3) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}
