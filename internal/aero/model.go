package aero

import "math"

// Coefficients are the dimensionless lift and drag coefficients for one
// flight state.
type Coefficients struct {
	Lift float64
	Drag float64
}

// CoefficientModel maps (angle of attack, aspect ratio) to lift and drag
// coefficients. Implementations must be pure so the integrator stays
// deterministic and the model can be swapped without touching it.
type CoefficientModel interface {
	Name() string
	Coefficients(angleOfAttack, aspectRatio float64) Coefficients
}

// ThinAirfoilModel is a reduced-order model: linear lift slope with a
// finite-wing correction up to the stall angle, then a degradation branch.
// Zero values select the defaults.
type ThinAirfoilModel struct {
	StallAngle       float64 // rad
	ZeroLiftDrag     float64
	OswaldEfficiency float64
}

const (
	defaultStallAngle       = 15 * math.Pi / 180
	defaultZeroLiftDrag     = 0.02
	defaultOswaldEfficiency = 0.85
)

func (ThinAirfoilModel) Name() string {
	return "thin-airfoil"
}

func (m ThinAirfoilModel) Coefficients(angleOfAttack, aspectRatio float64) Coefficients {
	stall := m.StallAngle
	if stall <= 0 {
		stall = defaultStallAngle
	}
	cd0 := m.ZeroLiftDrag
	if cd0 <= 0 {
		cd0 = defaultZeroLiftDrag
	}
	oswald := m.OswaldEfficiency
	if oswald <= 0 {
		oswald = defaultOswaldEfficiency
	}
	if aspectRatio <= 0 {
		aspectRatio = 1e-3
	}

	slope := 2 * math.Pi * aspectRatio / (aspectRatio + 2)
	abs := math.Abs(angleOfAttack)
	sign := 1.0
	if angleOfAttack < 0 {
		sign = -1
	}

	var lift float64
	stallPenalty := 0.0
	if abs <= stall {
		lift = slope * angleOfAttack
	} else {
		// Post-stall the lift collapses linearly toward zero and
		// separation drag grows with the excess angle.
		excess := abs - stall
		decay := 1 - 1.5*excess
		if decay < 0 {
			decay = 0
		}
		lift = sign * slope * stall * decay
		stallPenalty = 1.2 * excess
	}

	induced := lift * lift / (math.Pi * oswald * aspectRatio)
	return Coefficients{Lift: lift, Drag: cd0 + induced + stallPenalty}
}
