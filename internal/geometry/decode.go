package geometry

import (
	"errors"
	"fmt"
	"math"

	"paperwing/internal/model"
)

// ErrInvalidGeometry marks genomes whose decoded shape is physically
// degenerate. Callers recover by assigning a fitness penalty; decode never
// repairs the shape silently.
var ErrInvalidGeometry = errors.New("invalid geometry")

const (
	// paperDensity is standard printer paper, kg per m^2.
	paperDensity = 0.080
	// sheetFactor approximates the unfolded sheet area relative to the
	// folded planform.
	sheetFactor = 1.5
	// minWingArea below which a shape cannot fly, m^2.
	minWingArea = 1e-6
	// maxFoldSum is the self-intersection tolerance: cumulative hinge
	// angle beyond this folds the paper back through itself, degrees.
	maxFoldSum = 170
)

// Decode derives physical properties from an in-range genome. It is pure
// and deterministic. Out-of-range genes are a caller error: clamp first.
func Decode(g model.Genome) (model.Geometry, error) {
	if err := ValidateGenes(g.Genes); err != nil {
		return model.Geometry{}, err
	}

	span := g.Genes[GeneWingSpan] / 100
	chord := g.Genes[GeneChord] / 100
	noseWeight := g.Genes[GeneNoseWeight]
	dihedral := g.Genes[GeneDihedral] * math.Pi / 180

	foldSum := 0.0
	cosSum := 0.0
	for i := 0; i < HingeCount; i++ {
		angle := g.Genes[GeneHinge0+i]
		foldSum += angle
		cosSum += math.Cos(angle * math.Pi / 180)
	}
	if foldSum > maxFoldSum {
		return model.Geometry{}, fmt.Errorf("%w: folds self-intersect, cumulative hinge angle %.1f deg exceeds %d deg", ErrInvalidGeometry, foldSum, maxFoldSum)
	}
	meanCos := cosSum / HingeCount

	// Folding tilts panels out of the planform; projected area shrinks
	// toward half the flat sheet as hinge angles grow.
	area := span * chord * (0.5 + 0.5*meanCos)
	if area <= minWingArea {
		return model.Geometry{}, fmt.Errorf("%w: wing area %.3g m^2 is not positive", ErrInvalidGeometry, area)
	}

	mass := paperDensity * span * chord * sheetFactor
	com := chord * (0.45 - 0.45*noseWeight)
	cop := chord * (0.35 - 0.04*(1-meanCos))

	return model.Geometry{
		Span:             span,
		Chord:            chord,
		WingArea:         area,
		AspectRatio:      span * span / area,
		Mass:             mass,
		NoseWeight:       noseWeight,
		CenterOfMass:     com,
		CenterOfPressure: cop,
		StaticMargin:     (cop - com) / chord,
		PitchInertia:     mass * chord * chord / 12 * (1 + 3*noseWeight),
		Dihedral:         dihedral,
	}, nil
}
