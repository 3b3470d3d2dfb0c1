package geometry

import (
	"fmt"
	"math/rand"

	"paperwing/internal/model"
)

// HingeCount is the fixed fold topology: nose fold, mid fold, wing fold.
// It is a construction constant, not a per-genome value.
const HingeCount = 3

// Gene layout within a genome vector.
const (
	GeneWingSpan = 0
	GeneChord    = 1
	GeneHinge0   = 2
	// GeneHinge0..GeneHinge0+HingeCount-1 are the hinge fold angles.
	GeneNoseWeight = GeneHinge0 + HingeCount
	GeneDihedral   = GeneNoseWeight + 1
	GeneCount      = GeneDihedral + 1
)

// GeneRange declares the valid closed interval for one gene.
type GeneRange struct {
	Name string
	Min  float64
	Max  float64
}

var geneRanges = []GeneRange{
	{Name: "wing_span_cm", Min: 6, Max: 22},
	{Name: "chord_cm", Min: 0, Max: 14},
	{Name: "hinge_nose_deg", Min: 0, Max: 85},
	{Name: "hinge_mid_deg", Min: 0, Max: 85},
	{Name: "hinge_wing_deg", Min: 0, Max: 85},
	{Name: "nose_weight_fraction", Min: 0, Max: 0.45},
	{Name: "dihedral_deg", Min: -8, Max: 18},
}

// Ranges returns a copy of the per-gene range table.
func Ranges() []GeneRange {
	return append([]GeneRange(nil), geneRanges...)
}

// ClampGenes forces every gene into its declared range, in place.
func ClampGenes(genes []float64) {
	for i := range genes {
		if i >= len(geneRanges) {
			return
		}
		if genes[i] < geneRanges[i].Min {
			genes[i] = geneRanges[i].Min
		}
		if genes[i] > geneRanges[i].Max {
			genes[i] = geneRanges[i].Max
		}
	}
}

// ValidateGenes checks length and range membership without repairing.
func ValidateGenes(genes []float64) error {
	if len(genes) != GeneCount {
		return fmt.Errorf("genome has %d genes, want %d", len(genes), GeneCount)
	}
	for i, g := range genes {
		r := geneRanges[i]
		if g < r.Min || g > r.Max {
			return fmt.Errorf("gene %s out of range: %v not in [%v, %v]", r.Name, g, r.Min, r.Max)
		}
	}
	return nil
}

// Sample draws a genome with each gene uniform within its declared range.
func Sample(rng *rand.Rand, id string) model.Genome {
	genes := make([]float64, GeneCount)
	for i, r := range geneRanges {
		genes[i] = r.Min + rng.Float64()*(r.Max-r.Min)
	}
	return model.Genome{ID: id, Genes: genes}
}
