package geometry

import (
	"errors"
	"math/rand"
	"testing"

	"paperwing/internal/model"
)

func validGenes() []float64 {
	return []float64{10, 8, 45, 0, 0, 0.1, 5}
}

func TestDecodeDeterministic(t *testing.T) {
	g := model.Genome{ID: "g1", Genes: validGenes()}

	first, err := Decode(g)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	second, err := Decode(g)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first != second {
		t.Fatalf("decode is not deterministic: %+v vs %+v", first, second)
	}
}

func TestDecodeProperties(t *testing.T) {
	geom, err := Decode(model.Genome{ID: "g1", Genes: validGenes()})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if geom.WingArea <= 0 {
		t.Fatalf("wing area must be positive, got %v", geom.WingArea)
	}
	if geom.AspectRatio <= 0 {
		t.Fatalf("aspect ratio must be positive, got %v", geom.AspectRatio)
	}
	if geom.Mass <= 0 {
		t.Fatalf("mass must be positive, got %v", geom.Mass)
	}
	if geom.PitchInertia <= 0 {
		t.Fatalf("pitch inertia must be positive, got %v", geom.PitchInertia)
	}
	if geom.Span != 0.10 {
		t.Fatalf("span: got %v want 0.10", geom.Span)
	}
}

func TestDecodeZeroChordIsDegenerate(t *testing.T) {
	genes := validGenes()
	genes[GeneChord] = 0

	_, err := Decode(model.Genome{ID: "flat", Genes: genes})
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("want ErrInvalidGeometry, got %v", err)
	}
}

func TestDecodeSelfIntersectingFolds(t *testing.T) {
	genes := validGenes()
	genes[GeneHinge0] = 85
	genes[GeneHinge0+1] = 85
	genes[GeneHinge0+2] = 85

	_, err := Decode(model.Genome{ID: "crumpled", Genes: genes})
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("want ErrInvalidGeometry, got %v", err)
	}
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	if _, err := Decode(model.Genome{ID: "short", Genes: []float64{1, 2}}); err == nil {
		t.Fatal("want error for wrong gene count")
	}
}

func TestNoseWeightMovesCenterOfMassForward(t *testing.T) {
	light := validGenes()
	light[GeneNoseWeight] = 0.0
	heavy := validGenes()
	heavy[GeneNoseWeight] = 0.4

	lightGeom, err := Decode(model.Genome{ID: "light", Genes: light})
	if err != nil {
		t.Fatalf("decode light: %v", err)
	}
	heavyGeom, err := Decode(model.Genome{ID: "heavy", Genes: heavy})
	if err != nil {
		t.Fatalf("decode heavy: %v", err)
	}
	if heavyGeom.CenterOfMass >= lightGeom.CenterOfMass {
		t.Fatalf("nose weight should pull center of mass toward the nose: %v vs %v", heavyGeom.CenterOfMass, lightGeom.CenterOfMass)
	}
	if heavyGeom.StaticMargin <= lightGeom.StaticMargin {
		t.Fatalf("nose weight should increase static margin: %v vs %v", heavyGeom.StaticMargin, lightGeom.StaticMargin)
	}
}

func TestSampleStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		g := Sample(rng, "s")
		if err := ValidateGenes(g.Genes); err != nil {
			t.Fatalf("sample %d out of range: %v", i, err)
		}
	}
}

func TestClampGenes(t *testing.T) {
	genes := []float64{1000, -5, 400, -20, 90, 2, -90}
	ClampGenes(genes)
	if err := ValidateGenes(genes); err != nil {
		t.Fatalf("clamped genes still invalid: %v", err)
	}
}
