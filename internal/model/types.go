package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Genome is a fixed-length vector of fold-design parameters. The meaning
// and valid range of each gene is owned by the geometry package.
type Genome struct {
	VersionedRecord
	ID    string    `json:"id"`
	Genes []float64 `json:"genes"`
}

// CloneGenome returns a deep copy of g under a new ID.
func CloneGenome(g Genome, id string) Genome {
	out := g
	out.ID = id
	out.Genes = append([]float64(nil), g.Genes...)
	return out
}

// Geometry holds the physical properties decoded from a genome. All values
// are SI units. Instances are read-only snapshots, recomputed on demand.
type Geometry struct {
	Span             float64 `json:"span"`
	Chord            float64 `json:"chord"`
	WingArea         float64 `json:"wing_area"`
	AspectRatio      float64 `json:"aspect_ratio"`
	Mass             float64 `json:"mass"`
	NoseWeight       float64 `json:"nose_weight"`
	CenterOfMass     float64 `json:"center_of_mass"`
	CenterOfPressure float64 `json:"center_of_pressure"`
	StaticMargin     float64 `json:"static_margin"`
	PitchInertia     float64 `json:"pitch_inertia"`
	Dihedral         float64 `json:"dihedral"`
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FlightCondition describes one launch scenario. Immutable once built.
type FlightCondition struct {
	Name         string  `json:"name"`
	Wind         Vec3    `json:"wind"`
	AirDensity   float64 `json:"air_density"`
	LaunchSpeed  float64 `json:"launch_speed"`
	LaunchAngle  float64 `json:"launch_angle"`
	LaunchHeight float64 `json:"launch_height"`
}

// TrajectorySample is one integration step of a simulated flight.
type TrajectorySample struct {
	Time          float64 `json:"t"`
	Position      Vec3    `json:"position"`
	Velocity      Vec3    `json:"velocity"`
	AngleOfAttack float64 `json:"angle_of_attack"`
	Lift          float64 `json:"lift"`
	Drag          float64 `json:"drag"`
}

// FlightResult is the outcome of simulating one (geometry, condition) pair.
type FlightResult struct {
	Samples      []TrajectorySample `json:"samples,omitempty"`
	Range        float64            `json:"range"`
	Duration     float64            `json:"duration"`
	MaxAltitude  float64            `json:"max_altitude"`
	AoAVariance  float64            `json:"aoa_variance"`
	LandingSpeed float64            `json:"landing_speed"`
	Unstable     bool               `json:"unstable"`
	TimedOut     bool               `json:"timed_out"`
}

// ConditionMetrics are the per-condition scores extracted from a flight.
type ConditionMetrics struct {
	Range          float64 `json:"range"`
	Duration       float64 `json:"duration"`
	Stability      float64 `json:"stability"`
	LandingQuality float64 `json:"landing_quality"`
	Unstable       bool    `json:"unstable"`
}

// FitnessResult aggregates per-condition metrics into one scalar score.
type FitnessResult struct {
	Fitness     float64                     `json:"fitness"`
	ByCondition map[string]ConditionMetrics `json:"by_condition,omitempty"`
	Degenerate  bool                        `json:"degenerate"`
}

// Population is a checkpointable snapshot: genome IDs for one generation.
type Population struct {
	VersionedRecord
	ID         string   `json:"id"`
	Generation int      `json:"generation"`
	GenomeIDs  []string `json:"genome_ids"`
}

// GenerationSummary is the per-generation history triple plus bookkeeping.
type GenerationSummary struct {
	Generation  int     `json:"generation"`
	Best        float64 `json:"best"`
	Mean        float64 `json:"mean"`
	Worst       float64 `json:"worst"`
	Evaluations int     `json:"evaluations"`
}

type TopGenomeRecord struct {
	Rank    int     `json:"rank"`
	Fitness float64 `json:"fitness"`
	Genome  Genome  `json:"genome"`
}

// TrajectoryRecord pairs a condition name with the best genome's flight.
type TrajectoryRecord struct {
	Condition string             `json:"condition"`
	Samples   []TrajectorySample `json:"samples"`
}

// ProfileSummary tracks the best observed fitness per condition profile.
type ProfileSummary struct {
	VersionedRecord
	Name        string  `json:"name"`
	Description string  `json:"description"`
	BestFitness float64 `json:"best_fitness"`
}
