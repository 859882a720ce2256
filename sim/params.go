package sim

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Params is the immutable parameter block passed into every kernel pass.
// The orchestrator reads it once at the start of a tick; mutating it
// mid-tick is not supported.
type Params struct {
	DT        float32
	Gravity   mgl32.Vec3
	FlipRatio float32

	// CFL limits how many cells a particle may cross per step when the
	// adaptive timestep is enabled.
	CFL        float32
	AdaptiveDT bool

	VorticityEnabled bool
	VorticityEps     float32

	Materials MaterialParams
}

// MaterialParams holds the per-material constitutive constants.
type MaterialParams struct {
	RestDensity      float32
	FluidStiffness   float32
	Viscosity        float32
	ViscousStiffness float32
	ElasticMu        float32
	ElasticLambda    float32
	SnowThetaC       float32
	SnowThetaS       float32
	SnowHardening    float32
	SandFriction     float32
	SandMu           float32
	SandLambda       float32
	PlasmaStiffness  float32
	PlasmaNoiseScale float32
	PlasmaStrength   float32
}

// DefaultParams returns a parameter block usable without a config file,
// calibrated for spacing=1.
func DefaultParams() Params {
	return Params{
		DT:        0.1,
		Gravity:   mgl32.Vec3{0, -0.3, 0},
		FlipRatio: 0.95,
		CFL:       0.5,
		Materials: MaterialParams{
			RestDensity:      4.0,
			FluidStiffness:   12.0,
			Viscosity:        0.25,
			ViscousStiffness: 8.0,
			ElasticMu:        40.0,
			ElasticLambda:    60.0,
			SnowThetaC:       0.025,
			SnowThetaS:       0.0075,
			SnowHardening:    10.0,
			SandFriction:     0.45,
			SandMu:           35.0,
			SandLambda:       50.0,
			PlasmaStiffness:  6.0,
			PlasmaNoiseScale: 0.08,
			PlasmaStrength:   0.8,
		},
	}
}
