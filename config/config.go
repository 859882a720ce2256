// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Grid      GridConfig      `yaml:"grid"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Vorticity VorticityConfig `yaml:"vorticity"`
	Particles ParticlesConfig `yaml:"particles"`
	Materials MaterialsConfig `yaml:"materials"`
	Boundary  BoundaryConfig  `yaml:"boundary"`
	Emitters  []EmitterConfig `yaml:"emitters"`
	Fields    []FieldConfig   `yaml:"fields"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Stream    StreamConfig    `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// GridConfig holds the background grid dimensions.
// The simulation domain spans [0, n*spacing) on each axis.
type GridConfig struct {
	NX      int     `yaml:"nx"`
	NY      int     `yaml:"ny"`
	NZ      int     `yaml:"nz"`
	Spacing float64 `yaml:"spacing"`
}

// PhysicsConfig holds timestep and transfer parameters.
type PhysicsConfig struct {
	DT         float64    `yaml:"dt"`
	Gravity    [3]float64 `yaml:"gravity"`
	FlipRatio  float64    `yaml:"flip_ratio"`  // 0 = pure PIC, 1 = pure FLIP
	CFL        float64    `yaml:"cfl"`         // max cells a particle may cross per step
	AdaptiveDT bool       `yaml:"adaptive_dt"` // shrink dt when velocities exceed the CFL bound
}

// VorticityConfig holds vorticity confinement parameters.
type VorticityConfig struct {
	Enabled bool    `yaml:"enabled"`
	Epsilon float64 `yaml:"epsilon"` // confinement force scale
}

// ParticlesConfig holds particle store parameters.
type ParticlesConfig struct {
	Capacity int     `yaml:"capacity"` // hard cap; spawns beyond this are rejected
	Mass     float64 `yaml:"mass"`     // rest mass per particle
}

// MaterialsConfig holds per-material constitutive constants.
// These are tunable; the defaults are calibrated for spacing=1, dt=0.1.
type MaterialsConfig struct {
	RestDensity      float64 `yaml:"rest_density"`       // target mass per cell volume for fluids
	FluidStiffness   float64 `yaml:"fluid_stiffness"`    // pressure scale for fluid
	Viscosity        float64 `yaml:"viscosity"`          // shear-rate damping for viscous material
	ViscousStiffness float64 `yaml:"viscous_stiffness"`  // pressure scale for viscous material
	ElasticMu        float64 `yaml:"elastic_mu"`         // corotated shear modulus
	ElasticLambda    float64 `yaml:"elastic_lambda"`     // corotated volume modulus
	SnowThetaC       float64 `yaml:"snow_theta_c"`       // critical compression before yield
	SnowThetaS       float64 `yaml:"snow_theta_s"`       // critical stretch before yield
	SnowHardening    float64 `yaml:"snow_hardening"`     // exponential hardening coefficient
	SandFriction     float64 `yaml:"sand_friction"`      // Drucker-Prager friction coefficient
	SandMu           float64 `yaml:"sand_mu"`            // sand shear modulus (log-strain)
	SandLambda       float64 `yaml:"sand_lambda"`        // sand volume modulus (log-strain)
	PlasmaStiffness  float64 `yaml:"plasma_stiffness"`   // plasma pressure scale
	PlasmaNoiseScale float64 `yaml:"plasma_noise_scale"` // spatial frequency of the turbulence field
	PlasmaStrength   float64 `yaml:"plasma_strength"`    // turbulence acceleration magnitude
}

// BoundaryConfig holds the default domain boundary.
type BoundaryConfig struct {
	Shape       string  `yaml:"shape"`       // box, sphere, tube
	Mode        string  `yaml:"mode"`        // reflect, clamp, wrap, kill
	Restitution float64 `yaml:"restitution"` // velocity retained along the normal on reflect
	Margin      float64 `yaml:"margin"`      // inset from the grid edge, in cells
	Radius      float64 `yaml:"radius"`      // sphere/tube radius (0 = fit to domain)
}

// EmitterConfig describes one particle source.
type EmitterConfig struct {
	Kind     string     `yaml:"kind"`     // block, jet
	Material string     `yaml:"material"` // fluid, elastic, sand, snow, viscous, rigid, plasma
	Center   [3]float64 `yaml:"center"`
	Size     [3]float64 `yaml:"size"`     // block half-extents
	Velocity [3]float64 `yaml:"velocity"` // initial velocity (jet: direction * speed)
	Jitter   float64    `yaml:"jitter"`
	Radius   float64    `yaml:"radius"`  // jet nozzle radius
	Rate     int        `yaml:"rate"`    // particles per tick (0 = burst once)
	Count    int        `yaml:"count"`   // burst size for rate=0 emitters
	MaxAge   float64    `yaml:"max_age"` // seconds before recycling (0 = immortal)
}

// FieldConfig describes one force field.
type FieldConfig struct {
	Kind      string     `yaml:"kind"` // uniform, point, vortex, turbulence
	Center    [3]float64 `yaml:"center"`
	Direction [3]float64 `yaml:"direction"`
	Strength  float64    `yaml:"strength"`
	Radius    float64    `yaml:"radius"`
	Scale     float64    `yaml:"scale"` // turbulence spatial frequency
	Seed      int64      `yaml:"seed"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds per stats window
	PerfWindow  int     `yaml:"perf_window"`  // ticks per perf window
}

// StreamConfig holds snapshot streaming parameters.
type StreamConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32      float32    // Physics.DT as float32
	Spacing32 float32    // Grid.Spacing as float32
	CellCount int        // NX*NY*NZ
	DomainMax [3]float32 // world-space upper corner of the grid
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Grid.NX < 8 {
		c.Grid.NX = 8
	}
	if c.Grid.NY < 8 {
		c.Grid.NY = 8
	}
	if c.Grid.NZ < 8 {
		c.Grid.NZ = 8
	}
	if c.Grid.Spacing <= 0 {
		c.Grid.Spacing = 1.0
	}
	if c.Physics.CFL <= 0 {
		c.Physics.CFL = 0.5
	}
	if c.Particles.Mass <= 0 {
		c.Particles.Mass = 1.0
	}

	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.Spacing32 = float32(c.Grid.Spacing)
	c.Derived.CellCount = c.Grid.NX * c.Grid.NY * c.Grid.NZ
	c.Derived.DomainMax = [3]float32{
		float32(float64(c.Grid.NX) * c.Grid.Spacing),
		float32(float64(c.Grid.NY) * c.Grid.Spacing),
		float32(float64(c.Grid.NZ) * c.Grid.Spacing),
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
