// Package scene assembles the simulation collaborators (emitters, force
// fields, boundary) from config and runs the per-tick particle
// lifecycle outside the solver's transfer window.
package scene

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/slurry/boundary"
	"github.com/pthm-cable/slurry/config"
	"github.com/pthm-cable/slurry/emitter"
	"github.com/pthm-cable/slurry/forcefield"
	"github.com/pthm-cable/slurry/sim"
)

// LifecycleStats reports what one Lifecycle call did.
type LifecycleStats struct {
	Spawned  int
	Rejected int
	Expired  int
	Removed  int
}

// Scene owns the entity world holding sources, fields and the collider.
type Scene struct {
	world *ecs.World
	rng   *rand.Rand

	sourceMapper   *ecs.Map2[Transform, Source]
	fieldMapper    *ecs.Map2[Transform, Field]
	colliderMapper *ecs.Map1[Collider]

	sourceFilter   *ecs.Filter2[Transform, Source]
	fieldFilter    *ecs.Filter2[Transform, Field]
	colliderFilter *ecs.Filter1[Collider]

	reaper emitter.Reaper
	forces forcefield.Stack
}

// New builds the scene from config. The seed drives spawn placement and
// any seeded turbulence fields without an explicit seed of their own.
func New(cfg *config.Config, seed int64) *Scene {
	world := ecs.NewWorld()
	s := &Scene{
		world:          world,
		rng:            rand.New(rand.NewSource(seed)),
		sourceMapper:   ecs.NewMap2[Transform, Source](world),
		fieldMapper:    ecs.NewMap2[Transform, Field](world),
		colliderMapper: ecs.NewMap1[Collider](world),
		sourceFilter:   ecs.NewFilter2[Transform, Source](world),
		fieldFilter:    ecs.NewFilter2[Transform, Field](world),
		colliderFilter: ecs.NewFilter1[Collider](world),
	}

	for i := range cfg.Emitters {
		s.addEmitter(&cfg.Emitters[i], float32(cfg.Particles.Mass))
	}
	for i := range cfg.Fields {
		s.addField(&cfg.Fields[i], seed+int64(i))
	}
	s.addCollider(cfg)
	s.rebuildForces()
	return s
}

func (s *Scene) addEmitter(ec *config.EmitterConfig, mass float32) {
	mat := sim.ParseMaterial(ec.Material)
	var e emitter.Emitter
	switch ec.Kind {
	case "jet":
		e = &emitter.Jet{
			Velocity: vec3(ec.Velocity),
			Radius:   float32(ec.Radius),
			Jitter:   float32(ec.Jitter),
			Material: mat,
			Mass:     mass,
			Rate:     ec.Rate,
		}
	default:
		e = &emitter.Block{
			Half:     vec3(ec.Size),
			Velocity: vec3(ec.Velocity),
			Jitter:   float32(ec.Jitter),
			Material: mat,
			Mass:     mass,
			Count:    ec.Count,
			Rate:     ec.Rate,
		}
	}

	t := Transform{Pos: vec3(ec.Center)}
	src := Source{E: e, MaxAge: float32(ec.MaxAge)}
	s.sourceMapper.NewEntity(&t, &src)

	// The reaper runs store-wide; the longest configured lifetime wins.
	if src.MaxAge > s.reaper.MaxAge {
		s.reaper.MaxAge = src.MaxAge
	}
}

func (s *Scene) addField(fc *config.FieldConfig, fallbackSeed int64) {
	var f forcefield.Sampler
	switch fc.Kind {
	case "point":
		f = forcefield.Point{
			Center:   vec3(fc.Center),
			Strength: float32(fc.Strength),
			Radius:   float32(fc.Radius),
		}
	case "vortex":
		f = forcefield.Vortex{
			Center:   vec3(fc.Center),
			Axis:     vec3(fc.Direction),
			Strength: float32(fc.Strength),
			Radius:   float32(fc.Radius),
		}
	case "turbulence":
		seed := fc.Seed
		if seed == 0 {
			seed = fallbackSeed
		}
		f = forcefield.NewTurbulence(seed, float32(fc.Strength), float32(fc.Scale))
	default:
		f = forcefield.Uniform{Accel: vec3(fc.Direction).Mul(float32(fc.Strength))}
	}

	t := Transform{Pos: vec3(fc.Center)}
	s.fieldMapper.NewEntity(&t, &Field{S: f})
}

func (s *Scene) addCollider(cfg *config.Config) {
	b := boundary.New(
		boundary.ParseShape(cfg.Boundary.Shape),
		boundary.ParseMode(cfg.Boundary.Mode),
		mgl32.Vec3{cfg.Derived.DomainMax[0], cfg.Derived.DomainMax[1], cfg.Derived.DomainMax[2]},
		float32(cfg.Boundary.Margin)*cfg.Derived.Spacing32,
		float32(cfg.Boundary.Restitution),
		float32(cfg.Boundary.Radius)*cfg.Derived.Spacing32,
	)
	s.colliderMapper.NewEntity(&Collider{B: b})
}

func (s *Scene) rebuildForces() {
	s.forces = s.forces[:0]
	query := s.fieldFilter.Query()
	for query.Next() {
		_, f := query.Get()
		s.forces = append(s.forces, f.S)
	}
}

// Boundary returns the scene collider, nil if the scene has none.
func (s *Scene) Boundary() *boundary.Boundary {
	query := s.colliderFilter.Query()
	for query.Next() {
		c := query.Get()
		query.Close()
		return c.B
	}
	return nil
}

// Forces returns the force stack sampled by the grid solve.
func (s *Scene) Forces() forcefield.Stack {
	return s.forces
}

// Lifecycle runs emitters and the reaper, then compacts the store. Must
// be called between solver steps.
func (s *Scene) Lifecycle(store *sim.ParticleStore) LifecycleStats {
	var out LifecycleStats

	query := s.sourceFilter.Query()
	for query.Next() {
		t, src := query.Get()
		spawned, rejected := src.E.Emit(store, t.Pos, s.rng)
		src.Spawned += spawned
		src.Rejected += rejected
		out.Spawned += spawned
		out.Rejected += rejected
	}

	out.Expired = s.reaper.Apply(store)
	out.Removed = store.Compact()
	return out
}

func vec3(v [3]float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}
