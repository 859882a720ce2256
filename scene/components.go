package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/slurry/boundary"
	"github.com/pthm-cable/slurry/emitter"
	"github.com/pthm-cable/slurry/forcefield"
)

// Transform is the world-space anchor of a scene entity.
type Transform struct {
	Pos mgl32.Vec3
}

// Source wraps a particle emitter and its lifetime counters.
type Source struct {
	E        emitter.Emitter
	MaxAge   float32
	Spawned  int
	Rejected int
}

// Field wraps one force field sampler.
type Field struct {
	S forcefield.Sampler
}

// Collider wraps the domain boundary. One per scene.
type Collider struct {
	B *boundary.Boundary
}
