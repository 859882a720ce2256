// Package emitter spawns particles into a capacity-bounded store.
// Spawning happens between solver steps, never during one.
package emitter

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/slurry/sim"
)

// Emitter produces particles around an origin supplied by the caller
// (the scene transform). Emit reports how many spawned and how many the
// store rejected at capacity; rejection is silent beyond the count.
type Emitter interface {
	Emit(store *sim.ParticleStore, origin mgl32.Vec3, rng *rand.Rand) (spawned, rejected int)
}

// Block fills an axis-aligned box around the origin with particles in a
// single burst on first Emit, or Rate particles per tick when Rate > 0.
type Block struct {
	Half     mgl32.Vec3
	Velocity mgl32.Vec3
	Jitter   float32
	Material sim.Material
	Mass     float32
	Count    int
	Rate     int

	burstDone bool
}

func (b *Block) Emit(store *sim.ParticleStore, origin mgl32.Vec3, rng *rand.Rand) (int, int) {
	n := b.Rate
	if b.Rate == 0 {
		if b.burstDone {
			return 0, 0
		}
		b.burstDone = true
		n = b.Count
	}

	spawned, rejected := 0, 0
	for i := 0; i < n; i++ {
		pos := mgl32.Vec3{
			origin[0] + (rng.Float32()*2-1)*b.Half[0],
			origin[1] + (rng.Float32()*2-1)*b.Half[1],
			origin[2] + (rng.Float32()*2-1)*b.Half[2],
		}
		vel := b.Velocity.Add(randJitter(rng, b.Jitter))
		if store.Add(sim.Particle{Pos: pos, Vel: vel, Mass: b.Mass, Material: b.Material}) {
			spawned++
		} else {
			rejected++
		}
	}
	return spawned, rejected
}

// Jet streams Rate particles per tick from a nozzle disc at the origin,
// perpendicular to the flow direction.
type Jet struct {
	Velocity mgl32.Vec3
	Radius   float32
	Jitter   float32
	Material sim.Material
	Mass     float32
	Rate     int
}

func (j *Jet) Emit(store *sim.ParticleStore, origin mgl32.Vec3, rng *rand.Rand) (int, int) {
	dir := j.Velocity
	if dir == (mgl32.Vec3{}) {
		dir = mgl32.Vec3{0, -1, 0}
	}
	u, v := discBasis(dir)

	spawned, rejected := 0, 0
	for i := 0; i < j.Rate; i++ {
		// Rejection-sample the unit disc.
		var dx, dy float32
		for {
			dx = rng.Float32()*2 - 1
			dy = rng.Float32()*2 - 1
			if dx*dx+dy*dy <= 1 {
				break
			}
		}
		pos := origin.Add(u.Mul(dx * j.Radius)).Add(v.Mul(dy * j.Radius))
		vel := j.Velocity.Add(randJitter(rng, j.Jitter))
		if store.Add(sim.Particle{Pos: pos, Vel: vel, Mass: j.Mass, Material: j.Material}) {
			spawned++
		} else {
			rejected++
		}
	}
	return spawned, rejected
}

// Reaper marks expired particles for removal. MaxAge <= 0 disables it.
type Reaper struct {
	MaxAge float32
}

// Apply kills particles past MaxAge and returns how many it marked.
// The caller compacts the store afterwards.
func (r Reaper) Apply(store *sim.ParticleStore) int {
	if r.MaxAge <= 0 {
		return 0
	}
	killed := 0
	for i := 0; i < store.Len(); i++ {
		if store.Alive[i] && store.Age[i] > r.MaxAge {
			store.Kill(i)
			killed++
		}
	}
	return killed
}

func randJitter(rng *rand.Rand, amount float32) mgl32.Vec3 {
	if amount <= 0 {
		return mgl32.Vec3{}
	}
	return mgl32.Vec3{
		(rng.Float32()*2 - 1) * amount,
		(rng.Float32()*2 - 1) * amount,
		(rng.Float32()*2 - 1) * amount,
	}
}

// discBasis returns two unit vectors spanning the plane normal to dir.
func discBasis(dir mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	n := dir.Normalize()
	ref := mgl32.Vec3{1, 0, 0}
	if absf(n[0]) > 0.9 {
		ref = mgl32.Vec3{0, 1, 0}
	}
	u := n.Cross(ref).Normalize()
	return u, n.Cross(u)
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
