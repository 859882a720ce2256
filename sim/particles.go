package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ParticleStore owns all per-particle simulation state in parallel arrays.
// Index i across every slice refers to the same particle. The store is
// capacity-bounded: Add rejects spawns beyond the cap rather than growing.
type ParticleStore struct {
	Pos []mgl32.Vec3
	Vel []mgl32.Vec3
	// C is the APIC affine velocity matrix (local velocity gradient).
	C []mgl32.Mat3
	// F is the deformation gradient, meaningful for Elastic/Snow/Sand.
	F []mgl32.Mat3
	// Strain is the material-specific scalar state: plastic volume ratio
	// for snow, accumulated plastic strain for sand, unused for fluids.
	Strain  []float32
	Mass    []float32
	Density []float32
	Age     []float32
	Mat     []Material
	Alive   []bool

	capacity int
}

// Particle is a spawn descriptor consumed by Add.
type Particle struct {
	Pos      mgl32.Vec3
	Vel      mgl32.Vec3
	Mass     float32
	Material Material
}

// NewParticleStore creates an empty store with the given capacity.
func NewParticleStore(capacity int) *ParticleStore {
	if capacity < 1 {
		capacity = 1
	}
	return &ParticleStore{
		Pos:      make([]mgl32.Vec3, 0, capacity),
		Vel:      make([]mgl32.Vec3, 0, capacity),
		C:        make([]mgl32.Mat3, 0, capacity),
		F:        make([]mgl32.Mat3, 0, capacity),
		Strain:   make([]float32, 0, capacity),
		Mass:     make([]float32, 0, capacity),
		Density:  make([]float32, 0, capacity),
		Age:      make([]float32, 0, capacity),
		Mat:      make([]Material, 0, capacity),
		Alive:    make([]bool, 0, capacity),
		capacity: capacity,
	}
}

// Len returns the current particle count.
func (s *ParticleStore) Len() int {
	return len(s.Pos)
}

// Capacity returns the maximum particle count.
func (s *ParticleStore) Capacity() int {
	return s.capacity
}

// Add appends a particle. Returns false (a no-op) when the store is full.
func (s *ParticleStore) Add(p Particle) bool {
	if len(s.Pos) >= s.capacity {
		return false
	}
	mat := p.Material
	if mat >= numMaterials {
		mat = MaterialFluid
	}
	strain := float32(0)
	if mat == MaterialSnow {
		strain = 1 // plastic volume ratio starts at identity
	}
	s.Pos = append(s.Pos, p.Pos)
	s.Vel = append(s.Vel, p.Vel)
	s.C = append(s.C, mgl32.Mat3{})
	s.F = append(s.F, mgl32.Ident3())
	s.Strain = append(s.Strain, strain)
	s.Mass = append(s.Mass, p.Mass)
	s.Density = append(s.Density, 0)
	s.Age = append(s.Age, 0)
	s.Mat = append(s.Mat, mat)
	s.Alive = append(s.Alive, true)
	return true
}

// Kill marks particle i for removal on the next Compact.
func (s *ParticleStore) Kill(i int) {
	s.Alive[i] = false
}

// Compact removes dead particles by swapping them to the tail.
// Particle order is not preserved. Returns the number removed.
func (s *ParticleStore) Compact() int {
	n := len(s.Pos)
	removed := 0
	for i := 0; i < n; {
		if s.Alive[i] {
			i++
			continue
		}
		last := n - 1
		s.Pos[i] = s.Pos[last]
		s.Vel[i] = s.Vel[last]
		s.C[i] = s.C[last]
		s.F[i] = s.F[last]
		s.Strain[i] = s.Strain[last]
		s.Mass[i] = s.Mass[last]
		s.Density[i] = s.Density[last]
		s.Age[i] = s.Age[last]
		s.Mat[i] = s.Mat[last]
		s.Alive[i] = s.Alive[last]
		n = last
		removed++
	}
	s.Pos = s.Pos[:n]
	s.Vel = s.Vel[:n]
	s.C = s.C[:n]
	s.F = s.F[:n]
	s.Strain = s.Strain[:n]
	s.Mass = s.Mass[:n]
	s.Density = s.Density[:n]
	s.Age = s.Age[:n]
	s.Mat = s.Mat[:n]
	s.Alive = s.Alive[:n]
	return removed
}

// TotalMass sums the mass of all particles.
func (s *ParticleStore) TotalMass() float64 {
	var sum float64
	for _, m := range s.Mass {
		sum += float64(m)
	}
	return sum
}

// TotalMomentum sums mass*velocity over all particles.
func (s *ParticleStore) TotalMomentum() (x, y, z float64) {
	for i, v := range s.Vel {
		m := float64(s.Mass[i])
		x += m * float64(v[0])
		y += m * float64(v[1])
		z += m * float64(v[2])
	}
	return x, y, z
}

// KineticEnergy sums 0.5*mass*|v|^2 over all particles.
func (s *ParticleStore) KineticEnergy() float64 {
	var sum float64
	for i, v := range s.Vel {
		sq := float64(v[0])*float64(v[0]) + float64(v[1])*float64(v[1]) + float64(v[2])*float64(v[2])
		sum += 0.5 * float64(s.Mass[i]) * sq
	}
	return sum
}

// MaxSpeed returns the largest particle speed. The single square root
// runs once per call, so it is exact rather than approximated; the CFL
// timestep bound and telemetry both consume this value.
func (s *ParticleStore) MaxSpeed() float32 {
	var maxSq float32
	for _, v := range s.Vel {
		sq := v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
		if sq > maxSq {
			maxSq = sq
		}
	}
	return float32(math.Sqrt(float64(maxSq)))
}

// Snapshot is the read-only per-tick view exposed to presentation consumers.
type Snapshot struct {
	Tick     int32
	Pos      []mgl32.Vec3
	Vel      []mgl32.Vec3
	Density  []float32
	Material []Material
}

// CopySnapshot fills dst with a copy of the presentation-facing state,
// reusing dst's buffers where possible.
func (s *ParticleStore) CopySnapshot(dst *Snapshot, tick int32) {
	dst.Tick = tick
	dst.Pos = append(dst.Pos[:0], s.Pos...)
	dst.Vel = append(dst.Vel[:0], s.Vel...)
	dst.Density = append(dst.Density[:0], s.Density...)
	dst.Material = append(dst.Material[:0], s.Mat...)
}
