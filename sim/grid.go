package sim

import (
	"github.com/go-gl/mathgl/mgl32"
)

// massEpsilon guards the momentum/mass division; cells below this are inert.
const massEpsilon = 1e-7

// GridStore owns the background grid accumulators. Mass and momentum are
// scatter targets cleared every tick; Vel is derived from them, and OldVel
// keeps the post-transfer velocities for the FLIP delta.
type GridStore struct {
	NX, NY, NZ int
	Spacing    float32
	InvSpacing float32

	Mass   []float32
	Mom    []mgl32.Vec3
	Vel    []mgl32.Vec3
	OldVel []mgl32.Vec3

	// Vorticity buffers, allocated only when confinement is on.
	Vort    []mgl32.Vec3
	VortMag []float32
}

// NewGridStore allocates a dense grid of nx*ny*nz nodes.
func NewGridStore(nx, ny, nz int, spacing float32, vorticity bool) *GridStore {
	n := nx * ny * nz
	g := &GridStore{
		NX:         nx,
		NY:         ny,
		NZ:         nz,
		Spacing:    spacing,
		InvSpacing: 1 / spacing,
		Mass:       make([]float32, n),
		Mom:        make([]mgl32.Vec3, n),
		Vel:        make([]mgl32.Vec3, n),
		OldVel:     make([]mgl32.Vec3, n),
	}
	if vorticity {
		g.EnableVorticity()
	}
	return g
}

// EnableVorticity allocates the curl buffers if they are missing.
func (g *GridStore) EnableVorticity() {
	if g.Vort == nil {
		g.Vort = make([]mgl32.Vec3, len(g.Mass))
		g.VortMag = make([]float32, len(g.Mass))
	}
}

// Cells returns the node count.
func (g *GridStore) Cells() int {
	return len(g.Mass)
}

// Index maps node coordinates to the flat buffer index.
func (g *GridStore) Index(i, j, k int) int {
	return (i*g.NY+j)*g.NZ + k
}

// InBounds reports whether (i,j,k) is a valid node.
func (g *GridStore) InBounds(i, j, k int) bool {
	return i >= 0 && i < g.NX && j >= 0 && j < g.NY && k >= 0 && k < g.NZ
}

// NodePos returns the world-space position of node (i,j,k).
func (g *GridStore) NodePos(i, j, k int) mgl32.Vec3 {
	return mgl32.Vec3{float32(i) * g.Spacing, float32(j) * g.Spacing, float32(k) * g.Spacing}
}

// DomainMax returns the world-space upper corner of the grid.
func (g *GridStore) DomainMax() mgl32.Vec3 {
	return mgl32.Vec3{float32(g.NX) * g.Spacing, float32(g.NY) * g.Spacing, float32(g.NZ) * g.Spacing}
}

// ClearRange zeroes the scatter accumulators for nodes [start, end).
func (g *GridStore) ClearRange(start, end int) {
	var zero mgl32.Vec3
	for i := start; i < end; i++ {
		g.Mass[i] = 0
		g.Mom[i] = zero
		g.Vel[i] = zero
	}
}

// TotalMass sums scattered mass over all nodes.
func (g *GridStore) TotalMass() float64 {
	var sum float64
	for _, m := range g.Mass {
		sum += float64(m)
	}
	return sum
}

// TotalMomentum sums mass*velocity over all nodes with mass.
func (g *GridStore) TotalMomentum() (x, y, z float64) {
	for i, m := range g.Mass {
		if m <= massEpsilon {
			continue
		}
		x += float64(m) * float64(g.Vel[i][0])
		y += float64(m) * float64(g.Vel[i][1])
		z += float64(m) * float64(g.Vel[i][2])
	}
	return x, y, z
}

// MaxVortMag returns the peak curl magnitude, zero when vorticity is off.
func (g *GridStore) MaxVortMag() float32 {
	var peak float32
	for _, m := range g.VortMag {
		if m > peak {
			peak = m
		}
	}
	return peak
}
