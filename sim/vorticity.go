package sim

import (
	"github.com/go-gl/mathgl/mgl32"
)

// vorticityPass measures the curl of the nodal velocity field and feeds
// a confinement force back in, pushing rotation that the transfer cycle
// would otherwise smear out. Runs after body forces so OldVel still
// reflects the pre-force field.
func (s *Solver) vorticityPass() {
	if !s.Params.VorticityEnabled {
		return
	}
	s.Grid.EnableVorticity()
	s.pool.run(s.Grid.Cells(), s.computeCurl)
	s.pool.run(s.Grid.Cells(), s.applyConfinement)
}

// computeCurl evaluates curl(v) per node with central differences,
// one-sided on the grid faces.
func (s *Solver) computeCurl(start, end, _ int) {
	g := s.Grid
	inv := g.InvSpacing
	planeYZ := g.NY * g.NZ

	for idx := start; idx < end; idx++ {
		i := idx / planeYZ
		rem := idx % planeYZ
		j := rem / g.NZ
		k := rem % g.NZ

		vxLo, vxHi := s.velNeighbors(i, j, k, 0)
		vyLo, vyHi := s.velNeighbors(i, j, k, 1)
		vzLo, vzHi := s.velNeighbors(i, j, k, 2)
		center := g.Vel[idx]

		atX := [2]bool{i == 0, i == g.NX - 1}
		atY := [2]bool{j == 0, j == g.NY - 1}
		atZ := [2]bool{k == 0, k == g.NZ - 1}

		dVzDy := axisDeriv(vyLo[2], vyHi[2], center[2], atY[0], atY[1], inv)
		dVyDz := axisDeriv(vzLo[1], vzHi[1], center[1], atZ[0], atZ[1], inv)
		dVxDz := axisDeriv(vzLo[0], vzHi[0], center[0], atZ[0], atZ[1], inv)
		dVzDx := axisDeriv(vxLo[2], vxHi[2], center[2], atX[0], atX[1], inv)
		dVyDx := axisDeriv(vxLo[1], vxHi[1], center[1], atX[0], atX[1], inv)
		dVxDy := axisDeriv(vyLo[0], vyHi[0], center[0], atY[0], atY[1], inv)

		curl := mgl32.Vec3{dVzDy - dVyDz, dVxDz - dVzDx, dVyDx - dVxDy}
		g.Vort[idx] = curl
		g.VortMag[idx] = curl.Len()
	}
}

// velNeighbors returns the nodal velocities one step below and above
// along the given axis, clamped to the grid.
func (s *Solver) velNeighbors(i, j, k, axis int) (lo, hi mgl32.Vec3) {
	g := s.Grid
	li, lj, lk := i, j, k
	hi2i, hi2j, hi2k := i, j, k
	switch axis {
	case 0:
		li, hi2i = i-1, i+1
	case 1:
		lj, hi2j = j-1, j+1
	default:
		lk, hi2k = k-1, k+1
	}
	if g.InBounds(li, lj, lk) {
		lo = g.Vel[g.Index(li, lj, lk)]
	}
	if g.InBounds(hi2i, hi2j, hi2k) {
		hi = g.Vel[g.Index(hi2i, hi2j, hi2k)]
	}
	return lo, hi
}

// applyConfinement adds eps*h*(N x omega) to nodes carrying mass, where
// N is the normalized gradient of the curl magnitude. Nodes with a flat
// magnitude field are skipped; the force has no defined direction there.
func (s *Solver) applyConfinement(start, end, _ int) {
	g := s.Grid
	inv := g.InvSpacing
	planeYZ := g.NY * g.NZ
	scale := s.Params.VorticityEps * g.Spacing * s.dtEff

	for idx := start; idx < end; idx++ {
		if g.Mass[idx] <= massEpsilon {
			continue
		}
		i := idx / planeYZ
		rem := idx % planeYZ
		j := rem / g.NZ
		k := rem % g.NZ

		grad := mgl32.Vec3{
			axisDeriv(s.vortMagAt(i-1, j, k), s.vortMagAt(i+1, j, k), g.VortMag[idx], i == 0, i == g.NX-1, inv),
			axisDeriv(s.vortMagAt(i, j-1, k), s.vortMagAt(i, j+1, k), g.VortMag[idx], j == 0, j == g.NY-1, inv),
			axisDeriv(s.vortMagAt(i, j, k-1), s.vortMagAt(i, j, k+1), g.VortMag[idx], k == 0, k == g.NZ-1, inv),
		}
		gl := grad.Len()
		if gl <= 1e-6 {
			continue
		}
		n := grad.Mul(1 / gl)
		f := n.Cross(g.Vort[idx]).Mul(scale)
		g.Vel[idx] = g.Vel[idx].Add(f)
	}
}

func (s *Solver) vortMagAt(i, j, k int) float32 {
	if !s.Grid.InBounds(i, j, k) {
		return 0
	}
	return s.Grid.VortMag[s.Grid.Index(i, j, k)]
}
