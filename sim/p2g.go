package sim

import (
	"github.com/go-gl/mathgl/mgl32"
)

// scatterPartial is one worker's private scatter target. Workers never
// write the shared grid directly; partials are summed in a parallel
// reduction over disjoint cell ranges, which keeps both phases race-free
// without atomics.
type scatterPartial struct {
	Mass []float32
	Mom  []mgl32.Vec3
}

func newScatterPartial(cells int) scatterPartial {
	return scatterPartial{
		Mass: make([]float32, cells),
		Mom:  make([]mgl32.Vec3, cells),
	}
}

// transferParticlesToGrid runs the two scatter phases: mass plus affine
// momentum first, then stress impulses once nodal densities exist. Grid
// velocities are normalized after each phase; OldVel snapshots the
// pre-stress, pre-force velocity field for the FLIP delta.
func (s *Solver) transferParticlesToGrid() {
	n := s.Store.Len()
	g := s.Grid

	s.pool.run(n, s.scatterMassMomentum)
	s.pool.run(g.Cells(), s.mergePartials)
	s.pool.run(g.Cells(), s.normalizeAndSnapshot)

	s.pool.run(n, s.gatherDensity)
	s.pool.run(n, s.scatterStress)
	s.pool.run(g.Cells(), s.mergePartialMomentum)
	s.pool.run(g.Cells(), s.renormalize)
}

// scatterMassMomentum accumulates w*m and w*m*(v + C*dpos) into the
// worker's partial grid. Contributions falling outside the grid are
// dropped.
func (s *Solver) scatterMassMomentum(start, end, worker int) {
	g := s.Grid
	part := &s.partials[worker]
	inv := g.InvSpacing
	h := g.Spacing

	for i := start; i < end; i++ {
		if !s.Store.Alive[i] {
			continue
		}
		pos := s.Store.Pos[i]
		vel := s.Store.Vel[i]
		m := s.Store.Mass[i]
		c := s.Store.C[i]

		bx, fx := cellBase(pos[0], inv)
		by, fy := cellBase(pos[1], inv)
		bz, fz := cellBase(pos[2], inv)
		wx := kernelWeights(fx)
		wy := kernelWeights(fy)
		wz := kernelWeights(fz)

		for di := 0; di < 3; di++ {
			ni := bx + di
			if ni < 0 || ni >= g.NX {
				continue
			}
			dpx := (float32(di) - fx) * h
			for dj := 0; dj < 3; dj++ {
				nj := by + dj
				if nj < 0 || nj >= g.NY {
					continue
				}
				dpy := (float32(dj) - fy) * h
				wij := wx[di] * wy[dj]
				for dk := 0; dk < 3; dk++ {
					nk := bz + dk
					if nk < 0 || nk >= g.NZ {
						continue
					}
					w := wij * wz[dk]
					dpos := mgl32.Vec3{dpx, dpy, (float32(dk) - fz) * h}
					idx := g.Index(ni, nj, nk)
					wm := w * m
					part.Mass[idx] += wm
					affine := c.Mul3x1(dpos)
					part.Mom[idx] = part.Mom[idx].Add(vel.Add(affine).Mul(wm))
				}
			}
		}
	}
}

// mergePartials folds every worker's mass and momentum into the shared
// grid for cells [start, end), zeroing the partials for the next phase.
func (s *Solver) mergePartials(start, end, _ int) {
	g := s.Grid
	for w := range s.partials {
		part := &s.partials[w]
		for i := start; i < end; i++ {
			if part.Mass[i] != 0 {
				g.Mass[i] += part.Mass[i]
				part.Mass[i] = 0
			}
			if part.Mom[i] != (mgl32.Vec3{}) {
				g.Mom[i] = g.Mom[i].Add(part.Mom[i])
				part.Mom[i] = mgl32.Vec3{}
			}
		}
	}
}

// mergePartialMomentum folds only momentum deltas (stress impulses).
func (s *Solver) mergePartialMomentum(start, end, _ int) {
	g := s.Grid
	for w := range s.partials {
		part := &s.partials[w]
		for i := start; i < end; i++ {
			if part.Mom[i] != (mgl32.Vec3{}) {
				g.Mom[i] = g.Mom[i].Add(part.Mom[i])
				part.Mom[i] = mgl32.Vec3{}
			}
		}
	}
}

// normalizeAndSnapshot derives nodal velocity from momentum and records
// it as the FLIP reference.
func (s *Solver) normalizeAndSnapshot(start, end, _ int) {
	g := s.Grid
	for i := start; i < end; i++ {
		if g.Mass[i] > massEpsilon {
			g.Vel[i] = g.Mom[i].Mul(1 / g.Mass[i])
		} else {
			g.Vel[i] = mgl32.Vec3{}
		}
		g.OldVel[i] = g.Vel[i]
	}
}

// renormalize re-derives nodal velocity after the stress impulses landed.
func (s *Solver) renormalize(start, end, _ int) {
	g := s.Grid
	for i := start; i < end; i++ {
		if g.Mass[i] > massEpsilon {
			g.Vel[i] = g.Mom[i].Mul(1 / g.Mass[i])
		}
	}
}

// gatherDensity interpolates scattered nodal mass back to each particle
// as mass per cell volume. Runs between the two scatter phases so the
// stress pass sees this tick's density.
func (s *Solver) gatherDensity(start, end, _ int) {
	g := s.Grid
	inv := g.InvSpacing
	cellVol := g.Spacing * g.Spacing * g.Spacing

	for i := start; i < end; i++ {
		if !s.Store.Alive[i] {
			continue
		}
		pos := s.Store.Pos[i]
		bx, fx := cellBase(pos[0], inv)
		by, fy := cellBase(pos[1], inv)
		bz, fz := cellBase(pos[2], inv)
		wx := kernelWeights(fx)
		wy := kernelWeights(fy)
		wz := kernelWeights(fz)

		var density float32
		for di := 0; di < 3; di++ {
			ni := bx + di
			if ni < 0 || ni >= g.NX {
				continue
			}
			for dj := 0; dj < 3; dj++ {
				nj := by + dj
				if nj < 0 || nj >= g.NY {
					continue
				}
				wij := wx[di] * wy[dj]
				for dk := 0; dk < 3; dk++ {
					nk := bz + dk
					if nk < 0 || nk >= g.NZ {
						continue
					}
					density += wij * wz[dk] * g.Mass[g.Index(ni, nj, nk)]
				}
			}
		}
		s.Store.Density[i] = density / cellVol
	}
}

// scatterStress converts each particle's Kirchhoff stress into nodal
// momentum impulses: dMom = -dt*vol0*dInv * w * tau * dpos.
func (s *Solver) scatterStress(start, end, worker int) {
	g := s.Grid
	part := &s.partials[worker]
	inv := g.InvSpacing
	h := g.Spacing
	dInv := affineDInv(inv)
	mp := &s.Params.Materials

	for i := start; i < end; i++ {
		if !s.Store.Alive[i] {
			continue
		}
		mat := s.Store.Mat[i]
		if mat == MaterialRigid {
			continue
		}
		tau := kirchhoffStress(mat, mp, s.Store.Density[i], s.Store.C[i], s.Store.F[i], s.Store.Strain[i])
		if tau == (mgl32.Mat3{}) {
			continue
		}
		vol0 := s.Store.Mass[i] / mp.RestDensity
		scaled := tau.Mul(-s.dtEff * vol0 * dInv)

		pos := s.Store.Pos[i]
		bx, fx := cellBase(pos[0], inv)
		by, fy := cellBase(pos[1], inv)
		bz, fz := cellBase(pos[2], inv)
		wx := kernelWeights(fx)
		wy := kernelWeights(fy)
		wz := kernelWeights(fz)

		for di := 0; di < 3; di++ {
			ni := bx + di
			if ni < 0 || ni >= g.NX {
				continue
			}
			dpx := (float32(di) - fx) * h
			for dj := 0; dj < 3; dj++ {
				nj := by + dj
				if nj < 0 || nj >= g.NY {
					continue
				}
				dpy := (float32(dj) - fy) * h
				wij := wx[di] * wy[dj]
				for dk := 0; dk < 3; dk++ {
					nk := bz + dk
					if nk < 0 || nk >= g.NZ {
						continue
					}
					w := wij * wz[dk]
					dpos := mgl32.Vec3{dpx, dpy, (float32(dk) - fz) * h}
					idx := g.Index(ni, nj, nk)
					part.Mom[idx] = part.Mom[idx].Add(scaled.Mul3x1(dpos).Mul(w))
				}
			}
		}
	}
}
