package sim

import (
	"github.com/go-gl/mathgl/mgl32"
)

// transferGridToParticles gathers the solved grid field back onto
// particles, blends PIC and FLIP, evolves material state, advects and
// resolves boundaries. All writes are to the particle's own slots, so
// the pass parallelizes without scratch grids.
func (s *Solver) transferGridToParticles() {
	s.pool.run(s.Store.Len(), s.gatherChunk)
}

func (s *Solver) gatherChunk(start, end, worker int) {
	g := s.Grid
	st := s.Store
	inv := g.InvSpacing
	h := g.Spacing
	dt := s.dtEff
	dInv := affineDInv(inv)
	flip := s.Params.FlipRatio
	mp := &s.Params.Materials
	ctr := &s.workerCounters[worker]

	// Particles whose full kernel footprint fits the grid stay inside
	// this region; the clamp also catches anything a force field threw
	// past the walls between boundary checks.
	posMin := 1.5 * h
	maxX := (float32(g.NX) - 2.5) * h
	maxY := (float32(g.NY) - 2.5) * h
	maxZ := (float32(g.NZ) - 2.5) * h

	for i := start; i < end; i++ {
		if !st.Alive[i] {
			continue
		}
		pos := st.Pos[i]
		bx, fx := cellBase(pos[0], inv)
		by, fy := cellBase(pos[1], inv)
		bz, fz := cellBase(pos[2], inv)
		wx := kernelWeights(fx)
		wy := kernelWeights(fy)
		wz := kernelWeights(fz)

		var vPIC, vOld mgl32.Vec3
		var b mgl32.Mat3
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
					idx := g.Index(ni, nj, nk)
					nv := g.Vel[idx]
					dpos := mgl32.Vec3{dpx, dpy, (float32(dk) - fz) * h}
					vPIC = vPIC.Add(nv.Mul(w))
					vOld = vOld.Add(g.OldVel[idx].Mul(w))
					b = b.Add(nv.OuterProd3(dpos).Mul(w))
				}
			}
		}

		c := b.Mul(dInv)
		mat := st.Mat[i]

		var v mgl32.Vec3
		if mat == MaterialRigid {
			// Rigid clumps ride the grid directly; FLIP deltas would
			// let internal motion accumulate.
			v = vPIC
		} else {
			vFLIP := st.Vel[i].Add(vPIC.Sub(vOld))
			v = vFLIP.Mul(flip).Add(vPIC.Mul(1 - flip))
		}

		if mat == MaterialPlasma {
			v = v.Add(s.plasmaForce(pos).Mul(dt))
		}

		newF, newStrain := evolveState(mat, mp, dt, c, st.F[i], st.Strain[i])
		newPos := pos.Add(v.Mul(dt))

		if !finiteVec(v) || !finiteVec(newPos) || !finiteMat(c) {
			// Contain the blowup to this particle: drop its velocity
			// and local gradient, keep it where it was.
			v = mgl32.Vec3{}
			c = mgl32.Mat3{}
			newF = mgl32.Ident3()
			newPos = pos
			ctr.nanResets++
		}

		if s.Boundary != nil {
			var alive bool
			newPos, v, alive = s.Boundary.Resolve(newPos, v)
			if !alive {
				st.Alive[i] = false
				ctr.boundaryKills++
			}
		}

		newPos[0] = clampf(newPos[0], posMin, maxX)
		newPos[1] = clampf(newPos[1], posMin, maxY)
		newPos[2] = clampf(newPos[2], posMin, maxZ)

		st.Pos[i] = newPos
		st.Vel[i] = v
		st.C[i] = c
		st.F[i] = newF
		st.Strain[i] = newStrain
		st.Age[i] += dt
	}
}

// plasmaForce samples a divergence-ignoring turbulent acceleration from
// three decorrelated simplex noise channels, drifting with sim time.
func (s *Solver) plasmaForce(pos mgl32.Vec3) mgl32.Vec3 {
	mp := &s.Params.Materials
	sc := float64(mp.PlasmaNoiseScale)
	x := float64(pos[0]) * sc
	y := float64(pos[1]) * sc
	z := float64(pos[2]) * sc
	t := float64(s.time) * 0.35
	return mgl32.Vec3{
		float32(s.noise.Eval3(x, y+t, z)),
		float32(s.noise.Eval3(x+31.7, y, z+t)),
		float32(s.noise.Eval3(x, y+57.3, z-t)),
	}.Mul(mp.PlasmaStrength)
}

func finiteVec(v mgl32.Vec3) bool {
	return isFinite(v[0]) && isFinite(v[1]) && isFinite(v[2])
}

func finiteMat(m mgl32.Mat3) bool {
	for i := 0; i < 9; i++ {
		if !isFinite(m[i]) {
			return false
		}
	}
	return true
}
