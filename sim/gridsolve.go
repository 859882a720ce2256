package sim

// solveGrid applies body forces to nodal velocities and enforces the
// wall condition on the outer layers of the grid.
func (s *Solver) solveGrid() {
	s.pool.run(s.Grid.Cells(), s.applyNodeForces)
}

// applyNodeForces integrates gravity plus sampled field accelerations on
// every node carrying mass. Velocity components pointing out of the
// domain are zeroed within the wall margin so scattered mass cannot
// drift off the grid between transfers.
func (s *Solver) applyNodeForces(start, end, _ int) {
	g := s.Grid
	dt := s.dtEff
	gravity := s.Params.Gravity.Mul(dt)
	planeYZ := g.NY * g.NZ
	margin := s.gridMargin

	for idx := start; idx < end; idx++ {
		if g.Mass[idx] <= massEpsilon {
			continue
		}
		i := idx / planeYZ
		rem := idx % planeYZ
		j := rem / g.NZ
		k := rem % g.NZ

		v := g.Vel[idx].Add(gravity)
		if s.Forces != nil {
			accel := s.Forces.Sample(g.NodePos(i, j, k), s.time)
			v = v.Add(accel.Mul(dt))
		}

		if i < margin && v[0] < 0 {
			v[0] = 0
		}
		if i >= g.NX-margin && v[0] > 0 {
			v[0] = 0
		}
		if j < margin && v[1] < 0 {
			v[1] = 0
		}
		if j >= g.NY-margin && v[1] > 0 {
			v[1] = 0
		}
		if k < margin && v[2] < 0 {
			v[2] = 0
		}
		if k >= g.NZ-margin && v[2] > 0 {
			v[2] = 0
		}
		g.Vel[idx] = v
	}
}

// axisDeriv computes d(value)/d(axis) at a node with central differences,
// falling back to one-sided stencils on the grid faces.
func axisDeriv(lo, hi, center float32, atLo, atHi bool, invSpacing float32) float32 {
	switch {
	case atLo:
		return (hi - center) * invSpacing
	case atHi:
		return (center - lo) * invSpacing
	default:
		return (hi - lo) * 0.5 * invSpacing
	}
}
