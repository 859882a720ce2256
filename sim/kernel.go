package sim

// Quadratic B-spline interpolation shared by both transfer directions.
// P2G and G2P must use identical weights or momentum is not conserved
// across the round trip.
//
// A particle overlaps a 3x3x3 node neighborhood anchored at cellBase. The
// per-axis offset fx lies in [0.5, 1.5) relative to the anchor node.

// cellBase returns the anchor node index and the fractional offset for one axis.
func cellBase(x, invSpacing float32) (int, float32) {
	gx := x * invSpacing
	base := int(floorf(gx - 0.5))
	return base, gx - float32(base)
}

// kernelWeights returns the three per-axis quadratic B-spline weights.
// The weights sum to 1 and reproduce linear functions exactly, which is
// what makes the single-particle transfer round trip exact.
func kernelWeights(fx float32) [3]float32 {
	return [3]float32{
		0.5 * (1.5 - fx) * (1.5 - fx),
		0.75 - (fx-1)*(fx-1),
		0.5 * (fx - 0.5) * (fx - 0.5),
	}
}

// affineDInv is the inverse inertia scale of the quadratic kernel:
// D = 0.25*h^2*I, so C = 4/h^2 * B.
func affineDInv(invSpacing float32) float32 {
	return 4 * invSpacing * invSpacing
}

func floorf(x float32) float32 {
	i := float32(int(x))
	if x < 0 && x != i {
		return i - 1
	}
	return i
}
