package sim

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/mat"
)

// Material selects the constitutive branch for a particle.
type Material uint8

const (
	MaterialFluid Material = iota
	MaterialElastic
	MaterialSand
	MaterialSnow
	MaterialViscous
	MaterialRigid
	MaterialPlasma

	numMaterials
)

// ParseMaterial maps a config string to a material. Unknown names map to
// fluid rather than erroring.
func ParseMaterial(s string) Material {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "elastic":
		return MaterialElastic
	case "sand":
		return MaterialSand
	case "snow":
		return MaterialSnow
	case "viscous":
		return MaterialViscous
	case "rigid":
		return MaterialRigid
	case "plasma":
		return MaterialPlasma
	default:
		return MaterialFluid
	}
}

// String returns the config-facing name of the material.
func (m Material) String() string {
	switch m {
	case MaterialElastic:
		return "elastic"
	case MaterialSand:
		return "sand"
	case MaterialSnow:
		return "snow"
	case MaterialViscous:
		return "viscous"
	case MaterialRigid:
		return "rigid"
	case MaterialPlasma:
		return "plasma"
	default:
		return "fluid"
	}
}

// kirchhoffStress returns the Kirchhoff stress tensor for one particle.
// The P2G stress pass scatters this scaled by -dt*vol*dInv, so negative
// diagonal entries push neighbors apart. Materials with a value outside
// the known range take the fluid branch.
func kirchhoffStress(m Material, mp *MaterialParams, density float32, C, F mgl32.Mat3, strain float32) mgl32.Mat3 {
	switch m {
	case MaterialElastic:
		return corotatedStress(F, mp.ElasticMu, mp.ElasticLambda)
	case MaterialSnow:
		// Exponential hardening: compressed snow stiffens.
		h := float32(math.Exp(float64(mp.SnowHardening * (1 - strain))))
		h = clampf(h, 0.1, 50)
		return corotatedStress(F, mp.SnowMuHardened(h), mp.SnowLambdaHardened(h))
	case MaterialSand:
		return henckyStress(F, mp.SandMu, mp.SandLambda)
	case MaterialViscous:
		p := pressureStress(density, mp.RestDensity, mp.ViscousStiffness)
		shear := C.Add(C.Transpose()).Mul(mp.Viscosity)
		return p.Add(shear)
	case MaterialRigid:
		return mgl32.Mat3{}
	case MaterialPlasma:
		return pressureStress(density, mp.RestDensity, mp.PlasmaStiffness)
	default:
		return pressureStress(density, mp.RestDensity, mp.FluidStiffness)
	}
}

// SnowMuHardened scales the elastic shear modulus by the hardening factor.
func (mp *MaterialParams) SnowMuHardened(h float32) float32 {
	return mp.ElasticMu * h
}

// SnowLambdaHardened scales the elastic volume modulus by the hardening factor.
func (mp *MaterialParams) SnowLambdaHardened(h float32) float32 {
	return mp.ElasticLambda * h
}

// pressureStress is the isotropic equation of state shared by the fluid-like
// materials: tau = k*(J-1)*I with J = restDensity/density, clamped so an
// under-dense free surface carries no stress (no artificial cohesion).
func pressureStress(density, restDensity, stiffness float32) mgl32.Mat3 {
	if density <= massEpsilon {
		return mgl32.Mat3{}
	}
	j := restDensity / density
	if j > 1 {
		j = 1
	}
	if j < 0.2 {
		j = 0.2
	}
	p := stiffness * (j - 1)
	var tau mgl32.Mat3
	tau[0] = p
	tau[4] = p
	tau[8] = p
	return tau
}

// corotatedStress is the fixed corotated model:
// tau = 2*mu*(F-R)*F^T + lambda*(J-1)*J*I.
func corotatedStress(F mgl32.Mat3, mu, lambda float32) mgl32.Mat3 {
	r := polarRotation(F)
	j := F.Det()
	dev := F.Sub(r).Mul(2 * mu).Mul3(F.Transpose())
	vol := lambda * (j - 1) * j
	dev[0] += vol
	dev[4] += vol
	dev[8] += vol
	return dev
}

// henckyStress is the St. Venant-Kirchhoff model on the logarithmic strain:
// tau = U * diag(2*mu*eps + lambda*tr(eps)) * U^T.
func henckyStress(F mgl32.Mat3, mu, lambda float32) mgl32.Mat3 {
	u, s, _ := svd3(F)
	var eps [3]float32
	var tr float32
	for i := 0; i < 3; i++ {
		sv := s[i]
		if sv < 1e-4 {
			sv = 1e-4
		}
		eps[i] = float32(math.Log(float64(sv)))
		tr += eps[i]
	}
	var diag mgl32.Mat3
	diag[0] = 2*mu*eps[0] + lambda*tr
	diag[4] = 2*mu*eps[1] + lambda*tr
	diag[8] = 2*mu*eps[2] + lambda*tr
	return u.Mul3(diag).Mul3(u.Transpose())
}

// evolveState advances the material-internal state by one step given the
// velocity gradient C. Plastic return mapping happens here; the stress pass
// only reads state.
func evolveState(m Material, mp *MaterialParams, dt float32, C, F mgl32.Mat3, strain float32) (mgl32.Mat3, float32) {
	switch m {
	case MaterialElastic:
		return applyVelocityGradient(F, C, dt), strain
	case MaterialSnow:
		return evolveSnow(mp, applyVelocityGradient(F, C, dt), strain)
	case MaterialSand:
		return evolveSand(mp, applyVelocityGradient(F, C, dt), strain)
	default:
		// Fluids, plasma and rigid carry no deformation gradient.
		return F, strain
	}
}

// applyVelocityGradient computes F' = (I + dt*C) * F.
func applyVelocityGradient(F, C mgl32.Mat3, dt float32) mgl32.Mat3 {
	step := mgl32.Ident3().Add(C.Mul(dt))
	return step.Mul3(F)
}

// evolveSnow clamps the singular values of F to the elastic region
// [1-thetaC, 1+thetaS]; the clipped volume change moves into the plastic
// ratio that drives hardening. Irreversible by construction.
func evolveSnow(mp *MaterialParams, F mgl32.Mat3, jp float32) (mgl32.Mat3, float32) {
	u, s, v := svd3(F)
	lo := 1 - mp.SnowThetaC
	hi := 1 + mp.SnowThetaS
	var clamped [3]float32
	detBefore := float32(1)
	detAfter := float32(1)
	for i := 0; i < 3; i++ {
		detBefore *= s[i]
		clamped[i] = clampf(s[i], lo, hi)
		detAfter *= clamped[i]
	}
	if detAfter > massEpsilon {
		jp = clampf(jp*detBefore/detAfter, 0.1, 10)
	}
	return composeSVD(u, clamped, v), jp
}

// evolveSand projects the logarithmic strain back onto the Drucker-Prager
// yield surface. Volumetric expansion is fully plastic (cohesionless sand
// does not resist being pulled apart); shear beyond the friction cone is
// returned to the cone. The accumulated plastic strain is irreversible.
func evolveSand(mp *MaterialParams, F mgl32.Mat3, acc float32) (mgl32.Mat3, float32) {
	u, s, v := svd3(F)
	var eps [3]float32
	var tr float32
	for i := 0; i < 3; i++ {
		sv := s[i]
		if sv < 1e-4 {
			sv = 1e-4
		}
		eps[i] = float32(math.Log(float64(sv)))
		tr += eps[i]
	}

	if tr >= 0 {
		// Expansion: project to the cone tip.
		var devNorm float32
		for i := 0; i < 3; i++ {
			d := eps[i] - tr/3
			devNorm += d * d
		}
		acc += fastSqrt(devNorm) + tr
		return composeSVD(u, [3]float32{1, 1, 1}, v), acc
	}

	var dev [3]float32
	var devNorm float32
	for i := 0; i < 3; i++ {
		dev[i] = eps[i] - tr/3
		devNorm += dev[i] * dev[i]
	}
	devNorm = fastSqrt(devNorm)

	alpha := mp.SandFriction * (3*mp.SandLambda + 2*mp.SandMu) / (2 * mp.SandMu)
	dg := devNorm + alpha*tr
	if dg <= 0 || devNorm <= 1e-6 {
		return composeSVD(u, s, v), acc
	}

	var hatS [3]float32
	for i := 0; i < 3; i++ {
		e := eps[i] - dg*dev[i]/devNorm
		hatS[i] = float32(math.Exp(float64(e)))
	}
	return composeSVD(u, hatS, v), acc + dg
}

// polarRotation extracts the rotation factor of F via SVD: R = U*V^T.
func polarRotation(F mgl32.Mat3) mgl32.Mat3 {
	u, _, v := svd3(F)
	return u.Mul3(v.Transpose())
}

// composeSVD rebuilds U * diag(s) * V^T.
func composeSVD(u mgl32.Mat3, s [3]float32, v mgl32.Mat3) mgl32.Mat3 {
	var d mgl32.Mat3
	d[0] = s[0]
	d[4] = s[1]
	d[8] = s[2]
	return u.Mul3(d).Mul3(v.Transpose())
}

// svd3 decomposes a 3x3 matrix as U*diag(s)*V^T with U and V proper
// rotations. Reflections are pushed into the sign of the last singular
// value so the polar rotation never mirrors.
func svd3(a mgl32.Mat3) (mgl32.Mat3, [3]float32, mgl32.Mat3) {
	var d mat.Dense
	d.ReuseAs(3, 3)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			d.Set(r, c, float64(a.At(r, c)))
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(&d, mat.SVDFull); !ok {
		// Degenerate input: fall back to identity factors.
		return mgl32.Ident3(), [3]float32{1, 1, 1}, mgl32.Ident3()
	}

	var ud, vd mat.Dense
	svd.UTo(&ud)
	svd.VTo(&vd)
	vals := svd.Values(nil)

	u := denseToMat3(&ud)
	v := denseToMat3(&vd)
	s := [3]float32{float32(vals[0]), float32(vals[1]), float32(vals[2])}

	if u.Det() < 0 {
		u = flipLastColumn(u)
		s[2] = -s[2]
	}
	if v.Det() < 0 {
		v = flipLastColumn(v)
		s[2] = -s[2]
	}
	return u, s, v
}

func denseToMat3(d *mat.Dense) mgl32.Mat3 {
	var m mgl32.Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, float32(d.At(r, c)))
		}
	}
	return m
}

func flipLastColumn(m mgl32.Mat3) mgl32.Mat3 {
	m.Set(0, 2, -m.At(0, 2))
	m.Set(1, 2, -m.At(1, 2))
	m.Set(2, 2, -m.At(2, 2))
	return m
}
