package sim

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func matApproxEqual(a, b mgl32.Mat3, tol float32) bool {
	for i := 0; i < 9; i++ {
		if absf(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestParseMaterial(t *testing.T) {
	tests := []struct {
		in   string
		want Material
	}{
		{"fluid", MaterialFluid},
		{"elastic", MaterialElastic},
		{"sand", MaterialSand},
		{"snow", MaterialSnow},
		{"viscous", MaterialViscous},
		{"rigid", MaterialRigid},
		{"plasma", MaterialPlasma},
		{" Snow ", MaterialSnow},
		{"lava", MaterialFluid},
		{"", MaterialFluid},
	}
	for _, tt := range tests {
		if got := ParseMaterial(tt.in); got != tt.want {
			t.Errorf("ParseMaterial(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMaterialStringRoundTrip(t *testing.T) {
	for m := MaterialFluid; m < numMaterials; m++ {
		if got := ParseMaterial(m.String()); got != m {
			t.Errorf("round trip %v -> %q -> %v", m, m.String(), got)
		}
	}
}

func TestPressureStressFreeSurface(t *testing.T) {
	// Under-dense particles carry no stress: an isolated particle must
	// not pull neighbors toward itself.
	tau := pressureStress(1.0, 4.0, 12.0)
	if tau != (mgl32.Mat3{}) {
		t.Errorf("under-dense stress = %v, want zero", tau)
	}
	if tau := pressureStress(0, 4.0, 12.0); tau != (mgl32.Mat3{}) {
		t.Errorf("zero-density stress = %v, want zero", tau)
	}
}

func TestPressureStressCompression(t *testing.T) {
	tau := pressureStress(8.0, 4.0, 12.0)
	// J = 0.5, p = 12*(0.5-1) = -6 on the diagonal.
	if absf(tau[0]+6) > 1e-4 || absf(tau[4]+6) > 1e-4 || absf(tau[8]+6) > 1e-4 {
		t.Errorf("compressed stress diagonal = (%v,%v,%v), want -6", tau[0], tau[4], tau[8])
	}
	if tau[1] != 0 || tau[3] != 0 {
		t.Error("pressure stress must be diagonal")
	}
}

func TestCorotatedStressAtRest(t *testing.T) {
	tau := corotatedStress(mgl32.Ident3(), 40, 60)
	if !matApproxEqual(tau, mgl32.Mat3{}, 1e-4) {
		t.Errorf("stress at identity = %v, want zero", tau)
	}
}

func TestCorotatedStressPureRotation(t *testing.T) {
	// Rigid rotation stores no elastic energy.
	r := mgl32.Rotate3DZ(0.7)
	tau := corotatedStress(r, 40, 60)
	if !matApproxEqual(tau, mgl32.Mat3{}, 1e-3) {
		t.Errorf("stress under pure rotation = %v, want zero", tau)
	}
}

func TestCorotatedStressStretchResists(t *testing.T) {
	f := mgl32.Ident3()
	f[0] = 1.1 // 10% stretch along x
	tau := corotatedStress(f, 40, 60)
	if tau[0] <= 0 {
		t.Errorf("stretched stress tau_xx = %v, want positive (restoring)", tau[0])
	}
}

func TestPolarRotation(t *testing.T) {
	r := mgl32.Rotate3DY(1.1)
	scale := mgl32.Mat3{}
	scale[0], scale[4], scale[8] = 1.4, 0.8, 1.1
	f := r.Mul3(scale)

	got := polarRotation(f)
	if !matApproxEqual(got, r, 1e-3) {
		t.Errorf("polar rotation = %v, want %v", got, r)
	}
	if absf(got.Det()-1) > 1e-3 {
		t.Errorf("rotation det = %v, want 1", got.Det())
	}
}

func TestSVD3Reconstruction(t *testing.T) {
	a := mgl32.Mat3{0.9, 0.2, -0.1, 0.05, 1.2, 0.3, -0.2, 0.1, 0.85}
	u, s, v := svd3(a)

	if u.Det() < 0 || v.Det() < 0 {
		t.Fatalf("factors must be proper rotations, det(u)=%v det(v)=%v", u.Det(), v.Det())
	}
	back := composeSVD(u, s, v)
	if !matApproxEqual(back, a, 1e-3) {
		t.Errorf("reconstruction = %v, want %v", back, a)
	}
}

func TestEvolveSnowClampsStretch(t *testing.T) {
	mp := DefaultParams().Materials
	f := mgl32.Ident3()
	f[0] = 1.2 // beyond the stretch limit

	newF, jp := evolveSnow(&mp, f, 1)
	_, s, _ := svd3(newF)
	limit := 1 + mp.SnowThetaS
	for i, sv := range s {
		if sv > limit+1e-4 {
			t.Errorf("singular value %d = %v exceeds %v after clamp", i, sv, limit)
		}
	}
	// The clipped stretch moved into the plastic ratio.
	if jp <= 1 {
		t.Errorf("plastic ratio = %v, want > 1 after stretch clamp", jp)
	}
}

func TestEvolveSnowElasticRegionUntouched(t *testing.T) {
	mp := DefaultParams().Materials
	f := mgl32.Ident3()
	f[0] = 1.002 // inside the elastic region

	newF, jp := evolveSnow(&mp, f, 1)
	if !matApproxEqual(newF, f, 1e-4) {
		t.Errorf("elastic-region F changed: %v -> %v", f, newF)
	}
	if absf(jp-1) > 1e-4 {
		t.Errorf("plastic ratio = %v, want 1", jp)
	}
}

func TestEvolveSandExpansionFullyPlastic(t *testing.T) {
	mp := DefaultParams().Materials
	f := mgl32.Ident3()
	f[0], f[4], f[8] = 1.3, 1.2, 1.1

	newF, acc := evolveSand(&mp, f, 0)
	if !matApproxEqual(newF, mgl32.Ident3(), 1e-3) {
		t.Errorf("expanded sand F = %v, want identity", newF)
	}
	if acc <= 0 {
		t.Errorf("accumulated plastic strain = %v, want positive", acc)
	}
}

func TestEvolveSandSmallShearElastic(t *testing.T) {
	mp := DefaultParams().Materials
	// Slight compression with tiny shear stays inside the friction cone.
	f := mgl32.Ident3()
	f[0], f[4], f[8] = 0.99, 0.99, 0.99

	newF, acc := evolveSand(&mp, f, 0)
	if !matApproxEqual(newF, f, 1e-3) {
		t.Errorf("inside-cone F changed: %v -> %v", f, newF)
	}
	if acc != 0 {
		t.Errorf("accumulated strain = %v, want 0", acc)
	}
}

func TestKirchhoffStressRigidIsZero(t *testing.T) {
	mp := DefaultParams().Materials
	f := mgl32.Ident3()
	f[0] = 2
	tau := kirchhoffStress(MaterialRigid, &mp, 100, mgl32.Mat3{}, f, 0)
	if tau != (mgl32.Mat3{}) {
		t.Errorf("rigid stress = %v, want zero", tau)
	}
}

func TestKirchhoffStressUnknownUsesFluid(t *testing.T) {
	mp := DefaultParams().Materials
	density := float32(8)
	got := kirchhoffStress(Material(250), &mp, density, mgl32.Mat3{}, mgl32.Ident3(), 0)
	want := kirchhoffStress(MaterialFluid, &mp, density, mgl32.Mat3{}, mgl32.Ident3(), 0)
	if got != want {
		t.Errorf("unknown material stress = %v, want fluid branch %v", got, want)
	}
}

func TestSnowHardeningStiffensWhenCompacted(t *testing.T) {
	mp := DefaultParams().Materials
	f := mgl32.Ident3()
	f[0] = 0.96 // compressed beyond theta_c

	soft := kirchhoffStress(MaterialSnow, &mp, 0, mgl32.Mat3{}, f, 1.0)
	hard := kirchhoffStress(MaterialSnow, &mp, 0, mgl32.Mat3{}, f, 0.8)
	if absf(hard[0]) <= absf(soft[0]) {
		t.Errorf("compacted snow (|tau|=%v) should be stiffer than fresh (|tau|=%v)",
			absf(hard[0]), absf(soft[0]))
	}
}

func TestApplyVelocityGradient(t *testing.T) {
	var c mgl32.Mat3
	c[0] = 0.5 // dvx/dx
	f := applyVelocityGradient(mgl32.Ident3(), c, 0.1)
	if math.Abs(float64(f[0])-1.05) > 1e-5 {
		t.Errorf("F[0,0] = %v, want 1.05", f[0])
	}
	if f[4] != 1 || f[8] != 1 {
		t.Errorf("unsheared axes changed: %v", f)
	}
}
