package forcefield

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestUniformConstantEverywhere(t *testing.T) {
	u := Uniform{Accel: mgl32.Vec3{0, -0.3, 0}}
	for _, pos := range []mgl32.Vec3{{0, 0, 0}, {5, 9, 2}, {-3, 100, 7}} {
		if got := u.Sample(pos, 3); got != u.Accel {
			t.Errorf("Sample(%v) = %v, want %v", pos, got, u.Accel)
		}
	}
}

func TestPointAttractsTowardCenter(t *testing.T) {
	p := Point{Center: mgl32.Vec3{8, 8, 8}, Strength: 2}
	got := p.Sample(mgl32.Vec3{12, 8, 8}, 0)
	if got[0] >= 0 {
		t.Errorf("accel.x = %v, want negative (toward center)", got[0])
	}
	if got[1] != 0 || got[2] != 0 {
		t.Errorf("off-axis accel = %v, want zero", got)
	}
}

func TestPointRepelsWithNegativeStrength(t *testing.T) {
	p := Point{Center: mgl32.Vec3{8, 8, 8}, Strength: -2}
	got := p.Sample(mgl32.Vec3{12, 8, 8}, 0)
	if got[0] <= 0 {
		t.Errorf("accel.x = %v, want positive (away from center)", got[0])
	}
}

func TestPointFallsOffWithDistance(t *testing.T) {
	p := Point{Center: mgl32.Vec3{}, Strength: 2}
	near := p.Sample(mgl32.Vec3{2, 0, 0}, 0).Len()
	far := p.Sample(mgl32.Vec3{8, 0, 0}, 0).Len()
	if far >= near {
		t.Errorf("far |accel| = %v should be below near %v", far, near)
	}
}

func TestPointFiniteAtCenter(t *testing.T) {
	p := Point{Center: mgl32.Vec3{8, 8, 8}, Strength: 5}
	got := p.Sample(p.Center, 0)
	for _, v := range got {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("accel at center = %v, want finite", got)
		}
	}
}

func TestPointRadiusCutoff(t *testing.T) {
	p := Point{Center: mgl32.Vec3{}, Strength: 2, Radius: 3}
	if got := p.Sample(mgl32.Vec3{4, 0, 0}, 0); got != (mgl32.Vec3{}) {
		t.Errorf("accel beyond radius = %v, want zero", got)
	}
	if got := p.Sample(mgl32.Vec3{2, 0, 0}, 0); got == (mgl32.Vec3{}) {
		t.Error("accel inside radius should be nonzero")
	}
}

func TestVortexTangential(t *testing.T) {
	v := Vortex{Center: mgl32.Vec3{8, 8, 8}, Axis: mgl32.Vec3{0, 1, 0}, Strength: 1}
	pos := mgl32.Vec3{11, 8, 8}
	got := v.Sample(pos, 0)

	radial := pos.Sub(v.Center)
	if d := got.Dot(radial); absf(d) > 1e-5 {
		t.Errorf("accel has radial component %v, want tangential only", d)
	}
	if got[1] != 0 {
		t.Errorf("accel along axis = %v, want 0", got[1])
	}
	if got.Len() == 0 {
		t.Error("tangential accel should be nonzero off the axis")
	}
}

func TestVortexDefaultsAxisToY(t *testing.T) {
	v := Vortex{Center: mgl32.Vec3{8, 8, 8}, Strength: 1}
	got := v.Sample(mgl32.Vec3{11, 8, 8}, 0)
	if got[1] != 0 || got.Len() == 0 {
		t.Errorf("accel = %v, want horizontal swirl around Y", got)
	}
}

func TestVortexRadiusCutoff(t *testing.T) {
	v := Vortex{Center: mgl32.Vec3{}, Axis: mgl32.Vec3{0, 1, 0}, Strength: 1, Radius: 2}
	if got := v.Sample(mgl32.Vec3{5, 0, 0}, 0); got != (mgl32.Vec3{}) {
		t.Errorf("accel beyond radius = %v, want zero", got)
	}
}

func TestTurbulenceBoundedAndVarying(t *testing.T) {
	tb := NewTurbulence(7, 0.5, 0.2)
	a := tb.Sample(mgl32.Vec3{1, 2, 3}, 0)
	b := tb.Sample(mgl32.Vec3{9, 4, 6}, 0)
	if a == b {
		t.Error("turbulence identical at distinct positions")
	}
	for _, s := range [2]mgl32.Vec3{a, b} {
		for _, v := range s {
			if absf(v) > 0.5 {
				t.Errorf("component %v exceeds strength bound", v)
			}
		}
	}
	// Same seed, same inputs: the field must be reproducible.
	tb2 := NewTurbulence(7, 0.5, 0.2)
	if tb2.Sample(mgl32.Vec3{1, 2, 3}, 0) != a {
		t.Error("same-seed turbulence not reproducible")
	}
}

func TestTurbulenceDriftsOverTime(t *testing.T) {
	tb := NewTurbulence(7, 0.5, 0.2)
	pos := mgl32.Vec3{4, 4, 4}
	if tb.Sample(pos, 0) == tb.Sample(pos, 10) {
		t.Error("turbulence static over time")
	}
}

func TestStackSums(t *testing.T) {
	s := Stack{
		Uniform{Accel: mgl32.Vec3{1, 0, 0}},
		Uniform{Accel: mgl32.Vec3{0, 2, -1}},
	}
	if got := s.Sample(mgl32.Vec3{}, 0); got != (mgl32.Vec3{1, 2, -1}) {
		t.Errorf("stack sum = %v, want (1,2,-1)", got)
	}
	var empty Stack
	if got := empty.Sample(mgl32.Vec3{}, 0); got != (mgl32.Vec3{}) {
		t.Errorf("empty stack = %v, want zero", got)
	}
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
