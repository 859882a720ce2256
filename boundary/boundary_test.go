package boundary

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

var domain = mgl32.Vec3{16, 16, 16}

func vecClose(a, b mgl32.Vec3, tol float32) bool {
	for i := 0; i < 3; i++ {
		d := a[i] - b[i]
		if d < -tol || d > tol {
			return false
		}
	}
	return true
}

func TestParseShape(t *testing.T) {
	tests := []struct {
		in   string
		want Shape
	}{
		{"box", ShapeBox},
		{"sphere", ShapeSphere},
		{"tube", ShapeTube},
		{" Sphere ", ShapeSphere},
		{"dodecahedron", ShapeBox},
		{"", ShapeBox},
	}
	for _, tt := range tests {
		if got := ParseShape(tt.in); got != tt.want {
			t.Errorf("ParseShape(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"reflect", ModeReflect},
		{"clamp", ModeClamp},
		{"wrap", ModeWrap},
		{"kill", ModeKill},
		{"KILL", ModeKill},
		{"absorb", ModeClamp},
		{"", ModeClamp},
	}
	for _, tt := range tests {
		if got := ParseMode(tt.in); got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestShapeModeStringRoundTrip(t *testing.T) {
	for _, s := range []Shape{ShapeBox, ShapeSphere, ShapeTube} {
		if got := ParseShape(s.String()); got != s {
			t.Errorf("shape round trip %v -> %q -> %v", s, s.String(), got)
		}
	}
	for _, m := range []Mode{ModeReflect, ModeClamp, ModeWrap, ModeKill} {
		if got := ParseMode(m.String()); got != m {
			t.Errorf("mode round trip %v -> %q -> %v", m, m.String(), got)
		}
	}
}

func TestBoxInsideUntouched(t *testing.T) {
	for _, mode := range []Mode{ModeReflect, ModeClamp, ModeWrap, ModeKill} {
		b := New(ShapeBox, mode, domain, 2, 0.5, 0)
		pos := mgl32.Vec3{8, 8, 8}
		vel := mgl32.Vec3{1, -2, 3}
		gp, gv, alive := b.Resolve(pos, vel)
		if !alive || gp != pos || gv != vel {
			t.Errorf("mode %v touched an interior particle: %v %v %v", mode, gp, gv, alive)
		}
	}
}

func TestBoxReflect(t *testing.T) {
	b := New(ShapeBox, ModeReflect, domain, 2, 0.5, 0)
	pos, vel, alive := b.Resolve(mgl32.Vec3{1, 8, 15}, mgl32.Vec3{-4, 0, 6})
	if !alive {
		t.Fatal("reflect must keep the particle")
	}
	if !vecClose(pos, mgl32.Vec3{2, 8, 14}, 1e-5) {
		t.Errorf("pos = %v, want pinned to both walls", pos)
	}
	if !vecClose(vel, mgl32.Vec3{2, 0, -3}, 1e-5) {
		t.Errorf("vel = %v, want normal components flipped and damped", vel)
	}
}

func TestBoxClampZeroesOutwardVelocity(t *testing.T) {
	b := New(ShapeBox, ModeClamp, domain, 2, 0, 0)
	pos, vel, _ := b.Resolve(mgl32.Vec3{0.5, 8, 8}, mgl32.Vec3{-3, 1.5, 0})
	if pos[0] != 2 {
		t.Errorf("pos.x = %v, want 2", pos[0])
	}
	if vel[0] != 0 {
		t.Errorf("outward vel.x = %v, want 0", vel[0])
	}
	if vel[1] != 1.5 {
		t.Errorf("tangential vel.y = %v, want untouched", vel[1])
	}
}

func TestBoxClampKeepsInwardVelocity(t *testing.T) {
	b := New(ShapeBox, ModeClamp, domain, 2, 0, 0)
	_, vel, _ := b.Resolve(mgl32.Vec3{0.5, 8, 8}, mgl32.Vec3{2, 0, 0})
	if vel[0] != 2 {
		t.Errorf("inward vel.x = %v, want preserved", vel[0])
	}
}

func TestBoxWrapTranslatesByExtent(t *testing.T) {
	b := New(ShapeBox, ModeWrap, domain, 2, 0, 0)
	pos, vel, _ := b.Resolve(mgl32.Vec3{1, 8, 8}, mgl32.Vec3{-1, 0, 0})
	// Extent is hi-lo = 12, so x re-enters at 13.
	if pos[0] != 13 {
		t.Errorf("wrapped pos.x = %v, want 13", pos[0])
	}
	if vel != (mgl32.Vec3{-1, 0, 0}) {
		t.Errorf("wrap changed velocity: %v", vel)
	}
}

func TestBoxKill(t *testing.T) {
	b := New(ShapeBox, ModeKill, domain, 2, 0, 0)
	_, _, alive := b.Resolve(mgl32.Vec3{1, 8, 8}, mgl32.Vec3{})
	if alive {
		t.Error("escaped particle survived kill mode")
	}
}

func TestSphereReflect(t *testing.T) {
	// Default radius fits the insets: 8 - 2 = 6 around center (8,8,8).
	b := New(ShapeSphere, ModeReflect, domain, 2, 1, 0)
	pos, vel, alive := b.Resolve(mgl32.Vec3{15, 8, 8}, mgl32.Vec3{3, 2, 0})
	if !alive {
		t.Fatal("reflect must keep the particle")
	}
	if !vecClose(pos, mgl32.Vec3{14, 8, 8}, 1e-4) {
		t.Errorf("pos = %v, want projected to the wall at x=14", pos)
	}
	// Full restitution mirrors the normal component.
	if !vecClose(vel, mgl32.Vec3{-3, 2, 0}, 1e-4) {
		t.Errorf("vel = %v, want (-3,2,0)", vel)
	}
}

func TestSphereClampProjects(t *testing.T) {
	b := New(ShapeSphere, ModeClamp, domain, 2, 0, 0)
	pos, vel, _ := b.Resolve(mgl32.Vec3{8, 15.5, 8}, mgl32.Vec3{0, 4, 1})
	if !vecClose(pos, mgl32.Vec3{8, 14, 8}, 1e-4) {
		t.Errorf("pos = %v, want on the wall at y=14", pos)
	}
	if vel[1] > 1e-5 {
		t.Errorf("outward vel.y = %v, want removed", vel[1])
	}
	if vel[2] != 1 {
		t.Errorf("tangential vel.z = %v, want untouched", vel[2])
	}
}

func TestSphereWrapReentersAntipode(t *testing.T) {
	b := New(ShapeSphere, ModeWrap, domain, 2, 0, 0)
	pos, _, _ := b.Resolve(mgl32.Vec3{15, 8, 8}, mgl32.Vec3{1, 0, 0})
	if pos[0] >= 8 {
		t.Errorf("wrapped pos = %v, want on the far side of the center", pos)
	}
	rel := pos.Sub(mgl32.Vec3{8, 8, 8})
	if rel.Len() > 6 {
		t.Errorf("re-entry point %v lies outside the sphere", pos)
	}
}

func TestSphereExplicitRadius(t *testing.T) {
	b := New(ShapeSphere, ModeClamp, domain, 2, 0, 3)
	pos, _, _ := b.Resolve(mgl32.Vec3{13, 8, 8}, mgl32.Vec3{})
	if math.Abs(float64(pos[0])-11) > 1e-4 {
		t.Errorf("pos.x = %v, want 11 for radius 3", pos[0])
	}
}

func TestTubeRadialWall(t *testing.T) {
	b := New(ShapeTube, ModeReflect, domain, 2, 1, 0)
	pos, vel, _ := b.Resolve(mgl32.Vec3{15, 8, 8}, mgl32.Vec3{2, 1, 0})
	if !vecClose(pos, mgl32.Vec3{14, 8, 8}, 1e-4) {
		t.Errorf("pos = %v, want radial projection to x=14", pos)
	}
	if !vecClose(vel, mgl32.Vec3{-2, 1, 0}, 1e-4) {
		t.Errorf("vel = %v, want radial component mirrored, axial kept", vel)
	}
}

func TestTubeAxialCap(t *testing.T) {
	b := New(ShapeTube, ModeClamp, domain, 2, 0, 0)
	pos, vel, _ := b.Resolve(mgl32.Vec3{8, 15.5, 8}, mgl32.Vec3{0.5, 3, 0})
	if pos[1] != 14 {
		t.Errorf("pos.y = %v, want pinned to the cap at 14", pos[1])
	}
	if vel[1] != 0 {
		t.Errorf("outward axial vel = %v, want 0", vel[1])
	}
	if vel[0] != 0.5 {
		t.Errorf("radial vel = %v, want untouched", vel[0])
	}
}

func TestTubeCornerResolvesBothWalls(t *testing.T) {
	b := New(ShapeTube, ModeClamp, domain, 2, 0, 0)
	pos, _, _ := b.Resolve(mgl32.Vec3{15, 15.5, 8}, mgl32.Vec3{})
	if math.Abs(float64(pos[0])-14) > 1e-4 {
		t.Errorf("pos.x = %v, want on the radial wall", pos[0])
	}
	if pos[1] != 14 {
		t.Errorf("pos.y = %v, want on the cap", pos[1])
	}
}

func TestTubeKill(t *testing.T) {
	b := New(ShapeTube, ModeKill, domain, 2, 0, 0)
	if _, _, alive := b.Resolve(mgl32.Vec3{15, 8, 8}, mgl32.Vec3{}); alive {
		t.Error("radial escape survived kill mode")
	}
	if _, _, alive := b.Resolve(mgl32.Vec3{8, 15, 8}, mgl32.Vec3{}); alive {
		t.Error("axial escape survived kill mode")
	}
}
