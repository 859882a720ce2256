// Package renderer draws the particle state in 3D.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/slurry/sim"
)

// materialColors indexes base colors by material.
var materialColors = [...]rl.Color{
	sim.MaterialFluid:   {R: 64, G: 140, B: 255, A: 255},
	sim.MaterialElastic: {R: 90, G: 210, B: 110, A: 255},
	sim.MaterialSand:    {R: 214, G: 178, B: 90, A: 255},
	sim.MaterialSnow:    {R: 235, G: 240, B: 248, A: 255},
	sim.MaterialViscous: {R: 170, G: 110, B: 220, A: 255},
	sim.MaterialRigid:   {R: 150, G: 150, B: 155, A: 255},
	sim.MaterialPlasma:  {R: 255, G: 120, B: 70, A: 255},
}

// View owns the orbital camera and draws snapshots inside the domain
// wireframe.
type View struct {
	camera rl.Camera3D
	center rl.Vector3
	size   rl.Vector3

	yaw      float32
	pitch    float32
	distance float32
}

// NewView creates a camera orbiting the domain center.
func NewView(domainMax mgl32.Vec3) *View {
	center := rl.Vector3{X: domainMax[0] * 0.5, Y: domainMax[1] * 0.5, Z: domainMax[2] * 0.5}
	v := &View{
		center:   center,
		size:     rl.Vector3{X: domainMax[0], Y: domainMax[1], Z: domainMax[2]},
		yaw:      0.8,
		pitch:    0.45,
		distance: domainMax.Len() * 1.2,
	}
	v.camera = rl.Camera3D{
		Target:     center,
		Up:         rl.Vector3{Y: 1},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
	v.updatePosition()
	return v
}

// Update handles camera input: arrows orbit, wheel zooms.
func (v *View) Update() {
	const orbitSpeed = 0.02
	if rl.IsKeyDown(rl.KeyLeft) {
		v.yaw -= orbitSpeed
	}
	if rl.IsKeyDown(rl.KeyRight) {
		v.yaw += orbitSpeed
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.pitch += orbitSpeed
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.pitch -= orbitSpeed
	}
	if v.pitch > 1.5 {
		v.pitch = 1.5
	}
	if v.pitch < -1.5 {
		v.pitch = -1.5
	}

	wheel := rl.GetMouseWheelMove()
	if wheel != 0 {
		v.distance *= 1 - wheel*0.1
		if v.distance < 5 {
			v.distance = 5
		}
	}
	v.updatePosition()
}

func (v *View) updatePosition() {
	dir := mgl32.Vec3{
		cos32(v.pitch) * cos32(v.yaw),
		sin32(v.pitch),
		cos32(v.pitch) * sin32(v.yaw),
	}
	v.camera.Position = rl.Vector3{
		X: v.center.X + dir[0]*v.distance,
		Y: v.center.Y + dir[1]*v.distance,
		Z: v.center.Z + dir[2]*v.distance,
	}
}

// Draw renders the snapshot: domain wireframe plus one point per
// particle, colored by material and brightened with speed.
func (v *View) Draw(snap *sim.Snapshot) {
	rl.BeginMode3D(v.camera)
	rl.DrawCubeWiresV(v.center, v.size, rl.DarkGray)

	for i := range snap.Pos {
		p := snap.Pos[i]
		vel := snap.Vel[i]
		speed := vel.Len()

		mat := snap.Material[i]
		base := materialColors[sim.MaterialFluid]
		if int(mat) < len(materialColors) {
			base = materialColors[mat]
		}
		c := brighten(base, speed*0.12)
		rl.DrawPoint3D(rl.Vector3{X: p[0], Y: p[1], Z: p[2]}, c)
	}
	rl.EndMode3D()
}

// brighten lerps a color toward white by t in [0,1].
func brighten(c rl.Color, t float32) rl.Color {
	if t > 1 {
		t = 1
	}
	if t <= 0 {
		return c
	}
	return rl.Color{
		R: uint8(float32(c.R) + (255-float32(c.R))*t),
		G: uint8(float32(c.G) + (255-float32(c.G))*t),
		B: uint8(float32(c.B) + (255-float32(c.B))*t),
		A: c.A,
	}
}

func cos32(x float32) float32 {
	return float32(math.Cos(float64(x)))
}

func sin32(x float32) float32 {
	return float32(math.Sin(float64(x)))
}
