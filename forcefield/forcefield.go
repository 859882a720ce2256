// Package forcefield provides composable external acceleration fields
// sampled at grid nodes during the solve phase.
package forcefield

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Sampler evaluates an acceleration at a world position and sim time.
type Sampler interface {
	Sample(pos mgl32.Vec3, t float32) mgl32.Vec3
}

// Uniform applies a constant acceleration everywhere.
type Uniform struct {
	Accel mgl32.Vec3
}

func (u Uniform) Sample(_ mgl32.Vec3, _ float32) mgl32.Vec3 {
	return u.Accel
}

// Point attracts (positive strength) or repels (negative) toward a
// center, with inverse-square falloff softened near the center and cut
// off at Radius. Radius <= 0 means unbounded.
type Point struct {
	Center   mgl32.Vec3
	Strength float32
	Radius   float32
}

func (p Point) Sample(pos mgl32.Vec3, _ float32) mgl32.Vec3 {
	rel := p.Center.Sub(pos)
	d2 := rel.Dot(rel)
	if p.Radius > 0 && d2 > p.Radius*p.Radius {
		return mgl32.Vec3{}
	}
	// Softening length keeps the acceleration finite at the center.
	const soft = 0.5
	d2 += soft * soft
	d := float32(math.Sqrt(float64(d2)))
	return rel.Mul(p.Strength / (d2 * d))
}

// Vortex swirls around an axis through Center. The tangential speed
// falls off with radial distance; flow along the axis is untouched.
type Vortex struct {
	Center   mgl32.Vec3
	Axis     mgl32.Vec3
	Strength float32
	Radius   float32
}

func (v Vortex) Sample(pos mgl32.Vec3, _ float32) mgl32.Vec3 {
	axis := v.Axis
	if axis == (mgl32.Vec3{}) {
		axis = mgl32.Vec3{0, 1, 0}
	} else {
		axis = axis.Normalize()
	}
	rel := pos.Sub(v.Center)
	rel = rel.Sub(axis.Mul(rel.Dot(axis))) // radial component only
	d2 := rel.Dot(rel)
	if v.Radius > 0 && d2 > v.Radius*v.Radius {
		return mgl32.Vec3{}
	}
	const soft = 0.5
	tangent := axis.Cross(rel)
	return tangent.Mul(v.Strength / (d2 + soft*soft))
}

// Turbulence samples three decorrelated simplex noise channels as a
// time-drifting acceleration field.
type Turbulence struct {
	Strength float32
	Scale    float32
	noise    opensimplex.Noise
}

// NewTurbulence seeds the noise source. Scale is the spatial frequency.
func NewTurbulence(seed int64, strength, scale float32) *Turbulence {
	if scale <= 0 {
		scale = 0.1
	}
	return &Turbulence{
		Strength: strength,
		Scale:    scale,
		noise:    opensimplex.New(seed),
	}
}

func (tb *Turbulence) Sample(pos mgl32.Vec3, t float32) mgl32.Vec3 {
	sc := float64(tb.Scale)
	x := float64(pos[0]) * sc
	y := float64(pos[1]) * sc
	z := float64(pos[2]) * sc
	drift := float64(t) * 0.25
	return mgl32.Vec3{
		float32(tb.noise.Eval3(x+drift, y, z)),
		float32(tb.noise.Eval3(x, y+drift, z+19.1)),
		float32(tb.noise.Eval3(x+43.7, y, z-drift)),
	}.Mul(tb.Strength)
}

// Stack sums the accelerations of its members.
type Stack []Sampler

func (s Stack) Sample(pos mgl32.Vec3, t float32) mgl32.Vec3 {
	var out mgl32.Vec3
	for _, f := range s {
		out = out.Add(f.Sample(pos, t))
	}
	return out
}
