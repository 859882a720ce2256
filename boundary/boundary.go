// Package boundary confines particles to a domain shape and decides
// what happens to the ones that hit the walls.
package boundary

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Shape selects the domain geometry.
type Shape uint8

const (
	ShapeBox Shape = iota
	ShapeSphere
	ShapeTube
)

// Mode selects the wall response.
type Mode uint8

const (
	// ModeReflect bounces the normal velocity component, scaled by restitution.
	ModeReflect Mode = iota
	// ModeClamp pins the particle to the wall and removes outward velocity.
	ModeClamp
	// ModeWrap teleports the particle to the opposite side.
	ModeWrap
	// ModeKill removes particles that leave the domain.
	ModeKill
)

// ParseShape maps a config string to a shape. Unknown names map to box.
func ParseShape(s string) Shape {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sphere":
		return ShapeSphere
	case "tube":
		return ShapeTube
	default:
		return ShapeBox
	}
}

// ParseMode maps a config string to a mode. Unknown names map to clamp.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reflect":
		return ModeReflect
	case "wrap":
		return ModeWrap
	case "kill":
		return ModeKill
	default:
		return ModeClamp
	}
}

func (s Shape) String() string {
	switch s {
	case ShapeSphere:
		return "sphere"
	case ShapeTube:
		return "tube"
	default:
		return "box"
	}
}

func (m Mode) String() string {
	switch m {
	case ModeReflect:
		return "reflect"
	case ModeWrap:
		return "wrap"
	case ModeKill:
		return "kill"
	default:
		return "clamp"
	}
}

// Boundary resolves particle positions against one domain shape. The
// walls sit margin inside the grid extent so kernel footprints always
// have live nodes behind them.
type Boundary struct {
	Shape       Shape
	Mode        Mode
	Restitution float32

	lo, hi mgl32.Vec3 // box walls (also axial walls for tube)
	center mgl32.Vec3
	radius float32 // sphere and tube radial wall
}

// New builds a boundary for a domain spanning [0, domainMax] with walls
// inset by margin. radius <= 0 derives the largest radius that fits.
func New(shape Shape, mode Mode, domainMax mgl32.Vec3, margin, restitution, radius float32) *Boundary {
	b := &Boundary{
		Shape:       shape,
		Mode:        mode,
		Restitution: restitution,
		lo:          mgl32.Vec3{margin, margin, margin},
		hi:          domainMax.Sub(mgl32.Vec3{margin, margin, margin}),
		center:      domainMax.Mul(0.5),
	}
	if radius > 0 {
		b.radius = radius
	} else {
		r := b.hi[0] - b.center[0]
		for a := 1; a < 3; a++ {
			if e := b.hi[a] - b.center[a]; e < r {
				r = e
			}
		}
		b.radius = r
	}
	return b
}

// Resolve corrects a particle that crossed the wall. alive=false means
// the particle should be removed.
func (b *Boundary) Resolve(pos, vel mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3, bool) {
	switch b.Shape {
	case ShapeSphere:
		return b.resolveSphere(pos, vel)
	case ShapeTube:
		return b.resolveTube(pos, vel)
	default:
		return b.resolveBox(pos, vel)
	}
}

func (b *Boundary) resolveBox(pos, vel mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3, bool) {
	inside := true
	for a := 0; a < 3; a++ {
		if pos[a] < b.lo[a] || pos[a] > b.hi[a] {
			inside = false
			break
		}
	}
	if inside {
		return pos, vel, true
	}
	if b.Mode == ModeKill {
		return pos, vel, false
	}

	for a := 0; a < 3; a++ {
		lo, hi := b.lo[a], b.hi[a]
		switch {
		case pos[a] < lo:
			switch b.Mode {
			case ModeReflect:
				pos[a] = lo
				if vel[a] < 0 {
					vel[a] = -vel[a] * b.Restitution
				}
			case ModeWrap:
				pos[a] += hi - lo
			default:
				pos[a] = lo
				if vel[a] < 0 {
					vel[a] = 0
				}
			}
		case pos[a] > hi:
			switch b.Mode {
			case ModeReflect:
				pos[a] = hi
				if vel[a] > 0 {
					vel[a] = -vel[a] * b.Restitution
				}
			case ModeWrap:
				pos[a] -= hi - lo
			default:
				pos[a] = hi
				if vel[a] > 0 {
					vel[a] = 0
				}
			}
		}
	}
	return pos, vel, true
}

func (b *Boundary) resolveSphere(pos, vel mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3, bool) {
	rel := pos.Sub(b.center)
	dist := rel.Len()
	if dist <= b.radius {
		return pos, vel, true
	}
	if b.Mode == ModeKill {
		return pos, vel, false
	}
	if dist < 1e-6 {
		return b.center, vel, true
	}
	n := rel.Mul(1 / dist)

	switch b.Mode {
	case ModeWrap:
		// Re-enter through the antipode, just inside the wall.
		pos = b.center.Sub(n.Mul(b.radius * 0.98))
		return pos, vel, true
	case ModeReflect:
		pos = b.center.Add(n.Mul(b.radius))
		vn := vel.Dot(n)
		if vn > 0 {
			vel = vel.Sub(n.Mul(vn * (1 + b.Restitution)))
		}
		return pos, vel, true
	default:
		pos = b.center.Add(n.Mul(b.radius))
		vn := vel.Dot(n)
		if vn > 0 {
			vel = vel.Sub(n.Mul(vn))
		}
		return pos, vel, true
	}
}

// resolveTube treats the domain as a cylinder along Y: the radial wall
// behaves like the sphere wall in the XZ plane, the caps like box walls.
func (b *Boundary) resolveTube(pos, vel mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3, bool) {
	rx := pos[0] - b.center[0]
	rz := pos[2] - b.center[2]
	dist := rx*rx + rz*rz
	radial := dist > b.radius*b.radius
	axial := pos[1] < b.lo[1] || pos[1] > b.hi[1]
	if !radial && !axial {
		return pos, vel, true
	}
	if b.Mode == ModeKill {
		return pos, vel, false
	}

	if radial {
		d := sqrt32(dist)
		if d < 1e-6 {
			d = 1e-6
		}
		nx, nz := rx/d, rz/d
		switch b.Mode {
		case ModeWrap:
			pos[0] = b.center[0] - nx*b.radius*0.98
			pos[2] = b.center[2] - nz*b.radius*0.98
		case ModeReflect:
			pos[0] = b.center[0] + nx*b.radius
			pos[2] = b.center[2] + nz*b.radius
			vn := vel[0]*nx + vel[2]*nz
			if vn > 0 {
				vel[0] -= nx * vn * (1 + b.Restitution)
				vel[2] -= nz * vn * (1 + b.Restitution)
			}
		default:
			pos[0] = b.center[0] + nx*b.radius
			pos[2] = b.center[2] + nz*b.radius
			vn := vel[0]*nx + vel[2]*nz
			if vn > 0 {
				vel[0] -= nx * vn
				vel[2] -= nz * vn
			}
		}
	}

	if axial {
		lo, hi := b.lo[1], b.hi[1]
		switch {
		case pos[1] < lo:
			switch b.Mode {
			case ModeReflect:
				pos[1] = lo
				if vel[1] < 0 {
					vel[1] = -vel[1] * b.Restitution
				}
			case ModeWrap:
				pos[1] += hi - lo
			default:
				pos[1] = lo
				if vel[1] < 0 {
					vel[1] = 0
				}
			}
		case pos[1] > hi:
			switch b.Mode {
			case ModeReflect:
				pos[1] = hi
				if vel[1] > 0 {
					vel[1] = -vel[1] * b.Restitution
				}
			case ModeWrap:
				pos[1] -= hi - lo
			default:
				pos[1] = hi
				if vel[1] > 0 {
					vel[1] = 0
				}
			}
		}
	}
	return pos, vel, true
}

func sqrt32(x float32) float32 {
	if x <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(x)))
}
