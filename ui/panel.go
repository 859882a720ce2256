// Package ui draws the interactive parameter panel.
package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slurry/sim"
)

// Panel exposes the live-tunable transfer parameters. Changes apply on
// the next tick; constitutive constants stay config-only.
type Panel struct {
	x, y    float32
	width   float32
	visible bool
}

// NewPanel creates a hidden panel anchored at (x, y).
func NewPanel(x, y, width float32) *Panel {
	return &Panel{x: x, y: y, width: width}
}

// Toggle switches panel visibility.
func (p *Panel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// Visible reports whether the panel is shown.
func (p *Panel) Visible() bool {
	return p.visible
}

// Draw renders the panel and writes slider changes back into params.
func (p *Panel) Draw(params *sim.Params) {
	if !p.visible {
		return
	}

	x := p.x
	y := p.y
	w := p.width

	rl.DrawRectangle(int32(x-10), int32(y-10), int32(w+20), 240, rl.Color{R: 20, G: 24, B: 30, A: 220})
	rl.DrawText("Simulation", int32(x), int32(y), 18, rl.RayWhite)
	y += 30

	rl.DrawText("PIC / FLIP blend", int32(x), int32(y), 14, rl.Gray)
	y += 18
	params.FlipRatio = gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: w - 60, Height: 20},
		"PIC", "FLIP",
		params.FlipRatio, 0, 1,
	)
	rl.DrawText(fmt.Sprintf("%.2f", params.FlipRatio), int32(x+w-50), int32(y+2), 16, rl.LightGray)
	y += 32

	rl.DrawText("Gravity Y", int32(x), int32(y), 14, rl.Gray)
	y += 18
	params.Gravity[1] = gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: w - 60, Height: 20},
		"-2.0", "0.0",
		params.Gravity[1], -2, 0,
	)
	rl.DrawText(fmt.Sprintf("%.2f", params.Gravity[1]), int32(x+w-50), int32(y+2), 16, rl.LightGray)
	y += 32

	params.VorticityEnabled = gui.CheckBox(
		rl.Rectangle{X: x, Y: y, Width: 18, Height: 18},
		"vorticity confinement",
		params.VorticityEnabled,
	)
	y += 26

	rl.DrawText("Confinement epsilon", int32(x), int32(y), 14, rl.Gray)
	y += 18
	params.VorticityEps = gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: w - 60, Height: 20},
		"0", "0.5",
		params.VorticityEps, 0, 0.5,
	)
	rl.DrawText(fmt.Sprintf("%.2f", params.VorticityEps), int32(x+w-50), int32(y+2), 16, rl.LightGray)
	y += 32

	params.AdaptiveDT = gui.CheckBox(
		rl.Rectangle{X: x, Y: y, Width: 18, Height: 18},
		"adaptive timestep",
		params.AdaptiveDT,
	)
}
