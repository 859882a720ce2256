// Package app wires the solver, scene, telemetry and presentation into
// a runnable simulation.
package app

import (
	"fmt"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/slurry/config"
	"github.com/pthm-cable/slurry/renderer"
	"github.com/pthm-cable/slurry/scene"
	"github.com/pthm-cable/slurry/sim"
	"github.com/pthm-cable/slurry/stream"
	"github.com/pthm-cable/slurry/telemetry"
	"github.com/pthm-cable/slurry/ui"
)

// Options configures an App instance.
type Options struct {
	Seed           int64
	Headless       bool
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string
	StepsPerUpdate int
}

// App owns the full simulation stack for one run.
type App struct {
	cfg  *config.Config
	opts Options

	store  *sim.ParticleStore
	grid   *sim.GridStore
	solver *sim.Solver
	scn    *scene.Scene

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	streamSrv *stream.Server

	view  *renderer.View
	panel *ui.Panel
	snap  sim.Snapshot

	paused bool
}

// New builds the app from the global config and options.
func New(opts Options) (*App, error) {
	cfg := config.Cfg()
	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}
	if opts.StatsWindowSec <= 0 {
		opts.StatsWindowSec = cfg.Telemetry.StatsWindow
	}

	a := &App{cfg: cfg, opts: opts}
	a.store = sim.NewParticleStore(cfg.Particles.Capacity)
	a.grid = sim.NewGridStore(
		cfg.Grid.NX, cfg.Grid.NY, cfg.Grid.NZ,
		cfg.Derived.Spacing32, cfg.Vorticity.Enabled,
	)
	a.solver = sim.NewSolver(a.store, a.grid, ParamsFromConfig(cfg), opts.Seed)
	a.solver.SetWallMargin(int(cfg.Boundary.Margin))

	a.scn = scene.New(cfg, opts.Seed)
	a.solver.Boundary = a.scn.Boundary()
	a.solver.Forces = a.scn.Forces()

	a.collector = telemetry.NewCollector(opts.StatsWindowSec)
	a.perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	a.solver.Timer = a.perf

	var err error
	a.output, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("opening output: %w", err)
	}
	if err := a.output.WriteConfig(cfg); err != nil {
		slog.Warn("failed to write config snapshot", "error", err)
	}

	if cfg.Stream.Enabled {
		a.streamSrv = stream.NewServer(cfg.Stream.Addr)
		a.streamSrv.Start()
	}

	if !opts.Headless {
		domain := mgl32.Vec3{cfg.Derived.DomainMax[0], cfg.Derived.DomainMax[1], cfg.Derived.DomainMax[2]}
		a.view = renderer.NewView(domain)
		a.panel = ui.NewPanel(float32(cfg.Screen.Width)-280, 20, 260)
	}

	return a, nil
}

// MustNew is like New but exits on error.
func MustNew(opts Options) *App {
	a, err := New(opts)
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}
	return a
}

// Tick returns the solver tick count.
func (a *App) Tick() int32 {
	return a.solver.Tick()
}

// step runs one full tick: solve, lifecycle, telemetry, streaming.
func (a *App) step() {
	a.perf.StartTick()

	counters := a.solver.Step()
	a.collector.RecordStep(counters)

	a.perf.StartPhase(telemetry.PhaseLifecycle)
	ls := a.scn.Lifecycle(a.store)
	a.collector.RecordLifecycle(ls.Spawned, ls.Rejected, ls.Expired)

	a.perf.StartPhase(telemetry.PhaseTelemetry)
	simTime := float64(a.solver.Time())
	if a.collector.ShouldFlush(simTime) {
		stats := a.collector.Flush(a.store, a.grid, a.solver.Tick(), simTime)
		if a.opts.LogStats {
			stats.LogStats()
		}
		if err := a.output.WriteTelemetry(stats); err != nil {
			slog.Warn("telemetry write failed", "error", err)
		}
		perfStats := a.perf.Stats()
		if a.opts.LogStats {
			perfStats.LogStats()
		}
		if err := a.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Warn("perf write failed", "error", err)
		}
	}

	if a.streamSrv != nil && a.streamSrv.HasClients() {
		a.store.CopySnapshot(&a.snap, a.solver.Tick())
		a.streamSrv.Broadcast(&a.snap)
	}

	a.perf.EndTick()
}

// UpdateHeadless advances the simulation without any rendering.
func (a *App) UpdateHeadless() {
	for i := 0; i < a.opts.StepsPerUpdate; i++ {
		a.step()
	}
}

// Update advances the simulation and handles input in graphics mode.
func (a *App) Update() {
	if rl.IsKeyPressed(rl.KeySpace) {
		a.paused = !a.paused
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		a.panel.Toggle()
	}
	a.view.Update()

	if a.paused {
		return
	}
	for i := 0; i < a.opts.StepsPerUpdate; i++ {
		a.step()
	}
}

// Draw renders the current state.
func (a *App) Draw() {
	a.perf.RecordFrame()
	a.store.CopySnapshot(&a.snap, a.solver.Tick())

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 14, B: 18, A: 255})

	a.view.Draw(&a.snap)
	a.panel.Draw(&a.solver.Params)

	rl.DrawText(fmt.Sprintf("tick %d", a.solver.Tick()), 10, 10, 16, rl.Gray)
	rl.DrawText(fmt.Sprintf("particles %d / %d", a.store.Len(), a.store.Capacity()), 10, 30, 16, rl.Gray)
	if a.paused {
		rl.DrawText("PAUSED", 10, 50, 16, rl.Orange)
	}
	rl.DrawFPS(int32(a.cfg.Screen.Width)-90, 10)

	rl.EndDrawing()
}

// Unload releases solver workers, output files and network listeners.
func (a *App) Unload() {
	a.solver.Close()
	if err := a.output.Close(); err != nil {
		slog.Warn("closing output", "error", err)
	}
	if a.streamSrv != nil {
		a.streamSrv.Close()
	}
}

// ParamsFromConfig flattens the loaded config into the solver's
// parameter block.
func ParamsFromConfig(cfg *config.Config) sim.Params {
	m := cfg.Materials
	return sim.Params{
		DT: cfg.Derived.DT32,
		Gravity: mgl32.Vec3{
			float32(cfg.Physics.Gravity[0]),
			float32(cfg.Physics.Gravity[1]),
			float32(cfg.Physics.Gravity[2]),
		},
		FlipRatio:        float32(cfg.Physics.FlipRatio),
		CFL:              float32(cfg.Physics.CFL),
		AdaptiveDT:       cfg.Physics.AdaptiveDT,
		VorticityEnabled: cfg.Vorticity.Enabled,
		VorticityEps:     float32(cfg.Vorticity.Epsilon),
		Materials: sim.MaterialParams{
			RestDensity:      float32(m.RestDensity),
			FluidStiffness:   float32(m.FluidStiffness),
			Viscosity:        float32(m.Viscosity),
			ViscousStiffness: float32(m.ViscousStiffness),
			ElasticMu:        float32(m.ElasticMu),
			ElasticLambda:    float32(m.ElasticLambda),
			SnowThetaC:       float32(m.SnowThetaC),
			SnowThetaS:       float32(m.SnowThetaS),
			SnowHardening:    float32(m.SnowHardening),
			SandFriction:     float32(m.SandFriction),
			SandMu:           float32(m.SandMu),
			SandLambda:       float32(m.SandLambda),
			PlasmaStiffness:  float32(m.PlasmaStiffness),
			PlasmaNoiseScale: float32(m.PlasmaNoiseScale),
			PlasmaStrength:   float32(m.PlasmaStrength),
		},
	}
}
