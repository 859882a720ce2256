package sim

import (
	"github.com/go-gl/mathgl/mgl32"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// BoundaryResolver confines particles to the simulation domain. Resolve
// returns the corrected position and velocity; alive=false marks the
// particle for removal.
type BoundaryResolver interface {
	Resolve(pos, vel mgl32.Vec3) (newPos, newVel mgl32.Vec3, alive bool)
}

// ForceSampler supplies an external acceleration field, evaluated at
// grid nodes during the solve phase.
type ForceSampler interface {
	Sample(pos mgl32.Vec3, t float32) mgl32.Vec3
}

// PhaseTimer receives phase transitions during a step so callers can
// attribute wall time per kernel pass. StartPhase must be cheap.
type PhaseTimer interface {
	StartPhase(name string)
}

// stepWorkerCounters is one worker's private event tally for a step.
type stepWorkerCounters struct {
	nanResets     int
	boundaryKills int
}

// StepCounters reports what happened during one Step call.
type StepCounters struct {
	NaNResets     int
	BoundaryKills int
	EffectiveDT   float32
}

// Solver advances the hybrid grid-particle state one tick at a time.
// Store, Grid and Params may be read between steps; mutating them while
// Step runs is not supported.
type Solver struct {
	Store  *ParticleStore
	Grid   *GridStore
	Params Params

	Boundary BoundaryResolver
	Forces   ForceSampler
	Timer    PhaseTimer

	pool           *workerPool
	partials       []scatterPartial
	workerCounters []stepWorkerCounters
	noise          opensimplex.Noise

	gridMargin int
	tick       int32
	time       float32
	dtEff      float32
}

// NewSolver wires a solver around existing stores. The seed drives the
// plasma turbulence field only.
func NewSolver(store *ParticleStore, grid *GridStore, params Params, seed int64) *Solver {
	pool := newWorkerPool()
	partials := make([]scatterPartial, pool.numWorkers)
	for i := range partials {
		partials[i] = newScatterPartial(grid.Cells())
	}
	return &Solver{
		Store:          store,
		Grid:           grid,
		Params:         params,
		pool:           pool,
		partials:       partials,
		workerCounters: make([]stepWorkerCounters, pool.numWorkers),
		noise:          opensimplex.New(seed),
		gridMargin:     2,
		dtEff:          params.DT,
	}
}

// SetWallMargin overrides the node layer count on which outbound
// velocities are zeroed.
func (s *Solver) SetWallMargin(cells int) {
	if cells < 1 {
		cells = 1
	}
	s.gridMargin = cells
}

// Tick returns the number of completed steps.
func (s *Solver) Tick() int32 {
	return s.tick
}

// Time returns accumulated simulation time.
func (s *Solver) Time() float32 {
	return s.time
}

// Close stops the worker pool. The solver is unusable afterwards.
func (s *Solver) Close() {
	s.pool.stop()
}

// Step advances the simulation by one tick: clear, scatter, solve,
// vorticity, gather. Spawning and removal are the caller's concern and
// happen outside this window.
func (s *Solver) Step() StepCounters {
	s.dtEff = s.Params.DT
	if s.Params.AdaptiveDT {
		if peak := s.Store.MaxSpeed(); peak > 1e-6 {
			limit := s.Params.CFL * s.Grid.Spacing / peak
			if limit < s.dtEff {
				s.dtEff = limit
			}
		}
	}
	for i := range s.workerCounters {
		s.workerCounters[i] = stepWorkerCounters{}
	}

	s.phase("clear")
	s.pool.run(s.Grid.Cells(), func(start, end, _ int) {
		s.Grid.ClearRange(start, end)
	})

	s.phase("p2g")
	s.transferParticlesToGrid()

	s.phase("grid_solve")
	s.solveGrid()

	s.phase("vorticity")
	s.vorticityPass()

	s.phase("g2p")
	s.transferGridToParticles()

	var out StepCounters
	for i := range s.workerCounters {
		out.NaNResets += s.workerCounters[i].nanResets
		out.BoundaryKills += s.workerCounters[i].boundaryKills
	}
	out.EffectiveDT = s.dtEff
	s.tick++
	s.time += s.dtEff
	return out
}

func (s *Solver) phase(name string) {
	if s.Timer != nil {
		s.Timer.StartPhase(name)
	}
}
