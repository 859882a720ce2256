package telemetry

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/slurry/sim"
)

// Collector accumulates lifecycle and solver events between windows and
// samples store-wide aggregates when a window closes.
type Collector struct {
	windowSec   float64
	windowStart int32
	nextFlush   float64

	spawned       int
	rejected      int
	expired       int
	boundaryKills int
	nanResets     int
	lastDT        float64

	speeds    []float64
	densities []float64
}

// NewCollector creates a collector that closes a window every windowSec
// of simulation time.
func NewCollector(windowSec float64) *Collector {
	if windowSec <= 0 {
		windowSec = 1
	}
	return &Collector{
		windowSec: windowSec,
		nextFlush: windowSec,
	}
}

// RecordStep folds one solver step's counters into the open window.
func (c *Collector) RecordStep(sc sim.StepCounters) {
	c.nanResets += sc.NaNResets
	c.boundaryKills += sc.BoundaryKills
	c.lastDT = float64(sc.EffectiveDT)
}

// RecordLifecycle folds one lifecycle pass into the open window.
func (c *Collector) RecordLifecycle(spawned, rejected, expired int) {
	c.spawned += spawned
	c.rejected += rejected
	c.expired += expired
}

// ShouldFlush reports whether simulation time has crossed the window end.
func (c *Collector) ShouldFlush(simTime float64) bool {
	return simTime >= c.nextFlush
}

// Flush samples the store and grid, closes the window and returns its
// stats. Counters reset; the next window starts at tick.
func (c *Collector) Flush(store *sim.ParticleStore, grid *sim.GridStore, tick int32, simTime float64) WindowStats {
	n := store.Len()
	c.speeds = c.speeds[:0]
	c.densities = c.densities[:0]
	for i := 0; i < n; i++ {
		v := store.Vel[i]
		sq := float64(v[0])*float64(v[0]) + float64(v[1])*float64(v[1]) + float64(v[2])*float64(v[2])
		c.speeds = append(c.speeds, math.Sqrt(sq))
		c.densities = append(c.densities, float64(store.Density[i]))
	}

	px, py, pz := store.TotalMomentum()
	out := WindowStats{
		WindowStartTick: c.windowStart,
		WindowEndTick:   tick,
		SimTimeSec:      simTime,
		Particles:       n,
		TotalMass:       store.TotalMass(),
		MomentumX:       px,
		MomentumY:       py,
		MomentumZ:       pz,
		KineticEnergy:   store.KineticEnergy(),
		MaxSpeed:        float64(store.MaxSpeed()),
		MaxVortMag:      float64(grid.MaxVortMag()),
		EffectiveDT:     c.lastDT,
		Spawned:         c.spawned,
		Rejected:        c.rejected,
		Expired:         c.expired,
		BoundaryKills:   c.boundaryKills,
		NaNResets:       c.nanResets,
	}
	if n > 0 {
		out.MeanSpeed, out.SpeedStd = stat.MeanStdDev(c.speeds, nil)
		out.MeanDensity = stat.Mean(c.densities, nil)
	}

	c.spawned = 0
	c.rejected = 0
	c.expired = 0
	c.boundaryKills = 0
	c.nanResets = 0
	c.windowStart = tick
	c.nextFlush += c.windowSec
	return out
}
