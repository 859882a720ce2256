package telemetry

import (
	"log/slog"
)

// WindowStats holds aggregated simulation statistics for one time window.
// The conservation columns (mass, momentum) are the ones to watch when
// tuning transfer parameters; drift there means a kernel bug, not a
// material artifact.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Particles int     `csv:"particles"`
	TotalMass float64 `csv:"total_mass"`

	// Conservation tracking
	MomentumX     float64 `csv:"momentum_x"`
	MomentumY     float64 `csv:"momentum_y"`
	MomentumZ     float64 `csv:"momentum_z"`
	KineticEnergy float64 `csv:"kinetic_energy"`

	// Velocity distribution at window end
	MaxSpeed  float64 `csv:"max_speed"`
	MeanSpeed float64 `csv:"mean_speed"`
	SpeedStd  float64 `csv:"speed_std"`

	MeanDensity float64 `csv:"mean_density"`
	MaxVortMag  float64 `csv:"max_vort_mag"`
	EffectiveDT float64 `csv:"effective_dt"`

	// Lifecycle events during the window
	Spawned       int `csv:"spawned"`
	Rejected      int `csv:"rejected"`
	Expired       int `csv:"expired"`
	BoundaryKills int `csv:"boundary_kills"`
	NaNResets     int `csv:"nan_resets"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.Particles),
		slog.Float64("total_mass", s.TotalMass),
		slog.Float64("momentum_x", s.MomentumX),
		slog.Float64("momentum_y", s.MomentumY),
		slog.Float64("momentum_z", s.MomentumZ),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("mean_speed", s.MeanSpeed),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("mean_density", s.MeanDensity),
		slog.Float64("max_vort_mag", s.MaxVortMag),
		slog.Float64("effective_dt", s.EffectiveDT),
		slog.Int("spawned", s.Spawned),
		slog.Int("rejected", s.Rejected),
		slog.Int("expired", s.Expired),
		slog.Int("boundary_kills", s.BoundaryKills),
		slog.Int("nan_resets", s.NaNResets),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"particles", s.Particles,
		"total_mass", s.TotalMass,
		"momentum_x", s.MomentumX,
		"momentum_y", s.MomentumY,
		"momentum_z", s.MomentumZ,
		"kinetic_energy", s.KineticEnergy,
		"max_speed", s.MaxSpeed,
		"mean_speed", s.MeanSpeed,
		"speed_std", s.SpeedStd,
		"mean_density", s.MeanDensity,
		"max_vort_mag", s.MaxVortMag,
		"effective_dt", s.EffectiveDT,
		"spawned", s.Spawned,
		"rejected", s.Rejected,
		"expired", s.Expired,
		"boundary_kills", s.BoundaryKills,
		"nan_resets", s.NaNResets,
	)
}
