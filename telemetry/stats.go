package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"github.com/pthm-cable/metaballs/components"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartSec float64 `csv:"-"`
	WindowEndSec   float64 `csv:"window_end"`
	Frames         int     `csv:"frames"`

	// Population at window end
	Particles int     `csv:"particles"`
	TotalMass float64 `csv:"total_mass"`

	// Events during window
	Merges        int `csv:"merges"`
	Explosions    int `csv:"explosions"`
	Fragments     int `csv:"fragments"`
	Reallocations int `csv:"reallocations"`

	// Radius distribution (sampled at window end)
	RadiusMean float64 `csv:"radius_mean"`
	RadiusStd  float64 `csv:"radius_std"`
	RadiusP10  float64 `csv:"radius_p10"`
	RadiusP50  float64 `csv:"radius_p50"`
	RadiusP90  float64 `csv:"radius_p90"`
	RadiusMax  float64 `csv:"radius_max"`

	// Mass-weighted mean speed, px/s
	MeanSpeed float64 `csv:"mean_speed"`

	// Particles still inside a post-explosion merge cooldown
	CoolingDown int `csv:"cooling_down"`
}

// Percentile returns the p-th quantile of a sorted slice using linear
// interpolation between order statistics. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case len(sorted) == 1:
		return sorted[0]
	case p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// PopulationStats describes the particle set at a point in time.
type PopulationStats struct {
	Count       int
	TotalMass   float64
	RadiusMean  float64
	RadiusStd   float64
	RadiusP10   float64
	RadiusP50   float64
	RadiusP90   float64
	RadiusMax   float64
	MeanSpeed   float64
	CoolingDown int
}

// ComputePopulationStats summarises radii, mass and speed.
// The standard deviation is the unbiased sample estimate; a single particle
// reports zero spread.
func ComputePopulationStats(particles []components.Particle, now time.Duration) PopulationStats {
	n := len(particles)
	if n == 0 {
		return PopulationStats{}
	}

	radii := make([]float64, n)
	masses := make([]float64, n)
	speeds := make([]float64, n)
	cooling := 0
	for i := range particles {
		p := &particles[i]
		radii[i] = p.Radius
		masses[i] = p.Mass()
		speeds[i] = p.Vel.Speed()
		if !p.CanMerge(now) {
			cooling++
		}
	}

	totalMass := floats.Sum(masses)
	var meanSpeed float64
	if totalMass > 0 {
		meanSpeed = stat.Mean(speeds, masses)
	}

	mean, std := radii[0], 0.0
	if n > 1 {
		mean, std = stat.MeanStdDev(radii, nil)
	}

	sort.Float64s(radii)
	return PopulationStats{
		Count:       n,
		TotalMass:   totalMass,
		RadiusMean:  mean,
		RadiusStd:   std,
		RadiusP10:   Percentile(radii, 0.10),
		RadiusP50:   Percentile(radii, 0.50),
		RadiusP90:   Percentile(radii, 0.90),
		RadiusMax:   floats.Max(radii),
		MeanSpeed:   meanSpeed,
		CoolingDown: cooling,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("window_end", s.WindowEndSec),
		slog.Int("frames", s.Frames),
		slog.Int("particles", s.Particles),
		slog.Float64("total_mass", s.TotalMass),
		slog.Int("merges", s.Merges),
		slog.Int("explosions", s.Explosions),
		slog.Int("fragments", s.Fragments),
		slog.Int("reallocations", s.Reallocations),
		slog.Float64("radius_mean", s.RadiusMean),
		slog.Float64("radius_p50", s.RadiusP50),
		slog.Float64("radius_max", s.RadiusMax),
		slog.Float64("mean_speed", s.MeanSpeed),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
