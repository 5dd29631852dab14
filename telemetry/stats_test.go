package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/metaballs/components"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"negative p", []float64{1, 2, 3}, -1, 1.0},
		{"constant", []float64{7, 7, 7, 7}, 0.3, 7.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestPercentileMonotonic(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	prev := Percentile(sorted, 0)
	for p := 0.05; p <= 1; p += 0.05 {
		got := Percentile(sorted, p)
		if got < prev || got < 1 || got > 10 {
			t.Fatalf("Percentile at %v = %v after %v", p, got, prev)
		}
		prev = got
	}
}

func TestComputePopulationStats(t *testing.T) {
	particles := []components.Particle{
		{Radius: 10, Vel: components.Velocity{X: 100}},
		{Radius: 20, Vel: components.Velocity{Y: 50}, MergeCooldownUntil: 2 * time.Second},
	}

	s := ComputePopulationStats(particles, time.Second)

	if s.Count != 2 {
		t.Errorf("count = %d, want 2", s.Count)
	}
	if s.TotalMass != 500 {
		t.Errorf("total mass = %v, want 500", s.TotalMass)
	}
	if s.RadiusMean != 15 || s.RadiusMax != 20 {
		t.Errorf("radius mean/max = %v/%v, want 15/20", s.RadiusMean, s.RadiusMax)
	}
	// Sample standard deviation of {10, 20}
	if math.Abs(s.RadiusStd-math.Sqrt(50)) > 1e-9 {
		t.Errorf("radius std = %v, want %v", s.RadiusStd, math.Sqrt(50))
	}
	// (100*100 + 400*50) / 500
	if math.Abs(s.MeanSpeed-60) > 1e-9 {
		t.Errorf("mass-weighted speed = %v, want 60", s.MeanSpeed)
	}
	if s.CoolingDown != 1 {
		t.Errorf("cooling down = %d, want 1", s.CoolingDown)
	}
}

func TestComputePopulationStatsEdgeCases(t *testing.T) {
	if s := ComputePopulationStats(nil, 0); s != (PopulationStats{}) {
		t.Errorf("expected zero stats for empty population, got %+v", s)
	}

	s := ComputePopulationStats([]components.Particle{{Radius: 4}}, 0)
	if s.RadiusMean != 4 || s.RadiusStd != 0 || s.RadiusP50 != 4 {
		t.Errorf("unexpected single-particle stats: %+v", s)
	}
}
