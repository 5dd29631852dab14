package systems

import (
	"testing"

	"github.com/pthm-cable/metaballs/components"
)

func TestSpawnerPopulate(t *testing.T) {
	vp := components.Viewport{Width: 1280, Height: 720}
	params := DefaultSpawnParams()
	particles := NewSpawner(params, newTestRand(9)).Populate(vp)

	if len(particles) != params.Count {
		t.Fatalf("spawned %d, want %d", len(particles), params.Count)
	}

	avg := vp.AvgDimension()
	for i, p := range particles {
		if p.Radius < params.MinRadius*avg || p.Radius >= params.MaxRadius*avg {
			t.Errorf("particle %d radius %v out of range", i, p.Radius)
		}
		if p.Pos.X < 0 || p.Pos.X >= vp.Width || p.Pos.Y < 0 || p.Pos.Y >= vp.Height {
			t.Errorf("particle %d at %+v outside viewport", i, p.Pos)
		}
		if abs(p.Vel.X) > 0.1*vp.Width || abs(p.Vel.Y) > 0.1*vp.Height {
			t.Errorf("particle %d velocity %+v too fast", i, p.Vel)
		}

		// Exactly one dominant channel
		dominant := 0
		for _, ch := range []float64{p.Color.R, p.Color.G, p.Color.B} {
			if ch >= params.SaturatedMin {
				dominant++
			} else if ch >= 1-params.SaturatedMin {
				t.Errorf("particle %d weak channel %v too bright", i, ch)
			}
		}
		if dominant != 1 {
			t.Errorf("particle %d colour %+v has %d dominant channels", i, p.Color, dominant)
		}
	}
}

func TestSpawnerKeepsClearance(t *testing.T) {
	vp := components.Viewport{Width: 1280, Height: 720}
	params := DefaultSpawnParams()
	params.Count = 4
	params.MaxRadius = 0.03
	params.Attempts = 500

	particles := NewSpawner(params, newTestRand(2)).Populate(vp)
	for i := range particles {
		for j := i + 1; j < len(particles); j++ {
			d := ToroidalDistance(particles[i].Pos, particles[j].Pos, vp)
			if d < particles[i].Radius+particles[j].Radius+params.Clearance {
				t.Errorf("particles %d and %d too close: %v", i, j, d)
			}
		}
	}
}

func TestSpawnerInvalidViewport(t *testing.T) {
	if got := NewSpawner(DefaultSpawnParams(), newTestRand(1)).Populate(components.Viewport{}); got != nil {
		t.Errorf("Populate on empty viewport = %v, want nil", got)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
