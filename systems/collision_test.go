package systems

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/pthm-cable/metaballs/components"
)

func newTestRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func ball(x, y, r float64) components.Particle {
	return components.Particle{
		Pos:    components.Position{X: x, Y: y},
		Vel:    components.Velocity{X: 60},
		Radius: r,
		Color:  components.Color{R: 0.5, G: 0.5, B: 0.5},
	}
}

func TestCollisionMergeThreshold(t *testing.T) {
	vp := components.Viewport{Width: 800, Height: 600}

	tests := []struct {
		name      string
		distance  float64
		wantCount int
	}{
		{"overlapping", 17, 1},
		{"at threshold", 18, 2},
		{"apart", 25, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore(2)
			s.Append(ball(100, 100, 10), ball(100+tc.distance, 100, 10))

			report := NewCollisionSystem(DefaultCollisionParams(), newTestRand(1)).Update(s, vp, 0)
			if s.Len() != tc.wantCount {
				t.Fatalf("count = %d, want %d", s.Len(), tc.wantCount)
			}
			if tc.wantCount == 1 {
				if report.Merges != 1 || report.Removed != 1 {
					t.Errorf("report = %+v, want one merge and one removal", report)
				}
				if r := s.At(0).Radius; math.Abs(r-math.Sqrt(200)) > 1e-9 {
					t.Errorf("merged radius = %v, want %v", r, math.Sqrt(200))
				}
				if x := s.At(0).Pos.X; math.Abs(x-(100+tc.distance/2)) > 1e-9 {
					t.Errorf("merged x = %v, want midpoint", x)
				}
			}
		})
	}
}

func TestCollisionMergeAcrossEdge(t *testing.T) {
	vp := components.Viewport{Width: 800, Height: 600}
	s := NewStore(2)
	s.Append(ball(796, 300, 10), ball(4, 300, 10))

	NewCollisionSystem(DefaultCollisionParams(), newTestRand(1)).Update(s, vp, 0)

	if s.Len() != 1 {
		t.Fatalf("count = %d, want 1", s.Len())
	}
	// Midpoint of 796 and the unwrapped 804 is 800, which wraps to 0
	if p := s.At(0).Pos; p.X != 0 || p.Y != 300 {
		t.Errorf("merged position = %+v, want (0, 300)", p)
	}
}

func TestCollisionMassWeightedAverages(t *testing.T) {
	vp := components.Viewport{Width: 800, Height: 600}
	a := components.Particle{
		Pos: components.Position{X: 100, Y: 100}, Vel: components.Velocity{X: 100},
		Radius: 3, Color: components.Color{R: 1},
	}
	b := components.Particle{
		Pos: components.Position{X: 104, Y: 100}, Vel: components.Velocity{Y: 200},
		Radius: 4, Color: components.Color{B: 1},
	}
	s := NewStore(2)
	s.Append(a, b)

	params := DefaultCollisionParams()
	params.ColorJitter = 0
	NewCollisionSystem(params, newTestRand(1)).Update(s, vp, 0)

	got := s.At(0)
	if math.Abs(got.Radius-5) > 1e-9 {
		t.Errorf("radius = %v, want 5", got.Radius)
	}
	// m1 = 9, m2 = 16, M = 25
	if math.Abs(got.Pos.X-(100*9+104*16)/25.0) > 1e-9 {
		t.Errorf("x = %v", got.Pos.X)
	}
	if math.Abs(got.Vel.X-36) > 1e-9 || math.Abs(got.Vel.Y-128) > 1e-9 {
		t.Errorf("velocity = %+v, want (36, 128)", got.Vel)
	}
	if math.Abs(got.Color.R-0.36) > 1e-9 || got.Color.G != 0 || math.Abs(got.Color.B-0.64) > 1e-9 {
		t.Errorf("colour = %+v, want (0.36, 0, 0.64)", got.Color)
	}
}

func TestCollisionColorStaysInRange(t *testing.T) {
	vp := components.Viewport{Width: 800, Height: 600}
	params := DefaultCollisionParams()
	params.ColorJitter = 4

	for seed := int64(0); seed < 50; seed++ {
		s := NewStore(2)
		white := ball(100, 100, 10)
		white.Color = components.Color{R: 1, G: 1, B: 1}
		black := ball(105, 100, 10)
		black.Color = components.Color{}
		s.Append(white, black)

		NewCollisionSystem(params, newTestRand(seed)).Update(s, vp, 0)
		c := s.At(0).Color
		for _, ch := range []float64{c.R, c.G, c.B} {
			if ch < 0 || ch > 1 {
				t.Fatalf("seed %d: channel %v out of range", seed, ch)
			}
		}
	}
}

func TestCollisionMergeRestoresVelocityFloor(t *testing.T) {
	vp := components.Viewport{Width: 800, Height: 600}
	a := ball(100, 100, 10)
	a.Vel = components.Velocity{X: 60}
	b := ball(105, 100, 10)
	b.Vel = components.Velocity{X: -60}

	s := NewStore(2)
	s.Append(a, b)
	NewCollisionSystem(DefaultCollisionParams(), newTestRand(1)).Update(s, vp, 0)

	if speed := s.At(0).Vel.Speed(); speed < DefaultMinVelocity-1e-9 {
		t.Errorf("merged speed %v below floor", speed)
	}
}

func TestCollisionCooldown(t *testing.T) {
	vp := components.Viewport{Width: 800, Height: 600}
	until := 1500 * time.Millisecond

	tests := []struct {
		name      string
		cooledA   bool
		cooledB   bool
		now       time.Duration
		wantCount int
	}{
		{"both cooling", true, true, until - time.Millisecond, 2},
		{"one cooling", true, false, until - time.Millisecond, 2},
		{"other cooling", false, true, until - time.Millisecond, 2},
		{"expired exactly", true, true, until, 1},
		{"expired", true, true, until + time.Second, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := ball(100, 100, 10)
			b := ball(105, 100, 10)
			if tc.cooledA {
				a.MergeCooldownUntil = until
			}
			if tc.cooledB {
				b.MergeCooldownUntil = until
			}
			s := NewStore(2)
			s.Append(a, b)

			NewCollisionSystem(DefaultCollisionParams(), newTestRand(1)).Update(s, vp, tc.now)
			if s.Len() != tc.wantCount {
				t.Errorf("count = %d, want %d", s.Len(), tc.wantCount)
			}
		})
	}
}

func TestCollisionChainMerges(t *testing.T) {
	vp := components.Viewport{Width: 800, Height: 600}
	s := NewStore(3)
	s.Append(ball(100, 100, 10), ball(110, 100, 10), ball(125, 100, 10))
	gen := s.Generation()

	report := NewCollisionSystem(DefaultCollisionParams(), newTestRand(1)).Update(s, vp, 0)

	if report.Merges != 2 || s.Len() != 1 {
		t.Fatalf("report = %+v, len = %d; want two merges into one particle", report, s.Len())
	}
	if math.Abs(s.At(0).Radius-math.Sqrt(300)) > 1e-9 {
		t.Errorf("radius = %v, want %v", s.At(0).Radius, math.Sqrt(300))
	}
	if s.Generation() == gen {
		t.Error("generation not bumped")
	}
}

func TestCollisionConservesMass(t *testing.T) {
	vp := components.Viewport{Width: 640, Height: 480}
	rng := newTestRand(42)

	s := NewStore(0)
	params := DefaultSpawnParams()
	params.Count = 80
	params.Attempts = 1
	s.Append(NewSpawner(params, rng).Populate(vp)...)

	before := s.TotalMass()
	kin := NewKinematicsSystem(DefaultMinVelocity)
	col := NewCollisionSystem(DefaultCollisionParams(), rng)
	for range 200 {
		kin.Update(s, vp, 1.0/60)
		col.Update(s, vp, 0)
	}

	if after := s.TotalMass(); math.Abs(after-before) > 1e-6*before {
		t.Errorf("total mass drifted from %v to %v", before, after)
	}
}

func TestCollisionGridMatchesPairs(t *testing.T) {
	for _, vp := range []components.Viewport{
		{Width: 800, Height: 600},
		{Width: 333, Height: 250}, // extents not a multiple of the cell size
	} {
		for seed := int64(1); seed <= 5; seed++ {
			spawn := DefaultSpawnParams()
			spawn.Count = 60
			spawn.Attempts = 1
			population := NewSpawner(spawn, newTestRand(seed)).Populate(vp)

			// Stagger cooldowns so some pairs are ineligible
			for i := range population {
				if i%7 == 0 {
					population[i].MergeCooldownUntil = time.Second
				}
			}

			pairsStore := NewStore(0)
			pairsStore.Append(population...)
			gridStore := NewStore(0)
			gridStore.Append(population...)

			pairsParams := DefaultCollisionParams()
			gridParams := DefaultCollisionParams()
			gridParams.BroadPhase = BroadPhaseGrid
			gridParams.GridCellSize = 32

			pairs := NewCollisionSystem(pairsParams, newTestRand(seed))
			grid := NewCollisionSystem(gridParams, newTestRand(seed))
			kin := NewKinematicsSystem(DefaultMinVelocity)

			for frame := range 60 {
				now := time.Duration(frame) * 50 * time.Millisecond
				kin.Update(pairsStore, vp, 1.0/20)
				kin.Update(gridStore, vp, 1.0/20)

				pr := pairs.Update(pairsStore, vp, now)
				gr := grid.Update(gridStore, vp, now)
				if pr != gr {
					t.Fatalf("vp %v seed %d frame %d: pairs %+v, grid %+v", vp, seed, frame, pr, gr)
				}
				if pairsStore.Len() != gridStore.Len() {
					t.Fatalf("vp %v seed %d frame %d: len %d vs %d", vp, seed, frame, pairsStore.Len(), gridStore.Len())
				}
				for i := range pairsStore.All() {
					if *pairsStore.At(i) != *gridStore.At(i) {
						t.Fatalf("vp %v seed %d frame %d: particle %d differs", vp, seed, frame, i)
					}
				}
			}
		}
	}
}

func TestParseBroadPhase(t *testing.T) {
	for in, want := range map[string]BroadPhase{"": BroadPhasePairs, "pairs": BroadPhasePairs, "grid": BroadPhaseGrid} {
		got, err := ParseBroadPhase(in)
		if err != nil || got != want {
			t.Errorf("ParseBroadPhase(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseBroadPhase("octree"); err == nil {
		t.Error("expected error for unknown broad phase")
	}
}
