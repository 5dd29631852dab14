package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/metaballs/components"
)

func TestKinematicsIntegratesAndWraps(t *testing.T) {
	vp := components.Viewport{Width: 800, Height: 600}
	s := NewStore(2)
	s.Append(
		components.Particle{Pos: components.Position{X: 790, Y: 300}, Vel: components.Velocity{X: 100}, Radius: 5},
		components.Particle{Pos: components.Position{X: 100, Y: 5}, Vel: components.Velocity{Y: -100}, Radius: 5},
	)

	NewKinematicsSystem(DefaultMinVelocity).Update(s, vp, 0.2)

	a := s.At(0).Pos
	if math.Abs(a.X-10) > 1e-9 || a.Y != 300 {
		t.Errorf("particle 0 at %+v, want (10, 300)", a)
	}
	b := s.At(1).Pos
	if b.X != 100 || math.Abs(b.Y-585) > 1e-9 {
		t.Errorf("particle 1 at %+v, want (100, 585)", b)
	}
}

func TestKinematicsVelocityFloor(t *testing.T) {
	vp := components.Viewport{Width: 800, Height: 600}
	s := NewStore(3)
	s.Append(
		components.Particle{Pos: components.Position{X: 400, Y: 300}, Vel: components.Velocity{X: 3, Y: 4}, Radius: 5},
		components.Particle{Pos: components.Position{X: 400, Y: 300}, Radius: 5},
		components.Particle{Pos: components.Position{X: 400, Y: 300}, Vel: components.Velocity{X: -300}, Radius: 5},
	)

	NewKinematicsSystem(50).Update(s, vp, 1.0/60)

	for i, p := range s.All() {
		if p.Vel.Speed() < 50-1e-9 {
			t.Errorf("particle %d speed %v below floor", i, p.Vel.Speed())
		}
	}
	v := s.At(0).Vel
	if math.Abs(v.X-30) > 1e-9 || math.Abs(v.Y-40) > 1e-9 {
		t.Errorf("slow particle velocity %+v, want (30, 40)", v)
	}
	if got := s.At(2).Vel; got.X != -300 {
		t.Errorf("fast particle velocity changed to %+v", got)
	}
}

func TestKinematicsIgnoresBadDelta(t *testing.T) {
	vp := components.Viewport{Width: 800, Height: 600}
	sys := NewKinematicsSystem(50)

	for _, dt := range []float64{0, -0.1, math.NaN(), math.Inf(1)} {
		s := NewStore(1)
		s.Append(components.Particle{Pos: components.Position{X: 1, Y: 2}, Vel: components.Velocity{X: 1}, Radius: 5})
		sys.Update(s, vp, dt)

		p := s.At(0)
		if p.Pos.X != 1 || p.Pos.Y != 2 || p.Vel.X != 1 {
			t.Errorf("dt=%v mutated particle: %+v", dt, *p)
		}
	}
}

func TestKinematicsWrapInvariant(t *testing.T) {
	vp := components.Viewport{Width: 320, Height: 200}
	s := NewStore(0)
	s.Append(NewSpawner(DefaultSpawnParams(), newTestRand(7)).Populate(vp)...)

	sys := NewKinematicsSystem(DefaultMinVelocity)
	for frame := 0; frame < 500; frame++ {
		sys.Update(s, vp, 1.0/30)
		for i, p := range s.All() {
			if p.Pos.X < 0 || p.Pos.X >= vp.Width || p.Pos.Y < 0 || p.Pos.Y >= vp.Height {
				t.Fatalf("frame %d: particle %d escaped to %+v", frame, i, p.Pos)
			}
		}
	}
}
