package systems

import (
	"math"
	"math/rand"
	"time"

	"github.com/pthm-cable/metaballs/components"
)

// FragmentationParams configures explosions.
type FragmentationParams struct {
	MinFragments  int
	MaxFragments  int
	MinSpeed      float64 // added speed, pixels per second
	MaxSpeed      float64
	ColorJitter   float64 // full width of the per-channel colour jitter
	MergeCooldown time.Duration
}

// DefaultFragmentationParams returns the reference explosion behaviour.
func DefaultFragmentationParams() FragmentationParams {
	return FragmentationParams{
		MinFragments:  3,
		MaxFragments:  5,
		MinSpeed:      300,
		MaxSpeed:      700,
		ColorJitter:   0.5,
		MergeCooldown: time.Second,
	}
}

// Explosion describes one fragmented particle.
type Explosion struct {
	Index     int                 // store index of the exploded particle
	Original  components.Particle // particle before it was replaced
	Fragments int
}

// FragmentationSystem splits picked particles into fast-moving fragments.
type FragmentationSystem struct {
	params FragmentationParams
	rng    *rand.Rand

	fragments []components.Particle
}

// NewFragmentationSystem creates an explosion stage.
func NewFragmentationSystem(params FragmentationParams, rng *rand.Rand) *FragmentationSystem {
	if params.MinFragments < 1 {
		params.MinFragments = 1
	}
	if params.MaxFragments < params.MinFragments {
		params.MaxFragments = params.MinFragments
	}
	if params.MaxSpeed < params.MinSpeed {
		params.MaxSpeed = params.MinSpeed
	}
	return &FragmentationSystem{params: params, rng: rng}
}

// Pick returns the index of the first particle in store order whose
// toroidal distance to point is less than its radius, or -1.
func Pick(store *Store, vp components.Viewport, point components.Position) int {
	if !vp.Valid() || !finite(point.X) || !finite(point.Y) {
		return -1
	}
	point = WrapPosition(point, vp)
	for i, p := range store.All() {
		if ToroidalDistance(p.Pos, point, vp) < p.Radius {
			return i
		}
	}
	return -1
}

// Explode fragments the particle under point at simulation time now.
// Returns false when no particle contains the point.
func (s *FragmentationSystem) Explode(store *Store, vp components.Viewport, point components.Position, now time.Duration) (Explosion, bool) {
	idx := Pick(store, vp, point)
	if idx < 0 {
		return Explosion{}, false
	}

	original := *store.At(idx)
	n := s.params.MinFragments + s.rng.Intn(s.params.MaxFragments-s.params.MinFragments+1)

	radius := math.Sqrt(original.Mass() / float64(n))
	pos := WrapPosition(original.Pos, vp)
	cooldown := now + s.params.MergeCooldown

	s.fragments = s.fragments[:0]
	for range n {
		angle := s.rng.Float64() * 2 * math.Pi
		speed := s.params.MinSpeed + s.rng.Float64()*(s.params.MaxSpeed-s.params.MinSpeed)

		s.fragments = append(s.fragments, components.Particle{
			Pos: pos,
			Vel: components.Velocity{
				X: original.Vel.X + math.Cos(angle)*speed,
				Y: original.Vel.Y + math.Sin(angle)*speed,
			},
			Radius: radius,
			Color: components.Color{
				R: clamp01(original.Color.R + s.jitter()),
				G: clamp01(original.Color.G + s.jitter()),
				B: clamp01(original.Color.B + s.jitter()),
			},
			MergeCooldownUntil: cooldown,
		})
	}

	store.Splice(idx, s.fragments)

	return Explosion{Index: idx, Original: original, Fragments: n}, true
}

func (s *FragmentationSystem) jitter() float64 {
	return (s.rng.Float64() - 0.5) * s.params.ColorJitter
}
