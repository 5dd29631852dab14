package systems

import (
	"math/rand"

	"github.com/pthm-cable/metaballs/components"
)

// SpawnParams configures the initial population.
type SpawnParams struct {
	Count        int
	MinRadius    float64 // fraction of the average viewport dimension
	MaxRadius    float64
	MaxVelocity  float64 // fraction of the viewport extent, per axis
	Attempts     int     // placement attempts before accepting an overlap
	Clearance    float64 // extra pixels kept between spawned particles
	SaturatedMin float64 // lower bound of the dominant colour channel
}

// DefaultSpawnParams returns the reference start-up population.
func DefaultSpawnParams() SpawnParams {
	return SpawnParams{
		Count:        10,
		MinRadius:    0.02,
		MaxRadius:    0.08,
		MaxVelocity:  0.1,
		Attempts:     50,
		Clearance:    20,
		SaturatedMin: 0.7,
	}
}

// Spawner creates randomly placed, vividly coloured particles.
type Spawner struct {
	params SpawnParams
	rng    *rand.Rand
}

// NewSpawner creates a spawner drawing from rng.
func NewSpawner(params SpawnParams, rng *rand.Rand) *Spawner {
	if params.Attempts < 1 {
		params.Attempts = 1
	}
	if params.MaxRadius < params.MinRadius {
		params.MaxRadius = params.MinRadius
	}
	return &Spawner{params: params, rng: rng}
}

// Populate returns Count particles placed in vp, avoiding overlap where the
// attempt budget allows.
func (s *Spawner) Populate(vp components.Viewport) []components.Particle {
	if !vp.Valid() || s.params.Count <= 0 {
		return nil
	}
	particles := make([]components.Particle, 0, s.params.Count)
	for range s.params.Count {
		particles = append(particles, s.Spawn(vp, particles))
	}
	return particles
}

// Spawn creates one particle, retrying placement until it keeps clear of
// existing or the attempt budget runs out (the last try is kept).
func (s *Spawner) Spawn(vp components.Viewport, existing []components.Particle) components.Particle {
	avg := vp.AvgDimension()

	var pos components.Position
	var radius float64
	for attempt := 0; attempt < s.params.Attempts; attempt++ {
		pos = components.Position{
			X: s.rng.Float64() * vp.Width,
			Y: s.rng.Float64() * vp.Height,
		}
		radius = (s.params.MinRadius + s.rng.Float64()*(s.params.MaxRadius-s.params.MinRadius)) * avg

		if !s.tooClose(pos, radius, existing, vp) {
			break
		}
	}

	color := s.color()

	vel := components.Velocity{
		X: (s.rng.Float64()*2 - 1) * s.params.MaxVelocity * vp.Width,
		Y: (s.rng.Float64()*2 - 1) * s.params.MaxVelocity * vp.Height,
	}

	return components.Particle{
		Pos:    WrapPosition(pos, vp),
		Vel:    vel,
		Radius: radius,
		Color:  color,
	}
}

func (s *Spawner) tooClose(pos components.Position, radius float64, existing []components.Particle, vp components.Viewport) bool {
	for i := range existing {
		minDistance := radius + existing[i].Radius + s.params.Clearance
		if ToroidalDistance(pos, existing[i].Pos, vp) < minDistance {
			return true
		}
	}
	return false
}

// color picks one of three hue buckets and saturates its channel.
func (s *Spawner) color() components.Color {
	hue := s.rng.Float64()
	lo := 1 - s.params.SaturatedMin
	dominant := func() float64 { return s.params.SaturatedMin + s.rng.Float64()*lo }
	weak := func() float64 { return s.rng.Float64() * lo }

	var c components.Color
	switch {
	case hue < 0.33:
		c.R = dominant()
		c.G = weak()
		c.B = weak()
	case hue < 0.66:
		c.R = weak()
		c.G = dominant()
		c.B = weak()
	default:
		c.R = weak()
		c.G = weak()
		c.B = dominant()
	}
	return c
}
