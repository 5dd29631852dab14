// Package systems contains the simulation stages that advance the particle
// store once per frame.
package systems

import "github.com/pthm-cable/metaballs/components"

// Store owns the authoritative, ordered list of particles.
//
// Order carries no simulation meaning but is stable within a frame: stages
// address particles by index and removal never reorders survivors.
// Every change to the particle count bumps the generation counter, which the
// render buffer builder compares to decide when to reallocate.
type Store struct {
	particles  []components.Particle
	generation uint64
}

// NewStore creates an empty store with room for capacity particles.
func NewStore(capacity int) *Store {
	return &Store{particles: make([]components.Particle, 0, capacity)}
}

// Len returns the current particle count.
func (s *Store) Len() int {
	return len(s.particles)
}

// Generation returns a counter that changes whenever Len changes.
func (s *Store) Generation() uint64 {
	return s.generation
}

// All returns the particles in store order.
// The slice aliases the store and is only valid until the next structural
// change (Remove, Append, Splice, Reset).
func (s *Store) All() []components.Particle {
	return s.particles
}

// At returns a pointer to the particle at index i for in-place mutation.
func (s *Store) At(i int) *components.Particle {
	return &s.particles[i]
}

// Set replaces the particle at index i.
func (s *Store) Set(i int, p components.Particle) {
	s.particles[i] = p
}

// Append adds particles at the end of the store.
func (s *Store) Append(ps ...components.Particle) {
	if len(ps) == 0 {
		return
	}
	s.particles = append(s.particles, ps...)
	s.generation++
}

// Remove deletes every particle whose index is marked, in a single
// compaction pass that preserves the relative order of the survivors.
// marked must be at least Len() long. Returns the number removed.
func (s *Store) Remove(marked []bool) int {
	w := 0
	for r := range s.particles {
		if marked[r] {
			continue
		}
		if w != r {
			s.particles[w] = s.particles[r]
		}
		w++
	}
	removed := len(s.particles) - w
	if removed == 0 {
		return 0
	}
	clear(s.particles[w:])
	s.particles = s.particles[:w]
	s.generation++
	return removed
}

// Splice replaces the particle at index i with ps, keeping ps in order at
// position i. The store grows by len(ps)-1.
func (s *Store) Splice(i int, ps []components.Particle) {
	n := len(s.particles)
	tail := n - i - 1

	grown := n - 1 + len(ps)
	if grown > cap(s.particles) {
		next := make([]components.Particle, grown, grown+grown/2)
		copy(next, s.particles[:i])
		copy(next[i+len(ps):], s.particles[i+1:])
		s.particles = next
	} else {
		s.particles = s.particles[:grown]
		copy(s.particles[i+len(ps):], s.particles[i+1:i+1+tail])
	}
	copy(s.particles[i:], ps)

	if len(ps) != 1 {
		s.generation++
	}
}

// Reset replaces the whole population.
func (s *Store) Reset(ps []components.Particle) {
	s.particles = append(s.particles[:0], ps...)
	s.generation++
}

// TotalMass returns the sum of radius squared over all particles.
func (s *Store) TotalMass() float64 {
	var m float64
	for i := range s.particles {
		m += s.particles[i].Mass()
	}
	return m
}

// Rewrap moves every particle back into the viewport, used after a resize.
func (s *Store) Rewrap(vp components.Viewport) {
	for i := range s.particles {
		s.particles[i].Pos = WrapPosition(s.particles[i].Pos, vp)
	}
}
