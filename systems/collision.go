package systems

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/pthm-cable/metaballs/components"
)

// BroadPhase selects how merge candidates are enumerated.
type BroadPhase string

const (
	// BroadPhasePairs examines every unordered pair.
	BroadPhasePairs BroadPhase = "pairs"
	// BroadPhaseGrid restricts candidates with a spatial grid.
	BroadPhaseGrid BroadPhase = "grid"
)

// ParseBroadPhase converts a config string into a BroadPhase.
func ParseBroadPhase(s string) (BroadPhase, error) {
	switch BroadPhase(s) {
	case BroadPhasePairs, "":
		return BroadPhasePairs, nil
	case BroadPhaseGrid:
		return BroadPhaseGrid, nil
	}
	return "", fmt.Errorf("unknown broad phase %q", s)
}

// CollisionParams configures the merge stage.
type CollisionParams struct {
	MergeFactor  float64 // merge when distance < MergeFactor * (r1 + r2)
	ColorJitter  float64 // full width of the zero-mean colour jitter
	MinVelocity  float64 // speed floor re-applied to merged particles
	BroadPhase   BroadPhase
	GridCellSize float64
}

// DefaultCollisionParams returns the reference merge behaviour.
func DefaultCollisionParams() CollisionParams {
	return CollisionParams{
		MergeFactor:  0.9,
		ColorJitter:  0.05,
		MinVelocity:  DefaultMinVelocity,
		BroadPhase:   BroadPhasePairs,
		GridCellSize: 64,
	}
}

// MergeReport summarises one collision pass.
type MergeReport struct {
	Merges  int // number of pairs merged
	Removed int // particles removed by compaction
}

// CollisionSystem detects overlapping particles and merges them.
type CollisionSystem struct {
	params CollisionParams
	rng    *rand.Rand
	grid   *SpatialGrid

	// scratch reused across frames
	marked     []bool
	candidates []int
}

// NewCollisionSystem creates a merge stage.
func NewCollisionSystem(params CollisionParams, rng *rand.Rand) *CollisionSystem {
	s := &CollisionSystem{params: params, rng: rng}
	if params.BroadPhase == BroadPhaseGrid {
		s.grid = NewSpatialGrid(params.GridCellSize)
	}
	return s
}

// Update runs one merge pass over the store at simulation time now.
// Particle i absorbs particle j in place; absorbed particles are removed in a
// single compaction pass after the scan.
func (s *CollisionSystem) Update(store *Store, vp components.Viewport, now time.Duration) MergeReport {
	n := store.Len()
	if n < 2 || !vp.Valid() {
		return MergeReport{}
	}

	s.marked = resetMarks(s.marked, n)

	var report MergeReport
	if s.grid != nil {
		report.Merges = s.scanGrid(store, vp, now)
	} else {
		report.Merges = s.scanPairs(store, vp, now)
	}

	if report.Merges > 0 {
		report.Removed = store.Remove(s.marked)
	}
	return report
}

// scanPairs examines all unordered pairs i < j.
func (s *CollisionSystem) scanPairs(store *Store, vp components.Viewport, now time.Duration) int {
	particles := store.All()
	merges := 0

	for i := range particles {
		if s.marked[i] {
			continue
		}
		for j := i + 1; j < len(particles); j++ {
			if s.marked[j] {
				continue
			}
			if s.tryMerge(particles, i, j, vp, now) {
				merges++
			}
		}
	}
	return merges
}

// scanGrid visits the same pairs as scanPairs, in the same order, but only
// those a grid query can place within merge range. Particles j > i have not
// moved yet this pass, so one grid built from the pre-scan positions serves
// the whole scan; i is re-queried after every merge because it moves and grows.
func (s *CollisionSystem) scanGrid(store *Store, vp components.Viewport, now time.Duration) int {
	particles := store.All()
	s.grid.Rebuild(particles, vp)

	maxRadius := 0.0
	for i := range particles {
		maxRadius = max(maxRadius, particles[i].Radius)
	}

	merges := 0
	for i := range particles {
		if s.marked[i] || !particles[i].CanMerge(now) {
			continue
		}

		cursor := i
		for {
			reach := s.params.MergeFactor * (particles[i].Radius + maxRadius)
			s.candidates = s.grid.QueryInto(s.candidates[:0], particles[i].Pos.X, particles[i].Pos.Y, reach)

			merged := false
			for _, j := range s.candidates {
				if j <= cursor || s.marked[j] {
					continue
				}
				if s.tryMerge(particles, i, j, vp, now) {
					merges++
					cursor = j
					merged = true
					break
				}
			}
			if !merged {
				break
			}
		}
	}
	return merges
}

// tryMerge merges j into i when both are eligible and overlapping.
func (s *CollisionSystem) tryMerge(particles []components.Particle, i, j int, vp components.Viewport, now time.Duration) bool {
	a := &particles[i]
	b := &particles[j]

	// Skip if either particle is on cooldown
	if !a.CanMerge(now) || !b.CanMerge(now) {
		return false
	}

	distance := ToroidalDistance(a.Pos, b.Pos, vp)
	if distance >= s.params.MergeFactor*(a.Radius+b.Radius) {
		return false
	}

	s.merge(a, b, vp)
	s.marked[j] = true
	return true
}

// merge folds b into a, conserving mass and momentum.
func (s *CollisionSystem) merge(a, b *components.Particle, vp components.Viewport) {
	m1 := a.Mass()
	m2 := b.Mass()
	total := m1 + m2

	// Resolve b into the frame nearest a before averaging
	bp := unwrapNear(a.Pos, b.Pos, vp)
	a.Pos = WrapPosition(components.Position{
		X: (a.Pos.X*m1 + bp.X*m2) / total,
		Y: (a.Pos.Y*m1 + bp.Y*m2) / total,
	}, vp)

	a.Radius = math.Sqrt(total)

	a.Vel = enforceMinSpeed(components.Velocity{
		X: (a.Vel.X*m1 + b.Vel.X*m2) / total,
		Y: (a.Vel.Y*m1 + b.Vel.Y*m2) / total,
	}, s.params.MinVelocity)

	// Colour weighted by mass with slight randomness to maintain variance
	a.Color = components.Color{
		R: clamp01((a.Color.R*m1+b.Color.R*m2)/total + s.jitter()),
		G: clamp01((a.Color.G*m1+b.Color.G*m2)/total + s.jitter()),
		B: clamp01((a.Color.B*m1+b.Color.B*m2)/total + s.jitter()),
	}
}

// jitter returns a zero-mean sample in [-ColorJitter/2, ColorJitter/2).
func (s *CollisionSystem) jitter() float64 {
	return (s.rng.Float64() - 0.5) * s.params.ColorJitter
}

// resetMarks returns a cleared mark slice of length n, reusing buf.
func resetMarks(buf []bool, n int) []bool {
	if cap(buf) < n {
		return make([]bool, n)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}
