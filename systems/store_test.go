package systems

import (
	"testing"

	"github.com/pthm-cable/metaballs/components"
)

// tagged returns particles whose radius identifies them.
func tagged(radii ...float64) []components.Particle {
	ps := make([]components.Particle, len(radii))
	for i, r := range radii {
		ps[i] = components.Particle{Radius: r}
	}
	return ps
}

func radii(s *Store) []float64 {
	out := make([]float64, 0, s.Len())
	for _, p := range s.All() {
		out = append(out, p.Radius)
	}
	return out
}

func equalRadii(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestStoreRemovePreservesOrder(t *testing.T) {
	s := NewStore(8)
	s.Append(tagged(1, 2, 3, 4, 5, 6)...)
	gen := s.Generation()

	removed := s.Remove([]bool{false, true, false, true, true, false})
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	equalRadii(t, radii(s), []float64{1, 3, 6})
	if s.Generation() == gen {
		t.Error("generation not bumped after removal")
	}
}

func TestStoreRemoveNothing(t *testing.T) {
	s := NewStore(4)
	s.Append(tagged(1, 2)...)
	gen := s.Generation()

	if removed := s.Remove(make([]bool, 2)); removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
	if s.Generation() != gen {
		t.Error("generation bumped without a size change")
	}
}

func TestStoreSplice(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		at       int
		with     []float64
		want     []float64
	}{
		{"grow in place", 16, 1, []float64{7, 8, 9}, []float64{1, 7, 8, 9, 3, 4}},
		{"grow reallocating", 4, 1, []float64{7, 8, 9}, []float64{1, 7, 8, 9, 3, 4}},
		{"first", 16, 0, []float64{7, 8}, []float64{7, 8, 2, 3, 4}},
		{"last", 16, 3, []float64{7, 8}, []float64{1, 2, 3, 7, 8}},
		{"replace one", 16, 2, []float64{7}, []float64{1, 2, 7, 4}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore(tc.capacity)
			s.Append(tagged(1, 2, 3, 4)...)
			gen := s.Generation()

			s.Splice(tc.at, tagged(tc.with...))
			equalRadii(t, radii(s), tc.want)

			bumped := s.Generation() != gen
			if bumped != (len(tc.with) != 1) {
				t.Errorf("generation bumped = %v with %d replacements", bumped, len(tc.with))
			}
		})
	}
}

func TestStoreGenerationTracksLen(t *testing.T) {
	s := NewStore(0)
	seen := map[uint64]bool{s.Generation(): true}

	step := func(name string) {
		if seen[s.Generation()] {
			t.Fatalf("%s: generation %d reused", name, s.Generation())
		}
		seen[s.Generation()] = true
	}

	s.Append(tagged(1, 2, 3)...)
	step("append")
	s.Splice(0, tagged(4, 5))
	step("splice")
	s.Remove([]bool{true, false, false, false})
	step("remove")
	s.Reset(tagged(9))
	step("reset")
}

func TestStoreTotalMass(t *testing.T) {
	s := NewStore(2)
	s.Append(tagged(3, 4)...)
	if got := s.TotalMass(); got != 25 {
		t.Errorf("TotalMass = %v, want 25", got)
	}
}

func TestStoreRewrap(t *testing.T) {
	s := NewStore(1)
	s.Append(components.Particle{Pos: components.Position{X: 900, Y: -10}, Radius: 1})
	s.Rewrap(components.Viewport{Width: 400, Height: 300})

	p := s.At(0).Pos
	if p.X != 100 || p.Y != 290 {
		t.Errorf("rewrapped position = %+v, want (100, 290)", p)
	}
}
