package systems

import (
	"math"
	"slices"

	"github.com/pthm-cable/metaballs/components"
)

// SpatialGrid buckets particle indices into toroidally wrapped cells.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	viewport components.Viewport
	cells    [][]int // flat grid of particle index lists
}

// NewSpatialGrid creates a grid with the given cell size.
// The grid is sized lazily by Rebuild.
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	if cellSize <= 0 || !finite(cellSize) {
		cellSize = 64
	}
	return &SpatialGrid{cellSize: cellSize}
}

// Rebuild clears the grid and inserts every particle at its current position.
func (g *SpatialGrid) Rebuild(particles []components.Particle, vp components.Viewport) {
	g.resize(vp)
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	for i := range particles {
		idx := g.cellIndex(particles[i].Pos.X, particles[i].Pos.Y)
		g.cells[idx] = append(g.cells[idx], i)
	}
}

// resize reallocates the cell array when the viewport changed.
func (g *SpatialGrid) resize(vp components.Viewport) {
	if vp == g.viewport && g.cells != nil {
		return
	}
	cols := max(int(math.Ceil(vp.Width/g.cellSize)), 1)
	rows := max(int(math.Ceil(vp.Height/g.cellSize)), 1)

	g.viewport = vp
	g.cols = cols
	g.rows = rows
	g.cells = make([][]int, cols*rows)
	for i := range g.cells {
		g.cells[i] = make([]int, 0, 8) // pre-allocate small capacity
	}
}

// QueryInto appends to dst every index whose cell lies within radius of
// (x, y), sorted ascending and deduplicated. Candidates are not distance
// filtered; callers apply their own exact test.
func (g *SpatialGrid) QueryInto(dst []int, x, y, radius float64) []int {
	start := len(dst)

	// +2: the last column/row is narrower when the extent is not a multiple
	// of the cell size, so a wrapped query can cross one extra boundary.
	cellRadius := int(radius/g.cellSize) + 2
	spanCols := min(2*cellRadius+1, g.cols)
	spanRows := min(2*cellRadius+1, g.rows)

	centerCol := int(x / g.cellSize)
	centerRow := int(y / g.cellSize)

	for dc := 0; dc < spanCols; dc++ {
		// Toroidal wrap
		col := ((centerCol-cellRadius+dc)%g.cols + g.cols) % g.cols
		for dr := 0; dr < spanRows; dr++ {
			row := ((centerRow-cellRadius+dr)%g.rows + g.rows) % g.rows
			dst = append(dst, g.cells[row*g.cols+col]...)
		}
	}

	found := dst[start:]
	slices.Sort(found)
	found = slices.Compact(found)
	return dst[:start+len(found)]
}

// cellIndex returns the flat index for a viewport position.
func (g *SpatialGrid) cellIndex(x, y float64) int {
	col := int(x / g.cellSize)
	row := int(y / g.cellSize)

	// Clamp to valid range
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return row*g.cols + col
}
