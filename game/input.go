package game

import (
	"github.com/pthm-cable/metaballs/components"
)

// Input is the snapshot of user input for one frame. Hosts collect events
// between frames and hand over a fresh snapshot from Poll; the game never
// reads devices directly.
type Input struct {
	// Resize carries the new viewport when the drawable area changed.
	Resize *components.Viewport

	// Scale is the window point to device pixel factor. Zero keeps the
	// previous value.
	Scale float32

	// Picks are explosion requests in window points, in arrival order.
	Picks []components.Position

	// Held camera keys, sampled once per frame.
	Forward  bool
	Backward bool

	// Edge-triggered toggles.
	Pause bool
	Reset bool
}
