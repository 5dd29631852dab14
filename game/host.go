package game

import (
	"github.com/pthm-cable/metaballs/components"
	"github.com/pthm-cable/metaballs/renderer"
)

// Host owns the display surface and the input devices.
type Host interface {
	// Device returns the render device the buffer builder writes to.
	Device() renderer.Device

	// Viewport returns the current drawable area in device pixels.
	Viewport() components.Viewport

	// Poll collects input since the previous call. It returns false once
	// the user has asked to quit.
	Poll() (Input, bool)

	// Close releases the surface.
	Close() error
}

// Presenter is implemented by hosts that need to act on a finished frame,
// such as copying the software raster to a terminal or writing snapshots.
type Presenter interface {
	Present(g *Game, report FrameReport) error
}

// Sounds receives simulation events for audio feedback.
type Sounds interface {
	Merge(n int)
	Explosion(fragments int)
}
