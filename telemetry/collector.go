package telemetry

import (
	"time"

	"github.com/pthm-cable/metaballs/components"
)

// Collector accumulates events within simulation-time windows and produces
// WindowStats.
type Collector struct {
	window      time.Duration
	windowStart time.Duration

	// Event counters for current window
	frames        int
	merges        int
	explosions    int
	fragments     int
	reallocations int
}

// NewCollector creates a new stats collector.
// A non-positive window flushes every frame.
func NewCollector(window time.Duration) *Collector {
	return &Collector{window: max(window, 0)}
}

// RecordFrame records one simulated frame.
func (c *Collector) RecordFrame() {
	c.frames++
}

// RecordMerges records n completed merges.
func (c *Collector) RecordMerges(n int) {
	c.merges += n
}

// RecordExplosion records an explosion that produced the given number of fragments.
func (c *Collector) RecordExplosion(fragments int) {
	c.explosions++
	c.fragments += fragments
}

// RecordReallocation records a particle buffer reallocation.
func (c *Collector) RecordReallocation() {
	c.reallocations++
}

// ShouldFlush returns true if the window has elapsed at simulation time now.
func (c *Collector) ShouldFlush(now time.Duration) bool {
	return now-c.windowStart >= c.window
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(now time.Duration, particles []components.Particle) WindowStats {
	pop := ComputePopulationStats(particles, now)

	stats := WindowStats{
		WindowStartSec: c.windowStart.Seconds(),
		WindowEndSec:   now.Seconds(),
		Frames:         c.frames,

		Particles: pop.Count,
		TotalMass: pop.TotalMass,

		Merges:        c.merges,
		Explosions:    c.explosions,
		Fragments:     c.fragments,
		Reallocations: c.reallocations,

		RadiusMean: pop.RadiusMean,
		RadiusStd:  pop.RadiusStd,
		RadiusP10:  pop.RadiusP10,
		RadiusP50:  pop.RadiusP50,
		RadiusP90:  pop.RadiusP90,
		RadiusMax:  pop.RadiusMax,

		MeanSpeed:   pop.MeanSpeed,
		CoolingDown: pop.CoolingDown,
	}

	c.windowStart = now
	c.frames = 0
	c.merges = 0
	c.explosions = 0
	c.fragments = 0
	c.reallocations = 0

	return stats
}

// Window returns the window duration.
func (c *Collector) Window() time.Duration {
	return c.window
}
