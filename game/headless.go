package game

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/metaballs/components"
	"github.com/pthm-cable/metaballs/config"
	"github.com/pthm-cable/metaballs/renderer"
	"github.com/pthm-cable/metaballs/telemetry"
)

// Headless is a Host without a display. It renders into a reduced
// resolution software raster, optionally explodes a random particle at a
// fixed interval and writes snapshots of state and image.
type Headless struct {
	device *renderer.SoftwareDevice
	vp     components.Viewport
	rng    *rand.Rand

	pickInterval     time.Duration
	snapshotInterval time.Duration
	snapshotDir      string

	nextPick     time.Duration
	nextSnapshot time.Duration
	pending      []components.Position
}

// NewHeadless creates a headless host from the headless config section.
// An empty snapshotDir disables snapshots.
func NewHeadless(cfg *config.Config, seed int64, snapshotDir string) *Headless {
	h := cfg.Headless
	scale := h.RasterScale
	return &Headless{
		device: renderer.NewSoftwareDevice(
			max(int(float64(h.Width)*scale), 1),
			max(int(float64(h.Height)*scale), 1),
			cfg.Render.RasterWorkers,
		),
		vp:               components.Viewport{Width: float64(h.Width), Height: float64(h.Height)},
		rng:              rand.New(rand.NewSource(seed ^ 0x5eed)),
		pickInterval:     cfg.Derived.PickInterval,
		snapshotInterval: cfg.Derived.Snapshot,
		snapshotDir:      snapshotDir,
		nextPick:         cfg.Derived.PickInterval,
	}
}

// Device implements Host.
func (h *Headless) Device() renderer.Device { return h.device }

// Raster returns the software device for inspection.
func (h *Headless) Raster() *renderer.SoftwareDevice { return h.device }

// Viewport implements Host.
func (h *Headless) Viewport() components.Viewport { return h.vp }

// Poll implements Host, handing over the picks scheduled by Present.
func (h *Headless) Poll() (Input, bool) {
	in := Input{Picks: h.pending}
	h.pending = nil
	return in, true
}

// Present schedules scripted picks and writes due snapshots.
func (h *Headless) Present(g *Game, report FrameReport) error {
	if h.pickInterval > 0 && report.Now >= h.nextPick {
		for h.nextPick <= report.Now {
			h.nextPick += h.pickInterval
		}
		if particles := g.Store().All(); len(particles) > 0 {
			target := particles[h.rng.Intn(len(particles))]
			h.pending = append(h.pending, target.Pos)
		}
	}

	if h.snapshotDir == "" || h.snapshotInterval <= 0 || report.Now < h.nextSnapshot {
		return nil
	}
	for h.nextSnapshot <= report.Now {
		h.nextSnapshot += h.snapshotInterval
	}

	path, err := telemetry.SaveSnapshot(g.Snapshot(), h.snapshotDir)
	if err != nil {
		return err
	}
	if _, err := telemetry.SaveImage(h.device.Image(), h.snapshotDir, report.Frame); err != nil {
		return err
	}
	slog.Info("snapshot saved", "path", path, "frame", report.Frame, "particles", report.Particles)
	return nil
}

// Close implements Host.
func (h *Headless) Close() error {
	h.device.Close()
	return nil
}
