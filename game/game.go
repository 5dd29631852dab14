// Package game sequences the simulation stages and the render buffer
// builder once per frame, driven by a Host that supplies input and a device.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/metaballs/camera"
	"github.com/pthm-cable/metaballs/components"
	"github.com/pthm-cable/metaballs/config"
	"github.com/pthm-cable/metaballs/renderer"
	"github.com/pthm-cable/metaballs/systems"
	"github.com/pthm-cable/metaballs/telemetry"
)

// Options configures a Game beyond the loaded config.
type Options struct {
	Seed        int64
	LogStats    bool          // log window and perf stats via slog
	StatsWindow time.Duration // 0 = telemetry.stats_window_sec
	OutputDir   string        // CSV logs and config snapshot, "" = disabled
	Sounds      Sounds        // nil = silent
}

// FrameReport describes what one Frame did.
type FrameReport struct {
	Frame      int
	Now        time.Duration // simulation time after the frame
	Delta      time.Duration // step applied to the simulation, 0 when paused
	Paused     bool
	Explosions []systems.Explosion
	Merges     systems.MergeReport
	Sync       renderer.SyncReport
	Particles  int
}

// Game holds the simulation state and the render pipeline.
type Game struct {
	cfg  *config.Config
	rng  *rand.Rand
	seed int64

	store         *systems.Store
	spawner       *systems.Spawner
	kinematics    *systems.KinematicsSystem
	collision     *systems.CollisionSystem
	fragmentation *systems.FragmentationSystem
	camera        *camera.Camera

	builder *renderer.BufferBuilder
	field   renderer.FieldParams

	viewport components.Viewport

	// now is simulation time; clock keeps running while paused and drives
	// the colour animation.
	now    time.Duration
	clock  time.Duration
	frame  int
	paused bool

	sounds Sounds

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	logStats      bool
}

// New creates a game rendering to device over viewport vp and spawns the
// initial population.
func New(cfg *config.Config, device renderer.Device, vp components.Viewport, opts Options) (*Game, error) {
	collision, err := collisionParams(cfg)
	if err != nil {
		return nil, err
	}
	field, err := FieldParams(cfg)
	if err != nil {
		return nil, err
	}

	builder, err := renderer.NewBufferBuilder(device)
	if err != nil {
		return nil, fmt.Errorf("creating buffer builder: %w", err)
	}

	statsWindow := cfg.Derived.StatsWindow
	if opts.StatsWindow > 0 {
		statsWindow = opts.StatsWindow
	}

	outputManager, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		builder.Release()
		return nil, err
	}
	if err := outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	g := &Game{
		cfg:           cfg,
		rng:           rng,
		seed:          opts.Seed,
		store:         systems.NewStore(cfg.Population.Initial),
		spawner:       systems.NewSpawner(spawnParams(cfg), rng),
		kinematics:    systems.NewKinematicsSystem(cfg.Physics.MinVelocity),
		collision:     systems.NewCollisionSystem(collision, rng),
		fragmentation: systems.NewFragmentationSystem(fragmentationParams(cfg), rng),
		camera:        camera.New(float32(cfg.Camera.InitialDepth), float32(cfg.Camera.Speed)),
		builder:       builder,
		field:         field,
		viewport:      vp,
		sounds:        opts.Sounds,
		collector:     telemetry.NewCollector(statsWindow),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		outputManager: outputManager,
		logStats:      opts.LogStats,
	}

	g.store.Reset(g.spawner.Populate(vp))
	slog.Info("population spawned",
		"particles", g.store.Len(),
		"width", vp.Width,
		"height", vp.Height,
		"broad_phase", collision.BroadPhase,
	)
	return g, nil
}

// Frame advances the game by one frame of wall-clock duration dt: apply the
// input snapshot, run the stages, sync the device buffers and draw.
func (g *Game) Frame(in Input, dt time.Duration) (FrameReport, error) {
	g.perfCollector.StartFrame()
	g.perfCollector.StartPhase(telemetry.PhaseInput)

	dt = g.sanitizeDelta(dt)
	g.applyInput(in)
	g.clock += dt

	var report FrameReport
	if !g.paused {
		report.Delta = dt
	}
	secs := dt.Seconds()

	g.perfCollector.StartPhase(telemetry.PhaseFragmentation)
	for _, pick := range in.Picks {
		x, y := g.camera.PointToDevice(float32(pick.X), float32(pick.Y))
		point := components.Position{X: float64(x), Y: float64(y)}
		if ex, ok := g.fragmentation.Explode(g.store, g.viewport, point, g.now); ok {
			report.Explosions = append(report.Explosions, ex)
			g.collector.RecordExplosion(ex.Fragments)
			if g.sounds != nil {
				g.sounds.Explosion(ex.Fragments)
			}
			slog.Debug("particle exploded",
				"index", ex.Index,
				"radius", ex.Original.Radius,
				"fragments", ex.Fragments,
			)
		}
	}

	g.camera.Advance(in.Forward, in.Backward, float32(secs))

	if report.Delta > 0 {
		g.perfCollector.StartPhase(telemetry.PhaseKinematics)
		g.kinematics.Update(g.store, g.viewport, secs)
		g.now += report.Delta

		g.perfCollector.StartPhase(telemetry.PhaseCollision)
		report.Merges = g.collision.Update(g.store, g.viewport, g.now)
		if report.Merges.Merges > 0 {
			g.collector.RecordMerges(report.Merges.Merges)
			if g.sounds != nil {
				g.sounds.Merge(report.Merges.Merges)
			}
		}
	}

	g.perfCollector.StartPhase(telemetry.PhaseBuffers)
	sync, err := g.builder.Sync(g.store, g.uniforms(float32(secs)))
	if err != nil {
		return report, fmt.Errorf("syncing buffers: %w", err)
	}
	report.Sync = sync
	if sync.Reallocated {
		g.collector.RecordReallocation()
	}

	g.perfCollector.StartPhase(telemetry.PhaseDraw)
	if err := g.builder.Draw(); err != nil {
		return report, fmt.Errorf("drawing: %w", err)
	}

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.frame++
	g.collector.RecordFrame()
	g.flushTelemetry()
	g.perfCollector.EndFrame()

	report.Frame = g.frame
	report.Now = g.now
	report.Paused = g.paused
	report.Particles = g.store.Len()
	return report, nil
}

// applyInput handles resize and the edge-triggered toggles.
func (g *Game) applyInput(in Input) {
	if in.Scale > 0 {
		g.camera.SetScale(in.Scale)
	}
	if in.Resize != nil && in.Resize.Valid() && *in.Resize != g.viewport {
		g.viewport = *in.Resize
		g.store.Rewrap(g.viewport)
		slog.Debug("viewport resized", "width", g.viewport.Width, "height", g.viewport.Height)
	}
	if in.Pause {
		g.paused = !g.paused
	}
	if in.Reset {
		g.Reset()
	}
}

// Reset respawns the population and returns the camera to its start depth.
func (g *Game) Reset() {
	g.store.Reset(g.spawner.Populate(g.viewport))
	g.camera.Reset()
	slog.Info("population reset", "particles", g.store.Len())
}

// Snapshot captures the current population.
func (g *Game) Snapshot() *telemetry.Snapshot {
	return telemetry.NewSnapshot(g.seed, g.viewport, g.frame, g.now, g.store.All())
}

// sanitizeDelta drops non-positive steps and clamps frame hitches.
func (g *Game) sanitizeDelta(dt time.Duration) time.Duration {
	if dt <= 0 {
		return 0
	}
	return min(dt, g.cfg.Derived.MaxDelta)
}

func (g *Game) uniforms(delta float32) renderer.Uniforms {
	return renderer.Uniforms{
		Elapsed:     g.clock.Seconds(),
		Delta:       delta,
		CameraDepth: g.camera.Z,
		Viewport:    g.viewport,
		Field:       g.field,
	}
}

// Store returns the particle store.
func (g *Game) Store() *systems.Store { return g.store }

// Camera returns the depth camera.
func (g *Game) Camera() *camera.Camera { return g.camera }

// Viewport returns the simulation extents.
func (g *Game) Viewport() components.Viewport { return g.viewport }

// Now returns the simulation time.
func (g *Game) Now() time.Duration { return g.now }

// Frames returns the number of completed frames.
func (g *Game) Frames() int { return g.frame }

// Paused reports whether the simulation is frozen.
func (g *Game) Paused() bool { return g.paused }

// Field returns the shading constants uploaded each frame.
func (g *Game) Field() renderer.FieldParams { return g.field }

// SetField replaces the shading constants from the next frame on.
func (g *Game) SetField(p renderer.FieldParams) { g.field = p }

// Perf returns the rolling performance stats.
func (g *Game) Perf() telemetry.PerfStats { return g.perfCollector.Stats() }

// Unload releases device buffers and closes the output files.
func (g *Game) Unload() {
	g.builder.Release()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
