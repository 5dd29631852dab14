// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen        ScreenConfig        `yaml:"screen"`
	Population    PopulationConfig    `yaml:"population"`
	Physics       PhysicsConfig       `yaml:"physics"`
	Collision     CollisionConfig     `yaml:"collision"`
	Fragmentation FragmentationConfig `yaml:"fragmentation"`
	Camera        CameraConfig        `yaml:"camera"`
	Field         FieldConfig         `yaml:"field"`
	Render        RenderConfig        `yaml:"render"`
	Terminal      TerminalConfig      `yaml:"terminal"`
	Audio         AudioConfig         `yaml:"audio"`
	Headless      HeadlessConfig      `yaml:"headless"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds window parameters.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Title     string `yaml:"title"`
	TargetFPS int    `yaml:"target_fps"`
	HighDPI   bool   `yaml:"high_dpi"`
}

// PopulationConfig holds initial spawn parameters.
type PopulationConfig struct {
	Initial       int     `yaml:"initial"`
	MinRadius     float64 `yaml:"min_radius"`     // fraction of the average viewport dimension
	MaxRadius     float64 `yaml:"max_radius"`     // fraction of the average viewport dimension
	MaxVelocity   float64 `yaml:"max_velocity"`   // fraction of the viewport extent per second
	SpawnAttempts int     `yaml:"spawn_attempts"` // placement retries before accepting overlap
	Clearance     float64 `yaml:"clearance"`      // extra pixels between spawned particles
	SaturatedMin  float64 `yaml:"saturated_min"`  // lower bound of the dominant colour channel
}

// PhysicsConfig holds kinematics parameters.
type PhysicsConfig struct {
	MinVelocity float64 `yaml:"min_velocity"` // pixels per second
	MaxDelta    float64 `yaml:"max_delta"`    // longest frame step in seconds
}

// CollisionConfig holds merge parameters.
type CollisionConfig struct {
	MergeFactor  float64 `yaml:"merge_factor"`   // merge when distance < factor * (r1 + r2)
	ColorJitter  float64 `yaml:"color_jitter"`   // full width of the merge colour jitter
	BroadPhase   string  `yaml:"broad_phase"`    // pairs | grid
	GridCellSize float64 `yaml:"grid_cell_size"` // pixels
}

// FragmentationConfig holds explosion parameters.
type FragmentationConfig struct {
	MinFragments    int     `yaml:"min_fragments"`
	MaxFragments    int     `yaml:"max_fragments"`
	MinSpeed        float64 `yaml:"min_speed"` // added speed, pixels per second
	MaxSpeed        float64 `yaml:"max_speed"`
	ColorJitter     float64 `yaml:"color_jitter"`
	MergeCooldownMS int     `yaml:"merge_cooldown_ms"`
}

// CameraConfig holds depth camera parameters.
type CameraConfig struct {
	Speed        float64 `yaml:"speed"` // depth units per second
	InitialDepth float64 `yaml:"initial_depth"`
}

// FieldConfig holds metaball shading constants.
type FieldConfig struct {
	Threshold      float64    `yaml:"threshold"`
	Cutoff         float64    `yaml:"cutoff"`
	Scale          float64    `yaml:"scale"`
	IntensityScale float64    `yaml:"intensity_scale"`
	MaxIntensity   float64    `yaml:"max_intensity"`
	Epsilon        float64    `yaml:"epsilon"`
	DepthScale     float64    `yaml:"depth_scale"` // pixels of separation at camera depth 1
	Toroidal       bool       `yaml:"toroidal"`
	ColorMode      string     `yaml:"color_mode"` // animated | particle
	BaseColor      [4]float64 `yaml:"base_color"`
}

// RenderConfig holds device parameters.
type RenderConfig struct {
	RasterWorkers int `yaml:"raster_workers"` // CPU rasteriser goroutines, 0 = GOMAXPROCS
}

// TerminalConfig holds the tcell host parameters.
type TerminalConfig struct {
	CellWidth  int     `yaml:"cell_width"`  // virtual pixels per terminal column
	CellHeight int     `yaml:"cell_height"` // virtual pixels per terminal row
	HeldWindow float64 `yaml:"held_window"` // seconds a key counts as held after its last event
	FrameRate  int     `yaml:"frame_rate"`
}

// AudioConfig holds sound effect parameters.
type AudioConfig struct {
	Enabled       bool    `yaml:"enabled"`
	SampleRate    int     `yaml:"sample_rate"`
	Volume        float64 `yaml:"volume"` // linear gain 0..1
	ExplosionFreq float64 `yaml:"explosion_freq"`
	MergeFreq     float64 `yaml:"merge_freq"`
	ToneMS        int     `yaml:"tone_ms"`
}

// HeadlessConfig holds parameters for runs without a display.
type HeadlessConfig struct {
	DT               float64 `yaml:"dt"`                // fixed step in seconds
	Width            int     `yaml:"width"`             // viewport in device pixels
	Height           int     `yaml:"height"`
	RasterScale      float64 `yaml:"raster_scale"`      // snapshot resolution relative to the viewport
	PickInterval     float64 `yaml:"pick_interval"`     // seconds between scripted explosions, 0 = none
	SnapshotInterval float64 `yaml:"snapshot_interval"` // seconds between PNG snapshots, 0 = none
}

// TelemetryConfig holds stats collection parameters.
type TelemetryConfig struct {
	StatsWindowSec      float64 `yaml:"stats_window_sec"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // frames in the rolling perf window
}

// DerivedConfig holds values computed from other config values.
type DerivedConfig struct {
	MergeCooldown time.Duration
	MaxDelta      time.Duration
	HeadlessDT    time.Duration
	PickInterval  time.Duration
	Snapshot      time.Duration
	HeldWindow    time.Duration
	ToneDuration  time.Duration
	StatsWindow   time.Duration
}

// Global config instance
var global *Config

// Init loads configuration from the given path (or embedded defaults if empty)
// and sets the global config.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration.
// Panics if Init has not been called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load reads configuration from the given path, falling back to embedded
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports every value the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Screen.Width > 0 && c.Screen.Height > 0, "screen size %dx%d must be positive", c.Screen.Width, c.Screen.Height)
	check(c.Population.Initial >= 0, "population.initial %d is negative", c.Population.Initial)
	check(c.Population.MinRadius > 0 && c.Population.MaxRadius >= c.Population.MinRadius,
		"population radius range [%g, %g] is invalid", c.Population.MinRadius, c.Population.MaxRadius)
	check(c.Physics.MinVelocity > 0, "physics.min_velocity %g must be positive", c.Physics.MinVelocity)
	check(c.Physics.MaxDelta > 0, "physics.max_delta %g must be positive", c.Physics.MaxDelta)
	check(c.Collision.MergeFactor > 0, "collision.merge_factor %g must be positive", c.Collision.MergeFactor)
	check(c.Collision.ColorJitter >= 0, "collision.color_jitter %g is negative", c.Collision.ColorJitter)
	check(c.Collision.BroadPhase == "pairs" || c.Collision.BroadPhase == "grid",
		"collision.broad_phase %q must be pairs or grid", c.Collision.BroadPhase)
	check(c.Collision.GridCellSize > 0, "collision.grid_cell_size %g must be positive", c.Collision.GridCellSize)
	check(c.Fragmentation.MinFragments >= 1 && c.Fragmentation.MaxFragments >= c.Fragmentation.MinFragments,
		"fragment range [%d, %d] is invalid", c.Fragmentation.MinFragments, c.Fragmentation.MaxFragments)
	check(c.Fragmentation.MinSpeed >= 0 && c.Fragmentation.MaxSpeed >= c.Fragmentation.MinSpeed,
		"fragment speed range [%g, %g] is invalid", c.Fragmentation.MinSpeed, c.Fragmentation.MaxSpeed)
	check(c.Fragmentation.MergeCooldownMS >= 0, "fragmentation.merge_cooldown_ms %d is negative", c.Fragmentation.MergeCooldownMS)
	check(c.Camera.Speed >= 0, "camera.speed %g is negative", c.Camera.Speed)
	check(c.Field.Threshold > 0, "field.threshold %g must be positive", c.Field.Threshold)
	check(c.Field.Epsilon > 0, "field.epsilon %g must be positive", c.Field.Epsilon)
	check(c.Field.MaxIntensity > 0, "field.max_intensity %g must be positive", c.Field.MaxIntensity)
	check(c.Field.ColorMode == "animated" || c.Field.ColorMode == "particle",
		"field.color_mode %q must be animated or particle", c.Field.ColorMode)
	check(c.Render.RasterWorkers >= 0, "render.raster_workers %d is negative", c.Render.RasterWorkers)
	check(c.Terminal.CellWidth > 0 && c.Terminal.CellHeight > 0,
		"terminal cell %dx%d must be positive", c.Terminal.CellWidth, c.Terminal.CellHeight)
	check(c.Headless.DT > 0, "headless.dt %g must be positive", c.Headless.DT)
	check(c.Headless.Width > 0 && c.Headless.Height > 0,
		"headless size %dx%d must be positive", c.Headless.Width, c.Headless.Height)
	check(c.Headless.RasterScale > 0 && c.Headless.RasterScale <= 1,
		"headless.raster_scale %g outside (0, 1]", c.Headless.RasterScale)
	check(c.Telemetry.PerfCollectorWindow > 0, "telemetry.perf_collector_window %d must be positive", c.Telemetry.PerfCollectorWindow)

	return errors.Join(errs...)
}

// computeDerived calculates derived values from config.
func (c *Config) computeDerived() {
	c.Derived.MergeCooldown = time.Duration(c.Fragmentation.MergeCooldownMS) * time.Millisecond
	c.Derived.MaxDelta = seconds(c.Physics.MaxDelta)
	c.Derived.HeadlessDT = seconds(c.Headless.DT)
	c.Derived.PickInterval = seconds(c.Headless.PickInterval)
	c.Derived.Snapshot = seconds(c.Headless.SnapshotInterval)
	c.Derived.HeldWindow = seconds(c.Terminal.HeldWindow)
	c.Derived.ToneDuration = time.Duration(c.Audio.ToneMS) * time.Millisecond
	c.Derived.StatsWindow = seconds(c.Telemetry.StatsWindowSec)
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// WriteYAML writes the config to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
