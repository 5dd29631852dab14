package main

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/pthm-cable/metaballs/components"
	"github.com/pthm-cable/metaballs/config"
	"github.com/pthm-cable/metaballs/game"
	"github.com/pthm-cable/metaballs/renderer"
)

// Targets is the look the optimizer steers the field towards.
type Targets struct {
	Coverage      float64 // desired lit fraction of the viewport
	MaxSaturation float64 // lit fraction allowed to blow out
}

// Sample grid for coverage measurements.
const (
	sampleCols  = 64
	sampleRows  = 40
	sampleEvery = 10 // frames between samples
)

// Result holds the averaged measurements behind one fitness value.
type Result struct {
	Fitness    float64
	Coverage   float64
	Saturation float64
}

// FitnessEvaluator runs headless simulations and scores the field.
type FitnessEvaluator struct {
	params     *ParamVector
	frames     int
	seeds      []int64
	baseConfig *config.Config
	targets    Targets

	mu   sync.Mutex
	last Result
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, frames int, seeds []int64, baseCfg *config.Config, targets Targets) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		frames:     frames,
		seeds:      seeds,
		baseConfig: baseCfg,
		targets:    targets,
	}
}

// Last returns the measurements from the most recent evaluation.
func (fe *FitnessEvaluator) Last() Result {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Evaluate scores raw parameter values, averaged over all seeds run in
// parallel. Lower is better.
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	cfg := *fe.baseConfig
	fe.params.ApplyToConfig(&cfg, raw)

	results := make([]renderer.Coverage, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = fe.runSeed(&cfg, seed)
		}()
	}
	wg.Wait()

	var cov, sat float64
	for _, r := range results {
		cov += r.Lit
		sat += r.Saturated
	}
	n := float64(max(len(results), 1))
	res := Result{Coverage: cov / n, Saturation: sat / n}
	res.Fitness = fe.score(res.Coverage, res.Saturation)

	fe.mu.Lock()
	fe.last = res
	fe.mu.Unlock()
	return res.Fitness
}

// score is the squared miss on coverage plus any saturation overshoot.
func (fe *FitnessEvaluator) score(coverage, saturation float64) float64 {
	miss := coverage - fe.targets.Coverage
	over := math.Max(0, saturation-fe.targets.MaxSaturation)
	return miss*miss + over*over
}

// runSeed simulates one population and returns its mean coverage.
func (fe *FitnessEvaluator) runSeed(cfg *config.Config, seed int64) renderer.Coverage {
	h := cfg.Headless
	vp := components.Viewport{Width: float64(h.Width), Height: float64(h.Height)}
	dev := renderer.NewSoftwareDevice(1, 1, 1)
	defer dev.Close()

	g, err := game.New(cfg, dev, vp, game.Options{Seed: seed})
	if err != nil {
		slog.Error("evaluation setup failed", "seed", seed, "error", err)
		return renderer.Coverage{}
	}
	defer g.Unload()

	dt := cfg.Derived.HeadlessDT
	if dt <= 0 {
		dt = 16 * time.Millisecond
	}

	var sum renderer.Coverage
	samples := 0
	for frame := 1; frame <= fe.frames; frame++ {
		if _, err := g.Frame(game.Input{}, dt); err != nil {
			slog.Error("evaluation frame failed", "seed", seed, "frame", frame, "error", err)
			break
		}
		if frame%sampleEvery != 0 && frame != fe.frames {
			continue
		}
		c := dev.Field().Coverage(sampleCols, sampleRows)
		sum.Lit += c.Lit
		sum.Saturated += c.Saturated
		samples++
	}
	if samples > 0 {
		sum.Lit /= float64(samples)
		sum.Saturated /= float64(samples)
	}
	return sum
}
