package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/metaballs/config"
)

func TestParamVectorRoundTrip(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	pv := NewParamVector()
	raw := pv.ExtractFromConfig(cfg)
	require.Len(t, raw, pv.Dim())

	back := pv.Denormalize(pv.Normalize(raw))
	assert.InDeltaSlice(t, raw, back, 1e-9)

	// Out of range values are clamped when applied
	pv.ApplyToConfig(cfg, []float64{100, -1, 0.5, 1})
	assert.Equal(t, 20.0, cfg.Field.Threshold)
	assert.Equal(t, 0.02, cfg.Field.Cutoff)
	assert.Equal(t, 0.5, cfg.Field.Scale)
}

func TestFitnessPrefersTargetCoverage(t *testing.T) {
	fe := &FitnessEvaluator{targets: Targets{Coverage: 0.4, MaxSaturation: 0.2}}

	assert.Equal(t, 0.0, fe.score(0.4, 0.1))
	assert.Greater(t, fe.score(0.1, 0.1), fe.score(0.3, 0.1))
	assert.Greater(t, fe.score(0.4, 0.5), fe.score(0.4, 0.2))
}

func TestEvaluateRunsSeeds(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Population.Initial = 6

	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 12, []int64{1, 2}, cfg, Targets{Coverage: 0.35, MaxSaturation: 0.25})

	fitness := fe.Evaluate(pv.ExtractFromConfig(cfg))
	last := fe.Last()
	assert.Equal(t, fitness, last.Fitness)
	assert.Greater(t, last.Coverage, 0.0)
	assert.LessOrEqual(t, last.Coverage, 1.0)
	// The base config is not modified
	assert.Equal(t, 8.0, cfg.Field.Threshold)
}
