package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/metaballs/renderer"
)

func TestFieldConfigRoundTrip(t *testing.T) {
	cfg := testConfig(t)

	params, err := FieldParams(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Field, FieldConfig(params))

	params.ColorMode = renderer.ColorModeParticle
	params.Threshold = 0.3
	out := FieldConfig(params)
	assert.Equal(t, "particle", out.ColorMode)
	assert.Equal(t, 0.3, out.Threshold)
}

func TestFieldParamsRejectsColorMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Field.ColorMode = "plasma"
	_, err := FieldParams(cfg)
	assert.Error(t, err)
}

func TestCollisionParamsRejectsBroadPhase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Collision.BroadPhase = "octree"
	_, err := collisionParams(cfg)
	assert.Error(t, err)
}
