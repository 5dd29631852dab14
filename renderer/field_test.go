package renderer

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleParticleField(radius float32) *Field {
	return &Field{
		Particles: []ParticleRecord{{X: 100, Y: 100, Radius: radius, R: 1, G: 0.5, B: 0.25}},
		Width:     800,
		Height:    600,
		Phase:     ColorPhase(0),
		Params:    DefaultFieldParams(),
	}
}

func TestFieldSum(t *testing.T) {
	f := singleParticleField(10)

	// r^2 * scale / (d^2 + eps) at distance 5
	want := float32(100*0.2) / (25 + 0.0001)
	got := f.At(103, 104).Sum
	assert.InDelta(t, want, got, 1e-5)
}

func TestFieldCutoffReturnsBase(t *testing.T) {
	f := singleParticleField(10)
	f.Params.Base = [4]float32{0.1, 0.2, 0.3, 1}

	// Far away the sum is well below the cutoff
	assert.Equal(t, f.Params.Base, f.Shade(500, 400))
}

func TestFieldThresholdIntensity(t *testing.T) {
	f := singleParticleField(10)

	tests := []struct {
		name      string
		distance  float32
		intensity float32
	}{
		{"at threshold", float32(math.Sqrt(20.0/8 - 0.0001)), 1},
		{"half threshold", float32(math.Sqrt(20.0/4 - 0.0001)), 0.5},
		{"saturated", 0.5, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			x, y := float32(100)+tc.distance, float32(100)
			got := f.Shade(x, y)

			// Animated colour: (uv, 0.25 + 0.5 sin 0, 1) mixed from black
			k := tc.intensity * 0.8
			assert.InDelta(t, x/800*k, got[0], 1e-4)
			assert.InDelta(t, y/600*k, got[1], 1e-4)
			assert.InDelta(t, min(0.25*k, 1), got[2], 1e-4)
			assert.InDelta(t, 1, got[3], 1e-6)
		})
	}
}

func TestFieldParticleColorMode(t *testing.T) {
	f := singleParticleField(10)
	f.Params.ColorMode = ColorModeParticle

	got := f.Shade(100.5, 100.5)
	// Saturated intensity 3 * 0.8 clamps every channel of a pure particle colour
	assert.Equal(t, [4]float32{1, 1, 0.6, 1}, roundColor(got))
}

func TestFieldToroidal(t *testing.T) {
	f := singleParticleField(10)
	f.Particles[0].X = 795

	plain := f.At(5, 100).Sum
	f.Params.Toroidal = true
	wrapped := f.At(5, 100).Sum

	assert.Less(t, plain, f.Params.Cutoff)
	assert.InDelta(t, float32(20)/(100+0.0001), wrapped, 1e-5)
}

func TestFieldCameraDepthDims(t *testing.T) {
	f := singleParticleField(10)
	near := f.At(100, 100).Sum

	f.CameraDepth = 0.5
	far := f.At(100, 100).Sum

	// depth 0.5 * 200 px = 100 px of extra separation
	assert.Less(t, far, near)
	assert.InDelta(t, float32(20)/(10000+0.0001), far, 1e-7)
}

func TestFieldRenderMatchesShade(t *testing.T) {
	f := singleParticleField(40)
	img := image.NewRGBA(image.Rect(0, 0, 80, 60))

	pool := newRasterPool(4)
	defer pool.stop()
	f.Render(img, pool)

	serial := image.NewRGBA(img.Bounds())
	f.Render(serial, nil)
	require.Equal(t, serial.Pix, img.Pix)

	// Pixel (10, 10) samples the viewport at (105, 105)
	want := toRGBA(f.Shade(105, 105))
	assert.Equal(t, want, img.RGBAAt(10, 10))
}

func roundColor(c [4]float32) [4]float32 {
	for i := range c {
		c[i] = float32(math.Round(float64(c[i])*100) / 100)
	}
	return c
}
