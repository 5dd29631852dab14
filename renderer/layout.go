package renderer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pthm-cable/metaballs/components"
)

// Buffer sizes in bytes.
const (
	// ParticleStride is the size of one packed particle record:
	// x, y, radius, vx, vy, r, g, b as little-endian float32.
	ParticleStride = 32

	ColorPhaseSize  = 16
	DeltaSize       = 4
	CameraDepthSize = 4
	ViewportSize    = 16
	FieldParamsSize = 64
)

const floatsPerParticle = ParticleStride / 4

// ParticleRecord is the decoded form of one particle record.
type ParticleRecord struct {
	X, Y, Radius float32
	VX, VY       float32
	R, G, B      float32
}

// ColorMode selects how the field is coloured above the cutoff.
type ColorMode int

const (
	// ColorModeAnimated uses the screen-space gradient driven by the colour phase.
	ColorModeAnimated ColorMode = iota
	// ColorModeParticle blends the particle colours weighted by influence.
	ColorModeParticle
)

// ParseColorMode converts a config string into a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "animated", "":
		return ColorModeAnimated, nil
	case "particle":
		return ColorModeParticle, nil
	}
	return 0, fmt.Errorf("unknown color mode %q", s)
}

// FieldParams are the shading constants uploaded at binding 6.
type FieldParams struct {
	Threshold      float32
	Cutoff         float32
	Scale          float32
	IntensityScale float32
	MaxIntensity   float32
	Epsilon        float32
	DepthScale     float32 // pixels of separation at camera depth 1
	Toroidal       bool
	ColorMode      ColorMode
	Base           [4]float32 // RGBA below the cutoff
}

// DefaultFieldParams returns the reference shading constants.
func DefaultFieldParams() FieldParams {
	return FieldParams{
		Threshold:      8.0,
		Cutoff:         0.1,
		Scale:          0.2,
		IntensityScale: 0.8,
		MaxIntensity:   3.0,
		Epsilon:        0.0001,
		DepthScale:     200,
		Base:           [4]float32{0, 0, 0, 1},
	}
}

// Uniforms is the per-frame state written to the fixed-size buffers.
type Uniforms struct {
	Elapsed     float64 // simulation seconds, drives the colour phase
	Delta       float32
	CameraDepth float32
	Viewport    components.Viewport
	Field       FieldParams
}

// AppendParticles packs particles onto dst in store order.
func AppendParticles(dst []byte, particles []components.Particle) []byte {
	for i := range particles {
		p := &particles[i]
		dst = appendFloats(dst,
			p.Pos.X, p.Pos.Y, p.Radius,
			p.Vel.X, p.Vel.Y,
			p.Color.R, p.Color.G, p.Color.B,
		)
	}
	return dst
}

// DecodeParticles unpacks every whole record in data.
func DecodeParticles(data []byte) []ParticleRecord {
	n := len(data) / ParticleStride
	out := make([]ParticleRecord, n)
	for i := range out {
		f := readFloats(data[i*ParticleStride:], floatsPerParticle)
		out[i] = ParticleRecord{
			X: f[0], Y: f[1], Radius: f[2],
			VX: f[3], VY: f[4],
			R: f[5], G: f[6], B: f[7],
		}
	}
	return out
}

// ColorPhase returns sin, cos, tan and atan of t seconds.
// Non-finite components are replaced by zero.
func ColorPhase(t float64) [4]float32 {
	return [4]float32{
		sanitize(math.Sin(t)),
		sanitize(math.Cos(t)),
		sanitize(math.Tan(t)),
		sanitize(math.Atan(t)),
	}
}

// AppendColorPhase packs the colour phase for elapsed seconds.
func AppendColorPhase(dst []byte, elapsed float64) []byte {
	phase := ColorPhase(elapsed)
	return appendFloat32s(dst, phase[:]...)
}

// AppendViewport packs the viewport rectangle (x, y, w, h).
func AppendViewport(dst []byte, vp components.Viewport) []byte {
	return appendFloats(dst, 0, 0, vp.Width, vp.Height)
}

// AppendFieldParams packs the shading constants.
func AppendFieldParams(dst []byte, p FieldParams) []byte {
	var toroidal float32
	if p.Toroidal {
		toroidal = 1
	}
	return appendFloat32s(dst,
		p.Threshold, p.Cutoff, p.Scale, p.IntensityScale,
		p.MaxIntensity, p.Epsilon, p.DepthScale, toroidal,
		float32(p.ColorMode), 0, 0, 0,
		p.Base[0], p.Base[1], p.Base[2], p.Base[3],
	)
}

// DecodeFieldParams is the inverse of AppendFieldParams.
func DecodeFieldParams(data []byte) (FieldParams, error) {
	if len(data) < FieldParamsSize {
		return FieldParams{}, fmt.Errorf("field params: %d bytes, need %d", len(data), FieldParamsSize)
	}
	f := readFloats(data, FieldParamsSize/4)
	return FieldParams{
		Threshold:      f[0],
		Cutoff:         f[1],
		Scale:          f[2],
		IntensityScale: f[3],
		MaxIntensity:   f[4],
		Epsilon:        f[5],
		DepthScale:     f[6],
		Toroidal:       f[7] != 0,
		ColorMode:      ColorMode(f[8]),
		Base:           [4]float32{f[12], f[13], f[14], f[15]},
	}, nil
}

func appendFloats(dst []byte, vs ...float64) []byte {
	for _, v := range vs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(sanitize(v)))
	}
	return dst
}

func appendFloat32s(dst []byte, vs ...float32) []byte {
	for _, v := range vs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// readFloats decodes n little-endian float32 values from the start of data.
func readFloats(data []byte, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

// readFloat decodes one float32, returning 0 when data is short.
func readFloat(data []byte) float32 {
	if len(data) < 4 {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(data))
}

// sanitize narrows v to float32, mapping NaN and out-of-range values to 0.
func sanitize(v float64) float32 {
	f := float32(v)
	if f != f || math.IsInf(float64(f), 0) {
		return 0
	}
	return f
}

// String returns the config name of the mode.
func (m ColorMode) String() string {
	if m == ColorModeParticle {
		return "particle"
	}
	return "animated"
}
