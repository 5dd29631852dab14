package renderer

import (
	"image"
	"image/color"
	"math"
)

// Field evaluates the metaball field on the CPU with the same arithmetic as
// gl/shaders/metaballs.fs. It is what SoftwareDevice rasterises and what tests
// use to check shading behaviour.
type Field struct {
	Particles   []ParticleRecord
	Width       float32 // viewport extents in device pixels
	Height      float32
	CameraDepth float32
	Phase       [4]float32 // sin, cos, tan, atan of elapsed time
	Params      FieldParams
}

// Sample is the field evaluated at one point.
type Sample struct {
	Sum   float32    // total influence
	Color [3]float32 // influence-weighted particle colour
}

// At sums the influence of every particle at (x, y).
func (f *Field) At(x, y float32) Sample {
	p := &f.Params
	dz := f.CameraDepth * p.DepthScale
	dz2 := dz * dz

	var s Sample
	for i := range f.Particles {
		b := &f.Particles[i]
		if b.Radius <= 0 {
			continue
		}
		dx := absf(x - b.X)
		dy := absf(y - b.Y)
		if p.Toroidal {
			if dx > f.Width/2 {
				dx = f.Width - dx
			}
			if dy > f.Height/2 {
				dy = f.Height - dy
			}
		}
		d2 := dx*dx + dy*dy + dz2

		influence := (b.Radius * b.Radius * p.Scale) / (d2 + p.Epsilon)
		s.Sum += influence
		s.Color[0] += b.R * influence
		s.Color[1] += b.G * influence
		s.Color[2] += b.B * influence
	}
	if s.Sum > 0 {
		s.Color[0] /= s.Sum
		s.Color[1] /= s.Sum
		s.Color[2] /= s.Sum
	}
	return s
}

// Shade returns the RGBA colour of the pixel whose centre is (x, y).
func (f *Field) Shade(x, y float32) [4]float32 {
	p := &f.Params
	s := f.At(x, y)
	if s.Sum < p.Cutoff {
		return clampColor(p.Base)
	}

	intensity := min(s.Sum/p.Threshold, p.MaxIntensity)

	var target [4]float32
	switch p.ColorMode {
	case ColorModeParticle:
		target = [4]float32{s.Color[0], s.Color[1], s.Color[2], 1}
	default:
		var u, v float32
		if f.Width > 0 {
			u = x / f.Width
		}
		if f.Height > 0 {
			v = y / f.Height
		}
		target = [4]float32{u, v, 0.25 + 0.5*f.Phase[0], 1}
	}

	t := intensity * p.IntensityScale
	var out [4]float32
	for i := range out {
		out[i] = p.Base[i] + (target[i]-p.Base[i])*t
	}
	return clampColor(out)
}

// Render shades every pixel of img, mapping its bounds onto the viewport.
// Rows are split across pool workers when pool is non-nil.
func (f *Field) Render(img *image.RGBA, pool *rasterPool) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return
	}
	sx := f.Width / float32(w)
	sy := f.Height / float32(h)

	rows := func(start, end int) {
		for j := start; j < end; j++ {
			y := (float32(j) + 0.5) * sy
			for i := 0; i < w; i++ {
				x := (float32(i) + 0.5) * sx
				img.SetRGBA(bounds.Min.X+i, bounds.Min.Y+j, toRGBA(f.Shade(x, y)))
			}
		}
	}

	if pool == nil {
		rows(0, h)
		return
	}
	pool.run(h, rows)
}

func toRGBA(c [4]float32) color.RGBA {
	return color.RGBA{
		R: uint8(math.Round(float64(c[0]) * 255)),
		G: uint8(math.Round(float64(c[1]) * 255)),
		B: uint8(math.Round(float64(c[2]) * 255)),
		A: uint8(math.Round(float64(c[3]) * 255)),
	}
}

func clampColor(c [4]float32) [4]float32 {
	for i := range c {
		c[i] = clamp01f(c[i])
	}
	return c
}

func clamp01f(v float32) float32 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
