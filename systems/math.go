package systems

import (
	"math"

	"github.com/pthm-cable/metaballs/components"
)

// Clamp functions for common value ranges

// clampFloat clamps v between minVal and maxVal.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clamp01 clamps v to the [0, 1] range.
func clamp01(v float64) float64 {
	return clampFloat(v, 0, 1)
}

// finite reports whether v is neither NaN nor infinite.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Toroidal helpers

// WrapCoord wraps v into the half-open range [0, extent).
// A single add/subtract covers the normal per-frame displacement; larger
// jumps fall back to math.Mod.
func WrapCoord(v, extent float64) float64 {
	if extent <= 0 || !finite(v) {
		return 0
	}
	if v < 0 {
		v += extent
	} else if v >= extent {
		v -= extent
	}
	if v < 0 || v >= extent {
		v = math.Mod(v, extent)
		if v < 0 {
			v += extent
		}
	}
	// v+extent can round up to exactly extent for tiny negative v.
	if v >= extent {
		v = 0
	}
	return v
}

// WrapPosition wraps p into the viewport.
func WrapPosition(p components.Position, vp components.Viewport) components.Position {
	return components.Position{
		X: WrapCoord(p.X, vp.Width),
		Y: WrapCoord(p.Y, vp.Height),
	}
}

// axisDistance returns the shortest absolute separation along one wrapped axis.
func axisDistance(a, b, extent float64) float64 {
	d := math.Abs(a - b)
	if extent > 0 && d > extent/2 {
		d = extent - d
	}
	return d
}

// ToroidalDistance returns the shortest distance between two points on a
// rectangle whose edges wrap.
func ToroidalDistance(a, b components.Position, vp components.Viewport) float64 {
	dx := axisDistance(a.X, b.X, vp.Width)
	dy := axisDistance(a.Y, b.Y, vp.Height)
	return math.Sqrt(dx*dx + dy*dy)
}

// ToroidalDelta returns the shortest path delta from a to b.
func ToroidalDelta(a, b components.Position, vp components.Viewport) (dx, dy float64) {
	dx = b.X - a.X
	dy = b.Y - a.Y

	if dx > vp.Width/2 {
		dx -= vp.Width
	} else if dx < -vp.Width/2 {
		dx += vp.Width
	}
	if dy > vp.Height/2 {
		dy -= vp.Height
	} else if dy < -vp.Height/2 {
		dy += vp.Height
	}

	return dx, dy
}

// unwrapNear returns the image of b nearest to a, which may lie outside the
// viewport by up to half an extent.
func unwrapNear(a, b components.Position, vp components.Viewport) components.Position {
	dx, dy := ToroidalDelta(a, b, vp)
	return components.Position{X: a.X + dx, Y: a.Y + dy}
}

// Velocity helpers

// velocityEpsilon is the speed below which a velocity has no usable direction.
const velocityEpsilon = 1e-4

// enforceMinSpeed rescales v to at least minSpeed, preserving direction.
// A velocity too small to carry a direction is pointed along +X.
func enforceMinSpeed(v components.Velocity, minSpeed float64) components.Velocity {
	if !finite(v.X) || !finite(v.Y) {
		v = components.Velocity{}
	}
	speed := v.Speed()
	if speed >= minSpeed {
		return v
	}
	if speed < velocityEpsilon {
		return components.Velocity{X: minSpeed}
	}
	scale := minSpeed / speed
	return components.Velocity{X: v.X * scale, Y: v.Y * scale}
}
