// Package components defines the particle data model shared by the simulation
// stages and the render buffer builder.
package components

import (
	"math"
	"time"
)

// Position represents a particle position in viewport pixel space.
type Position struct {
	X, Y float64
}

// Velocity represents a particle velocity in pixels per second.
type Velocity struct {
	X, Y float64
}

// Speed returns the velocity magnitude.
func (v Velocity) Speed() float64 {
	return math.Hypot(v.X, v.Y)
}

// Color is a linear RGB colour with channels in [0, 1].
type Color struct {
	R, G, B float64
}

// Particle is a single metaball.
// Radius squared is treated as the particle's mass.
type Particle struct {
	Pos    Position
	Vel    Velocity
	Radius float64
	Color  Color

	// MergeCooldownUntil is the simulation time before which the particle
	// cannot take part in a merge. Zero means no cooldown.
	MergeCooldownUntil time.Duration
}

// Mass returns radius squared.
func (p *Particle) Mass() float64 {
	return p.Radius * p.Radius
}

// CanMerge reports whether the particle's merge cooldown has expired at now.
func (p *Particle) CanMerge(now time.Duration) bool {
	return now >= p.MergeCooldownUntil
}

// Viewport holds the simulation extents in device pixels.
// The world wraps toroidally at these extents.
type Viewport struct {
	Width, Height float64
}

// Valid reports whether both extents are positive and finite.
func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0 &&
		!math.IsInf(v.Width, 0) && !math.IsInf(v.Height, 0)
}

// AvgDimension returns the mean of width and height.
func (v Viewport) AvgDimension() float64 {
	return (v.Width + v.Height) / 2
}
