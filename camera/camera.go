// Package camera provides the depth camera that pulls the metaball field
// towards or away from the viewer.
package camera

// Camera tracks the viewer depth and the mapping from window points to
// device pixels.
type Camera struct {
	// Z is the normalised depth, 0 at the field plane and 1 deepest
	Z float32

	// Speed is the depth change per second while a key is held
	Speed float32

	// Depth constraints
	MinZ, MaxZ float32

	// Scale converts window points into device pixels (DPI factor)
	Scale float32

	initialZ float32
}

// New creates a camera at depth z moving at speed units per second.
func New(z, speed float32) *Camera {
	c := &Camera{
		Speed: speed,
		MinZ:  0,
		MaxZ:  1,
		Scale: 1,
	}
	c.Z = clamp(z, c.MinZ, c.MaxZ)
	c.initialZ = c.Z
	return c
}

// Advance moves the camera for one frame of dt seconds.
// Forward pushes the camera deeper (increasing Z); holding both cancels out.
func (c *Camera) Advance(forward, backward bool, dt float32) {
	if dt <= 0 || dt != dt {
		return
	}
	var dir float32
	if forward {
		dir++
	}
	if backward {
		dir--
	}
	c.Z = clamp(c.Z+dir*c.Speed*dt, c.MinZ, c.MaxZ)
}

// SetScale updates the DPI factor. Non-positive values reset it to 1.
func (c *Camera) SetScale(scale float32) {
	if scale <= 0 || scale != scale {
		scale = 1
	}
	c.Scale = scale
}

// PointToDevice converts a window point to device pixel coordinates.
func (c *Camera) PointToDevice(x, y float32) (dx, dy float32) {
	return x * c.Scale, y * c.Scale
}

// Reset returns the camera to its starting depth.
func (c *Camera) Reset() {
	c.Z = c.initialZ
}

func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
