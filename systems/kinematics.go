package systems

import (
	"github.com/pthm-cable/metaballs/components"
)

// DefaultMinVelocity is the speed floor in pixels per second.
const DefaultMinVelocity = 50.0

// KinematicsSystem integrates particle positions and enforces the speed floor.
type KinematicsSystem struct {
	minVelocity float64
}

// NewKinematicsSystem creates a kinematics stage with the given speed floor.
func NewKinematicsSystem(minVelocity float64) *KinematicsSystem {
	if minVelocity < 0 || !finite(minVelocity) {
		minVelocity = 0
	}
	return &KinematicsSystem{minVelocity: minVelocity}
}

// Update advances every particle by dt seconds.
// A non-positive or non-finite dt leaves the store untouched.
func (s *KinematicsSystem) Update(store *Store, vp components.Viewport, dt float64) {
	if dt <= 0 || !finite(dt) || !vp.Valid() {
		return
	}

	particles := store.All()
	for i := range particles {
		p := &particles[i]

		// Integrate position
		p.Pos.X += p.Vel.X * dt
		p.Pos.Y += p.Vel.Y * dt

		// Wrap around edges instead of bouncing
		p.Pos = WrapPosition(p.Pos, vp)

		// Keep everything moving
		p.Vel = enforceMinSpeed(p.Vel, s.minVelocity)
	}
}
