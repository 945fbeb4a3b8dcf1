package pilot

import "github.com/zeusync/duelist/internal/core/systems/physics"

// Memory is the only state the pilot carries from one tick to the next: the
// target velocity seen on the previous intercept computation.
type Memory struct {
	lastTargetVelocity physics.Vec2
	seen               bool
}

// LastTargetVelocity returns the stored sample and whether one exists.
func (m *Memory) LastTargetVelocity() (physics.Vec2, bool) {
	return m.lastTargetVelocity, m.seen
}

// observe stores v and returns the velocity change since the previous sample
// (per tick, not per second). The first call returns zero.
func (m *Memory) observe(v physics.Vec2) physics.Vec2 {
	var dv physics.Vec2
	if m.seen {
		dv = v.Sub(m.lastTargetVelocity)
	}
	m.lastTargetVelocity = v
	m.seen = true
	return dv
}
