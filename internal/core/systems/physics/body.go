package physics

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidLimits = errors.New("invalid actuator limits")

// Limits bounds what a ship's actuators can deliver within one tick.
// Linear limits are expressed in the ship frame: forward along the heading,
// backward against it, lateral perpendicular to it.
type Limits struct {
	MaxForwardAcceleration  float64 `json:"max_forward_acceleration" yaml:"max_forward_acceleration"`
	MaxBackwardAcceleration float64 `json:"max_backward_acceleration" yaml:"max_backward_acceleration"`
	MaxLateralAcceleration  float64 `json:"max_lateral_acceleration" yaml:"max_lateral_acceleration"`
	MaxAngularAcceleration  float64 `json:"max_angular_acceleration" yaml:"max_angular_acceleration"`
	BoostAcceleration       float64 `json:"boost_acceleration" yaml:"boost_acceleration"`
}

// Validate rejects limits the controllers would divide by.
func (l Limits) Validate() error {
	switch {
	case l.MaxBackwardAcceleration <= 0:
		return fmt.Errorf("%w: max backward acceleration must be positive", ErrInvalidLimits)
	case l.MaxAngularAcceleration <= 0:
		return fmt.Errorf("%w: max angular acceleration must be positive", ErrInvalidLimits)
	case l.MaxForwardAcceleration < 0 || l.MaxLateralAcceleration < 0:
		return fmt.Errorf("%w: accelerations must not be negative", ErrInvalidLimits)
	case l.BoostAcceleration < 0:
		return fmt.Errorf("%w: boost acceleration must not be negative", ErrInvalidLimits)
	}
	return nil
}

// Body is the kinematic state of a rigid ship.
type Body struct {
	Position        Vec2    `json:"position" yaml:"position"`
	Velocity        Vec2    `json:"velocity" yaml:"velocity"`
	Heading         float64 `json:"heading" yaml:"heading"`
	AngularVelocity float64 `json:"angular_velocity" yaml:"angular_velocity"`
}

// ClampAcceleration projects a world-frame acceleration request onto the
// body's frame, clamps each axis against lim and returns it in world frame.
func (b Body) ClampAcceleration(acc Vec2, lim Limits) Vec2 {
	local := acc.Rotate(-b.Heading)
	local.X = Clamp(local.X, -lim.MaxBackwardAcceleration, lim.MaxForwardAcceleration)
	local.Y = Clamp(local.Y, -lim.MaxLateralAcceleration, lim.MaxLateralAcceleration)
	return local.Rotate(b.Heading)
}

// Integrate advances the body by dt seconds under the requested world-frame
// acceleration and torque (angular acceleration). Requests are clamped to lim;
// boost adds lim.BoostAcceleration along the heading. Semi-implicit Euler.
func (b Body) Integrate(acc Vec2, torque float64, boost bool, lim Limits, dt float64) Body {
	a := b.ClampAcceleration(acc, lim)
	if boost {
		a = a.Add(FromAngle(b.Heading, lim.BoostAcceleration))
	}
	alpha := Clamp(torque, -lim.MaxAngularAcceleration, lim.MaxAngularAcceleration)

	b.Velocity = b.Velocity.Add(a.Scale(dt))
	b.Position = b.Position.Add(b.Velocity.Scale(dt))
	b.AngularVelocity += alpha * dt
	b.Heading = math.Mod(b.Heading+b.AngularVelocity*dt, TwoPi)
	if b.Heading < 0 {
		b.Heading += TwoPi
	}
	return b
}

// Advance moves the body as an unconstrained point mass. Heading and angular
// velocity are left as they are.
func (b Body) Advance(acc Vec2, dt float64) Body {
	b.Velocity = b.Velocity.Add(acc.Scale(dt))
	b.Position = b.Position.Add(b.Velocity.Scale(dt))
	return b
}

// IsFinite reports whether every component of the state is finite.
func (b Body) IsFinite() bool {
	return b.Position.IsFinite() && b.Velocity.IsFinite() &&
		!math.IsNaN(b.Heading) && !math.IsInf(b.Heading, 0) &&
		!math.IsNaN(b.AngularVelocity) && !math.IsInf(b.AngularVelocity, 0)
}
