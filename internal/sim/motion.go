package sim

import (
	"fmt"
	"math"

	"github.com/zeusync/duelist/internal/core/systems/physics"
)

type MotionKind string

const (
	// MotionDrift keeps the initial velocity.
	MotionDrift MotionKind = "drift"
	// MotionAccelerate applies a constant world-frame acceleration.
	MotionAccelerate MotionKind = "accelerate"
	// MotionWeave oscillates sideways to the direction of travel.
	MotionWeave MotionKind = "weave"
	// MotionCharge accelerates straight at the ship.
	MotionCharge MotionKind = "charge"
)

// Motion describes how a target flies during a duel.
type Motion struct {
	Kind MotionKind `json:"kind" yaml:"kind"`
	// Acceleration is used by MotionAccelerate.
	Acceleration physics.Vec2 `json:"acceleration,omitempty" yaml:"acceleration,omitempty"`
	// Amplitude is the peak sideways acceleration for MotionWeave and the
	// acceleration magnitude for MotionCharge.
	Amplitude float64 `json:"amplitude,omitempty" yaml:"amplitude,omitempty"`
	// Period of a full weave in seconds.
	Period float64 `json:"period,omitempty" yaml:"period,omitempty"`
}

// Script returns the target acceleration at simulated time t.
type Script func(t float64, target, ship physics.Body) physics.Vec2

// Script compiles the motion. An empty kind means drift.
func (m Motion) Script() (Script, error) {
	switch m.Kind {
	case "", MotionDrift:
		return func(float64, physics.Body, physics.Body) physics.Vec2 { return physics.Vec2{} }, nil
	case MotionAccelerate:
		acc := m.Acceleration
		return func(float64, physics.Body, physics.Body) physics.Vec2 { return acc }, nil
	case MotionWeave:
		if m.Period <= 0 {
			return nil, fmt.Errorf("%w: weave period must be positive", ErrInvalidDuel)
		}
		amp, omega := m.Amplitude, physics.TwoPi/m.Period
		return func(t float64, target, _ physics.Body) physics.Vec2 {
			side := target.Velocity.Normalize().Perp()
			return side.Scale(amp * math.Sin(omega*t))
		}, nil
	case MotionCharge:
		amp := m.Amplitude
		return func(_ float64, target, ship physics.Body) physics.Vec2 {
			return ship.Position.Sub(target.Position).Normalize().Scale(amp)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMotion, m.Kind)
	}
}
