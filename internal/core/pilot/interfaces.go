package pilot

import (
	"github.com/zeusync/duelist/internal/core/systems/physics"
)

// Kinematics is a sensed state snapshot. Heading and AngularVelocity are only
// meaningful for the ship itself.
type Kinematics struct {
	Position        physics.Vec2
	Velocity        physics.Vec2
	Heading         float64
	AngularVelocity float64
}

// Limits are the actuator bounds reported by the host for the current tick.
type Limits struct {
	MaxForwardAcceleration  float64
	MaxBackwardAcceleration float64
	MaxLateralAcceleration  float64
	MaxAngularAcceleration  float64
	// TickLength is the fixed step in seconds.
	TickLength float64
}

// Snapshot is everything the pilot reads in one tick.
type Snapshot struct {
	Self   Kinematics
	Target Kinematics
	Limits Limits
}

// Boost is a tri-state ability command: the host keeps the previous state
// when it receives BoostUnchanged.
type Boost uint8

const (
	BoostUnchanged Boost = iota
	BoostOn
	BoostOff
)

func (b Boost) String() string {
	switch b {
	case BoostOn:
		return "on"
	case BoostOff:
		return "off"
	default:
		return "unchanged"
	}
}

// Command is the actuator output of one tick.
type Command struct {
	Acceleration physics.Vec2
	Torque       float64
	Boost        Boost
	Fire         bool
	Weapon       int
}

// Sensors is the read side of a host that exposes per-value callbacks rather
// than a ready Snapshot.
type Sensors interface {
	Position() physics.Vec2
	Velocity() physics.Vec2
	Heading() float64
	AngularVelocity() float64
	TargetPosition() physics.Vec2
	TargetVelocity() physics.Vec2
	MaxForwardAcceleration() float64
	MaxBackwardAcceleration() float64
	MaxLateralAcceleration() float64
	MaxAngularAcceleration() float64
	TickLength() float64
}

// Actuators is the write side of the host.
type Actuators interface {
	Accelerate(acc physics.Vec2)
	Torque(alpha float64)
	SetBoost(on bool)
	Fire(weapon int)
}

// Host is a simulation that both senses and actuates.
type Host interface {
	Sensors
	Actuators
}

// ReadSnapshot collects a Snapshot from callback-style sensors.
func ReadSnapshot(s Sensors) Snapshot {
	return Snapshot{
		Self: Kinematics{
			Position:        s.Position(),
			Velocity:        s.Velocity(),
			Heading:         s.Heading(),
			AngularVelocity: s.AngularVelocity(),
		},
		Target: Kinematics{
			Position: s.TargetPosition(),
			Velocity: s.TargetVelocity(),
		},
		Limits: Limits{
			MaxForwardAcceleration:  s.MaxForwardAcceleration(),
			MaxBackwardAcceleration: s.MaxBackwardAcceleration(),
			MaxLateralAcceleration:  s.MaxLateralAcceleration(),
			MaxAngularAcceleration:  s.MaxAngularAcceleration(),
			TickLength:              s.TickLength(),
		},
	}
}

// Apply forwards the command to the host actuators.
func (c Command) Apply(act Actuators) {
	act.Accelerate(c.Acceleration)
	act.Torque(c.Torque)
	switch c.Boost {
	case BoostOn:
		act.SetBoost(true)
	case BoostOff:
		act.SetBoost(false)
	}
	if c.Fire {
		act.Fire(c.Weapon)
	}
}
