package pilot

import (
	"math"

	"github.com/zeusync/duelist/internal/core/systems/physics"
	"github.com/zeusync/duelist/internal/core/telemetry"
)

// EngagementState is recomputed every tick from the snapshot; it is never
// stored, so the policy can flip between states on consecutive ticks.
type EngagementState uint8

const (
	// StatePursuit: the target is static or moving away.
	StatePursuit EngagementState = iota
	// StateClosing: the target is moving toward the ship.
	StateClosing
)

func (s EngagementState) String() string {
	if s == StateClosing {
		return "closing"
	}
	return "pursuit"
}

// Classify reports StateClosing when the target velocity points back toward
// the ship (negative dot product with ship→target), StatePursuit otherwise.
func Classify(selfPos, targetPos, targetVel physics.Vec2) EngagementState {
	if targetVel.Dot(targetPos.Sub(selfPos)) < 0 {
		return StateClosing
	}
	return StatePursuit
}

// RelativeRadialSpeed is the closing speed along the target→ship line;
// positive while the two are separating.
func RelativeRadialSpeed(self Kinematics, targetPos, targetVel physics.Vec2) float64 {
	radial := self.Position.Sub(targetPos).Normalize()
	return self.Velocity.Dot(radial) - targetVel.Dot(radial)
}

// Decision explains the command chosen for one tick.
type Decision struct {
	State           EngagementState
	BulletIntercept Solution
	// ShipIntercept is only set in pursuit.
	ShipIntercept Solution
	Regime        Regime
	// AimError is the heading error to the bullet intercept direction.
	AimError    float64
	RadialSpeed float64
}

func (a *Agent) engage(s Snapshot) (Command, Decision) {
	d := Decision{
		State:       Classify(s.Self.Position, s.Target.Position, s.Target.Velocity),
		RadialSpeed: RelativeRadialSpeed(s.Self, s.Target.Position, s.Target.Velocity),
	}
	if d.State == StateClosing {
		return a.holdAndShoot(s, d)
	}
	return a.pursueAndShoot(s, d)
}

// holdAndShoot brakes to a stop and turns onto the bullet intercept. With
// Tuning.Ram it dashes at the target instead of holding.
func (a *Agent) holdAndShoot(s Snapshot, d Decision) (Command, Decision) {
	var cmd Command
	if a.tuning.Ram {
		m := DashThrough(s.Self, s.Limits, a.tuning, s.Target.Position)
		cmd.Acceleration, cmd.Torque, cmd.Boost = m.Acceleration, m.Torque, m.Boost
		d.Regime = m.Regime
	} else {
		cmd.Acceleration = ZeroVelocity(s.Self)
		d.Regime = RegimeHold
	}

	d.BulletIntercept = a.predictor.Intercept(s.Self.Position, s.Target.Position, s.Target.Velocity, a.tuning.BulletSpeed)
	a.sink.Marker(d.BulletIntercept.Point, 20, telemetry.Yellow)

	aim := d.BulletIntercept.Point.Sub(s.Self.Position).Angle()
	if !a.tuning.Ram {
		// TODO: derive the lead offset from the target's angular rate instead of a constant.
		cmd.Torque = Turn(s.Self, s.Limits, aim+a.tuning.LeadCompensation)
	}
	d.AimError = physics.AngleDiff(s.Self.Heading, aim)
	a.trigger(&cmd, d)
	return cmd, d
}

// pursueAndShoot flies to the ship intercept while keeping the nose on the
// bullet intercept.
func (a *Agent) pursueAndShoot(s Snapshot, d Decision) (Command, Decision) {
	d.BulletIntercept = a.predictor.Intercept(s.Self.Position, s.Target.Position, s.Target.Velocity, a.tuning.BulletSpeed)
	d.ShipIntercept = a.predictor.Intercept(s.Self.Position, s.Target.Position, s.Target.Velocity, a.tuning.CruiseSpeed)
	a.sink.Marker(d.BulletIntercept.Point, 20, telemetry.Red)

	m := Goto(s.Self, s.Limits, a.tuning, d.ShipIntercept.Point, Toward(d.BulletIntercept.Point))
	a.drawMotion(s.Self, m, d.ShipIntercept.Point)
	cmd := Command{Acceleration: m.Acceleration, Torque: m.Torque, Boost: m.Boost}
	d.Regime = m.Regime

	d.AimError = physics.AngleDiff(s.Self.Heading, d.BulletIntercept.Point.Sub(s.Self.Position).Angle())
	a.trigger(&cmd, d)
	return cmd, d
}

func (a *Agent) trigger(cmd *Command, d Decision) {
	if math.Abs(d.AimError) < a.tuning.FireAccuracy {
		cmd.Fire = true
		cmd.Weapon = a.tuning.Weapon
	}
}

func (a *Agent) drawMotion(self Kinematics, m Motion, target physics.Vec2) {
	p := self.Position
	a.sink.Line(p, p.Add(m.Axis.Scale(m.VLateral)), telemetry.Magenta)
	dir := target.Sub(p).Normalize()
	a.sink.Line(p, p.Add(dir.Scale(dir.Dot(self.Velocity))), telemetry.Orange)
	a.sink.Line(p, target, telemetry.Blue)
}
