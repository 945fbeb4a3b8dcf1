package pilot

import (
	"fmt"
	"math"

	"github.com/zeusync/duelist/internal/core/systems/physics"
)

// FacingMode selects where the nose points while travelling.
type FacingMode uint8

const (
	// FaceTravel points the nose along the displacement.
	FaceTravel FacingMode = iota
	// FaceTravelCorrectingDrift is FaceTravel plus a heading bias against
	// large lateral drift.
	FaceTravelCorrectingDrift
	// FacePoint points the nose at an independent point.
	FacePoint
)

func (m FacingMode) String() string {
	switch m {
	case FaceTravel:
		return "travel"
	case FaceTravelCorrectingDrift:
		return "travel+drift"
	case FacePoint:
		return "point"
	default:
		return fmt.Sprintf("facing(%d)", uint8(m))
	}
}

// Facing is the heading policy handed to Goto.
type Facing struct {
	Mode  FacingMode
	Point physics.Vec2
}

func TowardTravel() Facing                { return Facing{Mode: FaceTravel} }
func TowardTravelCorrectingDrift() Facing { return Facing{Mode: FaceTravelCorrectingDrift} }
func Toward(p physics.Vec2) Facing        { return Facing{Mode: FacePoint, Point: p} }

// Regime names the branch the linear controller took.
type Regime uint8

const (
	RegimeClosing Regime = iota
	RegimeBraking
	RegimeHold
	RegimeDash
)

func (r Regime) String() string {
	switch r {
	case RegimeClosing:
		return "closing"
	case RegimeBraking:
		return "braking"
	case RegimeHold:
		return "hold"
	case RegimeDash:
		return "dash"
	default:
		return fmt.Sprintf("regime(%d)", uint8(r))
	}
}

// Motion is the output of the linear controller for one tick.
type Motion struct {
	Acceleration physics.Vec2
	Torque       float64
	Boost        Boost
	Regime       Regime
	// Heading is the target heading handed to Turn.
	Heading float64
	// Radial and Lateral are the two parts of Acceleration.
	Radial  physics.Vec2
	Lateral physics.Vec2
	// Axis is the unit lateral axis; VLateral the velocity along it.
	Axis     physics.Vec2
	VLateral float64
}

// StoppingDistance is how far a ship moving at speed travels while braking
// at maxBackward, with the half-tick discretisation term.
func StoppingDistance(speed, maxBackward, dt float64) float64 {
	tLeft := speed / maxBackward
	return speed*tLeft - 0.5*maxBackward*(tLeft*tLeft+dt*tLeft)
}

// Goto computes the acceleration, boost and torque that bring the ship to
// target: full forward thrust until the stopping distance is reached, then
// the exact deceleration needed to land, while always cancelling lateral
// drift. The nose follows facing.
func Goto(self Kinematics, lim Limits, tun Tuning, target physics.Vec2, facing Facing) Motion {
	dt := lim.TickLength
	v := self.Velocity
	speed := v.Length()

	displ := target.Sub(self.Position)
	distance := displ.Length()
	dir := displ.Normalize()
	axis := dir.Rotate(math.Pi / 2)
	vLateral := axis.Dot(v)

	m := Motion{Axis: axis, VLateral: vLateral}

	switch facing.Mode {
	case FacePoint:
		m.Heading = facing.Point.Sub(self.Position).Angle()
	case FaceTravelCorrectingDrift:
		m.Heading = displ.Angle()
		if math.Abs(vLateral) > tun.DriftThresholdTicks*lim.MaxLateralAcceleration*dt {
			m.Heading += -tun.DriftBias * physics.Sign(vLateral)
		}
	default:
		m.Heading = displ.Angle()
	}
	m.Torque = Turn(self, lim, m.Heading)

	if distance <= StoppingDistance(speed, lim.MaxBackwardAcceleration, dt) {
		required := math.Abs(distance-speed*dt) / (dt * dt)
		m.Radial = dir.Scale(-math.Min(required, lim.MaxBackwardAcceleration))
		m.Boost = BoostOff
		m.Regime = RegimeBraking
	} else {
		m.Radial = dir.Scale(lim.MaxForwardAcceleration)
		m.Boost = boostIfAligned(self.Heading, displ.Angle(), tun.BoostAccuracy)
		m.Regime = RegimeClosing
	}

	m.Lateral = axis.Scale(-vLateral)
	m.Acceleration = m.Radial.Add(m.Lateral)
	return m
}

// ZeroVelocity is the acceleration that cancels the current velocity. The
// heading is left alone.
func ZeroVelocity(self Kinematics) physics.Vec2 {
	return self.Velocity.Neg()
}

// DashThrough turns toward target and accelerates along the raw
// displacement without braking, boosting once aligned.
func DashThrough(self Kinematics, lim Limits, tun Tuning, target physics.Vec2) Motion {
	displ := target.Sub(self.Position)
	heading := displ.Angle()
	return Motion{
		Acceleration: displ,
		Radial:       displ,
		Torque:       Turn(self, lim, heading),
		Boost:        boostIfAligned(self.Heading, heading, tun.BoostAccuracy),
		Regime:       RegimeDash,
		Heading:      heading,
	}
}

func boostIfAligned(heading, want, accuracy float64) Boost {
	if math.Abs(physics.AngleDiff(heading, want)) < accuracy {
		return BoostOn
	}
	return BoostOff
}
