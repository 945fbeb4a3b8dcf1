package pilot

import (
	"math"

	"github.com/zeusync/duelist/internal/core/systems/physics"
)

const (
	// snapAngle and snapTicks gate the final correction: once the heading is
	// this close and the rotation would stop within this many ticks, the
	// controller lands on the target directly instead of bang-bang.
	snapAngle = 0.01
	snapTicks = 0.975
)

// Turn returns the torque (angular acceleration) for this tick that drives
// the heading toward targetHeading as fast as lim allows without overshoot.
//
// Bang-bang with a one-tick lookahead: keep accelerating toward the target
// unless one more tick of acceleration followed by full braking would carry
// past it, in which case brake.
func Turn(self Kinematics, lim Limits, targetHeading float64) float64 {
	theta := physics.AngleDiff(self.Heading, targetHeading)
	omega := self.AngularVelocity
	alphaMax := lim.MaxAngularAcceleration
	dt := lim.TickLength
	direction := physics.Sign(theta)

	tStop := math.Abs(omega) / alphaMax
	ticksStop := tStop / dt
	omegaAfter := omega + direction*alphaMax*dt
	thetaStopAfter := (omegaAfter - direction*tStop*0.5*alphaMax) * (tStop + dt)

	var torque float64
	switch {
	case math.Abs(theta) < snapAngle && ticksStop < snapTicks:
		torque = theta - omega
	case physics.Sign(theta) == physics.Sign(omega) && math.Abs(thetaStopAfter) > math.Abs(theta):
		torque = -direction * alphaMax
	default:
		torque = direction * alphaMax
	}
	return physics.Clamp(torque, -alphaMax, alphaMax)
}
