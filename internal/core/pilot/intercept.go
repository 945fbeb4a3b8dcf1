package pilot

import (
	"math"

	"github.com/zeusync/duelist/internal/core/systems/physics"
)

// InterceptTime returns the time at which something leaving shooter at a
// constant speed meets a target moving at constant velocity, taking the
// (−b − √Δ)/2a root of
//
//	(|V|² − S²)·t² + 2·V·(P − shooter)·t + |P − shooter|² = 0.
//
// When |V| == S or the discriminant is negative the result is NaN or ±Inf;
// callers get it as is.
func InterceptTime(shooter, targetPos, targetVel physics.Vec2, speed float64) float64 {
	rel := targetPos.Sub(shooter)
	a := targetVel.LengthSquared() - speed*speed
	b := 2 * targetVel.Dot(rel)
	c := rel.LengthSquared()
	return (-b - math.Sqrt(b*b-4*a*c)) / (2 * a)
}

// Solution is a predicted meeting point.
type Solution struct {
	Point physics.Vec2
	Time  float64
	// TargetAccel is the per-tick velocity change used for the correction.
	TargetAccel physics.Vec2
}

// Valid reports whether the prediction is a finite point.
func (s Solution) Valid() bool {
	return s.Point.IsFinite() && !math.IsNaN(s.Time) && !math.IsInf(s.Time, 0)
}

// Predictor turns intercept times into aim points, correcting for the
// target's acceleration estimated from Memory.
type Predictor struct {
	memory     *Memory
	correction float64
}

func NewPredictor(memory *Memory, correction float64) *Predictor {
	return &Predictor{memory: memory, correction: correction}
}

// Intercept predicts where a traveler at speed meets the target. Every call
// replaces the memory sample with targetVel.
func (p *Predictor) Intercept(shooter, targetPos, targetVel physics.Vec2, speed float64) Solution {
	t := InterceptTime(shooter, targetPos, targetVel, speed)
	acc := p.memory.observe(targetVel)

	lead := targetVel.
		Add(acc.Scale(0.5 * t)).
		Add(acc.Scale(p.correction))

	return Solution{
		Point:       targetPos.Add(lead.Scale(t)),
		Time:        t,
		TargetAccel: acc,
	}
}
