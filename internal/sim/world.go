package sim

import (
	"math"

	"github.com/zeusync/duelist/internal/core/systems/physics"
)

type bullet struct {
	position physics.Vec2
	velocity physics.Vec2
	ttl      float64
}

// World is a two-body arena: the piloted ship and a scripted target. It
// implements pilot.Host, so an agent can Drive it directly; actuator calls
// are latched and take effect on the next Step.
type World struct {
	rules  Rules
	limits physics.Limits
	script Script

	ship   physics.Body
	target physics.Body
	tick   uint64

	acc        physics.Vec2
	torque     float64
	boost      bool
	fire       bool
	degenerate bool

	reload  int
	bullets []bullet

	shots    int
	hits     int
	firstHit int64
}

func NewWorld(d Duel, rules Rules, lim physics.Limits) (*World, error) {
	script, err := d.Motion.Script()
	if err != nil {
		return nil, err
	}
	return &World{
		rules:    rules,
		limits:   lim,
		script:   script,
		ship:     d.Ship,
		target:   d.Target,
		firstHit: -1,
	}, nil
}

func (w *World) Position() physics.Vec2           { return w.ship.Position }
func (w *World) Velocity() physics.Vec2           { return w.ship.Velocity }
func (w *World) Heading() float64                 { return w.ship.Heading }
func (w *World) AngularVelocity() float64         { return w.ship.AngularVelocity }
func (w *World) TargetPosition() physics.Vec2     { return w.target.Position }
func (w *World) TargetVelocity() physics.Vec2     { return w.target.Velocity }
func (w *World) MaxForwardAcceleration() float64  { return w.limits.MaxForwardAcceleration }
func (w *World) MaxBackwardAcceleration() float64 { return w.limits.MaxBackwardAcceleration }
func (w *World) MaxLateralAcceleration() float64  { return w.limits.MaxLateralAcceleration }
func (w *World) MaxAngularAcceleration() float64  { return w.limits.MaxAngularAcceleration }
func (w *World) TickLength() float64              { return w.rules.TickLength }

// Accelerate latches a world-frame acceleration. Non-finite requests are
// replaced by zero and mark the tick as degenerate.
func (w *World) Accelerate(acc physics.Vec2) {
	if !acc.IsFinite() {
		w.degenerate = true
		acc = physics.Vec2{}
	}
	w.acc = acc
}

func (w *World) Torque(alpha float64) {
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		w.degenerate = true
		alpha = 0
	}
	w.torque = alpha
}

// SetBoost switches the ability; it stays in that state until changed.
func (w *World) SetBoost(on bool) { w.boost = on }

// Fire requests a shot. There is one gun, so the index is ignored.
func (w *World) Fire(int) { w.fire = true }

func (w *World) Ship() physics.Body   { return w.ship }
func (w *World) Target() physics.Body { return w.target }
func (w *World) Tick() uint64         { return w.tick }
func (w *World) Shots() int           { return w.shots }
func (w *World) Hits() int            { return w.hits }
func (w *World) Boosting() bool       { return w.boost }

// FirstHit is the tick of the first hit, or -1.
func (w *World) FirstHit() int64 { return w.firstHit }

// Degenerate reports whether the latched command had to be sanitized.
func (w *World) Degenerate() bool { return w.degenerate }

// Step advances the arena by one tick using the latched commands.
func (w *World) Step() {
	dt := w.rules.TickLength
	now := float64(w.tick) * dt

	if w.fire && w.reload == 0 {
		w.bullets = append(w.bullets, bullet{
			position: w.ship.Position,
			velocity: w.ship.Velocity.Add(physics.FromAngle(w.ship.Heading, w.rules.BulletSpeed)),
			ttl:      w.rules.BulletTTL,
		})
		w.shots++
		w.reload = w.rules.ReloadTicks
	} else if w.reload > 0 {
		w.reload--
	}

	targetAcc := w.script(now, w.target, w.ship)
	prevTarget := w.target.Position
	w.ship = w.ship.Integrate(w.acc, w.torque, w.boost, w.limits, dt)
	w.target = w.target.Advance(targetAcc, dt)
	w.tick++

	w.moveBullets(prevTarget, dt)

	w.fire = false
	w.degenerate = false
}

// moveBullets advances bullets and tests each swept segment against the
// target in the target's frame, so fast crossings are not missed.
func (w *World) moveBullets(prevTarget physics.Vec2, dt float64) {
	live := w.bullets[:0]
	for _, b := range w.bullets {
		from := b.position.Sub(prevTarget)
		b.position = b.position.Add(b.velocity.Scale(dt))
		b.ttl -= dt
		to := b.position.Sub(w.target.Position)

		if physics.SegmentDistance(from, to, physics.Vec2{}) <= w.rules.TargetRadius {
			w.hits++
			if w.firstHit < 0 {
				w.firstHit = int64(w.tick)
			}
			continue
		}
		if b.ttl > 0 {
			live = append(live, b)
		}
	}
	w.bullets = live
}
