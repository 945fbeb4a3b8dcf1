package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/duelist/internal/core/pilot"
	"github.com/zeusync/duelist/internal/core/systems/physics"
)

var _ pilot.Host = (*World)(nil)

func newTestWorld(t *testing.T, d Duel) *World {
	t.Helper()
	w, err := NewWorld(d, DefaultRules(), DefaultLimits())
	require.NoError(t, err)
	return w
}

func TestWorld_SanitizesNonFiniteCommands(t *testing.T) {
	w := newTestWorld(t, Duel{Name: "nan", Ticks: 1})

	w.Accelerate(physics.V(math.NaN(), 1))
	assert.True(t, w.Degenerate())
	w.Torque(math.Inf(1))
	w.Step()

	assert.False(t, w.Degenerate(), "flag clears every step")
	assert.Equal(t, physics.Body{}, w.Ship())

	w.Accelerate(physics.V(60, 0))
	w.Torque(1)
	assert.False(t, w.Degenerate())
}

func TestWorld_BoostPersists(t *testing.T) {
	w := newTestWorld(t, Duel{Name: "boost", Ticks: 1})
	w.SetBoost(true)
	w.Step()
	w.Step()
	assert.True(t, w.Boosting())
	// Boost alone pushes along the heading.
	assert.InDelta(t, 2*DefaultLimits().BoostAcceleration*DefaultRules().TickLength, w.Ship().Velocity.X, 1e-9)

	w.SetBoost(false)
	w.Step()
	assert.False(t, w.Boosting())
}

func TestWorld_ReloadCadence(t *testing.T) {
	w := newTestWorld(t, Duel{Name: "reload", Ticks: 1, Target: physics.Body{Position: physics.V(0, 5000)}})
	for i := 0; i < 20; i++ {
		w.Fire(0)
		w.Step()
	}
	// One shot, then ReloadTicks quiet ticks.
	assert.Equal(t, 20/(DefaultRules().ReloadTicks+1), w.Shots())
	assert.Zero(t, w.Hits())
	assert.Equal(t, int64(-1), w.FirstHit())
}

func TestWorld_BulletHitsStaticTarget(t *testing.T) {
	w := newTestWorld(t, Duel{Name: "hit", Ticks: 1, Target: physics.Body{Position: physics.V(500, 0)}})
	w.Fire(0)
	w.Step()
	require.Equal(t, 1, w.Shots())

	for i := 0; i < 40 && w.Hits() == 0; i++ {
		w.Step()
	}
	assert.Equal(t, 1, w.Hits())
	// 490 m at 1000/60 m per tick is crossed on tick 30.
	assert.Equal(t, int64(30), w.FirstHit())
}

func TestWorld_BulletsExpire(t *testing.T) {
	rules := DefaultRules()
	rules.BulletTTL = 0.1
	w, err := NewWorld(Duel{Name: "ttl", Ticks: 1, Target: physics.Body{Position: physics.V(500, 0)}}, rules, DefaultLimits())
	require.NoError(t, err)

	w.Fire(0)
	for i := 0; i < 60; i++ {
		w.Step()
	}
	assert.Equal(t, 1, w.Shots())
	assert.Zero(t, w.Hits())
	assert.Empty(t, w.bullets)
}

func TestWorld_FastCrossingIsDetected(t *testing.T) {
	// The target sweeps across the bullet path in a single tick.
	w := newTestWorld(t, Duel{
		Name:   "cross",
		Ticks:  1,
		Target: physics.Body{Position: physics.V(100, -20), Velocity: physics.V(0, 2400)},
	})
	w.bullets = append(w.bullets, bullet{position: physics.V(100, 0), ttl: 1})
	w.Step()
	assert.Equal(t, 1, w.Hits())
}

func TestWorld_SensorsMirrorState(t *testing.T) {
	d := Duel{
		Name:   "sense",
		Ticks:  1,
		Ship:   physics.Body{Position: physics.V(1, 2), Velocity: physics.V(3, 4), Heading: 0.5, AngularVelocity: 0.1},
		Target: physics.Body{Position: physics.V(9, 9), Velocity: physics.V(-1, 0)},
	}
	w := newTestWorld(t, d)
	s := pilot.ReadSnapshot(w)

	assert.Equal(t, d.Ship.Position, s.Self.Position)
	assert.Equal(t, d.Ship.Velocity, s.Self.Velocity)
	assert.Equal(t, 0.5, s.Self.Heading)
	assert.Equal(t, 0.1, s.Self.AngularVelocity)
	assert.Equal(t, d.Target.Position, s.Target.Position)
	assert.Equal(t, d.Target.Velocity, s.Target.Velocity)
	assert.Equal(t, DefaultRules().TickLength, s.Limits.TickLength)
	assert.Equal(t, DefaultLimits().MaxAngularAcceleration, s.Limits.MaxAngularAcceleration)
}
