package pilot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/duelist/internal/core/observability/log"
	"github.com/zeusync/duelist/internal/core/systems/physics"
)

type fakeHost struct {
	snap Snapshot

	acc     physics.Vec2
	torque  float64
	boost   []bool
	fired   []int
	applied int
}

func (h *fakeHost) Position() physics.Vec2           { return h.snap.Self.Position }
func (h *fakeHost) Velocity() physics.Vec2           { return h.snap.Self.Velocity }
func (h *fakeHost) Heading() float64                 { return h.snap.Self.Heading }
func (h *fakeHost) AngularVelocity() float64         { return h.snap.Self.AngularVelocity }
func (h *fakeHost) TargetPosition() physics.Vec2     { return h.snap.Target.Position }
func (h *fakeHost) TargetVelocity() physics.Vec2     { return h.snap.Target.Velocity }
func (h *fakeHost) MaxForwardAcceleration() float64  { return h.snap.Limits.MaxForwardAcceleration }
func (h *fakeHost) MaxBackwardAcceleration() float64 { return h.snap.Limits.MaxBackwardAcceleration }
func (h *fakeHost) MaxLateralAcceleration() float64  { return h.snap.Limits.MaxLateralAcceleration }
func (h *fakeHost) MaxAngularAcceleration() float64  { return h.snap.Limits.MaxAngularAcceleration }
func (h *fakeHost) TickLength() float64              { return h.snap.Limits.TickLength }

func (h *fakeHost) Accelerate(acc physics.Vec2) { h.acc = acc; h.applied++ }
func (h *fakeHost) Torque(alpha float64)        { h.torque = alpha }
func (h *fakeHost) SetBoost(on bool)            { h.boost = append(h.boost, on) }
func (h *fakeHost) Fire(weapon int)             { h.fired = append(h.fired, weapon) }

func TestNew_Defaults(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID())
	assert.Equal(t, DefaultTuning(), a.Tuning())

	mem := a.Memory()
	_, ok := mem.LastTargetVelocity()
	assert.False(t, ok, "memory starts empty")
}

func TestNew_Options(t *testing.T) {
	tun := DefaultTuning()
	tun.Weapon = 2
	a, err := New(WithID("red-1"), WithTuning(tun), WithLogger(log.NewNop()))
	require.NoError(t, err)
	assert.Equal(t, "red-1", a.ID())
	assert.Equal(t, 2, a.Tuning().Weapon)
}

func TestNew_RejectsInvalidTuning(t *testing.T) {
	tun := DefaultTuning()
	tun.BulletSpeed = 0
	_, err := New(WithTuning(tun))
	assert.ErrorIs(t, err, ErrInvalidTuning)
}

func TestTick_MemoryPresentAfterFirstTick(t *testing.T) {
	a := newTestAgent(t)
	_ = a.Tick(duelSnapshot(physics.V(-100, 0)))
	mem := a.Memory()
	v, ok := mem.LastTargetVelocity()
	require.True(t, ok)
	assert.Equal(t, physics.V(-100, 0), v)
}

func TestTick_Deterministic(t *testing.T) {
	a := newTestAgent(t)
	b := newTestAgent(t)
	for _, vel := range []physics.Vec2{physics.V(100, 0), physics.V(104, 3), physics.V(-20, 50)} {
		assert.Equal(t, a.Tick(duelSnapshot(vel)), b.Tick(duelSnapshot(vel)))
	}
}

func TestDrive_ReadsSensorsAndWritesActuators(t *testing.T) {
	a := newTestAgent(t)
	h := &fakeHost{snap: duelSnapshot(physics.V(100, 0))}

	cmd := a.Drive(h)
	assert.Equal(t, 1, h.applied)
	assert.Equal(t, cmd.Acceleration, h.acc)
	assert.Equal(t, cmd.Torque, h.torque)
	assert.Equal(t, []bool{true}, h.boost)
	assert.Equal(t, []int{0}, h.fired)
}

func TestCommandApply_BoostUnchangedLeavesAbilityAlone(t *testing.T) {
	h := &fakeHost{}
	Command{Boost: BoostUnchanged}.Apply(h)
	Command{Boost: BoostOff, Fire: true, Weapon: 1}.Apply(h)

	assert.Equal(t, []bool{false}, h.boost)
	assert.Equal(t, []int{1}, h.fired)
	assert.Equal(t, 2, h.applied)
}

func TestReadSnapshot(t *testing.T) {
	want := duelSnapshot(physics.V(3, 4))
	want.Self.Heading = 1.5
	want.Self.AngularVelocity = -0.2
	assert.Equal(t, want, ReadSnapshot(&fakeHost{snap: want}))
}

func TestDecide_LogsEngagementChangesOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.log")
	logger := log.New(log.LevelDebug, log.WithOutput(path))
	a := newTestAgent(t, WithLogger(logger))

	closing := duelSnapshot(physics.V(-100, 0))
	retreating := duelSnapshot(physics.V(100, 0))
	for _, s := range []Snapshot{closing, closing, retreating, retreating, closing} {
		_ = a.Tick(s)
	}
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(raw), `"engagement changed"`))
	assert.Contains(t, string(raw), `"state":"pursuit"`)

	mem := a.Memory()
	v, ok := mem.LastTargetVelocity()
	require.True(t, ok)
	assert.Equal(t, physics.V(-100, 0), v, "memory still holds only the last target velocity")
}
