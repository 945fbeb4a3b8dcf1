package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/duelist/internal/core/observability/log"
	"github.com/zeusync/duelist/internal/core/pilot"
	"github.com/zeusync/duelist/internal/core/systems/physics"
	"github.com/zeusync/duelist/internal/sim"
)

const scenarios = `
log_level: debug
parallelism: 4
serve_addr: 127.0.0.1:8090
viewer_token: abc
realtime: true
tuning:
  cruise_speed: 120
  ram: true
limits:
  max_forward_acceleration: 80
rules:
  reload_ticks: 6
duels:
  - name: weave
    ticks: 600
    target:
      position: {x: 800, y: 200}
      velocity: {x: 40, y: 0}
    motion:
      kind: weave
      amplitude: 30
      period: 2.5
  - name: rush
    ticks: 300
    ship:
      heading: 1.2
    target:
      position: {x: -500, y: 0}
    motion:
      kind: charge
      amplitude: 25
`

func TestLoadYAML(t *testing.T) {
	c, err := LoadYAML(strings.NewReader(scenarios))
	require.NoError(t, err)

	assert.Equal(t, log.LevelDebug, c.LogLevelValue())
	assert.Equal(t, 4, c.Parallelism)
	assert.Equal(t, "127.0.0.1:8090", c.ServeAddr)
	assert.Equal(t, "abc", c.ViewerToken)
	assert.True(t, c.Realtime)

	assert.Equal(t, 120.0, c.Tuning.CruiseSpeed)
	assert.True(t, c.Tuning.Ram)
	assert.Equal(t, pilot.DefaultBulletSpeed, c.Tuning.BulletSpeed, "omitted keys keep defaults")

	assert.Equal(t, 80.0, c.Limits.MaxForwardAcceleration)
	assert.Equal(t, sim.DefaultLimits().MaxBackwardAcceleration, c.Limits.MaxBackwardAcceleration)
	assert.Equal(t, 6, c.Rules.ReloadTicks)
	assert.Equal(t, sim.DefaultRules().BulletSpeed, c.Rules.BulletSpeed)

	require.Len(t, c.Duels, 2)
	assert.Equal(t, "weave", c.Duels[0].Name)
	assert.Equal(t, physics.V(800, 200), c.Duels[0].Target.Position)
	assert.Equal(t, sim.MotionWeave, c.Duels[0].Motion.Kind)
	assert.Equal(t, 2.5, c.Duels[0].Motion.Period)
	assert.Equal(t, 1.2, c.Duels[1].Ship.Heading)
	assert.Equal(t, sim.MotionCharge, c.Duels[1].Motion.Kind)
}

func TestLoadYAML_Empty(t *testing.T) {
	c, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadYAML_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown key", doc: "paralelism: 2\n"},
		{name: "log level", doc: "log_level: loud\n"},
		{name: "parallelism", doc: "parallelism: 0\n"},
		{name: "tuning", doc: "tuning:\n  bullet_speed: -1\n"},
		{name: "rules", doc: "rules:\n  tick_length: 0\n"},
		{name: "limits", doc: "limits:\n  max_angular_acceleration: 0\n"},
		{name: "boost", doc: "limits:\n  boost_acceleration: -1\n"},
		{name: "duel ticks", doc: "duels:\n  - name: a\n"},
		{name: "duel motion", doc: "duels:\n  - name: a\n    ticks: 5\n    motion: {kind: warp}\n"},
		{name: "duplicate duel", doc: "duels:\n  - {name: a, ticks: 5}\n  - {name: a, ticks: 6}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadYAML(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}

	_, err := LoadYAML(strings.NewReader("duels:\n  - {name: a, ticks: 5}\n  - {name: a, ticks: 6}\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = LoadYAML(strings.NewReader("duels:\n  - name: a\n    ticks: 5\n    motion: {kind: warp}\n"))
	assert.ErrorIs(t, err, sim.ErrUnknownMotion)
	_, err = LoadYAML(strings.NewReader("limits:\n  max_backward_acceleration: 0\n"))
	assert.ErrorIs(t, err, physics.ErrInvalidLimits)
}

func TestLoad_ByExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "duels.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(scenarios), 0o600))
	c, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Len(t, c.Duels, 2)

	jsonPath := filepath.Join(dir, "duels.json")
	doc := `{"parallelism": 2, "duels": [{"name": "j", "ticks": 10, "target": {"position": {"x": 300, "y": 0}}}]}`
	require.NoError(t, os.WriteFile(jsonPath, []byte(doc), 0o600))
	c, err = Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Parallelism)
	require.Len(t, c.Duels, 1)
	assert.Equal(t, physics.V(300, 0), c.Duels[0].Target.Position)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_ShippedExample(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "examples", "duels.yaml"))
	require.NoError(t, err)
	assert.Len(t, c.Duels, 5)
	assert.Equal(t, sim.MotionWeave, c.Duels[3].Motion.Kind)
}
