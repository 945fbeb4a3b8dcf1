package sim

import (
	"fmt"

	"github.com/zeusync/duelist/internal/core/systems/physics"
)

// Rules are the arena constants shared by every duel of a run.
type Rules struct {
	// TickLength is the fixed step in seconds.
	TickLength float64 `json:"tick_length" yaml:"tick_length"`
	// BulletSpeed is the muzzle speed relative to the firing ship.
	BulletSpeed float64 `json:"bullet_speed" yaml:"bullet_speed"`
	// BulletTTL is how long a bullet lives, in seconds.
	BulletTTL float64 `json:"bullet_ttl" yaml:"bullet_ttl"`
	// ReloadTicks is the minimum number of ticks between two shots.
	ReloadTicks int `json:"reload_ticks" yaml:"reload_ticks"`
	// TargetRadius is the hit radius of the target.
	TargetRadius float64 `json:"target_radius" yaml:"target_radius"`
}

func DefaultRules() Rules {
	return Rules{
		TickLength:   1.0 / 60.0,
		BulletSpeed:  1000,
		BulletTTL:    2,
		ReloadTicks:  4,
		TargetRadius: 10,
	}
}

func (r Rules) Validate() error {
	switch {
	case r.TickLength <= 0:
		return fmt.Errorf("%w: tick_length must be positive", ErrInvalidRules)
	case r.BulletSpeed <= 0:
		return fmt.Errorf("%w: bullet_speed must be positive", ErrInvalidRules)
	case r.BulletTTL <= 0:
		return fmt.Errorf("%w: bullet_ttl must be positive", ErrInvalidRules)
	case r.ReloadTicks < 0:
		return fmt.Errorf("%w: reload_ticks must not be negative", ErrInvalidRules)
	case r.TargetRadius <= 0:
		return fmt.Errorf("%w: target_radius must be positive", ErrInvalidRules)
	}
	return nil
}

// DefaultLimits are fighter-class actuator limits.
func DefaultLimits() physics.Limits {
	return physics.Limits{
		MaxForwardAcceleration:  60,
		MaxBackwardAcceleration: 30,
		MaxLateralAcceleration:  30,
		MaxAngularAcceleration:  physics.TwoPi,
		BoostAcceleration:       100,
	}
}

// Duel is one scripted engagement.
type Duel struct {
	Name   string       `json:"name" yaml:"name"`
	Ticks  int          `json:"ticks" yaml:"ticks"`
	Ship   physics.Body `json:"ship" yaml:"ship"`
	Target physics.Body `json:"target" yaml:"target"`
	Motion Motion       `json:"motion" yaml:"motion"`
}

func (d Duel) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDuel)
	}
	if d.Ticks <= 0 {
		return fmt.Errorf("%w: %s: ticks must be positive", ErrInvalidDuel, d.Name)
	}
	if _, err := d.Motion.Script(); err != nil {
		return fmt.Errorf("%s: %w", d.Name, err)
	}
	return nil
}
