package pilot

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Tuning holds the empirical constants of the pilot. They are tuned, not
// derived; override them from config rather than editing code.
type Tuning struct {
	// BulletSpeed is the muzzle speed used for bullet intercepts (m/s).
	BulletSpeed float64 `json:"bullet_speed" yaml:"bullet_speed"`
	// CruiseSpeed is the travel speed assumed for ship intercepts (m/s).
	CruiseSpeed float64 `json:"cruise_speed" yaml:"cruise_speed"`
	// FireAccuracy is the heading error below which the gun fires (rad).
	FireAccuracy float64 `json:"fire_accuracy" yaml:"fire_accuracy"`
	// BoostAccuracy is the heading error below which boost engages (rad).
	BoostAccuracy float64 `json:"boost_accuracy" yaml:"boost_accuracy"`
	// LeadCompensation is added to the aim heading while holding position (rad).
	LeadCompensation float64 `json:"lead_compensation" yaml:"lead_compensation"`
	// AccelCorrection scales the extra a_est term of the intercept point (s).
	AccelCorrection float64 `json:"accel_correction" yaml:"accel_correction"`
	// DriftThresholdTicks is the lateral speed, in ticks of max lateral
	// acceleration, above which the travel heading gets biased.
	DriftThresholdTicks float64 `json:"drift_threshold_ticks" yaml:"drift_threshold_ticks"`
	// DriftBias is the heading offset applied against lateral drift (rad).
	DriftBias float64 `json:"drift_bias" yaml:"drift_bias"`
	// Weapon is the index passed to Fire.
	Weapon int `json:"weapon" yaml:"weapon"`
	// Ram replaces hold-and-shoot with a boosted dash at a closing target.
	Ram bool `json:"ram" yaml:"ram"`
}

const (
	DefaultBulletSpeed         = 1000.0
	DefaultCruiseSpeed         = 150.0
	DefaultFireAccuracy        = 0.05
	DefaultBoostAccuracy       = 0.005
	DefaultLeadCompensation    = 0.01
	DefaultAccelCorrection     = 0.008333333333
	DefaultDriftThresholdTicks = 10.0
	DefaultDriftBias           = 0.5
)

func DefaultTuning() Tuning {
	return Tuning{
		BulletSpeed:         DefaultBulletSpeed,
		CruiseSpeed:         DefaultCruiseSpeed,
		FireAccuracy:        DefaultFireAccuracy,
		BoostAccuracy:       DefaultBoostAccuracy,
		LeadCompensation:    DefaultLeadCompensation,
		AccelCorrection:     DefaultAccelCorrection,
		DriftThresholdTicks: DefaultDriftThresholdTicks,
		DriftBias:           DefaultDriftBias,
	}
}

// Validate rejects tunings the controllers cannot work with.
func (t Tuning) Validate() error {
	switch {
	case t.BulletSpeed <= 0:
		return fmt.Errorf("%w: bullet_speed must be positive, got %v", ErrInvalidTuning, t.BulletSpeed)
	case t.CruiseSpeed <= 0:
		return fmt.Errorf("%w: cruise_speed must be positive, got %v", ErrInvalidTuning, t.CruiseSpeed)
	case t.FireAccuracy < 0:
		return fmt.Errorf("%w: fire_accuracy must not be negative", ErrInvalidTuning)
	case t.BoostAccuracy < 0:
		return fmt.Errorf("%w: boost_accuracy must not be negative", ErrInvalidTuning)
	case t.DriftThresholdTicks < 0:
		return fmt.Errorf("%w: drift_threshold_ticks must not be negative", ErrInvalidTuning)
	case t.Weapon < 0:
		return fmt.Errorf("%w: weapon index must not be negative", ErrInvalidTuning)
	}
	return nil
}

// LoadTuningYAML decodes a tuning document on top of DefaultTuning, so keys
// left out keep their defaults. An empty document yields the defaults.
func LoadTuningYAML(r io.Reader) (Tuning, error) {
	t := DefaultTuning()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return Tuning{}, fmt.Errorf("decode tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

// Validate rejects limits that would divide by zero in the controllers.
func (l Limits) Validate() error {
	switch {
	case l.TickLength <= 0:
		return fmt.Errorf("%w: tick length must be positive", ErrInvalidLimits)
	case l.MaxBackwardAcceleration <= 0:
		return fmt.Errorf("%w: max backward acceleration must be positive", ErrInvalidLimits)
	case l.MaxAngularAcceleration <= 0:
		return fmt.Errorf("%w: max angular acceleration must be positive", ErrInvalidLimits)
	case l.MaxForwardAcceleration < 0 || l.MaxLateralAcceleration < 0:
		return fmt.Errorf("%w: accelerations must not be negative", ErrInvalidLimits)
	}
	return nil
}
