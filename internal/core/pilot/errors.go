package pilot

import "errors"

var (
	ErrInvalidTuning = errors.New("invalid pilot tuning")
	ErrInvalidLimits = errors.New("invalid actuator limits")
)
