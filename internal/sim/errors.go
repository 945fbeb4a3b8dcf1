package sim

import "errors"

var (
	ErrUnknownMotion = errors.New("unknown target motion")
	ErrInvalidDuel   = errors.New("invalid duel")
	ErrInvalidRules  = errors.New("invalid rules")
)
