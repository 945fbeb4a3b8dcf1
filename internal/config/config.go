// Package config loads a duel run description from yaml or json.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/duelist/internal/core/observability/log"
	"github.com/zeusync/duelist/internal/core/pilot"
	"github.com/zeusync/duelist/internal/core/systems/physics"
	"github.com/zeusync/duelist/internal/sim"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the whole run: how to log, how the pilot is tuned, the arena
// constants and the duels to play.
type Config struct {
	LogLevel    string         `json:"log_level" yaml:"log_level"`
	Tuning      pilot.Tuning   `json:"tuning" yaml:"tuning"`
	Rules       sim.Rules      `json:"rules" yaml:"rules"`
	Limits      physics.Limits `json:"limits" yaml:"limits"`
	Parallelism int            `json:"parallelism" yaml:"parallelism"`
	// ServeAddr, when set, streams telemetry frames to websocket viewers.
	ServeAddr string `json:"serve_addr" yaml:"serve_addr"`
	// ViewerToken, when set, is required from telemetry viewers.
	ViewerToken string `json:"viewer_token" yaml:"viewer_token"`
	// Realtime paces the duels at one tick per tick length.
	Realtime bool       `json:"realtime" yaml:"realtime"`
	Duels    []sim.Duel `json:"duels" yaml:"duels"`
}

// Default is a config with every section at its default and no duels.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		Tuning:      pilot.DefaultTuning(),
		Rules:       sim.DefaultRules(),
		Limits:      sim.DefaultLimits(),
		Parallelism: 1,
	}
}

// LoadYAML decodes a yaml document over Default. Unknown keys are errors.
func LoadYAML(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadJSON decodes a json document over Default. Unknown keys are errors.
func LoadJSON(r io.Reader) (*Config, error) {
	c := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode json config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads path, choosing the decoder by extension (.json, else yaml).
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(f)
	}
	return LoadYAML(f)
}

func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("%w: parallelism must be at least 1, got %d", ErrInvalidConfig, c.Parallelism)
	}
	if err := c.Tuning.Validate(); err != nil {
		return fmt.Errorf("%w: tuning: %w", ErrInvalidConfig, err)
	}
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("%w: rules: %w", ErrInvalidConfig, err)
	}
	if err := c.Limits.Validate(); err != nil {
		return fmt.Errorf("%w: limits: %w", ErrInvalidConfig, err)
	}

	seen := make(map[string]struct{}, len(c.Duels))
	for i, d := range c.Duels {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%w: duels[%d]: %w", ErrInvalidConfig, i, err)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("%w: duplicate duel name %q", ErrInvalidConfig, d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	return nil
}

// LogLevelValue is the parsed LogLevel. Call after Validate.
func (c *Config) LogLevelValue() log.Level {
	lvl, _ := log.ParseLevel(c.LogLevel)
	return lvl
}
