// Package app ties the simulator, the telemetry hub and the event bus into
// one runnable unit for the CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/duelist/internal/config"
	bus "github.com/zeusync/duelist/internal/core/events/bus"
	"github.com/zeusync/duelist/internal/core/observability/log"
	"github.com/zeusync/duelist/internal/server"
	"github.com/zeusync/duelist/internal/sim"
)

// Runner plays the configured duels. The hub is optional.
type Runner struct {
	config    *config.Config
	logger    log.Log
	events    bus.EventBus
	simulator *sim.Simulator
	hub       *server.Hub

	hubStarted bool
}

func NewRunner(cfg *config.Config, logger log.Log, events bus.EventBus, simulator *sim.Simulator, hub *server.Hub) *Runner {
	logger = logger.With(log.String("component", "runner"))
	events.AddObserver(&deliveryLogger{logger: logger})
	return &Runner{
		config:    cfg,
		logger:    logger,
		events:    events,
		simulator: simulator,
		hub:       hub,
	}
}

// deliveryLogger reports failing telemetry subscribers.
type deliveryLogger struct {
	logger log.Log
}

func (d deliveryLogger) OnDelivered(eventType string, handlers int, err error, _ time.Duration) {
	if err != nil {
		d.logger.Warn("Event delivery failed",
			log.String("event", eventType),
			log.Int("handlers", handlers),
			log.Error(err))
	}
}

// Events is the bus telemetry frames are published on.
func (r *Runner) Events() bus.EventBus { return r.events }

// Hub is nil unless a serve address was configured.
func (r *Runner) Hub() *server.Hub { return r.hub }

// Run starts the hub if there is one and plays every duel. The hub keeps
// serving until Shutdown.
func (r *Runner) Run(ctx context.Context) ([]sim.Result, error) {
	if r.hub != nil && !r.hubStarted {
		if err := r.hub.Start(ctx); err != nil {
			return nil, fmt.Errorf("start telemetry hub: %w", err)
		}
		r.hubStarted = true
	}

	r.logger.Info("Running duels",
		log.Int("duels", len(r.config.Duels)),
		log.Int("parallelism", r.config.Parallelism))

	start := time.Now()
	results, err := r.simulator.RunAll(ctx, r.config.Duels)
	if err != nil {
		return nil, err
	}
	m := r.events.Metrics()
	r.logger.Info("All duels finished",
		log.Duration("elapsed", time.Since(start)),
		log.Uint64("frames_published", m.Published),
		log.Uint64("frame_errors", m.Errors))
	return results, nil
}

// Shutdown stops the hub if Run started it.
func (r *Runner) Shutdown(ctx context.Context) error {
	if !r.hubStarted {
		return nil
	}
	r.hubStarted = false
	return r.hub.Stop(ctx)
}

// Summary aggregates a batch of results.
type Summary struct {
	Duels           int     `yaml:"duels"`
	Shots           int     `yaml:"shots"`
	Hits            int     `yaml:"hits"`
	Accuracy        float64 `yaml:"accuracy"`
	DegenerateTicks int     `yaml:"degenerate_ticks"`
}

func Summarize(results []sim.Result) Summary {
	var s Summary
	for _, res := range results {
		s.Duels++
		s.Shots += res.Shots
		s.Hits += res.Hits
		s.DegenerateTicks += res.DegenerateTicks
	}
	if s.Shots > 0 {
		s.Accuracy = float64(s.Hits) / float64(s.Shots)
	}
	return s
}

// WriteReport writes the summary and per-duel results as yaml.
func WriteReport(w io.Writer, results []sim.Result) error {
	report := struct {
		Summary Summary      `yaml:"summary"`
		Results []sim.Result `yaml:"results"`
	}{Summary: Summarize(results), Results: results}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}
