// Package sim is a headless arena that plays scripted duels against the
// pilot, for regression runs and telemetry demos.
package sim

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	bus "github.com/zeusync/duelist/internal/core/events/bus"
	"github.com/zeusync/duelist/internal/core/observability/log"
	"github.com/zeusync/duelist/internal/core/pilot"
	"github.com/zeusync/duelist/internal/core/systems/physics"
	"github.com/zeusync/duelist/internal/core/telemetry"
)

// Result summarizes one finished duel.
type Result struct {
	Name            string `json:"name" yaml:"name"`
	Ticks           int    `json:"ticks" yaml:"ticks"`
	Shots           int    `json:"shots" yaml:"shots"`
	Hits            int    `json:"hits" yaml:"hits"`
	DegenerateTicks int    `json:"degenerate_ticks" yaml:"degenerate_ticks"`
	// TelemetryErrors counts frames a subscriber failed to take.
	TelemetryErrors int     `json:"telemetry_errors" yaml:"telemetry_errors"`
	FirstHitTick    int64   `json:"first_hit_tick" yaml:"first_hit_tick"`
	FinalDistance   float64 `json:"final_distance" yaml:"final_distance"`
	Fingerprint     uint64  `json:"fingerprint" yaml:"fingerprint"`
}

// AgentFactory builds a fresh pilot for one duel.
type AgentFactory func(duel string, sink telemetry.Sink) (*pilot.Agent, error)

type Simulator struct {
	rules       Rules
	limits      physics.Limits
	tuning      pilot.Tuning
	parallelism int
	pace        time.Duration
	events      bus.EventBus
	logger      log.Log
	newAgent    AgentFactory
}

type Option func(*Simulator)

func WithRules(r Rules) Option               { return func(s *Simulator) { s.rules = r } }
func WithLimits(l physics.Limits) Option     { return func(s *Simulator) { s.limits = l } }
func WithTuning(t pilot.Tuning) Option       { return func(s *Simulator) { s.tuning = t } }
func WithParallelism(n int) Option           { return func(s *Simulator) { s.parallelism = n } }
func WithLogger(l log.Log) Option            { return func(s *Simulator) { s.logger = l } }
func WithAgentFactory(f AgentFactory) Option { return func(s *Simulator) { s.newAgent = f } }

// WithPace sleeps d between ticks so viewers can follow a duel live.
func WithPace(d time.Duration) Option { return func(s *Simulator) { s.pace = d } }

// WithEventBus publishes a telemetry frame for every simulated tick.
func WithEventBus(b bus.EventBus) Option { return func(s *Simulator) { s.events = b } }

func New(opts ...Option) (*Simulator, error) {
	s := &Simulator{
		rules:       DefaultRules(),
		limits:      DefaultLimits(),
		tuning:      pilot.DefaultTuning(),
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.rules.Validate(); err != nil {
		return nil, err
	}
	if err := s.tuning.Validate(); err != nil {
		return nil, err
	}
	if err := s.limits.Validate(); err != nil {
		return nil, err
	}
	if s.parallelism < 1 {
		s.parallelism = 1
	}
	if s.logger == nil {
		s.logger = log.NewNop()
	}
	if s.newAgent == nil {
		s.newAgent = s.defaultAgent
	}
	return s, nil
}

func (s *Simulator) defaultAgent(duel string, sink telemetry.Sink) (*pilot.Agent, error) {
	return pilot.New(
		pilot.WithID(duel),
		pilot.WithTuning(s.tuning),
		pilot.WithSink(sink),
		pilot.WithLogger(s.logger),
	)
}

// Run plays one duel tick by tick until d.Ticks have elapsed or ctx is done.
func (s *Simulator) Run(ctx context.Context, d Duel) (Result, error) {
	if err := d.Validate(); err != nil {
		return Result{}, err
	}
	w, err := NewWorld(d, s.rules, s.limits)
	if err != nil {
		return Result{}, err
	}

	var frames *telemetry.BusSink
	sink := telemetry.Discard
	if s.events != nil {
		frames = telemetry.NewBusSink(s.events, d.Name)
		sink = frames
	}
	agent, err := s.newAgent(d.Name, sink)
	if err != nil {
		return Result{}, fmt.Errorf("duel %s: build agent: %w", d.Name, err)
	}

	logger := s.logger.With(log.String("duel", d.Name))
	fp := NewFingerprint()
	res := Result{Name: d.Name}

	var pace <-chan time.Time
	if s.pace > 0 {
		ticker := time.NewTicker(s.pace)
		defer ticker.Stop()
		pace = ticker.C
	}

	for i := 0; i < d.Ticks; i++ {
		if pace != nil {
			select {
			case <-ctx.Done():
			case <-pace:
			}
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		cmd := agent.Drive(w)
		fp.Add(cmd)
		if w.Degenerate() {
			if res.DegenerateTicks == 0 {
				logger.Warn("degenerate command, integrating zero",
					log.Uint64("tick", w.Tick()),
					log.Vec("target_velocity", w.TargetVelocity().X, w.TargetVelocity().Y),
				)
			}
			res.DegenerateTicks++
		}
		w.Step()

		if frames != nil {
			if err := frames.Emit(w.Tick(), w.Ship(), w.Target()); err != nil {
				if res.TelemetryErrors == 0 {
					logger.Warn("telemetry publish failed", log.Uint64("tick", w.Tick()), log.Error(err))
				}
				res.TelemetryErrors++
			}
		}
	}

	res.Ticks = d.Ticks
	res.Shots = w.Shots()
	res.Hits = w.Hits()
	res.FirstHitTick = w.FirstHit()
	res.FinalDistance = w.Ship().Position.Distance(w.Target().Position)
	res.Fingerprint = fp.Sum64()

	logger.Info("duel finished",
		log.Int("shots", res.Shots),
		log.Int("hits", res.Hits),
		log.Int("degenerate_ticks", res.DegenerateTicks),
		log.Int("telemetry_errors", res.TelemetryErrors),
		log.Float64("final_distance", res.FinalDistance),
		log.Uint64("fingerprint", res.Fingerprint),
	)
	return res, nil
}

// RunAll plays the duels concurrently, at most parallelism at a time. Results
// keep the input order. The first error cancels the remaining duels.
func (s *Simulator) RunAll(ctx context.Context, duels []Duel) ([]Result, error) {
	results := make([]Result, len(duels))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for i, d := range duels {
		i, d := i, d
		g.Go(func() error {
			res, err := s.Run(ctx, d)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
