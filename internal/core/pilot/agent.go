package pilot

import (
	"github.com/google/uuid"

	"github.com/zeusync/duelist/internal/core/observability/log"
	"github.com/zeusync/duelist/internal/core/telemetry"
)

// Agent is one ship's pilot. It is driven by a single host, once per tick,
// and is not safe for concurrent use.
type Agent struct {
	id        string
	tuning    Tuning
	memory    Memory
	predictor *Predictor
	sink      telemetry.Sink
	logger    log.Log

	// Last logged engagement. Control never reads these.
	logged     bool
	lastState  EngagementState
	lastRegime Regime
}

type Option func(*Agent)

func WithTuning(t Tuning) Option { return func(a *Agent) { a.tuning = t } }

// WithSink routes debug drawing to s. Defaults to telemetry.Discard.
func WithSink(s telemetry.Sink) Option { return func(a *Agent) { a.sink = s } }

func WithLogger(l log.Log) Option { return func(a *Agent) { a.logger = l } }

func WithID(id string) Option { return func(a *Agent) { a.id = id } }

// New builds an agent with DefaultTuning unless overridden.
func New(opts ...Option) (*Agent, error) {
	a := &Agent{
		tuning: DefaultTuning(),
		sink:   telemetry.Discard,
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.tuning.Validate(); err != nil {
		return nil, err
	}
	if a.id == "" {
		a.id = uuid.NewString()
	}
	if a.logger == nil {
		a.logger = log.NewNop()
	}
	a.logger = a.logger.With(log.String("agent", a.id))
	a.predictor = NewPredictor(&a.memory, a.tuning.AccelCorrection)
	return a, nil
}

func (a *Agent) ID() string     { return a.id }
func (a *Agent) Tuning() Tuning { return a.tuning }

// Memory returns a copy of the cross-tick memory.
func (a *Agent) Memory() Memory { return a.memory }

// Tick is the per-step entry point.
func (a *Agent) Tick(s Snapshot) Command {
	cmd, _ := a.Decide(s)
	return cmd
}

// Decide is Tick plus the reasoning behind the command.
func (a *Agent) Decide(s Snapshot) (Command, Decision) {
	cmd, d := a.engage(s)
	a.logTransition(s, d)
	if !d.BulletIntercept.Valid() {
		a.logger.Debug("degenerate intercept",
			log.String("state", d.State.String()),
			log.Vec("target", s.Target.Position.X, s.Target.Position.Y),
			log.Vec("target_velocity", s.Target.Velocity.X, s.Target.Velocity.Y),
		)
	}
	return cmd, d
}

func (a *Agent) logTransition(s Snapshot, d Decision) {
	if a.logged && d.State == a.lastState && d.Regime == a.lastRegime {
		return
	}
	a.logged, a.lastState, a.lastRegime = true, d.State, d.Regime
	a.logger.Debug("engagement changed",
		log.String("state", d.State.String()),
		log.String("regime", d.Regime.String()),
		log.Float64("range", s.Self.Position.Distance(s.Target.Position)),
		log.Float64("radial_speed", d.RadialSpeed),
	)
}

// Drive runs one tick against a callback-style host.
func (a *Agent) Drive(h Host) Command {
	cmd := a.Tick(ReadSnapshot(h))
	cmd.Apply(h)
	return cmd
}
