package injector

import (
	"time"

	"github.com/google/wire"

	"github.com/zeusync/duelist/internal/app"
	"github.com/zeusync/duelist/internal/config"
	bus "github.com/zeusync/duelist/internal/core/events/bus"
	"github.com/zeusync/duelist/internal/core/observability/log"
	"github.com/zeusync/duelist/internal/server"
	"github.com/zeusync/duelist/internal/sim"
)

// ProviderSet builds an app.Runner from a loaded config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideEventBus,
	ProvideSimulator,
	ProvideHub,
	app.NewRunner,
)

func ProvideLogger(cfg *config.Config) (log.Log, func()) {
	l := log.New(cfg.LogLevelValue())
	return l, func() { _ = l.Sync() }
}

func ProvideEventBus() bus.EventBus {
	return bus.New()
}

func ProvideSimulator(cfg *config.Config, logger log.Log, events bus.EventBus) (*sim.Simulator, error) {
	opts := []sim.Option{
		sim.WithRules(cfg.Rules),
		sim.WithLimits(cfg.Limits),
		sim.WithTuning(cfg.Tuning),
		sim.WithParallelism(cfg.Parallelism),
		sim.WithLogger(logger),
		sim.WithEventBus(events),
	}
	if cfg.Realtime {
		opts = append(opts, sim.WithPace(time.Duration(cfg.Rules.TickLength*float64(time.Second))))
	}
	return sim.New(opts...)
}

// ProvideHub returns nil when no serve address is configured.
func ProvideHub(cfg *config.Config, events bus.EventBus, logger log.Log) *server.Hub {
	if cfg.ServeAddr == "" {
		return nil
	}
	hcfg := server.DefaultConfig()
	hcfg.ListenAddr = cfg.ServeAddr
	hcfg.Token = cfg.ViewerToken
	return server.NewHub(hcfg, events, logger)
}
