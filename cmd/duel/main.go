package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/urfave/cli"

	"github.com/zeusync/duelist/internal/app"
	"github.com/zeusync/duelist/internal/config"
	"github.com/zeusync/duelist/internal/injector"
	"github.com/zeusync/duelist/internal/radar"
	"github.com/zeusync/duelist/internal/sim"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	configPath string
	serveAddr  string
	hold       bool
	radar      bool
	radarDuel  string
	realtime   bool
	reportPath string
}

func main() {
	if err := makeapp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func makeapp() *cli.App {
	c := cli.NewApp()
	c.Name = "duel"
	c.Usage = "play scripted duels against the pilot"
	c.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Value: "examples/duels.yaml", EnvVar: "DUEL_CONFIG", Usage: "scenario file (yaml or json)"},
		cli.StringFlag{Name: "serve", Usage: "stream telemetry to viewers on this address"},
		cli.BoolFlag{Name: "hold", Usage: "keep serving telemetry after the duels finish, until interrupted"},
		cli.BoolFlag{Name: "radar", Usage: "draw one duel on a terminal radar"},
		cli.StringFlag{Name: "duel", Usage: "duel shown on the radar (default: the first one)"},
		cli.BoolFlag{Name: "realtime", Usage: "play duels at wall-clock speed"},
		cli.StringFlag{Name: "report", Value: "-", Usage: "yaml report destination, - for stdout"},
	}
	c.Action = func(ctx *cli.Context) error {
		return run(options{
			configPath: ctx.String("config"),
			serveAddr:  ctx.String("serve"),
			hold:       ctx.Bool("hold"),
			radar:      ctx.Bool("radar"),
			radarDuel:  ctx.String("duel"),
			realtime:   ctx.Bool("realtime"),
			reportPath: ctx.String("report"),
		})
	}
	return c
}

// run returns exit code 2 for a bad config and 1 for any other failure.
func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("Error loading config: %v", err), 2)
	}
	if opts.serveAddr != "" {
		cfg.ServeAddr = opts.serveAddr
	}
	if opts.realtime || opts.radar {
		cfg.Realtime = true
	}
	if opts.radar {
		// The radar owns the terminal.
		cfg.LogLevel = "fatal"
	}

	runner, cleanup, err := injector.InitializeRunner(cfg)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("Error building runner: %v", err), 1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	radarOn := opts.radar && len(cfg.Duels) > 0
	releaseTerminal := func() {}
	if radarOn {
		name := opts.radarDuel
		if name == "" {
			name = cfg.Duels[0].Name
		}
		closeRadar, err := startRadar(ctx, stop, runner, name)
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("Error starting radar: %v", err), 1)
		}
		releaseTerminal = sync.OnceFunc(closeRadar)
		defer releaseTerminal()
	}

	results, runErr := runner.Run(ctx)
	if runErr == nil {
		serving := opts.hold && runner.Hub() != nil
		if serving && radarOn {
			// The radar keeps drawing until it is quit.
			<-ctx.Done()
		}
		if err := report(opts.reportPath, results, releaseTerminal); err != nil {
			fmt.Fprintln(os.Stderr, "Error writing report:", err)
		}
		if serving && !radarOn {
			fmt.Fprintln(os.Stderr, "Duels finished; serving telemetry until interrupted")
			<-ctx.Done()
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := runner.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintln(os.Stderr, "Error stopping telemetry hub:", err)
	}

	if runErr != nil {
		return cli.NewExitError(fmt.Sprintf("Error running duels: %v", runErr), 1)
	}
	return nil
}

// startRadar draws the named duel until the user quits, which also stops the run.
func startRadar(ctx context.Context, stop context.CancelFunc, runner *app.Runner, duel string) (func(), error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	rd := radar.New(screen, radar.WithDuel(duel))
	sub, err := rd.Attach(runner.Events())
	if err != nil {
		screen.Fini()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = rd.Run(ctx)
		stop()
	}()

	return func() {
		_ = sub.Cancel()
		stop()
		<-done
		screen.Fini()
	}, nil
}

// report hands the terminal back before writing, so a report on stdout is
// not drawn over by the radar.
func report(path string, results []sim.Result, releaseTerminal func()) error {
	releaseTerminal()
	return writeReport(path, results)
}

func writeReport(path string, results []sim.Result) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	return app.WriteReport(w, results)
}
