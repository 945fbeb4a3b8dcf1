package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/urfave/cli"

	"github.com/zeusync/duelist/internal/core/telemetry"
	"github.com/zeusync/duelist/internal/radar"
)

func main() {
	app := cli.NewApp()
	app.Name = "viewer"
	app.Usage = "watch live duels on a terminal radar"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "addr", Value: "127.0.0.1:8090", Usage: "telemetry hub address"},
		cli.StringFlag{Name: "duel", Usage: "duel to watch (default: all)"},
		cli.StringFlag{Name: "token", Usage: "viewer token, if the hub requires one"},
	}
	app.Action = func(c *cli.Context) error {
		return watch(c.String("addr"), c.String("duel"), c.String("token"))
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "viewer:", err)
		os.Exit(1)
	}
}

func watch(addr, duel, token string) error {
	q := url.Values{}
	if duel != "" {
		q.Set("duel", duel)
	}
	if token != "" {
		q.Set("token", token)
	}
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws", RawQuery: q.Encode()}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}
	defer func() { _ = conn.Close() }()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rd := radar.New(screen)
	go func() {
		defer stop()
		for {
			var f telemetry.Frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			rd.Draw(f)
		}
	}()

	return rd.Run(ctx)
}
