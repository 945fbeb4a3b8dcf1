// Package server streams telemetry frames to remote viewers over websocket
// and server-sent events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	bus "github.com/zeusync/duelist/internal/core/events/bus"
	"github.com/zeusync/duelist/internal/core/observability/log"
	"github.com/zeusync/duelist/internal/core/telemetry"
)

// allDuels is the room of viewers that did not pick a duel.
const allDuels = "*"

// Config holds hub configuration
type Config struct {
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
	MaxClients int    `json:"max_clients" yaml:"max_clients"`
	// History is the number of recent frames replayed to a new viewer.
	History int `json:"history" yaml:"history"`
	// SendBuffer is the per-viewer queue length; frames beyond it are dropped.
	SendBuffer   int           `json:"send_buffer" yaml:"send_buffer"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	Token        string        `json:"token" yaml:"token"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:   "127.0.0.1:8090",
		MaxClients:   256,
		History:      64,
		SendBuffer:   256,
		WriteTimeout: 5 * time.Second,
	}
}

// Hub fans telemetry frames from the event bus out to viewers grouped by duel.
type Hub struct {
	config Config
	logger log.Log
	events bus.EventBus
	auth   Authenticator

	mu    sync.Mutex
	rooms map[string]*room

	clients  atomic.Int64
	running  atomic.Bool
	stopping atomic.Bool
	closed   atomic.Bool

	sub      bus.Subscription
	listener net.Listener
	http     *http.Server
	workers  sync.WaitGroup
}

func NewHub(config Config, events bus.EventBus, logger log.Log) *Hub {
	def := DefaultConfig()
	if config.SendBuffer <= 0 {
		config.SendBuffer = def.SendBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Hub{
		config: config,
		logger: logger.With(log.String("component", "telemetry_hub")),
		events: events,
		auth:   TokenAuth{Token: config.Token},
		rooms:  make(map[string]*room),
	}
}

// Handler serves /ws (websocket) and /events (server-sent events). Both take
// an optional ?duel= filter.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/events", h.handleEvents)
	return mux
}

// Start subscribes to telemetry frames and begins serving on ListenAddr.
func (h *Hub) Start(ctx context.Context) error {
	if h.closed.Load() {
		return ErrServerClosed
	}
	if !h.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}
	h.stopping.Store(false)

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", h.config.ListenAddr)
	if err != nil {
		h.running.Store(false)
		h.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}

	if h.events != nil {
		sub, err := telemetry.Subscribe(h.events, h.Broadcast)
		if err != nil {
			_ = ln.Close()
			h.running.Store(false)
			return fmt.Errorf("subscribe telemetry: %w", err)
		}
		h.sub = sub
	}

	h.listener = ln
	h.http = &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}

	h.workers.Add(1)
	go func() {
		defer h.workers.Done()
		if err := h.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("Telemetry hub stopped serving", log.Error(err))
		}
	}()

	h.logger.Info("Telemetry hub listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr is the bound listen address, or nil before Start.
func (h *Hub) Addr() net.Addr {
	if h.listener == nil {
		return nil
	}
	return h.listener.Addr()
}

// Stop disconnects every viewer and shuts the listener down.
func (h *Hub) Stop(ctx context.Context) error {
	if !h.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}
	h.stopping.Store(true)

	if h.sub != nil {
		_ = h.sub.Cancel()
		h.sub = nil
	}

	h.mu.Lock()
	for _, r := range h.rooms {
		r.closeAll()
	}
	h.mu.Unlock()

	err := h.http.Shutdown(ctx)
	h.workers.Wait()

	h.logger.Info("Telemetry hub stopped")
	return err
}

// Close stops the hub if needed; it cannot be started again.
func (h *Hub) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	if h.running.Load() {
		return h.Stop(context.Background())
	}
	return nil
}

// Clients is the number of connected viewers.
func (h *Hub) Clients() int { return int(h.clients.Load()) }

// Broadcast encodes the frame once and queues it for the viewers of its duel
// and for the viewers of all duels. Shapes that cannot be encoded are left
// out; a frame whose bodies are not finite is skipped.
func (h *Hub) Broadcast(f telemetry.Frame) error {
	f, ok := f.Drawable()
	if !ok {
		h.logger.Debug("Skipping non-finite frame", log.String("duel", f.Duel), log.Uint64("tick", f.Tick))
		return nil
	}
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	h.room(f.Duel).broadcast(payload)
	h.room(allDuels).broadcast(payload)
	return nil
}

func (h *Hub) room(duel string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r, ok := h.rooms[duel]; ok {
		return r
	}
	r := newRoom(h.config.History)
	h.rooms[duel] = r
	return r
}

func (h *Hub) admit(r *http.Request) (string, error) {
	if h.closed.Load() || h.stopping.Load() {
		return "", ErrServerClosed
	}
	if err := h.auth.Authenticate(r); err != nil {
		return "", err
	}
	if h.config.MaxClients > 0 && h.Clients() >= h.config.MaxClients {
		return "", ErrMaxClientsReached
	}
	duel := r.URL.Query().Get("duel")
	if duel == "" {
		duel = allDuels
	}
	return duel, nil
}

func (h *Hub) join(duel string) *viewer {
	v := newViewer(h.config.SendBuffer)
	h.clients.Add(1)
	h.room(duel).join(v)
	h.logger.Debug("Viewer joined", log.String("viewer", v.id), log.String("duel", duel))
	return v
}

func (h *Hub) leave(duel string, v *viewer) {
	v.close()
	if h.room(duel).leave(v) {
		h.clients.Add(-1)
		h.logger.Debug("Viewer left",
			log.String("viewer", v.id),
			log.String("duel", duel),
			log.Uint64("dropped_frames", v.dropped.Load()))
	}
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrMaxClientsReached), errors.Is(err, ErrServerClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
