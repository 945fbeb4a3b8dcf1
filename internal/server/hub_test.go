package server

import (
	"bufio"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bus "github.com/zeusync/duelist/internal/core/events/bus"
	"github.com/zeusync/duelist/internal/core/systems/physics"
	"github.com/zeusync/duelist/internal/core/telemetry"
	"github.com/zeusync/duelist/internal/sim"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	return cfg
}

func frame(duel string, tick uint64) telemetry.Frame {
	return telemetry.Frame{
		Duel:   duel,
		Tick:   tick,
		Target: physics.Body{Position: physics.V(float64(tick), 0)},
		Shapes: []telemetry.Shape{{Kind: telemetry.ShapeMarker, From: physics.V(1, 2), Radius: 20, Color: telemetry.Red}},
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) telemetry.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f telemetry.Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 2*time.Second, 5*time.Millisecond)
}

func wsURL(s *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws" + query
}

func TestHub_StreamsBusFramesByDuel(t *testing.T) {
	events := bus.New()
	h := NewHub(testConfig(), events, nil)
	require.NoError(t, h.Start(context.Background()))
	defer func() { _ = h.Close() }()

	base := "ws://" + h.Addr().String() + "/ws"
	onlyA := dial(t, base+"?duel=a")
	all := dial(t, base)
	waitClients(t, h, 2)

	require.NoError(t, telemetry.Publish(events, "b", frame("b", 1)))
	require.NoError(t, telemetry.Publish(events, "a", frame("a", 1)))

	got := readFrame(t, onlyA)
	assert.Equal(t, "a", got.Duel)
	require.Len(t, got.Shapes, 1)
	assert.Equal(t, telemetry.Red, got.Shapes[0].Color)

	assert.Equal(t, "b", readFrame(t, all).Duel)
	assert.Equal(t, "a", readFrame(t, all).Duel)
}

func TestHub_ReplaysRecentFrames(t *testing.T) {
	cfg := testConfig()
	cfg.History = 2
	h := NewHub(cfg, nil, nil)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	for tick := uint64(1); tick <= 3; tick++ {
		require.NoError(t, h.Broadcast(frame("a", tick)))
	}

	conn := dial(t, wsURL(srv, "?duel=a"))
	assert.Equal(t, uint64(2), readFrame(t, conn).Tick)
	assert.Equal(t, uint64(3), readFrame(t, conn).Tick)

	waitClients(t, h, 1)
	require.NoError(t, h.Broadcast(frame("a", 4)))
	assert.Equal(t, uint64(4), readFrame(t, conn).Tick)
}

func TestHub_TokenAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Token = "s3cret"
	h := NewHub(cfg, nil, nil)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, "?token=wrong"), nil)
	require.Error(t, err)
	_ = resp.Body.Close()

	dial(t, wsURL(srv, "?token=s3cret"))
	waitClients(t, h, 1)

	header := http.Header{"Authorization": []string{"Bearer s3cret"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	_ = conn.Close()
}

func TestHub_MaxClients(t *testing.T) {
	cfg := testConfig()
	cfg.MaxClients = 1
	h := NewHub(cfg, nil, nil)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	first := dial(t, wsURL(srv, ""))
	waitClients(t, h, 1)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()

	_ = first.Close()
	waitClients(t, h, 0)
	dial(t, wsURL(srv, ""))
}

func TestHub_ServerSentEvents(t *testing.T) {
	h := NewHub(testConfig(), nil, nil)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	require.NoError(t, h.Broadcast(frame("a", 7)))

	resp, err := http.Get(srv.URL + "/events?duel=a")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var f telemetry.Frame
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &f))
	assert.Equal(t, uint64(7), f.Tick)

	resp2, err := http.Post(srv.URL+"/events", "text/plain", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
	_ = resp2.Body.Close()
}

func TestHub_Lifecycle(t *testing.T) {
	h := NewHub(testConfig(), bus.New(), nil)
	assert.ErrorIs(t, h.Stop(context.Background()), ErrServerNotRunning)

	require.NoError(t, h.Start(context.Background()))
	assert.ErrorIs(t, h.Start(context.Background()), ErrServerAlreadyRunning)

	conn := dial(t, "ws://"+h.Addr().String()+"/ws")
	waitClients(t, h, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.Stop(ctx))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	require.NoError(t, h.Close())
	assert.ErrorIs(t, h.Start(context.Background()), ErrServerClosed)
}

func TestHub_ListenFailure(t *testing.T) {
	cfg := testConfig()
	cfg.ListenAddr = "256.0.0.1:bad"
	h := NewHub(cfg, nil, nil)
	assert.ErrorIs(t, h.Start(context.Background()), ErrListenerFailed)
	assert.Nil(t, h.Addr())
}

func TestHub_BroadcastDropsNonFiniteShapes(t *testing.T) {
	h := NewHub(testConfig(), nil, nil)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	nan := math.NaN()
	withNaNLine := frame("a", 1)
	withNaNLine.Shapes = append(withNaNLine.Shapes,
		telemetry.Shape{Kind: telemetry.ShapeLine, From: physics.V(0, 0), To: physics.V(nan, nan), Color: telemetry.Blue})
	require.NoError(t, h.Broadcast(withNaNLine))

	brokenTarget := frame("a", 2)
	brokenTarget.Target.Position = physics.V(nan, 0)
	require.NoError(t, h.Broadcast(brokenTarget))

	conn := dial(t, wsURL(srv, "?duel=a"))
	got := readFrame(t, conn)
	assert.Equal(t, uint64(1), got.Tick)
	require.Len(t, got.Shapes, 1)
	assert.Equal(t, telemetry.ShapeMarker, got.Shapes[0].Kind)

	waitClients(t, h, 1)
	require.NoError(t, h.Broadcast(frame("a", 3)))
	assert.Equal(t, uint64(3), readFrame(t, conn).Tick, "the non-finite frame is skipped")
}

func TestHub_StreamsDuelWithDegenerateIntercepts(t *testing.T) {
	events := bus.New()
	h := NewHub(testConfig(), events, nil)
	require.NoError(t, h.Start(context.Background()))
	defer func() { _ = h.Close() }()

	conn := dial(t, "ws://"+h.Addr().String()+"/ws?duel=crosser")
	waitClients(t, h, 1)

	s, err := sim.New(sim.WithEventBus(events))
	require.NoError(t, err)
	// Crossing faster than the cruise speed: the ship intercept is NaN every tick.
	d := sim.Duel{
		Name:   "crosser",
		Ticks:  10,
		Target: physics.Body{Position: physics.V(1000, 0), Velocity: physics.V(0, 300)},
	}
	res, err := s.Run(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, d.Ticks, res.DegenerateTicks)
	assert.Zero(t, res.TelemetryErrors)

	for tick := uint64(1); tick <= uint64(d.Ticks); tick++ {
		f := readFrame(t, conn)
		assert.Equal(t, tick, f.Tick)
		assert.NotEmpty(t, f.Shapes)
	}
}
