package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, engine.WebSocketBufferSize),
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "s1")

	hub.registerClient(client)
	assert.Equal(t, 1, hub.ClientCount("s1"))

	hub.unregisterClient(client)
	assert.Equal(t, 0, hub.ClientCount("s1"))
	_, open := <-client.send
	assert.False(t, open, "send channel is closed on unregister")

	hub.unregisterClient(client)
}

func TestHub_BroadcastIsSessionScoped(t *testing.T) {
	hub := NewHub()
	a := newTestClient(hub, "a")
	b := newTestClient(hub, "b")
	hub.registerClient(a)
	hub.registerClient(b)

	state := engine.InitGameStateFromConfig(engine.DefaultLevel())
	hub.broadcastMessage(&Message{SessionID: "a", Event: "state_update", GameState: state})

	require.Len(t, a.send, 1)
	assert.Len(t, b.send, 0)

	var msg Message
	require.NoError(t, json.Unmarshal(<-a.send, &msg))
	assert.Equal(t, "a", msg.SessionID)
	assert.Equal(t, "state_update", msg.Event)
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, sessionID: "s", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "s", Event: "x"})

	assert.Equal(t, 0, hub.ClientCount("s"))
}

func TestHub_EnqueueNeverBlocks(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < engine.WebSocketBufferSize+10; i++ {
			hub.BroadcastEvent("s", "tick", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked without a running hub")
	}
}

func TestHub_EndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=ab12"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount("ab12") == 1 }, 2*time.Second, 10*time.Millisecond)

	eng := engine.NewEngineWithDefaults()
	require.True(t, eng.Move("left"))
	hub.BroadcastToSession("ab12", eng.GetState())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "ab12", msg.SessionID)
	assert.Equal(t, "state_update", msg.Event)
	require.NotNil(t, msg.Summary)
	assert.Equal(t, engine.GameplaySummary{State: engine.Playing, MovesCount: 1}, *msg.Summary)
	assert.Equal(t, "Playing\nMoves: 1", msg.SummaryText)
	require.NotNil(t, msg.GameState)
	assert.Equal(t, engine.Position{X: 2, Y: 3}, msg.GameState.PlayerPos)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount("ab12") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	client := newTestClient(hub, "s")
	hub.registerClient(client)

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Equal(t, 0, hub.ClientCount("s"))
}
