package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/mcp-training/sokoban/game/config"
	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/service"
	"github.com/wricardo/mcp-training/sokoban/game/session"
	"github.com/wricardo/mcp-training/sokoban/transport/websocket"
)

// copyLevels gives each test its own writable level directory
func copyLevels(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files, err := filepath.Glob("../levels/*.json")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.Base(f)), data, 0644))
	}
	return dir
}

func setupTestServer(t *testing.T, opts ...Option) (*Server, *websocket.Hub) {
	t.Helper()
	levels, err := config.NewManager(copyLevels(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub()
	go hub.Run(ctx)

	svc := service.NewGameService(session.NewManager(), levels)
	return NewServer(svc, hub, opts...), hub
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target), w.Body.String())
}

func createSession(t *testing.T, h http.Handler, level string) *service.SessionInfo {
	t.Helper()
	var body interface{}
	if level != "" {
		body = map[string]string{"config_id": level}
	}
	w := do(t, h, "POST", "/api/sessions", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var info service.SessionInfo
	decode(t, w, &info)
	return &info
}

func TestHealth(t *testing.T) {
	server, _ := setupTestServer(t, WithVersion("9.9.9"))

	w := do(t, server, "GET", "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	decode(t, w, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "9.9.9", body["version"])
}

func TestCreateSession(t *testing.T) {
	server, _ := setupTestServer(t)

	t.Run("default level", func(t *testing.T) {
		info := createSession(t, server, "")
		assert.NotEmpty(t, info.ID)
		assert.Equal(t, "classic", info.ConfigName)
		assert.Equal(t, engine.GameplaySummary{State: engine.Playing, MovesCount: 0}, info.Summary)
		assert.Equal(t, "Playing\nMoves: 0", info.SummaryText)
		require.NotNil(t, info.GameState)
		assert.NotEmpty(t, info.GameState.Board)
	})

	t.Run("named level via deprecated field", func(t *testing.T) {
		w := do(t, server, "POST", "/api/sessions", map[string]string{"config_name": "medium"})
		require.Equal(t, http.StatusCreated, w.Code)
		var info service.SessionInfo
		decode(t, w, &info)
		assert.Equal(t, "medium", info.ConfigName)
	})

	t.Run("unknown level", func(t *testing.T) {
		w := do(t, server, "POST", "/api/sessions", map[string]string{"config_id": "nope"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Available levels")
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader("{"))
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGameplayFlow(t *testing.T) {
	server, _ := setupTestServer(t)
	id := createSession(t, server, "easy").ID
	base := "/api/sessions/" + id

	w := do(t, server, "POST", base+"/move", map[string]interface{}{"direction": "left"})
	require.Equal(t, http.StatusOK, w.Code)
	var move service.MoveResult
	decode(t, w, &move)
	assert.True(t, move.Success)
	assert.Equal(t, engine.Position{X: 4, Y: 2}, move.Outcome.To)
	assert.Equal(t, "Playing\nMoves: 1", move.SummaryText)

	w = do(t, server, "POST", base+"/move", map[string]interface{}{"direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, server, "POST", base+"/bulk-move", map[string]interface{}{"moves": []string{"left", "down", "up"}})
	require.Equal(t, http.StatusOK, w.Code)
	var bulk service.BulkMoveResult
	decode(t, w, &bulk)
	assert.True(t, bulk.Won)
	assert.Equal(t, 2, bulk.MovesExecuted)
	assert.Equal(t, "victory", bulk.StopReasonCode)
	assert.Equal(t, 2, bulk.StoppedOnMove)
	assert.Equal(t, 2, bulk.PushesMade)
	assert.Equal(t, engine.GameplaySummary{State: engine.Won, MovesCount: 3}, bulk.Summary)

	w = do(t, server, "POST", base+"/move", map[string]interface{}{"direction": "up"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &move)
	assert.False(t, move.Success)
	assert.Equal(t, "won", move.Outcome.BlockedBy)
	assert.Equal(t, 3, move.Summary.MovesCount)

	w = do(t, server, "GET", base+"/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary service.SummaryResponse
	decode(t, w, &summary)
	assert.Equal(t, "Won\nMoves: 3", summary.Text)
	assert.Equal(t, 2, summary.BoxesOnGoals)
	assert.Equal(t, 2, summary.TotalGoals)

	w = do(t, server, "GET", base+"/hint", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, server, "GET", base+"/history?limit=2&order=asc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history service.HistoryResponse
	decode(t, w, &history)
	assert.Equal(t, 4, history.TotalMoves, "blocked attempts are recorded")
	assert.Len(t, history.Moves, 2)
	assert.True(t, history.HasNext)

	w = do(t, server, "POST", base+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reset struct {
		State engine.GameState `json:"state"`
	}
	decode(t, w, &reset)
	assert.Equal(t, engine.GameplaySummary{State: engine.Playing, MovesCount: 0}, reset.State.Gameplay)
	assert.Equal(t, engine.Position{X: 5, Y: 2}, reset.State.PlayerPos)

	w = do(t, server, "GET", base+"/state", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, server, "DELETE", base, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, server, "GET", base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, server, "POST", base+"/move", map[string]interface{}{"direction": "up"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHint(t *testing.T) {
	server, _ := setupTestServer(t)
	id := createSession(t, server, "easy").ID

	w := do(t, server, "GET", "/api/sessions/"+id+"/hint", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var hint service.HintResult
	decode(t, w, &hint)
	assert.True(t, hint.Solvable)
	assert.Equal(t, 3, hint.SolutionLength)
	assert.Equal(t, "left", hint.Direction)
}

func TestListSessions(t *testing.T) {
	server, _ := setupTestServer(t)
	first := createSession(t, server, "easy")
	time.Sleep(5 * time.Millisecond)
	second := createSession(t, server, "medium")

	w := do(t, server, "GET", "/api/sessions?sort=created&order=asc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count    int                    `json:"count"`
		Total    int                    `json:"total"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Sessions, 2)
	assert.Equal(t, first.ID, resp.Sessions[0].ID)
	assert.Equal(t, second.ID, resp.Sessions[1].ID)

	w = do(t, server, "GET", "/api/sessions?sort=created&limit=1", nil)
	decode(t, w, &resp)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, second.ID, resp.Sessions[0].ID)
}

func TestUnifiedSessions(t *testing.T) {
	server, _ := setupTestServer(t)
	a := createSession(t, server, "easy")
	b := createSession(t, server, "easy")
	createSession(t, server, "medium")

	var resp struct {
		ConfigName string                   `json:"config_name"`
		TotalGoals int                      `json:"total_goals"`
		Sessions   []map[string]interface{} `json:"sessions"`
	}

	w := do(t, server, "GET", "/api/sessions/unified?configName=easy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Equal(t, "easy", resp.ConfigName)
	assert.Equal(t, 2, resp.TotalGoals)
	assert.Len(t, resp.Sessions, 2)

	w = do(t, server, "GET", fmt.Sprintf("/api/sessions/unified?sessionIds=%s,,missing,%s", a.ID, b.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	require.Len(t, resp.Sessions, 2)
	assert.Equal(t, a.ID, resp.Sessions[0]["session_id"])

	w = do(t, server, "GET", "/api/sessions/unified", nil)
	decode(t, w, &resp)
	assert.Len(t, resp.Sessions, 3)
}

func TestLevels(t *testing.T) {
	server, _ := setupTestServer(t)

	w := do(t, server, "GET", "/api/levels", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var levels []service.ConfigInfo
	decode(t, w, &levels)
	ids := make([]string, 0, len(levels))
	for _, l := range levels {
		ids = append(ids, l.ConfigID)
	}
	assert.Subset(t, ids, []string{"classic", "easy", "medium"})

	w = do(t, server, "GET", "/api/levels/easy.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var level engine.LevelConfig
	decode(t, w, &level)
	assert.Equal(t, "Easy", level.Name)

	w = do(t, server, "GET", "/api/levels/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, server, "POST", "/api/levels", map[string]interface{}{
		"name":   "Tiny Corridor",
		"layout": []string{"######", "#@$ .#", "######"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]string
	decode(t, w, &created)
	assert.Equal(t, "tiny_corridor", created["config_id"])

	info := createSession(t, server, "tiny_corridor")
	assert.Equal(t, "tiny_corridor", info.ConfigName)

	w = do(t, server, "POST", "/api/levels", map[string]interface{}{
		"name":   "Broken",
		"layout": []string{"#####", "# $.#", "#####"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, server, "POST", "/api/levels", map[string]interface{}{
		"layout": []string{"#####", "#@$.#", "#####"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestID(t *testing.T) {
	server, _ := setupTestServer(t)

	w := do(t, server, "GET", "/api/health", nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set(RequestIDHeader, "trace-1")
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)
	assert.Equal(t, "trace-1", w.Header().Get(RequestIDHeader))
}

func TestGzipResponses(t *testing.T) {
	server, _ := setupTestServer(t)
	for i := 0; i < 3; i++ {
		createSession(t, server, "medium")
	}

	req := httptest.NewRequest("GET", "/api/sessions", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(zr).Decode(&resp))
	assert.Equal(t, 3, resp.Total)
}

func TestMCPMount(t *testing.T) {
	called := false
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	})
	server, _ := setupTestServer(t, WithMCPHandler(mcp))

	w := do(t, server, "POST", "/mcp", map[string]string{"jsonrpc": "2.0"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, called)

	bare, _ := setupTestServer(t)
	w = do(t, bare, "POST", "/mcp", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebSocket(t *testing.T) {
	server, hub := setupTestServer(t)

	t.Run("missing session parameter", func(t *testing.T) {
		w := do(t, server, "GET", "/ws", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		w := do(t, server, "GET", "/ws?session=none", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("receives move broadcast", func(t *testing.T) {
		ts := httptest.NewServer(server)
		defer ts.Close()

		id := createSession(t, server, "easy").ID
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + id
		conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.Eventually(t, func() bool { return hub.ClientCount(id) == 1 }, 2*time.Second, 10*time.Millisecond)

		resp, err := http.Post(ts.URL+"/api/sessions/"+id+"/move", "application/json", strings.NewReader(`{"direction":"left"}`))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg websocket.Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, id, msg.SessionID)
		assert.Equal(t, "state_update", msg.Event)
		assert.Equal(t, "Playing\nMoves: 1", msg.SummaryText)
	})
}

func TestConcurrentMovesAndReads(t *testing.T) {
	server, hub := setupTestServer(t)
	ts := httptest.NewServer(server)
	defer ts.Close()

	id := createSession(t, server, "medium").ID
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + id
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount(id) == 1 }, 2*time.Second, 10*time.Millisecond)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	const workers, rounds = 4, 25
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for w := 0; w < workers; w++ {
		dir := []string{"left", "right", "up", "down"}[w]
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				rec := do(t, server, "POST", "/api/sessions/"+id+"/move", map[string]string{"direction": dir})
				if rec.Code != http.StatusOK {
					t.Errorf("move %s: status %d", dir, rec.Code)
					return
				}
				var result service.MoveResult
				if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
					t.Error(err)
					return
				}
				if result.Success {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				rec := do(t, server, "GET", "/api/sessions/"+id+"/state", nil)
				if rec.Code != http.StatusOK {
					t.Errorf("state: status %d", rec.Code)
					return
				}
			}
		}()
	}
	wg.Wait()

	w := do(t, server, "GET", "/api/sessions/"+id+"/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary service.SummaryResponse
	decode(t, w, &summary)
	assert.Equal(t, accepted, summary.Summary.MovesCount, "every accepted move is counted exactly once")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", service.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: x", service.ErrLevelNotFound), http.StatusNotFound},
		{fmt.Errorf("move 2: %w", engine.ErrInvalidDirection), http.StatusBadRequest},
		{fmt.Errorf("%w: x", service.ErrInvalidLevel), http.StatusBadRequest},
		{service.ErrAlreadyWon, http.StatusConflict},
		{service.ErrSessionExists, http.StatusConflict},
		{service.ErrHintUnavailable, http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
