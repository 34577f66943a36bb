package spectate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amalg/go-pacman/internal/game"
	"github.com/amalg/go-pacman/internal/leaderboard"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, scores leaderboard.Store) (*Hub, *httptest.Server) {
	t.Helper()
	board, err := game.ParseBoard([]string{"...", ".#.", "..."})
	require.NoError(t, err)
	hub := NewHub()
	ts := httptest.NewServer(NewServer(board, hub, scores).Routes())
	t.Cleanup(ts.Close)
	return hub, ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestHealthAndMap(t *testing.T) {
	_, ts := newTestServer(t, nil)

	var health map[string]any
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/health", &health))
	assert.Equal(t, "ok", health["status"])

	var m mapResponse
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/map", &m))
	assert.Equal(t, mapResponse{Rows: 3, Cols: 3, Lines: []string{"...", ".#.", "..."}}, m)
}

func TestState(t *testing.T) {
	hub, ts := newTestServer(t, nil)

	var errBody map[string]string
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.URL+"/api/state", &errBody))

	hub.Publish(game.Snapshot{Tick: 7, Player: game.PlayerView{Pos: game.Position{X: 2, Y: 0}, Dir: game.DirLeft, Score: 300}})

	var snap game.Snapshot
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/state", &snap))
	assert.Equal(t, uint64(7), snap.Tick)
	assert.Equal(t, game.DirLeft, snap.Player.Dir)
	assert.Equal(t, 300, snap.Player.Score)
}

func TestDistances(t *testing.T) {
	_, ts := newTestServer(t, nil)

	var dist [][]int
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/distances/0/0", &dist))
	assert.Equal(t, [][]int{{0, 1, 2}, {1, -1, 3}, {2, 3, 4}}, dist)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/distances/1/1", &errBody))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/distances/a/0", &errBody))
}

func TestLeaderboard(t *testing.T) {
	store := leaderboard.NewGdataStore(nil)
	for i, name := range []string{"a", "b", "c", "d", "e", "f"} {
		require.NoError(t, store.Submit(name, (i+1)*100))
	}
	_, ts := newTestServer(t, store)

	var entries []leaderboard.Entry
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/leaderboard", &entries))
	require.Len(t, entries, leaderboard.DefaultTop)
	assert.Equal(t, leaderboard.Entry{Name: "f", Score: 600}, entries[0])

	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/leaderboard?top=2", &entries))
	assert.Len(t, entries, 2)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/leaderboard?top=-1", &errBody))
}

func TestWatchStreamsSnapshots(t *testing.T) {
	hub, ts := newTestServer(t, nil)
	hub.Publish(game.Snapshot{Tick: 1})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var snap game.Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, uint64(1), snap.Tick, "latest snapshot is sent on connect")

	hub.Publish(game.Snapshot{Tick: 2, Status: game.StatusOver, Over: true})
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, uint64(2), snap.Tick)
	assert.Equal(t, game.StatusOver, snap.Status)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Watchers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubDropsForSlowWatcher(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()

	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(game.Snapshot{Tick: uint64(i)})
	}
	assert.Len(t, ch, subscriberBuffer)

	latest, ok := hub.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(subscriberBuffer+4), latest.Tick)

	cancel()
	cancel()
	assert.Equal(t, 0, hub.Watchers())
}
