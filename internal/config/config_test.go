package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amalg/go-pacman/internal/game"
	"github.com/amalg/go-pacman/internal/leaderboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippedConfigMatchesDefault(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "game.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	board, gc, err := cfg.Game()
	require.NoError(t, err)
	assert.Equal(t, game.ReferenceBoard().Lines(), board.Lines())
	assert.Equal(t, game.DefaultConfig(), gc)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
tick: 20ms
map:
  - "....."
  - ".#.#."
  - "....."
player:
  start: {x: 2, y: 0}
ghosts:
  - {kind: pathfinder, start: {x: 4, y: 2}, interval: 1}
coins:
  pickup: first
collision:
  policy: penalty
  revival_cost: 250
`))
	require.NoError(t, err)

	board, gc, err := cfg.Game()
	require.NoError(t, err)
	assert.Equal(t, 5, board.Cols())
	assert.Equal(t, 3, board.Rows())
	assert.Equal(t, 20*time.Millisecond, gc.TickInterval)
	assert.Equal(t, game.Position{X: 2, Y: 0}, gc.PlayerStart)
	assert.Equal(t, 2, gc.PlayerInterval, "unset fields keep defaults")
	require.Len(t, gc.Ghosts, 1)
	assert.Equal(t, game.GhostPathfinder, gc.Ghosts[0].Kind)
	assert.Equal(t, game.PickupFirst, gc.Pickup)
	assert.Equal(t, game.CollisionPenalty, gc.Collision)
	assert.Equal(t, 250, gc.RevivalCost)
	assert.Equal(t, 5, gc.NumCoins)
}

func TestParseEmptyGhostList(t *testing.T) {
	cfg, err := Parse([]byte("ghosts: []\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Ghosts)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "bad tick", yaml: "tick: soon\n"},
		{name: "ragged map", yaml: "map: [\"...\", \"..\"]\n"},
		{name: "player on wall", yaml: "player: {start: {x: 7, y: 1}}\n"},
		{name: "ghost off board", yaml: "ghosts: [{kind: random, start: {x: 20, y: 0}, interval: 1}]\n"},
		{name: "unknown ghost", yaml: "ghosts: [{kind: speedy, start: {x: 0, y: 0}, interval: 1}]\n"},
		{name: "no coins", yaml: "coins: {count: 0}\n"},
		{name: "bad pickup", yaml: "coins: {pickup: some}\n"},
		{name: "bad collision", yaml: "collision: {policy: bounce}\n"},
		{name: "bad backend", yaml: "leaderboard: {backend: sql}\n"},
		{name: "not yaml", yaml: "map: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenStore(t *testing.T) {
	cfg := Default()
	cfg.Leaderboard.Path = filepath.Join(t.TempDir(), "scores.txt")
	store, err := cfg.OpenStore()
	require.NoError(t, err)
	fs, ok := store.(*leaderboard.FileStore)
	require.True(t, ok, "file backend should give a FileStore")
	assert.Equal(t, cfg.Leaderboard.Path, fs.Path())

	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	cfg.Leaderboard = LeaderboardConfig{Backend: BackendGdata, Path: "pacman_config_test"}
	store, err = cfg.OpenStore()
	require.NoError(t, err)
	require.NoError(t, store.Submit("ann", 300))
	entries, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []leaderboard.Entry{{Name: "ann", Score: 300}}, entries)
}
