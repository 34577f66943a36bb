package replay

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/amalg/go-pacman/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *game.Engine {
	t.Helper()
	board := game.ReferenceBoard()
	cfg := game.DefaultConfig()
	cfg.TickInterval = time.Millisecond
	e, err := game.NewEngine(board, cfg)
	require.NoError(t, err)
	return e
}

func TestRecorderRoundTrip(t *testing.T) {
	e := newEngine(t)
	path := filepath.Join(t.TempDir(), "out", "game.parquet")
	rec := NewRecorder(path, "session-1", e.Board())
	rec.Attach(e)

	e.SetInputDirection(game.DirRight)
	var last game.Snapshot
	for i := 0; i < 20; i++ {
		last = e.Step()
	}
	require.Equal(t, 20, rec.Len())
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close(), "second close is a no-op")

	e.Step()
	assert.Equal(t, 20, rec.Len(), "ticks after close are dropped")

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "session-1", got.SessionID)
	assert.Equal(t, e.Board().Lines(), got.Map)
	require.Len(t, got.Rows, 20)

	row := got.Rows[19]
	assert.Equal(t, int64(last.Tick), row.Tick)
	assert.Equal(t, int32(last.Player.Pos.X), row.PlayerX)
	assert.Equal(t, int32(last.Player.Pos.Y), row.PlayerY)
	assert.Equal(t, int32(last.Player.Score), row.Score)
	require.Len(t, row.Ghosts, len(last.Ghosts))
	for i, g := range last.Ghosts {
		assert.Equal(t, g.Name, row.Ghosts[i].Name)
		assert.Equal(t, string(g.Kind), row.Ghosts[i].Kind)
		assert.Equal(t, int32(g.Pos.X), row.Ghosts[i].X)
		assert.Equal(t, int32(g.Pos.Y), row.Ghosts[i].Y)
	}
	require.Len(t, row.CoinX, len(last.Coins))
	for i, c := range last.Coins {
		assert.Equal(t, int32(c.Pos.X), row.CoinX[i])
		assert.Equal(t, int32(c.Pos.Y), row.CoinY[i])
	}

	for i, r := range got.Rows {
		assert.Equal(t, int64(i+1), r.Tick)
	}
}

func TestSummarize(t *testing.T) {
	rec := &Recording{
		SessionID: "s",
		Rows: []TickRow{
			{Tick: 1, Score: 0},
			{Tick: 2, Score: 100},
			{Tick: 3, Score: 100},
			{Tick: 4, Score: 200},
			{Tick: 5, Score: 200, Over: true},
		},
	}
	assert.Equal(t, Summary{SessionID: "s", Ticks: 5, FinalScore: 200, Over: true, Pickups: 2}, rec.Summarize())
	assert.Equal(t, Summary{}, (&Recording{}).Summarize())
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.parquet"))
	assert.Error(t, err)
}

func TestRoundPath(t *testing.T) {
	assert.Equal(t, "out/game-3.parquet", RoundPath("out/game.parquet", 3))
	assert.Equal(t, "replay-1", RoundPath("replay", 1))
}

func TestRoundsWritesOneFilePerRound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.parquet")
	first := newEngine(t)
	rounds := NewRounds(path, first.Board())

	rounds.Hook(first, 1)
	for i := 0; i < 3; i++ {
		first.Step()
	}

	// Starting the next round flushes the abandoned one.
	second := newEngine(t)
	rounds.Hook(second, 2)
	second.Step()
	require.NoError(t, rounds.Close())

	files := rounds.Files()
	require.Equal(t, []string{RoundPath(path, 1), RoundPath(path, 2)}, files)

	r1, err := Read(files[0])
	require.NoError(t, err)
	assert.Len(t, r1.Rows, 3)

	r2, err := Read(files[1])
	require.NoError(t, err)
	assert.Len(t, r2.Rows, 1)
	assert.NotEqual(t, r1.SessionID, r2.SessionID)
}
