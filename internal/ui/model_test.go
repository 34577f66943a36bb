package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amalg/go-pacman/internal/game"
	"github.com/amalg/go-pacman/internal/leaderboard"
)

type fakeSession struct {
	board  *game.Board
	snaps  chan game.Snapshot
	dirs   []game.Direction
	starts int
}

func newFakeSession(t *testing.T) *fakeSession {
	t.Helper()
	board, err := game.ParseBoard([]string{"...", ".#.", "..."})
	if err != nil {
		t.Fatal(err)
	}
	return &fakeSession{board: board, snaps: make(chan game.Snapshot, 4)}
}

func (f *fakeSession) Board() *game.Board { return f.board }
func (f *fakeSession) Snapshots() <-chan game.Snapshot { return f.snaps }

func (f *fakeSession) SetDirection(d game.Direction) error {
	f.dirs = append(f.dirs, d)
	return nil
}

func (f *fakeSession) Start() error {
	f.starts++
	return nil
}

type fakeScores struct {
	entries []leaderboard.Entry
	taken   map[string]bool
}

func (f *fakeScores) Submit(name string, score int) error {
	if f.taken[name] {
		return fmt.Errorf("submit %q: %w", name, leaderboard.ErrNameTaken)
	}
	f.entries = append(f.entries, leaderboard.Entry{Name: name, Score: score})
	return nil
}

func (f *fakeScores) Top(n int) ([]leaderboard.Entry, error) {
	leaderboard.Sort(f.entries)
	return leaderboard.Top(f.entries, n), nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run applies a key or async result and feeds back the submit and
// leaderboard results it produces. Snapshot waiters are never invoked.
func run(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	switch msg.(type) {
	case tea.KeyMsg, submitResultMsg:
		out := cmd()
		switch out.(type) {
		case submitResultMsg, leaderboardMsg:
			return run(t, m, out)
		}
	}
	return m
}

func TestSteeringForwardsDirections(t *testing.T) {
	s := newFakeSession(t)
	m := NewModel(s, Options{})

	next, _ := m.Update(snapshotMsg(game.Snapshot{Tick: 1}))
	m = next.(Model)

	for _, k := range []string{"up", "d", "s", "a"} {
		next, _ = m.Update(key(k))
		m = next.(Model)
	}
	want := []game.Direction{game.DirUp, game.DirRight, game.DirDown, game.DirLeft}
	if len(s.dirs) != len(want) {
		t.Fatalf("expected %d directions, got %v", len(want), s.dirs)
	}
	for i := range want {
		if s.dirs[i] != want[i] {
			t.Fatalf("direction %d: expected %s, got %s", i, want[i], s.dirs[i])
		}
	}
}

func TestEnterStartsOnlyWhenIdle(t *testing.T) {
	s := newFakeSession(t)
	m := NewModel(s, Options{CanRestart: true})

	next, _ := m.Update(key("enter"))
	m = next.(Model)
	if s.starts != 1 {
		t.Fatalf("expected start from the lobby, got %d", s.starts)
	}

	next, _ = m.Update(snapshotMsg(game.Snapshot{Tick: 3}))
	m = next.(Model)
	next, _ = m.Update(key("enter"))
	m = next.(Model)
	if s.starts != 1 {
		t.Fatalf("enter during a round should be ignored, got %d starts", s.starts)
	}
}

func TestGameOverNameEntryAndLeaderboard(t *testing.T) {
	s := newFakeSession(t)
	scores := &fakeScores{
		entries: []leaderboard.Entry{{Name: "old", Score: 50}},
		taken:   map[string]bool{"old": true},
	}
	m := NewModel(s, Options{Scores: scores, CanSubmit: true, CanRestart: true})

	next, _ := m.Update(snapshotMsg(game.Snapshot{Tick: 9, Over: true, Player: game.PlayerView{Score: 120}}))
	m = next.(Model)
	if m.screen != screenNameEntry {
		t.Fatalf("expected name entry after game over, got %d", m.screen)
	}

	// Enter with no name stays on the prompt.
	m = run(t, m, key("enter"))
	if m.screen != screenNameEntry || m.message == "" {
		t.Fatalf("expected a prompt message, got screen %d message %q", m.screen, m.message)
	}

	for _, k := range []string{"o", "l", "d"} {
		m = run(t, m, key(k))
	}
	m = run(t, m, key("enter"))
	if m.screen != screenNameEntry || !strings.Contains(m.message, "taken") {
		t.Fatalf("expected name-taken message, got screen %d message %q", m.screen, m.message)
	}

	m = run(t, m, key("backspace"))
	m = run(t, m, key("backspace"))
	m = run(t, m, key("backspace"))
	for _, k := range []string{"n", "e", "w"} {
		m = run(t, m, key(k))
	}
	m = run(t, m, key("enter"))
	if m.screen != screenLeaderboard {
		t.Fatalf("expected leaderboard after submit, got %d", m.screen)
	}
	if len(m.entries) != 2 || m.entries[0].Name != "new" || m.entries[0].Score != 120 {
		t.Fatalf("unexpected entries %+v", m.entries)
	}
	if m.saved != "new" {
		t.Fatalf("expected saved name highlighted, got %q", m.saved)
	}
	if !strings.Contains(m.View(), "new: 120") {
		t.Fatalf("leaderboard view missing entry:\n%s", m.View())
	}

	// Play again.
	m = run(t, m, key("enter"))
	if s.starts != 1 {
		t.Fatalf("expected restart, got %d starts", s.starts)
	}
	next, _ = m.Update(snapshotMsg(game.Snapshot{Tick: 1}))
	m = next.(Model)
	if m.screen != screenPlaying {
		t.Fatalf("expected playing screen after restart, got %d", m.screen)
	}
}

func TestSpectatorSkipsNameEntry(t *testing.T) {
	s := newFakeSession(t)
	m := NewModel(s, Options{Scores: &fakeScores{}, Role: "spectator"})

	next, _ := m.Update(snapshotMsg(game.Snapshot{Tick: 4, Over: true}))
	m = next.(Model)
	if m.screen != screenLeaderboard {
		t.Fatalf("spectator should go straight to the leaderboard, got %d", m.screen)
	}
	m = run(t, m, key("enter"))
	if s.starts != 0 {
		t.Fatal("spectator must not restart the round")
	}
}

func TestSessionClosedQuits(t *testing.T) {
	s := newFakeSession(t)
	close(s.snaps)
	m := NewModel(s, Options{})

	msg := m.Init()()
	if _, ok := msg.(sessionClosedMsg); !ok {
		t.Fatalf("expected sessionClosedMsg, got %T", msg)
	}
	next, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !strings.Contains(next.View(), "closed") {
		t.Fatalf("expected closed error view, got %q", next.View())
	}
}

func TestRenderBoardPriority(t *testing.T) {
	board, err := game.ParseBoard([]string{"..."})
	if err != nil {
		t.Fatal(err)
	}
	snap := &game.Snapshot{
		Player: game.PlayerView{Pos: game.Position{X: 0, Y: 0}, Dir: game.DirRight},
		Ghosts: []game.GhostView{
			{Name: "blinky", Kind: game.GhostPathfinder, Pos: game.Position{X: 0, Y: 0}},
			{Name: "pinky", Kind: game.GhostRandom, Pos: game.Position{X: 1, Y: 0}},
		},
		Coins: []game.Coin{{Pos: game.Position{X: 1, Y: 0}}, {Pos: game.Position{X: 2, Y: 0}}},
	}
	out := RenderBoard(board, snap)
	if !strings.Contains(out, "ᗤ") {
		t.Fatalf("player glyph missing:\n%s", out)
	}
	if strings.Count(out, "●") != 1 {
		t.Fatalf("expected the ghost to hide one coin:\n%s", out)
	}
	if strings.Count(out, "ᗣ") != 1 {
		t.Fatalf("expected the player to hide one ghost:\n%s", out)
	}
}

func TestStoreScoreboard(t *testing.T) {
	sb := StoreScoreboard{Store: leaderboard.NewGdataStore(nil)}
	if err := sb.Submit("ann", 10); err != nil {
		t.Fatal(err)
	}
	if err := sb.Submit("ann", 20); !errors.Is(err, leaderboard.ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	top, err := sb.Top(5)
	if err != nil || len(top) != 1 || top[0].Score != 10 {
		t.Fatalf("unexpected top %+v, %v", top, err)
	}
}

func TestLocalSessionRounds(t *testing.T) {
	board, err := game.ParseBoard([]string{"....."})
	if err != nil {
		t.Fatal(err)
	}
	cfg := game.GameConfig{
		TickInterval:   time.Hour,
		PlayerStart:    game.Position{X: 0, Y: 0},
		PlayerInterval: 1,
		NumCoins:       1,
		CoinValue:      10,
		Pickup:         game.PickupAll,
		Collision:      game.CollisionGameOver,
		Seed:           7,
	}
	var rounds []int
	s, err := NewLocalSession(board, cfg, func(e *game.Engine, round int) { rounds = append(rounds, round) })
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetDirection(game.DirRight); err == nil {
		t.Fatal("expected an error before the first round")
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()
	if err := s.Start(); !errors.Is(err, ErrRoundRunning) {
		t.Fatalf("expected ErrRoundRunning, got %v", err)
	}
	if err := s.SetDirection(game.DirRight); err != nil {
		t.Fatal(err)
	}
	if s.Round() != 1 || len(rounds) != 1 || rounds[0] != 1 {
		t.Fatalf("unexpected rounds %d %v", s.Round(), rounds)
	}
}
