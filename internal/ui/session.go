package ui

import (
	"errors"
	"fmt"
	"sync"

	"github.com/amalg/go-pacman/internal/game"
	"github.com/amalg/go-pacman/internal/leaderboard"
)

// Session is a game the TUI can show and steer. A local engine and a
// network client both satisfy it.
type Session interface {
	Board() *game.Board
	Snapshots() <-chan game.Snapshot
	SetDirection(game.Direction) error
	// Start begins a round, or the next one after game over.
	Start() error
}

// Scoreboard is where finished rounds are recorded.
type Scoreboard interface {
	Submit(name string, score int) error
	Top(n int) ([]leaderboard.Entry, error)
}

// StoreScoreboard adapts a leaderboard.Store.
type StoreScoreboard struct {
	Store leaderboard.Store
}

func (s StoreScoreboard) Submit(name string, score int) error {
	return s.Store.Submit(name, score)
}

func (s StoreScoreboard) Top(n int) ([]leaderboard.Entry, error) {
	entries, err := s.Store.Load()
	if err != nil {
		return nil, err
	}
	return leaderboard.Top(entries, n), nil
}

// ErrRoundRunning is returned by Start while a round is in progress.
var ErrRoundRunning = errors.New("game already running")

// LocalSession runs engines in-process, one per round.
type LocalSession struct {
	board  *game.Board
	config game.GameConfig
	hooks  []game.EngineHook
	snaps  chan game.Snapshot

	mu     sync.Mutex
	engine *game.Engine
	round  int
}

// NewLocalSession validates config up front so Start only fails for
// ErrRoundRunning.
func NewLocalSession(board *game.Board, config game.GameConfig, hooks ...game.EngineHook) (*LocalSession, error) {
	if _, err := game.NewEngine(board, config); err != nil {
		return nil, err
	}
	return &LocalSession{
		board:  board,
		config: config,
		hooks:  hooks,
		snaps:  make(chan game.Snapshot, 10),
	}, nil
}

func (s *LocalSession) Board() *game.Board { return s.board }

func (s *LocalSession) Snapshots() <-chan game.Snapshot { return s.snaps }

// SetDirection forwards input to the current round.
func (s *LocalSession) SetDirection(d game.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return errors.New("no round started")
	}
	s.engine.SetInputDirection(d)
	return nil
}

// Start creates a fresh engine and runs it in the background.
// Every round uses a different seed derived from the configured one.
func (s *LocalSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil && s.engine.Status() == game.StatusRunning {
		return ErrRoundRunning
	}

	cfg := s.config
	cfg.Seed += int64(s.round)
	engine, err := game.NewEngine(s.board, cfg)
	if err != nil {
		return fmt.Errorf("new round: %w", err)
	}
	s.round++
	engine.OnTick(s.forward)
	for _, h := range s.hooks {
		h(engine, s.round)
	}
	s.engine = engine
	go engine.Run()
	return nil
}

// Round returns how many rounds have been started.
func (s *LocalSession) Round() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

// Stop halts the current round.
func (s *LocalSession) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil {
		s.engine.Stop()
	}
}

// forward hands a snapshot to the TUI, replacing the oldest one if the
// TUI has fallen behind.
func (s *LocalSession) forward(snap game.Snapshot) {
	select {
	case s.snaps <- snap:
		return
	default:
	}
	select {
	case <-s.snaps:
	default:
	}
	select {
	case s.snaps <- snap:
	default:
	}
}
