package replay

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/amalg/go-pacman/internal/game"
)

// Rounds records every round of a session to its own file.
// Round n of "out/game.parquet" goes to "out/game-n.parquet".
type Rounds struct {
	path  string
	board *game.Board

	mu      sync.Mutex
	current *Recorder
	files   []string
}

// NewRounds creates a per-round recorder rooted at path.
func NewRounds(path string, board *game.Board) *Rounds {
	return &Rounds{path: path, board: board}
}

// RoundPath returns the file round n is written to.
func RoundPath(path string, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), n, ext)
}

// Hook starts recording a new round. It matches game.EngineHook.
func (r *Rounds) Hook(e *game.Engine, round int) {
	rec := NewRecorder(RoundPath(r.path, round), uuid.NewString(), r.board)

	r.mu.Lock()
	prev := r.current
	r.current = rec
	r.files = append(r.files, rec.path)
	r.mu.Unlock()

	// A round abandoned before game over is still written.
	if prev != nil {
		if err := prev.Close(); err != nil {
			log.Printf("[REPLAY] Failed to write %s: %v", prev.path, err)
		}
	}

	rec.Attach(e)
	e.OnGameOver(func(int) {
		if err := rec.Close(); err != nil {
			log.Printf("[REPLAY] Failed to write %s: %v", rec.path, err)
		}
	})
}

// Files lists every file started so far.
func (r *Rounds) Files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.files...)
}

// Close flushes the round in progress, if any.
func (r *Rounds) Close() error {
	r.mu.Lock()
	rec := r.current
	r.mu.Unlock()
	if rec == nil {
		return nil
	}
	return rec.Close()
}
