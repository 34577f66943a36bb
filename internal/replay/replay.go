// Package replay records per-tick game snapshots to Parquet files.
package replay

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/amalg/go-pacman/internal/game"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

const (
	schemaVersion = "pacman_tick_v1"

	metaSchema  = "schema"
	metaSession = "session_id"
	metaMap     = "map"
)

// GhostRow is one ghost at one tick.
type GhostRow struct {
	Name string `parquet:"name,dict" json:"name"`
	Kind string `parquet:"kind,dict" json:"kind"`
	X    int32  `parquet:"x" json:"x"`
	Y    int32  `parquet:"y" json:"y"`
}

// TickRow is one snapshot flattened for columnar storage.
type TickRow struct {
	SessionID string     `parquet:"session_id,dict" json:"session_id"`
	Tick      int64      `parquet:"tick" json:"tick"`
	Over      bool       `parquet:"over" json:"over"`
	PlayerX   int32      `parquet:"player_x" json:"player_x"`
	PlayerY   int32      `parquet:"player_y" json:"player_y"`
	PlayerDir int32      `parquet:"player_dir" json:"player_dir"`
	Score     int32      `parquet:"score" json:"score"`
	Ghosts    []GhostRow `parquet:"ghosts" json:"ghosts"`
	CoinX     []int32    `parquet:"coin_x" json:"coin_x"`
	CoinY     []int32    `parquet:"coin_y" json:"coin_y"`
}

// FromSnapshot flattens a snapshot.
func FromSnapshot(sessionID string, s game.Snapshot) TickRow {
	row := TickRow{
		SessionID: sessionID,
		Tick:      int64(s.Tick),
		Over:      s.Over,
		PlayerX:   int32(s.Player.Pos.X),
		PlayerY:   int32(s.Player.Pos.Y),
		PlayerDir: int32(s.Player.Dir),
		Score:     int32(s.Player.Score),
		Ghosts:    make([]GhostRow, len(s.Ghosts)),
		CoinX:     make([]int32, len(s.Coins)),
		CoinY:     make([]int32, len(s.Coins)),
	}
	for i, g := range s.Ghosts {
		row.Ghosts[i] = GhostRow{Name: g.Name, Kind: string(g.Kind), X: int32(g.Pos.X), Y: int32(g.Pos.Y)}
	}
	for i, c := range s.Coins {
		row.CoinX[i] = int32(c.Pos.X)
		row.CoinY[i] = int32(c.Pos.Y)
	}
	return row
}

// Recorder buffers snapshots in memory and writes them out on Close.
type Recorder struct {
	path      string
	sessionID string
	mapLines  []string

	mu     sync.Mutex
	rows   []TickRow
	closed bool
}

// NewRecorder creates a recorder that will write to path.
func NewRecorder(path, sessionID string, board *game.Board) *Recorder {
	return &Recorder{path: path, sessionID: sessionID, mapLines: board.Lines()}
}

// Attach subscribes the recorder to every tick of e.
func (r *Recorder) Attach(e *game.Engine) {
	e.OnTick(r.Record)
}

// Record appends one snapshot. Calls after Close are ignored.
func (r *Recorder) Record(s game.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.rows = append(r.rows, FromSnapshot(r.sessionID, s))
}

// Len returns how many ticks have been recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// Close writes the recording atomically. Closing twice is a no-op.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	rows := r.rows
	r.mu.Unlock()

	if err := write(r.path, rows, r.sessionID, r.mapLines); err != nil {
		return err
	}
	log.Printf("[REPLAY] Wrote %d ticks to %s", len(rows), r.path)
	return nil
}

func write(path string, rows []TickRow, sessionID string, mapLines []string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata(metaSchema, schemaVersion),
		parquet.KeyValueMetadata(metaSession, sessionID),
		parquet.KeyValueMetadata(metaMap, strings.Join(mapLines, "\n")),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// Recording is a replay file loaded back into memory.
type Recording struct {
	SessionID string
	Map       []string
	Rows      []TickRow
}

// Read loads a replay file.
func Read(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	if schema, _ := pf.Lookup(metaSchema); schema != schemaVersion {
		return nil, fmt.Errorf("unsupported replay schema %q", schema)
	}

	rec := &Recording{}
	rec.SessionID, _ = pf.Lookup(metaSession)
	if m, ok := pf.Lookup(metaMap); ok && m != "" {
		rec.Map = strings.Split(m, "\n")
	}

	reader := parquet.NewGenericReader[TickRow](pf)
	defer reader.Close()

	for {
		// Fresh buffer each round: the reader may reuse nested slices.
		buf := make([]TickRow, 256)
		n, err := reader.Read(buf)
		rec.Rows = append(rec.Rows, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return rec, nil
}

// Summary describes a recording at a glance.
type Summary struct {
	SessionID  string `json:"session_id"`
	Ticks      int    `json:"ticks"`
	FinalScore int    `json:"final_score"`
	Over       bool   `json:"over"`
	Pickups    int    `json:"pickups"`
}

// Summarize walks the rows of a recording.
// A pickup is any tick on which the score went up.
func (r *Recording) Summarize() Summary {
	s := Summary{SessionID: r.SessionID, Ticks: len(r.Rows)}
	prev := int32(0)
	for _, row := range r.Rows {
		if row.Score > prev {
			s.Pickups++
		}
		prev = row.Score
	}
	if n := len(r.Rows); n > 0 {
		last := r.Rows[n-1]
		s.FinalScore = int(last.Score)
		s.Over = last.Over
	}
	return s
}
