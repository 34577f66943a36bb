// Package spectate exposes a running game over HTTP: JSON endpoints for the
// map, state and leaderboard, and a websocket stream of snapshots.
package spectate

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/amalg/go-pacman/internal/game"
	"github.com/amalg/go-pacman/internal/leaderboard"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

const writeWait = 2 * time.Second

// Server serves one game.
type Server struct {
	board    *game.Board
	hub      *Hub
	scores   leaderboard.Store // may be nil
	upgrader websocket.Upgrader
}

// NewServer creates a spectator server. scores may be nil.
func NewServer(board *game.Board, hub *Hub, scores leaderboard.Store) *Server {
	return &Server{
		board:    board,
		hub:      hub,
		scores:   scores,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "watchers": s.hub.Watchers()})
		})
		r.Get("/map", s.getMap)
		r.Get("/state", s.getState)
		r.Get("/distances/{x}/{y}", s.getDistances)
		r.Get("/leaderboard", s.getLeaderboard)
	})
	r.Get("/ws", s.watch)

	return r
}

type mapResponse struct {
	Rows  int      `json:"rows"`
	Cols  int      `json:"cols"`
	Lines []string `json:"lines"`
}

func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, mapResponse{
		Rows:  s.board.Rows(),
		Cols:  s.board.Cols(),
		Lines: s.board.Lines(),
	})
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.hub.Latest()
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "game has not started")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// getDistances returns the BFS distance map from a cell, -1 for unreachable.
func (s *Server) getDistances(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	y, errY := strconv.Atoi(chi.URLParam(r, "y"))
	if errX != nil || errY != nil {
		respondError(w, http.StatusBadRequest, "coordinates must be integers")
		return
	}
	from := game.Position{X: x, Y: y}
	if s.board.IsWall(from) {
		respondError(w, http.StatusBadRequest, "not a walkable cell: "+from.String())
		return
	}
	respondJSON(w, http.StatusOK, game.Distances(s.board, from))
}

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.scores == nil {
		respondJSON(w, http.StatusOK, []leaderboard.Entry{})
		return
	}
	top := leaderboard.DefaultTop
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "top must be a non-negative integer")
			return
		}
		top = n
	}
	entries, err := s.scores.Load()
	if err != nil {
		log.Printf("[SPECTATE] Leaderboard load failed: %v", err)
		respondError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	respondJSON(w, http.StatusOK, leaderboard.Top(entries, top))
}

// watch upgrades to a websocket and streams every snapshot as JSON,
// starting with the latest one.
func (s *Server) watch(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[SPECTATE] Upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	snaps, cancel := s.hub.Subscribe()
	defer cancel()
	log.Printf("[SPECTATE] Watcher connected from %s", r.RemoteAddr)

	// Watchers never send anything; reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if snap, ok := s.hub.Latest(); ok {
		if err := writeSnapshot(conn, snap); err != nil {
			return
		}
	}

	for {
		select {
		case <-closed:
			log.Printf("[SPECTATE] Watcher %s left", r.RemoteAddr)
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if err := writeSnapshot(conn, snap); err != nil {
				log.Printf("[SPECTATE] Write to %s failed: %v", r.RemoteAddr, err)
				return
			}
		}
	}
}

func writeSnapshot(conn *websocket.Conn, snap game.Snapshot) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(snap)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[SPECTATE] Error encoding JSON: %v", err)
	}
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
