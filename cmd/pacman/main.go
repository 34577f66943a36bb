package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amalg/go-pacman/internal/config"
	"github.com/amalg/go-pacman/internal/game"
	"github.com/amalg/go-pacman/internal/leaderboard"
	"github.com/amalg/go-pacman/internal/replay"
	"github.com/amalg/go-pacman/internal/spectate"
	"github.com/amalg/go-pacman/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "Game file (default: built-in reference game)")
	seed := flag.Int64("seed", 0, "Override the random seed (0 keeps the configured one)")
	scoresPath := flag.String("leaderboard", "", "Leaderboard file (overrides the config)")
	gdataApp := flag.String("gdata", "", "Store the leaderboard in the app data dir of this app name")
	replayPath := flag.String("replay", "", "Record each round to a Parquet file (e.g. replay.parquet)")
	httpAddr := flag.String("http", "", "Serve the spectate API on this address (e.g. :8080)")
	logFile := flag.String("log", "", "Log file path (default: discard logs)")
	flag.Parse()

	// Anything written to stderr corrupts the TUI.
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	switch {
	case *gdataApp != "":
		cfg.Leaderboard = config.LeaderboardConfig{Backend: config.BackendGdata, Path: *gdataApp}
	case *scoresPath != "":
		cfg.Leaderboard = config.LeaderboardConfig{Backend: config.BackendFile, Path: *scoresPath}
	}

	board, gameConfig, err := cfg.Game()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// A broken leaderboard never stops the game.
	store, err := cfg.OpenStore()
	if err != nil {
		log.Printf("[MAIN] Leaderboard unavailable, keeping scores in memory: %v", err)
		store = leaderboard.NewGdataStore(nil)
	}

	var hooks []game.EngineHook
	var rounds *replay.Rounds
	if *replayPath != "" {
		rounds = replay.NewRounds(*replayPath, board)
		hooks = append(hooks, rounds.Hook)
	}
	if *httpAddr != "" {
		hub := spectate.NewHub()
		hooks = append(hooks, func(e *game.Engine, _ int) { hub.Attach(e) })
		srv := &http.Server{
			Addr:              *httpAddr,
			Handler:           spectate.NewServer(board, hub, store).Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[HTTP] %v", err)
			}
		}()
		defer srv.Close()
	}

	session, err := ui.NewLocalSession(board, gameConfig, hooks...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := session.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	model := ui.NewModel(session, ui.Options{
		Scores:     ui.StoreScoreboard{Store: store},
		CanSubmit:  true,
		CanRestart: true,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := p.Run()

	session.Stop()
	if rounds != nil {
		if err := rounds.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write replay: %v\n", err)
		}
		for _, f := range rounds.Files() {
			fmt.Printf("Replay saved to %s\n", f)
		}
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
