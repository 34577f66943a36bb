package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amalg/go-pacman/internal/config"
	"github.com/amalg/go-pacman/internal/discovery"
	"github.com/amalg/go-pacman/internal/game"
	"github.com/amalg/go-pacman/internal/leaderboard"
	"github.com/amalg/go-pacman/internal/network"
	"github.com/amalg/go-pacman/internal/replay"
	"github.com/amalg/go-pacman/internal/spectate"
	"github.com/amalg/go-pacman/internal/ui"
)

func main() {
	port := flag.Int("port", 9999, "Port to listen on")
	name := flag.String("name", "Host", "Your player name")
	configPath := flag.String("config", "", "Game file (default: built-in reference game)")
	seed := flag.Int64("seed", 0, "Override the random seed (0 keeps the configured one)")
	scoresPath := flag.String("leaderboard", "", "Leaderboard file (overrides the config)")
	gdataApp := flag.String("gdata", "", "Store the leaderboard in the app data dir of this app name")
	replayPath := flag.String("replay", "", "Record each round to a Parquet file")
	httpAddr := flag.String("http", "", "Serve the spectate API on this address (e.g. :8080)")
	headless := flag.Bool("headless", false, "Host without joining; the first client pilots")
	noBroadcast := flag.Bool("no-broadcast", false, "Do not advertise the session on the LAN")
	logFile := flag.String("log", "", "Log file path (default: discard server logs, stderr when headless)")
	flag.Parse()

	// Redirect log output before any server code runs.
	// Any stderr output will corrupt Bubbletea's terminal rendering.
	switch {
	case *logFile != "":
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	case !*headless:
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

	store, err := cfg.OpenStore()
	if err != nil {
		log.Printf("[MAIN] Leaderboard unavailable, keeping scores in memory: %v", err)
		store = leaderboard.NewGdataStore(nil)
	}

	hub := spectate.NewHub()
	hooks := []game.EngineHook{func(e *game.Engine, _ int) { hub.Attach(e) }}
	var rounds *replay.Rounds
	if *replayPath != "" {
		rounds = replay.NewRounds(*replayPath, board)
		hooks = append(hooks, rounds.Hook)
	}

	addr := fmt.Sprintf("0.0.0.0:%d", *port)
	server, err := network.NewServer(addr, board, gameConfig, store, hooks...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}

	var httpServer *http.Server
	if *httpAddr != "" {
		httpServer = &http.Server{
			Addr:              *httpAddr,
			Handler:           spectate.NewServer(board, hub, store).Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[HTTP] %v", err)
			}
		}()
	}

	var broadcaster *discovery.Broadcaster
	if !*noBroadcast {
		hostName, _ := os.Hostname()
		if hostName == "" {
			hostName = *name
		}
		gameAddr := fmt.Sprintf("%s:%d", localIP(), *port)
		broadcaster = discovery.NewBroadcaster(discovery.SessionInfo{HostName: hostName, GameAddr: gameAddr, HTTPAddr: *httpAddr})
		broadcaster.SetSource(func() discovery.SessionInfo {
			info := server.Info()
			return discovery.SessionInfo{
				HostName: hostName,
				Pilot:    info.Pilot,
				Watchers: info.Watchers,
				Status:   info.Status.String(),
				Score:    info.Score,
				GameAddr: gameAddr,
				HTTPAddr: *httpAddr,
			}
		})
		broadcaster.Start()
	}

	shutdown := func() {
		if broadcaster != nil {
			broadcaster.Stop()
		}
		if httpServer != nil {
			httpServer.Close()
		}
		server.Stop()
		if rounds != nil {
			if err := rounds.Close(); err != nil {
				log.Printf("[MAIN] Failed to write replay: %v", err)
			}
		}
	}

	fmt.Printf("ᗧ Pac-Man server on port %d\n", *port)
	printLocalAddrs(*port)
	if *httpAddr != "" {
		fmt.Printf("Spectate API on http://%s/api/state\n", *httpAddr)
	}

	// Handle OS signals for clean shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if *headless {
		fmt.Println("\nRunning headless. Press Ctrl+C to stop.")
		<-sigCh
		shutdown()
		return
	}

	// Connect as the host player (local loopback)
	client, err := network.NewClient(fmt.Sprintf("127.0.0.1:%d", *port), *name)
	if err != nil {
		shutdown()
		fmt.Fprintf(os.Stderr, "Failed to connect as host: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nConnected as %s (%s). Starting TUI...\n", *name, client.Role())

	// Small pause so the user can read the IPs
	time.Sleep(500 * time.Millisecond)

	go func() {
		<-sigCh
		client.Close()
		shutdown()
		os.Exit(0)
	}()

	model := ui.NewModel(client, ui.Options{
		Scores:     client,
		CanSubmit:  client.Role() == network.RolePilot,
		CanRestart: client.Role() == network.RolePilot,
		Role:       string(client.Role()),
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		client.Close()
		shutdown()
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	// Clean shutdown after TUI exits
	client.Close()
	shutdown()
}

// printLocalAddrs prints all local network addresses for players to connect to.
func printLocalAddrs(port int) {
	fmt.Println("Players can connect using:")
	fmt.Printf("  127.0.0.1:%d (this machine)\n", port)

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				fmt.Printf("  %s:%d\n", ipnet.IP.String(), port)
			}
		}
	}
}

// localIP picks the first non-loopback IPv4 address to advertise.
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	return "127.0.0.1"
}
