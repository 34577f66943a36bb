package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amalg/go-pacman/internal/discovery"
	"github.com/amalg/go-pacman/internal/network"
	"github.com/amalg/go-pacman/internal/ui"
)

func main() {
	addr := flag.String("addr", "", "Server address (e.g., 192.168.1.5:9999)")
	name := flag.String("name", "Player", "Your player name")
	browse := flag.Bool("browse", false, "List sessions on the LAN and exit")
	wait := flag.Duration("wait", 3*time.Second, "How long to listen for sessions with -browse")
	flag.Parse()

	if *browse {
		if err := browseSessions(*wait); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *addr == "" {
		fmt.Fprintln(os.Stderr, "Usage: client --addr <host:port> [--name <name>]")
		fmt.Fprintln(os.Stderr, "       client --browse")
		fmt.Fprintln(os.Stderr, "  Example: client --addr 192.168.1.5:9999 --name Alice")
		os.Exit(1)
	}

	fmt.Printf("Connecting to %s as %s...\n", *addr, *name)

	client, err := network.NewClient(*addr, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Printf("Connected! Player ID: %s, role: %s\n", client.PlayerID(), client.Role())
	fmt.Println("Starting TUI...")
	time.Sleep(500 * time.Millisecond)

	pilot := client.Role() == network.RolePilot
	model := ui.NewModel(client, ui.Options{
		Scores:     client,
		CanSubmit:  pilot,
		CanRestart: pilot,
		Role:       string(client.Role()),
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func browseSessions(wait time.Duration) error {
	l := discovery.NewListener()
	if err := l.Start(); err != nil {
		return err
	}
	defer l.Stop()

	fmt.Printf("Listening for sessions for %s...\n", wait)
	time.Sleep(wait)

	sessions := l.Sessions()
	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}
	for _, s := range sessions {
		seat := "pilot: " + s.Pilot
		if s.Open() {
			seat = "seat open"
		}
		fmt.Printf("  %-21s %-16s %-8s score %-6d %s, %d watching\n",
			s.GameAddr, s.HostName, s.Status, s.Score, seat, s.Watchers)
		if s.HTTPAddr != "" {
			fmt.Printf("  %21s spectate: %s\n", "", s.HTTPAddr)
		}
	}
	return nil
}
