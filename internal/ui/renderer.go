package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/go-pacman/internal/game"
	"github.com/amalg/go-pacman/internal/leaderboard"
)

const background = lipgloss.Color("#10101e")

// Color palette
var (
	wallStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1f3fbf")).
			Foreground(lipgloss.Color("#2f5fff"))

	pathStyle = lipgloss.NewStyle().
			Background(background).
			Foreground(background)

	coinStyle = lipgloss.NewStyle().
			Background(background).
			Foreground(lipgloss.Color("#ffd700")).
			Bold(true)

	playerStyle = lipgloss.NewStyle().
			Background(background).
			Foreground(lipgloss.Color("#ffff00")).
			Bold(true)

	// One color per ghost policy
	ghostColors = map[game.GhostKind]lipgloss.Color{
		game.GhostWallHugger: lipgloss.Color("#ffb852"), // Orange
		game.GhostPathfinder: lipgloss.Color("#ff3030"), // Red
		game.GhostRandom:     lipgloss.Color("#ffb8ff"), // Pink
	}

	// HUD styles
	hudBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffff00")).
			Bold(true)

	lobbyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#44aaff")).
			Bold(true)

	gameOverStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ad2121")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff88")).
			Bold(true)
)

func ghostStyle(kind game.GhostKind) lipgloss.Style {
	color, ok := ghostColors[kind]
	if !ok {
		color = lipgloss.Color("#ffffff")
	}
	return lipgloss.NewStyle().Background(background).Foreground(color).Bold(true)
}

// playerGlyph points the mouth the way the player is heading.
func playerGlyph(dir game.Direction) string {
	switch dir {
	case game.DirUp:
		return "ᗢ "
	case game.DirDown:
		return "ᗣ "
	case game.DirLeft:
		return "ᗧ "
	default:
		return "ᗤ "
	}
}

// RenderBoard draws the map with the snapshot on top of it.
// Each cell is 2 characters wide for a square-ish appearance.
func RenderBoard(board *game.Board, snap *game.Snapshot) string {
	if board == nil {
		return "Waiting for game state..."
	}

	coinSet := make(map[game.Position]bool)
	ghostSet := make(map[game.Position]game.GhostKind)
	if snap != nil {
		for _, c := range snap.Coins {
			coinSet[c.Pos] = true
		}
		// First ghost listed wins a shared cell.
		for i := len(snap.Ghosts) - 1; i >= 0; i-- {
			ghostSet[snap.Ghosts[i].Pos] = snap.Ghosts[i].Kind
		}
	}

	rows := make([]string, board.Rows())
	var sb strings.Builder
	for y := 0; y < board.Rows(); y++ {
		sb.Reset()
		for x := 0; x < board.Cols(); x++ {
			sb.WriteString(renderCell(board, game.Position{X: x, Y: y}, snap, coinSet, ghostSet))
		}
		rows[y] = sb.String()
	}
	return strings.Join(rows, "\n")
}

// renderCell renders a single board cell.
// Priority: Player > Ghost > Coin > Tile
func renderCell(
	board *game.Board,
	pos game.Position,
	snap *game.Snapshot,
	coinSet map[game.Position]bool,
	ghostSet map[game.Position]game.GhostKind,
) string {
	if snap != nil && snap.Player.Pos == pos {
		if snap.Over {
			return gameOverStyle.Background(background).Render("✖ ")
		}
		return playerStyle.Render(playerGlyph(snap.Player.Dir))
	}
	if kind, ok := ghostSet[pos]; ok {
		return ghostStyle(kind).Render("ᗣ ")
	}
	if coinSet[pos] {
		return coinStyle.Render("● ")
	}
	if board.IsWall(pos) {
		return wallStyle.Render("██")
	}
	return pathStyle.Render("  ")
}

// HUD carries what the side panel needs besides the snapshot.
type HUD struct {
	Role    string // "", "pilot" or "spectator"
	Message string
}

// RenderHUD renders the heads-up display.
func RenderHUD(snap *game.Snapshot, hud HUD) string {
	var parts []string

	parts = append(parts, titleStyle.Render("ᗧ PAC-MAN"))
	parts = append(parts, "")

	switch {
	case snap == nil || snap.Tick == 0 && !snap.Over:
		parts = append(parts, lobbyStyle.Render("Waiting to start"))
		if hud.Role != "spectator" {
			parts = append(parts, "   Press [Enter] to start!")
		}
	case snap.Over:
		parts = append(parts, gameOverStyle.Render("GAME OVER"))
	default:
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88")).Render("Running"))
	}
	parts = append(parts, "")

	if snap != nil {
		parts = append(parts, fmt.Sprintf("Score: %s", titleStyle.Render(fmt.Sprint(snap.Player.Score))))
		parts = append(parts, dimStyle.Render(fmt.Sprintf("Tick:  %d", snap.Tick)))
		parts = append(parts, "")
		parts = append(parts, dimStyle.Render("Ghosts:"))
		for _, g := range snap.Ghosts {
			parts = append(parts, fmt.Sprintf("  %s %s %s",
				ghostStyle(g.Kind).Render("ᗣ"),
				g.Name,
				dimStyle.Render(string(g.Kind)),
			))
		}
		parts = append(parts, "")
	}

	if hud.Role != "" {
		parts = append(parts, dimStyle.Render("You are the "+hud.Role))
	}
	if hud.Message != "" {
		parts = append(parts, errorStyle.Render(hud.Message))
	}

	parts = append(parts, hintStyle.Render("WASD/Arrows: Move | Q: Quit"))

	return hudBorderStyle.Render(strings.Join(parts, "\n"))
}

// RenderNameEntry renders the prompt shown after a round ends.
func RenderNameEntry(score int, name, message string) string {
	parts := []string{
		gameOverStyle.Render("GAME OVER"),
		"",
		fmt.Sprintf("Final score: %s", titleStyle.Render(fmt.Sprint(score))),
		"",
		"Enter your name: " + highlightStyle.Render(name) + "▏",
	}
	if message != "" {
		parts = append(parts, errorStyle.Render(message))
	}
	parts = append(parts, "", hintStyle.Render("Enter: Save | Esc: Skip"))
	return hudBorderStyle.Render(strings.Join(parts, "\n"))
}

// RenderLeaderboard renders the top entries, marking the one named highlight.
func RenderLeaderboard(entries []leaderboard.Entry, highlight, message string, canRestart bool) string {
	parts := []string{gameOverStyle.Render("GAME OVER"), ""}
	if len(entries) == 0 {
		parts = append(parts, dimStyle.Render("No scores yet"))
	}
	for i, e := range entries {
		line := fmt.Sprintf("%d. %s", i+1, leaderboard.FormatLine(e))
		if e.Name == highlight {
			line = highlightStyle.Render(line)
		}
		parts = append(parts, line)
	}
	if message != "" {
		parts = append(parts, "", errorStyle.Render(message))
	}
	parts = append(parts, "")
	if canRestart {
		parts = append(parts, hintStyle.Render("Enter: Play again | Q: Quit"))
	} else {
		parts = append(parts, hintStyle.Render("Waiting for the pilot | Q: Quit"))
	}
	return hudBorderStyle.Render(strings.Join(parts, "\n"))
}
