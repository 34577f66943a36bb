package ui

import (
	"errors"
	"log"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/go-pacman/internal/game"
	"github.com/amalg/go-pacman/internal/leaderboard"
)

const maxNameLength = 16

type screen int

const (
	screenPlaying screen = iota
	screenNameEntry
	screenLeaderboard
)

// snapshotMsg carries a new game state from the session.
type snapshotMsg game.Snapshot

// sessionClosedMsg reports that the snapshot stream ended.
type sessionClosedMsg struct{}

type submitResultMsg struct {
	name string
	err  error
}

type leaderboardMsg struct {
	entries []leaderboard.Entry
	err     error
}

// Options configure a Model.
type Options struct {
	// Scores may be nil, in which case the game-over screen has no leaderboard.
	Scores Scoreboard
	// CanSubmit enables name entry after game over.
	CanSubmit bool
	// CanRestart lets Enter start the next round.
	CanRestart bool
	// Role is shown in the HUD for networked play.
	Role string
}

// Model is the Bubbletea model for the game.
type Model struct {
	session Session
	opts    Options

	snap     *game.Snapshot
	screen   screen
	name     string
	saved    string
	entries  []leaderboard.Entry
	message  string
	err      error
	quitting bool
}

// NewModel creates a new TUI model for session.
func NewModel(session Session, opts Options) Model {
	return Model{session: session, opts: opts}
}

// Init starts listening for snapshots.
func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.session)
}

// Update handles incoming messages (key presses, snapshots, async results).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		return m.handleSnapshot(game.Snapshot(msg))

	case submitResultMsg:
		return m.handleSubmitResult(msg)

	case leaderboardMsg:
		if msg.err != nil {
			log.Printf("[UI] Leaderboard load failed: %v", msg.err)
			m.message = "Leaderboard unavailable"
		}
		m.entries = msg.entries
		return m, nil

	case sessionClosedMsg:
		m.err = errors.New("game session closed")
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleSnapshot(snap game.Snapshot) (tea.Model, tea.Cmd) {
	wasOver := m.snap != nil && m.snap.Over
	m.snap = &snap
	next := waitForSnapshot(m.session)

	switch {
	case snap.Over && !wasOver && m.screen == screenPlaying:
		return m.enterGameOver(next)
	case !snap.Over && snap.Tick > 0 && m.screen != screenPlaying:
		// A new round started (locally or by the pilot).
		m.screen = screenPlaying
		m.message = ""
	}
	return m, next
}

func (m Model) enterGameOver(next tea.Cmd) (tea.Model, tea.Cmd) {
	m.message = ""
	if m.opts.Scores != nil && m.opts.CanSubmit {
		m.screen = screenNameEntry
		m.name = ""
		return m, next
	}
	m.screen = screenLeaderboard
	return m, tea.Batch(next, m.loadLeaderboard())
}

func (m Model) handleSubmitResult(msg submitResultMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err == nil:
		m.saved = msg.name
		m.message = ""
	case errors.Is(msg.err, leaderboard.ErrNameTaken):
		m.message = "Name already taken, pick another"
		return m, nil
	case errors.Is(msg.err, leaderboard.ErrInvalidName):
		m.message = "That name cannot be saved"
		return m, nil
	default:
		// Store failures never end the game.
		log.Printf("[UI] Leaderboard submit failed: %v", msg.err)
		m.message = "Could not save score"
	}
	m.screen = screenLeaderboard
	return m, m.loadLeaderboard()
}

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	board := RenderBoard(m.session.Board(), m.snap)

	var side string
	switch m.screen {
	case screenNameEntry:
		side = RenderNameEntry(m.score(), m.name, m.message)
	case screenLeaderboard:
		side = RenderLeaderboard(m.entries, m.saved, m.message, m.opts.CanRestart)
	default:
		side = RenderHUD(m.snap, HUD{Role: m.opts.Role, Message: m.message})
	}

	// Layout: board on the left, panel on the right
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		board,
		"  ",
		side,
	) + "\n"
}

func (m Model) score() int {
	if m.snap == nil {
		return 0
	}
	return m.snap.Player.Score
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}
	if m.screen == screenNameEntry {
		return m.handleNameKey(msg)
	}

	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit

	case "up", "w":
		m.steer(game.DirUp)
	case "down", "s":
		m.steer(game.DirDown)
	case "left", "a":
		m.steer(game.DirLeft)
	case "right", "d":
		m.steer(game.DirRight)
	case "enter":
		return m.start()
	}

	return m, nil
}

func (m Model) steer(d game.Direction) {
	if m.screen != screenPlaying {
		return
	}
	if err := m.session.SetDirection(d); err != nil {
		log.Printf("[UI] Input %s dropped: %v", d, err)
	}
}

func (m Model) start() (tea.Model, tea.Cmd) {
	idle := m.snap == nil || (m.snap.Tick == 0 && !m.snap.Over)
	if !idle && m.screen != screenLeaderboard {
		return m, nil
	}
	if m.screen == screenLeaderboard && !m.opts.CanRestart {
		return m, nil
	}
	if err := m.session.Start(); err != nil {
		if !errors.Is(err, ErrRoundRunning) {
			m.message = err.Error()
		}
		return m, nil
	}
	m.message = ""
	m.saved = ""
	return m, nil
}

func (m Model) handleNameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.screen = screenLeaderboard
		m.message = ""
		return m, m.loadLeaderboard()
	case tea.KeyEnter:
		if err := leaderboard.ValidateName(m.name); err != nil {
			m.message = "Enter a name first"
			return m, nil
		}
		return m, submit(m.opts.Scores, m.name, m.score())
	case tea.KeyBackspace:
		if r := []rune(m.name); len(r) > 0 {
			m.name = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		if m.name != "" && len([]rune(m.name)) < maxNameLength {
			m.name += " "
		}
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if len([]rune(m.name)) >= maxNameLength {
				break
			}
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
				m.name += string(r)
			}
		}
	}
	return m, nil
}

func (m Model) loadLeaderboard() tea.Cmd {
	scores := m.opts.Scores
	if scores == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := scores.Top(leaderboard.DefaultTop)
		return leaderboardMsg{entries: entries, err: err}
	}
}

func submit(scores Scoreboard, name string, score int) tea.Cmd {
	return func() tea.Msg {
		err := scores.Submit(trimName(name), score)
		return submitResultMsg{name: trimName(name), err: err}
	}
}

// trimName drops a trailing space typed before Enter.
func trimName(name string) string {
	r := []rune(name)
	for len(r) > 0 && r[len(r)-1] == ' ' {
		r = r[:len(r)-1]
	}
	return string(r)
}

// waitForSnapshot returns a Cmd that waits for the next snapshot.
func waitForSnapshot(session Session) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-session.Snapshots()
		if !ok {
			return sessionClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

