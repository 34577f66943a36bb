package game

import (
	"fmt"
	"time"
)

// Cell represents the kind of a tile on the game board.
type Cell uint8

const (
	Path Cell = iota // Walkable
	Wall             // Blocks every entity
)

// Direction represents a movement direction.
// The non-None values are declared in the order ghosts and the path planner
// try them: Up, Right, Down, Left.
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirRight
	DirDown
	DirLeft
)

// Directions lists the four movement directions in tie-break order.
var Directions = [4]Direction{DirUp, DirRight, DirDown, DirLeft}

// Delta returns the unit vector of the direction.
func (d Direction) Delta() Position {
	switch d {
	case DirUp:
		return Position{X: 0, Y: -1}
	case DirRight:
		return Position{X: 1, Y: 0}
	case DirDown:
		return Position{X: 0, Y: 1}
	case DirLeft:
		return Position{X: -1, Y: 0}
	default:
		return Position{}
	}
}

// Reverse returns the opposite direction. DirNone stays DirNone.
func (d Direction) Reverse() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirRight:
		return DirLeft
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	default:
		return DirNone
	}
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirRight:
		return "right"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	default:
		return "none"
	}
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "none", "":
		return DirNone, nil
	case "up":
		return DirUp, nil
	case "right":
		return DirRight, nil
	case "down":
		return DirDown, nil
	case "left":
		return DirLeft, nil
	}
	return DirNone, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// directionOf maps a unit delta back to its direction.
func directionOf(delta Position) Direction {
	for _, d := range Directions {
		if d.Delta() == delta {
			return d
		}
	}
	return DirNone
}

// Position represents a cell coordinate on the board (X = column, Y = row).
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p translated by delta.
func (p Position) Add(delta Position) Position {
	return Position{X: p.X + delta.X, Y: p.Y + delta.Y}
}

// Sub returns p minus other.
func (p Position) Sub(other Position) Position {
	return Position{X: p.X - other.X, Y: p.Y - other.Y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// GhostKind tags the movement policy of a ghost.
type GhostKind string

const (
	GhostRandom     GhostKind = "random"
	GhostWallHugger GhostKind = "wallhugger"
	GhostPathfinder GhostKind = "pathfinder"
)

// CollisionPolicy decides what happens when a ghost reaches the player.
type CollisionPolicy string

const (
	// CollisionGameOver ends the game on the first contact.
	CollisionGameOver CollisionPolicy = "gameover"
	// CollisionPenalty subtracts RevivalCost and respawns the player at its
	// start cell. The game ends only when the score drops below zero.
	CollisionPenalty CollisionPolicy = "penalty"
)

// PickupPolicy decides how many coins sharing the player's cell are taken per tick.
type PickupPolicy string

const (
	PickupAll   PickupPolicy = "all"
	PickupFirst PickupPolicy = "first"
)

// GameStatus represents the current game phase.
type GameStatus int

const (
	StatusRunning GameStatus = iota // Ticking
	StatusOver                      // Terminal, no way back
)

func (s GameStatus) String() string {
	if s == StatusOver {
		return "over"
	}
	return "running"
}

func (s GameStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *GameStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "running":
		*s = StatusRunning
	case "over":
		*s = StatusOver
	default:
		return fmt.Errorf("unknown game status %q", text)
	}
	return nil
}

// GhostSpec describes one ghost at game start.
type GhostSpec struct {
	Name     string    `json:"name"`
	Kind     GhostKind `json:"kind"`
	Start    Position  `json:"start"`
	Interval int       `json:"interval"` // Ticks between movement steps
	// RunLength is how many extra steps a random ghost keeps its rolled direction.
	RunLength int `json:"run_length,omitempty"`
}

// GameConfig holds configurable parameters for a game session.
type GameConfig struct {
	TickInterval   time.Duration   `json:"tick_interval"`
	PlayerStart    Position        `json:"player_start"`
	PlayerInterval int             `json:"player_interval"`
	Ghosts         []GhostSpec     `json:"ghosts"`
	NumCoins       int             `json:"num_coins"`
	CoinValue      int             `json:"coin_value"`
	Pickup         PickupPolicy    `json:"pickup"`
	Collision      CollisionPolicy `json:"collision"`
	RevivalCost    int             `json:"revival_cost"`
	Seed           int64           `json:"seed"`
}

// DefaultConfig returns the reference game configuration for ReferenceBoard.
// Movement intervals are expressed in ticks of TickInterval.
func DefaultConfig() GameConfig {
	return GameConfig{
		TickInterval:   50 * time.Millisecond,
		PlayerStart:    Position{X: 0, Y: 0},
		PlayerInterval: 2,
		Ghosts: []GhostSpec{
			{Name: "clyde", Kind: GhostWallHugger, Start: Position{X: 4, Y: 4}, Interval: 4},
			{Name: "sue", Kind: GhostWallHugger, Start: Position{X: 8, Y: 8}, Interval: 4},
			{Name: "blinky", Kind: GhostPathfinder, Start: Position{X: 8, Y: 8}, Interval: 4},
			{Name: "pinky", Kind: GhostRandom, Start: Position{X: 8, Y: 8}, Interval: 2, RunLength: 3},
		},
		NumCoins:    5,
		CoinValue:   100,
		Pickup:      PickupAll,
		Collision:   CollisionGameOver,
		RevivalCost: 500,
		Seed:        1,
	}
}

// PlayerView is the renderer-facing view of the player.
type PlayerView struct {
	Pos   Position  `json:"pos"`
	Dir   Direction `json:"dir"`
	Score int       `json:"score"`
}

// GhostView is the renderer-facing view of a ghost.
type GhostView struct {
	Name string    `json:"name"`
	Kind GhostKind `json:"kind"`
	Pos  Position  `json:"pos"`
}

// Snapshot is an immutable copy of the game state taken at the end of a tick.
type Snapshot struct {
	Tick   uint64      `json:"tick"`
	Status GameStatus  `json:"status"`
	Over   bool        `json:"over"`
	Player PlayerView  `json:"player"`
	Ghosts []GhostView `json:"ghosts"`
	Coins  []Coin      `json:"coins"`
}
