// Package config loads game settings from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/amalg/go-pacman/internal/game"
	"github.com/amalg/go-pacman/internal/leaderboard"
	"gopkg.in/yaml.v3"
)

// Leaderboard backends.
const (
	BackendFile  = "file"
	BackendGdata = "gdata"
)

// Config is the on-disk shape of a game file.
type Config struct {
	Tick        Duration          `yaml:"tick"`
	Map         []string          `yaml:"map"`
	Player      PlayerConfig      `yaml:"player"`
	Ghosts      []GhostConfig     `yaml:"ghosts"`
	Coins       CoinConfig        `yaml:"coins"`
	Collision   CollisionConfig   `yaml:"collision"`
	Seed        int64             `yaml:"seed"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
}

type PlayerConfig struct {
	Start    Point `yaml:"start"`
	Interval int   `yaml:"interval"`
}

type GhostConfig struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`
	Start     Point  `yaml:"start"`
	Interval  int    `yaml:"interval"`
	RunLength int    `yaml:"run_length"`
}

type CoinConfig struct {
	Count  int    `yaml:"count"`
	Value  int    `yaml:"value"`
	Pickup string `yaml:"pickup"`
}

type CollisionConfig struct {
	Policy      string `yaml:"policy"`
	RevivalCost int    `yaml:"revival_cost"`
}

type LeaderboardConfig struct {
	Backend string `yaml:"backend"` // file or gdata
	Path    string `yaml:"path"`    // file path, or app name for gdata
}

// Point is a board cell in YAML form.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Duration accepts Go duration strings such as "50ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Default mirrors game.DefaultConfig on the reference board.
func Default() *Config {
	gc := game.DefaultConfig()
	cfg := &Config{
		Tick: Duration{gc.TickInterval},
		Map:  game.ReferenceBoard().Lines(),
		Player: PlayerConfig{
			Start:    Point{X: gc.PlayerStart.X, Y: gc.PlayerStart.Y},
			Interval: gc.PlayerInterval,
		},
		Coins: CoinConfig{
			Count:  gc.NumCoins,
			Value:  gc.CoinValue,
			Pickup: string(gc.Pickup),
		},
		Collision: CollisionConfig{
			Policy:      string(gc.Collision),
			RevivalCost: gc.RevivalCost,
		},
		Seed: gc.Seed,
		Leaderboard: LeaderboardConfig{
			Backend: BackendFile,
			Path:    "leaderboard.txt",
		},
	}
	for _, g := range gc.Ghosts {
		cfg.Ghosts = append(cfg.Ghosts, GhostConfig{
			Name:      g.Name,
			Kind:      string(g.Kind),
			Start:     Point{X: g.Start.X, Y: g.Start.Y},
			Interval:  g.Interval,
			RunLength: g.RunLength,
		})
	}
	return cfg
}

// Load reads a YAML game file. Fields missing from the file keep their
// Default values; an explicit empty ghosts list means no ghosts.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Leaderboard.Backend {
	case BackendFile, BackendGdata:
	default:
		return fmt.Errorf("unknown leaderboard backend %q", cfg.Leaderboard.Backend)
	}
	if cfg.Leaderboard.Path == "" {
		return fmt.Errorf("leaderboard path cannot be empty")
	}
	for i, g := range cfg.Ghosts {
		switch game.GhostKind(g.Kind) {
		case game.GhostRandom, game.GhostWallHugger, game.GhostPathfinder:
		default:
			return fmt.Errorf("ghost %d: unknown kind %q", i, g.Kind)
		}
	}
	// Board and game rules are checked by the game package itself.
	_, _, err := cfg.Game()
	return err
}

// Game builds the board and the engine configuration.
func (c *Config) Game() (*game.Board, game.GameConfig, error) {
	board, err := game.ParseBoard(c.Map)
	if err != nil {
		return nil, game.GameConfig{}, fmt.Errorf("map: %w", err)
	}

	gc := game.GameConfig{
		TickInterval:   c.Tick.Duration,
		PlayerStart:    game.Position{X: c.Player.Start.X, Y: c.Player.Start.Y},
		PlayerInterval: c.Player.Interval,
		NumCoins:       c.Coins.Count,
		CoinValue:      c.Coins.Value,
		Pickup:         game.PickupPolicy(c.Coins.Pickup),
		Collision:      game.CollisionPolicy(c.Collision.Policy),
		RevivalCost:    c.Collision.RevivalCost,
		Seed:           c.Seed,
	}
	for _, g := range c.Ghosts {
		gc.Ghosts = append(gc.Ghosts, game.GhostSpec{
			Name:      g.Name,
			Kind:      game.GhostKind(g.Kind),
			Start:     game.Position{X: g.Start.X, Y: g.Start.Y},
			Interval:  g.Interval,
			RunLength: g.RunLength,
		})
	}

	// Constructing an engine is the authoritative check.
	if _, err := game.NewEngine(board, gc); err != nil {
		return nil, game.GameConfig{}, err
	}
	return board, gc, nil
}

// OpenStore opens the configured leaderboard backend.
func (c *Config) OpenStore() (leaderboard.Store, error) {
	switch c.Leaderboard.Backend {
	case BackendGdata:
		return leaderboard.OpenGdataStore(c.Leaderboard.Path)
	default:
		return leaderboard.NewFileStore(c.Leaderboard.Path), nil
	}
}
