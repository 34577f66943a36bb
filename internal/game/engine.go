package game

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"
)

// EngineHook is called for every engine a session creates, before it runs.
// round counts from 1.
type EngineHook func(e *Engine, round int)

// Engine is the authoritative game loop. One tick moves the player, moves the
// ghosts, resolves ghost contact and coin pickup, then publishes a snapshot.
type Engine struct {
	Config GameConfig

	board  *Board
	player *Player
	ghosts []*Ghost
	coins  *CoinField
	status GameStatus
	ticks  uint64

	mu         sync.Mutex
	done       chan struct{}
	stopOnce   sync.Once
	notified   bool
	onTick     []func(Snapshot)
	onGameOver []func(score int)
}

// NewEngine creates a running game on board.
// Invalid configuration is rejected here so it can never surface mid-tick.
func NewEngine(board *Board, config GameConfig) (*Engine, error) {
	if board == nil {
		return nil, errors.New("nil board")
	}
	if err := validateConfig(board, config); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}

	rng := rand.New(rand.NewSource(config.Seed))

	ghosts := make([]*Ghost, 0, len(config.Ghosts))
	for i, spec := range config.Ghosts {
		// Each ghost draws from its own stream so adding a ghost does not
		// reshuffle the coins or the other ghosts.
		policy, err := newPolicy(spec, rand.New(rand.NewSource(config.Seed+int64(i)+1)))
		if err != nil {
			return nil, fmt.Errorf("ghost %d: %w", i, err)
		}
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", spec.Kind, i)
		}
		ghosts = append(ghosts, NewGhost(name, spec.Start, spec.Interval, policy))
	}

	return &Engine{
		Config: config,
		board:  board,
		player: NewPlayer(config.PlayerStart, config.PlayerInterval),
		ghosts: ghosts,
		coins:  NewCoinField(board, rng, config.NumCoins, config.CoinValue),
		status: StatusRunning,
		done:   make(chan struct{}),
	}, nil
}

func validateConfig(b *Board, c GameConfig) error {
	if b.IsWall(c.PlayerStart) {
		return fmt.Errorf("player start %v is not a walkable cell", c.PlayerStart)
	}
	if c.PlayerInterval < 1 {
		return fmt.Errorf("player interval must be at least 1, got %d", c.PlayerInterval)
	}
	for i, g := range c.Ghosts {
		if b.IsWall(g.Start) {
			return fmt.Errorf("ghost %d start %v is not a walkable cell", i, g.Start)
		}
		if g.Interval < 1 {
			return fmt.Errorf("ghost %d interval must be at least 1, got %d", i, g.Interval)
		}
	}
	if c.NumCoins < 1 {
		return fmt.Errorf("num coins must be at least 1, got %d", c.NumCoins)
	}
	switch c.Pickup {
	case PickupAll, PickupFirst:
	default:
		return fmt.Errorf("unknown pickup policy %q", c.Pickup)
	}
	switch c.Collision {
	case CollisionGameOver:
	case CollisionPenalty:
		if c.RevivalCost < 0 {
			return fmt.Errorf("revival cost must not be negative, got %d", c.RevivalCost)
		}
	default:
		return fmt.Errorf("unknown collision policy %q", c.Collision)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.TickInterval)
	}
	return nil
}

// Board returns the map the game is played on.
func (e *Engine) Board() *Board { return e.board }

// OnTick registers a callback invoked after every tick with a copy of the state.
// Renderers, network broadcast and replay recording subscribe here.
func (e *Engine) OnTick(fn func(Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = append(e.onTick, fn)
}

// OnGameOver registers a callback invoked once with the final score.
func (e *Engine) OnGameOver(fn func(score int)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onGameOver = append(e.onGameOver, fn)
}

// Run ticks the game at the configured interval.
// It blocks until the game is over or Stop() is called.
func (e *Engine) Run() {
	ticker := time.NewTicker(e.Config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			if snap := e.Step(); snap.Over {
				return
			}
		}
	}
}

// Stop halts the game loop. Safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.done) })
}

// SetInputDirection records the player's latest direction key.
// It may be called from any goroutine; the next tick consumes it.
func (e *Engine) SetInputDirection(d Direction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.player.SetInputDirection(d)
}

// Status returns the current game phase.
func (e *Engine) Status() GameStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Step processes one tick and returns the resulting snapshot.
// IMPORTANT: the state is copied while holding the lock, and the lock is
// released BEFORE callbacks run (a callback may call back into the engine).
func (e *Engine) Step() Snapshot {
	e.mu.Lock()

	if e.status == StatusRunning {
		e.ticks++
		target := e.advancePlayer()
		e.advanceGhosts(target)
		e.resolveGhostContact()
		if e.status == StatusRunning {
			e.collectCoins()
		}
	}

	snap := e.snapshotLocked()

	var gameOver []func(int)
	if snap.Over && !e.notified {
		e.notified = true
		gameOver = e.onGameOver
		log.Printf("[ENGINE] Game over at tick %d, score %d", snap.Tick, snap.Player.Score)
	}
	onTick := e.onTick

	e.mu.Unlock()

	for _, fn := range onTick {
		fn(snap)
	}
	for _, fn := range gameOver {
		fn(snap.Player.Score)
	}
	return snap
}

// advancePlayer moves the player and returns its new cell.
func (e *Engine) advancePlayer() Position {
	e.player.tick(e.board)
	return e.player.Pos
}

// advanceGhosts gives every ghost its tick in declaration order.
func (e *Engine) advanceGhosts(target Position) {
	for _, g := range e.ghosts {
		g.advance(e.board, target)
	}
}

// resolveGhostContact applies the collision policy to the first ghost that
// shares the player's cell.
func (e *Engine) resolveGhostContact() {
	for _, g := range e.ghosts {
		if g.Pos != e.player.Pos {
			continue
		}
		switch e.Config.Collision {
		case CollisionPenalty:
			e.player.AddScore(-e.Config.RevivalCost)
			if e.player.Score < 0 {
				e.status = StatusOver
				return
			}
			e.player.Pos = e.Config.PlayerStart
			e.player.Dir = DirNone
		default:
			e.status = StatusOver
		}
		return
	}
}

// collectCoins credits every coin picked up on the player's cell.
func (e *Engine) collectCoins() {
	if gained := e.coins.Collect(e.player.Pos, e.Config.Pickup); gained != 0 {
		e.player.AddScore(gained)
	}
}

// Snapshot returns a deep copy of the game state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// snapshotLocked copies the state.
// MUST be called while e.mu is held.
func (e *Engine) snapshotLocked() Snapshot {
	ghosts := make([]GhostView, len(e.ghosts))
	for i, g := range e.ghosts {
		ghosts[i] = GhostView{Name: g.Name, Kind: g.Kind(), Pos: g.Pos}
	}

	return Snapshot{
		Tick:   e.ticks,
		Status: e.status,
		Over:   e.status == StatusOver,
		Player: PlayerView{
			Pos:   e.player.Pos,
			Dir:   e.player.Dir,
			Score: e.player.Score,
		},
		Ghosts: ghosts,
		Coins:  e.coins.Coins(),
	}
}
