package game

import (
	"fmt"
	"math/rand"
)

// Policy decides where a ghost goes on each of its movement steps.
// target is the player's current cell, passed in explicitly every step.
type Policy interface {
	Kind() GhostKind
	NextDirection(self Position, b *Board, target Position) Direction
}

// Ghost is an entity driven by a movement policy.
type Ghost struct {
	Entity
	Name   string
	Policy Policy
}

// NewGhost creates a ghost at start using the given policy.
func NewGhost(name string, start Position, interval int, p Policy) *Ghost {
	return &Ghost{
		Entity: Entity{Pos: start, Interval: interval},
		Name:   name,
		Policy: p,
	}
}

// Kind returns the tag of the ghost's policy.
func (g *Ghost) Kind() GhostKind { return g.Policy.Kind() }

// advance runs one tick for the ghost: the policy is consulted only on
// movement steps, every other tick just advances the cadence counter.
func (g *Ghost) advance(b *Board, target Position) {
	if !g.ready() {
		return
	}
	dir := g.Policy.NextDirection(g.Pos, b, target)
	if dir == DirNone {
		return
	}
	g.Move(b, dir)
}

// newPolicy builds the policy for a ghost spec.
func newPolicy(spec GhostSpec, rng *rand.Rand) (Policy, error) {
	switch spec.Kind {
	case GhostRandom:
		return NewRandomPolicy(rng, spec.RunLength), nil
	case GhostWallHugger:
		return &WallHuggerPolicy{}, nil
	case GhostPathfinder:
		return &PathFollowingPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown ghost kind %q", spec.Kind)
	}
}

// --- Random ---

// RandomPolicy rolls a uniformly random direction and keeps it for RunLength
// further steps before rolling again. Hitting a wall does not cut the run short.
type RandomPolicy struct {
	rng       *rand.Rand
	runLength int
	remaining int
	dir       Direction
}

// NewRandomPolicy returns a random-walk policy drawing from rng.
// Passing a seeded rng makes the walk reproducible.
func NewRandomPolicy(rng *rand.Rand, runLength int) *RandomPolicy {
	if runLength < 0 {
		runLength = 0
	}
	return &RandomPolicy{rng: rng, runLength: runLength}
}

func (p *RandomPolicy) Kind() GhostKind { return GhostRandom }

func (p *RandomPolicy) NextDirection(Position, *Board, Position) Direction {
	if p.remaining > 0 {
		p.remaining--
		return p.dir
	}
	p.dir = Directions[p.rng.Intn(len(Directions))]
	p.remaining = p.runLength
	return p.dir
}

// --- Wall hugger ---

// WallHuggerPolicy keeps going straight until it would hit something, then
// takes the first open direction (Up, Right, Down, Left), avoiding an
// immediate reversal when there is any other choice.
type WallHuggerPolicy struct {
	last Direction
}

func (p *WallHuggerPolicy) Kind() GhostKind { return GhostWallHugger }

func (p *WallHuggerPolicy) NextDirection(self Position, b *Board, _ Position) Direction {
	open := make([]Direction, 0, len(Directions))
	for _, d := range Directions {
		if !blocked(b, self, d) {
			open = append(open, d)
		}
	}
	if len(open) == 0 {
		return DirNone
	}

	if p.last != DirNone && !blocked(b, self, p.last) {
		return p.last
	}

	dir := open[0]
	if p.last != DirNone && dir == p.last.Reverse() && len(open) > 1 {
		dir = open[1]
	}
	p.last = dir
	return dir
}

// --- Path following ---

// PathFollowingPolicy chases the target along a shortest path.
// The path is recomputed on every step because the target keeps moving.
type PathFollowingPolicy struct {
	route []Position
}

func (p *PathFollowingPolicy) Kind() GhostKind { return GhostPathfinder }

func (p *PathFollowingPolicy) NextDirection(self Position, b *Board, target Position) Direction {
	path := FindPath(b, self, target)
	if len(path) < 2 {
		p.route = nil
		return DirNone
	}
	// path[0] is the ghost's own cell.
	next := path[1]
	p.route = path[2:]
	return directionOf(next.Sub(self))
}

// Route returns the cells left to walk after the most recent step.
func (p *PathFollowingPolicy) Route() []Position {
	out := make([]Position, len(p.route))
	copy(out, p.route)
	return out
}
