package game

import (
	"math/rand"
	"testing"
)

func TestWallHuggerNeverEntersWall(t *testing.T) {
	board := ReferenceBoard()
	starts := []Position{{X: 4, Y: 4}, {X: 8, Y: 8}, {X: 0, Y: 0}, {X: 14, Y: 13}}

	for _, start := range starts {
		ghost := NewGhost("hugger", start, 1, &WallHuggerPolicy{})
		for i := 0; i < 500; i++ {
			dir := ghost.Policy.NextDirection(ghost.Pos, board, Position{})
			if dir == DirNone {
				t.Fatalf("from %v: wall hugger got stuck at %v", start, ghost.Pos)
			}
			if blocked(board, ghost.Pos, dir) {
				t.Fatalf("from %v: chose %v into a wall at %v", start, dir, ghost.Pos)
			}
			ghost.Move(board, dir)
			if board.IsWall(ghost.Pos) {
				t.Fatalf("from %v: ghost ended on wall %v", start, ghost.Pos)
			}
		}
	}
}

func TestWallHuggerFirstMove(t *testing.T) {
	// From the top-left corner Up is blocked, so Right is the first open direction.
	board := mustBoard(t, "...", "...")
	p := &WallHuggerPolicy{}
	if got := p.NextDirection(Position{X: 0, Y: 0}, board, Position{}); got != DirRight {
		t.Fatalf("first move = %v, want right", got)
	}
}

func TestWallHuggerAvoidsReversal(t *testing.T) {
	// Heading down into the bottom wall from (1,1): open directions are
	// Up, Right, Left. Up is the reversal, so the ghost takes Right.
	board := mustBoard(t, "...", "...", "###")
	p := &WallHuggerPolicy{last: DirDown}
	if got := p.NextDirection(Position{X: 1, Y: 1}, board, Position{}); got != DirRight {
		t.Fatalf("got %v, want right", got)
	}
	if p.last != DirRight {
		t.Fatalf("last move not updated: %v", p.last)
	}
}

func TestWallHuggerKeepsStraight(t *testing.T) {
	board := mustBoard(t, "...", "...", "...")
	p := &WallHuggerPolicy{last: DirLeft}
	if got := p.NextDirection(Position{X: 2, Y: 1}, board, Position{}); got != DirLeft {
		t.Fatalf("open corridor ahead, got %v", got)
	}
}

func TestWallHuggerReversesInDeadEnd(t *testing.T) {
	board := mustBoard(t, "..#")
	p := &WallHuggerPolicy{last: DirRight}
	if got := p.NextDirection(Position{X: 1, Y: 0}, board, Position{}); got != DirLeft {
		t.Fatalf("only way out is back, got %v", got)
	}
}

func TestWallHuggerEnclosed(t *testing.T) {
	board := mustBoard(t, "###", "#.#", "###")
	p := &WallHuggerPolicy{}
	if got := p.NextDirection(Position{X: 1, Y: 1}, board, Position{}); got != DirNone {
		t.Fatalf("no open direction should yield none, got %v", got)
	}
}

func TestRandomPolicyCommitsToRun(t *testing.T) {
	p := NewRandomPolicy(rand.New(rand.NewSource(7)), 3)

	var dirs []Direction
	for i := 0; i < 12; i++ {
		dirs = append(dirs, p.NextDirection(Position{}, nil, Position{}))
	}
	for run := 0; run < 3; run++ {
		first := dirs[run*4]
		if first == DirNone {
			t.Fatalf("run %d rolled none", run)
		}
		for i := 1; i < 4; i++ {
			if dirs[run*4+i] != first {
				t.Fatalf("run %d changed direction mid-run: %v", run, dirs[run*4:run*4+4])
			}
		}
	}
}

func TestRandomPolicyReproducible(t *testing.T) {
	a := NewRandomPolicy(rand.New(rand.NewSource(99)), 3)
	b := NewRandomPolicy(rand.New(rand.NewSource(99)), 3)
	for i := 0; i < 100; i++ {
		if da, db := a.NextDirection(Position{}, nil, Position{}), b.NextDirection(Position{}, nil, Position{}); da != db {
			t.Fatalf("step %d: %v != %v", i, da, db)
		}
	}
}

func TestRandomGhostWallDoesNotResetRun(t *testing.T) {
	board := mustBoard(t, "...")
	// On a one-row board most rolls run into the edge; the run must survive that.
	policy := NewRandomPolicy(rand.New(rand.NewSource(3)), 3)
	ghost := NewGhost("pinky", Position{X: 1, Y: 0}, 1, policy)

	ghost.advance(board, Position{})
	dir := ghost.Dir
	for i := 0; i < 3; i++ {
		ghost.advance(board, Position{})
		if ghost.Dir != dir {
			t.Fatalf("step %d: direction changed from %v to %v", i, dir, ghost.Dir)
		}
		if board.IsWall(ghost.Pos) {
			t.Fatalf("ghost left the board: %v", ghost.Pos)
		}
	}
}

func TestPathFollowingRoute(t *testing.T) {
	board := mustBoard(t, ".....")
	p := &PathFollowingPolicy{}

	dir := p.NextDirection(Position{X: 0, Y: 0}, board, Position{X: 4, Y: 0})
	if dir != DirRight {
		t.Fatalf("dir = %v, want right", dir)
	}
	route := p.Route()
	if len(route) != 3 || route[len(route)-1] != (Position{X: 4, Y: 0}) {
		t.Fatalf("unexpected remaining route %v", route)
	}

	if got := p.NextDirection(Position{X: 4, Y: 0}, board, Position{X: 4, Y: 0}); got != DirNone {
		t.Fatalf("ghost on target should stay, got %v", got)
	}
}

func TestPathFollowingUnreachableStays(t *testing.T) {
	board := mustBoard(t, ".#.")
	ghost := NewGhost("blinky", Position{X: 0, Y: 0}, 1, &PathFollowingPolicy{})
	ghost.advance(board, Position{X: 2, Y: 0})
	if ghost.Pos != (Position{X: 0, Y: 0}) {
		t.Fatalf("ghost should not move without a path, got %v", ghost.Pos)
	}
}
