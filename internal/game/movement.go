package game

// Entity holds the movement state shared by the player and every ghost.
type Entity struct {
	Pos      Position
	Dir      Direction
	Interval int // Ticks between movement steps, lower is faster
	counter  int
}

// ready advances the cadence counter and reports whether this tick is a movement step.
func (e *Entity) ready() bool {
	e.counter++
	if e.counter < e.Interval {
		return false
	}
	e.counter = 0
	return true
}

// Move tentatively applies dir and resolves any wall collision.
// It reports whether the move was clamped or reverted.
func (e *Entity) Move(b *Board, dir Direction) bool {
	prior := e.Pos
	e.Dir = dir
	e.Pos = e.Pos.Add(dir.Delta())
	return e.resolveWallCollision(b, prior, dir)
}

// resolveWallCollision pulls the entity back onto a walkable cell.
//
// Order matters and is fixed: clamp the column, clamp the row, then step back
// by the move delta if the cell is a wall. A position that is still invalid
// after that falls back to prior.
func (e *Entity) resolveWallCollision(b *Board, prior Position, dir Direction) bool {
	collided := false

	if e.Pos.X < 0 {
		e.Pos.X = 0
		collided = true
	} else if e.Pos.X >= b.Cols() {
		e.Pos.X = b.Cols() - 1
		collided = true
	}

	if e.Pos.Y < 0 {
		e.Pos.Y = 0
		collided = true
	} else if e.Pos.Y >= b.Rows() {
		e.Pos.Y = b.Rows() - 1
		collided = true
	}

	if b.IsWall(e.Pos) {
		e.Pos = e.Pos.Sub(dir.Delta())
		collided = true
	}

	if b.IsWall(e.Pos) {
		e.Pos = prior
	}
	return collided
}

// blocked reports whether moving one step from p in dir would leave the
// walkable area.
func blocked(b *Board, p Position, dir Direction) bool {
	return b.IsWall(p.Add(dir.Delta()))
}
