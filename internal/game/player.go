package game

// Player is the entity steered by keyboard input. It owns the score.
type Player struct {
	Entity
	Score   int
	pending Direction
}

// NewPlayer creates a player at start with a zero score.
func NewPlayer(start Position, interval int) *Player {
	return &Player{Entity: Entity{Pos: start, Interval: interval}}
}

// SetInputDirection replaces the pending direction. The last call before a
// tick wins; the direction is kept until the next call.
func (p *Player) SetInputDirection(d Direction) {
	p.pending = d
}

// PendingDirection returns the direction the player will try next.
func (p *Player) PendingDirection() Direction { return p.pending }

// AddScore adjusts the score by delta, which may be negative.
func (p *Player) AddScore(delta int) {
	p.Score += delta
}

// tick moves the player one cell in the pending direction on movement steps.
func (p *Player) tick(b *Board) {
	if !p.ready() {
		return
	}
	if p.pending == DirNone {
		p.Dir = DirNone
		return
	}
	p.Move(b, p.pending)
}
