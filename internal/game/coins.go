package game

import "math/rand"

// Coin is a collectible worth Value points.
type Coin struct {
	Pos   Position `json:"pos"`
	Value int      `json:"value"`
}

// CoinField is the set of coins on the board.
// It is refilled to a fixed count whenever it runs empty.
type CoinField struct {
	board *Board
	rng   *rand.Rand
	count int
	value int
	coins []Coin
}

// NewCoinField creates a field and places count coins on random walkable cells.
func NewCoinField(b *Board, rng *rand.Rand, count, value int) *CoinField {
	f := &CoinField{board: b, rng: rng, count: count, value: value}
	f.populate()
	return f
}

// Coins returns a copy of the coins currently on the board.
func (f *CoinField) Coins() []Coin {
	out := make([]Coin, len(f.coins))
	copy(out, f.coins)
	return out
}

// Len returns the number of coins on the board.
func (f *CoinField) Len() int { return len(f.coins) }

// Set replaces the coins on the board. Used to stage specific layouts.
func (f *CoinField) Set(coins []Coin) {
	f.coins = append(f.coins[:0:0], coins...)
}

// Collect takes coins at pos and returns their total value.
// PickupFirst takes at most one coin. An emptied field is repopulated.
func (f *CoinField) Collect(pos Position, mode PickupPolicy) int {
	gained := 0
	remaining := f.coins[:0]
	taken := false
	for _, c := range f.coins {
		if c.Pos == pos && !(taken && mode == PickupFirst) {
			gained += c.Value
			taken = true
			continue
		}
		remaining = append(remaining, c)
	}
	f.coins = remaining

	if len(f.coins) == 0 {
		f.populate()
	}
	return gained
}

// populate places count fresh coins, rejection-sampling against walls.
func (f *CoinField) populate() {
	f.coins = make([]Coin, 0, f.count)
	for len(f.coins) < f.count {
		p := Position{X: f.rng.Intn(f.board.Cols()), Y: f.rng.Intn(f.board.Rows())}
		if f.board.IsWall(p) {
			continue
		}
		f.coins = append(f.coins, Coin{Pos: p, Value: f.value})
	}
}
