package game

import (
	"errors"
	"fmt"
	"strings"
)

// referenceLayout is the 15x15 map the game ships with.
var referenceLayout = []string{
	"...............",
	".......#.......",
	"..#....#.#.....",
	"..#....#.#..#..",
	"..#....#.#..#..",
	"..#....#.#..#..",
	".......#.......",
	".#############.",
	".......#.......",
	"..#..#.#.#.....",
	"..#..#.#.#.....",
	"..#..#.#.#.....",
	"..#..#.#.#.####",
	".......#.......",
	"...............",
}

// Board is the immutable tile grid shared by every entity.
// It is never mutated after construction.
type Board struct {
	rows  int
	cols  int
	cells []Cell
}

// NewBoard builds a board from a row-major grid of cells.
//
// The grid must be non-empty, rectangular and contain at least one walkable cell.
// The input is copied.
func NewBoard(grid [][]Cell) (*Board, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, errors.New("board is empty")
	}
	rows, cols := len(grid), len(grid[0])
	b := &Board{rows: rows, cols: cols, cells: make([]Cell, 0, rows*cols)}
	walkable := 0
	for y, row := range grid {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d cells, want %d", y, len(row), cols)
		}
		for x, c := range row {
			if c != Path && c != Wall {
				return nil, fmt.Errorf("unknown cell %d at (%d,%d)", c, x, y)
			}
			if c == Path {
				walkable++
			}
		}
		b.cells = append(b.cells, row...)
	}
	if walkable == 0 {
		return nil, errors.New("board has no walkable cell")
	}
	return b, nil
}

// ParseBoard reads a board from text rows.
// '#' and '1' are walls; '.', '0' and ' ' are paths.
func ParseBoard(lines []string) (*Board, error) {
	grid := make([][]Cell, len(lines))
	for y, line := range lines {
		grid[y] = make([]Cell, 0, len(line))
		for x, r := range line {
			switch r {
			case '#', '1':
				grid[y] = append(grid[y], Wall)
			case '.', '0', ' ':
				grid[y] = append(grid[y], Path)
			default:
				return nil, fmt.Errorf("row %d col %d: unexpected tile %q", y, x, r)
			}
		}
	}
	return NewBoard(grid)
}

// ReferenceBoard returns the built-in 15x15 map.
func ReferenceBoard() *Board {
	b, err := ParseBoard(referenceLayout)
	if err != nil {
		panic(err) // the embedded layout is known to be valid
	}
	return b
}

// Rows returns the board height.
func (b *Board) Rows() int { return b.rows }

// Cols returns the board width.
func (b *Board) Cols() int { return b.cols }

// InBounds reports whether p lies on the board.
func (b *Board) InBounds(p Position) bool {
	return p.X >= 0 && p.X < b.cols && p.Y >= 0 && p.Y < b.rows
}

// IsWall reports whether p is blocked. Every out-of-bounds position is blocked.
func (b *Board) IsWall(p Position) bool {
	if !b.InBounds(p) {
		return true
	}
	return b.cells[p.Y*b.cols+p.X] == Wall
}

// WalkableCells returns every path cell in row-major order.
func (b *Board) WalkableCells() []Position {
	out := make([]Position, 0, len(b.cells))
	for i, c := range b.cells {
		if c == Path {
			out = append(out, Position{X: i % b.cols, Y: i / b.cols})
		}
	}
	return out
}

// Lines renders the board back into the text form accepted by ParseBoard.
func (b *Board) Lines() []string {
	lines := make([]string, b.rows)
	var sb strings.Builder
	for y := 0; y < b.rows; y++ {
		sb.Reset()
		for x := 0; x < b.cols; x++ {
			if b.cells[y*b.cols+x] == Wall {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		lines[y] = sb.String()
	}
	return lines
}
