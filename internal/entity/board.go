package entity

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const BoardSize = 15

type Cell string

const (
	EmptyCell Cell = ""
	BlackCell Cell = "black"
	WhiteCell Cell = "white"
)

// Board is a fixed 15x15 grid. It is a value type: Place returns a modified copy and never
// touches the receiver.
type Board [BoardSize][BoardSize]Cell

// Move is a stone placement.
type Move struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Player Player `json:"player"`
}

// Position is a board coordinate.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func EmptyBoard() Board {
	return Board{}
}

func InBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

func (that Board) Get(row, col int) (Cell, error) {
	if !InBounds(row, col) {
		return EmptyCell, fmt.Errorf("%w: (%d, %d)", apperror.ErrOutOfRange, row, col)
	}

	return that[row][col], nil
}

// Place puts a stone into an empty cell and returns the resulting board.
func (that Board) Place(row, col int, player Player) (Board, error) {
	cell, err := that.Get(row, col)
	if err != nil {
		return that, err
	}

	if cell != EmptyCell {
		return that, fmt.Errorf("%w: (%d, %d)", apperror.ErrCellOccupied, row, col)
	}

	if !player.IsValid() {
		return that, fmt.Errorf("%w: player %q", apperror.ErrInvalidMove, player)
	}

	next := that
	next[row][col] = player.Cell()

	return next, nil
}

func (that Board) IsFull() bool {
	for row := range that {
		for col := range that[row] {
			if that[row][col] == EmptyCell {
				return false
			}
		}
	}

	return true
}

// EmptyCells lists free positions in row-major order.
func (that Board) EmptyCells() []Position {
	cells := make([]Position, 0, BoardSize*BoardSize)
	for row := range that {
		for col := range that[row] {
			if that[row][col] == EmptyCell {
				cells = append(cells, Position{Row: row, Col: col})
			}
		}
	}

	return cells
}

// String renders the board one row per line: '.' empty, 'X' black, 'O' white.
func (that Board) String() string {
	out := make([]byte, 0, BoardSize*(BoardSize+1))
	for row := range that {
		for col := range that[row] {
			switch that[row][col] {
			case BlackCell:
				out = append(out, 'X')
			case WhiteCell:
				out = append(out, 'O')
			default:
				out = append(out, '.')
			}
		}
		out = append(out, '\n')
	}

	return string(out)
}
