package suggester

import (
	"context"
	"math/rand/v2"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Random picks uniformly among the empty cells.
type Random struct {
	intN func(n int) int
}

func NewRandom() *Random {
	return &Random{intN: rand.IntN} //nolint: gosec // move choice, not a secret
}

func (that *Random) Suggest(_ context.Context, board entity.Board, _ entity.Player) (entity.Position, error) {
	cells := board.EmptyCells()
	if len(cells) == 0 {
		return entity.Position{}, apperror.ErrNoAvailableMoves
	}

	return cells[that.intN(len(cells))], nil
}
