// Package suggester picks moves for the computer side of a game.
package suggester

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// MoveSuggester proposes a cell for player on board. Proposals are not trusted: callers check them
// against the engine before applying.
type MoveSuggester interface {
	Suggest(ctx context.Context, board entity.Board, player entity.Player) (entity.Position, error)
}

// Fallback asks primary first and falls back when it fails or proposes an unplayable cell.
type Fallback struct {
	logger   *slog.Logger
	primary  MoveSuggester
	fallback MoveSuggester
}

func NewFallback(logger *slog.Logger, primary, fallback MoveSuggester) *Fallback {
	return &Fallback{
		logger:   logger.With("component", "suggester"),
		primary:  primary,
		fallback: fallback,
	}
}

func (that *Fallback) Suggest(ctx context.Context, board entity.Board, player entity.Player) (entity.Position, error) {
	log := that.logger.With("method", "Suggest")

	position, err := that.primary.Suggest(ctx, board, player)
	if err == nil {
		err = validate(board, position)
	}

	if err == nil {
		return position, nil
	}

	log.Warn("primary suggestion unusable, falling back", "error", err)

	position, err = that.fallback.Suggest(ctx, board, player)
	if err != nil {
		return entity.Position{}, fmt.Errorf("fallback suggestion failed: %w", err)
	}

	return position, validate(board, position)
}

func validate(board entity.Board, position entity.Position) error {
	cell, err := board.Get(position.Row, position.Col)
	if err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrSuggestionRejected, err)
	}

	if cell != entity.EmptyCell {
		return fmt.Errorf("%w: (%d, %d) is taken", apperror.ErrSuggestionRejected, position.Row, position.Col)
	}

	return nil
}
