package suggester

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type mockSuggester struct {
	mock.Mock
}

func (that *mockSuggester) Suggest(ctx context.Context, board entity.Board, player entity.Player) (entity.Position, error) {
	args := that.Called(ctx, board, player)
	return args.Get(0).(entity.Position), args.Error(1) //nolint: forcetypeassert // test mock
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestRandom_Suggest(t *testing.T) {
	t.Run("Picks an empty cell", func(t *testing.T) {
		// Given: a board with a single empty cell
		board := entity.EmptyBoard()
		for row := range entity.BoardSize {
			for col := range entity.BoardSize {
				if row == 4 && col == 9 {
					continue
				}
				board[row][col] = entity.BlackCell
			}
		}

		// When: asking for a move
		position, err := NewRandom().Suggest(context.Background(), board, entity.PlayerWhite)

		// Then: that cell is chosen
		require.NoError(t, err)
		assert.Equal(t, entity.Position{Row: 4, Col: 9}, position)
	})

	t.Run("Uses the random source over empty cells", func(t *testing.T) {
		random := &Random{intN: func(n int) int {
			assert.Equal(t, entity.BoardSize*entity.BoardSize-1, n)
			return 0
		}}
		board, err := entity.EmptyBoard().Place(0, 0, entity.PlayerBlack)
		require.NoError(t, err)

		position, err := random.Suggest(context.Background(), board, entity.PlayerWhite)

		require.NoError(t, err)
		assert.Equal(t, entity.Position{Row: 0, Col: 1}, position)
	})

	t.Run("Full board", func(t *testing.T) {
		var board entity.Board
		for row := range entity.BoardSize {
			for col := range entity.BoardSize {
				board[row][col] = entity.WhiteCell
			}
		}

		_, err := NewRandom().Suggest(context.Background(), board, entity.PlayerWhite)

		require.ErrorIs(t, err, apperror.ErrNoAvailableMoves)
	})
}

func TestFallback_Suggest(t *testing.T) {
	ctx := context.Background()
	board, err := entity.EmptyBoard().Place(7, 7, entity.PlayerBlack)
	require.NoError(t, err)

	t.Run("Primary answer is used when playable", func(t *testing.T) {
		primary, fallback := new(mockSuggester), new(mockSuggester)
		primary.On("Suggest", ctx, board, entity.PlayerWhite).Return(entity.Position{Row: 7, Col: 8}, nil)

		position, err := NewFallback(discardLogger(), primary, fallback).Suggest(ctx, board, entity.PlayerWhite)

		require.NoError(t, err)
		assert.Equal(t, entity.Position{Row: 7, Col: 8}, position)
		fallback.AssertNotCalled(t, "Suggest", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Occupied or off-board answers fall back", func(t *testing.T) {
		for _, proposed := range []entity.Position{{Row: 7, Col: 7}, {Row: 15, Col: 0}, {Row: -1, Col: 3}} {
			primary, fallback := new(mockSuggester), new(mockSuggester)
			primary.On("Suggest", ctx, board, entity.PlayerWhite).Return(proposed, nil)
			fallback.On("Suggest", ctx, board, entity.PlayerWhite).Return(entity.Position{Row: 0, Col: 0}, nil)

			position, err := NewFallback(discardLogger(), primary, fallback).Suggest(ctx, board, entity.PlayerWhite)

			require.NoError(t, err)
			assert.Equal(t, entity.Position{Row: 0, Col: 0}, position)
			fallback.AssertExpectations(t)
		}
	})

	t.Run("Primary failure falls back", func(t *testing.T) {
		primary, fallback := new(mockSuggester), new(mockSuggester)
		primary.On("Suggest", ctx, board, entity.PlayerWhite).Return(entity.Position{}, errors.New("quota exceeded"))
		fallback.On("Suggest", ctx, board, entity.PlayerWhite).Return(entity.Position{Row: 1, Col: 2}, nil)

		position, err := NewFallback(discardLogger(), primary, fallback).Suggest(ctx, board, entity.PlayerWhite)

		require.NoError(t, err)
		assert.Equal(t, entity.Position{Row: 1, Col: 2}, position)
	})

	t.Run("Both fail", func(t *testing.T) {
		primary, fallback := new(mockSuggester), new(mockSuggester)
		primary.On("Suggest", ctx, board, entity.PlayerWhite).Return(entity.Position{}, errors.New("quota exceeded"))
		fallback.On("Suggest", ctx, board, entity.PlayerWhite).Return(entity.Position{}, apperror.ErrNoAvailableMoves)

		_, err := NewFallback(discardLogger(), primary, fallback).Suggest(ctx, board, entity.PlayerWhite)

		require.ErrorIs(t, err, apperror.ErrNoAvailableMoves)
	})
}
