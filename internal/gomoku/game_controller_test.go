package gomoku

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

func TestNewEngine(t *testing.T) {
	// When: a new engine is created
	engine := NewEngine()

	// Then: it is idle with an empty board
	assert.Equal(t, StatusIdle, engine.Status())
	assert.Equal(t, entity.EmptyBoard(), engine.Board())
	assert.False(t, engine.Result().HasWinner())
}

func TestEngine_Start(t *testing.T) {
	// Given: an idle engine
	engine := NewEngine()
	generation := engine.Generation()

	// When: a local game starts
	engine.Start(ModeLocal)

	// Then: black moves first on an empty board
	assert.Equal(t, StatusPlaying, engine.Status())
	assert.Equal(t, ModeLocal, engine.Mode())
	assert.Equal(t, entity.PlayerBlack, engine.Turn())
	assert.Equal(t, entity.EmptyBoard(), engine.Board())
	assert.NotEqual(t, generation, engine.Generation())

	_, ok := engine.LastMove()
	assert.False(t, ok)
}

func TestEngine_ApplyMove(t *testing.T) {
	t.Run("ApplyMove", func(t *testing.T) {
		// Given: a started game
		engine := NewEngine()
		engine.Start(ModeLocal)

		// When: black plays the center
		result, err := engine.ApplyMove(7, 7, entity.PlayerBlack)
		require.NoError(t, err)

		// Then: the stone is placed and white is to move
		assert.False(t, result.HasWinner())
		assert.Equal(t, entity.BlackCell, engine.Board()[7][7])
		assert.Equal(t, entity.PlayerWhite, engine.Turn())
		assert.Equal(t, StatusPlaying, engine.Status())

		last, ok := engine.LastMove()
		require.True(t, ok)
		assert.Equal(t, entity.Move{Row: 7, Col: 7, Player: entity.PlayerBlack}, last)
	})

	t.Run("Error on cell already occupied", func(t *testing.T) {
		// Given: black holds (0, 0)
		engine := NewEngine()
		engine.Start(ModeLocal)
		_, err := engine.ApplyMove(0, 0, entity.PlayerBlack)
		require.NoError(t, err)
		before := engine.Board()

		// When: white plays the same cell
		_, err = engine.ApplyMove(0, 0, entity.PlayerWhite)

		// Then: the move is rejected and the board is unchanged
		require.ErrorIs(t, err, apperror.ErrInvalidMove)
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, before, engine.Board())
		assert.Equal(t, entity.PlayerWhite, engine.Turn())
	})

	t.Run("Error on playing out of turn", func(t *testing.T) {
		engine := NewEngine()
		engine.Start(ModeLocal)

		_, err := engine.ApplyMove(1, 1, entity.PlayerWhite)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, entity.EmptyBoard(), engine.Board())
	})

	t.Run("Invalid Cell", func(t *testing.T) {
		engine := NewEngine()
		engine.Start(ModeLocal)

		_, err := engine.ApplyMove(entity.BoardSize, 0, entity.PlayerBlack)
		require.ErrorIs(t, err, apperror.ErrOutOfRange)

		_, err = engine.ApplyMove(0, -1, entity.PlayerBlack)
		require.ErrorIs(t, err, apperror.ErrOutOfRange)
	})

	t.Run("Move before start", func(t *testing.T) {
		engine := NewEngine()

		_, err := engine.ApplyMove(0, 0, entity.PlayerBlack)

		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Move After Game Finished", func(t *testing.T) {
		// Given: black has won
		engine := playHorizontalWin(t)

		// When: white tries to keep playing
		_, err := engine.ApplyMove(10, 10, entity.PlayerWhite)

		// Then: the game is already finished
		require.ErrorIs(t, err, apperror.ErrGameFinished)
		assert.Equal(t, entity.EmptyCell, engine.Board()[10][10])
	})

	t.Run("Turn alternates with the parity of moves", func(t *testing.T) {
		engine := NewEngine()
		engine.Start(ModeLocal)

		moves := []entity.Position{{Row: 0, Col: 0}, {Row: 14, Col: 14}, {Row: 0, Col: 2}, {Row: 14, Col: 12}, {Row: 0, Col: 4}, {Row: 14, Col: 10}, {Row: 0, Col: 6}}
		for n, pos := range moves {
			_, err := engine.ApplyMove(pos.Row, pos.Col, engine.Turn())
			require.NoError(t, err)

			if (n+1)%2 == 0 {
				assert.Equal(t, entity.PlayerBlack, engine.Turn())
			} else {
				assert.Equal(t, entity.PlayerWhite, engine.Turn())
			}
		}
	})
}

func TestEngine_Win(t *testing.T) {
	// Given/When: black completes (7,7)..(7,11) while white plays elsewhere
	engine := playHorizontalWin(t)

	// Then: the game ended with black as winner and the horizontal line
	assert.Equal(t, StatusEnded, engine.Status())
	result := engine.Result()
	require.True(t, result.HasWinner())
	assert.Equal(t, entity.PlayerBlack, *result.Winner)
	assert.Equal(t, []entity.Position{{Row: 7, Col: 7}, {Row: 7, Col: 8}, {Row: 7, Col: 9}, {Row: 7, Col: 10}, {Row: 7, Col: 11}}, result.Line)
	assert.False(t, engine.IsDraw())
}

func TestEngine_Draw(t *testing.T) {
	// Given: a board filled except the last cell, with no five anywhere
	engine := NewEngine()
	engine.Start(ModeLocal)
	engine.board = drawBoard()
	engine.board[14][14] = entity.EmptyCell
	engine.turn = entity.PlayerWhite

	// When: the last cell is filled
	result, err := engine.ApplyMove(14, 14, entity.PlayerWhite)
	require.NoError(t, err)

	// Then: the game ended without a winner
	assert.True(t, engine.Board().IsFull())
	assert.False(t, result.HasWinner())
	assert.Equal(t, StatusEnded, engine.Status())
	assert.True(t, engine.IsDraw())
}

func TestEngine_Restart(t *testing.T) {
	t.Run("Restart after win keeps the mode", func(t *testing.T) {
		// Given: a finished suggester game
		engine := playHorizontalWin(t)
		engine.mode = ModeSuggester
		generation := engine.Generation()

		// When: restarting
		err := engine.Restart()
		require.NoError(t, err)

		// Then: a fresh game in the same mode is playing
		assert.Equal(t, StatusPlaying, engine.Status())
		assert.Equal(t, ModeSuggester, engine.Mode())
		assert.Equal(t, entity.EmptyBoard(), engine.Board())
		assert.Equal(t, entity.PlayerBlack, engine.Turn())
		assert.False(t, engine.Result().HasWinner())
		assert.NotEqual(t, generation, engine.Generation())
	})

	t.Run("Restart mid game", func(t *testing.T) {
		engine := NewEngine()
		engine.Start(ModeOnline)
		_, err := engine.ApplyMove(3, 3, entity.PlayerBlack)
		require.NoError(t, err)

		require.NoError(t, engine.Restart())

		assert.Equal(t, entity.EmptyBoard(), engine.Board())
		assert.Equal(t, entity.PlayerBlack, engine.Turn())
	})

	t.Run("Restart while idle", func(t *testing.T) {
		engine := NewEngine()

		err := engine.Restart()

		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
		assert.Equal(t, StatusIdle, engine.Status())
	})
}

func TestEngine_Reset(t *testing.T) {
	engine := playHorizontalWin(t)

	engine.Reset()

	assert.Equal(t, StatusIdle, engine.Status())
	assert.Equal(t, Mode(""), engine.Mode())
	assert.Equal(t, entity.EmptyBoard(), engine.Board())
	assert.False(t, engine.Result().HasWinner())
}

func playHorizontalWin(t *testing.T) *Engine {
	t.Helper()

	engine := NewEngine()
	engine.Start(ModeLocal)

	black := []entity.Position{{Row: 7, Col: 7}, {Row: 7, Col: 8}, {Row: 7, Col: 9}, {Row: 7, Col: 10}, {Row: 7, Col: 11}}
	white := []entity.Position{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 0, Col: 3}}

	for i, pos := range black {
		_, err := engine.ApplyMove(pos.Row, pos.Col, entity.PlayerBlack)
		require.NoError(t, err)

		if i < len(white) {
			_, err = engine.ApplyMove(white[i].Row, white[i].Col, entity.PlayerWhite)
			require.NoError(t, err)
		}
	}

	return engine
}

func drawBoard() entity.Board {
	var board entity.Board
	for row := range board {
		for col := range board[row] {
			if (col/2+row)%2 == 0 {
				board[row][col] = entity.BlackCell
			} else {
				board[row][col] = entity.WhiteCell
			}
		}
	}

	return board
}
