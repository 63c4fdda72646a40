package gomoku

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusPlaying Status = "playing"
	StatusEnded   Status = "ended"
)

// Mode decides who may submit local moves.
type Mode string

const (
	ModeLocal     Mode = "local"
	ModeSuggester Mode = "suggester"
	ModeOnline    Mode = "online"
)

// Engine is the game state machine: Idle -> Playing -> Ended, and back to Playing on Restart.
// It is not safe for concurrent use; the owner serializes calls.
type Engine struct {
	board    entity.Board
	status   Status
	mode     Mode
	turn     entity.Player
	result   entity.WinResult
	lastMove *entity.Move

	// generation changes whenever the board is cleared, so late async results can be detected.
	generation uint64
}

func NewEngine() *Engine {
	return &Engine{
		status: StatusIdle,
	}
}

// Start begins a fresh game in the given mode with black to move.
func (that *Engine) Start(mode Mode) {
	that.mode = mode
	that.clear()
}

// Restart clears the board and plays again in the current mode, however the last game ended.
func (that *Engine) Restart() error {
	if that.status == StatusIdle {
		return apperror.ErrGameIsNotStarted
	}

	that.clear()

	return nil
}

// Reset drops the game and returns to Idle.
func (that *Engine) Reset() {
	that.board = entity.EmptyBoard()
	that.status = StatusIdle
	that.mode = ""
	that.turn = ""
	that.result = entity.WinResult{}
	that.lastMove = nil
	that.generation++
}

// ApplyMove places a stone for player at (row, col). Every rejection wraps ErrInvalidMove and
// leaves the engine untouched.
func (that *Engine) ApplyMove(row, col int, player entity.Player) (entity.WinResult, error) {
	if err := that.validateMove(row, col, player); err != nil {
		return entity.WinResult{}, fmt.Errorf("%w: %w", apperror.ErrInvalidMove, err)
	}

	board, err := that.board.Place(row, col, player)
	if err != nil {
		return entity.WinResult{}, fmt.Errorf("%w: %w", apperror.ErrInvalidMove, err)
	}

	that.board = board
	that.lastMove = &entity.Move{Row: row, Col: col, Player: player}
	that.updateGameStatus(row, col, player)

	return that.result, nil
}

func (that *Engine) validateMove(row, col int, player entity.Player) error {
	switch that.status {
	case StatusIdle:
		return apperror.ErrGameIsNotStarted
	case StatusEnded:
		return apperror.ErrGameFinished
	case StatusPlaying:
	}

	if !entity.InBounds(row, col) {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrOutOfRange, row, col)
	}

	if player != that.turn {
		return fmt.Errorf("%w: %s to move", apperror.ErrNotYourTurn, that.turn)
	}

	return nil
}

// updateGameStatus - checks the game status after a move.
func (that *Engine) updateGameStatus(row, col int, player entity.Player) {
	if result := entity.CheckWin(that.board, row, col, player); result.HasWinner() {
		that.result = result
		that.status = StatusEnded
		return
	}

	if that.board.IsFull() {
		that.status = StatusEnded
		return
	}

	that.turn = player.Opponent()
}

func (that *Engine) clear() {
	that.board = entity.EmptyBoard()
	that.status = StatusPlaying
	that.turn = entity.PlayerBlack
	that.result = entity.WinResult{}
	that.lastMove = nil
	that.generation++
}

func (that *Engine) Board() entity.Board {
	return that.board
}

func (that *Engine) Status() Status {
	return that.status
}

func (that *Engine) Mode() Mode {
	return that.mode
}

// Turn is the color to move. Once the game has ended it stays on the last mover.
func (that *Engine) Turn() entity.Player {
	return that.turn
}

func (that *Engine) Result() entity.WinResult {
	return that.result
}

// IsDraw reports a game that ended on a full board without a winner.
func (that *Engine) IsDraw() bool {
	return that.status == StatusEnded && !that.result.HasWinner()
}

func (that *Engine) LastMove() (entity.Move, bool) {
	if that.lastMove == nil {
		return entity.Move{}, false
	}

	return *that.lastMove, true
}

func (that *Engine) Generation() uint64 {
	return that.generation
}
