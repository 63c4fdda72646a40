package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/session"
	"github.com/rocketscienceinc/gomoku-backend/internal/suggester"
	"github.com/rocketscienceinc/gomoku-backend/internal/transport"
)

const noticeBuffer = 64

// Notice kinds the manager adds to the ones the session reports.
const (
	NoticeSuggestedMove session.NoticeKind = "suggested-move"
	NoticeGameEnded     session.NoticeKind = "game-ended"
)

// suggestion is a suggester answer tagged with the engine generation it was asked for.
type suggestion struct {
	generation uint64
	position   entity.Position
	err        error
}

// Snapshot is a read-only view of everything a front end draws.
type Snapshot struct {
	Board      entity.Board
	Turn       entity.Player
	Status     gomoku.Status
	Mode       gomoku.Mode
	Winner     *entity.Player
	Line       []entity.Position
	Draw       bool
	LastMove   *entity.Move
	Role       entity.Role
	RoomID     string
	Connection session.State
	Thinking   bool
}

// GameManager owns the engine, the online session and the suggester, and serializes every change
// to them. Run must be running for online play and suggester replies.
type GameManager struct {
	logger *slog.Logger

	mu         sync.Mutex
	engine     *gomoku.Engine
	session    *session.Session
	suggester  suggester.MoveSuggester
	fallback   suggester.MoveSuggester
	thinkDelay time.Duration
	thinking   bool
	runCtx     context.Context

	suggestions chan suggestion
	wake        chan struct{}
	notices     chan session.Notice
}

func NewGameManager(logger *slog.Logger, transport transport.Transport, moveSuggester suggester.MoveSuggester,
	thinkDelay time.Duration,
) *GameManager {
	engine := gomoku.NewEngine()

	return &GameManager{
		logger:      logger.With("component", "game_manager"),
		engine:      engine,
		session:     session.New(logger, transport, engine),
		suggester:   moveSuggester,
		fallback:    suggester.NewRandom(),
		thinkDelay:  thinkDelay,
		runCtx:      context.Background(),
		suggestions: make(chan suggestion, 1),
		wake:        make(chan struct{}, 1),
		notices:     make(chan session.Notice, noticeBuffer),
	}
}

// Notices delivers what happened without a local call: peer events, suggester moves, game ends.
func (that *GameManager) Notices() <-chan session.Notice {
	return that.notices
}

// Run consumes transport events and suggester replies until ctx is done.
func (that *GameManager) Run(ctx context.Context) error {
	that.mu.Lock()
	that.runCtx = ctx
	that.mu.Unlock()

	for {
		that.mu.Lock()
		connID, events := that.session.Events()
		that.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				// the stream ended without a close event
				event = transport.Event{Kind: transport.EventClosed}
			}
			that.handleEvent(connID, event)
		case result := <-that.suggestions:
			that.applySuggestion(result)
		case <-that.wake:
		}
	}
}

// StartLocal starts a game where both colors are played on this device.
func (that *GameManager) StartLocal() {
	that.start(gomoku.ModeLocal)
}

// StartAgainstSuggester starts a game where this device plays black and the suggester white.
func (that *GameManager) StartAgainstSuggester() {
	that.start(gomoku.ModeSuggester)
}

// CreateRoom hosts a new online room and returns its id. Any running game is dropped; the next one
// starts once a guest attaches.
func (that *GameManager) CreateRoom(ctx context.Context) (string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.dropGameLocked()

	roomID := entity.NewRoomID()
	if err := that.session.CreateRoom(ctx, roomID); err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}

	that.signal()

	return roomID, nil
}

// JoinRoom attaches to a room hosted elsewhere. Any running game is dropped.
func (that *GameManager) JoinRoom(ctx context.Context, roomID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.dropGameLocked()

	if err := that.session.JoinRoom(ctx, roomID); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	that.signal()

	return nil
}

// PlaceStone plays the side to move at (row, col) if this device may move for it.
func (that *GameManager) PlaceStone(row, col int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "PlaceStone", "row", row, "col", col)

	mode := that.engine.Mode()
	current := that.engine.Turn()

	if that.engine.Status() == gomoku.StatusPlaying {
		if that.thinking || !gomoku.CanSubmit(mode, that.session.Role(), current) {
			return fmt.Errorf("%w: %w", apperror.ErrInvalidMove, apperror.ErrNotYourTurn)
		}
	}

	if _, err := that.engine.ApplyMove(row, col, current); err != nil {
		return err
	}

	move := entity.Move{Row: row, Col: col, Player: current}

	if mode == gomoku.ModeOnline {
		if err := that.session.SendMove(move); err != nil {
			log.Warn("failed to forward move", "error", err)
		}
	}

	if that.engine.Status() == gomoku.StatusEnded {
		that.publishEnd()
		return nil
	}

	if mode == gomoku.ModeSuggester {
		that.scheduleSuggestion()
	}

	return nil
}

// Restart clears the board and keeps playing in the same mode. Online, the peer restarts too.
func (that *GameManager) Restart() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.thinking = false

	if that.engine.Mode() == gomoku.ModeOnline {
		return that.session.Restart()
	}

	return that.engine.Restart()
}

// ReturnToMenu leaves any room and drops the game.
func (that *GameManager) ReturnToMenu() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.dropGameLocked()
	that.signal()
}

func (that *GameManager) Snapshot() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	result := that.engine.Result()
	snapshot := Snapshot{
		Board:      that.engine.Board(),
		Turn:       that.engine.Turn(),
		Status:     that.engine.Status(),
		Mode:       that.engine.Mode(),
		Winner:     result.Winner,
		Line:       result.Line,
		Draw:       that.engine.IsDraw(),
		Role:       that.session.Role(),
		RoomID:     that.session.RoomID(),
		Connection: that.session.State(),
		Thinking:   that.thinking,
	}

	if move, ok := that.engine.LastMove(); ok {
		snapshot.LastMove = &move
	}

	return snapshot
}

func (that *GameManager) start(mode gomoku.Mode) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.leaveLocked()
	that.thinking = false
	that.engine.Start(mode)
	that.signal()
}

func (that *GameManager) handleEvent(connID uint64, event transport.Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, notice := range that.session.Handle(connID, event) {
		that.publish(notice)

		if notice.Kind == session.NoticeRemoteMove && that.engine.Status() == gomoku.StatusEnded {
			that.publishEnd()
		}
	}
}

func (that *GameManager) scheduleSuggestion() {
	that.thinking = true

	ctx := that.runCtx
	generation := that.engine.Generation()
	board := that.engine.Board()
	delay := that.thinkDelay

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}

		position, err := that.suggester.Suggest(ctx, board, entity.PlayerWhite)

		select {
		case that.suggestions <- suggestion{generation: generation, position: position, err: err}:
		case <-ctx.Done():
		}
	}()
}

// applySuggestion plays a suggester reply unless the game moved on while it was computed. A failed
// or illegal reply is replaced by a random empty cell.
func (that *GameManager) applySuggestion(result suggestion) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "applySuggestion")

	if result.generation != that.engine.Generation() {
		log.Debug("discarding suggestion for an old board")
		return
	}

	that.thinking = false

	if that.engine.Mode() != gomoku.ModeSuggester || that.engine.Status() != gomoku.StatusPlaying ||
		that.engine.Turn() != entity.PlayerWhite {
		log.Debug("discarding suggestion, game state changed")
		return
	}

	position := result.position
	if result.err != nil {
		log.Warn("suggester failed, playing a random cell", "error", result.err)
		position = that.randomPosition()
	}

	row, col := position.Row, position.Col
	if _, err := that.engine.ApplyMove(row, col, entity.PlayerWhite); err != nil {
		log.Warn("suggestion rejected, playing a random cell", "row", row, "col", col, "error", err)

		position = that.randomPosition()
		row, col = position.Row, position.Col

		if _, err = that.engine.ApplyMove(row, col, entity.PlayerWhite); err != nil {
			log.Error("random move rejected", "row", row, "col", col, "error", err)
			return
		}
	}

	that.publish(session.Notice{Kind: NoticeSuggestedMove, Move: &entity.Move{Row: row, Col: col, Player: entity.PlayerWhite}})

	if that.engine.Status() == gomoku.StatusEnded {
		that.publishEnd()
	}
}

// randomPosition picks an empty cell. The board is not full while the game is playing.
func (that *GameManager) randomPosition() entity.Position {
	position, err := that.fallback.Suggest(that.runCtx, that.engine.Board(), entity.PlayerWhite)
	if err != nil {
		that.logger.Error("random suggester failed", "error", err)
	}

	return position
}

// dropGameLocked leaves any room, forgets an outstanding suggestion and returns the engine to Idle.
func (that *GameManager) dropGameLocked() {
	that.leaveLocked()
	that.thinking = false
	that.engine.Reset()
}

func (that *GameManager) leaveLocked() {
	if that.session.State() == session.StateIdle {
		return
	}

	that.session.Leave()
}

func (that *GameManager) publishEnd() {
	notice := session.Notice{Kind: NoticeGameEnded}
	if winner := that.engine.Result().Winner; winner != nil {
		notice.Reason = string(*winner)
	} else {
		notice.Reason = "draw"
	}

	that.publish(notice)
}

func (that *GameManager) publish(notice session.Notice) {
	select {
	case that.notices <- notice:
	default:
		that.logger.Warn("notice dropped, nobody is listening", "kind", notice.Kind)
	}
}

// signal makes Run pick up a replaced session channel.
func (that *GameManager) signal() {
	select {
	case that.wake <- struct{}{}:
	default:
	}
}
