// Package session keeps two engines on different devices in step over a transport channel.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/transport"
)

type State string

const (
	StateIdle         State = "idle"
	StateWaiting      State = "waiting"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateError        State = "error"
)

var errSendFailed = errors.New("channel refused message")

type NoticeKind string

const (
	NoticeConnected       NoticeKind = "connected"
	NoticePeerJoined      NoticeKind = "peer-joined"
	NoticeGameStarted     NoticeKind = "game-started"
	NoticeRemoteMove      NoticeKind = "remote-move"
	NoticeRestarted       NoticeKind = "restarted"
	NoticeOpponentLeft    NoticeKind = "opponent-left"
	NoticeConnectionError NoticeKind = "connection-error"
)

// Notice is something the surrounding application should hear about.
type Notice struct {
	Kind   NoticeKind
	Move   *entity.Move
	Reason string
}

type engine interface {
	Start(mode gomoku.Mode)
	Restart() error
	Reset()
	ApplyMove(row, col int, player entity.Player) (entity.WinResult, error)
}

// Session is the online half of a game: the room, the role and the channel to the peer. It drives
// the engine it was built with and never keeps a board of its own. Not safe for concurrent use.
type Session struct {
	logger    *slog.Logger
	transport transport.Transport
	engine    engine

	role   entity.Role
	roomID string
	state  State

	conn   transport.Conn
	connID uint64

	// restartsInFlight counts RESTARTs sent and not yet answered by the peer.
	restartsInFlight int
}

func New(logger *slog.Logger, transport transport.Transport, engine engine) *Session {
	return &Session{
		logger:    logger.With("component", "session"),
		transport: transport,
		engine:    engine,
		state:     StateIdle,
	}
}

// CreateRoom registers the room channel as host and waits for a guest.
func (that *Session) CreateRoom(ctx context.Context, roomID string) error {
	log := that.logger.With("method", "CreateRoom")

	if that.conn != nil {
		return apperror.ErrSessionActive
	}

	id, err := entity.NormalizeRoomID(roomID)
	if err != nil {
		return err
	}

	conn, err := that.transport.Listen(ctx, entity.ChannelID(id))
	if err != nil {
		that.state = StateError
		log.Error("failed to open room channel", "room", id, "error", err)
		return fmt.Errorf("failed to open room %s: %w", id, err)
	}

	that.attach(conn, entity.RoleHost, id, StateWaiting)
	log.Info("room opened, waiting for guest", "room", id)

	return nil
}

// JoinRoom dials the channel of a room somebody else created.
func (that *Session) JoinRoom(ctx context.Context, roomID string) error {
	log := that.logger.With("method", "JoinRoom")

	if that.conn != nil {
		return apperror.ErrSessionActive
	}

	id, err := entity.NormalizeRoomID(roomID)
	if err != nil {
		return err
	}

	conn, err := that.transport.Dial(ctx, entity.ChannelID(id))
	if err != nil {
		that.state = StateError
		log.Error("failed to dial room channel", "room", id, "error", err)
		return fmt.Errorf("failed to join room %s: %w", id, err)
	}

	that.attach(conn, entity.RoleGuest, id, StateConnecting)
	log.Info("dialing host", "room", id)

	return nil
}

// Events returns the event stream of the current connection together with its id. Both are zero
// when there is no connection; receiving from the nil channel blocks forever.
func (that *Session) Events() (uint64, <-chan transport.Event) {
	if that.conn == nil {
		return that.connID, nil
	}

	return that.connID, that.conn.Events()
}

// Handle processes one transport event of connection connID. Events of a connection that has
// already been replaced are dropped.
func (that *Session) Handle(connID uint64, event transport.Event) []Notice {
	if that.conn == nil || connID != that.connID {
		that.logger.Debug("dropping event of stale connection", "kind", event.Kind)
		return nil
	}

	switch event.Kind {
	case transport.EventOpened:
		return that.handleOpened()
	case transport.EventData:
		return that.handleData(event.Data)
	case transport.EventClosed:
		return that.handleClosed()
	case transport.EventError:
		return that.handleError(event.Reason)
	default:
		that.logger.Warn("unknown transport event", "kind", event.Kind)
		return nil
	}
}

// SendMove forwards a move that was already applied locally. There is no acknowledgement.
func (that *Session) SendMove(move entity.Move) error {
	return that.send(MoveMessage{Row: move.Row, Col: move.Col, Player: move.Player})
}

// Restart clears the local board and tells the peer to do the same. Either role may restart. The
// peer answers with a RESTART of its own; moves that arrive before that answer were played on the
// old board and are dropped.
func (that *Session) Restart() error {
	if that.state != StateConnected {
		return apperror.ErrNotConnected
	}

	if err := that.engine.Restart(); err != nil {
		return fmt.Errorf("failed to restart game: %w", err)
	}

	if err := that.send(RestartMessage{}); err != nil {
		return err
	}

	that.restartsInFlight++

	return nil
}

// Leave says goodbye to the peer and tears the session down.
func (that *Session) Leave() {
	log := that.logger.With("method", "Leave")

	if that.conn == nil {
		that.reset(StateIdle)
		return
	}

	if err := that.send(LeaveMessage{}); err != nil {
		log.Warn("failed to send leave", "error", err)
	}

	log.Info("left room", "room", that.roomID)
	that.teardown(StateIdle)
}

func (that *Session) Role() entity.Role {
	return that.role
}

func (that *Session) RoomID() string {
	return that.roomID
}

func (that *Session) State() State {
	return that.state
}

func (that *Session) handleOpened() []Notice {
	log := that.logger.With("method", "handleOpened", "room", that.roomID)

	switch {
	case that.role == entity.RoleHost && that.state == StateWaiting:
		that.state = StateConnected
		log.Info("guest attached, starting game")

		if err := that.send(StartGameMessage{}); err != nil {
			log.Error("failed to send start game", "error", err)
		}
		that.engine.Start(gomoku.ModeOnline)

		return []Notice{{Kind: NoticePeerJoined}, {Kind: NoticeGameStarted}}
	case that.role == entity.RoleGuest && that.state == StateConnecting:
		that.state = StateConnected
		log.Info("attached to host, waiting for start")

		if err := that.send(JoinMessage{}); err != nil {
			log.Error("failed to send join", "error", err)
		}

		return []Notice{{Kind: NoticeConnected}}
	default:
		log.Warn("unexpected open event", "role", that.role, "state", that.state)
		return nil
	}
}

func (that *Session) handleData(data []byte) []Notice {
	log := that.logger.With("method", "handleData", "room", that.roomID)

	msg, err := Decode(data)
	if err != nil {
		log.Warn("ignoring inbound message", "error", err)
		return nil
	}

	switch msg := msg.(type) {
	case JoinMessage:
		log.Debug("peer announced itself", "role", that.role)
		return nil
	case StartGameMessage:
		if that.role != entity.RoleGuest || that.state != StateConnected {
			log.Warn("ignoring start game", "role", that.role, "state", that.state)
			return nil
		}

		that.engine.Start(gomoku.ModeOnline)
		log.Info("game started by host")

		return []Notice{{Kind: NoticeGameStarted}}
	case MoveMessage:
		return that.handleRemoteMove(msg)
	case RestartMessage:
		return that.handleRestart()
	case LeaveMessage:
		log.Info("opponent left")
		that.teardown(StateIdle)
		that.engine.Reset()

		return []Notice{{Kind: NoticeOpponentLeft}}
	default:
		log.Warn("unhandled message", "type", msg.Type())
		return nil
	}
}

// handleRestart either answers a restart of our own or restarts on the peer's request and
// answers it. Answering happens even when the engine cannot restart, so the peer stops waiting.
func (that *Session) handleRestart() []Notice {
	log := that.logger.With("method", "handleRestart", "room", that.roomID)

	if that.restartsInFlight > 0 {
		that.restartsInFlight--
		log.Debug("peer answered restart", "in_flight", that.restartsInFlight)

		return nil
	}

	err := that.engine.Restart()

	if sendErr := that.send(RestartMessage{}); sendErr != nil {
		log.Warn("failed to answer restart", "error", sendErr)
	}

	if err != nil {
		log.Warn("ignoring restart", "error", err)
		return nil
	}

	return []Notice{{Kind: NoticeRestarted}}
}

// handleRemoteMove applies a peer move without the local authority check. The engine still
// refuses moves out of turn, on occupied cells or after the end; with an ordered channel both
// peers refuse the same moves, so the boards stay equal. A move sent before the peer saw our
// restart is dropped.
func (that *Session) handleRemoteMove(msg MoveMessage) []Notice {
	log := that.logger.With("method", "handleRemoteMove", "row", msg.Row, "col", msg.Col, "player", msg.Player)

	if that.restartsInFlight > 0 {
		log.Info("dropping move played before our restart")
		return nil
	}

	if _, err := that.engine.ApplyMove(msg.Row, msg.Col, msg.Player); err != nil {
		log.Warn("rejected remote move", "error", err)
		return nil
	}

	move := entity.Move{Row: msg.Row, Col: msg.Col, Player: msg.Player}

	return []Notice{{Kind: NoticeRemoteMove, Move: &move}}
}

func (that *Session) handleClosed() []Notice {
	that.logger.Info("channel closed", "room", that.roomID, "state", that.state)

	wasConnected := that.state == StateConnected
	that.state = StateDisconnected

	if !wasConnected {
		that.teardown(StateDisconnected)
		return []Notice{{Kind: NoticeConnectionError, Reason: "channel closed"}}
	}

	// a closed channel counts as the peer leaving
	that.teardown(StateIdle)
	that.engine.Reset()

	return []Notice{{Kind: NoticeOpponentLeft, Reason: "channel closed"}}
}

func (that *Session) handleError(reason string) []Notice {
	that.logger.Error("transport error", "room", that.roomID, "state", that.state, "reason", reason)

	if that.state == StateConnected {
		that.teardown(StateIdle)
		that.engine.Reset()

		return []Notice{{Kind: NoticeOpponentLeft, Reason: reason}}
	}

	that.teardown(StateError)

	return []Notice{{Kind: NoticeConnectionError, Reason: reason}}
}

func (that *Session) send(msg Message) error {
	if that.conn == nil || that.state != StateConnected {
		return apperror.ErrNotConnected
	}

	data, err := Encode(msg)
	if err != nil {
		return err
	}

	if !that.conn.Send(data) {
		return fmt.Errorf("failed to send %s: %w", msg.Type(), errSendFailed)
	}

	return nil
}

func (that *Session) attach(conn transport.Conn, role entity.Role, roomID string, state State) {
	that.conn = conn
	that.connID++
	that.role = role
	that.roomID = roomID
	that.state = state
}

func (that *Session) teardown(state State) {
	if that.conn != nil {
		if err := that.conn.Close(); err != nil {
			that.logger.Debug("failed to close channel", "error", err)
		}
	}

	that.reset(state)
}

func (that *Session) reset(state State) {
	that.conn = nil
	that.role = entity.RoleNone
	that.roomID = ""
	that.state = state
	that.restartsInFlight = 0
}
